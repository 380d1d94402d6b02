package fakeapi

import (
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samvad-hq/petfriends/pkg/petfriends"
)

var errPetNotFound = errors.New("pet not found")

type account struct {
	id       string
	email    string
	password string
	key      string
}

type record struct {
	pet petfriends.Pet
	seq int
}

// store is the in-memory state behind the fake server.
type store struct {
	mu       sync.RWMutex
	accounts map[string]*account // by email
	keys     map[string]*account // by auth key
	pets     map[string]*record
	seq      int
	now      func() time.Time
}

func newStore(now func() time.Time) *store {
	if now == nil {
		now = time.Now
	}
	return &store{
		accounts: make(map[string]*account),
		keys:     make(map[string]*account),
		pets:     make(map[string]*record),
		now:      now,
	}
}

func (s *store) addAccount(email, password string) *account {
	s.mu.Lock()
	defer s.mu.Unlock()

	if acc, ok := s.accounts[email]; ok {
		acc.password = password
		return acc
	}
	acc := &account{id: uuid.NewString(), email: email, password: password, key: uuid.NewString()}
	s.accounts[email] = acc
	s.keys[acc.key] = acc
	return acc
}

func (s *store) login(email, password string) (*account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[email]
	if !ok || acc.password != password {
		return nil, false
	}
	return acc, true
}

func (s *store) byKey(key string) (*account, bool) {
	if key == "" {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.keys[key]
	return acc, ok
}

func (s *store) create(owner *account, fields petfriends.NewPet, photo string) petfriends.Pet {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.seq++
	rec := &record{
		pet: petfriends.Pet{
			ID:         uuid.NewString(),
			Name:       fields.Name,
			AnimalType: fields.AnimalType,
			Age:        petfriends.Scalar(fields.Age),
			PetPhoto:   photo,
			UserID:     owner.id,
			CreatedAt:  formatCreated(now),
		},
		seq: s.seq,
	}
	s.pets[rec.pet.ID] = rec
	return rec.pet
}

// list returns pets newest first. An empty owner lists everything.
func (s *store) list(owner *account) []petfriends.Pet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]*record, 0, len(s.pets))
	for _, rec := range s.pets {
		if owner != nil && rec.pet.UserID != owner.id {
			continue
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq > recs[j].seq })

	out := make([]petfriends.Pet, len(recs))
	for i, rec := range recs {
		out[i] = rec.pet
	}
	return out
}

func (s *store) update(owner *account, id string, apply func(*petfriends.Pet)) (petfriends.Pet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.pets[id]
	if !ok || rec.pet.UserID != owner.id {
		return petfriends.Pet{}, errPetNotFound
	}
	apply(&rec.pet)
	return rec.pet, nil
}

func (s *store) remove(owner *account, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.pets[id]; ok && rec.pet.UserID == owner.id {
		delete(s.pets, id)
	}
}

// formatCreated renders fractional unix seconds, as the live service does.
func formatCreated(t time.Time) string {
	return strconv.FormatFloat(float64(t.UnixNano())/1e9, 'f', 6, 64)
}
