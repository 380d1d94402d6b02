package petfriends

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// AuthKey is the token returned by GET api/key. It is sent as the auth_key
// header on every other call.
type AuthKey struct {
	Key string `json:"key"`
}

// Valid reports whether the key carries a non-empty token.
func (k AuthKey) Valid() bool { return k.Key != "" }

// Filter selects which pets ListPets returns.
type Filter string

const (
	FilterAll    Filter = ""
	FilterMyPets Filter = "my_pets"
)

// Pet is the record returned by the service. The client never validates it.
type Pet struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	AnimalType string `json:"animal_type"`
	Age        Scalar `json:"age"`
	PetPhoto   string `json:"pet_photo,omitempty"`
	UserID     string `json:"user_id,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// CreatedTime parses CreatedAt, which the service sends as fractional unix seconds.
func (p Pet) CreatedTime() (time.Time, bool) {
	if p.CreatedAt == "" {
		return time.Time{}, false
	}
	secs, err := strconv.ParseFloat(p.CreatedAt, 64)
	if err != nil || secs <= 0 {
		return time.Time{}, false
	}
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*1e9)).UTC(), true
}

// PetList is the envelope of GET api/pets.
type PetList struct {
	Pets []Pet `json:"pets"`
}

// Contains reports whether a pet with id is present.
func (l PetList) Contains(id string) bool {
	for _, p := range l.Pets {
		if p.ID == id {
			return true
		}
	}
	return false
}

// NewPet carries the form fields of a create or update call. Age is sent
// verbatim so callers can probe server validation with odd values.
type NewPet struct {
	Name       string
	AnimalType string
	Age        string
}

func (p NewPet) form() map[string]string {
	return map[string]string{
		"name":        p.Name,
		"animal_type": p.AnimalType,
		"age":         p.Age,
	}
}

// Scalar is a string field the service may render as a JSON number.
type Scalar string

func (s *Scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = Scalar(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = Scalar(num.String())
	return nil
}

func (s Scalar) String() string { return string(s) }
