// Package fakeapi serves an in-memory imitation of the PetFriends REST API.
// It reproduces the live service's observable contract closely enough for the
// client and the scenario suite to run without network access.
package fakeapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/samvad-hq/petfriends/pkg/petfriends"
)

const (
	maxUploadBytes = 10 << 20
	maxNameRunes   = 255

	// CatalogEmail owns the seeded pets that keep the full catalog non-empty.
	CatalogEmail    = "catalog@petfriends.local"
	catalogPassword = "catalog"
)

// User is a registered account.
type User struct {
	Email    string
	Password string
}

// Options configures a Server.
type Options struct {
	Users []User
	// Strict rejects negative ages, overlong names and non-image photos,
	// which the live service accepts.
	Strict bool
	// SeedPets is the number of catalog pets created at startup.
	SeedPets int
	Now      func() time.Time
}

// Server is an http.Handler implementing the PetFriends API.
type Server struct {
	store  *store
	strict bool
	router chi.Router
}

type ctxKey struct{}

// New builds a Server with the configured users and seed data.
func New(opts Options) *Server {
	s := &Server{
		store:  newStore(opts.Now),
		strict: opts.Strict,
	}
	for _, u := range opts.Users {
		s.store.addAccount(u.Email, u.Password)
	}

	catalog := s.store.addAccount(CatalogEmail, catalogPassword)
	for i := 0; i < opts.SeedPets; i++ {
		s.store.create(catalog, petfriends.NewPet{
			Name:       fmt.Sprintf("Seed %d", i+1),
			AnimalType: "cat",
			Age:        strconv.Itoa(i + 1),
		}, "")
	}

	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeHTMLError(w, http.StatusNotFound, "The requested URL was not found on the server.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeHTMLError(w, http.StatusMethodNotAllowed, "The method is not allowed for the requested URL.")
	})

	r.Get("/api/key", s.getKey)

	r.Group(func(ar chi.Router) {
		ar.Use(s.requireKey)
		ar.Get("/api/pets", s.listPets)
		ar.Post("/api/pets", s.createPet)
		ar.Post("/api/create_pet_simple", s.createPetSimple)
		ar.Post("/api/pets/set_photo/{petID}", s.setPhoto)
		ar.Put("/api/pets/{petID}", s.updatePet)
		ar.Delete("/api/pets/{petID}", s.deletePet)
	})
	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// AddUser registers an account, replacing the password of an existing one.
func (s *Server) AddUser(u User) {
	s.store.addAccount(u.Email, u.Password)
}

// PetsOf returns the pets owned by email, newest first.
func (s *Server) PetsOf(email string) []petfriends.Pet {
	s.store.mu.RLock()
	acc, ok := s.store.accounts[email]
	s.store.mu.RUnlock()
	if !ok {
		return nil
	}
	return s.store.list(acc)
}

func (s *Server) getKey(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.store.login(r.Header.Get("email"), r.Header.Get("password"))
	if !ok {
		writeHTMLError(w, http.StatusForbidden, "This user wasn't found in database")
		return
	}
	writeJSON(w, http.StatusOK, petfriends.AuthKey{Key: acc.key})
}

func (s *Server) requireKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acc, ok := s.store.byKey(r.Header.Get("auth_key"))
		if !ok {
			writeHTMLError(w, http.StatusForbidden, "Please provide 'auth_key' Header")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, acc)))
	})
}

func caller(r *http.Request) *account {
	acc, _ := r.Context().Value(ctxKey{}).(*account)
	return acc
}

func (s *Server) listPets(w http.ResponseWriter, r *http.Request) {
	var pets []petfriends.Pet
	switch petfriends.Filter(r.URL.Query().Get("filter")) {
	case petfriends.FilterAll:
		pets = s.store.list(nil)
	case petfriends.FilterMyPets:
		pets = s.store.list(caller(r))
	default:
		writeHTMLError(w, http.StatusBadRequest, "Filter value is incorrect")
		return
	}
	if pets == nil {
		pets = []petfriends.Pet{}
	}
	writeJSON(w, http.StatusOK, petfriends.PetList{Pets: pets})
}

func (s *Server) createPet(w http.ResponseWriter, r *http.Request) {
	if !isMultipart(r) {
		writeHTMLError(w, http.StatusBadRequest, "Pet photo is required")
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeHTMLError(w, http.StatusBadRequest, "Malformed multipart body")
		return
	}
	fields, msg := s.petFields(r, true)
	if msg != "" {
		writeHTMLError(w, http.StatusBadRequest, msg)
		return
	}
	photo, msg := s.readPhoto(r)
	if msg != "" {
		writeHTMLError(w, http.StatusBadRequest, msg)
		return
	}
	writeJSON(w, http.StatusOK, s.store.create(caller(r), fields, photo))
}

func (s *Server) createPetSimple(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		writeHTMLError(w, http.StatusBadRequest, "Malformed form body")
		return
	}
	fields, msg := s.petFields(r, true)
	if msg != "" {
		writeHTMLError(w, http.StatusBadRequest, msg)
		return
	}
	writeJSON(w, http.StatusOK, s.store.create(caller(r), fields, ""))
}

func (s *Server) setPhoto(w http.ResponseWriter, r *http.Request) {
	if !isMultipart(r) {
		writeHTMLError(w, http.StatusBadRequest, "Pet photo is required")
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeHTMLError(w, http.StatusBadRequest, "Malformed multipart body")
		return
	}
	photo, msg := s.readPhoto(r)
	if msg != "" {
		writeHTMLError(w, http.StatusBadRequest, msg)
		return
	}
	pet, err := s.store.update(caller(r), chi.URLParam(r, "petID"), func(p *petfriends.Pet) {
		p.PetPhoto = photo
	})
	if err != nil {
		writeHTMLError(w, http.StatusBadRequest, "Pet with this id wasn't found!")
		return
	}
	writeJSON(w, http.StatusOK, pet)
}

func (s *Server) updatePet(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		writeHTMLError(w, http.StatusBadRequest, "Malformed form body")
		return
	}
	fields, msg := s.petFields(r, false)
	if msg != "" {
		writeHTMLError(w, http.StatusBadRequest, msg)
		return
	}
	pet, err := s.store.update(caller(r), chi.URLParam(r, "petID"), func(p *petfriends.Pet) {
		if fields.Name != "" {
			p.Name = fields.Name
		}
		if fields.AnimalType != "" {
			p.AnimalType = fields.AnimalType
		}
		if fields.Age != "" {
			p.Age = petfriends.Scalar(fields.Age)
		}
	})
	if err != nil {
		writeHTMLError(w, http.StatusBadRequest, "Pet with this id wasn't found!")
		return
	}
	writeJSON(w, http.StatusOK, pet)
}

func (s *Server) deletePet(w http.ResponseWriter, r *http.Request) {
	s.store.remove(caller(r), chi.URLParam(r, "petID"))
	w.WriteHeader(http.StatusOK)
}

// petFields extracts the form fields and returns a non-empty message when
// the request must be rejected.
func (s *Server) petFields(r *http.Request, required bool) (petfriends.NewPet, string) {
	fields := petfriends.NewPet{
		Name:       r.FormValue("name"),
		AnimalType: r.FormValue("animal_type"),
		Age:        r.FormValue("age"),
	}
	if required {
		for _, f := range []struct{ key, val string }{
			{"name", fields.Name},
			{"animal_type", fields.AnimalType},
			{"age", fields.Age},
		} {
			if strings.TrimSpace(f.val) == "" {
				return fields, fmt.Sprintf("Field '%s' is required", f.key)
			}
		}
	}
	if !s.strict {
		return fields, ""
	}
	if utf8.RuneCountInString(fields.Name) > maxNameRunes {
		return fields, "Name is too long"
	}
	if fields.Age != "" {
		age, err := strconv.Atoi(fields.Age)
		if err != nil || age < 0 {
			return fields, "Age must be a non-negative number"
		}
	}
	return fields, ""
}

func (s *Server) readPhoto(r *http.Request) (string, string) {
	file, hdr, err := r.FormFile("pet_photo")
	if err != nil {
		return "", "Pet photo is required"
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", "Pet photo could not be read"
	}
	declared := hdr.Header.Get("Content-Type")
	if declared == "" {
		declared = "application/octet-stream"
	}
	if s.strict && !strings.HasPrefix(http.DetectContentType(data), "image/") {
		return "", "Pet photo must be an image"
	}
	return "data:" + declared + ";base64," + base64.StdEncoding.EncodeToString(data), ""
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

func parseForm(r *http.Request) error {
	if isMultipart(r) {
		return r.ParseMultipartForm(maxUploadBytes)
	}
	return r.ParseForm()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeHTMLError renders the werkzeug-style error page the live service returns.
func writeHTMLError(w http.ResponseWriter, status int, detail string) {
	text := http.StatusText(status)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, "<!doctype html>\n<html lang=en>\n<title>%d %s</title>\n<h1>%s</h1>\n<p>%s</p>\n",
		status, text, text, html.EscapeString(detail))
}
