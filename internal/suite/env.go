// Package suite holds the end-to-end scenarios run against a PetFriends
// deployment, and the runner that turns them into a report.
package suite

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/samvad-hq/petfriends/internal/config"
	"github.com/samvad-hq/petfriends/internal/logger"
	"github.com/samvad-hq/petfriends/internal/storage"
	"github.com/samvad-hq/petfriends/pkg/petfriends"
)

// Credentials is an email/password pair.
type Credentials struct {
	Email    string
	Password string
}

// Env is everything a scenario needs. Scenarios share no other state.
type Env struct {
	Client   *petfriends.Client
	Valid    Credentials
	Invalid  Credentials
	Photo    string
	BadPhoto string
	// Strict expects 400 where the live service is known to accept odd input.
	Strict bool
	Ledger storage.Store
	Log    logger.Logger
}

// FromConfig builds an Env for the configured deployment. Photo fixtures are
// generated into a temporary directory unless both paths are configured; the
// returned cleanup removes it.
func FromConfig(cfg *config.Config, ledger storage.Store, log logger.Logger) (*Env, func(), error) {
	if cfg == nil {
		return nil, nil, errors.New("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if !cfg.HasCredentials() {
		return nil, nil, errors.New("valid_email and valid_password must be set")
	}

	client, err := petfriends.New(petfriends.Options{
		BaseURL:          cfg.BaseURL,
		Timeout:          cfg.RequestTimeout,
		PhotoContentType: cfg.PhotoContentType,
		Logger:           log,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("build client: %w", err)
	}

	env := &Env{
		Client:   client,
		Valid:    Credentials{Email: cfg.ValidEmail, Password: cfg.ValidPassword},
		Invalid:  Credentials{Email: cfg.InvalidEmail, Password: cfg.InvalidPassword},
		Photo:    cfg.PhotoPath,
		BadPhoto: cfg.BadPhotoPath,
		Strict:   cfg.StrictValidation,
		Ledger:   ledger,
		Log:      log,
	}
	cleanup := func() {}
	if env.Photo == "" || env.BadPhoto == "" {
		dir, err := os.MkdirTemp("", "petfriends-fixtures-")
		if err != nil {
			return nil, nil, fmt.Errorf("create fixtures dir: %w", err)
		}
		cleanup = func() { _ = os.RemoveAll(dir) }
		photo, bad, err := WriteFixtures(dir)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		if env.Photo == "" {
			env.Photo = photo
		}
		if env.BadPhoto == "" {
			env.BadPhoto = bad
		}
	}
	return env, cleanup, nil
}

func (e *Env) validate() error {
	if e == nil || e.Client == nil {
		return errors.New("suite env has no client")
	}
	if e.Valid.Email == "" || e.Valid.Password == "" {
		return errors.New("suite env has no valid credentials")
	}
	if e.Photo == "" || e.BadPhoto == "" {
		return errors.New("suite env has no photo fixtures")
	}
	return nil
}

func (e *Env) log() logger.Logger {
	if e.Log == nil {
		return &logger.NopLogger{}
	}
	return e.Log
}

// login fetches an auth key for the valid account.
func (e *Env) login(ctx context.Context) (petfriends.AuthKey, error) {
	resp, err := e.Client.GetAPIKey(ctx, e.Valid.Email, e.Valid.Password)
	if err != nil {
		return petfriends.AuthKey{}, err
	}
	if err := expectStatus(resp, 200); err != nil {
		return petfriends.AuthKey{}, fmt.Errorf("login: %w", err)
	}
	return resp.AuthKey()
}

func (e *Env) myPets(ctx context.Context, key petfriends.AuthKey) (petfriends.PetList, error) {
	resp, err := e.Client.ListPets(ctx, key, petfriends.FilterMyPets)
	if err != nil {
		return petfriends.PetList{}, err
	}
	if err := expectStatus(resp, 200); err != nil {
		return petfriends.PetList{}, fmt.Errorf("list my pets: %w", err)
	}
	return resp.Pets()
}

// ensureMyPet returns the caller's pets, creating one first when there are none.
func (e *Env) ensureMyPet(ctx context.Context, key petfriends.AuthKey, seed petfriends.NewPet) (petfriends.PetList, error) {
	list, err := e.myPets(ctx, key)
	if err != nil || len(list.Pets) > 0 {
		return list, err
	}
	if _, err := e.addPet(ctx, key, seed, e.Photo); err != nil {
		return list, err
	}
	return e.myPets(ctx, key)
}

// addPet creates a pet with a photo and records it in the ledger on success.
func (e *Env) addPet(ctx context.Context, key petfriends.AuthKey, pet petfriends.NewPet, photo string) (*petfriends.Response, error) {
	resp, err := e.Client.AddNewPet(ctx, key, pet, photo)
	if err != nil {
		return nil, err
	}
	e.track(resp)
	return resp, nil
}

func (e *Env) track(resp *petfriends.Response) {
	if e.Ledger == nil || !resp.OK() {
		return
	}
	id, ok := resp.Body.String("id")
	if !ok || id == "" {
		return
	}
	if err := e.Ledger.RecordPet(id); err != nil {
		e.log().WarnObj("ledger record failed", "ledger_error", map[string]any{
			"pet_id": id,
			"error":  err.Error(),
		})
	}
}

func (e *Env) forget(id string) {
	if e.Ledger == nil {
		return
	}
	if err := e.Ledger.ForgetPet(id); err != nil {
		e.log().WarnObj("ledger forget failed", "ledger_error", map[string]any{
			"pet_id": id,
			"error":  err.Error(),
		})
	}
}
