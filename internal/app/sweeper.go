package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/petfriends/internal/logger"
	"github.com/samvad-hq/petfriends/internal/storage"
	"github.com/samvad-hq/petfriends/internal/suite"
	"github.com/samvad-hq/petfriends/pkg/petfriends"
)

// SweepResult counts what a sweep did.
type SweepResult struct {
	Tracked int `json:"tracked"`
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}

// Sweeper deletes pets recorded in the ledger by earlier runs.
type Sweeper struct {
	client *petfriends.Client
	creds  suite.Credentials
	store  storage.Store
	log    logger.Logger
}

// NewSweeper builds a sweeper for one account.
func NewSweeper(client *petfriends.Client, creds suite.Credentials, store storage.Store, log logger.Logger) (*Sweeper, error) {
	if client == nil {
		return nil, fmt.Errorf("client must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("storage must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &Sweeper{client: client, creds: creds, store: store, log: log}, nil
}

// Sweep deletes every tracked pet. A pet is forgotten once the service
// answers 200, which it also does for pets that are already gone. Individual
// failures are joined and do not stop the sweep.
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult

	ids, err := s.store.TrackedPets()
	if err != nil {
		return res, fmt.Errorf("list tracked pets: %w", err)
	}
	res.Tracked = len(ids)
	if len(ids) == 0 {
		s.log.InfoObj("no tracked pets to sweep", "sweep_meta", res)
		return res, nil
	}

	resp, err := s.client.GetAPIKey(ctx, s.creds.Email, s.creds.Password)
	if err != nil {
		return res, err
	}
	key, err := resp.AuthKey()
	if err != nil {
		return res, fmt.Errorf("login: status %d: %w", resp.StatusCode, err)
	}

	var errs []error
	for _, id := range ids {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if err := s.sweepOne(ctx, key, id); err != nil {
			res.Failed++
			errs = append(errs, err)
			continue
		}
		res.Deleted++
	}

	s.log.InfoObj("sweep completed", "sweep_meta", res)
	return res, errors.Join(errs...)
}

func (s *Sweeper) sweepOne(ctx context.Context, key petfriends.AuthKey, id string) error {
	resp, err := s.client.DeletePet(ctx, key, id)
	if err != nil {
		return err
	}
	if !resp.OK() {
		s.log.WarnObj("sweep delete rejected", "sweep_pet", map[string]any{
			"pet_id": id,
			"status": resp.StatusCode,
		})
		return fmt.Errorf("delete pet %s: status %d", id, resp.StatusCode)
	}
	if err := s.store.ForgetPet(id); err != nil {
		return fmt.Errorf("forget pet %s: %w", id, err)
	}
	s.log.DebugObj("sweep deleted pet", "sweep_pet", map[string]any{"pet_id": id})
	return nil
}
