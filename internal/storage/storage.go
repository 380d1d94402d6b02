package storage

import (
	"fmt"
	"strings"
	"time"
)

// Package storage keeps a local ledger of pets created against the remote
// service so they can be swept later.

// Store tracks ids of pets created by scenario runs.
type Store interface {
	Close() error
	RecordPet(id string) error
	TrackedPets() ([]string, error)
	ForgetPet(id string) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	PetTTL          time.Duration
	CleanupInterval time.Duration
}

const (
	defaultPetTTL          = 7 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.PetTTL <= 0 {
		opts.PetTTL = defaultPetTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                   { return nil }
func (noopStore) RecordPet(string) error         { return nil }
func (noopStore) TrackedPets() ([]string, error) { return nil, nil }
func (noopStore) ForgetPet(string) error         { return nil }
