package app

import (
	"fmt"

	"github.com/samvad-hq/petfriends/internal/config"
	"github.com/samvad-hq/petfriends/internal/logger"
	"github.com/samvad-hq/petfriends/internal/storage"
	"github.com/samvad-hq/petfriends/internal/suite"
	"github.com/samvad-hq/petfriends/pkg/petfriends"
)

// NewClient builds an API client from config.
func NewClient(cfg *config.Config, log logger.Logger) (*petfriends.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	opts := petfriends.Options{
		BaseURL:          cfg.BaseURL,
		Timeout:          cfg.RequestTimeout,
		PhotoContentType: cfg.PhotoContentType,
	}
	if log != nil {
		opts.Logger = log
	}
	return petfriends.New(opts)
}

// Credentials returns the configured valid account.
func Credentials(cfg *config.Config) suite.Credentials {
	return suite.Credentials{Email: cfg.ValidEmail, Password: cfg.ValidPassword}
}

// OpenStore opens the configured ledger.
func OpenStore(cfg *config.Config, log logger.Logger) (storage.Store, error) {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return openStore(cfg, log)
}
