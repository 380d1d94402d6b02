package main

import (
	"errors"
	"fmt"

	"github.com/samvad-hq/petfriends/internal/config"
	"github.com/samvad-hq/petfriends/internal/logger"
	"github.com/spf13/cobra"
)

var errChecksFailed = errors.New("scenario checks failed")

// cli carries what PersistentPreRunE loaded into the subcommands.
type cli struct {
	cfg *config.Config
	log logger.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "petfriends",
		Short: "PetFriends API client and end-to-end checks",
		Long: `Talks to a PetFriends deployment: fetch keys, list pets, run the
end-to-end scenario suite, sweep pets left behind by earlier runs, or serve
an in-memory fake of the API for local work.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return c.setup()
		},
	}

	root.AddCommand(
		newKeyCmd(c),
		newListCmd(c),
		newCheckCmd(c),
		newSweepCmd(c),
		newFakeCmd(c),
	)
	return root
}

func (c *cli) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	c.cfg = cfg
	c.log = log

	log.DebugObj("config loaded", "config", map[string]any{
		"base_url":          cfg.BaseURL,
		"timeout":           cfg.RequestTimeout.String(),
		"photo_type":        cfg.PhotoContentType,
		"has_credentials":   cfg.HasCredentials(),
		"strict_validation": cfg.StrictValidation,
		"storage_type":      cfg.StorageType,
		"publishers_file":   cfg.PublishersFile,
	})
	return nil
}

func (c *cli) requireCredentials() error {
	if !c.cfg.HasCredentials() {
		return errors.New("VALID_EMAIL and VALID_PASSWORD must be set")
	}
	return nil
}
