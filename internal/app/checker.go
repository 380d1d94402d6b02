package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/samvad-hq/petfriends/internal/config"
	"github.com/samvad-hq/petfriends/internal/domain"
	"github.com/samvad-hq/petfriends/internal/logger"
	"github.com/samvad-hq/petfriends/internal/storage"
	"github.com/samvad-hq/petfriends/internal/suite"
	"github.com/samvad-hq/petfriends/pkg/publishers"
)

const eventSource = "petfriends-check"

// Checker runs the scenario suite against the configured deployment, records
// created pets in the ledger and publishes the report.
type Checker struct {
	cfg    *config.Config
	fanout *publishers.Fanout
	store  storage.Store
	log    logger.Logger
}

// NewChecker builds a checker runtime from config files.
func NewChecker(ctx context.Context, cfg *config.Config, log logger.Logger) (*Checker, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	fanout, err := loadFanout(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	store, err := openStore(cfg, log)
	if err != nil {
		_ = fanout.Close()
		return nil, err
	}

	return &Checker{
		cfg:    cfg,
		fanout: fanout,
		store:  store,
		log:    log,
	}, nil
}

// Run executes the named scenarios, or all of them, and publishes the report.
// A failing scenario is reported, not returned; the error covers setup and
// publishing.
func (c *Checker) Run(ctx context.Context, names ...string) (domain.RunReport, error) {
	if c == nil || c.cfg == nil {
		return domain.RunReport{}, fmt.Errorf("checker is not initialized")
	}

	scenarios, err := suite.Select(names...)
	if err != nil {
		return domain.RunReport{}, err
	}

	env, cleanup, err := suite.FromConfig(c.cfg, c.store, c.log)
	if err != nil {
		return domain.RunReport{}, fmt.Errorf("build suite env: %w", err)
	}
	defer cleanup()

	report := suite.NewRunner(env, c.log).Run(ctx, scenarios)

	delivered, err := c.fanout.Publish(ctx, publishers.NewEvent(eventSource, report))
	if err != nil {
		c.log.ErrorObj("report publish failed", "publish_meta", map[string]any{
			"run_id":    report.RunID,
			"delivered": delivered,
			"error":     err.Error(),
		})
		return report, fmt.Errorf("publish report: %w", err)
	}
	if c.fanout.Size() > 0 {
		c.log.InfoObj("report published", "publish_meta", map[string]any{
			"run_id":    report.RunID,
			"delivered": delivered,
		})
	}
	return report, nil
}

// Store exposes the ledger so a sweep can follow a check in the same process.
func (c *Checker) Store() storage.Store {
	if c == nil {
		return nil
	}
	return c.store
}

// Close releases the ledger and publisher connections.
func (c *Checker) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if err := c.fanout.Close(); err != nil {
		errs = append(errs, err)
	}
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	return errors.Join(errs...)
}

// loadFanout builds publishers from the registry file. A missing file means
// reports are only logged.
func loadFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if errors.Is(err, os.ErrNotExist) {
		log.InfoObj("publishers file not found; reports will not be published", "publishers_file", cfg.PublishersFile)
		return publishers.NewFanout(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}

	enabledPublishers := publisherReg.Enabled()
	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})
	return publishers.NewFanout(pubClients), nil
}

func openStore(cfg *config.Config, log logger.Logger) (storage.Store, error) {
	storeOpts := storage.Options{
		PetTTL:          cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"pet_ttl_seconds":          int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})
	return store, nil
}
