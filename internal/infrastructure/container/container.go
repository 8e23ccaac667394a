// Package container provides dependency injection for the application.
package container

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/reglet-dev/credbind/internal/application/ports"
	"github.com/reglet-dev/credbind/internal/application/services"
	"github.com/reglet-dev/credbind/internal/domain/binding"
	"github.com/reglet-dev/credbind/internal/infrastructure/credstore"
	"github.com/reglet-dev/credbind/internal/infrastructure/persistence/memory"
	usageredis "github.com/reglet-dev/credbind/internal/infrastructure/persistence/redis"
	usagesqlite "github.com/reglet-dev/credbind/internal/infrastructure/persistence/sqlite"
	"github.com/reglet-dev/credbind/internal/infrastructure/redaction"
	"github.com/reglet-dev/credbind/internal/infrastructure/sensitivedata"
	"github.com/reglet-dev/credbind/internal/infrastructure/system"
	"github.com/reglet-dev/credbind/internal/infrastructure/transforms"
)

// Container holds all application dependencies.
type Container struct {
	registry    *binding.Registry
	store       *credstore.Store
	usageRepo   ports.UsageRepository
	scopeRunner *services.ScopeRunner
	systemCfg   *system.Config
	logger      *slog.Logger
	closers     []func() error
}

// Options configure the container.
type Options struct {
	Logger           *slog.Logger
	SystemConfigPath string
	// CredentialsFile overrides credentials.file from the system config.
	CredentialsFile string
}

// New creates a new dependency injection container.
func New(ctx context.Context, opts Options) (*Container, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	configPath := opts.SystemConfigPath
	if configPath == "" {
		configPath = system.DefaultConfigPath()
	}

	systemCfg, err := system.NewConfigLoader().Load(configPath)
	if err != nil {
		return nil, err
	}
	if opts.CredentialsFile != "" {
		systemCfg.Credentials.File = opts.CredentialsFile
	}

	c := &Container{systemCfg: systemCfg, logger: opts.Logger}

	redactor, err := redaction.New(systemCfg.Redaction.RedactorConfig(systemCfg.Masking.Placeholder))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redactor: %w", err)
	}
	masking := sensitivedata.NewMasking(systemCfg.Masking.Placeholder, redactor)

	c.usageRepo, err = c.openUsageRepository(ctx)
	if err != nil {
		return nil, err
	}

	source, err := loadCredentials(systemCfg.Credentials.File, opts.Logger)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.store = credstore.NewStore(source, c.usageRepo, opts.Logger)

	c.registry = transforms.NewDefaultRegistry()
	binder := services.NewScopeBinder(c.registry, c.store, opts.Logger)
	c.scopeRunner = services.NewScopeRunner(binder, c.store, masking, opts.Logger)

	return c, nil
}

func (c *Container) openUsageRepository(ctx context.Context) (ports.UsageRepository, error) {
	cfg := c.systemCfg.Usage
	switch cfg.Backend {
	case system.UsageBackendSQLite:
		db, err := usagesqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open usage database: %w", err)
		}
		c.closers = append(c.closers, db.Close)
		return usagesqlite.NewUsageRepository(db), nil

	case system.UsageBackendRedis:
		repo := usageredis.NewUsageRepository(usageredis.Config{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err := repo.Ping(ctx); err != nil {
			_ = repo.Close()
			return nil, fmt.Errorf("failed to connect to usage redis at %s: %w", cfg.Redis.Addr, err)
		}
		c.closers = append(c.closers, repo.Close)
		return repo, nil

	default:
		return memory.NewUsageRepository(), nil
	}
}

// loadCredentials returns nil, nil when the file does not exist so that
// commands which never look up credentials still work.
func loadCredentials(path string, logger *slog.Logger) (credstore.Source, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		logger.Debug("no credentials file, every lookup will fail", "path", path)
		return nil, nil
	}
	src, err := credstore.LoadFile(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded credentials", "path", path, "count", src.Len())
	return src, nil
}

// ScopeRunner returns the scope runner use case.
func (c *Container) ScopeRunner() *services.ScopeRunner {
	return c.scopeRunner
}

// Registry returns the sealed binding type registry.
func (c *Container) Registry() *binding.Registry {
	return c.registry
}

// UsageRepository returns the configured usage repository.
func (c *Container) UsageRepository() ports.UsageRepository {
	return c.usageRepo
}

// CredentialStore returns the credential store.
func (c *Container) CredentialStore() ports.CredentialStore {
	return c.store
}

// SystemConfig returns the system configuration.
func (c *Container) SystemConfig() *system.Config {
	return c.systemCfg
}

// Logger returns the configured logger.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// Close releases backend connections.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	c.closers = nil
	return errors.Join(errs...)
}
