// Package di provides dependency injection container
package di

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ssargent/tscap/pkg/api"
	"github.com/ssargent/tscap/pkg/config"
	"github.com/ssargent/tscap/pkg/logging"
	"github.com/ssargent/tscap/pkg/storage"
)

// StoreOpener opens the capture store described by cfg
type StoreOpener func(cfg *config.Config, logger *slog.Logger) (*storage.Store, error)

// Container holds all the dependencies for the application
type Container struct {
	config        *config.Config
	logger        *slog.Logger
	serverFactory api.ServerFactory
	storeOpener   StoreOpener
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{
		config:        config.DefaultConfig(),
		logger:        logging.Discard(),
		serverFactory: api.NewServerFactory(),
		storeOpener:   OpenStore,
	}
}

// OpenStore opens the pebble capture store under cfg.DataDir
func OpenStore(cfg *config.Config, logger *slog.Logger) (*storage.Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	return storage.Open(storage.Options{
		DataDir:     cfg.DataDir,
		Compression: cfg.Store.Compression,
		Sync:        cfg.Store.Fsync != config.FsyncNever,
		Logger:      logger,
	})
}

// SetConfig installs the loaded configuration and the logger built from it
func (c *Container) SetConfig(cfg *config.Config, logger *slog.Logger) {
	c.config = cfg
	if logger != nil {
		c.logger = logger
	}
}

// GetConfig returns the loaded configuration
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetLogger returns the process logger
func (c *Container) GetLogger() *slog.Logger {
	return c.logger
}

// OpenStore opens the capture store for the loaded configuration
func (c *Container) OpenStore() (*storage.Store, error) {
	return c.storeOpener(c.config, c.logger)
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}

// SetStoreOpener allows overriding how the store is opened (for testing)
func (c *Container) SetStoreOpener(opener StoreOpener) {
	c.storeOpener = opener
}
