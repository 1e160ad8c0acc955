package main

import (
	"context"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"scango/app/internal/app/bootstrap"
	"scango/app/internal/config"
	applog "scango/app/internal/log"
)

type globalFlags struct {
	configFile string
	dbPath     string
	uploadDir  string
	logLevel   string
}

// commandContext lazily resolves configuration and opens the stores the
// first time a subcommand needs them.
type commandContext struct {
	flags  *globalFlags
	cfg    *config.Config
	logger *logrus.Logger
	stores *bootstrap.Stores
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig(stderr io.Writer) (*config.Config, *logrus.Logger, error) {
	if c.cfg != nil {
		return c.cfg, c.logger, nil
	}

	_ = godotenv.Load()

	if c.flags.configFile != "" {
		if err := os.Setenv("CONFIG_FILE", c.flags.configFile); err != nil {
			return nil, nil, eris.Wrap(err, "selecting config file")
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, eris.Wrap(err, "loading configuration")
	}
	if c.flags.dbPath != "" {
		cfg.DBPath = c.flags.dbPath
	}
	if c.flags.uploadDir != "" {
		cfg.UploadDir = c.flags.uploadDir
	}
	if c.flags.logLevel != "" {
		cfg.LogLevel = c.flags.logLevel
	}

	logger, err := applog.NewLogger(applog.Options{Level: cfg.LogLevel, Text: true, Output: stderr})
	if err != nil {
		return nil, nil, eris.Wrap(err, "initialising logger")
	}

	c.cfg = cfg
	c.logger = logger
	return cfg, logger, nil
}

func (c *commandContext) ensureStores(ctx context.Context, stderr io.Writer) (*bootstrap.Stores, error) {
	if c.stores != nil {
		return c.stores, nil
	}

	cfg, logger, err := c.ensureConfig(stderr)
	if err != nil {
		return nil, err
	}

	stores, err := bootstrap.OpenStores(ctx, *cfg, logger)
	if err != nil {
		return nil, err
	}
	c.stores = stores
	return stores, nil
}

func (c *commandContext) close() error {
	if c.stores == nil {
		return nil
	}
	err := c.stores.Close()
	c.stores = nil
	return err
}
