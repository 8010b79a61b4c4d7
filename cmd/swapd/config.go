package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/iov-one/htlc/errors"
	"github.com/tendermint/tendermint/libs/log"
)

// config is read from the environment. Every value can be overwritten by
// the command flags.
type config struct {
	Home      string `env:"SWAPD_HOME"`
	Key       string `env:"SWAPD_KEY"`
	LogLevel  string `env:"SWAPD_LOG_LEVEL" envDefault:"info"`
	DBBackend string `env:"SWAPD_DB_BACKEND" envDefault:"goleveldb"`
	Debug     bool   `env:"SWAPD_DEBUG"`
}

func loadConfig() (config, error) {
	var c config
	if err := env.Parse(&c); err != nil {
		return c, errors.Wrapf(errors.ErrInput, "environment: %s", err)
	}
	if c.Home == "" {
		c.Home = filepath.Join(os.Getenv("HOME"), ".swapd")
	}
	if c.Key == "" {
		c.Key = filepath.Join(c.Home, "priv.key")
	}
	return c, nil
}

// register declares the flags shared by all commands operating on the
// ledger. Defaults come from the environment.
func (c *config) register(fl *flag.FlagSet) {
	fl.StringVar(&c.Home, "home", c.Home, "Directory of the ledger database. You can use SWAPD_HOME environment variable to set it.")
	fl.StringVar(&c.LogLevel, "log", c.LogLevel, "Log level: debug, info, error or none. You can use SWAPD_LOG_LEVEL environment variable to set it.")
	fl.StringVar(&c.DBBackend, "db", c.DBBackend, "Database backend: goleveldb or memdb. You can use SWAPD_DB_BACKEND environment variable to set it.")
	fl.BoolVar(&c.Debug, "debug", c.Debug, "Report failed transactions with the full error. You can use SWAPD_DEBUG environment variable to set it.")
}

// registerKey declares the private key flag.
func (c *config) registerKey(fl *flag.FlagSet) {
	fl.StringVar(&c.Key, "key", c.Key, "Path to the private key file. You can use SWAPD_KEY environment variable to set it.")
}

// logger writes to stderr, so that it never mixes with the command result.
func (c config) logger() (log.Logger, error) {
	logger := log.NewTMLogger(log.NewSyncWriter(os.Stderr))
	opt, err := log.AllowLevel(c.LogLevel)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "log level: %s", err)
	}
	return log.NewFilter(logger, opt), nil
}
