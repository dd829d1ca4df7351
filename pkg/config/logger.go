package config

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// CreateLogger returns a development logger when debug is set and a
// production logger otherwise.
func CreateLogger(debug bool) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	return logger, errors.Wrap(err, "create logger")
}

// CreateLogger builds the logger for c, honouring Debug or an override.
func (c *Config) CreateLogger(debug bool) (*zap.Logger, error) {
	return CreateLogger(debug || c.Debug)
}
