package main

import (
	"errors"

	"github.com/kbukum/apifykit/apify"
	"github.com/kbukum/apifykit/config"
	"github.com/kbukum/apifykit/observability"
	"github.com/kbukum/apifykit/storage"
)

const serviceName = "apify"

// cliConfig is the file and environment configuration of the binary.
type cliConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Apify         apify.Config         `yaml:"apify" mapstructure:"apify"`
	Storage       storage.Config       `yaml:"storage" mapstructure:"storage"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

func (c *cliConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Apify.ApplyDefaults()
	c.Storage.ApplyDefaults()
}

// Validate checks everything except storage, which is only validated when
// a command writes to it.
func (c *cliConfig) Validate() error {
	return errors.Join(c.ServiceConfig.Validate(), c.Apify.Validate())
}
