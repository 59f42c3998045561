package local

import (
	"fmt"
	"os"

	"github.com/kbukum/apifykit/storage"
)

// DefaultFileMode is the permission of stored files.
const DefaultFileMode os.FileMode = 0o644

// Config holds local filesystem storage configuration.
type Config struct {
	// BasePath is the root directory. It is created when missing.
	BasePath string `yaml:"base_path" mapstructure:"base_path" json:"base_path"`
	// FileMode is applied to every stored file. Defaults to 0644.
	FileMode os.FileMode `yaml:"file_mode" mapstructure:"file_mode" json:"file_mode"`
}

func (c *Config) ApplyDefaults() {
	if c.BasePath == "" {
		c.BasePath = storage.DefaultBasePath
	}
	if c.FileMode == 0 {
		c.FileMode = DefaultFileMode
	}
}

func (c *Config) Validate() error {
	if c.BasePath == "" {
		return fmt.Errorf("local: base_path is required")
	}
	if c.FileMode&0o400 == 0 {
		return fmt.Errorf("local: file_mode %#o must be readable by the owner", c.FileMode)
	}
	return nil
}
