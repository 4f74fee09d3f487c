package base

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/hermes-distributor/internal/config"
)

// Command carries what every subcommand needs.
type Command struct {
	// Log is the logger shared by all subcommands.
	Log hclog.Logger

	// UI writes user-facing output.
	UI cli.Ui

	// FS is the filesystem configuration files are read from.
	FS afero.Fs
}

// NewCommand returns a new instance of a base.Command type.
func NewCommand(log hclog.Logger, ui cli.Ui) *Command {
	return &Command{
		Log: log,
		UI:  ui,
		FS:  afero.NewOsFs(),
	}
}

// LoadConfig loads the configuration at path (defaults plus environment when
// path is empty) and applies its log level to c.Log.
func (c *Command) LoadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(c.FS, path)
	if err != nil {
		return nil, err
	}

	level := hclog.LevelFromString(cfg.LogLevel)
	if level == hclog.NoLevel {
		return nil, fmt.Errorf("invalid log level: %q", cfg.LogLevel)
	}
	c.Log.SetLevel(level)

	return cfg, nil
}
