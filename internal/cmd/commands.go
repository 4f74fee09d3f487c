package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/hermes-distributor/internal/cmd/base"
	"github.com/hashicorp-forge/hermes-distributor/internal/cmd/commands/distribute"
	"github.com/hashicorp-forge/hermes-distributor/internal/cmd/commands/serve"
	"github.com/hashicorp-forge/hermes-distributor/internal/cmd/commands/version"
)

// Commands is the mapping of all available commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	b := base.NewCommand(log, ui)

	Commands = map[string]cli.CommandFactory{
		"distribute": func() (cli.Command, error) {
			return &distribute.Command{Command: b}, nil
		},
		"serve": func() (cli.Command, error) {
			return &serve.Command{Command: b}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{Command: b}, nil
		},
	}
}
