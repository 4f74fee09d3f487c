package version

import (
	"github.com/hashicorp-forge/hermes-distributor/internal/cmd/base"
	"github.com/hashicorp-forge/hermes-distributor/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version"
}

func (c *Command) Help() string {
	return `Usage: hermes-distributor version

  Print the version of the distributor.`
}

func (c *Command) Run(args []string) int {
	c.UI.Output(version.Version)
	return 0
}
