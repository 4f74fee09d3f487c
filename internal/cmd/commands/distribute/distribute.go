package distribute

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/hashicorp-forge/hermes-distributor/internal/cmd/base"
	"github.com/hashicorp-forge/hermes-distributor/internal/server"
	"github.com/hashicorp-forge/hermes-distributor/pkg/distribute"
)

type Command struct {
	*base.Command

	flagConfig   string
	flagTemplate string
	flagFolder   string
	flagRecord   string
}

func (c *Command) Synopsis() string {
	return "Copy a template document once and print the result"
}

func (c *Command) Help() string {
	return `Usage: hermes-distributor distribute -template=URL [-folder=URL] [-record=ID]

  Copy the template document into the destination folder (or the configured
  default folder) and print the result as JSON. Exits 1 when the copy fails.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("distribute", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", os.Getenv("DISTRIBUTOR_CONFIG"),
		"[DISTRIBUTOR_CONFIG] Path to the HCL config file",
	)
	f.StringVar(
		&c.flagTemplate, "template", "",
		"URL of the template document (required)",
	)
	f.StringVar(
		&c.flagFolder, "folder", "",
		"URL of the destination folder",
	)
	f.StringVar(
		&c.flagRecord, "record", "",
		"Correlation id echoed in the result (default: a random UUID)",
	)

	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	if c.flagTemplate == "" {
		c.UI.Error("template URL is required (-template)")
		return 1
	}
	if c.flagRecord == "" {
		c.flagRecord = uuid.NewString()
	}

	cfg, err := c.LoadConfig(c.flagConfig)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error loading config: %v", err))
		return 1
	}

	srv, err := server.New(cfg, c.Log, nil)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error initializing distributor: %v", err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res := srv.Distributor.Distribute(ctx, distribute.Request{
		RecordID:        c.flagRecord,
		TemplateDocURL:  c.flagTemplate,
		TargetFolderURL: c.flagFolder,
	})

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		c.UI.Error(fmt.Sprintf("error encoding result: %v", err))
		return 1
	}
	c.UI.Output(string(out))

	if !res.OK {
		return 1
	}
	return 0
}
