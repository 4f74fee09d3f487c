package cmd

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/hermes-distributor/internal/version"
)

// Main runs the CLI with the given arguments and returns the exit code.
func Main(args []string) int {
	cliName := filepath.Base(args[0])

	log := hclog.New(&hclog.LoggerOptions{
		Name:       cliName,
		Level:      hclog.Info,
		JSONFormat: os.Getenv("DISTRIBUTOR_LOG_JSON") != "",
	})

	ui := &cli.BasicUi{
		Reader:      bufio.NewReader(os.Stdin),
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}

	initCommands(log, ui)

	c := &cli.CLI{
		Name:     cliName,
		Args:     normalizeArgs(args[1:]),
		Version:  version.Version,
		Commands: Commands,
	}

	exitCode, err := c.Run()
	if err != nil {
		log.Error("error running command", "error", err)
		return 1
	}

	return exitCode
}

// normalizeArgs maps -v/-version to the version command and runs 'serve'
// when no subcommand is given, including when only serve flags are passed
// (e.g. "hermes-distributor -config=config.hcl").
func normalizeArgs(args []string) []string {
	if len(args) == 1 && (args[0] == "-version" || args[0] == "-v") {
		return []string{"version"}
	}
	if len(args) == 0 {
		return []string{"serve"}
	}
	if first := args[0]; strings.HasPrefix(first, "-") &&
		first != "-h" && first != "-help" && first != "--help" {
		return append([]string{"serve"}, args...)
	}
	return args
}
