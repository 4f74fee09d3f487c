package base

import (
	"flag"
	"fmt"
	"strings"
)

// FlagSet is a wrapper around flag.FlagSet that renders help text in the
// style of the other subcommands.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet creates a new FlagSet.
func NewFlagSet(f *flag.FlagSet) *FlagSet {
	return &FlagSet{FlagSet: f}
}

// Help returns the help text for the flags.
func (f *FlagSet) Help() string {
	var out strings.Builder
	out.WriteString("\n\nOptions:\n")

	f.VisitAll(func(fl *flag.Flag) {
		fmt.Fprintf(&out, "\n  -%s", fl.Name)
		if fl.DefValue != "" {
			fmt.Fprintf(&out, "=%s", fl.DefValue)
		}
		fmt.Fprintf(&out, "\n      %s\n", fl.Usage)
	})

	return out.String()
}
