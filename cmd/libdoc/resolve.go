package main

import (
	"fmt"

	"github.com/fwojciec/libdoc"
)

// Run executes the resolve command.
func (c *ResolveCmd) Run(deps *Dependencies) error {
	repos, err := deps.Docs.ResolveLibrary(deps.Ctx, c.Name)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", libdoc.ErrorMessage(err))
		return err
	}

	fmt.Fprintln(deps.Stdout, libdoc.FormatCandidates(c.Name, repos))
	return nil
}
