package main

import (
	"fmt"

	"github.com/fwojciec/libdoc"
)

// Run executes the ask command.
func (c *AskCmd) Run(deps *Dependencies) error {
	id, err := libdoc.ParseLibraryID(c.Library)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", libdoc.ErrorMessage(err))
		return err
	}

	opts := deps.QueryDefaults
	opts.Deep = opts.Deep || c.Deep

	res, err := deps.Docs.QueryDocs(deps.Ctx, id, c.Question, opts)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", libdoc.ErrorMessage(err))
		return err
	}

	answer, err := deps.Asker.Ask(deps.Ctx, c.Question, res.Results)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", libdoc.ErrorMessage(err))
		return err
	}

	fmt.Fprintln(deps.Stdout, answer)
	return nil
}
