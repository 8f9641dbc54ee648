package main

import (
	"fmt"

	"github.com/fwojciec/libdoc"
)

// Run executes the cache list command.
func (c *CacheListCmd) Run(deps *Dependencies) error {
	libs, err := deps.Cache.Libraries(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", libdoc.ErrorMessage(err))
		return err
	}

	if len(libs) == 0 {
		fmt.Fprintln(deps.Stdout, "Cache is empty.")
		return nil
	}
	for _, id := range libs {
		fmt.Fprintln(deps.Stdout, id)
	}
	return nil
}

// Run executes the cache purge command.
func (c *CachePurgeCmd) Run(deps *Dependencies) error {
	id, err := libdoc.ParseLibraryID(c.Library)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", libdoc.ErrorMessage(err))
		return err
	}

	if err := deps.Cache.Purge(deps.Ctx, id); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", libdoc.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Purged %s\n", id)
	return nil
}
