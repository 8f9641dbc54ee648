package main

import (
	"fmt"

	"github.com/fwojciec/libdoc"
)

// Run executes the query command.
func (c *QueryCmd) Run(deps *Dependencies) error {
	id, err := libdoc.ParseLibraryID(c.Library)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", libdoc.ErrorMessage(err))
		return err
	}

	opts := deps.QueryDefaults
	opts.Deep = opts.Deep || c.Deep
	if c.Tokens > 0 {
		opts.MaxTokens = c.Tokens
	}

	res, err := deps.Docs.QueryDocs(deps.Ctx, id, c.Query, opts)
	if libdoc.ErrorCode(err) == libdoc.ENOTFOUND {
		fmt.Fprintln(deps.Stdout, libdoc.FormatNoDocumentation(id))
		return nil
	} else if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", libdoc.ErrorMessage(err))
		return err
	}

	fmt.Fprintln(deps.Stdout, libdoc.FormatResults(res.Results))
	for _, st := range res.Stages {
		fmt.Fprintf(deps.Stderr, "  %s: %s\n", st.Namespace, formatStage(st))
	}
	return nil
}

// formatStage summarizes a stage report for the terminal.
func formatStage(st libdoc.StageReport) string {
	switch {
	case st.Err != nil:
		return "failed (" + libdoc.ErrorMessage(st.Err) + ")"
	case st.Skipped:
		return "skipped"
	case st.Cached:
		return fmt.Sprintf("%d documents, %d chunks (cached)", st.Documents, st.Chunks)
	}
	return fmt.Sprintf("%d documents, %d chunks", st.Documents, st.Chunks)
}
