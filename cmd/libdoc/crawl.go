package main

import (
	"fmt"

	"github.com/fwojciec/libdoc"
	"github.com/fwojciec/libdoc/crawl"
)

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	res, err := deps.Scraper.Crawl(deps.Ctx, c.URL, deps.CrawlOptions)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", libdoc.ErrorMessage(err))
		return err
	}

	for _, sk := range res.Skipped {
		fmt.Fprintf(deps.Stderr, "skip %s: %s\n", crawl.TruncateURL(sk.URL, 60), libdoc.ErrorMessage(sk.Err))
	}

	store := deps.NewPageStore(c.Path, c.Name)
	for _, page := range res.Pages {
		if err := store.Save(deps.Ctx, page); err != nil {
			_ = store.Abort()
			fmt.Fprintf(deps.Stderr, "error saving %s: %v\n", page.URL, err)
			return err
		}
	}

	if len(res.Pages) == 0 {
		_ = store.Abort()
		fmt.Fprintln(deps.Stdout, "No pages saved")
		return nil
	}
	if err := store.Commit(); err != nil {
		fmt.Fprintf(deps.Stderr, "error committing: %v\n", err)
		return err
	}
	fmt.Fprintln(deps.Stdout, crawl.FormatSummary(res))
	return nil
}
