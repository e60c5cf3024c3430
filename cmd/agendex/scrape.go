package main

import (
	"fmt"

	"github.com/fwojciec/agendex"
	"github.com/fwojciec/agendex/crawl"
)

// Run executes the scrape command, printing progress as it happens.
func (c *ScrapeCmd) Run(deps *Dependencies) error {
	owner := agendex.OwnerRef{OrganizerID: c.OrganizerID, LocationID: c.LocationID}
	if err := owner.Validate(); err != nil {
		fmt.Fprintln(deps.Stderr, "Specify exactly one of --organizer or --location")
		return err
	}

	result, err := deps.Ingestor.Run(deps.Ctx, owner, func(event crawl.ProgressEvent) {
		c.printProgress(deps, event)
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", agendex.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "done: %d configs, %d discovered, %d created, %d enriched, %d errors\n",
		result.Configs, result.Discovered, result.Created, result.Enriched, result.Errors)
	return nil
}

func (c *ScrapeCmd) printProgress(deps *Dependencies, event crawl.ProgressEvent) {
	switch event.Type {
	case crawl.ProgressConfigStart:
		fmt.Fprintf(deps.Stdout, "crawling %s\n", event.AgendaURL)
	case crawl.ProgressURLsDiscovered:
		fmt.Fprintf(deps.Stdout, "  %d event URLs\n", event.Count)
	case crawl.ProgressURLSkipped:
		fmt.Fprintf(deps.Stdout, "  skip %s (already ingested)\n", event.URL)
	case crawl.ProgressRequestCreated:
		fmt.Fprintf(deps.Stdout, "  + %s\n", event.URL)
	case crawl.ProgressRequestEnriched:
		fmt.Fprintf(deps.Stdout, "    enriched %s\n", event.URL)
	case crawl.ProgressError:
		fmt.Fprintf(deps.Stderr, "  ! %s\n", event.Message)
	}
}
