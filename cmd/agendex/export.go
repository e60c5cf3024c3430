package main

import (
	"fmt"
	"path/filepath"

	"github.com/fwojciec/agendex"
	"github.com/fwojciec/agendex/fs"
)

// Run executes the export command.
func (c *ExportCmd) Run(deps *Dependencies) error {
	requestType := agendex.RequestTypeEventFromURL
	filter := agendex.RequestFilter{RequestType: &requestType}
	if c.Status != "" {
		filter.Status = &c.Status
	}

	requests, err := deps.Requests.FindRequests(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", agendex.ErrorMessage(err))
		return err
	}
	if len(requests) == 0 {
		fmt.Fprintln(deps.Stdout, "No events to export.")
		return nil
	}

	dir, err := filepath.Abs(c.Dir)
	if err != nil {
		return err
	}
	store := fs.NewExportStore(filepath.Dir(dir), filepath.Base(dir))

	for _, req := range requests {
		if err := store.Save(deps.Ctx, req); err != nil {
			_ = store.Abort()
			return fmt.Errorf("failed to export %s: %w", req.SourceURL, err)
		}
	}
	if err := store.Commit(); err != nil {
		_ = store.Abort()
		return err
	}

	fmt.Fprintf(deps.Stdout, "exported %d events to %s\n", len(requests), dir)
	return nil
}
