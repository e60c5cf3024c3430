package main

import (
	"fmt"

	"github.com/fwojciec/agendex"
)

// Run executes the add-config command.
func (c *AddConfigCmd) Run(deps *Dependencies) error {
	config := &agendex.AgendaConfig{
		Owner:              agendex.OwnerRef{OrganizerID: c.OrganizerID, LocationID: c.LocationID},
		Enabled:            !c.Disabled,
		AgendaURL:          c.AgendaURL,
		EventLinkSelector:  c.EventLinkSelector,
		EventLinkAttribute: c.EventLinkAttribute,
		NextPageSelector:   c.NextPageSelector,
		NextPageAttribute:  c.NextPageAttribute,
		MaxPages:           c.MaxPages,
		URLPattern:         c.URLPattern,
	}

	if err := deps.Configs.CreateAgendaConfig(deps.Ctx, config); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", agendex.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "created config %s for %s\n", config.ID, config.AgendaURL)
	return nil
}
