package main

import (
	"fmt"

	"github.com/fwojciec/agendex"
)

// Run executes the configs command.
func (c *ConfigsCmd) Run(deps *Dependencies) error {
	filter := agendex.ConfigFilter{}
	if c.OrganizerID != "" || c.LocationID != "" {
		owner := agendex.OwnerRef{OrganizerID: c.OrganizerID, LocationID: c.LocationID}
		if err := owner.Validate(); err != nil {
			return err
		}
		filter.Owner = &owner
	}

	configs, err := deps.Configs.FindAgendaConfigs(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", agendex.ErrorMessage(err))
		return err
	}

	if len(configs) == 0 {
		fmt.Fprintln(deps.Stdout, "No agenda configs found. Use 'agendex add-config' to create one.")
		return nil
	}

	for _, config := range configs {
		state := "enabled"
		if !config.Enabled {
			state = "disabled"
		}
		owner := config.Owner.OrganizerID
		if owner == "" {
			owner = config.Owner.LocationID
		}
		fmt.Fprintf(deps.Stdout, "%s  %s  %s  %s\n", config.ID, owner, config.AgendaURL, state)
	}

	return nil
}
