package mock

import (
	"context"

	"github.com/fwojciec/agendex"
)

var _ agendex.VenueDirectory = (*VenueDirectory)(nil)

// VenueDirectory is a mock implementation of agendex.VenueDirectory.
type VenueDirectory struct {
	VenueNameFn func(ctx context.Context, locationID string) (string, error)
}

func (d *VenueDirectory) VenueName(ctx context.Context, locationID string) (string, error) {
	return d.VenueNameFn(ctx, locationID)
}
