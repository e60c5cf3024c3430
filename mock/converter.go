package mock

import "github.com/fwojciec/agendex"

var _ agendex.Converter = (*Converter)(nil)

// Converter is a mock implementation of agendex.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
