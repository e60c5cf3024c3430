package gemini_test

import (
	"testing"
	"unicode/utf8"

	"github.com/fwojciec/agendex"
	"github.com/fwojciec/agendex/gemini"
	"github.com/stretchr/testify/assert"
)

func TestBuildUserPrompt(t *testing.T) {
	t.Parallel()

	page := &agendex.PageContext{
		URL: "https://town.example/events/1",
		Meta: agendex.PageMeta{
			Title:       "Concert",
			Description: "An evening concert",
		},
		MainText:  "# Concert\n\nDetails here.",
		Fragments: []string{"Doors 19:00"},
		CSSFields: &agendex.EventFields{Price: "12.50"},
	}
	toggles := []agendex.FieldToggle{
		{Field: agendex.FieldTitle, Enabled: true},
		{Field: agendex.FieldStartDate, Enabled: true, Hint: "dates are printed as DD.MM.YYYY"},
	}

	prompt := gemini.BuildUserPrompt(page, toggles)

	t.Run("enumerates only enabled fields with definitions", func(t *testing.T) {
		t.Parallel()
		assert.Contains(t, prompt, "- title:")
		assert.Contains(t, prompt, "- start_date:")
		assert.NotContains(t, prompt, "- venue:")
	})

	t.Run("appends operator hints", func(t *testing.T) {
		t.Parallel()
		assert.Contains(t, prompt, "Hint: dates are printed as DD.MM.YYYY")
	})

	t.Run("includes a JSON skeleton restricted to enabled fields", func(t *testing.T) {
		t.Parallel()
		assert.Contains(t, prompt, `"title": "..."`)
		assert.Contains(t, prompt, `"start_date": "..."`)
		assert.NotContains(t, prompt, `"price": "..."`)
	})

	t.Run("surfaces css-extracted values and page context", func(t *testing.T) {
		t.Parallel()
		assert.Contains(t, prompt, "- price: 12.50")
		assert.Contains(t, prompt, "<url>https://town.example/events/1</url>")
		assert.Contains(t, prompt, "Doors 19:00")
		assert.Contains(t, prompt, "Details here.")
	})
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	t.Run("keeps short text intact", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "Concert", gemini.Truncate("Concert", 10))
	})

	t.Run("bounds by characters, not bytes", func(t *testing.T) {
		t.Parallel()

		// Each é is two bytes; the bound still admits five characters.
		assert.Equal(t, "ééééé", gemini.Truncate("ééééééé", 5))
		assert.Equal(t, "soirée", gemini.Truncate("soirée au théâtre", 6))
	})

	t.Run("never splits a character", func(t *testing.T) {
		t.Parallel()

		got := gemini.Truncate("ééééé", 3)
		assert.Equal(t, "ééé", got)
		assert.True(t, utf8.ValidString(got))
	})
}
