package agendex

import (
	"context"
	"time"
)

// Bounds on how many listing pages a single discovery run may visit.
const (
	MinAgendaPages = 1
	MaxAgendaPages = 200
)

// OwnerRef identifies the entity an agenda config, selector rule or field
// toggle belongs to. Exactly one of OrganizerID or LocationID must be set.
type OwnerRef struct {
	OrganizerID string `json:"organizerId,omitempty"`
	LocationID  string `json:"locationId,omitempty"`
}

// Validate returns an error unless exactly one owning entity is set.
func (o OwnerRef) Validate() error {
	if o.OrganizerID == "" && o.LocationID == "" {
		return Errorf(EINVALID, "owner reference required")
	}
	if o.OrganizerID != "" && o.LocationID != "" {
		return Errorf(EINVALID, "owner must be an organizer or a location, not both")
	}
	return nil
}

// IsZero reports whether no owning entity is set.
func (o OwnerRef) IsZero() bool {
	return o.OrganizerID == "" && o.LocationID == ""
}

// AgendaConfig describes how to crawl one agenda listing page. Configs are
// operator-managed and read-only to the pipeline.
type AgendaConfig struct {
	ID      string   `json:"id"`
	Owner   OwnerRef `json:"owner"`
	Enabled bool     `json:"enabled"`

	// AgendaURL is the seed listing page.
	AgendaURL string `json:"agendaUrl"`

	// EventLinkSelector matches elements carrying event-detail links;
	// EventLinkAttribute names the attribute holding the link (default
	// "href").
	EventLinkSelector  string `json:"eventLinkSelector"`
	EventLinkAttribute string `json:"eventLinkAttribute"`

	// NextPageSelector, when set, locates the pagination link to the next
	// listing page. Without it discovery stops after one page.
	NextPageSelector  string `json:"nextPageSelector,omitempty"`
	NextPageAttribute string `json:"nextPageAttribute,omitempty"`

	// MaxPages bounds the pagination walk; clamped to [1, 200].
	MaxPages int `json:"maxPages"`

	// URLPattern optionally restricts sitemap-fallback discovery to
	// matching URLs (a regular expression).
	URLPattern string `json:"urlPattern,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate returns an error if the config contains invalid fields.
func (c *AgendaConfig) Validate() error {
	if err := c.Owner.Validate(); err != nil {
		return err
	}
	if c.AgendaURL == "" {
		return Errorf(EINVALID, "agenda URL required")
	}
	if c.EventLinkSelector == "" {
		return Errorf(EINVALID, "event link selector required")
	}
	return nil
}

// LinkAttribute returns the configured event-link attribute, defaulting to
// "href".
func (c *AgendaConfig) LinkAttribute() string {
	if c.EventLinkAttribute == "" {
		return "href"
	}
	return c.EventLinkAttribute
}

// PageCeiling returns the effective page limit: max(1, min(200, MaxPages)).
func (c *AgendaConfig) PageCeiling() int {
	if c.MaxPages < MinAgendaPages {
		return MinAgendaPages
	}
	if c.MaxPages > MaxAgendaPages {
		return MaxAgendaPages
	}
	return c.MaxPages
}

// Attribute values for selector rules with special meaning. Any other value
// names a DOM attribute to read.
const (
	AttrTextContent = "textContent"
	AttrInnerHTML   = "innerHTML"
)

// Transform names for selector rules.
const (
	// TransformPrice extracts the first numeric substring from the value,
	// treating a comma as the decimal separator.
	TransformPrice = "price"
)

// SelectorRule maps one CSS selector to one event field. Many rules may
// target the same field; evaluation follows stored order and the last
// non-empty value wins.
type SelectorRule struct {
	ID    string   `json:"id"`
	Owner OwnerRef `json:"owner"`

	// Field is the target event field name (see Fields).
	Field string `json:"field"`

	// Selector is the CSS selector. Malformed bare "attr=value" spellings
	// are repaired before evaluation (see goquery.NormalizeSelector).
	Selector string `json:"selector"`

	// Attribute is AttrTextContent, AttrInnerHTML, or a DOM attribute name.
	Attribute string `json:"attribute"`

	// TextPrefix, when set, keeps only the suffix after the prefix. The
	// prefix is located case-sensitively first, then case-insensitively;
	// if neither matches the value is discarded.
	TextPrefix string `json:"textPrefix,omitempty"`

	// Transform optionally post-processes the value (only TransformPrice).
	Transform string `json:"transform,omitempty"`

	// Position orders rule evaluation.
	Position int `json:"position"`
}

// Validate returns an error if the rule contains invalid fields.
func (r *SelectorRule) Validate() error {
	if err := r.Owner.Validate(); err != nil {
		return err
	}
	if r.Field == "" {
		return Errorf(EINVALID, "selector rule field required")
	}
	if r.Selector == "" {
		return Errorf(EINVALID, "selector rule selector required")
	}
	if r.Transform != "" && r.Transform != TransformPrice {
		return Errorf(EINVALID, "unknown transform %q", r.Transform)
	}
	return nil
}

// FieldToggle enables or disables one event field for AI extraction, with
// an optional operator hint injected into the prompt.
type FieldToggle struct {
	ID      string   `json:"id"`
	Owner   OwnerRef `json:"owner"`
	Field   string   `json:"field"`
	Enabled bool     `json:"enabled"`
	Hint    string   `json:"hint,omitempty"`
}

// DefaultToggles returns the full field set enabled, used when an owner has
// no stored toggles.
func DefaultToggles() []FieldToggle {
	fields := Fields()
	toggles := make([]FieldToggle, 0, len(fields))
	for _, f := range fields {
		toggles = append(toggles, FieldToggle{Field: f, Enabled: true})
	}
	return toggles
}

// ConfigFilter represents a filter for FindAgendaConfigs.
type ConfigFilter struct {
	Owner       *OwnerRef `json:"owner"`
	EnabledOnly bool      `json:"enabledOnly"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// ConfigService manages operator-owned scraping configuration: agenda
// configs, per-field selector rules, and AI field toggles. The pipeline
// reads configuration fresh on every run.
type ConfigService interface {
	// CreateAgendaConfig creates a new agenda config.
	CreateAgendaConfig(ctx context.Context, config *AgendaConfig) error

	// FindAgendaConfigs retrieves configs matching the filter, ordered by
	// creation time.
	FindAgendaConfigs(ctx context.Context, filter ConfigFilter) ([]*AgendaConfig, error)

	// CreateSelectorRule creates a new selector rule.
	CreateSelectorRule(ctx context.Context, rule *SelectorRule) error

	// FindSelectorRules retrieves an owner's rules in stored order.
	FindSelectorRules(ctx context.Context, owner OwnerRef) ([]*SelectorRule, error)

	// CreateFieldToggle creates a new AI field toggle.
	CreateFieldToggle(ctx context.Context, toggle *FieldToggle) error

	// FindFieldToggles retrieves an owner's AI field toggles. An empty
	// result means the caller should fall back to DefaultToggles.
	FindFieldToggles(ctx context.Context, owner OwnerRef) ([]*FieldToggle, error)
}
