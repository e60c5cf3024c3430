package agendex

import (
	"net/url"
	"strings"
)

// Event field names targeted by selector rules, AI field toggles, and the
// merge resolver. These are the keys under which extracted values end up in
// an ingestion request's event data.
const (
	FieldTitle         = "title"
	FieldDescription   = "description"
	FieldStartDate     = "start_date"
	FieldEndDate       = "end_date"
	FieldPrice         = "price"
	FieldPriceReduced  = "price_reduced"
	FieldVenue         = "venue"
	FieldAddress       = "address"
	FieldImageURL      = "image_url"
	FieldOrganizerName = "organizer_name"
	FieldCategory      = "category"
	FieldTags          = "tags"
	FieldCapacity      = "capacity"
	FieldDoorTime      = "door_time"
	FieldIsFull        = "is_full"
)

// Fields lists every extractable event field in a stable order.
func Fields() []string {
	return []string{
		FieldTitle, FieldDescription, FieldStartDate, FieldEndDate,
		FieldPrice, FieldPriceReduced, FieldVenue, FieldAddress,
		FieldImageURL, FieldOrganizerName, FieldCategory, FieldTags,
		FieldCapacity, FieldDoorTime, FieldIsFull,
	}
}

// EventFields is a partial extraction result. Every field is optional: an
// empty string (or nil Tags/IsFull) means the source produced no value for
// that field. Both the selector layer and the AI layer return this shape.
type EventFields struct {
	Title         string   `json:"title,omitempty"`
	Description   string   `json:"description,omitempty"`
	StartDate     string   `json:"start_date,omitempty"`
	EndDate       string   `json:"end_date,omitempty"`
	Price         string   `json:"price,omitempty"`
	PriceReduced  string   `json:"price_reduced,omitempty"`
	Venue         string   `json:"venue,omitempty"`
	Address       string   `json:"address,omitempty"`
	ImageURL      string   `json:"image_url,omitempty"`
	OrganizerName string   `json:"organizer_name,omitempty"`
	Category      string   `json:"category,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Capacity      string   `json:"capacity,omitempty"`
	DoorTime      string   `json:"door_time,omitempty"`
	IsFull        *bool    `json:"is_full,omitempty"`

	// ExternalURL is set by the merge resolver to the crawled page URL.
	// Extracted values for it are always overridden.
	ExternalURL string `json:"external_url,omitempty"`
}

// Get returns the string value for a named field. Tags and IsFull have no
// string representation and always return "".
func (f *EventFields) Get(field string) string {
	switch field {
	case FieldTitle:
		return f.Title
	case FieldDescription:
		return f.Description
	case FieldStartDate:
		return f.StartDate
	case FieldEndDate:
		return f.EndDate
	case FieldPrice:
		return f.Price
	case FieldPriceReduced:
		return f.PriceReduced
	case FieldVenue:
		return f.Venue
	case FieldAddress:
		return f.Address
	case FieldImageURL:
		return f.ImageURL
	case FieldOrganizerName:
		return f.OrganizerName
	case FieldCategory:
		return f.Category
	case FieldCapacity:
		return f.Capacity
	case FieldDoorTime:
		return f.DoorTime
	}
	return ""
}

// Set assigns a string value to a named field. Setting an unknown field or
// an empty value is a no-op, which gives selector rules their
// last-non-empty-wins semantics. Setting FieldIsFull parses common truthy
// and falsy spellings.
func (f *EventFields) Set(field, value string) {
	if value == "" {
		return
	}
	switch field {
	case FieldTitle:
		f.Title = value
	case FieldDescription:
		f.Description = value
	case FieldStartDate:
		f.StartDate = value
	case FieldEndDate:
		f.EndDate = value
	case FieldPrice:
		f.Price = value
	case FieldPriceReduced:
		f.PriceReduced = value
	case FieldVenue:
		f.Venue = value
	case FieldAddress:
		f.Address = value
	case FieldImageURL:
		f.ImageURL = value
	case FieldOrganizerName:
		f.OrganizerName = value
	case FieldCategory:
		f.Category = value
	case FieldCapacity:
		f.Capacity = value
	case FieldDoorTime:
		f.DoorTime = value
	case FieldIsFull:
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "yes", "1", "full", "sold out", "soldout":
			t := true
			f.IsFull = &t
		case "false", "no", "0":
			t := false
			f.IsFull = &t
		}
	}
}

// IsZero reports whether no field carries a value.
func (f *EventFields) IsZero() bool {
	if f == nil {
		return true
	}
	for _, field := range Fields() {
		if field == FieldTags || field == FieldIsFull {
			continue
		}
		if f.Get(field) != "" {
			return false
		}
	}
	return len(f.Tags) == 0 && f.IsFull == nil && f.ExternalURL == ""
}

// Map converts the set fields into a plain map suitable for shallow-merging
// into an ingestion request's event data. Unset fields are omitted.
func (f *EventFields) Map() map[string]any {
	m := make(map[string]any)
	for _, field := range Fields() {
		if field == FieldTags || field == FieldIsFull {
			continue
		}
		if v := f.Get(field); v != "" {
			m[field] = v
		}
	}
	if len(f.Tags) > 0 {
		m[FieldTags] = f.Tags
	}
	if f.IsFull != nil {
		m[FieldIsFull] = *f.IsFull
	}
	if f.ExternalURL != "" {
		m["external_url"] = f.ExternalURL
	}
	return m
}

// PageMeta holds title, description and image derived from a page's Open
// Graph, Twitter Card and standard meta tags. It is the lowest-precedence
// extraction source.
type PageMeta struct {
	Title       string
	Description string
	ImageURL    string
}

// MergeFields combines the selector-layer and AI-layer extraction results
// with page metadata under a fixed per-field precedence: CSS value first,
// then AI value, then metadata (title, description and image only). The
// exceptions:
//
//   - tags always come from the AI result when present, since no selector
//     rule produces arrays;
//   - is_full takes the first non-nil of CSS then AI (tri-state field);
//   - external_url is always the crawled page URL;
//   - image_url is normalized to an absolute URL anchored at the page's
//     origin before the precedence chain applies.
//
// Either source may be nil.
func MergeFields(css, ai *EventFields, meta *PageMeta, pageURL string) *EventFields {
	if css == nil {
		css = &EventFields{}
	}
	if ai == nil {
		ai = &EventFields{}
	}

	merged := &EventFields{}
	for _, field := range Fields() {
		switch field {
		case FieldTags:
			if len(ai.Tags) > 0 {
				merged.Tags = ai.Tags
			}
		case FieldIsFull:
			if css.IsFull != nil {
				merged.IsFull = css.IsFull
			} else if ai.IsFull != nil {
				merged.IsFull = ai.IsFull
			}
		default:
			if v := css.Get(field); v != "" {
				merged.Set(field, v)
			} else if v := ai.Get(field); v != "" {
				merged.Set(field, v)
			}
		}
	}

	if meta != nil {
		if merged.Title == "" {
			merged.Title = meta.Title
		}
		if merged.Description == "" {
			merged.Description = meta.Description
		}
		if merged.ImageURL == "" {
			merged.ImageURL = meta.ImageURL
		}
	}

	merged.ImageURL = AbsoluteURL(pageURL, merged.ImageURL)
	merged.ExternalURL = pageURL

	return merged
}

// AbsoluteURL resolves a possibly-relative reference against the source
// page URL. Already-absolute references and unparseable inputs are returned
// unchanged; an empty reference stays empty.
func AbsoluteURL(pageURL, ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return ref
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(parsed).String()
}
