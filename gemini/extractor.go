// Package gemini implements the AI extraction layer using Google Gemini in
// JSON response mode. The model is treated as an opaque structured
// extraction oracle: one call per event page, constrained to the enabled
// fields, with defensive parsing of whatever comes back.
package gemini

import (
	"context"

	"github.com/fwojciec/agendex"
	"google.golang.org/genai"
)

// DefaultModel is the extraction model used unless overridden.
const DefaultModel = "gemini-2.5-flash"

// maxMainTextChars bounds the main-content text included in the prompt.
const maxMainTextChars = 15000

// Ensure Extractor implements agendex.AIExtractor at compile time.
var _ agendex.AIExtractor = (*Extractor)(nil)

// Extractor implements agendex.AIExtractor using Google Gemini.
type Extractor struct {
	client *genai.Client
	model  string
}

// NewExtractor creates a new Extractor. An empty model selects
// DefaultModel.
func NewExtractor(client *genai.Client, model string) *Extractor {
	if model == "" {
		model = DefaultModel
	}
	return &Extractor{client: client, model: model}
}

// Extract issues one structured-extraction call for the page, restricted
// to the enabled toggles. The response is parsed defensively: fences are
// stripped, the first top-level JSON object is bracket-matched out, and
// any parse failure degrades to metadata-derived title and description.
// Fields the selector layer already owns are discarded from the AI result,
// except tags, which only the AI layer can produce.
func (e *Extractor) Extract(ctx context.Context, page *agendex.PageContext, toggles []agendex.FieldToggle) (*agendex.EventFields, error) {
	if page == nil {
		return nil, agendex.Errorf(agendex.EINVALID, "page context required")
	}

	enabled := enabledToggles(toggles)
	if len(enabled) == 0 {
		return MetadataFallback(page), nil
	}

	prompt := BuildUserPrompt(page, enabled)
	config := BuildConfig()

	result, err := e.client.Models.GenerateContent(ctx, e.model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: prompt}},
		}},
		config,
	)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, agendex.Errorf(agendex.EINTERNAL, "gemini returned nil result")
	}

	fields, ok := ParseResponse(result.Text(), enabled)
	if !ok {
		return MetadataFallback(page), nil
	}
	PostProcess(fields)

	dropOwnedFields(fields, page.CSSFields, enabled)
	return fields, nil
}

// BuildConfig returns the GenerateContentConfig for extraction calls:
// near-zero temperature, JSON object responses, and a system instruction
// for precise structured extraction.
func BuildConfig() *genai.GenerateContentConfig {
	temp := float32(0.0)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: "You are a precise data extraction assistant. Extract structured event data from the provided web page content. Respond with a single JSON object containing only the requested fields. Omit fields the page does not support; never invent values.",
			}},
		},
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
	}
}

// MetadataFallback derives a minimal result from page metadata, used when
// no fields are enabled or the model output cannot be parsed.
func MetadataFallback(page *agendex.PageContext) *agendex.EventFields {
	return &agendex.EventFields{
		Title:       page.Meta.Title,
		Description: page.Meta.Description,
	}
}

// dropOwnedFields clears AI values for enabled fields the selector layer
// already populated (CSS wins). Tags are never dropped: no selector rule
// type produces arrays.
func dropOwnedFields(fields, css *agendex.EventFields, enabled []agendex.FieldToggle) {
	if css == nil {
		return
	}
	for _, toggle := range enabled {
		switch toggle.Field {
		case agendex.FieldTags:
			// keep
		case agendex.FieldIsFull:
			if css.IsFull != nil {
				fields.IsFull = nil
			}
		default:
			if css.Get(toggle.Field) != "" {
				clearField(fields, toggle.Field)
			}
		}
	}
}

func clearField(fields *agendex.EventFields, field string) {
	switch field {
	case agendex.FieldTitle:
		fields.Title = ""
	case agendex.FieldDescription:
		fields.Description = ""
	case agendex.FieldStartDate:
		fields.StartDate = ""
	case agendex.FieldEndDate:
		fields.EndDate = ""
	case agendex.FieldPrice:
		fields.Price = ""
	case agendex.FieldPriceReduced:
		fields.PriceReduced = ""
	case agendex.FieldVenue:
		fields.Venue = ""
	case agendex.FieldAddress:
		fields.Address = ""
	case agendex.FieldImageURL:
		fields.ImageURL = ""
	case agendex.FieldOrganizerName:
		fields.OrganizerName = ""
	case agendex.FieldCategory:
		fields.Category = ""
	case agendex.FieldCapacity:
		fields.Capacity = ""
	case agendex.FieldDoorTime:
		fields.DoorTime = ""
	}
}

func enabledToggles(toggles []agendex.FieldToggle) []agendex.FieldToggle {
	var enabled []agendex.FieldToggle
	for _, t := range toggles {
		if t.Enabled {
			enabled = append(enabled, t)
		}
	}
	return enabled
}
