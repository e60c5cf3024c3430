package crawl

import (
	"context"

	"github.com/fwojciec/agendex"
)

// maxContextFragments bounds the structured fragments passed to the AI
// layer per page.
const maxContextFragments = 50

// Pipeline runs the layered extraction for one event-detail page:
// selector rules first, then the AI pass over an assembled page context,
// then the typed merge with page metadata.
type Pipeline struct {
	Selector agendex.SelectorExtractor
	Analyzer agendex.PageAnalyzer

	// AI is nil when no LLM credential is configured; extraction then
	// degrades to selector results plus page metadata.
	AI agendex.AIExtractor

	// Content and Converter assemble the main-content Markdown for the AI
	// context. Either may be nil; the AI layer then works from metadata
	// and fragments alone.
	Content   agendex.ContentExtractor
	Converter agendex.Converter
}

// Extract produces the merged event fields for one fetched page. Layer
// failures degrade rather than fail: a selector-layer error yields an
// empty CSS result, an AI-layer error yields no AI result, and metadata
// remains the floor for title, description and image.
func (p *Pipeline) Extract(ctx context.Context, pageURL, html string, rules []*agendex.SelectorRule, toggles []agendex.FieldToggle) (*agendex.EventFields, error) {
	meta, err := p.Analyzer.Meta(html)
	if err != nil {
		return nil, err
	}

	var css *agendex.EventFields
	if len(rules) > 0 {
		if extracted, err := p.Selector.Extract(html, rules); err == nil {
			css = extracted
		}
	}

	var ai *agendex.EventFields
	if p.AI != nil {
		page := p.buildContext(pageURL, html, meta, css)
		if extracted, err := p.AI.Extract(ctx, page, toggles); err == nil {
			ai = extracted
		}
	}

	return agendex.MergeFields(css, ai, meta, pageURL), nil
}

// buildContext assembles the bounded textual context for the AI layer.
func (p *Pipeline) buildContext(pageURL, html string, meta *agendex.PageMeta, css *agendex.EventFields) *agendex.PageContext {
	page := &agendex.PageContext{
		URL:       pageURL,
		Meta:      *meta,
		CSSFields: css,
	}

	if fragments, err := p.Analyzer.Fragments(html, maxContextFragments); err == nil {
		page.Fragments = fragments
	}

	if p.Content != nil && p.Converter != nil {
		if content, err := p.Content.Extract(html); err == nil && content.ContentHTML != "" {
			if markdown, err := p.Converter.Convert(content.ContentHTML); err == nil {
				page.MainText = markdown
			}
		}
	}

	return page
}
