package mock

import (
	"context"

	"github.com/fwojciec/agendex"
)

var _ agendex.SelectorExtractor = (*SelectorExtractor)(nil)

// SelectorExtractor is a mock implementation of agendex.SelectorExtractor.
type SelectorExtractor struct {
	ExtractFn func(html string, rules []*agendex.SelectorRule) (*agendex.EventFields, error)
}

func (e *SelectorExtractor) Extract(html string, rules []*agendex.SelectorRule) (*agendex.EventFields, error) {
	return e.ExtractFn(html, rules)
}

var _ agendex.AIExtractor = (*AIExtractor)(nil)

// AIExtractor is a mock implementation of agendex.AIExtractor.
type AIExtractor struct {
	ExtractFn func(ctx context.Context, page *agendex.PageContext, toggles []agendex.FieldToggle) (*agendex.EventFields, error)
}

func (e *AIExtractor) Extract(ctx context.Context, page *agendex.PageContext, toggles []agendex.FieldToggle) (*agendex.EventFields, error) {
	return e.ExtractFn(ctx, page, toggles)
}

var _ agendex.ContentExtractor = (*ContentExtractor)(nil)

// ContentExtractor is a mock implementation of agendex.ContentExtractor.
type ContentExtractor struct {
	ExtractFn func(html string) (*agendex.ContentResult, error)
}

func (e *ContentExtractor) Extract(html string) (*agendex.ContentResult, error) {
	return e.ExtractFn(html)
}

var _ agendex.PageAnalyzer = (*PageAnalyzer)(nil)

// PageAnalyzer is a mock implementation of agendex.PageAnalyzer.
type PageAnalyzer struct {
	MetaFn      func(html string) (*agendex.PageMeta, error)
	FragmentsFn func(html string, max int) ([]string, error)
}

func (a *PageAnalyzer) Meta(html string) (*agendex.PageMeta, error) {
	return a.MetaFn(html)
}

func (a *PageAnalyzer) Fragments(html string, max int) ([]string, error) {
	return a.FragmentsFn(html, max)
}
