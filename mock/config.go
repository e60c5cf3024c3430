package mock

import (
	"context"

	"github.com/fwojciec/agendex"
)

var _ agendex.ConfigService = (*ConfigService)(nil)

// ConfigService is a mock implementation of agendex.ConfigService.
type ConfigService struct {
	CreateAgendaConfigFn func(ctx context.Context, config *agendex.AgendaConfig) error
	FindAgendaConfigsFn  func(ctx context.Context, filter agendex.ConfigFilter) ([]*agendex.AgendaConfig, error)
	CreateSelectorRuleFn func(ctx context.Context, rule *agendex.SelectorRule) error
	FindSelectorRulesFn  func(ctx context.Context, owner agendex.OwnerRef) ([]*agendex.SelectorRule, error)
	CreateFieldToggleFn  func(ctx context.Context, toggle *agendex.FieldToggle) error
	FindFieldTogglesFn   func(ctx context.Context, owner agendex.OwnerRef) ([]*agendex.FieldToggle, error)
}

func (s *ConfigService) CreateAgendaConfig(ctx context.Context, config *agendex.AgendaConfig) error {
	return s.CreateAgendaConfigFn(ctx, config)
}

func (s *ConfigService) FindAgendaConfigs(ctx context.Context, filter agendex.ConfigFilter) ([]*agendex.AgendaConfig, error) {
	return s.FindAgendaConfigsFn(ctx, filter)
}

func (s *ConfigService) CreateSelectorRule(ctx context.Context, rule *agendex.SelectorRule) error {
	return s.CreateSelectorRuleFn(ctx, rule)
}

func (s *ConfigService) FindSelectorRules(ctx context.Context, owner agendex.OwnerRef) ([]*agendex.SelectorRule, error) {
	return s.FindSelectorRulesFn(ctx, owner)
}

func (s *ConfigService) CreateFieldToggle(ctx context.Context, toggle *agendex.FieldToggle) error {
	return s.CreateFieldToggleFn(ctx, toggle)
}

func (s *ConfigService) FindFieldToggles(ctx context.Context, owner agendex.OwnerRef) ([]*agendex.FieldToggle, error) {
	return s.FindFieldTogglesFn(ctx, owner)
}
