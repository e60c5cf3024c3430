package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/fwojciec/agendex"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ agendex.ConfigService = (*ConfigService)(nil)

// ConfigService implements agendex.ConfigService using SQLite.
type ConfigService struct {
	db *DB
}

// NewConfigService creates a new ConfigService.
func NewConfigService(db *DB) *ConfigService {
	return &ConfigService{db: db}
}

// CreateAgendaConfig creates a new agenda config.
func (s *ConfigService) CreateAgendaConfig(ctx context.Context, config *agendex.AgendaConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}

	config.ID = uuid.New().String()
	now := time.Now().UTC()
	config.CreatedAt = now
	config.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO agenda_configs (
			id, organizer_id, location_id, enabled, agenda_url,
			event_link_selector, event_link_attribute,
			next_page_selector, next_page_attribute,
			max_pages, url_pattern, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, config.ID, config.Owner.OrganizerID, config.Owner.LocationID, config.Enabled,
		config.AgendaURL, config.EventLinkSelector, config.EventLinkAttribute,
		config.NextPageSelector, config.NextPageAttribute,
		config.MaxPages, config.URLPattern,
		config.CreatedAt.Format(time.RFC3339), config.UpdatedAt.Format(time.RFC3339))

	return err
}

// FindAgendaConfigs retrieves configs matching the filter, ordered by
// creation time.
func (s *ConfigService) FindAgendaConfigs(ctx context.Context, filter agendex.ConfigFilter) ([]*agendex.AgendaConfig, error) {
	var query strings.Builder
	var args []any

	query.WriteString(`
		SELECT id, organizer_id, location_id, enabled, agenda_url,
			event_link_selector, event_link_attribute,
			next_page_selector, next_page_attribute,
			max_pages, url_pattern, created_at, updated_at
		FROM agenda_configs WHERE 1=1`)

	if filter.Owner != nil {
		appendOwner(&query, &args, *filter.Owner)
	}
	if filter.EnabledOnly {
		query.WriteString(" AND enabled = 1")
	}

	query.WriteString(" ORDER BY created_at ASC, id ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []*agendex.AgendaConfig
	for rows.Next() {
		var config agendex.AgendaConfig
		var createdAt, updatedAt string

		if err := rows.Scan(&config.ID, &config.Owner.OrganizerID, &config.Owner.LocationID,
			&config.Enabled, &config.AgendaURL,
			&config.EventLinkSelector, &config.EventLinkAttribute,
			&config.NextPageSelector, &config.NextPageAttribute,
			&config.MaxPages, &config.URLPattern, &createdAt, &updatedAt); err != nil {
			return nil, err
		}

		if config.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
			return nil, err
		}
		if config.UpdatedAt, err = parseRFC3339(updatedAt, "updated_at"); err != nil {
			return nil, err
		}

		configs = append(configs, &config)
	}

	return configs, rows.Err()
}

// CreateSelectorRule creates a new selector rule.
func (s *ConfigService) CreateSelectorRule(ctx context.Context, rule *agendex.SelectorRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	rule.ID = uuid.New().String()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO selector_rules (
			id, organizer_id, location_id, field, selector, attribute,
			text_prefix, transform, position
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rule.ID, rule.Owner.OrganizerID, rule.Owner.LocationID,
		rule.Field, rule.Selector, rule.Attribute,
		rule.TextPrefix, rule.Transform, rule.Position)

	return err
}

// FindSelectorRules retrieves an owner's rules in stored order.
func (s *ConfigService) FindSelectorRules(ctx context.Context, owner agendex.OwnerRef) ([]*agendex.SelectorRule, error) {
	var query strings.Builder
	var args []any

	query.WriteString(`
		SELECT id, organizer_id, location_id, field, selector, attribute,
			text_prefix, transform, position
		FROM selector_rules WHERE 1=1`)
	appendOwner(&query, &args, owner)
	query.WriteString(" ORDER BY position ASC, id ASC")

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*agendex.SelectorRule
	for rows.Next() {
		var rule agendex.SelectorRule
		if err := rows.Scan(&rule.ID, &rule.Owner.OrganizerID, &rule.Owner.LocationID,
			&rule.Field, &rule.Selector, &rule.Attribute,
			&rule.TextPrefix, &rule.Transform, &rule.Position); err != nil {
			return nil, err
		}
		rules = append(rules, &rule)
	}

	return rules, rows.Err()
}

// CreateFieldToggle creates a new AI field toggle.
func (s *ConfigService) CreateFieldToggle(ctx context.Context, toggle *agendex.FieldToggle) error {
	if err := toggle.Owner.Validate(); err != nil {
		return err
	}
	if toggle.Field == "" {
		return agendex.Errorf(agendex.EINVALID, "field toggle field required")
	}

	toggle.ID = uuid.New().String()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ai_field_toggles (id, organizer_id, location_id, field, enabled, hint)
		VALUES (?, ?, ?, ?, ?, ?)
	`, toggle.ID, toggle.Owner.OrganizerID, toggle.Owner.LocationID,
		toggle.Field, toggle.Enabled, toggle.Hint)

	return err
}

// FindFieldToggles retrieves an owner's AI field toggles.
func (s *ConfigService) FindFieldToggles(ctx context.Context, owner agendex.OwnerRef) ([]*agendex.FieldToggle, error) {
	var query strings.Builder
	var args []any

	query.WriteString(`
		SELECT id, organizer_id, location_id, field, enabled, hint
		FROM ai_field_toggles WHERE 1=1`)
	appendOwner(&query, &args, owner)
	query.WriteString(" ORDER BY field ASC")

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var toggles []*agendex.FieldToggle
	for rows.Next() {
		var toggle agendex.FieldToggle
		if err := rows.Scan(&toggle.ID, &toggle.Owner.OrganizerID, &toggle.Owner.LocationID,
			&toggle.Field, &toggle.Enabled, &toggle.Hint); err != nil {
			return nil, err
		}
		toggles = append(toggles, &toggle)
	}

	return toggles, rows.Err()
}
