package sqlite_test

import (
	"context"
	"testing"

	"github.com/fwojciec/agendex"
	"github.com/fwojciec/agendex/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigService_AgendaConfigs(t *testing.T) {
	t.Parallel()

	t.Run("create assigns ID and timestamps", func(t *testing.T) {
		t.Parallel()

		s := sqlite.NewConfigService(MustOpenDB(t))
		config := &agendex.AgendaConfig{
			Owner:             agendex.OwnerRef{OrganizerID: "org-1"},
			Enabled:           true,
			AgendaURL:         "https://venue.example/agenda",
			EventLinkSelector: ".event a",
			MaxPages:          3,
		}

		require.NoError(t, s.CreateAgendaConfig(context.Background(), config))

		assert.NotEmpty(t, config.ID)
		assert.False(t, config.CreatedAt.IsZero())
	})

	t.Run("create rejects invalid configs", func(t *testing.T) {
		t.Parallel()

		s := sqlite.NewConfigService(MustOpenDB(t))
		err := s.CreateAgendaConfig(context.Background(), &agendex.AgendaConfig{
			Owner: agendex.OwnerRef{OrganizerID: "org-1"},
		})

		require.Error(t, err)
		assert.Equal(t, agendex.EINVALID, agendex.ErrorCode(err))
	})

	t.Run("find filters by owner and enabled", func(t *testing.T) {
		t.Parallel()

		s := sqlite.NewConfigService(MustOpenDB(t))
		ctx := context.Background()
		owner := agendex.OwnerRef{OrganizerID: "org-1"}
		other := agendex.OwnerRef{LocationID: "loc-1"}

		for _, config := range []*agendex.AgendaConfig{
			{Owner: owner, Enabled: true, AgendaURL: "https://a.example/agenda", EventLinkSelector: "a"},
			{Owner: owner, Enabled: false, AgendaURL: "https://b.example/agenda", EventLinkSelector: "a"},
			{Owner: other, Enabled: true, AgendaURL: "https://c.example/agenda", EventLinkSelector: "a"},
		} {
			require.NoError(t, s.CreateAgendaConfig(ctx, config))
		}

		all, err := s.FindAgendaConfigs(ctx, agendex.ConfigFilter{Owner: &owner})
		require.NoError(t, err)
		assert.Len(t, all, 2)

		enabled, err := s.FindAgendaConfigs(ctx, agendex.ConfigFilter{Owner: &owner, EnabledOnly: true})
		require.NoError(t, err)
		require.Len(t, enabled, 1)
		assert.Equal(t, "https://a.example/agenda", enabled[0].AgendaURL)
		assert.Equal(t, owner, enabled[0].Owner)
	})

	t.Run("find returns empty for unknown owner", func(t *testing.T) {
		t.Parallel()

		s := sqlite.NewConfigService(MustOpenDB(t))
		owner := agendex.OwnerRef{OrganizerID: "nobody"}

		configs, err := s.FindAgendaConfigs(context.Background(), agendex.ConfigFilter{Owner: &owner})

		require.NoError(t, err)
		assert.Empty(t, configs)
	})
}

func TestConfigService_SelectorRules(t *testing.T) {
	t.Parallel()

	t.Run("rules come back in position order", func(t *testing.T) {
		t.Parallel()

		s := sqlite.NewConfigService(MustOpenDB(t))
		ctx := context.Background()
		owner := agendex.OwnerRef{OrganizerID: "org-1"}

		for _, rule := range []*agendex.SelectorRule{
			{Owner: owner, Field: agendex.FieldPrice, Selector: ".price", Attribute: agendex.AttrTextContent, Position: 2},
			{Owner: owner, Field: agendex.FieldTitle, Selector: "h1", Attribute: agendex.AttrTextContent, Position: 1},
		} {
			require.NoError(t, s.CreateSelectorRule(ctx, rule))
		}

		rules, err := s.FindSelectorRules(ctx, owner)

		require.NoError(t, err)
		require.Len(t, rules, 2)
		assert.Equal(t, agendex.FieldTitle, rules[0].Field)
		assert.Equal(t, agendex.FieldPrice, rules[1].Field)
	})

	t.Run("create rejects unknown transforms", func(t *testing.T) {
		t.Parallel()

		s := sqlite.NewConfigService(MustOpenDB(t))
		err := s.CreateSelectorRule(context.Background(), &agendex.SelectorRule{
			Owner:     agendex.OwnerRef{OrganizerID: "org-1"},
			Field:     agendex.FieldPrice,
			Selector:  ".price",
			Transform: "uppercase",
		})

		require.Error(t, err)
		assert.Equal(t, agendex.EINVALID, agendex.ErrorCode(err))
	})

	t.Run("rules are scoped per owner", func(t *testing.T) {
		t.Parallel()

		s := sqlite.NewConfigService(MustOpenDB(t))
		ctx := context.Background()

		require.NoError(t, s.CreateSelectorRule(ctx, &agendex.SelectorRule{
			Owner:    agendex.OwnerRef{OrganizerID: "org-1"},
			Field:    agendex.FieldTitle,
			Selector: "h1",
		}))

		rules, err := s.FindSelectorRules(ctx, agendex.OwnerRef{LocationID: "loc-1"})

		require.NoError(t, err)
		assert.Empty(t, rules)
	})
}

func TestConfigService_FieldToggles(t *testing.T) {
	t.Parallel()

	t.Run("round-trips toggles with hints", func(t *testing.T) {
		t.Parallel()

		s := sqlite.NewConfigService(MustOpenDB(t))
		ctx := context.Background()
		owner := agendex.OwnerRef{LocationID: "loc-1"}

		require.NoError(t, s.CreateFieldToggle(ctx, &agendex.FieldToggle{
			Owner:   owner,
			Field:   agendex.FieldDoorTime,
			Enabled: true,
			Hint:    "usually labeled Einlass",
		}))
		require.NoError(t, s.CreateFieldToggle(ctx, &agendex.FieldToggle{
			Owner: owner,
			Field: agendex.FieldCapacity,
		}))

		toggles, err := s.FindFieldToggles(ctx, owner)

		require.NoError(t, err)
		require.Len(t, toggles, 2)
		assert.Equal(t, agendex.FieldCapacity, toggles[0].Field)
		assert.False(t, toggles[0].Enabled)
		assert.Equal(t, agendex.FieldDoorTime, toggles[1].Field)
		assert.True(t, toggles[1].Enabled)
		assert.Equal(t, "usually labeled Einlass", toggles[1].Hint)
	})

	t.Run("create requires a field", func(t *testing.T) {
		t.Parallel()

		s := sqlite.NewConfigService(MustOpenDB(t))
		err := s.CreateFieldToggle(context.Background(), &agendex.FieldToggle{
			Owner: agendex.OwnerRef{OrganizerID: "org-1"},
		})

		require.Error(t, err)
		assert.Equal(t, agendex.EINVALID, agendex.ErrorCode(err))
	})
}
