package memory

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uddhav/creative-thinking/internal/domain"
	"github.com/uddhav/creative-thinking/internal/logging"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	var n int
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return NewManager(nil,
		WithClock(func() time.Time { return base.Add(time.Duration(n) * time.Second) }),
		WithIDs(func() string { n++; return fmt.Sprintf("id-%03d", n) }),
		WithLogger(logging.Discard()),
	)
}

func TestNewManager_Defaults(t *testing.T) {
	m := newTestManager(t)
	mem := m.Memory()

	assert.Equal(t, 1.0, mem.Score())
	assert.Len(t, mem.AbsorbingBarriers, 6)
	for _, b := range mem.AbsorbingBarriers {
		assert.Zero(t, b.Proximity, b.ID)
	}
	_, ok := mem.Barrier(domain.SubtypeTechnicalDebt)
	assert.True(t, ok)
}

func TestRecordEvent_MergesOptions(t *testing.T) {
	m := newTestManager(t)

	_, _, err := m.RecordEvent("six_hats", 1, "open up", domain.DecisionImpact{
		OptionsOpened: []string{"b", "a"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, m.Memory().AvailableOptions)

	_, _, err = m.RecordEvent("six_hats", 2, "drop a", domain.DecisionImpact{
		OptionsClosed:     []string{"a"},
		ReversibilityCost: 0.5,
		CommitmentLevel:   0.5,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, m.Memory().AvailableOptions)
	assert.Equal(t, []string{"a"}, m.Memory().ForeclosedOptions)

	_, _, err = m.RecordEvent("six_hats", 3, "bring a back", domain.DecisionImpact{
		OptionsOpened: []string{"a"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, m.Memory().AvailableOptions)
	assert.Empty(t, m.Memory().ForeclosedOptions)
}

func TestRecordEvent_NoDeduplication(t *testing.T) {
	m := newTestManager(t)
	impact := domain.DecisionImpact{OptionsClosed: []string{"x"}, ReversibilityCost: 0.2, CommitmentLevel: 0.2}

	e1, _, err := m.RecordEvent("scamper", 1, "same", impact)
	require.NoError(t, err)
	e2, _, err := m.RecordEvent("scamper", 1, "same", impact)
	require.NoError(t, err)

	assert.NotEqual(t, e1.ID, e2.ID)
	assert.Len(t, m.Memory().History, 2)
}

func TestRecordEvent_ValidationLeavesMemoryUntouched(t *testing.T) {
	m := newTestManager(t)

	_, _, err := m.RecordEvent("scamper", 1, "bad", domain.DecisionImpact{CommitmentLevel: 1.5})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, m.Memory().History)
	assert.Equal(t, 1.0, m.Memory().Score())
}

func TestRecordEvent_ScoreStaysBounded(t *testing.T) {
	m := newTestManager(t)

	for i := 0; i < 40; i++ {
		impact := domain.DecisionImpact{
			OptionsClosed:     []string{fmt.Sprintf("o%d", i)},
			ReversibilityCost: 1,
			CommitmentLevel:   1,
			Constraints: []domain.ConstraintSpec{
				{Type: "resource", Strength: 1, Flexibility: 0},
			},
		}
		if i%7 == 0 {
			impact = domain.DecisionImpact{OptionsOpened: []string{"p1", "p2", "p3", "p4", "p5"}}
		}
		_, metrics, err := m.RecordEvent("t", i, "d", impact)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, metrics.Score, 0.0)
		assert.LessOrEqual(t, metrics.Score, 1.0)
	}
}

func TestRecordEvent_ClosingOnlyNeverIncreases(t *testing.T) {
	m := newTestManager(t)
	prev := m.Memory().Score()

	for i := 0; i < 15; i++ {
		_, metrics, err := m.RecordEvent("t", i, "close", domain.DecisionImpact{
			OptionsClosed:     []string{fmt.Sprintf("o%d", i)},
			ReversibilityCost: float64(i%3) / 3,
			CommitmentLevel:   0.6,
		})
		require.NoError(t, err)
		assert.LessOrEqual(t, metrics.Score, prev)
		prev = metrics.Score
	}
}

func TestRecordEvent_ReopeningIncreasesScore(t *testing.T) {
	m := newTestManager(t)

	_, closed, err := m.RecordEvent("t", 1, "close x", domain.DecisionImpact{
		OptionsClosed:     []string{"x"},
		ReversibilityCost: 0.6,
		CommitmentLevel:   0.7,
	})
	require.NoError(t, err)

	_, reopened, err := m.RecordEvent("t", 2, "reopen x", domain.DecisionImpact{
		OptionsOpened: []string{"x"},
	})
	require.NoError(t, err)
	assert.Greater(t, reopened.Score, closed.Score)
}

func TestRecordEvent_ConstraintsAndCriticalDecisions(t *testing.T) {
	m := newTestManager(t)

	event, _, err := m.RecordEvent("t", 1, "sign contract", domain.DecisionImpact{
		ReversibilityCost: 0.9,
		CommitmentLevel:   0.8,
		Constraints: []domain.ConstraintSpec{
			{Type: "stakeholder", Description: "exclusive vendor", Strength: 0.8, Flexibility: 0.1},
		},
	})
	require.NoError(t, err)

	mem := m.Memory()
	require.Len(t, mem.Constraints, 1)
	assert.Equal(t, event.ID, mem.Constraints[0].EventID)
	assert.Equal(t, []string{event.ID}, mem.CriticalDecisions)
	assert.Less(t, event.FlexibilityImpact, 0.0)
}

func TestRecordEvent_UpdatesBarrierProximity(t *testing.T) {
	m := newTestManager(t)
	for i := 0; i < 5; i++ {
		_, _, err := m.RecordEvent("t", i, "commit", domain.DecisionImpact{
			OptionsClosed:     []string{fmt.Sprintf("o%d", i)},
			ReversibilityCost: 0.9,
			CommitmentLevel:   0.9,
		})
		require.NoError(t, err)
	}

	mem := m.Memory()
	for _, b := range mem.AbsorbingBarriers {
		assert.Greater(t, b.Proximity, 0.0, b.ID)
		assert.Equal(t, mem.CurrentFlexibility.BarrierProximity[b.ID], b.Proximity)
	}
}

func TestRecordEscape_RemovesConstraintsAndRaisesScore(t *testing.T) {
	m := newTestManager(t)
	_, _, err := m.RecordEvent("t", 1, "lock in", domain.DecisionImpact{
		OptionsClosed:     []string{"a", "b"},
		ReversibilityCost: 0.8,
		CommitmentLevel:   0.9,
		Constraints: []domain.ConstraintSpec{
			{Type: "technical", Strength: 0.7},
			{Type: "resource", Strength: 0.6},
			{Type: "technical", Strength: 0.5},
		},
	})
	require.NoError(t, err)
	before := m.Memory().Score()

	event, removed := m.RecordEscape(EscapeOutcome{
		Protocol:       "Technical Refactoring",
		Gain:           0.1,
		OptionsCreated: []string{"rewrite-module"},
		RemoveTypes:    []string{"technical"},
		MaxRemovals:    1,
	})

	assert.True(t, event.IsEscape())
	require.Len(t, removed, 1)
	assert.Equal(t, "technical", removed[0].Type)
	assert.Len(t, m.Memory().Constraints, 2)
	assert.InDelta(t, before+0.1, m.Memory().Score(), 1e-9)
	assert.Contains(t, m.Memory().AvailableOptions, "rewrite-module")
}

func TestRegisterBarrier(t *testing.T) {
	m := newTestManager(t)
	m.RegisterBarrier(domain.Barrier{
		ID:               "critical-legal",
		Category:         domain.BarrierCritical,
		Subtype:          "legal_exposure",
		Name:             "Legal Exposure",
		Impact:           domain.ImpactIrreversible,
		WarningThreshold: 0.4,
	})
	assert.Len(t, m.Memory().AbsorbingBarriers, 7)
	assert.Contains(t, m.Memory().CurrentFlexibility.BarrierProximity, "critical-legal")

	m.RegisterBarrier(domain.Barrier{ID: "critical-legal", Name: "Legal", WarningThreshold: 0.5})
	assert.Len(t, m.Memory().AbsorbingBarriers, 7)
}

func TestGenerateEscapeRoutes(t *testing.T) {
	t.Run("ranked by feasibility and within reach", func(t *testing.T) {
		mem := domain.NewPathMemory()
		mem.CurrentFlexibility.FlexibilityScore = 0.3
		mem.ForeclosedOptions = []string{"a"}
		mem.Constraints = []domain.Constraint{{Type: "resource", Strength: 0.5, Description: "budget"}}

		routes := GenerateEscapeRoutes(mem)
		require.NotEmpty(t, routes)
		for i, r := range routes {
			assert.LessOrEqual(t, r.RequiredFlexibility, 0.3+routeReach+1e-9)
			assert.LessOrEqual(t, r.Feasibility, 1.0)
			if i > 0 {
				assert.GreaterOrEqual(t, routes[i-1].Feasibility, r.Feasibility)
			}
		}
		ids := make([]string, 0, len(routes))
		for _, r := range routes {
			ids = append(ids, r.ID)
		}
		assert.Contains(t, ids, "reopen")
		assert.Contains(t, ids, "relax-constraint")
		assert.NotContains(t, ids, "fresh-start")
	})

	t.Run("pure read", func(t *testing.T) {
		mem := domain.NewPathMemory()
		mem.ForeclosedOptions = []string{"a", "b", "c", "d"}
		before := mem.Clone()
		_ = GenerateEscapeRoutes(mem)
		assert.Equal(t, before, mem.Clone())
	})

	t.Run("full flexibility offers everything unconditional", func(t *testing.T) {
		routes := GenerateEscapeRoutes(domain.NewPathMemory())
		ids := make([]string, 0, len(routes))
		for _, r := range routes {
			ids = append(ids, r.ID)
			assert.Equal(t, 1.0, r.Feasibility)
		}
		assert.ElementsMatch(t, []string{"reframe", "parallel", "fresh-start"}, ids)
		assert.Equal(t, "reframe", routes[0].ID)
	})
}
