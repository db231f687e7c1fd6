package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWarningLevelOrdering(t *testing.T) {
	assert.True(t, LevelSafe < LevelCaution)
	assert.True(t, LevelCaution < LevelWarning)
	assert.True(t, LevelWarning < LevelCritical)
	assert.Equal(t, LevelCritical, MaxLevel(LevelWarning, LevelCritical))
	assert.Equal(t, LevelCaution, MaxLevel(LevelCaution, LevelSafe))
}

func TestWarningLevelText(t *testing.T) {
	data, err := json.Marshal(map[string]WarningLevel{"level": LevelWarning})
	require.NoError(t, err)
	assert.JSONEq(t, `{"level":"WARNING"}`, string(data))

	var out map[string]WarningLevel
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, LevelWarning, out["level"])

	var lvl WarningLevel
	assert.Error(t, lvl.UnmarshalText([]byte("PANIC")))
}

func TestOptionSet(t *testing.T) {
	var set []string
	set = AddOption(set, "b")
	set = AddOption(set, "a")
	set = AddOption(set, "c")
	set = AddOption(set, "a")
	assert.Equal(t, []string{"a", "b", "c"}, set)
	assert.True(t, HasOption(set, "b"))

	set = RemoveOption(set, "b")
	set = RemoveOption(set, "zzz")
	assert.Equal(t, []string{"a", "c"}, set)
	assert.False(t, HasOption(set, "b"))
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-0.2))
	assert.Equal(t, 1.0, Clamp01(1.7))
	assert.Equal(t, 0.4, Clamp01(0.4))
}

func TestDecisionImpactValidate(t *testing.T) {
	tests := []struct {
		name      string
		impact    DecisionImpact
		wantField string
		wantRule  string
	}{
		{
			name:   "valid",
			impact: DecisionImpact{ReversibilityCost: 0.3, CommitmentLevel: 1},
		},
		{
			name:      "reversibility above range",
			impact:    DecisionImpact{ReversibilityCost: 1.5},
			wantField: "ReversibilityCost",
			wantRule:  "lte 1",
		},
		{
			name:      "negative commitment",
			impact:    DecisionImpact{CommitmentLevel: -0.1},
			wantField: "CommitmentLevel",
			wantRule:  "gte 0",
		},
		{
			name: "constraint without type",
			impact: DecisionImpact{Constraints: []ConstraintSpec{
				{Strength: 0.5},
			}},
			wantField: "Constraints[0].Type",
			wantRule:  "required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.impact.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantField, verr.Field)
			assert.Equal(t, tt.wantRule, verr.Rule)
		})
	}
}

func TestSessionContextProgress(t *testing.T) {
	assert.Equal(t, 0.0, SessionContext{}.Progress())
	assert.Equal(t, 0.5, SessionContext{CurrentStep: 2, TotalSteps: 4}.Progress())
	assert.Equal(t, 1.0, SessionContext{CurrentStep: 9, TotalSteps: 4}.Progress())
}

func TestPathEventHelpers(t *testing.T) {
	e := PathEvent{OptionsOpened: []string{"a", "b"}, OptionsClosed: []string{"c"}}
	assert.Equal(t, 1, e.NetOptions())
	assert.False(t, e.IsEscape())
	assert.True(t, PathEvent{Technique: TechniqueEscape}.IsEscape())
}
