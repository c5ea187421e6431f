package document_test

import (
	"strings"
	"testing"

	"chatform-server/internal/document"
	"chatform-server/internal/models"
	"chatform-server/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildConfig(labels ...string) models.ConversationConfig {
	cfg := models.DefaultConfig()
	for _, label := range labels {
		cfg, _ = document.AppendStep(cfg, document.NewStep(models.StepTypeShortText, label))
	}
	return cfg
}

func assertOrderContiguous(t *testing.T, steps []models.Step) {
	t.Helper()
	for i, s := range steps {
		assert.Equal(t, i, s.Order, "step %q at position %d", s.Label, i)
	}
}

func TestAppendStep(t *testing.T) {
	cfg := buildConfig("Name", "Email")
	require.Len(t, cfg.Steps, 2)
	assertOrderContiguous(t, cfg.Steps)

	assert.Equal(t, "name", cfg.Steps[0].Key)
	assert.Equal(t, "email", cfg.Steps[1].Key)
	assert.NotEqual(t, cfg.Steps[0].ID, cfg.Steps[1].ID)
}

func TestNewStepChoiceTypesGetOptionList(t *testing.T) {
	step := document.NewStep(models.StepTypeSingleChoice, "Plan")
	assert.NotNil(t, step.Options)
	assert.Empty(t, step.Options)

	step = document.NewStep(models.StepTypeShortText, "Name")
	assert.Nil(t, step.Options)
}

func TestUpdateStepKeyFollowsLabel(t *testing.T) {
	cfg := buildConfig("Destination?")
	id := cfg.Steps[0].ID
	require.Equal(t, "destination", cfg.Steps[0].Key)

	t.Run("key follows label while still derived", func(t *testing.T) {
		label := "Where are you travelling to?"
		out, ok := document.UpdateStep(cfg, id, document.StepPatch{Label: &label})
		require.True(t, ok)
		assert.Equal(t, "where_are_you_travelling_to", out.Steps[0].Key)
	})

	t.Run("manual key edit breaks the link", func(t *testing.T) {
		key := "travel destination"
		out, ok := document.UpdateStep(cfg, id, document.StepPatch{Key: &key})
		require.True(t, ok)
		assert.Equal(t, "travel_destination", out.Steps[0].Key, "explicit keys are slugified")

		label := "Completely new label"
		out, ok = document.UpdateStep(out, id, document.StepPatch{Label: &label})
		require.True(t, ok)
		assert.Equal(t, "travel_destination", out.Steps[0].Key, "label edits leave a hand-set key alone")
		assert.Equal(t, "Completely new label", out.Steps[0].Label)
	})

	t.Run("missing id is a no-op", func(t *testing.T) {
		label := "x"
		out, ok := document.UpdateStep(cfg, "no-such-id", document.StepPatch{Label: &label})
		assert.False(t, ok)
		assert.True(t, models.Equal(cfg, out))
	})
}

func TestUpdateStepDoesNotMutateInput(t *testing.T) {
	cfg := buildConfig("Name")
	id := cfg.Steps[0].ID
	label := "Full name"

	_, ok := document.UpdateStep(cfg, id, document.StepPatch{Label: &label})
	require.True(t, ok)
	assert.Equal(t, "Name", cfg.Steps[0].Label, "input snapshot must stay untouched")
}

func TestUpdateStepTypeSwitch(t *testing.T) {
	cfg := buildConfig("Plan")
	id := cfg.Steps[0].ID

	choice := models.StepTypeSingleChoice
	out, ok := document.UpdateStep(cfg, id, document.StepPatch{Type: &choice})
	require.True(t, ok)
	assert.Equal(t, models.StepTypeSingleChoice, out.Steps[0].Type)
	assert.NotNil(t, out.Steps[0].Options, "switching to a choice type initializes options")

	bogus := models.StepType("hologram")
	out2, ok := document.UpdateStep(out, id, document.StepPatch{Type: &bogus})
	require.True(t, ok)
	assert.Equal(t, models.StepTypeSingleChoice, out2.Steps[0].Type, "invalid types are ignored")
}

func TestDuplicateStep(t *testing.T) {
	cfg := buildConfig("Email")
	msg := "What's your email?"
	cfg, ok := document.UpdateStep(cfg, cfg.Steps[0].ID, document.StepPatch{Message: &msg})
	require.True(t, ok)

	out, dup, ok := document.DuplicateStep(cfg, cfg.Steps[0].ID)
	require.True(t, ok)
	require.Len(t, out.Steps, 2)
	assertOrderContiguous(t, out.Steps)

	assert.NotEqual(t, out.Steps[0].ID, dup.ID)
	assert.Equal(t, "email_copy", dup.Key)
	assert.Equal(t, "Email", dup.Label)
	assert.Empty(t, dup.Message, "the copy must not inherit respondent-facing wording")
	assert.Equal(t, msg, out.Steps[0].Message)
}

func TestDuplicateStepKeyStaysWithinCap(t *testing.T) {
	longLabel := strings.Repeat("budget ", 10)
	cfg := buildConfig(longLabel)

	_, dup, ok := document.DuplicateStep(cfg, cfg.Steps[0].ID)
	require.True(t, ok)
	assert.LessOrEqual(t, len(dup.Key), utils.MaxKeyLength)
	assert.True(t, strings.HasSuffix(dup.Key, "_copy"))
}

func TestDeleteStepReindexes(t *testing.T) {
	cfg := buildConfig("A", "B", "C")
	out, ok := document.DeleteStep(cfg, cfg.Steps[1].ID)
	require.True(t, ok)
	require.Len(t, out.Steps, 2)
	assertOrderContiguous(t, out.Steps)
	assert.Equal(t, "A", out.Steps[0].Label)
	assert.Equal(t, "C", out.Steps[1].Label)
}

func TestReorderStep(t *testing.T) {
	cfg := buildConfig("A", "B", "C")

	t.Run("moves and reindexes", func(t *testing.T) {
		out, ok := document.ReorderStep(cfg, 2, 0)
		require.True(t, ok)
		assert.Equal(t, []string{"C", "A", "B"}, labels(out.Steps))
		assertOrderContiguous(t, out.Steps)
	})

	t.Run("same position is a no-op", func(t *testing.T) {
		out, ok := document.ReorderStep(cfg, 1, 1)
		assert.False(t, ok)
		assert.True(t, models.Equal(cfg, out))
	})

	t.Run("out of range is a no-op", func(t *testing.T) {
		_, ok := document.ReorderStep(cfg, 0, 3)
		assert.False(t, ok)
		_, ok = document.ReorderStep(cfg, -1, 0)
		assert.False(t, ok)
	})
}

func TestOptionLifecycle(t *testing.T) {
	cfg := buildConfig()
	cfg, _ = document.AppendStep(cfg, document.NewStep(models.StepTypeSingleChoice, "Plan"))
	stepID := cfg.Steps[0].ID

	cfg, opt, ok := document.AddOption(cfg, stepID, "Free Tier")
	require.True(t, ok)
	assert.Equal(t, "free_tier", opt.Value)

	t.Run("value follows label while derived", func(t *testing.T) {
		label := "Starter Tier"
		out, ok := document.UpdateOption(cfg, stepID, opt.ID, document.OptionPatch{Label: &label})
		require.True(t, ok)
		assert.Equal(t, "starter_tier", out.Steps[0].Options[0].Value)
	})

	t.Run("explicit value breaks the link", func(t *testing.T) {
		value := "Custom Value"
		out, ok := document.UpdateOption(cfg, stepID, opt.ID, document.OptionPatch{Value: &value})
		require.True(t, ok)
		assert.Equal(t, "custom_value", out.Steps[0].Options[0].Value)

		label := "Renamed"
		out, ok = document.UpdateOption(out, stepID, opt.ID, document.OptionPatch{Label: &label})
		require.True(t, ok)
		assert.Equal(t, "custom_value", out.Steps[0].Options[0].Value)
	})

	t.Run("remove", func(t *testing.T) {
		out, ok := document.RemoveOption(cfg, stepID, opt.ID)
		require.True(t, ok)
		assert.Empty(t, out.Steps[0].Options)
	})

	t.Run("unknown option id", func(t *testing.T) {
		_, ok := document.RemoveOption(cfg, stepID, "nope")
		assert.False(t, ok)
	})
}

// The canonical authoring walkthrough: build a small travel form, rename a
// step, duplicate, reorder and delete, checking the invariants at each stage.
func TestAuthoringWalkthrough(t *testing.T) {
	cfg := buildConfig("Destination?", "Departure date", "Budget")
	assert.Equal(t, "destination", cfg.Steps[0].Key)

	// Rename the first step; its key follows.
	label := "Where to?"
	cfg, ok := document.UpdateStep(cfg, cfg.Steps[0].ID, document.StepPatch{Label: &label})
	require.True(t, ok)
	assert.Equal(t, "where_to", cfg.Steps[0].Key)

	// Duplicate the budget step.
	cfg, dup, ok := document.DuplicateStep(cfg, cfg.Steps[2].ID)
	require.True(t, ok)
	assert.Equal(t, "budget_copy", dup.Key)
	assert.Equal(t, 3, dup.Order)

	// Move the copy to the front.
	cfg, ok = document.ReorderStep(cfg, 3, 0)
	require.True(t, ok)
	assert.Equal(t, []string{"Budget", "Where to?", "Departure date", "Budget"}, labels(cfg.Steps))

	// Delete the original budget step (now at position 3).
	cfg, ok = document.DeleteStep(cfg, cfg.Steps[3].ID)
	require.True(t, ok)
	assert.Equal(t, []string{"Budget", "Where to?", "Departure date"}, labels(cfg.Steps))
	assertOrderContiguous(t, cfg.Steps)
}

func labels(steps []models.Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.Label
	}
	return out
}
