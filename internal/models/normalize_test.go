package models_test

import (
	"encoding/json"
	"testing"

	"chatform-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmptyAndMalformed(t *testing.T) {
	def := models.DefaultConfig()

	t.Run("empty input yields defaults", func(t *testing.T) {
		got := models.Normalize(nil)
		assert.True(t, models.Equal(def, got))
	})

	t.Run("malformed JSON yields defaults", func(t *testing.T) {
		got := models.Normalize(json.RawMessage(`{"steps": [`))
		assert.True(t, models.Equal(def, got))
	})

	t.Run("empty object yields defaults", func(t *testing.T) {
		got := models.Normalize(json.RawMessage(`{}`))
		assert.True(t, models.Equal(def, got))
	})
}

func TestNormalizeIdempotent(t *testing.T) {
	raw := json.RawMessage(`{
		"steps": [
			{"type": "dropdown", "title": "Department", "question": "Which team are you on?", "options": ["Sales", "Support"]},
			{"type": "short_text", "label": "Name", "required": true}
		],
		"welcomeScreen": {"text": "Welcome!"},
		"visuals": {"type": "image", "url": "https://example.com/bg.png", "opacity": 4}
	}`)

	first := models.Normalize(raw)
	second := models.Normalize(first.Serialize())
	assert.True(t, models.Equal(first, second), "second pass must be a fixed point")
}

func TestNormalizeLegacyStepTypes(t *testing.T) {
	cases := map[string]models.StepType{
		"dropdown":    models.StepTypeSingleChoice,
		"checkbox":    models.StepTypeYesNo,
		"consent":     models.StepTypeYesNo,
		"rating":      models.StepTypeNumber,
		"time":        models.StepTypeShortText,
		"email":       models.StepTypeEmail,
		"mystery_one": models.StepType("mystery_one"), // unknown passes through
	}
	for legacy, want := range cases {
		raw, _ := json.Marshal(map[string]any{
			"steps": []map[string]any{{"type": legacy, "label": "X"}},
		})
		got := models.Normalize(raw)
		require.Len(t, got.Steps, 1, "type %q", legacy)
		assert.Equal(t, want, got.Steps[0].Type, "type %q", legacy)
	}
}

func TestNormalizeStepFieldCoalescing(t *testing.T) {
	raw := json.RawMessage(`{
		"steps": [
			{"type": "short_text", "title": "Full name", "msg": "What should we call you?"},
			{"type": "long_text", "label": "Feedback", "question": "Tell us more"}
		]
	}`)
	got := models.Normalize(raw)
	require.Len(t, got.Steps, 2)

	assert.Equal(t, "Full name", got.Steps[0].Label)
	assert.Equal(t, "What should we call you?", got.Steps[0].Message)
	assert.Equal(t, "full_name", got.Steps[0].Key)
	assert.NotEmpty(t, got.Steps[0].ID)

	assert.Equal(t, "Feedback", got.Steps[1].Label)
	assert.Equal(t, "Tell us more", got.Steps[1].Message)
}

func TestNormalizeReindexesOrder(t *testing.T) {
	raw := json.RawMessage(`{
		"steps": [
			{"type": "short_text", "label": "A", "order": 7},
			{"type": "short_text", "label": "B", "order": 2},
			{"type": "short_text", "label": "C"}
		]
	}`)
	got := models.Normalize(raw)
	require.Len(t, got.Steps, 3)
	for i, step := range got.Steps {
		assert.Equal(t, i, step.Order)
	}
	assert.Equal(t, "A", got.Steps[0].Label)
	assert.Equal(t, "B", got.Steps[1].Label)
}

func TestNormalizeOptions(t *testing.T) {
	raw := json.RawMessage(`{
		"steps": [{
			"type": "single_choice",
			"label": "Plan",
			"options": ["Free Tier", {"id": "opt-1", "label": "Pro"}, {"label": "Teams", "value": "teams_custom"}, 42]
		}]
	}`)
	got := models.Normalize(raw)
	require.Len(t, got.Steps, 1)
	opts := got.Steps[0].Options
	require.Len(t, opts, 3, "the numeric entry is dropped")

	assert.Equal(t, "Free Tier", opts[0].Label)
	assert.Equal(t, "free_tier", opts[0].Value)
	assert.NotEmpty(t, opts[0].ID)

	assert.Equal(t, "opt-1", opts[1].ID)
	assert.Equal(t, "pro", opts[1].Value)

	assert.Equal(t, "teams_custom", opts[2].Value)
}

func TestNormalizeVisuals(t *testing.T) {
	t.Run("legacy type tag and source inference", func(t *testing.T) {
		raw := json.RawMessage(`{
			"visuals": {"type": "image", "storagePath": "uploads/bg.png", "opacity": 150}
		}`)
		got := models.Normalize(raw)
		require.NotNil(t, got.Fallback)
		assert.Equal(t, models.VisualKindImage, got.Fallback.Kind)
		assert.Equal(t, models.VisualSourceUpload, got.Fallback.Source)
		assert.Equal(t, models.MaxVisualOpacity, got.Fallback.Opacity)
	})

	t.Run("opacity zero means unset and becomes 100", func(t *testing.T) {
		raw := json.RawMessage(`{
			"fallbackVisual": {"kind": "video", "url": "https://example.com/v.mp4"}
		}`)
		got := models.Normalize(raw)
		require.NotNil(t, got.Fallback)
		assert.Equal(t, models.MaxVisualOpacity, got.Fallback.Opacity)
		assert.Equal(t, models.VisualSourceURL, got.Fallback.Source)
	})

	t.Run("opacity clamps to the lower bound", func(t *testing.T) {
		raw := json.RawMessage(`{
			"fallbackVisual": {"kind": "image", "url": "u", "opacity": 3}
		}`)
		got := models.Normalize(raw)
		require.NotNil(t, got.Fallback)
		assert.Equal(t, models.MinVisualOpacity, got.Fallback.Opacity)
	})

	t.Run("explicit none survives", func(t *testing.T) {
		raw := json.RawMessage(`{"fallbackVisual": {"kind": "none"}}`)
		got := models.Normalize(raw)
		require.NotNil(t, got.Fallback)
		assert.Equal(t, models.VisualKindNone, got.Fallback.Kind)
	})

	t.Run("unusable visual is dropped", func(t *testing.T) {
		raw := json.RawMessage(`{"fallbackVisual": {"kind": "hologram"}}`)
		got := models.Normalize(raw)
		assert.Nil(t, got.Fallback)
	})
}

func TestNormalizeScreens(t *testing.T) {
	raw := json.RawMessage(`{
		"welcomeScreen": {"text": "Hello!", "ctaLabel": "Go"},
		"endScreen": {"enabled": false, "message": "Bye"}
	}`)
	got := models.Normalize(raw)

	assert.True(t, got.Welcome.Enabled, "enabled defaults to true when the flag predates the field")
	assert.Equal(t, "Hello!", got.Welcome.Message)
	assert.Equal(t, "Go", got.Welcome.ButtonLabel)

	assert.False(t, got.End.Enabled)
	assert.Equal(t, "Bye", got.End.Message)
}

func TestNormalizeAIContext(t *testing.T) {
	long := make([]byte, models.MaxAIContextDescription+500)
	for i := range long {
		long[i] = 'a'
	}
	raw, _ := json.Marshal(map[string]any{
		"aiContext": map[string]any{"description": string(long), "audience": "developers"},
	})
	got := models.Normalize(raw)
	assert.Len(t, got.AIContext.Description, models.MaxAIContextDescription)
	assert.Equal(t, models.ToneFriendly, got.AIContext.Tone, "tone defaults to friendly")
	assert.Equal(t, "developers", got.AIContext.Audience)
}
