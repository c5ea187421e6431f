// Package document implements the typed mutation operations over a
// conversation config. Every operation takes the current snapshot plus a
// partial patch and returns a new snapshot; nothing is mutated in place. The
// caller owns committing the result as the new current state (single-writer).
//
// Operations are total and defensive: a missing target id is a no-op, never
// an error, and the step order invariant (order values exactly 0..n-1 in
// array order) holds after every operation.
package document

import (
	"chatform-server/internal/models"
	"chatform-server/internal/utils"

	"github.com/google/uuid"
)

// Clone returns a deep copy of the config so callers can hand out snapshots
// without aliasing the slices of the current document.
func Clone(cfg models.ConversationConfig) models.ConversationConfig {
	out := cfg
	out.Steps = make([]models.Step, len(cfg.Steps))
	for i, s := range cfg.Steps {
		out.Steps[i] = cloneStep(s)
	}
	if cfg.Fallback != nil {
		v := *cfg.Fallback
		out.Fallback = &v
	}
	return out
}

func cloneStep(s models.Step) models.Step {
	out := s
	if s.Options != nil {
		out.Options = append([]models.Option(nil), s.Options...)
	}
	if s.CTA != nil {
		cta := *s.CTA
		out.CTA = &cta
	}
	if s.Visual != nil {
		v := *s.Visual
		out.Visual = &v
	}
	return out
}

// NewStep builds a fresh step of the given type. The key is derived from the
// label; choice types start with an empty option list ready for appends.
func NewStep(stepType models.StepType, label string) models.Step {
	step := models.Step{
		ID:    uuid.NewString(),
		Key:   utils.Slugify(label),
		Type:  stepType,
		Label: label,
	}
	if models.ChoiceStepType(stepType) {
		step.Options = []models.Option{}
	}
	return step
}

func reindex(steps []models.Step) {
	for i := range steps {
		steps[i].Order = i
	}
}

func findStep(steps []models.Step, id string) int {
	for i := range steps {
		if steps[i].ID == id {
			return i
		}
	}
	return -1
}
