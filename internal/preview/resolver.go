// Package preview maps the author's current focus to the screen and
// background visual the preview pane must render, matching exactly what the
// respondent will eventually see.
package preview

import "chatform-server/internal/models"

// Screen identifies the logical screen the preview shows.
type Screen string

const (
	ScreenNone    Screen = "none"
	ScreenWelcome Screen = "welcome"
	ScreenEnd     Screen = "end"
	ScreenStep    Screen = "step"
)

// Resolved is the render instruction for the preview pane. Visual is nil
// when no background applies (the renderer falls back to its default
// gradient); when present, its layout and opacity travel verbatim.
type Resolved struct {
	Screen    Screen
	StepIndex int          // valid only when Screen == ScreenStep
	Step      *models.Step // the step at StepIndex
	Visual    *models.Visual
}

// Resolve computes what the preview should render for the given focus.
//
// Step targets are positional: {step: i} resolves to whatever step currently
// sits at position i, so a reorder silently changes which step the preview
// follows. This mirrors the reorder semantics of the mutation layer. A
// position that no longer exists (the step behind it was deleted) degrades
// to the unfocused state instead of failing.
//
// Visual precedence: an explicit visual on the targeted step wins; otherwise
// the document's single fallback visual applies; otherwise none. An explicit
// kind of "none" suppresses the fallback rather than falling through to it.
func Resolve(cfg models.ConversationConfig, target models.PreviewTarget) Resolved {
	switch target.Kind {
	case models.TargetWelcome:
		return Resolved{Screen: ScreenWelcome, Visual: effective(nil, cfg.Fallback)}
	case models.TargetEnd:
		return Resolved{Screen: ScreenEnd, Visual: effective(nil, cfg.Fallback)}
	case models.TargetStep:
		if target.Step < 0 || target.Step >= len(cfg.Steps) {
			return Resolved{Screen: ScreenNone, Visual: effective(nil, cfg.Fallback)}
		}
		step := cfg.Steps[target.Step]
		return Resolved{
			Screen:    ScreenStep,
			StepIndex: target.Step,
			Step:      &step,
			Visual:    effective(step.Visual, cfg.Fallback),
		}
	default:
		return Resolved{Screen: ScreenNone, Visual: effective(nil, cfg.Fallback)}
	}
}

// effective picks the background layer: explicit beats fallback, and an
// explicit "none" beats everything.
func effective(explicit, fallback *models.Visual) *models.Visual {
	if explicit != nil {
		if explicit.Kind == models.VisualKindNone {
			return nil
		}
		v := *explicit
		return &v
	}
	if fallback != nil && fallback.Kind != models.VisualKindNone {
		v := *fallback
		return &v
	}
	return nil
}
