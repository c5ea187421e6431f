package models

import (
	"encoding/json"
	"fmt"
)

// PreviewTargetKind discriminates what the author is focused on.
type PreviewTargetKind string

const (
	// TargetNone means no focus; the preview shows the fallback state.
	TargetNone PreviewTargetKind = ""
	// TargetWelcome focuses the welcome screen.
	TargetWelcome PreviewTargetKind = "welcome"
	// TargetEnd focuses the end screen.
	TargetEnd PreviewTargetKind = "end"
	// TargetStep focuses the step at a given position.
	TargetStep PreviewTargetKind = "step"
)

// PreviewTarget addresses the screen the preview pane must render. Step
// targets hold a position, not a step id: after a reorder, {step: i} refers
// to whatever step currently sits at position i.
//
// Wire shapes accepted and produced: null, "welcome", "end", {"step": i}.
type PreviewTarget struct {
	Kind PreviewTargetKind
	Step int
}

// StepTarget builds a step-position target.
func StepTarget(index int) PreviewTarget {
	return PreviewTarget{Kind: TargetStep, Step: index}
}

func (t PreviewTarget) MarshalJSON() ([]byte, error) {
	switch t.Kind {
	case TargetWelcome, TargetEnd:
		return json.Marshal(string(t.Kind))
	case TargetStep:
		return json.Marshal(map[string]int{"step": t.Step})
	default:
		return []byte("null"), nil
	}
}

func (t *PreviewTarget) UnmarshalJSON(data []byte) error {
	trimmed := string(data)
	if trimmed == "null" {
		*t = PreviewTarget{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch PreviewTargetKind(s) {
		case TargetWelcome, TargetEnd:
			*t = PreviewTarget{Kind: PreviewTargetKind(s)}
			return nil
		default:
			return fmt.Errorf("%w: unknown preview target %q", ErrInvalidInput, s)
		}
	}

	var obj struct {
		Step *int `json:"step"`
	}
	if err := json.Unmarshal(data, &obj); err != nil || obj.Step == nil {
		return fmt.Errorf("%w: malformed preview target", ErrInvalidInput)
	}
	*t = PreviewTarget{Kind: TargetStep, Step: *obj.Step}
	return nil
}
