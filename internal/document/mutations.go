package document

import (
	"strings"

	"chatform-server/internal/models"
	"chatform-server/internal/utils"

	"github.com/google/uuid"
)

// StepPatch is a partial update of one step. Nil fields are left untouched.
type StepPatch struct {
	Label      *string
	Message    *string
	Key        *string
	Type       *models.StepType
	Required   *bool
	ExportName *string
	VideoURL   *string
	CTA        *models.CTAPayload
	Visual     *models.Visual
}

// UpdateStep applies a patch to the step with the given id. The machine key
// follows label edits as long as it still equals the slug of the previous
// label; once the author sets the key by hand the link is broken and label
// edits leave it alone. Returns the new config and whether anything changed.
func UpdateStep(cfg models.ConversationConfig, stepID string, patch StepPatch) (models.ConversationConfig, bool) {
	i := findStep(cfg.Steps, stepID)
	if i < 0 {
		return cfg, false
	}

	out := Clone(cfg)
	step := &out.Steps[i]

	if patch.Label != nil && *patch.Label != step.Label {
		if step.Key == utils.Slugify(step.Label) {
			step.Key = utils.Slugify(*patch.Label)
		}
		step.Label = *patch.Label
	}
	if patch.Key != nil {
		step.Key = utils.Slugify(*patch.Key)
	}
	if patch.Message != nil {
		step.Message = *patch.Message
	}
	if patch.Type != nil && models.IsValidStepType(*patch.Type) {
		step.Type = *patch.Type
		if models.ChoiceStepType(step.Type) && step.Options == nil {
			step.Options = []models.Option{}
		}
	}
	if patch.Required != nil {
		step.Required = *patch.Required
	}
	if patch.ExportName != nil {
		step.ExportName = *patch.ExportName
	}
	if patch.VideoURL != nil {
		step.VideoURL = *patch.VideoURL
	}
	if patch.CTA != nil {
		cta := *patch.CTA
		step.CTA = &cta
	}
	if patch.Visual != nil {
		v := *patch.Visual
		step.Visual = &v
	}

	return out, true
}

// AppendStep adds a step at the end of the journey, assigning a fresh id
// when the step has none and order = current length.
func AppendStep(cfg models.ConversationConfig, step models.Step) (models.ConversationConfig, models.Step) {
	out := Clone(cfg)
	if step.ID == "" {
		step.ID = uuid.NewString()
	}
	step.Order = len(out.Steps)
	out.Steps = append(out.Steps, cloneStep(step))
	return out, step
}

// DuplicateStep copies the step with the given id to the end of the journey.
// The copy gets a fresh id, a suffixed key, and an empty message: the
// respondent-facing wording is treated as not yet authored so it has to be
// rewritten or regenerated rather than shown twice.
func DuplicateStep(cfg models.ConversationConfig, stepID string) (models.ConversationConfig, models.Step, bool) {
	i := findStep(cfg.Steps, stepID)
	if i < 0 {
		return cfg, models.Step{}, false
	}

	out := Clone(cfg)
	dup := cloneStep(out.Steps[i])
	dup.ID = uuid.NewString()
	dup.Key = copyKey(dup.Key)
	dup.Message = ""
	dup.Order = len(out.Steps)
	out.Steps = append(out.Steps, dup)
	return out, dup, true
}

func copyKey(key string) string {
	const suffix = "_copy"
	if key == "" {
		return ""
	}
	if len(key)+len(suffix) > utils.MaxKeyLength {
		key = strings.Trim(key[:utils.MaxKeyLength-len(suffix)], "_")
	}
	return key + suffix
}

// DeleteStep removes the step with the given id and reindexes the remainder.
func DeleteStep(cfg models.ConversationConfig, stepID string) (models.ConversationConfig, bool) {
	i := findStep(cfg.Steps, stepID)
	if i < 0 {
		return cfg, false
	}

	out := Clone(cfg)
	out.Steps = append(out.Steps[:i], out.Steps[i+1:]...)
	reindex(out.Steps)
	return out, true
}

// ReorderStep moves the step at position from to position to, using
// splice-and-reinsert semantics matching a drag gesture. from == to and
// out-of-range positions are no-ops so callers can skip the persistence
// write entirely.
func ReorderStep(cfg models.ConversationConfig, from, to int) (models.ConversationConfig, bool) {
	n := len(cfg.Steps)
	if from == to || from < 0 || from >= n || to < 0 || to >= n {
		return cfg, false
	}

	out := Clone(cfg)
	moved := out.Steps[from]
	out.Steps = append(out.Steps[:from], out.Steps[from+1:]...)
	out.Steps = append(out.Steps[:to], append([]models.Step{moved}, out.Steps[to:]...)...)
	reindex(out.Steps)
	return out, true
}

// OptionPatch is a partial update of one choice option.
type OptionPatch struct {
	Label *string
	Value *string
}

// AddOption appends an option to the step's option list, deriving the value
// from the label.
func AddOption(cfg models.ConversationConfig, stepID, label string) (models.ConversationConfig, models.Option, bool) {
	i := findStep(cfg.Steps, stepID)
	if i < 0 {
		return cfg, models.Option{}, false
	}

	out := Clone(cfg)
	opt := models.Option{ID: uuid.NewString(), Label: label, Value: utils.Slugify(label)}
	out.Steps[i].Options = append(out.Steps[i].Options, opt)
	return out, opt, true
}

// UpdateOption patches one option within a step.
func UpdateOption(cfg models.ConversationConfig, stepID, optionID string, patch OptionPatch) (models.ConversationConfig, bool) {
	i := findStep(cfg.Steps, stepID)
	if i < 0 {
		return cfg, false
	}
	j := findOption(cfg.Steps[i].Options, optionID)
	if j < 0 {
		return cfg, false
	}

	out := Clone(cfg)
	opt := &out.Steps[i].Options[j]
	if patch.Label != nil {
		if opt.Value == utils.Slugify(opt.Label) && patch.Value == nil {
			opt.Value = utils.Slugify(*patch.Label)
		}
		opt.Label = *patch.Label
	}
	if patch.Value != nil {
		opt.Value = utils.Slugify(*patch.Value)
	}
	return out, true
}

// RemoveOption deletes one option from a step.
func RemoveOption(cfg models.ConversationConfig, stepID, optionID string) (models.ConversationConfig, bool) {
	i := findStep(cfg.Steps, stepID)
	if i < 0 {
		return cfg, false
	}
	j := findOption(cfg.Steps[i].Options, optionID)
	if j < 0 {
		return cfg, false
	}

	out := Clone(cfg)
	out.Steps[i].Options = append(out.Steps[i].Options[:j], out.Steps[i].Options[j+1:]...)
	return out, true
}

func findOption(options []models.Option, id string) int {
	for i := range options {
		if options[i].ID == id {
			return i
		}
	}
	return -1
}
