package models

import (
	"encoding/json"

	"chatform-server/internal/utils"

	"github.com/google/uuid"
)

// Normalize migrates a stored document of any historical schema shape into
// the current canonical ConversationConfig. It is pure and total: malformed
// input degrades to defaults instead of failing, because this runs once at
// load time and a failure here would strand the author with an unusable
// draft. It is also idempotent: normalizing an already-canonical document
// returns it unchanged.
func Normalize(raw json.RawMessage) ConversationConfig {
	cfg := DefaultConfig()
	if len(raw) == 0 {
		return cfg
	}

	var doc legacyDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return cfg
	}

	// Welcome screen: enabled defaults to true when the field predates the
	// flag. Missing text fields keep the canonical defaults.
	if doc.Welcome != nil {
		cfg.Welcome = WelcomeScreen{
			Enabled:     boolOr(doc.Welcome.Enabled, true),
			Title:       firstNonEmpty(doc.Welcome.Title, cfg.Welcome.Title),
			Message:     firstNonEmpty(doc.Welcome.Message, doc.Welcome.Text, cfg.Welcome.Message),
			ButtonLabel: firstNonEmpty(doc.Welcome.ButtonLabel, doc.Welcome.CTALabel, cfg.Welcome.ButtonLabel),
		}
	}
	if doc.End != nil {
		cfg.End = EndScreen{
			Enabled:     boolOr(doc.End.Enabled, true),
			Message:     firstNonEmpty(doc.End.Message, doc.End.Text, cfg.End.Message),
			CTAText:     doc.End.CTAText,
			CTAURL:      doc.End.CTAURL,
			Redirect:    boolOr(doc.End.Redirect, false),
			RedirectURL: doc.End.RedirectURL,
		}
	}

	if doc.Theme != nil {
		def := DefaultTheme()
		cfg.Theme = Theme{
			Preset:          firstNonEmpty(doc.Theme.Preset, def.Preset),
			PrimaryColor:    firstNonEmpty(doc.Theme.PrimaryColor, def.PrimaryColor),
			BackgroundColor: firstNonEmpty(doc.Theme.BackgroundColor, def.BackgroundColor),
			TextColor:       firstNonEmpty(doc.Theme.TextColor, def.TextColor),
			FontFamily:      firstNonEmpty(doc.Theme.FontFamily, def.FontFamily),
		}
	}

	// The global fallback background lived under "visuals" before the
	// canonical "fallbackVisual" field existed.
	if v := normalizeVisual(doc.FallbackVisual); v != nil {
		cfg.Fallback = v
	} else if v := normalizeVisual(doc.LegacyVisuals); v != nil {
		cfg.Fallback = v
	}

	if doc.AIContext != nil {
		cfg.AIContext = AIContext{
			Description: capString(doc.AIContext.Description, MaxAIContextDescription),
			Tone:        firstNonEmpty(doc.AIContext.Tone, ToneFriendly),
			Audience:    doc.AIContext.Audience,
		}
	}
	cfg.BrandDescription = doc.BrandDescription
	cfg.AITrainingNotes = doc.AITrainingNotes

	cfg.Steps = make([]Step, 0, len(doc.Steps))
	for _, rawStep := range doc.Steps {
		cfg.Steps = append(cfg.Steps, normalizeStep(rawStep))
	}
	// Order values are authoritative by array position: reindex to 0..n-1.
	for i := range cfg.Steps {
		cfg.Steps[i].Order = i
	}

	return cfg
}

// legacyStepTypes maps retired step type names to current enumeration
// members. Unrecognized values pass through unchanged.
var legacyStepTypes = map[string]StepType{
	"dropdown": StepTypeSingleChoice,
	"checkbox": StepTypeYesNo,
	"consent":  StepTypeYesNo,
	"rating":   StepTypeNumber,
	"time":     StepTypeShortText,
}

func normalizeStep(raw legacyStep) Step {
	stepType := StepType(raw.Type)
	if mapped, ok := legacyStepTypes[raw.Type]; ok {
		stepType = mapped
	}

	// Historical documents stored the internal label under "title" and the
	// respondent-facing wording under "msg" or "question". Coalesce to the
	// first non-empty source in precedence order.
	label := firstNonEmpty(raw.Label, raw.Title)
	message := firstNonEmpty(raw.Message, raw.Msg, raw.Question)

	step := Step{
		ID:         firstNonEmpty(raw.ID, uuid.NewString()),
		Key:        firstNonEmpty(raw.Key, utils.Slugify(label)),
		Type:       stepType,
		Label:      label,
		Message:    message,
		Required:   boolOr(raw.Required, false),
		VideoURL:   raw.VideoURL,
		ExportName: raw.ExportName,
		CTA:        raw.CTA,
		Visual:     normalizeVisual(raw.Visual),
	}

	if len(raw.Options) > 0 {
		step.Options = make([]Option, 0, len(raw.Options))
		for _, rawOpt := range raw.Options {
			if opt, ok := normalizeOption(rawOpt); ok {
				step.Options = append(step.Options, opt)
			}
		}
	}

	return step
}

// normalizeOption upgrades a bare-string option ("Option A") or a partially
// filled object into the canonical {id, label, value} shape. Entries that are
// neither are dropped rather than failing the whole document.
func normalizeOption(raw json.RawMessage) (Option, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return Option{ID: uuid.NewString(), Label: s, Value: utils.Slugify(s)}, true
	}

	var opt Option
	if err := json.Unmarshal(raw, &opt); err != nil {
		return Option{}, false
	}
	if opt.ID == "" {
		opt.ID = uuid.NewString()
	}
	if opt.Value == "" {
		opt.Value = utils.Slugify(opt.Label)
	}
	return opt, true
}

// normalizeVisual upgrades a visual of either generation. The legacy shape
// was tagged by "type" and had no explicit source; the canonical shape is
// tagged by "kind". Returns nil for absent or unusable values.
func normalizeVisual(raw json.RawMessage) *Visual {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var v struct {
		Kind        string `json:"kind"`
		Type        string `json:"type"` // legacy tag
		Source      string `json:"source"`
		URL         string `json:"url"`
		StoragePath string `json:"storagePath"`
		Layout      string `json:"layout"`
		Opacity     int    `json:"opacity"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}

	kind := VisualKind(firstNonEmpty(v.Kind, v.Type))
	switch kind {
	case VisualKindImage, VisualKindVideo:
	case VisualKindNone:
		return &Visual{Kind: VisualKindNone}
	default:
		return nil
	}

	source := VisualSource(v.Source)
	if source != VisualSourceUpload && source != VisualSourceURL {
		if v.StoragePath != "" {
			source = VisualSourceUpload
		} else {
			source = VisualSourceURL
		}
	}

	opacity := v.Opacity
	if opacity == 0 {
		opacity = MaxVisualOpacity
	}
	if opacity < MinVisualOpacity {
		opacity = MinVisualOpacity
	}
	if opacity > MaxVisualOpacity {
		opacity = MaxVisualOpacity
	}

	return &Visual{
		Kind:        kind,
		Source:      source,
		URL:         v.URL,
		StoragePath: v.StoragePath,
		Layout:      v.Layout,
		Opacity:     opacity,
	}
}

// --- legacy wire shapes ---

type legacyDocument struct {
	Steps            []legacyStep         `json:"steps"`
	Welcome          *legacyWelcomeScreen `json:"welcomeScreen"`
	End              *legacyEndScreen     `json:"endScreen"`
	Theme            *legacyTheme         `json:"theme"`
	FallbackVisual   json.RawMessage      `json:"fallbackVisual"`
	LegacyVisuals    json.RawMessage      `json:"visuals"`
	AIContext        *legacyAIContext     `json:"aiContext"`
	BrandDescription string               `json:"brandDescription"`
	AITrainingNotes  string               `json:"aiTrainingNotes"`
}

type legacyStep struct {
	ID         string            `json:"id"`
	Key        string            `json:"key"`
	Type       string            `json:"type"`
	Label      string            `json:"label"`
	Title      string            `json:"title"` // pre-label field name
	Message    string            `json:"message"`
	Msg        string            `json:"msg"`      // older wording field
	Question   string            `json:"question"` // oldest wording field
	Required   *bool             `json:"required"`
	Options    []json.RawMessage `json:"options"`
	CTA        *CTAPayload       `json:"cta"`
	Visual     json.RawMessage   `json:"visual"`
	VideoURL   string            `json:"videoUrl"`
	ExportName string            `json:"exportName"`
}

type legacyWelcomeScreen struct {
	Enabled     *bool  `json:"enabled"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	Text        string `json:"text"` // pre-message field name
	ButtonLabel string `json:"buttonLabel"`
	CTALabel    string `json:"ctaLabel"` // pre-buttonLabel field name
}

type legacyEndScreen struct {
	Enabled     *bool  `json:"enabled"`
	Message     string `json:"message"`
	Text        string `json:"text"`
	CTAText     string `json:"ctaText"`
	CTAURL      string `json:"ctaUrl"`
	Redirect    *bool  `json:"redirect"`
	RedirectURL string `json:"redirectUrl"`
}

type legacyTheme struct {
	Preset          string `json:"preset"`
	PrimaryColor    string `json:"primaryColor"`
	BackgroundColor string `json:"backgroundColor"`
	TextColor       string `json:"textColor"`
	FontFamily      string `json:"fontFamily"`
}

type legacyAIContext struct {
	Description string `json:"description"`
	Tone        string `json:"tone"`
	Audience    string `json:"audience"`
}

// --- small coalescing helpers ---

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func capString(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
