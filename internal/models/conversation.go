// Package models defines the conversation document model shared across the
// authoring service: the draft configuration a builder edits, the steps it is
// made of, and the persisted conversation record wrapping both the draft and
// the last published snapshot.
package models

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ConversationStatus is the lifecycle status persisted alongside the document.
type ConversationStatus string

const (
	// StatusDraft means the conversation has never been published.
	StatusDraft ConversationStatus = "draft"
	// StatusLive means the conversation has been published at least once.
	StatusLive ConversationStatus = "live"
)

// StepType enumerates the supported step kinds.
type StepType string

const (
	StepTypeShortText      StepType = "short_text"
	StepTypeLongText       StepType = "long_text"
	StepTypeEmail          StepType = "email"
	StepTypePhone          StepType = "phone"
	StepTypeNumber         StepType = "number"
	StepTypeDate           StepType = "date"
	StepTypeSingleChoice   StepType = "single_choice"
	StepTypeMultipleChoice StepType = "multiple_choice"
	StepTypeYesNo          StepType = "yes_no"
	StepTypeFileUpload     StepType = "file_upload"
	StepTypeStatement      StepType = "statement"
	StepTypeCallToAction   StepType = "call_to_action"
)

// IsValidStepType reports whether t is a member of the current enumeration.
func IsValidStepType(t StepType) bool {
	switch t {
	case StepTypeShortText, StepTypeLongText, StepTypeEmail, StepTypePhone,
		StepTypeNumber, StepTypeDate, StepTypeSingleChoice, StepTypeMultipleChoice,
		StepTypeYesNo, StepTypeFileUpload, StepTypeStatement, StepTypeCallToAction:
		return true
	}
	return false
}

// ChoiceStepType reports whether steps of type t carry an options list.
func ChoiceStepType(t StepType) bool {
	return t == StepTypeSingleChoice || t == StepTypeMultipleChoice
}

// Tone values for the AI authoring context.
const (
	ToneFriendly     = "friendly"
	ToneProfessional = "professional"
	ToneCasual       = "casual"
	TonePlayful      = "playful"
)

// MaxAIContextDescription caps the free-text AI context description.
const MaxAIContextDescription = 2000

// VisualKind tags the background media attached to a step or document.
type VisualKind string

const (
	VisualKindImage VisualKind = "image"
	VisualKindVideo VisualKind = "video"
	// VisualKindNone is an explicit "no background", which suppresses the
	// document-level fallback for the step it is attached to.
	VisualKindNone VisualKind = "none"
)

// VisualSource records where the media came from.
type VisualSource string

const (
	VisualSourceUpload VisualSource = "upload"
	VisualSourceURL    VisualSource = "url"
)

// Visual opacity bounds (integer percentage).
const (
	MinVisualOpacity = 10
	MaxVisualOpacity = 100
)

// Visual is a background media layer with its compositing parameters.
type Visual struct {
	Kind        VisualKind   `json:"kind"`
	Source      VisualSource `json:"source,omitempty"`
	URL         string       `json:"url,omitempty"`
	StoragePath string       `json:"storagePath,omitempty"`
	Layout      string       `json:"layout,omitempty"`
	Opacity     int          `json:"opacity,omitempty"`
}

// Option is one selectable answer of a choice step.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// CTAPayload is the button payload of a call-to-action step.
type CTAPayload struct {
	Text         string `json:"text"`
	URL          string `json:"url"`
	OpenInNewTab bool   `json:"openInNewTab"`
}

// Step is a single unit of the conversation: one field to collect, or a
// statement/CTA screen.
type Step struct {
	ID       string   `json:"id"`
	Key      string   `json:"key"`
	Type     StepType `json:"type"`
	Label    string   `json:"label"`
	Message  string   `json:"message"`
	Required bool     `json:"required"`
	// Order is the zero-based position. It is kept contiguous (0..n-1)
	// across all steps by every mutation that adds, removes or reorders.
	Order      int         `json:"order"`
	Options    []Option    `json:"options,omitempty"`
	CTA        *CTAPayload `json:"cta,omitempty"`
	Visual     *Visual     `json:"visual,omitempty"`
	VideoURL   string      `json:"videoUrl,omitempty"`
	ExportName string      `json:"exportName,omitempty"`
}

// WelcomeScreen opens the conversation.
type WelcomeScreen struct {
	Enabled     bool   `json:"enabled"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	ButtonLabel string `json:"buttonLabel"`
}

// EndScreen closes the conversation.
type EndScreen struct {
	Enabled     bool   `json:"enabled"`
	Message     string `json:"message"`
	CTAText     string `json:"ctaText,omitempty"`
	CTAURL      string `json:"ctaUrl,omitempty"`
	Redirect    bool   `json:"redirect,omitempty"`
	RedirectURL string `json:"redirectUrl,omitempty"`
}

// Theme holds the visual style tokens forwarded to the rendering layer.
type Theme struct {
	Preset          string `json:"preset"`
	PrimaryColor    string `json:"primaryColor"`
	BackgroundColor string `json:"backgroundColor"`
	TextColor       string `json:"textColor"`
	FontFamily      string `json:"fontFamily"`
}

// AIContext is the authoring context fed to the wording generator.
type AIContext struct {
	Description string `json:"description"`
	Tone        string `json:"tone"`
	Audience    string `json:"audience"`
}

// ConversationConfig is the draft document the author edits. Values of this
// type are treated as immutable snapshots: mutations produce a new value.
type ConversationConfig struct {
	Steps            []Step        `json:"steps"`
	Welcome          WelcomeScreen `json:"welcomeScreen"`
	End              EndScreen     `json:"endScreen"`
	Theme            Theme         `json:"theme"`
	Fallback         *Visual       `json:"fallbackVisual,omitempty"`
	AIContext        AIContext     `json:"aiContext"`
	BrandDescription string        `json:"brandDescription"`
	AITrainingNotes  string        `json:"aiTrainingNotes"`
}

// Serialize renders the config as canonical JSON. Struct field order is
// fixed, so two structurally equal configs always serialize identically.
func (c ConversationConfig) Serialize() json.RawMessage {
	data, err := json.Marshal(c)
	if err != nil {
		// Marshalling a config can only fail on unrepresentable values,
		// which the model does not contain.
		return json.RawMessage("{}")
	}
	return data
}

// Equal reports structural equality of two configs via their canonical
// serialization.
func Equal(a, b ConversationConfig) bool {
	return bytes.Equal(a.Serialize(), b.Serialize())
}

// Conversation is the persisted record: the draft config plus the snapshot
// currently served to respondents.
type Conversation struct {
	ID        uuid.UUID          `json:"id" db:"id"`
	OwnerID   uuid.UUID          `json:"owner_id" db:"owner_id"`
	Name      string             `json:"name" db:"name"`
	Slug      string             `json:"slug" db:"slug"` // assigned on first publish, stable afterwards
	Status    ConversationStatus `json:"status" db:"status"`
	Version   int                `json:"version" db:"version"` // incremented on each successful publish
	Config    json.RawMessage    `json:"config" db:"config"`
	Published json.RawMessage    `json:"published_config" db:"published_config"`
	CreatedAt time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" db:"updated_at"`
}

// ConversationPublishedEvent is emitted after a successful publish so the
// serving runtime can reload the published snapshot.
type ConversationPublishedEvent struct {
	ID      uuid.UUID `json:"id"`
	Slug    string    `json:"slug"`
	Version int       `json:"version"`
}
