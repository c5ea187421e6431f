package handler

import (
	"encoding/json"
	"time"

	"chatform-server/internal/document"
	"chatform-server/internal/models"
	"chatform-server/internal/preview"
)

type createConversationRequest struct {
	Name string `json:"name" binding:"required"`
}

type renameRequest struct {
	Name string `json:"name" binding:"required"`
}

// ConversationSummary is the list-view projection of a conversation.
type ConversationSummary struct {
	ID        string                    `json:"id"`
	Name      string                    `json:"name"`
	Slug      string                    `json:"slug,omitempty"`
	Status    models.ConversationStatus `json:"status"`
	Version   int                       `json:"version"`
	UpdatedAt time.Time                 `json:"updatedAt"`
	CreatedAt time.Time                 `json:"createdAt"`
}

func toSummary(conv models.Conversation) ConversationSummary {
	return ConversationSummary{
		ID:        conv.ID.String(),
		Name:      conv.Name,
		Slug:      conv.Slug,
		Status:    conv.Status,
		Version:   conv.Version,
		UpdatedAt: conv.UpdatedAt,
		CreatedAt: conv.CreatedAt,
	}
}

type addStepRequest struct {
	Type  models.StepType `json:"type" binding:"required"`
	Label string          `json:"label"`
}

type updateStepRequest struct {
	Label      *string            `json:"label"`
	Message    *string            `json:"message"`
	Key        *string            `json:"key"`
	Type       *models.StepType   `json:"type"`
	Required   *bool              `json:"required"`
	ExportName *string            `json:"exportName"`
	VideoURL   *string            `json:"videoUrl"`
	CTA        *models.CTAPayload `json:"cta"`
	Visual     *models.Visual     `json:"visual"`
}

func (r updateStepRequest) toPatch() document.StepPatch {
	return document.StepPatch{
		Label:      r.Label,
		Message:    r.Message,
		Key:        r.Key,
		Type:       r.Type,
		Required:   r.Required,
		ExportName: r.ExportName,
		VideoURL:   r.VideoURL,
		CTA:        r.CTA,
		Visual:     r.Visual,
	}
}

type reorderRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type addOptionRequest struct {
	Label string `json:"label" binding:"required"`
}

type updateOptionRequest struct {
	Label *string `json:"label"`
	Value *string `json:"value"`
}

// documentPatchRequest distinguishes an absent fallbackVisual (leave as is)
// from an explicit null (clear it) via the Set flag of a double decode.
type documentPatchRequest struct {
	BrandDescription *string        `json:"brandDescription"`
	AITrainingNotes  *string        `json:"aiTrainingNotes"`
	Fallback         *fallbackPatch `json:"fallbackVisual"`
}

type fallbackPatch struct {
	Visual *models.Visual
}

func (p *fallbackPatch) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		p.Visual = nil
		return nil
	}
	v := &models.Visual{}
	if err := json.Unmarshal(data, v); err != nil {
		return err
	}
	p.Visual = v
	return nil
}

func (r documentPatchRequest) toPatch() document.DocumentPatch {
	patch := document.DocumentPatch{
		BrandDescription: r.BrandDescription,
		AITrainingNotes:  r.AITrainingNotes,
	}
	if r.Fallback != nil {
		patch.Fallback = &r.Fallback.Visual
	}
	return patch
}

type welcomePatchRequest struct {
	Enabled     *bool   `json:"enabled"`
	Title       *string `json:"title"`
	Message     *string `json:"message"`
	ButtonLabel *string `json:"buttonLabel"`
}

func (r welcomePatchRequest) toPatch() document.WelcomePatch {
	return document.WelcomePatch{
		Enabled:     r.Enabled,
		Title:       r.Title,
		Message:     r.Message,
		ButtonLabel: r.ButtonLabel,
	}
}

type endPatchRequest struct {
	Enabled     *bool   `json:"enabled"`
	Message     *string `json:"message"`
	CTAText     *string `json:"ctaText"`
	CTAURL      *string `json:"ctaUrl"`
	Redirect    *bool   `json:"redirect"`
	RedirectURL *string `json:"redirectUrl"`
}

func (r endPatchRequest) toPatch() document.EndPatch {
	return document.EndPatch{
		Enabled:     r.Enabled,
		Message:     r.Message,
		CTAText:     r.CTAText,
		CTAURL:      r.CTAURL,
		Redirect:    r.Redirect,
		RedirectURL: r.RedirectURL,
	}
}

type themePatchRequest struct {
	Preset          *string `json:"preset"`
	PrimaryColor    *string `json:"primaryColor"`
	BackgroundColor *string `json:"backgroundColor"`
	TextColor       *string `json:"textColor"`
	FontFamily      *string `json:"fontFamily"`
}

func (r themePatchRequest) toPatch() document.ThemePatch {
	return document.ThemePatch{
		Preset:          r.Preset,
		PrimaryColor:    r.PrimaryColor,
		BackgroundColor: r.BackgroundColor,
		TextColor:       r.TextColor,
		FontFamily:      r.FontFamily,
	}
}

type aiContextPatchRequest struct {
	Description *string `json:"description"`
	Tone        *string `json:"tone"`
	Audience    *string `json:"audience"`
}

func (r aiContextPatchRequest) toPatch() document.AIContextPatch {
	return document.AIContextPatch{
		Description: r.Description,
		Tone:        r.Tone,
		Audience:    r.Audience,
	}
}

// PreviewResponse is the wire shape of a resolved preview.
type PreviewResponse struct {
	Screen    preview.Screen `json:"screen"`
	StepIndex *int           `json:"stepIndex,omitempty"`
	Step      *models.Step   `json:"step,omitempty"`
	Visual    *models.Visual `json:"visual,omitempty"`
}

func toPreviewResponse(r preview.Resolved) PreviewResponse {
	resp := PreviewResponse{
		Screen: r.Screen,
		Step:   r.Step,
		Visual: r.Visual,
	}
	if r.Screen == preview.ScreenStep {
		idx := r.StepIndex
		resp.StepIndex = &idx
	}
	return resp
}

type generateMessageResponse struct {
	Message string `json:"message"`
}
