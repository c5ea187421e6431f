package document

import "chatform-server/internal/models"

// DocumentPatch updates top-level document fields. Nil fields are untouched.
// Fallback uses a double pointer so callers can distinguish "leave as is"
// (nil) from "clear the fallback" (pointer to nil).
type DocumentPatch struct {
	BrandDescription *string
	AITrainingNotes  *string
	Fallback         **models.Visual
}

// PatchDocument merges a top-level patch over the config.
func PatchDocument(cfg models.ConversationConfig, patch DocumentPatch) models.ConversationConfig {
	out := Clone(cfg)
	if patch.BrandDescription != nil {
		out.BrandDescription = *patch.BrandDescription
	}
	if patch.AITrainingNotes != nil {
		out.AITrainingNotes = *patch.AITrainingNotes
	}
	if patch.Fallback != nil {
		if *patch.Fallback == nil {
			out.Fallback = nil
		} else {
			v := **patch.Fallback
			out.Fallback = &v
		}
	}
	return out
}

// WelcomePatch is a partial update of the welcome screen.
type WelcomePatch struct {
	Enabled     *bool
	Title       *string
	Message     *string
	ButtonLabel *string
}

// PatchWelcome merges a patch over the welcome screen.
func PatchWelcome(cfg models.ConversationConfig, patch WelcomePatch) models.ConversationConfig {
	out := Clone(cfg)
	if patch.Enabled != nil {
		out.Welcome.Enabled = *patch.Enabled
	}
	if patch.Title != nil {
		out.Welcome.Title = *patch.Title
	}
	if patch.Message != nil {
		out.Welcome.Message = *patch.Message
	}
	if patch.ButtonLabel != nil {
		out.Welcome.ButtonLabel = *patch.ButtonLabel
	}
	return out
}

// EndPatch is a partial update of the end screen.
type EndPatch struct {
	Enabled     *bool
	Message     *string
	CTAText     *string
	CTAURL      *string
	Redirect    *bool
	RedirectURL *string
}

// PatchEnd merges a patch over the end screen.
func PatchEnd(cfg models.ConversationConfig, patch EndPatch) models.ConversationConfig {
	out := Clone(cfg)
	if patch.Enabled != nil {
		out.End.Enabled = *patch.Enabled
	}
	if patch.Message != nil {
		out.End.Message = *patch.Message
	}
	if patch.CTAText != nil {
		out.End.CTAText = *patch.CTAText
	}
	if patch.CTAURL != nil {
		out.End.CTAURL = *patch.CTAURL
	}
	if patch.Redirect != nil {
		out.End.Redirect = *patch.Redirect
	}
	if patch.RedirectURL != nil {
		out.End.RedirectURL = *patch.RedirectURL
	}
	return out
}

// ThemePatch is a partial update of the theme tokens.
type ThemePatch struct {
	Preset          *string
	PrimaryColor    *string
	BackgroundColor *string
	TextColor       *string
	FontFamily      *string
}

// PatchTheme merges a patch over the theme.
func PatchTheme(cfg models.ConversationConfig, patch ThemePatch) models.ConversationConfig {
	out := Clone(cfg)
	if patch.Preset != nil {
		out.Theme.Preset = *patch.Preset
	}
	if patch.PrimaryColor != nil {
		out.Theme.PrimaryColor = *patch.PrimaryColor
	}
	if patch.BackgroundColor != nil {
		out.Theme.BackgroundColor = *patch.BackgroundColor
	}
	if patch.TextColor != nil {
		out.Theme.TextColor = *patch.TextColor
	}
	if patch.FontFamily != nil {
		out.Theme.FontFamily = *patch.FontFamily
	}
	return out
}

// AIContextPatch is a partial update of the AI authoring context.
type AIContextPatch struct {
	Description *string
	Tone        *string
	Audience    *string
}

// PatchAIContext merges a patch over the AI context. The description is
// capped at models.MaxAIContextDescription.
func PatchAIContext(cfg models.ConversationConfig, patch AIContextPatch) models.ConversationConfig {
	out := Clone(cfg)
	if patch.Description != nil {
		desc := *patch.Description
		if len(desc) > models.MaxAIContextDescription {
			desc = desc[:models.MaxAIContextDescription]
		}
		out.AIContext.Description = desc
	}
	if patch.Tone != nil {
		out.AIContext.Tone = *patch.Tone
	}
	if patch.Audience != nil {
		out.AIContext.Audience = *patch.Audience
	}
	return out
}
