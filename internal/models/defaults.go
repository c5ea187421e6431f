package models

// DefaultConfig returns the fixed shape a brand-new conversation starts with:
// no steps, welcome and end screens enabled, default theme, friendly tone.
// Every field the equality check looks at is backfilled here so that a fresh
// document and a normalized empty document compare equal.
func DefaultConfig() ConversationConfig {
	return ConversationConfig{
		Steps: []Step{},
		Welcome: WelcomeScreen{
			Enabled:     true,
			Title:       "Hi there",
			Message:     "This will only take a couple of minutes.",
			ButtonLabel: "Start",
		},
		End: EndScreen{
			Enabled: true,
			Message: "Thanks, that's everything we needed.",
		},
		Theme:            DefaultTheme(),
		AIContext:        AIContext{Tone: ToneFriendly},
		BrandDescription: "",
		AITrainingNotes:  "",
	}
}

// DefaultTheme returns the default style tokens.
func DefaultTheme() Theme {
	return Theme{
		Preset:          "default",
		PrimaryColor:    "#2563eb",
		BackgroundColor: "#ffffff",
		TextColor:       "#111827",
		FontFamily:      "Inter",
	}
}
