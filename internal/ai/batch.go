package ai

import (
	"context"

	"chatform-server/internal/document"
	"chatform-server/internal/models"
	"chatform-server/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BatchResult counts the per-step outcomes of a best-effort wording batch.
type BatchResult struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// GenerateAllMessages words every step that lacks respondent-facing wording.
// The batch is best-effort: a failing step is skipped and the batch carries
// on, so a full document always comes back even when some steps end up
// without AI wording. The result reports how many steps succeeded and how
// many failed.
func GenerateAllMessages(ctx context.Context, client Client, cfg models.ConversationConfig, logger *zap.Logger) (models.ConversationConfig, BatchResult) {
	journey := make([]string, len(cfg.Steps))
	for i, s := range cfg.Steps {
		journey[i] = s.Label
	}

	out := document.Clone(cfg)
	var result BatchResult
	for i := range out.Steps {
		step := &out.Steps[i]
		if step.Message != "" || step.Label == "" {
			continue
		}

		message, err := client.GenerateStepMessage(ctx, StepWordingRequest{
			Description:  cfg.AIContext.Description,
			Tone:         cfg.AIContext.Tone,
			Audience:     cfg.AIContext.Audience,
			JourneyItems: journey,
			CurrentItem:  step.Label,
		})
		if err != nil {
			result.Failed++
			logger.Warn("Step wording failed, continuing batch",
				zap.String("stepID", step.ID),
				zap.Error(err))
			continue
		}
		step.Message = message
		result.Succeeded++
	}
	return out, result
}

func newOption(label string) models.Option {
	return models.Option{ID: uuid.NewString(), Label: label, Value: utils.Slugify(label)}
}
