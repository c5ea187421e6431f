package mocks

import (
	"context"

	"chatform-server/internal/ai"
	"chatform-server/internal/models"

	"github.com/stretchr/testify/mock"
)

// Mock ai.Client
type Client struct {
	mock.Mock
}

func (m *Client) GenerateStepMessage(ctx context.Context, req ai.StepWordingRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *Client) GenerateConversation(ctx context.Context, req ai.ConversationRequest) ([]models.Step, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Step), args.Error(1)
}
