package mocks

import (
	"context"

	"chatform-server/internal/models"

	"github.com/stretchr/testify/mock"
)

// Mock PublishEventPublisher
type PublishEventPublisher struct {
	mock.Mock
}

func (m *PublishEventPublisher) PublishConversationPublished(ctx context.Context, payload models.ConversationPublishedEvent) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}
