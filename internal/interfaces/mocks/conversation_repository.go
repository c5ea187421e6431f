package mocks

import (
	"context"
	"encoding/json"

	"chatform-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock ConversationRepository
type ConversationRepository struct {
	mock.Mock
}

func (m *ConversationRepository) Create(ctx context.Context, conv *models.Conversation) error {
	args := m.Called(ctx, conv)
	return args.Error(0)
}

func (m *ConversationRepository) GetByID(ctx context.Context, id, ownerID uuid.UUID) (*models.Conversation, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *ConversationRepository) GetBySlug(ctx context.Context, slug string) (*models.Conversation, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *ConversationRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Conversation, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Conversation), args.Error(1)
}

func (m *ConversationRepository) UpdateConfig(ctx context.Context, id, ownerID uuid.UUID, name string, config json.RawMessage) error {
	args := m.Called(ctx, id, ownerID, name, config)
	return args.Error(0)
}

func (m *ConversationRepository) Publish(ctx context.Context, id, ownerID uuid.UUID, slug string, version int, config, published json.RawMessage) error {
	args := m.Called(ctx, id, ownerID, slug, version, config, published)
	return args.Error(0)
}

func (m *ConversationRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

// Mock PublishedCache
type PublishedCache struct {
	mock.Mock
}

func (m *PublishedCache) SetPublishedConfig(ctx context.Context, slug string, config json.RawMessage, version int) error {
	args := m.Called(ctx, slug, config, version)
	return args.Error(0)
}

func (m *PublishedCache) GetPublishedConfig(ctx context.Context, slug string) (json.RawMessage, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}
