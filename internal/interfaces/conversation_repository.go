package interfaces

import (
	"context"
	"encoding/json"

	"chatform-server/internal/models"

	"github.com/google/uuid"
)

//go:generate mockery --name ConversationRepository --output ./mocks --outpkg mocks --case=underscore
type ConversationRepository interface {
	Create(ctx context.Context, conv *models.Conversation) error

	// GetByID returns a conversation scoped to its owner.
	GetByID(ctx context.Context, id, ownerID uuid.UUID) (*models.Conversation, error)

	// GetBySlug returns a conversation by its public share slug.
	GetBySlug(ctx context.Context, slug string) (*models.Conversation, error)

	// ListByOwner returns all conversations of an owner, newest first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Conversation, error)

	// UpdateConfig is the autosave write: name plus current draft config.
	UpdateConfig(ctx context.Context, id, ownerID uuid.UUID, name string, config json.RawMessage) error

	// Publish cuts the published snapshot from the given draft config in one
	// statement: assigns the slug (first publish only), bumps the version,
	// moves the status to live.
	Publish(ctx context.Context, id, ownerID uuid.UUID, slug string, version int, config, published json.RawMessage) error

	// Delete removes a conversation, scoped to its owner.
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
}

// PublishedCache is a read cache of published configs for the serving path.
type PublishedCache interface {
	SetPublishedConfig(ctx context.Context, slug string, config json.RawMessage, version int) error
	// GetPublishedConfig returns models.ErrNotFound on a cache miss.
	GetPublishedConfig(ctx context.Context, slug string) (json.RawMessage, error)
}
