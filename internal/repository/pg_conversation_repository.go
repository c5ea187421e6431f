// Package repository provides the Postgres-backed document store and the
// Redis published-config cache.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"chatform-server/internal/interfaces"
	"chatform-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Compile-time check
var _ interfaces.ConversationRepository = (*pgConversationRepository)(nil)

type pgConversationRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgConversationRepository creates a Postgres-backed ConversationRepository.
func NewPgConversationRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.ConversationRepository {
	return &pgConversationRepository{
		db:     db,
		logger: logger.Named("PgConversationRepo"),
	}
}

func (r *pgConversationRepository) Create(ctx context.Context, conv *models.Conversation) error {
	query := `
        INSERT INTO conversations
            (id, owner_id, name, slug, status, version, config, published_config, created_at, updated_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `
	logFields := []zap.Field{zap.String("conversationID", conv.ID.String()), zap.String("ownerID", conv.OwnerID.String())}
	r.logger.Debug("Creating conversation", logFields...)

	_, err := r.db.Exec(ctx, query,
		conv.ID,
		conv.OwnerID,
		conv.Name,
		conv.Slug,
		conv.Status,
		conv.Version,
		conv.Config,
		conv.Published,
		conv.CreatedAt,
		conv.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create conversation", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	r.logger.Info("Conversation created successfully", logFields...)
	return nil
}

func (r *pgConversationRepository) GetByID(ctx context.Context, id, ownerID uuid.UUID) (*models.Conversation, error) {
	query := `
        SELECT id, owner_id, name, slug, status, version, config, published_config, created_at, updated_at
        FROM conversations
        WHERE id = $1 AND owner_id = $2
    `
	conv := &models.Conversation{}
	logFields := []zap.Field{zap.String("conversationID", id.String()), zap.String("ownerID", ownerID.String())}
	r.logger.Debug("Getting conversation by ID", logFields...)

	err := r.db.QueryRow(ctx, query, id, ownerID).Scan(
		&conv.ID, &conv.OwnerID, &conv.Name, &conv.Slug, &conv.Status,
		&conv.Version, &conv.Config, &conv.Published, &conv.CreatedAt, &conv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("Conversation not found by ID for owner", logFields...)
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get conversation by ID", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to get conversation %s: %w", id, err)
	}
	return conv, nil
}

func (r *pgConversationRepository) GetBySlug(ctx context.Context, slug string) (*models.Conversation, error) {
	query := `
        SELECT id, owner_id, name, slug, status, version, config, published_config, created_at, updated_at
        FROM conversations
        WHERE slug = $1 AND slug <> ''
    `
	conv := &models.Conversation{}
	log := r.logger.With(zap.String("slug", slug))
	log.Debug("Getting conversation by slug")

	err := r.db.QueryRow(ctx, query, slug).Scan(
		&conv.ID, &conv.OwnerID, &conv.Name, &conv.Slug, &conv.Status,
		&conv.Version, &conv.Config, &conv.Published, &conv.CreatedAt, &conv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Warn("Conversation not found by slug")
			return nil, models.ErrNotFound
		}
		log.Error("Failed to get conversation by slug", zap.Error(err))
		return nil, fmt.Errorf("failed to get conversation by slug %q: %w", slug, err)
	}
	return conv, nil
}

func (r *pgConversationRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Conversation, error) {
	query := `
        SELECT id, owner_id, name, slug, status, version, config, published_config, created_at, updated_at
        FROM conversations
        WHERE owner_id = $1
        ORDER BY updated_at DESC
    `
	log := r.logger.With(zap.String("ownerID", ownerID.String()))
	log.Debug("Listing conversations for owner")

	conversations := make([]models.Conversation, 0)
	if err := pgxscan.Select(ctx, r.db, &conversations, query, ownerID); err != nil {
		log.Error("Failed to list conversations", zap.Error(err))
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return conversations, nil
}

func (r *pgConversationRepository) UpdateConfig(ctx context.Context, id, ownerID uuid.UUID, name string, config json.RawMessage) error {
	query := `
        UPDATE conversations SET
            name = $1, config = $2, updated_at = $3
        WHERE id = $4 AND owner_id = $5
    `
	logFields := []zap.Field{zap.String("conversationID", id.String()), zap.String("ownerID", ownerID.String())}
	r.logger.Debug("Updating conversation config", logFields...)

	commandTag, err := r.db.Exec(ctx, query, name, config, time.Now().UTC(), id, ownerID)
	if err != nil {
		r.logger.Error("Failed to update conversation config", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to update conversation %s: %w", id, err)
	}
	if commandTag.RowsAffected() == 0 {
		r.logger.Warn("Attempted to update non-existent or unauthorized conversation", logFields...)
		return models.ErrNotFound
	}
	return nil
}

func (r *pgConversationRepository) Publish(ctx context.Context, id, ownerID uuid.UUID, slug string, version int, config, published json.RawMessage) error {
	query := `
        UPDATE conversations SET
            slug = $1, status = $2, version = $3, config = $4, published_config = $5, updated_at = $6
        WHERE id = $7 AND owner_id = $8
    `
	logFields := []zap.Field{
		zap.String("conversationID", id.String()),
		zap.String("slug", slug),
		zap.Int("version", version),
	}
	r.logger.Debug("Publishing conversation", logFields...)

	commandTag, err := r.db.Exec(ctx, query, slug, models.StatusLive, version, config, published, time.Now().UTC(), id, ownerID)
	if err != nil {
		r.logger.Error("Failed to publish conversation", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to publish conversation %s: %w", id, err)
	}
	if commandTag.RowsAffected() == 0 {
		r.logger.Warn("Attempted to publish non-existent or unauthorized conversation", logFields...)
		return models.ErrNotFound
	}
	r.logger.Info("Conversation published successfully", logFields...)
	return nil
}

func (r *pgConversationRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	query := `DELETE FROM conversations WHERE id = $1 AND owner_id = $2`
	logFields := []zap.Field{zap.String("conversationID", id.String()), zap.String("ownerID", ownerID.String())}

	commandTag, err := r.db.Exec(ctx, query, id, ownerID)
	if err != nil {
		r.logger.Error("Failed to delete conversation", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to delete conversation %s: %w", id, err)
	}
	if commandTag.RowsAffected() == 0 {
		r.logger.Warn("Attempted to delete non-existent or unauthorized conversation", logFields...)
		return models.ErrNotFound
	}
	r.logger.Info("Conversation deleted successfully", logFields...)
	return nil
}
