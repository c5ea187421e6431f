// Package service implements the conversation authoring lifecycle: session
// management, the mutation surface, debounced persistence and publishing.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"chatform-server/internal/ai"
	"chatform-server/internal/autosave"
	"chatform-server/internal/interfaces"
	"chatform-server/internal/messaging"
	"chatform-server/internal/models"
	"chatform-server/internal/publish"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EditorService is the application surface consumed by the transport layer.
type EditorService interface {
	// CreateConversation creates a draft seeded with the default document.
	CreateConversation(ctx context.Context, ownerID uuid.UUID, name string) (*models.Conversation, error)
	// ListConversations returns the owner's conversations, newest first.
	ListConversations(ctx context.Context, ownerID uuid.UUID) ([]models.Conversation, error)
	// OpenSession loads a conversation into an editing session, normalizing
	// the stored document on the way in. Reopening an already open session
	// returns the existing one.
	OpenSession(ctx context.Context, id, ownerID uuid.UUID) (*Session, error)
	// Session returns the open session for a conversation, or
	// ErrSessionNotOpen.
	Session(id, ownerID uuid.UUID) (*Session, error)
	// CloseSession flushes pending work and tears the session down.
	CloseSession(ctx context.Context, id, ownerID uuid.UUID) error
	// DeleteConversation removes a conversation and any open session on it.
	DeleteConversation(ctx context.Context, id, ownerID uuid.UUID) error
	// GetPublishedConfig returns the published snapshot served to
	// respondents, via the cache when warm.
	GetPublishedConfig(ctx context.Context, slug string) (json.RawMessage, error)
}

var _ EditorService = (*editorService)(nil)

type editorService struct {
	repo     interfaces.ConversationRepository
	cache    interfaces.PublishedCache
	events   messaging.PublishEventPublisher
	aiClient ai.Client
	debounce time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewEditorService wires the authoring service. A non-positive debounce
// falls back to the autosave default.
func NewEditorService(
	repo interfaces.ConversationRepository,
	cache interfaces.PublishedCache,
	events messaging.PublishEventPublisher,
	aiClient ai.Client,
	debounce time.Duration,
	logger *zap.Logger,
) EditorService {
	return &editorService{
		repo:     repo,
		cache:    cache,
		events:   events,
		aiClient: aiClient,
		debounce: debounce,
		logger:   logger.Named("EditorService"),
		sessions: make(map[uuid.UUID]*Session),
	}
}

func (s *editorService) CreateConversation(ctx context.Context, ownerID uuid.UUID, name string) (*models.Conversation, error) {
	now := time.Now().UTC()
	conv := &models.Conversation{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      name,
		Status:    models.StatusDraft,
		Config:    models.DefaultConfig().Serialize(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, conv); err != nil {
		return nil, err
	}
	s.logger.Info("Conversation created",
		zap.String("conversationID", conv.ID.String()),
		zap.String("ownerID", ownerID.String()))
	return conv, nil
}

func (s *editorService) ListConversations(ctx context.Context, ownerID uuid.UUID) ([]models.Conversation, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *editorService) OpenSession(ctx context.Context, id, ownerID uuid.UUID) (*Session, error) {
	s.mu.Lock()
	if sess, ok := s.sessions[id]; ok {
		s.mu.Unlock()
		if sess.ownerID != ownerID {
			return nil, models.ErrNotFound
		}
		return sess, nil
	}
	s.mu.Unlock()

	conv, err := s.repo.GetByID(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	sess := &Session{
		conversationID: conv.ID,
		ownerID:        conv.OwnerID,
		name:           conv.Name,
		slug:           conv.Slug,
		version:        conv.Version,
		current:        models.Normalize(conv.Config),
		repo:           s.repo,
		cache:          s.cache,
		events:         s.events,
		aiClient:       s.aiClient,
		logger:         s.logger.With(zap.String("conversationID", conv.ID.String())),
	}

	var published *models.ConversationConfig
	if len(conv.Published) > 0 && string(conv.Published) != "null" {
		cfg := models.Normalize(conv.Published)
		published = &cfg
	}
	sess.controller = publish.NewController(published, sess.logger)
	sess.scheduler = autosave.NewScheduler(s.debounce, sess.persist, sess.setSaveError, sess.logger)

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[id]; ok {
		// Lost the race to another open; drop ours.
		sess.scheduler.Cancel()
		return existing, nil
	}
	s.sessions[id] = sess
	s.logger.Info("Session opened", zap.String("conversationID", id.String()))
	return sess, nil
}

func (s *editorService) Session(id, ownerID uuid.UUID) (*Session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok || sess.ownerID != ownerID {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotOpen, id)
	}
	return sess, nil
}

func (s *editorService) CloseSession(ctx context.Context, id, ownerID uuid.UUID) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok && sess.ownerID == ownerID {
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	if !ok || sess.ownerID != ownerID {
		return fmt.Errorf("%w: %s", ErrSessionNotOpen, id)
	}

	if err := sess.flushAndStop(ctx); err != nil {
		s.logger.Warn("Final flush failed while closing session",
			zap.String("conversationID", id.String()), zap.Error(err))
		return err
	}
	s.logger.Info("Session closed", zap.String("conversationID", id.String()))
	return nil
}

func (s *editorService) DeleteConversation(ctx context.Context, id, ownerID uuid.UUID) error {
	s.mu.Lock()
	if sess, ok := s.sessions[id]; ok && sess.ownerID == ownerID {
		sess.scheduler.Cancel()
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	return s.repo.Delete(ctx, id, ownerID)
}

func (s *editorService) GetPublishedConfig(ctx context.Context, slug string) (json.RawMessage, error) {
	cfg, err := s.cache.GetPublishedConfig(ctx, slug)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		// Cache trouble must not take the serving path down.
		s.logger.Warn("Published config cache read failed, falling back to store",
			zap.String("slug", slug), zap.Error(err))
	}

	conv, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if len(conv.Published) == 0 || string(conv.Published) == "null" {
		return nil, models.ErrNotFound
	}

	if cacheErr := s.cache.SetPublishedConfig(ctx, slug, conv.Published, conv.Version); cacheErr != nil {
		s.logger.Warn("Failed to warm published config cache",
			zap.String("slug", slug), zap.Error(cacheErr))
	}
	return conv.Published, nil
}
