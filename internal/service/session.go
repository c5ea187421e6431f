package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"chatform-server/internal/ai"
	"chatform-server/internal/autosave"
	"chatform-server/internal/document"
	"chatform-server/internal/interfaces"
	"chatform-server/internal/messaging"
	"chatform-server/internal/models"
	"chatform-server/internal/preview"
	"chatform-server/internal/publish"
	"chatform-server/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session is the single-writer in-memory editing session of one conversation.
// All mutations go through it: each one produces a new document snapshot,
// bumps the revision and schedules a debounced autosave. The in-memory
// document stays authoritative even when a save fails.
type Session struct {
	mu sync.Mutex

	conversationID uuid.UUID
	ownerID        uuid.UUID
	name           string
	slug           string
	version        int

	current  models.ConversationConfig
	revision int64

	target         models.PreviewTarget
	settingsStepID string

	scheduler   *autosave.Scheduler
	controller  *publish.Controller
	lastSaveErr error

	repo     interfaces.ConversationRepository
	cache    interfaces.PublishedCache
	events   messaging.PublishEventPublisher
	aiClient ai.Client
	logger   *zap.Logger
}

// SessionState is the read model handed to the transport layer.
type SessionState struct {
	ID            uuid.UUID                 `json:"id"`
	Name          string                    `json:"name"`
	Slug          string                    `json:"slug,omitempty"`
	State         publish.State             `json:"state"`
	Dirty         bool                      `json:"dirty"`
	Version       int                       `json:"version"`
	Revision      int64                     `json:"revision"`
	Config        models.ConversationConfig `json:"config"`
	PreviewTarget models.PreviewTarget      `json:"previewTarget"`
	SettingsStep  string                    `json:"settingsStepId,omitempty"`
	LastSaveError string                    `json:"lastSaveError,omitempty"`
}

// State returns a consistent snapshot of the session.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() SessionState {
	st := SessionState{
		ID:            s.conversationID,
		Name:          s.name,
		Slug:          s.slug,
		State:         s.controller.State(s.current),
		Dirty:         s.controller.Dirty(s.current),
		Version:       s.version,
		Revision:      s.revision,
		Config:        document.Clone(s.current),
		PreviewTarget: s.target,
		SettingsStep:  s.settingsStepID,
	}
	if s.lastSaveErr != nil {
		st.LastSaveError = s.lastSaveErr.Error()
	}
	return st
}

// markChanged commits cfg as the new current document and schedules an
// autosave. Callers hold s.mu.
func (s *Session) markChanged(cfg models.ConversationConfig) {
	s.current = cfg
	s.revision++
	s.lastSaveErr = nil
	s.scheduler.Schedule(s.name, cfg)
}

// setSaveError records an autosave failure for surfacing in the state. Runs
// on the scheduler's timer goroutine.
func (s *Session) setSaveError(err error) {
	s.mu.Lock()
	s.lastSaveErr = err
	s.mu.Unlock()
}

// persist is the scheduler's save function.
func (s *Session) persist(ctx context.Context, name string, cfg models.ConversationConfig) error {
	return s.repo.UpdateConfig(ctx, s.conversationID, s.ownerID, name, cfg.Serialize())
}

// Rename changes the conversation name. The name travels with every autosave.
func (s *Session) Rename(name string) SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name != s.name {
		s.name = name
		s.revision++
		s.scheduler.Schedule(s.name, s.current)
	}
	return s.stateLocked()
}

// AddStep appends a new step of the given type to the end of the journey.
func (s *Session) AddStep(stepType models.StepType, label string) (models.Step, error) {
	if !models.IsValidStepType(stepType) {
		return models.Step{}, fmt.Errorf("%w: %q", ErrInvalidStepType, stepType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, step := document.AppendStep(s.current, document.NewStep(stepType, label))
	s.markChanged(cfg)
	return step, nil
}

// UpdateStep applies a partial patch to one step.
func (s *Session) UpdateStep(stepID string, patch document.StepPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := document.UpdateStep(s.current, stepID, patch)
	if !ok {
		return fmt.Errorf("%w: %s", ErrStepNotFound, stepID)
	}
	s.markChanged(cfg)
	return nil
}

// DuplicateStep copies a step to the end of the journey. The copy carries no
// respondent-facing message and a suffixed key.
func (s *Session) DuplicateStep(stepID string) (models.Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, dup, ok := document.DuplicateStep(s.current, stepID)
	if !ok {
		return models.Step{}, fmt.Errorf("%w: %s", ErrStepNotFound, stepID)
	}
	s.markChanged(cfg)
	return dup, nil
}

// DeleteStep removes a step. The settings panel is closed when it was showing
// the deleted step; a preview target pointing past the end degrades at
// resolve time instead of being rewritten here.
func (s *Session) DeleteStep(stepID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := document.DeleteStep(s.current, stepID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrStepNotFound, stepID)
	}
	if s.settingsStepID == stepID {
		s.settingsStepID = ""
	}
	s.markChanged(cfg)
	return nil
}

// ReorderStep moves the step at position from to position to. from == to and
// out-of-range positions are no-ops that schedule no save.
func (s *Session) ReorderStep(from, to int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := document.ReorderStep(s.current, from, to)
	if !ok {
		return
	}
	s.markChanged(cfg)
}

// AddOption appends an option to a choice step.
func (s *Session) AddOption(stepID, label string) (models.Option, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, opt, ok := document.AddOption(s.current, stepID, label)
	if !ok {
		return models.Option{}, fmt.Errorf("%w: %s", ErrStepNotFound, stepID)
	}
	s.markChanged(cfg)
	return opt, nil
}

// UpdateOption patches one option of a step.
func (s *Session) UpdateOption(stepID, optionID string, patch document.OptionPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := document.UpdateOption(s.current, stepID, optionID, patch)
	if !ok {
		if i := indexOfStep(s.current.Steps, stepID); i < 0 {
			return fmt.Errorf("%w: %s", ErrStepNotFound, stepID)
		}
		return fmt.Errorf("%w: %s", ErrOptionNotFound, optionID)
	}
	s.markChanged(cfg)
	return nil
}

// RemoveOption deletes one option from a step.
func (s *Session) RemoveOption(stepID, optionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := document.RemoveOption(s.current, stepID, optionID)
	if !ok {
		if i := indexOfStep(s.current.Steps, stepID); i < 0 {
			return fmt.Errorf("%w: %s", ErrStepNotFound, stepID)
		}
		return fmt.Errorf("%w: %s", ErrOptionNotFound, optionID)
	}
	s.markChanged(cfg)
	return nil
}

// PatchDocument updates top-level document fields.
func (s *Session) PatchDocument(patch document.DocumentPatch) SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markChanged(document.PatchDocument(s.current, patch))
	return s.stateLocked()
}

// PatchWelcome updates the welcome screen.
func (s *Session) PatchWelcome(patch document.WelcomePatch) SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markChanged(document.PatchWelcome(s.current, patch))
	return s.stateLocked()
}

// PatchEnd updates the end screen.
func (s *Session) PatchEnd(patch document.EndPatch) SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markChanged(document.PatchEnd(s.current, patch))
	return s.stateLocked()
}

// PatchTheme updates the theme tokens.
func (s *Session) PatchTheme(patch document.ThemePatch) SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markChanged(document.PatchTheme(s.current, patch))
	return s.stateLocked()
}

// PatchAIContext updates the AI authoring context.
func (s *Session) PatchAIContext(patch document.AIContextPatch) SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markChanged(document.PatchAIContext(s.current, patch))
	return s.stateLocked()
}

// SetPreviewTarget moves the author's focus. Pure UI state, never persisted.
func (s *Session) SetPreviewTarget(target models.PreviewTarget) preview.Resolved {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = target
	return preview.Resolve(s.current, s.target)
}

// Preview resolves the current focus into a render instruction.
func (s *Session) Preview() preview.Resolved {
	s.mu.Lock()
	defer s.mu.Unlock()
	return preview.Resolve(s.current, s.target)
}

// OpenStepSettings opens the settings panel for a step.
func (s *Session) OpenStepSettings(stepID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if indexOfStep(s.current.Steps, stepID) < 0 {
		return fmt.Errorf("%w: %s", ErrStepNotFound, stepID)
	}
	s.settingsStepID = stepID
	return nil
}

// CloseStepSettings closes the settings panel.
func (s *Session) CloseStepSettings() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settingsStepID = ""
}

// Publish snapshots the current draft and makes it live. Any pending
// autosave is flushed first so the store never holds a draft newer than the
// snapshot being published. The slug is assigned on the first publish and
// stable afterwards; the version increments on every successful publish.
// Edits arriving while the publish is awaited are not lost: the state comes
// out as edited because the draft then differs from the new snapshot.
func (s *Session) Publish(ctx context.Context) (SessionState, error) {
	s.mu.Lock()
	if err := s.controller.Begin(s.current); err != nil {
		st := s.stateLocked()
		s.mu.Unlock()
		return st, err
	}
	snapshot := document.Clone(s.current)
	slug := s.slug
	if slug == "" {
		slug = newSlug(s.name)
	}
	version := s.version + 1
	s.mu.Unlock()

	if err := s.scheduler.Flush(ctx); err != nil {
		s.mu.Lock()
		s.controller.Fail()
		st := s.stateLocked()
		s.mu.Unlock()
		return st, fmt.Errorf("failed to flush draft before publish: %w", err)
	}

	published := snapshot.Serialize()
	err := s.repo.Publish(ctx, s.conversationID, s.ownerID, slug, version, published, published)

	s.mu.Lock()
	if err != nil {
		s.controller.Fail()
		st := s.stateLocked()
		s.mu.Unlock()
		return st, fmt.Errorf("failed to publish conversation: %w", err)
	}
	s.controller.Complete(snapshot)
	s.slug = slug
	s.version = version
	st := s.stateLocked()
	s.mu.Unlock()

	// Cache and event fan-out are best-effort: the publish already succeeded.
	if cacheErr := s.cache.SetPublishedConfig(ctx, slug, published, version); cacheErr != nil {
		s.logger.Warn("Failed to cache published config", zap.String("slug", slug), zap.Error(cacheErr))
	}
	if evErr := s.events.PublishConversationPublished(ctx, models.ConversationPublishedEvent{
		ID:      s.conversationID,
		Slug:    slug,
		Version: version,
	}); evErr != nil {
		s.logger.Warn("Failed to publish lifecycle event", zap.String("slug", slug), zap.Error(evErr))
	}

	return st, nil
}

// GenerateStepMessage words a single step via the AI collaborator and stores
// the result as the step's message.
func (s *Session) GenerateStepMessage(ctx context.Context, stepID string) (string, error) {
	s.mu.Lock()
	i := indexOfStep(s.current.Steps, stepID)
	if i < 0 {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrStepNotFound, stepID)
	}
	req := ai.StepWordingRequest{
		Description:  s.current.AIContext.Description,
		Tone:         s.current.AIContext.Tone,
		Audience:     s.current.AIContext.Audience,
		JourneyItems: stepLabels(s.current.Steps),
		CurrentItem:  s.current.Steps[i].Label,
	}
	s.mu.Unlock()

	message, err := s.aiClient.GenerateStepMessage(ctx, req)
	if err != nil {
		return "", err
	}

	// The step may have moved or vanished while the request was in flight.
	if err := s.UpdateStep(stepID, document.StepPatch{Message: &message}); err != nil {
		return "", err
	}
	return message, nil
}

// GenerateAllMessages words every step that has no message yet. Best-effort:
// failing steps are skipped and counted.
func (s *Session) GenerateAllMessages(ctx context.Context) (ai.BatchResult, error) {
	s.mu.Lock()
	snapshot := document.Clone(s.current)
	base := s.revision
	s.mu.Unlock()

	cfg, result := ai.GenerateAllMessages(ctx, s.aiClient, snapshot, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revision != base {
		// The document moved under the batch; dropping the result beats
		// clobbering newer edits.
		s.logger.Warn("Discarding wording batch, document changed during generation",
			zap.Int64("baseRevision", base), zap.Int64("currentRevision", s.revision))
		return result, nil
	}
	if result.Succeeded > 0 {
		s.markChanged(cfg)
	}
	return result, nil
}

// GenerateFromContext drafts a whole journey from the AI context description
// and replaces the current step list with it. Screens, theme and context are
// kept.
func (s *Session) GenerateFromContext(ctx context.Context) (SessionState, error) {
	s.mu.Lock()
	if strings.TrimSpace(s.current.AIContext.Description) == "" {
		st := s.stateLocked()
		s.mu.Unlock()
		return st, ErrAIContextRequired
	}
	req := ai.ConversationRequest{
		Context:  s.current.AIContext.Description,
		Tone:     s.current.AIContext.Tone,
		Audience: s.current.AIContext.Audience,
	}
	s.mu.Unlock()

	steps, err := s.aiClient.GenerateConversation(ctx, req)
	if err != nil {
		return s.State(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := document.Clone(s.current)
	cfg.Steps = steps
	s.markChanged(cfg)
	return s.stateLocked(), nil
}

// flushAndStop persists any pending save and shuts the scheduler down.
func (s *Session) flushAndStop(ctx context.Context) error {
	err := s.scheduler.Flush(ctx)
	s.scheduler.Cancel()
	return err
}

func indexOfStep(steps []models.Step, id string) int {
	for i := range steps {
		if steps[i].ID == id {
			return i
		}
	}
	return -1
}

func stepLabels(steps []models.Step) []string {
	labels := make([]string, len(steps))
	for i, s := range steps {
		labels[i] = s.Label
	}
	return labels
}

// newSlug derives the public share slug from the conversation name plus a
// short random suffix, avoiding a uniqueness retry loop against the store.
func newSlug(name string) string {
	base := utils.URLSlug(name)
	if base == "" {
		base = "conversation"
	}
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return base + "-" + suffix
}
