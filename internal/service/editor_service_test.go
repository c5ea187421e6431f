package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"chatform-server/internal/ai"
	aimocks "chatform-server/internal/ai/mocks"
	"chatform-server/internal/document"
	repoMocks "chatform-server/internal/interfaces/mocks"
	messagingMocks "chatform-server/internal/messaging/mocks"
	"chatform-server/internal/models"
	"chatform-server/internal/publish"
	"chatform-server/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testDebounce = 25 * time.Millisecond

type fixture struct {
	repo    *repoMocks.ConversationRepository
	cache   *repoMocks.PublishedCache
	events  *messagingMocks.PublishEventPublisher
	ai      *aimocks.Client
	service service.EditorService
}

func newFixture() *fixture {
	f := &fixture{
		repo:   new(repoMocks.ConversationRepository),
		cache:  new(repoMocks.PublishedCache),
		events: new(messagingMocks.PublishEventPublisher),
		ai:     new(aimocks.Client),
	}
	f.service = service.NewEditorService(f.repo, f.cache, f.events, f.ai, testDebounce, zap.NewNop())
	return f
}

func storedConversation(id, owner uuid.UUID) *models.Conversation {
	now := time.Now().UTC()
	return &models.Conversation{
		ID:        id,
		OwnerID:   owner,
		Name:      "Travel form",
		Status:    models.StatusDraft,
		Config:    models.DefaultConfig().Serialize(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func waitForAutosave() {
	time.Sleep(4 * testDebounce)
}

func TestCreateConversation(t *testing.T) {
	f := newFixture()
	owner := uuid.New()
	ctx := context.Background()

	f.repo.On("Create", ctx, mock.MatchedBy(func(conv *models.Conversation) bool {
		assert.Equal(t, owner, conv.OwnerID)
		assert.Equal(t, "Feedback", conv.Name)
		assert.Equal(t, models.StatusDraft, conv.Status)
		assert.Empty(t, conv.Slug, "slugs are assigned on first publish")
		assert.True(t, models.Equal(models.DefaultConfig(), models.Normalize(conv.Config)))
		return true
	})).Return(nil).Once()

	conv, err := f.service.CreateConversation(ctx, owner, "Feedback")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, conv.ID)
	f.repo.AssertExpectations(t)
}

func TestOpenSessionNormalizesAndReuses(t *testing.T) {
	f := newFixture()
	id, owner := uuid.New(), uuid.New()
	ctx := context.Background()

	stored := storedConversation(id, owner)
	stored.Config = json.RawMessage(`{"steps": [{"type": "dropdown", "title": "Team", "options": ["A", "B"]}]}`)
	f.repo.On("GetByID", ctx, id, owner).Return(stored, nil).Once()

	sess, err := f.service.OpenSession(ctx, id, owner)
	require.NoError(t, err)

	state := sess.State()
	require.Len(t, state.Config.Steps, 1)
	assert.Equal(t, models.StepTypeSingleChoice, state.Config.Steps[0].Type, "stored documents are normalized on load")
	assert.Equal(t, publish.StateDraft, state.State)
	assert.False(t, state.Dirty)

	// Reopening returns the same session without touching the store.
	again, err := f.service.OpenSession(ctx, id, owner)
	require.NoError(t, err)
	assert.Same(t, sess, again)
	f.repo.AssertExpectations(t)
}

func TestSessionRequiresMatchingOwner(t *testing.T) {
	f := newFixture()
	id, owner := uuid.New(), uuid.New()
	ctx := context.Background()

	f.repo.On("GetByID", ctx, id, owner).Return(storedConversation(id, owner), nil).Once()
	_, err := f.service.OpenSession(ctx, id, owner)
	require.NoError(t, err)

	_, err = f.service.Session(id, uuid.New())
	assert.ErrorIs(t, err, service.ErrSessionNotOpen)
}

func TestMutationsDebounceIntoOneSave(t *testing.T) {
	f := newFixture()
	id, owner := uuid.New(), uuid.New()
	ctx := context.Background()

	f.repo.On("GetByID", ctx, id, owner).Return(storedConversation(id, owner), nil).Once()
	f.repo.On("UpdateConfig", mock.Anything, id, owner, "Travel form", mock.Anything).Return(nil).Once()

	sess, err := f.service.OpenSession(ctx, id, owner)
	require.NoError(t, err)

	step, err := sess.AddStep(models.StepTypeShortText, "Destination")
	require.NoError(t, err)
	label := "Where to?"
	require.NoError(t, sess.UpdateStep(step.ID, document.StepPatch{Label: &label}))
	_, err = sess.AddStep(models.StepTypeEmail, "Email")
	require.NoError(t, err)

	waitForAutosave()
	f.repo.AssertExpectations(t)

	state := sess.State()
	assert.Empty(t, state.LastSaveError)
	require.Len(t, state.Config.Steps, 2)
	assert.Equal(t, "where_to", state.Config.Steps[0].Key)
}

func TestNoopReorderSchedulesNoSave(t *testing.T) {
	f := newFixture()
	id, owner := uuid.New(), uuid.New()
	ctx := context.Background()

	stored := storedConversation(id, owner)
	stored.Config = json.RawMessage(`{"steps": [
		{"type": "short_text", "label": "A"},
		{"type": "short_text", "label": "B"}
	]}`)
	f.repo.On("GetByID", ctx, id, owner).Return(stored, nil).Once()

	sess, err := f.service.OpenSession(ctx, id, owner)
	require.NoError(t, err)

	sess.ReorderStep(1, 1)
	sess.ReorderStep(0, 9)

	waitForAutosave()
	f.repo.AssertNotCalled(t, "UpdateConfig", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFailedAutosaveSurfacesAndKeepsLocalState(t *testing.T) {
	f := newFixture()
	id, owner := uuid.New(), uuid.New()
	ctx := context.Background()

	f.repo.On("GetByID", ctx, id, owner).Return(storedConversation(id, owner), nil).Once()
	f.repo.On("UpdateConfig", mock.Anything, id, owner, mock.Anything, mock.Anything).
		Return(errors.New("connection refused")).Once()

	sess, err := f.service.OpenSession(ctx, id, owner)
	require.NoError(t, err)

	_, err = sess.AddStep(models.StepTypeShortText, "Name")
	require.NoError(t, err)
	waitForAutosave()

	state := sess.State()
	assert.Contains(t, state.LastSaveError, "connection refused")
	assert.Len(t, state.Config.Steps, 1, "the in-memory document stays authoritative")
}

func TestPublishLifecycle(t *testing.T) {
	f := newFixture()
	id, owner := uuid.New(), uuid.New()
	ctx := context.Background()

	f.repo.On("GetByID", ctx, id, owner).Return(storedConversation(id, owner), nil).Once()
	f.repo.On("UpdateConfig", mock.Anything, id, owner, mock.Anything, mock.Anything).Return(nil)

	sess, err := f.service.OpenSession(ctx, id, owner)
	require.NoError(t, err)
	_, err = sess.AddStep(models.StepTypeShortText, "Name")
	require.NoError(t, err)

	var publishedSlug string
	f.repo.On("Publish", mock.Anything, id, owner, mock.AnythingOfType("string"), 1, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { publishedSlug = args.String(3) }).
		Return(nil).Once()
	f.cache.On("SetPublishedConfig", mock.Anything, mock.AnythingOfType("string"), mock.Anything, 1).Return(nil).Once()
	f.events.On("PublishConversationPublished", mock.Anything, mock.MatchedBy(func(ev models.ConversationPublishedEvent) bool {
		return ev.ID == id && ev.Version == 1 && ev.Slug != ""
	})).Return(nil).Once()

	state, err := sess.Publish(ctx)
	require.NoError(t, err)
	assert.Equal(t, publish.StateLive, state.State)
	assert.False(t, state.Dirty)
	assert.Equal(t, 1, state.Version)
	assert.Equal(t, publishedSlug, state.Slug)
	assert.Contains(t, publishedSlug, "travel-form", "the slug derives from the name")

	// Unchanged live draft: nothing to publish.
	_, err = sess.Publish(ctx)
	assert.ErrorIs(t, err, publish.ErrNothingToPublish)

	// Edit, publish again: version bumps, slug is stable.
	_, err = sess.AddStep(models.StepTypeEmail, "Email")
	require.NoError(t, err)
	assert.Equal(t, publish.StateEdited, sess.State().State)

	f.repo.On("Publish", mock.Anything, id, owner, publishedSlug, 2, mock.Anything, mock.Anything).Return(nil).Once()
	f.cache.On("SetPublishedConfig", mock.Anything, publishedSlug, mock.Anything, 2).Return(nil).Once()
	f.events.On("PublishConversationPublished", mock.Anything, mock.Anything).Return(nil).Once()

	state, err = sess.Publish(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, state.Version)
	assert.Equal(t, publishedSlug, state.Slug)

	f.repo.AssertExpectations(t)
	f.events.AssertExpectations(t)
}

func TestPublishFailureKeepsDirtyState(t *testing.T) {
	f := newFixture()
	id, owner := uuid.New(), uuid.New()
	ctx := context.Background()

	f.repo.On("GetByID", ctx, id, owner).Return(storedConversation(id, owner), nil).Once()
	f.repo.On("UpdateConfig", mock.Anything, id, owner, mock.Anything, mock.Anything).Return(nil)
	f.repo.On("Publish", mock.Anything, id, owner, mock.Anything, 1, mock.Anything, mock.Anything).
		Return(errors.New("db down")).Once()

	sess, err := f.service.OpenSession(ctx, id, owner)
	require.NoError(t, err)
	_, err = sess.AddStep(models.StepTypeShortText, "Name")
	require.NoError(t, err)

	state, err := sess.Publish(ctx)
	require.Error(t, err)
	assert.Equal(t, publish.StateDraft, state.State, "a failed first publish leaves the conversation a draft")
	assert.Equal(t, 0, state.Version)
	assert.Empty(t, state.Slug)

	// The publish can be retried.
	f.repo.On("Publish", mock.Anything, id, owner, mock.Anything, 1, mock.Anything, mock.Anything).Return(nil).Once()
	f.cache.On("SetPublishedConfig", mock.Anything, mock.Anything, mock.Anything, 1).Return(nil).Once()
	f.events.On("PublishConversationPublished", mock.Anything, mock.Anything).Return(nil).Once()

	state, err = sess.Publish(ctx)
	require.NoError(t, err)
	assert.Equal(t, publish.StateLive, state.State)
}

func TestDeleteStepClosesItsSettingsPanel(t *testing.T) {
	f := newFixture()
	id, owner := uuid.New(), uuid.New()
	ctx := context.Background()

	f.repo.On("GetByID", ctx, id, owner).Return(storedConversation(id, owner), nil).Once()
	f.repo.On("UpdateConfig", mock.Anything, id, owner, mock.Anything, mock.Anything).Return(nil)

	sess, err := f.service.OpenSession(ctx, id, owner)
	require.NoError(t, err)

	step, err := sess.AddStep(models.StepTypeShortText, "Name")
	require.NoError(t, err)
	require.NoError(t, sess.OpenStepSettings(step.ID))
	assert.Equal(t, step.ID, sess.State().SettingsStep)

	require.NoError(t, sess.DeleteStep(step.ID))
	assert.Empty(t, sess.State().SettingsStep)
}

func TestGenerateStepMessageStoresWording(t *testing.T) {
	f := newFixture()
	id, owner := uuid.New(), uuid.New()
	ctx := context.Background()

	f.repo.On("GetByID", ctx, id, owner).Return(storedConversation(id, owner), nil).Once()
	f.repo.On("UpdateConfig", mock.Anything, id, owner, mock.Anything, mock.Anything).Return(nil)

	sess, err := f.service.OpenSession(ctx, id, owner)
	require.NoError(t, err)
	step, err := sess.AddStep(models.StepTypeShortText, "Destination")
	require.NoError(t, err)

	f.ai.On("GenerateStepMessage", mock.Anything, mock.MatchedBy(func(req ai.StepWordingRequest) bool {
		return req.CurrentItem == "Destination"
	})).Return("Where would you like to go?", nil).Once()

	message, err := sess.GenerateStepMessage(ctx, step.ID)
	require.NoError(t, err)
	assert.Equal(t, "Where would you like to go?", message)

	state := sess.State()
	assert.Equal(t, message, state.Config.Steps[0].Message)

	_, err = sess.GenerateStepMessage(ctx, "missing")
	assert.ErrorIs(t, err, service.ErrStepNotFound)
}

func TestGetPublishedConfig(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	cfgJSON := json.RawMessage(`{"steps": []}`)

	t.Run("cache hit", func(t *testing.T) {
		f.cache.On("GetPublishedConfig", ctx, "warm-slug").Return(cfgJSON, nil).Once()
		got, err := f.service.GetPublishedConfig(ctx, "warm-slug")
		require.NoError(t, err)
		assert.Equal(t, cfgJSON, got)
		f.repo.AssertNotCalled(t, "GetBySlug", mock.Anything, mock.Anything)
	})

	t.Run("cache miss falls back to the store and warms the cache", func(t *testing.T) {
		conv := storedConversation(uuid.New(), uuid.New())
		conv.Slug = "cold-slug"
		conv.Version = 3
		conv.Published = cfgJSON

		f.cache.On("GetPublishedConfig", ctx, "cold-slug").Return(nil, models.ErrNotFound).Once()
		f.repo.On("GetBySlug", ctx, "cold-slug").Return(conv, nil).Once()
		f.cache.On("SetPublishedConfig", ctx, "cold-slug", cfgJSON, 3).Return(nil).Once()

		got, err := f.service.GetPublishedConfig(ctx, "cold-slug")
		require.NoError(t, err)
		assert.Equal(t, cfgJSON, got)
	})

	t.Run("never published", func(t *testing.T) {
		conv := storedConversation(uuid.New(), uuid.New())
		conv.Slug = "draft-slug"

		f.cache.On("GetPublishedConfig", ctx, "draft-slug").Return(nil, models.ErrNotFound).Once()
		f.repo.On("GetBySlug", ctx, "draft-slug").Return(conv, nil).Once()

		_, err := f.service.GetPublishedConfig(ctx, "draft-slug")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestDeleteConversationDropsSession(t *testing.T) {
	f := newFixture()
	id, owner := uuid.New(), uuid.New()
	ctx := context.Background()

	f.repo.On("GetByID", ctx, id, owner).Return(storedConversation(id, owner), nil).Once()
	f.repo.On("Delete", ctx, id, owner).Return(nil).Once()

	_, err := f.service.OpenSession(ctx, id, owner)
	require.NoError(t, err)

	require.NoError(t, f.service.DeleteConversation(ctx, id, owner))
	_, err = f.service.Session(id, owner)
	assert.ErrorIs(t, err, service.ErrSessionNotOpen)
	f.repo.AssertExpectations(t)
}

func TestCloseSessionFlushesPendingWork(t *testing.T) {
	f := newFixture()
	id, owner := uuid.New(), uuid.New()
	ctx := context.Background()

	f.repo.On("GetByID", ctx, id, owner).Return(storedConversation(id, owner), nil).Once()
	f.repo.On("UpdateConfig", mock.Anything, id, owner, mock.Anything, mock.Anything).Return(nil).Once()

	sess, err := f.service.OpenSession(ctx, id, owner)
	require.NoError(t, err)
	_, err = sess.AddStep(models.StepTypeShortText, "Name")
	require.NoError(t, err)

	// Close immediately: the pending save must be flushed, not dropped.
	require.NoError(t, f.service.CloseSession(ctx, id, owner))
	f.repo.AssertExpectations(t)

	_, err = f.service.Session(id, owner)
	assert.ErrorIs(t, err, service.ErrSessionNotOpen)
}
