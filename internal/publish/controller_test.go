package publish_test

import (
	"testing"

	"chatform-server/internal/document"
	"chatform-server/internal/models"
	"chatform-server/internal/publish"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func draftWith(labels ...string) models.ConversationConfig {
	cfg := models.DefaultConfig()
	for _, label := range labels {
		cfg, _ = document.AppendStep(cfg, document.NewStep(models.StepTypeShortText, label))
	}
	return cfg
}

func TestControllerNeverPublished(t *testing.T) {
	c := publish.NewController(nil, zap.NewNop())
	draft := draftWith("Name")

	assert.False(t, c.Dirty(draft), "dirty is defined as false before the first publish")
	assert.Equal(t, publish.StateDraft, c.State(draft))
	assert.Nil(t, c.PublishedSnapshot())
}

func TestControllerDirtyIsStructural(t *testing.T) {
	published := draftWith("Name")
	c := publish.NewController(&published, zap.NewNop())

	// A structurally identical but distinct value is not dirty.
	same := document.Clone(published)
	assert.False(t, c.Dirty(same))
	assert.Equal(t, publish.StateLive, c.State(same))

	changed := document.Clone(published)
	changed.Welcome.Title = "Hello!"
	assert.True(t, c.Dirty(changed))
	assert.Equal(t, publish.StateEdited, c.State(changed))
}

func TestControllerPublishCycle(t *testing.T) {
	c := publish.NewController(nil, zap.NewNop())
	draft := draftWith("Name", "Email")

	require.NoError(t, c.Begin(draft))
	assert.True(t, c.InFlight())

	// A second publish is rejected while one is pending.
	assert.ErrorIs(t, c.Begin(draft), publish.ErrPublishInFlight)

	c.Complete(draft)
	assert.False(t, c.InFlight())
	assert.False(t, c.Dirty(draft), "the draft matches its own snapshot right after publish")
	assert.Equal(t, publish.StateLive, c.State(draft))

	// Publishing an unchanged live draft is rejected.
	assert.ErrorIs(t, c.Begin(draft), publish.ErrNothingToPublish)

	// Edit, then the next publish goes through.
	edited := document.Clone(draft)
	edited.End.Message = "All done!"
	assert.Equal(t, publish.StateEdited, c.State(edited))
	require.NoError(t, c.Begin(edited))
	c.Complete(edited)
	assert.Equal(t, publish.StateLive, c.State(edited))
}

func TestControllerFailKeepsState(t *testing.T) {
	published := draftWith("Name")
	c := publish.NewController(&published, zap.NewNop())

	edited := document.Clone(published)
	edited.Welcome.Title = "Changed"

	require.NoError(t, c.Begin(edited))
	c.Fail()

	assert.False(t, c.InFlight())
	assert.Equal(t, publish.StateEdited, c.State(edited), "a failed publish leaves the state untouched")
	require.NotNil(t, c.PublishedSnapshot())
	assert.True(t, models.Equal(published, *c.PublishedSnapshot()))

	// The publish can be retried.
	require.NoError(t, c.Begin(edited))
}

func TestControllerEditsDuringPublishStayDirty(t *testing.T) {
	c := publish.NewController(nil, zap.NewNop())
	snapshot := draftWith("Name")

	require.NoError(t, c.Begin(snapshot))

	// An edit lands while the publish is awaited.
	newer := document.Clone(snapshot)
	newer.BrandDescription = "acme"

	c.Complete(snapshot)
	assert.True(t, c.Dirty(newer), "edits made during the publish survive as dirty state")
	assert.Equal(t, publish.StateEdited, c.State(newer))
}
