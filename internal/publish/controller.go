// Package publish maintains the draft/live state machine of a conversation
// and the dirty comparison that gates the publish action.
package publish

import (
	"errors"

	"chatform-server/internal/models"

	"go.uber.org/zap"
)

// State is the author-facing lifecycle state.
type State string

const (
	// StateDraft: never published.
	StateDraft State = "draft"
	// StateLive: published and the draft matches the published snapshot.
	StateLive State = "live"
	// StateEdited: published, but the draft has diverged since.
	StateEdited State = "edited"
)

var (
	// ErrPublishInFlight rejects a publish while a previous one is pending.
	ErrPublishInFlight = errors.New("a publish is already in progress")
	// ErrNothingToPublish rejects a no-op publish of an unchanged live draft.
	ErrNothingToPublish = errors.New("draft matches the published version")
)

// Controller tracks the last published snapshot and derives dirty/state from
// it. The zero published reference means "never published"; dirty is then
// defined as false so a fresh draft does not advertise a meaningless diff.
type Controller struct {
	published *models.ConversationConfig
	inFlight  bool
	logger    *zap.Logger
}

// NewController creates a controller seeded with the published snapshot
// loaded from the store, or nil when the conversation was never published.
func NewController(published *models.ConversationConfig, logger *zap.Logger) *Controller {
	return &Controller{
		published: published,
		logger:    logger.Named("PublishController"),
	}
}

// Dirty reports whether the current draft structurally differs from the last
// published snapshot. The comparison is over the canonical serialization,
// never reference identity.
func (c *Controller) Dirty(current models.ConversationConfig) bool {
	if c.published == nil {
		return false
	}
	return !models.Equal(current, *c.published)
}

// State derives the lifecycle state for the given draft.
func (c *Controller) State(current models.ConversationConfig) State {
	switch {
	case c.published == nil:
		return StateDraft
	case c.Dirty(current):
		return StateEdited
	default:
		return StateLive
	}
}

// Begin guards the start of a publish: it fails while another publish is in
// flight, or when the draft is live and unchanged. On success the controller
// is marked in flight until Complete or Fail.
func (c *Controller) Begin(current models.ConversationConfig) error {
	if c.inFlight {
		return ErrPublishInFlight
	}
	if c.published != nil && !c.Dirty(current) {
		return ErrNothingToPublish
	}
	c.inFlight = true
	return nil
}

// Complete records a successful publish: the snapshot becomes the new
// published reference, so Dirty(snapshot) is false immediately afterwards.
func (c *Controller) Complete(snapshot models.ConversationConfig) {
	c.published = &snapshot
	c.inFlight = false
	c.logger.Debug("Published snapshot updated")
}

// Fail clears the in-flight flag and leaves the published reference and the
// derived state untouched.
func (c *Controller) Fail() {
	c.inFlight = false
}

// InFlight reports whether a publish is currently pending.
func (c *Controller) InFlight() bool {
	return c.inFlight
}

// PublishedSnapshot returns the last published snapshot, or nil.
func (c *Controller) PublishedSnapshot() *models.ConversationConfig {
	return c.published
}
