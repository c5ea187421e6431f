// Package autosave debounces draft mutations into persistence calls. A burst
// of edits produces exactly one save carrying the latest document instead of
// one call per keystroke.
package autosave

import (
	"context"
	"sync"
	"time"

	"chatform-server/internal/models"

	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period after the last edit before the save
// fires.
const DefaultDebounce = 1500 * time.Millisecond

// SaveFunc persists the document. It runs off the caller's goroutine; the
// in-memory document stays authoritative whatever the outcome.
type SaveFunc func(ctx context.Context, name string, cfg models.ConversationConfig) error

// Scheduler coalesces Schedule calls: each call replaces the pending save and
// resets the debounce timer, so only the most recent document ever reaches
// the store. A failed save is reported through the error callback and never
// retried; local state is never rolled back.
type Scheduler struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	pending *pendingSave
	save    SaveFunc
	onError func(error)
	logger  *zap.Logger
	closed  bool
}

type pendingSave struct {
	name string
	cfg  models.ConversationConfig
}

// NewScheduler creates a Scheduler. A non-positive delay falls back to
// DefaultDebounce; onError may be nil.
func NewScheduler(delay time.Duration, save SaveFunc, onError func(error), logger *zap.Logger) *Scheduler {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Scheduler{
		delay:   delay,
		save:    save,
		onError: onError,
		logger:  logger.Named("AutosaveScheduler"),
	}
}

// Schedule replaces any pending save with the given document and restarts
// the quiet-period timer.
func (s *Scheduler) Schedule(name string, cfg models.ConversationConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.pending = &pendingSave{name: name, cfg: cfg}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, s.fire)
}

// fire runs on the timer goroutine once the quiet period elapses.
func (s *Scheduler) fire() {
	s.mu.Lock()
	p := s.pending
	s.pending = nil
	s.timer = nil
	closed := s.closed
	s.mu.Unlock()

	if p == nil || closed {
		return
	}
	s.doSave(context.Background(), p)
}

// Flush cancels the timer and persists the pending document immediately.
// Used by the publish path, which must not snapshot a stale draft. Returns
// the save error, or nil when nothing was pending.
func (s *Scheduler) Flush(ctx context.Context) error {
	s.mu.Lock()
	p := s.pending
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	if p == nil {
		return nil
	}
	return s.doSaveErr(ctx, p)
}

// Cancel drops any pending save without persisting it. Called when the
// editing session ends so a stale write cannot fire afterwards.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) doSave(ctx context.Context, p *pendingSave) {
	if err := s.doSaveErr(ctx, p); err != nil && s.onError != nil {
		s.onError(err)
	}
}

func (s *Scheduler) doSaveErr(ctx context.Context, p *pendingSave) error {
	if err := s.save(ctx, p.name, p.cfg); err != nil {
		// Local edits stay authoritative; the draft and the store may
		// diverge until the next successful save.
		s.logger.Warn("Autosave failed", zap.Error(err))
		return err
	}
	s.logger.Debug("Autosave completed")
	return nil
}
