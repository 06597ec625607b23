// Package autosave debounces form edits into durable writes. Rapid keystrokes
// collapse into a single save of the latest state; a manual save or a flush on
// navigation bypasses the debounce window.
package autosave

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/brightfield/sitesurvey/internal/logging"
)

// Status is the save indicator shown next to the form.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusSaving  Status = "saving"
	StatusSaved   Status = "saved"
	StatusError   Status = "error"
)

const (
	// DefaultDebounce is the quiet period after the last edit before a write.
	DefaultDebounce = 500 * time.Millisecond
	// DefaultSettle is how long the saved indicator stays up before
	// returning to idle.
	DefaultSettle = 3 * time.Second
	// saveTimeout bounds a single durable write.
	saveTimeout = 5 * time.Second
)

// Saver persists a form snapshot. *store.Store satisfies it.
type Saver interface {
	SaveFormData(ctx context.Context, draftID string, form any, isAutoSave bool) (bool, error)
}

// Controller owns the single debounce timer for a draft being edited.
type Controller struct {
	saver  Saver
	logger logging.Logger

	debounce time.Duration
	settle   time.Duration
	onStatus func(Status)

	mu          sync.Mutex
	draftID     string
	pendingForm any
	timer       *time.Timer
	settleTimer *time.Timer
	status      Status
	lastErr     error
	closed      bool
}

// Option customizes a Controller.
type Option func(*Controller)

// WithDebounce overrides the debounce window.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) { c.debounce = d }
}

// WithSettle overrides how long the saved indicator lingers.
func WithSettle(d time.Duration) Option {
	return func(c *Controller) { c.settle = d }
}

// WithStatusFunc registers the status observer. It is invoked on every
// transition, outside the controller lock.
func WithStatusFunc(fn func(Status)) Option {
	return func(c *Controller) { c.onStatus = fn }
}

func New(saver Saver, logger logging.Logger, opts ...Option) *Controller {
	c := &Controller{
		saver:    saver,
		logger:   logger,
		debounce: DefaultDebounce,
		settle:   DefaultSettle,
		status:   StatusIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnChange records the latest form state and restarts the debounce timer.
// Only the state present when the timer fires is written.
func (c *Controller) OnChange(draftID string, form any) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.draftID = draftID
	c.pendingForm = form
	c.stopSettleLocked()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, c.fire)
	changed := c.setStatusLocked(StatusPending)
	c.mu.Unlock()

	c.notify(changed, StatusPending)
}

// SaveNow writes the pending state immediately, bypassing the debounce.
// A no-op when nothing is pending.
func (c *Controller) SaveNow(ctx context.Context) error {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.pendingForm == nil {
		c.mu.Unlock()
		return nil
	}
	draftID, form := c.draftID, c.pendingForm
	c.mu.Unlock()

	return c.save(ctx, draftID, form, false)
}

// Flush persists any pending state; call before navigation or shutdown.
func (c *Controller) Flush(ctx context.Context) error {
	return c.SaveNow(ctx)
}

// Close flushes pending state and stops the controller for good.
func (c *Controller) Close(ctx context.Context) error {
	err := c.Flush(ctx)

	c.mu.Lock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.stopSettleLocked()
	c.mu.Unlock()

	return err
}

// Status returns the current indicator state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Err returns the error behind a StatusError indicator, nil otherwise.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// fire runs on timer expiry.
func (c *Controller) fire() {
	c.mu.Lock()
	if c.closed || c.pendingForm == nil {
		c.mu.Unlock()
		return
	}
	draftID, form := c.draftID, c.pendingForm
	c.timer = nil
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := c.save(ctx, draftID, form, true); err != nil {
		c.logger.Error(ctx, "auto-save failed", "draft_id", draftID, "error", err)
	}
}

func (c *Controller) save(ctx context.Context, draftID string, form any, isAutoSave bool) error {
	changed := c.transition(StatusSaving)
	c.notify(changed, StatusSaving)

	saved, err := c.saver.SaveFormData(ctx, draftID, form, isAutoSave)

	c.mu.Lock()
	if err != nil {
		// Keep the state pending so the next edit or manual save retries it.
		c.lastErr = err
		changed = c.setStatusLocked(StatusError)
		c.mu.Unlock()
		c.notify(changed, StatusError)
		return err
	}

	c.lastErr = nil
	// Drop the pending state only if no newer edit arrived during the write.
	if c.pendingForm != nil && reflect.DeepEqual(c.pendingForm, form) {
		c.pendingForm = nil
	}

	next := StatusSaved
	if !saved {
		// Identical to what is already on disk; nothing happened.
		next = StatusIdle
	}
	changed = c.setStatusLocked(next)
	if next == StatusSaved {
		c.startSettleLocked()
	}
	c.mu.Unlock()

	c.notify(changed, next)
	return nil
}

func (c *Controller) transition(s Status) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setStatusLocked(s)
}

func (c *Controller) setStatusLocked(s Status) bool {
	if c.status == s {
		return false
	}
	c.status = s
	return true
}

func (c *Controller) startSettleLocked() {
	c.stopSettleLocked()
	c.settleTimer = time.AfterFunc(c.settle, func() {
		c.mu.Lock()
		changed := c.status == StatusSaved && c.setStatusLocked(StatusIdle)
		c.mu.Unlock()
		c.notify(changed, StatusIdle)
	})
}

func (c *Controller) stopSettleLocked() {
	if c.settleTimer != nil {
		c.settleTimer.Stop()
		c.settleTimer = nil
	}
}

func (c *Controller) notify(changed bool, s Status) {
	if changed && c.onStatus != nil {
		c.onStatus(s)
	}
}
