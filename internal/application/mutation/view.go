// Package mutation coordinates list-view mutations: one in flight at a time,
// a confirmation step before deletes, and a full re-fetch after success.
//
// State machine:
//
//	Idle -> Loading        Submit
//	Idle -> Confirming     RequestDelete
//	Confirming -> Idle     Cancel (no request is made)
//	Confirming -> Loading  Confirm
//	Loading -> Success -> Idle   (after the re-fetch)
//	Loading -> Error -> Idle     (after the notice is surfaced)
package mutation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"gymdash/internal/application/listview"
	"gymdash/internal/logger"
)

// State is a View's position in the mutation state machine.
type State int

const (
	Idle State = iota
	Confirming
	Loading
	Success
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Confirming:
		return "confirming"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrBusy is returned while a mutation is in flight or a delete awaits confirmation.
	ErrBusy = errors.New("another operation is in progress")
	// ErrIllegalTransition is returned for requests the current state cannot accept.
	ErrIllegalTransition = errors.New("illegal state transition")
	// ErrClosed is returned once the view has been closed.
	ErrClosed = errors.New("view is closed")
)

// Level classifies a Notice.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notice is a user-facing toast.
type Notice struct {
	Level   Level
	Op      string
	Message string
}

// Notifier surfaces notices to the user.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notice) { f(n) }

// Transition describes one state change.
type Transition struct {
	From State
	To   State
	Op   string
}

// Config wires a View to its data source.
type Config[T any] struct {
	// Fetch loads the full collection. Required.
	Fetch func(ctx context.Context) ([]T, error)
	// Delete removes (or soft-deletes) one item. Required for RequestDelete.
	Delete func(ctx context.Context, id string) error
	// Describe turns an error into notice text. Defaults to err.Error().
	Describe     func(op string, err error) string
	Notifier     Notifier
	OnTransition func(Transition)
	Logger       *zap.Logger
}

// View holds one list's collection and serialises mutations against it.
type View[T any] struct {
	cfg    Config[T]
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	state     State
	pendingID string
	coll      listview.Collection[T]
	gen       uint64
	closed    bool
	fired     []Transition
}

// NewView creates an Idle view whose lifetime is bounded by parent and Close.
// PRE: cfg.Fetch is non-nil
func NewView[T any](parent context.Context, cfg Config[T]) *View[T] {
	ctx, cancel := context.WithCancel(parent)
	if cfg.Describe == nil {
		cfg.Describe = func(op string, err error) string { return fmt.Sprintf("%s failed: %v", op, err) }
	}
	return &View[T]{cfg: cfg, logger: logger.OrNop(cfg.Logger), ctx: ctx, cancel: cancel}
}

// State returns the current state.
func (v *View[T]) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Collection returns the latest applied snapshot.
func (v *View[T]) Collection() listview.Collection[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.coll
}

// PendingDelete returns the id awaiting confirmation, if any.
func (v *View[T]) PendingDelete() (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pendingID, v.state == Confirming
}

// Refresh re-fetches the whole collection. Each call takes a new generation;
// only the newest generation's result is applied, so a slow stale fetch
// cannot overwrite a newer one. Failures keep the previous collection.
// POST: returns nil if the fetch succeeded, even when its result was stale
func (v *View[T]) Refresh(ctx context.Context) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	v.gen++
	gen := v.gen
	v.mu.Unlock()

	fetchCtx, stop := v.bind(ctx)
	items, err := v.cfg.Fetch(fetchCtx)
	stop()

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	if gen != v.gen {
		v.mu.Unlock()
		v.logger.Debug("stale_refresh_discarded", zap.Uint64("generation", gen))
		return err
	}
	if err != nil {
		v.mu.Unlock()
		v.notify(LevelError, "refresh", v.cfg.Describe("refresh", err))
		return err
	}
	v.coll = listview.Collection[T]{Items: items, Version: v.coll.Version + 1}
	v.mu.Unlock()
	return nil
}

// Submit runs an add, edit, check-in or similar mutation.
// PRE: state is Idle
// POST: on success the collection was re-fetched; state is Idle again
func (v *View[T]) Submit(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	v.mu.Lock()
	if err := v.admit(); err != nil {
		v.mu.Unlock()
		return err
	}
	v.set(Loading, op)
	v.unlock()
	return v.run(ctx, op, fn)
}

// RequestDelete enters the confirmation sub-state for id. Nothing is sent.
// PRE: state is Idle
func (v *View[T]) RequestDelete(id string) error {
	v.mu.Lock()
	if err := v.admit(); err != nil {
		v.mu.Unlock()
		return err
	}
	if v.cfg.Delete == nil {
		v.mu.Unlock()
		return fmt.Errorf("%w: delete is not supported", ErrIllegalTransition)
	}
	v.pendingID = id
	v.set(Confirming, "delete")
	v.unlock()
	return nil
}

// Cancel abandons a pending delete without any request.
// PRE: state is Confirming
func (v *View[T]) Cancel() error {
	v.mu.Lock()
	if v.state != Confirming {
		v.mu.Unlock()
		return ErrIllegalTransition
	}
	v.pendingID = ""
	v.set(Idle, "delete")
	v.unlock()
	return nil
}

// Confirm performs the pending delete.
// PRE: state is Confirming
func (v *View[T]) Confirm(ctx context.Context) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	if v.state != Confirming {
		v.mu.Unlock()
		return ErrIllegalTransition
	}
	id := v.pendingID
	v.pendingID = ""
	v.set(Loading, "delete")
	v.unlock()
	return v.run(ctx, "delete", func(ctx context.Context) error { return v.cfg.Delete(ctx, id) })
}

// Close cancels in-flight work. Results that arrive afterwards are dropped.
func (v *View[T]) Close() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
	v.cancel()
}

func (v *View[T]) run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	opCtx, stop := v.bind(ctx)
	err := fn(opCtx)
	stop()

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		v.set(Error, op)
		v.unlock()
		v.logger.Warn("mutation_failed", zap.String("op", op), zap.Error(err))
		v.notify(LevelError, op, v.cfg.Describe(op, err))
		v.finish(op)
		return err
	}

	v.set(Success, op)
	v.unlock()
	v.notify(LevelInfo, op, op+" succeeded")
	// a failed re-fetch is already surfaced and leaves the old collection
	_ = v.Refresh(ctx)
	v.finish(op)
	return nil
}

func (v *View[T]) finish(op string) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.set(Idle, op)
	v.unlock()
}

// admit checks that a new mutation may start. Caller holds mu.
func (v *View[T]) admit() error {
	switch {
	case v.closed:
		return ErrClosed
	case v.state == Idle:
		return nil
	default:
		return ErrBusy
	}
}

// set records a transition. Caller holds mu and must release it via unlock.
func (v *View[T]) set(to State, op string) {
	v.fired = append(v.fired, Transition{From: v.state, To: to, Op: op})
	v.state = to
}

// unlock releases mu and then runs the transition hook, so hooks may call
// back into the view.
func (v *View[T]) unlock() {
	fired := v.fired
	v.fired = nil
	v.mu.Unlock()
	for _, t := range fired {
		v.logger.Debug("view_transition", zap.Stringer("from", t.From), zap.Stringer("to", t.To), zap.String("op", t.Op))
		if v.cfg.OnTransition != nil {
			v.cfg.OnTransition(t)
		}
	}
}

func (v *View[T]) notify(level Level, op, msg string) {
	if v.cfg.Notifier != nil {
		v.cfg.Notifier.Notify(Notice{Level: level, Op: op, Message: msg})
	}
}

// bind derives a context cancelled by either ctx or the view's lifetime.
func (v *View[T]) bind(ctx context.Context) (context.Context, func()) {
	opCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(v.ctx, cancel)
	return opCtx, func() {
		stop()
		cancel()
	}
}
