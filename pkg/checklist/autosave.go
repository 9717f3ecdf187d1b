package checklist

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Snapshot is the state handed to a Saver. Revisao grows with every change
// so a store can drop snapshots older than what it holds.
type Snapshot struct {
	Sessao   *Session  `json:"sessao"`
	Revisao  int64     `json:"revisao"`
	TiradoEm time.Time `json:"tiradoEm"`
}

// Saver persists session snapshots.
type Saver interface {
	Save(ctx context.Context, sessionID string, snap Snapshot) error
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(ctx context.Context, sessionID string, snap Snapshot) error

func (f SaverFunc) Save(ctx context.Context, sessionID string, snap Snapshot) error {
	return f(ctx, sessionID, snap)
}

// SaveStatus is the user-visible auto-save state of a session.
type SaveStatus string

const (
	SaveUnsaved SaveStatus = "unsaved"
	SaveSaving  SaveStatus = "saving"
	SaveSaved   SaveStatus = "saved"
	SaveFailed  SaveStatus = "failed"
)

// AutoSaveStatus reports the outcome of the latest save.
type AutoSaveStatus struct {
	Status      SaveStatus `json:"status"`
	LastError   string     `json:"lastError,omitempty"`
	LastSavedAt *time.Time `json:"lastSavedAt,omitempty"`
	Revisao     int64      `json:"revisao"`
}

// AutoSaver debounces snapshots of one session and saves the latest one
// after a quiet period, retrying with exponential backoff. Snapshots
// scheduled during the quiet period replace each other. Saves run under a
// context that Close cancels.
type AutoSaver struct {
	sessionID string
	saver     Saver
	cfg       AutoSaveConfig
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	gen     uint64
	pending *Snapshot
	timer   *time.Timer
	state   AutoSaveStatus
	closed  bool
}

// NewAutoSaver creates an AutoSaver for one session.
func NewAutoSaver(sessionID string, saver Saver, cfg AutoSaveConfig, logger *slog.Logger) *AutoSaver {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &AutoSaver{
		sessionID: sessionID,
		saver:     saver,
		cfg:       cfg,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		state:     AutoSaveStatus{Status: SaveSaved},
	}
}

// Schedule queues snap, replacing any snapshot still in its quiet period.
func (a *AutoSaver) Schedule(snap Snapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.gen++
	gen := a.gen
	a.pending = &snap
	a.state.Status = SaveUnsaved
	a.stopTimerLocked()

	a.wg.Add(1)
	a.timer = time.AfterFunc(a.cfg.Debounce, func() {
		defer a.wg.Done()
		a.fire(gen)
	})
}

// stopTimerLocked stops the pending timer. A timer that had not fired
// will never run its callback, so its wait group slot is released here.
func (a *AutoSaver) stopTimerLocked() {
	if a.timer != nil && a.timer.Stop() {
		a.wg.Done()
	}
	a.timer = nil
}

func (a *AutoSaver) takeLocked() (Snapshot, uint64, bool) {
	if a.pending == nil {
		return Snapshot{}, 0, false
	}
	snap := *a.pending
	a.pending = nil
	a.state.Status = SaveSaving
	return snap, a.gen, true
}

func (a *AutoSaver) fire(gen uint64) {
	a.mu.Lock()
	if gen != a.gen || a.closed {
		a.mu.Unlock()
		return
	}
	snap, gen, ok := a.takeLocked()
	a.mu.Unlock()
	if !ok {
		return
	}
	err := a.save(a.ctx, snap)
	a.finish(gen, snap, err)
}

// Flush saves the pending snapshot now, if any, and returns the result.
func (a *AutoSaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	a.stopTimerLocked()
	snap, gen, ok := a.takeLocked()
	a.mu.Unlock()
	if !ok {
		return nil
	}
	err := a.save(ctx, snap)
	a.finish(gen, snap, err)
	return err
}

func (a *AutoSaver) save(ctx context.Context, snap Snapshot) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = a.cfg.InitialInterval
	b.MaxInterval = a.cfg.MaxInterval
	b.MaxElapsedTime = 0
	b.Reset()

	var policy backoff.BackOff = b
	if a.cfg.MaxAttempts > 0 {
		policy = backoff.WithMaxRetries(b, uint64(a.cfg.MaxAttempts-1))
	}

	attempt := 0
	op := func() error {
		attempt++
		return a.saver.Save(ctx, a.sessionID, snap)
	}
	notify := func(err error, next time.Duration) {
		a.logger.Warn("auto-save attempt failed",
			"sessionID", a.sessionID,
			"revisao", snap.Revisao,
			"attempt", attempt,
			"retryIn", next.String(),
			"error", err)
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(policy, ctx), notify); err != nil {
		a.logger.Error("auto-save failed",
			"sessionID", a.sessionID,
			"revisao", snap.Revisao,
			"attempts", attempt,
			"error", err)
		return fmt.Errorf("auto-save session %s: %w", a.sessionID, err)
	}
	a.logger.Debug("session auto-saved", "sessionID", a.sessionID, "revisao", snap.Revisao)
	return nil
}

// finish records a save outcome. Only the outcome of the newest snapshot
// changes Status; an older save still advances LastSavedAt.
func (a *AutoSaver) finish(gen uint64, snap Snapshot, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	current := gen == a.gen && a.pending == nil
	if err != nil {
		if current {
			a.state.Status = SaveFailed
			a.state.LastError = err.Error()
		}
		return
	}
	now := time.Now()
	a.state.LastSavedAt = &now
	if snap.Revisao > a.state.Revisao {
		a.state.Revisao = snap.Revisao
	}
	if current {
		a.state.Status = SaveSaved
		a.state.LastError = ""
	}
}

// Status returns the current auto-save state.
func (a *AutoSaver) Status() AutoSaveStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	st := a.state
	if st.LastSavedAt != nil {
		t := *st.LastSavedAt
		st.LastSavedAt = &t
	}
	return st
}

// Close drops any snapshot still in its quiet period, cancels a running
// save and waits for it to return. Call Flush first to keep pending work.
func (a *AutoSaver) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	a.stopTimerLocked()
	a.mu.Unlock()

	a.cancel()
	a.wg.Wait()
}
