package checklist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSaveFailed = errors.New("backend unavailable")

// recordingSaver records saved revisions and fails the first failN calls.
type recordingSaver struct {
	mu        sync.Mutex
	failN     int
	calls     int
	revisions []int64
}

func (r *recordingSaver) Save(_ context.Context, _ string, snap Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.calls <= r.failN {
		return errSaveFailed
	}
	r.revisions = append(r.revisions, snap.Revisao)
	return nil
}

func (r *recordingSaver) saved() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.revisions...)
}

func (r *recordingSaver) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func testAutoSaveConfig(debounce time.Duration) AutoSaveConfig {
	return AutoSaveConfig{
		Debounce:        debounce,
		MaxAttempts:     3,
		InitialInterval: 5 * time.Millisecond,
		MaxInterval:     10 * time.Millisecond,
	}
}

func snapshot(t *testing.T, rev int64) Snapshot {
	t.Helper()
	return Snapshot{Sessao: newSimples(t), Revisao: rev, TiradoEm: fixedNow}
}

func TestAutoSaver_DebounceKeepsLastSnapshot(t *testing.T) {
	saver := &recordingSaver{}
	a := NewAutoSaver("sess-1", saver, testAutoSaveConfig(50*time.Millisecond), nil)
	t.Cleanup(a.Close)

	assert.Equal(t, SaveSaved, a.Status().Status)
	a.Schedule(snapshot(t, 1))
	a.Schedule(snapshot(t, 2))
	a.Schedule(snapshot(t, 3))
	assert.Equal(t, SaveUnsaved, a.Status().Status)

	require.Eventually(t, func() bool { return len(saver.saved()) == 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []int64{3}, saver.saved())

	st := a.Status()
	assert.Equal(t, SaveSaved, st.Status)
	assert.Equal(t, int64(3), st.Revisao)
	assert.NotNil(t, st.LastSavedAt)
	assert.Empty(t, st.LastError)
}

func TestAutoSaver_RetriesUntilSuccess(t *testing.T) {
	saver := &recordingSaver{failN: 2}
	a := NewAutoSaver("sess-1", saver, testAutoSaveConfig(time.Hour), nil)
	t.Cleanup(a.Close)

	a.Schedule(snapshot(t, 7))
	require.NoError(t, a.Flush(context.Background()))

	assert.Equal(t, 3, saver.callCount())
	assert.Equal(t, []int64{7}, saver.saved())
	assert.Equal(t, SaveSaved, a.Status().Status)
}

func TestAutoSaver_ExhaustedRetriesReportFailure(t *testing.T) {
	saver := &recordingSaver{failN: 100}
	a := NewAutoSaver("sess-1", saver, testAutoSaveConfig(10*time.Millisecond), nil)
	t.Cleanup(a.Close)

	a.Schedule(snapshot(t, 1))
	require.Eventually(t, func() bool { return a.Status().Status == SaveFailed }, 2*time.Second, 5*time.Millisecond)

	st := a.Status()
	assert.Contains(t, st.LastError, "backend unavailable")
	assert.Nil(t, st.LastSavedAt)
	assert.Equal(t, 3, saver.callCount())

	// A later change gets a fresh set of attempts and clears the error.
	saver.mu.Lock()
	saver.failN = 0
	saver.mu.Unlock()
	a.Schedule(snapshot(t, 2))
	require.Eventually(t, func() bool { return a.Status().Status == SaveSaved }, 2*time.Second, 5*time.Millisecond)
	assert.Empty(t, a.Status().LastError)
	assert.Equal(t, []int64{2}, saver.saved())
}

func TestAutoSaver_FlushWithoutPendingIsNoop(t *testing.T) {
	saver := &recordingSaver{}
	a := NewAutoSaver("sess-1", saver, testAutoSaveConfig(time.Hour), nil)
	t.Cleanup(a.Close)

	require.NoError(t, a.Flush(context.Background()))
	assert.Zero(t, saver.callCount())
}

func TestAutoSaver_FlushReturnsSaveError(t *testing.T) {
	saver := &recordingSaver{failN: 100}
	cfg := testAutoSaveConfig(time.Hour)
	cfg.MaxAttempts = 1
	a := NewAutoSaver("sess-1", saver, cfg, nil)
	t.Cleanup(a.Close)

	a.Schedule(snapshot(t, 1))
	err := a.Flush(context.Background())
	require.ErrorIs(t, err, errSaveFailed)
	assert.Equal(t, 1, saver.callCount())
	assert.Equal(t, SaveFailed, a.Status().Status)
}

func TestAutoSaver_CloseCancelsRunningSave(t *testing.T) {
	started := make(chan struct{})
	var (
		mu     sync.Mutex
		sawErr error
	)
	saver := SaverFunc(func(ctx context.Context, _ string, _ Snapshot) error {
		close(started)
		<-ctx.Done()
		mu.Lock()
		sawErr = ctx.Err()
		mu.Unlock()
		return ctx.Err()
	})
	a := NewAutoSaver("sess-1", saver, testAutoSaveConfig(time.Millisecond), nil)

	a.Schedule(snapshot(t, 1))
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("save never started")
	}

	done := make(chan struct{})
	go func() {
		a.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}

	mu.Lock()
	defer mu.Unlock()
	require.ErrorIs(t, sawErr, context.Canceled)
	assert.Equal(t, SaveFailed, a.Status().Status)
}

func TestAutoSaver_CloseDropsPendingSnapshot(t *testing.T) {
	saver := &recordingSaver{}
	a := NewAutoSaver("sess-1", saver, testAutoSaveConfig(20*time.Millisecond), nil)

	a.Schedule(snapshot(t, 1))
	a.Close()
	a.Close()
	a.Schedule(snapshot(t, 2))

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, saver.callCount())
}
