package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDelay = 50 * time.Millisecond

func waitEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case ev := <-w.Events():
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestWatcherReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o644))

	w, err := New(testDelay)
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Add(path))

	require.NoError(t, os.WriteFile(path, []byte("b"), 0o644))
	ev := waitEvent(t, w)

	abs, _ := filepath.Abs(path)
	assert.Equal(t, abs, ev.Path)
	assert.True(t, ev.Op.Has(OpWrite) || ev.Op.Has(OpCreate))
}

func TestWatcherCoalescesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	w, err := New(testDelay)
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Add(path))

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte{byte('a' + i)}, 0o644))
	}
	waitEvent(t, w)

	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected second event: %+v", ev)
	case <-time.After(4 * testDelay):
	}
}

func TestWatcherIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	w, err := New(testDelay)
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Add(path))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o644))
	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected event: %+v", ev)
	case <-time.After(4 * testDelay):
	}
}

func TestWatcherAddRemove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.yaml")

	w, err := New(0)
	require.NoError(t, err)
	assert.Equal(t, DefaultDelay, w.delay)

	require.NoError(t, w.Add(path))
	assert.ErrorIs(t, w.Add(path), ErrAlreadyWatching)
	require.NoError(t, w.Remove(path))
	require.NoError(t, w.Remove(path))

	assert.Error(t, w.Add(filepath.Join(dir, "missing", "doc.yaml")))

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Add(path), ErrClosed)

	_, ok := <-w.Events()
	assert.False(t, ok)
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "none", Op(0).String())
	assert.Equal(t, "write", OpWrite.String())
	assert.Equal(t, "write|rename", (OpWrite | OpRename).String())
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	stop := errors.New("stop")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		close(started)
		done <- Run(ctx, path, testDelay, func(Event) error { return stop })
	}()
	<-started

	// Keep writing until Run has registered the watch and seen a change.
	ticker := time.NewTicker(4 * testDelay)
	defer ticker.Stop()
	for {
		select {
		case err := <-done:
			assert.ErrorIs(t, err, stop)
			return
		case <-ticker.C:
			require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
		case <-ctx.Done():
			t.Fatal("timed out")
		}
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Run(ctx, filepath.Join(t.TempDir(), "doc.yaml"), testDelay, func(Event) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
