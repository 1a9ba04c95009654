package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	s := loaded(t)
	require.Error(t, s.Load(strings.NewReader("version: 7\n")))
	require.NoError(t, s.Reject(1))
	require.NoError(t, s.Undo())

	snap, err := s.Metrics().Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 1.0, snap[`redline_stream_loads_total{status="ok"}`])
	assert.Equal(t, 1.0, snap[`redline_stream_loads_total{status="malformed"}`])
	assert.Equal(t, 2.0, snap["redline_stream_declared_changes_total"])
	assert.Equal(t, 1.0, snap["redline_deletion_materialized_total"])
	assert.Equal(t, 1.0, snap[`redline_review_changes_total{action="reject",kind="insertion"}`])
	assert.Equal(t, 1.0, snap[`redline_history_operations_total{op="undo"}`])
	assert.Equal(t, 2.0, snap["redline_review_open_changes"])
}

func TestMetricsCountSideEffects(t *testing.T) {
	const nested = `
version: 1
changes:
  - key: ins
    kind: insertion
  - key: fmt
    kind: format-change
body:
  - t: paragraph-start
  - t: region-open
    key: ins
  - t: text
    text: a
  - t: region-open
    key: fmt
  - t: text
    text: b
  - t: region-close
    key: fmt
  - t: region-close
    key: ins
  - t: paragraph-end
`
	s := New()
	require.NoError(t, s.Load(strings.NewReader(nested)))
	require.NoError(t, s.Reject(1))

	snap, err := s.Metrics().Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 1.0, snap[`redline_review_changes_total{action="reject",kind="insertion"}`])
	assert.Equal(t, 1.0, snap[`redline_review_changes_total{action="reject",kind="format-change"}`])
	assert.Equal(t, 0.0, snap["redline_review_open_changes"])
}

func TestMetricsArePerSession(t *testing.T) {
	a, b := loaded(t), New()
	assert.NotSame(t, a.Metrics().Registry(), b.Metrics().Registry())

	snap, err := b.Metrics().Snapshot()
	require.NoError(t, err)
	assert.Zero(t, snap["redline_stream_declared_changes_total"])
}
