package merge

import (
	"fmt"
	"log/slog"

	"github.com/dshills/redline/internal/engine/changes"
	"github.com/dshills/redline/internal/engine/fragment"
	"github.com/dshills/redline/internal/engine/materialize"
	"github.com/dshills/redline/internal/engine/richtext"
	"github.com/dshills/redline/internal/engine/style"
)

// Stats counts coordinator activity.
type Stats struct {
	Registered   int
	Merged       int
	Materialized int
}

// PendingRange is a registered deletion awaiting the final sweep.
type PendingRange struct {
	ID    changes.ID
	Range richtext.Range
}

type pending struct {
	id     changes.ID
	marker *fragment.Marker
	end    richtext.AnchorID
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Coordinator tracks the delete ranges of one load.
type Coordinator struct {
	doc      *richtext.Document
	registry *changes.Registry
	mat      *materialize.Materializer
	logger   *slog.Logger

	pending []*pending
	stats   Stats
}

// New creates a Coordinator working on doc and registry.
func New(doc *richtext.Document, registry *changes.Registry, mat *materialize.Materializer, opts ...Option) *Coordinator {
	c := &Coordinator{
		doc:      doc,
		registry: registry,
		mat:      mat,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckForDeleteMerge extends a pending range of change id that directly
// precedes rangeStart so that it ends at position, and reports whether it
// did. A pending range precedes rangeStart when it ends exactly there, or
// when the character before rangeStart is attributed to id and lies inside
// it. Callers register a new range when this returns false.
func (c *Coordinator) CheckForDeleteMerge(position richtext.Position, id changes.ID, rangeStart richtext.Position) bool {
	for i := len(c.pending) - 1; i >= 0; i-- {
		p := c.pending[i]
		if p.id != id {
			continue
		}
		start, _ := c.doc.AnchorPosition(p.marker.Anchor)
		end, _ := c.doc.AnchorPosition(p.end)
		if end != rangeStart && !c.attributedBefore(id, rangeStart, start, end) {
			continue
		}
		if position > end {
			c.doc.MoveAnchor(p.end, position)
		}
		c.stats.Merged++
		c.logger.Debug("merged delete range", "change", id, "start", start, "end", max(end, position))
		return true
	}
	return false
}

// attributedBefore reports whether the character before pos carries id and
// lies inside [start, end).
func (c *Coordinator) attributedBefore(id changes.ID, pos, start, end richtext.Position) bool {
	prev := pos - 1
	if prev < start || prev >= end {
		return false
	}
	f, ok := c.doc.CharFormat(prev)
	return ok && changes.ID(f.Int(style.KeyChangeID)) == id
}

// Register records [start, end) as a pending deletion of id and attaches a
// new marker to the record.
func (c *Coordinator) Register(id changes.ID, start, end richtext.Position) *fragment.Marker {
	marker := fragment.NewMarker(int(id), c.doc.AddAnchor(start))
	c.pending = append(c.pending, &pending{id: id, marker: marker, end: c.doc.AddAnchor(end)})
	c.registry.SetMarker(id, marker)
	c.stats.Registered++
	c.logger.Debug("registered delete range", "change", id, "start", start, "end", end)
	return marker
}

// Pending returns the pending ranges in creation order.
func (c *Coordinator) Pending() []PendingRange {
	out := make([]PendingRange, 0, len(c.pending))
	for _, p := range c.pending {
		start, _ := c.doc.AnchorPosition(p.marker.Anchor)
		end, _ := c.doc.AnchorPosition(p.end)
		out = append(out, PendingRange{ID: p.id, Range: richtext.NewRange(start, end)})
	}
	return out
}

// Stats returns the activity counters.
func (c *Coordinator) Stats() Stats {
	return c.stats
}

// ProcessDeleteChange materializes every pending range in creation order,
// attaches the fragment to its record and removes the content. On error the
// ranges already processed stay removed and the rest stay pending.
func (c *Coordinator) ProcessDeleteChange() error {
	for len(c.pending) > 0 {
		p := c.pending[0]
		start, ok := c.doc.AnchorPosition(p.marker.Anchor)
		if !ok {
			return fmt.Errorf("%w: change %d", materialize.ErrMarkerNotFound, p.id)
		}
		end, _ := c.doc.AnchorPosition(p.end)
		if end < start {
			end = start
		}

		f, nr, err := c.mat.Generate(c.doc, richtext.NewRange(start, end), p.marker)
		if err != nil {
			return fmt.Errorf("materialize change %d: %w", p.id, err)
		}
		if _, err := c.doc.RemoveRange(nr); err != nil {
			return fmt.Errorf("remove change %d: %w", p.id, err)
		}
		c.registry.SetDeletedFragment(p.id, f)
		c.doc.RemoveAnchor(p.end)
		c.pending = c.pending[1:]
		c.stats.Materialized++
	}
	c.pending = nil
	return nil
}
