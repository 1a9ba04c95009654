package materialize

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dshills/redline/internal/engine/fragment"
	"github.com/dshills/redline/internal/engine/richtext"
)

// ErrMarkerNotFound is returned when a marker's anchor is not in the
// document.
var ErrMarkerNotFound = errors.New("marker anchor not found")

// Option configures a Materializer.
type Option func(*Materializer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Materializer) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Materializer generates and reinserts deletion fragments.
type Materializer struct {
	logger *slog.Logger
}

// New creates a Materializer.
func New(opts ...Option) *Materializer {
	m := &Materializer{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Generate copies r into a fragment for the deletion referenced by marker
// and returns it with the normalized range it covers. Styles of fully
// deleted lists are recorded on marker. The document is not modified.
func (m *Materializer) Generate(doc *richtext.Document, r richtext.Range, marker *fragment.Marker) (*fragment.Fragment, richtext.Range, error) {
	slice, nr, err := doc.Copy(r)
	if err != nil {
		return nil, r, fmt.Errorf("copy %s: %w", r, err)
	}
	g := generator{doc: doc, r: nr, marker: marker, lists: make(map[richtext.ListID]bool)}
	f := g.fragment(slice.Blocks, false)
	for _, a := range doc.AnchorsWithin(nr) {
		if a.ID == marker.Anchor {
			continue
		}
		f.Anchors = append(f.Anchors, fragment.Anchor{Offset: a.Pos - nr.Start, ID: a.ID})
	}
	m.logger.Debug("generated deletion fragment",
		"change", marker.ChangeID, "range", nr.String(), "length", fragment.Length(f))
	return f, nr, nil
}

// Length returns the number of positions f occupies once inserted.
func (m *Materializer) Length(f *fragment.Fragment) int {
	return fragment.Length(f)
}

// Insert reinserts f at marker's position and returns the number of
// positions inserted. Anchors captured in f return to their offsets, and
// anchors that sat right after the marker move past the inserted content.
func (m *Materializer) Insert(doc *richtext.Document, f *fragment.Fragment, marker *fragment.Marker) (int, error) {
	pos, ok := doc.AnchorPosition(marker.Anchor)
	if !ok {
		return 0, fmt.Errorf("%w: change %d", ErrMarkerNotFound, marker.ChangeID)
	}
	nested := make(map[richtext.AnchorID]bool, len(f.Anchors))
	for _, a := range f.Anchors {
		nested[a.ID] = true
	}
	var followers []richtext.AnchorID
	for _, id := range doc.AnchorsAfter(marker.Anchor) {
		if !nested[id] {
			followers = append(followers, id)
		}
	}

	ins := inserter{doc: doc, marker: marker, restored: make(map[richtext.ListID]richtext.ListID)}
	n, err := ins.insert(pos, f, false)
	if err != nil {
		return n, err
	}
	for _, id := range followers {
		doc.MoveAnchor(id, pos+n)
	}
	for _, a := range f.Anchors {
		doc.MoveAnchor(a.ID, pos+a.Offset)
	}
	if want := fragment.Length(f); n != want {
		m.logger.Warn("fragment length mismatch", "change", marker.ChangeID, "inserted", n, "expected", want)
	}
	m.logger.Debug("reinserted deletion fragment", "change", marker.ChangeID, "position", pos, "length", n)
	return n, nil
}
