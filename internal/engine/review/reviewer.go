package review

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/dshills/redline/internal/engine/changes"
	"github.com/dshills/redline/internal/engine/materialize"
	"github.com/dshills/redline/internal/engine/richtext"
	"github.com/dshills/redline/internal/engine/style"
)

// Errors returned by the reviewer.
var (
	ErrUnknownChange   = errors.New("unknown change")
	ErrAlreadyResolved = errors.New("change already accepted or rejected")
)

// Option configures a Reviewer.
type Option func(*Reviewer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reviewer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithApplier sets the style applier used to revert format changes.
func WithApplier(a style.Applier) Option {
	return func(r *Reviewer) {
		if a != nil {
			r.applier = a
		}
	}
}

// WithMaterializer sets the materializer used to restore deletions.
func WithMaterializer(m *materialize.Materializer) Option {
	return func(r *Reviewer) {
		if m != nil {
			r.mat = m
		}
	}
}

// Reviewer resolves the changes of one document.
type Reviewer struct {
	doc     *richtext.Document
	reg     *changes.Registry
	mat     *materialize.Materializer
	applier style.Applier
	logger  *slog.Logger
}

// New creates a Reviewer for doc and reg.
func New(doc *richtext.Document, reg *changes.Registry, opts ...Option) *Reviewer {
	r := &Reviewer{
		doc:     doc,
		reg:     reg,
		applier: style.PropertyApplier{},
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.mat == nil {
		r.mat = materialize.New(materialize.WithLogger(r.logger))
	}
	return r
}

// Accept makes change id permanent.
func (r *Reviewer) Accept(id changes.ID) error {
	return r.AcceptRejectChange(id, true)
}

// Reject reverts change id.
func (r *Reviewer) Reject(id changes.ID) error {
	return r.AcceptRejectChange(id, false)
}

// AcceptRejectChange accepts or rejects change id. Duplicate ids resolve to
// their original change.
func (r *Reviewer) AcceptRejectChange(id changes.ID, accept bool) error {
	orig := r.reg.Resolve(id)
	rec, ok := r.reg.Record(orig)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownChange, id)
	}
	if rec.AcceptedRejected {
		return fmt.Errorf("%w: %d", ErrAlreadyResolved, orig)
	}

	group := r.group(orig)
	var err error
	switch rec.Kind {
	case changes.Deletion:
		if accept {
			r.acceptDeletion(group)
		} else {
			err = r.rejectDeletion(group)
		}
	case changes.Insertion:
		if accept {
			r.clearAttribution(group)
		} else {
			err = r.rejectInsertion(orig)
		}
	case changes.FormatChange:
		if accept {
			r.clearAttribution(group)
		} else {
			r.rejectFormat(group, rec.Format)
		}
	default:
		r.clearAttribution(group)
	}
	if err != nil {
		return fmt.Errorf("resolve change %d: %w", orig, err)
	}

	for _, m := range group.ids() {
		r.reg.AcceptRejectChange(m, true)
	}
	r.logger.Debug("resolved change", "change", orig, "kind", rec.Kind, "accept", accept, "ids", len(group))
	return nil
}

// AcceptAll accepts every open change by author, or by anyone when author
// is empty, and returns how many were accepted.
func (r *Reviewer) AcceptAll(author string) (int, error) {
	return r.all(author, true)
}

// RejectAll rejects every open change by author, or by anyone when author
// is empty, and returns how many were rejected.
func (r *Reviewer) RejectAll(author string) (int, error) {
	return r.all(author, false)
}

// all resolves changes newest first, so nested changes are handled before
// the changes containing them.
func (r *Reviewer) all(author string, accept bool) (int, error) {
	ids := r.reg.ChangeList()
	n := 0
	for i := len(ids) - 1; i >= 0; i-- {
		rec, ok := r.reg.Record(ids[i])
		if !ok || rec.AcceptedRejected || (author != "" && rec.Author != author) {
			continue
		}
		if err := r.AcceptRejectChange(ids[i], accept); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// idSet is a change together with its split duplicates.
type idSet map[changes.ID]bool

func (s idSet) match(id int) bool { return s[changes.ID(id)] }

func (s idSet) ids() []changes.ID {
	out := make([]changes.ID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *Reviewer) group(id changes.ID) idSet {
	set := idSet{}
	var add func(changes.ID)
	add = func(id changes.ID) {
		if set[id] {
			return
		}
		set[id] = true
		for _, d := range r.reg.Duplicates(id) {
			add(d)
		}
	}
	add(id)
	return set
}

// subtree returns the group of id and of every change below it.
func (r *Reviewer) subtree(id changes.ID) idSet {
	set := idSet{}
	var walk func(changes.ID)
	walk = func(id changes.ID) {
		for m := range r.group(id) {
			if set[m] {
				continue
			}
			set[m] = true
			for _, c := range r.reg.Children(m) {
				walk(c)
			}
		}
	}
	walk(id)
	return set
}

func (r *Reviewer) clearAttribution(group idSet) {
	r.doc.UpdateAttributed(group.match, func(f *style.Properties) {
		f.Delete(style.KeyChangeID)
	})
}

// markers returns the pending deletion markers of group, last in document
// order first.
func (r *Reviewer) markers(group idSet) []changes.Record {
	var out []changes.Record
	for _, id := range group.ids() {
		rec, ok := r.reg.Record(id)
		if ok && rec.Marker != nil && r.reg.Has(id) {
			out = append(out, rec)
		}
	}
	pos := func(rec changes.Record) int {
		p, _ := r.doc.AnchorPosition(rec.Marker.Anchor)
		return p
	}
	sort.SliceStable(out, func(i, j int) bool { return pos(out[i]) > pos(out[j]) })
	return out
}

// acceptDeletion drops the markers of group together with every pending
// deletion captured inside their fragments.
func (r *Reviewer) acceptDeletion(group idSet) {
	owners := r.deletionOwners()
	for _, rec := range r.markers(group) {
		if rec.Deleted != nil {
			for _, a := range rec.Deleted.Anchors {
				if nested, ok := owners[a.ID]; ok {
					r.discardDeletion(nested)
				}
			}
		}
		r.discardDeletion(rec.ID)
	}
}

func (r *Reviewer) discardDeletion(id changes.ID) {
	rec, ok := r.reg.Record(id)
	if !ok || rec.Marker == nil {
		return
	}
	r.doc.RemoveAnchor(rec.Marker.Anchor)
	r.reg.SetMarker(id, nil)
	r.reg.SetDeletedFragment(id, nil)
	r.reg.AcceptRejectChange(id, true)
}

func (r *Reviewer) rejectDeletion(group idSet) error {
	for _, rec := range r.markers(group) {
		restore := func() error {
			if rec.Deleted != nil {
				if _, err := r.mat.Insert(r.doc, rec.Deleted, rec.Marker); err != nil {
					return err
				}
			}
			r.doc.RemoveAnchor(rec.Marker.Anchor)
			r.reg.SetMarker(rec.ID, nil)
			r.clearAttribution(group)
			return nil
		}
		// A marker captured in another pending fragment has no live
		// position of its own; restore it inside that fragment.
		if owner, ok := r.capturedBy(rec.ID, rec.Marker.Anchor); ok {
			if err := r.withinDeletion(owner, restore); err != nil {
				return err
			}
			continue
		}
		if err := restore(); err != nil {
			return err
		}
	}
	r.clearAttribution(group)
	return nil
}

// capturedBy returns the innermost pending deletion whose fragment holds
// anchor. Enclosing deletions hold it too, along with the marker of the
// innermost one.
func (r *Reviewer) capturedBy(self changes.ID, anchor richtext.AnchorID) (changes.ID, bool) {
	var owners []changes.Record
	for _, id := range r.reg.DeletedChanges() {
		if id == self {
			continue
		}
		if rec, ok := r.reg.Record(id); ok && holds(rec, anchor) {
			owners = append(owners, rec)
		}
	}
	for _, rec := range owners {
		inner := true
		for _, other := range owners {
			if other.ID != rec.ID && holds(rec, other.Marker.Anchor) {
				inner = false
				break
			}
		}
		if inner {
			return rec.ID, true
		}
	}
	return 0, false
}

func holds(rec changes.Record, anchor richtext.AnchorID) bool {
	if rec.Deleted == nil {
		return false
	}
	for _, a := range rec.Deleted.Anchors {
		if a.ID == anchor {
			return true
		}
	}
	return false
}

// withinDeletion reinserts the content of pending deletion id, runs fn and
// materializes the content again, so that fn edits the deleted text in
// place. The deletion stays pending.
func (r *Reviewer) withinDeletion(id changes.ID, fn func() error) error {
	rec, ok := r.reg.Record(id)
	if !ok || rec.Marker == nil || rec.Deleted == nil {
		return fn()
	}
	cycle := func() error {
		start, ok := r.doc.AnchorPosition(rec.Marker.Anchor)
		if !ok {
			return fmt.Errorf("%w: change %d", materialize.ErrMarkerNotFound, id)
		}
		before := r.doc.Len()
		if _, err := r.mat.Insert(r.doc, rec.Deleted, rec.Marker); err != nil {
			return err
		}
		if err := fn(); err != nil {
			return err
		}
		end := start + r.doc.Len() - before
		f, nr, err := r.mat.Generate(r.doc, richtext.NewRange(start, end), rec.Marker)
		if err != nil {
			return err
		}
		if _, err := r.doc.RemoveRange(nr); err != nil {
			return err
		}
		r.reg.SetDeletedFragment(id, f)
		r.logger.Debug("rewrote deletion fragment", "change", id, "range", nr.String())
		return nil
	}
	if owner, ok := r.capturedBy(id, rec.Marker.Anchor); ok {
		return r.withinDeletion(owner, cycle)
	}
	return cycle()
}

// rejectInsertion removes the text of the insertion and of every change
// nested in it. Pending deletions inside the removed text are discarded.
func (r *Reviewer) rejectInsertion(id changes.ID) error {
	tree := r.subtree(id)
	owners := r.deletionOwners()
	ranges := r.doc.ChangeRanges(tree.match)
	for i := len(ranges) - 1; i >= 0; i-- {
		for _, a := range r.doc.AnchorsWithin(ranges[i]) {
			if owner, ok := owners[a.ID]; ok {
				r.discardDeletion(owner)
			}
		}
		if _, err := r.doc.RemoveRange(ranges[i]); err != nil {
			return err
		}
	}
	for _, m := range tree.ids() {
		r.reg.AcceptRejectChange(m, true)
	}
	return nil
}

func (r *Reviewer) rejectFormat(group idSet, snap *style.Snapshot) {
	r.doc.UpdateAttributed(group.match, func(f *style.Properties) {
		if snap != nil {
			r.applier.UnapplyStyle(*snap, f)
		}
		f.Delete(style.KeyChangeID)
	})
}

// deletionOwners maps marker anchors to their pending deletion.
func (r *Reviewer) deletionOwners() map[richtext.AnchorID]changes.ID {
	out := make(map[richtext.AnchorID]changes.ID)
	for _, id := range r.reg.DeletedChanges() {
		if rec, ok := r.reg.Record(id); ok {
			out[rec.Marker.Anchor] = id
		}
	}
	return out
}
