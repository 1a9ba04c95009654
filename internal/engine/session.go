package engine

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/dshills/redline/internal/engine/changes"
	"github.com/dshills/redline/internal/engine/history"
	"github.com/dshills/redline/internal/engine/materialize"
	"github.com/dshills/redline/internal/engine/reconcile"
	"github.com/dshills/redline/internal/engine/review"
	"github.com/dshills/redline/internal/engine/richtext"
	"github.com/dshills/redline/internal/engine/stream"
	"github.com/dshills/redline/internal/engine/style"
)

// Re-export commonly used types for convenience.
type (
	// ChangeID identifies a change record.
	ChangeID = changes.ID

	// Kind is the kind of a tracked change.
	Kind = changes.Kind

	// OperationInfo describes an undo or redo entry.
	OperationInfo = history.OperationInfo

	// LoadStats summarizes the last load.
	LoadStats = reconcile.LoadStats
)

// Re-export constants.
const (
	Insertion    = changes.Insertion
	Deletion     = changes.Deletion
	FormatChange = changes.FormatChange
)

// ChangeInfo describes one logical change for display.
type ChangeInfo struct {
	ID     ChangeID
	Kind   Kind
	Title  string
	Author string
	Date   string
	Parent ChangeID

	// Preview is the start of the text the change touches. For deletions
	// it is the deleted text.
	Preview string

	// Length is the number of positions the change covers, or for a
	// deletion the number of positions its content would take once
	// restored.
	Length int
}

// Session is one editing session over a tracked-change document.
//
// All operations are thread-safe and can be called from multiple goroutines.
type Session struct {
	mu sync.RWMutex

	// Core components
	doc     *richtext.Document
	reg     *changes.Registry
	history *history.History
	mat     *materialize.Materializer
	applier style.Applier
	metrics *Metrics
	logger  *slog.Logger

	// Configuration
	author         string
	recordChanges  bool
	maxUndoEntries int
	previewLen     int
	newKey         func() string
	readOnly       bool

	lastLoad LoadStats
}

// New creates an empty session.
func New(opts ...Option) *Session {
	s := &Session{
		applier:        style.PropertyApplier{},
		logger:         slog.New(slog.DiscardHandler),
		recordChanges:  true,
		maxUndoEntries: DefaultMaxUndoEntries,
		previewLen:     DefaultPreviewLength,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.doc = richtext.New()
	s.reg = s.newRegistry()
	s.history = history.New(s.maxUndoEntries)
	s.mat = materialize.New(materialize.WithLogger(s.logger))
	s.metrics = newMetrics()
	return s
}

func (s *Session) newRegistry() *changes.Registry {
	return changes.NewRegistry(
		changes.WithAuthor(s.author),
		changes.WithRecordChanges(s.recordChanges),
		changes.WithLogger(s.logger),
	)
}

func (s *Session) state() history.State {
	return history.State{Doc: s.doc, Registry: s.reg}
}

// Load decodes a stream from r and replaces the session content with it.
func (s *Session) Load(r io.Reader) error {
	st, err := stream.Decode(r)
	if err != nil {
		s.metrics.loadFailed(err)
		return loadError(err)
	}
	return s.LoadStream(st)
}

// LoadStream replaces the session content with st. The load is one undo
// unit; a failed load leaves the session unchanged.
func (s *Session) LoadStream(st *stream.Stream) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats LoadStats
	cmd := history.NewSnapshotCommand("Load", func(state history.State) error {
		doc := richtext.New()
		reg := s.newRegistry()
		l := reconcile.NewLoader(doc, reg, reconcile.WithLogger(s.logger), reconcile.WithMaterializer(s.mat))
		if err := l.Load(st); err != nil {
			return err
		}
		stats = l.Stats()
		state.Doc.Restore(doc)
		state.Registry.Restore(reg)
		return nil
	})
	if err := s.history.Execute(cmd, s.state()); err != nil {
		s.metrics.loadFailed(err)
		return loadError(err)
	}

	s.lastLoad = stats
	s.metrics.observeLoad(stats)
	s.metrics.setOpen(len(s.reg.ChangeList()))
	s.logger.Info("stream loaded",
		"changes", stats.Declared,
		"splits", stats.Reconcile.Splits,
		"deletions", stats.Merge.Materialized,
		"length", s.doc.Len())
	return nil
}

func loadError(err error) error {
	if malformed(err) {
		return fmt.Errorf("load: %w: %w", ErrMalformed, err)
	}
	return fmt.Errorf("load: %w", err)
}

// Save writes the session content to w as a stream.
func (s *Session) Save(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var opts []stream.WriterOption
	if s.newKey != nil {
		opts = append(opts, stream.WithKeyGenerator(s.newKey))
	}
	if err := stream.Encode(w, stream.NewWriter(s.doc, s.reg, opts...).Write()); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

// Accept makes change id permanent.
func (s *Session) Accept(id ChangeID) error {
	st := decisionStep(id, true)
	_, err := s.resolve(st.name, always(true), st)
	return err
}

// Reject reverts change id.
func (s *Session) Reject(id ChangeID) error {
	st := decisionStep(id, false)
	_, err := s.resolve(st.name, always(false), st)
	return err
}

// AcceptAll accepts every open change by author, or by anyone when author
// is empty, as one undo unit. It returns the number of changes accepted.
func (s *Session) AcceptAll(author string) (int, error) {
	return s.resolve("Accept all changes", always(true), step{
		name: "Accept all changes",
		run:  func(r *review.Reviewer) (int, error) { return r.AcceptAll(author) },
	})
}

// RejectAll rejects every open change by author, or by anyone when author
// is empty, as one undo unit. It returns the number of changes rejected.
func (s *Session) RejectAll(author string) (int, error) {
	return s.resolve("Reject all changes", always(false), step{
		name: "Reject all changes",
		run:  func(r *review.Reviewer) (int, error) { return r.RejectAll(author) },
	})
}

// Resolve accepts (true) or rejects (false) each change in decisions as one
// undo unit, newest change first. Each decision is a step of that unit.
// Changes resolved as a side effect of an earlier decision are skipped. It
// returns the number of decisions applied.
func (s *Session) Resolve(decisions map[ChangeID]bool) (int, error) {
	ids := make([]ChangeID, 0, len(decisions))
	for id := range decisions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })

	steps := make([]step, len(ids))
	for i, id := range ids {
		steps[i] = decisionStep(id, decisions[id])
		steps[i].skipResolved = true
	}
	decided := func(id ChangeID) (bool, bool) {
		accept, ok := decisions[id]
		return accept, ok
	}
	return s.resolve("Review changes", decided, steps...)
}

// step is one recorded command of a review operation. run returns the
// number of changes it resolved.
type step struct {
	name string
	run  func(r *review.Reviewer) (int, error)

	// skipResolved makes a step of an already resolved change a no-op.
	id           ChangeID
	skipResolved bool
}

func decisionStep(id ChangeID, accept bool) step {
	verb := "Reject"
	if accept {
		verb = "Accept"
	}
	return step{
		name: fmt.Sprintf("%s change %d", verb, id),
		id:   id,
		run: func(r *review.Reviewer) (int, error) {
			return 1, r.AcceptRejectChange(id, accept)
		},
	}
}

// decision reports whether change id is accepted and whether the
// operation decided it explicitly.
type decision func(id ChangeID) (accept, ok bool)

func always(accept bool) decision {
	return func(ChangeID) (bool, bool) { return accept, true }
}

// resolve runs steps in one history transaction called name, one snapshot
// command per step. Steps that resolve nothing are not recorded. Changes
// resolved as a side effect of a decision are counted with the decision of
// their nearest decided ancestor.
func (s *Session) resolve(name string, decide decision, steps ...step) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readOnly {
		return 0, ErrReadOnly
	}

	open := make(map[ChangeID]changes.Record)
	parents := make(map[ChangeID]ChangeID)
	for _, id := range s.reg.IDs() {
		if rec, ok := s.reg.Record(id); ok && !rec.AcceptedRejected {
			open[id] = rec
			parents[id] = s.reg.Parent(id)
		}
	}

	resolved := 0
	err := s.history.Transaction(name, s.state(), func() error {
		for _, st := range steps {
			if st.skipResolved && s.reg.IsAcceptedRejected(s.reg.Resolve(st.id)) {
				continue
			}
			var n int
			cmd := history.NewSnapshotCommand(st.name, func(state history.State) error {
				var err error
				n, err = st.run(s.reviewer(state))
				return err
			})
			if err := cmd.Execute(s.state()); err != nil {
				return err
			}
			if n > 0 {
				s.history.Push(cmd)
				resolved += n
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if resolved == 0 {
		return 0, nil
	}

	for id, rec := range open {
		if s.reg.Resolve(id) != id || !s.reg.IsAcceptedRejected(id) {
			continue
		}
		accept := false
		for c, n := id, 0; c != 0 && n <= len(parents); c, n = parents[c], n+1 {
			if a, ok := decide(c); ok {
				accept = a
				break
			}
		}
		s.metrics.reviewed(accept, rec.Kind)
	}
	s.metrics.setOpen(len(s.reg.ChangeList()))
	s.logger.Debug("review applied", "steps", len(steps), "resolved", resolved)
	return resolved, nil
}

func (s *Session) reviewer(st history.State) *review.Reviewer {
	return review.New(st.Doc, st.Registry,
		review.WithLogger(s.logger),
		review.WithApplier(s.applier),
		review.WithMaterializer(s.mat))
}

// Undo reverses the last load or review.
func (s *Session) Undo() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readOnly {
		return ErrReadOnly
	}
	if err := s.history.Undo(s.state()); err != nil {
		return err
	}
	s.metrics.history.WithLabelValues("undo").Inc()
	s.metrics.setOpen(len(s.reg.ChangeList()))
	return nil
}

// Redo reapplies the last undone operation.
func (s *Session) Redo() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readOnly {
		return ErrReadOnly
	}
	if err := s.history.Redo(s.state()); err != nil {
		return err
	}
	s.metrics.history.WithLabelValues("redo").Inc()
	s.metrics.setOpen(len(s.reg.ChangeList()))
	return nil
}

// CanUndo returns true if there are operations to undo.
func (s *Session) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.CanUndo()
}

// CanRedo returns true if there are operations to redo.
func (s *Session) CanRedo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.CanRedo()
}

// UndoInfo describes the undo entries, most recent first.
func (s *Session) UndoInfo() []OperationInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.UndoInfo()
}

// RedoInfo describes the redo entries, next to redo first.
func (s *Session) RedoInfo() []OperationInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.RedoInfo()
}

// Changes returns the open logical changes in allocation order.
func (s *Session) Changes() []ChangeInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.reg.ChangeList()
	out := make([]ChangeInfo, 0, len(ids))
	for _, id := range ids {
		if info, ok := s.changeLocked(id); ok {
			out = append(out, info)
		}
	}
	return out
}

// Change returns the description of change id. Split duplicates resolve to
// their original change.
func (s *Session) Change(id ChangeID) (ChangeInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.changeLocked(s.reg.Resolve(id))
}

func (s *Session) changeLocked(id ChangeID) (ChangeInfo, bool) {
	rec, ok := s.reg.Record(id)
	if !ok {
		return ChangeInfo{}, false
	}
	info := ChangeInfo{
		ID:     id,
		Kind:   rec.Kind,
		Title:  rec.Title,
		Author: rec.Author,
		Date:   rec.Timestamp,
		Parent: s.reg.Parent(id),
	}

	var text string
	if rec.Kind == changes.Deletion {
		if rec.Deleted != nil {
			text = rec.Deleted.Text()
			info.Length = s.mat.Length(rec.Deleted)
		}
	} else {
		text, info.Length = s.attributedText(id)
	}
	info.Preview = preview(text, s.previewLen)
	return info, true
}

// attributedText collects the text attributed to id or its duplicates and
// the number of positions it covers.
func (s *Session) attributedText(id ChangeID) (string, int) {
	match := func(c int) bool { return s.reg.Resolve(ChangeID(c)) == id }
	var sb strings.Builder
	s.doc.Walk(func(p *richtext.Paragraph, _ richtext.Position) bool {
		for _, r := range p.Runs {
			if c := r.Format.Int(style.KeyChangeID); c != 0 && match(c) {
				sb.WriteString(r.Text)
			}
		}
		return true
	})
	n := 0
	for _, r := range s.doc.ChangeRanges(match) {
		n += r.Len()
	}
	return sb.String(), n
}

func preview(text string, max int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}

// Text returns the plain text of the live document.
func (s *Session) Text() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Text()
}

// Len returns the length of the live document in positions.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Len()
}

// Document returns a copy of the live document.
func (s *Session) Document() *richtext.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// Registry returns a copy of the change registry.
func (s *Session) Registry() *changes.Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reg.Clone()
}

// LastLoad returns the statistics of the last successful load.
func (s *Session) LastLoad() LoadStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastLoad
}

// Metrics returns the session metrics.
func (s *Session) Metrics() *Metrics {
	return s.metrics
}

// IsReadOnly returns true if the session rejects reviews.
func (s *Session) IsReadOnly() bool {
	return s.readOnly
}
