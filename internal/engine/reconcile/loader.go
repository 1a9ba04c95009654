package reconcile

import (
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/dshills/redline/internal/engine/changes"
	"github.com/dshills/redline/internal/engine/materialize"
	"github.com/dshills/redline/internal/engine/merge"
	"github.com/dshills/redline/internal/engine/richtext"
	"github.com/dshills/redline/internal/engine/stream"
	"github.com/dshills/redline/internal/engine/style"
)

// Errors returned by Load.
var (
	ErrMalformed        = errors.New("malformed token sequence")
	ErrDocumentNotEmpty = errors.New("document is not empty")
)

// LoadStats summarizes one load.
type LoadStats struct {
	Tokens    int
	Declared  int
	Reconcile Stats
	Merge     merge.Stats
}

type flowState struct {
	first      bool
	afterTable bool
}

type tableState struct {
	start      richtext.Position
	rows, cols int
	cell       int
	inCell     bool
	outer      flowState
}

type listContext struct {
	num   int
	style string
	level int
}

// Loader reads a stream into an empty document.
type Loader struct {
	doc    *richtext.Document
	reg    *changes.Registry
	rec    *Reconciler
	coord  *merge.Coordinator
	logger *slog.Logger

	pos    richtext.Position
	inPara bool
	flow   flowState
	tables []*tableState
	lists  []listContext
	listID map[int]richtext.ListID
	starts map[changes.ID]richtext.Position
	stats  LoadStats
}

// NewLoader creates a Loader filling doc and reg.
func NewLoader(doc *richtext.Document, reg *changes.Registry, opts ...Option) *Loader {
	cfg := newConfig(opts)
	if cfg.mat == nil {
		cfg.mat = materialize.New(materialize.WithLogger(cfg.logger))
	}
	l := &Loader{
		doc:    doc,
		reg:    reg,
		coord:  merge.New(doc, reg, cfg.mat, merge.WithLogger(cfg.logger)),
		logger: cfg.logger,
	}
	l.rec = New(reg, WithLogger(cfg.logger), WithListener(regionTracker{l}))
	return l
}

// Load declares the changes of s and builds its body. Content deleted by a
// change is removed once the body is complete. Load stops at the first
// malformed token; everything before it stays in the document.
func (l *Loader) Load(s *stream.Stream) error {
	if l.doc.Len() != 0 {
		return ErrDocumentNotEmpty
	}
	l.pos, l.inPara = 0, false
	l.flow = flowState{first: true}
	l.tables, l.lists = nil, nil
	l.listID = make(map[int]richtext.ListID)
	l.starts = make(map[changes.ID]richtext.Position)

	for _, d := range s.Declarations {
		l.reg.Declare(d.Key, d.Record())
		l.stats.Declared++
	}
	for i, t := range s.Body {
		if err := l.token(t); err != nil {
			return fmt.Errorf("token %d (%s): %w", i, t.Kind, err)
		}
		l.stats.Tokens++
	}
	switch {
	case l.inPara:
		return fmt.Errorf("%w: unterminated paragraph", ErrMalformed)
	case len(l.tables) > 0:
		return fmt.Errorf("%w: unterminated table", ErrMalformed)
	}
	if n := l.rec.Depth(); n > 0 {
		l.logger.Debug("closing regions left open", "count", n)
		l.rec.CloseAll()
	}
	if err := l.coord.ProcessDeleteChange(); err != nil {
		return err
	}
	l.logger.Debug("stream loaded", "tokens", l.stats.Tokens, "changes", l.stats.Declared, "length", l.doc.Len())
	return nil
}

// Stats returns the counters of the last load.
func (l *Loader) Stats() LoadStats {
	out := l.stats
	out.Reconcile = l.rec.Stats()
	out.Merge = l.coord.Stats()
	return out
}

// Reconciler returns the reconciler used for regions.
func (l *Loader) Reconciler() *Reconciler {
	return l.rec
}

func (l *Loader) token(t stream.Token) error {
	switch t.Kind {
	case stream.TokenRegionOpen:
		var detail *style.Snapshot
		if !t.Format.IsEmpty() {
			detail = &style.Snapshot{After: t.Format.Clone()}
		}
		l.rec.Open(t.Key, detail)
		return nil
	case stream.TokenRegionClose:
		l.rec.Close(t.Key)
		return nil
	case stream.TokenListStart:
		l.lists = append(l.lists, listContext{num: t.List, style: t.Style, level: t.Level})
		return nil
	case stream.TokenListEnd:
		if len(l.lists) == 0 {
			return fmt.Errorf("%w: list end without start", ErrMalformed)
		}
		l.lists = l.lists[:len(l.lists)-1]
		return nil
	}

	if t.Kind == stream.TokenCellStart || t.Kind == stream.TokenCellEnd || t.Kind == stream.TokenTableEnd {
		return l.tableToken(t)
	}
	if n := len(l.tables); n > 0 && !l.tables[n-1].inCell {
		return fmt.Errorf("%w: content between table cells", ErrMalformed)
	}

	switch t.Kind {
	case stream.TokenParagraphStart:
		return l.startParagraph(t)
	case stream.TokenParagraphEnd:
		if !l.inPara {
			return fmt.Errorf("%w: paragraph end outside paragraph", ErrMalformed)
		}
		l.inPara = false
		return nil
	case stream.TokenText:
		if !l.inPara {
			return fmt.Errorf("%w: text outside paragraph", ErrMalformed)
		}
		if t.Text == "" {
			return nil
		}
		if err := l.doc.InsertText(l.pos, t.Text, l.attributed(t.Format)); err != nil {
			return err
		}
		l.pos += utf8.RuneCountInString(t.Text)
		return nil
	case stream.TokenTableStart:
		if l.inPara {
			return fmt.Errorf("%w: table inside paragraph", ErrMalformed)
		}
		start, err := l.doc.InsertTable(l.pos, t.Rows, t.Cols, t.Format.Without(style.KeyChangeID))
		if err != nil {
			return err
		}
		l.tables = append(l.tables, &tableState{start: start, rows: t.Rows, cols: t.Cols, cell: -1, outer: l.flow})
		return nil
	}
	return fmt.Errorf("%w: unexpected %s", ErrMalformed, t.Kind)
}

func (l *Loader) tableToken(t stream.Token) error {
	if len(l.tables) == 0 {
		return fmt.Errorf("%w: %s outside table", ErrMalformed, t.Kind)
	}
	if l.inPara {
		return fmt.Errorf("%w: %s inside paragraph", ErrMalformed, t.Kind)
	}
	tbl := l.tables[len(l.tables)-1]

	switch t.Kind {
	case stream.TokenCellStart:
		if tbl.inCell {
			return fmt.Errorf("%w: nested cell start", ErrMalformed)
		}
		tbl.cell++
		if tbl.cell >= tbl.rows*tbl.cols {
			return fmt.Errorf("%w: more than %d cells", ErrMalformed, tbl.rows*tbl.cols)
		}
		row, col := tbl.cell/tbl.cols, tbl.cell%tbl.cols
		if !t.Format.IsEmpty() {
			if err := l.doc.SetCellFormat(tbl.start, row, col, t.Format.Without(style.KeyChangeID)); err != nil {
				return err
			}
		}
		pos, err := l.doc.CellPosition(tbl.start, row, col)
		if err != nil {
			return err
		}
		l.pos = pos
		l.flow = flowState{first: true}
		tbl.inCell = true

	case stream.TokenCellEnd:
		if !tbl.inCell {
			return fmt.Errorf("%w: cell end without start", ErrMalformed)
		}
		tbl.inCell = false

	case stream.TokenTableEnd:
		if tbl.inCell {
			return fmt.Errorf("%w: table end inside cell", ErrMalformed)
		}
		end, err := l.doc.TableEnd(tbl.start)
		if err != nil {
			return err
		}
		l.pos = end
		l.flow = tbl.outer
		l.flow.first, l.flow.afterTable = false, true
		l.tables = l.tables[:len(l.tables)-1]
	}
	return nil
}

func (l *Loader) startParagraph(t stream.Token) error {
	if l.inPara {
		return fmt.Errorf("%w: nested paragraph start", ErrMalformed)
	}
	attrs := richtext.BlockAttrs{Format: l.attributed(t.Format), Outline: t.Outline}
	if ref := l.listRef(t); ref != nil {
		attrs.List = ref
	}

	if l.flow.first || l.flow.afterTable {
		if err := l.doc.SetBlock(l.pos, attrs); err != nil {
			return err
		}
	} else {
		if err := l.doc.InsertBlock(l.pos, attrs); err != nil {
			return err
		}
		l.pos++
	}
	l.flow = flowState{}
	l.inPara = true
	return nil
}

// listRef maps the list of a paragraph start, or the enclosing list
// context, to a document list. Stream list numbers are kept as document
// list ids where they are free.
func (l *Loader) listRef(t stream.Token) *richtext.ListRef {
	num, listStyle, level := t.List, t.Style, t.Level
	if num == 0 && len(l.lists) > 0 {
		ctx := l.lists[len(l.lists)-1]
		num, listStyle, level = ctx.num, ctx.style, ctx.level
	}
	if num == 0 {
		return nil
	}
	id, ok := l.listID[num]
	if !ok {
		id = l.doc.RestoreList(richtext.ListID(num), listStyle)
		l.listID[num] = id
	}
	return &richtext.ListRef{ID: id, Level: level}
}

// attributed returns format tagged with the innermost open change.
func (l *Loader) attributed(format style.Properties) style.Properties {
	return format.WithChangeID(int(l.rec.Top()))
}

func (l *Loader) regionStarted(id changes.ID) {
	if l.reg.Kind(id) == changes.Deletion {
		l.starts[id] = l.pos
	}
}

func (l *Loader) regionEnded(id changes.ID) {
	start, ok := l.starts[id]
	if !ok {
		return
	}
	delete(l.starts, id)
	if start >= l.pos {
		return
	}
	if !l.coord.CheckForDeleteMerge(l.pos, id, start) {
		l.coord.Register(id, start, l.pos)
	}
}

type regionTracker struct{ l *Loader }

func (r regionTracker) RegionStarted(id changes.ID) { r.l.regionStarted(id) }

func (r regionTracker) RegionEnded(id changes.ID) { r.l.regionEnded(id) }
