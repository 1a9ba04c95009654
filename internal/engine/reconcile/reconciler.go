package reconcile

import (
	"log/slog"

	"github.com/dshills/redline/internal/engine/changes"
	"github.com/dshills/redline/internal/engine/style"
)

// Listener observes the regions the Reconciler opens and closes. Split
// regions end under the interrupted id and start again under the duplicate.
type Listener interface {
	RegionStarted(id changes.ID)
	RegionEnded(id changes.ID)
}

// Stats counts reconciler activity.
type Stats struct {
	Opened  int
	Closed  int
	Splits  int
	Ignored int
	Dropped int
}

type entry struct {
	id    changes.ID
	depth int
}

// Reconciler maintains the stack of open regions of one stream.
type Reconciler struct {
	reg      *changes.Registry
	listener Listener
	logger   *slog.Logger

	stack []entry
	stats Stats
}

// New creates a Reconciler resolving region keys through reg.
func New(reg *changes.Registry, opts ...Option) *Reconciler {
	cfg := newConfig(opts)
	return &Reconciler{reg: reg, listener: cfg.listener, logger: cfg.logger}
}

// Open enters the region of the change declared under key and returns the
// id now on top of the stack, or 0 if key is unknown. A non-nil detail is
// linked to the change even when the region is re-entered.
func (r *Reconciler) Open(key string, detail *style.Snapshot) changes.ID {
	id := r.reg.LoadedChangeID(key)
	if id == 0 {
		r.stats.Ignored++
		r.logger.Debug("ignored unknown region", "key", key)
		return 0
	}
	r.stats.Opened++
	if detail != nil {
		r.linkDetail(id, detail)
	}

	if len(r.stack) == 0 {
		r.push(id)
		return id
	}
	top := r.Top()
	switch {
	case r.matches(top, id):
		r.stack[len(r.stack)-1].depth++
		return top
	case id > r.reg.Resolve(top):
		r.reg.SetParent(id, top)
		r.push(id)
	default:
		r.splitStack(id)
		r.reg.SetParent(id, r.reg.Resolve(top))
		r.push(id)
	}
	return id
}

// Close leaves the region of the change declared under key. Regions opened
// inside it that belong to other changes are split: their duplicates stay
// open after it. A close without a matching open is dropped.
func (r *Reconciler) Close(key string) {
	id := r.reg.LoadedChangeID(key)
	if id == 0 {
		r.stats.Ignored++
		r.logger.Debug("ignored unknown region", "key", key)
		return
	}
	if !r.isOpen(id) {
		r.stats.Dropped++
		r.logger.Debug("dropped unmatched close", "key", key, "change", id)
		return
	}
	r.stats.Closed++
	if top := &r.stack[len(r.stack)-1]; r.matches(top.id, id) && top.depth > 1 {
		top.depth--
		return
	}
	r.closeTo(id)
}

// CloseAll leaves every open region, innermost first.
func (r *Reconciler) CloseAll() {
	for len(r.stack) > 0 {
		r.pop()
	}
}

// Top returns the innermost open change, or 0.
func (r *Reconciler) Top() changes.ID {
	if len(r.stack) == 0 {
		return 0
	}
	return r.stack[len(r.stack)-1].id
}

// Depth returns the number of distinct open regions.
func (r *Reconciler) Depth() int {
	return len(r.stack)
}

// Stack returns the open changes from the outermost in.
func (r *Reconciler) Stack() []changes.ID {
	out := make([]changes.ID, len(r.stack))
	for i, e := range r.stack {
		out[i] = e.id
	}
	return out
}

// Stats returns the activity counters.
func (r *Reconciler) Stats() Stats {
	return r.stats
}

// splitStack replaces every open region above target that is neither
// target nor one of its descendants with a split duplicate parented to the
// region below it.
func (r *Reconciler) splitStack(target changes.ID) {
	if len(r.stack) == 0 {
		return
	}
	top := r.stack[len(r.stack)-1]
	if r.matches(top.id, target) || r.reg.IsParent(target, top.id) {
		return
	}
	r.pop()
	dup := r.split(top.id)
	r.splitStack(target)
	r.repush(dup, top.depth)
}

// closeTo pops the stack down to and including the region of target.
// Descendants of target close with it; other regions are split and their
// duplicates reopened once target is closed.
func (r *Reconciler) closeTo(target changes.ID) {
	if len(r.stack) == 0 {
		return
	}
	top := r.pop()
	if r.matches(top.id, target) || r.reg.IsParent(target, top.id) {
		if !r.matches(top.id, target) {
			r.closeTo(target)
		}
		return
	}
	dup := r.split(top.id)
	r.closeTo(target)
	r.repush(dup, top.depth)
}

func (r *Reconciler) split(id changes.ID) changes.ID {
	dup := r.reg.Split(id)
	r.stats.Splits++
	r.logger.Debug("split region", "change", id, "duplicate", dup)
	return dup
}

func (r *Reconciler) repush(dup changes.ID, depth int) {
	if dup == 0 {
		return
	}
	if below := r.Top(); below != 0 {
		r.reg.SetParent(dup, below)
	}
	r.push(dup)
	r.stack[len(r.stack)-1].depth = depth
}

func (r *Reconciler) push(id changes.ID) {
	r.stack = append(r.stack, entry{id: id, depth: 1})
	if r.listener != nil {
		r.listener.RegionStarted(id)
	}
}

func (r *Reconciler) pop() entry {
	e := r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	if r.listener != nil {
		r.listener.RegionEnded(e.id)
	}
	return e
}

// matches reports whether the open region open belongs to change id, either
// directly or through a split duplicate.
func (r *Reconciler) matches(open, id changes.ID) bool {
	return open == id || r.reg.Resolve(open) == r.reg.Resolve(id)
}

func (r *Reconciler) isOpen(id changes.ID) bool {
	for _, e := range r.stack {
		if r.matches(e.id, id) {
			return true
		}
	}
	return false
}

func (r *Reconciler) linkDetail(id changes.ID, detail *style.Snapshot) {
	rec, ok := r.reg.Record(id)
	if !ok {
		return
	}
	snap := detail.Clone()
	if rec.Format != nil {
		snap = &style.Snapshot{
			Before: rec.Format.Before.Merge(detail.Before),
			After:  rec.Format.After.Merge(detail.After),
		}
	}
	r.reg.SetFormatSnapshot(id, snap)
}
