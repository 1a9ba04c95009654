package changes

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dshills/redline/internal/engine/fragment"
	"github.com/dshills/redline/internal/engine/style"
)

// Registry owns the change records of one document session.
type Registry struct {
	mu sync.RWMutex

	records    map[ID]*Record
	parent     map[ID]ID
	children   map[ID][]ID
	duplicates map[ID][]ID
	original   map[ID]ID
	loaded     map[string]ID
	lastID     ID

	author        string
	recordChanges bool
	now           func() time.Time
	logger        *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		records:       make(map[ID]*Record),
		parent:        make(map[ID]ID),
		children:      make(map[ID][]ID),
		duplicates:    make(map[ID][]ID),
		original:      make(map[ID]ID),
		loaded:        make(map[string]ID),
		recordChanges: true,
		now:           time.Now,
		logger:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FormatChangeID allocates a format-change record. A non-zero existing id
// becomes the new record's parent.
func (r *Registry) FormatChangeID(title string, newFormat, oldFormat style.Properties, existing ID) ID {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.newRecordLocked(FormatChange, title)
	rec.Format = &style.Snapshot{Before: oldFormat.Clone(), After: newFormat.Clone()}
	return r.addLocked(rec, existing)
}

// InsertChangeID allocates an insertion record. A non-zero existing id
// becomes the new record's parent.
func (r *Registry) InsertChangeID(title string, existing ID) ID {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.addLocked(r.newRecordLocked(Insertion, title), existing)
}

// DeleteChangeID allocates a deletion record holding frag, which may be
// replaced once the content is materialized. A non-zero existing id becomes
// the new record's parent.
func (r *Registry) DeleteChangeID(title string, frag *fragment.Fragment, existing ID) ID {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.newRecordLocked(Deletion, title)
	rec.Deleted = frag
	return r.addLocked(rec, existing)
}

// Declare registers a record read from a stream's metadata block under key
// and returns its id. The record's ID field is ignored.
func (r *Registry) Declare(key string, rec Record) ID {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastID++
	rec = rec.Clone()
	rec.ID = r.lastID
	r.records[rec.ID] = &rec
	r.loaded[key] = rec.ID
	return rec.ID
}

// LoadedChangeID returns the id declared under key, or 0.
func (r *Registry) LoadedChangeID(key string) ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded[key]
}

// MergeableID walks up from existing and returns the first change of the
// given kind and title, or 0. Editing code uses it to extend a change
// instead of allocating a new one.
func (r *Registry) MergeableID(kind Kind, title string, existing ID) ID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, n := existing, 0; id != 0 && n <= len(r.records); id, n = r.parentLocked(id), n+1 {
		rec, ok := r.records[id]
		if !ok || rec.AcceptedRejected {
			continue
		}
		if rec.Kind == kind && rec.Title == title {
			return id
		}
	}
	return 0
}

// Split clones record id under a fresh id and records the clone as a
// duplicate of id. It returns 0 if id is unknown.
func (r *Registry) Split(id ID) ID {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return 0
	}
	dup := rec.Clone()
	dup.Marker = nil
	r.lastID++
	dup.ID = r.lastID
	r.records[dup.ID] = &dup
	r.duplicates[id] = append(r.duplicates[id], dup.ID)
	r.original[dup.ID] = id
	r.logger.Debug("split change", "id", id, "duplicate", dup.ID)
	return dup.ID
}

// CreateDuplicateChangeID allocates a bare id that refers back to existing.
// It returns 0 if existing is unknown.
func (r *Registry) CreateDuplicateChangeID(existing ID) ID {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.recordLocked(existing); !ok {
		return 0
	}
	r.lastID++
	dup := r.lastID
	r.duplicates[existing] = append(r.duplicates[existing], dup)
	r.original[dup] = existing
	return dup
}

// IsDuplicateChangeID reports whether id was created by Split or
// CreateDuplicateChangeID.
func (r *Registry) IsDuplicateChangeID(id ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.original[id]
	return ok
}

// OriginalChangeID returns the id dup was duplicated from, or 0.
func (r *Registry) OriginalChangeID(dup ID) ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.original[dup]
}

// Resolve follows duplicate links back to the original id. Ids that are
// not duplicates resolve to themselves.
func (r *Registry) Resolve(id ID) ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveLocked(id)
}

// Duplicates returns the ids duplicated directly from id.
func (r *Registry) Duplicates(id ID) []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]ID(nil), r.duplicates[id]...)
}

// IsParent reports whether parent is child or one of its ancestors.
// Accepted or rejected records never match but do not break the chain.
func (r *Registry) IsParent(parent, child ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if parent == 0 {
		return false
	}
	for id, n := child, 0; id != 0 && n <= len(r.records); id, n = r.parent[id], n+1 {
		if id == parent {
			rec, ok := r.recordLocked(id)
			return ok && !rec.AcceptedRejected
		}
	}
	return false
}

// SetParent links child under parent. It is idempotent and reports whether
// the link is in place afterwards. A child keeps its first parent, and links
// that would make a change its own ancestor are refused.
func (r *Registry) SetParent(child, parent ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if child == 0 || parent == 0 {
		return false
	}
	if child == parent {
		r.logger.Debug("refused self parent", "id", child)
		return false
	}
	if p, ok := r.parent[child]; ok {
		if p != parent {
			r.logger.Debug("kept existing parent", "child", child, "parent", p, "refused", parent)
		}
		return p == parent
	}
	for id, n := parent, 0; id != 0 && n <= len(r.records); id, n = r.parent[id], n+1 {
		if id == child {
			r.logger.Debug("refused parent cycle", "child", child, "parent", parent)
			return false
		}
	}
	r.parent[child] = parent
	r.children[parent] = append(r.children[parent], child)
	return true
}

// Parent returns the nearest ancestor of id that is not accepted or
// rejected, or 0.
func (r *Registry) Parent(id ID) ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.parentLocked(id)
}

// Children returns the direct children of id in id order.
func (r *Registry) Children(id ID) []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := append([]ID(nil), r.children[id]...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AcceptRejectChange sets the accepted-rejected flag of id. The record is
// kept. It reports whether id has a record.
func (r *Registry) AcceptRejectChange(id ID, set bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return false
	}
	rec.AcceptedRejected = set
	return true
}

// Record returns a copy of the record for id. Bare duplicate ids return
// their original's record.
func (r *Registry) Record(id ID) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.recordLocked(id)
	if !ok {
		return Record{}, false
	}
	return rec.Clone(), true
}

// Has reports whether id has a record of its own.
func (r *Registry) Has(id ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.records[id]
	return ok
}

// Kind returns the kind of id, or KindUnknown.
func (r *Registry) Kind(id ID) Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rec, ok := r.recordLocked(id); ok {
		return rec.Kind
	}
	return KindUnknown
}

// IsAcceptedRejected reports whether id has been accepted or rejected.
func (r *Registry) IsAcceptedRejected(id ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.recordLocked(id)
	return ok && rec.AcceptedRejected
}

// IDs returns every record id in allocation order.
func (r *Registry) IDs() []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ID, 0, len(r.records))
	for id := range r.records {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ChangeList returns the logical changes for display: records that are
// neither duplicates nor accepted or rejected, in allocation order.
func (r *Registry) ChangeList() []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ID
	for id, rec := range r.records {
		if _, dup := r.original[id]; dup || rec.AcceptedRejected {
			continue
		}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DeletedChanges returns the deletions that still have a marker in the
// document, in allocation order.
func (r *Registry) DeletedChanges() []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ID
	for id, rec := range r.records {
		if rec.Kind == Deletion && rec.Marker != nil && !rec.AcceptedRejected {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Author returns the author stamped on new records.
func (r *Registry) Author() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.author
}

// SetAuthor changes the author stamped on new records.
func (r *Registry) SetAuthor(author string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.author = author
}

// RecordChanges reports whether new records are marked as tracked.
func (r *Registry) RecordChanges() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.recordChanges
}

// SetRecordChanges changes whether new records are marked as tracked.
func (r *Registry) SetRecordChanges(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recordChanges = enabled
}

// Clone returns a deep copy of the registry sharing its options.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := &Registry{
		records:       make(map[ID]*Record, len(r.records)),
		parent:        make(map[ID]ID, len(r.parent)),
		children:      make(map[ID][]ID, len(r.children)),
		duplicates:    make(map[ID][]ID, len(r.duplicates)),
		original:      make(map[ID]ID, len(r.original)),
		loaded:        make(map[string]ID, len(r.loaded)),
		lastID:        r.lastID,
		author:        r.author,
		recordChanges: r.recordChanges,
		now:           r.now,
		logger:        r.logger,
	}
	for id, rec := range r.records {
		c := rec.Clone()
		out.records[id] = &c
	}
	for k, v := range r.parent {
		out.parent[k] = v
	}
	for k, v := range r.children {
		out.children[k] = append([]ID(nil), v...)
	}
	for k, v := range r.duplicates {
		out.duplicates[k] = append([]ID(nil), v...)
	}
	for k, v := range r.original {
		out.original[k] = v
	}
	for k, v := range r.loaded {
		out.loaded[k] = v
	}
	return out
}

// Restore replaces the contents of r with a deep copy of src.
func (r *Registry) Restore(src *Registry) {
	c := src.Clone()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records, r.parent, r.children = c.records, c.parent, c.children
	r.duplicates, r.original, r.loaded = c.duplicates, c.original, c.loaded
	r.lastID = c.lastID
	r.author, r.recordChanges = c.author, c.recordChanges
}

func (r *Registry) newRecordLocked(kind Kind, title string) *Record {
	return &Record{
		Kind:      kind,
		Title:     title,
		Author:    r.author,
		Timestamp: r.now().UTC().Format(time.RFC3339),
		Enabled:   r.recordChanges,
	}
}

func (r *Registry) addLocked(rec *Record, existing ID) ID {
	r.lastID++
	rec.ID = r.lastID
	r.records[rec.ID] = rec
	if _, ok := r.recordLocked(existing); ok && existing != rec.ID {
		r.parent[rec.ID] = existing
		r.children[existing] = append(r.children[existing], rec.ID)
	}
	return rec.ID
}

func (r *Registry) recordLocked(id ID) (*Record, bool) {
	if rec, ok := r.records[id]; ok {
		return rec, true
	}
	if orig, ok := r.original[id]; ok {
		rec, ok := r.records[r.resolveLocked(orig)]
		return rec, ok
	}
	return nil, false
}

func (r *Registry) resolveLocked(id ID) ID {
	for n := 0; n <= len(r.original); n++ {
		orig, ok := r.original[id]
		if !ok {
			return id
		}
		id = orig
	}
	return id
}

func (r *Registry) parentLocked(id ID) ID {
	p := r.parent[id]
	for n := 0; p != 0 && n <= len(r.records); n++ {
		rec, ok := r.records[p]
		if ok && !rec.AcceptedRejected {
			return p
		}
		p = r.parent[p]
	}
	return 0
}
