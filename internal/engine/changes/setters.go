package changes

import (
	"github.com/dshills/redline/internal/engine/fragment"
	"github.com/dshills/redline/internal/engine/style"
)

// Each setter reports whether id has a record. Bare duplicate ids update
// their original.

// SetKind changes the kind of id.
func (r *Registry) SetKind(id ID, kind Kind) bool {
	return r.update(id, func(rec *Record) { rec.Kind = kind })
}

// SetTitle changes the title of id.
func (r *Registry) SetTitle(id ID, title string) bool {
	return r.update(id, func(rec *Record) { rec.Title = title })
}

// SetEnabled changes whether id was made with tracking enabled.
func (r *Registry) SetEnabled(id ID, enabled bool) bool {
	return r.update(id, func(rec *Record) { rec.Enabled = enabled })
}

// SetFormatSnapshot attaches a format snapshot to id.
func (r *Registry) SetFormatSnapshot(id ID, snap *style.Snapshot) bool {
	return r.update(id, func(rec *Record) { rec.Format = snap.Clone() })
}

// SetDeletedFragment attaches the deleted content to id.
func (r *Registry) SetDeletedFragment(id ID, frag *fragment.Fragment) bool {
	return r.update(id, func(rec *Record) { rec.Deleted = frag })
}

// SetMarker attaches the deletion marker to id. A nil marker detaches it.
func (r *Registry) SetMarker(id ID, m *fragment.Marker) bool {
	return r.update(id, func(rec *Record) { rec.Marker = m })
}

func (r *Registry) update(id ID, fn func(*Record)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.recordLocked(id)
	if !ok {
		return false
	}
	fn(rec)
	return true
}
