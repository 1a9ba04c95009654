package changes

import (
	"fmt"

	"github.com/dshills/redline/internal/engine/fragment"
	"github.com/dshills/redline/internal/engine/style"
)

// ID identifies a change record. The zero ID means "no change".
type ID int

// Kind is the kind of a tracked change.
type Kind uint8

// Change kinds.
const (
	KindUnknown Kind = iota
	Insertion
	Deletion
	FormatChange
)

var kindNames = [...]string{
	KindUnknown:  "unknown",
	Insertion:    "insertion",
	Deletion:     "deletion",
	FormatChange: "format-change",
}

// String returns the serialized name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// ParseKind returns the kind for a serialized name.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if k != int(KindUnknown) && n == name {
			return Kind(k), true
		}
	}
	return KindUnknown, false
}

// Record describes one tracked change.
type Record struct {
	ID        ID
	Kind      Kind
	Title     string
	Author    string
	Timestamp string

	// Enabled reports whether tracking was on when the change was made.
	Enabled bool

	// AcceptedRejected is set once the change has been accepted or
	// rejected. The record stays but graph queries skip it.
	AcceptedRejected bool

	// Format holds the before/after properties of a format change.
	Format *style.Snapshot

	// Deleted holds the content removed by a deletion.
	Deleted *fragment.Fragment

	// Marker is the placeholder of a deletion in the live document.
	Marker *fragment.Marker

	// Extra carries metadata the registry does not interpret.
	Extra map[string]string
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	out.Format = r.Format.Clone()
	out.Deleted = r.Deleted.Clone()
	out.Marker = r.Marker.Clone()
	if r.Extra != nil {
		out.Extra = make(map[string]string, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = v
		}
	}
	return out
}
