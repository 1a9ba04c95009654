package history

import (
	"time"

	"github.com/dshills/redline/internal/engine/changes"
	"github.com/dshills/redline/internal/engine/richtext"
)

// State is the session state commands operate on.
type State struct {
	Doc      *richtext.Document
	Registry *changes.Registry
}

// Snapshot is a deep copy of a State.
type Snapshot struct {
	doc      *richtext.Document
	registry *changes.Registry
}

// Capture copies st.
func Capture(st State) *Snapshot {
	return &Snapshot{
		doc:      st.Doc.Clone(),
		registry: st.Registry.Clone(),
	}
}

// Restore replaces the contents of st with the snapshot. The snapshot
// itself is not modified and can be restored again.
func (s *Snapshot) Restore(st State) {
	st.Doc.Restore(s.doc)
	st.Registry.Restore(s.registry)
}

// Len returns the document length at capture time.
func (s *Snapshot) Len() int {
	return s.doc.Len()
}

// OperationInfo provides read-only info about an undo entry.
type OperationInfo struct {
	Description string
	Timestamp   time.Time
	LengthDelta int // document length after minus before

	// Steps describes the commands of a compound entry in execution order.
	Steps []OperationInfo
}

type lengthDelta interface {
	LengthDelta() int
}

func infoOf(cmd Command, ts time.Time) OperationInfo {
	info := OperationInfo{Description: cmd.Description(), Timestamp: ts}
	if d, ok := cmd.(lengthDelta); ok {
		info.LengthDelta = d.LengthDelta()
	}
	if c, ok := cmd.(*CompoundCommand); ok {
		info.Steps = make([]OperationInfo, len(c.Commands))
		for i, sub := range c.Commands {
			info.Steps[i] = infoOf(sub, ts)
		}
	}
	return info
}
