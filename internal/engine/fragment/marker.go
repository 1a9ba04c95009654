package fragment

import "github.com/dshills/redline/internal/engine/richtext"

// Marker is the placeholder left where deleted content used to be.
type Marker struct {
	ChangeID int
	Anchor   richtext.AnchorID

	listStyles map[richtext.ListID]string
}

// NewMarker creates a marker for a deletion, placed at anchor.
func NewMarker(changeID int, anchor richtext.AnchorID) *Marker {
	return &Marker{ChangeID: changeID, Anchor: anchor}
}

// SetDeletedListStyle records the style of a list that was deleted as a
// whole, so it can be recreated after the list itself is gone.
func (m *Marker) SetDeletedListStyle(id richtext.ListID, style string) {
	if m.listStyles == nil {
		m.listStyles = make(map[richtext.ListID]string)
	}
	m.listStyles[id] = style
}

// DeletedListStyle returns the recorded style of a deleted list, or the
// default list style when none was recorded.
func (m *Marker) DeletedListStyle(id richtext.ListID) string {
	if s, ok := m.listStyles[id]; ok && s != "" {
		return s
	}
	return richtext.DefaultListStyle
}

// HasDeletedListStyle reports whether a style was recorded for id.
func (m *Marker) HasDeletedListStyle(id richtext.ListID) bool {
	_, ok := m.listStyles[id]
	return ok
}

// DeletedListStyles returns a copy of the recorded list styles.
func (m *Marker) DeletedListStyles() map[richtext.ListID]string {
	out := make(map[richtext.ListID]string, len(m.listStyles))
	for id, s := range m.listStyles {
		out[id] = s
	}
	return out
}

// Clone returns a copy of the marker.
func (m *Marker) Clone() *Marker {
	if m == nil {
		return nil
	}
	c := &Marker{ChangeID: m.ChangeID, Anchor: m.Anchor}
	for id, s := range m.listStyles {
		c.SetDeletedListStyle(id, s)
	}
	return c
}
