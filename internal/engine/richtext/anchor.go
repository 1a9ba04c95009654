package richtext

// AnchorID identifies an anchor.
type AnchorID int

// AnchorAt is an anchor and its current position.
type AnchorAt struct {
	ID  AnchorID
	Pos Position
}

type anchor struct {
	id  AnchorID
	pos Position
}

// AddAnchor places a new anchor at pos, after any anchor already there.
// Text inserted at an anchor's position lands after the anchor.
func (d *Document) AddAnchor(pos Position) AnchorID {
	id := d.nextAnchor
	d.nextAnchor++
	d.place(anchor{id: id, pos: pos})
	return id
}

// AnchorPosition returns the current position of an anchor.
func (d *Document) AnchorPosition(id AnchorID) (Position, bool) {
	if i := d.anchorIndex(id); i >= 0 {
		return d.anchors[i].pos, true
	}
	return 0, false
}

// RemoveAnchor deletes an anchor. Unknown ids are ignored.
func (d *Document) RemoveAnchor(id AnchorID) {
	if i := d.anchorIndex(id); i >= 0 {
		d.anchors = append(d.anchors[:i], d.anchors[i+1:]...)
	}
}

// MoveAnchor moves an anchor to pos, after any anchor already there.
func (d *Document) MoveAnchor(id AnchorID, pos Position) bool {
	i := d.anchorIndex(id)
	if i < 0 {
		return false
	}
	d.anchors = append(d.anchors[:i], d.anchors[i+1:]...)
	d.place(anchor{id: id, pos: pos})
	return true
}

// AnchorsAfter returns the anchors sharing id's position that are ordered
// after it.
func (d *Document) AnchorsAfter(id AnchorID) []AnchorID {
	i := d.anchorIndex(id)
	if i < 0 {
		return nil
	}
	var out []AnchorID
	for _, a := range d.anchors[i+1:] {
		if a.pos != d.anchors[i].pos {
			break
		}
		out = append(out, a.id)
	}
	return out
}

// Anchors returns every anchor in document order. Anchors sharing a
// position keep their relative order.
func (d *Document) Anchors() []AnchorAt {
	out := make([]AnchorAt, len(d.anchors))
	for i, a := range d.anchors {
		out[i] = AnchorAt{ID: a.id, Pos: a.pos}
	}
	return out
}

// AnchorsWithin returns the anchors strictly inside r in document order.
func (d *Document) AnchorsWithin(r Range) []AnchorAt {
	var out []AnchorAt
	for _, a := range d.anchors {
		if a.pos > r.Start && a.pos < r.End {
			out = append(out, AnchorAt{ID: a.id, Pos: a.pos})
		}
	}
	return out
}

func (d *Document) anchorIndex(id AnchorID) int {
	for i, a := range d.anchors {
		if a.id == id {
			return i
		}
	}
	return -1
}

func (d *Document) place(a anchor) {
	i := len(d.anchors)
	for i > 0 && d.anchors[i-1].pos > a.pos {
		i--
	}
	d.anchors = append(d.anchors, anchor{})
	copy(d.anchors[i+1:], d.anchors[i:])
	d.anchors[i] = a
}

func (d *Document) shiftInsert(pos Position, n int) {
	if n == 0 {
		return
	}
	for i := range d.anchors {
		if d.anchors[i].pos > pos {
			d.anchors[i].pos += n
		}
	}
}

func (d *Document) shiftRemove(start, end Position) {
	for i := range d.anchors {
		switch p := d.anchors[i].pos; {
		case p > end:
			d.anchors[i].pos -= end - start
		case p > start:
			d.anchors[i].pos = start
		}
	}
}
