package style

// Snapshot records the properties of a node before and after a format change.
type Snapshot struct {
	Before Properties
	After  Properties
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	return &Snapshot{
		Before: s.Before.Clone(),
		After:  s.After.Clone(),
	}
}

// Applier applies and reverts format snapshots on a node's properties.
// It is the boundary to the style subsystem, which resolves inheritance
// and named styles.
type Applier interface {
	// ApplyStyle applies the snapshot's After properties to target.
	ApplyStyle(snap Snapshot, target *Properties)

	// UnapplyStyle reverts the snapshot on target: After properties are
	// removed and Before properties restored.
	UnapplyStyle(snap Snapshot, target *Properties)
}

// PropertyApplier is an Applier that works on the property sets directly,
// without style inheritance.
type PropertyApplier struct{}

// ApplyStyle implements Applier.
func (PropertyApplier) ApplyStyle(snap Snapshot, target *Properties) {
	for k, v := range snap.After {
		target.put(k, v)
	}
}

// UnapplyStyle implements Applier.
func (PropertyApplier) UnapplyStyle(snap Snapshot, target *Properties) {
	for k := range snap.After {
		delete(*target, k)
	}
	for k, v := range snap.Before {
		target.put(k, v)
	}
}
