package label

// Snapshot is an immutable copy of a table taken after one replay.
// Infos[0] is the zero Info so that Infos[l] is the metadata of label l.
type Snapshot struct {
	Infos []Info
}

// Snapshot copies labels 0..Count() out of the table.
func (t *Table) Snapshot() *Snapshot {
	n := t.Count()
	infos := make([]Info, n+1)
	copy(infos, t.infos[:n+1])
	return &Snapshot{Infos: infos}
}

// Len returns the number of labels in the snapshot (label 0 excluded).
func (s *Snapshot) Len() int {
	if s == nil || len(s.Infos) == 0 {
		return 0
	}
	return len(s.Infos) - 1
}

// Get returns the metadata of l, or false if l is 0 or was not allocated
// in the snapshotted run.
func (s *Snapshot) Get(l Label) (Info, bool) {
	if l == 0 || int(l) > s.Len() {
		return Info{}, false
	}
	return s.Infos[l], true
}
