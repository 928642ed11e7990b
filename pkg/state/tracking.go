package state

// DependencySet is the ordered, deduplicated set of paths read during one
// synchronous evaluation. It is owned by that evaluation alone.
type DependencySet struct {
	paths []string
	index map[string]struct{}
}

// NewDependencySet creates an empty set.
func NewDependencySet() *DependencySet {
	return &DependencySet{index: make(map[string]struct{})}
}

// Add records path. Duplicates are ignored.
func (d *DependencySet) Add(path string) {
	if _, ok := d.index[path]; ok {
		return
	}
	d.index[path] = struct{}{}
	d.paths = append(d.paths, path)
}

// Has reports whether path was recorded.
func (d *DependencySet) Has(path string) bool {
	if d == nil {
		return false
	}
	_, ok := d.index[path]
	return ok
}

// Paths returns the recorded paths in first-read order.
func (d *DependencySet) Paths() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.paths))
	copy(out, d.paths)
	return out
}

// Len returns the number of recorded paths.
func (d *DependencySet) Len() int {
	if d == nil {
		return 0
	}
	return len(d.paths)
}

// Tracker holds the single active DependencySet.
//
// Evaluations install their set with Run and the previous set is restored
// when they return, so nested evaluations are strictly sequential.
type Tracker struct {
	current *DependencySet
}

// Run installs set as the active dependency set for the duration of fn.
// The previous set is restored even if fn panics.
func (t *Tracker) Run(set *DependencySet, fn func()) {
	old := t.current
	t.current = set
	defer func() { t.current = old }()
	fn()
}

// Track runs fn under a fresh DependencySet and returns it.
func (t *Tracker) Track(fn func()) *DependencySet {
	set := NewDependencySet()
	t.Run(set, fn)
	return set
}

// Untracked runs fn with tracking disabled.
func (t *Tracker) Untracked(fn func()) {
	t.Run(nil, fn)
}

// Active reports whether reads are currently being recorded.
func (t *Tracker) Active() bool {
	return t.current != nil
}

// Record adds path to the active set, if any.
func (t *Tracker) Record(path string) {
	if t.current != nil {
		t.current.Add(path)
	}
}
