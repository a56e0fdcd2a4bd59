package heap

// AttrTable maps attribute names to heap refs, with copy-on-write entry
// sharing and an ordered parent-chain fallback (multiple inheritance
// walks parents depth-first). COW sharing makes spawning an instance's
// table from its class template O(1).
type AttrTable struct {
	entries *entryMap
	parents []*AttrTable
}

// entryMap is the shared, possibly-aliased backing store. shared is true
// once more than one AttrTable points at it; the first write after that
// forks a private copy.
type entryMap struct {
	m      map[string]*Object
	shared bool
}

// NewAttrTable creates an empty table with the given parent chain, walked
// depth-first in order on a lookup miss.
func NewAttrTable(parents ...*AttrTable) *AttrTable {
	return &AttrTable{
		entries: &entryMap{m: make(map[string]*Object)},
		parents: parents,
	}
}

// Derive returns a new table that shares t's entry storage until either
// table writes, at which point the writer forks. Used to spawn an
// instance's attribute table from its class's template in O(1).
func (t *AttrTable) Derive() *AttrTable {
	t.entries.shared = true
	return &AttrTable{entries: t.entries, parents: []*AttrTable{t}}
}

// Get performs direct lookup, falling through the parent chain depth-first
// on a miss. Returns (value, true) or (nil, false).
func (t *AttrTable) Get(name string) (*Object, bool) {
	if v, ok := t.entries.m[name]; ok {
		return v, true
	}
	for _, p := range t.parents {
		if v, ok := p.Get(name); ok {
			return v, true
		}
	}
	return nil, false
}

// GetOwn looks up name only in t's own entries, ignoring parents.
func (t *AttrTable) GetOwn(name string) (*Object, bool) {
	v, ok := t.entries.m[name]
	return v, ok
}

// GetFromBase skips t's own entries and searches only the parent chain;
// used to implement super-style "from-base" lookups.
func (t *AttrTable) GetFromBase(name string) (*Object, bool) {
	for _, p := range t.parents {
		if v, ok := p.Get(name); ok {
			return v, true
		}
	}
	return nil, false
}

// Set stores name = value in t's own entries, forking the shared backing
// map first if another table still points at it.
func (t *AttrTable) Set(name string, value *Object) {
	t.fork()
	t.entries.m[name] = value
}

// Delete removes name from t's own entries, if present.
func (t *AttrTable) Delete(name string) {
	t.fork()
	delete(t.entries.m, name)
}

func (t *AttrTable) fork() {
	if !t.entries.shared {
		return
	}
	cp := make(map[string]*Object, len(t.entries.m))
	for k, v := range t.entries.m {
		cp[k] = v
	}
	t.entries = &entryMap{m: cp}
}

// Keys returns t's own entry names, not including parents, in no
// particular order.
func (t *AttrTable) Keys() []string {
	keys := make([]string, 0, len(t.entries.m))
	for k := range t.entries.m {
		keys = append(keys, k)
	}
	return keys
}

// AddParent appends an additional parent table to the chain (multiple
// inheritance: bases are searched in declaration order).
func (t *AttrTable) AddParent(p *AttrTable) {
	t.parents = append(t.parents, p)
}
