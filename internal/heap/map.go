package heap

import "fmt"

// mapEntry pairs a key Object with its value, preserving insertion order.
type mapEntry struct {
	key   *Object
	value *Object
}

// Map is the payload of Tag __map: an insertion-ordered mapping from
// key-ref to value-ref. Hashing for primitive key kinds is computed
// structurally here; user-class keys overriding __hash__ are handled one
// level up by the vm, which pre-hashes via the operator table before
// calling into Map.
type Map struct {
	index   map[any]int // hashKey(key) -> index into entries
	entries []mapEntry
}

// NewMap creates an empty, insertion-ordered map.
func NewMap() *Map {
	return &Map{index: make(map[any]int)}
}

// hashKey derives a comparable Go value for primitive key kinds so they
// can index into a native Go map; non-primitive keys (instances without a
// vm-resolved __hash__) fall back to pointer identity.
func hashKey(o *Object) any {
	switch o.Tag {
	case TagNone:
		return nil
	case TagBool:
		return o.Payload.(bool)
	case TagInt:
		return o.Payload.(int64)
	case TagFloat:
		return o.Payload.(float64)
	case TagStr:
		return o.Payload.(string)
	default:
		return o
	}
}

// HashKeyFor exposes hashKey for vm-computed custom hashes to override:
// callers that have already resolved __hash__ to an int64 should use that
// value directly instead of calling this.
func HashKeyFor(o *Object) any { return hashKey(o) }

func (m *Map) Get(key *Object) (*Object, bool) {
	i, ok := m.index[hashKey(key)]
	if !ok {
		return nil, false
	}
	return m.entries[i].value, true
}

// Set inserts or updates key = value. Existing keys keep their original
// insertion position; new keys are appended.
func (m *Map) Set(key, value *Object) {
	hk := hashKey(key)
	if i, ok := m.index[hk]; ok {
		m.entries[i].value = value
		return
	}
	m.index[hk] = len(m.entries)
	m.entries = append(m.entries, mapEntry{key: key, value: value})
}

// Delete removes key, if present, compacting the index but preserving the
// relative order of remaining entries.
func (m *Map) Delete(key *Object) bool {
	hk := hashKey(key)
	i, ok := m.index[hk]
	if !ok {
		return false
	}
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	delete(m.index, hk)
	for k, idx := range m.index {
		if idx > i {
			m.index[k] = idx - 1
		}
	}
	return true
}

func (m *Map) Len() int { return len(m.entries) }

// Keys returns keys in insertion order.
func (m *Map) Keys() []*Object {
	keys := make([]*Object, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.key
	}
	return keys
}

// Values returns values in insertion order, matching Keys.
func (m *Map) Values() []*Object {
	values := make([]*Object, len(m.entries))
	for i, e := range m.entries {
		values[i] = e.value
	}
	return values
}

// Each calls fn for every entry in insertion order.
func (m *Map) Each(fn func(key, value *Object)) {
	for _, e := range m.entries {
		fn(e.key, e.value)
	}
}

func (m *Map) String() string {
	return fmt.Sprintf("<map len=%d>", m.Len())
}
