package graph

// arena is dense storage with generational keys. Removing an entry bumps its
// generation, so keys handed out before the removal stop resolving even after
// the index is reused.
type arena[V any] struct {
	entries []entry[V]
	free    []uint32
	count   int
}

type entry[V any] struct {
	value    V
	gen      uint32
	occupied bool
}

func (a *arena[V]) insert(v V) key {
	a.count++
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		e := &a.entries[idx]
		e.gen++
		e.value = v
		e.occupied = true
		return key{index: idx, gen: e.gen}
	}
	a.entries = append(a.entries, entry[V]{value: v, gen: 1, occupied: true})
	return key{index: uint32(len(a.entries) - 1), gen: 1}
}

func (a *arena[V]) get(k key) (V, bool) {
	var zero V
	if int(k.index) >= len(a.entries) {
		return zero, false
	}
	e := &a.entries[k.index]
	if !e.occupied || e.gen != k.gen {
		return zero, false
	}
	return e.value, true
}

func (a *arena[V]) contains(k key) bool {
	_, ok := a.get(k)
	return ok
}

func (a *arena[V]) remove(k key) (V, bool) {
	v, ok := a.get(k)
	if !ok {
		return v, false
	}
	var zero V
	e := &a.entries[k.index]
	e.value = zero
	e.occupied = false
	a.free = append(a.free, k.index)
	a.count--
	return v, true
}

// keys returns the live keys in index order.
func (a *arena[V]) keys() []key {
	keys := make([]key, 0, a.count)
	for i := range a.entries {
		if a.entries[i].occupied {
			keys = append(keys, key{index: uint32(i), gen: a.entries[i].gen})
		}
	}
	return keys
}

func (a *arena[V]) len() int {
	return a.count
}

// clone copies the arena, mapping every live value through cp.
func (a *arena[V]) clone(cp func(V) V) arena[V] {
	out := arena[V]{
		entries: make([]entry[V], len(a.entries)),
		free:    append([]uint32(nil), a.free...),
		count:   a.count,
	}
	for i, e := range a.entries {
		out.entries[i] = entry[V]{gen: e.gen, occupied: e.occupied}
		if e.occupied {
			out.entries[i].value = cp(e.value)
		}
	}
	return out
}
