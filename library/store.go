package library

import "slices"

// table is the record container behind every registry: rows keyed by a
// sequential id, remembered in insertion order. Ids are never reused, even
// after a delete.
type table[T any] struct {
	rows   map[int64]*T
	order  []int64
	nextID int64
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[int64]*T), nextID: 1}
}

// insert assigns the next id and stores the row built for it.
func (t *table[T]) insert(build func(id int64) *T) int64 {
	id := t.nextID
	t.nextID++
	t.rows[id] = build(id)
	t.order = append(t.order, id)
	return id
}

// restore puts a row back under an id it already owns, as loaded from a snapshot.
func (t *table[T]) restore(id int64, row *T) {
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = row
	if id >= t.nextID {
		t.nextID = id + 1
	}
}

func (t *table[T]) get(id int64) (*T, bool) {
	row, ok := t.rows[id]
	return row, ok
}

func (t *table[T]) delete(id int64) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	if i := slices.Index(t.order, id); i >= 0 {
		t.order = slices.Delete(t.order, i, i+1)
	}
	return true
}

// each visits rows in insertion order until fn returns false.
func (t *table[T]) each(fn func(*T) bool) {
	for _, id := range t.order {
		if !fn(t.rows[id]) {
			return
		}
	}
}

func (t *table[T]) len() int { return len(t.order) }

// next reports the id the following insert will assign.
func (t *table[T]) next() int64 { return t.nextID }

// advance moves the id counter forward to at least n; it never moves back.
func (t *table[T]) advance(n int64) {
	if n > t.nextID {
		t.nextID = n
	}
}
