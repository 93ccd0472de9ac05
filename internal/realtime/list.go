package realtime

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Row is anything identified by a string id.
type Row interface {
	RowID() string
}

// List is a local copy of a filtered table kept current by row changes.
// Concurrent changes are applied in arrival order; the last write wins.
type List[T Row] struct {
	mu   sync.RWMutex
	rows []T
}

// NewList starts a list from an initial fetch.
func NewList[T Row](rows []T) *List[T] {
	l := &List[T]{}
	l.Replace(rows)
	return l
}

// Replace swaps the whole content, e.g. after a resync.
func (l *List[T]) Replace(rows []T) {
	cp := make([]T, len(rows))
	copy(cp, rows)
	l.mu.Lock()
	l.rows = cp
	l.mu.Unlock()
}

// Snapshot returns a copy of the current rows.
func (l *List[T]) Snapshot() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	cp := make([]T, len(l.rows))
	copy(cp, l.rows)
	return cp
}

func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.rows)
}

// Apply mutates the list by id match. An INSERT for an id already present
// replaces it, and an UPDATE for an unknown id appends the row.
func (l *List[T]) Apply(msg Message) error {
	switch msg.Type {
	case Insert, Update:
		var row T
		if err := json.Unmarshal(msg.Record, &row); err != nil {
			return fmt.Errorf("decode %s record: %w", msg.Table, err)
		}
		l.upsert(row)
	case Delete:
		id := ""
		if msg.Old != nil {
			id = msg.Old.ID
		}
		if id == "" {
			return fmt.Errorf("delete on %s without old id", msg.Table)
		}
		l.remove(id)
	default:
		return fmt.Errorf("unknown event type %q", msg.Type)
	}
	return nil
}

func (l *List[T]) upsert(row T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := row.RowID()
	for i := range l.rows {
		if l.rows[i].RowID() == id {
			l.rows[i] = row
			return
		}
	}
	l.rows = append(l.rows, row)
}

func (l *List[T]) remove(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.rows {
		if l.rows[i].RowID() == id {
			l.rows = append(l.rows[:i], l.rows[i+1:]...)
			return
		}
	}
}
