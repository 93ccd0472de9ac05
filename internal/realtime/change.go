package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// EventType is the kind of row change.
type EventType string

const (
	Insert EventType = "INSERT"
	Update EventType = "UPDATE"
	Delete EventType = "DELETE"
)

// Tables that can be subscribed to.
var Tables = map[string]bool{
	"projects":         true,
	"project_members":  true,
	"tasks":            true,
	"task_tags":        true,
	"comments":         true,
	"teams":            true,
	"team_members":     true,
	"team_invitations": true,
	"user_profiles":    true,
	"tags":             true,
}

// OldRecord identifies the row before an UPDATE or DELETE.
type OldRecord struct {
	ID string `json:"id"`
}

// Change is a row-change notification as published by the data-access layer.
type Change struct {
	Type            EventType  `json:"type"`
	Table           string     `json:"table"`
	Record          any        `json:"record,omitempty"`
	Old             *OldRecord `json:"old,omitempty"`
	CommitTimestamp time.Time  `json:"commitTimestamp"`

	// Columns holds the filterable column values of the row (e.g. projectId).
	Columns map[string]string `json:"-"`
}

// NewChange builds a change for row id. Columns always includes "id".
func NewChange(t EventType, table, id string, record any, columns map[string]string) Change {
	cols := make(map[string]string, len(columns)+1)
	for k, v := range columns {
		cols[k] = v
	}
	cols["id"] = id

	c := Change{
		Type:            t,
		Table:           table,
		CommitTimestamp: time.Now().UTC(),
		Columns:         cols,
	}
	if t != Delete {
		c.Record = record
	}
	if t != Insert {
		c.Old = &OldRecord{ID: id}
	}
	return c
}

// Message is the client-side decoding of a Change.
type Message struct {
	Type            EventType       `json:"type"`
	Table           string          `json:"table"`
	Record          json.RawMessage `json:"record,omitempty"`
	Old             *OldRecord      `json:"old,omitempty"`
	CommitTimestamp time.Time       `json:"commitTimestamp"`
}

// Filter selects the changes a subscriber receives: one table and, optionally,
// one column that must equal Value.
type Filter struct {
	Table  string
	Column string
	Value  string
}

var ErrUnknownTable = errors.New("unknown table")

// ParseFilter accepts "column=eq.value", "column:value" or an empty expression.
func ParseFilter(table, expr string) (Filter, error) {
	if !Tables[table] {
		return Filter{}, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	f := Filter{Table: table}
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return f, nil
	}

	var col, val string
	if i := strings.Index(expr, "=eq."); i > 0 {
		col, val = expr[:i], expr[i+len("=eq."):]
	} else if i := strings.Index(expr, ":"); i > 0 {
		col, val = expr[:i], expr[i+1:]
	}
	if col == "" || val == "" {
		return Filter{}, fmt.Errorf("invalid filter %q", expr)
	}
	f.Column, f.Value = col, val
	return f, nil
}

// Matches reports whether c passes the filter.
func (f Filter) Matches(c Change) bool {
	if f.Table != c.Table {
		return false
	}
	if f.Column == "" {
		return true
	}
	return c.Columns[f.Column] == f.Value
}
