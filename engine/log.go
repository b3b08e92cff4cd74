package engine

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
)

// LogNode holds the attributes logged at one nesting level of the session
// (session, block, trial, presentation). Attribute lookups chain to the
// parent, so a leaf sees the union of its own attributes and all ancestors',
// with the closest node winning on conflicts.
type LogNode struct {
	parent   *LogNode
	attrs    map[string]any
	order    []string
	children []*LogNode
}

func newLogNode(parent *LogNode, attrs map[string]any) *LogNode {
	n := &LogNode{parent: parent, attrs: make(map[string]any, len(attrs))}
	n.update(attrs)
	return n
}

// update merges attributes, remembering first appearance so output columns
// come out in logging order. Keys arriving together in one call are ordered
// alphabetically among themselves.
func (n *LogNode) update(attrs map[string]any) {
	added := make([]string, 0, len(attrs))
	for k, v := range attrs {
		if _, ok := n.attrs[k]; !ok {
			added = append(added, k)
		}
		n.attrs[k] = v
	}
	sort.Strings(added)
	n.order = append(n.order, added...)
}

// Get resolves an attribute through the parent chain.
func (n *LogNode) Get(key string) (any, bool) {
	if v, ok := n.attrs[key]; ok {
		return v, true
	}
	if n.parent != nil {
		return n.parent.Get(key)
	}
	return nil, false
}

// keys lists the node's effective attribute names, ancestors first and the
// node's own names in first-appearance order. Names shadowing an ancestor may
// appear twice; callers dedupe.
func (n *LogNode) keys() []string {
	var out []string
	if n.parent != nil {
		out = n.parent.keys()
	}
	return append(out, n.order...)
}

// EventLog is the hierarchical structured record of everything logged during
// a session. Push/Pop mirror the session -> block -> trial -> presentation
// nesting; at finalization the tree is flattened into one row per leaf.
type EventLog struct {
	root    *LogNode
	current *LogNode
}

// NewEventLog creates a log whose root carries the given session-level
// attributes (subject ID, session info and the like).
func NewEventLog(attrs map[string]any) *EventLog {
	root := newLogNode(nil, attrs)
	return &EventLog{root: root, current: root}
}

// Push enters a new nesting level, optionally seeding it with attributes.
func (l *EventLog) Push(attrs map[string]any) {
	child := newLogNode(l.current, attrs)
	l.current.children = append(l.current.children, child)
	l.current = child
}

// Pop returns to the parent level. Popping the root is a programming error.
func (l *EventLog) Pop() error {
	if l.current.parent == nil {
		return errors.New("event log: pop past root")
	}
	l.current = l.current.parent
	return nil
}

// LogAttributes merges attributes into the current level. Later calls in the
// same scope override earlier values for the same key.
func (l *EventLog) LogAttributes(attrs map[string]any) {
	l.current.update(attrs)
}

// LogEvent records a single leaf row under the current level.
func (l *EventLog) LogEvent(attrs map[string]any) {
	l.Push(attrs)
	_ = l.Pop()
}

// Depth is the number of levels below the root; 0 means the log is at the
// root and safe to finalize.
func (l *EventLog) Depth() int {
	d := 0
	for n := l.current; n.parent != nil; n = n.parent {
		d++
	}
	return d
}

// CurrentData snapshots the effective attribute set of the current level.
func (l *EventLog) CurrentData() map[string]any {
	out := make(map[string]any)
	for _, k := range l.current.keys() {
		if v, ok := l.current.Get(k); ok {
			out[k] = v
		}
	}
	return out
}

// leaves walks the tree depth-first and returns the leaf nodes, each of which
// is one output row.
func (n *LogNode) leaves() []*LogNode {
	if len(n.children) == 0 {
		return []*LogNode{n}
	}
	var out []*LogNode
	for _, c := range n.children {
		out = append(out, c.leaves()...)
	}
	return out
}

// Write flattens the log into a tab-delimited table: one row per leaf, one
// column per distinct attribute name in order of first appearance, with na
// standing in for attributes a given leaf never saw. The tree must be back at
// the root.
func (l *EventLog) Write(w io.Writer, na string) error {
	if l.current.parent != nil {
		return errors.New("event log: write before returning to root")
	}

	rows := l.root.leaves()
	var headings []string
	seen := make(map[string]bool)
	for _, row := range rows {
		for _, k := range row.keys() {
			if !seen[k] {
				seen[k] = true
				headings = append(headings, k)
			}
		}
	}

	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write(headings); err != nil {
		return err
	}
	record := make([]string, len(headings))
	for _, row := range rows {
		for i, k := range headings {
			v, ok := row.Get(k)
			if !ok || v == nil {
				record[i] = na
			} else {
				record[i] = fmt.Sprint(v)
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Save writes the flattened log to a file.
func (l *EventLog) Save(path, na string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := l.Write(f, na); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
