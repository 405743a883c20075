package session

import "github.com/colonyops/orchestraterm/pkg/ring"

// DefaultPaneLogLines is the per-pane line capacity used when none is configured.
const DefaultPaneLogLines = 500

type paneKey struct {
	session string
	pane    int
}

// PaneLogs keeps the most recent output lines of every pane in memory.
// Lines are never persisted. PaneLogs is not safe for concurrent use; the
// engine guard serializes access.
type PaneLogs struct {
	capacity int
	logs     map[paneKey]*ring.Ring[string]
}

// NewPaneLogs creates a registry that keeps capacity lines per pane.
func NewPaneLogs(capacity int) *PaneLogs {
	if capacity <= 0 {
		capacity = DefaultPaneLogLines
	}
	return &PaneLogs{
		capacity: capacity,
		logs:     make(map[paneKey]*ring.Ring[string]),
	}
}

func (p *PaneLogs) Capacity() int {
	return p.capacity
}

// Append records a line for the pane, evicting the oldest line when full.
func (p *PaneLogs) Append(session string, pane int, line string) {
	key := paneKey{session, pane}
	r, ok := p.logs[key]
	if !ok {
		r = ring.New[string](p.capacity)
		p.logs[key] = r
	}
	r.Add(line)
}

// Tail returns the newest limit lines, oldest first. A non-positive limit
// returns every retained line. The result is never nil.
func (p *PaneLogs) Tail(session string, pane int, limit int) []string {
	r, ok := p.logs[paneKey{session, pane}]
	if !ok {
		return []string{}
	}
	if limit <= 0 {
		limit = r.Len()
	}
	lines := r.Tail(limit)
	if lines == nil {
		return []string{}
	}
	return lines
}

// Resize changes the per-pane capacity, trimming existing logs to fit.
func (p *PaneLogs) Resize(capacity int) {
	if capacity <= 0 || capacity == p.capacity {
		return
	}
	p.capacity = capacity
	for _, r := range p.logs {
		r.Resize(capacity)
	}
}
