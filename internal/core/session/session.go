// Package session defines the terminal session layout that the engine
// tracks for front-ends: sessions hold windows, windows hold panes.
package session

import "fmt"

// DefaultName is the session every fresh state starts with.
const DefaultName = "default"

// Session is a named group of windows.
type Session struct {
	Name         string   `json:"name"`
	Windows      []Window `json:"windows"`
	ActiveWindow int      `json:"active_window"`
}

// Window is an ordered set of panes inside a session.
type Window struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	Panes      []Pane `json:"panes"`
	ActivePane int    `json:"active_pane"`
}

// Pane is a single terminal surface. Cwd is nil until a front-end reports one.
type Pane struct {
	ID    int     `json:"id"`
	Title string  `json:"title"`
	Cwd   *string `json:"cwd"`
}

// New returns a session with one window holding one pane.
func New(name string) Session {
	return Session{
		Name: name,
		Windows: []Window{
			{
				ID:    0,
				Title: windowTitle(0),
				Panes: []Pane{{ID: 0, Title: paneTitle(0)}},
			},
		},
	}
}

// HasPane reports whether any window of the session contains the pane.
func (s *Session) HasPane(id int) bool {
	for _, w := range s.Windows {
		for _, p := range w.Panes {
			if p.ID == id {
				return true
			}
		}
	}
	return false
}

// Normalize replaces nil collections left by older state files.
func (s *Session) Normalize() {
	if s.Windows == nil {
		s.Windows = []Window{}
	}
	for i := range s.Windows {
		if s.Windows[i].Panes == nil {
			s.Windows[i].Panes = []Pane{}
		}
	}
}

func windowTitle(id int) string { return fmt.Sprintf("Window %d", id) }

func paneTitle(id int) string { return fmt.Sprintf("Pane %d", id) }
