// Package engine holds the aggregate root of the orchestrator: terminal
// sessions plus every team, and the guard that serializes access to it.
package engine

import (
	"fmt"
	"slices"
	"time"

	"github.com/colonyops/orchestraterm/internal/core/session"
	"github.com/colonyops/orchestraterm/internal/core/team"
)

// State is the persisted document. Pane logs and the clock are runtime-only.
type State struct {
	Sessions      map[string]session.Session `json:"sessions"`
	ActiveSession *string                    `json:"active_session"`
	Teams         map[string]*team.Team      `json:"teams"`

	paneLogs *session.PaneLogs
	now      func() time.Time
}

// Default returns a fresh state with the default session active and no teams.
func Default() *State {
	name := session.DefaultName
	return &State{
		Sessions:      map[string]session.Session{name: session.New(name)},
		ActiveSession: &name,
		Teams:         map[string]*team.Team{},
	}
}

// Normalize fills defaults after decoding a state file written by an older
// version. It is safe to call more than once.
func (s *State) Normalize() {
	if s.Sessions == nil {
		s.Sessions = map[string]session.Session{}
	}
	if s.Teams == nil {
		s.Teams = map[string]*team.Team{}
	}
	for name, sess := range s.Sessions {
		sess.Normalize()
		s.Sessions[name] = sess
	}
	for id, t := range s.Teams {
		if t == nil {
			delete(s.Teams, id)
			continue
		}
		t.Normalize()
	}
}

// SetClock overrides the time source used to stamp mutations.
func (s *State) SetClock(now func() time.Time) {
	s.now = now
}

func (s *State) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// PaneLogs returns the in-memory pane log registry, creating it on first use.
func (s *State) PaneLogs() *session.PaneLogs {
	if s.paneLogs == nil {
		s.paneLogs = session.NewPaneLogs(session.DefaultPaneLogLines)
	}
	return s.paneLogs
}

// CreateSession adds a session and makes it active. An existing session is
// left untouched and does not change the active session.
func (s *State) CreateSession(name string) {
	if _, ok := s.Sessions[name]; ok {
		return
	}
	s.Sessions[name] = session.New(name)
	s.ActiveSession = &name
}

// ListSessions returns session names in lexical order.
func (s *State) ListSessions() []string {
	names := make([]string, 0, len(s.Sessions))
	for name := range s.Sessions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// AttachSession makes an existing session active.
func (s *State) AttachSession(name string) error {
	if _, ok := s.Sessions[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, name)
	}
	s.ActiveSession = &name
	return nil
}

// AppendPaneLog records an output line for a pane of an existing session.
func (s *State) AppendPaneLog(sessionName string, paneID int, line string) error {
	if err := s.checkPane(sessionName, paneID); err != nil {
		return err
	}
	s.PaneLogs().Append(sessionName, paneID, line)
	return nil
}

// PaneLog returns the newest limit lines of a pane; limit <= 0 returns all.
func (s *State) PaneLog(sessionName string, paneID int, limit int) ([]string, error) {
	if err := s.checkPane(sessionName, paneID); err != nil {
		return nil, err
	}
	return s.PaneLogs().Tail(sessionName, paneID, limit), nil
}

func (s *State) checkPane(sessionName string, paneID int) error {
	sess, ok := s.Sessions[sessionName]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, sessionName)
	}
	if !sess.HasPane(paneID) {
		return fmt.Errorf("%w: %s/%d", ErrUnknownPane, sessionName, paneID)
	}
	return nil
}

// CreateTeam registers a new, empty team.
func (s *State) CreateTeam(id string, mode team.DisplayMode, delegationOnly bool) error {
	if _, ok := s.Teams[id]; ok {
		return fmt.Errorf("%w: %s", ErrTeamExists, id)
	}
	s.Teams[id] = team.New(id, mode, delegationOnly)
	return nil
}

// CleanupTeam deletes a team and everything it owns.
func (s *State) CleanupTeam(id string) error {
	if _, ok := s.Teams[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTeam, id)
	}
	delete(s.Teams, id)
	return nil
}

// ListTeams returns deep copies of every team ordered by id.
func (s *State) ListTeams() []*team.Team {
	ids := make([]string, 0, len(s.Teams))
	for id := range s.Teams {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]*team.Team, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.Teams[id].Clone())
	}
	return out
}

// Team returns a deep copy of a single team.
func (s *State) Team(id string) (*team.Team, error) {
	t, err := s.team(id)
	if err != nil {
		return nil, err
	}
	return t.Clone(), nil
}

func (s *State) team(id string) (*team.Team, error) {
	t, ok := s.Teams[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTeam, id)
	}
	return t, nil
}
