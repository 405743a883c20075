package team

import (
	"fmt"
	"slices"
	"time"
)

// Priority is the urgency of a team message.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ParsePriority converts a string into a Priority.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(s); p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return p, nil
	}
	return "", fmt.Errorf("invalid priority: %q", s)
}

func (p *Priority) UnmarshalText(b []byte) error {
	v, err := ParsePriority(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Message is a team inbox entry. A nil ToMember makes it a broadcast.
type Message struct {
	ID         int      `json:"id"`
	FromMember *int     `json:"from_member"`
	ToMember   *int     `json:"to_member"`
	Text       string   `json:"text"`
	Priority   Priority `json:"priority"`
	CreatedAt  int64    `json:"created_at"`
	ReadBy     []int    `json:"read_by"`
}

// IsBroadcast reports whether the message has no designated recipient.
func (m *Message) IsBroadcast() bool {
	return m.ToMember == nil
}

// VisibleTo reports whether the member with the given id may see the message.
func (m *Message) VisibleTo(memberID int) bool {
	return m.IsBroadcast() || *m.ToMember == memberID
}

// ReadByMember reports whether the member acknowledged the message.
func (m *Message) ReadByMember(memberID int) bool {
	return slices.Contains(m.ReadBy, memberID)
}

func (m *Message) normalize() {
	if m.Priority == "" {
		m.Priority = PriorityNormal
	}
	if m.ReadBy == nil {
		m.ReadBy = []int{}
	}
}

func (m Message) clone() Message {
	m.ReadBy = cloneInts(m.ReadBy)
	return m
}

// PostMessage appends a message to the team inbox. Sender and recipient,
// when given, must be active members.
func (t *Team) PostMessage(from, to *int, text string, priority Priority, now time.Time) (Message, error) {
	for _, id := range []*int{from, to} {
		if id == nil {
			continue
		}
		m, err := t.member(*id)
		if err != nil {
			return Message{}, err
		}
		if err := m.ensureActive(); err != nil {
			return Message{}, err
		}
	}

	msg := Message{
		ID:        t.NextMessageID,
		Text:      text,
		Priority:  priority,
		CreatedAt: unix(now),
		ReadBy:    []int{},
	}
	if from != nil {
		msg.FromMember = ptr(*from)
	}
	if to != nil {
		msg.ToMember = ptr(*to)
	}
	t.NextMessageID++
	t.Messages = append(t.Messages, msg)
	return msg.clone(), nil
}

// Inbox returns the messages as seen by viewer. A nil viewer is an
// unrestricted operator view and sees everything; unreadOnly only applies
// when a viewer is given.
func (t *Team) Inbox(viewer *int, unreadOnly bool) ([]Message, error) {
	if viewer != nil {
		if _, err := t.member(*viewer); err != nil {
			return nil, err
		}
	}

	out := []Message{}
	for _, msg := range t.Messages {
		if viewer != nil {
			if !msg.VisibleTo(*viewer) {
				continue
			}
			if unreadOnly && msg.ReadByMember(*viewer) {
				continue
			}
		}
		out = append(out, msg.clone())
	}
	return out, nil
}

// MarkMessageRead records that the member has read the message. Repeated
// calls are no-ops.
func (t *Team) MarkMessageRead(memberID, messageID int) error {
	m, err := t.member(memberID)
	if err != nil {
		return err
	}
	if err := m.ensureActive(); err != nil {
		return err
	}
	msg, err := t.message(messageID)
	if err != nil {
		return err
	}

	if !msg.ReadByMember(memberID) {
		msg.ReadBy = append(msg.ReadBy, memberID)
	}
	return nil
}
