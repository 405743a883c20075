package protocol

import (
	"errors"

	"github.com/colonyops/orchestraterm/internal/core/team"
)

// Response is the single reply to every request. Collections are always
// present, even when empty.
type Response struct {
	OK       bool           `json:"ok"`
	Message  string         `json:"message"`
	Sessions []string       `json:"sessions"`
	Teams    []*team.Team   `json:"teams"`
	Tasks    []team.Task    `json:"tasks"`
	Messages []team.Message `json:"messages"`
	Usage    *team.Usage    `json:"usage"`
	Lines    []string       `json:"lines,omitempty"`
}

// OK returns a successful response carrying msg.
func OK(msg string) Response {
	r := Response{OK: true, Message: msg}
	r.Normalize()
	return r
}

// Err returns a failed response carrying msg.
func Err(msg string) Response {
	r := Response{Message: msg}
	r.Normalize()
	return r
}

// AsError converts a failed response into an error; successful responses
// return nil.
func (r Response) AsError() error {
	if r.OK {
		return nil
	}
	return errors.New(r.Message)
}

// Normalize replaces nil collections with empty ones.
func (r *Response) Normalize() {
	if r.Sessions == nil {
		r.Sessions = []string{}
	}
	if r.Teams == nil {
		r.Teams = []*team.Team{}
	}
	if r.Tasks == nil {
		r.Tasks = []team.Task{}
	}
	if r.Messages == nil {
		r.Messages = []team.Message{}
	}
}
