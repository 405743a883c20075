package logging

import (
	"context"
	"testing"
)

func TestWithConnID(t *testing.T) {
	ctx := context.Background()
	connID := "conn-123"

	ctx = WithConnID(ctx, connID)
	got := GetConnID(ctx)

	if got != connID {
		t.Errorf("GetConnID() = %q, want %q", got, connID)
	}
}

func TestWithTeamID(t *testing.T) {
	ctx := context.Background()
	teamID := "alpha"

	ctx = WithTeamID(ctx, teamID)
	got := GetTeamID(ctx)

	if got != teamID {
		t.Errorf("GetTeamID() = %q, want %q", got, teamID)
	}
}

func TestGetConnID_NotPresent(t *testing.T) {
	if got := GetConnID(context.Background()); got != "" {
		t.Errorf("GetConnID() = %q, want empty string", got)
	}
}

func TestGetTeamID_NotPresent(t *testing.T) {
	if got := GetTeamID(context.Background()); got != "" {
		t.Errorf("GetTeamID() = %q, want empty string", got)
	}
}
