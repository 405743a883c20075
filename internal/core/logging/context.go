package logging

import "context"

type contextKey string

const (
	connIDKey contextKey = "conn_id"
	teamIDKey contextKey = "team_id"
)

// WithConnID adds a connection ID to the context.
func WithConnID(ctx context.Context, connID string) context.Context {
	return context.WithValue(ctx, connIDKey, connID)
}

// WithTeamID adds the team targeted by the current request to the context.
func WithTeamID(ctx context.Context, teamID string) context.Context {
	return context.WithValue(ctx, teamIDKey, teamID)
}

// GetConnID retrieves the connection ID from the context.
// Returns empty string if not present.
func GetConnID(ctx context.Context) string {
	if id, ok := ctx.Value(connIDKey).(string); ok {
		return id
	}
	return ""
}

// GetTeamID retrieves the team ID from the context.
// Returns empty string if not present.
func GetTeamID(ctx context.Context) string {
	if id, ok := ctx.Value(teamIDKey).(string); ok {
		return id
	}
	return ""
}
