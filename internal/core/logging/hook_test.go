package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextHook_Run(t *testing.T) {
	tests := []struct {
		name      string
		setupCtx  func() context.Context
		wantKeys  []string
		wantEmpty []string
	}{
		{
			name: "both conn_id and team_id",
			setupCtx: func() context.Context {
				ctx := context.Background()
				ctx = WithConnID(ctx, "conn-123")
				ctx = WithTeamID(ctx, "alpha")
				return ctx
			},
			wantKeys: []string{"conn_id", "team_id"},
		},
		{
			name: "only conn_id",
			setupCtx: func() context.Context {
				return WithConnID(context.Background(), "conn-123")
			},
			wantKeys:  []string{"conn_id"},
			wantEmpty: []string{"team_id"},
		},
		{
			name: "only team_id",
			setupCtx: func() context.Context {
				return WithTeamID(context.Background(), "alpha")
			},
			wantKeys:  []string{"team_id"},
			wantEmpty: []string{"conn_id"},
		},
		{
			name:      "no context values",
			setupCtx:  context.Background,
			wantEmpty: []string{"conn_id", "team_id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			ctx := tt.setupCtx()

			logger := zerolog.New(&buf).Hook(ContextHook{})
			logger.Info().Ctx(ctx).Msg("test")

			var logEntry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
				t.Fatalf("failed to parse log: %v", err)
			}

			for _, key := range tt.wantKeys {
				if _, ok := logEntry[key]; !ok {
					t.Errorf("expected %s to be present in log", key)
				}
			}

			for _, key := range tt.wantEmpty {
				if _, ok := logEntry[key]; ok {
					t.Errorf("expected %s to be absent from log", key)
				}
			}
		})
	}
}
