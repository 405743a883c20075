package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)

	logger := Component("test-component")
	logger.Info().Msg("test message")

	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse log: %v", err)
	}

	cmp, ok := logEntry["cmp"]
	if !ok {
		t.Fatal("expected 'cmp' key in log output")
	}

	if cmp != "test-component" {
		t.Errorf("Component() cmp = %q, want %q", cmp, "test-component")
	}

	msg, ok := logEntry["message"]
	if !ok {
		t.Fatal("expected 'message' key in log output")
	}

	if msg != "test message" {
		t.Errorf("Component() message = %q, want %q", msg, "test message")
	}
}

func TestComponentOf_AddsContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger := ComponentOf(zerolog.New(&buf), "server")

	ctx := WithTeamID(WithConnID(context.Background(), "c1"), "alpha")
	logger.Info().Ctx(ctx).Msg("handled")

	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse log: %v", err)
	}

	for key, want := range map[string]string{"cmp": "server", "conn_id": "c1", "team_id": "alpha"} {
		if got := logEntry[key]; got != want {
			t.Errorf("%s = %v, want %q", key, got, want)
		}
	}
}
