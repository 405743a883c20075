package journal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntry_Failed(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
		want bool
	}{
		{name: "ok response", ok: true, want: false},
		{name: "error response", ok: false, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Entry{OK: tt.ok}
			assert.Equal(t, tt.want, e.Failed())
		})
	}
}

func TestNop(t *testing.T) {
	var r Recorder = Nop{}
	assert.NoError(t, r.Record(context.Background(), Entry{Kind: "ping"}))
}
