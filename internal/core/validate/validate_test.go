package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequired(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid name", "my-team", false},
		{"valid with spaces", "my team", false},
		{"empty string", "", true},
		{"only spaces", "   ", true},
		{"only tabs", "\t\t", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Required(tt.input)
			assert.Equal(t, tt.wantErr, err != nil, "Required(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		})
	}
}

func TestRequiredField(t *testing.T) {
	err := RequiredField("team_id", " ")
	assert.ErrorContains(t, err, "team_id")
	assert.NoError(t, RequiredField("team_id", "t1"))
}

func TestNonNegative(t *testing.T) {
	assert.NoError(t, NonNegative(0))
	assert.Error(t, NonNegative(-1))

	assert.NoError(t, OptionalNonNegativeField("viewer_member", nil))
	n := -3
	assert.ErrorContains(t, OptionalNonNegativeField("viewer_member", &n), "viewer_member")
}

func TestAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"ipv4", "127.0.0.1:7899", false},
		{"hostname", "localhost:0", false},
		{"ipv6", "[::1]:7899", false},
		{"missing port", "127.0.0.1", true},
		{"missing host", ":7899", true},
		{"bad port", "127.0.0.1:http", true},
		{"port out of range", "127.0.0.1:70000", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Address(tt.input)
			assert.Equal(t, tt.wantErr, err != nil, "Address(%q) error = %v", tt.input, err)
		})
	}
}
