// Package validate provides shared validation functions.
package validate

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/hay-kot/criterio"
)

// Required validates a value is non-empty after trimming whitespace.
func Required(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("is required")
	}
	return nil
}

// RequiredField returns a criterio validator for a required string.
func RequiredField(field, s string) error {
	return criterio.Run(field, s, Required)
}

// NonNegative validates an integer id or count.
func NonNegative(n int) error {
	if n < 0 {
		return fmt.Errorf("must not be negative, got %d", n)
	}
	return nil
}

// NonNegativeField returns a criterio validator for a non-negative integer.
func NonNegativeField(field string, n int) error {
	return criterio.Run(field, n, NonNegative)
}

// OptionalNonNegativeField validates an optional integer when it is set.
func OptionalNonNegativeField(field string, n *int) error {
	if n == nil {
		return nil
	}
	return NonNegativeField(field, *n)
}

// Address validates a host:port TCP address with a numeric port.
func Address(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}
	if host == "" {
		return fmt.Errorf("invalid address %q: host is required", addr)
	}
	p, err := strconv.Atoi(port)
	if err != nil || p < 0 || p > 65535 {
		return fmt.Errorf("invalid address %q: bad port", addr)
	}
	return nil
}
