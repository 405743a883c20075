package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"
)

// requireArgs fails unless at least n positional arguments were given.
func requireArgs(c *cli.Command, n int) error {
	if c.NArg() < n {
		return fmt.Errorf("expected %d argument(s), got %d\n\nUsage: %s", n, c.NArg(), c.UsageText)
	}
	return nil
}

// intArg parses positional argument i as a non-negative id.
func intArg(c *cli.Command, i int, name string) (int, error) {
	raw := c.Args().Get(i)
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return v, nil
}

// splitIDs parses repeated and comma separated ids, e.g. --deps 1,2 --deps 3.
func splitIDs(values []string, name string) ([]int, error) {
	out := []int{}
	for _, s := range splitList(values) {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("invalid %s: %q", name, s)
		}
		out = append(out, v)
	}
	return out, nil
}

// splitList flattens repeated and comma separated values, dropping blanks.
func splitList(values []string) []string {
	out := []string{}
	for _, v := range values {
		for part := range strings.SplitSeq(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// optionalInt returns a pointer to the flag value when the flag was set.
func optionalInt(c *cli.Command, name string, v int) (*int, error) {
	if !c.IsSet(name) {
		return nil, nil
	}
	if v < 0 {
		return nil, fmt.Errorf("invalid %s: %d", name, v)
	}
	return &v, nil
}
