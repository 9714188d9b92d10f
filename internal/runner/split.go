package runner

import (
	"fmt"

	"mvdan.cc/sh/v3/shell"
)

// Split breaks a launcher string into argv using shell quoting rules,
// so configs may say "uv run autopkg" or `"/opt/my tools/autopkg"`.
func Split(command string) ([]string, error) {
	fields, err := shell.Fields(command, nil)
	if err != nil {
		return nil, fmt.Errorf("parsing command %q: %w", command, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	return fields, nil
}
