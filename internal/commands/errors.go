package commands

import (
	"fmt"
	"io"
	"strconv"

	"taskboard/internal/exitcode"
)

// fail prints err and returns the exit code for its failure kind.
func fail(errOut io.Writer, err error) int {
	fmt.Fprintf(errOut, "error: %s\n", err)
	return exitcode.FromError(err)
}

// parseProjectID parses a positional project id.
func parseProjectID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid project id: %s", arg)
	}
	return id, nil
}
