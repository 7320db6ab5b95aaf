// Command intact audits directory trees for integrity drift: additions,
// removals, updates, moves, and silent corruption (bitrot).
package main

import (
	"errors"
	"os"
)

func main() {
	err := Execute()
	if err == nil {
		os.Exit(exitClean)
	}

	var ee *exitError
	if errors.As(err, &ee) {
		os.Exit(ee.code)
	}
	os.Exit(exitFatal)
}
