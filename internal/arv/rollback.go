package arv

import (
	"fmt"
	"os"
)

// createForMove creates dir and then runs move. When move fails the
// directory is removed again, so a failed rename never leaves an empty
// slot behind. This is the engine's only compensating action; renames
// themselves are assumed atomic by the OS.
func createForMove(dir string, move func() error) error {
	if err := os.Mkdir(dir, 0755); err != nil {
		return fmt.Errorf("creating slot directory: %w", err)
	}
	if err := move(); err != nil {
		os.Remove(dir)
		return err
	}
	return nil
}
