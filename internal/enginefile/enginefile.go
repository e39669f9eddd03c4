// Package enginefile persists which storage engine a data directory was
// created with, so a later run with a different --engine flag can refuse to
// start instead of silently reading another engine's files. Grounded on
// Epokhe-bitdb's createFileDurable/writeFileAtomic, with the atomic rewrite
// itself delegated to natefinch/atomic instead of a hand-rolled
// temp-file-plus-rename.
package enginefile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

const fileName = "engine"

// ErrMismatch is returned when the requested engine doesn't match the one
// already recorded for this directory.
type ErrMismatch struct {
	Requested string
	Recorded  string
}

func (e *ErrMismatch) Error() string {
	return fmt.Sprintf("engine mismatch: directory was created with %q, refusing to open as %q", e.Recorded, e.Requested)
}

// Ensure reads the "engine" marker file in dir, if any, and checks it
// against requested. If the file doesn't exist yet, it is created to record
// requested for future runs.
func Ensure(dir, requested string) error {
	path := filepath.Join(dir, fileName)

	recorded, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("read engine marker: %w", err)
		}
		if err := atomic.WriteFile(path, strings.NewReader(requested)); err != nil {
			return fmt.Errorf("write engine marker: %w", err)
		}
		return nil
	}

	got := strings.TrimSpace(string(recorded))
	if got != requested {
		return &ErrMismatch{Requested: requested, Recorded: got}
	}
	return nil
}
