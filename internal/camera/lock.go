package camera

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// lockDevice takes the cross-process lock for devnode. Two rollcall
// processes never read the same scanner.
func lockDevice(dir, devnode string) (*flock.Flock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	name := strings.ReplaceAll(strings.TrimPrefix(filepath.Clean(devnode), "/"), "/", "_") + ".lock"
	fl := flock.New(filepath.Join(dir, name))

	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", fl.Path(), err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s is held by another process (lock %s)", ErrDeviceBusy, devnode, fl.Path())
	}
	return fl, nil
}
