package camera

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sys/unix"

	"github.com/BrandonDHaskell/rollcall/internal/logging"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/scan"
)

// ErrDeviceRemoved is delivered on a stream's Err channel on hot-unplug.
var ErrDeviceRemoved = errors.New("scanner device removed")

type SerialOptions struct {
	// Globs select the device nodes to offer, e.g. /dev/ttyACM*.
	Globs    []string
	BaudRate int
	LockDir  string
	// SysRoot defaults to /sys.
	SysRoot string
	// Watcher defaults to a netlink watcher. Failing to watch is logged and
	// otherwise ignored; a read error still ends the stream on unplug.
	Watcher RemovalWatcher
	Logger  *slog.Logger
}

// SerialCamera reads decoded codes from USB/serial scanners.
type SerialCamera struct {
	opts   SerialOptions
	logger *slog.Logger
}

func NewSerialCamera(opts SerialOptions) *SerialCamera {
	if opts.SysRoot == "" {
		opts.SysRoot = defaultSysRoot
	}
	if opts.LockDir == "" {
		opts.LockDir = filepath.Join(os.TempDir(), "rollcall")
	}
	if opts.BaudRate == 0 {
		opts.BaudRate = 9600
	}
	logger := logging.NewComponentLogger(opts.Logger, "camera")
	if opts.Watcher == nil {
		opts.Watcher = NewNetlinkWatcher(opts.Logger)
	}
	return &SerialCamera{opts: opts, logger: logger}
}

// Devices lists readable device nodes matching the configured globs. When
// nodes exist but none are readable the error wraps fs.ErrPermission.
func (c *SerialCamera) Devices(ctx context.Context) ([]scan.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var paths []string
	for _, g := range c.opts.Globs {
		matches, err := filepath.Glob(g)
		if err != nil {
			return nil, fmt.Errorf("device glob %q: %w", g, err)
		}
		for _, m := range matches {
			if _, ok := seen[m]; !ok {
				seen[m] = struct{}{}
				paths = append(paths, m)
			}
		}
	}
	sort.Strings(paths)

	devices := make([]scan.Device, 0, len(paths))
	var denied []string
	for _, p := range paths {
		if err := unix.Access(p, unix.R_OK); err != nil {
			denied = append(denied, p)
			continue
		}
		devices = append(devices, scan.Device{
			ID:    p,
			Label: sysfsLabel(c.opts.SysRoot, filepath.Base(p)),
		})
	}
	if len(devices) == 0 && len(denied) > 0 {
		return nil, fmt.Errorf("%w: cannot read %v", fs.ErrPermission, denied)
	}
	return devices, nil
}

// Start locks, opens and configures the device, then streams its lines.
func (c *SerialCamera) Start(ctx context.Context, deviceID string, onDecoded func(string)) (scan.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lock, err := lockDevice(c.opts.LockDir, deviceID)
	if err != nil {
		return nil, err
	}

	f, err := openSerial(deviceID, c.opts.BaudRate)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	removed, err := c.opts.Watcher.WatchRemoval(watchCtx, deviceID)
	if err != nil {
		c.logger.Warn("hot-unplug detection unavailable", logging.FieldDevice, deviceID, logging.Error(err))
	}

	st := newLineStream(onDecoded, func() error {
		stopWatch()
		return errors.Join(f.Close(), lock.Unlock())
	})

	go func() {
		err := readLines(f, st.deliver)
		st.fail(fmt.Errorf("read %s: %w", deviceID, err))
	}()
	if removed != nil {
		go func() {
			select {
			case <-removed:
				st.fail(fmt.Errorf("%w: %s", ErrDeviceRemoved, deviceID))
			case <-st.stopped:
			}
		}()
	}

	c.logger.Debug("scanner opened", logging.FieldDevice, deviceID, "baud", c.opts.BaudRate)
	return st, nil
}
