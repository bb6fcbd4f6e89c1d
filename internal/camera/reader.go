package camera

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/scan"
)

var (
	ErrNoDevice   = errors.New("no such scanner device")
	ErrDeviceBusy = errors.New("scanner device is in use")
)

// ReaderCamera exposes one line-oriented reader as a camera. It backs
// keyboard-wedge scanners on stdin and piped input.
//
// A single goroutine owns the reader for the camera's lifetime and hands
// lines to whichever stream is open. Lines read while no stream is open are
// dropped.
type ReaderCamera struct {
	device scan.Device
	r      io.Reader
	pump   sync.Once

	mu      sync.Mutex
	current *lineStream
	ended   error
}

func NewReaderCamera(id, label string, r io.Reader) *ReaderCamera {
	return &ReaderCamera{device: scan.Device{ID: id, Label: label}, r: r}
}

func (c *ReaderCamera) Devices(ctx context.Context) ([]scan.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []scan.Device{c.device}, nil
}

func (c *ReaderCamera) Start(ctx context.Context, deviceID string, onDecoded func(string)) (scan.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if deviceID != c.device.ID {
		return nil, fmt.Errorf("%w: %s", ErrNoDevice, deviceID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ended != nil {
		return nil, fmt.Errorf("%s: %w", c.device.Label, c.ended)
	}
	if c.current != nil {
		return nil, ErrDeviceBusy
	}

	var st *lineStream
	st = newLineStream(onDecoded, func() error {
		c.mu.Lock()
		if c.current == st {
			c.current = nil
		}
		c.mu.Unlock()
		return nil
	})
	c.current = st
	c.pump.Do(func() { go c.read() })
	return st, nil
}

func (c *ReaderCamera) read() {
	err := readLines(c.r, func(line string) {
		c.mu.Lock()
		st := c.current
		c.mu.Unlock()
		if st != nil {
			st.deliver(line)
		}
	})

	c.mu.Lock()
	c.ended = err
	st := c.current
	c.mu.Unlock()
	if st != nil {
		st.fail(err)
	}
}
