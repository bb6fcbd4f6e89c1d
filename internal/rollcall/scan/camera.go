package scan

import (
	"context"
	"strings"
)

// Device is a camera or scanner the host can open.
type Device struct {
	ID    string
	Label string
}

// Camera enumerates and opens decoding devices. onDecoded is called with the
// text of every decoded frame; frames with nothing readable are not reported.
// It may be called from any goroutine and must not block for long.
type Camera interface {
	Devices(ctx context.Context) ([]Device, error)
	Start(ctx context.Context, deviceID string, onDecoded func(text string)) (Stream, error)
}

// Stream is a running camera. Stop must be idempotent. Err delivers a value
// (or is closed) when the device fails or disappears.
type Stream interface {
	Stop() error
	Err() <-chan error
}

// SelectDevice picks the device to open. A non-empty preferred value must
// match a device ID or label exactly. Otherwise the first device whose label
// mentions "back" or "rear" wins, falling back to the first device.
func SelectDevice(devices []Device, preferred string) (Device, bool) {
	if len(devices) == 0 {
		return Device{}, false
	}
	if preferred = strings.TrimSpace(preferred); preferred != "" {
		for _, d := range devices {
			if d.ID == preferred || strings.EqualFold(d.Label, preferred) {
				return d, true
			}
		}
		return Device{}, false
	}
	for _, d := range devices {
		label := strings.ToLower(d.Label)
		if strings.Contains(label, "back") || strings.Contains(label, "rear") {
			return d, true
		}
	}
	return devices[0], true
}
