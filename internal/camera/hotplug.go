package camera

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/pilebones/go-udev/netlink"

	"github.com/BrandonDHaskell/rollcall/internal/logging"
)

// RemovalWatcher reports when a device node disappears.
type RemovalWatcher interface {
	// WatchRemoval returns a channel that is closed when devnode is removed.
	// Watching stops when ctx ends.
	WatchRemoval(ctx context.Context, devnode string) (<-chan struct{}, error)
}

// NetlinkWatcher listens for udev remove events on the netlink socket.
type NetlinkWatcher struct {
	logger *slog.Logger
}

func NewNetlinkWatcher(logger *slog.Logger) *NetlinkWatcher {
	return &NetlinkWatcher{logger: logging.NewComponentLogger(logger, "hotplug")}
}

func (w *NetlinkWatcher) WatchRemoval(ctx context.Context, devnode string) (<-chan struct{}, error) {
	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		return nil, fmt.Errorf("connect netlink: %w", err)
	}

	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	quit := conn.Monitor(queue, errs, removalMatcher())
	removed := make(chan struct{})

	go func() {
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				close(quit)
				return
			case ev := <-queue:
				if !isRemovalOf(ev, devnode) {
					continue
				}
				w.logger.Info("scanner unplugged", logging.FieldDevice, devnode)
				close(removed)
				close(quit)
				return
			case err := <-errs:
				w.logger.Warn("netlink monitor error", logging.FieldDevice, devnode, logging.Error(err))
			}
		}
	}()
	return removed, nil
}

// removalMatcher matches tty remove events.
func removalMatcher() netlink.Matcher {
	action := string(netlink.REMOVE)
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "tty",
		},
	})
	return rules
}

func isRemovalOf(ev netlink.UEvent, devnode string) bool {
	if ev.Action != netlink.REMOVE {
		return false
	}
	name := eventDeviceName(ev)
	return name != "" && name == filepath.Base(devnode)
}

// eventDeviceName returns the node name (e.g. ttyACM0) an event refers to.
func eventDeviceName(ev netlink.UEvent) string {
	if devname := ev.Env["DEVNAME"]; devname != "" {
		return filepath.Base(devname)
	}
	devpath := ev.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}
	parts := strings.Split(devpath, "/")
	return parts[len(parts)-1]
}
