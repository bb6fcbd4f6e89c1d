package scan_test

import (
	"context"
	"testing"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/scan"
)

func TestView_ReleasesPriorSessionBeforeStartingNext(t *testing.T) {
	cam := newFakeCamera(scan.Device{ID: "video0", Label: "Back Camera"})
	first := newFixture(t, cam, batch)
	second := newFixture(t, cam, batch)
	view := &scan.View{}

	go func() { first.runErr <- view.Run(context.Background(), first.session) }()
	st1 := cam.nextStream(t)
	first.events.waitState(t, scan.StateScanning)

	go func() { second.runErr <- view.Run(context.Background(), second.session) }()
	st2 := cam.nextStream(t)

	if n := st1.stops.Load(); n != 1 {
		t.Fatalf("prior stream should be stopped before the next starts, got %d stops", n)
	}
	if err := first.waitRun(t); err != nil {
		t.Errorf("first Run: %v", err)
	}
	if n := first.events.count("cancelled"); n != 1 {
		t.Errorf("expected prior session cancelled once, got %d", n)
	}
	if view.Current() != second.session {
		t.Error("expected second session to own the view")
	}

	second.events.waitState(t, scan.StateScanning)
	view.Close()
	second.waitDone(t)
	if n := st2.stops.Load(); n != 1 {
		t.Errorf("expected 1 stop on second stream, got %d", n)
	}
	if view.Current() != nil {
		t.Error("expected empty view after Close")
	}
}
