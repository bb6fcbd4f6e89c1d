package camera_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/BrandonDHaskell/rollcall/internal/camera"
)

func collect(t *testing.T, n int) (func(string), <-chan string) {
	t.Helper()
	ch := make(chan string, n)
	return func(s string) { ch <- s }, ch
}

func next(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a decoded line")
		return ""
	}
}

func TestReaderCamera_DeliversTrimmedLines(t *testing.T) {
	cam := camera.NewReaderCamera("stdin", "Keyboard wedge", strings.NewReader("1234567890\r\n\r\n  ada@example.edu \r{\"id\":\"p-1\"}\n"))

	devs, err := cam.Devices(context.Background())
	if err != nil || len(devs) != 1 || devs[0].ID != "stdin" {
		t.Fatalf("Devices = %v, %v", devs, err)
	}

	onDecoded, lines := collect(t, 8)
	st, err := cam.Start(context.Background(), "stdin", onDecoded)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer st.Stop()

	for _, want := range []string{"1234567890", "ada@example.edu", `{"id":"p-1"}`} {
		if got := next(t, lines); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}

	select {
	case err := <-st.Err():
		if !errors.Is(err, io.EOF) {
			t.Errorf("expected io.EOF at end of input, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected end-of-input error")
	}
}

func TestReaderCamera_OneStreamAtATime(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	cam := camera.NewReaderCamera("stdin", "Keyboard wedge", pr)

	onFirst, first := collect(t, 4)
	st1, err := cam.Start(context.Background(), "stdin", onFirst)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := cam.Start(context.Background(), "stdin", func(string) {}); !errors.Is(err, camera.ErrDeviceBusy) {
		t.Fatalf("expected ErrDeviceBusy, got %v", err)
	}

	go pw.Write([]byte("one\n"))
	if got := next(t, first); got != "one" {
		t.Fatalf("got %q", got)
	}

	if err := st1.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := st1.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}

	// The reader survives the first stream and feeds the next one.
	onSecond, second := collect(t, 4)
	st2, err := cam.Start(context.Background(), "stdin", onSecond)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer st2.Stop()

	go pw.Write([]byte("two\n"))
	if got := next(t, second); got != "two" {
		t.Fatalf("got %q", got)
	}
	select {
	case s := <-first:
		t.Errorf("stopped stream received %q", s)
	default:
	}
}

func TestReaderCamera_UnknownDevice(t *testing.T) {
	cam := camera.NewReaderCamera("stdin", "Keyboard wedge", strings.NewReader(""))
	if _, err := cam.Start(context.Background(), "video0", func(string) {}); !errors.Is(err, camera.ErrNoDevice) {
		t.Fatalf("expected ErrNoDevice, got %v", err)
	}
}
