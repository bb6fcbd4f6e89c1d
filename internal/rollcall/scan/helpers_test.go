package scan_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/BrandonDHaskell/rollcall/internal/logging"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/scan"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/service"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/store/memory"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

const waitTimeout = 2 * time.Second

// ── Fake camera ──────────────────────────────────────────────────────────────

type fakeStream struct {
	onDecoded func(string)
	errCh     chan error
	stops     atomic.Int32
}

func (s *fakeStream) Stop() error {
	s.stops.Add(1)
	return nil
}

func (s *fakeStream) Err() <-chan error { return s.errCh }

// Emit delivers a decoded frame the way a camera callback would.
func (s *fakeStream) Emit(text string) { s.onDecoded(text) }

type fakeCamera struct {
	devices    []scan.Device
	devicesErr error
	startErr   error

	// blockDevices makes Devices wait for ctx.
	blockDevices bool
	// releaseStart, when set, makes Start wait on it and ignore ctx.
	releaseStart chan struct{}

	entered chan string // "devices" or "start"
	streams chan *fakeStream

	mu      sync.Mutex
	started []string
	all     []*fakeStream
}

func newFakeCamera(devices ...scan.Device) *fakeCamera {
	return &fakeCamera{
		devices: devices,
		entered: make(chan string, 16),
		streams: make(chan *fakeStream, 16),
	}
}

func (c *fakeCamera) Devices(ctx context.Context) ([]scan.Device, error) {
	c.entered <- "devices"
	if c.blockDevices {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return c.devices, c.devicesErr
}

func (c *fakeCamera) Start(_ context.Context, deviceID string, onDecoded func(string)) (scan.Stream, error) {
	c.entered <- "start"
	if c.releaseStart != nil {
		<-c.releaseStart
	}
	if c.startErr != nil {
		return nil, c.startErr
	}
	st := &fakeStream{onDecoded: onDecoded, errCh: make(chan error, 1)}
	c.mu.Lock()
	c.started = append(c.started, deviceID)
	c.all = append(c.all, st)
	c.mu.Unlock()
	c.streams <- st
	return st, nil
}

func (c *fakeCamera) Started() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.started...)
}

// TotalStops sums Stop calls over every stream ever started.
func (c *fakeCamera) TotalStops() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, s := range c.all {
		n += int(s.stops.Load())
	}
	return n
}

func (c *fakeCamera) waitEntered(t *testing.T, what string) {
	t.Helper()
	for {
		select {
		case got := <-c.entered:
			if got == what {
				return
			}
		case <-time.After(waitTimeout):
			t.Fatalf("timed out waiting for camera %s", what)
		}
	}
}

func (c *fakeCamera) nextStream(t *testing.T) *fakeStream {
	t.Helper()
	select {
	case st := <-c.streams:
		return st
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for stream start")
		return nil
	}
}

// ── Recording listener ───────────────────────────────────────────────────────

type event struct {
	name     string // recorded, cancelled, error, candidate, state
	personID string
	kind     service.Kind
	message  string
	state    scan.State
}

type eventLog struct {
	ch chan event

	// onState, when set, runs inside OnStateChange after the event is logged.
	// Set it before the session starts.
	onState func(to scan.State)

	mu  sync.Mutex
	all []event
}

func newEventLog() *eventLog {
	return &eventLog{ch: make(chan event, 256)}
}

func (l *eventLog) push(e event) {
	l.mu.Lock()
	l.all = append(l.all, e)
	l.mu.Unlock()
	l.ch <- e
}

func (l *eventLog) OnRecorded(personID string) { l.push(event{name: "recorded", personID: personID}) }
func (l *eventLog) OnCancelled()               { l.push(event{name: "cancelled"}) }
func (l *eventLog) OnError(kind service.Kind, message string) {
	l.push(event{name: "error", kind: kind, message: message})
}
func (l *eventLog) OnCandidate(c scan.Candidate) {
	l.push(event{name: "candidate", personID: c.Person.ID})
}
func (l *eventLog) OnStateChange(_, to scan.State) {
	l.push(event{name: "state", state: to})
	if l.onState != nil {
		l.onState(to)
	}
}

// holdIn blocks the listener the first time the session enters state. The
// returned channel closes once the listener is blocked; call release to let
// it go.
func (l *eventLog) holdIn(state scan.State) (held <-chan struct{}, release func()) {
	entered := make(chan struct{})
	gate := make(chan struct{})
	var once sync.Once
	l.onState = func(to scan.State) {
		if to != state {
			return
		}
		once.Do(func() {
			close(entered)
			<-gate
		})
	}
	return entered, func() { close(gate) }
}

// waitFor skips events until one matches.
func (l *eventLog) waitFor(t *testing.T, match func(event) bool, desc string) event {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case e := <-l.ch:
			if match(e) {
				return e
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", desc)
			return event{}
		}
	}
}

func (l *eventLog) waitState(t *testing.T, want scan.State) {
	t.Helper()
	l.waitFor(t, func(e event) bool { return e.name == "state" && e.state == want }, "state "+want.String())
}

func (l *eventLog) waitName(t *testing.T, name string) event {
	t.Helper()
	return l.waitFor(t, func(e event) bool { return e.name == name }, name)
}

// count returns how many events with name were seen in total.
func (l *eventLog) count(name string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.all {
		if e.name == name {
			n++
		}
	}
	return n
}

// states returns every state entered, in order.
func (l *eventLog) states() []scan.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []scan.State
	for _, e := range l.all {
		if e.name == "state" {
			out = append(out, e.state)
		}
	}
	return out
}

// ── Fixture ──────────────────────────────────────────────────────────────────

var people = []types.PersonIdentity{
	{ID: "p-ada", Email: "ada@example.edu", FirstName: "ada", LastName: "lovelace", SchoolID: "1234567890"},
	{ID: "p-alan", Email: "alan@example.edu", FirstName: "alan", LastName: "turing", SchoolID: "2234567890"},
}

// countingDirectory counts lookups and can block until ctx ends.
type countingDirectory struct {
	*memory.DirectoryStore
	lookups atomic.Int32
	block   bool
}

func (d *countingDirectory) wait(ctx context.Context) error {
	d.lookups.Add(1)
	if d.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (d *countingDirectory) FindBySchoolID(ctx context.Context, v string) ([]types.PersonIdentity, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}
	return d.DirectoryStore.FindBySchoolID(ctx, v)
}

func (d *countingDirectory) FindByEmail(ctx context.Context, v string) ([]types.PersonIdentity, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}
	return d.DirectoryStore.FindByEmail(ctx, v)
}

func (d *countingDirectory) FindByID(ctx context.Context, v string) ([]types.PersonIdentity, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}
	return d.DirectoryStore.FindByID(ctx, v)
}

// scriptedLedger fails the first n writes, then behaves like memory. With
// block set, every write waits for ctx instead.
type scriptedLedger struct {
	*memory.LedgerStore
	mu       sync.Mutex
	failures int
	block    bool
	entered  chan struct{}
}

func (l *scriptedLedger) next(ctx context.Context) error {
	if l.entered != nil {
		l.entered <- struct{}{}
	}
	if l.block {
		<-ctx.Done()
		return ctx.Err()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failures > 0 {
		l.failures--
		return errors.New("disk I/O error")
	}
	return nil
}

func (l *scriptedLedger) InsertFact(ctx context.Context, f types.AttendanceFact) error {
	if err := l.next(ctx); err != nil {
		return err
	}
	return l.LedgerStore.InsertFact(ctx, f)
}

func (l *scriptedLedger) UpsertFact(ctx context.Context, f types.AttendanceFact) error {
	if err := l.next(ctx); err != nil {
		return err
	}
	return l.LedgerStore.UpsertFact(ctx, f)
}

type fixture struct {
	camera    *fakeCamera
	directory *countingDirectory
	ledger    *scriptedLedger
	events    *eventLog
	session   *scan.Session
	runErr    chan error

	// release lets go of a listener parked by eventLog.holdIn.
	release func()
}

// newFixture builds a session over cam (two labelled devices when nil).
// OccasionID and Logger are filled in when opts leaves them empty.
func newFixture(t *testing.T, cam *fakeCamera, opts scan.Options) *fixture {
	t.Helper()
	if cam == nil {
		cam = newFakeCamera(scan.Device{ID: "video0", Label: "Front Camera"}, scan.Device{ID: "video1", Label: "Back Camera"})
	}
	f := &fixture{
		camera:    cam,
		directory: &countingDirectory{DirectoryStore: memory.NewDirectoryStore(people)},
		ledger:    &scriptedLedger{LedgerStore: memory.NewLedgerStore()},
		events:    newEventLog(),
		runErr:    make(chan error, 4),
	}
	resolver := service.NewIdentityResolver(f.directory, service.ResolverOptions{})
	recorder := service.NewAttendanceRecorder(f.ledger, service.RecorderOptions{Policy: types.PolicyReject})
	if opts.OccasionID == "" {
		opts.OccasionID = "occ-1"
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	f.session = scan.NewSession(cam, resolver, recorder, f.events, opts)
	t.Cleanup(f.session.Close)
	return f
}

func (f *fixture) start(ctx context.Context) {
	go func() { f.runErr <- f.session.Run(ctx) }()
}

func (f *fixture) waitRun(t *testing.T) error {
	t.Helper()
	select {
	case err := <-f.runErr:
		return err
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for Run to return")
		return nil
	}
}

func (f *fixture) waitDone(t *testing.T) {
	t.Helper()
	select {
	case <-f.session.Done():
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for session to close")
	}
}

func waitClosed(t *testing.T, c <-chan struct{}, desc string) {
	t.Helper()
	select {
	case <-c:
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for %s", desc)
	}
}

// emitUntilEvent re-emits text until an event called name arrives. Frames
// that land while the previous one is still queued are dropped, so a single
// Emit is not enough when the session has not drained its last frame.
func emitUntilEvent(t *testing.T, f *fixture, st *fakeStream, text, name string) event {
	t.Helper()
	tick := time.NewTicker(5 * time.Millisecond)
	defer tick.Stop()
	deadline := time.After(waitTimeout)
	st.Emit(text)
	for {
		select {
		case e := <-f.events.ch:
			if e.name == name {
				return e
			}
		case <-tick.C:
			st.Emit(text)
		case <-deadline:
			t.Fatalf("timed out waiting for %s after emitting %q", name, text)
			return event{}
		}
	}
}
