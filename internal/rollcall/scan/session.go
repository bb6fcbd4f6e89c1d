package scan

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/BrandonDHaskell/rollcall/internal/logging"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/payload"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/service"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

var (
	ErrSessionClosed  = errors.New("scan session is closed")
	ErrSessionRunning = errors.New("scan session is already running")
)

// errClosing unwinds a run after Close or context cancellation.
var errClosing = errors.New("scan session closing")

// Resolver turns a classified payload into a person.
type Resolver interface {
	Resolve(ctx context.Context, intent payload.Intent) (types.PersonIdentity, error)
}

// Recorder writes the attendance fact for an accepted candidate.
type Recorder interface {
	Record(ctx context.Context, occasionID, personID string) (types.AttendanceFact, error)
}

// Options configures a Session.
type Options struct {
	// ID tags log lines. A random UUID is used when empty.
	ID         string
	// OccasionID is the occasion every fact is recorded against. Run refuses
	// to start without one.
	OccasionID string
	// Mode defaults to single.
	Mode       Mode
	// DeviceID overrides the back/rear camera heuristic.
	DeviceID   string
	Logger     *slog.Logger
}

// Session is one scan-resolve-confirm-record loop bound to one occasion.
type Session struct {
	id         string
	occasionID string
	mode       Mode
	deviceID   string

	camera   Camera
	resolver Resolver
	recorder Recorder
	listener Listener
	gate     *Gate
	logger   *slog.Logger

	mu      sync.Mutex
	state   State
	closing bool
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSession builds an idle session. Nothing touches the camera until Run. A
// nil listener drops every notification.
func NewSession(cam Camera, resolver Resolver, recorder Recorder, listener Listener, opts Options) *Session {
	if listener == nil {
		listener = nopListener{}
	}
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	mode := opts.Mode
	if mode == "" {
		mode = ModeSingle
	}
	logger := logging.NewComponentLogger(opts.Logger, "scan").With(
		slog.String(logging.FieldSessionID, id),
		slog.String(logging.FieldOccasionID, opts.OccasionID),
	)
	return &Session{
		id:         id,
		occasionID: opts.OccasionID,
		mode:       mode,
		deviceID:   opts.DeviceID,
		camera:     cam,
		resolver:   resolver,
		recorder:   recorder,
		listener:   listener,
		gate:       newGate(),
		logger:     logger,
		state:      StateIdle,
		done:       make(chan struct{}),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed once the session is Closed and its camera released.
func (s *Session) Done() <-chan struct{} { return s.done }

// Accept confirms the candidate waiting at the gate.
func (s *Session) Accept() bool { return s.gate.Accept() }

// Reject drops the candidate waiting at the gate and resumes scanning.
func (s *Session) Reject() bool { return s.gate.Reject() }

// Pending returns the candidate waiting at the gate, if any.
func (s *Session) Pending() (Candidate, bool) { return s.gate.Pending() }

// Run acquires a camera and scans until the session closes or hits a fatal
// error. It returns nil when the session ends Closed. On a fatal error the
// error has already been reported to the listener, the camera is released,
// the session is back in Idle, and Run may be called again. A Close that
// arrives while that fatal error is being handed back still ends the session
// Closed.
func (s *Session) Run(ctx context.Context) error {
	if s.occasionID == "" {
		return service.ErrInvalidOccasionID
	}

	s.mu.Lock()
	switch {
	case s.closing:
		s.mu.Unlock()
		return ErrSessionClosed
	case s.running:
		s.mu.Unlock()
		return ErrSessionRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.mu.Unlock()

	err := s.run(runCtx)
	cancel()

	switch {
	case err == nil:
		// Single-shot record already moved the session to Closed.
	case errors.Is(err, errClosing) || runCtx.Err() != nil:
		err = errClosing
	default:
		s.transition(StateIdle)
	}

	// A Close that lands after the run loop returned only cancelled a
	// context nobody watches any more. Honour it here, under the same lock
	// Close reads running with.
	s.mu.Lock()
	s.running = false
	s.cancel = nil
	recorded := s.state == StateClosed
	stopping := !recorded && (s.closing || errors.Is(err, errClosing))
	if recorded || stopping {
		s.closing = true
	}
	s.mu.Unlock()

	if stopping {
		s.transition(StateClosed)
		s.logger.Info("scan session cancelled")
		s.listener.OnCancelled()
		err = nil
	}
	if recorded || stopping {
		close(s.done)
	}
	return err
}

// Close stops the session from any state. It never blocks on the camera;
// wait on Done to know the camera has been released. Calling Close more than
// once is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return
	}
	s.closing = true
	if s.running {
		cancel := s.cancel
		s.mu.Unlock()
		cancel()
		return
	}
	from := s.state
	s.state = StateClosed
	s.mu.Unlock()

	s.notifyState(from, StateClosed)
	s.listener.OnCancelled()
	close(s.done)
}

func (s *Session) run(ctx context.Context) error {
	s.transition(StateAcquiring)

	dev, err := s.pickDevice(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}

	frames := newFrameGate()
	logger := s.logger.With(slog.String(logging.FieldDevice, dev.ID))
	logger.Info("starting camera", "label", dev.Label)

	stream, err := s.camera.Start(ctx, dev.ID, frames.deliver)
	if err != nil {
		return s.fail(ctx, service.NewError(service.KindCameraUnavailable, err, "could not start camera %s", dev.Label))
	}
	defer func() {
		if err := stream.Stop(); err != nil {
			logger.Warn("camera stop failed", logging.Error(err))
		}
	}()

	// Close may have arrived while Start was still pending.
	if ctx.Err() != nil {
		return errClosing
	}
	return s.scan(ctx, stream, frames)
}

func (s *Session) pickDevice(ctx context.Context) (Device, error) {
	devices, err := s.camera.Devices(ctx)
	if err != nil {
		return Device{}, service.NewError(service.KindCameraUnavailable, err, "camera access failed")
	}
	if len(devices) == 0 {
		return Device{}, service.NewError(service.KindCameraUnavailable, nil, "no camera found")
	}
	dev, ok := SelectDevice(devices, s.deviceID)
	if !ok {
		return Device{}, service.NewError(service.KindCameraUnavailable, nil, "camera %q not found", s.deviceID)
	}
	return dev, nil
}

func (s *Session) scan(ctx context.Context, stream Stream, frames *frameGate) error {
	for {
		frames.open()
		s.transition(StateScanning)

		intent, err := s.awaitCandidate(ctx, stream, frames)
		if err != nil {
			return err
		}

		s.transition(StateCandidateFound)
		person, err := s.resolver.Resolve(ctx, intent)
		if err != nil {
			if ctx.Err() != nil {
				return errClosing
			}
			s.transition(StateError)
			s.report(classify(err, service.KindDirectoryUnavailable, "directory lookup failed"))
			continue
		}

		finished, err := s.confirm(ctx, Candidate{OccasionID: s.occasionID, Person: person, Intent: intent})
		if err != nil || finished {
			return err
		}
	}
}

// awaitCandidate blocks until a frame classifies as something other than
// Invalid. Frame delivery is suspended on return.
//
// A camera keeps decoding the same unreadable code for as long as it stays in
// view, so an Invalid frame is reported only when its text differs from the
// previous one.
func (s *Session) awaitCandidate(ctx context.Context, stream Stream, frames *frameGate) (payload.Intent, error) {
	var (
		lastInvalid string
		seenInvalid bool
	)
	for {
		select {
		case <-ctx.Done():
			return nil, errClosing
		case err, ok := <-stream.Err():
			if ctx.Err() != nil {
				return nil, errClosing
			}
			if !ok || err == nil {
				err = errors.New("stream ended")
			}
			return nil, s.fail(ctx, service.NewError(service.KindCameraUnavailable, err, "camera stopped"))
		case raw := <-frames.c:
			intent := payload.Classify(raw)
			if inv, ok := intent.(payload.Invalid); ok {
				if !seenInvalid || raw != lastInvalid {
					lastInvalid, seenInvalid = raw, true
					s.report(service.NewError(service.KindDecodeInvalid, nil, "unreadable code: %s", inv.Reason))
				}
				continue
			}
			frames.suspend()
			s.logger.Debug("candidate decoded", logging.FieldIntent, intent.Kind())
			return intent, nil
		}
	}
}

// confirm runs the gate and the write for one candidate. It returns true
// when a single-shot session has recorded and closed.
func (s *Session) confirm(ctx context.Context, cand Candidate) (bool, error) {
	logger := s.logger.With(slog.String(logging.FieldPersonID, cand.Person.ID))
	for {
		s.transition(StateConfirming)
		accepted, err := s.gate.offer(ctx, cand, func() { s.notifyCandidate(cand) })
		if err != nil {
			return false, errClosing
		}
		if !accepted {
			logger.Info("candidate rejected")
			return false, nil
		}

		s.transition(StateRecording)
		fact, err := s.recorder.Record(ctx, cand.OccasionID, cand.Person.ID)
		if err == nil {
			logger.Info("attendance recorded",
				"status", string(fact.Status),
				"recorded_at", fact.RecordedAt,
			)
			if s.mode == ModeSingle {
				s.transition(StateClosed)
				s.listener.OnRecorded(cand.Person.ID)
				return true, nil
			}
			s.listener.OnRecorded(cand.Person.ID)
			return false, nil
		}
		if ctx.Err() != nil {
			return false, errClosing
		}

		err = classify(err, service.KindPersistenceFailure, "could not record attendance")
		s.report(err)
		if !errors.Is(err, service.ErrPersistenceFailure) {
			return false, nil
		}
		// Same candidate goes back to the gate for a manual retry.
	}
}

// fail reports a fatal error and moves to Error. Run takes it on to Idle
// after the camera is released.
func (s *Session) fail(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return errClosing
	}
	s.transition(StateError)
	s.report(err)
	return err
}

func (s *Session) report(err error) {
	kind, _ := service.KindOf(err)
	msg := err.Error()
	var e *service.Error
	if errors.As(err, &e) && e.Message != "" {
		msg = e.Message
	}
	if kind.Fatal() {
		s.logger.Error("scan failed", logging.FieldKind, string(kind), logging.Error(err))
	} else {
		s.logger.Warn("scan attempt failed", logging.FieldKind, string(kind), logging.Error(err))
	}
	s.listener.OnError(kind, msg)
}

func (s *Session) transition(to State) {
	s.mu.Lock()
	from := s.state
	if !CanTransition(from, to) {
		s.mu.Unlock()
		s.logger.Error("invalid state transition", "from", from.String(), "to", to.String())
		return
	}
	s.state = to
	s.mu.Unlock()

	s.logger.Debug("state change", "from", from.String(), logging.FieldState, to.String())
	s.notifyState(from, to)
}

func (s *Session) notifyState(from, to State) {
	if l, ok := s.listener.(StateListener); ok {
		l.OnStateChange(from, to)
	}
}

func (s *Session) notifyCandidate(c Candidate) {
	if l, ok := s.listener.(CandidateListener); ok {
		l.OnCandidate(c)
	}
}

// classify gives unclassified errors the fallback kind.
func classify(err error, fallback service.Kind, msg string) error {
	if _, ok := service.KindOf(err); ok {
		return err
	}
	return service.NewError(fallback, err, "%s", msg)
}

// frameGate forwards decoded frames to the session while scanning and drops
// them otherwise. At most one frame is buffered.
type frameGate struct {
	accepting atomic.Bool
	c         chan string
}

func newFrameGate() *frameGate {
	return &frameGate{c: make(chan string, 1)}
}

func (f *frameGate) deliver(text string) {
	if !f.accepting.Load() {
		return
	}
	select {
	case f.c <- text:
	default:
	}
}

func (f *frameGate) open() {
	f.drain()
	f.accepting.Store(true)
}

func (f *frameGate) suspend() {
	f.accepting.Store(false)
	f.drain()
}

func (f *frameGate) drain() {
	for {
		select {
		case <-f.c:
		default:
			return
		}
	}
}
