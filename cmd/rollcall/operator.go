package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/scan"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/service"
)

// operator is the terminal side of a scan session. It prints outcomes and
// turns typed answers into gate decisions.
type operator struct {
	out         io.Writer
	interactive bool
	autoAccept  bool

	// ready is signalled each time the session can take the next code.
	// Piped input waits on it so no line lands while frames are suspended.
	ready chan struct{}

	mu       sync.Mutex
	session  *scan.Session
	recorded int
	// writeFailed is set when the last write failed and the candidate is
	// about to come back to the gate.
	writeFailed bool
}

func newOperator(out io.Writer, interactive, autoAccept bool) *operator {
	return &operator{
		out:         out,
		interactive: interactive,
		autoAccept:  autoAccept,
		ready:       make(chan struct{}, 1),
	}
}

func (o *operator) attach(s *scan.Session) {
	o.mu.Lock()
	o.session = s
	o.mu.Unlock()
}

func (o *operator) current() *scan.Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session
}

func (o *operator) OnRecorded(personID string) {
	o.mu.Lock()
	o.recorded++
	o.mu.Unlock()
	fmt.Fprintf(o.out, "recorded %s\n", personID)
}

func (o *operator) OnCancelled() {
	fmt.Fprintln(o.out, "scan cancelled")
}

func (o *operator) OnError(kind service.Kind, message string) {
	fmt.Fprintf(o.out, "%s: %s\n", kind, message)
	switch kind {
	case service.KindPersistenceFailure:
		o.mu.Lock()
		o.writeFailed = true
		o.mu.Unlock()
	case service.KindDecodeInvalid:
		// Unreadable frames leave the session scanning.
		if s := o.current(); s != nil && s.State() == scan.StateScanning {
			o.signalReady()
		}
	}
}

func (o *operator) OnCandidate(c scan.Candidate) {
	who := c.Person.DisplayName()
	if c.Person.Email != "" && c.Person.Email != who {
		who += " <" + c.Person.Email + ">"
	}
	if !o.autoAccept {
		fmt.Fprintf(o.out, "Check in %s for %s? [y/N] ", who, c.OccasionID)
		return
	}

	o.mu.Lock()
	retry := o.writeFailed
	o.writeFailed = false
	s := o.session
	o.mu.Unlock()
	if s == nil {
		return
	}
	// A failed write is never retried without a person deciding to.
	if retry {
		fmt.Fprintf(o.out, "skipping %s after a failed write\n", who)
		s.Reject()
		return
	}
	fmt.Fprintf(o.out, "checking in %s\n", who)
	s.Accept()
}

func (o *operator) OnStateChange(_, to scan.State) {
	if to != scan.StateScanning {
		return
	}
	o.mu.Lock()
	o.writeFailed = false
	o.mu.Unlock()
	if o.interactive {
		fmt.Fprintln(o.out, "ready, scan a code")
	}
	o.signalReady()
}

func (o *operator) signalReady() {
	select {
	case o.ready <- struct{}{}:
	default:
	}
}

// awaitReady blocks until the session can take a code. It returns false
// once the session has finished.
func (o *operator) awaitReady(s *scan.Session) bool {
	select {
	case <-o.ready:
		return true
	case <-s.Done():
		return false
	}
}

// Recorded returns how many facts this operator saw written.
func (o *operator) Recorded() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.recorded
}

// route reads operator input line by line until EOF. While a candidate waits
// at the gate a line is an answer. Otherwise it is forwarded to codes as a
// scanned code, or dropped when codes is nil.
//
// Piped (non-interactive) codes are fed one at a time, and the session is
// closed once the last one has been handled.
func (o *operator) route(in io.Reader, codes io.Writer) error {
	paced := codes != nil && !o.interactive

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		s := o.current()
		if s == nil {
			continue
		}
		if _, waiting := s.Pending(); waiting {
			o.answer(s, line)
			continue
		}
		if codes == nil || line == "" {
			continue
		}
		if paced && !o.awaitReady(s) {
			return nil
		}
		if _, err := io.WriteString(codes, line+"\n"); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}

	if s := o.current(); s != nil && codes != nil {
		if paced && !o.awaitReady(s) {
			return nil
		}
		// End of input ends the session, Ctrl-D included.
		s.Close()
	}
	return nil
}

func (o *operator) answer(s *scan.Session, line string) {
	switch strings.ToLower(line) {
	case "y", "yes":
		s.Accept()
	case "", "n", "no":
		s.Reject()
		fmt.Fprintln(o.out, "skipped")
	default:
		fmt.Fprint(o.out, "please answer y or n: ")
	}
}

// isTerminal reports whether r is a terminal a person is typing into.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
