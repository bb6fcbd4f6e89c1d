package camera

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"
)

// maxLine bounds a single decoded payload. QR codes top out well below this.
const maxLine = 8 * 1024

// lineStream is a scan.Stream fed one decoded line at a time.
type lineStream struct {
	onDecoded func(string)
	errc      chan error
	stopped   chan struct{}
	stopOnce  sync.Once
	closer    func() error
	closeErr  error
}

func newLineStream(onDecoded func(string), closer func() error) *lineStream {
	return &lineStream{
		onDecoded: onDecoded,
		errc:      make(chan error, 1),
		stopped:   make(chan struct{}),
		closer:    closer,
	}
}

// readLines calls emit for every non-blank line of r and returns the error
// that ended the read, io.EOF for a clean end of input. Scanners terminate
// codes with CR, LF or CRLF depending on their suffix setting.
func readLines(r io.Reader, emit func(string)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 512), maxLine)
	sc.Split(scanCodes)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			emit(line)
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return io.EOF
}

func scanCodes(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func (s *lineStream) deliver(line string) {
	if s.isStopped() {
		return
	}
	s.onDecoded(line)
}

func (s *lineStream) isStopped() bool {
	select {
	case <-s.stopped:
		return true
	default:
		return false
	}
}

// fail reports a device failure once. Failures after Stop are dropped.
func (s *lineStream) fail(err error) {
	if s.isStopped() {
		return
	}
	select {
	case s.errc <- err:
	default:
	}
}

func (s *lineStream) Err() <-chan error { return s.errc }

func (s *lineStream) Stop() error {
	s.stopOnce.Do(func() {
		close(s.stopped)
		if s.closer != nil {
			s.closeErr = s.closer()
		}
	})
	if errors.Is(s.closeErr, io.EOF) {
		return nil
	}
	return s.closeErr
}
