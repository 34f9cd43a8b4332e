package sse

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultEventType is the type of events that carry no "event:" field.
const DefaultEventType = "message"

// DefaultMaxLineSize bounds a single line of the stream.
const DefaultMaxLineSize = 1 << 20

// Event is one dispatched server-sent event.
type Event struct {
	ID    string        // last event id seen on the stream when this event was dispatched
	Type  string        // "message" unless the server named it
	Data  []byte        // data lines joined with '\n'
	Retry time.Duration // reconnection time announced by the server, zero if never sent
}

// Stream reads events from an open text/event-stream body.
// Next is not safe for concurrent use; Close may be called from any goroutine.
type Stream struct {
	body        io.ReadCloser
	r           *bufio.Reader
	maxLineSize int

	lastID   string
	retry    time.Duration
	skipLF   bool
	started  bool
	line     []byte
	closed   atomic.Bool
	closeErr error
	once     sync.Once
}

// NewStream wraps body. It is used by Client.Connect and is exported for
// transports that obtain the body some other way.
func NewStream(body io.ReadCloser) *Stream {
	return &Stream{
		body:        body,
		r:           bufio.NewReader(body),
		maxLineSize: DefaultMaxLineSize,
	}
}

// Next blocks until the next event is dispatched. It returns io.EOF when the
// server ends the stream; a partially received event is discarded.
func (s *Stream) Next() (Event, error) {
	var (
		evType  string
		data    bytes.Buffer
		hasData bool
	)

	for {
		line, err := s.readLine()
		if err != nil {
			if s.closed.Load() {
				return Event{}, ErrStreamClosed
			}
			return Event{}, err
		}

		if len(line) == 0 {
			if !hasData {
				evType = ""
				continue
			}
			payload := data.Bytes()
			payload = payload[:len(payload)-1] // trailing '\n' of the last data line
			ev := Event{
				ID:    s.lastID,
				Type:  evType,
				Data:  append([]byte(nil), payload...),
				Retry: s.retry,
			}
			if ev.Type == "" {
				ev.Type = DefaultEventType
			}
			return ev, nil
		}

		if line[0] == ':' {
			continue
		}

		field, value := splitField(line)
		switch field {
		case "event":
			evType = value
		case "data":
			data.WriteString(value)
			data.WriteByte('\n')
			hasData = true
		case "id":
			if !strings.ContainsRune(value, 0) {
				s.lastID = value
			}
		case "retry":
			if ms, ok := parseRetry(value); ok {
				s.retry = ms
			}
		}
	}
}

// LastEventID returns the most recent id received, for Last-Event-ID on reconnect.
func (s *Stream) LastEventID() string {
	return s.lastID
}

// Close releases the underlying body. It is idempotent.
func (s *Stream) Close() error {
	s.once.Do(func() {
		s.closed.Store(true)
		s.closeErr = s.body.Close()
	})
	return s.closeErr
}

// readLine returns the next line without its terminator. CR, LF and CRLF
// all end a line.
func (s *Stream) readLine() (string, error) {
	s.line = s.line[:0]
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			// an unterminated last line is dropped with the rest of its event
			return "", err
		}

		if s.skipLF {
			s.skipLF = false
			if b == '\n' {
				continue
			}
		}

		switch b {
		case '\r':
			s.skipLF = true
			return s.finishLine(), nil
		case '\n':
			return s.finishLine(), nil
		}

		if len(s.line) >= s.maxLineSize {
			return "", ErrLineTooLong
		}
		s.line = append(s.line, b)
	}
}

func (s *Stream) finishLine() string {
	line := s.line
	if !s.started {
		s.started = true
		line = bytes.TrimPrefix(line, []byte("\xEF\xBB\xBF"))
	}
	return string(line)
}

func splitField(line string) (field, value string) {
	field, value, found := strings.Cut(line, ":")
	if !found {
		return line, ""
	}
	return field, strings.TrimPrefix(value, " ")
}

func parseRetry(value string) (time.Duration, bool) {
	if value == "" {
		return 0, false
	}
	for _, c := range value {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(ms) * time.Millisecond, true
}
