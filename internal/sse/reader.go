package sse

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Reader parses events back out of an SSE byte stream. The gateway's own
// tests consume responses through it, and it is usable by any Go client of
// the agent endpoints.
type Reader struct {
	scanner *bufio.Scanner
}

// NewReader wraps r for frame-by-frame reading.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Reader{scanner: sc}
}

// Next returns the next event on the stream, or io.EOF when it ends.
// Non-data lines (comments, blank separators) are skipped.
func (r *Reader) Next() (Event, error) {
	for r.scanner.Scan() {
		line := strings.TrimRight(r.scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		payload, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var ev Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			return Event{}, fmt.Errorf("parse sse frame %q: %w", payload, err)
		}
		return ev, nil
	}
	if err := r.scanner.Err(); err != nil {
		return Event{}, err
	}
	return Event{}, io.EOF
}

// All drains the stream and returns every event in order.
func (r *Reader) All() ([]Event, error) {
	var events []Event
	for {
		ev, err := r.Next()
		if err == io.EOF {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
}
