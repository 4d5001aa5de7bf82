// Package sse frames typed gateway events as Server-Sent Events and manages
// the response lifecycle. Every stream the gateway opens terminates with
// exactly one "done" event, so clients can reliably detect completion.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Event types emitted over a gateway stream. Per stream the sequence is
// progress* -> (chunk | error) -> done.
const (
	TypeProgress = "progress"
	TypeChunk    = "chunk"
	TypeError    = "error"
	TypeDone     = "done"
)

// Event is one discriminated message on an agent response stream.
type Event struct {
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Progress builds a progress event with a status message ("started", "cache").
func Progress(message string) Event {
	return Event{Type: TypeProgress, Message: message}
}

// Chunk builds a chunk event carrying a result payload.
func Chunk(payload json.RawMessage) Event {
	return Event{Type: TypeChunk, Data: payload}
}

// Error builds an error event. It is always followed by a done event.
func Error(message string) Event {
	return Event{Type: TypeError, Message: message}
}

// Done builds the stream-terminating event.
func Done() Event {
	return Event{Type: TypeDone}
}

// Encode renders an event as a single SSE frame: "data: <json>\n\n".
func Encode(ev Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode sse event: %w", err)
	}
	return []byte("data: " + string(data) + "\n\n"), nil
}

// Sink receives gateway events. The HTTP Writer implements it; tests use
// in-memory sinks to observe the event sequence without a network.
type Sink interface {
	Send(ev Event) error
}

// Writer streams events to an http.ResponseWriter, flushing each frame.
// After the first write failure it goes sticky-failed: subsequent sends
// return the original error without touching the connection, which stops
// the handler from doing further work for a disconnected client.
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
	err     error
}

// NewWriter sets the event-stream headers and writes the 200 status.
// Call it only once the request is past validation and rate limiting;
// everything after this point must end with a done event.
func NewWriter(w http.ResponseWriter) *Writer {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache, no-transform")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	return &Writer{w: w, flusher: flusher}
}

// Send writes one framed event.
func (sw *Writer) Send(ev Event) error {
	if sw.err != nil {
		return sw.err
	}
	frame, err := Encode(ev)
	if err != nil {
		sw.err = err
		return err
	}
	if _, err := sw.w.Write(frame); err != nil {
		sw.err = fmt.Errorf("write sse frame: %w", err)
		return sw.err
	}
	if sw.flusher != nil {
		sw.flusher.Flush()
	}
	return nil
}

// Err returns the sticky write error, if any.
func (sw *Writer) Err() error { return sw.err }
