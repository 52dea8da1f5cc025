package notify

import (
	"errors"
	"net/http"
	"sync"
)

var (
	ErrStreamingUnsupported = errors.New("streaming not supported")
	ErrStreamClosed         = errors.New("stream closed")
)

// HTTPStream adapts a response writer into a Stream. Writes from the
// request goroutine and from notifiers are serialized.
type HTTPStream struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	closed  bool
}

// NewHTTPStream writes the event-stream headers and returns the stream.
func NewHTTPStream(w http.ResponseWriter) (*HTTPStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &HTTPStream{w: w, flusher: flusher}, nil
}

func (s *HTTPStream) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrStreamClosed
	}
	return s.w.Write(p)
}

func (s *HTTPStream) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.flusher.Flush()
}

// Close detaches the stream from its response writer. It must run before
// the handler that owns the writer returns; later writes fail with
// ErrStreamClosed and flushes are dropped.
func (s *HTTPStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Ping writes an SSE comment line, which clients ignore, to keep
// intermediaries from closing an idle connection.
func (s *HTTPStream) Ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStreamClosed
	}
	if _, err := s.w.Write([]byte(": ping\n\n")); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
