package notify

import (
	"sync"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

// Stream is one open push channel to a client.
type Stream interface {
	Write(p []byte) (int, error)
	Flush()
}

// Registry holds one stream per recipient. Concurrent registrations for
// the same recipient resolve as last writer wins.
type Registry struct {
	mu      sync.RWMutex
	streams map[string]Stream
	log     *logrus.Entry
}

func NewRegistry(log *logrus.Entry) *Registry {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Registry{
		streams: make(map[string]Stream),
		log:     log.WithField("component", "notify"),
	}
}

// Register stores stream for recipientID, replacing any previous one.
func (r *Registry) Register(recipientID string, stream Stream) {
	r.mu.Lock()
	_, replaced := r.streams[recipientID]
	r.streams[recipientID] = stream
	r.mu.Unlock()

	r.log.WithFields(logrus.Fields{"recipient": recipientID, "replaced": replaced}).Debug("stream registered")
}

// Unregister removes the stream for recipientID if there is one.
func (r *Registry) Unregister(recipientID string) {
	r.mu.Lock()
	delete(r.streams, recipientID)
	r.mu.Unlock()
}

// Release removes the entry for recipientID only while it still holds
// stream. It reports whether an entry was removed.
func (r *Registry) Release(recipientID string, stream Stream) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.streams[recipientID]
	if !exists || current != stream {
		return false
	}
	delete(r.streams, recipientID)
	return true
}

// Notify writes payload as a single event to the recipient's stream. A
// recipient without a stream is skipped silently. Only a payload that
// cannot be encoded yields an error.
func (r *Registry) Notify(recipientID string, payload interface{}) error {
	r.mu.RLock()
	stream, exists := r.streams[recipientID]
	r.mu.RUnlock()
	if !exists {
		return nil
	}

	frame, err := Frame(payload)
	if err != nil {
		return err
	}

	if _, err := stream.Write(frame); err != nil {
		r.log.WithError(err).WithField("recipient", recipientID).Debug("event write failed")
		return nil
	}
	stream.Flush()
	return nil
}

// Len returns the number of registered recipients.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.streams)
}

// Frame encodes payload in server-sent-events framing.
func Frame(payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	frame := make([]byte, 0, len(body)+8)
	frame = append(frame, "data: "...)
	frame = append(frame, body...)
	frame = append(frame, '\n', '\n')
	return frame, nil
}
