package session

import (
	"strings"
	"sync"
	"time"

	"github.com/vegamsg/vegaserver/internal/protocol"
)

// Registry maps a username to its single live Session. Logging in
// from a second connection displaces the first: Register installs the
// new session and returns the old one, which is then passed to
// Displace to be sent a KICKED error and closed.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

func key(username string) string { return strings.ToLower(username) }

// Register installs sess as the live session for username, displacing
// and returning any session it replaces.
func (r *Registry) Register(username string, sess *Session) (displaced *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(username)
	displaced = r.sessions[k]
	r.sessions[k] = sess
	return displaced
}

// Unregister removes username's session, but only if sess is still
// the registered one — guards against a just-displaced session's own
// disconnect handler removing the session that replaced it.
func (r *Registry) Unregister(username string, sess *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(username)
	if r.sessions[k] == sess {
		delete(r.sessions, k)
	}
}

// Get returns the live session for username, if any.
func (r *Registry) Get(username string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[key(username)]
	return s, ok
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// ForEach iterates over a snapshot of the registered sessions taken
// under the lock, then calls fn outside the lock so fn may safely
// perform I/O such as sending a frame.
func (r *Registry) ForEach(fn func(username string, sess *Session)) {
	r.mu.RLock()
	snapshot := make(map[string]*Session, len(r.sessions))
	for k, v := range r.sessions {
		snapshot[k] = v
	}
	r.mu.RUnlock()

	for k, v := range snapshot {
		fn(k, v)
	}
}

// Displace sends sess a KICKED error frame and closes it. Used by
// Login handling when a second connection takes over a username.
func Displace(sess *Session) {
	env, err := protocol.NewEnvelope(protocol.TypeError, "", time.Now().UnixMilli(), protocol.Error{
		Code:    protocol.ErrKicked,
		Message: "logged in from another location",
	})
	if err == nil {
		if frame, err := protocol.EncodeEnvelope(env); err == nil {
			_ = sess.Send(frame)
		}
	}
	sess.Close()
}
