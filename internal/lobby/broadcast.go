package lobby

// Sender is the minimal capability broadcast helpers need from a
// session: enough to hand it an already-encoded frame. Defined here,
// rather than imported from the session package, so this package has
// no dependency on session/protocol — callers inject real sessions.
type Sender interface {
	Send(frame []byte) error
}

// BroadcastToMembers delivers frame to every username in members,
// skipping except (if non-empty) and any username with no live
// session. Callers must take the members snapshot under the manager
// lock and call this after releasing it, so no network I/O ever runs
// while the lock is held.
func BroadcastToMembers(members []string, frame []byte, except string, getSession func(string) (Sender, bool)) {
	for _, username := range members {
		if username == except {
			continue
		}
		sess, ok := getSession(username)
		if !ok {
			continue
		}
		_ = sess.Send(frame)
	}
}
