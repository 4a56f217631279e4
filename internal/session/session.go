// Package session manages authenticated connections: per-connection
// write queues and the registry that maps a username to its single
// live connection.
package session

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vegamsg/vegaserver/internal/protocol"
)

const defaultSendQueueSize = 256

// PresenceState tracks what the owning session has told the server
// about its own availability, independent of whether it is in a game.
type PresenceState = protocol.PresenceState

// Session is one authenticated TCP connection. All outbound frames go
// through a buffered channel drained by a dedicated writer goroutine,
// so a slow reader never blocks whoever is broadcasting to it.
type Session struct {
	conn net.Conn
	ip   string

	mu              sync.Mutex
	username        string
	presence        PresenceState
	personalMessage string
	inGameLobby     string // non-empty while seated in a lobby or arena
	gameName        string // human-readable label of the game occupying inGameLobby
	gameOpponent    string // other participant(s), joined with ", "

	sendCh    chan []byte
	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	writePool    *protocol.BytePool
	writeTimeout time.Duration
}

// New wraps conn as a Session for the given username.
func New(conn net.Conn, username string, writePool *protocol.BytePool, sendQueueSize int, writeTimeout time.Duration) *Session {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		host = conn.RemoteAddr().String()
	}
	if sendQueueSize <= 0 {
		sendQueueSize = defaultSendQueueSize
	}
	return &Session{
		conn:         conn,
		ip:           host,
		username:     username,
		presence:     protocol.PresenceOnline,
		sendCh:       make(chan []byte, sendQueueSize),
		closeCh:      make(chan struct{}),
		writePool:    writePool,
		writeTimeout: writeTimeout,
	}
}

// Conn returns the underlying connection.
func (s *Session) Conn() net.Conn { return s.conn }

// IP returns the client's remote address host.
func (s *Session) IP() string { return s.ip }

// Username returns the authenticated username.
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// Presence returns the user-chosen presence state.
func (s *Session) Presence() PresenceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presence
}

// SetPresence updates the user-chosen presence state.
func (s *Session) SetPresence(p PresenceState) {
	s.mu.Lock()
	s.presence = p
	s.mu.Unlock()
}

// PersonalMessage returns the user-chosen status line.
func (s *Session) PersonalMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.personalMessage
}

// SetPersonalMessage updates the user-chosen status line.
func (s *Session) SetPersonalMessage(m string) {
	s.mu.Lock()
	s.personalMessage = m
	s.mu.Unlock()
}

// InGameLobby returns the lobby/arena id the session currently
// occupies, or "" if not seated anywhere.
func (s *Session) InGameLobby() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inGameLobby
}

// SetInGameLobby records which lobby/arena the session occupies.
func (s *Session) SetInGameLobby(id string) {
	s.mu.Lock()
	s.inGameLobby = id
	s.mu.Unlock()
}

// GameActivity returns the human-readable game name and opponent(s)
// recorded for the session's current lobby, for presence's "Playing X
// with Y" overlay.
func (s *Session) GameActivity() (name, opponent string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gameName, s.gameOpponent
}

// SetGameActivity records the game name and opponent(s) shown while
// the session occupies a lobby. Cleared by passing empty strings.
func (s *Session) SetGameActivity(name, opponent string) {
	s.mu.Lock()
	s.gameName = name
	s.gameOpponent = opponent
	s.mu.Unlock()
}

// Run starts the writer goroutine; call once per session.
func (s *Session) Run() {
	go s.writePump()
}

// writePump drains sendCh and writes to conn, batching queued frames
// with net.Buffers when more than one is ready.
func (s *Session) writePump() {
	bufs := make(net.Buffers, 0, 32)
	poolBufs := make([][]byte, 0, 32)

	defer func() {
		for {
			select {
			case pkt := <-s.sendCh:
				s.release(pkt)
			default:
				return
			}
		}
	}()

	for {
		select {
		case pkt, ok := <-s.sendCh:
			if !ok {
				return
			}

			if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
				s.release(pkt)
				return
			}

			queued := len(s.sendCh)
			if queued == 0 {
				_, err := s.conn.Write(pkt)
				s.release(pkt)
				if err != nil {
					return
				}
				continue
			}

			bufs = bufs[:0]
			poolBufs = poolBufs[:0]
			bufs = append(bufs, pkt)
			poolBufs = append(poolBufs, pkt)
			for range queued {
				p := <-s.sendCh
				bufs = append(bufs, p)
				poolBufs = append(poolBufs, p)
			}

			_, err := bufs.WriteTo(s.conn)
			for _, b := range poolBufs {
				s.release(b)
			}
			if err != nil {
				return
			}

		case <-s.closeCh:
			return
		}
	}
}

func (s *Session) release(b []byte) {
	if s.writePool != nil {
		s.writePool.Put(b)
	}
}

// Send queues frame for async delivery. Returns an error and closes
// the session if the queue is full, since a slow client falling
// arbitrarily far behind would otherwise exhaust memory.
func (s *Session) Send(frame []byte) error {
	select {
	case s.sendCh <- frame:
		return nil
	default:
		s.release(frame)
		s.Close()
		return fmt.Errorf("send queue full for %s", s.ip)
	}
}

// Closed reports whether the session has been closed.
func (s *Session) Closed() bool { return s.closed.Load() }

// Close stops the writer goroutine and closes the connection. Safe to
// call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.closeCh)
	})
	return s.conn.Close()
}
