// Package server is the Vega chat/game server: the TCP accept loop,
// per-connection frame reader, and the packet-type dispatch table that
// ties the session registry, identity store, blob store, presence
// broadcaster, and every game manager together.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/vegamsg/vegaserver/internal/blobstore"
	"github.com/vegamsg/vegaserver/internal/config"
	"github.com/vegamsg/vegaserver/internal/discovery"
	"github.com/vegamsg/vegaserver/internal/games/arena"
	"github.com/vegamsg/vegaserver/internal/games/cardbet"
	"github.com/vegamsg/vegaserver/internal/games/cardhand"
	"github.com/vegamsg/vegaserver/internal/games/drawguess"
	"github.com/vegamsg/vegaserver/internal/games/rps"
	"github.com/vegamsg/vegaserver/internal/games/telephone"
	"github.com/vegamsg/vegaserver/internal/games/tictactoe"
	"github.com/vegamsg/vegaserver/internal/identity"
	"github.com/vegamsg/vegaserver/internal/presence"
	"github.com/vegamsg/vegaserver/internal/protocol"
	"github.com/vegamsg/vegaserver/internal/session"
)

const sendBufSize = 4096

// Server is the Vega server: one TCP listener, one registry of
// authenticated sessions, and every game manager wired to broadcast
// through that registry.
type Server struct {
	cfg config.Server
	log *slog.Logger

	sessions *session.Registry
	identity *identity.Store
	blobs    *blobstore.Store
	presence *presence.Broadcaster

	writePool *protocol.BytePool

	tictactoe *tictactoe.Manager
	rps       *rps.Manager
	drawguess *drawguess.Manager
	telephone *telephone.Manager
	cardhand  *cardhand.Manager
	cardbet   *cardbet.Manager
	arena     *arena.Engine

	listener net.Listener
	mu       sync.Mutex
}

// New wires a Server against the given config, identity store, and
// blob store, registering every game manager's broadcast callbacks.
func New(cfg config.Server, idStore *identity.Store, blobs *blobstore.Store, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	sessions := session.NewRegistry()
	s := &Server{
		cfg:       cfg,
		log:       log,
		sessions:  sessions,
		identity:  idStore,
		blobs:     blobs,
		presence:  presence.NewBroadcaster(sessions),
		writePool: protocol.NewBytePool(sendBufSize),
		tictactoe: tictactoe.New(),
		rps:       rps.New(),
		drawguess: drawguess.New(),
		telephone: telephone.New(),
		cardhand:  cardhand.New(),
		cardbet:   cardbet.New(),
		arena:     arena.New(),
	}
	s.wireGameCallbacks()
	return s
}

// UserCount reports the number of currently authenticated sessions,
// for the discovery responder's probe reply.
func (s *Server) UserCount() int { return s.sessions.Count() }

// Discovery returns a Responder advertising this server's TCP port.
func (s *Server) Discovery() *discovery.Responder {
	return discovery.New(s.cfg.ServerName, s.cfg.TCPPort, s.UserCount, s.log)
}

// Addr returns the address the server is listening on, or nil if not yet started.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run listens on cfg.BindAddress:cfg.TCPPort and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.BindAddress, s.cfg.TCPPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	return s.Serve(ctx, ln)
}

// Serve accepts connections from ln until ctx is cancelled. Exposed
// separately from Run so tests can supply their own listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	wg.Go(func() {
		s.log.Info("vega server started", "address", ln.Addr())
		s.acceptLoop(ctx, &wg, ln)
	})
	wg.Wait()
	return nil
}

func (s *Server) acceptLoop(ctx context.Context, wg *sync.WaitGroup, ln net.Listener) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			conn, err := ln.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				s.log.Error("accept failed", "error", err)
				continue
			}
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				_ = tcpConn.SetKeepAlive(true)
				_ = tcpConn.SetKeepAlivePeriod(30 * time.Second)
			}
			wg.Go(func() {
				s.handleConnection(ctx, conn)
			})
		}
	}
}

// connCtx is one accepted connection's mutable dispatch state: sess is
// nil until Login succeeds, at which point every further frame routes
// through the authenticated path.
type connCtx struct {
	conn net.Conn
	sess *session.Session
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("recovered from handler panic", "remote", conn.RemoteAddr().String(), "panic", r)
		}
	}()
	done := make(chan struct{})
	defer close(done)
	defer conn.Close()

	cc := &connCtx{conn: conn}
	defer s.cleanupConnection(cc)

	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		host = conn.RemoteAddr().String()
	}
	s.log.Debug("connection accepted", "remote", host)

	fr := protocol.NewFrameReader(conn, 0)
	for {
		readTimeout := s.cfg.ReadTimeout.D()
		if readTimeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
				return
			}
		}

		frame, err := fr.ReadFrame()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				s.log.Debug("connection closed", "remote", host, "error", err)
			}
			return
		}

		env, err := protocol.DecodeEnvelope(frame)
		if err != nil {
			s.log.Warn("dropping malformed frame", "remote", host, "error", err)
			continue
		}

		s.dispatch(cc, env)
	}
}

// cleanupConnection runs once per connection on disconnect: it leaves
// every game the session occupied, unregisters it, and broadcasts the
// resulting offline presence.
func (s *Server) cleanupConnection(cc *connCtx) {
	if cc.sess == nil {
		return
	}
	username := cc.sess.Username()
	s.leaveAllGames(username)
	s.sessions.Unregister(username, cc.sess)
	cc.sess.Close()
	if u, ok := s.identity.GetUser(username); ok {
		s.presence.Broadcast(u, "")
	}
}

func (s *Server) leaveAllGames(username string) {
	s.handleTicTacToeAbandon(username)
	s.handleRPSAbandon(username)

	if lobby, destroyed, wasHost, err := s.drawguess.Lobbies().OnDisconnect(username); err == nil {
		s.handleDrawGuessDeparture(username, lobby, destroyed, wasHost)
	}
	if lobby, destroyed, wasHost, err := s.telephone.Lobbies().OnDisconnect(username); err == nil {
		s.handleTelephoneDeparture(username, lobby, destroyed, wasHost)
	}
	if lobby, destroyed, wasHost, err := s.cardhand.Lobbies().OnDisconnect(username); err == nil {
		s.handleCardHandDeparture(lobby, destroyed, wasHost)
	}
	if lobby, destroyed, wasHost, err := s.cardbet.Lobbies().OnDisconnect(username); err == nil {
		s.handleCardBetDeparture(lobby, destroyed, wasHost)
	}
	s.arena.Leave(username)
}

// RunPingLoop sends a liveness Ping to every authenticated session on
// a cfg.PingInterval cadence until ctx is cancelled. Session.Send
// already closes a session whose outbound queue is full, which is
// this loop's disconnect-on-write-failure behavior.
func (s *Server) RunPingLoop(ctx context.Context) {
	interval := s.cfg.PingInterval.D()
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sessions.ForEach(func(username string, sess *session.Session) {
				s.sendEnvelope(sess, protocol.TypePing, protocol.Ping{})
			})
		}
	}
}

// preAuthAllowed reports whether t may be handled before Login succeeds.
func preAuthAllowed(t protocol.PacketType) bool {
	switch t {
	case protocol.TypePing, protocol.TypeRegister, protocol.TypeLogin:
		return true
	default:
		return false
	}
}

// writeDirect sends env straight to conn, bypassing the per-session
// write queue. Safe only before a session's writePump has started,
// while the connection's single read goroutine is the sole writer.
func writeDirect(conn net.Conn, t protocol.PacketType, payload any) {
	env, err := protocol.NewEnvelope(t, "", time.Now().UnixMilli(), payload)
	if err != nil {
		return
	}
	_ = protocol.WriteEnvelope(conn, env)
}

// sendEnvelope queues a frame on sess's write pump.
func (s *Server) sendEnvelope(sess *session.Session, t protocol.PacketType, payload any) {
	env, err := protocol.NewEnvelope(t, "", time.Now().UnixMilli(), payload)
	if err != nil {
		return
	}
	frame, err := protocol.EncodeEnvelope(env)
	if err != nil {
		return
	}
	_ = sess.Send(frame)
}

// sendTo looks up username's live session and queues a frame, a no-op
// if the user is not currently connected.
func (s *Server) sendTo(username string, t protocol.PacketType, payload any) bool {
	sess, ok := s.sessions.Get(username)
	if !ok {
		return false
	}
	s.sendEnvelope(sess, t, payload)
	return true
}

// sendError queues a generic Error envelope to sess.
func (s *Server) sendError(sess *session.Session, code protocol.ErrorCode, message string) {
	s.sendEnvelope(sess, protocol.TypeError, protocol.Error{Code: code, Message: message})
}

// sendGame wraps data as a GamePacket and queues it to username.
func (s *Server) sendGame(username string, kind protocol.GameKind, msg protocol.GameMsg, data any) bool {
	gp, err := protocol.NewGamePacket(kind, msg, data)
	if err != nil {
		return false
	}
	return s.sendTo(username, protocol.TypeGame, gp)
}

// broadcastGame sends the same game message to every user in members.
func (s *Server) broadcastGame(members []string, kind protocol.GameKind, msg protocol.GameMsg, data any) {
	for _, u := range members {
		s.sendGame(u, kind, msg, data)
	}
}

// setGameActivity records gameName and each member's opponent(s) on
// their session, for presence's "Playing X with Y" overlay.
func (s *Server) setGameActivity(members []string, gameName string) {
	for _, member := range members {
		if sess, ok := s.sessions.Get(member); ok {
			sess.SetGameActivity(gameName, otherMembers(members, member))
		}
	}
}

// clearGameActivity removes the game-activity overlay from every
// member's session, typically alongside SetInGameLobby("").
func (s *Server) clearGameActivity(members []string) {
	for _, member := range members {
		if sess, ok := s.sessions.Get(member); ok {
			sess.SetGameActivity("", "")
		}
	}
}

// displayNames resolves each member's display name for a lobby
// broadcast, skipping any username the identity store no longer has.
func (s *Server) displayNames(members []string) map[string]string {
	out := make(map[string]string, len(members))
	for _, member := range members {
		if u, ok := s.identity.GetUser(member); ok {
			out[member] = u.DisplayName
		}
	}
	return out
}

// otherMembers joins every member except self with ", ".
func otherMembers(members []string, self string) string {
	others := make([]string, 0, len(members))
	for _, m := range members {
		if m != self {
			others = append(others, m)
		}
	}
	return strings.Join(others, ", ")
}

func mustRaw(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
