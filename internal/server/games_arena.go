package server

import (
	"github.com/vegamsg/vegaserver/internal/protocol"
	"github.com/vegamsg/vegaserver/internal/session"
)

func (s *Server) dispatchArena(cc *connCtx, msg protocol.GameMsg, data []byte) {
	env := protocol.GamePacket{Kind: protocol.GameArena, Msg: msg, Data: data}
	username := cc.sess.Username()

	switch msg {
	case protocol.MsgJoinLobby:
		snapshot := s.arena.Join(username)
		cc.sess.SetInGameLobby("arena")
		cc.sess.SetGameActivity("Arena", "")
		s.sendGame(username, protocol.GameArena, protocol.MsgArenaSnapshot, snapshot)

	case protocol.MsgArenaInput:
		var req protocol.ArenaInput
		if err := env.Decode(&req); err != nil {
			return
		}
		s.arena.Input(username, req.Direction)

	case protocol.MsgLeaveLobby:
		s.arena.Leave(username)
		cc.sess.SetInGameLobby("")
		cc.sess.SetGameActivity("", "")
	}
}

func (s *Server) broadcastArenaState(state protocol.ArenaState) {
	s.sessions.ForEach(func(username string, sess *session.Session) {
		if sess.InGameLobby() != "arena" {
			return
		}
		s.sendGame(username, protocol.GameArena, protocol.MsgArenaState, state)
	})
}

func (s *Server) handleArenaDeath(username, cause string) {
	s.sendGame(username, protocol.GameArena, protocol.MsgArenaDeath, protocol.ArenaDeath{Cause: cause})
}
