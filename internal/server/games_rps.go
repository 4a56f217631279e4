package server

import (
	"github.com/vegamsg/vegaserver/internal/games/rps"
	"github.com/vegamsg/vegaserver/internal/protocol"
)

func (s *Server) dispatchRPS(cc *connCtx, msg protocol.GameMsg, data []byte) {
	env := protocol.GamePacket{Kind: protocol.GameRPS, Msg: msg, Data: data}
	username := cc.sess.Username()

	switch msg {
	case protocol.MsgInvite:
		var req protocol.Invite
		if err := env.Decode(&req); err != nil {
			return
		}
		req.Inviter = username
		if err := s.rps.Invite(username, req.Invitee); err != nil {
			s.sendGameError(username, protocol.GameRPS, "", err.Error())
			return
		}
		s.sendGame(req.Invitee, protocol.GameRPS, protocol.MsgInvite, req)

	case protocol.MsgInviteResult:
		var req protocol.InviteResult
		if err := env.Decode(&req); err != nil {
			return
		}
		req.Invitee = username
		lobbyID, inviter, err := s.rps.RespondInvite(username, req.Accepted)
		if err != nil {
			s.sendGameError(username, protocol.GameRPS, "", err.Error())
			return
		}
		req.Inviter = inviter
		req.LobbyID = lobbyID
		s.sendGame(inviter, protocol.GameRPS, protocol.MsgInviteResult, req)
		if lobbyID == "" {
			return
		}
		cc.sess.SetInGameLobby(lobbyID)
		if sess, ok := s.sessions.Get(inviter); ok {
			sess.SetInGameLobby(lobbyID)
		}
		s.setGameActivity([]string{username, inviter}, "Rock Paper Scissors")

	case protocol.MsgRPSMove:
		var req protocol.RPSMove
		if err := env.Decode(&req); err != nil {
			return
		}
		outcome, err := s.rps.Move(username, req.LobbyID, req.Hand)
		if err != nil {
			s.sendGameError(username, protocol.GameRPS, req.LobbyID, err.Error())
			return
		}
		if outcome == nil {
			return
		}
		for u := range outcome.Moves {
			s.sendGame(u, protocol.GameRPS, protocol.MsgRPSResult, rps.ResultFor(req.LobbyID, u, outcome))
		}
		if outcome.GameOver {
			s.finishRPS(req.LobbyID, outcome.Winner, outcome.Scores)
		}
	}
}

func (s *Server) finishRPS(lobbyID, winner string, scores map[string]int) {
	l, ok := s.rps.Lobbies().Get(lobbyID)
	if !ok {
		return
	}
	members := l.MembersSnapshot()
	for _, member := range members {
		if sess, ok := s.sessions.Get(member); ok {
			sess.SetInGameLobby("")
		}
		s.sendGame(member, protocol.GameRPS, protocol.MsgGameOver, protocol.GameOver{LobbyID: lobbyID, Winner: winner, Scores: scores})
	}
	s.clearGameActivity(members)
	s.rps.Lobbies().Destroy(lobbyID)
}

func (s *Server) handleRPSAbandon(username string) {
	lobbyID, ok := s.rps.Abandon(username)
	if !ok {
		return
	}
	l, ok := s.rps.Lobbies().Get(lobbyID)
	if !ok {
		return
	}
	winner := ""
	for _, m := range l.Members {
		if m != username {
			winner = m
		}
	}
	s.finishRPS(lobbyID, winner, l.State.Scores)
}
