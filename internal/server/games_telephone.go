package server

import (
	"github.com/vegamsg/vegaserver/internal/games/telephone"
	"github.com/vegamsg/vegaserver/internal/lobby"
	"github.com/vegamsg/vegaserver/internal/protocol"
)

func (s *Server) dispatchTelephone(cc *connCtx, msg protocol.GameMsg, data []byte) {
	env := protocol.GamePacket{Kind: protocol.GameTelephone, Msg: msg, Data: data}
	username := cc.sess.Username()

	switch msg {
	case protocol.MsgCreateLobby:
		var req protocol.CreateLobbyRequest
		if err := env.Decode(&req); err != nil {
			return
		}
		l, err := s.telephone.CreateLobby(username, req.Name)
		if err != nil {
			s.sendGameError(username, protocol.GameTelephone, "", err.Error())
			return
		}
		cc.sess.SetInGameLobby(l.ID)
		s.setGameActivity(l.Members, "Telephone")
		s.broadcastTelephoneLobbyState(l.ID, l)

	case protocol.MsgJoinLobby:
		var req protocol.JoinLobbyRequest
		if err := env.Decode(&req); err != nil {
			return
		}
		l, err := s.telephone.JoinLobby(username, req.LobbyID)
		if err != nil {
			s.sendGameError(username, protocol.GameTelephone, req.LobbyID, err.Error())
			return
		}
		cc.sess.SetInGameLobby(l.ID)
		s.setGameActivity(l.Members, "Telephone")
		s.broadcastTelephoneLobbyState(l.ID, l)

	case protocol.MsgLeaveLobby:
		cc.sess.SetInGameLobby("")
		cc.sess.SetGameActivity("", "")
		l, destroyed, wasHost, err := s.telephone.Lobbies().OnDisconnect(username)
		if err != nil {
			return
		}
		s.handleTelephoneDeparture(username, l, destroyed, wasHost)

	case protocol.MsgListLobbies:
		s.sendGame(username, protocol.GameTelephone, protocol.MsgLobbyList, protocol.LobbyList{Lobbies: lobbyInfos(s.telephone.Lobbies().List())})

	case protocol.MsgStartGame:
		var req protocol.StartGameRequest
		if err := env.Decode(&req); err != nil {
			return
		}
		if _, err := s.telephone.StartGame(username); err != nil {
			s.sendGameError(username, protocol.GameTelephone, req.LobbyID, err.Error())
			return
		}
		s.broadcastTelephonePhase(req.LobbyID)

	case protocol.MsgSubmitPhrase:
		var req protocol.SubmitPhrase
		if err := env.Decode(&req); err != nil {
			return
		}
		if err := s.telephone.SubmitPhrase(username, req.LobbyID, req.Phrase); err != nil {
			s.sendGameError(username, protocol.GameTelephone, req.LobbyID, err.Error())
		}

	case protocol.MsgSubmitDrawing:
		var req protocol.SubmitDrawing
		if err := env.Decode(&req); err != nil {
			return
		}
		if err := s.telephone.SubmitDrawing(username, req.LobbyID, req.Drawing); err != nil {
			s.sendGameError(username, protocol.GameTelephone, req.LobbyID, err.Error())
		}

	case protocol.MsgSubmitDescription:
		var req protocol.SubmitDescription
		if err := env.Decode(&req); err != nil {
			return
		}
		if err := s.telephone.SubmitDescription(username, req.LobbyID, req.Description); err != nil {
			s.sendGameError(username, protocol.GameTelephone, req.LobbyID, err.Error())
		}

	case protocol.MsgAdvanceReveal:
		var req protocol.AdvanceReveal
		if err := env.Decode(&req); err != nil {
			return
		}
		gameOver, err := s.telephone.AdvanceReveal(username, req.LobbyID)
		if err != nil {
			s.sendGameError(username, protocol.GameTelephone, req.LobbyID, err.Error())
			return
		}
		if gameOver {
			s.broadcastTelephoneGameOver(req.LobbyID)
			return
		}
		s.broadcastTelephoneReveal(req.LobbyID)
	}
}

func (s *Server) broadcastTelephoneLobbyState(lobbyID string, l *lobby.Lobby[*telephone.State]) {
	members := l.MembersSnapshot()
	state := protocol.LobbyState{
		ID:           lobbyID,
		Name:         l.Name,
		Host:         l.Host,
		Members:      members,
		DisplayNames: s.displayNames(members),
		MaxPlayers:   l.MaxPlayers,
		Started:      l.Started,
	}
	for _, member := range l.Members {
		s.sendGame(member, protocol.GameTelephone, protocol.MsgLobbyState, state)
	}
}

// broadcastTelephonePhase sends every member their own personalized
// PhaseState after a phase transition.
func (s *Server) broadcastTelephonePhase(lobbyID string) {
	l, ok := s.telephone.Lobbies().Get(lobbyID)
	if !ok {
		return
	}
	for _, member := range l.Members {
		s.sendGame(member, protocol.GameTelephone, protocol.MsgPhaseState, telephone.PhaseStateFor(lobbyID, member, l.State))
	}
}

func (s *Server) broadcastTelephoneReveal(lobbyID string) {
	l, ok := s.telephone.Lobbies().Get(lobbyID)
	if !ok {
		return
	}
	result := telephone.CurrentChainResult(lobbyID, l.State)
	for _, member := range l.Members {
		s.sendGame(member, protocol.GameTelephone, protocol.MsgChainResult, result)
	}
}

func (s *Server) broadcastTelephoneGameOver(lobbyID string) {
	l, ok := s.telephone.Lobbies().Get(lobbyID)
	if !ok {
		return
	}
	over := protocol.GameOver{LobbyID: lobbyID}
	for _, member := range l.Members {
		s.sendGame(member, protocol.GameTelephone, protocol.MsgGameOver, over)
	}
}

func (s *Server) handleTelephoneDeparture(username string, l *lobby.Lobby[*telephone.State], destroyed, wasHost bool) {
	_ = username
	_ = wasHost
	if l == nil || destroyed {
		return
	}
	s.setGameActivity(l.Members, "Telephone")
	s.broadcastTelephoneLobbyState(l.ID, l)
}
