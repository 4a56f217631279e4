package server

import (
	"github.com/vegamsg/vegaserver/internal/games/cardbet"
	"github.com/vegamsg/vegaserver/internal/lobby"
	"github.com/vegamsg/vegaserver/internal/protocol"
)

func (s *Server) dispatchCardBet(cc *connCtx, msg protocol.GameMsg, data []byte) {
	env := protocol.GamePacket{Kind: protocol.GameCardBet, Msg: msg, Data: data}
	username := cc.sess.Username()

	switch msg {
	case protocol.MsgCreateLobby:
		var req protocol.CreateLobbyRequest
		if err := env.Decode(&req); err != nil {
			return
		}
		l, err := s.cardbet.CreateLobby(username, req.Name)
		if err != nil {
			s.sendGameError(username, protocol.GameCardBet, "", err.Error())
			return
		}
		cc.sess.SetInGameLobby(l.ID)
		s.setGameActivity(l.Members, "Card Betting")
		s.broadcastCardBetLobbyState(l.ID, l)

	case protocol.MsgJoinLobby:
		var req protocol.JoinLobbyRequest
		if err := env.Decode(&req); err != nil {
			return
		}
		l, err := s.cardbet.JoinLobby(username, req.LobbyID)
		if err != nil {
			s.sendGameError(username, protocol.GameCardBet, req.LobbyID, err.Error())
			return
		}
		cc.sess.SetInGameLobby(l.ID)
		s.setGameActivity(l.Members, "Card Betting")
		s.broadcastCardBetLobbyState(l.ID, l)

	case protocol.MsgLeaveLobby:
		cc.sess.SetInGameLobby("")
		cc.sess.SetGameActivity("", "")
		l, destroyed, wasHost, err := s.cardbet.Lobbies().OnDisconnect(username)
		if err != nil {
			return
		}
		s.handleCardBetDeparture(l, destroyed, wasHost)

	case protocol.MsgListLobbies:
		s.sendGame(username, protocol.GameCardBet, protocol.MsgLobbyList, protocol.LobbyList{Lobbies: lobbyInfos(s.cardbet.Lobbies().List())})

	case protocol.MsgStartGame:
		var req protocol.StartGameRequest
		if err := env.Decode(&req); err != nil {
			return
		}
		if _, err := s.cardbet.StartGame(username); err != nil {
			s.sendGameError(username, protocol.GameCardBet, req.LobbyID, err.Error())
		}

	case protocol.MsgPlaceBet:
		var req protocol.PlaceBet
		if err := env.Decode(&req); err != nil {
			return
		}
		if err := s.cardbet.PlaceBet(username, req.LobbyID, req.Amount); err != nil {
			s.sendGameError(username, protocol.GameCardBet, req.LobbyID, err.Error())
		}

	case protocol.MsgHit:
		var req protocol.Hit
		if err := env.Decode(&req); err != nil {
			return
		}
		if err := s.cardbet.Hit(username, req.LobbyID); err != nil {
			s.sendGameError(username, protocol.GameCardBet, req.LobbyID, err.Error())
		}

	case protocol.MsgStand:
		var req protocol.Stand
		if err := env.Decode(&req); err != nil {
			return
		}
		if err := s.cardbet.Stand(username, req.LobbyID); err != nil {
			s.sendGameError(username, protocol.GameCardBet, req.LobbyID, err.Error())
		}

	case protocol.MsgNextRound:
		var req protocol.NextRound
		if err := env.Decode(&req); err != nil {
			return
		}
		if err := s.cardbet.NextRound(username, req.LobbyID); err != nil {
			s.sendGameError(username, protocol.GameCardBet, req.LobbyID, err.Error())
			return
		}
		if l, ok := s.cardbet.Lobbies().Get(req.LobbyID); ok {
			s.broadcastCardBetLobbyState(req.LobbyID, l)
		}
	}
}

func (s *Server) broadcastCardBetLobbyState(lobbyID string, l *lobby.Lobby[*cardbet.State]) {
	if l == nil {
		return
	}
	members := l.MembersSnapshot()
	state := protocol.LobbyState{
		ID:           lobbyID,
		Name:         l.Name,
		Host:         l.Host,
		Members:      members,
		DisplayNames: s.displayNames(members),
		MaxPlayers:   l.MaxPlayers,
		Started:      l.Started,
		Scores:       copyScores(l.State.Scores),
	}
	for _, member := range l.Members {
		s.sendGame(member, protocol.GameCardBet, protocol.MsgLobbyState, state)
	}
}

func (s *Server) broadcastCardBetBettingPhase(lobbyID string) {
	l, ok := s.cardbet.Lobbies().Get(lobbyID)
	if !ok {
		return
	}
	phase := protocol.BettingPhase{LobbyID: lobbyID, Balances: copyScores(l.State.Balances)}
	for _, member := range l.Members {
		s.sendGame(member, protocol.GameCardBet, protocol.MsgBettingPhase, phase)
	}
}

func (s *Server) broadcastCardBetRoundResult(lobbyID string) {
	l, ok := s.cardbet.Lobbies().Get(lobbyID)
	if !ok {
		return
	}
	result := cardbet.RoundResultView(lobbyID, l.State)
	for _, member := range l.Members {
		s.sendGame(member, protocol.GameCardBet, protocol.MsgRoundResult, result)
	}
}

func (s *Server) handleCardBetDeparture(l *lobby.Lobby[*cardbet.State], destroyed, wasHost bool) {
	_ = wasHost
	if l == nil || destroyed {
		return
	}
	s.setGameActivity(l.Members, "Card Betting")
	s.broadcastCardBetLobbyState(l.ID, l)
}
