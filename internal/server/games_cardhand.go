package server

import (
	"github.com/vegamsg/vegaserver/internal/games/cardhand"
	"github.com/vegamsg/vegaserver/internal/lobby"
	"github.com/vegamsg/vegaserver/internal/protocol"
)

func (s *Server) dispatchCardHand(cc *connCtx, msg protocol.GameMsg, data []byte) {
	env := protocol.GamePacket{Kind: protocol.GameCardHand, Msg: msg, Data: data}
	username := cc.sess.Username()

	switch msg {
	case protocol.MsgCreateLobby:
		var req protocol.CreateLobbyRequest
		if err := env.Decode(&req); err != nil {
			return
		}
		l, err := s.cardhand.CreateLobby(username, req.Name)
		if err != nil {
			s.sendGameError(username, protocol.GameCardHand, "", err.Error())
			return
		}
		cc.sess.SetInGameLobby(l.ID)
		s.setGameActivity(l.Members, "Card Hand")
		s.broadcastCardHandLobbyState(l.ID, l)

	case protocol.MsgJoinLobby:
		var req protocol.JoinLobbyRequest
		if err := env.Decode(&req); err != nil {
			return
		}
		l, err := s.cardhand.JoinLobby(username, req.LobbyID)
		if err != nil {
			s.sendGameError(username, protocol.GameCardHand, req.LobbyID, err.Error())
			return
		}
		cc.sess.SetInGameLobby(l.ID)
		s.setGameActivity(l.Members, "Card Hand")
		s.broadcastCardHandLobbyState(l.ID, l)

	case protocol.MsgLeaveLobby:
		cc.sess.SetInGameLobby("")
		cc.sess.SetGameActivity("", "")
		l, destroyed, wasHost, err := s.cardhand.Lobbies().OnDisconnect(username)
		if err != nil {
			return
		}
		s.handleCardHandDeparture(l, destroyed, wasHost)

	case protocol.MsgListLobbies:
		s.sendGame(username, protocol.GameCardHand, protocol.MsgLobbyList, protocol.LobbyList{Lobbies: lobbyInfos(s.cardhand.Lobbies().List())})

	case protocol.MsgStartGame:
		var req protocol.StartGameRequest
		if err := env.Decode(&req); err != nil {
			return
		}
		if _, err := s.cardhand.StartGame(username); err != nil {
			s.sendGameError(username, protocol.GameCardHand, req.LobbyID, err.Error())
			return
		}
		s.broadcastCardHandUpdate(req.LobbyID)

	case protocol.MsgPlayCard:
		var req protocol.PlayCard
		if err := env.Decode(&req); err != nil {
			return
		}
		if err := s.cardhand.PlayCard(username, req.LobbyID, req.CardIndex); err != nil {
			s.sendGameError(username, protocol.GameCardHand, req.LobbyID, err.Error())
		}

	case protocol.MsgChooseColor:
		var req protocol.ChooseColor
		if err := env.Decode(&req); err != nil {
			return
		}
		if err := s.cardhand.ChooseColor(username, req.LobbyID, req.Color); err != nil {
			s.sendGameError(username, protocol.GameCardHand, req.LobbyID, err.Error())
		}

	case protocol.MsgDrawCard:
		var req protocol.DrawCard
		if err := env.Decode(&req); err != nil {
			return
		}
		if err := s.cardhand.DrawCard(username, req.LobbyID); err != nil {
			s.sendGameError(username, protocol.GameCardHand, req.LobbyID, err.Error())
		}
	}
}

func (s *Server) broadcastCardHandLobbyState(lobbyID string, l *lobby.Lobby[*cardhand.State]) {
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
		s.sendGame(member, protocol.GameCardHand, protocol.MsgLobbyState, state)
	}
}

// broadcastCardHandUpdate sends each member their own personalized
// HandUpdate: own hand in full, opponents' counts only.
func (s *Server) broadcastCardHandUpdate(lobbyID string) {
	l, ok := s.cardhand.Lobbies().Get(lobbyID)
	if !ok {
		return
	}
	for _, member := range l.Members {
		s.sendGame(member, protocol.GameCardHand, protocol.MsgHandUpdate, cardhand.HandUpdateFor(lobbyID, member, l.State))
	}
}

func (s *Server) broadcastCardHandGameOver(lobbyID string) {
	l, ok := s.cardhand.Lobbies().Get(lobbyID)
	if !ok {
		return
	}
	over := protocol.GameOver{LobbyID: lobbyID, Winner: l.State.Winner}
	for _, member := range l.Members {
		s.sendGame(member, protocol.GameCardHand, protocol.MsgGameOver, over)
	}
}

func (s *Server) handleCardHandDeparture(l *lobby.Lobby[*cardhand.State], destroyed, wasHost bool) {
	_ = wasHost
	if l == nil || destroyed {
		return
	}
	s.setGameActivity(l.Members, "Card Hand")
	s.broadcastCardHandLobbyState(l.ID, l)
}
