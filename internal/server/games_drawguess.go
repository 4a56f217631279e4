package server

import (
	"encoding/json"
	"time"

	"github.com/vegamsg/vegaserver/internal/games/drawguess"
	"github.com/vegamsg/vegaserver/internal/lobby"
	"github.com/vegamsg/vegaserver/internal/protocol"
)

type drawguessParams struct {
	Language     drawguess.Language `json:"language"`
	RoundSeconds int                `json:"roundSeconds"`
	TotalRounds  int                `json:"totalRounds"`
}

func (s *Server) dispatchDrawGuess(cc *connCtx, msg protocol.GameMsg, data []byte) {
	env := protocol.GamePacket{Kind: protocol.GameDrawGuess, Msg: msg, Data: data}
	username := cc.sess.Username()

	switch msg {
	case protocol.MsgCreateLobby:
		var req protocol.CreateLobbyRequest
		if err := env.Decode(&req); err != nil {
			return
		}
		var params drawguessParams
		if len(req.Params) > 0 {
			_ = json.Unmarshal(req.Params, &params)
		}
		l, err := s.drawguess.CreateLobby(username, req.Name, params.Language, params.RoundSeconds, params.TotalRounds)
		if err != nil {
			s.sendGameError(username, protocol.GameDrawGuess, "", err.Error())
			return
		}
		cc.sess.SetInGameLobby(l.ID)
		s.setGameActivity(l.Members, "Draw and Guess")
		s.sendDrawGuessLobbyState(l.ID, l)

	case protocol.MsgJoinLobby:
		var req protocol.JoinLobbyRequest
		if err := env.Decode(&req); err != nil {
			return
		}
		l, err := s.drawguess.Lobbies().JoinLobby(username, req.LobbyID)
		if err != nil {
			s.sendGameError(username, protocol.GameDrawGuess, req.LobbyID, err.Error())
			return
		}
		cc.sess.SetInGameLobby(l.ID)
		s.setGameActivity(l.Members, "Draw and Guess")
		s.broadcastDrawGuessLobbyState(l.ID, l)

	case protocol.MsgLeaveLobby:
		var req protocol.LeaveLobbyRequest
		if err := env.Decode(&req); err != nil {
			return
		}
		cc.sess.SetInGameLobby("")
		cc.sess.SetGameActivity("", "")
		l, destroyed, wasHost, err := s.drawguess.Lobbies().OnDisconnect(username)
		if err != nil {
			return
		}
		s.handleDrawGuessDeparture(username, l, destroyed, wasHost)

	case protocol.MsgListLobbies:
		s.sendGame(username, protocol.GameDrawGuess, protocol.MsgLobbyList, protocol.LobbyList{Lobbies: lobbyInfos(s.drawguess.Lobbies().List())})

	case protocol.MsgStartGame:
		var req protocol.StartGameRequest
		if err := env.Decode(&req); err != nil {
			return
		}
		if _, err := s.drawguess.StartGame(username); err != nil {
			s.sendGameError(username, protocol.GameDrawGuess, req.LobbyID, err.Error())
		}

	case protocol.MsgDrawStroke:
		var req protocol.DrawStroke
		if err := env.Decode(&req); err != nil {
			return
		}
		s.relayDrawGuess(req.LobbyID, username, protocol.MsgDrawStroke, req)

	case protocol.MsgClearCanvas:
		var req protocol.ClearCanvas
		if err := env.Decode(&req); err != nil {
			return
		}
		s.relayDrawGuess(req.LobbyID, username, protocol.MsgClearCanvas, req)

	case protocol.MsgChatGuess:
		var req protocol.ChatGuess
		if err := env.Decode(&req); err != nil {
			return
		}
		correct, _, err := s.drawguess.Guess(username, req.LobbyID, req.Text)
		if err != nil {
			s.sendGameError(username, protocol.GameDrawGuess, req.LobbyID, err.Error())
			return
		}
		if !correct {
			req.From = username
			s.relayDrawGuess(req.LobbyID, username, protocol.MsgChatGuess, req)
			return
		}
		s.announceCorrectGuess(req.LobbyID, username)
	}
}

func (s *Server) relayDrawGuess(lobbyID, from string, msg protocol.GameMsg, data any) {
	l, ok := s.drawguess.Lobbies().Get(lobbyID)
	if !ok {
		return
	}
	for _, member := range l.Members {
		if member == from {
			continue
		}
		s.sendGame(member, protocol.GameDrawGuess, msg, data)
	}
}

func (s *Server) announceCorrectGuess(lobbyID, guesser string) {
	l, ok := s.drawguess.Lobbies().Get(lobbyID)
	if !ok {
		return
	}
	st := l.State
	drawer := l.Members[st.DrawerIndex%len(l.Members)]
	out := protocol.CorrectGuess{
		LobbyID:     lobbyID,
		Guesser:     guesser,
		Delta:       st.Scores[guesser],
		DrawerDelta: st.Scores[drawer],
		Scores:      copyScores(st.Scores),
	}
	for _, member := range l.Members {
		s.sendGame(member, protocol.GameDrawGuess, protocol.MsgCorrectGuess, out)
	}
}

func (s *Server) sendDrawGuessLobbyState(lobbyID string, l *lobby.Lobby[*drawguess.State]) {
	s.sendGame(l.Host, protocol.GameDrawGuess, protocol.MsgLobbyState, s.drawGuessLobbyState(lobbyID, l))
}

func (s *Server) broadcastDrawGuessLobbyState(lobbyID string, l *lobby.Lobby[*drawguess.State]) {
	state := s.drawGuessLobbyState(lobbyID, l)
	for _, member := range l.Members {
		s.sendGame(member, protocol.GameDrawGuess, protocol.MsgLobbyState, state)
	}
}

func (s *Server) drawGuessLobbyState(lobbyID string, l *lobby.Lobby[*drawguess.State]) protocol.LobbyState {
	members := l.MembersSnapshot()
	return protocol.LobbyState{
		ID:           lobbyID,
		Name:         l.Name,
		Host:         l.Host,
		Members:      members,
		DisplayNames: s.displayNames(members),
		MaxPlayers:   l.MaxPlayers,
		Started:      l.Started,
		Scores:       copyScores(l.State.Scores),
	}
}

// broadcastDrawGuessRound assembles and sends the current round's
// RoundState to every member, personalized only by the fact that the
// drawer's own client hides the word client-side.
func (s *Server) broadcastDrawGuessRound(lobbyID string) {
	l, ok := s.drawguess.Lobbies().Get(lobbyID)
	if !ok {
		return
	}
	st := l.State
	if len(l.Members) == 0 {
		return
	}
	drawer := l.Members[st.DrawerIndex%len(l.Members)]
	guessed := make([]string, 0, len(st.Guessed))
	for u := range st.Guessed {
		guessed = append(guessed, u)
	}
	timeLeft := st.RoundSeconds
	if !st.RoundStartAt.IsZero() {
		elapsed := int(time.Since(st.RoundStartAt).Seconds())
		timeLeft = st.RoundSeconds - elapsed
		if timeLeft < 0 {
			timeLeft = 0
		}
	}
	rs := protocol.RoundState{
		LobbyID:      lobbyID,
		Round:        st.Round,
		TotalRounds:  st.TotalRounds,
		Drawer:       drawer,
		HintMask:     string(st.Mask),
		TimeLeft:     timeLeft,
		RoundSeconds: st.RoundSeconds,
		Guessed:      guessed,
	}
	for _, member := range l.Members {
		s.sendGame(member, protocol.GameDrawGuess, protocol.MsgRoundState, rs)
	}
}

func (s *Server) broadcastDrawGuessReveal(lobbyID string) {
	l, ok := s.drawguess.Lobbies().Get(lobbyID)
	if !ok {
		return
	}
	word := l.State.Word
	for _, member := range l.Members {
		s.sendGame(member, protocol.GameDrawGuess, protocol.MsgWordReveal, protocol.WordReveal{LobbyID: lobbyID, Word: word})
	}
}

func (s *Server) broadcastDrawGuessHint(lobbyID string) {
	s.broadcastDrawGuessRound(lobbyID)
}

func (s *Server) broadcastDrawGuessGameOver(lobbyID string) {
	l, ok := s.drawguess.Lobbies().Get(lobbyID)
	if !ok {
		return
	}
	over := protocol.GameOver{LobbyID: lobbyID, Scores: copyScores(l.State.Scores)}
	for _, member := range l.Members {
		s.sendGame(member, protocol.GameDrawGuess, protocol.MsgGameOver, over)
	}
}

func (s *Server) handleDrawGuessDeparture(username string, l *lobby.Lobby[*drawguess.State], destroyed, wasHost bool) {
	_ = wasHost
	if l == nil {
		return
	}
	s.drawguess.HandleDrawerDisconnect(l.ID, username)
	if destroyed {
		return
	}
	s.setGameActivity(l.Members, "Draw and Guess")
	s.broadcastDrawGuessLobbyState(l.ID, l)
}

func copyScores(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
