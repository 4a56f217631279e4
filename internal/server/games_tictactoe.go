package server

import (
	"github.com/vegamsg/vegaserver/internal/games/tictactoe"
	"github.com/vegamsg/vegaserver/internal/protocol"
)

func (s *Server) dispatchTicTacToe(cc *connCtx, msg protocol.GameMsg, data []byte) {
	env := protocol.GamePacket{Kind: protocol.GameTicTacToe, Msg: msg, Data: data}
	username := cc.sess.Username()

	switch msg {
	case protocol.MsgInvite:
		var req protocol.Invite
		if err := env.Decode(&req); err != nil {
			return
		}
		req.Inviter = username
		if err := s.tictactoe.Invite(username, req.Invitee); err != nil {
			s.sendGameError(username, protocol.GameTicTacToe, "", err.Error())
			return
		}
		s.sendGame(req.Invitee, protocol.GameTicTacToe, protocol.MsgInvite, req)

	case protocol.MsgInviteResult:
		var req protocol.InviteResult
		if err := env.Decode(&req); err != nil {
			return
		}
		req.Invitee = username
		lobbyID, inviter, l, err := s.tictactoe.RespondInvite(username, req.Accepted)
		if err != nil {
			s.sendGameError(username, protocol.GameTicTacToe, "", err.Error())
			return
		}
		req.Inviter = inviter
		req.LobbyID = lobbyID
		s.sendGame(inviter, protocol.GameTicTacToe, protocol.MsgInviteResult, req)
		if l == nil {
			return
		}
		cc.sess.SetInGameLobby(lobbyID)
		if sess, ok := s.sessions.Get(inviter); ok {
			sess.SetInGameLobby(lobbyID)
		}
		s.setGameActivity(l.Members, "Tic-Tac-Toe")
		s.broadcastTicTacToeBoard(l.ID, l.State)

	case protocol.MsgSpectate:
		var req protocol.Spectate
		if err := env.Decode(&req); err != nil {
			return
		}
		st, err := s.tictactoe.Spectate(username, req.LobbyID)
		if err != nil {
			s.sendGameError(username, protocol.GameTicTacToe, req.LobbyID, err.Error())
			return
		}
		s.sendGame(username, protocol.GameTicTacToe, protocol.MsgBoardState, tictactoeBoardState(req.LobbyID, st))

	case protocol.MsgMove:
		var req protocol.Move
		if err := env.Decode(&req); err != nil {
			return
		}
		st, err := s.tictactoe.Move(username, req.LobbyID, req.Cell)
		if err != nil {
			s.sendGameError(username, protocol.GameTicTacToe, req.LobbyID, err.Error())
			return
		}
		s.broadcastTicTacToeBoard(req.LobbyID, st)
		if st.Finished {
			s.finishTicTacToe(req.LobbyID, st)
		}
	}
}

func (s *Server) broadcastTicTacToeBoard(lobbyID string, st *tictactoe.State) {
	l, ok := s.tictactoe.Lobbies().Get(lobbyID)
	if !ok {
		return
	}
	board := tictactoeBoardState(lobbyID, st)
	for _, member := range l.Members {
		s.sendGame(member, protocol.GameTicTacToe, protocol.MsgBoardState, board)
	}
	for _, spectator := range st.Spectators {
		s.sendGame(spectator, protocol.GameTicTacToe, protocol.MsgBoardState, board)
	}
}

func (s *Server) finishTicTacToe(lobbyID string, st *tictactoe.State) {
	l, ok := s.tictactoe.Lobbies().Get(lobbyID)
	if !ok {
		return
	}
	for _, member := range l.Members {
		if sess, ok := s.sessions.Get(member); ok {
			sess.SetInGameLobby("")
		}
	}
	s.clearGameActivity(l.Members)
	over := protocol.GameOver{LobbyID: lobbyID, Winner: st.Winner}
	for _, member := range l.Members {
		s.sendGame(member, protocol.GameTicTacToe, protocol.MsgGameOver, over)
	}
	s.tictactoe.Lobbies().Destroy(lobbyID)
}

func tictactoeBoardState(lobbyID string, st *tictactoe.State) protocol.BoardState {
	return protocol.BoardState{
		LobbyID:  lobbyID,
		Board:    st.Board,
		ToMove:   st.ToMove,
		Finished: st.Finished,
		WinLine:  st.WinLine,
		Winner:   st.Winner,
		Draw:     st.Draw,
	}
}

func (s *Server) handleTicTacToeAbandon(username string) {
	lobbyID, st, ok := s.tictactoe.Abandon(username)
	if !ok {
		return
	}
	s.finishTicTacToe(lobbyID, st)
}

// sendGameError wraps a GameError for the given kind and queues it to
// username's session.
func (s *Server) sendGameError(username string, kind protocol.GameKind, lobbyID, message string) {
	s.sendGame(username, kind, protocol.MsgGameError, protocol.GameError{LobbyID: lobbyID, Message: message})
}
