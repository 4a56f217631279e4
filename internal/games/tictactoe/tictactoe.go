// Package tictactoe is the head-to-head grid game: an invite-then-play
// two-player match with spectators, layered on the generic lobby
// engine.
package tictactoe

import (
	"fmt"
	"sync"

	"github.com/vegamsg/vegaserver/internal/idgen"
	"github.com/vegamsg/vegaserver/internal/lobby"
)

// State is the per-lobby tic-tac-toe board.
type State struct {
	Board      [9]string
	ToMove     string
	Finished   bool
	WinLine    []int
	Winner     string
	Draw       bool
	Spectators []string
}

type pendingInvite struct {
	inviter string
}

// Manager runs every active tic-tac-toe match.
type Manager struct {
	lobbies *lobby.Manager[*State]

	invMu   sync.Mutex
	pending map[string]pendingInvite // invitee -> inviter
}

// New returns an empty Manager.
func New() *Manager {
	return &Manager{
		lobbies: lobby.New[*State](func() (string, error) { return idgen.Lobby() }),
		pending: make(map[string]pendingInvite),
	}
}

var winLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Invite records a pending invitation from inviter to invitee.
// Rejected if invitee already has a pending invite.
func (m *Manager) Invite(inviter, invitee string) error {
	m.invMu.Lock()
	defer m.invMu.Unlock()
	if _, ok := m.pending[invitee]; ok {
		return fmt.Errorf("invitee already has a pending invite")
	}
	m.pending[invitee] = pendingInvite{inviter: inviter}
	return nil
}

// RespondInvite resolves invitee's pending invite. On accept, a lobby
// materializes with the inviter to move first.
func (m *Manager) RespondInvite(invitee string, accept bool) (lobbyID, inviter string, lobbyOut *lobby.Lobby[*State], err error) {
	m.invMu.Lock()
	inv, ok := m.pending[invitee]
	delete(m.pending, invitee)
	m.invMu.Unlock()
	if !ok {
		return "", "", nil, fmt.Errorf("no pending invite")
	}
	if !accept {
		return "", inv.inviter, nil, nil
	}

	l, err := m.lobbies.CreateLobby(inv.inviter, fmt.Sprintf("%s vs %s", inv.inviter, invitee), 2, 2, &State{ToMove: inv.inviter})
	if err != nil {
		return "", inv.inviter, nil, err
	}
	if _, err := m.lobbies.JoinLobby(invitee, l.ID); err != nil {
		m.lobbies.Destroy(l.ID)
		return "", inv.inviter, nil, err
	}
	if _, err := m.lobbies.StartGame(inv.inviter); err != nil {
		m.lobbies.Destroy(l.ID)
		return "", inv.inviter, nil, err
	}
	return l.ID, inv.inviter, l, nil
}

// Spectate attaches user as a read-only observer of lobbyID.
func (m *Manager) Spectate(user, lobbyID string) (*State, error) {
	var snapshot State
	err := m.lobbies.With(lobbyID, func(l *lobby.Lobby[*State]) error {
		for _, s := range l.State.Spectators {
			if s == user {
				snapshot = *l.State
				return nil
			}
		}
		l.State.Spectators = append(l.State.Spectators, user)
		snapshot = *l.State
		return nil
	})
	return &snapshot, err
}

// Move applies user's move at cell in lobbyID. Returns a copy of the
// resulting state; its Finished field reports whether the game is over.
func (m *Manager) Move(user, lobbyID string, cell int) (*State, error) {
	var result State
	err := m.lobbies.With(lobbyID, func(l *lobby.Lobby[*State]) error {
		st := l.State
		if st.Finished {
			return fmt.Errorf("game already finished")
		}
		if !l.HasMember(user) {
			return fmt.Errorf("not a player in this game")
		}
		if st.ToMove != user {
			return fmt.Errorf("not your turn")
		}
		if cell < 0 || cell > 8 || st.Board[cell] != "" {
			return fmt.Errorf("illegal cell")
		}

		st.Board[cell] = user
		evaluate(st, l.Members)

		if !st.Finished {
			st.ToMove = otherPlayer(l.Members, user)
		}
		result = *st
		return nil
	})
	return &result, err
}

// evaluate checks win/draw conditions after a move and updates st in place.
func evaluate(st *State, members []string) {
	for _, line := range winLines {
		a, b, c := st.Board[line[0]], st.Board[line[1]], st.Board[line[2]]
		if a != "" && a == b && b == c {
			st.Finished = true
			st.Winner = a
			st.WinLine = []int{line[0], line[1], line[2]}
			return
		}
	}
	full := true
	for _, cell := range st.Board {
		if cell == "" {
			full = false
			break
		}
	}
	if full {
		st.Finished = true
		st.Draw = true
	}
}

func otherPlayer(members []string, user string) string {
	for _, m := range members {
		if m != user {
			return m
		}
	}
	return ""
}

// Abandon handles a disconnecting/leaving player as an immediate loss
// for them, per the abandonment rule. Returns the finished state and
// the lobby so callers can broadcast game-over, or ok=false if user
// was not in an active tic-tac-toe game.
func (m *Manager) Abandon(user string) (lobbyID string, st *State, ok bool) {
	l, ok := m.lobbies.LobbyOf(user)
	if !ok {
		return "", nil, false
	}
	var result State
	_ = m.lobbies.With(l.ID, func(l *lobby.Lobby[*State]) error {
		if l.State.Finished {
			return nil
		}
		l.State.Finished = true
		l.State.Winner = otherPlayer(l.Members, user)
		result = *l.State
		return nil
	})
	m.lobbies.OnDisconnect(user)
	return l.ID, &result, true
}

// Lobbies exposes the underlying generic manager for server wiring
// (broadcast, disconnect fan-out, lobby listing).
func (m *Manager) Lobbies() *lobby.Manager[*State] { return m.lobbies }
