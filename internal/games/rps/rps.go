// Package rps is the best-of-N rock-paper-scissors duel: an
// invite-then-play two-player match layered on the generic lobby
// engine, identical in shape to the tic-tac-toe invite flow.
package rps

import (
	"fmt"
	"sync"

	"github.com/vegamsg/vegaserver/internal/idgen"
	"github.com/vegamsg/vegaserver/internal/lobby"
	"github.com/vegamsg/vegaserver/internal/protocol"
)

const targetScore = 3

// State is the per-lobby duel progress.
type State struct {
	Scores map[string]int
	Moves  map[string]protocol.RPSHand // pending moves for the current round
	Over   bool
}

type pendingInvite struct {
	inviter string
}

// Manager runs every active duel.
type Manager struct {
	lobbies *lobby.Manager[*State]

	invMu   sync.Mutex
	pending map[string]pendingInvite
}

// New returns an empty Manager.
func New() *Manager {
	return &Manager{
		lobbies: lobby.New[*State](func() (string, error) { return idgen.Lobby() }),
		pending: make(map[string]pendingInvite),
	}
}

// Lobbies exposes the underlying generic manager for server wiring.
func (m *Manager) Lobbies() *lobby.Manager[*State] { return m.lobbies }

// Invite records a pending invitation from inviter to invitee.
func (m *Manager) Invite(inviter, invitee string) error {
	m.invMu.Lock()
	defer m.invMu.Unlock()
	if _, ok := m.pending[invitee]; ok {
		return fmt.Errorf("invitee already has a pending invite")
	}
	m.pending[invitee] = pendingInvite{inviter: inviter}
	return nil
}

// RespondInvite resolves invitee's pending invite, materializing and
// starting a lobby on accept.
func (m *Manager) RespondInvite(invitee string, accept bool) (lobbyID, inviter string, err error) {
	m.invMu.Lock()
	inv, ok := m.pending[invitee]
	delete(m.pending, invitee)
	m.invMu.Unlock()
	if !ok {
		return "", "", fmt.Errorf("no pending invite")
	}
	if !accept {
		return "", inv.inviter, nil
	}

	l, err := m.lobbies.CreateLobby(inv.inviter, fmt.Sprintf("%s vs %s", inv.inviter, invitee), 2, 2, &State{
		Scores: map[string]int{inv.inviter: 0, invitee: 0},
		Moves:  make(map[string]protocol.RPSHand),
	})
	if err != nil {
		return "", inv.inviter, err
	}
	if _, err := m.lobbies.JoinLobby(invitee, l.ID); err != nil {
		m.lobbies.Destroy(l.ID)
		return "", inv.inviter, err
	}
	if _, err := m.lobbies.StartGame(inv.inviter); err != nil {
		m.lobbies.Destroy(l.ID)
		return "", inv.inviter, err
	}
	return l.ID, inv.inviter, nil
}

// RoundOutcome is the resolved result of one completed round.
type RoundOutcome struct {
	Moves    map[string]protocol.RPSHand
	Winner   string // "" on tie
	Scores   map[string]int
	GameOver bool
}

// beats reports whether a defeats b under the rock>scissors>paper>rock cycle.
func beats(a, b protocol.RPSHand) bool {
	switch a {
	case protocol.HandRock:
		return b == protocol.HandScissors
	case protocol.HandScissors:
		return b == protocol.HandPaper
	case protocol.HandPaper:
		return b == protocol.HandRock
	}
	return false
}

// Move submits user's hand for the current round. Once both players
// have a pending move, the round resolves and outcome is non-nil.
func (m *Manager) Move(user, lobbyID string, hand protocol.RPSHand) (outcome *RoundOutcome, err error) {
	err = m.lobbies.With(lobbyID, func(l *lobby.Lobby[*State]) error {
		st := l.State
		if st.Over {
			return fmt.Errorf("game already finished")
		}
		if !l.HasMember(user) {
			return fmt.Errorf("not a player in this game")
		}
		if _, ok := st.Moves[user]; ok {
			return nil
		}
		st.Moves[user] = hand
		if len(st.Moves) < 2 {
			return nil
		}

		p1, p2 := l.Members[0], l.Members[1]
		m1, m2 := st.Moves[p1], st.Moves[p2]
		var winner string
		switch {
		case m1 == m2:
		case beats(m1, m2):
			winner = p1
		default:
			winner = p2
		}
		if winner != "" {
			st.Scores[winner]++
		}
		if st.Scores[p1] >= targetScore || st.Scores[p2] >= targetScore {
			st.Over = true
		}

		outcome = &RoundOutcome{
			Moves:    map[string]protocol.RPSHand{p1: m1, p2: m2},
			Winner:   winner,
			Scores:   map[string]int{p1: st.Scores[p1], p2: st.Scores[p2]},
			GameOver: st.Over,
		}
		st.Moves = make(map[string]protocol.RPSHand)
		return nil
	})
	return outcome, err
}

// ResultFor renders outcome from user's own perspective: my-move vs
// opponent-move, never absolute player-1/player-2 coordinates.
func ResultFor(lobbyID, user string, outcome *RoundOutcome) protocol.RPSResult {
	var opponent string
	for u := range outcome.Moves {
		if u != user {
			opponent = u
		}
	}
	return protocol.RPSResult{
		LobbyID:  lobbyID,
		MyMove:   outcome.Moves[user],
		OppMove:  outcome.Moves[opponent],
		Tie:      outcome.Winner == "",
		Won:      outcome.Winner == user,
		MyScore:  outcome.Scores[user],
		OppScore: outcome.Scores[opponent],
	}
}

// Abandon handles a disconnecting player as an immediate loss for
// them, mirroring the tic-tac-toe abandonment rule.
func (m *Manager) Abandon(user string) (lobbyID string, ok bool) {
	l, ok := m.lobbies.LobbyOf(user)
	if !ok {
		return "", false
	}
	_ = m.lobbies.With(l.ID, func(l *lobby.Lobby[*State]) error {
		l.State.Over = true
		return nil
	})
	m.lobbies.OnDisconnect(user)
	return l.ID, true
}
