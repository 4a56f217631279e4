// Package telephone is the write/draw/describe/draw/reveal chain game:
// a fixed four-phase rotation where every player works a different
// owner's chain each phase, followed by a host-paced reveal.
package telephone

import (
	"fmt"
	"sync"
	"time"

	"github.com/vegamsg/vegaserver/internal/idgen"
	"github.com/vegamsg/vegaserver/internal/lobby"
	"github.com/vegamsg/vegaserver/internal/protocol"
)

const (
	minPlayers        = 3
	maxPlayers        = 8
	defaultPhaseSecs  = 60
	placeholderPhrase = "(no response)"
)

// Chain is one owner's phrase plus its transformations by successive
// players.
type Chain struct {
	Owner string
	Phrase string
	Steps []protocol.ChainStep
}

// State is one lobby's chain-rotation progress.
type State struct {
	Phase        protocol.TelephonePhase
	PhaseSeconds int
	PhaseStartAt time.Time

	Chains     []Chain
	Assignment map[string]int // player -> chain index
	Submitted  map[string]bool

	RevealIndex int
}

// Manager runs every active telephone lobby.
type Manager struct {
	lobbies *lobby.Manager[*State]

	mu sync.Mutex

	// OnPhaseAdvance fires (outside any lock) whenever a phase
	// completes, so the server can broadcast the new PhaseState to
	// every player. OnGameOver fires once reveal exhausts every chain.
	OnPhaseAdvance func(lobbyID string)
	OnGameOver     func(lobbyID string)
}

// New returns an empty Manager.
func New() *Manager {
	return &Manager{
		lobbies: lobby.New[*State](func() (string, error) { return idgen.Lobby() }),
	}
}

// Lobbies exposes the underlying generic manager for server wiring.
func (m *Manager) Lobbies() *lobby.Manager[*State] { return m.lobbies }

// CreateLobby starts a new lobby hosted by host.
func (m *Manager) CreateLobby(host, name string) (*lobby.Lobby[*State], error) {
	return m.lobbies.CreateLobby(host, name, maxPlayers, minPlayers, &State{
		PhaseSeconds: defaultPhaseSecs,
	})
}

// JoinLobby adds user to lobbyID.
func (m *Manager) JoinLobby(user, lobbyID string) (*lobby.Lobby[*State], error) {
	return m.lobbies.JoinLobby(user, lobbyID)
}

// StartGame begins the write phase.
func (m *Manager) StartGame(host string) (*lobby.Lobby[*State], error) {
	l, err := m.lobbies.StartGame(host)
	if err != nil {
		return nil, err
	}
	_ = m.lobbies.With(l.ID, func(l *lobby.Lobby[*State]) error {
		st := l.State
		st.Phase = protocol.PhaseWrite
		st.PhaseStartAt = time.Now()
		st.Chains = nil
		st.Assignment = nil
		st.Submitted = make(map[string]bool)
		return nil
	})
	m.scheduleTimeout(l.ID)
	return l, nil
}

func (m *Manager) scheduleTimeout(lobbyID string) {
	var d time.Duration
	_ = m.lobbies.With(lobbyID, func(l *lobby.Lobby[*State]) error {
		d = time.Duration(l.State.PhaseSeconds) * time.Second
		return nil
	})
	m.lobbies.SetTimer(lobbyID, d, func() { m.forceAdvance(lobbyID) })
}

// SubmitPhrase records user's write-phase phrase, creating a chain
// they own. Idempotent: a second submission in the same phase is a
// no-op.
func (m *Manager) SubmitPhrase(user, lobbyID, phrase string) error {
	return m.submit(lobbyID, protocol.PhaseWrite, user, func(st *State) {
		st.Chains = append(st.Chains, Chain{Owner: user, Phrase: phrase})
	})
}

// SubmitDrawing records user's drawing-phase submission against
// whichever chain they are currently assigned.
func (m *Manager) SubmitDrawing(user, lobbyID, drawing string) error {
	phase := protocol.TelephonePhase("")
	_ = m.lobbies.With(lobbyID, func(l *lobby.Lobby[*State]) error {
		phase = l.State.Phase
		return nil
	})
	if phase != protocol.PhaseDraw1 && phase != protocol.PhaseDraw2 {
		return fmt.Errorf("wrong phase")
	}
	return m.submit(lobbyID, phase, user, func(st *State) {
		appendStep(st, user, protocol.ChainStep{Type: "drawing", Author: user, Value: drawing})
	})
}

// SubmitDescription records user's describe-phase submission.
func (m *Manager) SubmitDescription(user, lobbyID, description string) error {
	return m.submit(lobbyID, protocol.PhaseDescribe, user, func(st *State) {
		appendStep(st, user, protocol.ChainStep{Type: "description", Author: user, Value: description})
	})
}

func appendStep(st *State, user string, step protocol.ChainStep) {
	idx, ok := st.Assignment[user]
	if !ok || idx < 0 || idx >= len(st.Chains) {
		return
	}
	st.Chains[idx].Steps = append(st.Chains[idx].Steps, step)
}

// submit is the shared idempotent-submission + all-submitted-or-timeout
// advance path for every phase, write included.
func (m *Manager) submit(lobbyID string, wantPhase protocol.TelephonePhase, user string, record func(*State)) error {
	var advance bool
	err := m.lobbies.With(lobbyID, func(l *lobby.Lobby[*State]) error {
		st := l.State
		if st.Phase != wantPhase {
			return fmt.Errorf("wrong phase")
		}
		if !l.HasMember(user) {
			return fmt.Errorf("not a player in this game")
		}
		if st.Submitted[user] {
			return nil
		}
		record(st)
		st.Submitted[user] = true
		if len(st.Submitted) >= len(l.Members) {
			advance = true
		}
		return nil
	})
	if err != nil {
		return err
	}
	if advance {
		m.advancePhase(lobbyID)
	}
	return nil
}

// forceAdvance fills placeholder content for every player who never
// submitted, then advances. Called by the phase timer on expiry.
func (m *Manager) forceAdvance(lobbyID string) {
	_ = m.lobbies.With(lobbyID, func(l *lobby.Lobby[*State]) error {
		st := l.State
		for _, user := range l.Members {
			if st.Submitted[user] {
				continue
			}
			switch st.Phase {
			case protocol.PhaseWrite:
				st.Chains = append(st.Chains, Chain{Owner: user, Phrase: placeholderPhrase})
			case protocol.PhaseDraw1, protocol.PhaseDraw2:
				appendStep(st, user, protocol.ChainStep{Type: "drawing", Author: user, Value: ""})
			case protocol.PhaseDescribe:
				appendStep(st, user, protocol.ChainStep{Type: "description", Author: user, Value: placeholderPhrase})
			}
			st.Submitted[user] = true
		}
		return nil
	})
	m.advancePhase(lobbyID)
}

// advancePhase moves to the next fixed phase, (re-)computing
// assignments, and either schedules the next timeout or enters reveal.
func (m *Manager) advancePhase(lobbyID string) {
	m.lobbies.CancelTimer(lobbyID)

	var gameEmpty bool
	_ = m.lobbies.With(lobbyID, func(l *lobby.Lobby[*State]) error {
		st := l.State
		n := len(l.Members)
		if n == 0 {
			gameEmpty = true
			return nil
		}
		st.Submitted = make(map[string]bool)
		st.PhaseStartAt = time.Now()

		switch st.Phase {
		case protocol.PhaseWrite:
			st.Phase = protocol.PhaseDraw1
			// Chains arrive in submission order; line them up with the
			// member order so that chain i is owned by member i.
			ordered := make([]Chain, 0, len(st.Chains))
			for _, user := range l.Members {
				for _, c := range st.Chains {
					if c.Owner == user {
						ordered = append(ordered, c)
						break
					}
				}
			}
			st.Chains = ordered
			st.Assignment = make(map[string]int, n)
			for i, user := range l.Members {
				st.Assignment[user] = (i + 1) % n
			}
		case protocol.PhaseDraw1:
			st.Phase = protocol.PhaseDescribe
			rotateAssignment(st, n)
		case protocol.PhaseDescribe:
			st.Phase = protocol.PhaseDraw2
			rotateAssignment(st, n)
		case protocol.PhaseDraw2:
			st.Phase = protocol.PhaseReveal
			st.RevealIndex = 0
		}
		return nil
	})
	if gameEmpty {
		return
	}

	if m.OnPhaseAdvance != nil {
		m.OnPhaseAdvance(lobbyID)
	}

	var phase protocol.TelephonePhase
	_ = m.lobbies.With(lobbyID, func(l *lobby.Lobby[*State]) error {
		phase = l.State.Phase
		return nil
	})
	if phase != protocol.PhaseReveal {
		m.scheduleTimeout(lobbyID)
	}
}

func rotateAssignment(st *State, n int) {
	for user, idx := range st.Assignment {
		st.Assignment[user] = (idx + 1) % n
	}
}

// AdvanceReveal moves the host-paced reveal cursor to the next chain.
// Reports gameOver once the last chain has been shown.
func (m *Manager) AdvanceReveal(host, lobbyID string) (gameOver bool, err error) {
	err = m.lobbies.With(lobbyID, func(l *lobby.Lobby[*State]) error {
		if l.Host != host {
			return lobby.ErrNotHost
		}
		st := l.State
		if st.Phase != protocol.PhaseReveal {
			return fmt.Errorf("not in reveal phase")
		}
		st.RevealIndex++
		if st.RevealIndex >= len(st.Chains) {
			gameOver = true
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if gameOver {
		m.finishGame(lobbyID)
	}
	return gameOver, nil
}

func (m *Manager) finishGame(lobbyID string) {
	m.lobbies.ResetForReplay(lobbyID, &State{PhaseSeconds: defaultPhaseSecs})
	if m.OnGameOver != nil {
		m.OnGameOver(lobbyID)
	}
}

// CurrentChainResult builds the ChainResult payload for whatever chain
// the reveal cursor currently points at, prepending the owner's
// original phrase as a synthetic first step.
func CurrentChainResult(lobbyID string, st *State) protocol.ChainResult {
	if st.RevealIndex < 0 || st.RevealIndex >= len(st.Chains) {
		return protocol.ChainResult{LobbyID: lobbyID}
	}
	c := st.Chains[st.RevealIndex]
	steps := make([]protocol.ChainStep, 0, len(c.Steps)+1)
	steps = append(steps, protocol.ChainStep{Type: "phrase", Author: c.Owner, Value: c.Phrase})
	steps = append(steps, c.Steps...)
	return protocol.ChainResult{
		LobbyID:    lobbyID,
		Owner:      c.Owner,
		Steps:      steps,
		ChainIdx:   st.RevealIndex,
		ChainTotal: len(st.Chains),
	}
}

// PhaseStateFor builds user's personalized PhaseState: their assigned
// chain's latest relevant content only, never another player's view.
func PhaseStateFor(lobbyID, user string, st *State) protocol.PhaseState {
	ps := protocol.PhaseState{
		LobbyID:  lobbyID,
		Phase:    st.Phase,
		TimeLeft: timeLeft(st),
	}
	for submitted := range st.Submitted {
		ps.Submitted = append(ps.Submitted, submitted)
	}

	idx, ok := st.Assignment[user]
	if !ok || idx < 0 || idx >= len(st.Chains) {
		return ps
	}
	chain := st.Chains[idx]

	switch st.Phase {
	case protocol.PhaseDraw1:
		ps.PromptText = chain.Phrase
	case protocol.PhaseDescribe:
		if len(chain.Steps) > 0 {
			ps.PromptDrawing = chain.Steps[len(chain.Steps)-1].Value
		}
	case protocol.PhaseDraw2:
		if len(chain.Steps) > 0 {
			ps.PromptText = chain.Steps[len(chain.Steps)-1].Value
		}
	}
	return ps
}

func timeLeft(st *State) int {
	left := st.PhaseSeconds - int(time.Since(st.PhaseStartAt)/time.Second)
	if left < 0 {
		return 0
	}
	return left
}
