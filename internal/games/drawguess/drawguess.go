// Package drawguess is the Pictionary-style drawing and guessing game:
// one drawer per round, everyone else racing to guess a secret word
// from a progressively-revealed hint mask.
package drawguess

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/vegamsg/vegaserver/internal/idgen"
	"github.com/vegamsg/vegaserver/internal/lobby"
)

const (
	minPlayers        = 2
	maxPlayers        = 12
	defaultTotalRound = 3
)

// State is one lobby's round-in-progress data.
type State struct {
	Language     Language
	TotalRounds  int
	RoundSeconds int

	Round        int
	DrawerIndex  int
	Word         string
	Mask         []rune
	Guessed      map[string]bool
	Scores       map[string]int
	RoundStartAt time.Time
	HintRevealed bool
}

// Manager runs every active draw-and-guess lobby.
type Manager struct {
	lobbies *lobby.Manager[*State]

	mu         sync.Mutex
	hintTimers map[string]chan struct{} // lobbyID -> cancel channel for the hint-reveal goroutine
	tickTimers map[string]chan struct{} // lobbyID -> cancel channel for the round-state tick goroutine

	// OnRoundStart fires (outside any lock) whenever a round begins,
	// so the server can broadcast the fresh RoundState. OnRoundEnd is
	// invoked whenever a round ends, early or by timeout, so the server
	// can broadcast WordReveal. OnHint fires at the half-time mark.
	// OnTick fires on the round's broadcast cadence (every 10s, then
	// every 1s in the closing 5s) so the server can re-send RoundState
	// for a live countdown.
	OnRoundStart func(lobbyID string)
	OnRoundEnd   func(lobbyID string)
	OnHint       func(lobbyID string)
	OnGameOver   func(lobbyID string)
	OnTick       func(lobbyID string)
}

// New returns an empty Manager.
func New() *Manager {
	return &Manager{
		lobbies:    lobby.New[*State](func() (string, error) { return idgen.Lobby() }),
		hintTimers: make(map[string]chan struct{}),
		tickTimers: make(map[string]chan struct{}),
	}
}

// Lobbies exposes the underlying generic manager for server wiring.
func (m *Manager) Lobbies() *lobby.Manager[*State] { return m.lobbies }

// CreateLobby starts a new lobby hosted by host.
func (m *Manager) CreateLobby(host, name string, lang Language, roundSeconds, totalRounds int) (*lobby.Lobby[*State], error) {
	if roundSeconds <= 0 {
		roundSeconds = 60
	}
	if totalRounds <= 0 {
		totalRounds = defaultTotalRound
	}
	return m.lobbies.CreateLobby(host, name, maxPlayers, minPlayers, &State{
		Language:     lang,
		RoundSeconds: roundSeconds,
		TotalRounds:  totalRounds,
		Scores:       make(map[string]int),
	})
}

// StartGame begins the first round, if host and membership allow it.
func (m *Manager) StartGame(host string) (*lobby.Lobby[*State], error) {
	l, err := m.lobbies.StartGame(host)
	if err != nil {
		return nil, err
	}
	m.startRound(l.ID)
	return l, nil
}

func (m *Manager) startRound(lobbyID string) {
	var memberCount int
	_ = m.lobbies.With(lobbyID, func(l *lobby.Lobby[*State]) error {
		st := l.State
		st.Round++
		words := WordsFor(st.Language)
		st.Word = words[rand.IntN(len(words))]
		st.Mask = InitialMask(st.Word)
		st.Guessed = make(map[string]bool)
		st.RoundStartAt = time.Now()
		st.HintRevealed = false
		memberCount = len(l.Members)
		return nil
	})
	if memberCount == 0 {
		return
	}

	m.lobbies.SetTimer(lobbyID, m.roundDuration(lobbyID), func() {
		m.endRound(lobbyID)
	})
	m.scheduleHint(lobbyID)
	m.scheduleTicks(lobbyID)
	if m.OnRoundStart != nil {
		m.OnRoundStart(lobbyID)
	}
}

func (m *Manager) roundDuration(lobbyID string) time.Duration {
	var seconds int
	_ = m.lobbies.With(lobbyID, func(l *lobby.Lobby[*State]) error {
		seconds = l.State.RoundSeconds
		return nil
	})
	return time.Duration(seconds) * time.Second
}

func (m *Manager) scheduleHint(lobbyID string) {
	half := m.roundDuration(lobbyID) / 2

	cancel := make(chan struct{})
	m.mu.Lock()
	if old, ok := m.hintTimers[lobbyID]; ok {
		close(old)
	}
	m.hintTimers[lobbyID] = cancel
	m.mu.Unlock()

	go func() {
		timer := time.NewTimer(half)
		defer timer.Stop()
		select {
		case <-timer.C:
			m.revealHint(lobbyID)
		case <-cancel:
		}
	}()
}

func (m *Manager) cancelHint(lobbyID string) {
	m.mu.Lock()
	if c, ok := m.hintTimers[lobbyID]; ok {
		close(c)
		delete(m.hintTimers, lobbyID)
	}
	m.mu.Unlock()
}

// scheduleTicks runs a goroutine that fires OnTick on a 10-second
// cadence, switching to once per second for the round's final 5
// seconds, so clients see a live countdown without polling.
func (m *Manager) scheduleTicks(lobbyID string) {
	cancel := make(chan struct{})
	m.mu.Lock()
	if old, ok := m.tickTimers[lobbyID]; ok {
		close(old)
	}
	m.tickTimers[lobbyID] = cancel
	m.mu.Unlock()

	go func() {
		for {
			remaining := m.timeRemaining(lobbyID)
			if remaining <= 0 {
				return
			}
			interval := 10 * time.Second
			if remaining <= 5*time.Second {
				interval = time.Second
			}
			if interval > remaining {
				interval = remaining
			}
			timer := time.NewTimer(interval)
			select {
			case <-timer.C:
				if m.OnTick != nil {
					m.OnTick(lobbyID)
				}
			case <-cancel:
				timer.Stop()
				return
			}
		}
	}()
}

func (m *Manager) timeRemaining(lobbyID string) time.Duration {
	var remaining time.Duration
	_ = m.lobbies.With(lobbyID, func(l *lobby.Lobby[*State]) error {
		total := time.Duration(l.State.RoundSeconds) * time.Second
		remaining = total - time.Since(l.State.RoundStartAt)
		return nil
	})
	return remaining
}

func (m *Manager) cancelTicks(lobbyID string) {
	m.mu.Lock()
	if c, ok := m.tickTimers[lobbyID]; ok {
		close(c)
		delete(m.tickTimers, lobbyID)
	}
	m.mu.Unlock()
}

func (m *Manager) revealHint(lobbyID string) {
	_ = m.lobbies.With(lobbyID, func(l *lobby.Lobby[*State]) error {
		st := l.State
		if st.HintRevealed {
			return nil
		}
		st.HintRevealed = true
		RevealHints(st.Mask, st.Word)
		return nil
	})
	if m.OnHint != nil {
		m.OnHint(lobbyID)
	}
}

// RevealHints mutates mask in place, uncovering HintCount(len(word))
// random still-hidden non-space positions.
func RevealHints(mask []rune, word string) {
	runes := []rune(word)
	var hidden []int
	for i, r := range mask {
		if r == '_' {
			hidden = append(hidden, i)
		}
	}
	n := HintCount(len(word))
	rand.Shuffle(len(hidden), func(i, j int) { hidden[i], hidden[j] = hidden[j], hidden[i] })
	if n > len(hidden) {
		n = len(hidden)
	}
	for _, idx := range hidden[:n] {
		mask[idx] = runes[idx]
	}
}

// Guess processes user's guess text against lobbyID's secret word.
// Returns (correct, ended-round-early, error).
func (m *Manager) Guess(user, lobbyID, text string) (correct, roundEndedEarly bool, err error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return false, false, nil
	}

	err = m.lobbies.With(lobbyID, func(l *lobby.Lobby[*State]) error {
		st := l.State
		if !l.HasMember(user) {
			return fmt.Errorf("not a player in this game")
		}
		drawer := l.Members[st.DrawerIndex%len(l.Members)]
		if user == drawer {
			return nil
		}
		if st.Guessed[user] {
			return nil
		}
		if !strings.EqualFold(text, st.Word) {
			return nil
		}

		timeLeft := int(time.Duration(st.RoundSeconds)*time.Second-time.Since(st.RoundStartAt)) / int(time.Second)
		if timeLeft < 0 {
			timeLeft = 0
		}
		if st.Scores == nil {
			st.Scores = make(map[string]int)
		}
		st.Scores[user] += GuesserPoints(timeLeft, st.RoundSeconds)
		st.Scores[drawer] += DrawerPoints
		st.Guessed[user] = true
		correct = true

		nonDrawers := len(l.Members) - 1
		if len(st.Guessed) >= nonDrawers {
			roundEndedEarly = true
		}
		return nil
	})
	if err != nil {
		return false, false, err
	}
	if roundEndedEarly {
		m.endRound(lobbyID)
	}
	return correct, roundEndedEarly, nil
}

// endRound finalizes the current round (by timeout or early
// completion), advances the drawer, and either starts the next round
// or ends the game.
func (m *Manager) endRound(lobbyID string) {
	m.lobbies.CancelTimer(lobbyID)
	m.cancelHint(lobbyID)
	m.cancelTicks(lobbyID)

	var gameOver bool
	var memberCount int
	_ = m.lobbies.With(lobbyID, func(l *lobby.Lobby[*State]) error {
		st := l.State
		st.DrawerIndex = (st.DrawerIndex + 1) % max(len(l.Members), 1)
		memberCount = len(l.Members)
		if st.Round >= st.TotalRounds {
			gameOver = true
		}
		return nil
	})

	if m.OnRoundEnd != nil {
		m.OnRoundEnd(lobbyID)
	}

	if gameOver || memberCount < minPlayers {
		m.finishGame(lobbyID)
		return
	}

	time.AfterFunc(3*time.Second, func() { m.startRound(lobbyID) })
}

func (m *Manager) finishGame(lobbyID string) {
	var lang Language
	var roundSeconds, totalRounds int
	_ = m.lobbies.With(lobbyID, func(l *lobby.Lobby[*State]) error {
		lang = l.State.Language
		roundSeconds = l.State.RoundSeconds
		totalRounds = l.State.TotalRounds
		return nil
	})
	m.lobbies.ResetForReplay(lobbyID, &State{
		Language:     lang,
		RoundSeconds: roundSeconds,
		TotalRounds:  totalRounds,
		Scores:       make(map[string]int),
	})
	if m.OnGameOver != nil {
		m.OnGameOver(lobbyID)
	}
}

// HandleDrawerDisconnect advances the round when the drawer leaves
// mid-round, fixing up the drawer index so the next rotation lands on
// the correct player.
func (m *Manager) HandleDrawerDisconnect(lobbyID, departingDrawer string) {
	var wasDrawer bool
	_ = m.lobbies.With(lobbyID, func(l *lobby.Lobby[*State]) error {
		st := l.State
		if len(l.Members) == 0 {
			return nil
		}
		if l.Members[st.DrawerIndex%len(l.Members)] == departingDrawer {
			wasDrawer = true
		}
		if st.DrawerIndex > 0 {
			st.DrawerIndex--
		}
		return nil
	})
	if wasDrawer {
		m.endRound(lobbyID)
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
