// Package cardhand is the color-and-value matching card game with
// wilds: draw-and-discard turns around a shared pile, four-player max.
package cardhand

import (
	"fmt"
	"math/rand/v2"

	"github.com/vegamsg/vegaserver/internal/idgen"
	"github.com/vegamsg/vegaserver/internal/lobby"
	"github.com/vegamsg/vegaserver/internal/protocol"
)

const (
	minPlayers  = 2
	maxPlayers  = 4
	initialHand = 7
)

var colors = []protocol.CardColor{protocol.ColorRed, protocol.ColorYellow, protocol.ColorGreen, protocol.ColorBlue}

// State is one lobby's deck, hands, and discard pile.
type State struct {
	Deck    []protocol.Card
	Discard []protocol.Card
	Hands   map[string][]protocol.Card

	CurrentColor protocol.CardColor
	Turn         int // index into order
	Order        []string
	Direction    int // 1 or -1

	PendingColorChoice bool
	PendingDrawNext    int // cards the next player must draw and be skipped, 0 if none

	Winner string
}

// Manager runs every active card-hand match.
type Manager struct {
	lobbies *lobby.Manager[*State]

	// OnHandUpdate fires (outside any lock) after any state-mutating
	// action so the server can push personalized HandUpdate payloads.
	OnHandUpdate func(lobbyID string)
	OnGameOver   func(lobbyID string)
}

// New returns an empty Manager.
func New() *Manager {
	return &Manager{lobbies: lobby.New[*State](func() (string, error) { return idgen.Lobby() })}
}

// Lobbies exposes the underlying generic manager for server wiring.
func (m *Manager) Lobbies() *lobby.Manager[*State] { return m.lobbies }

// CreateLobby starts a new lobby hosted by host.
func (m *Manager) CreateLobby(host, name string) (*lobby.Lobby[*State], error) {
	return m.lobbies.CreateLobby(host, name, maxPlayers, minPlayers, &State{})
}

// JoinLobby adds user to lobbyID.
func (m *Manager) JoinLobby(user, lobbyID string) (*lobby.Lobby[*State], error) {
	return m.lobbies.JoinLobby(user, lobbyID)
}

func newDeck() []protocol.Card {
	deck := make([]protocol.Card, 0, 108)
	for _, c := range colors {
		deck = append(deck, protocol.Card{Color: c, Value: "0"})
		for v := 1; v <= 9; v++ {
			card := protocol.Card{Color: c, Value: fmt.Sprintf("%d", v)}
			deck = append(deck, card, card)
		}
		for _, v := range []string{"skip", "reverse", "draw2"} {
			card := protocol.Card{Color: c, Value: v}
			deck = append(deck, card, card)
		}
	}
	for i := 0; i < 4; i++ {
		deck = append(deck, protocol.Card{Color: protocol.ColorNone, Value: "wild"})
		deck = append(deck, protocol.Card{Color: protocol.ColorNone, Value: "wild4"})
	}
	rand.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck
}

// StartGame deals hands and flips the initial discard.
func (m *Manager) StartGame(host string) (*lobby.Lobby[*State], error) {
	l, err := m.lobbies.StartGame(host)
	if err != nil {
		return nil, err
	}
	_ = m.lobbies.With(l.ID, func(l *lobby.Lobby[*State]) error {
		st := l.State
		st.Deck = newDeck()
		st.Order = append([]string(nil), l.Members...)
		st.Direction = 1
		st.Turn = 0
		st.Hands = make(map[string][]protocol.Card, len(st.Order))

		for _, user := range st.Order {
			hand := make([]protocol.Card, initialHand)
			copy(hand, st.Deck[:initialHand])
			st.Deck = st.Deck[initialHand:]
			st.Hands[user] = hand
		}

		top := st.Deck[0]
		st.Deck = st.Deck[1:]
		if top.Value == "wild4" {
			st.Deck = append(st.Deck, top)
			rand.Shuffle(len(st.Deck), func(i, j int) { st.Deck[i], st.Deck[j] = st.Deck[j], st.Deck[i] })
			top = st.Deck[0]
			st.Deck = st.Deck[1:]
		}
		st.Discard = []protocol.Card{top}
		if top.Color == protocol.ColorNone {
			st.CurrentColor = colors[rand.IntN(len(colors))]
		} else {
			st.CurrentColor = top.Color
		}
		return nil
	})
	return l, nil
}

func (st *State) topCard() protocol.Card {
	return st.Discard[len(st.Discard)-1]
}

func legal(card protocol.Card, currentColor protocol.CardColor, top protocol.Card) bool {
	if card.Color == protocol.ColorNone {
		return true
	}
	return card.Color == currentColor || card.Value == top.Value
}

// PlayCard plays cardIndex from user's hand in lobbyID.
func (m *Manager) PlayCard(user, lobbyID string, cardIndex int) error {
	err := m.lobbies.With(lobbyID, func(l *lobby.Lobby[*State]) error {
		st := l.State
		if st.Winner != "" {
			return fmt.Errorf("game already finished")
		}
		if st.PendingColorChoice {
			return fmt.Errorf("awaiting color choice")
		}
		if st.Order[st.Turn] != user {
			return fmt.Errorf("not your turn")
		}
		hand := st.Hands[user]
		if cardIndex < 0 || cardIndex >= len(hand) {
			return fmt.Errorf("illegal card index")
		}
		card := hand[cardIndex]
		if !legal(card, st.CurrentColor, st.topCard()) {
			return fmt.Errorf("card does not match color or value")
		}

		st.Hands[user] = append(append([]protocol.Card(nil), hand[:cardIndex]...), hand[cardIndex+1:]...)
		st.Discard = append(st.Discard, card)

		if len(st.Hands[user]) == 0 {
			st.Winner = user
			return nil
		}

		applyEffect(st, card)
		return nil
	})
	if err != nil {
		return err
	}
	m.notify(lobbyID)
	return nil
}

func applyEffect(st *State, card protocol.Card) {
	switch card.Value {
	case "wild":
		st.PendingColorChoice = true
		return
	case "wild4":
		st.PendingColorChoice = true
		st.PendingDrawNext = 4
		return
	}

	if card.Color != protocol.ColorNone {
		st.CurrentColor = card.Color
	}

	switch card.Value {
	case "reverse":
		if len(st.Order) == 2 {
			advanceTurn(st, 2)
		} else {
			st.Direction = -st.Direction
			advanceTurn(st, 1)
		}
	case "skip":
		advanceTurn(st, 2)
	case "draw2":
		advanceTurn(st, 1)
		drawCards(st, st.Order[st.Turn], 2)
		advanceTurn(st, 1)
	default:
		advanceTurn(st, 1)
	}
}

func advanceTurn(st *State, steps int) {
	n := len(st.Order)
	if n == 0 {
		return
	}
	st.Turn = ((st.Turn+steps*st.Direction)%n + n) % n
}

// ChooseColor resolves a pending wild/wild4 color choice.
func (m *Manager) ChooseColor(user, lobbyID string, color protocol.CardColor) error {
	err := m.lobbies.With(lobbyID, func(l *lobby.Lobby[*State]) error {
		st := l.State
		if !st.PendingColorChoice {
			return fmt.Errorf("no pending color choice")
		}
		if st.Order[st.Turn] != user {
			return fmt.Errorf("not your turn")
		}
		st.CurrentColor = color
		st.Discard[len(st.Discard)-1].Color = color
		st.PendingColorChoice = false

		if st.PendingDrawNext > 0 {
			n := st.PendingDrawNext
			st.PendingDrawNext = 0
			advanceTurn(st, 1)
			drawCards(st, st.Order[st.Turn], n)
			advanceTurn(st, 1)
		} else {
			advanceTurn(st, 1)
		}
		return nil
	})
	if err != nil {
		return err
	}
	m.notify(lobbyID)
	return nil
}

// DrawCard voluntarily draws and ends user's turn.
func (m *Manager) DrawCard(user, lobbyID string) error {
	err := m.lobbies.With(lobbyID, func(l *lobby.Lobby[*State]) error {
		st := l.State
		if st.PendingColorChoice {
			return fmt.Errorf("awaiting color choice")
		}
		if st.Order[st.Turn] != user {
			return fmt.Errorf("not your turn")
		}
		drawCards(st, user, 1)
		advanceTurn(st, 1)
		return nil
	})
	if err != nil {
		return err
	}
	m.notify(lobbyID)
	return nil
}

// drawCards deals n cards to user, recycling the discard pile under
// the top card if the draw pile runs dry.
func drawCards(st *State, user string, n int) {
	for i := 0; i < n; i++ {
		if len(st.Deck) == 0 {
			recycle(st)
			if len(st.Deck) == 0 {
				return
			}
		}
		st.Hands[user] = append(st.Hands[user], st.Deck[0])
		st.Deck = st.Deck[1:]
	}
}

func recycle(st *State) {
	if len(st.Discard) <= 1 {
		return
	}
	top := st.Discard[len(st.Discard)-1]
	rest := st.Discard[:len(st.Discard)-1]
	for i, c := range rest {
		if c.Value == "wild" || c.Value == "wild4" {
			rest[i].Color = protocol.ColorNone
		}
	}
	st.Deck = append(st.Deck, rest...)
	rand.Shuffle(len(st.Deck), func(i, j int) { st.Deck[i], st.Deck[j] = st.Deck[j], st.Deck[i] })
	st.Discard = []protocol.Card{top}
}

// HandUpdateFor builds user's personalized view: their own hand in
// full, every opponent's card count only.
func HandUpdateFor(lobbyID, user string, st *State) protocol.HandUpdate {
	counts := make(map[string]int, len(st.Order))
	for _, mem := range st.Order {
		if mem != user {
			counts[mem] = len(st.Hands[mem])
		}
	}
	var turn string
	if len(st.Order) > 0 {
		turn = st.Order[st.Turn]
	}
	return protocol.HandUpdate{
		LobbyID:        lobbyID,
		Hand:           append([]protocol.Card(nil), st.Hands[user]...),
		OpponentCounts: counts,
		TopCard:        st.topCard(),
		CurrentColor:   st.CurrentColor,
		Turn:           turn,
		Direction:      st.Direction,
		PendingColor:   st.PendingColorChoice,
	}
}

func (m *Manager) notify(lobbyID string) {
	var winner string
	_ = m.lobbies.With(lobbyID, func(l *lobby.Lobby[*State]) error {
		winner = l.State.Winner
		return nil
	})
	if m.OnHandUpdate != nil {
		m.OnHandUpdate(lobbyID)
	}
	if winner != "" && m.OnGameOver != nil {
		m.OnGameOver(lobbyID)
	}
}
