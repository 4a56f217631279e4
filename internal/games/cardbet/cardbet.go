// Package cardbet is the dealer-vs-players scored card game: standard
// 52-card value counting, one house hand against every seated player.
package cardbet

import (
	"fmt"
	"math/rand/v2"

	"github.com/vegamsg/vegaserver/internal/idgen"
	"github.com/vegamsg/vegaserver/internal/lobby"
	"github.com/vegamsg/vegaserver/internal/protocol"
)

const (
	minPlayers     = 1
	maxPlayers     = 6
	startBalance   = 1000
	minBet         = 5
	dealerStandsAt = 17
	target         = 21
)

const (
	outcomeBust    = "bust"
	outcomeNatural = "natural"
	outcomeWin     = "win"
	outcomePush    = "push"
	outcomeLose    = "lose"
)

var suits = []protocol.CardColor{protocol.ColorRed, protocol.ColorYellow, protocol.ColorGreen, protocol.ColorBlue}
var ranks = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

type playerHand struct {
	Hand []protocol.Card
	Bet  int
	Done bool
}

// State is one table's betting/dealing/settlement progress.
type State struct {
	Phase string // "betting" | "dealing" | "players" | "dealer" | "settlement"

	Deck    []protocol.Card
	Dealer  []protocol.Card
	Hands   map[string]*playerHand
	Balances map[string]int
	Scores  map[string]int

	Order    []string
	Turn     int
	Outcomes map[string]string
}

// Manager runs every active table.
type Manager struct {
	lobbies *lobby.Manager[*State]

	OnBettingPhase func(lobbyID string)
	OnRoundResult  func(lobbyID string)
}

// New returns an empty Manager.
func New() *Manager {
	return &Manager{lobbies: lobby.New[*State](func() (string, error) { return idgen.Lobby() })}
}

// Lobbies exposes the underlying generic manager for server wiring.
func (m *Manager) Lobbies() *lobby.Manager[*State] { return m.lobbies }

// CreateLobby starts a new table hosted by host.
func (m *Manager) CreateLobby(host, name string) (*lobby.Lobby[*State], error) {
	return m.lobbies.CreateLobby(host, name, maxPlayers, minPlayers, &State{
		Phase:    "betting",
		Balances: map[string]int{host: startBalance},
		Scores:   map[string]int{host: 0},
	})
}

// JoinLobby seats user with a fresh balance.
func (m *Manager) JoinLobby(user, lobbyID string) (*lobby.Lobby[*State], error) {
	l, err := m.lobbies.JoinLobby(user, lobbyID)
	if err != nil {
		return nil, err
	}
	_ = m.lobbies.With(lobbyID, func(l *lobby.Lobby[*State]) error {
		if _, ok := l.State.Balances[user]; !ok {
			l.State.Balances[user] = startBalance
			l.State.Scores[user] = 0
		}
		return nil
	})
	return l, nil
}

func newShoe() []protocol.Card {
	deck := make([]protocol.Card, 0, 52)
	for i, suit := range suits {
		for _, rank := range ranks {
			_ = i
			deck = append(deck, protocol.Card{Color: suit, Value: rank})
		}
	}
	rand.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck
}

// StartGame opens the betting phase.
func (m *Manager) StartGame(host string) (*lobby.Lobby[*State], error) {
	l, err := m.lobbies.StartGame(host)
	if err != nil {
		return nil, err
	}
	_ = m.lobbies.With(l.ID, func(l *lobby.Lobby[*State]) error {
		l.State.Phase = "betting"
		l.State.Order = append([]string(nil), l.Members...)
		return nil
	})
	if m.OnBettingPhase != nil {
		m.OnBettingPhase(l.ID)
	}
	return l, nil
}

// PlaceBet clamps amount to [minBet, balance] and records it.
func (m *Manager) PlaceBet(user, lobbyID string, amount int) error {
	err := m.lobbies.With(lobbyID, func(l *lobby.Lobby[*State]) error {
		st := l.State
		if st.Phase != "betting" {
			return fmt.Errorf("not in betting phase")
		}
		bal := st.Balances[user]
		if amount < minBet {
			amount = minBet
		}
		if amount > bal {
			amount = bal
		}
		if st.Hands == nil {
			st.Hands = make(map[string]*playerHand)
		}
		st.Hands[user] = &playerHand{Bet: amount}
		st.Balances[user] = bal - amount
		return nil
	})
	if err != nil {
		return err
	}

	var allBet bool
	_ = m.lobbies.With(lobbyID, func(l *lobby.Lobby[*State]) error {
		allBet = len(l.State.Hands) >= len(l.Members)
		return nil
	})
	if allBet {
		m.deal(lobbyID)
	}
	return nil
}

func (m *Manager) deal(lobbyID string) {
	_ = m.lobbies.With(lobbyID, func(l *lobby.Lobby[*State]) error {
		st := l.State
		st.Phase = "dealing"
		st.Deck = newShoe()
		st.Dealer = nil
		st.Outcomes = make(map[string]string)

		for _, user := range st.Order {
			hand := st.Hands[user]
			hand.Hand = []protocol.Card{st.drawCard(), st.drawCard()}
			hand.Done = false
		}
		st.Dealer = []protocol.Card{st.drawCard(), st.drawCard()}

		st.Phase = "players"
		st.Turn = 0
		st.skipDoneOrBustPlayers()
		return nil
	})
	m.checkAllPlayersDone(lobbyID)
}

func (st *State) drawCard() protocol.Card {
	if len(st.Deck) == 0 {
		st.Deck = newShoe()
	}
	c := st.Deck[0]
	st.Deck = st.Deck[1:]
	return c
}

// HandValue is aces-high-then-downgraded blackjack scoring.
func HandValue(hand []protocol.Card) int {
	total := 0
	aces := 0
	for _, c := range hand {
		switch c.Value {
		case "A":
			total += 11
			aces++
		case "J", "Q", "K":
			total += 10
		default:
			var v int
			fmt.Sscanf(c.Value, "%d", &v)
			total += v
		}
	}
	for total > target && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

func isNatural(hand []protocol.Card) bool {
	return len(hand) == 2 && HandValue(hand) == target
}

func (st *State) skipDoneOrBustPlayers() {
	for st.Turn < len(st.Order) {
		user := st.Order[st.Turn]
		hand := st.Hands[user]
		if hand.Done || HandValue(hand.Hand) >= target || isNatural(hand.Hand) {
			hand.Done = true
			st.Turn++
			continue
		}
		break
	}
}

// Hit draws one card for user; busting ends their turn automatically.
func (m *Manager) Hit(user, lobbyID string) error {
	err := m.lobbies.With(lobbyID, func(l *lobby.Lobby[*State]) error {
		st := l.State
		if st.Phase != "players" || st.Order[st.Turn] != user {
			return fmt.Errorf("not your turn")
		}
		hand := st.Hands[user]
		hand.Hand = append(hand.Hand, st.drawCard())
		if HandValue(hand.Hand) >= target {
			hand.Done = true
			st.Turn++
			st.skipDoneOrBustPlayers()
		}
		return nil
	})
	if err != nil {
		return err
	}
	m.checkAllPlayersDone(lobbyID)
	return nil
}

// Stand ends user's turn without drawing.
func (m *Manager) Stand(user, lobbyID string) error {
	err := m.lobbies.With(lobbyID, func(l *lobby.Lobby[*State]) error {
		st := l.State
		if st.Phase != "players" || st.Order[st.Turn] != user {
			return fmt.Errorf("not your turn")
		}
		st.Hands[user].Done = true
		st.Turn++
		st.skipDoneOrBustPlayers()
		return nil
	})
	if err != nil {
		return err
	}
	m.checkAllPlayersDone(lobbyID)
	return nil
}

func (m *Manager) checkAllPlayersDone(lobbyID string) {
	var dealerTurn bool
	_ = m.lobbies.With(lobbyID, func(l *lobby.Lobby[*State]) error {
		st := l.State
		if st.Phase == "players" && st.Turn >= len(st.Order) {
			st.Phase = "dealer"
			dealerTurn = true
		}
		return nil
	})
	if dealerTurn {
		m.playDealerAndSettle(lobbyID)
	}
}

func (m *Manager) playDealerAndSettle(lobbyID string) {
	_ = m.lobbies.With(lobbyID, func(l *lobby.Lobby[*State]) error {
		st := l.State
		for HandValue(st.Dealer) < dealerStandsAt {
			st.Dealer = append(st.Dealer, st.drawCard())
		}
		dealerTotal := HandValue(st.Dealer)
		dealerBust := dealerTotal > target
		dealerNatural := isNatural(st.Dealer)

		for _, user := range st.Order {
			hand := st.Hands[user]
			total := HandValue(hand.Hand)
			outcome, payout := settle(total, hand.Bet, dealerTotal, dealerBust, dealerNatural, isNatural(hand.Hand))
			st.Outcomes[user] = outcome
			st.Balances[user] += payout
			if outcome == outcomeWin || outcome == outcomeNatural {
				st.Scores[user]++
			}
		}
		st.Phase = "settlement"
		return nil
	})
	if m.OnRoundResult != nil {
		m.OnRoundResult(lobbyID)
	}
}

// settle computes the outcome label and total balance credit
// (including bet return where applicable) for one player's hand.
func settle(total, bet, dealerTotal int, dealerBust, dealerNatural, playerNatural bool) (outcome string, payout int) {
	if total > target {
		return outcomeBust, 0
	}
	if playerNatural && !dealerNatural {
		return outcomeNatural, bet * 5 / 2
	}
	if dealerBust || total > dealerTotal {
		return outcomeWin, bet * 2
	}
	if total == dealerTotal {
		return outcomePush, bet
	}
	return outcomeLose, 0
}

// NextRound is issued by the host to reset the table for a new bet.
func (m *Manager) NextRound(host, lobbyID string) error {
	return m.lobbies.With(lobbyID, func(l *lobby.Lobby[*State]) error {
		if l.Host != host {
			return lobby.ErrNotHost
		}
		if l.State.Phase != "settlement" {
			return fmt.Errorf("not in settlement phase")
		}
		l.State.Phase = "betting"
		l.State.Hands = make(map[string]*playerHand)
		l.State.Outcomes = make(map[string]string)
		return nil
	})
}

// RoundResultView renders the settlement broadcast payload.
func RoundResultView(lobbyID string, st *State) protocol.RoundResult {
	players := make([]protocol.PlayerHandView, 0, len(st.Order))
	for _, user := range st.Order {
		hand := st.Hands[user]
		players = append(players, protocol.PlayerHandView{
			Username: user,
			Hand:     append([]protocol.Card(nil), hand.Hand...),
			Total:    HandValue(hand.Hand),
			Bet:      hand.Bet,
			Done:     hand.Done,
		})
	}
	return protocol.RoundResult{
		LobbyID: lobbyID,
		Dealer: protocol.PlayerHandView{
			Username: "dealer",
			Hand:     append([]protocol.Card(nil), st.Dealer...),
			Total:    HandValue(st.Dealer),
			Done:     true,
		},
		Players:  players,
		Outcomes: copyStringMap(st.Outcomes),
		Balances: copyIntMap(st.Balances),
		Scores:   copyIntMap(st.Scores),
	}
}

func copyStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyIntMap(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
