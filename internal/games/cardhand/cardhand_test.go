package cardhand_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vegamsg/vegaserver/internal/games/cardhand"
	"github.com/vegamsg/vegaserver/internal/lobby"
	"github.com/vegamsg/vegaserver/internal/protocol"
)

func newGame(t *testing.T) (*cardhand.Manager, string) {
	t.Helper()
	m := cardhand.New()
	l, err := m.CreateLobby("alice", "room")
	require.NoError(t, err)
	_, err = m.JoinLobby("bob", l.ID)
	require.NoError(t, err)
	_, err = m.StartGame("alice")
	require.NoError(t, err)
	return m, l.ID
}

func TestStartGame_DealsSevenEach(t *testing.T) {
	m, lobbyID := newGame(t)
	l, ok := m.Lobbies().Get(lobbyID)
	require.True(t, ok)
	require.Len(t, l.State.Hands["alice"], 7)
	require.Len(t, l.State.Hands["bob"], 7)
	require.Len(t, l.State.Discard, 1)
	require.NotEqual(t, protocol.ColorNone, l.State.CurrentColor)
}

// forceTop rigs the current turn holder's hand and the discard top so
// tests can exercise exact play scenarios deterministically.
func forceTop(t *testing.T, m *cardhand.Manager, lobbyID string, top protocol.Card, currentColor protocol.CardColor, handCard protocol.Card) (turnPlayer string) {
	t.Helper()
	err := m.Lobbies().With(lobbyID, func(l *lobby.Lobby[*cardhand.State]) error {
		st := l.State
		st.Discard = []protocol.Card{top}
		st.CurrentColor = currentColor
		turnPlayer = st.Order[st.Turn]
		st.Hands[turnPlayer] = append([]protocol.Card{handCard}, st.Hands[turnPlayer]...)
		return nil
	})
	require.NoError(t, err)
	return turnPlayer
}

func TestPlayCard_WildSetsPendingColorChoiceWithoutAdvancingTurn(t *testing.T) {
	m, lobbyID := newGame(t)
	player := forceTop(t, m, lobbyID,
		protocol.Card{Color: protocol.ColorRed, Value: "5"}, protocol.ColorRed,
		protocol.Card{Color: protocol.ColorNone, Value: "wild"})

	require.NoError(t, m.PlayCard(player, lobbyID, 0))

	l, _ := m.Lobbies().Get(lobbyID)
	require.True(t, l.State.PendingColorChoice)
	require.Equal(t, player, l.State.Order[l.State.Turn], "turn does not advance until ChooseColor")
}

func TestChooseColor_UpdatesTopCardAndAdvancesTurn(t *testing.T) {
	m, lobbyID := newGame(t)
	player := forceTop(t, m, lobbyID,
		protocol.Card{Color: protocol.ColorRed, Value: "5"}, protocol.ColorRed,
		protocol.Card{Color: protocol.ColorNone, Value: "wild"})
	require.NoError(t, m.PlayCard(player, lobbyID, 0))

	require.NoError(t, m.ChooseColor(player, lobbyID, protocol.ColorBlue))

	l, _ := m.Lobbies().Get(lobbyID)
	require.Equal(t, protocol.ColorBlue, l.State.CurrentColor)
	require.Equal(t, protocol.ColorBlue, l.State.Discard[len(l.State.Discard)-1].Color)
	require.False(t, l.State.PendingColorChoice)
	require.NotEqual(t, player, l.State.Order[l.State.Turn])
}

func TestPlayCard_IllegalColorAndValueIsRejected(t *testing.T) {
	m, lobbyID := newGame(t)
	player := forceTop(t, m, lobbyID,
		protocol.Card{Color: protocol.ColorRed, Value: "5"}, protocol.ColorRed,
		protocol.Card{Color: protocol.ColorBlue, Value: "7"})

	err := m.PlayCard(player, lobbyID, 0)
	require.Error(t, err)
}

func TestPlayCard_DrawTwoSkipsNextPlayerAfterDrawing(t *testing.T) {
	m, lobbyID := newGame(t)
	player := forceTop(t, m, lobbyID,
		protocol.Card{Color: protocol.ColorRed, Value: "5"}, protocol.ColorRed,
		protocol.Card{Color: protocol.ColorRed, Value: "draw2"})

	l, _ := m.Lobbies().Get(lobbyID)
	victim := l.State.Order[(l.State.Turn+1)%len(l.State.Order)]
	before := len(l.State.Hands[victim])

	require.NoError(t, m.PlayCard(player, lobbyID, 0))

	l, _ = m.Lobbies().Get(lobbyID)
	require.Len(t, l.State.Hands[victim], before+2)
	require.Equal(t, player, l.State.Order[l.State.Turn], "in a two-player game the drawer is skipped back to the original player")
}

func TestPlayCard_EmptyHandEndsGameWithWinner(t *testing.T) {
	m, lobbyID := newGame(t)
	err := m.Lobbies().With(lobbyID, func(l *lobby.Lobby[*cardhand.State]) error {
		st := l.State
		st.Discard = []protocol.Card{{Color: protocol.ColorRed, Value: "5"}}
		st.CurrentColor = protocol.ColorRed
		turnPlayer := st.Order[st.Turn]
		st.Hands[turnPlayer] = []protocol.Card{{Color: protocol.ColorRed, Value: "9"}}
		return nil
	})
	require.NoError(t, err)

	l, _ := m.Lobbies().Get(lobbyID)
	player := l.State.Order[l.State.Turn]
	require.NoError(t, m.PlayCard(player, lobbyID, 0))

	l, _ = m.Lobbies().Get(lobbyID)
	require.Equal(t, player, l.State.Winner)
}

func TestHandUpdateFor_HidesOpponentHandContents(t *testing.T) {
	m, lobbyID := newGame(t)
	l, _ := m.Lobbies().Get(lobbyID)
	update := cardhand.HandUpdateFor(lobbyID, "alice", l.State)
	require.Len(t, update.Hand, 7)
	require.Equal(t, 7, update.OpponentCounts["bob"])
	_, hasOwnCount := update.OpponentCounts["alice"]
	require.False(t, hasOwnCount)
}
