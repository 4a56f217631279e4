package cardbet_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vegamsg/vegaserver/internal/games/cardbet"
	"github.com/vegamsg/vegaserver/internal/protocol"
)

func card(value string) protocol.Card { return protocol.Card{Color: protocol.ColorRed, Value: value} }

func TestHandValue_AceDowngradesOnlyWhenBust(t *testing.T) {
	require.Equal(t, 21, cardbet.HandValue([]protocol.Card{card("A"), card("K")}))
	require.Equal(t, 12, cardbet.HandValue([]protocol.Card{card("A"), card("A")}))
	require.Equal(t, 21, cardbet.HandValue([]protocol.Card{card("A"), card("9"), card("A")}))
	require.Equal(t, 20, cardbet.HandValue([]protocol.Card{card("K"), card("Q")}))
}

func newTable(t *testing.T) (*cardbet.Manager, string) {
	t.Helper()
	m := cardbet.New()
	l, err := m.CreateLobby("alice", "table")
	require.NoError(t, err)
	_, err = m.StartGame("alice")
	require.NoError(t, err)
	return m, l.ID
}

func TestPlaceBet_ClampsToBalance(t *testing.T) {
	m, lobbyID := newTable(t)
	require.NoError(t, m.PlaceBet("alice", lobbyID, 1_000_000))

	l, ok := m.Lobbies().Get(lobbyID)
	require.True(t, ok)
	require.Equal(t, 0, l.State.Balances["alice"])
	require.Contains(t, []string{"players", "settlement"}, l.State.Phase) // sole player's bet closes betting and deals (a natural settles at once)
}

func TestPlaceBet_ClampsBelowMinimum(t *testing.T) {
	m, lobbyID := newTable(t)
	require.NoError(t, m.PlaceBet("alice", lobbyID, 1))

	l, _ := m.Lobbies().Get(lobbyID)
	require.Equal(t, 995, l.State.Balances["alice"])
}

func TestAllBetsSubmitted_DealsAndAdvancesToPlayersPhase(t *testing.T) {
	m, lobbyID := newTable(t)
	require.NoError(t, m.PlaceBet("alice", lobbyID, 50))

	l, _ := m.Lobbies().Get(lobbyID)
	require.Contains(t, []string{"players", "dealer", "settlement"}, l.State.Phase)
	require.Len(t, l.State.Hands["alice"].Hand, 2)
	require.Len(t, l.State.Dealer, 2)
}

func TestStand_EndsTurnAndEventuallySettles(t *testing.T) {
	m, lobbyID := newTable(t)
	require.NoError(t, m.PlaceBet("alice", lobbyID, 50))

	l, _ := m.Lobbies().Get(lobbyID)
	if l.State.Phase == "players" {
		require.NoError(t, m.Stand("alice", lobbyID))
	}

	l, _ = m.Lobbies().Get(lobbyID)
	require.Equal(t, "settlement", l.State.Phase)
	require.Contains(t, []string{"win", "lose", "push", "bust", "natural"}, l.State.Outcomes["alice"])
}

func TestNextRound_RequiresHostAndSettlementPhase(t *testing.T) {
	m, lobbyID := newTable(t)
	err := m.NextRound("alice", lobbyID)
	require.Error(t, err)

	err = m.NextRound("mallory", lobbyID)
	require.Error(t, err)
}
