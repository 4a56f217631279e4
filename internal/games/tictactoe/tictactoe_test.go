package tictactoe_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vegamsg/vegaserver/internal/games/tictactoe"
)

func startGame(t *testing.T) (*tictactoe.Manager, string) {
	t.Helper()
	m := tictactoe.New()
	require.NoError(t, m.Invite("alice", "bob"))
	lobbyID, inviter, _, err := m.RespondInvite("bob", true)
	require.NoError(t, err)
	require.Equal(t, "alice", inviter)
	return m, lobbyID
}

func TestMove_RejectsOutOfTurn(t *testing.T) {
	m, lobbyID := startGame(t)
	_, err := m.Move("bob", lobbyID, 0)
	require.Error(t, err)
}

func TestMove_RejectsOccupiedCell(t *testing.T) {
	m, lobbyID := startGame(t)
	_, err := m.Move("alice", lobbyID, 0)
	require.NoError(t, err)
	_, err = m.Move("bob", lobbyID, 0)
	require.Error(t, err)
}

func TestMove_DetectsWinLine(t *testing.T) {
	m, lobbyID := startGame(t)
	// alice: 0,1,2 ; bob: 3,4
	moves := []struct {
		user string
		cell int
	}{
		{"alice", 0}, {"bob", 3},
		{"alice", 1}, {"bob", 4},
		{"alice", 2},
	}
	var st *tictactoe.State
	var err error
	for _, mv := range moves {
		st, err = m.Move(mv.user, lobbyID, mv.cell)
		require.NoError(t, err)
	}
	require.True(t, st.Finished)
	require.Equal(t, "alice", st.Winner)
	require.Equal(t, []int{0, 1, 2}, st.WinLine)
}

func TestMove_DetectsDraw(t *testing.T) {
	m, lobbyID := startGame(t)
	// X O X / X O O / O X X -> no winner, full board
	order := []struct {
		user string
		cell int
	}{
		{"alice", 0}, {"bob", 1},
		{"alice", 2}, {"bob", 4},
		{"alice", 3}, {"bob", 5},
		{"alice", 7}, {"bob", 6},
		{"alice", 8},
	}
	var st *tictactoe.State
	var err error
	for _, mv := range order {
		st, err = m.Move(mv.user, lobbyID, mv.cell)
		require.NoError(t, err)
	}
	require.True(t, st.Finished)
	require.True(t, st.Draw)
	require.Empty(t, st.Winner)
}

func TestAbandon_IsImmediateLossForDepartingPlayer(t *testing.T) {
	m, lobbyID := startGame(t)
	_, err := m.Move("alice", lobbyID, 0)
	require.NoError(t, err)

	_, st, ok := m.Abandon("bob")
	require.True(t, ok)
	require.True(t, st.Finished)
	require.Equal(t, "alice", st.Winner)
}
