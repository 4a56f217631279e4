package rps_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vegamsg/vegaserver/internal/games/rps"
	"github.com/vegamsg/vegaserver/internal/protocol"
)

func startDuel(t *testing.T) (*rps.Manager, string) {
	t.Helper()
	m := rps.New()
	require.NoError(t, m.Invite("alice", "bob"))
	lobbyID, inviter, err := m.RespondInvite("bob", true)
	require.NoError(t, err)
	require.Equal(t, "alice", inviter)
	return m, lobbyID
}

func TestMove_WaitsForBothPlayers(t *testing.T) {
	m, lobbyID := startDuel(t)
	outcome, err := m.Move("alice", lobbyID, protocol.HandRock)
	require.NoError(t, err)
	require.Nil(t, outcome)
}

func TestMove_ResolvesRockBeatsScissors(t *testing.T) {
	m, lobbyID := startDuel(t)
	_, err := m.Move("alice", lobbyID, protocol.HandRock)
	require.NoError(t, err)
	outcome, err := m.Move("bob", lobbyID, protocol.HandScissors)
	require.NoError(t, err)
	require.NotNil(t, outcome)
	require.Equal(t, "alice", outcome.Winner)
	require.Equal(t, 1, outcome.Scores["alice"])
	require.Equal(t, 0, outcome.Scores["bob"])
	require.False(t, outcome.GameOver)
}

func TestMove_TieAwardsNoPoint(t *testing.T) {
	m, lobbyID := startDuel(t)
	_, err := m.Move("alice", lobbyID, protocol.HandPaper)
	require.NoError(t, err)
	outcome, err := m.Move("bob", lobbyID, protocol.HandPaper)
	require.NoError(t, err)
	require.Empty(t, outcome.Winner)
	require.Equal(t, 0, outcome.Scores["alice"])
	require.Equal(t, 0, outcome.Scores["bob"])
}

func TestResultFor_IsRelativeToEachPlayer(t *testing.T) {
	m, lobbyID := startDuel(t)
	_, _ = m.Move("alice", lobbyID, protocol.HandRock)
	outcome, _ := m.Move("bob", lobbyID, protocol.HandScissors)

	aliceView := rps.ResultFor(lobbyID, "alice", outcome)
	require.Equal(t, protocol.HandRock, aliceView.MyMove)
	require.Equal(t, protocol.HandScissors, aliceView.OppMove)
	require.True(t, aliceView.Won)

	bobView := rps.ResultFor(lobbyID, "bob", outcome)
	require.Equal(t, protocol.HandScissors, bobView.MyMove)
	require.Equal(t, protocol.HandRock, bobView.OppMove)
	require.False(t, bobView.Won)
}

func TestMove_GameOverAtTargetScore(t *testing.T) {
	m, lobbyID := startDuel(t)
	var outcome *rps.RoundOutcome
	for i := 0; i < 3; i++ {
		_, err := m.Move("alice", lobbyID, protocol.HandRock)
		require.NoError(t, err)
		outcome, err = m.Move("bob", lobbyID, protocol.HandScissors)
		require.NoError(t, err)
	}
	require.True(t, outcome.GameOver)
	require.Equal(t, 3, outcome.Scores["alice"])
}

func TestAbandon_IsImmediateLoss(t *testing.T) {
	m, lobbyID := startDuel(t)
	id, ok := m.Abandon("bob")
	require.True(t, ok)
	require.Equal(t, lobbyID, id)
}
