package telephone_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vegamsg/vegaserver/internal/games/telephone"
	"github.com/vegamsg/vegaserver/internal/protocol"
)

func newLobby(t *testing.T, n int) (*telephone.Manager, string, []string) {
	t.Helper()
	m := telephone.New()
	users := []string{"alice", "bob", "carol", "dave"}[:n]
	l, err := m.CreateLobby(users[0], "room")
	require.NoError(t, err)
	for _, u := range users[1:] {
		_, err := m.JoinLobby(u, l.ID)
		require.NoError(t, err)
	}
	_, err = m.StartGame(users[0])
	require.NoError(t, err)
	return m, l.ID, users
}

func TestWritePhase_AllSubmittedAdvancesToDraw1(t *testing.T) {
	m, lobbyID, users := newLobby(t, 3)
	for _, u := range users {
		require.NoError(t, m.SubmitPhrase(u, lobbyID, u+"'s phrase"))
	}
	l, ok := m.Lobbies().Get(lobbyID)
	require.True(t, ok)
	require.Equal(t, protocol.PhaseDraw1, l.State.Phase)
	require.Len(t, l.State.Chains, 3)

	for i, u := range users {
		require.Equal(t, (i+1)%3, l.State.Assignment[u])
	}
}

func TestSubmitPhrase_IsIdempotentPerPlayer(t *testing.T) {
	m, lobbyID, users := newLobby(t, 3)
	require.NoError(t, m.SubmitPhrase(users[0], lobbyID, "first"))
	require.NoError(t, m.SubmitPhrase(users[0], lobbyID, "second"))

	l, _ := m.Lobbies().Get(lobbyID)
	require.Len(t, l.State.Chains, 1)
	require.Equal(t, "first", l.State.Chains[0].Phrase)
}

func TestRotation_NeverAssignsOwnChainAndPreservesBijection(t *testing.T) {
	m, lobbyID, users := newLobby(t, 4)
	for _, u := range users {
		require.NoError(t, m.SubmitPhrase(u, lobbyID, u+"'s phrase"))
	}
	l, _ := m.Lobbies().Get(lobbyID)
	require.Equal(t, protocol.PhaseDraw1, l.State.Phase)

	for _, u := range users {
		require.NoError(t, m.SubmitDrawing(u, lobbyID, "drawing-by-"+u))
	}
	l, _ = m.Lobbies().Get(lobbyID)
	require.Equal(t, protocol.PhaseDescribe, l.State.Phase)

	seen := make(map[int]bool)
	for i, u := range users {
		idx := l.State.Assignment[u]
		require.NotEqual(t, i, idx, "player must never be assigned their own chain")
		seen[idx] = true
	}
	require.Len(t, seen, 4, "rotation must preserve the bijection")
}

func TestWritePhase_PartialSubmissionStaysInPhaseUntilTimeoutOrComplete(t *testing.T) {
	m, lobbyID, users := newLobby(t, 3)
	require.NoError(t, m.SubmitPhrase(users[0], lobbyID, "real phrase"))
	require.NoError(t, m.SubmitPhrase(users[1], lobbyID, "another phrase"))

	l, _ := m.Lobbies().Get(lobbyID)
	require.Equal(t, protocol.PhaseWrite, l.State.Phase, "phase only advances once every player has submitted")
	require.Len(t, l.State.Chains, 2)
}

func TestReveal_AdvancesThroughEveryChainThenGameOver(t *testing.T) {
	m, lobbyID, users := newLobby(t, 3)
	for _, u := range users {
		require.NoError(t, m.SubmitPhrase(u, lobbyID, u+"'s phrase"))
	}
	for _, u := range users {
		require.NoError(t, m.SubmitDrawing(u, lobbyID, "d-"+u))
	}
	for _, u := range users {
		require.NoError(t, m.SubmitDescription(u, lobbyID, "desc-"+u))
	}
	for _, u := range users {
		require.NoError(t, m.SubmitDrawing(u, lobbyID, "d2-"+u))
	}

	l, _ := m.Lobbies().Get(lobbyID)
	require.Equal(t, protocol.PhaseReveal, l.State.Phase)
	require.Len(t, l.State.Chains, 3)

	host := l.Host
	for i := 0; i < 2; i++ {
		over, err := m.AdvanceReveal(host, lobbyID)
		require.NoError(t, err)
		require.False(t, over)
	}
	over, err := m.AdvanceReveal(host, lobbyID)
	require.NoError(t, err)
	require.True(t, over)
}

func TestCurrentChainResult_PrependsOwnerPhraseAsSyntheticFirstStep(t *testing.T) {
	m, lobbyID, users := newLobby(t, 3)
	for _, u := range users {
		require.NoError(t, m.SubmitPhrase(u, lobbyID, u+"'s phrase"))
	}
	l, _ := m.Lobbies().Get(lobbyID)

	result := telephone.CurrentChainResult(lobbyID, l.State)
	require.Equal(t, "phrase", result.Steps[0].Type)
	require.Equal(t, l.State.Chains[0].Phrase, result.Steps[0].Value)
}
