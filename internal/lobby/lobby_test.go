package lobby_test

import (
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vegamsg/vegaserver/internal/lobby"
)

type gameState struct {
	Scores map[string]int
}

func newManager(t *testing.T) *lobby.Manager[*gameState] {
	t.Helper()
	var n int64
	return lobby.New[*gameState](func() (string, error) {
		n++
		return "lobby-" + strconv.FormatInt(n, 10), nil
	})
}

func TestCreateLobby_RejectsHostAlreadyInLobby(t *testing.T) {
	m := newManager(t)
	_, err := m.CreateLobby("alice", "Game 1", 4, 2, &gameState{})
	require.NoError(t, err)

	_, err = m.CreateLobby("alice", "Game 2", 4, 2, &gameState{})
	require.ErrorIs(t, err, lobby.ErrAlreadyInLobby)
}

func TestJoinLobby_RejectsFullStartedOrDoubleJoin(t *testing.T) {
	m := newManager(t)
	l, err := m.CreateLobby("alice", "Game", 2, 2, &gameState{})
	require.NoError(t, err)

	_, err = m.JoinLobby("bob", l.ID)
	require.NoError(t, err)

	_, err = m.JoinLobby("carol", l.ID)
	require.ErrorIs(t, err, lobby.ErrFull)

	_, err = m.JoinLobby("alice", l.ID)
	require.ErrorIs(t, err, lobby.ErrAlreadyInLobby)

	_, err = m.StartGame("alice")
	require.NoError(t, err)

	_, err = m.JoinLobby("dave", l.ID)
	require.ErrorIs(t, err, lobby.ErrStarted)
}

func TestStartGame_RequiresHostAndMinimum(t *testing.T) {
	m := newManager(t)
	l, err := m.CreateLobby("alice", "Game", 4, 2, &gameState{})
	require.NoError(t, err)

	_, err = m.StartGame("alice")
	require.ErrorIs(t, err, lobby.ErrNotEnoughPlayers)

	_, err = m.JoinLobby("bob", l.ID)
	require.NoError(t, err)

	_, err = m.StartGame("bob")
	require.ErrorIs(t, err, lobby.ErrNotHost)

	_, err = m.StartGame("alice")
	require.NoError(t, err)
}

func TestLeaveLobby_ReassignsHostThenDestroysWhenEmpty(t *testing.T) {
	m := newManager(t)
	l, err := m.CreateLobby("alice", "Game", 4, 1, &gameState{})
	require.NoError(t, err)
	_, err = m.JoinLobby("bob", l.ID)
	require.NoError(t, err)

	got, destroyed, wasHost, err := m.LeaveLobby("alice")
	require.NoError(t, err)
	require.False(t, destroyed)
	require.True(t, wasHost)
	require.Equal(t, "bob", got.Host)

	_, destroyed, _, err = m.LeaveLobby("bob")
	require.NoError(t, err)
	require.True(t, destroyed)

	_, ok := m.Get(l.ID)
	require.False(t, ok)
}

func TestSetTimer_ReplacingCancelsPrevious(t *testing.T) {
	m := newManager(t)
	l, err := m.CreateLobby("alice", "Game", 4, 1, &gameState{})
	require.NoError(t, err)

	var fired int32
	m.SetTimer(l.ID, 20*time.Millisecond, func() { atomic.AddInt32(&fired, 1) })
	m.SetTimer(l.ID, 20*time.Millisecond, func() { atomic.AddInt32(&fired, 10) })

	time.Sleep(60 * time.Millisecond)
	require.EqualValues(t, 10, atomic.LoadInt32(&fired))
}

func TestCancelTimer_PreventsFire(t *testing.T) {
	m := newManager(t)
	l, err := m.CreateLobby("alice", "Game", 4, 1, &gameState{})
	require.NoError(t, err)

	var fired int32
	m.SetTimer(l.ID, 20*time.Millisecond, func() { atomic.AddInt32(&fired, 1) })
	m.CancelTimer(l.ID)

	time.Sleep(40 * time.Millisecond)
	require.EqualValues(t, 0, atomic.LoadInt32(&fired))
}
