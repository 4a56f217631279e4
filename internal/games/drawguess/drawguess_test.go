package drawguess_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vegamsg/vegaserver/internal/games/drawguess"
)

func TestGuesserPoints_ClampsToFloor(t *testing.T) {
	require.Equal(t, 10, drawguess.GuesserPoints(0, 60))
	require.Equal(t, 10, drawguess.GuesserPoints(1, 60))
	require.Equal(t, 100, drawguess.GuesserPoints(60, 60))
	require.Equal(t, 50, drawguess.GuesserPoints(30, 60))
}

func TestHintCount_RoundsUpToThirds(t *testing.T) {
	require.Equal(t, 1, drawguess.HintCount(1))
	require.Equal(t, 1, drawguess.HintCount(3))
	require.Equal(t, 2, drawguess.HintCount(4))
	require.Equal(t, 2, drawguess.HintCount(6))
	require.Equal(t, 3, drawguess.HintCount(7))
}

func TestInitialMask_HidesNonSpaceRunes(t *testing.T) {
	mask := drawguess.InitialMask("sea turtle")
	require.Equal(t, "___ ______", string(mask))
}

func newLobby(t *testing.T) (*drawguess.Manager, string) {
	t.Helper()
	m := drawguess.New()
	l, err := m.CreateLobby("alice", "room", drawguess.LanguageEnglish, 60, 2)
	require.NoError(t, err)
	_, err = m.Lobbies().JoinLobby("bob", l.ID)
	require.NoError(t, err)
	_, err = m.StartGame("alice")
	require.NoError(t, err)
	return m, l.ID
}

func TestStartGame_PicksWordAndMasksIt(t *testing.T) {
	m, lobbyID := newLobby(t)
	l, ok := m.Lobbies().Get(lobbyID)
	require.True(t, ok)
	require.NotEmpty(t, l.State.Word)
	require.Equal(t, len(l.State.Word), len(l.State.Mask))
	for _, r := range l.State.Mask {
		require.True(t, r == '_' || r == ' ')
	}
}

func TestGuess_DrawerCannotScore(t *testing.T) {
	m, lobbyID := newLobby(t)
	l, _ := m.Lobbies().Get(lobbyID)
	drawer := l.Members[l.State.DrawerIndex]

	correct, ended, err := m.Guess(drawer, lobbyID, l.State.Word)
	require.NoError(t, err)
	require.False(t, correct)
	require.False(t, ended)
}

func TestGuess_CorrectGuessScoresBothAndEndsRoundWhenAllGuessed(t *testing.T) {
	m, lobbyID := newLobby(t)
	l, _ := m.Lobbies().Get(lobbyID)
	drawer := l.Members[l.State.DrawerIndex]
	var guesser string
	for _, mem := range l.Members {
		if mem != drawer {
			guesser = mem
		}
	}
	word := l.State.Word

	correct, ended, err := m.Guess(guesser, lobbyID, word)
	require.NoError(t, err)
	require.True(t, correct)
	require.True(t, ended) // only one non-drawer in a 2-player lobby

	l2, _ := m.Lobbies().Get(lobbyID)
	require.Greater(t, l2.State.Scores[guesser], 0)
	require.Greater(t, l2.State.Scores[drawer], 0)
}

func TestGuess_WrongTextDoesNothing(t *testing.T) {
	m, lobbyID := newLobby(t)
	l, _ := m.Lobbies().Get(lobbyID)
	drawer := l.Members[l.State.DrawerIndex]
	var guesser string
	for _, mem := range l.Members {
		if mem != drawer {
			guesser = mem
		}
	}

	correct, ended, err := m.Guess(guesser, lobbyID, "definitely-not-the-word")
	require.NoError(t, err)
	require.False(t, correct)
	require.False(t, ended)
}

func TestGuess_AlreadyGuessedIsIgnored(t *testing.T) {
	// Three players, so one correct guess does not end the round and the
	// repeat guess meets the already-guessed rule.
	m := drawguess.New()
	created, createErr := m.CreateLobby("alice", "room", drawguess.LanguageEnglish, 60, 2)
	require.NoError(t, createErr)
	lobbyID := created.ID
	for _, user := range []string{"bob", "carol"} {
		_, joinErr := m.Lobbies().JoinLobby(user, lobbyID)
		require.NoError(t, joinErr)
	}
	_, startErr := m.StartGame("alice")
	require.NoError(t, startErr)
	l, _ := m.Lobbies().Get(lobbyID)
	drawer := l.Members[l.State.DrawerIndex]
	var guesser string
	for _, mem := range l.Members {
		if mem != drawer {
			guesser = mem
		}
	}
	word := l.State.Word

	_, _, err := m.Guess(guesser, lobbyID, word)
	require.NoError(t, err)
	l2, _ := m.Lobbies().Get(lobbyID)
	scoreAfterFirst := l2.State.Scores[guesser]

	correct, _, err := m.Guess(guesser, lobbyID, word)
	require.NoError(t, err)
	require.False(t, correct)
	l3, _ := m.Lobbies().Get(lobbyID)
	require.Equal(t, scoreAfterFirst, l3.State.Scores[guesser])
}

func TestRevealHints_UncoversOnlyHiddenPositions(t *testing.T) {
	word := "telescope"
	mask := drawguess.InitialMask(word)
	drawguess.RevealHints(mask, word)

	revealed := 0
	for i, r := range mask {
		if r != '_' {
			revealed++
			require.Equal(t, rune(word[i]), r)
		}
	}
	require.Equal(t, drawguess.HintCount(len(word)), revealed)
}
