package arena

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vegamsg/vegaserver/internal/protocol"
)

func TestJoin_GrantsThreeByThreeTerritoryAndStartsLoop(t *testing.T) {
	e := New()
	snap := e.Join("alice")
	require.True(t, e.running)
	require.Len(t, snap.Owners, 9)
	e.mu.Lock()
	e.stopLoopLocked()
	e.mu.Unlock()
}

func TestInput_RejectsOppositeDirection(t *testing.T) {
	e := New()
	e.Join("alice")
	e.players["alice"].dir = protocol.DirRight
	e.players["alice"].nextDir = protocol.DirRight
	e.Input("alice", protocol.DirLeft)
	e.mu.Lock()
	e.drainInputsLocked()
	e.mu.Unlock()
	require.Equal(t, protocol.DirRight, e.players["alice"].nextDir, "a 180-degree reversal must be rejected, leaving the prior queued direction")
	e.mu.Lock()
	e.stopLoopLocked()
	e.mu.Unlock()
}

func TestRunTick_HeadOnCollisionKillsBothAndCommitsNeither(t *testing.T) {
	e := New()
	e.players["p1"] = &player{color: "red", pos: cell{10, 10}, dir: protocol.DirRight, nextDir: protocol.DirRight, alive: true}
	e.players["p2"] = &player{color: "blue", pos: cell{12, 10}, dir: protocol.DirLeft, nextDir: protocol.DirLeft, alive: true}
	e.owner[cell{10, 10}] = "p1"
	e.owner[cell{12, 10}] = "p2"

	var deaths []string
	e.OnDeath = func(user, cause string) { deaths = append(deaths, user+":"+cause) }
	var lastState protocol.ArenaState
	e.OnState = func(s protocol.ArenaState) { lastState = s }

	e.runTick()

	require.ElementsMatch(t, []string{"p1:collision", "p2:collision"}, deaths)
	_, p1exists := e.players["p1"]
	_, p2exists := e.players["p2"]
	require.False(t, p1exists)
	require.False(t, p2exists)
	require.Empty(t, lastState.Players)
	_, claimed := e.owner[cell{11, 10}]
	require.False(t, claimed, "the contested cell must be committed to neither player")
}

func TestRunTick_SteppingOnOwnTrailIsSuicide(t *testing.T) {
	e := New()
	e.players["alice"] = &player{
		color: "red", pos: cell{5, 5}, dir: protocol.DirRight, nextDir: protocol.DirLeft, alive: true,
		trail: []cell{{4, 5}},
	}
	var deaths []string
	e.OnDeath = func(user, cause string) { deaths = append(deaths, cause) }
	e.runTick()
	require.Equal(t, []string{"suicide"}, deaths)
}

func TestRunTick_SteppingOnAnotherPlayersTrailKillsVictimAndTransfersCells(t *testing.T) {
	e := New()
	e.players["alice"] = &player{color: "red", pos: cell{5, 5}, dir: protocol.DirRight, nextDir: protocol.DirRight, alive: true}
	e.players["bob"] = &player{color: "blue", pos: cell{8, 8}, dir: protocol.DirUp, nextDir: protocol.DirUp, alive: true, trail: []cell{{6, 5}}}
	e.owner[cell{6, 5}] = "bob"
	e.owner[cell{20, 20}] = "bob" // bob's separate territory elsewhere

	var deaths []string
	e.OnDeath = func(user, cause string) { deaths = append(deaths, user+":"+cause) }
	e.runTick()

	require.Contains(t, deaths, "bob:eliminated")
	require.Equal(t, "alice", e.owner[cell{6, 5}])
	require.Equal(t, "alice", e.owner[cell{20, 20}])
}

func TestRunTick_OffGridKillsPlayer(t *testing.T) {
	e := New()
	e.players["alice"] = &player{color: "red", pos: cell{0, 0}, dir: protocol.DirUp, nextDir: protocol.DirUp, alive: true}
	var deaths []string
	e.OnDeath = func(user, cause string) { deaths = append(deaths, cause) }
	e.runTick()
	require.Equal(t, []string{"wall"}, deaths)
}

func TestCloseLoopLocked_ClaimsOnlyEnclosedCells(t *testing.T) {
	e := New()
	p := &player{color: "red", pos: cell{5, 5}, alive: true}
	e.players["alice"] = p
	e.owner[cell{5, 5}] = "alice"

	// a trail forming a hollow square from (5,5) back to (5,5):
	// right along y=5 to x=8, down to y=8, left to x=5, up back to (5,5).
	var trail []cell
	for x := 6; x <= 8; x++ {
		trail = append(trail, cell{x, 5})
	}
	for y := 6; y <= 8; y++ {
		trail = append(trail, cell{8, y})
	}
	for x := 7; x >= 5; x-- {
		trail = append(trail, cell{x, 8})
	}
	for y := 7; y >= 6; y-- {
		trail = append(trail, cell{5, y})
	}
	p.trail = trail

	e.closeLoopLocked("alice")

	for x := 6; x <= 7; x++ {
		for y := 6; y <= 7; y++ {
			require.Equal(t, "alice", e.owner[cell{x, y}], "interior cell (%d,%d) must be claimed", x, y)
		}
	}
	require.NotEqual(t, "alice", e.owner[cell{20, 20}])
	require.Empty(t, p.trail)
}

func TestLeave_ClearsOwnedCellsAndStopsLoopWhenEmpty(t *testing.T) {
	e := New()
	e.Join("alice")
	require.True(t, e.running)

	e.Leave("alice")
	require.False(t, e.running)
	require.Empty(t, e.owner)
}
