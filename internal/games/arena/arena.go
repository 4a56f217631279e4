// Package arena is the territory-painting engine: a fixed 50x50 grid
// where each player trails behind their movement and closes loops to
// claim territory, Paper.io-style.
package arena

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/vegamsg/vegaserver/internal/protocol"
)

const (
	Width      = 50
	Height     = 50
	TickPeriod = 150 * time.Millisecond
	spawnHalf  = 1 // 3x3 starting territory
)

var palette = []string{"#e74c3c", "#3498db", "#2ecc71", "#f1c40f", "#9b59b6", "#1abc9c", "#e67e22", "#34495e"}

type cell struct{ x, y int }

func (c cell) inBounds() bool { return c.x >= 0 && c.x < Width && c.y >= 0 && c.y < Height }

func opposite(d protocol.ArenaDirection) protocol.ArenaDirection {
	switch d {
	case protocol.DirUp:
		return protocol.DirDown
	case protocol.DirDown:
		return protocol.DirUp
	case protocol.DirLeft:
		return protocol.DirRight
	case protocol.DirRight:
		return protocol.DirLeft
	}
	return ""
}

func step(c cell, d protocol.ArenaDirection) cell {
	switch d {
	case protocol.DirUp:
		return cell{c.x, c.y - 1}
	case protocol.DirDown:
		return cell{c.x, c.y + 1}
	case protocol.DirLeft:
		return cell{c.x - 1, c.y}
	case protocol.DirRight:
		return cell{c.x + 1, c.y}
	}
	return c
}

type player struct {
	color     string
	pos       cell
	dir       protocol.ArenaDirection
	nextDir   protocol.ArenaDirection
	trail     []cell
	alive     bool
}

type inputEvent struct {
	user string
	dir  protocol.ArenaDirection
}

// Engine owns one arena's full simulation state and tick-loop
// lifecycle. A single goroutine runs the loop whenever at least one
// player is present; it exits when the player set empties and
// restarts on the next join.
type Engine struct {
	mu sync.Mutex

	owner   map[cell]string // solid territory, by cell
	players map[string]*player

	inputs []inputEvent
	diffs  []protocol.ArenaDiff
	tick   int64

	running bool
	stopCh  chan struct{}

	// OnState fires (outside the lock) once per tick with the
	// broadcast-ready state. OnDeath fires once per kill this tick.
	OnState func(protocol.ArenaState)
	OnDeath func(user, cause string)
}

// New returns an empty engine.
func New() *Engine {
	return &Engine{
		owner:   make(map[cell]string),
		players: make(map[string]*player),
	}
}

func (e *Engine) usedColors() map[string]bool {
	used := make(map[string]bool, len(e.players))
	for _, p := range e.players {
		used[p.color] = true
	}
	return used
}

func (e *Engine) pickColor() string {
	used := e.usedColors()
	for _, c := range palette {
		if !used[c] {
			return c
		}
	}
	return palette[rand.IntN(len(palette))]
}

func (e *Engine) spawnCell() cell {
	for attempt := 0; attempt < 200; attempt++ {
		c := cell{x: spawnHalf + rand.IntN(Width-2*spawnHalf), y: spawnHalf + rand.IntN(Height-2*spawnHalf)}
		free := true
		for dx := -spawnHalf; dx <= spawnHalf; dx++ {
			for dy := -spawnHalf; dy <= spawnHalf; dy++ {
				if _, taken := e.owner[cell{c.x + dx, c.y + dy}]; taken {
					free = false
				}
			}
		}
		if free {
			return c
		}
	}
	return cell{Width / 2, Height / 2}
}

// Join seats user, granting a 3x3 starting territory, and returns a
// full-state snapshot for the new joiner. Starts the tick loop if this
// is the first player.
func (e *Engine) Join(user string) protocol.ArenaSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.players[user]; !exists {
		center := e.spawnCell()
		color := e.pickColor()
		for dx := -spawnHalf; dx <= spawnHalf; dx++ {
			for dy := -spawnHalf; dy <= spawnHalf; dy++ {
				c := cell{center.x + dx, center.y + dy}
				if c.inBounds() {
					e.owner[c] = user
				}
			}
		}
		e.players[user] = &player{color: color, pos: center, dir: protocol.DirRight, nextDir: protocol.DirRight, alive: true}
	}

	snapshot := e.snapshotLocked()
	if !e.running {
		e.startLoopLocked()
	}
	return snapshot
}

func (e *Engine) snapshotLocked() protocol.ArenaSnapshot {
	owners := make([]protocol.ArenaCell, 0, len(e.owner))
	names := make([]string, 0, len(e.owner))
	for c, owner := range e.owner {
		owners = append(owners, protocol.ArenaCell{X: c.x, Y: c.y})
		names = append(names, owner)
	}
	return protocol.ArenaSnapshot{
		Width:      Width,
		Height:     Height,
		Owners:     owners,
		OwnerNames: names,
		Players:    e.playerViewsLocked(),
	}
}

func (e *Engine) playerViewsLocked() []protocol.ArenaPlayerView {
	views := make([]protocol.ArenaPlayerView, 0, len(e.players))
	for user, p := range e.players {
		if !p.alive {
			continue
		}
		views = append(views, protocol.ArenaPlayerView{
			Username:  user,
			Color:     p.color,
			Position:  protocol.ArenaCell{X: p.pos.x, Y: p.pos.y},
			Direction: p.dir,
			Trail:     trailView(p.trail),
			Score:     e.scoreLocked(user),
		})
	}
	return views
}

func trailView(trail []cell) []protocol.ArenaCell {
	out := make([]protocol.ArenaCell, len(trail))
	for i, c := range trail {
		out[i] = protocol.ArenaCell{X: c.x, Y: c.y}
	}
	return out
}

func (e *Engine) scoreLocked(user string) int {
	n := 0
	for _, owner := range e.owner {
		if owner == user {
			n++
		}
	}
	return n
}

// Input enqueues user's next-tick direction, rejecting 180-degree
// reversals against their current facing only at commit time (the
// queue may hold a stale direction if the player turned twice in one
// tick window; commit-time is where the rule is enforced).
func (e *Engine) Input(user string, dir protocol.ArenaDirection) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.players[user]; !ok {
		return
	}
	e.inputs = append(e.inputs, inputEvent{user: user, dir: dir})
}

// Leave removes user from the arena, clearing their owned cells and
// emitting diffs for the removal. Stops the tick loop once empty.
func (e *Engine) Leave(user string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.players[user]; !ok {
		return
	}
	e.clearPlayerCellsLocked(user)
	delete(e.players, user)
	if len(e.players) == 0 {
		e.stopLoopLocked()
	}
}

func (e *Engine) clearPlayerCellsLocked(user string) {
	for c, owner := range e.owner {
		if owner == user {
			delete(e.owner, c)
			e.diffs = append(e.diffs, protocol.ArenaDiff{Cell: protocol.ArenaCell{X: c.x, Y: c.y}})
		}
	}
}

func (e *Engine) startLoopLocked() {
	e.running = true
	e.stopCh = make(chan struct{})
	stopCh := e.stopCh
	go func() {
		ticker := time.NewTicker(TickPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				e.runTick()
			case <-stopCh:
				return
			}
		}
	}()
}

func (e *Engine) stopLoopLocked() {
	if e.running {
		close(e.stopCh)
		e.running = false
	}
}

// runTick performs one full tick under the engine lock, per the fixed
// per-tick sequence: drain inputs, compute moves, resolve collisions,
// commit, close loops, emit diffs, broadcast.
func (e *Engine) runTick() {
	e.mu.Lock()

	e.drainInputsLocked()
	e.tick++

	next := make(map[string]cell, len(e.players))
	for user, p := range e.players {
		if !p.alive {
			continue
		}
		p.dir = p.nextDir
		next[user] = step(p.pos, p.dir)
	}

	dead := make(map[string]string) // user -> cause

	// off-grid
	for user, n := range next {
		if !n.inBounds() {
			dead[user] = "wall"
		}
	}

	// head-on: two or more players proposing the same next-cell
	counts := make(map[cell]int)
	for user, n := range next {
		if dead[user] != "" {
			continue
		}
		counts[n]++
	}
	for user, n := range next {
		if dead[user] != "" {
			continue
		}
		if counts[n] > 1 {
			dead[user] = "collision"
		}
	}

	order := make([]string, 0, len(next))
	for user := range next {
		order = append(order, user)
	}

	trailOwner := make(map[cell]string)
	for user, p := range e.players {
		for _, c := range p.trail {
			trailOwner[c] = user
		}
	}

	for _, user := range order {
		if dead[user] != "" {
			continue
		}
		p := e.players[user]
		n := next[user]

		if containsCell(p.trail, n) {
			dead[user] = "suicide"
			continue
		}
		if victim, ok := trailOwner[n]; ok && victim != user && dead[victim] == "" {
			if _, exists := e.players[victim]; exists {
				e.inheritLocked(user, victim)
				dead[victim] = "eliminated"
			}
		}

		p.pos = n
		if e.owner[n] == user {
			if len(p.trail) > 0 {
				e.closeLoopLocked(user)
			}
		} else {
			p.trail = append(p.trail, n)
		}
	}

	for user := range dead {
		e.killLocked(user)
	}

	state := protocol.ArenaState{
		Players: e.playerViewsLocked(),
		Diffs:   append([]protocol.ArenaDiff(nil), e.diffs...),
		Tick:    e.tick,
	}
	e.diffs = nil
	shouldStop := len(e.players) == 0

	e.mu.Unlock()

	for user, cause := range dead {
		if e.OnDeath != nil {
			e.OnDeath(user, cause)
		}
	}
	if e.OnState != nil {
		e.OnState(state)
	}
	if shouldStop {
		e.mu.Lock()
		e.stopLoopLocked()
		e.mu.Unlock()
	}
}

func containsCell(trail []cell, c cell) bool {
	for _, t := range trail {
		if t == c {
			return true
		}
	}
	return false
}

func (e *Engine) drainInputsLocked() {
	for _, in := range e.inputs {
		p, ok := e.players[in.user]
		if !ok || !p.alive {
			continue
		}
		if opposite(in.dir) == p.dir {
			continue // reject 180-degree turns
		}
		p.nextDir = in.dir
	}
	e.inputs = nil
}

// inheritLocked transfers victim's territory and trail cells to the
// killer, as the mover-inherits-on-trail-kill rule.
func (e *Engine) inheritLocked(killer, victim string) {
	for c, owner := range e.owner {
		if owner == victim {
			e.owner[c] = killer
			e.diffs = append(e.diffs, protocol.ArenaDiff{Cell: protocol.ArenaCell{X: c.x, Y: c.y}, Owner: killer})
		}
	}
	if vp, ok := e.players[victim]; ok {
		for _, c := range vp.trail {
			e.owner[c] = killer
			e.diffs = append(e.diffs, protocol.ArenaDiff{Cell: protocol.ArenaCell{X: c.x, Y: c.y}, Owner: killer})
		}
	}
}

// closeLoopLocked converts every cell enclosed by (own-territory ∪
// own-trail) to own-territory: a cell is claimed iff it is non-solid
// and unreachable from any border cell through non-solid cells.
func (e *Engine) closeLoopLocked(user string) {
	p := e.players[user]
	solid := make(map[cell]bool, len(p.trail)+len(e.owner))
	for c, owner := range e.owner {
		if owner == user {
			solid[c] = true
		}
	}
	for _, c := range p.trail {
		solid[c] = true
	}

	reachable := make(map[cell]bool)
	var queue []cell
	pushBorder := func(c cell) {
		if c.inBounds() && !solid[c] && !reachable[c] {
			reachable[c] = true
			queue = append(queue, c)
		}
	}
	for x := 0; x < Width; x++ {
		pushBorder(cell{x, 0})
		pushBorder(cell{x, Height - 1})
	}
	for y := 0; y < Height; y++ {
		pushBorder(cell{0, y})
		pushBorder(cell{Width - 1, y})
	}

	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		for _, n := range []cell{{c.x + 1, c.y}, {c.x - 1, c.y}, {c.x, c.y + 1}, {c.x, c.y - 1}} {
			if n.inBounds() && !solid[n] && !reachable[n] {
				reachable[n] = true
				queue = append(queue, n)
			}
		}
	}

	for x := 0; x < Width; x++ {
		for y := 0; y < Height; y++ {
			c := cell{x, y}
			if solid[c] || reachable[c] {
				continue
			}
			e.owner[c] = user
			e.diffs = append(e.diffs, protocol.ArenaDiff{Cell: protocol.ArenaCell{X: c.x, Y: c.y}, Owner: user})
		}
	}

	for _, c := range p.trail {
		e.owner[c] = user
		e.diffs = append(e.diffs, protocol.ArenaDiff{Cell: protocol.ArenaCell{X: c.x, Y: c.y}, Owner: user})
	}
	p.trail = nil
}

func (e *Engine) killLocked(user string) {
	p, ok := e.players[user]
	if !ok || !p.alive {
		return
	}
	p.alive = false
	for _, c := range p.trail {
		if e.owner[c] == user {
			delete(e.owner, c)
			e.diffs = append(e.diffs, protocol.ArenaDiff{Cell: protocol.ArenaCell{X: c.x, Y: c.y}})
		}
	}
	p.trail = nil
	delete(e.players, user)
}
