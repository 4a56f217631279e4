package protocol

const (
	MsgMove       GameMsg = "Move"
	MsgBoardState GameMsg = "BoardState"
	MsgSpectate   GameMsg = "Spectate"
)

// Move places the caller's mark at Cell (0-8).
type Move struct {
	LobbyID string `json:"lobbyId"`
	Cell    int    `json:"cell"`
}

// BoardState is the full tic-tac-toe board, sent after every move and
// to newly-attached spectators.
type BoardState struct {
	LobbyID   string `json:"lobbyId"`
	Board     [9]string `json:"board"` // "" empty, else username's mark owner
	ToMove    string    `json:"toMove,omitempty"`
	Finished  bool      `json:"finished"`
	WinLine   []int     `json:"winLine,omitempty"`
	Winner    string    `json:"winner,omitempty"`
	Draw      bool      `json:"draw,omitempty"`
}

// Spectate attaches the caller as a read-only observer of an active game.
type Spectate struct {
	LobbyID string `json:"lobbyId"`
}
