package protocol

import "encoding/json"

// GameKind tags which game a GamePacket belongs to.
type GameKind string

const (
	GameTicTacToe GameKind = "tictactoe"
	GameDrawGuess GameKind = "drawguess"
	GameTelephone GameKind = "telephone"
	GameCardHand  GameKind = "cardhand"
	GameCardBet   GameKind = "cardbet"
	GameRPS       GameKind = "rps"
	GameArena     GameKind = "arena"
)

// GameMsg sub-tags the payload carried inside a GamePacket: one
// umbrella packet per game kind whose payload is a sub-tagged union
// over per-game message kinds.
type GameMsg string

// Generic lobby-lifecycle sub-messages, shared by every game kind.
const (
	MsgCreateLobby  GameMsg = "CreateLobby"
	MsgJoinLobby    GameMsg = "JoinLobby"
	MsgLeaveLobby   GameMsg = "LeaveLobby"
	MsgListLobbies  GameMsg = "ListLobbies"
	MsgLobbyList    GameMsg = "LobbyList"
	MsgStartGame    GameMsg = "StartGame"
	MsgLobbyState   GameMsg = "LobbyState"
	MsgGameOver     GameMsg = "GameOver"
	MsgGameError    GameMsg = "GameError"
	MsgInvite       GameMsg = "Invite"
	MsgInviteResult GameMsg = "InviteResult"
)

// GamePacket is the umbrella payload for protocol.TypeGame.
type GamePacket struct {
	Kind GameKind        `json:"kind"`
	Msg  GameMsg         `json:"msg"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewGamePacket marshals data into a GamePacket.
func NewGamePacket(kind GameKind, msg GameMsg, data any) (GamePacket, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return GamePacket{}, err
		}
		raw = b
	}
	return GamePacket{Kind: kind, Msg: msg, Data: raw}, nil
}

// Decode unmarshals g.Data into out.
func (g GamePacket) Decode(out any) error {
	if len(g.Data) == 0 {
		return nil
	}
	return json.Unmarshal(g.Data, out)
}

// CreateLobbyRequest asks the server to create a lobby of a given kind.
type CreateLobbyRequest struct {
	Name       string          `json:"name"`
	MaxPlayers int             `json:"maxPlayers,omitempty"`
	Params     json.RawMessage `json:"params,omitempty"`
}

// JoinLobbyRequest/LeaveLobbyRequest/StartGameRequest target a lobby by id.
type JoinLobbyRequest struct {
	LobbyID string `json:"lobbyId"`
}

type LeaveLobbyRequest struct {
	LobbyID string `json:"lobbyId"`
}

type StartGameRequest struct {
	LobbyID string `json:"lobbyId"`
}

// LobbyState is the generic lobby descriptor broadcast to every member.
type LobbyState struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Host         string            `json:"host"`
	Members      []string          `json:"members"`
	DisplayNames map[string]string `json:"displayNames,omitempty"`
	MaxPlayers   int               `json:"maxPlayers"`
	Started      bool              `json:"started"`
	Scores       map[string]int    `json:"scores,omitempty"`
	Extra        json.RawMessage   `json:"extra,omitempty"`
}

// LobbyInfo is a summary line used in LobbyList.
type LobbyInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Host       string `json:"host"`
	MemberCount int   `json:"memberCount"`
	MaxPlayers int    `json:"maxPlayers"`
	Started    bool   `json:"started"`
}

// LobbyList replies to ListLobbies.
type LobbyList struct {
	Lobbies []LobbyInfo `json:"lobbies"`
}

// GameOver is the generic end-of-game notification; Extra carries
// per-kind detail (winning line, final hands, etc).
type GameOver struct {
	LobbyID string          `json:"lobbyId"`
	Winner  string          `json:"winner,omitempty"`
	Scores  map[string]int  `json:"scores,omitempty"`
	Extra   json.RawMessage `json:"extra,omitempty"`
}

// GameError reports a rejected game action without tearing down the connection.
type GameError struct {
	LobbyID string `json:"lobbyId,omitempty"`
	Message string `json:"message"`
}

// Invite is the two-player head-to-head invite used by tic-tac-toe and
// rock-paper-scissors.
type Invite struct {
	Inviter string `json:"inviter,omitempty"`
	Invitee string `json:"invitee"`
}

// InviteResult replies to an Invite, accept or decline.
type InviteResult struct {
	Inviter  string `json:"inviter"`
	Invitee  string `json:"invitee"`
	Accepted bool   `json:"accepted"`
	LobbyID  string `json:"lobbyId,omitempty"`
}
