package protocol

const (
	MsgPhaseState         GameMsg = "PhaseState"
	MsgSubmitPhrase       GameMsg = "SubmitPhrase"
	MsgSubmitDrawing      GameMsg = "SubmitDrawing"
	MsgSubmitDescription  GameMsg = "SubmitDescription"
	MsgChainResult        GameMsg = "ChainResult"
	MsgAdvanceReveal      GameMsg = "AdvanceReveal"
)

// TelephonePhase names the four fixed play phases and the closing reveal.
type TelephonePhase string

const (
	PhaseWrite    TelephonePhase = "write"
	PhaseDraw1    TelephonePhase = "draw1"
	PhaseDescribe TelephonePhase = "describe"
	PhaseDraw2    TelephonePhase = "draw2"
	PhaseReveal   TelephonePhase = "reveal"
)

// PhaseState announces the current phase and the caller's assignment;
// only the caller's own view of their assigned chain is sent.
type PhaseState struct {
	LobbyID      string         `json:"lobbyId"`
	Phase        TelephonePhase `json:"phase"`
	TimeLeft     int            `json:"timeLeft"`
	PromptText   string         `json:"promptText,omitempty"`   // phrase to draw, or description to draw
	PromptDrawing string        `json:"promptDrawing,omitempty"` // previous drawing to describe
	Submitted    []string       `json:"submitted,omitempty"`
}

// SubmitPhrase submits the write-phase phrase.
type SubmitPhrase struct {
	LobbyID string `json:"lobbyId"`
	Phrase  string `json:"phrase"`
}

// SubmitDrawing submits a draw-phase drawing blob (opaque base64).
type SubmitDrawing struct {
	LobbyID string `json:"lobbyId"`
	Drawing string `json:"drawing"`
}

// SubmitDescription submits the describe-phase text.
type SubmitDescription struct {
	LobbyID     string `json:"lobbyId"`
	Description string `json:"description"`
}

// ChainStep is one step in a revealed chain.
type ChainStep struct {
	Type   string `json:"type"` // "phrase" | "drawing" | "description"
	Author string `json:"author"`
	Value  string `json:"value"`
}

// ChainResult reveals one full chain, host-paced.
type ChainResult struct {
	LobbyID   string      `json:"lobbyId"`
	Owner     string      `json:"owner"`
	Steps     []ChainStep `json:"steps"`
	ChainIdx  int         `json:"chainIndex"`
	ChainTotal int        `json:"chainTotal"`
}

// AdvanceReveal is sent by the host to move to the next chain.
type AdvanceReveal struct {
	LobbyID string `json:"lobbyId"`
}
