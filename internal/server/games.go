package server

import (
	"github.com/vegamsg/vegaserver/internal/protocol"
)

// handleGamePacket decodes the umbrella GamePacket and routes it to
// the per-kind dispatcher; each game kind owns its own sub-message set.
func (s *Server) handleGamePacket(cc *connCtx, env protocol.Envelope) {
	var gp protocol.GamePacket
	if err := env.Decode(&gp); err != nil {
		return
	}

	switch gp.Kind {
	case protocol.GameTicTacToe:
		s.dispatchTicTacToe(cc, gp.Msg, gp.Data)
	case protocol.GameRPS:
		s.dispatchRPS(cc, gp.Msg, gp.Data)
	case protocol.GameDrawGuess:
		s.dispatchDrawGuess(cc, gp.Msg, gp.Data)
	case protocol.GameTelephone:
		s.dispatchTelephone(cc, gp.Msg, gp.Data)
	case protocol.GameCardHand:
		s.dispatchCardHand(cc, gp.Msg, gp.Data)
	case protocol.GameCardBet:
		s.dispatchCardBet(cc, gp.Msg, gp.Data)
	case protocol.GameArena:
		s.dispatchArena(cc, gp.Msg, gp.Data)
	}
}

// wireGameCallbacks connects every game manager's injected broadcast
// callback to the server-side fan-out that turns its internal state
// transition into outbound packets.
func (s *Server) wireGameCallbacks() {
	s.drawguess.OnRoundStart = s.broadcastDrawGuessRound
	s.drawguess.OnHint = s.broadcastDrawGuessHint
	s.drawguess.OnRoundEnd = s.broadcastDrawGuessReveal
	s.drawguess.OnGameOver = s.broadcastDrawGuessGameOver
	s.drawguess.OnTick = s.broadcastDrawGuessRound

	s.telephone.OnPhaseAdvance = s.broadcastTelephonePhase
	s.telephone.OnGameOver = s.broadcastTelephoneGameOver

	s.cardhand.OnHandUpdate = s.broadcastCardHandUpdate
	s.cardhand.OnGameOver = s.broadcastCardHandGameOver

	s.cardbet.OnBettingPhase = s.broadcastCardBetBettingPhase
	s.cardbet.OnRoundResult = s.broadcastCardBetRoundResult

	s.arena.OnState = s.broadcastArenaState
	s.arena.OnDeath = s.handleArenaDeath
}
