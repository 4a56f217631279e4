package server

import (
	"github.com/vegamsg/vegaserver/internal/lobby"
	"github.com/vegamsg/vegaserver/internal/protocol"
)

// lobbyInfos renders a generic LobbyList from any game kind's lobby
// snapshot; every Lobby[T] shares these fields regardless of T.
func lobbyInfos[T any](ls []*lobby.Lobby[T]) []protocol.LobbyInfo {
	out := make([]protocol.LobbyInfo, 0, len(ls))
	for _, l := range ls {
		out = append(out, protocol.LobbyInfo{
			ID:          l.ID,
			Name:        l.Name,
			Host:        l.Host,
			MemberCount: len(l.Members),
			MaxPlayers:  l.MaxPlayers,
			Started:     l.Started,
		})
	}
	return out
}
