package presence_test

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vegamsg/vegaserver/internal/identity"
	"github.com/vegamsg/vegaserver/internal/presence"
	"github.com/vegamsg/vegaserver/internal/protocol"
	"github.com/vegamsg/vegaserver/internal/session"
)

func newTestSession(t *testing.T, username string) *session.Session {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() { client.Close() })
	sess := session.New(server, username, protocol.NewBytePool(256), 8, time.Second)
	sess.Run()
	return sess
}

func TestEffective_AppearOfflineCollapsesToOffline(t *testing.T) {
	sess := newTestSession(t, "alice")
	sess.SetPresence(protocol.PresenceAppearOffline)

	pub := presence.Effective(identity.User{Username: "alice"}, sess)
	require.Equal(t, protocol.PresenceOffline, pub.Presence)
	require.False(t, pub.IsInGame)
}

func TestEffective_NoSessionIsOffline(t *testing.T) {
	pub := presence.Effective(identity.User{Username: "alice"}, nil)
	require.Equal(t, protocol.PresenceOffline, pub.Presence)
}

func TestEffective_InGameOverlaysLobbyID(t *testing.T) {
	sess := newTestSession(t, "alice")
	sess.SetPresence(protocol.PresenceOnline)
	sess.SetInGameLobby("lobby-123")

	pub := presence.Effective(identity.User{Username: "alice"}, sess)
	require.True(t, pub.IsInGame)
	require.Equal(t, "lobby-123", pub.GameID)
}

func TestEffective_InGameOverlaysPersonalMessage(t *testing.T) {
	sess := newTestSession(t, "alice")
	sess.SetPresence(protocol.PresenceOnline)
	sess.SetPersonalMessage("out to lunch")
	sess.SetInGameLobby("lobby-123")
	sess.SetGameActivity("Tic-Tac-Toe", "bob")

	pub := presence.Effective(identity.User{Username: "alice"}, sess)
	require.Equal(t, "Playing Tic-Tac-Toe with bob", pub.PersonalMessage)
}

func TestEffective_InGameWithoutOpponentOmitsWith(t *testing.T) {
	sess := newTestSession(t, "alice")
	sess.SetInGameLobby("arena")
	sess.SetGameActivity("Arena", "")

	pub := presence.Effective(identity.User{Username: "alice"}, sess)
	require.Equal(t, "Playing Arena", pub.PersonalMessage)
}
