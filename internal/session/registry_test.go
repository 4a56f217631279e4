package session_test

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vegamsg/vegaserver/internal/protocol"
	"github.com/vegamsg/vegaserver/internal/session"
)

func newTestSession(t *testing.T) *session.Session {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() { client.Close() })
	sess := session.New(server, "alice", protocol.NewBytePool(256), 8, time.Second)
	sess.Run()
	return sess
}

func TestRegister_DisplacesPriorSession(t *testing.T) {
	reg := session.NewRegistry()
	first := newTestSession(t)
	second := newTestSession(t)

	displaced := reg.Register("alice", first)
	require.Nil(t, displaced)

	displaced = reg.Register("alice", second)
	require.Same(t, first, displaced)

	got, ok := reg.Get("alice")
	require.True(t, ok)
	require.Same(t, second, got)
}

func TestUnregister_OnlyRemovesIfStillCurrent(t *testing.T) {
	reg := session.NewRegistry()
	first := newTestSession(t)
	second := newTestSession(t)

	reg.Register("alice", first)
	reg.Register("alice", second)

	// The displaced session's own disconnect handler unregistering
	// itself must not evict the session that replaced it.
	reg.Unregister("alice", first)

	got, ok := reg.Get("alice")
	require.True(t, ok)
	require.Same(t, second, got)
}

func TestGet_CaseInsensitiveUsername(t *testing.T) {
	reg := session.NewRegistry()
	sess := newTestSession(t)
	reg.Register("Alice", sess)

	got, ok := reg.Get("alice")
	require.True(t, ok)
	require.Same(t, sess, got)
}
