package discovery_test

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vegamsg/vegaserver/internal/discovery"
)

func TestServe_RepliesToProbeWithServerRecord(t *testing.T) {
	r := discovery.New("test-server", 9443, func() int { return 3 }, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listenAddr, err := net.ResolveUDPAddr("udp", "127.0.0.1:0")
	require.NoError(t, err)
	probeSocket, err := net.ListenUDP("udp", listenAddr)
	require.NoError(t, err)
	serverPort := probeSocket.LocalAddr().(*net.UDPAddr).Port
	probeSocket.Close()

	done := make(chan error, 1)
	go func() { done <- r.Serve(ctx, serverPort) }()
	time.Sleep(50 * time.Millisecond)

	client, err := net.DialUDP("udp", nil, &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: serverPort})
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Write([]byte("MSN_DISCOVER"))
	require.NoError(t, err)

	buf := make([]byte, 256)
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := client.Read(buf)
	require.NoError(t, err)

	var reply discovery.Reply
	require.NoError(t, json.Unmarshal(buf[:n], &reply))
	require.Equal(t, "test-server", reply.ServerName)
	require.Equal(t, 9443, reply.Port)
	require.Equal(t, 3, reply.UserCount)

	cancel()
}

func TestServe_IgnoresUnrecognizedProbes(t *testing.T) {
	r := discovery.New("test-server", 9443, func() int { return 0 }, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listenAddr, err := net.ResolveUDPAddr("udp", "127.0.0.1:0")
	require.NoError(t, err)
	probeSocket, err := net.ListenUDP("udp", listenAddr)
	require.NoError(t, err)
	serverPort := probeSocket.LocalAddr().(*net.UDPAddr).Port
	probeSocket.Close()

	go func() { _ = r.Serve(ctx, serverPort) }()
	time.Sleep(50 * time.Millisecond)

	client, err := net.DialUDP("udp", nil, &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: serverPort})
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Write([]byte("not a probe"))
	require.NoError(t, err)

	buf := make([]byte, 256)
	client.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, err = client.Read(buf)
	require.Error(t, err, "an unrecognized probe must not draw a reply")
}
