package protocol

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameReader_ReassemblesAcrossChunks(t *testing.T) {
	payload := `{"t":1,"id":"a","ts":1,"d":null}` + "\n"
	r := &slowReader{chunks: chunkString(payload, 3)}

	fr := NewFrameReader(r, 4)
	frame, err := fr.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSuffix(payload, "\n"), string(frame))
}

func TestFrameReader_IgnoresEmptySegments(t *testing.T) {
	r := strings.NewReader("\n\n{\"t\":1,\"id\":\"a\",\"ts\":1}\n")
	fr := NewFrameReader(r, 8)

	frame, err := fr.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, `{"t":1,"id":"a","ts":1}`, string(frame))
}

func TestFrameReader_EOFWithNoPendingFrame(t *testing.T) {
	r := strings.NewReader("")
	fr := NewFrameReader(r, 8)

	_, err := fr.ReadFrame()
	assert.ErrorIs(t, err, io.EOF)
}

func TestEnvelope_RoundTrip(t *testing.T) {
	e, err := NewEnvelope(TypeChatMessage, "abc123", 1234, ChatMessage{From: "alice", To: "bob", Content: "hi"})
	require.NoError(t, err)

	encoded, err := EncodeEnvelope(e)
	require.NoError(t, err)
	require.True(t, bytes.HasSuffix(encoded, []byte("\n")))

	decoded, err := DecodeEnvelope(bytes.TrimSuffix(encoded, []byte("\n")))
	require.NoError(t, err)
	assert.Equal(t, e.T, decoded.T)
	assert.Equal(t, e.ID, decoded.ID)
	assert.Equal(t, e.TS, decoded.TS)

	var msg ChatMessage
	require.NoError(t, decoded.Decode(&msg))
	assert.Equal(t, "alice", msg.From)
	assert.Equal(t, "bob", msg.To)
	assert.Equal(t, "hi", msg.Content)
}

func TestDecodeEnvelope_MalformedIsError(t *testing.T) {
	_, err := DecodeEnvelope([]byte("not json"))
	assert.Error(t, err)
}

// slowReader serves pre-split chunks to exercise reassembly.
type slowReader struct {
	chunks [][]byte
	i      int
}

func (s *slowReader) Read(p []byte) (int, error) {
	if s.i >= len(s.chunks) {
		return 0, io.EOF
	}
	n := copy(p, s.chunks[s.i])
	s.i++
	return n, nil
}

func chunkString(s string, n int) [][]byte {
	var out [][]byte
	b := []byte(s)
	for len(b) > 0 {
		if len(b) < n {
			n = len(b)
		}
		out = append(out, b[:n])
		b = b[n:]
	}
	return out
}
