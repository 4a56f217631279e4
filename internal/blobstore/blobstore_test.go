package blobstore_test

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vegamsg/vegaserver/internal/blobstore"
)

func TestPutThenOpen_RoundTrips(t *testing.T) {
	s, err := blobstore.New(t.TempDir(), 1<<20)
	require.NoError(t, err)

	meta, err := s.Put(strings.NewReader("hello world"), "greeting.txt", "text/plain")
	require.NoError(t, err)
	require.EqualValues(t, 11, meta.Size)
	require.True(t, s.Exists(meta.ID))

	r, err := s.Open(meta.ID)
	require.NoError(t, err)
	defer r.Close()
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(b))
}

func TestPut_SameContentDeduplicates(t *testing.T) {
	s, err := blobstore.New(t.TempDir(), 1<<20)
	require.NoError(t, err)

	m1, err := s.Put(strings.NewReader("same bytes"), "a.txt", "text/plain")
	require.NoError(t, err)
	m2, err := s.Put(strings.NewReader("same bytes"), "b.txt", "text/plain")
	require.NoError(t, err)

	require.Equal(t, m1.ID, m2.ID)
}

func TestPut_RejectsOversizedContent(t *testing.T) {
	s, err := blobstore.New(t.TempDir(), 4)
	require.NoError(t, err)

	_, err = s.Put(strings.NewReader("way too big"), "big.bin", "")
	require.ErrorIs(t, err, blobstore.ErrTooLarge)
}

func TestDelete_RemovesBlobAndMetadata(t *testing.T) {
	s, err := blobstore.New(t.TempDir(), 1<<20)
	require.NoError(t, err)

	meta, err := s.Put(strings.NewReader("to be deleted"), "", "")
	require.NoError(t, err)

	require.NoError(t, s.Delete(meta.ID))
	require.False(t, s.Exists(meta.ID))

	_, err = s.Metadata(meta.ID)
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}
