package chainhash

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashStringRoundTrip(t *testing.T) {
	h := HashH([]byte("block header bytes"))

	parsed, err := NewHashFromStr(h.String())
	require.NoError(t, err)
	require.Equal(t, h, *parsed)
}

func TestZeroHashIsZero(t *testing.T) {
	require.True(t, ZeroHash.IsZero())

	h := HashH([]byte("anything"))
	require.False(t, h.IsZero())
}

func TestDoubleHashRawMatchesHashH(t *testing.T) {
	payload := []byte("some serialized header")

	want := HashH(payload)
	got := DoubleHashRaw(func(w io.Writer) error {
		_, err := w.Write(payload)
		return err
	})

	require.Equal(t, want, got)
}
