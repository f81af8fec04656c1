// Copyright (c) 2025 The blkreader developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounters(t *testing.T) {
	r := New()

	r.BlockEmitted()
	r.BlockEmitted()
	require.Equal(t, float64(2), testutil.ToFloat64(r.blocksEmitted))

	r.FileProcessed()
	require.Equal(t, float64(1), testutil.ToFloat64(r.filesProcessed))

	r.SetOrphansHeld(7)
	require.Equal(t, float64(7), testutil.ToFloat64(r.orphansHeld))

	r.SetLongestChainDepth(3)
	require.Equal(t, float64(3), testutil.ToFloat64(r.longestChain))

	r.ObserveDecodeDuration(5 * time.Millisecond)

	families, err := r.Registry().Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}

// A nil *Recorder is valid everywhere one is accepted: every method is a
// no-op, so callers never need to nil-check before recording.
func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder

	require.NotPanics(t, func() {
		r.BlockEmitted()
		r.FileProcessed()
		r.SetOrphansHeld(1)
		r.SetLongestChainDepth(1)
		r.ObserveDecodeDuration(time.Second)
		require.Nil(t, r.Registry())
	})
}
