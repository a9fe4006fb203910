package leveldb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/minerid/stores/minerinfo"
	"github.com/bsv-blockchain/minerid/ulogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")

	h, err := New(ulogger.TestLogger{}, path)
	require.NoError(t, err)

	ctx := context.Background()

	for _, height := range []uint32{300, 5, 256, 42} {
		require.NoError(t, h.Record(ctx, &minerinfo.Entry{
			Height:    height,
			BlockHash: chainhash.DoubleHashH([]byte{byte(height), 1}),
			TxID:      chainhash.DoubleHashH([]byte{byte(height), byte(height >> 8)}),
		}))
	}

	var heights []uint32

	require.NoError(t, h.Walk(ctx, func(entry *minerinfo.Entry) (bool, error) {
		heights = append(heights, entry.Height)
		assert.Equal(t, chainhash.DoubleHashH([]byte{byte(entry.Height), 1}), entry.BlockHash)

		return true, nil
	}))

	assert.Equal(t, []uint32{300, 256, 42, 5}, heights)

	require.NoError(t, h.Close())

	t.Run("reopen", func(t *testing.T) {
		h, err := New(ulogger.TestLogger{}, path)
		require.NoError(t, err)

		defer h.Close()

		tracker := minerinfo.NewTracker(ulogger.TestLogger{}, h)

		var seen []uint32

		_, err = tracker.FindLatest(ctx, func(_ context.Context, entry *minerinfo.Entry) (*bt.Tx, error) {
			seen = append(seen, entry.Height)
			return nil, nil
		})
		require.NoError(t, err)
		assert.Equal(t, []uint32{300, 256, 42, 5}, seen)
	})
}
