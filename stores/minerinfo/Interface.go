package minerinfo

import (
	"context"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// Entry records a miner info transaction confirmed in a block.
type Entry struct {
	Height    uint32
	BlockHash chainhash.Hash
	TxID      chainhash.Hash
}

// History persists confirmed miner info transactions ordered by block height.
type History interface {
	Record(ctx context.Context, entry *Entry) error
	// Walk calls fn for each entry, newest first, until fn returns false or an error.
	Walk(ctx context.Context, fn func(entry *Entry) (bool, error)) error
	Close() error
}
