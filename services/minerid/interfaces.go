package minerid

import (
	"context"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/minerid/services/mempool"
	"github.com/bsv-blockchain/minerid/stores/funding"
	"github.com/bsv-blockchain/minerid/stores/minerinfo"
	"github.com/bsv-blockchain/minerid/stores/utxo"
)

// ChainState gives access to the active tip and to a consistent coin view.
type ChainState interface {
	Tip() (uint32, *chainhash.Hash)
	View(ctx context.Context, fn func(view utxo.CoinView) error) error
	// GetTransaction looks in the mempool first and then in confirmed transactions.
	GetTransaction(ctx context.Context, txHash *chainhash.Hash) (*bt.Tx, error)
}

// Mempool is the part of the transaction pool the lifecycle needs. The pool owns the tracker.
type Mempool interface {
	Get(txHash *chainhash.Hash) *bt.Tx
	NewChangeSet(reason mempool.JournalUpdateReason) *mempool.ChangeSet
	RemoveMinerIDTx(txHash *chainhash.Hash, cs *mempool.ChangeSet)
	Tracker() *minerinfo.Tracker
}

// Broadcaster submits a signed transaction to the node.
type Broadcaster interface {
	SendRawTransaction(ctx context.Context, txHex string, allowHighFees, dontCheckFee bool) (*chainhash.Hash, error)
}

// KeyStore persists the funding key and seed documents.
type KeyStore interface {
	Load() (*funding.Key, *funding.Descriptor, error)
	ReadSeed() (*funding.SeedDocument, error)
	SaveKey(doc *funding.KeyDocument) error
	SaveSeed(doc *funding.SeedDocument) error
}

type healthChecker interface {
	Health(ctx context.Context, checkLiveness bool) (int, string, error)
}
