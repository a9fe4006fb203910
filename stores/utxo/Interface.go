package utxo

import (
	"context"
	"fmt"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// MempoolHeight is the height reported for coins created by unconfirmed transactions.
const MempoolHeight uint32 = 0x7fffffff

// Outpoint references a single transaction output.
type Outpoint struct {
	TxID  chainhash.Hash
	Index uint32
}

func NewOutpoint(txID *chainhash.Hash, index uint32) *Outpoint {
	return &Outpoint{
		TxID:  *txID,
		Index: index,
	}
}

func (o Outpoint) String() string {
	return fmt.Sprintf("%s:%d", o.TxID.String(), o.Index)
}

// Coin is an output together with the height of the block that created it.
type Coin struct {
	Output *bt.Output
	Height uint32
	Spent  bool
}

func (c *Coin) IsSpent() bool {
	return c == nil || c.Spent
}

// CoinView resolves outpoints to coins. A missing coin is reported as ErrUtxoNotFound.
type CoinView interface {
	GetCoin(outpoint *Outpoint) (*Coin, error)
}

// Interface is the confirmed UTXO set.
type Interface interface {
	CoinView
	Health(ctx context.Context, checkLiveness bool) (int, string, error)
	Add(tx *bt.Tx, blockHeight uint32) error
	Spend(tx *bt.Tx) error
	Len() int
}

// Spendable returns the coin for outpoint when it exists and is not spent.
func Spendable(view CoinView, outpoint *Outpoint) (*Coin, bool) {
	coin, err := view.GetCoin(outpoint)
	if err != nil || coin.IsSpent() {
		return nil, false
	}

	return coin, true
}

// IsUnspendable reports whether a locking script can never be spent, i.e. a data carrier output.
func IsUnspendable(script *bscript.Script) bool {
	if script == nil || len(*script) == 0 {
		return false
	}

	s := *script

	if s[0] == bscript.OpRETURN {
		return true
	}

	return len(s) > 1 && s[0] == bscript.OpFALSE && s[1] == bscript.OpRETURN
}
