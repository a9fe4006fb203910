package utxo

import (
	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/minerid/errors"
)

// MempoolSource is the part of the mempool a layered view reads.
type MempoolSource interface {
	// SpentBy returns the id of the unconfirmed transaction spending outpoint, or nil.
	SpentBy(outpoint *Outpoint) *chainhash.Hash
	// Output returns the output of an unconfirmed transaction, or nil.
	Output(outpoint *Outpoint) *bt.Output
}

// MempoolView overlays unconfirmed spends and outputs on a confirmed coin view.
type MempoolView struct {
	base CoinView
	pool MempoolSource
}

func NewMempoolView(base CoinView, pool MempoolSource) *MempoolView {
	return &MempoolView{
		base: base,
		pool: pool,
	}
}

func (v *MempoolView) GetCoin(outpoint *Outpoint) (*Coin, error) {
	var coin *Coin

	if output := v.pool.Output(outpoint); output != nil {
		coin = &Coin{
			Output: output,
			Height: MempoolHeight,
		}
	} else {
		var err error
		if coin, err = v.base.GetCoin(outpoint); err != nil {
			return nil, err
		}
	}

	if coin == nil {
		return nil, errors.NewUtxoNotFoundError("coin %s not found", outpoint)
	}

	if v.pool.SpentBy(outpoint) != nil {
		spent := *coin
		spent.Spent = true

		return &spent, nil
	}

	return coin, nil
}
