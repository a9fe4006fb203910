package minerid

import (
	"context"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/minerid/stores/utxo"
	"github.com/stretchr/testify/mock"
)

// MockBroadcaster implements Broadcaster for testing purposes
type MockBroadcaster struct {
	mock.Mock
}

func (m *MockBroadcaster) SendRawTransaction(ctx context.Context, txHex string, allowHighFees, dontCheckFee bool) (*chainhash.Hash, error) {
	args := m.Called(ctx, txHex, allowHighFees, dontCheckFee)

	if args.Error(1) != nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*chainhash.Hash), args.Error(1)
}

// MockChainState implements ChainState for testing purposes. View calls fn with the CoinView
// given to Return, unless an error is returned.
type MockChainState struct {
	mock.Mock
}

func (m *MockChainState) Tip() (uint32, *chainhash.Hash) {
	args := m.Called()

	return args.Get(0).(uint32), args.Get(1).(*chainhash.Hash)
}

func (m *MockChainState) View(ctx context.Context, fn func(view utxo.CoinView) error) error {
	args := m.Called(ctx)

	if args.Error(1) != nil {
		return args.Error(1)
	}

	return fn(args.Get(0).(utxo.CoinView))
}

func (m *MockChainState) GetTransaction(ctx context.Context, txHash *chainhash.Hash) (*bt.Tx, error) {
	args := m.Called(ctx, txHash)

	if args.Error(1) != nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*bt.Tx), args.Error(1)
}
