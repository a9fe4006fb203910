package rpc

import (
	"context"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/stretchr/testify/mock"
)

// MockMinerIDService implements MinerIDService for testing purposes
type MockMinerIDService struct {
	mock.Mock
}

func (m *MockMinerIDService) Health(ctx context.Context, checkLiveness bool) (int, string, error) {
	args := m.Called(ctx, checkLiveness)

	return args.Int(0), args.String(1), args.Error(2)
}

func (m *MockMinerIDService) CurrentTxID() *chainhash.Hash {
	args := m.Called()

	if args.Get(0) == nil {
		return nil
	}

	return args.Get(0).(*chainhash.Hash)
}

func (m *MockMinerIDService) CreateOrReplace(ctx context.Context, scriptPubKey []byte, override bool) (*chainhash.Hash, error) {
	args := m.Called(ctx, scriptPubKey, override)

	if args.Error(1) != nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*chainhash.Hash), nil
}

func (m *MockMinerIDService) MakeSigningKey(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockMinerIDService) FundingAddress(ctx context.Context) (string, error) {
	args := m.Called(ctx)

	return args.String(0), args.Error(1)
}

func (m *MockMinerIDService) SetFundingOutpoint(ctx context.Context, txID string, n uint32) error {
	args := m.Called(ctx, txID, n)

	return args.Error(0)
}
