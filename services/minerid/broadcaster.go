package minerid

import (
	"context"
	"net/http"
	"net/url"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/minerid/errors"
	"github.com/bsv-blockchain/minerid/ulogger"
	"github.com/ordishs/go-bitcoin"
)

type rawTxSender interface {
	SendRawTransaction(hex string) (string, error)
	SendRawTransactionWithoutFeeCheck(hex string) (string, error)
}

// NodeBroadcaster sends miner info transactions to a remote node over its JSON-RPC interface.
type NodeBroadcaster struct {
	logger ulogger.Logger
	client rawTxSender
	node   *bitcoin.Bitcoind
}

// NewNodeBroadcaster connects to the node at u. The user info of u carries the RPC credentials.
func NewNodeBroadcaster(logger ulogger.Logger, u *url.URL) (*NodeBroadcaster, error) {
	node, err := bitcoin.NewFromURL(u, u.Scheme == "https")
	if err != nil {
		return nil, errors.NewServiceError("could not create bitcoin client for %s", u.Host, err)
	}

	return &NodeBroadcaster{
		logger: logger,
		client: node,
		node:   node,
	}, nil
}

func (b *NodeBroadcaster) Health(_ context.Context, checkLiveness bool) (int, string, error) {
	if checkLiveness || b.node == nil {
		return http.StatusOK, "OK", nil
	}

	if _, err := b.node.GetBlockchainInfo(); err != nil {
		return http.StatusServiceUnavailable, "node unreachable", errors.NewServiceUnavailableError("broadcast node unreachable", err)
	}

	return http.StatusOK, "OK", nil
}

// SendRawTransaction submits txHex. The node decides on high fees itself; allowHighFees is not
// forwarded.
func (b *NodeBroadcaster) SendRawTransaction(_ context.Context, txHex string, _ bool, dontCheckFee bool) (*chainhash.Hash, error) {
	var (
		txID string
		err  error
	)

	if dontCheckFee {
		txID, err = b.client.SendRawTransactionWithoutFeeCheck(txHex)
	} else {
		txID, err = b.client.SendRawTransaction(txHex)
	}

	if err != nil {
		return nil, errors.NewNetworkError("node rejected transaction", err)
	}

	hash, err := chainhash.NewHashFromStr(txID)
	if err != nil {
		return nil, errors.NewProcessingError("node returned invalid txid %q", txID, err)
	}

	b.logger.Debugf("[NodeBroadcaster] sent %s", hash)

	return hash, nil
}
