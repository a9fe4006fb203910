// Package minerid creates, funds, signs and tracks the miner info transaction: the single
// unconfirmed transaction per block that publishes the miner's identity document.
//
// The transaction is built from an operator supplied output script, funded from the funding
// seed coin or from the change of the previous miner info transaction, and handed to the node
// without a fee check. The mempool owns the transaction from then on; the service only keeps its
// id in the tracker.
package minerid

import (
	"bytes"
	"context"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	safeconversion "github.com/bsv-blockchain/go-safe-conversion"
	"github.com/bsv-blockchain/minerid/errors"
	"github.com/bsv-blockchain/minerid/services/mempool"
	"github.com/bsv-blockchain/minerid/settings"
	"github.com/bsv-blockchain/minerid/stores/funding"
	"github.com/bsv-blockchain/minerid/stores/minerinfo"
	"github.com/bsv-blockchain/minerid/stores/utxo"
	"github.com/bsv-blockchain/minerid/ulogger"
	"github.com/bsv-blockchain/minerid/util/health"
)

type Service struct {
	logger      ulogger.Logger
	settings    *settings.Settings
	mu          sync.Mutex
	chain       ChainState
	pool        Mempool
	broadcaster Broadcaster
	keys        KeyStore
}

func New(logger ulogger.Logger, tSettings *settings.Settings, chain ChainState, pool Mempool, broadcaster Broadcaster, keys KeyStore) *Service {
	initPrometheusMetrics()

	return &Service{
		logger:      logger,
		settings:    tSettings,
		chain:       chain,
		pool:        pool,
		broadcaster: broadcaster,
		keys:        keys,
	}
}

// Health reports the chain state and the broadcaster, when they report their own health.
func (s *Service) Health(ctx context.Context, checkLiveness bool) (int, string, error) {
	if checkLiveness {
		return http.StatusOK, "OK", nil
	}

	checks := make([]health.Check, 0, 2)

	if c, ok := s.chain.(healthChecker); ok {
		checks = append(checks, health.Check{Name: "ChainState", Check: c.Health})
	}

	if b, ok := s.broadcaster.(healthChecker); ok {
		checks = append(checks, health.Check{Name: "Broadcaster", Check: b.Health})
	}

	return health.CheckAll(ctx, checkLiveness, checks)
}

// CurrentTxID returns the id of the tracked miner info transaction, or nil.
func (s *Service) CurrentTxID() *chainhash.Hash {
	return s.pool.Tracker().Current()
}

// CreateOrReplace makes sure a miner info transaction carrying scriptPubKey is in the mempool for
// the next block and returns its id.
//
// Without override an already tracked transaction is returned as is, whatever document it
// carries. With override the tracked transaction is removed, along with its descendants, unless
// it already carries exactly scriptPubKey.
//
// A TipRaceError means a block connected while the transaction was being created. The
// transaction has been broadcast and stays tracked; its id is in the error data under "txid".
func (s *Service) CreateOrReplace(ctx context.Context, scriptPubKey []byte, override bool) (txID *chainhash.Hash, err error) {
	start := time.Now()

	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}

		prometheusCreateOrReplace.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	height, _ := s.chain.Tip()
	targetHeight := height + 1

	tracked, err := s.resolveTracked(scriptPubKey, override)
	if err != nil {
		return nil, err
	}

	if tracked != nil {
		return tracked, nil
	}

	doc, err := ExtractDocument(scriptPubKey)
	if err != nil {
		return nil, err
	}

	docHeight, err := safeconversion.Int32ToUint32(doc.Height)
	if err != nil || docHeight != targetHeight {
		return nil, errors.NewHeightMismatchError("Block height must be the active chain height plus 1")
	}

	tx := bt.NewTx()
	tx.AddOutput(&bt.Output{
		Satoshis:      0,
		LockingScript: bscript.NewFromBytes(scriptPubKey),
	})

	funds, err := s.fund(ctx, tx, targetHeight)
	if err != nil {
		return nil, fundingError(err)
	}

	txID = tx.TxIDChainHash()
	tracker := s.pool.Tracker()

	// tracked before the broadcast so the block connect path sees it as soon as the pool does
	tracker.SetCurrent(txID)

	broadcastStart := time.Now()
	_, err = s.broadcaster.SendRawTransaction(ctx, tx.String(), false, true)
	prometheusBroadcast.Observe(time.Since(broadcastStart).Seconds())

	if err != nil {
		tracker.ClearIfMatches(txID)
		s.logger.Warnf("[CreateOrReplace] minerinfo txn %s funded with %s was rejected: %v", txID, funds, err)

		return nil, errors.NewBroadcastError("Could not create minerinfo transaction. %s", errorMessage(err), err)
	}

	s.logger.Infof("[CreateOrReplace] sent minerinfo txn %s to mempool at height %d. Funding with %s", txID, targetHeight, funds)

	if newHeight, _ := s.chain.Tip(); newHeight != height {
		tipErr := errors.NewTipRaceError("A block was added to the tip while a mineridinfo-tx was created. Current height: %d", newHeight+1)
		tipErr.SetData("txid", txID.String())

		return nil, tipErr
	}

	s.logger.Infof("[CreateOrReplace] a mineridinfo-txn %s has been created at height %d", txID, targetHeight)

	return txID, nil
}

// resolveTracked returns the id to hand back unchanged, or nil when a new transaction has to be
// created.
func (s *Service) resolveTracked(scriptPubKey []byte, override bool) (*chainhash.Hash, error) {
	tracker := s.pool.Tracker()

	current := tracker.Current()
	if current == nil {
		return nil, nil
	}

	tx := s.pool.Get(current)
	if tx == nil {
		// a block connect clears the tracker after it has removed the transaction
		if again := tracker.Current(); again == nil || !again.IsEqual(current) {
			return nil, nil
		}

		return nil, errors.NewTrackingConsistencyError("minerinfo tx tracking error: tracked transaction %s is not in the mempool", current)
	}

	if !override {
		return current, nil
	}

	if len(tx.Outputs) > 0 && tx.Outputs[0].LockingScript != nil && bytes.Equal(*tx.Outputs[0].LockingScript, scriptPubKey) {
		return current, nil
	}

	s.logger.Infof("[CreateOrReplace] scheduled removal of minerinfo txn %s because attempting to override", current)

	cs := s.pool.NewChangeSet(mempool.ReasonRemoveTxn)
	s.pool.RemoveMinerIDTx(current, cs)
	cs.Apply()

	tracker.ClearIfMatches(current)
	prometheusTrackedReplaced.Inc()

	return nil, nil
}

// fund finds the previous miner info transaction, loads the funding files and spends the chosen
// coin in tx. Coin selection and signing share one view of the chain state.
func (s *Service) fund(ctx context.Context, tx *bt.Tx, targetHeight uint32) (*utxo.Outpoint, error) {
	previous, err := s.pool.Tracker().FindLatest(ctx, func(ctx context.Context, entry *minerinfo.Entry) (*bt.Tx, error) {
		if entry.Height >= targetHeight {
			return nil, nil
		}

		prevTx, err := s.chain.GetTransaction(ctx, &entry.TxID)
		if err != nil {
			if errors.Is(err, errors.ErrTxNotFound) {
				return nil, nil
			}

			return nil, err
		}

		return prevTx, nil
	})
	if err != nil {
		return nil, err
	}

	key, descriptor, err := s.keys.Load()
	if err != nil {
		return nil, err
	}

	var funds *utxo.Outpoint

	err = s.chain.View(ctx, func(view utxo.CoinView) error {
		var vErr error

		if funds, vErr = ChooseFundingOutpoint(view, descriptor.Outpoint, previous); vErr != nil {
			return vErr
		}

		return FundAndSign(ctx, view, key, funds, tx)
	})
	if err != nil {
		return nil, err
	}

	return funds, nil
}

// MakeSigningKey generates a funding key and writes a seed file holding only its destination.
// Regtest always gets the same key.
func (s *Service) MakeSigningKey(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keyDoc, seedDoc, err := funding.GenerateKey(s.settings.ChainCfgParams, s.settings.IsRegtest())
	if err != nil {
		return err
	}

	if err = s.keys.SaveKey(keyDoc); err != nil {
		return err
	}

	if err = s.keys.SaveSeed(seedDoc); err != nil {
		return err
	}

	s.logger.Infof("[MakeSigningKey] created miner info funding key for %s", seedDoc.FundingDestination.AddressBase58)

	return nil
}

// FundingAddress returns the address the operator has to fund.
func (s *Service) FundingAddress(_ context.Context) (string, error) {
	seed, err := s.keys.ReadSeed()
	if err != nil {
		return "", err
	}

	return seed.FundingDestination.AddressBase58, nil
}

// SetFundingOutpoint records the coin that funds the first miner info transaction, keeping the
// funding destination.
func (s *Service) SetFundingOutpoint(_ context.Context, txID string, n uint32) error {
	if len(txID) != chainhash.MaxHashStringSize {
		return errors.NewInvalidArgumentError("txid must be %d hex characters, got %d", chainhash.MaxHashStringSize, len(txID))
	}

	if _, err := hex.DecodeString(txID); err != nil {
		return errors.NewInvalidArgumentError("txid %s is not hex", txID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seed, err := s.keys.ReadSeed()
	if err != nil {
		return err
	}

	seed.FirstFundingOutpoint = &funding.OutpointEntry{
		TxID: txID,
		N:    n,
	}

	if err = s.keys.SaveSeed(seed); err != nil {
		return err
	}

	s.logger.Infof("[SetFundingOutpoint] miner info funding outpoint set to %s:%d", txID, n)

	return nil
}

// fundingError prefixes funding failures while keeping their code.
func fundingError(err error) error {
	var e *errors.Error
	if errors.As(err, &e) {
		return errors.New(e.Code(), "Could not fund minerinfo transaction: "+e.Message(), e)
	}

	return errors.NewProcessingError("Could not fund minerinfo transaction: %v", err)
}

// errorMessage joins the messages of a wrapped error chain without codes.
func errorMessage(err error) string {
	var e *errors.Error
	if !errors.As(err, &e) {
		return err.Error()
	}

	if wrapped := e.WrappedErr(); wrapped != nil {
		return e.Message() + ": " + errorMessage(wrapped)
	}

	return e.Message()
}
