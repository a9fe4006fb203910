// Package funding stores the key and the seed outpoint that pay for miner info transactions.
//
// Both live as small JSON documents in one directory under the data folder. Nothing is cached;
// every caller reloads them so operator edits apply to the next transaction.
package funding

import (
	"crypto/rand"
	"os"
	"path/filepath"

	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/go-chaincfg"
	bip32 "github.com/bsv-blockchain/go-sdk/compat/bip32"
	bec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	sdkchaincfg "github.com/bsv-blockchain/go-sdk/transaction/chaincfg"
	"github.com/bsv-blockchain/minerid/errors"
	"github.com/bsv-blockchain/minerid/settings"
	"github.com/bsv-blockchain/minerid/stores/utxo"
	"github.com/bsv-blockchain/minerid/ulogger"
)

// Key is the signing key of the funding destination.
type Key struct {
	ExtendedKey string
	PrivateKey  *bec.PrivateKey
	Address     string
}

// Descriptor is the coin the next miner info transaction should try to spend first.
type Descriptor struct {
	Outpoint utxo.Outpoint
	Address  string
}

type Store struct {
	logger   ulogger.Logger
	dir      string
	keyFile  string
	seedFile string
	params   *chaincfg.Params
}

func New(logger ulogger.Logger, tSettings *settings.Settings) *Store {
	return &Store{
		logger:   logger,
		dir:      tSettings.FundingDir(),
		keyFile:  tSettings.MinerID.FundingKeyFile,
		seedFile: tSettings.MinerID.FundingSeedFile,
		params:   tSettings.ChainCfgParams,
	}
}

func (s *Store) Dir() string {
	return s.dir
}

// Load reads both funding documents and checks that the key pays to the recorded destination.
func (s *Store) Load() (*Key, *Descriptor, error) {
	if _, err := os.Stat(s.dir); err != nil {
		return nil, nil, errors.NewConfigurationError("miner info funding directory %s is not available", s.dir, err)
	}

	keyBytes, err := s.read(s.keyFile)
	if err != nil {
		return nil, nil, err
	}

	keyDoc, err := UnmarshalKeyDocument(keyBytes)
	if err != nil {
		return nil, nil, err
	}

	seedDoc, err := s.ReadSeed()
	if err != nil {
		return nil, nil, err
	}

	if seedDoc.FirstFundingOutpoint == nil {
		return nil, nil, errors.NewFieldError(errors.ERR_CONFIGURATION, seedDocumentName, "firstFundingOutpoint", "object", true)
	}

	txID, err := chainhash.NewHashFromStr(seedDoc.FirstFundingOutpoint.TxID)
	if err != nil {
		return nil, nil, errors.NewFieldError(errors.ERR_CONFIGURATION, seedDocumentName, "firstFundingOutpoint.txid", "transaction id", false)
	}

	key, err := KeyFromDocument(keyDoc, s.params)
	if err != nil {
		return nil, nil, err
	}

	if key.Address != seedDoc.FundingDestination.AddressBase58 {
		return nil, nil, errors.NewConfigurationError("miner info funding key does not match funding destination %s", seedDoc.FundingDestination.AddressBase58)
	}

	return key, &Descriptor{
		Outpoint: *utxo.NewOutpoint(txID, seedDoc.FirstFundingOutpoint.N),
		Address:  seedDoc.FundingDestination.AddressBase58,
	}, nil
}

func (s *Store) ReadSeed() (*SeedDocument, error) {
	b, err := s.read(s.seedFile)
	if err != nil {
		return nil, err
	}

	return UnmarshalSeedDocument(b)
}

func (s *Store) SaveKey(doc *KeyDocument) error {
	b, err := MarshalKeyDocument(doc)
	if err != nil {
		return err
	}

	return s.write(s.keyFile, b, 0o600)
}

func (s *Store) SaveSeed(doc *SeedDocument) error {
	b, err := MarshalSeedDocument(doc)
	if err != nil {
		return err
	}

	return s.write(s.seedFile, b, 0o644)
}

func (s *Store) read(name string) ([]byte, error) {
	path := filepath.Join(s.dir, name)

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigurationError("could not read miner info funding file %s", path, err)
	}

	return b, nil
}

func (s *Store) write(name string, b []byte, perm os.FileMode) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.NewStorageError("could not create miner info funding directory %s", s.dir, err)
	}

	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return errors.NewStorageError("could not open miner info funding file %s", path, err)
	}

	if _, err = f.Write(b); err != nil {
		_ = f.Close()
		return errors.NewStorageError("could not write miner info funding file %s", path, err)
	}

	if err = f.Close(); err != nil {
		return errors.NewStorageError("could not close miner info funding file %s", path, err)
	}

	s.logger.Debugf("[FundingStore] wrote %s", path)

	return nil
}

// KeyFromDocument parses the stored extended key and derives its address for params.
func KeyFromDocument(doc *KeyDocument, params *chaincfg.Params) (*Key, error) {
	extendedKey, err := bip32.NewKeyFromString(doc.FundingKey.PrivateBIP32)
	if err != nil {
		return nil, errors.NewFieldError(errors.ERR_CONFIGURATION, keyDocumentName, "fundingKey.privateBIP32", "extended private key", false)
	}

	privateKey, err := extendedKey.ECPrivKey()
	if err != nil {
		return nil, errors.NewConfigurationError("miner info funding key is not a private key", err)
	}

	address, err := bscript.NewAddressFromPublicKey(privateKey.PubKey(), isMainnet(params))
	if err != nil {
		return nil, errors.NewConfigurationError("could not derive miner info funding address", err)
	}

	return &Key{
		ExtendedKey: doc.FundingKey.PrivateBIP32,
		PrivateKey:  privateKey,
		Address:     address.AddressString,
	}, nil
}

// GenerateKey creates a new funding key and a seed document holding only its destination.
// Regtest nodes get a fixed key so test setups can fund it up front.
func GenerateKey(params *chaincfg.Params, deterministic bool) (*KeyDocument, *SeedDocument, error) {
	seed := make([]byte, 32)

	if deterministic {
		for i := range seed {
			seed[i] = byte(i)
		}
	} else if _, err := rand.Read(seed); err != nil {
		return nil, nil, errors.NewProcessingError("could not generate miner info funding key", err)
	}

	net := &sdkchaincfg.TestNet
	if isMainnet(params) {
		net = &sdkchaincfg.MainNet
	}

	master, err := bip32.NewMaster(seed, net)
	if err != nil {
		return nil, nil, errors.NewProcessingError("could not create miner info funding key", err)
	}

	keyDoc := &KeyDocument{
		FundingKey: KeyEntry{PrivateBIP32: master.String()},
	}

	key, err := KeyFromDocument(keyDoc, params)
	if err != nil {
		return nil, nil, err
	}

	return keyDoc, &SeedDocument{
		FundingDestination: Destination{AddressBase58: key.Address},
	}, nil
}

func isMainnet(params *chaincfg.Params) bool {
	return params == nil || params.Name == chaincfg.MainNetParams.Name
}
