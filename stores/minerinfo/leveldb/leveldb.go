// Package leveldb persists the miner info transaction history in a LevelDB database so the
// predecessor of the next miner info transaction survives restarts.
package leveldb

import (
	"context"
	"encoding/binary"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/minerid/errors"
	"github.com/bsv-blockchain/minerid/stores/minerinfo"
	"github.com/bsv-blockchain/minerid/ulogger"
	"github.com/btcsuite/goleveldb/leveldb"
	"github.com/btcsuite/goleveldb/leveldb/opt"
	"github.com/btcsuite/goleveldb/leveldb/util"
)

var entryPrefix = []byte("m")

const keyLen = 1 + 4 + chainhash.HashSize

type History struct {
	logger ulogger.Logger
	db     *leveldb.DB
}

func New(logger ulogger.Logger, path string) (*History, error) {
	logger.Infof("[MinerInfoHistory] opening LevelDB at %s", path)

	db, err := leveldb.OpenFile(path, &opt.Options{
		Compression: opt.NoCompression,
	})
	if err != nil {
		return nil, errors.NewStorageUnavailableError("couldn't open LevelDB at %s", path, err)
	}

	return &History{
		logger: logger,
		db:     db,
	}, nil
}

// entries sort by big endian height first so iteration order is block order
func entryKey(height uint32, txID *chainhash.Hash) []byte {
	key := make([]byte, 0, keyLen)
	key = append(key, entryPrefix...)
	key = binary.BigEndian.AppendUint32(key, height)
	key = append(key, txID[:]...)

	return key
}

func (h *History) Record(_ context.Context, entry *minerinfo.Entry) error {
	if err := h.db.Put(entryKey(entry.Height, &entry.TxID), entry.BlockHash[:], nil); err != nil {
		return errors.NewStorageError("couldn't write history entry for %s", entry.TxID, err)
	}

	return nil
}

func (h *History) Walk(ctx context.Context, fn func(entry *minerinfo.Entry) (bool, error)) error {
	iter := h.db.NewIterator(util.BytesPrefix(entryPrefix), nil)
	defer iter.Release()

	for ok := iter.Last(); ok; ok = iter.Prev() {
		if err := ctx.Err(); err != nil {
			return err
		}

		key := iter.Key()
		value := iter.Value()

		if len(key) != keyLen || len(value) != chainhash.HashSize {
			return errors.NewStorageError("corrupt history entry %x", key)
		}

		entry := &minerinfo.Entry{
			Height: binary.BigEndian.Uint32(key[1:5]),
		}
		copy(entry.TxID[:], key[5:])
		copy(entry.BlockHash[:], value)

		next, err := fn(entry)
		if err != nil {
			return err
		}

		if !next {
			break
		}
	}

	if err := iter.Error(); err != nil {
		return errors.NewStorageError("error iterating history", err)
	}

	return nil
}

func (h *History) Close() error {
	return h.db.Close()
}
