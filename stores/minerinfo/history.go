package minerinfo

import (
	"bytes"
	"context"
	"sort"
	"sync"
)

// MemoryHistory keeps the history in a slice sorted by height and txid.
type MemoryHistory struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{
		entries: make([]Entry, 0),
	}
}

func (h *MemoryHistory) Record(_ context.Context, entry *Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	idx := sort.Search(len(h.entries), func(i int) bool {
		return !entryLess(&h.entries[i], entry)
	})

	if idx < len(h.entries) && h.entries[idx].Height == entry.Height && h.entries[idx].TxID == entry.TxID {
		h.entries[idx].BlockHash = entry.BlockHash
		return nil
	}

	h.entries = append(h.entries, Entry{})
	copy(h.entries[idx+1:], h.entries[idx:])
	h.entries[idx] = *entry

	return nil
}

func (h *MemoryHistory) Walk(ctx context.Context, fn func(entry *Entry) (bool, error)) error {
	h.mu.RLock()
	entries := make([]Entry, len(h.entries))
	copy(entries, h.entries)
	h.mu.RUnlock()

	for i := len(entries) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return err
		}

		next, err := fn(&entries[i])
		if err != nil {
			return err
		}

		if !next {
			return nil
		}
	}

	return nil
}

func (h *MemoryHistory) Close() error {
	return nil
}

func entryLess(a, b *Entry) bool {
	if a.Height != b.Height {
		return a.Height < b.Height
	}

	return bytes.Compare(a.TxID[:], b.TxID[:]) < 0
}
