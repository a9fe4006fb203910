package mempool

import (
	"sync"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// JournalUpdateReason says why a change set was created.
type JournalUpdateReason int

const (
	ReasonUnknown JournalUpdateReason = iota
	ReasonNewTxn
	ReasonRemoveTxn
	ReasonRemoveForBlock
)

func (r JournalUpdateReason) String() string {
	switch r {
	case ReasonNewTxn:
		return "NEW_TXN"
	case ReasonRemoveTxn:
		return "REMOVE_TXN"
	case ReasonRemoveForBlock:
		return "REMOVE_FOR_BLOCK"
	default:
		return "UNKNOWN"
	}
}

type Operation int

const (
	OperationAdd Operation = iota
	OperationRemove
)

type Change struct {
	Operation Operation
	Tx        *bt.Tx
}

// Journal is the ordered list of transactions offered to the block template.
type Journal struct {
	mu      sync.RWMutex
	order   []chainhash.Hash
	members map[chainhash.Hash]struct{}
}

func NewJournal() *Journal {
	return &Journal{
		order:   make([]chainhash.Hash, 0),
		members: make(map[chainhash.Hash]struct{}),
	}
}

func (j *Journal) apply(changes []Change) {
	j.mu.Lock()
	defer j.mu.Unlock()

	removed := make(map[chainhash.Hash]struct{})

	for _, change := range changes {
		txHash := *change.Tx.TxIDChainHash()

		switch change.Operation {
		case OperationAdd:
			if _, ok := j.members[txHash]; ok {
				continue
			}

			j.members[txHash] = struct{}{}

			// removed and re-added in the same set keeps its place
			if _, ok := removed[txHash]; ok {
				delete(removed, txHash)
				continue
			}

			j.order = append(j.order, txHash)
		case OperationRemove:
			if _, ok := j.members[txHash]; !ok {
				continue
			}

			delete(j.members, txHash)
			removed[txHash] = struct{}{}
		}
	}

	if len(removed) == 0 {
		return
	}

	order := j.order[:0]

	for _, txHash := range j.order {
		if _, ok := removed[txHash]; !ok {
			order = append(order, txHash)
		}
	}

	j.order = order
}

// Contents returns the journal's transaction ids in template order.
func (j *Journal) Contents() []chainhash.Hash {
	j.mu.RLock()
	defer j.mu.RUnlock()

	contents := make([]chainhash.Hash, len(j.order))
	copy(contents, j.order)

	return contents
}

func (j *Journal) Has(txHash *chainhash.Hash) bool {
	j.mu.RLock()
	defer j.mu.RUnlock()

	_, ok := j.members[*txHash]

	return ok
}

func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return len(j.order)
}

// ChangeSet collects mempool changes and publishes them to the journal in one step.
type ChangeSet struct {
	mu      sync.Mutex
	reason  JournalUpdateReason
	journal *Journal
	changes []Change
	applied bool
}

func newChangeSet(reason JournalUpdateReason, journal *Journal) *ChangeSet {
	return &ChangeSet{
		reason:  reason,
		journal: journal,
		changes: make([]Change, 0),
	}
}

func (cs *ChangeSet) Reason() JournalUpdateReason {
	return cs.reason
}

func (cs *ChangeSet) AddOperation(operation Operation, tx *bt.Tx) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.changes = append(cs.changes, Change{Operation: operation, Tx: tx})
}

func (cs *ChangeSet) Changes() []Change {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	changes := make([]Change, len(cs.changes))
	copy(changes, cs.changes)

	return changes
}

// Apply publishes the collected changes. Applying twice is a no-op.
func (cs *ChangeSet) Apply() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.applied {
		return
	}

	cs.applied = true
	cs.journal.apply(cs.changes)
}
