package lightsystem

import (
	"crypto/ed25519"
	"math"

	"github.com/emirpasic/gods/maps/linkedhashmap"

	"github.com/nina-protocol/nina-go/pkg/solana"
)

// ReferenceTable is an insertion ordered, deduplicating set of account keys.
// Each key maps to its position, which is the index packed structs use to
// reference the key within the instruction's remaining accounts.
//
// A table belongs to exactly one instruction build. It is threaded through
// every packing call and consumed once by FormatRemainingAccounts, after
// which it rejects further additions. ReferenceTable is not safe for
// concurrent use.
type ReferenceTable struct {
	keys     *linkedhashmap.Map
	consumed bool
}

func NewReferenceTable() *ReferenceTable {
	return &ReferenceTable{
		keys: linkedhashmap.New(),
	}
}

// GetOrAdd returns the index of key, appending it if it has not been seen.
// Keys are compared by value.
func (t *ReferenceTable) GetOrAdd(key ed25519.PublicKey) (uint8, error) {
	if index, ok := t.keys.Get(string(key)); ok {
		return index.(uint8), nil
	}

	if t.consumed {
		return 0, ErrTableConsumed
	}

	size := t.keys.Size()
	if size > math.MaxUint8 {
		return 0, ErrIndexOverflow
	}

	index := uint8(size)
	t.keys.Put(string(key), index)
	return index, nil
}

// IndexOf returns the index of key, if present.
func (t *ReferenceTable) IndexOf(key ed25519.PublicKey) (uint8, bool) {
	index, ok := t.keys.Get(string(key))
	if !ok {
		return 0, false
	}
	return index.(uint8), true
}

func (t *ReferenceTable) Len() int {
	return t.keys.Size()
}

// Keys returns the registered keys in index order.
func (t *ReferenceTable) Keys() []ed25519.PublicKey {
	raw := t.keys.Keys()
	keys := make([]ed25519.PublicKey, len(raw))
	for i, k := range raw {
		keys[i] = ed25519.PublicKey(k.(string))
	}
	return keys
}

// FormatRemainingAccounts renders the table into the trailing account list of
// an instruction, in index order. Tree and queue accounts are mutated by the
// light system program, so every entry is writable and none sign.
//
// The table is consumed: subsequent attempts to add new keys fail with
// ErrTableConsumed, since any new index would be missing from the returned
// list.
func FormatRemainingAccounts(t *ReferenceTable) []solana.AccountMeta {
	t.consumed = true

	keys := t.Keys()
	metas := make([]solana.AccountMeta, len(keys))
	for i, key := range keys {
		metas[i] = solana.NewAccountMeta(key, false)
	}
	return metas
}
