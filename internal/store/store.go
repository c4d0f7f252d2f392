// Package store provides the keyed snapshot store the trade system persists
// through: full-snapshot reads and overwrite-style writes keyed by kind and id.
//
// The store offers no per-key locking and no cross-key transactions. Callers
// that mutate several records treat the sequence of upserts as atomic from
// their own point of view; a concurrent writer working from a stale read can
// clobber an update. The system runs single-admin / low-concurrency and
// accepts that risk.
package store

import (
	"context"
	"errors"
)

// Kind names a record family.
type Kind string

const (
	KindTrader       Kind = "trader"
	KindTradableItem Kind = "tradableItem"
	KindTrade        Kind = "trade"
)

// ErrNotFound is returned by Get when no record exists for the id.
var ErrNotFound = errors.New("record not found")

// Store is a keyed snapshot store.
type Store interface {
	// Get returns the snapshot for id, or ErrNotFound.
	Get(ctx context.Context, kind Kind, id string) ([]byte, error)

	// Upsert overwrites the snapshot for id and returns the previous
	// snapshot, or the new one if no record existed.
	Upsert(ctx context.Context, kind Kind, id string, snapshot []byte) ([]byte, error)

	// Delete removes the record for id. Deleting an absent record is a no-op.
	Delete(ctx context.Context, kind Kind, id string) error

	// ListIDs returns the ids of every record of the kind, in no particular
	// order.
	ListIDs(ctx context.Context, kind Kind) ([]string, error)
}
