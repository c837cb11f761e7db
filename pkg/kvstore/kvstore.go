// Package kvstore is the shared persistence layer for dashboard state.
// Every collection (notifications, activity log, language preference,
// DPR records) lives under a named key as JSON-encoded text, behind a
// small repository interface with optimistic-concurrency version stamps
// so concurrent writers fail loudly instead of silently losing updates.
package kvstore

import (
	"context"
	"errors"
)

// VersionAny disables the optimistic-concurrency check: the write always
// applies (last write wins).
const VersionAny int64 = -1

var (
	// ErrNotFound is returned when a key has never been written.
	ErrNotFound = errors.New("kvstore: key not found")

	// ErrVersionConflict is returned when a conditional Put loses the race
	// against another writer.
	ErrVersionConflict = errors.New("kvstore: version conflict")

	// ErrCorrupted marks a stored value that could not be decoded. Callers
	// can distinguish "empty because no data" (ErrNotFound) from "empty
	// because corrupted".
	ErrCorrupted = errors.New("kvstore: corrupted value")
)

// Entry is a stored value together with its version stamp.
type Entry struct {
	Value   []byte
	Version int64
}

// Store is the repository interface over the shared key-value state.
// Versions start at 0 for an absent key and increase by one on every
// successful Put.
type Store interface {
	// Get returns the entry stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (Entry, error)

	// Put writes value under key. When version >= 0 the write only applies
	// if the stored version still matches (0 = create-if-absent); otherwise
	// ErrVersionConflict is returned. VersionAny writes unconditionally.
	// The new version is returned on success.
	Put(ctx context.Context, key string, value []byte, version int64) (int64, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
