package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/neinfra/dpr-dashboard/pkg/logger"
)

// updateRetries bounds how often a read-modify-write is replayed after
// losing the version race to a concurrent writer.
const updateRetries = 3

// List is a bounded, JSON-encoded collection stored under a single key.
// Collections are kept newest-first; writes truncate to max entries when
// max > 0.
type List[T any] struct {
	store Store
	key   string
	max   int
}

// NewList builds a list view over key. max <= 0 disables truncation.
func NewList[T any](store Store, key string, max int) *List[T] {
	return &List[T]{store: store, key: key, max: max}
}

// Key returns the storage key the list lives under.
func (l *List[T]) Key() string {
	return l.key
}

// Load returns the stored items and the version stamp to use for a
// subsequent conditional save. An absent key yields an empty list. A
// value that fails to decode yields an empty list together with a
// wrapped ErrCorrupted — the caller can tell the two empties apart.
func (l *List[T]) Load(ctx context.Context) ([]T, int64, error) {
	entry, err := l.store.Get(ctx, l.key)
	if errors.Is(err, ErrNotFound) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}

	var items []T
	if err := json.Unmarshal(entry.Value, &items); err != nil {
		logger.Warn("Stored list is corrupted, treating as empty",
			zap.String("key", l.key),
			zap.Error(err))
		return nil, entry.Version, fmt.Errorf("kvstore: decode %q: %w", l.key, ErrCorrupted)
	}

	return items, entry.Version, nil
}

// Save writes items under the list's key with the given version check.
func (l *List[T]) Save(ctx context.Context, items []T, version int64) (int64, error) {
	items = l.truncate(items)
	encoded, err := json.Marshal(items)
	if err != nil {
		return 0, fmt.Errorf("kvstore: encode %q: %w", l.key, err)
	}
	return l.store.Put(ctx, l.key, encoded, version)
}

// Update applies mutate to the stored items and saves the result with a
// version check, retrying against concurrent writers. A corrupted stored
// value is treated as empty and repaired by the write. The saved items
// are returned.
func (l *List[T]) Update(ctx context.Context, mutate func([]T) []T) ([]T, error) {
	return l.TryUpdate(ctx, func(items []T) ([]T, bool) {
		return mutate(items), true
	})
}

// TryUpdate is Update with an abort path: when mutate reports false the
// stored value is left untouched, no write happens and the loaded items
// are returned as-is. Because a version conflict replays mutate against
// a fresh load, mutate must not carry state across invocations — any
// captured result variables have to be reset on entry.
func (l *List[T]) TryUpdate(ctx context.Context, mutate func([]T) ([]T, bool)) ([]T, error) {
	var lastErr error

	for attempt := 0; attempt < updateRetries; attempt++ {
		items, version, err := l.Load(ctx)
		if err != nil && !IsCorrupted(err) {
			return nil, err
		}

		next, persist := mutate(items)
		next = l.truncate(next)
		if !persist {
			return next, nil
		}

		if _, err := l.Save(ctx, next, version); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return next, nil
	}

	return nil, lastErr
}

func (l *List[T]) truncate(items []T) []T {
	if l.max > 0 && len(items) > l.max {
		items = items[:l.max]
	}
	return items
}

// IsCorrupted reports whether err wraps ErrCorrupted.
func IsCorrupted(err error) bool {
	return errors.Is(err, ErrCorrupted)
}
