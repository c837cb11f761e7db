package notifications

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/neinfra/dpr-dashboard/pkg/kvstore"
	"github.com/neinfra/dpr-dashboard/pkg/logger"
)

// DefaultMax caps the stored list; the oldest entries are discarded first.
const DefaultMax = 50

// Service maintains the bounded, newest-first notification list backing
// the admin badge and dropdown.
type Service struct {
	list *kvstore.List[Record]
	now  func() time.Time
}

// NewService creates a notification service over the shared store.
// max <= 0 falls back to DefaultMax.
func NewService(store kvstore.Store, max int) *Service {
	if max <= 0 {
		max = DefaultMax
	}
	return &Service{
		list: kvstore.NewList[Record](store, StorageKey, max),
		now:  time.Now,
	}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Add creates an unread notification, prepends it to the stored list and
// returns it. The relative-time string is computed once, here.
func (s *Service) Add(ctx context.Context, text string) (Record, error) {
	now := s.now()
	record := Record{
		ID:   now.UnixMilli(),
		Text: text,
		Time: RelativeTime(now, now),
		Read: false,
	}

	_, err := s.list.Update(ctx, func(items []Record) []Record {
		return append([]Record{record}, items...)
	})
	if err != nil {
		return Record{}, err
	}

	logger.Debug("Added admin notification",
		zap.Int64("id", record.ID),
		zap.String("text", text))
	return record, nil
}

// GetAll returns the stored list, newest first. A corrupted stored value
// yields an empty list together with an error wrapping
// kvstore.ErrCorrupted, so callers can tell it apart from "no data yet".
func (s *Service) GetAll(ctx context.Context) ([]Record, error) {
	items, _, err := s.list.Load(ctx)
	return items, err
}

// UnreadCount returns the number of unread notifications.
func (s *Service) UnreadCount(ctx context.Context) (int, error) {
	items, _, err := s.list.Load(ctx)
	if err != nil && !kvstore.IsCorrupted(err) {
		return 0, err
	}

	count := 0
	for _, item := range items {
		if !item.Read {
			count++
		}
	}
	return count, nil
}

// MarkAllRead sets the read flag on every stored notification.
func (s *Service) MarkAllRead(ctx context.Context) error {
	_, err := s.list.Update(ctx, func(items []Record) []Record {
		for i := range items {
			items[i].Read = true
		}
		return items
	})
	return err
}

// MarkRead sets the read flag on the notification with the given id.
// The list is persisted even when no record matches.
func (s *Service) MarkRead(ctx context.Context, id int64) error {
	_, err := s.list.Update(ctx, func(items []Record) []Record {
		for i := range items {
			if items[i].ID == id {
				items[i].Read = true
			}
		}
		return items
	})
	return err
}

// Delete removes the notification with the given id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	_, err := s.list.Update(ctx, func(items []Record) []Record {
		kept := items[:0]
		for _, item := range items {
			if item.ID != id {
				kept = append(kept, item)
			}
		}
		return kept
	})
	return err
}

// DeleteAllRead removes every notification already marked read.
func (s *Service) DeleteAllRead(ctx context.Context) error {
	_, err := s.list.Update(ctx, func(items []Record) []Record {
		kept := items[:0]
		for _, item := range items {
			if !item.Read {
				kept = append(kept, item)
			}
		}
		return kept
	})
	return err
}
