package activity

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/neinfra/dpr-dashboard/internal/notifications"
	"github.com/neinfra/dpr-dashboard/pkg/kvstore"
	"github.com/neinfra/dpr-dashboard/pkg/logger"
)

// DefaultMax caps the stored log; the oldest entries are discarded first.
const DefaultMax = 100

// Notifier is the notification fan-out target.
type Notifier interface {
	Add(ctx context.Context, text string) (notifications.Record, error)
}

// Service is the append-only audit trail shown in the admin monitoring
// views, with optional notification fan-out.
type Service struct {
	list     *kvstore.List[Record]
	notifier Notifier
	now      func() time.Time
	hostname func() (string, error)
}

// NewService creates an activity log over the shared store. notifier may
// be nil when fan-out is not wanted. max <= 0 falls back to DefaultMax.
func NewService(store kvstore.Store, notifier Notifier, max int) *Service {
	if max <= 0 {
		max = DefaultMax
	}
	return &Service{
		list:     kvstore.NewList[Record](store, StorageKey, max),
		notifier: notifier,
		now:      time.Now,
		hostname: os.Hostname,
	}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithHostname overrides hostname resolution, for tests.
func (s *Service) WithHostname(hostname func() (string, error)) *Service {
	s.hostname = hostname
	return s
}

// Record appends one audit entry and returns it. When notify is true an
// admin notification with the composite text "{user} {action}: {details}"
// is created as a side effect.
func (s *Service) Record(ctx context.Context, user, action, details string, module Module, notify bool) (Record, error) {
	now := s.now()
	record := Record{
		ID:        now.UnixMilli(),
		User:      user,
		Action:    action,
		Details:   details,
		Timestamp: now.UnixMilli(),
		Module:    module,
	}
	if host, err := s.hostname(); err == nil {
		record.IP = host
	}

	_, err := s.list.Update(ctx, func(items []Record) []Record {
		return append([]Record{record}, items...)
	})
	if err != nil {
		return Record{}, err
	}

	if notify && s.notifier != nil {
		text := fmt.Sprintf("%s %s: %s", user, action, details)
		if _, err := s.notifier.Add(ctx, text); err != nil {
			logger.Warn("Failed to fan out activity notification",
				zap.String("user", user),
				zap.String("module", string(module)),
				zap.Error(err))
		}
	}

	return record, nil
}

// GetAll returns the stored log, newest first. A corrupted stored value
// yields an empty list plus an error wrapping kvstore.ErrCorrupted.
func (s *Service) GetAll(ctx context.Context) ([]Record, error) {
	items, _, err := s.list.Load(ctx)
	return items, err
}

// GetByModule filters the log by exact module match.
func (s *Service) GetByModule(ctx context.Context, module Module) ([]Record, error) {
	items, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]Record, 0, len(items))
	for _, item := range items {
		if item.Module == module {
			filtered = append(filtered, item)
		}
	}
	return filtered, nil
}

// GetByUser filters the log by exact user string match (case-sensitive,
// no normalization).
func (s *Service) GetByUser(ctx context.Context, user string) ([]Record, error) {
	items, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]Record, 0, len(items))
	for _, item := range items {
		if item.User == user {
			filtered = append(filtered, item)
		}
	}
	return filtered, nil
}

// FormatTimestamp converts epoch milliseconds to a display string. A
// missing or nonsensical timestamp yields the sentinel "Invalid date" —
// it never fails.
func FormatTimestamp(ms int64) string {
	if ms <= 0 {
		return "Invalid date"
	}
	return time.UnixMilli(ms).Format("Jan 02, 2006, 3:04:05 PM")
}
