package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neinfra/dpr-dashboard/pkg/kvstore"
)

// steppingClock returns a clock that advances by one millisecond per call,
// so successive Add calls get distinct ids.
func steppingClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Millisecond)
		return current
	}
}

func newTestService() (*Service, kvstore.Store) {
	store := kvstore.NewMemory()
	svc := NewService(store, DefaultMax).
		WithNow(steppingClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)))
	return svc, store
}

func TestAdd_NewestFirst(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Add(ctx, "Test A")
	require.NoError(t, err)
	_, err = svc.Add(ctx, "Test B")
	require.NoError(t, err)

	items, err := svc.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Test B", items[0].Text)
	assert.Equal(t, "Test A", items[1].Text)
	assert.False(t, items[0].Read)
	assert.False(t, items[1].Read)
}

func TestAdd_ReturnsCreatedRecord(t *testing.T) {
	svc, _ := newTestService()

	record, err := svc.Add(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, "hello", record.Text)
	assert.Equal(t, "just now", record.Time)
	assert.False(t, record.Read)
	assert.NotZero(t, record.ID)
}

func TestAdd_CapsAtFifty(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for i := 0; i < 55; i++ {
		_, err := svc.Add(ctx, "n")
		require.NoError(t, err)
	}

	items, err := svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 50)

	// Newest-first ordering holds across the whole list.
	for i := 1; i < len(items); i++ {
		assert.GreaterOrEqual(t, items[i-1].ID, items[i].ID)
	}
}

func TestMarkAllRead(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Add(ctx, "n")
		require.NoError(t, err)
	}

	require.NoError(t, svc.MarkAllRead(ctx))

	items, err := svc.GetAll(ctx)
	require.NoError(t, err)
	for _, item := range items {
		assert.True(t, item.Read)
	}
}

func TestMarkRead_OnlyMatchingRecord(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Add(ctx, "Test A")
	require.NoError(t, err)
	b, err := svc.Add(ctx, "Test B")
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(ctx, b.ID))

	items, err := svc.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.True(t, items[0].Read)  // B
	assert.False(t, items[1].Read) // A
}

func TestMarkRead_NoMatchStillPersists(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	_, err := svc.Add(ctx, "n")
	require.NoError(t, err)
	before, err := store.Get(ctx, StorageKey)
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(ctx, 12345))

	after, err := store.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.Greater(t, after.Version, before.Version)
}

func TestDelete_RemovesExactlyOne(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	a, err := svc.Add(ctx, "a")
	require.NoError(t, err)
	b, err := svc.Add(ctx, "b")
	require.NoError(t, err)
	c, err := svc.Add(ctx, "c")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, b.ID))

	items, err := svc.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, c.ID, items[0].ID)
	assert.Equal(t, a.ID, items[1].ID)
}

func TestDeleteAllRead(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Add(ctx, "keep")
	require.NoError(t, err)
	read, err := svc.Add(ctx, "drop")
	require.NoError(t, err)
	require.NoError(t, svc.MarkRead(ctx, read.ID))

	require.NoError(t, svc.DeleteAllRead(ctx))

	items, err := svc.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "keep", items[0].Text)
}

func TestUnreadCount(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := svc.Add(ctx, "n")
		require.NoError(t, err)
	}
	items, err := svc.GetAll(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.MarkRead(ctx, items[0].ID))

	count, err := svc.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestGetAll_CorruptedStoreYieldsEmptyAndTypedError(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	_, err := store.Put(ctx, StorageKey, []byte("{broken"), kvstore.VersionAny)
	require.NoError(t, err)

	items, err := svc.GetAll(ctx)
	assert.Empty(t, items)
	assert.True(t, kvstore.IsCorrupted(err))
}

func TestAdd_RepairsCorruptedStore(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	_, err := store.Put(ctx, StorageKey, []byte("{broken"), kvstore.VersionAny)
	require.NoError(t, err)

	_, err = svc.Add(ctx, "fresh start")
	require.NoError(t, err)

	items, err := svc.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "fresh start", items[0].Text)
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		t        time.Time
		expected string
	}{
		{"same instant", now, "just now"},
		{"under a minute", now.Add(-59 * time.Second), "just now"},
		{"one minute", now.Add(-1 * time.Minute), "1 minute ago"},
		{"five minutes", now.Add(-5 * time.Minute), "5 minutes ago"},
		{"one hour", now.Add(-1 * time.Hour), "1 hour ago"},
		{"three hours", now.Add(-3 * time.Hour), "3 hours ago"},
		{"one day", now.Add(-24 * time.Hour), "1 day ago"},
		{"ten days", now.Add(-10 * 24 * time.Hour), "10 days ago"},
		{"beyond thirty days", now.Add(-40 * 24 * time.Hour), "Jan 29, 2025"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RelativeTime(tt.t, now))
		})
	}
}
