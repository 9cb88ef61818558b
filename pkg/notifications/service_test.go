package notifications

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordanlanch/realtycrm/pkg/cache"
	"github.com/jordanlanch/realtycrm/pkg/database/databasetest"
	"github.com/jordanlanch/realtycrm/pkg/domain"
	"github.com/jordanlanch/realtycrm/pkg/logger"
	"github.com/jordanlanch/realtycrm/pkg/models"
)

func setupNotificationService(t *testing.T, lc *cache.ListCache) *Service {
	t.Helper()
	db := databasetest.Open(t)
	now := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	return NewService(db, lc, logger.Nop()).WithClock(func() time.Time {
		now = now.Add(time.Second)
		return now
	})
}

func seed(t *testing.T, svc *Service, userID string, n int) []*models.Notification {
	t.Helper()
	out := make([]*models.Notification, 0, n)
	for i := 0; i < n; i++ {
		created, err := svc.Create(context.Background(), &models.Notification{
			UserID:   userID,
			Type:     models.NotificationTaskDue,
			Title:    fmt.Sprintf("Task %d due", i),
			Metadata: map[string]any{"i": i},
		})
		require.NoError(t, err)
		out = append(out, created)
	}
	return out
}

func boolPtr(b bool) *bool { return &b }

func TestList_NewestFirstAndFilters(t *testing.T) {
	svc := setupNotificationService(t, nil)
	ctx := context.Background()
	created := seed(t, svc, "user-1", 3)
	seed(t, svc, "user-2", 1)

	list, err := svc.List(ctx, "user-1", models.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, created[2].ID, list[0].ID)
	assert.Equal(t, created[0].ID, list[2].ID)
	assert.Equal(t, float64(2), list[0].Metadata["i"])

	_, err = svc.MarkRead(ctx, "user-1", created[1].ID)
	require.NoError(t, err)

	unread, err := svc.List(ctx, "user-1", models.NotificationFilter{IsRead: boolPtr(false)})
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	read, err := svc.List(ctx, "user-1", models.NotificationFilter{IsRead: boolPtr(true)})
	require.NoError(t, err)
	require.Len(t, read, 1)
	assert.Equal(t, created[1].ID, read[0].ID)
	assert.NotNil(t, read[0].ReadAt)

	limited, err := svc.List(ctx, "user-1", models.NotificationFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestMarkRead_Idempotent(t *testing.T) {
	svc := setupNotificationService(t, nil)
	ctx := context.Background()
	created := seed(t, svc, "user-1", 2)

	first, err := svc.MarkRead(ctx, "user-1", created[0].ID)
	require.NoError(t, err)
	assert.True(t, first.IsRead)

	second, err := svc.MarkRead(ctx, "user-1", created[0].ID)
	require.NoError(t, err)
	assert.True(t, second.IsRead)
	assert.Equal(t, first.ReadAt, second.ReadAt)

	count, err := svc.UnreadCount(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMarkRead_OtherUsersNotificationIsNotFound(t *testing.T) {
	svc := setupNotificationService(t, nil)
	created := seed(t, svc, "user-1", 1)

	_, err := svc.MarkRead(context.Background(), "user-2", created[0].ID)
	assert.True(t, domain.IsNotFound(err))

	_, err = svc.MarkRead(context.Background(), "user-1", "missing")
	assert.True(t, domain.IsNotFound(err))
}

func TestMarkAllRead_ThenUnreadCountIsZero(t *testing.T) {
	svc := setupNotificationService(t, nil)
	ctx := context.Background()
	seed(t, svc, "user-1", 4)
	seed(t, svc, "user-2", 2)

	updated, err := svc.MarkAllRead(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 4, updated)

	count, err := svc.UnreadCount(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	again, err := svc.MarkAllRead(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, again)

	other, err := svc.UnreadCount(ctx, "user-2")
	require.NoError(t, err)
	assert.Equal(t, 2, other)
}

func TestCreate_Validation(t *testing.T) {
	svc := setupNotificationService(t, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, &models.Notification{Title: "x"})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.Create(ctx, &models.Notification{UserID: "u", Title: "x", Type: "carrier_pigeon"})
	assert.True(t, domain.IsValidation(err))

	n, err := svc.Create(ctx, &models.Notification{UserID: "u", Title: "Welcome"})
	require.NoError(t, err)
	assert.Equal(t, models.NotificationSystem, n.Type)
	assert.False(t, n.IsRead)
}

func TestMutationsInvalidateListAndCount(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rc := cache.NewFromRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), logger.Nop())
	lc := cache.NewListCache(rc, cache.ListCacheConfig{TTLs: map[string]time.Duration{
		ListTTLName:  30 * time.Second,
		CountTTLName: 10 * time.Second,
	}}, logger.Nop())
	svc := setupNotificationService(t, lc)
	ctx := context.Background()
	created := seed(t, svc, "user-1", 2)

	count, err := svc.UnreadCount(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	_, err = svc.List(ctx, "user-1", models.NotificationFilter{})
	require.NoError(t, err)

	countKey := cache.Key(Collection("user-1"), "count")
	assert.True(t, mr.Exists(countKey))
	assert.Equal(t, 10*time.Second, mr.TTL(countKey))
	assert.Len(t, mr.Keys(), 2)

	_, err = svc.MarkRead(ctx, "user-1", created[0].ID)
	require.NoError(t, err)
	assert.Empty(t, mr.Keys())

	count, err = svc.UnreadCount(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	list, err := svc.List(ctx, "user-1", models.NotificationFilter{IsRead: boolPtr(false)})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.MarkAllRead(ctx, "user-1")
	require.NoError(t, err)
	count, err = svc.UnreadCount(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

type typeRecorder struct{ types []string }

func (r *typeRecorder) NotificationCreated(notificationType string) {
	r.types = append(r.types, notificationType)
}

func TestCreate_ReportsToRecorder(t *testing.T) {
	rec := &typeRecorder{}
	svc := setupNotificationService(t, nil).WithRecorder(rec)

	seed(t, svc, "agent-1", 2)
	_, err := svc.Create(context.Background(), &models.Notification{UserID: "agent-1", Title: ""})
	require.Error(t, err)

	assert.Equal(t, []string{models.NotificationTaskDue, models.NotificationTaskDue}, rec.types)
}
