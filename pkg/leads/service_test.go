package leads

import (
	"context"
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

type recordingNotifier struct {
	sent []*models.Notification
}

func (r *recordingNotifier) Create(_ context.Context, n *models.Notification) (*models.Notification, error) {
	r.sent = append(r.sent, n)
	return n, nil
}

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func setupLeadService(t *testing.T) (*Service, *recordingNotifier) {
	t.Helper()
	db := databasetest.Open(t)
	clock := &testClock{t: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)}
	n := &recordingNotifier{}
	svc := NewService(db, nil, logger.Nop()).WithNotifier(n).WithClock(clock.now)
	return svc, n
}

func TestCreate_DefaultsAndNormalization(t *testing.T) {
	svc, _ := setupLeadService(t)
	ctx := context.Background()

	lead, err := svc.Create(ctx, models.CreateLeadRequest{
		FirstName: "  Ana ",
		LastName:  "Lopez",
		Email:     "Ana@Example.COM",
		Phone:     "(650) 253-0000",
	}, "agent-1")
	require.NoError(t, err)

	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, "Ana", lead.FirstName)
	assert.Equal(t, "ana@example.com", lead.Email)
	assert.Equal(t, "+16502530000", lead.Phone)
	assert.Equal(t, models.LeadStatusNew, lead.Status)
	assert.Equal(t, "agent-1", lead.CreatedBy)
	assert.Equal(t, []string{}, lead.PreferredLocations)

	got, err := svc.Get(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, lead.Phone, got.Phone)
	assert.Equal(t, lead.CreatedAt, got.CreatedAt)
	assert.Equal(t, "Ana Lopez", got.FullName())
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := setupLeadService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, models.CreateLeadRequest{FirstName: "Ana", Status: "won"}, "agent-1")
	assert.True(t, domain.IsValidation(err))

	_, err = svc.Create(ctx, models.CreateLeadRequest{FirstName: "  "}, "agent-1")
	assert.True(t, domain.IsValidation(err))

	_, err = svc.Create(ctx, models.CreateLeadRequest{FirstName: "Ana", Budget: 500000, BudgetMax: 100}, "agent-1")
	assert.True(t, domain.IsValidation(err))
}

func TestGet_NotFound(t *testing.T) {
	svc, _ := setupLeadService(t)

	_, err := svc.Get(context.Background(), "00000000-0000-0000-0000-000000000000")
	assert.True(t, domain.IsNotFound(err))

	_, err = svc.GetStatus(context.Background(), "missing")
	assert.True(t, domain.IsNotFound(err))
}

func TestList_FiltersAndOrdering(t *testing.T) {
	svc, _ := setupLeadService(t)
	ctx := context.Background()

	for _, req := range []models.CreateLeadRequest{
		{FirstName: "Ana", Status: "new", AssignedTo: "agent-1"},
		{FirstName: "Bruno", Status: "contacted"},
		{FirstName: "Carla", Status: "new", Email: "carla@brokers.io"},
	} {
		_, err := svc.Create(ctx, req, "agent-1")
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, models.LeadFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Total)
	assert.Equal(t, models.DefaultListLimit, all.Limit)
	require.Len(t, all.Data, 3)
	assert.Equal(t, "Carla", all.Data[0].FirstName, "newest first")

	byStatus, err := svc.List(ctx, models.LeadFilter{Status: "new"})
	require.NoError(t, err)
	assert.Equal(t, 2, byStatus.Total)

	search, err := svc.List(ctx, models.LeadFilter{Q: "BROKERS"})
	require.NoError(t, err)
	require.Len(t, search.Data, 1)
	assert.Equal(t, "Carla", search.Data[0].FirstName)

	page, err := svc.List(ctx, models.LeadFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Bruno", page.Data[0].FirstName)
}

func TestUpdate_PartialAndAssignmentNotification(t *testing.T) {
	svc, notifier := setupLeadService(t)
	ctx := context.Background()

	lead, err := svc.Create(ctx, models.CreateLeadRequest{FirstName: "Ana", Score: 40}, "agent-1")
	require.NoError(t, err)
	assert.Empty(t, notifier.sent)

	score := 75
	assignee := "agent-9"
	updated, err := svc.Update(ctx, lead.ID, models.UpdateLeadRequest{Score: &score, AssignedTo: &assignee}, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, 75, updated.Score)
	assert.Equal(t, "Ana", updated.FirstName)
	assert.Equal(t, models.LeadStatusNew, updated.Status)
	assert.True(t, updated.UpdatedAt.After(lead.UpdatedAt))

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "agent-9", notifier.sent[0].UserID)
	assert.Equal(t, models.NotificationLeadAssigned, notifier.sent[0].Type)

	// Same assignee again does not notify twice.
	_, err = svc.Update(ctx, lead.ID, models.UpdateLeadRequest{AssignedTo: &assignee}, "agent-1")
	require.NoError(t, err)
	assert.Len(t, notifier.sent, 1)

	_, err = svc.Update(ctx, "missing", models.UpdateLeadRequest{Score: &score}, "agent-1")
	assert.True(t, domain.IsNotFound(err))
}

func TestSetStatus(t *testing.T) {
	svc, _ := setupLeadService(t)
	ctx := context.Background()

	lead, err := svc.Create(ctx, models.CreateLeadRequest{FirstName: "Ana"}, "agent-1")
	require.NoError(t, err)

	at := time.Date(2026, 2, 1, 8, 30, 0, 0, time.UTC)
	item, err := svc.SetStatus(ctx, lead.ID, "qualified", at)
	require.NoError(t, err)
	moved := item.(*models.Lead)
	assert.Equal(t, "qualified", moved.Status)
	assert.Equal(t, at, moved.UpdatedAt)

	status, err := svc.GetStatus(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "qualified", status)

	_, err = svc.SetStatus(ctx, "missing", "qualified", at)
	assert.True(t, domain.IsNotFound(err))
}

func TestList_CacheInvalidatedOnWrite(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rc := cache.NewFromRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), logger.Nop())
	lc := cache.NewListCache(rc, cache.ListCacheConfig{TTLs: map[string]time.Duration{Collection: 30 * time.Second}}, logger.Nop())

	db := databasetest.Open(t)
	svc := NewService(db, lc, logger.Nop())
	ctx := context.Background()

	_, err = svc.Create(ctx, models.CreateLeadRequest{FirstName: "Ana"}, "agent-1")
	require.NoError(t, err)

	first, err := svc.List(ctx, models.LeadFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Total)
	assert.NotEmpty(t, mr.Keys())

	_, err = svc.Create(ctx, models.CreateLeadRequest{FirstName: "Bruno"}, "agent-1")
	require.NoError(t, err)
	assert.Empty(t, mr.Keys(), "write drops the collection's cached lists")

	second, err := svc.List(ctx, models.LeadFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Total)
}
