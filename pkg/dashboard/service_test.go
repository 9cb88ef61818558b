package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordanlanch/realtycrm/pkg/database/databasetest"
	"github.com/jordanlanch/realtycrm/pkg/deals"
	"github.com/jordanlanch/realtycrm/pkg/leads"
	"github.com/jordanlanch/realtycrm/pkg/logger"
	"github.com/jordanlanch/realtycrm/pkg/models"
	"github.com/jordanlanch/realtycrm/pkg/notifications"
	"github.com/jordanlanch/realtycrm/pkg/pipeline"
	"github.com/jordanlanch/realtycrm/pkg/properties"
	"github.com/jordanlanch/realtycrm/pkg/tasks"
)

type failingCounter struct{}

func (failingCounter) UnreadCount(context.Context, string) (int, error) {
	return 0, errors.New("redis down")
}

func TestSummary(t *testing.T) {
	db := databasetest.Open(t)
	ctx := context.Background()

	leadSvc := leads.NewService(db, nil, logger.Nop())
	propSvc := properties.NewService(db, nil, logger.Nop())
	dealSvc := deals.NewService(db, nil, logger.Nop())
	taskSvc := tasks.NewService(db, nil, logger.Nop())
	notifSvc := notifications.NewService(db, nil, logger.Nop())

	lead, err := leadSvc.Create(ctx, models.CreateLeadRequest{FirstName: "Ana"}, "agent-1")
	require.NoError(t, err)
	_, err = leadSvc.Create(ctx, models.CreateLeadRequest{FirstName: "Ben"}, "agent-1")
	require.NoError(t, err)
	_, err = leadSvc.Create(ctx, models.CreateLeadRequest{FirstName: "Cy", Status: "lost"}, "agent-1")
	require.NoError(t, err)

	prop, err := propSvc.Create(ctx, models.CreatePropertyRequest{
		Title: "Loft", Address: "1 Main St", City: "Austin", PropertyType: "condo", Price: 300000,
	})
	require.NoError(t, err)
	_, err = dealSvc.Create(ctx, models.CreateDealRequest{LeadID: lead.ID, PropertyID: prop.ID, Status: "legal"})
	require.NoError(t, err)

	_, err = taskSvc.Create(ctx, models.CreateTaskRequest{Title: "Call Ana"}, "agent-1")
	require.NoError(t, err)
	_, err = taskSvc.Create(ctx, models.CreateTaskRequest{Title: "Done", Status: "completed"}, "agent-1")
	require.NoError(t, err)

	_, err = notifSvc.Create(ctx, &models.Notification{UserID: "agent-1", Title: "Hello"})
	require.NoError(t, err)

	svc := NewService(db, taskSvc, notifSvc, logger.Nop())
	summary, err := svc.Summary(ctx, "agent-1")
	require.NoError(t, err)

	assert.Equal(t, 2, summary.LeadsByStatus["new"])
	assert.Equal(t, 1, summary.LeadsByStatus["lost"])
	assert.Equal(t, 0, summary.LeadsByStatus["qualified"])
	assert.Len(t, summary.LeadsByStatus, len(pipeline.CatalogFor(pipeline.KindLead).Statuses()))
	assert.Equal(t, 1, summary.PropertiesByStatus["available"])
	assert.Equal(t, 1, summary.DealsByStatus["legal"])
	assert.Equal(t, 0, summary.DealsByStatus["offer"])
	assert.Equal(t, 1, summary.OpenTasks)
	assert.Equal(t, 1, summary.UnreadNotifications)

	other, err := svc.Summary(ctx, "agent-2")
	require.NoError(t, err)
	assert.Equal(t, 0, other.UnreadNotifications)
}

func TestSummary_UnreadCountFailureIsNotFatal(t *testing.T) {
	db := databasetest.Open(t)
	svc := NewService(db, tasks.NewService(db, nil, logger.Nop()), failingCounter{}, logger.Nop())

	summary, err := svc.Summary(context.Background(), "agent-1")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.UnreadNotifications)
	assert.Equal(t, 0, summary.OpenTasks)
}

func TestStatusCounts_UnknownKind(t *testing.T) {
	db := databasetest.Open(t)
	svc := NewService(db, nil, nil, logger.Nop())
	_, err := svc.StatusCounts(context.Background(), pipeline.Kind("task"))
	require.Error(t, err)
}
