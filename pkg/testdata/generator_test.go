package testdata

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordanlanch/realtycrm/pkg/database"
	"github.com/jordanlanch/realtycrm/pkg/database/databasetest"
	"github.com/jordanlanch/realtycrm/pkg/deals"
	"github.com/jordanlanch/realtycrm/pkg/leads"
	"github.com/jordanlanch/realtycrm/pkg/logger"
	"github.com/jordanlanch/realtycrm/pkg/properties"
	"github.com/jordanlanch/realtycrm/pkg/tasks"
)

var seedNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func TestGenerator_PayloadsPassValidation(t *testing.T) {
	v := validator.New()
	g := NewGenerator(42, seedNow)
	agents := []string{"agent-1", "agent-2"}

	for i := 0; i < 50; i++ {
		lead := g.Lead(agents)
		require.NoError(t, v.Struct(lead))
		assert.GreaterOrEqual(t, lead.BudgetMax, lead.Budget)
		assert.Contains(t, agents, lead.AssignedTo)

		prop := g.Property(agents)
		require.NoError(t, v.Struct(prop))
		assert.Contains(t, Cities, prop.City)

		task := g.Task("agent-1", nil, nil)
		require.NoError(t, v.Struct(task))
		require.NotNil(t, task.DueDate)
		assert.True(t, task.DueDate.After(seedNow.Add(-25*time.Hour)))
	}
}

func TestGenerator_SeedIsDeterministic(t *testing.T) {
	a := NewGenerator(7, seedNow)
	b := NewGenerator(7, seedNow)
	for i := 0; i < 5; i++ {
		assert.Equal(t, a.Lead(nil), b.Lead(nil))
		assert.Equal(t, a.Property(nil), b.Property(nil))
	}
}

func TestSeeder_Seed(t *testing.T) {
	db := databasetest.Open(t)
	log := logger.Nop()
	s := &Seeder{
		Gen:        NewGenerator(1, seedNow),
		Agents:     []string{"agent-1"},
		Leads:      leads.NewService(db, nil, log),
		Properties: properties.NewService(db, nil, log),
		Deals:      deals.NewService(db, nil, log),
		Tasks:      tasks.NewService(db, nil, log),
	}

	done, err := s.Seed(context.Background(), SeedCounts{Leads: 6, Properties: 4, Deals: 10, Tasks: 5})
	require.NoError(t, err)
	assert.Equal(t, SeedCounts{Leads: 6, Properties: 4, Deals: 4, Tasks: 5}, done)

	ctx := context.Background()
	for table, want := range map[string]int{
		database.LeadsTable:      6,
		database.PropertiesTable: 4,
		database.DealsTable:      4,
		database.TasksTable:      5,
	} {
		n, err := db.Count(ctx, table)
		require.NoError(t, err)
		assert.Equal(t, want, n, table)
	}
}
