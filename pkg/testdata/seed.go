package testdata

import (
	"context"
	"fmt"

	"github.com/jordanlanch/realtycrm/pkg/models"
)

// LeadCreator stores leads
type LeadCreator interface {
	Create(ctx context.Context, req models.CreateLeadRequest, actorID string) (*models.Lead, error)
}

// PropertyCreator stores properties
type PropertyCreator interface {
	Create(ctx context.Context, req models.CreatePropertyRequest) (*models.Property, error)
}

// DealCreator stores deals
type DealCreator interface {
	Create(ctx context.Context, req models.CreateDealRequest) (*models.Deal, error)
}

// TaskCreator stores tasks
type TaskCreator interface {
	Create(ctx context.Context, req models.CreateTaskRequest, actorID string) (*models.Task, error)
}

// SeedCounts sets how many records of each kind to create
type SeedCounts struct {
	Leads      int
	Properties int
	Deals      int
	Tasks      int
}

// Seeder writes generated records through the regular services
type Seeder struct {
	Gen        *Generator
	Agents     []string
	Leads      LeadCreator
	Properties PropertyCreator
	Deals      DealCreator
	Tasks      TaskCreator
}

// Seed creates leads and properties first, then deals pairing them and
// tasks attached to the new leads and deals. Deals are capped at the
// number of leads and properties.
func (s *Seeder) Seed(ctx context.Context, counts SeedCounts) (SeedCounts, error) {
	var done SeedCounts
	actor := ""
	if len(s.Agents) > 0 {
		actor = s.Agents[0]
	}

	leads := make([]*models.Lead, 0, counts.Leads)
	for i := 0; i < counts.Leads; i++ {
		l, err := s.Leads.Create(ctx, s.Gen.Lead(s.Agents), actor)
		if err != nil {
			return done, fmt.Errorf("seed lead %d: %w", i, err)
		}
		leads = append(leads, l)
		done.Leads++
	}

	props := make([]*models.Property, 0, counts.Properties)
	for i := 0; i < counts.Properties; i++ {
		p, err := s.Properties.Create(ctx, s.Gen.Property(s.Agents))
		if err != nil {
			return done, fmt.Errorf("seed property %d: %w", i, err)
		}
		props = append(props, p)
		done.Properties++
	}

	dealCount := min(counts.Deals, len(leads), len(props))
	deals := make([]*models.Deal, 0, dealCount)
	for i := 0; i < dealCount; i++ {
		l, p := leads[i], props[i]
		d, err := s.Deals.Create(ctx, s.Gen.Deal(l.ID, p.ID, l.AssignedTo, p.Price))
		if err != nil {
			return done, fmt.Errorf("seed deal %d: %w", i, err)
		}
		deals = append(deals, d)
		done.Deals++
	}

	for i := 0; i < counts.Tasks; i++ {
		var leadID, dealID *string
		agent := actor
		if len(leads) > 0 {
			l := leads[i%len(leads)]
			leadID, agent = &l.ID, l.AssignedTo
		}
		if len(deals) > 0 && i%3 == 0 {
			dealID = &deals[i%len(deals)].ID
		}
		if _, err := s.Tasks.Create(ctx, s.Gen.Task(agent, leadID, dealID), actor); err != nil {
			return done, fmt.Errorf("seed task %d: %w", i, err)
		}
		done.Tasks++
	}

	return done, nil
}
