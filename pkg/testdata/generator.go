package testdata

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/jordanlanch/realtycrm/pkg/models"
)

// Cities are the markets seeded leads and listings are spread over
var Cities = []string{
	"Austin", "Denver", "Miami", "Seattle", "Phoenix",
	"Nashville", "Portland", "San Diego", "Charlotte", "Tampa",
}

var (
	propertyTypes  = []string{"house", "apartment", "condo", "townhouse", "land", "commercial"}
	leadSources    = []string{"website", "referral", "zillow", "walk_in", "social", "open_house", "other"}
	leadStatuses   = []string{"new", "new", "contacted", "qualified", "tour", "offer", "closed", "lost", "nurturing"}
	listingStates  = []string{"available", "available", "available", "pending", "sold", "withdrawn"}
	dealStatuses   = []string{"offer", "inspection", "legal", "payment", "handover", "lost"}
	taskTypes      = []string{"call", "email", "meeting", "showing", "follow_up", "paperwork", "other"}
	taskPriority   = []string{"low", "medium", "medium", "high", "urgent"}
	streetSuffix   = []string{"Lane", "Street", "Avenue", "Court", "Drive", "Way"}
	titleAdjective = []string{"Sunny", "Modern", "Charming", "Spacious", "Renovated", "Cozy", "Luxury", "Quiet"}
)

// Generator builds fake CRM payloads. Equal seeds produce equal output.
type Generator struct {
	faker *gofakeit.Faker
	now   time.Time
}

// NewGenerator creates a generator. A zero seed draws a random one.
func NewGenerator(seed int64, now time.Time) *Generator {
	return &Generator{faker: gofakeit.New(seed), now: now.UTC()}
}

func (g *Generator) pick(values []string) string {
	return g.faker.RandomString(values)
}

func (g *Generator) chance(p float64) bool {
	return g.faker.Float64Range(0, 1) < p
}

// Lead returns a lead form payload assigned to one of agents
func (g *Generator) Lead(agents []string) models.CreateLeadRequest {
	budget := float64(g.faker.Number(15, 120)) * 10000
	req := models.CreateLeadRequest{
		FirstName:          g.faker.FirstName(),
		LastName:           g.faker.LastName(),
		Source:             g.pick(leadSources),
		Status:             g.pick(leadStatuses),
		Score:              g.faker.Number(0, 100),
		Budget:             budget,
		BudgetMax:          budget * (1 + float64(g.faker.Number(0, 25))/100),
		PreferredLocations: []string{g.pick(Cities)},
		PropertyTypes:      []string{g.pick(propertyTypes)},
		Notes:              g.faker.Sentence(12),
	}
	if g.chance(0.85) {
		req.Email = g.faker.Email()
	}
	if g.chance(0.7) {
		req.Phone = "+1" + g.faker.Phone()
		req.Country = "US"
	}
	if g.chance(0.3) {
		req.PreferredLocations = append(req.PreferredLocations, g.pick(Cities))
	}
	if len(agents) > 0 {
		req.AssignedTo = g.pick(agents)
	}
	return req
}

// Property returns a listing payload listed by one of agents
func (g *Generator) Property(agents []string) models.CreatePropertyRequest {
	kind := g.pick(propertyTypes)
	city := g.pick(Cities)
	bedrooms := g.faker.Number(1, 6)
	if kind == "land" || kind == "commercial" {
		bedrooms = 0
	}

	req := models.CreatePropertyRequest{
		Title:        fmt.Sprintf("%s %s in %s", g.pick(titleAdjective), kind, city),
		Address:      fmt.Sprintf("%d %s %s", g.faker.Number(10, 9999), g.faker.LastName(), g.pick(streetSuffix)),
		City:         city,
		State:        g.faker.StateAbr(),
		ZipCode:      g.faker.Zip(),
		PropertyType: kind,
		Status:       g.pick(listingStates),
		Price:        float64(g.faker.Number(12, 150)) * 10000,
		Bedrooms:     bedrooms,
		Bathrooms:    float64(g.faker.Number(2, 8)) / 2,
		SquareFeet:   g.faker.Number(450, 5200),
		Description:  g.faker.Paragraph(1, 3, 12, " "),
	}
	if len(agents) > 0 {
		req.ListingAgent = g.pick(agents)
	}
	return req
}

// Deal returns a deal payload linking an existing lead and property
func (g *Generator) Deal(leadID, propertyID, agent string, price float64) models.CreateDealRequest {
	offer := price * (0.9 + float64(g.faker.Number(0, 12))/100)
	closeDate := g.now.AddDate(0, 0, g.faker.Number(7, 90))
	return models.CreateDealRequest{
		LeadID:            leadID,
		PropertyID:        propertyID,
		Status:            g.pick(dealStatuses),
		DealValue:         price,
		OfferAmount:       offer,
		Commission:        offer * 0.03,
		ExpectedCloseDate: &closeDate,
		Notes:             g.faker.Sentence(10),
		AssignedTo:        agent,
	}
}

// Task returns a task payload optionally attached to a lead and a deal.
// Due dates fall between one day ago and two weeks ahead.
func (g *Generator) Task(agent string, leadID, dealID *string) models.CreateTaskRequest {
	due := g.now.Add(time.Duration(g.faker.Number(-24, 14*24)) * time.Hour)
	kind := g.pick(taskTypes)
	return models.CreateTaskRequest{
		Title:      fmt.Sprintf("%s: %s", kind, g.faker.Sentence(4)),
		Type:       kind,
		Priority:   g.pick(taskPriority),
		DueDate:    &due,
		LeadID:     leadID,
		DealID:     dealID,
		AssignedTo: agent,
	}
}
