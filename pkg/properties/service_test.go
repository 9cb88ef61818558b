package properties

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordanlanch/realtycrm/pkg/database/databasetest"
	"github.com/jordanlanch/realtycrm/pkg/domain"
	"github.com/jordanlanch/realtycrm/pkg/logger"
	"github.com/jordanlanch/realtycrm/pkg/models"
)

func setupPropertyService(t *testing.T) *Service {
	t.Helper()
	db := databasetest.Open(t)
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	return NewService(db, nil, logger.Nop()).WithClock(func() time.Time {
		now = now.Add(time.Minute)
		return now
	})
}

func createProperty(t *testing.T, svc *Service, title, city, status string, price float64) *models.Property {
	t.Helper()
	p, err := svc.Create(context.Background(), models.CreatePropertyRequest{
		Title:        title,
		Address:      "1 Main St",
		City:         city,
		PropertyType: "house",
		Status:       status,
		Price:        price,
		Bedrooms:     3,
		Bathrooms:    2,
	})
	require.NoError(t, err)
	return p
}

func TestCreate_StatusDefaultsAndAliases(t *testing.T) {
	svc := setupPropertyService(t)

	p := createProperty(t, svc, "Sunny house", "Austin", "", 350000)
	assert.Equal(t, models.PropertyStatusAvailable, p.Status)
	assert.Equal(t, []string{}, p.Images)

	p = createProperty(t, svc, "Loft", "Austin", "under_contract", 420000)
	assert.Equal(t, models.PropertyStatusPending, p.Status)

	_, err := svc.Create(context.Background(), models.CreatePropertyRequest{
		Title: "Bad", Address: "x", City: "y", PropertyType: "house", Status: "demolished",
	})
	assert.True(t, domain.IsValidation(err))
}

func TestList_Filters(t *testing.T) {
	svc := setupPropertyService(t)
	ctx := context.Background()

	createProperty(t, svc, "A", "Austin", "available", 200000)
	createProperty(t, svc, "B", "austin", "sold", 500000)
	createProperty(t, svc, "C", "Denver", "available", 800000)

	res, err := svc.List(ctx, models.PropertyFilter{City: "AUSTIN"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)

	res, err = svc.List(ctx, models.PropertyFilter{Status: "available", MaxPrice: 600000})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "A", res.Data[0].Title)

	res, err = svc.List(ctx, models.PropertyFilter{MinPrice: 400000})
	require.NoError(t, err)
	require.Len(t, res.Data, 2)
	assert.Equal(t, "C", res.Data[0].Title, "newest first")

	all, err := svc.All(ctx, models.PropertyFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUpdateAndAddImage(t *testing.T) {
	svc := setupPropertyService(t)
	ctx := context.Background()
	p := createProperty(t, svc, "A", "Austin", "", 200000)

	price := 210000.0
	updated, err := svc.Update(ctx, p.ID, models.UpdatePropertyRequest{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, 210000.0, updated.Price)
	assert.Equal(t, "A", updated.Title)

	withImage, err := svc.AddImage(ctx, p.ID, "https://cdn.example.com/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.example.com/a.jpg"}, withImage.Images)

	reloaded, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, withImage.Images, reloaded.Images)

	empty := ""
	_, err = svc.Update(ctx, p.ID, models.UpdatePropertyRequest{Title: &empty})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.AddImage(ctx, "missing", "https://cdn.example.com/b.jpg")
	assert.True(t, domain.IsNotFound(err))
}

func TestStatusRoundTrip(t *testing.T) {
	svc := setupPropertyService(t)
	ctx := context.Background()
	p := createProperty(t, svc, "A", "Austin", "", 200000)

	at := time.Date(2026, 5, 5, 5, 5, 5, 0, time.UTC)
	item, err := svc.SetStatus(ctx, p.ID, "sold", at)
	require.NoError(t, err)
	assert.Equal(t, "sold", item.(*models.Property).Status)
	assert.Equal(t, at, item.(*models.Property).UpdatedAt)

	status, err := svc.GetStatus(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "sold", status)

	_, err = svc.GetStatus(ctx, "missing")
	assert.True(t, domain.IsNotFound(err))
}
