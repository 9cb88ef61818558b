package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jordanlanch/realtycrm/pkg/models"
)

func TestScore(t *testing.T) {
	buyer := &models.Lead{
		Budget:             300000,
		BudgetMax:          400000,
		PreferredLocations: []string{"Austin", "Zilker"},
		PropertyTypes:      []string{"condo"},
	}

	tests := []struct {
		name     string
		lead     *models.Lead
		property *models.Property
		want     int
		reasons  []string
	}{
		{
			name:     "perfect fit",
			lead:     buyer,
			property: &models.Property{City: "Austin", PropertyType: "condo", Price: 350000, Status: "available"},
			want:     100,
			reasons:  []string{"Within budget", "Preferred location: Austin", "Property type: condo", "Available now"},
		},
		{
			name:     "slightly above budget",
			lead:     buyer,
			property: &models.Property{City: "austin", PropertyType: "condo", Price: 430000, Status: "available"},
			want:     80,
			reasons:  []string{"Slightly above budget", "Preferred location: Austin", "Property type: condo", "Available now"},
		},
		{
			name:     "over budget",
			lead:     buyer,
			property: &models.Property{City: "Austin", PropertyType: "condo", Price: 500000, Status: "available"},
			want:     60,
		},
		{
			name:     "neighbourhood in address",
			lead:     buyer,
			property: &models.Property{City: "Round Rock", Address: "12 Zilker Rd", PropertyType: "house", Price: 390000, Status: "pending"},
			want:     70,
			reasons:  []string{"Within budget", "Preferred location: Zilker"},
		},
		{
			name:     "budget only uses a ceiling ten percent above",
			lead:     &models.Lead{Budget: 300000},
			property: &models.Property{City: "Dallas", PropertyType: "house", Price: 320000, Status: "available"},
			want:     60,
			reasons:  []string{"Within budget", "No property type preference", "Available now"},
		},
		{
			name:     "no preferences",
			lead:     &models.Lead{},
			property: &models.Property{City: "Dallas", PropertyType: "land", Price: 90000, Status: "sold"},
			want:     10,
			reasons:  []string{"No property type preference"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.lead, tt.property)
			assert.Equal(t, tt.want, got.Score)
			assert.LessOrEqual(t, got.Score, MaxTotalScore)
			if tt.reasons != nil {
				assert.Equal(t, tt.reasons, got.Reasons)
			}
		})
	}
}
