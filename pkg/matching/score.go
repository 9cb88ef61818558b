package matching

import (
	"fmt"
	"strings"

	"github.com/jordanlanch/realtycrm/pkg/models"
)

// Scoring weights
const (
	// Budget fit (40 points max)
	ScoreWithinBudget = 40
	ScoreNearBudget   = 20 // up to BudgetTolerance above the ceiling
	BudgetTolerance   = 0.10
	ceilingFromBudget = 1.10 // ceiling used when only budget is set

	// Location (30 points max)
	ScorePreferredLocation = 30

	// Property type (20 points max)
	ScorePropertyType     = 20
	ScoreNoTypePreference = 10

	// Availability (10 points max)
	ScoreAvailable = 10

	MaxTotalScore = 100
)

// DefaultThreshold is the minimum score kept as a suggestion
const DefaultThreshold = 50

// Result is a scored lead/property pair
type Result struct {
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}

// Score rates how well a property fits a lead's stated preferences.
// It is a pure function of the two records.
func Score(l *models.Lead, p *models.Property) Result {
	res := Result{Reasons: []string{}}
	add := func(points int, reason string) {
		res.Score += points
		res.Reasons = append(res.Reasons, reason)
	}

	if ceiling := budgetCeiling(l); ceiling > 0 {
		switch {
		case p.Price <= ceiling:
			add(ScoreWithinBudget, "Within budget")
		case p.Price <= ceiling*(1+BudgetTolerance):
			add(ScoreNearBudget, "Slightly above budget")
		}
	}

	if loc, ok := matchLocation(l.PreferredLocations, p); ok {
		add(ScorePreferredLocation, fmt.Sprintf("Preferred location: %s", loc))
	}

	if len(l.PropertyTypes) == 0 {
		add(ScoreNoTypePreference, "No property type preference")
	} else {
		for _, t := range l.PropertyTypes {
			if strings.EqualFold(t, p.PropertyType) {
				add(ScorePropertyType, fmt.Sprintf("Property type: %s", p.PropertyType))
				break
			}
		}
	}

	if p.Status == models.PropertyStatusAvailable {
		add(ScoreAvailable, "Available now")
	}

	if res.Score > MaxTotalScore {
		res.Score = MaxTotalScore
	}
	return res
}

func budgetCeiling(l *models.Lead) float64 {
	if l.BudgetMax > 0 {
		return l.BudgetMax
	}
	return l.Budget * ceilingFromBudget
}

func matchLocation(preferred []string, p *models.Property) (string, bool) {
	city := strings.ToLower(p.City)
	address := strings.ToLower(p.Address)
	for _, loc := range preferred {
		want := strings.ToLower(strings.TrimSpace(loc))
		if want == "" {
			continue
		}
		if want == city || strings.Contains(address, want) || strings.Contains(city, want) {
			return loc, true
		}
	}
	return "", false
}
