package repositories

import (
	"github.com/ak/griddle/internal/domain/repositories"
	"github.com/ak/griddle/internal/infrastructure/database"
)

// Provider holds all repository instances
type Provider struct {
	Recipe         repositories.RecipeRepository
	History        repositories.HistoryRepository
	Recommendation repositories.RecommendationRepository
	Preference     repositories.PreferenceRepository
	Statistics     repositories.StatisticsRepository
}

// NewProvider creates a new repository provider backed by MongoDB
func NewProvider(db *database.MongoDB) *Provider {
	return &Provider{
		Recipe:         NewRecipeRepository(db),
		History:        NewHistoryRepository(db),
		Recommendation: NewRecommendationRepository(db),
		Preference:     NewPreferenceRepository(db),
		Statistics:     NewStatisticsRepository(db),
	}
}
