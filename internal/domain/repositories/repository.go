package repositories

import (
	"context"

	"github.com/ak/griddle/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RecipeRepository defines operations for recipe data access
type RecipeRepository interface {
	Create(ctx context.Context, recipe *models.Recipe) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Recipe, error)
	GetByName(ctx context.Context, name string) (*models.Recipe, error)
	GetDefault(ctx context.Context) (*models.Recipe, error)
	Update(ctx context.Context, recipe *models.Recipe) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context) ([]*models.Recipe, error)
}

// HistoryRepository defines operations for cook history data access.
// Records are immutable once created; only deletion is supported.
type HistoryRepository interface {
	Create(ctx context.Context, record *models.HistoryRecord) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.HistoryRecord, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	// ListByRecipe returns up to limit records for the recipe, newest first.
	// A limit <= 0 returns all records.
	ListByRecipe(ctx context.Context, recipeID primitive.ObjectID, limit int) ([]*models.HistoryRecord, error)
	ListAll(ctx context.Context) ([]*models.HistoryRecord, error)
	DeleteByRecipe(ctx context.Context, recipeID primitive.ObjectID) (int64, error)
	// AdoptOrphans assigns every record with no recipe reference to the
	// given recipe, returning how many were adopted.
	AdoptOrphans(ctx context.Context, recipeID primitive.ObjectID) (int64, error)
}

// RecommendationRepository defines operations for learned cook-time data
// access, keyed by (recipeID, temperature). Save is a full replace so stale
// confidence or data-point values never survive an update.
type RecommendationRepository interface {
	Get(ctx context.Context, recipeID primitive.ObjectID, temperature int) (*models.Recommendation, error)
	Save(ctx context.Context, rec *models.Recommendation) error
	ListByRecipe(ctx context.Context, recipeID primitive.ObjectID) ([]*models.Recommendation, error)
	DeleteByRecipe(ctx context.Context, recipeID primitive.ObjectID) (int64, error)
}

// PreferenceRepository defines operations for key/value settings
type PreferenceRepository interface {
	Get(ctx context.Context, key string) (*models.Preference, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// StatisticsRepository defines operations for the derived statistics cache
type StatisticsRepository interface {
	Get(ctx context.Context, id string) (*models.Statistics, error)
	Save(ctx context.Context, stats *models.Statistics) error
	Delete(ctx context.Context, id string) error
}
