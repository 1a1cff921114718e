package services

import (
	"context"
	"fmt"

	"github.com/ak/griddle/internal/domain/models"
	"github.com/ak/griddle/internal/domain/repositories"
	"github.com/ak/griddle/internal/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HistoryService handles cook history business logic. Every mutation
// triggers a statistics recompute so the cached aggregates never drift.
type HistoryService interface {
	Record(ctx context.Context, req RecordCookRequest) (*models.HistoryRecord, error)
	List(ctx context.Context, recipeID primitive.ObjectID, limit int) ([]*models.HistoryRecord, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	// Clear wipes a recipe's history and re-seeds its recommendations with
	// defaults, returning the number of records removed.
	Clear(ctx context.Context, recipeID primitive.ObjectID) (int64, error)
}

type RecordCookRequest struct {
	RecipeID       primitive.ObjectID `json:"recipe_id"`
	Temperature    int                `json:"temperature"`
	FirstSideTime  int                `json:"first_side_time"`
	SecondSideTime int                `json:"second_side_time"`
	Rating         models.Rating      `json:"rating"`
}

type historyService struct {
	histRepo   repositories.HistoryRepository
	recipeRepo repositories.RecipeRepository
	engine     EngineService
	stats      StatisticsService
}

// NewHistoryService creates a new history service
func NewHistoryService(
	histRepo repositories.HistoryRepository,
	recipeRepo repositories.RecipeRepository,
	engine EngineService,
	stats StatisticsService,
) HistoryService {
	return &historyService{
		histRepo:   histRepo,
		recipeRepo: recipeRepo,
		engine:     engine,
		stats:      stats,
	}
}

func (s *historyService) Record(ctx context.Context, req RecordCookRequest) (*models.HistoryRecord, error) {
	if !models.ValidTemperature(req.Temperature) {
		return nil, errors.InvalidInput(fmt.Sprintf("temperature must be between %d and %d", models.MinTemperature, models.MaxTemperature))
	}
	if !req.Rating.Valid() {
		return nil, errors.InvalidInput("rating must be one of bad, mid, good")
	}
	if req.FirstSideTime <= 0 || req.SecondSideTime <= 0 {
		return nil, errors.InvalidInput("side times must be positive")
	}

	recipe, err := s.recipeRepo.GetByID(ctx, req.RecipeID)
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		return nil, errors.NotFound("recipe")
	}

	record := &models.HistoryRecord{
		RecipeID:       req.RecipeID,
		Temperature:    req.Temperature,
		FirstSideTime:  req.FirstSideTime,
		SecondSideTime: req.SecondSideTime,
		Rating:         req.Rating,
	}

	if err := s.histRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record cook: %w", err)
	}

	if _, err := s.stats.Recompute(ctx, req.RecipeID); err != nil {
		return nil, fmt.Errorf("failed to recompute statistics: %w", err)
	}

	return record, nil
}

func (s *historyService) List(ctx context.Context, recipeID primitive.ObjectID, limit int) ([]*models.HistoryRecord, error) {
	return s.histRepo.ListByRecipe(ctx, recipeID, limit)
}

func (s *historyService) Delete(ctx context.Context, id primitive.ObjectID) error {
	record, err := s.histRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if record == nil {
		return errors.NotFound("history record")
	}

	if err := s.histRepo.Delete(ctx, id); err != nil {
		return err
	}

	_, err = s.stats.Recompute(ctx, record.RecipeID)
	return err
}

// Clear removes every history record for the recipe and resets its
// recommendations to defaults: without the history that trained them, the
// learned values are meaningless.
func (s *historyService) Clear(ctx context.Context, recipeID primitive.ObjectID) (int64, error) {
	recipe, err := s.recipeRepo.GetByID(ctx, recipeID)
	if err != nil {
		return 0, err
	}
	if recipe == nil {
		return 0, errors.NotFound("recipe")
	}

	deleted, err := s.histRepo.DeleteByRecipe(ctx, recipeID)
	if err != nil {
		return 0, err
	}

	if recipe.HasData {
		recipe.HasData = false
		if err := s.recipeRepo.Update(ctx, recipe); err != nil {
			return deleted, err
		}
	}

	if err := s.engine.ResetRecipeRecommendations(ctx, recipeID); err != nil {
		return deleted, err
	}

	if _, err := s.stats.Recompute(ctx, recipeID); err != nil {
		return deleted, err
	}

	return deleted, nil
}
