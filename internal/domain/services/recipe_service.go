package services

import (
	"context"
	"fmt"

	"github.com/ak/griddle/internal/domain/models"
	"github.com/ak/griddle/internal/domain/repositories"
	"github.com/ak/griddle/internal/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultRecipeName is the recipe auto-created on first run and by the
// schema migration.
const DefaultRecipeName = "Basic Pancakes"

// RecipeService handles recipe business logic
type RecipeService interface {
	Create(ctx context.Context, req CreateRecipeRequest) (*models.Recipe, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Recipe, error)
	List(ctx context.Context) ([]*models.Recipe, error)
	Update(ctx context.Context, id primitive.ObjectID, req UpdateRecipeRequest) (*models.Recipe, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Current(ctx context.Context) (*models.Recipe, error)
	SetCurrent(ctx context.Context, id primitive.ObjectID) error
}

type CreateRecipeRequest struct {
	Name            string                 `json:"name" binding:"required"`
	Description     string                 `json:"description"`
	BatterThickness models.BatterThickness `json:"batter_thickness"`
	MinCookTime     int                    `json:"min_cook_time"`
	MaxCookTime     int                    `json:"max_cook_time"`
}

type UpdateRecipeRequest struct {
	Name            string                 `json:"name"`
	Description     string                 `json:"description"`
	BatterThickness models.BatterThickness `json:"batter_thickness"`
	MinCookTime     int                    `json:"min_cook_time"`
	MaxCookTime     int                    `json:"max_cook_time"`
}

type recipeService struct {
	recipeRepo repositories.RecipeRepository
	histRepo   repositories.HistoryRepository
	recRepo    repositories.RecommendationRepository
	prefRepo   repositories.PreferenceRepository
	statsRepo  repositories.StatisticsRepository
	engine     EngineService
}

// NewRecipeService creates a new recipe service
func NewRecipeService(
	recipeRepo repositories.RecipeRepository,
	histRepo repositories.HistoryRepository,
	recRepo repositories.RecommendationRepository,
	prefRepo repositories.PreferenceRepository,
	statsRepo repositories.StatisticsRepository,
	engine EngineService,
) RecipeService {
	return &recipeService{
		recipeRepo: recipeRepo,
		histRepo:   histRepo,
		recRepo:    recRepo,
		prefRepo:   prefRepo,
		statsRepo:  statsRepo,
		engine:     engine,
	}
}

// Create adds a recipe, seeds default recommendations for the whole dial,
// and makes it the current recipe.
func (s *recipeService) Create(ctx context.Context, req CreateRecipeRequest) (*models.Recipe, error) {
	if req.Name == "" {
		return nil, errors.Validation("recipe name is required")
	}

	existing, err := s.recipeRepo.GetByName(ctx, req.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing recipe: %w", err)
	}
	if existing != nil {
		return nil, errors.AlreadyExists("recipe")
	}

	thickness := req.BatterThickness
	if thickness == "" {
		thickness = models.BatterRegular
	}

	recipe := &models.Recipe{
		Name:            req.Name,
		Description:     req.Description,
		BatterThickness: thickness,
		MinCookTime:     req.MinCookTime,
		MaxCookTime:     req.MaxCookTime,
	}
	recipe.ApplyThicknessDefaults()

	if recipe.MinCookTime >= recipe.MaxCookTime {
		return nil, errors.Validation("min_cook_time must be below max_cook_time")
	}

	if err := s.recipeRepo.Create(ctx, recipe); err != nil {
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}

	if err := s.engine.ResetRecipeRecommendations(ctx, recipe.ID); err != nil {
		return nil, fmt.Errorf("failed to seed recommendations: %w", err)
	}

	if err := s.prefRepo.Set(ctx, models.PrefCurrentRecipeID, recipe.ID.Hex()); err != nil {
		return nil, fmt.Errorf("failed to set current recipe: %w", err)
	}

	return recipe, nil
}

func (s *recipeService) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Recipe, error) {
	recipe, err := s.recipeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		return nil, errors.NotFound("recipe")
	}
	return recipe, nil
}

func (s *recipeService) List(ctx context.Context) ([]*models.Recipe, error) {
	return s.recipeRepo.List(ctx)
}

// Update edits a recipe's profile. The default recipe is protected: its
// seeded timing profile is the fallback everything else leans on.
func (s *recipeService) Update(ctx context.Context, id primitive.ObjectID, req UpdateRecipeRequest) (*models.Recipe, error) {
	recipe, err := s.recipeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		return nil, errors.NotFound("recipe")
	}
	if recipe.IsDefault {
		return nil, errors.ConstraintViolation("the default recipe cannot be edited")
	}

	if req.Name != "" && req.Name != recipe.Name {
		existing, err := s.recipeRepo.GetByName(ctx, req.Name)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, errors.AlreadyExists("recipe")
		}
		recipe.Name = req.Name
	}
	if req.Description != "" {
		recipe.Description = req.Description
	}
	if req.BatterThickness != "" && req.BatterThickness != recipe.BatterThickness {
		recipe.BatterThickness = req.BatterThickness
		base, scale, ratio := models.BatterProfile(req.BatterThickness)
		recipe.DefaultBaseTime = base
		recipe.TempScaleFactor = scale
		recipe.SecondSideRatio = ratio
	}
	if req.MinCookTime > 0 {
		recipe.MinCookTime = req.MinCookTime
	}
	if req.MaxCookTime > 0 {
		recipe.MaxCookTime = req.MaxCookTime
	}
	if recipe.MinCookTime >= recipe.MaxCookTime {
		return nil, errors.Validation("min_cook_time must be below max_cook_time")
	}

	if err := s.recipeRepo.Update(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

// Delete cascades: history rows first, then recommendation rows, then the
// recipe itself. Any failure before the final step leaves the recipe in
// place, so the store never holds a dangling recipe reference. If the
// deleted recipe was current, another recipe is made current first.
func (s *recipeService) Delete(ctx context.Context, id primitive.ObjectID) error {
	recipe, err := s.recipeRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if recipe == nil {
		return errors.NotFound("recipe")
	}
	if recipe.IsDefault {
		return errors.ConstraintViolation("the default recipe cannot be deleted")
	}

	if err := s.reassignCurrentIfNeeded(ctx, id); err != nil {
		return err
	}

	if _, err := s.histRepo.DeleteByRecipe(ctx, id); err != nil {
		return fmt.Errorf("failed to delete recipe history: %w", err)
	}
	if _, err := s.recRepo.DeleteByRecipe(ctx, id); err != nil {
		return fmt.Errorf("failed to delete recipe recommendations: %w", err)
	}
	if err := s.statsRepo.Delete(ctx, models.StatisticsID(id)); err != nil {
		return fmt.Errorf("failed to delete recipe statistics: %w", err)
	}

	return s.recipeRepo.Delete(ctx, id)
}

func (s *recipeService) reassignCurrentIfNeeded(ctx context.Context, doomed primitive.ObjectID) error {
	pref, err := s.prefRepo.Get(ctx, models.PrefCurrentRecipeID)
	if err != nil {
		return err
	}
	if pref == nil || pref.Value != doomed.Hex() {
		return nil
	}

	if def, err := s.recipeRepo.GetDefault(ctx); err != nil {
		return err
	} else if def != nil && def.ID != doomed {
		return s.prefRepo.Set(ctx, models.PrefCurrentRecipeID, def.ID.Hex())
	}

	recipes, err := s.recipeRepo.List(ctx)
	if err != nil {
		return err
	}
	for _, candidate := range recipes {
		if candidate.ID != doomed {
			return s.prefRepo.Set(ctx, models.PrefCurrentRecipeID, candidate.ID.Hex())
		}
	}
	// Nothing left to point at; clear the preference.
	return s.prefRepo.Delete(ctx, models.PrefCurrentRecipeID)
}

// Current resolves the current recipe, repairing the preference when it is
// missing or stale. On a completely empty store it creates the default
// recipe so the engine always has a profile to work from.
func (s *recipeService) Current(ctx context.Context) (*models.Recipe, error) {
	pref, err := s.prefRepo.Get(ctx, models.PrefCurrentRecipeID)
	if err != nil {
		return nil, err
	}
	if pref != nil {
		if id, err := primitive.ObjectIDFromHex(pref.Value); err == nil {
			recipe, err := s.recipeRepo.GetByID(ctx, id)
			if err != nil {
				return nil, err
			}
			if recipe != nil {
				return recipe, nil
			}
		}
	}

	if def, err := s.recipeRepo.GetDefault(ctx); err != nil {
		return nil, err
	} else if def != nil {
		if err := s.prefRepo.Set(ctx, models.PrefCurrentRecipeID, def.ID.Hex()); err != nil {
			return nil, err
		}
		return def, nil
	}

	recipes, err := s.recipeRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(recipes) > 0 {
		if err := s.prefRepo.Set(ctx, models.PrefCurrentRecipeID, recipes[0].ID.Hex()); err != nil {
			return nil, err
		}
		return recipes[0], nil
	}

	return s.createDefaultRecipe(ctx)
}

func (s *recipeService) createDefaultRecipe(ctx context.Context) (*models.Recipe, error) {
	recipe := &models.Recipe{
		Name:            DefaultRecipeName,
		Description:     "Standard pancake batter recipe",
		BatterThickness: models.BatterRegular,
		IsDefault:       true,
	}
	recipe.ApplyThicknessDefaults()

	if err := s.recipeRepo.Create(ctx, recipe); err != nil {
		return nil, fmt.Errorf("failed to create default recipe: %w", err)
	}
	if err := s.engine.ResetRecipeRecommendations(ctx, recipe.ID); err != nil {
		return nil, fmt.Errorf("failed to seed default recommendations: %w", err)
	}
	if err := s.prefRepo.Set(ctx, models.PrefCurrentRecipeID, recipe.ID.Hex()); err != nil {
		return nil, err
	}
	return recipe, nil
}

func (s *recipeService) SetCurrent(ctx context.Context, id primitive.ObjectID) error {
	recipe, err := s.recipeRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if recipe == nil {
		return errors.NotFound("recipe")
	}
	return s.prefRepo.Set(ctx, models.PrefCurrentRecipeID, id.Hex())
}
