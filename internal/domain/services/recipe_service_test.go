package services

import (
	"context"
	"testing"

	"github.com/ak/griddle/internal/domain/models"
	"github.com/ak/griddle/internal/infrastructure/repositories"
	"github.com/ak/griddle/internal/infrastructure/repositories/memory"
	"github.com/ak/griddle/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecipeService(t *testing.T) (RecipeService, EngineService, *repositories.Provider) {
	t.Helper()
	provider := memory.NewProvider()
	engine := NewEngineService(provider.Recipe, provider.Recommendation, provider.History, NoNoise, 0, 0)
	service := NewRecipeService(provider.Recipe, provider.History, provider.Recommendation, provider.Preference, provider.Statistics, engine)
	return service, engine, provider
}

func TestCreateRecipeSeedsRecommendationsAndSetsCurrent(t *testing.T) {
	service, engine, provider := newTestRecipeService(t)
	ctx := context.Background()

	recipe, err := service.Create(ctx, CreateRecipeRequest{
		Name:            "Buttermilk",
		BatterThickness: models.BatterThick,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ThickBaseTime, recipe.DefaultBaseTime)
	assert.Equal(t, models.DefaultMinCookTime, recipe.MinCookTime)

	recs, err := engine.ListRecommendations(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Len(t, recs, 9)

	pref, err := provider.Preference.Get(ctx, models.PrefCurrentRecipeID)
	require.NoError(t, err)
	require.NotNil(t, pref)
	assert.Equal(t, recipe.ID.Hex(), pref.Value)
}

func TestCreateRecipeRejectsDuplicateName(t *testing.T) {
	service, _, _ := newTestRecipeService(t)
	ctx := context.Background()

	_, err := service.Create(ctx, CreateRecipeRequest{Name: "Buttermilk"})
	require.NoError(t, err)

	_, err = service.Create(ctx, CreateRecipeRequest{Name: "Buttermilk"})
	require.Error(t, err)
	apiErr, ok := err.(*errors.APIError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrAlreadyExists, apiErr.Code)
}

func TestCreateRecipeRejectsInvertedBounds(t *testing.T) {
	service, _, _ := newTestRecipeService(t)

	_, err := service.Create(context.Background(), CreateRecipeRequest{
		Name:        "Broken",
		MinCookTime: 200,
		MaxCookTime: 100,
	})
	assert.Error(t, err)
}

func TestUpdateRecipeRefusesDefault(t *testing.T) {
	service, _, provider := newTestRecipeService(t)
	ctx := context.Background()

	def := &models.Recipe{Name: DefaultRecipeName, BatterThickness: models.BatterRegular, IsDefault: true}
	def.ApplyThicknessDefaults()
	require.NoError(t, provider.Recipe.Create(ctx, def))

	_, err := service.Update(ctx, def.ID, UpdateRecipeRequest{Name: "Renamed"})
	require.Error(t, err)
	assert.True(t, errors.IsConstraintViolation(err))
}

func TestUpdateRecipeThicknessRefreshesProfile(t *testing.T) {
	service, _, _ := newTestRecipeService(t)
	ctx := context.Background()

	recipe, err := service.Create(ctx, CreateRecipeRequest{Name: "Plain"})
	require.NoError(t, err)
	assert.Equal(t, models.RegularBaseTime, recipe.DefaultBaseTime)

	updated, err := service.Update(ctx, recipe.ID, UpdateRecipeRequest{BatterThickness: models.BatterThin})
	require.NoError(t, err)
	assert.Equal(t, models.ThinBaseTime, updated.DefaultBaseTime)
	assert.Equal(t, models.ThinScaleFactor, updated.TempScaleFactor)
	assert.InDelta(t, models.ThinSecondRatio, updated.SecondSideRatio, 1e-9)
}

func TestDeleteRecipeCascades(t *testing.T) {
	service, engine, provider := newTestRecipeService(t)
	ctx := context.Background()

	recipe, err := service.Create(ctx, CreateRecipeRequest{Name: "Doomed"})
	require.NoError(t, err)

	_, err = engine.UpdateRecommendation(ctx, recipe.ID, 5, 60, 48, models.RatingGood)
	require.NoError(t, err)
	require.NoError(t, provider.History.Create(ctx, &models.HistoryRecord{
		RecipeID: recipe.ID, Temperature: 5, FirstSideTime: 60, SecondSideTime: 48, Rating: models.RatingGood,
	}))

	require.NoError(t, service.Delete(ctx, recipe.ID))

	got, err := provider.Recipe.GetByID(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	recs, err := provider.Recommendation.ListByRecipe(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Empty(t, recs)

	records, err := provider.History.ListByRecipe(ctx, recipe.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDeleteRecipeRefusesDefault(t *testing.T) {
	service, _, provider := newTestRecipeService(t)
	ctx := context.Background()

	def := &models.Recipe{Name: DefaultRecipeName, BatterThickness: models.BatterRegular, IsDefault: true}
	def.ApplyThicknessDefaults()
	require.NoError(t, provider.Recipe.Create(ctx, def))

	err := service.Delete(ctx, def.ID)
	require.Error(t, err)
	assert.True(t, errors.IsConstraintViolation(err))
}

func TestDeleteCurrentRecipeReassignsPreference(t *testing.T) {
	service, _, provider := newTestRecipeService(t)
	ctx := context.Background()

	def := &models.Recipe{Name: DefaultRecipeName, BatterThickness: models.BatterRegular, IsDefault: true}
	def.ApplyThicknessDefaults()
	require.NoError(t, provider.Recipe.Create(ctx, def))

	recipe, err := service.Create(ctx, CreateRecipeRequest{Name: "Doomed"})
	require.NoError(t, err)

	// Create made the new recipe current; deleting it must fall back.
	require.NoError(t, service.Delete(ctx, recipe.ID))

	pref, err := provider.Preference.Get(ctx, models.PrefCurrentRecipeID)
	require.NoError(t, err)
	require.NotNil(t, pref)
	assert.Equal(t, def.ID.Hex(), pref.Value)
}

func TestCurrentCreatesDefaultOnEmptyStore(t *testing.T) {
	service, engine, provider := newTestRecipeService(t)
	ctx := context.Background()

	recipe, err := service.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultRecipeName, recipe.Name)
	assert.True(t, recipe.IsDefault)

	recs, err := engine.ListRecommendations(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Len(t, recs, 9)

	pref, err := provider.Preference.Get(ctx, models.PrefCurrentRecipeID)
	require.NoError(t, err)
	require.NotNil(t, pref)
	assert.Equal(t, recipe.ID.Hex(), pref.Value)
}

func TestCurrentRepairsStalePreference(t *testing.T) {
	service, _, provider := newTestRecipeService(t)
	ctx := context.Background()

	recipe, err := service.Create(ctx, CreateRecipeRequest{Name: "Kept"})
	require.NoError(t, err)

	require.NoError(t, provider.Preference.Set(ctx, models.PrefCurrentRecipeID, "not-a-real-id"))

	current, err := service.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, recipe.ID, current.ID)
}

func TestSetCurrentRejectsUnknownRecipe(t *testing.T) {
	service, _, provider := newTestRecipeService(t)
	ctx := context.Background()

	recipe := &models.Recipe{Name: "Ghost"}
	recipe.ApplyThicknessDefaults()
	require.NoError(t, provider.Recipe.Create(ctx, recipe))
	require.NoError(t, provider.Recipe.Delete(ctx, recipe.ID))

	err := service.SetCurrent(ctx, recipe.ID)
	assert.True(t, errors.IsNotFound(err))
}
