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

func newTestHistoryService(t *testing.T) (HistoryService, EngineService, *repositories.Provider, *models.Recipe) {
	t.Helper()
	provider := memory.NewProvider()
	engine := NewEngineService(provider.Recipe, provider.Recommendation, provider.History, NoNoise, 0, 0)
	stats := NewStatisticsService(provider.History, provider.Statistics)
	service := NewHistoryService(provider.History, provider.Recipe, engine, stats)

	recipe := &models.Recipe{Name: "Test", BatterThickness: models.BatterRegular}
	recipe.ApplyThicknessDefaults()
	require.NoError(t, provider.Recipe.Create(context.Background(), recipe))
	return service, engine, provider, recipe
}

func TestRecordCook(t *testing.T) {
	service, _, provider, recipe := newTestHistoryService(t)
	ctx := context.Background()

	record, err := service.Record(ctx, RecordCookRequest{
		RecipeID:       recipe.ID,
		Temperature:    5,
		FirstSideTime:  88,
		SecondSideTime: 70,
		Rating:         models.RatingGood,
	})
	require.NoError(t, err)
	assert.False(t, record.ID.IsZero())
	assert.False(t, record.Timestamp.IsZero())

	// Recording refreshes both the recipe and global aggregates.
	stats, err := provider.Statistics.Get(ctx, models.StatisticsID(recipe.ID))
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, 1, stats.TotalPancakes)
	assert.Equal(t, 1, stats.GoodPancakes)

	global, err := provider.Statistics.Get(ctx, models.StatisticsGlobalID)
	require.NoError(t, err)
	require.NotNil(t, global)
	assert.Equal(t, 1, global.TotalPancakes)
}

func TestRecordCookValidation(t *testing.T) {
	service, _, _, recipe := newTestHistoryService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  RecordCookRequest
	}{
		{"temperature too low", RecordCookRequest{RecipeID: recipe.ID, Temperature: 0, FirstSideTime: 60, SecondSideTime: 48, Rating: models.RatingGood}},
		{"temperature too high", RecordCookRequest{RecipeID: recipe.ID, Temperature: 10, FirstSideTime: 60, SecondSideTime: 48, Rating: models.RatingGood}},
		{"bad rating value", RecordCookRequest{RecipeID: recipe.ID, Temperature: 5, FirstSideTime: 60, SecondSideTime: 48, Rating: "tasty"}},
		{"zero first side", RecordCookRequest{RecipeID: recipe.ID, Temperature: 5, FirstSideTime: 0, SecondSideTime: 48, Rating: models.RatingGood}},
		{"zero second side", RecordCookRequest{RecipeID: recipe.ID, Temperature: 5, FirstSideTime: 60, SecondSideTime: 0, Rating: models.RatingGood}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Record(ctx, tc.req)
			assert.Error(t, err)
		})
	}
}

func TestRecordCookUnknownRecipe(t *testing.T) {
	service, _, provider, recipe := newTestHistoryService(t)
	ctx := context.Background()
	require.NoError(t, provider.Recipe.Delete(ctx, recipe.ID))

	_, err := service.Record(ctx, RecordCookRequest{
		RecipeID:       recipe.ID,
		Temperature:    5,
		FirstSideTime:  60,
		SecondSideTime: 48,
		Rating:         models.RatingGood,
	})
	assert.True(t, errors.IsNotFound(err))
}

func TestListHistoryNewestFirstWithLimit(t *testing.T) {
	service, _, _, recipe := newTestHistoryService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := service.Record(ctx, RecordCookRequest{
			RecipeID:       recipe.ID,
			Temperature:    5,
			FirstSideTime:  60 + i,
			SecondSideTime: 48,
			Rating:         models.RatingGood,
		})
		require.NoError(t, err)
	}

	records, err := service.List(ctx, recipe.ID, 3)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	all, err := service.List(ctx, recipe.ID, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestDeleteHistoryRecordRecomputesStats(t *testing.T) {
	service, _, provider, recipe := newTestHistoryService(t)
	ctx := context.Background()

	record, err := service.Record(ctx, RecordCookRequest{
		RecipeID:       recipe.ID,
		Temperature:    5,
		FirstSideTime:  60,
		SecondSideTime: 48,
		Rating:         models.RatingGood,
	})
	require.NoError(t, err)

	require.NoError(t, service.Delete(ctx, record.ID))

	stats, err := provider.Statistics.Get(ctx, models.StatisticsID(recipe.ID))
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, 0, stats.TotalPancakes)
}

func TestClearHistoryResetsRecommendations(t *testing.T) {
	service, engine, provider, recipe := newTestHistoryService(t)
	ctx := context.Background()
	require.NoError(t, engine.ResetRecipeRecommendations(ctx, recipe.ID))

	for i := 0; i < 3; i++ {
		_, err := service.Record(ctx, RecordCookRequest{
			RecipeID:       recipe.ID,
			Temperature:    5,
			FirstSideTime:  60,
			SecondSideTime: 48,
			Rating:         models.RatingGood,
		})
		require.NoError(t, err)
		_, err = engine.UpdateRecommendation(ctx, recipe.ID, 5, 60, 48, models.RatingGood)
		require.NoError(t, err)
	}

	deleted, err := service.Clear(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	// Learned values are gone: the whole dial is back at defaults.
	rec, err := engine.GetRecommendation(ctx, recipe.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 90, rec.FirstSideTime)
	assert.InDelta(t, 0.0, rec.DataPoints, 1e-9)

	got, err := provider.Recipe.GetByID(ctx, recipe.ID)
	require.NoError(t, err)
	assert.False(t, got.HasData)
}
