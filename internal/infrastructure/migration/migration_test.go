package migration

import (
	"context"
	"testing"

	"github.com/ak/griddle/internal/domain/models"
	"github.com/ak/griddle/internal/domain/services"
	"github.com/ak/griddle/internal/infrastructure/config"
	"github.com/ak/griddle/internal/infrastructure/repositories"
	"github.com/ak/griddle/internal/infrastructure/repositories/memory"
	"github.com/ak/griddle/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLegacySource struct {
	rows []LegacyRecommendation
}

func (s *fakeLegacySource) Recommendations(_ context.Context) ([]LegacyRecommendation, error) {
	return s.rows, nil
}

func newTestMigrator(t *testing.T, provider *repositories.Provider, rows []LegacyRecommendation) *Migrator {
	t.Helper()
	log, err := logger.New(config.LoggingConfig{Level: "error", Format: "console", Output: "stdout"})
	require.NoError(t, err)
	return New(provider, &fakeLegacySource{rows: rows}, log)
}

func TestMigrateV1ToV2(t *testing.T) {
	ctx := context.Background()
	provider := memory.NewProvider()

	// A cook recorded before history carried a recipe reference.
	orphan := &models.HistoryRecord{
		Temperature:    5,
		FirstSideTime:  90,
		SecondSideTime: 72,
		Rating:         models.RatingGood,
	}
	require.NoError(t, provider.History.Create(ctx, orphan))

	migrator := newTestMigrator(t, provider, []LegacyRecommendation{
		{Temperature: 5, FirstSideTime: 80, SecondSideTime: 64, Confidence: 0.7},
		{Temperature: 12, FirstSideTime: 99, SecondSideTime: 99, Confidence: 0.5},
	})
	require.NoError(t, migrator.Run(ctx))

	def, err := provider.Recipe.GetDefault(ctx)
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, services.DefaultRecipeName, def.Name)

	// The valid legacy row was re-keyed under the default recipe.
	rec, err := provider.Recommendation.Get(ctx, def.ID, 5)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 80, rec.FirstSideTime)
	assert.Equal(t, 64, rec.SecondSideTime)
	assert.Equal(t, 0.7, rec.Confidence)
	assert.InDelta(t, 0.0, rec.DataPoints, 1e-9)

	// The off-dial row was dropped.
	recs, err := provider.Recommendation.ListByRecipe(ctx, def.ID)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	// The orphaned cook now belongs to the default recipe.
	records, err := provider.History.ListByRecipe(ctx, def.ID, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, orphan.ID, records[0].ID)

	pref, err := provider.Preference.Get(ctx, models.PrefCurrentRecipeID)
	require.NoError(t, err)
	require.NotNil(t, pref)
	assert.Equal(t, def.ID.Hex(), pref.Value)

	version, err := provider.Preference.Get(ctx, models.PrefSchemaVersion)
	require.NoError(t, err)
	require.NotNil(t, version)
	assert.Equal(t, "2", version.Value)
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	provider := memory.NewProvider()

	migrator := newTestMigrator(t, provider, []LegacyRecommendation{
		{Temperature: 5, FirstSideTime: 80, SecondSideTime: 64, Confidence: 0.7},
	})
	require.NoError(t, migrator.Run(ctx))

	def, err := provider.Recipe.GetDefault(ctx)
	require.NoError(t, err)
	require.NotNil(t, def)

	// Learn something after the first run.
	learned, err := provider.Recommendation.Get(ctx, def.ID, 5)
	require.NoError(t, err)
	require.NotNil(t, learned)
	learned.FirstSideTime = 70
	learned.DataPoints = 3
	require.NoError(t, provider.Recommendation.Save(ctx, learned))

	require.NoError(t, migrator.Run(ctx))

	rec, err := provider.Recommendation.Get(ctx, def.ID, 5)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 70, rec.FirstSideTime)
	assert.InDelta(t, 3.0, rec.DataPoints, 1e-9)

	recipes, err := provider.Recipe.List(ctx)
	require.NoError(t, err)
	assert.Len(t, recipes, 1)
}

func TestRerunAfterPartialMigrationKeepsExistingRows(t *testing.T) {
	ctx := context.Background()
	provider := memory.NewProvider()

	migrator := newTestMigrator(t, provider, []LegacyRecommendation{
		{Temperature: 5, FirstSideTime: 80, SecondSideTime: 64, Confidence: 0.7},
		{Temperature: 6, FirstSideTime: 75, SecondSideTime: 60, Confidence: 0.6},
	})
	require.NoError(t, migrator.Run(ctx))

	def, err := provider.Recipe.GetDefault(ctx)
	require.NoError(t, err)
	require.NotNil(t, def)

	// Simulate a crash before the version stamp was written: the row for
	// temperature 5 has since been learned on, and the stamp is missing.
	learned, err := provider.Recommendation.Get(ctx, def.ID, 5)
	require.NoError(t, err)
	learned.FirstSideTime = 70
	learned.DataPoints = 2
	require.NoError(t, provider.Recommendation.Save(ctx, learned))
	require.NoError(t, provider.Preference.Delete(ctx, models.PrefSchemaVersion))

	require.NoError(t, migrator.Run(ctx))

	// Existing (recipe, temperature) rows win on re-run.
	rec, err := provider.Recommendation.Get(ctx, def.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 70, rec.FirstSideTime)
	assert.InDelta(t, 2.0, rec.DataPoints, 1e-9)

	version, err := provider.Preference.Get(ctx, models.PrefSchemaVersion)
	require.NoError(t, err)
	require.NotNil(t, version)
	assert.Equal(t, "2", version.Value)
}

func TestCurrentVersionStoreIsUntouched(t *testing.T) {
	ctx := context.Background()
	provider := memory.NewProvider()
	require.NoError(t, provider.Preference.Set(ctx, models.PrefSchemaVersion, "2"))

	migrator := newTestMigrator(t, provider, []LegacyRecommendation{
		{Temperature: 5, FirstSideTime: 80, SecondSideTime: 64, Confidence: 0.7},
	})
	require.NoError(t, migrator.Run(ctx))

	def, err := provider.Recipe.GetDefault(ctx)
	require.NoError(t, err)
	assert.Nil(t, def)
}
