// Package migration upgrades the store layout to the current schema
// version. It runs against the repository interfaces so the same upgrade
// path works for any backing store; only reading the legacy layout needs
// store-specific code, supplied through LegacySource.
package migration

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ak/griddle/internal/domain/models"
	"github.com/ak/griddle/internal/domain/services"
	"github.com/ak/griddle/internal/infrastructure/repositories"
	"github.com/ak/griddle/internal/pkg/logger"
	"go.uber.org/zap"
)

// SchemaVersion is the current store layout. Version 2 introduced
// recipe-scoped recommendations; version 1 kept a single global
// recommendation row per temperature and no recipe collection.
const SchemaVersion = 2

// LegacyRecommendation is the pre-recipe row shape, keyed by temperature only.
type LegacyRecommendation struct {
	Temperature    int     `bson:"temperature"`
	FirstSideTime  int     `bson:"first_side_time"`
	SecondSideTime int     `bson:"second_side_time"`
	Confidence     float64 `bson:"confidence"`
}

// LegacySource reads the version 1 layout out of the backing store.
type LegacySource interface {
	Recommendations(ctx context.Context) ([]LegacyRecommendation, error)
}

// Migrator upgrades a store to the current schema version.
type Migrator struct {
	repos  *repositories.Provider
	legacy LegacySource
	logger *logger.Logger
}

func New(repos *repositories.Provider, legacy LegacySource, log *logger.Logger) *Migrator {
	return &Migrator{
		repos:  repos,
		legacy: legacy,
		logger: log.WithComponent("migration"),
	}
}

// Run upgrades the store layout to the current schema version. It is
// idempotent: running against an already-migrated store is a no-op.
//
// The version 1 -> 2 upgrade creates a default recipe, re-keys every legacy
// recommendation under it, and adopts orphaned history rows (records written
// before history carried a recipe reference).
func (m *Migrator) Run(ctx context.Context) error {
	version, err := m.schemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version >= SchemaVersion {
		return nil
	}

	m.logger.Info("Migrating store schema",
		zap.Int("from", version),
		zap.Int("to", SchemaVersion))

	if version < 2 {
		if err := m.migrateToRecipeScopedData(ctx); err != nil {
			return fmt.Errorf("schema v2 migration failed: %w", err)
		}
	}

	return m.setSchemaVersion(ctx, SchemaVersion)
}

func (m *Migrator) migrateToRecipeScopedData(ctx context.Context) error {
	defaultRecipe, err := m.ensureDefaultRecipe(ctx)
	if err != nil {
		return err
	}

	// Re-key legacy recommendations under the default recipe. Existing
	// (recipe, temperature) rows win so a half-finished migration can be
	// re-run safely.
	legacy, err := m.legacy.Recommendations(ctx)
	if err != nil {
		return err
	}

	migrated := 0
	for _, old := range legacy {
		if !models.ValidTemperature(old.Temperature) {
			continue
		}
		existing, err := m.repos.Recommendation.Get(ctx, defaultRecipe.ID, old.Temperature)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		rec := &models.Recommendation{
			RecipeID:       defaultRecipe.ID,
			Temperature:    old.Temperature,
			FirstSideTime:  old.FirstSideTime,
			SecondSideTime: old.SecondSideTime,
			Confidence:     old.Confidence,
			DataPoints:     0,
			LastUpdated:    time.Now(),
		}
		if err := m.repos.Recommendation.Save(ctx, rec); err != nil {
			return err
		}
		migrated++
	}

	// Adopt history rows that predate recipe scoping.
	adopted, err := m.repos.History.AdoptOrphans(ctx, defaultRecipe.ID)
	if err != nil {
		return err
	}

	// Point the current-recipe preference at the default if nothing is set.
	pref, err := m.repos.Preference.Get(ctx, models.PrefCurrentRecipeID)
	if err != nil {
		return err
	}
	if pref == nil {
		if err := m.repos.Preference.Set(ctx, models.PrefCurrentRecipeID, defaultRecipe.ID.Hex()); err != nil {
			return err
		}
	}

	m.logger.Info("Recipe-scoped migration complete",
		zap.Int("recommendations_migrated", migrated),
		zap.Int64("history_adopted", adopted),
		zap.String("default_recipe_id", defaultRecipe.ID.Hex()))
	return nil
}

// ensureDefaultRecipe returns the default recipe, creating "Basic Pancakes"
// when the store has none.
func (m *Migrator) ensureDefaultRecipe(ctx context.Context) (*models.Recipe, error) {
	recipe, err := m.repos.Recipe.GetDefault(ctx)
	if err != nil {
		return nil, err
	}
	if recipe != nil {
		return recipe, nil
	}

	recipe = &models.Recipe{
		Name:            services.DefaultRecipeName,
		Description:     "Standard pancake batter recipe",
		BatterThickness: models.BatterRegular,
		IsDefault:       true,
	}
	recipe.ApplyThicknessDefaults()

	if err := m.repos.Recipe.Create(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

func (m *Migrator) schemaVersion(ctx context.Context) (int, error) {
	pref, err := m.repos.Preference.Get(ctx, models.PrefSchemaVersion)
	if err != nil {
		return 0, err
	}
	if pref == nil {
		return 1, nil
	}
	version, err := strconv.Atoi(pref.Value)
	if err != nil {
		return 1, nil
	}
	return version, nil
}

func (m *Migrator) setSchemaVersion(ctx context.Context, version int) error {
	return m.repos.Preference.Set(ctx, models.PrefSchemaVersion, strconv.Itoa(version))
}
