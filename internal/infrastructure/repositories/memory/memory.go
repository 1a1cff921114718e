// Package memory provides map-backed implementations of every repository
// interface. They power the test suites and `griddle serve --memory`, which
// runs the service without a MongoDB instance. Nothing survives a restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ak/griddle/internal/domain/models"
	"github.com/ak/griddle/internal/domain/repositories"
	infrarepos "github.com/ak/griddle/internal/infrastructure/repositories"
	"github.com/ak/griddle/internal/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewProvider creates a repository provider with fresh empty stores.
func NewProvider() *infrarepos.Provider {
	return &infrarepos.Provider{
		Recipe:         NewRecipeRepository(),
		History:        NewHistoryRepository(),
		Recommendation: NewRecommendationRepository(),
		Preference:     NewPreferenceRepository(),
		Statistics:     NewStatisticsRepository(),
	}
}

// ---- recipes ----

type recipeRepository struct {
	mu      sync.RWMutex
	recipes map[primitive.ObjectID]*models.Recipe
}

func NewRecipeRepository() repositories.RecipeRepository {
	return &recipeRepository{recipes: make(map[primitive.ObjectID]*models.Recipe)}
}

func (r *recipeRepository) Create(_ context.Context, recipe *models.Recipe) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.recipes {
		if existing.Name == recipe.Name {
			return errors.AlreadyExists("recipe")
		}
	}
	if recipe.ID.IsZero() {
		recipe.ID = primitive.NewObjectID()
	}
	recipe.CreatedAt = time.Now()
	recipe.LastUpdated = time.Now()
	clone := *recipe
	r.recipes[recipe.ID] = &clone
	return nil
}

func (r *recipeRepository) GetByID(_ context.Context, id primitive.ObjectID) (*models.Recipe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	recipe, ok := r.recipes[id]
	if !ok {
		return nil, nil
	}
	clone := *recipe
	return &clone, nil
}

func (r *recipeRepository) GetByName(_ context.Context, name string) (*models.Recipe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, recipe := range r.recipes {
		if recipe.Name == name {
			clone := *recipe
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *recipeRepository) GetDefault(_ context.Context) (*models.Recipe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, recipe := range r.recipes {
		if recipe.IsDefault {
			clone := *recipe
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *recipeRepository) Update(_ context.Context, recipe *models.Recipe) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.recipes[recipe.ID]; !ok {
		return errors.NotFound("recipe")
	}
	recipe.LastUpdated = time.Now()
	clone := *recipe
	r.recipes[recipe.ID] = &clone
	return nil
}

func (r *recipeRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.recipes, id)
	return nil
}

func (r *recipeRepository) List(_ context.Context) ([]*models.Recipe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Recipe, 0, len(r.recipes))
	for _, recipe := range r.recipes {
		clone := *recipe
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ---- history ----

type historyRepository struct {
	mu      sync.RWMutex
	records map[primitive.ObjectID]*models.HistoryRecord
}

func NewHistoryRepository() repositories.HistoryRepository {
	return &historyRepository{records: make(map[primitive.ObjectID]*models.HistoryRecord)}
}

func (r *historyRepository) Create(_ context.Context, record *models.HistoryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	clone := *record
	r.records[record.ID] = &clone
	return nil
}

func (r *historyRepository) GetByID(_ context.Context, id primitive.ObjectID) (*models.HistoryRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	clone := *record
	return &clone, nil
}

func (r *historyRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, id)
	return nil
}

func (r *historyRepository) ListByRecipe(_ context.Context, recipeID primitive.ObjectID, limit int) ([]*models.HistoryRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.HistoryRecord
	for _, record := range r.records {
		if record.RecipeID == recipeID {
			clone := *record
			out = append(out, &clone)
		}
	}
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *historyRepository) ListAll(_ context.Context) ([]*models.HistoryRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.HistoryRecord, 0, len(r.records))
	for _, record := range r.records {
		clone := *record
		out = append(out, &clone)
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *historyRepository) DeleteByRecipe(_ context.Context, recipeID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, record := range r.records {
		if record.RecipeID == recipeID {
			delete(r.records, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *historyRepository) AdoptOrphans(_ context.Context, recipeID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var adopted int64
	for _, record := range r.records {
		if record.RecipeID.IsZero() {
			record.RecipeID = recipeID
			adopted++
		}
	}
	return adopted, nil
}

func sortNewestFirst(records []*models.HistoryRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
}

// ---- recommendations ----

type recKey struct {
	recipeID    primitive.ObjectID
	temperature int
}

type recommendationRepository struct {
	mu   sync.RWMutex
	recs map[recKey]*models.Recommendation
}

func NewRecommendationRepository() repositories.RecommendationRepository {
	return &recommendationRepository{recs: make(map[recKey]*models.Recommendation)}
}

func (r *recommendationRepository) Get(_ context.Context, recipeID primitive.ObjectID, temperature int) (*models.Recommendation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.recs[recKey{recipeID, temperature}]
	if !ok {
		return nil, nil
	}
	clone := *rec
	return &clone, nil
}

func (r *recommendationRepository) Save(_ context.Context, rec *models.Recommendation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.LastUpdated = time.Now()
	clone := *rec
	r.recs[recKey{rec.RecipeID, rec.Temperature}] = &clone
	return nil
}

func (r *recommendationRepository) ListByRecipe(_ context.Context, recipeID primitive.ObjectID) ([]*models.Recommendation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.Recommendation
	for key, rec := range r.recs {
		if key.recipeID == recipeID {
			clone := *rec
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Temperature < out[j].Temperature })
	return out, nil
}

func (r *recommendationRepository) DeleteByRecipe(_ context.Context, recipeID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for key := range r.recs {
		if key.recipeID == recipeID {
			delete(r.recs, key)
			deleted++
		}
	}
	return deleted, nil
}

// ---- preferences ----

type preferenceRepository struct {
	mu    sync.RWMutex
	prefs map[string]*models.Preference
}

func NewPreferenceRepository() repositories.PreferenceRepository {
	return &preferenceRepository{prefs: make(map[string]*models.Preference)}
}

func (r *preferenceRepository) Get(_ context.Context, key string) (*models.Preference, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pref, ok := r.prefs[key]
	if !ok {
		return nil, nil
	}
	clone := *pref
	return &clone, nil
}

func (r *preferenceRepository) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefs[key] = &models.Preference{Key: key, Value: value, LastUpdated: time.Now()}
	return nil
}

func (r *preferenceRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.prefs, key)
	return nil
}

// ---- statistics ----

type statisticsRepository struct {
	mu    sync.RWMutex
	stats map[string]*models.Statistics
}

func NewStatisticsRepository() repositories.StatisticsRepository {
	return &statisticsRepository{stats: make(map[string]*models.Statistics)}
}

func (r *statisticsRepository) Get(_ context.Context, id string) (*models.Statistics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats, ok := r.stats[id]
	if !ok {
		return nil, nil
	}
	clone := *stats
	return &clone, nil
}

func (r *statisticsRepository) Save(_ context.Context, stats *models.Statistics) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats.LastUpdated = time.Now()
	clone := *stats
	r.stats[stats.ID] = &clone
	return nil
}

func (r *statisticsRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stats, id)
	return nil
}
