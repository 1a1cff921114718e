package services

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/ak/griddle/internal/domain/models"
	"github.com/ak/griddle/internal/domain/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Learning rates. The engine learns fast while a temperature has little
// history, then backs off as good ratings accumulate.
const (
	rateInitial    = 0.4
	rateConfident  = 0.2
	rateFinetuning = 0.07

	confidentThreshold  = 3 // good ratings in the window to switch to rateConfident
	finetuningThreshold = 4 // good ratings in the window to switch to rateFinetuning

	historyWindow    = 50 // most recent records fetched per update
	confidenceWindow = 10 // cap on records used for confidence

	// Adjustment shape. A bad rating within closeDiffSecs of the current
	// recommendation is treated as ambiguous (the timing was probably not
	// the problem) and nudged gently; beyond it, the estimate is pushed
	// firmly away from the failing time. Mid ratings mirror this with the
	// wider farDiffSecs band. Empirically tuned; do not rederive.
	closeDiffSecs = 15
	farDiffSecs   = 25
	badCloseDamp  = 0.4
	badFarDamp    = 0.9
	midFarDamp    = 0.6
	midCloseDamp  = 0.2

	explorationScale = 0.2  // exploration noise as a fraction of the learning rate
	jitterFraction   = 0.05 // ±5% spread on defaults before any real data exists

	neighborRadius         = 3
	neighborConfidenceStep = 0.05
	fallbackTempScale      = 7 // seconds per level when the recipe carries no scale factor
)

// similarity weights how strongly a rating at one temperature influences
// its neighbors, by dial distance.
var similarity = map[int]float64{1: 0.6, 2: 0.3, 3: 0.1}

// Noise yields values in [-1, 1). It seeds default-time jitter and the
// exploration term of every adjustment. Injectable so tests can pin it.
type Noise func() float64

// NoNoise disables jitter and exploration entirely.
func NoNoise() float64 { return 0 }

// RandNoise returns a Noise backed by its own rand source. A zero seed
// picks one from the wall clock.
func RandNoise(seed int64) Noise {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	return func() float64 { return rng.Float64()*2 - 1 }
}

// EngineService learns per-temperature cook times from user feedback.
// UpdateRecommendation and ResetRecipeRecommendations are serialized per
// recipe, so a learned row can never survive a concurrent reset.
type EngineService interface {
	GetRecommendation(ctx context.Context, recipeID primitive.ObjectID, temperature int) (*models.Recommendation, error)
	ListRecommendations(ctx context.Context, recipeID primitive.ObjectID) ([]*models.Recommendation, error)
	UpdateRecommendation(ctx context.Context, recipeID primitive.ObjectID, temperature, firstSideTime, secondSideTime int, rating models.Rating) (*models.Recommendation, error)
	ResetRecipeRecommendations(ctx context.Context, recipeID primitive.ObjectID) error
	PancakeStage(elapsedSeconds, recommendedSeconds int) models.PancakeStage
	DefaultFirstSideTime(temperature int, recipe *models.Recipe) int
	DefaultSecondSideTime(temperature int, recipe *models.Recipe) int
}

type engineService struct {
	recipeRepo  repositories.RecipeRepository
	recRepo     repositories.RecommendationRepository
	histRepo    repositories.HistoryRepository
	noise       Noise
	minCookTime int
	maxCookTime int

	mu    sync.Mutex
	locks map[primitive.ObjectID]*sync.Mutex
}

// NewEngineService creates a new recommendation engine. A nil noise source
// gets a wall-clock-seeded one. minCookTime/maxCookTime bound every
// recommendation for recipes that carry no bounds of their own; non-positive
// values fall back to the built-in defaults.
func NewEngineService(
	recipeRepo repositories.RecipeRepository,
	recRepo repositories.RecommendationRepository,
	histRepo repositories.HistoryRepository,
	noise Noise,
	minCookTime, maxCookTime int,
) EngineService {
	if noise == nil {
		noise = RandNoise(0)
	}
	if minCookTime <= 0 {
		minCookTime = models.DefaultMinCookTime
	}
	if maxCookTime <= 0 {
		maxCookTime = models.DefaultMaxCookTime
	}
	return &engineService{
		recipeRepo:  recipeRepo,
		recRepo:     recRepo,
		histRepo:    histRepo,
		noise:       noise,
		minCookTime: minCookTime,
		maxCookTime: maxCookTime,
		locks:       make(map[primitive.ObjectID]*sync.Mutex),
	}
}

// recipeLock returns the mutex serializing mutations for one recipe. An
// update's read-modify-write must never interleave with a reset's
// delete-then-reseed over the same rows.
func (s *engineService) recipeLock(recipeID primitive.ObjectID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[recipeID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[recipeID] = lock
	}
	return lock
}

// bounds returns the clamp range for a recipe, falling back to the
// service-wide bounds when the recipe carries none.
func (s *engineService) bounds(recipe *models.Recipe) (int, int) {
	min, max := s.minCookTime, s.maxCookTime
	if recipe != nil {
		if recipe.MinCookTime > 0 {
			min = recipe.MinCookTime
		}
		if recipe.MaxCookTime > 0 {
			max = recipe.MaxCookTime
		}
	}
	return min, max
}

// GetRecommendation returns the stored recommendation for the pair, or a
// synthesized default when none exists. The synthesized row is not
// persisted; rows are only written by ratings and explicit resets. A
// missing recipe is tolerated by falling back to the regular profile.
func (s *engineService) GetRecommendation(ctx context.Context, recipeID primitive.ObjectID, temperature int) (*models.Recommendation, error) {
	if !models.ValidTemperature(temperature) {
		return nil, fmt.Errorf("temperature %d out of range %d-%d", temperature, models.MinTemperature, models.MaxTemperature)
	}

	rec, err := s.recRepo.Get(ctx, recipeID, temperature)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		return rec, nil
	}

	recipe, err := s.recipeRepo.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	return s.defaultRecommendation(recipeID, temperature, recipe), nil
}

func (s *engineService) ListRecommendations(ctx context.Context, recipeID primitive.ObjectID) ([]*models.Recommendation, error) {
	return s.recRepo.ListByRecipe(ctx, recipeID)
}

func (s *engineService) defaultRecommendation(recipeID primitive.ObjectID, temperature int, recipe *models.Recipe) *models.Recommendation {
	return &models.Recommendation{
		RecipeID:       recipeID,
		Temperature:    temperature,
		FirstSideTime:  s.DefaultFirstSideTime(temperature, recipe),
		SecondSideTime: s.DefaultSecondSideTime(temperature, recipe),
		Confidence:     0,
		DataPoints:     0,
		LastUpdated:    time.Now(),
	}
}

// DefaultFirstSideTime derives a first-side estimate from the batter
// profile: the base time at dial 5, minus the scale factor per level above
// it. Recipes without any real data get a ±5% jitter so fresh recipes do
// not all start from identical suggestions.
func (s *engineService) DefaultFirstSideTime(temperature int, recipe *models.Recipe) int {
	base, scale, _ := models.BatterProfile(batterThickness(recipe))

	value := float64(base - (temperature-5)*scale)
	if recipe == nil || !recipe.HasData {
		value = math.Round(value + value*jitterFraction*s.noise())
	}

	min, max := s.bounds(recipe)
	return clampRound(value, min, max)
}

// DefaultSecondSideTime is the first-side default scaled by the recipe's
// second-side ratio (the second side cooks on an already-hot pancake).
func (s *engineService) DefaultSecondSideTime(temperature int, recipe *models.Recipe) int {
	ratio := secondSideRatio(recipe)
	return int(math.Round(float64(s.DefaultFirstSideTime(temperature, recipe)) * ratio))
}

// UpdateRecommendation folds one observed cook into the stored estimate for
// (recipeID, temperature) and propagates a damped nudge to neighboring
// temperatures. Returns the updated recommendation for the rated pair.
func (s *engineService) UpdateRecommendation(ctx context.Context, recipeID primitive.ObjectID, temperature, firstSideTime, secondSideTime int, rating models.Rating) (*models.Recommendation, error) {
	if !models.ValidTemperature(temperature) {
		return nil, fmt.Errorf("temperature %d out of range %d-%d", temperature, models.MinTemperature, models.MaxTemperature)
	}
	if !rating.Valid() {
		return nil, fmt.Errorf("invalid rating %q", rating)
	}

	lock := s.recipeLock(recipeID)
	lock.Lock()
	defer lock.Unlock()

	recipe, err := s.recipeRepo.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	current, err := s.GetRecommendation(ctx, recipeID, temperature)
	if err != nil {
		return nil, err
	}

	history, err := s.histRepo.ListByRecipe(ctx, recipeID, historyWindow)
	if err != nil {
		return nil, err
	}

	confidence, goodCount := confidenceAt(history, temperature)
	rate := learningRate(goodCount)
	factor := rating.Factor()

	firstAdj := s.calculateAdjustment(float64(firstSideTime), float64(current.FirstSideTime), factor, rate)
	secondAdj := s.calculateAdjustment(float64(secondSideTime), float64(current.SecondSideTime), factor, rate)

	min, max := s.bounds(recipe)
	updated := &models.Recommendation{
		RecipeID:       recipeID,
		Temperature:    temperature,
		FirstSideTime:  clampRound(float64(current.FirstSideTime)+firstAdj, min, max),
		SecondSideTime: clampRound(float64(current.SecondSideTime)+secondAdj, min, max),
		Confidence:     confidence,
		DataPoints:     current.DataPoints + 1, // direct observation
	}

	if recipe != nil && !recipe.HasData {
		recipe.HasData = true
		if err := s.recipeRepo.Update(ctx, recipe); err != nil {
			return nil, err
		}
	}

	if err := s.recRepo.Save(ctx, updated); err != nil {
		return nil, err
	}

	// Neighbors learn from the observed times, not the post-update estimate.
	if err := s.updateNeighboringTemperatures(ctx, recipeID, temperature, firstSideTime, secondSideTime, rating, recipe); err != nil {
		return nil, err
	}

	return updated, nil
}

// confidenceAt computes the fraction of good ratings among the most recent
// records at the target temperature, capped at confidenceWindow. The
// history slice must be newest first.
func confidenceAt(history []*models.HistoryRecord, temperature int) (float64, int) {
	var recent []*models.HistoryRecord
	for _, record := range history {
		if record.Temperature != temperature {
			continue
		}
		recent = append(recent, record)
		if len(recent) == confidenceWindow {
			break
		}
	}
	if len(recent) == 0 {
		return 0, 0
	}

	good := 0
	for _, record := range recent {
		if record.Rating == models.RatingGood {
			good++
		}
	}
	return float64(good) / float64(len(recent)), good
}

func learningRate(goodCount int) float64 {
	switch {
	case goodCount >= finetuningThreshold:
		return rateFinetuning
	case goodCount >= confidentThreshold:
		return rateConfident
	default:
		return rateInitial
	}
}

// calculateAdjustment decides how far to move the recommendation given one
// observation. Good ratings pull toward what worked. Bad ratings push away
// from the failing time, gently when the observation was already close to
// the recommendation. Mid ratings make small corrections, larger when the
// observation strays far. An exploration term keeps the estimate from
// freezing in a local optimum.
func (s *engineService) calculateAdjustment(actual, recommended, ratingFactor, rate float64) float64 {
	diff := actual - recommended

	var adj float64
	switch {
	case ratingFactor > 0:
		adj = diff * rate
	case ratingFactor < 0:
		if math.Abs(diff) < closeDiffSecs {
			adj = -diff * rate * badCloseDamp
		} else {
			adj = -diff * rate * badFarDamp
		}
	default:
		if math.Abs(diff) > farDiffSecs {
			adj = diff * rate * midFarDamp
		} else {
			adj = diff * rate * midCloseDamp
		}
	}

	return adj + rate*explorationScale*s.noise()
}

// updateNeighboringTemperatures spreads a rating to dial positions within
// neighborRadius of the rated one. Bad ratings are not propagated: the
// correction they imply is too noisy to generalize. Each neighbor moves
// toward the observed times shifted by the recipe's temperature scale
// (hotter means shorter), damped twice by the similarity weight.
func (s *engineService) updateNeighboringTemperatures(ctx context.Context, recipeID primitive.ObjectID, ratedTemp, firstSideTime, secondSideTime int, rating models.Rating, recipe *models.Recipe) error {
	if rating != models.RatingGood && rating != models.RatingMid {
		return nil
	}

	ratingScale := 1.0
	if rating == models.RatingMid {
		ratingScale = 0.5
	}

	tempScale := fallbackTempScale
	if recipe != nil && recipe.TempScaleFactor > 0 {
		tempScale = recipe.TempScaleFactor
	}
	min, max := s.bounds(recipe)

	lo := maxInt(models.MinTemperature, ratedTemp-neighborRadius)
	hi := minInt(models.MaxTemperature, ratedTemp+neighborRadius)

	for t := lo; t <= hi; t++ {
		if t == ratedTemp {
			continue
		}

		weight := similarity[absInt(ratedTemp-t)]
		scaledRate := ratingScale * weight * rateInitial

		neighbor, err := s.GetRecommendation(ctx, recipeID, t)
		if err != nil {
			return err
		}

		tempAdj := float64((t - ratedTemp) * tempScale)
		targetFirst := float64(firstSideTime) - tempAdj
		targetSecond := float64(secondSideTime) - tempAdj*0.8

		firstAdj := (targetFirst - float64(neighbor.FirstSideTime)) * scaledRate * weight
		secondAdj := (targetSecond - float64(neighbor.SecondSideTime)) * scaledRate * weight

		// A cell with zero real observations must never look observed.
		dataPoints := 0.0
		if neighbor.DataPoints > 0 {
			dataPoints = neighbor.DataPoints + weight
		}

		updated := &models.Recommendation{
			RecipeID:       recipeID,
			Temperature:    t,
			FirstSideTime:  clampRound(float64(neighbor.FirstSideTime)+firstAdj, min, max),
			SecondSideTime: clampRound(float64(neighbor.SecondSideTime)+secondAdj, min, max),
			Confidence:     math.Min(1, neighbor.Confidence+weight*neighborConfidenceStep),
			DataPoints:     dataPoints,
		}

		if err := s.recRepo.Save(ctx, updated); err != nil {
			return err
		}
	}
	return nil
}

// PancakeStage maps the fraction of recommended time elapsed to a doneness
// stage. The thresholds are percentages of the recommendation, not
// absolute seconds.
func (s *engineService) PancakeStage(elapsedSeconds, recommendedSeconds int) models.PancakeStage {
	if recommendedSeconds <= 0 {
		return models.StageBurnt
	}
	percentage := float64(elapsedSeconds) / float64(recommendedSeconds) * 100

	switch {
	case percentage < 20:
		return models.StageRaw
	case percentage < 45:
		return models.StageCooking
	case percentage < 75:
		return models.StageMedium
	case percentage < 95:
		return models.StageCooked
	default:
		return models.StageBurnt
	}
}

// ResetRecipeRecommendations drops every stored row for the recipe and
// writes fresh defaults for the whole dial with zero confidence and zero
// data points. Used on recipe creation and when history is cleared.
func (s *engineService) ResetRecipeRecommendations(ctx context.Context, recipeID primitive.ObjectID) error {
	lock := s.recipeLock(recipeID)
	lock.Lock()
	defer lock.Unlock()

	recipe, err := s.recipeRepo.GetByID(ctx, recipeID)
	if err != nil {
		return err
	}

	if _, err := s.recRepo.DeleteByRecipe(ctx, recipeID); err != nil {
		return err
	}

	for t := models.MinTemperature; t <= models.MaxTemperature; t++ {
		if err := s.recRepo.Save(ctx, s.defaultRecommendation(recipeID, t, recipe)); err != nil {
			return err
		}
	}
	return nil
}

func batterThickness(recipe *models.Recipe) models.BatterThickness {
	if recipe == nil {
		return models.BatterRegular
	}
	return recipe.BatterThickness
}

func secondSideRatio(recipe *models.Recipe) float64 {
	if recipe != nil && recipe.SecondSideRatio > 0 {
		return recipe.SecondSideRatio
	}
	_, _, ratio := models.BatterProfile(batterThickness(recipe))
	return ratio
}

func clampRound(value float64, min, max int) int {
	rounded := int(math.Round(value))
	if rounded < min {
		return min
	}
	if rounded > max {
		return max
	}
	return rounded
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
