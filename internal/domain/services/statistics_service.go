package services

import (
	"context"
	"math"
	"time"

	"github.com/ak/griddle/internal/domain/models"
	"github.com/ak/griddle/internal/domain/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// minRatingsForBest is the sample size a temperature needs before it can be
// called the best one.
const minRatingsForBest = 3

// StatisticsService maintains the derived aggregates over cook history.
// The documents are a cache: every value is recomputable from history, and
// Recompute is invoked on every history mutation.
type StatisticsService interface {
	Recompute(ctx context.Context, recipeID primitive.ObjectID) (*models.Statistics, error)
	Get(ctx context.Context, recipeID primitive.ObjectID) (*models.Statistics, error)
	Global(ctx context.Context) (*models.Statistics, error)
}

type statisticsService struct {
	histRepo  repositories.HistoryRepository
	statsRepo repositories.StatisticsRepository
}

// NewStatisticsService creates a new statistics service
func NewStatisticsService(histRepo repositories.HistoryRepository, statsRepo repositories.StatisticsRepository) StatisticsService {
	return &statisticsService{
		histRepo:  histRepo,
		statsRepo: statsRepo,
	}
}

// Recompute rebuilds the per-recipe document and the global document from
// history and persists both. Returns the per-recipe statistics.
func (s *statisticsService) Recompute(ctx context.Context, recipeID primitive.ObjectID) (*models.Statistics, error) {
	records, err := s.histRepo.ListByRecipe(ctx, recipeID, 0)
	if err != nil {
		return nil, err
	}

	stats := computeStatistics(models.StatisticsID(recipeID), recipeID, records)
	if err := s.statsRepo.Save(ctx, stats); err != nil {
		return nil, err
	}

	all, err := s.histRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	global := computeStatistics(models.StatisticsGlobalID, primitive.NilObjectID, all)
	if err := s.statsRepo.Save(ctx, global); err != nil {
		return nil, err
	}

	return stats, nil
}

// Get returns the recipe's statistics, falling back to the global document
// and then to an empty default when neither has been computed yet.
func (s *statisticsService) Get(ctx context.Context, recipeID primitive.ObjectID) (*models.Statistics, error) {
	stats, err := s.statsRepo.Get(ctx, models.StatisticsID(recipeID))
	if err != nil {
		return nil, err
	}
	if stats != nil {
		return stats, nil
	}

	global, err := s.statsRepo.Get(ctx, models.StatisticsGlobalID)
	if err != nil {
		return nil, err
	}
	if global != nil {
		return global, nil
	}

	return emptyStatistics(models.StatisticsID(recipeID), recipeID), nil
}

func (s *statisticsService) Global(ctx context.Context) (*models.Statistics, error) {
	global, err := s.statsRepo.Get(ctx, models.StatisticsGlobalID)
	if err != nil {
		return nil, err
	}
	if global != nil {
		return global, nil
	}
	return emptyStatistics(models.StatisticsGlobalID, primitive.NilObjectID), nil
}

func emptyStatistics(id string, recipeID primitive.ObjectID) *models.Statistics {
	return &models.Statistics{
		ID:                 id,
		RecipeID:           recipeID,
		PopularTemperature: 5,
		BestTemperature:    5,
		LastUpdated:        time.Now(),
	}
}

func computeStatistics(id string, recipeID primitive.ObjectID, records []*models.HistoryRecord) *models.Statistics {
	stats := &models.Statistics{
		ID:            id,
		RecipeID:      recipeID,
		TotalPancakes: len(records),
	}

	if len(records) == 0 {
		return stats
	}

	var firstSum, secondSum int
	tempCounts := make(map[int]int)
	tempGood := make(map[int]int)

	for _, record := range records {
		switch record.Rating {
		case models.RatingGood:
			stats.GoodPancakes++
			tempGood[record.Temperature]++
		case models.RatingMid:
			stats.MidPancakes++
		case models.RatingBad:
			stats.BadPancakes++
		}
		firstSum += record.FirstSideTime
		secondSum += record.SecondSideTime
		tempCounts[record.Temperature]++
	}

	stats.AverageFirstSideTime = int(math.Round(float64(firstSum) / float64(len(records))))
	stats.AverageSecondSideTime = int(math.Round(float64(secondSum) / float64(len(records))))

	maxCount := 0
	for temp, count := range tempCounts {
		if count > maxCount || (count == maxCount && temp < stats.PopularTemperature) {
			maxCount = count
			stats.PopularTemperature = temp
		}
	}

	bestRatio := 0.0
	for temp, count := range tempCounts {
		if count < minRatingsForBest {
			continue
		}
		ratio := float64(tempGood[temp]) / float64(count)
		if ratio > bestRatio {
			bestRatio = ratio
			stats.BestTemperature = temp
		}
	}

	return stats
}
