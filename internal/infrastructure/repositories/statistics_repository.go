package repositories

import (
	"context"
	"time"

	"github.com/ak/griddle/internal/domain/models"
	"github.com/ak/griddle/internal/domain/repositories"
	"github.com/ak/griddle/internal/infrastructure/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type statisticsRepository struct {
	collection *mongo.Collection
}

func NewStatisticsRepository(db *database.MongoDB) repositories.StatisticsRepository {
	return &statisticsRepository{
		collection: db.Collection(database.CollectionStatistics),
	}
}

func (r *statisticsRepository) Get(ctx context.Context, id string) (*models.Statistics, error) {
	var stats models.Statistics
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&stats)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &stats, nil
}

func (r *statisticsRepository) Save(ctx context.Context, stats *models.Statistics) error {
	stats.LastUpdated = time.Now()
	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"_id": stats.ID},
		stats,
		options.Replace().SetUpsert(true))
	return err
}

func (r *statisticsRepository) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
