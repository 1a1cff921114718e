package repositories

import (
	"context"
	"time"

	"github.com/ak/griddle/internal/domain/models"
	"github.com/ak/griddle/internal/domain/repositories"
	"github.com/ak/griddle/internal/infrastructure/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type recommendationRepository struct {
	collection *mongo.Collection
}

func NewRecommendationRepository(db *database.MongoDB) repositories.RecommendationRepository {
	return &recommendationRepository{
		collection: db.Collection(database.CollectionRecommendations),
	}
}

func (r *recommendationRepository) Get(ctx context.Context, recipeID primitive.ObjectID, temperature int) (*models.Recommendation, error) {
	var rec models.Recommendation
	err := r.collection.FindOne(ctx, bson.M{
		"recipe_id":   recipeID,
		"temperature": temperature,
	}).Decode(&rec)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// Save replaces the whole row. Partial updates are deliberately not offered:
// confidence and dataPoints must never survive from an older write.
func (r *recommendationRepository) Save(ctx context.Context, rec *models.Recommendation) error {
	rec.LastUpdated = time.Now()
	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"recipe_id": rec.RecipeID, "temperature": rec.Temperature},
		rec,
		options.Replace().SetUpsert(true))
	return err
}

func (r *recommendationRepository) ListByRecipe(ctx context.Context, recipeID primitive.ObjectID) ([]*models.Recommendation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "temperature", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"recipe_id": recipeID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var recs []*models.Recommendation
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *recommendationRepository) DeleteByRecipe(ctx context.Context, recipeID primitive.ObjectID) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"recipe_id": recipeID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
