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

type preferenceRepository struct {
	collection *mongo.Collection
}

func NewPreferenceRepository(db *database.MongoDB) repositories.PreferenceRepository {
	return &preferenceRepository{
		collection: db.Collection(database.CollectionPreferences),
	}
}

func (r *preferenceRepository) Get(ctx context.Context, key string) (*models.Preference, error) {
	var pref models.Preference
	err := r.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&pref)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &pref, nil
}

func (r *preferenceRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$set": bson.M{"value": value, "last_updated": time.Now()}},
		options.Update().SetUpsert(true))
	return err
}

func (r *preferenceRepository) Delete(ctx context.Context, key string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": key})
	return err
}
