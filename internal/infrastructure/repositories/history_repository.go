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

type historyRepository struct {
	collection *mongo.Collection
}

func NewHistoryRepository(db *database.MongoDB) repositories.HistoryRepository {
	return &historyRepository{
		collection: db.Collection(database.CollectionHistory),
	}
}

func (r *historyRepository) Create(ctx context.Context, record *models.HistoryRecord) error {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	result, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		return err
	}
	record.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *historyRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.HistoryRecord, error) {
	var record models.HistoryRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *historyRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *historyRepository) ListByRecipe(ctx context.Context, recipeID primitive.ObjectID, limit int) ([]*models.HistoryRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{"recipe_id": recipeID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*models.HistoryRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *historyRepository) ListAll(ctx context.Context) ([]*models.HistoryRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*models.HistoryRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *historyRepository) DeleteByRecipe(ctx context.Context, recipeID primitive.ObjectID) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"recipe_id": recipeID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (r *historyRepository) AdoptOrphans(ctx context.Context, recipeID primitive.ObjectID) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{"recipe_id": bson.M{"$in": bson.A{nil, primitive.NilObjectID}}},
		bson.M{"$set": bson.M{"recipe_id": recipeID}})
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}
