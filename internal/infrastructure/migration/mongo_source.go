package migration

import (
	"context"

	"github.com/ak/griddle/internal/infrastructure/database"
	"go.mongodb.org/mongo-driver/bson"
)

type mongoLegacySource struct {
	db *database.MongoDB
}

// NewMongoLegacySource reads version 1 recommendation rows from the
// collection the old layout kept them in.
func NewMongoLegacySource(db *database.MongoDB) LegacySource {
	return &mongoLegacySource{db: db}
}

func (s *mongoLegacySource) Recommendations(ctx context.Context) ([]LegacyRecommendation, error) {
	cursor, err := s.db.Collection(database.CollectionLegacyRecommendations).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []LegacyRecommendation
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
