package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Recommendation is the learned (or default) cook time for one
// (recipe, temperature) pair. Rows are created lazily: a missing row means
// the engine synthesizes a default on read without persisting it.
//
// DataPoints counts the observations backing the row. Direct ratings add a
// whole point; neighbor propagation adds the fractional similarity weight,
// and only when the row already has at least one real observation.
type Recommendation struct {
	RecipeID       primitive.ObjectID `bson:"recipe_id" json:"recipe_id"`
	Temperature    int                `bson:"temperature" json:"temperature"`
	FirstSideTime  int                `bson:"first_side_time" json:"first_side_time"`   // seconds
	SecondSideTime int                `bson:"second_side_time" json:"second_side_time"` // seconds
	Confidence     float64            `bson:"confidence" json:"confidence"`
	DataPoints     float64            `bson:"data_points" json:"data_points"`
	LastUpdated    time.Time          `bson:"last_updated" json:"last_updated"`
}

// PancakeStage describes doneness as a fraction of the recommended time.
type PancakeStage string

const (
	StageRaw     PancakeStage = "raw"
	StageCooking PancakeStage = "cooking"
	StageMedium  PancakeStage = "medium"
	StageCooked  PancakeStage = "cooked"
	StageBurnt   PancakeStage = "burnt"
)
