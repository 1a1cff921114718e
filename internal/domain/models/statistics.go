package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Statistics document IDs. Per-recipe documents use StatisticsID(recipeID);
// the aggregate over all recipes lives under StatisticsGlobalID.
const StatisticsGlobalID = "global"

// StatisticsID returns the statistics document ID for a recipe.
func StatisticsID(recipeID primitive.ObjectID) string {
	return "recipe_" + recipeID.Hex()
}

// Statistics is a derived aggregate over a recipe's history (or all
// history, for the global document). It is a cache: always reproducible
// by recomputing from the history collection.
type Statistics struct {
	ID                    string             `bson:"_id" json:"id"`
	RecipeID              primitive.ObjectID `bson:"recipe_id,omitempty" json:"recipe_id,omitempty"`
	TotalPancakes         int                `bson:"total_pancakes" json:"total_pancakes"`
	GoodPancakes          int                `bson:"good_pancakes" json:"good_pancakes"`
	MidPancakes           int                `bson:"mid_pancakes" json:"mid_pancakes"`
	BadPancakes           int                `bson:"bad_pancakes" json:"bad_pancakes"`
	AverageFirstSideTime  int                `bson:"average_first_side_time" json:"average_first_side_time"`   // seconds
	AverageSecondSideTime int                `bson:"average_second_side_time" json:"average_second_side_time"` // seconds
	PopularTemperature    int                `bson:"popular_temperature" json:"popular_temperature"`
	BestTemperature       int                `bson:"best_temperature" json:"best_temperature"`
	LastUpdated           time.Time          `bson:"last_updated" json:"last_updated"`
}
