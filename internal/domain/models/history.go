package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Rating is the ordinal feedback a user gives a finished pancake.
type Rating string

const (
	RatingBad  Rating = "bad"
	RatingMid  Rating = "mid"
	RatingGood Rating = "good"
)

// Valid reports whether the rating is one of bad/mid/good.
func (r Rating) Valid() bool {
	return r == RatingBad || r == RatingMid || r == RatingGood
}

// Factor maps the rating to its learning direction: bad pushes the
// recommendation away from the observed time, good pulls toward it.
func (r Rating) Factor() float64 {
	switch r {
	case RatingBad:
		return -1
	case RatingGood:
		return 1
	default:
		return 0
	}
}

// Temperature bounds of the cooktop dial.
const (
	MinTemperature = 1
	MaxTemperature = 9
)

// ValidTemperature reports whether t is within the 1-9 dial range.
func ValidTemperature(t int) bool {
	return t >= MinTemperature && t <= MaxTemperature
}

// HistoryRecord is one observed cook: the actual times spent on each side
// at a temperature, plus the user's verdict. Immutable once written,
// except for deletion.
type HistoryRecord struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RecipeID       primitive.ObjectID `bson:"recipe_id" json:"recipe_id"`
	Temperature    int                `bson:"temperature" json:"temperature"`
	FirstSideTime  int                `bson:"first_side_time" json:"first_side_time"`   // seconds
	SecondSideTime int                `bson:"second_side_time" json:"second_side_time"` // seconds
	Rating         Rating             `bson:"rating" json:"rating"`
	Timestamp      time.Time          `bson:"timestamp" json:"timestamp"`
}
