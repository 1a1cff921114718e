package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BatterThickness classifies how a batter responds to heat. It drives the
// default cook-time profile used before any feedback has been collected.
type BatterThickness string

const (
	BatterRegular BatterThickness = "regular"
	BatterThin    BatterThickness = "thin"
	BatterThick   BatterThickness = "thick"
)

// Recipe represents a batter profile. Learned recommendations and cook
// history are both scoped to a recipe.
type Recipe struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	BatterThickness BatterThickness    `bson:"batter_thickness" json:"batter_thickness"`
	DefaultBaseTime int                `bson:"default_base_time,omitempty" json:"default_base_time,omitempty"` // seconds at temperature 5
	TempScaleFactor int                `bson:"temp_scale_factor,omitempty" json:"temp_scale_factor,omitempty"` // seconds shed per temperature level
	SecondSideRatio float64            `bson:"second_side_ratio,omitempty" json:"second_side_ratio,omitempty"`
	MinCookTime     int                `bson:"min_cook_time,omitempty" json:"min_cook_time,omitempty"` // seconds
	MaxCookTime     int                `bson:"max_cook_time,omitempty" json:"max_cook_time,omitempty"` // seconds
	IsDefault       bool               `bson:"is_default" json:"is_default"`
	HasData         bool               `bson:"has_data" json:"has_data"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	LastUpdated     time.Time          `bson:"last_updated" json:"last_updated"`
}

// Batter profile constants. The base time is the first-side estimate at
// temperature 5; the scale factor is seconds removed per level above 5.
const (
	RegularBaseTime    = 90
	RegularScaleFactor = 10
	RegularSecondRatio = 0.8

	ThickBaseTime    = 110
	ThickScaleFactor = 15
	ThickSecondRatio = 0.75

	ThinBaseTime    = 70
	ThinScaleFactor = 7
	ThinSecondRatio = 0.9

	DefaultMinCookTime = 30
	DefaultMaxCookTime = 240
)

// BatterProfile returns the (baseTime, scaleFactor, secondSideRatio) defaults
// for a thickness. Unknown thickness falls back to the regular profile.
func BatterProfile(thickness BatterThickness) (int, int, float64) {
	switch thickness {
	case BatterThick:
		return ThickBaseTime, ThickScaleFactor, ThickSecondRatio
	case BatterThin:
		return ThinBaseTime, ThinScaleFactor, ThinSecondRatio
	default:
		return RegularBaseTime, RegularScaleFactor, RegularSecondRatio
	}
}

// ApplyThicknessDefaults fills the timing fields from the batter profile
// when they are unset.
func (r *Recipe) ApplyThicknessDefaults() {
	base, scale, ratio := BatterProfile(r.BatterThickness)
	if r.DefaultBaseTime == 0 {
		r.DefaultBaseTime = base
	}
	if r.TempScaleFactor == 0 {
		r.TempScaleFactor = scale
	}
	if r.SecondSideRatio == 0 {
		r.SecondSideRatio = ratio
	}
	if r.MinCookTime == 0 {
		r.MinCookTime = DefaultMinCookTime
	}
	if r.MaxCookTime == 0 {
		r.MaxCookTime = DefaultMaxCookTime
	}
}
