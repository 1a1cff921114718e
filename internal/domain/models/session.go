package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CookPhase is the state of a cook session.
//
//	ready -> first_side -> flip -> second_side -> done -> rated
type CookPhase string

const (
	PhaseReady      CookPhase = "ready"
	PhaseFirstSide  CookPhase = "first_side"
	PhaseFlip       CookPhase = "flip"
	PhaseSecondSide CookPhase = "second_side"
	PhaseDone       CookPhase = "done"
	PhaseRated      CookPhase = "rated"
)

// CookSession tracks one pancake from the moment batter hits the pan until
// the user rates the result. Sessions are in-memory only; the durable
// outcome is the HistoryRecord written when the session is rated.
type CookSession struct {
	ID             string             `json:"id"`
	RecipeID       primitive.ObjectID `json:"recipe_id"`
	Temperature    int                `json:"temperature"`
	Phase          CookPhase          `json:"phase"`
	FirstSideTime  int                `json:"first_side_time"`  // seconds, set at flip
	SecondSideTime int                `json:"second_side_time"` // seconds, set at finish
	Recommended    *Recommendation    `json:"recommended,omitempty"`
	StartedAt      time.Time          `json:"started_at"`
}
