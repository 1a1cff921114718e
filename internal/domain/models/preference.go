package models

import "time"

// Well-known preference keys.
const (
	PrefCurrentRecipeID = "currentRecipeId"
	PrefSchemaVersion   = "schemaVersion"
)

// Preference is a generic key/value setting.
type Preference struct {
	Key         string    `bson:"_id" json:"key"`
	Value       string    `bson:"value" json:"value"`
	LastUpdated time.Time `bson:"last_updated" json:"last_updated"`
}
