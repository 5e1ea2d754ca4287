package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SceneBatch records one /generate request and its per-image results
type SceneBatch struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"user_id" json:"user_id"`
	Params    SceneParams        `bson:"params" json:"params"`
	Results   []SceneResult      `bson:"results" json:"results"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	IsDeleted bool               `bson:"is_deleted" json:"is_deleted"` // Soft delete flag
}
