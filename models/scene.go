package models

// SceneParams are the user-selected controls for a regeneration batch
type SceneParams struct {
	Location    string   `bson:"location" json:"location"`
	Mode        string   `bson:"mode" json:"mode"`                 // cruising, docked, anchored, planing
	Mood        string   `bson:"mood" json:"mood"`                 // lighting mood
	Lens        string   `bson:"lens" json:"lens"`                 // lens profile
	AspectRatio string   `bson:"aspect_ratio" json:"aspectRatio"`  // e.g. "16:9"
	Emphasis    []string `bson:"emphasis" json:"emphasis"`         // free-text emphasis phrases
}

// ValidationResult is the vision QC verdict for one generated image
type ValidationResult struct {
	Status    string   `bson:"status" json:"status"` // approved, flagged, skipped
	Reasoning string   `bson:"reasoning" json:"reasoning"`
	Issues    []string `bson:"issues,omitempty" json:"issues,omitempty"`
}

// SceneMetadata echoes the request parameters plus which engine produced the image
type SceneMetadata struct {
	SceneParams `bson:",inline"`
	Engine      string `bson:"engine" json:"engine"` // gemini or dalle
}

// SceneResult is the per-image outcome of a generation batch
type SceneResult struct {
	ID         string            `bson:"id" json:"id"`
	FileName   string            `bson:"file_name" json:"fileName"`
	Status     string            `bson:"status" json:"status"` // completed, failed
	ImageKey   string            `bson:"image_key,omitempty" json:"-"`
	ImageURL   string            `bson:"-" json:"imageUrl,omitempty"` // presigned, never persisted
	Error      string            `bson:"error,omitempty" json:"error,omitempty"`
	Validation *ValidationResult `bson:"validation,omitempty" json:"validation,omitempty"`
	Metadata   SceneMetadata     `bson:"metadata" json:"metadata"`
}
