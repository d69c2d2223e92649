// internal/domain/exercise.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Exercise is a canonical entry in the shared exercise library. The library
// holds at most one record per case-insensitively folded name: every import
// of a matching name updates the existing record in place, so sessions that
// extract the same exercise converge on one shared row.
type Exercise struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID    primitive.ObjectID `bson:"ownerId" json:"ownerId"` // first importer keeps ownership
	Name       string             `bson:"name" json:"name"`
	NameFolded string             `bson:"nameFolded" json:"-"` // lowercase key, unique index

	// Descriptive fields, overwritten wholesale on every import.
	StartTime       float64    `bson:"startTime" json:"startTime"`
	EndTime         float64    `bson:"endTime" json:"endTime"`
	Instructions    []string   `bson:"instructions,omitempty" json:"instructions,omitempty"`
	Cues            []string   `bson:"cues,omitempty" json:"cues,omitempty"`
	ScreenshotTimes []float64  `bson:"screenshotTimes,omitempty" json:"screenshotTimes,omitempty"`
	Difficulty      Difficulty `bson:"difficulty,omitempty" json:"difficulty,omitempty"`
	Equipment       []string   `bson:"equipment,omitempty" json:"equipment,omitempty"`

	// Derived from the name at every write. See ClassifyExercise.
	ExerciseType   ExerciseType `bson:"exerciseType" json:"exerciseType"`
	TracksWeight   bool         `bson:"tracksWeight" json:"tracksWeight"`
	TracksReps     bool         `bson:"tracksReps" json:"tracksReps"`
	TracksDuration bool         `bson:"tracksDuration" json:"tracksDuration"`
	TracksDistance bool         `bson:"tracksDistance" json:"tracksDistance"`

	// Time-boxed "newly added" marker, refreshed on every import.
	NewlyAdded      bool               `bson:"newlyAdded" json:"newlyAdded"`
	NewExpiresAt    time.Time          `bson:"newExpiresAt" json:"newExpiresAt"`
	SourceSessionID primitive.ObjectID `bson:"sourceSessionId" json:"sourceSessionId"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsNew reports whether the newly-added marker is still live at t.
func (e *Exercise) IsNew(t time.Time) bool {
	return e.NewlyAdded && t.Before(e.NewExpiresAt)
}
