package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionStatus tracks the lifecycle of an analysis session.
type SessionStatus string

const (
	SessionPending    SessionStatus = "pending"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionExpired    SessionStatus = "expired"
	SessionError      SessionStatus = "error"
)

// Difficulty levels the analyzer assigns to an exercise.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// AnalyzedExercise is one exercise candidate extracted from a video by the
// analyzer. It has no identity of its own; within a session it is referenced
// only by its position in the session's exercise list.
type AnalyzedExercise struct {
	Name            string     `bson:"name" json:"name"`
	StartTime       float64    `bson:"startTime" json:"startTime"` // seconds into the video
	EndTime         float64    `bson:"endTime" json:"endTime"`
	Instructions    []string   `bson:"instructions,omitempty" json:"instructions,omitempty"`
	Cues            []string   `bson:"cues,omitempty" json:"cues,omitempty"`
	ScreenshotTimes []float64  `bson:"screenshotTimes,omitempty" json:"screenshotTimes,omitempty"`
	Difficulty      Difficulty `bson:"difficulty,omitempty" json:"difficulty,omitempty"`
	Equipment       []string   `bson:"equipment,omitempty" json:"equipment,omitempty"`
}

// ExerciseEdit is a sparse overlay of AnalyzedExercise. A nil field means
// "inherit from the original"; a non-nil pointer to an empty slice means the
// user deliberately cleared the list.
type ExerciseEdit struct {
	Name            *string     `bson:"name,omitempty" json:"name,omitempty"`
	StartTime       *float64    `bson:"startTime,omitempty" json:"startTime,omitempty"`
	EndTime         *float64    `bson:"endTime,omitempty" json:"endTime,omitempty"`
	Instructions    *[]string   `bson:"instructions,omitempty" json:"instructions,omitempty"`
	Cues            *[]string   `bson:"cues,omitempty" json:"cues,omitempty"`
	ScreenshotTimes *[]float64  `bson:"screenshotTimes,omitempty" json:"screenshotTimes,omitempty"`
	Difficulty      *Difficulty `bson:"difficulty,omitempty" json:"difficulty,omitempty"`
	Equipment       *[]string   `bson:"equipment,omitempty" json:"equipment,omitempty"`
}

// IsZero reports whether the edit touches no field at all.
func (e ExerciseEdit) IsZero() bool {
	return e.Name == nil && e.StartTime == nil && e.EndTime == nil &&
		e.Instructions == nil && e.Cues == nil && e.ScreenshotTimes == nil &&
		e.Difficulty == nil && e.Equipment == nil
}

// AnalysisSession is the server-held staging area for one analyzed video.
// The exercise list is immutable once the analyzer has filled it in; user
// review accumulates in Edits and ImportedIndices until the session reaches
// a terminal status or its expiry passes.
//
// Edits is keyed by the decimal string of the exercise index because Mongo
// document keys must be strings.
type AnalysisSession struct {
	ID              primitive.ObjectID      `bson:"_id,omitempty" json:"id"`
	OwnerID         primitive.ObjectID      `bson:"ownerId" json:"ownerId"`
	VideoTitle      string                  `bson:"videoTitle" json:"videoTitle"`
	Sport           string                  `bson:"sport,omitempty" json:"sport,omitempty"`
	VideoObjectKey  string                  `bson:"videoObjectKey" json:"-"`
	TotalDuration   float64                 `bson:"totalDuration" json:"totalDuration"`
	Exercises       []AnalyzedExercise      `bson:"exercises" json:"exercises"`
	Edits           map[string]ExerciseEdit `bson:"edits,omitempty" json:"edits,omitempty"`
	ImportedIndices []int                   `bson:"importedIndices,omitempty" json:"importedIndices"`
	Status          SessionStatus           `bson:"status" json:"status"`
	AutoImported    bool                    `bson:"autoImported" json:"autoImported"`
	ErrorMessage    string                  `bson:"errorMessage,omitempty" json:"errorMessage,omitempty"`
	CreatedAt       time.Time               `bson:"createdAt" json:"createdAt"`
	ExpiresAt       time.Time               `bson:"expiresAt" json:"expiresAt"`
	CompletedAt     *time.Time              `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

// EditForIndex returns the accumulated edit for an exercise index, if any.
func (s *AnalysisSession) EditForIndex(i int) *ExerciseEdit {
	if s.Edits == nil {
		return nil
	}
	if e, ok := s.Edits[EditKey(i)]; ok {
		return &e
	}
	return nil
}

// HasImported reports whether the exercise at index i has already been
// written to the library by this session.
func (s *AnalysisSession) HasImported(i int) bool {
	for _, v := range s.ImportedIndices {
		if v == i {
			return true
		}
	}
	return false
}

// IsTerminalForImport reports whether further imports are refused. A session
// the sweeper already force-imported is sealed; everything else, including a
// completed session, stays open to later corrections.
func (s *AnalysisSession) IsTerminalForImport() bool {
	return s.Status == SessionExpired && s.AutoImported
}
