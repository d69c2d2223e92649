package api

import (
	"alcyxob/fitness-analysis/internal/domain"
	"alcyxob/fitness-analysis/internal/service"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseHandler serves the shared exercise library.
type ExerciseHandler struct {
	libraryService service.LibraryService
	now            func() time.Time // injected so is_new is deterministic in tests
}

// NewExerciseHandler creates a new ExerciseHandler.
func NewExerciseHandler(libraryService service.LibraryService) *ExerciseHandler {
	return &ExerciseHandler{
		libraryService: libraryService,
		now:            time.Now,
	}
}

// --- DTOs for API (Data Transfer Objects) ---

// ExerciseResponse is the DTO for returning library exercise details.
type ExerciseResponse struct {
	ID              string            `json:"id"`
	OwnerID         string            `json:"ownerId"`
	Name            string            `json:"name"`
	StartTime       float64           `json:"startTime"`
	EndTime         float64           `json:"endTime"`
	Instructions    []string          `json:"instructions,omitempty"`
	Cues            []string          `json:"cues,omitempty"`
	ScreenshotTimes []float64         `json:"screenshotTimes,omitempty"`
	Difficulty      domain.Difficulty `json:"difficulty,omitempty"`
	Equipment       []string          `json:"equipment,omitempty"`

	ExerciseType   domain.ExerciseType `json:"exerciseType"`
	TracksWeight   bool                `json:"tracksWeight"`
	TracksReps     bool                `json:"tracksReps"`
	TracksDuration bool                `json:"tracksDuration"`
	TracksDistance bool                `json:"tracksDistance"`

	IsNew           bool      `json:"is_new"`
	SourceSessionID string    `json:"sourceSessionId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// MapExerciseToResponse converts a domain.Exercise to ExerciseResponse DTO.
// The is_new flag is evaluated against the current clock, not stored state.
func MapExerciseToResponse(ex *domain.Exercise, now time.Time) ExerciseResponse {
	if ex == nil {
		return ExerciseResponse{}
	}
	sourceSessionID := ""
	if !ex.SourceSessionID.IsZero() {
		sourceSessionID = ex.SourceSessionID.Hex()
	}
	return ExerciseResponse{
		ID:              ex.ID.Hex(),
		OwnerID:         ex.OwnerID.Hex(),
		Name:            ex.Name,
		StartTime:       ex.StartTime,
		EndTime:         ex.EndTime,
		Instructions:    ex.Instructions,
		Cues:            ex.Cues,
		ScreenshotTimes: ex.ScreenshotTimes,
		Difficulty:      ex.Difficulty,
		Equipment:       ex.Equipment,
		ExerciseType:    ex.ExerciseType,
		TracksWeight:    ex.TracksWeight,
		TracksReps:      ex.TracksReps,
		TracksDuration:  ex.TracksDuration,
		TracksDistance:  ex.TracksDistance,
		IsNew:           ex.IsNew(now),
		SourceSessionID: sourceSessionID,
		CreatedAt:       ex.CreatedAt,
		UpdatedAt:       ex.UpdatedAt,
	}
}

// MapExercisesToResponse converts a slice of domain.Exercise to a slice of ExerciseResponse DTO.
func MapExercisesToResponse(exercises []domain.Exercise, now time.Time) []ExerciseResponse {
	responses := make([]ExerciseResponse, len(exercises))
	for i, ex := range exercises {
		responses[i] = MapExerciseToResponse(&ex, now)
	}
	return responses
}

// --- Handler Methods ---

// ListExercises returns the whole shared library.
func (h *ExerciseHandler) ListExercises(c *gin.Context) {
	exercises, err := h.libraryService.ListExercises(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve exercises.")
		return
	}

	if exercises == nil {
		c.JSON(http.StatusOK, []ExerciseResponse{})
		return
	}

	c.JSON(http.StatusOK, MapExercisesToResponse(exercises, h.now()))
}

// GetExercise returns a single library exercise by ID.
func (h *ExerciseHandler) GetExercise(c *gin.Context) {
	exerciseID, err := primitive.ObjectIDFromHex(c.Param("exerciseId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format.")
		return
	}

	exercise, err := h.libraryService.GetExerciseByID(c.Request.Context(), exerciseID)
	if err != nil {
		if errors.Is(err, service.ErrExerciseNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve exercise.")
		}
		return
	}

	c.JSON(http.StatusOK, MapExerciseToResponse(exercise, h.now()))
}
