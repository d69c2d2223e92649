package api

import (
	"alcyxob/fitness-analysis/internal/analysis"
	"alcyxob/fitness-analysis/internal/domain"
	"alcyxob/fitness-analysis/internal/service"
	"alcyxob/fitness-analysis/internal/storage"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionHandler exposes the video analysis staging flow: upload URL,
// session creation, review, selective import, and the scheduler sweep.
type SessionHandler struct {
	stagingService service.StagingService
	fileStorage    storage.FileStorage
	sweepToken     string
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(stagingService service.StagingService, fileStorage storage.FileStorage, sweepToken string) *SessionHandler {
	return &SessionHandler{
		stagingService: stagingService,
		fileStorage:    fileStorage,
		sweepToken:     sweepToken,
	}
}

// --- DTOs for API ---

type UploadURLRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

type CreateSessionRequest struct {
	VideoTitle     string `json:"videoTitle" binding:"required"`
	VideoObjectKey string `json:"videoObjectKey" binding:"required"`
}

type SessionResponse struct {
	ID             string                         `json:"id"`
	VideoTitle     string                         `json:"videoTitle"`
	Sport          string                         `json:"sport,omitempty"`
	TotalDuration  float64                        `json:"totalDuration"`
	Exercises      []domain.AnalyzedExercise      `json:"exercises"`
	Edits          map[string]domain.ExerciseEdit `json:"edits,omitempty"`
	ImportedIdx    []int                          `json:"importedIndices"`
	Status         domain.SessionStatus           `json:"status"`
	AutoImported   bool                           `json:"autoImported"`
	CreatedAt      time.Time                      `json:"createdAt"`
	ExpiresAt      time.Time                      `json:"expiresAt"`
	CompletedAt    *time.Time                     `json:"completedAt,omitempty"`
	TotalExercises int                            `json:"totalExercises"`
}

type ImportRequest struct {
	ExerciseIndices []int                       `json:"exerciseIndices"`
	EditedExercises map[int]domain.ExerciseEdit `json:"editedExercises,omitempty"`
	MarkComplete    *bool                       `json:"markComplete,omitempty"`
}

type ImportedExerciseResponse struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Difficulty domain.Difficulty `json:"difficulty,omitempty"`
	Equipment  []string          `json:"equipment,omitempty"`
	IsNew      bool              `json:"is_new"`
}

type ImportResponse struct {
	Success        bool                       `json:"success"`
	Inserted       int                        `json:"inserted"`
	Updated        int                        `json:"updated"`
	SessionStatus  domain.SessionStatus       `json:"sessionStatus"`
	TotalImported  int                        `json:"totalImported"`
	TotalExercises int                        `json:"totalExercises"`
	Exercises      []ImportedExerciseResponse `json:"exercises"`
}

type SweepResponse struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	Processed         int    `json:"processed"`
	ExercisesImported int    `json:"exercisesImported"`
}

// MapSessionToResponse converts a domain.AnalysisSession to its DTO.
func MapSessionToResponse(s *domain.AnalysisSession) SessionResponse {
	if s == nil {
		return SessionResponse{}
	}
	imported := s.ImportedIndices
	if imported == nil {
		imported = []int{}
	}
	exercises := s.Exercises
	if exercises == nil {
		exercises = []domain.AnalyzedExercise{}
	}
	return SessionResponse{
		ID:             s.ID.Hex(),
		VideoTitle:     s.VideoTitle,
		Sport:          s.Sport,
		TotalDuration:  s.TotalDuration,
		Exercises:      exercises,
		Edits:          s.Edits,
		ImportedIdx:    imported,
		Status:         s.Status,
		AutoImported:   s.AutoImported,
		CreatedAt:      s.CreatedAt,
		ExpiresAt:      s.ExpiresAt,
		CompletedAt:    s.CompletedAt,
		TotalExercises: len(s.Exercises),
	}
}

// --- Handler Methods ---

// RequestUploadURL returns a presigned PUT URL for the source video.
func (h *SessionHandler) RequestUploadURL(c *gin.Context) {
	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	if !strings.HasPrefix(strings.ToLower(req.ContentType), "video/") {
		abortWithError(c, http.StatusBadRequest, "Content type must be a video type.")
		return
	}

	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}

	fileExtension := "bin"
	if parts := strings.Split(req.ContentType, "/"); len(parts) == 2 && parts[1] != "" {
		fileExtension = parts[1]
	}
	objectKey := path.Join("analysis", ownerID.Hex(), fmt.Sprintf("%s.%s", uuid.NewString(), fileExtension))

	uploadURL, err := h.fileStorage.GeneratePresignedUploadURL(c.Request.Context(), objectKey, req.ContentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to generate upload URL.")
		return
	}

	c.JSON(http.StatusOK, UploadURLResponse{UploadURL: uploadURL, ObjectKey: objectKey})
}

// CreateSession runs the analyzer on an uploaded video and returns the
// resulting staging session.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}

	session, err := h.stagingService.CreateSession(c.Request.Context(), ownerID, req.VideoTitle, req.VideoObjectKey)
	if err != nil {
		var upstream *analysis.UpstreamError
		switch {
		case errors.Is(err, service.ErrSessionQuotaExceeded):
			abortWithError(c, http.StatusConflict, err.Error())
		case errors.As(err, &upstream):
			abortWithError(c, http.StatusBadGateway, upstream.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to create analysis session.")
		}
		return
	}

	c.JSON(http.StatusCreated, MapSessionToResponse(session))
}

// GetSession returns one of the owner's staging sessions.
func (h *SessionHandler) GetSession(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	sessionID, err := primitive.ObjectIDFromHex(c.Param("sessionId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid session ID format.")
		return
	}

	session, err := h.stagingService.GetSession(c.Request.Context(), ownerID, sessionID)
	if err != nil {
		h.mapSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, MapSessionToResponse(session))
}

// ImportExercises imports the selected exercise indices into the library.
func (h *SessionHandler) ImportExercises(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	sessionID, err := primitive.ObjectIDFromHex(c.Param("sessionId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid session ID format.")
		return
	}

	outcome, err := h.stagingService.ImportSelected(c.Request.Context(), ownerID, sessionID, req.ExerciseIndices, req.EditedExercises, req.MarkComplete)
	if err != nil {
		h.mapSessionError(c, err)
		return
	}

	resp := ImportResponse{
		Success:        true,
		Inserted:       outcome.Inserted,
		Updated:        outcome.Updated,
		SessionStatus:  outcome.Status,
		TotalImported:  outcome.TotalImported,
		TotalExercises: outcome.TotalExercises,
		Exercises:      make([]ImportedExerciseResponse, 0, len(outcome.Exercises)),
	}
	for _, ex := range outcome.Exercises {
		resp.Exercises = append(resp.Exercises, ImportedExerciseResponse{
			ID:         ex.ID.Hex(),
			Name:       ex.Name,
			Difficulty: ex.Difficulty,
			Equipment:  ex.Equipment,
			IsNew:      ex.IsNew,
		})
	}

	c.JSON(http.StatusOK, resp)
}

// Sweep runs one expiration pass. It is called by a scheduler, not a user,
// and is guarded by a shared token instead of a JWT.
func (h *SessionHandler) Sweep(c *gin.Context) {
	if h.sweepToken == "" || c.GetHeader("X-Sweep-Token") != h.sweepToken {
		abortWithError(c, http.StatusUnauthorized, "Invalid sweep token.")
		return
	}

	outcome, err := h.stagingService.ExpireLapsed(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Sweep failed: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, SweepResponse{
		Success:           true,
		Message:           fmt.Sprintf("Expired %d sessions (%d failed)", outcome.Processed, outcome.Failed),
		Processed:         outcome.Processed,
		ExercisesImported: outcome.ExercisesImported,
	})
}

// --- helpers ---

func (h *SessionHandler) ownerID(c *gin.Context) (primitive.ObjectID, bool) {
	ownerIDStr, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return primitive.NilObjectID, false
	}
	ownerID, err := primitive.ObjectIDFromHex(ownerIDStr)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format in token.")
		return primitive.NilObjectID, false
	}
	return ownerID, true
}

func (h *SessionHandler) mapSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrSessionAccessDenied):
		// Access denied maps to 404 so session IDs are not probeable.
		abortWithError(c, http.StatusNotFound, service.ErrSessionNotFound.Error())
	case errors.Is(err, service.ErrSessionSealed):
		abortWithError(c, http.StatusGone, err.Error())
	case errors.Is(err, service.ErrInvalidExerciseIndex):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred.")
	}
}
