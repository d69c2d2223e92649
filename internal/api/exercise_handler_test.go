package api

import (
	"alcyxob/fitness-analysis/internal/domain"
	"alcyxob/fitness-analysis/internal/service"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeLibraryService struct {
	exercises []domain.Exercise
}

func (f *fakeLibraryService) UpsertFromCandidate(ctx context.Context, candidate domain.AnalyzedExercise, sessionID, ownerID primitive.ObjectID) (*service.UpsertResult, error) {
	return nil, nil
}

func (f *fakeLibraryService) GetExerciseByID(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error) {
	for i := range f.exercises {
		if f.exercises[i].ID == exerciseID {
			return &f.exercises[i], nil
		}
	}
	return nil, service.ErrExerciseNotFound
}

func (f *fakeLibraryService) ListExercises(ctx context.Context) ([]domain.Exercise, error) {
	return f.exercises, nil
}

func TestListExercisesIsNewWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)

	written := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	library := &fakeLibraryService{exercises: []domain.Exercise{{
		ID:           primitive.NewObjectID(),
		OwnerID:      primitive.NewObjectID(),
		Name:         "Barbell Squat",
		NewlyAdded:   true,
		NewExpiresAt: written.Add(7 * 24 * time.Hour),
	}}}

	h := NewExerciseHandler(library)
	router := gin.New()
	router.GET("/exercises", h.ListExercises)

	listAt := func(t *testing.T, now time.Time) []ExerciseResponse {
		t.Helper()
		h.now = func() time.Time { return now }
		req := httptest.NewRequest(http.MethodGet, "/exercises", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
		}
		var resp []ExerciseResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(resp) != 1 {
			t.Fatalf("exercises = %d, want 1", len(resp))
		}
		return resp
	}

	// Inside the seven day window the row reads as new, afterwards not.
	if resp := listAt(t, written.Add(6*24*time.Hour)); !resp[0].IsNew {
		t.Error("is_new = false inside the window, want true")
	}
	if resp := listAt(t, written.Add(8*24*time.Hour)); resp[0].IsNew {
		t.Error("is_new = true after the window, want false")
	}
}
