package api

import (
	"alcyxob/fitness-analysis/internal/analysis"
	"alcyxob/fitness-analysis/internal/domain"
	"alcyxob/fitness-analysis/internal/service"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- fakes ---

type fakeStagingService struct {
	session      *domain.AnalysisSession
	createErr    error
	importErr    error
	outcome      *service.ImportOutcome
	sweepOutcome *service.SweepOutcome
	sweepErr     error
}

func (f *fakeStagingService) CanCreateSession(ctx context.Context, ownerID primitive.ObjectID) (bool, error) {
	return f.createErr == nil, nil
}

func (f *fakeStagingService) CreateSession(ctx context.Context, ownerID primitive.ObjectID, videoTitle, videoObjectKey string) (*domain.AnalysisSession, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.session, nil
}

func (f *fakeStagingService) GetSession(ctx context.Context, ownerID, sessionID primitive.ObjectID) (*domain.AnalysisSession, error) {
	if f.session == nil || f.session.ID != sessionID {
		return nil, service.ErrSessionNotFound
	}
	return f.session, nil
}

func (f *fakeStagingService) ImportSelected(ctx context.Context, ownerID, sessionID primitive.ObjectID, indices []int, edits map[int]domain.ExerciseEdit, markComplete *bool) (*service.ImportOutcome, error) {
	if f.importErr != nil {
		return nil, f.importErr
	}
	return f.outcome, nil
}

func (f *fakeStagingService) ExpireLapsed(ctx context.Context) (*service.SweepOutcome, error) {
	if f.sweepErr != nil {
		return nil, f.sweepErr
	}
	return f.sweepOutcome, nil
}

type fakeFileStorage struct{}

func (f *fakeFileStorage) GeneratePresignedUploadURL(ctx context.Context, objectKey, contentType string, expires time.Duration) (string, error) {
	return "https://storage.test/upload/" + objectKey, nil
}

func (f *fakeFileStorage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	return "https://storage.test/download/" + objectKey, nil
}

func (f *fakeFileStorage) DeleteObject(ctx context.Context, objectKey string) error {
	return nil
}

// --- helpers ---

func newTestRouter(h *SessionHandler, userID primitive.ObjectID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	// Stand-in for AuthMiddleware: inject identity the way the JWT layer does.
	router.Use(func(c *gin.Context) {
		c.Set(ContextUserIDKey, userID.Hex())
		c.Set(ContextUserRoleKey, domain.RoleTrainer)
		c.Next()
	})
	router.POST("/analysis/upload-url", h.RequestUploadURL)
	router.POST("/analysis/sessions", h.CreateSession)
	router.GET("/analysis/sessions/:sessionId", h.GetSession)
	router.POST("/analysis/sessions/:sessionId/import", h.ImportExercises)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func sampleSession(ownerID primitive.ObjectID) *domain.AnalysisSession {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	return &domain.AnalysisSession{
		ID:         primitive.NewObjectID(),
		OwnerID:    ownerID,
		VideoTitle: "Leg Day",
		Sport:      "weightlifting",
		Exercises: []domain.AnalyzedExercise{
			{Name: "Barbell Squat", StartTime: 1, EndTime: 40},
			{Name: "Push Up", StartTime: 45, EndTime: 80},
		},
		Status:    domain.SessionInProgress,
		CreatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
	}
}

// --- tests ---

func TestRequestUploadURL(t *testing.T) {
	ownerID := primitive.NewObjectID()
	h := NewSessionHandler(&fakeStagingService{}, &fakeFileStorage{}, "token")
	router := newTestRouter(h, ownerID)

	rec := doJSON(t, router, http.MethodPost, "/analysis/upload-url", UploadURLRequest{ContentType: "video/mp4"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp UploadURLResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.UploadURL == "" || resp.ObjectKey == "" {
		t.Errorf("response incomplete: %+v", resp)
	}
}

func TestRequestUploadURLRejectsNonVideo(t *testing.T) {
	ownerID := primitive.NewObjectID()
	h := NewSessionHandler(&fakeStagingService{}, &fakeFileStorage{}, "token")
	router := newTestRouter(h, ownerID)

	rec := doJSON(t, router, http.MethodPost, "/analysis/upload-url", UploadURLRequest{ContentType: "image/png"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCreateSessionQuotaConflict(t *testing.T) {
	ownerID := primitive.NewObjectID()
	staging := &fakeStagingService{createErr: service.ErrSessionQuotaExceeded}
	h := NewSessionHandler(staging, &fakeFileStorage{}, "token")
	router := newTestRouter(h, ownerID)

	rec := doJSON(t, router, http.MethodPost, "/analysis/sessions", CreateSessionRequest{
		VideoTitle:     "Leg Day",
		VideoObjectKey: "analysis/abc/video.mp4",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestCreateSessionUpstreamFailure(t *testing.T) {
	ownerID := primitive.NewObjectID()
	staging := &fakeStagingService{createErr: &analysis.UpstreamError{Err: context.DeadlineExceeded}}
	h := NewSessionHandler(staging, &fakeFileStorage{}, "token")
	router := newTestRouter(h, ownerID)

	rec := doJSON(t, router, http.MethodPost, "/analysis/sessions", CreateSessionRequest{
		VideoTitle:     "Leg Day",
		VideoObjectKey: "analysis/abc/video.mp4",
	})
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}
}

func TestGetSession(t *testing.T) {
	ownerID := primitive.NewObjectID()
	session := sampleSession(ownerID)
	h := NewSessionHandler(&fakeStagingService{session: session}, &fakeFileStorage{}, "token")
	router := newTestRouter(h, ownerID)

	rec := doJSON(t, router, http.MethodGet, "/analysis/sessions/"+session.ID.Hex(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}

	var resp SessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != session.ID.Hex() {
		t.Errorf("id = %q, want %q", resp.ID, session.ID.Hex())
	}
	if resp.TotalExercises != 2 {
		t.Errorf("totalExercises = %d, want 2", resp.TotalExercises)
	}
}

func TestGetSessionUnknownID(t *testing.T) {
	ownerID := primitive.NewObjectID()
	h := NewSessionHandler(&fakeStagingService{}, &fakeFileStorage{}, "token")
	router := newTestRouter(h, ownerID)

	rec := doJSON(t, router, http.MethodGet, "/analysis/sessions/"+primitive.NewObjectID().Hex(), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestImportExercises(t *testing.T) {
	ownerID := primitive.NewObjectID()
	session := sampleSession(ownerID)
	staging := &fakeStagingService{
		session: session,
		outcome: &service.ImportOutcome{
			Inserted:       2,
			Status:         domain.SessionCompleted,
			TotalImported:  2,
			TotalExercises: 2,
			Exercises: []service.ImportedExercise{
				{ID: primitive.NewObjectID(), Name: "Barbell Squat", IsNew: true},
				{ID: primitive.NewObjectID(), Name: "Push Up", IsNew: true},
			},
		},
	}
	h := NewSessionHandler(staging, &fakeFileStorage{}, "token")
	router := newTestRouter(h, ownerID)

	rec := doJSON(t, router, http.MethodPost, "/analysis/sessions/"+session.ID.Hex()+"/import", ImportRequest{
		ExerciseIndices: []int{0, 1},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}

	var resp ImportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Inserted != 2 || resp.SessionStatus != domain.SessionCompleted {
		t.Errorf("unexpected response: %+v", resp)
	}
	if len(resp.Exercises) != 2 {
		t.Errorf("exercises = %d, want 2", len(resp.Exercises))
	}
}

func TestImportExercisesErrorMapping(t *testing.T) {
	ownerID := primitive.NewObjectID()
	session := sampleSession(ownerID)

	cases := []struct {
		name string
		err  error
		code int
	}{
		{"invalid index", service.ErrInvalidExerciseIndex, http.StatusBadRequest},
		{"sealed", service.ErrSessionSealed, http.StatusGone},
		{"not found", service.ErrSessionNotFound, http.StatusNotFound},
		{"access denied", service.ErrSessionAccessDenied, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			staging := &fakeStagingService{session: session, importErr: tc.err}
			h := NewSessionHandler(staging, &fakeFileStorage{}, "token")
			router := newTestRouter(h, ownerID)

			rec := doJSON(t, router, http.MethodPost, "/analysis/sessions/"+session.ID.Hex()+"/import", ImportRequest{
				ExerciseIndices: []int{0},
			})
			if rec.Code != tc.code {
				t.Errorf("status = %d, want %d", rec.Code, tc.code)
			}
		})
	}
}

func TestSweepRequiresToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	staging := &fakeStagingService{sweepOutcome: &service.SweepOutcome{Processed: 3, ExercisesImported: 7}}
	h := NewSessionHandler(staging, &fakeFileStorage{}, "secret-token")

	router := gin.New()
	router.POST("/internal/sweep", h.Sweep)

	req := httptest.NewRequest(http.MethodPost, "/internal/sweep", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("without token: status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	req = httptest.NewRequest(http.MethodPost, "/internal/sweep", nil)
	req.Header.Set("X-Sweep-Token", "secret-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("with token: status = %d (%s)", rec.Code, rec.Body.String())
	}

	var resp SweepResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Processed != 3 || resp.ExercisesImported != 7 {
		t.Errorf("unexpected response: %+v", resp)
	}
}
