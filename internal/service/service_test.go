package service

import (
	"alcyxob/fitness-analysis/internal/analysis"
	"alcyxob/fitness-analysis/internal/domain"
	"alcyxob/fitness-analysis/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory fakes for the repository and collaborator interfaces. Kept in
// one place because the staging tests exercise the whole import path.

type fakeExerciseRepo struct {
	byFolded  map[string]*domain.Exercise
	byID      map[primitive.ObjectID]*domain.Exercise
	failNames map[string]bool // folded names whose writes fail
	missOnce  map[string]bool // folded names whose first lookup misses
	inserts   int
	updates   int
}

func newFakeExerciseRepo() *fakeExerciseRepo {
	return &fakeExerciseRepo{
		byFolded:  make(map[string]*domain.Exercise),
		byID:      make(map[primitive.ObjectID]*domain.Exercise),
		failNames: make(map[string]bool),
		missOnce:  make(map[string]bool),
	}
}

func (r *fakeExerciseRepo) Insert(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	if r.failNames[exercise.NameFolded] {
		return primitive.NilObjectID, errors.New("simulated write failure")
	}
	if _, exists := r.byFolded[exercise.NameFolded]; exists {
		return primitive.NilObjectID, repository.ErrDuplicateName
	}
	stored := *exercise
	stored.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.byFolded[stored.NameFolded] = &stored
	r.byID[stored.ID] = &stored
	r.inserts++
	return stored.ID, nil
}

func (r *fakeExerciseRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	if e, ok := r.byID[id]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeExerciseRepo) GetByFoldedName(ctx context.Context, nameFolded string) (*domain.Exercise, error) {
	if r.missOnce[nameFolded] {
		delete(r.missOnce, nameFolded)
		return nil, repository.ErrNotFound
	}
	if e, ok := r.byFolded[nameFolded]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeExerciseRepo) Update(ctx context.Context, exercise *domain.Exercise) error {
	if r.failNames[exercise.NameFolded] {
		return errors.New("simulated write failure")
	}
	existing, ok := r.byID[exercise.ID]
	if !ok {
		return repository.ErrNotFound
	}
	delete(r.byFolded, existing.NameFolded)
	stored := *exercise
	stored.UpdatedAt = time.Now().UTC()
	r.byID[stored.ID] = &stored
	r.byFolded[stored.NameFolded] = &stored
	r.updates++
	return nil
}

func (r *fakeExerciseRepo) List(ctx context.Context) ([]domain.Exercise, error) {
	out := make([]domain.Exercise, 0, len(r.byID))
	for _, e := range r.byID {
		out = append(out, *e)
	}
	return out, nil
}

type fakeSessionRepo struct {
	sessions map[primitive.ObjectID]*domain.AnalysisSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[primitive.ObjectID]*domain.AnalysisSession)}
}

func (r *fakeSessionRepo) Create(ctx context.Context, session *domain.AnalysisSession) (primitive.ObjectID, error) {
	stored := *session
	stored.ID = primitive.NewObjectID()
	if stored.Status == "" {
		stored.Status = domain.SessionPending
	}
	r.sessions[stored.ID] = &stored
	return stored.ID, nil
}

func (r *fakeSessionRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.AnalysisSession, error) {
	if s, ok := r.sessions[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeSessionRepo) SetAnalysisResult(ctx context.Context, id primitive.ObjectID, videoTitle, sport string, totalDuration float64, exercises []domain.AnalyzedExercise) error {
	s, ok := r.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.VideoTitle = videoTitle
	s.Sport = sport
	s.TotalDuration = totalDuration
	s.Exercises = exercises
	return nil
}

func (r *fakeSessionRepo) SetError(ctx context.Context, id primitive.ObjectID, message string) error {
	s, ok := r.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	if s.Status != domain.SessionPending && s.Status != domain.SessionInProgress {
		return repository.ErrNotFound
	}
	s.Status = domain.SessionError
	s.ErrorMessage = message
	return nil
}

func (r *fakeSessionRepo) RecordProgress(ctx context.Context, id primitive.ObjectID, progress repository.SessionProgress) error {
	s, ok := r.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	for _, i := range progress.ImportedIndices {
		if !s.HasImported(i) {
			s.ImportedIndices = append(s.ImportedIndices, i)
		}
	}
	if len(progress.Edits) > 0 && s.Edits == nil {
		s.Edits = make(map[string]domain.ExerciseEdit)
	}
	for k, e := range progress.Edits {
		s.Edits[k] = e
	}
	s.Status = progress.Status
	s.AutoImported = progress.AutoImported
	if progress.CompletedAt != nil {
		s.CompletedAt = progress.CompletedAt
	}
	return nil
}

func (r *fakeSessionRepo) ListLapsed(ctx context.Context, now time.Time) ([]domain.AnalysisSession, error) {
	var out []domain.AnalysisSession
	for _, s := range r.sessions {
		if (s.Status == domain.SessionPending || s.Status == domain.SessionInProgress) && s.ExpiresAt.Before(now) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) CountOpenByOwner(ctx context.Context, ownerID primitive.ObjectID, now time.Time) (int64, error) {
	var count int64
	for _, s := range r.sessions {
		if s.OwnerID == ownerID &&
			(s.Status == domain.SessionPending || s.Status == domain.SessionInProgress) &&
			s.ExpiresAt.After(now) {
			count++
		}
	}
	return count, nil
}

type fakeAnalyzer struct {
	result *analysis.Result
	err    error
}

func (a *fakeAnalyzer) AnalyzeVideo(ctx context.Context, videoURL string) (*analysis.Result, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.result, nil
}

type fakeStorage struct{}

func (fakeStorage) GeneratePresignedUploadURL(ctx context.Context, objectKey, contentType string, expires time.Duration) (string, error) {
	return "https://storage.test/upload/" + objectKey, nil
}

func (fakeStorage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	return "https://storage.test/download/" + objectKey, nil
}

func (fakeStorage) DeleteObject(ctx context.Context, objectKey string) error {
	return nil
}

func analyzedExercises() []domain.AnalyzedExercise {
	return []domain.AnalyzedExercise{
		{
			Name:         "Barbell Squat",
			StartTime:    10,
			EndTime:      45,
			Instructions: []string{"Bar on traps", "Squat to depth"},
			Difficulty:   domain.DifficultyIntermediate,
			Equipment:    []string{"barbell"},
		},
		{
			Name:       "Push Up",
			StartTime:  50,
			EndTime:    80,
			Difficulty: domain.DifficultyBeginner,
		},
		{
			Name:       "Plank",
			StartTime:  90,
			EndTime:    120,
			Difficulty: domain.DifficultyBeginner,
		},
	}
}
