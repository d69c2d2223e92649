package service

import (
	"alcyxob/fitness-analysis/internal/domain"
	"alcyxob/fitness-analysis/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrValidationFailed = errors.New("exercise validation failed")
)

// UpsertResult reports what the dedup engine did with one candidate.
type UpsertResult struct {
	ID          primitive.ObjectID
	WasInserted bool
	Exercise    *domain.Exercise
}

// --- Service Interface ---
type LibraryService interface {
	// UpsertFromCandidate writes a merged exercise into the shared library.
	// Matching is by case-folded name: a hit updates the canonical record in
	// place (keeping its original owner), a miss inserts a new one. Either
	// way the newly-added window is restarted and the source session
	// recorded.
	UpsertFromCandidate(ctx context.Context, candidate domain.AnalyzedExercise, sessionID, ownerID primitive.ObjectID) (*UpsertResult, error)
	GetExerciseByID(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error)
	ListExercises(ctx context.Context) ([]domain.Exercise, error)
}

// --- Service Implementation ---

// libraryService implements the LibraryService interface.
type libraryService struct {
	exerciseRepo repository.ExerciseRepository
	newTTL       time.Duration // how long the newly-added marker lasts
	now          func() time.Time
}

// NewLibraryService creates a new instance of libraryService.
func NewLibraryService(exerciseRepo repository.ExerciseRepository, newTTL time.Duration) LibraryService {
	if newTTL <= 0 {
		newTTL = 7 * 24 * time.Hour
	}
	return &libraryService{
		exerciseRepo: exerciseRepo,
		newTTL:       newTTL,
		now:          time.Now,
	}
}

// UpsertFromCandidate handles insert-vs-update for one merged candidate.
func (s *libraryService) UpsertFromCandidate(ctx context.Context, candidate domain.AnalyzedExercise, sessionID, ownerID primitive.ObjectID) (*UpsertResult, error) {
	if candidate.Name == "" {
		return nil, ErrValidationFailed
	}
	if ownerID == primitive.NilObjectID {
		return nil, errors.New("owner ID is required for library writes")
	}

	folded := domain.FoldName(candidate.Name)

	existing, err := s.exerciseRepo.GetByFoldedName(ctx, folded)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if existing == nil {
		inserted, err := s.insertNew(ctx, candidate, folded, sessionID, ownerID)
		if err == nil {
			return &UpsertResult{ID: inserted.ID, WasInserted: true, Exercise: inserted}, nil
		}
		if !errors.Is(err, repository.ErrDuplicateName) {
			return nil, err
		}
		// Lost the insert race to a concurrent import of the same name;
		// the unique index guarantees the winner is now findable.
		existing, err = s.exerciseRepo.GetByFoldedName(ctx, folded)
		if err != nil {
			return nil, err
		}
	}

	updated := s.overwrite(existing, candidate, folded, sessionID)
	if err := s.exerciseRepo.Update(ctx, updated); err != nil {
		return nil, err
	}
	return &UpsertResult{ID: updated.ID, WasInserted: false, Exercise: updated}, nil
}

func (s *libraryService) insertNew(ctx context.Context, candidate domain.AnalyzedExercise, folded string, sessionID, ownerID primitive.ObjectID) (*domain.Exercise, error) {
	now := s.now().UTC()
	exercise := &domain.Exercise{
		OwnerID:         ownerID,
		NewlyAdded:      true,
		NewExpiresAt:    now.Add(s.newTTL),
		SourceSessionID: sessionID,
	}
	applyCandidate(exercise, candidate, folded)

	id, err := s.exerciseRepo.Insert(ctx, exercise)
	if err != nil {
		return nil, err
	}
	exercise.ID = id
	return exercise, nil
}

// overwrite replaces the descriptive and derived fields of an existing
// record with the candidate's values. Owner stays with the first writer.
func (s *libraryService) overwrite(existing *domain.Exercise, candidate domain.AnalyzedExercise, folded string, sessionID primitive.ObjectID) *domain.Exercise {
	updated := *existing
	applyCandidate(&updated, candidate, folded)
	updated.NewlyAdded = true
	updated.NewExpiresAt = s.now().UTC().Add(s.newTTL)
	updated.SourceSessionID = sessionID
	return &updated
}

func applyCandidate(exercise *domain.Exercise, candidate domain.AnalyzedExercise, folded string) {
	exercise.Name = candidate.Name
	exercise.NameFolded = folded
	exercise.StartTime = candidate.StartTime
	exercise.EndTime = candidate.EndTime
	exercise.Instructions = candidate.Instructions
	exercise.Cues = candidate.Cues
	exercise.ScreenshotTimes = candidate.ScreenshotTimes
	exercise.Difficulty = candidate.Difficulty
	exercise.Equipment = candidate.Equipment

	c := domain.ClassifyExercise(candidate.Name)
	exercise.ExerciseType = c.ExerciseType
	exercise.TracksWeight = c.TracksWeight
	exercise.TracksReps = c.TracksReps
	exercise.TracksDuration = c.TracksDuration
	exercise.TracksDistance = c.TracksDistance
}

// GetExerciseByID retrieves a single library exercise.
func (s *libraryService) GetExerciseByID(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	return exercise, nil
}

// ListExercises returns the shared library.
func (s *libraryService) ListExercises(ctx context.Context) ([]domain.Exercise, error) {
	return s.exerciseRepo.List(ctx)
}
