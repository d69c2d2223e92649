package service

import (
	"alcyxob/fitness-analysis/internal/analysis"
	"alcyxob/fitness-analysis/internal/domain"
	"alcyxob/fitness-analysis/internal/repository"
	"alcyxob/fitness-analysis/internal/storage"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrSessionNotFound      = errors.New("analysis session not found")
	ErrSessionAccessDenied  = errors.New("access denied to this analysis session")
	ErrSessionSealed        = errors.New("session was already auto-imported after expiry")
	ErrInvalidExerciseIndex = errors.New("exercise index out of range")
	ErrSessionQuotaExceeded = errors.New("too many open analysis sessions")
)

// ImportedExercise summarizes one library row touched by an import.
type ImportedExercise struct {
	ID         primitive.ObjectID
	Name       string
	Difficulty domain.Difficulty
	Equipment  []string
	IsNew      bool
}

// ImportOutcome is the result of one ImportSelected call.
type ImportOutcome struct {
	Inserted       int
	Updated        int
	Status         domain.SessionStatus
	TotalImported  int
	TotalExercises int
	Exercises      []ImportedExercise
}

// SweepOutcome is the result of one expiration sweep pass.
type SweepOutcome struct {
	Processed         int
	ExercisesImported int
	Failed            int
}

// --- Service Interface ---
type StagingService interface {
	// CanCreateSession reports whether the owner is under the open-session
	// quota. Checked by the creation trigger before any analyzer call.
	CanCreateSession(ctx context.Context, ownerID primitive.ObjectID) (bool, error)
	// CreateSession stores a pending session, runs the analyzer on the
	// uploaded video and fills in the extracted exercises. An analyzer
	// failure leaves the session in the terminal error status.
	CreateSession(ctx context.Context, ownerID primitive.ObjectID, videoTitle, videoObjectKey string) (*domain.AnalysisSession, error)
	GetSession(ctx context.Context, ownerID, sessionID primitive.ObjectID) (*domain.AnalysisSession, error)
	// ImportSelected pushes the chosen exercise indices through merge and
	// library upsert, then advances the session's progress and status.
	ImportSelected(ctx context.Context, ownerID, sessionID primitive.ObjectID, indices []int, edits map[int]domain.ExerciseEdit, markComplete *bool) (*ImportOutcome, error)
	// ExpireLapsed force-imports every exercise of each lapsed session so
	// nothing is lost when a user never returns to their draft.
	ExpireLapsed(ctx context.Context) (*SweepOutcome, error)
}

// --- Service Implementation ---

// stagingService implements the StagingService interface.
type stagingService struct {
	sessionRepo repository.SessionRepository
	library     LibraryService
	analyzer    analysis.Analyzer
	fileStorage storage.FileStorage
	sessionTTL  time.Duration
	maxOpen     int
	now         func() time.Time // injected for deterministic aging in tests
}

// NewStagingService creates a new instance of stagingService.
func NewStagingService(
	sessionRepo repository.SessionRepository,
	library LibraryService,
	analyzer analysis.Analyzer,
	fileStorage storage.FileStorage,
	sessionTTL time.Duration,
	maxOpen int,
) StagingService {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	if maxOpen <= 0 {
		maxOpen = 3
	}
	return &stagingService{
		sessionRepo: sessionRepo,
		library:     library,
		analyzer:    analyzer,
		fileStorage: fileStorage,
		sessionTTL:  sessionTTL,
		maxOpen:     maxOpen,
		now:         time.Now,
	}
}

// CanCreateSession checks the open-session quota for an owner.
func (s *stagingService) CanCreateSession(ctx context.Context, ownerID primitive.ObjectID) (bool, error) {
	if ownerID == primitive.NilObjectID {
		return false, errors.New("owner ID is required")
	}
	count, err := s.sessionRepo.CountOpenByOwner(ctx, ownerID, s.now().UTC())
	if err != nil {
		return false, err
	}
	return count < int64(s.maxOpen), nil
}

// CreateSession runs the full creation flow: quota, pending row, analyzer
// call, result persistence.
func (s *stagingService) CreateSession(ctx context.Context, ownerID primitive.ObjectID, videoTitle, videoObjectKey string) (*domain.AnalysisSession, error) {
	if ownerID == primitive.NilObjectID || videoObjectKey == "" {
		return nil, errors.New("owner ID and video object key are required")
	}

	ok, err := s.CanCreateSession(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSessionQuotaExceeded
	}

	now := s.now().UTC()
	session := &domain.AnalysisSession{
		OwnerID:        ownerID,
		VideoTitle:     videoTitle,
		VideoObjectKey: videoObjectKey,
		Status:         domain.SessionPending,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.sessionTTL),
	}

	sessionID, err := s.sessionRepo.Create(ctx, session)
	if err != nil {
		return nil, err
	}
	session.ID = sessionID

	videoURL, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, videoObjectKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		s.failSession(ctx, sessionID, fmt.Sprintf("presigning video: %v", err))
		return nil, err
	}

	result, err := s.analyzer.AnalyzeVideo(ctx, videoURL)
	if err != nil {
		s.failSession(ctx, sessionID, err.Error())
		return nil, err
	}

	title := result.VideoTitle
	if title == "" {
		title = videoTitle
	}

	err = s.sessionRepo.SetAnalysisResult(ctx, sessionID, title, result.Sport, result.TotalDuration, result.Exercises)
	if err != nil {
		s.failSession(ctx, sessionID, fmt.Sprintf("storing analysis result: %v", err))
		return nil, err
	}

	session.VideoTitle = title
	session.Sport = result.Sport
	session.TotalDuration = result.TotalDuration
	session.Exercises = result.Exercises
	return session, nil
}

func (s *stagingService) failSession(ctx context.Context, sessionID primitive.ObjectID, message string) {
	if err := s.sessionRepo.SetError(ctx, sessionID, message); err != nil {
		log.Printf("ERROR: Failed to mark session %s as errored: %v", sessionID.Hex(), err)
	}
}

// GetSession retrieves a session, enforcing ownership.
func (s *stagingService) GetSession(ctx context.Context, ownerID, sessionID primitive.ObjectID) (*domain.AnalysisSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.OwnerID != ownerID {
		return nil, ErrSessionAccessDenied
	}
	return session, nil
}

// ImportSelected is the single import path for both user-driven imports and
// the expiration sweep (see importIndices). Index validation happens before
// any write, so one bad index aborts the whole call with zero side effects.
func (s *stagingService) ImportSelected(ctx context.Context, ownerID, sessionID primitive.ObjectID, indices []int, edits map[int]domain.ExerciseEdit, markComplete *bool) (*ImportOutcome, error) {
	session, err := s.GetSession(ctx, ownerID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsTerminalForImport() {
		return nil, ErrSessionSealed
	}

	total := len(session.Exercises)
	for _, i := range indices {
		if i < 0 || i >= total {
			return nil, fmt.Errorf("%w: index %d, session has %d exercises", ErrInvalidExerciseIndex, i, total)
		}
	}
	for i := range edits {
		if i < 0 || i >= total {
			return nil, fmt.Errorf("%w: edited index %d, session has %d exercises", ErrInvalidExerciseIndex, i, total)
		}
	}

	return s.importIndices(ctx, session, indices, edits, markComplete, false)
}

// importIndices merges and upserts each requested exercise, then records
// progress on the session. A failed upsert is logged and skipped; the rest
// of the batch continues.
func (s *stagingService) importIndices(ctx context.Context, session *domain.AnalysisSession, indices []int, edits map[int]domain.ExerciseEdit, markComplete *bool, autoImported bool) (*ImportOutcome, error) {
	outcome := &ImportOutcome{TotalExercises: len(session.Exercises)}

	seen := make(map[int]bool, len(indices))
	var importedNow []int
	for _, i := range indices {
		if seen[i] {
			continue
		}
		seen[i] = true

		var requestEdit *domain.ExerciseEdit
		if e, ok := edits[i]; ok {
			requestEdit = &e
		}
		merged := domain.MergeExercise(session.Exercises[i], session.EditForIndex(i), requestEdit)

		result, err := s.library.UpsertFromCandidate(ctx, merged, session.ID, session.OwnerID)
		if err != nil {
			log.Printf("ERROR: Import of exercise %d (%q) in session %s failed: %v", i, merged.Name, session.ID.Hex(), err)
			continue
		}

		importedNow = append(importedNow, i)
		if result.WasInserted {
			outcome.Inserted++
		} else {
			outcome.Updated++
		}
		outcome.Exercises = append(outcome.Exercises, ImportedExercise{
			ID:         result.ID,
			Name:       result.Exercise.Name,
			Difficulty: result.Exercise.Difficulty,
			Equipment:  result.Exercise.Equipment,
			IsNew:      result.Exercise.IsNew(s.now().UTC()),
		})
	}

	// Fold newly supplied edit layers into the session's edit map,
	// last-write-wins per field.
	var newEdits map[string]domain.ExerciseEdit
	for i, edit := range edits {
		if edit.IsZero() {
			continue
		}
		if newEdits == nil {
			newEdits = make(map[string]domain.ExerciseEdit, len(edits))
		}
		base := domain.ExerciseEdit{}
		if existing := session.EditForIndex(i); existing != nil {
			base = *existing
		}
		newEdits[domain.EditKey(i)] = domain.OverlayEdit(base, edit)
	}

	// Progress is a set union with what the session already imported.
	importedSet := make(map[int]bool, len(session.ImportedIndices)+len(importedNow))
	for _, i := range session.ImportedIndices {
		importedSet[i] = true
	}
	for _, i := range importedNow {
		importedSet[i] = true
	}
	outcome.TotalImported = len(importedSet)

	shouldComplete := outcome.TotalImported >= outcome.TotalExercises
	if markComplete != nil {
		shouldComplete = *markComplete
	}

	now := s.now().UTC()
	status := domain.SessionInProgress
	var completedAt *time.Time
	switch {
	case autoImported && outcome.TotalImported >= outcome.TotalExercises:
		status = domain.SessionExpired
	case autoImported:
		// A sweep seals the session only once every exercise made it into
		// the library. After a partial upsert failure the session stays
		// in_progress so the next sweep retries the leftovers.
	case shouldComplete || session.Status == domain.SessionCompleted:
		// A completed session never moves backwards; re-imports keep it
		// completed even when the caller passes markComplete=false.
		status = domain.SessionCompleted
	}
	if status != domain.SessionInProgress && session.CompletedAt == nil {
		completedAt = &now
	}

	progress := repository.SessionProgress{
		ImportedIndices: importedNow,
		Edits:           newEdits,
		Status:          status,
		AutoImported:    status == domain.SessionExpired || session.AutoImported,
		CompletedAt:     completedAt,
	}
	if err := s.sessionRepo.RecordProgress(ctx, session.ID, progress); err != nil {
		return nil, err
	}

	outcome.Status = status
	return outcome, nil
}

// ExpireLapsed sweeps every lapsed open session through the same import
// path, applying only session-accumulated edits. Per-session failures are
// logged and the sweep moves on. A session is only counted as processed,
// and sealed against further imports, when all of its exercises landed in
// the library; a partially imported one stays lapsed and is retried on the
// next sweep.
func (s *stagingService) ExpireLapsed(ctx context.Context) (*SweepOutcome, error) {
	sessions, err := s.sessionRepo.ListLapsed(ctx, s.now().UTC())
	if err != nil {
		return nil, err
	}

	outcome := &SweepOutcome{}
	for i := range sessions {
		session := &sessions[i]

		indices := make([]int, len(session.Exercises))
		for j := range indices {
			indices[j] = j
		}

		imported, err := s.importIndices(ctx, session, indices, nil, nil, true)
		if err != nil {
			outcome.Failed++
			log.Printf("ERROR: Auto-import of expired session %s failed: %v", session.ID.Hex(), err)
			continue
		}

		outcome.ExercisesImported += imported.Inserted + imported.Updated
		if imported.Status != domain.SessionExpired {
			outcome.Failed++
			log.Printf("WARN: Expired session %s only partially imported (%d/%d), retrying next sweep",
				session.ID.Hex(), imported.TotalImported, imported.TotalExercises)
			continue
		}

		outcome.Processed++
		log.Printf("Auto-imported expired session %s: %d inserted, %d updated", session.ID.Hex(), imported.Inserted, imported.Updated)
	}

	return outcome, nil
}
