package repository

import (
	"alcyxob/fitness-analysis/internal/domain"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound      = RepositoryError("not found")
	ErrDuplicateName = RepositoryError("duplicate name")
	ErrUpdateFailed  = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// ExerciseRepository is the library store: at most one exercise per folded
// name, enforced by a unique index so concurrent imports of the same name
// cannot both insert.
type ExerciseRepository interface {
	Insert(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	// GetByFoldedName looks up the canonical record for a folded name.
	// Returns ErrNotFound on a miss.
	GetByFoldedName(ctx context.Context, nameFolded string) (*domain.Exercise, error)
	// Update overwrites the mutable fields of an existing record.
	Update(ctx context.Context, exercise *domain.Exercise) error
	List(ctx context.Context) ([]domain.Exercise, error)
}

// SessionProgress carries the per-import session mutations: indices joined
// into the imported set, edit layers folded into the edit map, and the
// resulting status. CompletedAt is stamped only on the first terminal
// transition.
type SessionProgress struct {
	ImportedIndices []int
	Edits           map[string]domain.ExerciseEdit
	Status          domain.SessionStatus
	AutoImported    bool
	CompletedAt     *time.Time
}

// SessionRepository holds staging sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.AnalysisSession) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.AnalysisSession, error)
	// SetAnalysisResult fills in the analyzer output on a pending session.
	SetAnalysisResult(ctx context.Context, id primitive.ObjectID, videoTitle, sport string, totalDuration float64, exercises []domain.AnalyzedExercise) error
	// SetError moves a session to the terminal error status.
	SetError(ctx context.Context, id primitive.ObjectID, message string) error
	// RecordProgress applies an import's outcome. ImportedIndices are added
	// with set-union semantics; the imported set never shrinks.
	RecordProgress(ctx context.Context, id primitive.ObjectID, progress SessionProgress) error
	// ListLapsed returns sessions still in pending or in_progress whose
	// expiry has passed.
	ListLapsed(ctx context.Context, now time.Time) ([]domain.AnalysisSession, error)
	// CountOpenByOwner counts an owner's pending/in_progress sessions with
	// expiry still in the future. Feeds the session creation quota.
	CountOpenByOwner(ctx context.Context, ownerID primitive.ObjectID, now time.Time) (int64, error)
}
