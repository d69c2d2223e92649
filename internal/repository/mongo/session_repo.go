package mongo

import (
	"alcyxob/fitness-analysis/internal/domain"
	"alcyxob/fitness-analysis/internal/repository"
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const sessionCollectionName = "analysis_sessions"

// mongoSessionRepository implements repository.SessionRepository
type mongoSessionRepository struct {
	collection *mongo.Collection
}

// NewMongoSessionRepository creates a new analysis session repository backed by MongoDB.
func NewMongoSessionRepository(db *mongo.Database) repository.SessionRepository {
	return &mongoSessionRepository{
		collection: db.Collection(sessionCollectionName),
	}
}

// Create inserts a new staging session.
func (r *mongoSessionRepository) Create(ctx context.Context, session *domain.AnalysisSession) (primitive.ObjectID, error) {
	if session.OwnerID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("session owner ID is required")
	}
	if session.Status == "" {
		session.Status = domain.SessionPending
	}

	session.ID = primitive.NewObjectID()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}

	result, err := r.collection.InsertOne(ctx, session)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}

	return insertedID, nil
}

// GetByID retrieves a session by its ID.
func (r *mongoSessionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.AnalysisSession, error) {
	var session domain.AnalysisSession
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// SetAnalysisResult fills in the analyzer output on a freshly created
// session. The exercise list is immutable after this write.
func (r *mongoSessionRepository) SetAnalysisResult(ctx context.Context, id primitive.ObjectID, videoTitle, sport string, totalDuration float64, exercises []domain.AnalyzedExercise) error {
	filter := bson.M{"_id": id}
	update := bson.M{
		"$set": bson.M{
			"videoTitle":    videoTitle,
			"sport":         sport,
			"totalDuration": totalDuration,
			"exercises":     exercises,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SetError marks a session as failed. Only pre-terminal sessions can move
// to error.
func (r *mongoSessionRepository) SetError(ctx context.Context, id primitive.ObjectID, message string) error {
	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$in": []domain.SessionStatus{domain.SessionPending, domain.SessionInProgress}},
	}
	update := bson.M{
		"$set": bson.M{
			"status":       domain.SessionError,
			"errorMessage": message,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// RecordProgress applies the outcome of an import pass. Imported indices go
// through $addToSet, so re-importing an index is a no-op on the set and the
// set never shrinks. Edit layers land under their index key with a plain
// $set; the caller has already folded layers together.
func (r *mongoSessionRepository) RecordProgress(ctx context.Context, id primitive.ObjectID, progress repository.SessionProgress) error {
	set := bson.M{
		"status":       progress.Status,
		"autoImported": progress.AutoImported,
	}
	if progress.CompletedAt != nil {
		set["completedAt"] = *progress.CompletedAt
	}
	for key, edit := range progress.Edits {
		set["edits."+key] = edit
	}

	update := bson.M{"$set": set}
	if len(progress.ImportedIndices) > 0 {
		update["$addToSet"] = bson.M{
			"importedIndices": bson.M{"$each": progress.ImportedIndices},
		}
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListLapsed returns open sessions whose expiry has passed. Sessions already
// swept (expired + autoImported) never match: their status is terminal.
func (r *mongoSessionRepository) ListLapsed(ctx context.Context, now time.Time) ([]domain.AnalysisSession, error) {
	filter := bson.M{
		"status":    bson.M{"$in": []domain.SessionStatus{domain.SessionPending, domain.SessionInProgress}},
		"expiresAt": bson.M{"$lt": now},
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "expiresAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []domain.AnalysisSession
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// CountOpenByOwner counts the owner's live draft sessions for the quota
// check: pending or in_progress, expiry still in the future.
func (r *mongoSessionRepository) CountOpenByOwner(ctx context.Context, ownerID primitive.ObjectID, now time.Time) (int64, error) {
	filter := bson.M{
		"ownerId":   ownerID,
		"status":    bson.M{"$in": []domain.SessionStatus{domain.SessionPending, domain.SessionInProgress}},
		"expiresAt": bson.M{"$gt": now},
	}
	return r.collection.CountDocuments(ctx, filter)
}

// EnsureSessionIndexes creates necessary indexes for the sessions collection.
func EnsureSessionIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Quota query: owner + status + expiry
			Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "status", Value: 1}, {Key: "expiresAt", Value: 1}},
			Options: options.Index(),
		},
		{
			// Sweep query: status + expiry
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "expiresAt", Value: 1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
