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

const exerciseCollectionName = "exercises"

// mongoExerciseRepository implements repository.ExerciseRepository
type mongoExerciseRepository struct {
	collection *mongo.Collection
}

// NewMongoExerciseRepository creates a new library exercise repository backed by MongoDB.
func NewMongoExerciseRepository(db *mongo.Database) repository.ExerciseRepository {
	return &mongoExerciseRepository{
		collection: db.Collection(exerciseCollectionName),
	}
}

// Insert adds a brand-new library exercise. The unique index on nameFolded
// rejects a concurrent insert of the same name; that surfaces as
// repository.ErrDuplicateName so the caller can retry as an update.
func (r *mongoExerciseRepository) Insert(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	if exercise.Name == "" || exercise.NameFolded == "" {
		return primitive.NilObjectID, errors.New("exercise name and folded name are required")
	}

	exercise.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	exercise.CreatedAt = now
	exercise.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, exercise)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicateName
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}

	return insertedID, nil
}

// GetByID retrieves an exercise by its ID.
func (r *mongoExerciseRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	var exercise domain.Exercise
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&exercise)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &exercise, nil
}

// GetByFoldedName retrieves the canonical exercise for a case-folded name.
func (r *mongoExerciseRepository) GetByFoldedName(ctx context.Context, nameFolded string) (*domain.Exercise, error) {
	var exercise domain.Exercise
	filter := bson.M{"nameFolded": nameFolded}

	err := r.collection.FindOne(ctx, filter).Decode(&exercise)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &exercise, nil
}

// Update overwrites the mutable fields of an existing exercise. OwnerID and
// CreatedAt are deliberately left out: the first importer keeps ownership.
func (r *mongoExerciseRepository) Update(ctx context.Context, exercise *domain.Exercise) error {
	if exercise.ID == primitive.NilObjectID {
		return errors.New("exercise ID is required for update")
	}
	if exercise.Name == "" {
		return errors.New("exercise name cannot be empty")
	}

	filter := bson.M{"_id": exercise.ID}
	update := bson.M{
		"$set": bson.M{
			"name":            exercise.Name,
			"nameFolded":      exercise.NameFolded,
			"startTime":       exercise.StartTime,
			"endTime":         exercise.EndTime,
			"instructions":    exercise.Instructions,
			"cues":            exercise.Cues,
			"screenshotTimes": exercise.ScreenshotTimes,
			"difficulty":      exercise.Difficulty,
			"equipment":       exercise.Equipment,
			"exerciseType":    exercise.ExerciseType,
			"tracksWeight":    exercise.TracksWeight,
			"tracksReps":      exercise.TracksReps,
			"tracksDuration":  exercise.TracksDuration,
			"tracksDistance":  exercise.TracksDistance,
			"newlyAdded":      exercise.NewlyAdded,
			"newExpiresAt":    exercise.NewExpiresAt,
			"sourceSessionId": exercise.SourceSessionID,
			"updatedAt":       time.Now().UTC(),
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

// List returns the whole library, newest first.
func (r *mongoExerciseRepository) List(ctx context.Context) ([]domain.Exercise, error) {
	var exercises []domain.Exercise

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &exercises); err != nil {
		return nil, err
	}

	if err = cursor.Err(); err != nil {
		return nil, err
	}

	return exercises, nil
}

// EnsureExerciseIndexes creates necessary indexes for the exercises collection.
// The unique nameFolded index is what keeps the library at one record per
// case-insensitive name under concurrent imports.
func EnsureExerciseIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "nameFolded", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("exercise_name_folded_unique"),
		},
		{
			Keys:    bson.D{{Key: "sourceSessionId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "name", Value: "text"}},
			Options: options.Index().SetName("exercise_text_search"),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
