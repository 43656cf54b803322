package mongo

import (
	"context"
	"errors"
	"time"

	"ubinan/monitoring-app/internal/domain"
	"ubinan/monitoring-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const assignmentCollectionName = "assignments"

var assignmentIndexes = []mongo.IndexModel{
	{
		// One assignment per unit
		Keys:    bson.D{{Key: "unitId", Value: 1}},
		Options: options.Index().SetUnique(true),
	},
	{
		Keys: bson.D{{Key: "officerId", Value: 1}},
	},
	{
		Keys: bson.D{{Key: "supervisorId", Value: 1}},
	},
}

// mongoAssignmentRepository implements repository.AssignmentRepository
type mongoAssignmentRepository struct {
	collection *mongo.Collection
}

// NewMongoAssignmentRepository creates a new Assignment repository backed by MongoDB.
func NewMongoAssignmentRepository(db *mongo.Database) repository.AssignmentRepository {
	return &mongoAssignmentRepository{
		collection: db.Collection(assignmentCollectionName),
	}
}

// Create inserts a new assignment. The unique unitId index turns a second
// assignment of the same unit into repository.ErrDuplicate.
func (r *mongoAssignmentRepository) Create(ctx context.Context, assignment *domain.Assignment) (primitive.ObjectID, error) {
	if assignment.UnitID == primitive.NilObjectID ||
		assignment.OfficerID == primitive.NilObjectID ||
		assignment.SupervisorID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("assignment requires unitId, officerId and supervisorId")
	}

	assignment.ID = primitive.NewObjectID()
	assignment.AssignedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, assignment)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted assignment ID")
	}
	return insertedID, nil
}

// GetByUnitID retrieves the assignment of a unit.
func (r *mongoAssignmentRepository) GetByUnitID(ctx context.Context, unitID primitive.ObjectID) (*domain.Assignment, error) {
	var assignment domain.Assignment
	opts := options.FindOne().SetSort(bson.D{{Key: "assignedAt", Value: 1}})
	err := r.collection.FindOne(ctx, bson.M{"unitId": unitID}, opts).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

// GetByOfficerID retrieves all units allocated to an officer.
func (r *mongoAssignmentRepository) GetByOfficerID(ctx context.Context, officerID primitive.ObjectID) ([]domain.Assignment, error) {
	return r.find(ctx, bson.M{"officerId": officerID})
}

// GetBySupervisorID retrieves all units supervised by a supervisor.
func (r *mongoAssignmentRepository) GetBySupervisorID(ctx context.Context, supervisorID primitive.ObjectID) ([]domain.Assignment, error) {
	return r.find(ctx, bson.M{"supervisorId": supervisorID})
}

func (r *mongoAssignmentRepository) find(ctx context.Context, filter bson.M) ([]domain.Assignment, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "assignedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	assignments := []domain.Assignment{}
	if err := decodeAll(ctx, cursor, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

// Delete removes the assignment of unitID held by officerID.
func (r *mongoAssignmentRepository) Delete(ctx context.Context, unitID, officerID primitive.ObjectID) (bool, error) {
	result, err := r.collection.DeleteOne(ctx, bson.M{"unitId": unitID, "officerId": officerID})
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}
