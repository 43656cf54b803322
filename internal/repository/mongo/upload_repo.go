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

const uploadCollectionName = "uploads"

var uploadIndexes = []mongo.IndexModel{
	{
		Keys: bson.D{{Key: "sampleId", Value: 1}},
	},
	{
		Keys:    bson.D{{Key: "objectKey", Value: 1}},
		Options: options.Index().SetUnique(true),
	},
}

// mongoUploadRepository implements repository.UploadRepository
type mongoUploadRepository struct {
	collection *mongo.Collection
}

// NewMongoUploadRepository creates a new Upload repository backed by MongoDB.
func NewMongoUploadRepository(db *mongo.Database) repository.UploadRepository {
	return &mongoUploadRepository{
		collection: db.Collection(uploadCollectionName),
	}
}

// Create inserts new upload metadata into the database.
func (r *mongoUploadRepository) Create(ctx context.Context, upload *domain.Upload) (primitive.ObjectID, error) {
	if upload.SampleID == primitive.NilObjectID ||
		upload.OfficerID == primitive.NilObjectID ||
		upload.ObjectKey == "" {
		return primitive.NilObjectID, errors.New("upload requires sampleId, officerId and objectKey")
	}

	upload.ID = primitive.NewObjectID()
	upload.UploadedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, upload)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves upload metadata by its ID.
func (r *mongoUploadRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Upload, error) {
	return r.findOne(ctx, bson.M{"_id": id}, nil)
}

// GetBySampleID retrieves the most recent photo attached to a sample.
func (r *mongoUploadRepository) GetBySampleID(ctx context.Context, sampleID primitive.ObjectID) (*domain.Upload, error) {
	latest := options.FindOne().SetSort(bson.D{{Key: "uploadedAt", Value: -1}})
	return r.findOne(ctx, bson.M{"sampleId": sampleID}, latest)
}

func (r *mongoUploadRepository) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*domain.Upload, error) {
	var upload domain.Upload
	var findOpts []*options.FindOneOptions
	if opts != nil {
		findOpts = append(findOpts, opts)
	}
	err := r.collection.FindOne(ctx, filter, findOpts...).Decode(&upload)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &upload, nil
}
