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

const sampleCollectionName = "yield_samples"

var sampleIndexes = []mongo.IndexModel{
	{
		Keys: bson.D{{Key: "officerId", Value: 1}, {Key: "sampleDate", Value: -1}},
	},
	{
		Keys: bson.D{{Key: "supervisorId", Value: 1}, {Key: "status", Value: 1}},
	},
	{
		Keys:    bson.D{{Key: "nksId", Value: 1}},
		Options: options.Index().SetSparse(true),
	},
	{
		Keys:    bson.D{{Key: "segmenId", Value: 1}},
		Options: options.Index().SetSparse(true),
	},
}

type mongoSampleRepository struct {
	collection *mongo.Collection
}

// NewMongoSampleRepository creates a yield sample repository backed by MongoDB.
func NewMongoSampleRepository(db *mongo.Database) repository.SampleRepository {
	return &mongoSampleRepository{collection: db.Collection(sampleCollectionName)}
}

func (r *mongoSampleRepository) Create(ctx context.Context, sample *domain.YieldSample) (primitive.ObjectID, error) {
	if _, _, ok := sample.UnitRef(); !ok {
		return primitive.NilObjectID, errors.New("sample requires exactly one of nksId and segmenId")
	}
	if sample.OfficerID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("sample requires officerId")
	}

	sample.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	sample.CreatedAt = now
	sample.UpdatedAt = now
	if sample.Status == "" {
		sample.Status = domain.StatusUnfilled
	}

	if _, err := r.collection.InsertOne(ctx, sample); err != nil {
		return primitive.NilObjectID, err
	}
	return sample.ID, nil
}

func (r *mongoSampleRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.YieldSample, error) {
	var sample domain.YieldSample
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&sample)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &sample, nil
}

// List returns samples matching filter, newest sample date first. Dates are
// stored as YYYY-MM-DD so lexical range queries follow calendar order.
func (r *mongoSampleRepository) List(ctx context.Context, filter repository.SampleFilter) ([]domain.YieldSample, error) {
	query := bson.M{}
	if filter.OfficerID != nil {
		query["officerId"] = *filter.OfficerID
	}
	if filter.SupervisorID != nil {
		query["supervisorId"] = *filter.SupervisorID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	dateRange := bson.M{}
	if filter.DateFrom != "" {
		dateRange["$gte"] = filter.DateFrom
	}
	if filter.DateTo != "" {
		dateRange["$lte"] = filter.DateTo
	}
	if len(dateRange) > 0 {
		query["sampleDate"] = dateRange
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "sampleDate", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, err
	}
	samples := []domain.YieldSample{}
	if err := decodeAll(ctx, cursor, &samples); err != nil {
		return nil, err
	}
	return samples, nil
}

// Update writes the mutable fields of a sample.
func (r *mongoSampleRepository) Update(ctx context.Context, sample *domain.YieldSample) error {
	if sample.ID == primitive.NilObjectID {
		return errors.New("sample ID is required for update")
	}

	sample.UpdatedAt = time.Now().UTC()
	updateFields := bson.M{
		"commodity":  sample.Commodity,
		"weight":     sample.Weight,
		"sampleDate": sample.SampleDate,
		"status":     sample.Status,
		"comment":    sample.Comment,
		"updatedAt":  sample.UpdatedAt,
	}
	if sample.PhotoID != nil && *sample.PhotoID != primitive.NilObjectID {
		updateFields["photoId"] = *sample.PhotoID
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": sample.ID}, bson.M{"$set": updateFields})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
