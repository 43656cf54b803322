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

const (
	districtCollectionName = "districts"
	villageCollectionName  = "villages"
)

var districtIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true),
	},
}

var villageIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true),
	},
	{
		Keys: bson.D{{Key: "districtId", Value: 1}},
	},
}

type mongoRegionRepository struct {
	districts *mongo.Collection
	villages  *mongo.Collection
}

// NewMongoRegionRepository creates a district/village repository backed by MongoDB.
func NewMongoRegionRepository(db *mongo.Database) repository.RegionRepository {
	return &mongoRegionRepository{
		districts: db.Collection(districtCollectionName),
		villages:  db.Collection(villageCollectionName),
	}
}

func (r *mongoRegionRepository) CreateDistrict(ctx context.Context, d *domain.District) (primitive.ObjectID, error) {
	if d.Code == "" || d.Name == "" {
		return primitive.NilObjectID, errors.New("district requires code and name")
	}
	d.ID = primitive.NewObjectID()
	d.CreatedAt = time.Now().UTC()
	if _, err := r.districts.InsertOne(ctx, d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	return d.ID, nil
}

func (r *mongoRegionRepository) ListDistricts(ctx context.Context) ([]domain.District, error) {
	cursor, err := r.districts.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "code", Value: 1}}))
	if err != nil {
		return nil, err
	}
	districts := []domain.District{}
	if err := decodeAll(ctx, cursor, &districts); err != nil {
		return nil, err
	}
	return districts, nil
}

func (r *mongoRegionRepository) CreateVillage(ctx context.Context, v *domain.Village) (primitive.ObjectID, error) {
	if v.Code == "" || v.Name == "" || v.DistrictID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("village requires code, name and districtId")
	}
	v.ID = primitive.NewObjectID()
	v.CreatedAt = time.Now().UTC()
	if _, err := r.villages.InsertOne(ctx, v); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	return v.ID, nil
}

func (r *mongoRegionRepository) GetVillage(ctx context.Context, id primitive.ObjectID) (*domain.Village, error) {
	var v domain.Village
	if err := r.villages.FindOne(ctx, bson.M{"_id": id}).Decode(&v); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// ListVillages returns all villages, or those of one district.
func (r *mongoRegionRepository) ListVillages(ctx context.Context, districtID *primitive.ObjectID) ([]domain.Village, error) {
	filter := bson.M{}
	if districtID != nil {
		filter["districtId"] = *districtID
	}
	cursor, err := r.villages.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "code", Value: 1}}))
	if err != nil {
		return nil, err
	}
	villages := []domain.Village{}
	if err := decodeAll(ctx, cursor, &villages); err != nil {
		return nil, err
	}
	return villages, nil
}
