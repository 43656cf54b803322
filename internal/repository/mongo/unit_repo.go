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
	nksCollectionName    = "nks_units"
	segmenCollectionName = "segmen_units"
)

var unitIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true),
	},
	{
		Keys: bson.D{{Key: "villageId", Value: 1}},
	},
}

// unitMatch builds the $match stage body for a catalog read.
func unitMatch(f repository.UnitFilter) bson.M {
	match := bson.M{}
	if f.VillageID != nil {
		match["villageId"] = *f.VillageID
	}
	if f.IDs != nil {
		match["_id"] = bson.M{"$in": f.IDs}
	}
	return match
}

// unitViewPipeline joins a unit with its village, the village's district and
// every assignment that references the unit.
func unitViewPipeline(match bson.M) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$lookup", Value: bson.M{
			"from":         villageCollectionName,
			"localField":   "villageId",
			"foreignField": "_id",
			"as":           "village",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$village", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         districtCollectionName,
			"localField":   "village.districtId",
			"foreignField": "_id",
			"as":           "district",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$district", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         assignmentCollectionName,
			"localField":   "_id",
			"foreignField": "unitId",
			"as":           "assignments",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"villageName":  "$village.name",
			"districtName": "$district.name",
		}}},
		{{Key: "$project", Value: bson.M{"village": 0, "district": 0}}},
		{{Key: "$sort", Value: bson.D{{Key: "code", Value: 1}}}},
	}
}

// UnitJoin holds the joined fields produced by unitViewPipeline.
type UnitJoin struct {
	VillageName  string              `bson:"villageName"`
	DistrictName string              `bson:"districtName"`
	Assignments  []domain.Assignment `bson:"assignments"`
}

func (j UnitJoin) place() domain.UnitPlace {
	return domain.UnitPlace{VillageName: j.VillageName, DistrictName: j.DistrictName}
}

func findUnit(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, out interface{}) error {
	err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	return err
}

func insertUnit(ctx context.Context, coll *mongo.Collection, doc interface{}) error {
	_, err := coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicate
	}
	return err
}

func updateUnit(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, set bson.M) error {
	set["updatedAt"] = time.Now().UTC()
	result, err := coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// --- NKS ---

type mongoNksRepository struct {
	collection *mongo.Collection
}

// NewMongoNksRepository creates the NKS catalog repository.
func NewMongoNksRepository(db *mongo.Database) repository.NksRepository {
	return &mongoNksRepository{collection: db.Collection(nksCollectionName)}
}

func (r *mongoNksRepository) Create(ctx context.Context, unit *domain.NksUnit) (primitive.ObjectID, error) {
	if unit.Code == "" || unit.VillageID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("nks unit requires code and villageId")
	}
	unit.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	unit.CreatedAt = now
	unit.UpdatedAt = now
	if err := insertUnit(ctx, r.collection, unit); err != nil {
		return primitive.NilObjectID, err
	}
	return unit.ID, nil
}

func (r *mongoNksRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.NksUnit, error) {
	var unit domain.NksUnit
	if err := findUnit(ctx, r.collection, id, &unit); err != nil {
		return nil, err
	}
	return &unit, nil
}

type nksView struct {
	domain.NksUnit `bson:",inline"`
	UnitJoin       `bson:",inline"`
}

func (r *mongoNksRepository) List(ctx context.Context, filter repository.UnitFilter) ([]domain.NksUnit, error) {
	cursor, err := r.collection.Aggregate(ctx, unitViewPipeline(unitMatch(filter)))
	if err != nil {
		return nil, err
	}
	var views []nksView
	if err := decodeAll(ctx, cursor, &views); err != nil {
		return nil, err
	}
	units := make([]domain.NksUnit, len(views))
	for i, v := range views {
		units[i] = v.NksUnit
		units[i].Place = v.place()
		units[i].Assignments = v.UnitJoin.Assignments
	}
	return units, nil
}

func (r *mongoNksRepository) UpdateTarget(ctx context.Context, id primitive.ObjectID, target domain.Target) error {
	return updateUnit(ctx, r.collection, id, bson.M{"target": target})
}

// --- Segmen ---

type mongoSegmenRepository struct {
	collection *mongo.Collection
}

// NewMongoSegmenRepository creates the Segmen catalog repository.
func NewMongoSegmenRepository(db *mongo.Database) repository.SegmenRepository {
	return &mongoSegmenRepository{collection: db.Collection(segmenCollectionName)}
}

func (r *mongoSegmenRepository) Create(ctx context.Context, unit *domain.SegmenUnit) (primitive.ObjectID, error) {
	if unit.Code == "" || unit.VillageID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("segmen unit requires code and villageId")
	}
	unit.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	unit.CreatedAt = now
	unit.UpdatedAt = now
	if err := insertUnit(ctx, r.collection, unit); err != nil {
		return primitive.NilObjectID, err
	}
	return unit.ID, nil
}

func (r *mongoSegmenRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.SegmenUnit, error) {
	var unit domain.SegmenUnit
	if err := findUnit(ctx, r.collection, id, &unit); err != nil {
		return nil, err
	}
	return &unit, nil
}

type segmenView struct {
	domain.SegmenUnit `bson:",inline"`
	UnitJoin          `bson:",inline"`
}

func (r *mongoSegmenRepository) List(ctx context.Context, filter repository.UnitFilter) ([]domain.SegmenUnit, error) {
	cursor, err := r.collection.Aggregate(ctx, unitViewPipeline(unitMatch(filter)))
	if err != nil {
		return nil, err
	}
	var views []segmenView
	if err := decodeAll(ctx, cursor, &views); err != nil {
		return nil, err
	}
	units := make([]domain.SegmenUnit, len(views))
	for i, v := range views {
		units[i] = v.SegmenUnit
		units[i].Place = v.place()
		units[i].Assignments = v.UnitJoin.Assignments
	}
	return units, nil
}

func (r *mongoSegmenRepository) UpdateTarget(ctx context.Context, id primitive.ObjectID, padiTarget int) error {
	return updateUnit(ctx, r.collection, id, bson.M{"padiTarget": padiTarget})
}
