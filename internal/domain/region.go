package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// District (kecamatan) groups villages.
type District struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code      string             `bson:"code" json:"code"`
	Name      string             `bson:"name" json:"name"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Village (desa) is the parent of every sampling unit.
type Village struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DistrictID primitive.ObjectID `bson:"districtId" json:"districtId"`
	Code       string             `bson:"code" json:"code"`
	Name       string             `bson:"name" json:"name"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
