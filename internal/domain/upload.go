package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Upload stores metadata about a photo an officer attached to a sample as
// field evidence. The actual file resides in object storage.
type Upload struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SampleID    primitive.ObjectID `bson:"sampleId" json:"sampleId"`
	OfficerID   primitive.ObjectID `bson:"officerId" json:"officerId"`
	ObjectKey   string             `bson:"objectKey" json:"-"` // internal use
	FileName    string             `bson:"fileName" json:"fileName"`
	ContentType string             `bson:"contentType" json:"contentType"`
	Size        int64              `bson:"size" json:"size"`
	UploadedAt  time.Time          `bson:"uploadedAt" json:"uploadedAt"`
}
