package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Assignment allocates one sampling unit to a field officer (PPL) and the
// supervisor (PML) who verifies that officer's samples. A unit has at most one.
type Assignment struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UnitID       primitive.ObjectID `bson:"unitId" json:"unitId"`
	UnitKind     UnitKind           `bson:"unitKind" json:"unitKind"`
	OfficerID    primitive.ObjectID `bson:"officerId" json:"officerId"`
	SupervisorID primitive.ObjectID `bson:"supervisorId" json:"supervisorId"`
	AssignedAt   time.Time          `bson:"assignedAt" json:"assignedAt"`
	AssignedBy   primitive.ObjectID `bson:"assignedBy,omitempty" json:"assignedBy,omitempty"`
}
