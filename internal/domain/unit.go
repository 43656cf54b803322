package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UnitKind tags the two sampling-unit catalogs.
type UnitKind string

const (
	UnitNks    UnitKind = "nks"
	UnitSegmen UnitKind = "segmen"
)

func (k UnitKind) Valid() bool {
	return k == UnitNks || k == UnitSegmen
}

// Target is a sample quota split by commodity bucket.
type Target struct {
	Padi     int `bson:"padi" json:"padi"`
	Palawija int `bson:"palawija" json:"palawija"`
}

// Add returns the element-wise sum of t and o.
func (t Target) Add(o Target) Target {
	return Target{Padi: t.Padi + o.Padi, Palawija: t.Palawija + o.Palawija}
}

// SamplingUnit is the part of NksUnit and SegmenUnit the reconciler and the
// target calculation rely on. Variant fields are reached through a type switch.
type SamplingUnit interface {
	UnitID() primitive.ObjectID
	Kind() UnitKind
	UnitCode() string
	Village() primitive.ObjectID
	Quota() Target
	// ReportingMonth returns the first month the unit's target is reported in.
	ReportingMonth() int
}

// UnitPlace is the joined village/district context of a unit. Populated by
// catalog reads, never stored on the unit itself.
type UnitPlace struct {
	VillageName  string `bson:"villageName" json:"villageName"`
	DistrictName string `bson:"districtName" json:"districtName"`
}

// NksUnit is a household-based sampling block reported per subround.
type NksUnit struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code      string             `bson:"code" json:"code"`
	VillageID primitive.ObjectID `bson:"villageId" json:"villageId"`
	Subround  int                `bson:"subround" json:"subround"`
	Target    Target             `bson:"target" json:"target"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`

	Place       UnitPlace    `bson:"-" json:"place"`
	Assignments []Assignment `bson:"-" json:"-"`
}

func (u *NksUnit) UnitID() primitive.ObjectID  { return u.ID }
func (u *NksUnit) Kind() UnitKind              { return UnitNks }
func (u *NksUnit) UnitCode() string            { return u.Code }
func (u *NksUnit) Village() primitive.ObjectID { return u.VillageID }
func (u *NksUnit) Quota() Target               { return u.Target }

// ReportingMonth of an NKS unit is the first month of its subround.
func (u *NksUnit) ReportingMonth() int {
	if u.Subround < 1 || u.Subround > 3 {
		return 1
	}
	return (u.Subround-1)*4 + 1
}

// SegmenUnit is an area-frame segment with a single target month. Segments
// only carry a rice target.
type SegmenUnit struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code        string             `bson:"code" json:"code"`
	VillageID   primitive.ObjectID `bson:"villageId" json:"villageId"`
	TargetMonth int                `bson:"targetMonth" json:"targetMonth"`
	PadiTarget  int                `bson:"padiTarget" json:"padiTarget"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`

	Place       UnitPlace    `bson:"-" json:"place"`
	Assignments []Assignment `bson:"-" json:"-"`
}

func (u *SegmenUnit) UnitID() primitive.ObjectID  { return u.ID }
func (u *SegmenUnit) Kind() UnitKind              { return UnitSegmen }
func (u *SegmenUnit) UnitCode() string            { return u.Code }
func (u *SegmenUnit) Village() primitive.ObjectID { return u.VillageID }
func (u *SegmenUnit) Quota() Target               { return Target{Padi: u.PadiTarget} }
func (u *SegmenUnit) ReportingMonth() int         { return u.TargetMonth }
