package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Commodity is the crop a ubinan sample was cut from.
type Commodity string

const (
	CommodityPadi        Commodity = "padi"
	CommodityJagung      Commodity = "jagung"
	CommodityKedelai     Commodity = "kedelai"
	CommodityKacangTanah Commodity = "kacang_tanah"
	CommodityUbiKayu     Commodity = "ubi_kayu"
	CommodityUbiJalar    Commodity = "ubi_jalar"
)

// Commodities is the closed enumeration accepted on write.
var Commodities = []Commodity{
	CommodityPadi, CommodityJagung, CommodityKedelai,
	CommodityKacangTanah, CommodityUbiKayu, CommodityUbiJalar,
}

// NormalizeCommodity trims and lower-cases a raw commodity value.
func NormalizeCommodity(raw string) Commodity {
	return Commodity(strings.ToLower(strings.TrimSpace(raw)))
}

func (c Commodity) Valid() bool {
	for _, known := range Commodities {
		if c == known {
			return true
		}
	}
	return false
}

// IsPadi reports whether c counts in the rice bucket. Everything else is palawija.
func (c Commodity) IsPadi() bool {
	return NormalizeCommodity(string(c)) == CommodityPadi
}

// SampleStatus type for the sample lifecycle
type SampleStatus string

const (
	StatusUnfilled  SampleStatus = "belum_diisi"
	StatusFilled    SampleStatus = "sudah_diisi" // Awaiting supervisor verification
	StatusConfirmed SampleStatus = "dikonfirmasi"
	StatusRejected  SampleStatus = "ditolak" // Officer may edit and resubmit
)

// transitions lists the allowed next states for each state.
var transitions = map[SampleStatus][]SampleStatus{
	StatusUnfilled: {StatusFilled},
	StatusFilled:   {StatusFilled, StatusConfirmed, StatusRejected},
	StatusRejected: {StatusFilled},
}

// CanTransition reports whether a sample may move from one status to another.
func CanTransition(from, to SampleStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SampleDateLayout is the storage format of YieldSample.SampleDate.
const SampleDateLayout = "2006-01-02"

// YieldSample is a single crop-cutting measurement. Exactly one of NksID and
// SegmenID is set.
type YieldSample struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	NksID        *primitive.ObjectID `bson:"nksId,omitempty" json:"nksId,omitempty"`
	SegmenID     *primitive.ObjectID `bson:"segmenId,omitempty" json:"segmenId,omitempty"`
	Commodity    Commodity           `bson:"commodity" json:"commodity"`
	Weight       float64             `bson:"weight" json:"weight"` // kilograms
	SampleDate   string              `bson:"sampleDate" json:"sampleDate"`
	Status       SampleStatus        `bson:"status" json:"status"`
	Comment      string              `bson:"comment,omitempty" json:"comment,omitempty"` // From the reviewer
	OfficerID    primitive.ObjectID  `bson:"officerId" json:"officerId"`
	SupervisorID primitive.ObjectID  `bson:"supervisorId" json:"supervisorId"`
	PhotoID      *primitive.ObjectID `bson:"photoId,omitempty" json:"photoId,omitempty"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// UnitRef returns the linked unit id and its kind. ok is false when the
// sample links to neither or both catalogs.
func (s *YieldSample) UnitRef() (id primitive.ObjectID, kind UnitKind, ok bool) {
	hasNks := s.NksID != nil && *s.NksID != primitive.NilObjectID
	hasSegmen := s.SegmenID != nil && *s.SegmenID != primitive.NilObjectID
	switch {
	case hasNks && !hasSegmen:
		return *s.NksID, UnitNks, true
	case hasSegmen && !hasNks:
		return *s.SegmenID, UnitSegmen, true
	}
	return primitive.NilObjectID, "", false
}

// Date parses SampleDate. Callers that aggregate treat a parse error as
// "exclude this record".
func (s *YieldSample) Date() (time.Time, error) {
	return time.Parse(SampleDateLayout, strings.TrimSpace(s.SampleDate))
}
