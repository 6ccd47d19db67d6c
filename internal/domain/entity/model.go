package entity

import (
	"time"
)

// Category classifies an entity on the common operational picture.
type Category string

const (
	CategoryMissile         Category = "missile"
	CategoryFighter         Category = "fighter"
	CategoryBomber          Category = "bomber"
	CategoryAircraft        Category = "aircraft"
	CategoryHelicopter      Category = "helicopter"
	CategoryUAV             Category = "uav"
	CategoryArmoured        Category = "armoured"
	CategoryArtillery       Category = "artillery"
	CategoryShip            Category = "ship"
	CategoryDestroyer       Category = "destroyer"
	CategorySubmarine       Category = "submarine"
	CategoryGroundVehicle   Category = "ground_vehicle"
	CategoryInfantry        Category = "infantry"
	CategoryReconnaissance  Category = "reconnaissance"
	CategoryEngineer        Category = "engineer"
	CategoryMortar          Category = "mortar"
	CategoryPerson          Category = "person"
	CategoryBase            Category = "base"
	CategoryBuilding        Category = "building"
	CategoryInfrastructure  Category = "infrastructure"
	CategoryMedicalFacility Category = "medical_facility"
	CategoryMedevacUnit     Category = "medevac_unit"
	CategoryCasualty        Category = "casualty"
	CategoryDefault         Category = "default"
)

func (c Category) Valid() bool {
	_, ok := categorySet[c]
	return ok
}

// Alliance indicates which side an entity belongs to.
type Alliance string

const (
	AllianceFriendly Alliance = "friendly"
	AllianceHostile  Alliance = "hostile"
	AllianceNeutral  Alliance = "neutral"
	AllianceUnknown  Alliance = "unknown"
)

func (a Alliance) Valid() bool {
	switch a {
	case AllianceFriendly, AllianceHostile, AllianceNeutral, AllianceUnknown:
		return true
	}
	return false
}

// Triage is the STANAG 2879 triage class assigned to a casualty.
type Triage string

const (
	TriageImmediate Triage = "immediate"
	TriageUrgent    Triage = "urgent"
	TriageMinimal   Triage = "minimal"
	TriageExpectant Triage = "expectant"
	TriageDead      Triage = "dead"
	TriageUnknown   Triage = "unknown"
)

func (t Triage) Valid() bool {
	switch t {
	case TriageImmediate, TriageUrgent, TriageMinimal, TriageExpectant, TriageDead, TriageUnknown:
		return true
	}
	return false
}

// EvacPriority is the MEDEVAC precedence requested for a casualty.
type EvacPriority string

const (
	EvacUrgent          EvacPriority = "urgent"
	EvacPriorityClass   EvacPriority = "priority"
	EvacRoutine         EvacPriority = "routine"
	EvacPriorityUnknown EvacPriority = "unknown"
)

func (p EvacPriority) Valid() bool {
	switch p {
	case EvacUrgent, EvacPriorityClass, EvacRoutine, EvacPriorityUnknown:
		return true
	}
	return false
}

// EvacStage tracks where a casualty currently is in the evacuation chain.
type EvacStage string

const (
	StageAtPOI     EvacStage = "at_poi"
	StageInTransit EvacStage = "in_transit"
	StageDelivered EvacStage = "delivered"
	StageUnknown   EvacStage = "unknown"
)

func (s EvacStage) Valid() bool {
	switch s {
	case StageAtPOI, StageInTransit, StageDelivered, StageUnknown:
		return true
	}
	return false
}

// Entity is the canonical read projection: every entity attribute plus the
// attached medical record. Medical is nil (serialized as JSON null) when no
// record exists; it is never an object of empty defaults.
type Entity struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description"`
	Category    Category  `db:"category" json:"category"`
	Country     *string   `db:"country" json:"country"`
	Alliance    Alliance  `db:"alliance" json:"alliance"`
	ElementCode *string   `db:"element_code" json:"element_code"`
	Active      bool      `db:"active" json:"active"`
	Subtype     *string   `db:"subtype" json:"subtype"`
	Priority    int       `db:"priority" json:"priority"`
	Notes       *string   `db:"notes" json:"notes"`
	Altitude    *float64  `db:"altitude" json:"altitude"`
	Longitude   float64   `db:"longitude" json:"longitude"`
	Latitude    float64   `db:"latitude" json:"latitude"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	Medical *MedicalRecord `json:"medical"`
}

// EntityDistance is an Entity row returned by a radius query, carrying the
// geodesic distance from the query point in meters.
type EntityDistance struct {
	Entity
	DistanceMeters float64 `db:"distance_m" json:"distance_m"`
}

// FacilityRef is a destination facility resolved to id + name in the same
// read pass as the rest of the projection.
type FacilityRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// VitalReading is one timestamped entry in the append-only vitals log.
type VitalReading struct {
	HeartRate        *int      `json:"heart_rate"`
	BloodPressure    *string   `json:"blood_pressure"`
	OxygenSaturation *int      `json:"oxygen_saturation"`
	RecordedAt       time.Time `json:"recorded_at"`
}

// MedicalRecord is the optional one-to-one medical sub-record of an entity.
type MedicalRecord struct {
	Triage               Triage         `json:"triage"`
	InjuryMechanism      *string        `json:"injury_mechanism"`
	PrimaryInjury        *string        `json:"primary_injury"`
	Vitals               []VitalReading `json:"vitals"`
	PrehospitalTreatment *string        `json:"prehospital_treatment"`
	EvacPriority         EvacPriority   `json:"evac_priority"`
	EvacStage            EvacStage      `json:"evac_stage"`
	DestinationFacility  *FacilityRef   `json:"destination_facility"`
	NineLine             map[string]any `json:"nine_line"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// MedicalPatch is a partial medical write. Nil fields are left unchanged in
// an existing record (and fall back to their declared defaults on first
// creation). A present but empty patch still ensures the record exists, so
// `"medical": {}` marks an entity as a casualty with everything unknown.
// There is deliberately no way to clear a field back to null through a
// patch, and the vitals log is only writable through AppendVital.
type MedicalPatch struct {
	Triage                *Triage        `json:"triage"`
	InjuryMechanism       *string        `json:"injury_mechanism"`
	PrimaryInjury         *string        `json:"primary_injury"`
	PrehospitalTreatment  *string        `json:"prehospital_treatment"`
	EvacPriority          *EvacPriority  `json:"evac_priority"`
	EvacStage             *EvacStage     `json:"evac_stage"`
	DestinationFacilityID *int64         `json:"destination_facility_id"`
	NineLine              map[string]any `json:"nine_line"`
}

// CreateInput is the payload for entity creation. Longitude and latitude are
// mandatory; Medical, when present, is written in the same transaction as
// the entity row.
type CreateInput struct {
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Category    *Category `json:"category"`
	Country     *string   `json:"country"`
	Alliance    *Alliance `json:"alliance"`
	ElementCode *string   `json:"element_code"`
	Active      *bool     `json:"active"`
	Subtype     *string   `json:"subtype"`
	Priority    *int      `json:"priority"`
	Notes       *string   `json:"notes"`
	Altitude    *float64  `json:"altitude"`
	Longitude   *float64  `json:"longitude"`
	Latitude    *float64  `json:"latitude"`

	Medical *MedicalPatch `json:"medical"`
}

// Patch is a partial entity update. Nil means "leave unchanged"; a location
// change requires both coordinates together.
type Patch struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Category    *Category `json:"category"`
	Country     *string   `json:"country"`
	Alliance    *Alliance `json:"alliance"`
	ElementCode *string   `json:"element_code"`
	Active      *bool     `json:"active"`
	Subtype     *string   `json:"subtype"`
	Priority    *int      `json:"priority"`
	Notes       *string   `json:"notes"`
	Altitude    *float64  `json:"altitude"`
	Longitude   *float64  `json:"longitude"`
	Latitude    *float64  `json:"latitude"`

	Medical *MedicalPatch `json:"medical"`
}
