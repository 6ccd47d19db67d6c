// Package scenario loads predefined tactical situations into storage. A
// scenario file is a JSON document of entity seeds plus optional medical
// seeds; loading one replaces the entire current picture in a single
// transaction.
package scenario

import "github.com/MartinezAgullo/cmop-map/internal/domain/entity"

// Meta identifies a scenario to the frontend without loading it.
type Meta struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
}

// EntitySeed is one entity row of a scenario file. Ref is the element code
// other seeds use to point at this entity; it must be unique within the file.
type EntitySeed struct {
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Category    entity.Category `json:"category"`
	Country     *string         `json:"country"`
	Alliance    entity.Alliance `json:"alliance"`
	Ref         string          `json:"ref"`
	Active      *bool           `json:"active"`
	Subtype     *string         `json:"subtype"`
	Priority    *int            `json:"priority"`
	Notes       *string         `json:"notes"`
	Altitude    *float64        `json:"altitude"`
	Longitude   *float64        `json:"lon"`
	Latitude    *float64        `json:"lat"`
}

// MedicalSeed attaches a medical record to an entity seed by ref. The
// destination facility is also given by ref and resolved at load time.
type MedicalSeed struct {
	EntityRef              string                `json:"entity_ref"`
	Triage                 *entity.Triage        `json:"triage"`
	InjuryMechanism        *string               `json:"injury_mechanism"`
	PrimaryInjury          *string               `json:"primary_injury"`
	Vitals                 []entity.VitalReading `json:"vitals"`
	PrehospitalTreatment   *string               `json:"prehospital_treatment"`
	EvacPriority           *entity.EvacPriority  `json:"evac_priority"`
	EvacStage              *entity.EvacStage     `json:"evac_stage"`
	DestinationFacilityRef *string               `json:"destination_facility_ref"`
	NineLine               map[string]any        `json:"nine_line"`
}

// Scenario is a complete scenario file.
type Scenario struct {
	Meta     Meta          `json:"meta"`
	Entities []EntitySeed  `json:"entities"`
	Medical  []MedicalSeed `json:"medical"`
}
