package scenario

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/MartinezAgullo/cmop-map/internal/domain/entity"
	"github.com/MartinezAgullo/cmop-map/internal/platform/db"
)

// Loader replaces the stored picture with a scenario's contents. The whole
// load runs in one transaction: truncate both tables, insert the entities,
// then insert the medical records with their refs resolved to row ids.
type Loader struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

func NewLoader(pool *pgxpool.Pool, log zerolog.Logger) *Loader {
	return &Loader{pool: pool, log: log}
}

// Result summarizes a completed load.
type Result struct {
	Scenario string `json:"scenario"`
	Entities int    `json:"entities"`
	Medical  int    `json:"medical"`
}

func (l *Loader) Load(ctx context.Context, sc *Scenario) (*Result, error) {
	if err := validateSeeds(sc); err != nil {
		return nil, err
	}

	err := db.RunInTx(ctx, l.pool, func(ctx context.Context) error {
		tx := db.TxFromContext(ctx)

		if _, err := tx.Exec(ctx, `TRUNCATE medical_records CASCADE`); err != nil {
			return fmt.Errorf("truncate medical_records: %w", err)
		}
		if _, err := tx.Exec(ctx, `TRUNCATE entities CASCADE`); err != nil {
			return fmt.Errorf("truncate entities: %w", err)
		}

		refMap, err := insertEntitySeeds(ctx, tx, sc.Entities)
		if err != nil {
			return err
		}
		return insertMedicalSeeds(ctx, tx, sc.Medical, refMap)
	})
	if err != nil {
		return nil, err
	}

	l.log.Info().
		Str("scenario", sc.Meta.Name).
		Int("entities", len(sc.Entities)).
		Int("medical", len(sc.Medical)).
		Msg("scenario loaded")

	return &Result{Scenario: sc.Meta.Name, Entities: len(sc.Entities), Medical: len(sc.Medical)}, nil
}

// validateSeeds rejects a scenario before any row is written: unknown enum
// values, missing refs, or a medical seed pointing at no entity all fail the
// whole load.
func validateSeeds(sc *Scenario) error {
	var violations []string
	refs := make(map[string]struct{}, len(sc.Entities))

	for i, e := range sc.Entities {
		if e.Name == "" {
			violations = append(violations, fmt.Sprintf("entity %d: name is required", i))
		}
		if e.Longitude == nil {
			violations = append(violations, fmt.Sprintf("entity %d: lon is required", i))
		}
		if e.Latitude == nil {
			violations = append(violations, fmt.Sprintf("entity %d: lat is required", i))
		}
		if e.Category != "" && !e.Category.Valid() {
			violations = append(violations, fmt.Sprintf("entity %d: unknown category %q", i, e.Category))
		}
		if e.Alliance != "" && !e.Alliance.Valid() {
			violations = append(violations, fmt.Sprintf("entity %d: unknown alliance %q", i, e.Alliance))
		}
		if e.Ref != "" {
			if _, dup := refs[e.Ref]; dup {
				violations = append(violations, fmt.Sprintf("entity %d: duplicate ref %q", i, e.Ref))
			}
			refs[e.Ref] = struct{}{}
		}
	}

	for i, m := range sc.Medical {
		if m.EntityRef == "" {
			violations = append(violations, fmt.Sprintf("medical %d: entity_ref is required", i))
			continue
		}
		if _, ok := refs[m.EntityRef]; !ok {
			violations = append(violations, fmt.Sprintf("medical %d: entity_ref %q matches no entity", i, m.EntityRef))
		}
		if m.DestinationFacilityRef != nil {
			if _, ok := refs[*m.DestinationFacilityRef]; !ok {
				violations = append(violations, fmt.Sprintf("medical %d: destination_facility_ref %q matches no entity", i, *m.DestinationFacilityRef))
			}
		}
		if m.Triage != nil && !m.Triage.Valid() {
			violations = append(violations, fmt.Sprintf("medical %d: unknown triage class %q", i, *m.Triage))
		}
		if m.EvacPriority != nil && !m.EvacPriority.Valid() {
			violations = append(violations, fmt.Sprintf("medical %d: unknown evacuation priority %q", i, *m.EvacPriority))
		}
		if m.EvacStage != nil && !m.EvacStage.Valid() {
			violations = append(violations, fmt.Sprintf("medical %d: unknown evacuation stage %q", i, *m.EvacStage))
		}
	}

	if len(violations) > 0 {
		return &entity.ValidationError{Violations: violations}
	}
	return nil
}

// insertEntitySeeds writes every entity row and returns ref -> id for
// medical seed resolution.
func insertEntitySeeds(ctx context.Context, tx pgx.Tx, seeds []EntitySeed) (map[string]int64, error) {
	refMap := make(map[string]int64, len(seeds))
	for i, e := range seeds {
		var ref *string
		if e.Ref != "" {
			ref = &e.Ref
		}
		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO entities (name, description, category, country, alliance,
				element_code, active, subtype, priority, notes, altitude, geom)
			VALUES ($1, $2,
				COALESCE(NULLIF($3, '')::entity_category, 'default'),
				$4,
				COALESCE(NULLIF($5, '')::alliance_kind, 'unknown'),
				$6, COALESCE($7, true), $8, COALESCE($9, 0), $10, $11,
				ST_SetSRID(ST_MakePoint($12, $13), 4326))
			RETURNING id`,
			e.Name, e.Description, string(e.Category), e.Country, string(e.Alliance),
			ref, e.Active, e.Subtype, e.Priority, e.Notes, e.Altitude,
			e.Longitude, e.Latitude).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("insert entity %d (%s): %w", i, e.Name, err)
		}
		if e.Ref != "" {
			refMap[e.Ref] = id
		}
	}
	return refMap, nil
}

func insertMedicalSeeds(ctx context.Context, tx pgx.Tx, seeds []MedicalSeed, refMap map[string]int64) error {
	for i, m := range seeds {
		entityID := refMap[m.EntityRef]

		var destID *int64
		if m.DestinationFacilityRef != nil {
			id := refMap[*m.DestinationFacilityRef]
			destID = &id
		}

		var vitals, nineLine []byte
		var err error
		if m.Vitals != nil {
			if vitals, err = json.Marshal(m.Vitals); err != nil {
				return fmt.Errorf("medical %d: encode vitals: %w", i, err)
			}
		}
		if m.NineLine != nil {
			if nineLine, err = json.Marshal(m.NineLine); err != nil {
				return fmt.Errorf("medical %d: encode nine_line: %w", i, err)
			}
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO medical_records (entity_id, triage, injury_mechanism,
				primary_injury, vitals, prehospital_treatment, evac_priority,
				evac_stage, destination_facility_id, nine_line)
			VALUES ($1,
				COALESCE($2::triage_class, 'unknown'),
				$3, $4, $5, $6,
				COALESCE($7::evac_priority, 'unknown'),
				COALESCE($8::evac_stage, 'unknown'),
				$9, $10)`,
			entityID, enumArg(m.Triage), m.InjuryMechanism, m.PrimaryInjury,
			vitals, m.PrehospitalTreatment, enumArg(m.EvacPriority),
			enumArg(m.EvacStage), destID, nineLine)
		if err != nil {
			return fmt.Errorf("insert medical record %d (%s): %w", i, m.EntityRef, err)
		}
	}
	return nil
}

func enumArg[T ~string](v *T) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
