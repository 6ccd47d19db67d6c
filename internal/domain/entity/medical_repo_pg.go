package entity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MartinezAgullo/cmop-map/internal/platform/db"
)

type medicalRepoPG struct{ pool *pgxpool.Pool }

// NewMedicalRepoPG returns the PostgreSQL-backed medical record repository.
func NewMedicalRepoPG(pool *pgxpool.Pool) MedicalRepository { return &medicalRepoPG{pool: pool} }

func (r *medicalRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// upsertMedical creates or field-merges a medical record in one statement.
// COALESCE against the stored row makes concurrent merges of disjoint fields
// commute: each writer only overwrites what it actually supplied. The
// nine-line is object-merged key by key rather than replaced.
func upsertMedical(ctx context.Context, q queryable, entityID int64, p *MedicalPatch) error {
	var nineLine []byte
	if p.NineLine != nil {
		var err error
		nineLine, err = json.Marshal(p.NineLine)
		if err != nil {
			return fmt.Errorf("encode nine_line: %w", err)
		}
	}

	_, err := q.Exec(ctx, `
		INSERT INTO medical_records (entity_id, triage, injury_mechanism,
			primary_injury, prehospital_treatment, evac_priority, evac_stage,
			destination_facility_id, nine_line)
		VALUES ($1,
			COALESCE($2::triage_class, 'unknown'),
			$3, $4, $5,
			COALESCE($6::evac_priority, 'unknown'),
			COALESCE($7::evac_stage, 'unknown'),
			$8, $9)
		ON CONFLICT (entity_id) DO UPDATE SET
			triage                = COALESCE($2::triage_class, medical_records.triage),
			injury_mechanism      = COALESCE($3, medical_records.injury_mechanism),
			primary_injury        = COALESCE($4, medical_records.primary_injury),
			prehospital_treatment = COALESCE($5, medical_records.prehospital_treatment),
			evac_priority         = COALESCE($6::evac_priority, medical_records.evac_priority),
			evac_stage            = COALESCE($7::evac_stage, medical_records.evac_stage),
			destination_facility_id = COALESCE($8, medical_records.destination_facility_id),
			nine_line = CASE
				WHEN $9::jsonb IS NULL THEN medical_records.nine_line
				ELSE COALESCE(medical_records.nine_line, '{}'::jsonb) || $9::jsonb
			END,
			updated_at = NOW()`,
		entityID, enumArg(p.Triage), p.InjuryMechanism, p.PrimaryInjury,
		p.PrehospitalTreatment, enumArg(p.EvacPriority), enumArg(p.EvacStage),
		p.DestinationFacilityID, nineLine)
	if err != nil {
		return fmt.Errorf("upsert medical record: %w", err)
	}
	return nil
}

func (r *medicalRepoPG) EntityExists(ctx context.Context, entityID int64) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM entities WHERE id = $1)`, entityID).Scan(&exists)
	return exists, err
}

func (r *medicalRepoPG) Get(ctx context.Context, entityID int64) (*MedicalRecord, error) {
	e, err := r.projectOne(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if e.Medical == nil {
		return nil, ErrNotFound
	}
	return e.Medical, nil
}

func (r *medicalRepoPG) Upsert(ctx context.Context, entityID int64, p *MedicalPatch) (*MedicalRecord, error) {
	var rec *MedicalRecord
	err := db.RunInTx(ctx, r.pool, func(ctx context.Context) error {
		if err := upsertMedical(ctx, r.conn(ctx), entityID, p); err != nil {
			return err
		}
		var err error
		rec, err = r.Get(ctx, entityID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *medicalRepoPG) AppendVital(ctx context.Context, entityID int64, v *VitalReading) (*MedicalRecord, error) {
	reading, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode vital reading: %w", err)
	}

	var rec *MedicalRecord
	err = db.RunInTx(ctx, r.pool, func(ctx context.Context) error {
		// An object appended to a jsonb array lands as one element, so the
		// same expression serves both branches.
		if _, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO medical_records (entity_id, vitals)
			VALUES ($1, '[]'::jsonb || $2::jsonb)
			ON CONFLICT (entity_id) DO UPDATE SET
				vitals     = COALESCE(medical_records.vitals, '[]'::jsonb) || $2::jsonb,
				updated_at = NOW()`,
			entityID, reading); err != nil {
			return fmt.Errorf("append vital: %w", err)
		}
		var err error
		rec, err = r.Get(ctx, entityID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *medicalRepoPG) ReplaceNineLine(ctx context.Context, entityID int64, doc map[string]any) (*MedicalRecord, error) {
	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode nine_line: %w", err)
	}

	var rec *MedicalRecord
	err = db.RunInTx(ctx, r.pool, func(ctx context.Context) error {
		if _, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO medical_records (entity_id, nine_line)
			VALUES ($1, $2)
			ON CONFLICT (entity_id) DO UPDATE SET
				nine_line  = EXCLUDED.nine_line,
				updated_at = NOW()`,
			entityID, encoded); err != nil {
			return fmt.Errorf("replace nine_line: %w", err)
		}
		var err error
		rec, err = r.Get(ctx, entityID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *medicalRepoPG) Remove(ctx context.Context, entityID int64) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM medical_records WHERE entity_id = $1`, entityID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *medicalRepoPG) Casualties(ctx context.Context) ([]*Entity, error) {
	rows, err := r.conn(ctx).Query(ctx,
		baseSelect+` WHERE m.entity_id IS NOT NULL ORDER BY m.triage, e.name`)
	if err != nil {
		return nil, err
	}
	return collectEntities(rows)
}

func (r *medicalRepoPG) ByTriage(ctx context.Context, t Triage) ([]*Entity, error) {
	rows, err := r.conn(ctx).Query(ctx,
		baseSelect+` WHERE m.triage = $1::triage_class ORDER BY e.name`,
		string(t))
	if err != nil {
		return nil, err
	}
	return collectEntities(rows)
}

func (r *medicalRepoPG) ByEvacStage(ctx context.Context, s EvacStage) ([]*Entity, error) {
	rows, err := r.conn(ctx).Query(ctx,
		baseSelect+` WHERE m.evac_stage = $1::evac_stage ORDER BY e.name`,
		string(s))
	if err != nil {
		return nil, err
	}
	return collectEntities(rows)
}

func (r *medicalRepoPG) projectOne(ctx context.Context, entityID int64) (*Entity, error) {
	e, err := scanEntity(r.conn(ctx).QueryRow(ctx, baseSelect+` WHERE e.id = $1`, entityID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}
