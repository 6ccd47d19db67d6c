package entity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MartinezAgullo/cmop-map/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// The one read projection every query goes through: entity columns, the
// medical record columns, and the destination facility resolved to id + name,
// all in a single pass. Column list and FROM clause are kept apart so the
// radius query can project its distance column between them.
const (
	baseColumns = `
		e.id, e.name, e.description, e.category::text, e.country,
		e.alliance::text, e.element_code, e.active, e.subtype, e.priority,
		e.notes, e.altitude, ST_X(e.geom), ST_Y(e.geom),
		e.created_at, e.updated_at,
		(m.entity_id IS NOT NULL) AS has_medical,
		m.triage::text, m.injury_mechanism, m.primary_injury, m.vitals,
		m.prehospital_treatment, m.evac_priority::text, m.evac_stage::text,
		m.destination_facility_id, f.name, m.nine_line,
		m.created_at, m.updated_at`

	baseFrom = `
	FROM entities e
	LEFT JOIN medical_records m ON m.entity_id = e.id
	LEFT JOIN entities f ON f.id = m.destination_facility_id`

	baseSelect = `SELECT` + baseColumns + baseFrom

	nearbySelect = `SELECT` + baseColumns + `,
		ST_Distance(e.geom::geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) AS distance_m` +
		baseFrom + `
	WHERE ST_DWithin(e.geom::geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
	ORDER BY distance_m`
)

// scanEntity scans one baseSelect row plus any trailing extra columns
// (the radius query appends a distance column).
func scanEntity(row pgx.Row, extra ...interface{}) (*Entity, error) {
	var (
		e          Entity
		hasMedical bool
		m          MedicalRecord

		triage, evacPriority, evacStage *string
		vitalsJSON, nineLineJSON        []byte
		facilityID                      *int64
		facilityName                    *string
		mCreatedAt, mUpdatedAt          *time.Time
	)

	dest := []interface{}{
		&e.ID, &e.Name, &e.Description, &e.Category, &e.Country,
		&e.Alliance, &e.ElementCode, &e.Active, &e.Subtype, &e.Priority,
		&e.Notes, &e.Altitude, &e.Longitude, &e.Latitude,
		&e.CreatedAt, &e.UpdatedAt,
		&hasMedical,
		&triage, &m.InjuryMechanism, &m.PrimaryInjury, &vitalsJSON,
		&m.PrehospitalTreatment, &evacPriority, &evacStage,
		&facilityID, &facilityName, &nineLineJSON,
		&mCreatedAt, &mUpdatedAt,
	}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if hasMedical {
		m.Triage = Triage(*triage)
		m.EvacPriority = EvacPriority(*evacPriority)
		m.EvacStage = EvacStage(*evacStage)
		if facilityID != nil {
			ref := FacilityRef{ID: *facilityID}
			if facilityName != nil {
				ref.Name = *facilityName
			}
			m.DestinationFacility = &ref
		}
		if len(vitalsJSON) > 0 {
			if err := json.Unmarshal(vitalsJSON, &m.Vitals); err != nil {
				return nil, fmt.Errorf("decode vitals: %w", err)
			}
		}
		if len(nineLineJSON) > 0 {
			if err := json.Unmarshal(nineLineJSON, &m.NineLine); err != nil {
				return nil, fmt.Errorf("decode nine_line: %w", err)
			}
		}
		m.CreatedAt = *mCreatedAt
		m.UpdatedAt = *mUpdatedAt
		e.Medical = &m
	}

	return &e, nil
}

func collectEntities(rows pgx.Rows) ([]*Entity, error) {
	defer rows.Close()
	var items []*Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns the PostgreSQL-backed entity repository.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *repoPG) GetAll(ctx context.Context) ([]*Entity, error) {
	rows, err := r.conn(ctx).Query(ctx, baseSelect+` ORDER BY e.name`)
	if err != nil {
		return nil, err
	}
	return collectEntities(rows)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Entity, error) {
	e, err := scanEntity(r.conn(ctx).QueryRow(ctx, baseSelect+` WHERE e.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

func (r *repoPG) GetByCategory(ctx context.Context, category Category) ([]*Entity, error) {
	rows, err := r.conn(ctx).Query(ctx,
		baseSelect+` WHERE e.category = $1::entity_category ORDER BY e.name`,
		string(category))
	if err != nil {
		return nil, err
	}
	return collectEntities(rows)
}

func (r *repoPG) GetNearby(ctx context.Context, lon, lat, radiusMeters float64) ([]*EntityDistance, error) {
	rows, err := r.conn(ctx).Query(ctx, nearbySelect, lon, lat, radiusMeters)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*EntityDistance
	for rows.Next() {
		var d float64
		e, err := scanEntity(rows, &d)
		if err != nil {
			return nil, err
		}
		items = append(items, &EntityDistance{Entity: *e, DistanceMeters: d})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repoPG) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT unnest(enum_range(NULL::entity_category))::text`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (r *repoPG) Create(ctx context.Context, in *CreateInput) (*Entity, error) {
	var created *Entity
	err := db.RunInTx(ctx, r.pool, func(ctx context.Context) error {
		id, err := r.insert(ctx, in)
		if err != nil {
			return err
		}
		if in.Medical != nil {
			if err := upsertMedical(ctx, r.conn(ctx), id, in.Medical); err != nil {
				return err
			}
		}
		created, err = r.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// CreateBatch inserts every input in one transaction; any failure rolls the
// whole batch back.
func (r *repoPG) CreateBatch(ctx context.Context, ins []*CreateInput) ([]*Entity, error) {
	var created []*Entity
	err := db.RunInTx(ctx, r.pool, func(ctx context.Context) error {
		for _, in := range ins {
			id, err := r.insert(ctx, in)
			if err != nil {
				return err
			}
			if in.Medical != nil {
				if err := upsertMedical(ctx, r.conn(ctx), id, in.Medical); err != nil {
					return err
				}
			}
			e, err := r.GetByID(ctx, id)
			if err != nil {
				return err
			}
			created = append(created, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *repoPG) insert(ctx context.Context, in *CreateInput) (int64, error) {
	var id int64
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO entities (name, description, category, country, alliance,
			element_code, active, subtype, priority, notes, altitude, geom)
		VALUES ($1, $2,
			COALESCE($3::entity_category, 'default'),
			$4,
			COALESCE($5::alliance_kind, 'unknown'),
			$6, COALESCE($7, true), $8, COALESCE($9, 0), $10, $11,
			ST_SetSRID(ST_MakePoint($12, $13), 4326))
		RETURNING id`,
		in.Name, in.Description, enumArg(in.Category), in.Country, enumArg(in.Alliance),
		in.ElementCode, in.Active, in.Subtype, in.Priority, in.Notes, in.Altitude,
		in.Longitude, in.Latitude).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert entity: %w", err)
	}
	return id, nil
}

func (r *repoPG) Update(ctx context.Context, id int64, p *Patch) (*Entity, error) {
	var updated *Entity
	err := db.RunInTx(ctx, r.pool, func(ctx context.Context) error {
		tag, err := r.conn(ctx).Exec(ctx, `
			UPDATE entities SET
				name         = COALESCE($2, name),
				description  = COALESCE($3, description),
				category     = COALESCE($4::entity_category, category),
				country      = COALESCE($5, country),
				alliance     = COALESCE($6::alliance_kind, alliance),
				element_code = COALESCE($7, element_code),
				active       = COALESCE($8, active),
				subtype      = COALESCE($9, subtype),
				priority     = COALESCE($10, priority),
				notes        = COALESCE($11, notes),
				altitude     = COALESCE($12, altitude),
				geom = CASE
					WHEN $13::float8 IS NOT NULL AND $14::float8 IS NOT NULL
					THEN ST_SetSRID(ST_MakePoint($13, $14), 4326)
					ELSE geom
				END
			WHERE id = $1`,
			id, p.Name, p.Description, enumArg(p.Category), p.Country, enumArg(p.Alliance),
			p.ElementCode, p.Active, p.Subtype, p.Priority, p.Notes, p.Altitude,
			p.Longitude, p.Latitude)
		if err != nil {
			return fmt.Errorf("update entity: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		if p.Medical != nil {
			if err := upsertMedical(ctx, r.conn(ctx), id, p.Medical); err != nil {
				return err
			}
		}
		updated, err = r.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *repoPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM entities WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// enumArg converts a typed enum pointer to the plain *string pgx expects for
// a ::enum-cast placeholder, keeping nil as SQL NULL.
func enumArg[T ~string](v *T) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
