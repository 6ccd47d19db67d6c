package entity

import "context"

// Repository is the persistence port for entities. Every read returns the
// full projection, entity attributes plus the attached medical record.
type Repository interface {
	GetAll(ctx context.Context) ([]*Entity, error)
	GetByID(ctx context.Context, id int64) (*Entity, error)
	GetByCategory(ctx context.Context, category Category) ([]*Entity, error)
	GetNearby(ctx context.Context, lon, lat, radiusMeters float64) ([]*EntityDistance, error)
	Categories(ctx context.Context) ([]string, error)

	Create(ctx context.Context, in *CreateInput) (*Entity, error)
	CreateBatch(ctx context.Context, ins []*CreateInput) ([]*Entity, error)
	Update(ctx context.Context, id int64, p *Patch) (*Entity, error)
	Delete(ctx context.Context, id int64) error
}

// MedicalRepository is the persistence port for medical records. A record is
// keyed by its entity id; writes are merge-on-write upserts.
type MedicalRepository interface {
	EntityExists(ctx context.Context, entityID int64) (bool, error)
	Get(ctx context.Context, entityID int64) (*MedicalRecord, error)

	// Upsert creates or field-merges the record. Nil patch fields keep the
	// stored value; a nine-line in the patch is object-merged into the
	// stored document.
	Upsert(ctx context.Context, entityID int64, p *MedicalPatch) (*MedicalRecord, error)

	// AppendVital adds one reading to the end of the vitals log, creating
	// the record if needed.
	AppendVital(ctx context.Context, entityID int64, v *VitalReading) (*MedicalRecord, error)

	// ReplaceNineLine overwrites the stored nine-line document wholesale.
	ReplaceNineLine(ctx context.Context, entityID int64, doc map[string]any) (*MedicalRecord, error)

	Remove(ctx context.Context, entityID int64) error

	Casualties(ctx context.Context) ([]*Entity, error)
	ByTriage(ctx context.Context, t Triage) ([]*Entity, error)
	ByEvacStage(ctx context.Context, s EvacStage) ([]*Entity, error)
}
