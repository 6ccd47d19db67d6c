package entity

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultNearbyRadiusMeters is used when a radius query does not specify one.
const DefaultNearbyRadiusMeters = 50000

type Service struct {
	repo    Repository
	medical MedicalRepository
}

func NewService(repo Repository, medical MedicalRepository) *Service {
	return &Service{repo: repo, medical: medical}
}

// -- Entities --

func (s *Service) GetAll(ctx context.Context) ([]*Entity, error) {
	return s.repo.GetAll(ctx)
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Entity, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByCategory(ctx context.Context, category Category) ([]*Entity, error) {
	if !category.Valid() {
		return nil, &ValidationError{Violations: []string{
			fmt.Sprintf("unknown category %q", category),
		}}
	}
	return s.repo.GetByCategory(ctx, category)
}

// GetNearby returns entities within radiusMeters of the point, closest first.
// A zero radius falls back to DefaultNearbyRadiusMeters.
func (s *Service) GetNearby(ctx context.Context, lon, lat, radiusMeters float64) ([]*EntityDistance, error) {
	var violations []string
	if lon < -180 || lon > 180 {
		violations = append(violations, "longitude must be between -180 and 180")
	}
	if lat < -90 || lat > 90 {
		violations = append(violations, "latitude must be between -90 and 90")
	}
	if radiusMeters < 0 {
		violations = append(violations, "radius must not be negative")
	}
	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}
	if radiusMeters == 0 {
		radiusMeters = DefaultNearbyRadiusMeters
	}
	return s.repo.GetNearby(ctx, lon, lat, radiusMeters)
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}

func (s *Service) Create(ctx context.Context, in *CreateInput) (*Entity, error) {
	if violations := validateCreate(in, ""); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}
	normalizePatchNineLine(in.Medical)
	return s.repo.Create(ctx, in)
}

// CreateBatch validates every input before any row is written, so a bad
// element fails the whole batch without touching storage.
func (s *Service) CreateBatch(ctx context.Context, ins []*CreateInput) ([]*Entity, error) {
	var violations []string
	for i, in := range ins {
		violations = append(violations, validateCreate(in, fmt.Sprintf("entity %d: ", i))...)
	}
	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}
	for _, in := range ins {
		normalizePatchNineLine(in.Medical)
	}
	return s.repo.CreateBatch(ctx, ins)
}

func (s *Service) Update(ctx context.Context, id int64, p *Patch) (*Entity, error) {
	var violations []string
	if p.Name != nil && *p.Name == "" {
		violations = append(violations, "name must not be empty")
	}
	if p.Category != nil && !p.Category.Valid() {
		violations = append(violations, fmt.Sprintf("unknown category %q", *p.Category))
	}
	if p.Alliance != nil && !p.Alliance.Valid() {
		violations = append(violations, fmt.Sprintf("unknown alliance %q", *p.Alliance))
	}
	if (p.Longitude == nil) != (p.Latitude == nil) {
		violations = append(violations, "longitude and latitude must be updated together")
	}
	violations = append(violations, validateCoords(p.Longitude, p.Latitude)...)
	violations = append(violations, validateMedicalPatch(p.Medical, "medical: ")...)
	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}
	normalizePatchNineLine(p.Medical)
	return s.repo.Update(ctx, id, p)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// -- Medical records --

func (s *Service) GetMedical(ctx context.Context, entityID int64) (*MedicalRecord, error) {
	return s.medical.Get(ctx, entityID)
}

// UpsertMedical creates or merges the entity's medical record. The entity
// must already exist; fields absent from the patch keep their stored value.
func (s *Service) UpsertMedical(ctx context.Context, entityID int64, p *MedicalPatch) (*MedicalRecord, error) {
	if violations := validateMedicalPatch(p, ""); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}
	if err := s.requireEntity(ctx, entityID); err != nil {
		return nil, err
	}
	normalizePatchNineLine(p)
	return s.medical.Upsert(ctx, entityID, p)
}

// AppendVital stamps the reading (when the caller did not) and appends it to
// the entity's vitals log.
func (s *Service) AppendVital(ctx context.Context, entityID int64, v *VitalReading) (*MedicalRecord, error) {
	if v == nil || (v.HeartRate == nil && v.BloodPressure == nil && v.OxygenSaturation == nil) {
		return nil, &ValidationError{Violations: []string{
			"vital reading must carry at least one measurement",
		}}
	}
	if err := s.requireEntity(ctx, entityID); err != nil {
		return nil, err
	}
	if v.RecordedAt.IsZero() {
		v.RecordedAt = time.Now().UTC()
	}
	return s.medical.AppendVital(ctx, entityID, v)
}

// SetNineLine validates and stores a 9-Line document. In strict mode every
// required line must be present and the stored document is replaced
// wholesale; otherwise only supplied lines are checked and the document is
// merged into whatever is already stored. Coded lines are uppercased in both
// modes.
func (s *Service) SetNineLine(ctx context.Context, entityID int64, doc map[string]any, strict bool) (*MedicalRecord, error) {
	if violations := ValidateNineLine(doc, strict); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}
	if err := s.requireEntity(ctx, entityID); err != nil {
		return nil, err
	}
	NormalizeNineLine(doc)
	if strict {
		return s.medical.ReplaceNineLine(ctx, entityID, doc)
	}
	return s.medical.Upsert(ctx, entityID, &MedicalPatch{NineLine: doc})
}

// GetNineLine returns the stored 9-Line document for an existing entity. An
// entity without a medical record (or without a document) yields nil, not an
// error; only a missing entity is ErrNotFound.
func (s *Service) GetNineLine(ctx context.Context, entityID int64) (map[string]any, error) {
	if err := s.requireEntity(ctx, entityID); err != nil {
		return nil, err
	}
	rec, err := s.medical.Get(ctx, entityID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec.NineLine, nil
}

func (s *Service) RemoveMedical(ctx context.Context, entityID int64) error {
	return s.medical.Remove(ctx, entityID)
}

func (s *Service) Casualties(ctx context.Context) ([]*Entity, error) {
	return s.medical.Casualties(ctx)
}

func (s *Service) ByTriage(ctx context.Context, t Triage) ([]*Entity, error) {
	if !t.Valid() {
		return nil, &ValidationError{Violations: []string{
			fmt.Sprintf("unknown triage class %q", t),
		}}
	}
	return s.medical.ByTriage(ctx, t)
}

func (s *Service) ByEvacStage(ctx context.Context, st EvacStage) ([]*Entity, error) {
	if !st.Valid() {
		return nil, &ValidationError{Violations: []string{
			fmt.Sprintf("unknown evacuation stage %q", st),
		}}
	}
	return s.medical.ByEvacStage(ctx, st)
}

// Schema returns the static catalog of categories, codes and 9-Line fields.
func (s *Service) Schema() *Catalog {
	return Schema()
}

func (s *Service) requireEntity(ctx context.Context, entityID int64) error {
	exists, err := s.medical.EntityExists(ctx, entityID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

// -- validation helpers --

func validateCreate(in *CreateInput, prefix string) []string {
	var violations []string
	if in.Name == "" {
		violations = append(violations, prefix+"name is required")
	}
	if in.Longitude == nil {
		violations = append(violations, prefix+"longitude is required")
	}
	if in.Latitude == nil {
		violations = append(violations, prefix+"latitude is required")
	}
	violations = append(violations, prefixAll(prefix, validateCoords(in.Longitude, in.Latitude))...)
	if in.Category != nil && !in.Category.Valid() {
		violations = append(violations, fmt.Sprintf("%sunknown category %q", prefix, *in.Category))
	}
	if in.Alliance != nil && !in.Alliance.Valid() {
		violations = append(violations, fmt.Sprintf("%sunknown alliance %q", prefix, *in.Alliance))
	}
	violations = append(violations, validateMedicalPatch(in.Medical, prefix+"medical: ")...)
	return violations
}

func validateCoords(lon, lat *float64) []string {
	var violations []string
	if lon != nil && (*lon < -180 || *lon > 180) {
		violations = append(violations, "longitude must be between -180 and 180")
	}
	if lat != nil && (*lat < -90 || *lat > 90) {
		violations = append(violations, "latitude must be between -90 and 90")
	}
	return violations
}

func validateMedicalPatch(p *MedicalPatch, prefix string) []string {
	if p == nil {
		return nil
	}
	var violations []string
	if p.Triage != nil && !p.Triage.Valid() {
		violations = append(violations, fmt.Sprintf("%sunknown triage class %q", prefix, *p.Triage))
	}
	if p.EvacPriority != nil && !p.EvacPriority.Valid() {
		violations = append(violations, fmt.Sprintf("%sunknown evacuation priority %q", prefix, *p.EvacPriority))
	}
	if p.EvacStage != nil && !p.EvacStage.Valid() {
		violations = append(violations, fmt.Sprintf("%sunknown evacuation stage %q", prefix, *p.EvacStage))
	}
	if p.NineLine != nil {
		violations = append(violations, prefixAll(prefix, ValidateNineLine(p.NineLine, false))...)
	}
	return violations
}

func normalizePatchNineLine(p *MedicalPatch) {
	if p != nil && p.NineLine != nil {
		NormalizeNineLine(p.NineLine)
	}
}

func prefixAll(prefix string, items []string) []string {
	if prefix == "" {
		return items
	}
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = prefix + it
	}
	return out
}
