package entity

import (
	"context"
	"math"
	"sort"
	"time"
)

// memStore is a map-backed double for both repository interfaces. It mirrors
// the storage semantics the SQL layer provides: field-level merge on upsert,
// append-only vitals, cascading delete of the medical record, and the
// declared defaults on first creation.
type memStore struct {
	nextID   int64
	entities map[int64]*Entity
	medical  map[int64]*MedicalRecord
}

func newMemStore() *memStore {
	return &memStore{
		nextID:   1,
		entities: make(map[int64]*Entity),
		medical:  make(map[int64]*MedicalRecord),
	}
}

func newTestService() (*Service, *memStore) {
	st := newMemStore()
	return NewService(st, st), st
}

// project returns a copy of the entity with its medical record attached, the
// way baseSelect does.
func (m *memStore) project(id int64) *Entity {
	e, ok := m.entities[id]
	if !ok {
		return nil
	}
	out := *e
	if rec, ok := m.medical[id]; ok {
		cp := *rec
		if rec.DestinationFacility != nil {
			ref := *rec.DestinationFacility
			if fe, ok := m.entities[ref.ID]; ok {
				ref.Name = fe.Name
			}
			cp.DestinationFacility = &ref
		}
		out.Medical = &cp
	} else {
		out.Medical = nil
	}
	return &out
}

func (m *memStore) GetAll(_ context.Context) ([]*Entity, error) {
	var items []*Entity
	for id := range m.entities {
		items = append(items, m.project(id))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (m *memStore) GetByID(_ context.Context, id int64) (*Entity, error) {
	e := m.project(id)
	if e == nil {
		return nil, ErrNotFound
	}
	return e, nil
}

func (m *memStore) GetByCategory(_ context.Context, category Category) ([]*Entity, error) {
	var items []*Entity
	for id, e := range m.entities {
		if e.Category == category {
			items = append(items, m.project(id))
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (m *memStore) GetNearby(_ context.Context, lon, lat, radiusMeters float64) ([]*EntityDistance, error) {
	var items []*EntityDistance
	for id, e := range m.entities {
		d := haversineMeters(lat, lon, e.Latitude, e.Longitude)
		if d <= radiusMeters {
			items = append(items, &EntityDistance{Entity: *m.project(id), DistanceMeters: d})
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].DistanceMeters < items[j].DistanceMeters })
	return items, nil
}

func (m *memStore) Categories(_ context.Context) ([]string, error) {
	var cats []string
	for _, c := range categories {
		cats = append(cats, string(c.Value))
	}
	return cats, nil
}

func (m *memStore) Create(ctx context.Context, in *CreateInput) (*Entity, error) {
	id := m.nextID
	m.nextID++

	now := time.Now()
	e := &Entity{
		ID:        id,
		Name:      in.Name,
		Category:  CategoryDefault,
		Alliance:  AllianceUnknown,
		Active:    true,
		Longitude: *in.Longitude,
		Latitude:  *in.Latitude,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Category != nil {
		e.Category = *in.Category
	}
	if in.Alliance != nil {
		e.Alliance = *in.Alliance
	}
	if in.Active != nil {
		e.Active = *in.Active
	}
	if in.Priority != nil {
		e.Priority = *in.Priority
	}
	e.Description = in.Description
	e.Country = in.Country
	e.ElementCode = in.ElementCode
	e.Subtype = in.Subtype
	e.Notes = in.Notes
	e.Altitude = in.Altitude
	m.entities[id] = e

	if in.Medical != nil {
		m.mergeMedical(id, in.Medical)
	}
	return m.project(id), nil
}

func (m *memStore) CreateBatch(ctx context.Context, ins []*CreateInput) ([]*Entity, error) {
	var created []*Entity
	for _, in := range ins {
		e, err := m.Create(ctx, in)
		if err != nil {
			return nil, err
		}
		created = append(created, e)
	}
	return created, nil
}

func (m *memStore) Update(_ context.Context, id int64, p *Patch) (*Entity, error) {
	e, ok := m.entities[id]
	if !ok {
		return nil, ErrNotFound
	}
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Description != nil {
		e.Description = p.Description
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Country != nil {
		e.Country = p.Country
	}
	if p.Alliance != nil {
		e.Alliance = *p.Alliance
	}
	if p.ElementCode != nil {
		e.ElementCode = p.ElementCode
	}
	if p.Active != nil {
		e.Active = *p.Active
	}
	if p.Subtype != nil {
		e.Subtype = p.Subtype
	}
	if p.Priority != nil {
		e.Priority = *p.Priority
	}
	if p.Notes != nil {
		e.Notes = p.Notes
	}
	if p.Altitude != nil {
		e.Altitude = p.Altitude
	}
	if p.Longitude != nil && p.Latitude != nil {
		e.Longitude = *p.Longitude
		e.Latitude = *p.Latitude
	}
	e.UpdatedAt = time.Now()

	if p.Medical != nil {
		m.mergeMedical(id, p.Medical)
	}
	return m.project(id), nil
}

func (m *memStore) Delete(_ context.Context, id int64) error {
	if _, ok := m.entities[id]; !ok {
		return ErrNotFound
	}
	delete(m.entities, id)
	delete(m.medical, id)
	for _, rec := range m.medical {
		if rec.DestinationFacility != nil && rec.DestinationFacility.ID == id {
			rec.DestinationFacility = nil
		}
	}
	return nil
}

// -- MedicalRepository --

func (m *memStore) EntityExists(_ context.Context, entityID int64) (bool, error) {
	_, ok := m.entities[entityID]
	return ok, nil
}

func (m *memStore) Get(_ context.Context, entityID int64) (*MedicalRecord, error) {
	e := m.project(entityID)
	if e == nil || e.Medical == nil {
		return nil, ErrNotFound
	}
	return e.Medical, nil
}

func (m *memStore) Upsert(ctx context.Context, entityID int64, p *MedicalPatch) (*MedicalRecord, error) {
	m.mergeMedical(entityID, p)
	return m.Get(ctx, entityID)
}

func (m *memStore) AppendVital(ctx context.Context, entityID int64, v *VitalReading) (*MedicalRecord, error) {
	rec := m.ensureMedical(entityID)
	rec.Vitals = append(rec.Vitals, *v)
	rec.UpdatedAt = time.Now()
	return m.Get(ctx, entityID)
}

func (m *memStore) ReplaceNineLine(ctx context.Context, entityID int64, doc map[string]any) (*MedicalRecord, error) {
	rec := m.ensureMedical(entityID)
	rec.NineLine = doc
	rec.UpdatedAt = time.Now()
	return m.Get(ctx, entityID)
}

func (m *memStore) Remove(_ context.Context, entityID int64) error {
	if _, ok := m.medical[entityID]; !ok {
		return ErrNotFound
	}
	delete(m.medical, entityID)
	return nil
}

func (m *memStore) Casualties(_ context.Context) ([]*Entity, error) {
	var items []*Entity
	for id := range m.medical {
		items = append(items, m.project(id))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (m *memStore) ByTriage(_ context.Context, t Triage) ([]*Entity, error) {
	var items []*Entity
	for id, rec := range m.medical {
		if rec.Triage == t {
			items = append(items, m.project(id))
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (m *memStore) ByEvacStage(_ context.Context, s EvacStage) ([]*Entity, error) {
	var items []*Entity
	for id, rec := range m.medical {
		if rec.EvacStage == s {
			items = append(items, m.project(id))
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (m *memStore) ensureMedical(entityID int64) *MedicalRecord {
	rec, ok := m.medical[entityID]
	if !ok {
		now := time.Now()
		rec = &MedicalRecord{
			Triage:       TriageUnknown,
			EvacPriority: EvacPriorityUnknown,
			EvacStage:    StageUnknown,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		m.medical[entityID] = rec
	}
	return rec
}

func (m *memStore) mergeMedical(entityID int64, p *MedicalPatch) {
	rec := m.ensureMedical(entityID)
	if p.Triage != nil {
		rec.Triage = *p.Triage
	}
	if p.InjuryMechanism != nil {
		rec.InjuryMechanism = p.InjuryMechanism
	}
	if p.PrimaryInjury != nil {
		rec.PrimaryInjury = p.PrimaryInjury
	}
	if p.PrehospitalTreatment != nil {
		rec.PrehospitalTreatment = p.PrehospitalTreatment
	}
	if p.EvacPriority != nil {
		rec.EvacPriority = *p.EvacPriority
	}
	if p.EvacStage != nil {
		rec.EvacStage = *p.EvacStage
	}
	if p.DestinationFacilityID != nil {
		rec.DestinationFacility = &FacilityRef{ID: *p.DestinationFacilityID}
	}
	if p.NineLine != nil {
		if rec.NineLine == nil {
			rec.NineLine = make(map[string]any, len(p.NineLine))
		}
		for k, v := range p.NineLine {
			rec.NineLine[k] = v
		}
	}
	rec.UpdatedAt = time.Now()
}

func haversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	const r = 6371000
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * r * math.Asin(math.Sqrt(a))
}

// -- pointer helpers --

func ptrStr(s string) *string               { return &s }
func ptrInt(i int) *int                     { return &i }
func ptrInt64(i int64) *int64               { return &i }
func ptrFloat(f float64) *float64           { return &f }
func ptrBool(b bool) *bool                  { return &b }
func ptrTriage(t Triage) *Triage            { return &t }
func ptrCat(c Category) *Category           { return &c }
func ptrAlliance(a Alliance) *Alliance      { return &a }
func ptrEvacP(p EvacPriority) *EvacPriority { return &p }
func ptrEvacS(s EvacStage) *EvacStage       { return &s }
