package entity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestService_CreateMinimal(t *testing.T) {
	svc, _ := newTestService()

	e, err := svc.Create(context.Background(), &CreateInput{
		Name:      "ESP INF-A",
		Longitude: ptrFloat(-0.3768),
		Latitude:  ptrFloat(39.4745),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if e.Category != CategoryDefault {
		t.Errorf("expected default category, got %s", e.Category)
	}
	if e.Alliance != AllianceUnknown {
		t.Errorf("expected unknown alliance, got %s", e.Alliance)
	}
	if !e.Active {
		t.Error("expected active by default")
	}
	if e.Medical != nil {
		t.Error("entity without medical input must project medical as nil")
	}
}

func TestService_CreateValidation(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), &CreateInput{
		Name:     "",
		Latitude: ptrFloat(250), // out of range too
		Category: ptrCat("tank"),
	})
	ve, ok := AsValidation(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	// name missing, longitude missing, latitude out of range, bad category
	if len(ve.Violations) != 4 {
		t.Errorf("expected 4 violations, got %v", ve.Violations)
	}
}

func TestService_CreateWithMedical(t *testing.T) {
	svc, _ := newTestService()

	e, err := svc.Create(context.Background(), &CreateInput{
		Name:      "CAS-1",
		Category:  ptrCat(CategoryCasualty),
		Alliance:  ptrAlliance(AllianceFriendly),
		Longitude: ptrFloat(-0.377),
		Latitude:  ptrFloat(39.474),
		Medical: &MedicalPatch{
			Triage:          ptrTriage(TriageImmediate),
			InjuryMechanism: ptrStr("Blast (IED)"),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if e.Medical == nil {
		t.Fatal("expected medical record attached")
	}
	if e.Medical.Triage != TriageImmediate {
		t.Errorf("expected immediate, got %s", e.Medical.Triage)
	}
	// unsupplied medical fields land at their declared defaults
	if e.Medical.EvacPriority != EvacPriorityUnknown || e.Medical.EvacStage != StageUnknown {
		t.Errorf("expected unknown defaults, got %s/%s", e.Medical.EvacPriority, e.Medical.EvacStage)
	}
	if e.Medical.Vitals != nil {
		t.Error("expected no vitals on fresh record")
	}
}

func TestService_CreateWithInvalidMedical(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), &CreateInput{
		Name:      "CAS-X",
		Longitude: ptrFloat(0),
		Latitude:  ptrFloat(0),
		Medical:   &MedicalPatch{Triage: ptrTriage("RED")},
	})
	ve, ok := AsValidation(err)
	if !ok || len(ve.Violations) != 1 {
		t.Fatalf("expected 1 violation for bad triage, got %v", err)
	}
}

func TestService_CreateBatchAllOrNothing(t *testing.T) {
	svc, st := newTestService()

	_, err := svc.CreateBatch(context.Background(), []*CreateInput{
		{Name: "OK-1", Longitude: ptrFloat(1), Latitude: ptrFloat(1)},
		{Name: "", Longitude: ptrFloat(2), Latitude: ptrFloat(2)},
	})
	ve, ok := AsValidation(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	if ve.Violations[0] != "entity 1: name is required" {
		t.Errorf("expected indexed violation, got %v", ve.Violations)
	}
	if len(st.entities) != 0 {
		t.Errorf("no entity may be written on batch failure, found %d", len(st.entities))
	}

	created, err := svc.CreateBatch(context.Background(), []*CreateInput{
		{Name: "OK-1", Longitude: ptrFloat(1), Latitude: ptrFloat(1)},
		{Name: "OK-2", Longitude: ptrFloat(2), Latitude: ptrFloat(2)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(created) != 2 {
		t.Errorf("expected 2 created, got %d", len(created))
	}
}

func TestService_UpdatePartial(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	e, _ := svc.Create(ctx, &CreateInput{
		Name:      "ESP INF-B",
		Country:   ptrStr("Spain"),
		Longitude: ptrFloat(-0.385),
		Latitude:  ptrFloat(39.463),
	})

	got, err := svc.Update(ctx, e.ID, &Patch{Notes: ptrStr("Holding intersection")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "ESP INF-B" || *got.Country != "Spain" {
		t.Error("untouched fields must be preserved")
	}
	if got.Notes == nil || *got.Notes != "Holding intersection" {
		t.Error("patched field not applied")
	}
}

func TestService_UpdateCoordinatesTogether(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	e, _ := svc.Create(ctx, &CreateInput{Name: "X", Longitude: ptrFloat(1), Latitude: ptrFloat(1)})

	_, err := svc.Update(ctx, e.ID, &Patch{Longitude: ptrFloat(2)})
	if _, ok := AsValidation(err); !ok {
		t.Fatalf("expected validation error for lone longitude, got %v", err)
	}

	got, err := svc.Update(ctx, e.ID, &Patch{Longitude: ptrFloat(2), Latitude: ptrFloat(3)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Longitude != 2 || got.Latitude != 3 {
		t.Error("location not moved")
	}
}

func TestService_UpdateNotFound(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Update(context.Background(), 99, &Patch{Name: ptrStr("ghost")})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_EmptyUpdateIsIdempotent(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	e, _ := svc.Create(ctx, &CreateInput{Name: "X", Longitude: ptrFloat(1), Latitude: ptrFloat(1)})

	got, err := svc.Update(ctx, e.ID, &Patch{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != e.Name || got.Longitude != e.Longitude || got.Medical != nil {
		t.Error("empty patch must change nothing")
	}
}

func TestService_DeleteCascadesMedical(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()

	e, _ := svc.Create(ctx, &CreateInput{
		Name: "CAS-1", Longitude: ptrFloat(1), Latitude: ptrFloat(1),
		Medical: &MedicalPatch{Triage: ptrTriage(TriageUrgent)},
	})

	if err := svc.Delete(ctx, e.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(st.medical) != 0 {
		t.Error("medical record must be deleted with its entity")
	}
	if err := svc.Delete(ctx, e.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete must be ErrNotFound, got %v", err)
	}
}

func TestService_GetByCategoryRejectsUnknown(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.GetByCategory(context.Background(), "battleship")
	if _, ok := AsValidation(err); !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_GetNearby(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	svc.Create(ctx, &CreateInput{Name: "near", Longitude: ptrFloat(-0.377), Latitude: ptrFloat(39.474)})
	svc.Create(ctx, &CreateInput{Name: "far", Longitude: ptrFloat(-0.275), Latitude: ptrFloat(39.800)})

	items, err := svc.GetNearby(ctx, -0.3768, 39.4745, 5000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].Name != "near" {
		t.Fatalf("expected only the near entity, got %v", items)
	}
	if items[0].DistanceMeters < 0 || items[0].DistanceMeters > 5000 {
		t.Errorf("distance out of bounds: %f", items[0].DistanceMeters)
	}

	// zero radius falls back to the default
	items, err = svc.GetNearby(ctx, -0.3768, 39.4745, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("expected both entities inside default radius, got %d", len(items))
	}

	if _, err := svc.GetNearby(ctx, -200, 39, 100); err == nil {
		t.Error("expected validation error for bad longitude")
	}
}

// -- medical merge semantics --

func TestService_UpsertMedicalCreatesWithDefaults(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	e, _ := svc.Create(ctx, &CreateInput{Name: "CAS-1", Longitude: ptrFloat(1), Latitude: ptrFloat(1)})

	rec, err := svc.UpsertMedical(ctx, e.ID, &MedicalPatch{InjuryMechanism: ptrStr("GSW")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Triage != TriageUnknown || rec.EvacPriority != EvacPriorityUnknown || rec.EvacStage != StageUnknown {
		t.Error("unsupplied fields must start at declared defaults")
	}
}

func TestService_UpsertMedicalMergesDisjointFields(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	e, _ := svc.Create(ctx, &CreateInput{Name: "CAS-1", Longitude: ptrFloat(1), Latitude: ptrFloat(1)})

	if _, err := svc.UpsertMedical(ctx, e.ID, &MedicalPatch{Triage: ptrTriage(TriageImmediate)}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	rec, err := svc.UpsertMedical(ctx, e.ID, &MedicalPatch{EvacStage: ptrEvacS(StageInTransit)})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if rec.Triage != TriageImmediate {
		t.Error("earlier write must survive a disjoint merge")
	}
	if rec.EvacStage != StageInTransit {
		t.Error("later write must be applied")
	}
}

func TestService_UpdateWithEmptyMedicalObjectCreatesRecord(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	e, _ := svc.Create(ctx, &CreateInput{Name: "INF-1", Longitude: ptrFloat(1), Latitude: ptrFloat(1)})

	// an empty medical object marks the entity as a casualty, same as on create
	got, err := svc.Update(ctx, e.ID, &Patch{Medical: &MedicalPatch{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Medical == nil {
		t.Fatal("expected a record to be created")
	}
	if got.Medical.Triage != TriageUnknown {
		t.Errorf("expected all-defaults record, got %+v", got.Medical)
	}
}

func TestService_UpsertMedicalEntityMissing(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.UpsertMedical(context.Background(), 42, &MedicalPatch{Triage: ptrTriage(TriageUrgent)})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_UpsertMedicalDestinationFacility(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	fac, _ := svc.Create(ctx, &CreateInput{
		Name: "Aid Post Alpha", Category: ptrCat(CategoryMedicalFacility),
		Longitude: ptrFloat(-0.384), Latitude: ptrFloat(39.464),
	})
	cas, _ := svc.Create(ctx, &CreateInput{Name: "CAS-2", Longitude: ptrFloat(1), Latitude: ptrFloat(1)})

	rec, err := svc.UpsertMedical(ctx, cas.ID, &MedicalPatch{DestinationFacilityID: ptrInt64(fac.ID)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.DestinationFacility == nil || rec.DestinationFacility.Name != "Aid Post Alpha" {
		t.Errorf("expected resolved facility ref, got %+v", rec.DestinationFacility)
	}
}

func TestService_AppendVitalPreservesOrder(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	e, _ := svc.Create(ctx, &CreateInput{Name: "CAS-1", Longitude: ptrFloat(1), Latitude: ptrFloat(1)})

	first := &VitalReading{HeartRate: ptrInt(130), RecordedAt: time.Date(2026, 2, 2, 18, 0, 0, 0, time.UTC)}
	second := &VitalReading{HeartRate: ptrInt(125), RecordedAt: time.Date(2026, 2, 2, 18, 5, 0, 0, time.UTC)}

	if _, err := svc.AppendVital(ctx, e.ID, first); err != nil {
		t.Fatalf("first append: %v", err)
	}
	rec, err := svc.AppendVital(ctx, e.ID, second)
	if err != nil {
		t.Fatalf("second append: %v", err)
	}

	if len(rec.Vitals) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(rec.Vitals))
	}
	if *rec.Vitals[0].HeartRate != 130 || *rec.Vitals[1].HeartRate != 125 {
		t.Error("vitals must keep append order")
	}
}

func TestService_AppendVitalStampsTime(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	e, _ := svc.Create(ctx, &CreateInput{Name: "CAS-1", Longitude: ptrFloat(1), Latitude: ptrFloat(1)})

	rec, err := svc.AppendVital(ctx, e.ID, &VitalReading{OxygenSaturation: ptrInt(95)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Vitals[0].RecordedAt.IsZero() {
		t.Error("expected recorded_at to be stamped")
	}
}

func TestService_AppendVitalRequiresMeasurement(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	e, _ := svc.Create(ctx, &CreateInput{Name: "CAS-1", Longitude: ptrFloat(1), Latitude: ptrFloat(1)})

	_, err := svc.AppendVital(ctx, e.ID, &VitalReading{})
	if _, ok := AsValidation(err); !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_SetNineLineStrictReplaces(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	e, _ := svc.Create(ctx, &CreateInput{Name: "CAS-1", Longitude: ptrFloat(1), Latitude: ptrFloat(1)})

	if _, err := svc.SetNineLine(ctx, e.ID, map[string]any{"line9_terrain_desc": "open field"}, false); err != nil {
		t.Fatalf("lenient set: %v", err)
	}

	rec, err := svc.SetNineLine(ctx, e.ID, validNineLine(), true)
	if err != nil {
		t.Fatalf("strict set: %v", err)
	}
	if _, stale := rec.NineLine["line9_terrain_desc"]; stale {
		t.Error("strict mode must replace the document wholesale")
	}
}

func TestService_SetNineLineLenientMerges(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	e, _ := svc.Create(ctx, &CreateInput{Name: "CAS-1", Longitude: ptrFloat(1), Latitude: ptrFloat(1)})

	svc.SetNineLine(ctx, e.ID, map[string]any{"line1_location": "39.4740,-0.3770"}, false)
	rec, err := svc.SetNineLine(ctx, e.ID, map[string]any{"line2_frequency": "FM 34.250"}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.NineLine["line1_location"] != "39.4740,-0.3770" {
		t.Error("lenient mode must keep earlier lines")
	}
	if rec.NineLine["line2_frequency"] != "FM 34.250" {
		t.Error("new line not merged")
	}
}

func TestService_SetNineLineNormalizesCodes(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	e, _ := svc.Create(ctx, &CreateInput{Name: "CAS-1", Longitude: ptrFloat(1), Latitude: ptrFloat(1)})

	rec, err := svc.SetNineLine(ctx, e.ID, map[string]any{"line3_precedence": "a"}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.NineLine["line3_precedence"] != "A" {
		t.Errorf("expected uppercased code, got %v", rec.NineLine["line3_precedence"])
	}
}

func TestService_SetNineLineStrictRejectsPartial(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	e, _ := svc.Create(ctx, &CreateInput{Name: "CAS-1", Longitude: ptrFloat(1), Latitude: ptrFloat(1)})

	_, err := svc.SetNineLine(ctx, e.ID, map[string]any{"line1_location": "grid"}, true)
	ve, ok := AsValidation(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(ve.Violations) != 9 {
		t.Errorf("expected 9 missing-field violations, got %v", ve.Violations)
	}
}

func TestService_MedicalReads(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	a, _ := svc.Create(ctx, &CreateInput{Name: "CAS-A", Longitude: ptrFloat(1), Latitude: ptrFloat(1),
		Medical: &MedicalPatch{Triage: ptrTriage(TriageImmediate), EvacStage: ptrEvacS(StageAtPOI)}})
	svc.Create(ctx, &CreateInput{Name: "CAS-B", Longitude: ptrFloat(2), Latitude: ptrFloat(2),
		Medical: &MedicalPatch{Triage: ptrTriage(TriageMinimal), EvacStage: ptrEvacS(StageDelivered)}})
	svc.Create(ctx, &CreateInput{Name: "INF-1", Longitude: ptrFloat(3), Latitude: ptrFloat(3)})

	all, err := svc.Casualties(ctx)
	if err != nil || len(all) != 2 {
		t.Fatalf("expected 2 casualties, got %d (%v)", len(all), err)
	}

	imm, err := svc.ByTriage(ctx, TriageImmediate)
	if err != nil || len(imm) != 1 || imm[0].ID != a.ID {
		t.Fatalf("expected only CAS-A immediate, got %v (%v)", imm, err)
	}

	if _, err := svc.ByTriage(ctx, "RED"); err == nil {
		t.Error("expected validation error for unknown triage")
	}

	poi, err := svc.ByEvacStage(ctx, StageAtPOI)
	if err != nil || len(poi) != 1 {
		t.Fatalf("expected 1 at_poi, got %v (%v)", poi, err)
	}
}

func TestService_RemoveMedicalKeepsEntity(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()

	e, _ := svc.Create(ctx, &CreateInput{Name: "CAS-1", Longitude: ptrFloat(1), Latitude: ptrFloat(1),
		Medical: &MedicalPatch{Triage: ptrTriage(TriageUrgent)}})

	if err := svc.RemoveMedical(ctx, e.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := st.entities[e.ID]; !ok {
		t.Error("entity must survive medical removal")
	}
	got, _ := svc.GetByID(ctx, e.ID)
	if got.Medical != nil {
		t.Error("medical must project as nil after removal")
	}
	if err := svc.RemoveMedical(ctx, e.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second removal must be ErrNotFound, got %v", err)
	}
}
