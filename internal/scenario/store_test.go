package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeScenarioFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}

func TestStore_List(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "bravo.json",
		`{"meta":{"name":"bravo","description":"second"},"entities":[]}`)
	writeScenarioFile(t, dir, "alpha.json",
		`{"meta":{"name":"alpha","description":"first"},"entities":[]}`)
	writeScenarioFile(t, dir, "notes.txt", "not a scenario")

	st := NewStore(dir)
	metas, err := st.List()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("expected 2 scenarios, got %d", len(metas))
	}
	if metas[0].Name != "alpha" || metas[1].Name != "bravo" {
		t.Errorf("expected sorted names, got %v", metas)
	}
}

func TestStore_Load(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "drill.json",
		`{"meta":{"name":"drill"},"entities":[{"name":"INF-1","ref":"inf1","lon":-0.37,"lat":39.47}]}`)

	sc, err := NewStore(dir).Load("drill")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sc.Entities) != 1 || sc.Entities[0].Ref != "inf1" {
		t.Errorf("unexpected entities %v", sc.Entities)
	}
}

func TestStore_LoadDefaultsMetaName(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "unnamed.json", `{"entities":[]}`)

	sc, err := NewStore(dir).Load("unnamed")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sc.Meta.Name != "unnamed" {
		t.Errorf("expected file name as fallback, got %q", sc.Meta.Name)
	}
}

func TestStore_LoadMissing(t *testing.T) {
	_, err := NewStore(t.TempDir()).Load("ghost")
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func TestStore_LoadRejectsTraversal(t *testing.T) {
	st := NewStore(t.TempDir())
	for _, name := range []string{"../etc/passwd", "a/b", ".."} {
		if _, err := st.Load(name); err == nil {
			t.Errorf("expected rejection for %q", name)
		}
	}
}

func TestStore_LoadMalformed(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "broken.json", `{"meta":`)

	_, err := NewStore(dir).Load("broken")
	if err == nil || errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected decode error, got %v", err)
	}
}
