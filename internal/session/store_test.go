package session

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marketforge/marketforge/pkg/models"
)

var testModules = []string{"alpha", "beta", "gamma", "delta"}

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := NewFileStore(t.TempDir(), testModules, logger)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return store
}

func testInput() models.AnalysisInput {
	return models.AnalysisInput{
		Niche:          "organic coffee",
		TargetAudience: "cafe owners",
	}
}

func TestCreateAndLoad(t *testing.T) {
	store := newTestStore(t)

	id, err := store.Create(testInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.HasPrefix(id, "session_") {
		t.Errorf("id %q missing expected prefix", id)
	}

	s, found := store.Load(id)
	if !found {
		t.Fatal("Load: session not found after Create")
	}
	if s.Status != models.StatusCreated {
		t.Errorf("status = %q, want %q", s.Status, models.StatusCreated)
	}
	if s.Input.Niche != "organic coffee" {
		t.Errorf("input niche = %q", s.Input.Niche)
	}
	if s.Progress.TotalCount != len(testModules) {
		t.Errorf("total count = %d, want %d", s.Progress.TotalCount, len(testModules))
	}
}

func TestLoadMissingSession(t *testing.T) {
	store := newTestStore(t)
	if _, found := store.Load("session_nope"); found {
		t.Error("Load of missing id reported found")
	}
}

func TestLoadCorruptRecordReportsNotFound(t *testing.T) {
	store := newTestStore(t)
	id, err := store.Create(testInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := os.WriteFile(store.path(id), []byte("{not json"), 0644); err != nil {
		t.Fatalf("corrupting record: %v", err)
	}
	if _, found := store.Load(id); found {
		t.Error("Load of corrupt record reported found")
	}
}

func TestMarkModuleCompletedIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	id, _ := store.Create(testInput())

	for i := 0; i < 3; i++ {
		if err := store.MarkModuleCompleted(id, "alpha", map[string]any{"round": i}); err != nil {
			t.Fatalf("MarkModuleCompleted round %d: %v", i, err)
		}
	}

	s, _ := store.Load(id)
	count := 0
	for _, m := range s.CompletedModules {
		if m == "alpha" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("alpha recorded %d times, want 1", count)
	}
	if !strings.Contains(string(s.Results["alpha"]), `"round":2`) {
		t.Errorf("result not overwritten by last call: %s", s.Results["alpha"])
	}
}

func TestProgressRecomputation(t *testing.T) {
	store := newTestStore(t)
	id, _ := store.Create(testInput())

	store.MarkModuleCompleted(id, "alpha", nil)
	store.MarkModuleCompleted(id, "beta", nil)

	s, _ := store.Load(id)
	if s.Progress.CompletedCount != 2 {
		t.Errorf("completed count = %d, want 2", s.Progress.CompletedCount)
	}
	if s.Progress.Percentage != 50 {
		t.Errorf("percentage = %v, want 50", s.Progress.Percentage)
	}
}

func TestNextPendingModule(t *testing.T) {
	store := newTestStore(t)
	id, _ := store.Create(testInput())

	next, ok := store.NextPendingModule(id)
	if !ok || next != "alpha" {
		t.Fatalf("next = %q, %v; want alpha", next, ok)
	}

	// Completing out of order still yields the first pending in fixed order
	store.MarkModuleCompleted(id, "gamma", nil)
	store.MarkModuleCompleted(id, "alpha", nil)

	next, ok = store.NextPendingModule(id)
	if !ok || next != "beta" {
		t.Errorf("next = %q, %v; want beta", next, ok)
	}

	store.MarkModuleCompleted(id, "beta", nil)
	store.MarkModuleCompleted(id, "delta", nil)
	if _, ok := store.NextPendingModule(id); ok {
		t.Error("NextPendingModule reported pending work on a complete session")
	}
}

func TestAddErrorAppends(t *testing.T) {
	store := newTestStore(t)
	id, _ := store.Create(testInput())

	store.AddError(id, "first failure", "alpha")
	store.AddError(id, "second failure", "beta")
	store.MarkModuleCompleted(id, "alpha", nil)

	s, _ := store.Load(id)
	if len(s.Errors) != 2 {
		t.Fatalf("errors = %d, want 2", len(s.Errors))
	}
	if s.Errors[0].Module != "alpha" || s.Errors[1].Module != "beta" {
		t.Errorf("error order wrong: %+v", s.Errors)
	}
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	store := newTestStore(t)
	id, _ := store.Create(testInput())
	store.MarkModuleCompleted(id, "alpha", map[string]any{"k": "v"})

	matches, err := filepath.Glob(filepath.Join(store.dir, "*.tmp"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
}

func TestLoadSurvivesInterruptedWrite(t *testing.T) {
	store := newTestStore(t)
	id, _ := store.Create(testInput())
	if err := store.MarkModuleCompleted(id, "alpha", map[string]any{"k": "v"}); err != nil {
		t.Fatalf("MarkModuleCompleted: %v", err)
	}

	// A crash between WriteFile and Rename leaves a truncated temp file
	// next to the last durably saved record
	partial := []byte(`{"session_id":"` + id + `","completed_modules":["alpha","beta"`)
	if err := os.WriteFile(store.path(id)+".tmp", partial, 0644); err != nil {
		t.Fatalf("simulating interrupted write: %v", err)
	}

	s, found := store.Load(id)
	if !found {
		t.Fatal("Load: durably saved record not found")
	}
	if !s.IsModuleCompleted("alpha") || s.IsModuleCompleted("beta") {
		t.Errorf("loaded state is not the last saved one: %v", s.CompletedModules)
	}

	// The next save replaces the stray temp and lands cleanly
	if err := store.MarkModuleCompleted(id, "beta", nil); err != nil {
		t.Fatalf("MarkModuleCompleted after stray temp: %v", err)
	}
	s, found = store.Load(id)
	if !found || !s.IsModuleCompleted("beta") {
		t.Error("save after interrupted write did not land")
	}
	if _, err := os.Stat(store.path(id) + ".tmp"); !os.IsNotExist(err) {
		t.Error("stray temp file still present after successful save")
	}
}

func TestListNewestFirstAndSkipsGarbage(t *testing.T) {
	store := newTestStore(t)

	first, _ := store.Create(testInput())
	second, _ := store.Create(testInput())

	// A stray unparseable file must not break listing
	if err := os.WriteFile(filepath.Join(store.dir, "session_junk.json"), []byte("junk"), 0644); err != nil {
		t.Fatalf("writing junk: %v", err)
	}

	// Touch the first session so it sorts to the top
	if err := store.MarkModuleCompleted(first, "alpha", nil); err != nil {
		t.Fatalf("MarkModuleCompleted: %v", err)
	}

	summaries, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("len = %d, want 2", len(summaries))
	}
	if summaries[0].ID != first {
		t.Errorf("newest first: got %q, want %q", summaries[0].ID, first)
	}
	if summaries[1].ID != second {
		t.Errorf("second entry = %q, want %q", summaries[1].ID, second)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	id, _ := store.Create(testInput())

	if err := store.Delete(id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found := store.Load(id); found {
		t.Error("session still loadable after Delete")
	}
	if err := store.Delete(id); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}
