package importer

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/claude/fittracker/internal/ingest/training"
	"github.com/claude/fittracker/internal/metrics"
	"github.com/claude/fittracker/internal/storage"
)

const pushCSV = `Day,Exercise,Sets,Reps/Time,Weight,Notes,Form Guidance,Muscle Group,Main Muscle
Day 1 – Push,Bench Press,2,8-12,80,,,Chest,Upper Chest
Day 1 – Push,Plank,1,30s,,,,Core,Abs
`

const pullCSV = `Day,Exercise,Sets,Reps/Time,Weight,Notes,Form Guidance,Muscle Group,Main Muscle
Day 2 – Pull,Barbell Row,3,8-10,60,,,Back,Lats
Day 2 – Pull,Curl,2,lots,,,,Arms,Biceps
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestImporter(t *testing.T, dryRun bool) (*Importer, *storage.Store) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.NewTestManager()
	store := storage.NewStore(storage.NewMemoryKV(), "fittracker_", m, log)
	return New(store, training.NewProvider(store, m, log), log, dryRun), store
}

// TestFindCSVFiles verifies recursion, extension matching, hidden
// directory skipping and ordering.
func TestFindCSVFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.csv"), pushCSV)
	writeFile(t, filepath.Join(dir, "nested", "a.CSV"), pushCSV)
	writeFile(t, filepath.Join(dir, "notes.txt"), "x")
	writeFile(t, filepath.Join(dir, ".cache", "c.csv"), pushCSV)

	files, err := FindCSVFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "b.csv"), filepath.Join(dir, "nested", "a.CSV")}
	if len(files) != len(want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, files[i], want[i])
		}
	}

	single, err := FindCSVFiles(filepath.Join(dir, "b.csv"))
	if err != nil || len(single) != 1 {
		t.Errorf("single file = %v, %v", single, err)
	}

	if _, err := FindCSVFiles(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestImportDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "push.csv"), pushCSV)
	writeFile(t, filepath.Join(dir, "pull.csv"), pullCSV)
	writeFile(t, filepath.Join(dir, "empty.csv"), "")

	imp, store := newTestImporter(t, false)
	stats, err := imp.Import(context.Background(), dir)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if stats.FilesProcessed != 2 || stats.FilesSkipped != 1 || stats.FilesErrored != 0 {
		t.Errorf("file stats = %+v", stats)
	}
	if stats.TemplatesSaved != 2 {
		t.Errorf("templates saved = %d, want 2", stats.TemplatesSaved)
	}
	if len(stats.MalformedTokens) != 1 || stats.MalformedTokens[0] != "lots" {
		t.Errorf("malformed = %v, want [lots]", stats.MalformedTokens)
	}

	templates, err := store.LoadSessionTemplates(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(templates) != 2 {
		t.Errorf("stored templates = %d, want 2", len(templates))
	}

	logs, err := store.QueryImportLogs(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 2 {
		t.Fatalf("import logs = %d, want 2", len(logs))
	}
	byName := map[string]storage.ImportLog{}
	for _, l := range logs {
		byName[l.Source] = l
	}
	if got := byName["push.csv"].Status; got != "success" {
		t.Errorf("push.csv status = %q, want success", got)
	}
	if got := byName["pull.csv"].Status; got != "partial" {
		t.Errorf("pull.csv status = %q, want partial", got)
	}
	if byName["pull.csv"].MalformedTokens != 1 || byName["pull.csv"].DurationMs == nil {
		t.Errorf("pull.csv log = %+v", byName["pull.csv"])
	}
}

// TestImportDryRun verifies nothing is stored or logged.
func TestImportDryRun(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "push.csv"), pushCSV)

	imp, store := newTestImporter(t, true)
	stats, err := imp.Import(context.Background(), dir)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if stats.FilesProcessed != 1 || stats.TemplatesReceived != 1 || stats.TemplatesSaved != 0 {
		t.Errorf("stats = %+v", stats)
	}

	templates, _ := store.LoadSessionTemplates(context.Background())
	logs, _ := store.QueryImportLogs(context.Background(), 10)
	if len(templates) != 0 || len(logs) != 0 {
		t.Errorf("dry run stored %d templates, %d logs", len(templates), len(logs))
	}
}

// TestImportCancelled verifies a cancelled context stops the walk.
func TestImportCancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "push.csv"), pushCSV)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	imp, _ := newTestImporter(t, false)
	if _, err := imp.Import(ctx, dir); err == nil {
		t.Error("expected context error")
	}
}
