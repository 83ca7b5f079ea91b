package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"bilisum/internal/library"
	"bilisum/internal/storage"
)

func seedLibrary(t *testing.T, baseDir string) string {
	t.Helper()

	store := storage.NewStore(filepath.Join(baseDir, "summary"), filepath.Join(baseDir, "captions"), nil)
	rel, err := store.SaveSummary(storage.Record{
		Title:       "Demo Video",
		BVID:        "BV1xx411c7mD",
		URL:         "https://www.bilibili.com/video/BV1xx411c7mD",
		Duration:    125,
		Summary:     "A short recap.",
		Category:    "standalone",
		AuthorName:  "author",
		HasSubtitle: true,
	})
	if err != nil {
		t.Fatalf("save summary: %v", err)
	}

	index, err := library.Open(filepath.Join(baseDir, "library.db"))
	if err != nil {
		t.Fatalf("open library: %v", err)
	}
	defer index.Close()
	err = index.Upsert(context.Background(), library.Record{
		BVID:         "BV1xx411c7mD",
		Title:        "Demo Video",
		Category:     "standalone",
		RelativePath: rel,
		AuthorName:   "author",
		Duration:     125,
		HasSubtitle:  true,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	return rel
}

func TestLibraryListShowsRecords(t *testing.T) {
	configPath, baseDir := writeTestConfig(t, "")
	seedLibrary(t, baseDir)

	out, _, err := runCLI(t, configPath, "library", "list")
	if err != nil {
		t.Fatalf("library list: %v", err)
	}
	requireContains(t, out, "BV1xx411c7mD")
	requireContains(t, out, "Demo Video")
	requireContains(t, out, "02:05")
}

func TestLibraryListEmpty(t *testing.T) {
	configPath, _ := writeTestConfig(t, "")

	out, _, err := runCLI(t, configPath, "library", "list")
	if err != nil {
		t.Fatalf("library list: %v", err)
	}
	requireContains(t, out, "No summaries recorded yet")
}

func TestLibraryShowPrintsSummary(t *testing.T) {
	configPath, baseDir := writeTestConfig(t, "")
	seedLibrary(t, baseDir)

	out, _, err := runCLI(t, configPath, "library", "show", "BV1xx411c7mD")
	if err != nil {
		t.Fatalf("library show: %v", err)
	}
	requireContains(t, out, "A short recap.")
}

func TestLibraryRemoveDeletesFilesAndRecord(t *testing.T) {
	configPath, baseDir := writeTestConfig(t, "")
	seedLibrary(t, baseDir)

	out, _, err := runCLI(t, configPath, "library", "remove", "BV1xx411c7mD")
	if err != nil {
		t.Fatalf("library remove: %v", err)
	}
	requireContains(t, out, "Removed BV1xx411c7mD")

	out, _, err = runCLI(t, configPath, "library", "list")
	if err != nil {
		t.Fatalf("library list: %v", err)
	}
	requireContains(t, out, "No summaries recorded yet")

	if _, _, err := runCLI(t, configPath, "library", "show", "BV1xx411c7mD"); err == nil {
		t.Fatal("expected error after removal")
	}
}
