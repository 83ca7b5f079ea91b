package library

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "library.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestUpsertAndHas(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	ok, err := store.Has(ctx, "BV1xx411c7mD", "standalone")
	if err != nil {
		t.Fatalf("Has returned error: %v", err)
	}
	if ok {
		t.Fatal("empty index must not report summaries")
	}

	rec := Record{
		BVID:         "BV1xx411c7mD",
		Title:        "Demo",
		Category:     "standalone",
		RelativePath: "standalone/Demo.md",
		AuthorName:   "uploader",
		AuthorUID:    42,
		Duration:     125,
		HasSubtitle:  true,
	}
	if err := store.Upsert(ctx, rec); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
	ok, err = store.Has(ctx, "BV1xx411c7mD", "standalone")
	if err != nil {
		t.Fatalf("Has returned error: %v", err)
	}
	if !ok {
		t.Fatal("indexed summary not found")
	}

	// Same video in a different category is a separate entry.
	ok, _ = store.Has(ctx, "BV1xx411c7mD", "favorites")
	if ok {
		t.Fatal("category must scope existence checks")
	}
}

func TestUpsertReplacesExistingEntry(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := Record{BVID: "BV1xx411c7mD", Title: "Old", RelativePath: "standalone/Old.md"}
	if err := store.Upsert(ctx, base); err != nil {
		t.Fatalf("first Upsert returned error: %v", err)
	}
	base.Title = "New"
	base.RelativePath = "standalone/New.md"
	if err := store.Upsert(ctx, base); err != nil {
		t.Fatalf("second Upsert returned error: %v", err)
	}

	records, err := store.List(ctx, "standalone")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(records) != 1 || records[0].Title != "New" {
		t.Fatalf("expected replaced entry, got %+v", records)
	}
}

func TestListOrdersNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i, bvid := range []string{"BV1aa", "BV1bb", "BV1cc"} {
		rec := Record{
			BVID:         bvid,
			Title:        bvid,
			RelativePath: "standalone/" + bvid + ".md",
			CreatedAt:    now.Add(time.Duration(i) * time.Minute),
		}
		if err := store.Upsert(ctx, rec); err != nil {
			t.Fatalf("Upsert returned error: %v", err)
		}
	}

	records, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].BVID != "BV1cc" || records[2].BVID != "BV1aa" {
		t.Fatalf("unexpected order: %+v", records)
	}
}

func TestRemove(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Upsert(ctx, Record{BVID: "BV1aa", Title: "t", RelativePath: "p"}); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
	if err := store.Remove(ctx, "BV1aa", "standalone"); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty index, got %d entries", count)
	}
	// Removing a missing entry is fine.
	if err := store.Remove(ctx, "BV1aa", "standalone"); err != nil {
		t.Fatalf("second Remove returned error: %v", err)
	}
}
