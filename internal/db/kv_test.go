package db

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestGetMissing(t *testing.T) {
	d := openTestDB(t)

	v, ok, err := d.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok || v != "" {
		t.Errorf("expected ('', false), got (%q, %v)", v, ok)
	}
}

func TestSetAndGet(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	if err := d.Set(ctx, "greeting", "hello"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := d.Get(ctx, "greeting")
	if err != nil || !ok || v != "hello" {
		t.Fatalf("Get = (%q, %v, %v)", v, ok, err)
	}

	// Overwrite
	if err := d.Set(ctx, "greeting", "bye"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	v, _, _ = d.Get(ctx, "greeting")
	if v != "bye" {
		t.Errorf("expected overwritten value %q, got %q", "bye", v)
	}
}

func TestSetEmptyValue(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	d.Set(ctx, "k", "")
	v, ok, err := d.Get(ctx, "k")
	if err != nil || !ok || v != "" {
		t.Errorf("expected ('', true), got (%q, %v, %v)", v, ok, err)
	}
}

func TestSetMany(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	err := d.SetMany(ctx, map[string]string{"a": "1", "b": "2"})
	if err != nil {
		t.Fatalf("SetMany: %v", err)
	}
	for k, want := range map[string]string{"a": "1", "b": "2"} {
		got, ok, _ := d.Get(ctx, k)
		if !ok || got != want {
			t.Errorf("%s = (%q, %v), want %q", k, got, ok, want)
		}
	}
}

func TestDelete(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	d.Set(ctx, "k", "v")
	if err := d.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := d.Get(ctx, "k"); ok {
		t.Error("key still present after Delete")
	}
	if err := d.Delete(ctx, "k"); err != nil {
		t.Errorf("deleting missing key should not error: %v", err)
	}
}

func TestPrefixOperations(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	d.Set(ctx, "journal_entry_2026-01-02", "b")
	d.Set(ctx, "journal_entry_2026-01-01", "a")
	d.Set(ctx, "journalXentry_2026-01-03", "wildcard bait")
	d.Set(ctx, "last_insight_date", "2026-01-02")

	vals, err := d.Scan(ctx, "journal_entry_")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(vals) != 2 || vals["journal_entry_2026-01-01"] != "a" || vals["journal_entry_2026-01-02"] != "b" {
		t.Errorf("unexpected scan result: %v", vals)
	}

	n, err := d.DeletePrefix(ctx, "journal_entry_")
	if err != nil {
		t.Fatalf("DeletePrefix: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 deleted, got %d", n)
	}
	if _, ok, _ := d.Get(ctx, "last_insight_date"); !ok {
		t.Error("DeletePrefix removed an unrelated key")
	}
	if _, ok, _ := d.Get(ctx, "journalXentry_2026-01-03"); !ok {
		t.Error("DeletePrefix treated '_' as a wildcard")
	}
}

func TestOpenFileDatabasePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chronos.db")
	ctx := context.Background()

	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	d.Set(ctx, "k", "v")
	d.Close()

	d2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer d2.Close()
	v, ok, _ := d2.Get(ctx, "k")
	if !ok || v != "v" {
		t.Errorf("expected persisted value, got (%q, %v)", v, ok)
	}
}
