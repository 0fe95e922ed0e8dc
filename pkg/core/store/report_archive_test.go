package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestReportArchive_FileRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "archive")
	archive := NewReportArchive(nil, dir)

	if err := archive.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	rec := &ArchivedReport{
		ID:         "3f2b9c1e-7d4a-4c59-9a0e-1b2c3d4e5f60",
		Source:     "orig.json",
		OutputPath: "credit_report.tex",
		Template:   "credit_report.tex.tmpl",
		Variables:  json.RawMessage(`{"Recommendation":["Approve"]}`),
		Rendered:   `\section{Recommendation}`,
		CreatedAt:  time.Date(2024, 3, 31, 10, 0, 0, 0, time.UTC),
	}

	if _, err := archive.Load(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load before save: got %v, want ErrNotFound", err)
	}
	if err := archive.Save(ctx, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := archive.Load(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(rec, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	rec.Rendered = "updated"
	if err := archive.Save(ctx, rec); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	got, err = archive.Load(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Rendered != "updated" {
		t.Errorf("rendered = %q after upsert", got.Rendered)
	}
}

func TestReportArchive_Errors(t *testing.T) {
	ctx := context.Background()

	archive := NewReportArchive(nil, t.TempDir())
	if _, err := archive.Load(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load missing: got %v, want ErrNotFound", err)
	}
	if err := archive.Save(ctx, &ArchivedReport{}); err == nil {
		t.Error("expected error for empty id")
	}

	unconfigured := NewReportArchive(nil, "")
	if err := unconfigured.Save(ctx, &ArchivedReport{ID: "x"}); err == nil {
		t.Error("expected error from unconfigured archive")
	}
	if _, err := unconfigured.Load(ctx, "x"); err == nil {
		t.Error("expected error from unconfigured archive")
	}
	if _, err := unconfigured.Load(ctx, "x"); errors.Is(err, ErrNotFound) {
		t.Error("unconfigured archive must not look like an empty one")
	}
}

func TestInitDB_RequiresURL(t *testing.T) {
	if err := InitDB(context.Background(), ""); err == nil {
		t.Error("expected error for empty database URL")
	}
	if GetPool() != nil {
		t.Error("pool set after failed init")
	}
}
