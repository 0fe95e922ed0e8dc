package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned by Load when no archived report has the given id.
// Callers use it to tell a first run from a re-run of the same report id.
var ErrNotFound = errors.New("report not found")

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS credit_reports (
		id          UUID PRIMARY KEY,
		source      TEXT NOT NULL,
		output_path TEXT NOT NULL,
		template    TEXT NOT NULL,
		variables   JSONB NOT NULL,
		rendered    TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL
	);
`

// ArchivedReport is one generated report with the variables it was rendered from.
type ArchivedReport struct {
	ID         string          `json:"id"`
	Source     string          `json:"source"`
	OutputPath string          `json:"output_path"`
	Template   string          `json:"template"`
	Variables  json.RawMessage `json:"variables"`
	Rendered   string          `json:"rendered"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ReportArchive keeps generated reports.
// Supports two backends: DB (primary) and a directory of JSON files
// (fallback when no database is configured).
type ReportArchive struct {
	pool    *pgxpool.Pool
	fileDir string
}

// NewReportArchive creates an archive. With a nil pool and an empty dir the
// archive is unconfigured and every call fails.
func NewReportArchive(pool *pgxpool.Pool, dir string) *ReportArchive {
	if pool == nil && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Printf("[store.ReportArchive] Warning: cannot create archive dir %s: %v\n", dir, err)
		}
	}
	return &ReportArchive{pool: pool, fileDir: dir}
}

// EnsureSchema creates the credit_reports table if it is missing. File
// archives need no schema.
func (a *ReportArchive) EnsureSchema(ctx context.Context) error {
	if a.pool == nil {
		return nil
	}
	if _, err := a.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create credit_reports table: %w", err)
	}
	return nil
}

// Save upserts a report, keyed by its id.
func (a *ReportArchive) Save(ctx context.Context, rec *ArchivedReport) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("archive: report id is required")
	}

	if a.pool != nil {
		query := `
			INSERT INTO credit_reports (id, source, output_path, template, variables, rendered, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id)
			DO UPDATE SET
				source = EXCLUDED.source,
				output_path = EXCLUDED.output_path,
				template = EXCLUDED.template,
				variables = EXCLUDED.variables,
				rendered = EXCLUDED.rendered,
				created_at = EXCLUDED.created_at;
		`
		_, err := a.pool.Exec(ctx, query,
			rec.ID, rec.Source, rec.OutputPath, rec.Template, []byte(rec.Variables), rec.Rendered, rec.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to save report %s: %w", rec.ID, err)
		}
		return nil
	}

	if a.fileDir != "" {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal report %s: %w", rec.ID, err)
		}
		if err := os.WriteFile(a.reportPath(rec.ID), data, 0o644); err != nil {
			return fmt.Errorf("failed to save report %s to file archive: %w", rec.ID, err)
		}
		return nil
	}

	return fmt.Errorf("archive not configured")
}

// Load retrieves an archived report by id.
func (a *ReportArchive) Load(ctx context.Context, id string) (*ArchivedReport, error) {
	if a.pool != nil {
		query := `
			SELECT id::text, source, output_path, template, variables, rendered, created_at
			FROM credit_reports
			WHERE id = $1
		`
		var rec ArchivedReport
		var vars []byte
		err := a.pool.QueryRow(ctx, query, id).Scan(
			&rec.ID, &rec.Source, &rec.OutputPath, &rec.Template, &vars, &rec.Rendered, &rec.CreatedAt,
		)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
			}
			return nil, fmt.Errorf("failed to load report %s: %w", id, err)
		}
		rec.Variables = vars
		return &rec, nil
	}

	if a.fileDir != "" {
		data, err := os.ReadFile(a.reportPath(id))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
			}
			return nil, fmt.Errorf("failed to read report %s: %w", id, err)
		}
		var rec ArchivedReport
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal report %s: %w", id, err)
		}
		return &rec, nil
	}

	return nil, fmt.Errorf("archive not configured")
}

func (a *ReportArchive) reportPath(id string) string {
	return filepath.Join(a.fileDir, filepath.Base(id)+".json")
}
