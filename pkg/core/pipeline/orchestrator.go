package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"credit_appraisal/pkg/core/document"
	"credit_appraisal/pkg/core/projection"
	"credit_appraisal/pkg/core/render"
	"credit_appraisal/pkg/core/store"
	"credit_appraisal/pkg/core/utils"
	"credit_appraisal/pkg/models"

	"github.com/google/uuid"
)

// Projector maps a source document to template variables.
type Projector interface {
	Project(doc *document.Object) (projection.Variables, error)
}

// Renderer turns template variables into the report text.
type Renderer interface {
	Name() string
	Render(vars map[string]any) (string, error)
}

// Archive keeps a copy of each generated report. Load returns an error
// wrapping store.ErrNotFound for an id that was never saved.
type Archive interface {
	Save(ctx context.Context, rec *store.ArchivedReport) error
	Load(ctx context.Context, id string) (*store.ArchivedReport, error)
}

// Options locate the input and output of one run.
type Options struct {
	InputPath   string
	OutputPath  string
	LenientJSON bool   // retry malformed input with Hjson and JSON repair
	ReportID    string // fixed report id; a re-run replaces the archived copy
}

// Result summarises a successful run.
type Result struct {
	ReportID   string
	OutputPath string
	Variables  int
	Archived   bool
	Elapsed    time.Duration
}

// ReportOrchestrator runs the report generation stages in order:
// Read -> Decode -> Project -> Render -> Write -> Archive (optional).
// Any failure stops the run; the output file is only replaced once the
// whole report has rendered.
type ReportOrchestrator struct {
	opts      Options
	projector Projector
	renderer  Renderer
	archive   Archive

	now   func() time.Time
	newID func() string
}

// NewReportOrchestrator creates an orchestrator without an archive.
func NewReportOrchestrator(opts Options, projector Projector, renderer Renderer) *ReportOrchestrator {
	newID := uuid.NewString
	if opts.ReportID != "" {
		newID = func() string { return opts.ReportID }
	}
	return &ReportOrchestrator{
		opts:      opts,
		projector: projector,
		renderer:  renderer,
		now:       time.Now,
		newID:     newID,
	}
}

// SetArchive enables archiving of generated reports.
func (o *ReportOrchestrator) SetArchive(archive Archive) {
	o.archive = archive
}

// Run generates one report.
func (o *ReportOrchestrator) Run(ctx context.Context) (*Result, error) {
	start := o.now()
	fmt.Printf("[pipeline.Run] Generating report from %s\n", o.opts.InputPath)

	// 1. Read
	data, err := os.ReadFile(o.opts.InputPath)
	if err != nil {
		return nil, fmt.Errorf("input read failed: %w", err)
	}

	// 2. Decode
	doc, err := utils.DecodeReport(data, o.opts.LenientJSON)
	if err != nil {
		return nil, fmt.Errorf("decode failed for %s: %w", o.opts.InputPath, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 3. Project
	vars, err := o.projector.Project(doc)
	if err != nil {
		return nil, fmt.Errorf("projection failed: %w", err)
	}
	meta := models.ReportMeta{
		ID:          o.newID(),
		GeneratedAt: o.now(),
		Source:      filepath.Base(o.opts.InputPath),
	}
	vars["report_meta"] = meta
	fmt.Printf("[pipeline.Run] Projected %d variables\n", len(vars))

	// 4. Render
	rendered, err := o.renderer.Render(vars)
	if err != nil {
		return nil, fmt.Errorf("render failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 5. Write
	if err := render.WriteFile(o.opts.OutputPath, rendered); err != nil {
		return nil, fmt.Errorf("write failed: %w", err)
	}
	fmt.Printf("[pipeline.Run] Report written to %s (%d bytes)\n", o.opts.OutputPath, len(rendered))

	result := &Result{
		ReportID:   meta.ID,
		OutputPath: o.opts.OutputPath,
		Variables:  len(vars),
	}

	// 6. Archive
	if o.archive != nil {
		if err := o.store(ctx, meta, vars, rendered); err != nil {
			return nil, fmt.Errorf("archive failed: %w", err)
		}
		result.Archived = true
		fmt.Printf("[pipeline.Run] Archived report %s\n", meta.ID)
	}

	result.Elapsed = o.now().Sub(start)
	return result, nil
}

func (o *ReportOrchestrator) store(ctx context.Context, meta models.ReportMeta, vars projection.Variables, rendered string) error {
	prev, err := o.archive.Load(ctx, meta.ID)
	switch {
	case err == nil:
		fmt.Printf("[pipeline.Run] Replacing archived report %s (generated %s from %s)\n",
			meta.ID, prev.CreatedAt.Format(time.RFC3339), prev.Source)
	case !errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("failed to check for an archived report %s: %w", meta.ID, err)
	}

	payload, err := json.Marshal(vars)
	if err != nil {
		return fmt.Errorf("failed to marshal variables: %w", err)
	}
	return o.archive.Save(ctx, &store.ArchivedReport{
		ID:         meta.ID,
		Source:     meta.Source,
		OutputPath: o.opts.OutputPath,
		Template:   o.renderer.Name(),
		Variables:  payload,
		Rendered:   rendered,
		CreatedAt:  meta.GeneratedAt,
	})
}
