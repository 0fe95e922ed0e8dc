package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"credit_appraisal/pkg/core/document"
	"credit_appraisal/pkg/core/projection"
	"credit_appraisal/pkg/core/render"
	"credit_appraisal/pkg/core/store"
)

// --- Mocks ---

type MockProjector struct {
	ProjectFunc func(doc *document.Object) (projection.Variables, error)
}

func (m *MockProjector) Project(doc *document.Object) (projection.Variables, error) {
	if m.ProjectFunc != nil {
		return m.ProjectFunc(doc)
	}
	return projection.Variables{"Recommendation": []string{"Approve"}}, nil
}

type MockRenderer struct {
	RenderFunc func(vars map[string]any) (string, error)
}

func (m *MockRenderer) Name() string { return "mock.tmpl" }

func (m *MockRenderer) Render(vars map[string]any) (string, error) {
	if m.RenderFunc != nil {
		return m.RenderFunc(vars)
	}
	return fmt.Sprintf("report with %d variables", len(vars)), nil
}

type MockArchive struct {
	SaveFunc func(ctx context.Context, rec *store.ArchivedReport) error
	LoadFunc func(ctx context.Context, id string) (*store.ArchivedReport, error)
	saved    []*store.ArchivedReport
	loaded   []string
}

func (m *MockArchive) Save(ctx context.Context, rec *store.ArchivedReport) error {
	m.saved = append(m.saved, rec)
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, rec)
	}
	return nil
}

func (m *MockArchive) Load(ctx context.Context, id string) (*store.ArchivedReport, error) {
	m.loaded = append(m.loaded, id)
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, id)
	}
	for i := len(m.saved) - 1; i >= 0; i-- {
		if m.saved[i].ID == id {
			return m.saved[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
}

// --- Helpers ---

func writeInput(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "orig.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestOrchestrator(opts Options, p Projector, r Renderer) *ReportOrchestrator {
	o := NewReportOrchestrator(opts, p, r)
	o.now = func() time.Time { return time.Date(2024, 3, 31, 9, 0, 0, 0, time.UTC) }
	o.newID = func() string { return "report-1" }
	return o
}

// --- Tests ---

func TestOrchestrator_Run(t *testing.T) {
	type testCase struct {
		name          string
		input         string // empty means no input file
		lenient       bool
		setupMocks    func(*MockProjector, *MockRenderer, *MockArchive)
		expectedError string // substring match
		wantOutput    bool
	}

	tests := []testCase{
		{
			name:       "Success - Happy Path",
			input:      `{"recommendation": ["Approve"]}`,
			setupMocks: func(p *MockProjector, r *MockRenderer, a *MockArchive) {},
			wantOutput: true,
		},
		{
			name:          "Edge Case - Missing Input",
			input:         "",
			setupMocks:    func(p *MockProjector, r *MockRenderer, a *MockArchive) {},
			expectedError: "input read failed",
		},
		{
			name:          "Edge Case - Malformed JSON (strict)",
			input:         `{"recommendation": ["Approve"],}`,
			setupMocks:    func(p *MockProjector, r *MockRenderer, a *MockArchive) {},
			expectedError: "JSON_STRUCTURAL_ERROR",
		},
		{
			name:       "Success - Malformed JSON (lenient)",
			input:      `{"recommendation": ["Approve"],}`,
			lenient:    true,
			setupMocks: func(p *MockProjector, r *MockRenderer, a *MockArchive) {},
			wantOutput: true,
		},
		{
			name:  "Edge Case - Projection Failure",
			input: `{}`,
			setupMocks: func(p *MockProjector, r *MockRenderer, a *MockArchive) {
				p.ProjectFunc = func(doc *document.Object) (projection.Variables, error) {
					return nil, fmt.Errorf("missing key %q", "key_issues")
				}
			},
			expectedError: `projection failed: missing key "key_issues"`,
		},
		{
			name:  "Edge Case - Render Failure",
			input: `{}`,
			setupMocks: func(p *MockProjector, r *MockRenderer, a *MockArchive) {
				r.RenderFunc = func(vars map[string]any) (string, error) {
					return "", fmt.Errorf("map has no entry for key")
				}
			},
			expectedError: "render failed: map has no entry for key",
		},
		{
			name:  "Edge Case - Archive Failure",
			input: `{}`,
			setupMocks: func(p *MockProjector, r *MockRenderer, a *MockArchive) {
				a.SaveFunc = func(ctx context.Context, rec *store.ArchivedReport) error {
					return fmt.Errorf("db connection lost")
				}
			},
			expectedError: "archive failed: db connection lost",
			wantOutput:    true, // the report itself was already written
		},
		{
			name:  "Edge Case - Archive Lookup Failure",
			input: `{}`,
			setupMocks: func(p *MockProjector, r *MockRenderer, a *MockArchive) {
				a.LoadFunc = func(ctx context.Context, id string) (*store.ArchivedReport, error) {
					return nil, fmt.Errorf("db connection lost")
				}
			},
			expectedError: "archive failed: failed to check for an archived report report-1: db connection lost",
			wantOutput:    true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			inputPath := filepath.Join(dir, "orig.json")
			if tc.input != "" {
				inputPath = writeInput(t, dir, tc.input)
			}
			outputPath := filepath.Join(dir, "credit_report.tex")

			p, r, a := &MockProjector{}, &MockRenderer{}, &MockArchive{}
			tc.setupMocks(p, r, a)

			o := newTestOrchestrator(Options{InputPath: inputPath, OutputPath: outputPath, LenientJSON: tc.lenient}, p, r)
			o.SetArchive(a)

			result, err := o.Run(context.Background())
			if tc.expectedError != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tc.expectedError)
				}
				if !strings.Contains(err.Error(), tc.expectedError) {
					t.Errorf("expected error containing %q, got %q", tc.expectedError, err.Error())
				}
				if result != nil {
					t.Errorf("result returned alongside error: %+v", result)
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if result.ReportID != "report-1" || !result.Archived || result.OutputPath != outputPath {
					t.Errorf("unexpected result: %+v", result)
				}
			}

			_, statErr := os.Stat(outputPath)
			if tc.wantOutput && statErr != nil {
				t.Errorf("expected output file: %v", statErr)
			}
			if !tc.wantOutput && statErr == nil {
				t.Error("output file written despite failure")
			}
		})
	}
}

func TestOrchestrator_MissingInputIsNotExist(t *testing.T) {
	dir := t.TempDir()
	o := newTestOrchestrator(Options{
		InputPath:  filepath.Join(dir, "absent.json"),
		OutputPath: filepath.Join(dir, "out.tex"),
	}, &MockProjector{}, &MockRenderer{})

	_, err := o.Run(context.Background())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestOrchestrator_ArchiveRecord(t *testing.T) {
	dir := t.TempDir()
	opts := Options{InputPath: writeInput(t, dir, `{}`), OutputPath: filepath.Join(dir, "out.tex")}

	var seen map[string]any
	r := &MockRenderer{RenderFunc: func(vars map[string]any) (string, error) {
		seen = vars
		return "rendered body", nil
	}}
	a := &MockArchive{}
	o := newTestOrchestrator(opts, &MockProjector{}, r)
	o.SetArchive(a)

	if _, err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, ok := seen["report_meta"]; !ok {
		t.Error("renderer did not receive report_meta")
	}
	if len(a.saved) != 1 {
		t.Fatalf("expected 1 archived report, got %d", len(a.saved))
	}
	rec := a.saved[0]
	if rec.ID != "report-1" || rec.Source != "orig.json" || rec.Template != "mock.tmpl" || rec.Rendered != "rendered body" {
		t.Errorf("unexpected record: %+v", rec)
	}

	var vars map[string]json.RawMessage
	if err := json.Unmarshal(rec.Variables, &vars); err != nil {
		t.Fatalf("variables are not a JSON object: %v", err)
	}
	for _, key := range []string{"Recommendation", "report_meta"} {
		if _, ok := vars[key]; !ok {
			t.Errorf("archived variables missing %s", key)
		}
	}
}

func TestOrchestrator_FixedReportIDReplacesArchive(t *testing.T) {
	dir := t.TempDir()
	const id = "3f2b9c1e-7d4a-4c59-9a0e-1b2c3d4e5f60"
	opts := Options{
		InputPath:  writeInput(t, dir, `{}`),
		OutputPath: filepath.Join(dir, "out.tex"),
		ReportID:   id,
	}
	archive := store.NewReportArchive(nil, filepath.Join(dir, "archive"))

	renders := 0
	r := &MockRenderer{RenderFunc: func(vars map[string]any) (string, error) {
		renders++
		return fmt.Sprintf("revision %d", renders), nil
	}}

	for run := 1; run <= 2; run++ {
		o := NewReportOrchestrator(opts, &MockProjector{}, r)
		o.SetArchive(archive)
		result, err := o.Run(context.Background())
		if err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
		if result.ReportID != id {
			t.Errorf("run %d: report id = %q, want %q", run, result.ReportID, id)
		}
	}

	rec, err := archive.Load(context.Background(), id)
	if err != nil {
		t.Fatalf("archive.Load: %v", err)
	}
	if rec.Rendered != "revision 2" {
		t.Errorf("archived %q, want the second run", rec.Rendered)
	}
	entries, err := os.ReadDir(filepath.Join(dir, "archive"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected one archived report, found %d", len(entries))
	}
}

func TestOrchestrator_ChecksArchiveBeforeSave(t *testing.T) {
	dir := t.TempDir()
	opts := Options{InputPath: writeInput(t, dir, `{}`), OutputPath: filepath.Join(dir, "out.tex")}
	a := &MockArchive{}
	o := newTestOrchestrator(opts, &MockProjector{}, &MockRenderer{})
	o.SetArchive(a)

	if _, err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(a.loaded) != 1 || a.loaded[0] != "report-1" {
		t.Errorf("archive lookups = %v, want [report-1]", a.loaded)
	}
}

func TestOrchestrator_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	opts := Options{InputPath: writeInput(t, dir, `{}`), OutputPath: filepath.Join(dir, "out.tex")}
	o := newTestOrchestrator(opts, &MockProjector{}, &MockRenderer{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := o.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if _, err := os.Stat(opts.OutputPath); err == nil {
		t.Error("output written after cancellation")
	}
}

// Full run with the real projector and template against both fixture layouts.
func TestOrchestrator_EndToEnd(t *testing.T) {
	renderer, err := render.New("", "N/A")
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	for _, fixture := range []string{"report_camel.json", "report_snake.json"} {
		t.Run(fixture, func(t *testing.T) {
			dir := t.TempDir()
			opts := Options{
				InputPath:  filepath.Join("..", "projection", "testdata", fixture),
				OutputPath: filepath.Join(dir, "credit_report.tex"),
			}
			archive := store.NewReportArchive(nil, filepath.Join(dir, "archive"))

			o := NewReportOrchestrator(opts, projection.NewProjector(nil, nil), renderer)
			o.SetArchive(archive)

			result, err := o.Run(context.Background())
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if result.Variables != 41 {
				t.Errorf("variables = %d, want 41", result.Variables)
			}

			out, err := os.ReadFile(opts.OutputPath)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(out), `\section{Recommendation}`) {
				t.Error("rendered report missing recommendation section")
			}

			rec, err := archive.Load(context.Background(), result.ReportID)
			if err != nil {
				t.Fatalf("archive.Load: %v", err)
			}
			if rec.Rendered != string(out) {
				t.Error("archived report differs from written report")
			}
		})
	}
}
