// Package config reads run settings from the environment. main loads .env
// with godotenv first, so values may come from either.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultInputPath  = "orig.json"
	DefaultOutputPath = "credit_report.tex"
)

// Config holds the settings of one report run.
type Config struct {
	InputPath    string // REPORT_INPUT_PATH
	OutputPath   string // REPORT_OUTPUT_PATH
	TemplatePath string // REPORT_TEMPLATE_PATH, empty means the embedded template
	AliasesPath  string // REPORT_ALIASES_PATH, empty means the embedded alias table
	LenientJSON  bool   // REPORT_LENIENT_JSON
	ArchiveDir   string // REPORT_ARCHIVE_DIR, file archive when no database is configured
	DatabaseURL  string // DATABASE_URL, empty disables the database archive
	ReportID     string // REPORT_ID, a UUID; empty means a new id per run
}

// ArchiveEnabled reports whether any archive backend is configured.
func (c Config) ArchiveEnabled() bool {
	return c.DatabaseURL != "" || c.ArchiveDir != ""
}

// FromEnv builds a Config from environment variables, applying defaults.
func FromEnv() (Config, error) {
	cfg := Config{
		InputPath:    getenv("REPORT_INPUT_PATH", DefaultInputPath),
		OutputPath:   getenv("REPORT_OUTPUT_PATH", DefaultOutputPath),
		TemplatePath: getenv("REPORT_TEMPLATE_PATH", ""),
		AliasesPath:  getenv("REPORT_ALIASES_PATH", ""),
		ArchiveDir:   getenv("REPORT_ARCHIVE_DIR", ""),
		DatabaseURL:  getenv("DATABASE_URL", ""),
	}

	if raw := getenv("REPORT_LENIENT_JSON", ""); raw != "" {
		lenient, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid REPORT_LENIENT_JSON %q: %w", raw, err)
		}
		cfg.LenientJSON = lenient
	}

	if raw := getenv("REPORT_ID", ""); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid REPORT_ID %q: %w", raw, err)
		}
		cfg.ReportID = id.String()
	}

	if cfg.InputPath == cfg.OutputPath {
		return Config{}, fmt.Errorf("REPORT_OUTPUT_PATH must differ from REPORT_INPUT_PATH (%s)", cfg.InputPath)
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
