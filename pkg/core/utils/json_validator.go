package utils

import (
	"errors"
	"fmt"

	"credit_appraisal/pkg/core/document"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
)

// DecodeReport parses the source report.
//
// Strict mode accepts only valid JSON. Lenient mode retries a malformed input
// with, in order:
// 1. Hjson (comments, unquoted keys and strings, trailing or missing commas)
// 2. JSON repair (unclosed brackets, stray text around the object). The
//    repaired document is re-encoded from a map, so its keys come back sorted.
func DecodeReport(data []byte, lenient bool) (*document.Object, error) {
	doc, err := document.Decode(data)
	if err == nil {
		return doc, nil
	}
	if !lenient || errors.Is(err, document.ErrNotObject) {
		return nil, fmt.Errorf("JSON_STRUCTURAL_ERROR: %w", err)
	}

	if doc, herr := document.DecodeHjson(data); herr == nil {
		fmt.Printf("[utils.DecodeReport] Input was malformed (%v); parsed as Hjson\n", err)
		return doc, nil
	}

	if repaired, rerr := RepairJSON(string(data)); rerr == nil {
		if doc, derr := document.Decode([]byte(repaired)); derr == nil {
			fmt.Printf("[utils.DecodeReport] Input was malformed (%v); repaired JSON accepted, key order not preserved\n", err)
			return doc, nil
		}
	}

	return nil, fmt.Errorf("SMART_PARSE_FAILED: all parsing strategies failed: %w", err)
}

// RepairJSON attempts to fix common JSON errors.
// Uses github.com/RealAlexandreAI/json-repair for intelligent repair.
func RepairJSON(malformedJSON string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformedJSON)
	if err != nil {
		return "", fmt.Errorf("JSON_REPAIR_FAILED: %v", err)
	}
	return repaired, nil
}
