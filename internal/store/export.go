// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/dnr-scraper/pkg/types"
)

// ExportEntry is the exported form of one record. Dates are plain
// YYYY-MM-DD strings and the amount a plain decimal or null.
type ExportEntry struct {
	CaseID            string        `json:"case_id" yaml:"case_id"`
	ViolatorName      string        `json:"violator_name" yaml:"violator_name"`
	ViolationDate     string        `json:"violation_date" yaml:"violation_date"`
	SettlementAmount  *types.Amount `json:"settlement_amount" yaml:"settlement_amount"`
	SourceDocumentURL string        `json:"source_document_url" yaml:"source_document_url"`
	ExtractedVia      string        `json:"extracted_via" yaml:"extracted_via"`
	Confidence        string        `json:"confidence" yaml:"confidence"`
	Plaintiff         string        `json:"plaintiff,omitempty" yaml:"plaintiff,omitempty"`
	ViolationType     string        `json:"violation_type,omitempty" yaml:"violation_type,omitempty"`
	DataSource        string        `json:"data_source,omitempty" yaml:"data_source,omitempty"`
	Notes             string        `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// ExportYAML writes records matching opts to export.yaml in the export
// directory and returns the file path.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) (string, error) {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	return s.writeExport("export.yaml", data)
}

// ExportJSON writes records matching opts to export.json in the export
// directory and returns the file path.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) (string, error) {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return s.writeExport("export.json", data)
}

func (s *Store) writeExport(name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.exportDir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	path := filepath.Join(s.exportDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	return path, nil
}

func (s *Store) exportEntries(ctx context.Context, opts QueryOptions) ([]ExportEntry, error) {
	records, err := s.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	entries := make([]ExportEntry, len(records))
	for i, r := range records {
		entries[i] = NewExportEntry(r)
	}
	return entries, nil
}

// NewExportEntry converts a record to its exported form.
func NewExportEntry(r types.ViolationRecord) ExportEntry {
	e := ExportEntry{
		CaseID:            r.CaseID,
		ViolatorName:      r.ViolatorName,
		SettlementAmount:  r.SettlementAmount,
		SourceDocumentURL: r.SourceDocumentURL,
		ExtractedVia:      string(r.ExtractedVia),
		Confidence:        string(r.Confidence),
		Plaintiff:         r.Plaintiff,
		ViolationType:     r.ViolationType,
		DataSource:        r.DataSource,
		Notes:             r.Notes,
	}
	if !r.ViolationDate.IsZero() {
		e.ViolationDate = r.ViolationDate.Format(dateLayout)
	}
	return e
}
