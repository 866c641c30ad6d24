// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the dnr-scraper pipeline:
// the ViolationRecord entity, result links produced by the browser stage,
// extraction outcomes, and stage configuration.
package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ExtractionMethod identifies which extraction strategy produced the text an
// amount was read from.
type ExtractionMethod string

const (
	ExtractedViaText ExtractionMethod = "text"
	ExtractedViaOCR  ExtractionMethod = "ocr"
)

// Confidence flags how much an extracted amount can be trusted.
type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

// Amount is an exact decimal dollar value stored as integer cents.
type Amount int64

// NewAmount builds an Amount from whole dollars and cents.
func NewAmount(dollars, cents int64) Amount {
	return Amount(dollars*100 + cents)
}

// Cents returns the amount in cents.
func (a Amount) Cents() int64 { return int64(a) }

// String formats the amount as a plain decimal, e.g. "5000.00".
func (a Amount) String() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Display formats the amount with a dollar sign and thousands separators,
// e.g. "$5,000.00".
func (a Amount) Display() string {
	s := a.String()
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := "$" + b.String() + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}

// maxDollars is the largest whole-dollar magnitude that fits in cents.
const maxDollars = (math.MaxInt64 - 99) / 100

// ParseAmount parses a plain decimal string ("5000.00", "5000", "12.5")
// into an Amount without going through floating point.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	dollars, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	if dollars > maxDollars || dollars < -maxDollars {
		return 0, fmt.Errorf("parsing amount %q: out of range", s)
	}
	var cents int64
	if hasFrac {
		if len(frac) == 0 || len(frac) > 2 {
			return 0, fmt.Errorf("parsing amount %q: expected 1 or 2 decimal places", s)
		}
		if len(frac) == 1 {
			frac += "0"
		}
		cents, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parsing amount %q: %w", s, err)
		}
	}
	return NewAmount(dollars, cents), nil
}

// MarshalText renders the amount as a plain decimal for JSON and YAML.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses a plain decimal produced by MarshalText.
func (a *Amount) UnmarshalText(text []byte) error {
	v, err := ParseAmount(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// ResultLink is one row of the portal's search results: the case it refers
// to and where its document can be downloaded.
type ResultLink struct {
	// CaseID identifies the enforcement case (the document id on the portal).
	CaseID string `json:"case_id" yaml:"case_id"`

	// DocumentURL is the absolute URL of the order PDF.
	DocumentURL string `json:"document_url" yaml:"document_url"`

	// Date is the document date shown in the results table.
	Date time.Time `json:"date" yaml:"date"`

	// Violator is the defendant named in the results table.
	Violator string `json:"violator" yaml:"violator"`

	// Notes is the free-text description column of the results table.
	Notes string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// ViolationRecord is the normalized, persisted form of one enforcement order.
// Records are insert-only: once stored under a CaseID they are never updated.
type ViolationRecord struct {
	CaseID            string           `json:"case_id" yaml:"case_id"`
	ViolatorName      string           `json:"violator_name" yaml:"violator_name"`
	ViolationDate     time.Time        `json:"violation_date" yaml:"violation_date"`
	SettlementAmount  *Amount          `json:"settlement_amount" yaml:"settlement_amount"`
	SourceDocumentURL string           `json:"source_document_url" yaml:"source_document_url"`
	ExtractedVia      ExtractionMethod `json:"extracted_via" yaml:"extracted_via"`
	Confidence        Confidence       `json:"confidence" yaml:"confidence"`

	Plaintiff     string `json:"plaintiff,omitempty" yaml:"plaintiff,omitempty"`
	ViolationType string `json:"violation_type,omitempty" yaml:"violation_type,omitempty"`
	DataSource    string `json:"data_source,omitempty" yaml:"data_source,omitempty"`
	Notes         string `json:"notes,omitempty" yaml:"notes,omitempty"`

	// RunID is the run that inserted the record.
	RunID     string    `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Extraction is the outcome of running the amount extractor over one PDF.
type Extraction struct {
	// Amount is nil when no monetary value could be found.
	Amount     *Amount
	Method     ExtractionMethod
	Confidence Confidence

	// Text is the (corrected) text the amount was searched in.
	Text string
}
