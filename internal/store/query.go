// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/dnr-scraper/pkg/types"
)

// QueryOptions filters List results. The zero value lists everything.
type QueryOptions struct {
	// Violator matches records whose violator name contains it,
	// case-insensitively.
	Violator string

	// From and To bound the violation date, inclusive. Zero means unbounded.
	From time.Time
	To   time.Time

	// Method filters by extraction method.
	Method types.ExtractionMethod

	// MissingAmount keeps only records with no settlement amount.
	MissingAmount bool

	// Limit caps the result count. Zero means no cap.
	Limit int
}

// List returns stored records matching opts, newest violation date first.
func (s *Store) List(ctx context.Context, opts QueryOptions) ([]types.ViolationRecord, error) {
	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(selectColumns)
	qb.WriteString(` WHERE 1=1`)

	if opts.Violator != "" {
		qb.WriteString(` AND violator_name LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(opts.Violator)+"%")
	}
	if !opts.From.IsZero() {
		qb.WriteString(` AND violation_date >= ?`)
		args = append(args, opts.From.Format(dateLayout))
	}
	if !opts.To.IsZero() {
		qb.WriteString(` AND violation_date <= ?`)
		args = append(args, opts.To.Format(dateLayout))
	}
	if opts.Method != "" {
		qb.WriteString(` AND extracted_via = ?`)
		args = append(args, string(opts.Method))
	}
	if opts.MissingAmount {
		qb.WriteString(` AND settlement_cents IS NULL`)
	}

	qb.WriteString(` ORDER BY violation_date DESC, case_id`)
	if opts.Limit > 0 {
		qb.WriteString(` LIMIT ?`)
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var out []types.ViolationRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return out, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
