// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/dnr-scraper/internal/store"
	"github.com/pdiddy/dnr-scraper/pkg/types"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List or export stored enforcement records",
	Long: `Records lists the violation records in the database, newest first.
Use --export to write them to export.yaml or export.json next to the
database instead.`,
	Args: cobra.NoArgs,
	RunE: runRecords,
}

func init() {
	recordsCmd.Flags().Bool("json", false, "output records as JSON")
	recordsCmd.Flags().String("export", "", "export format: yaml or json")
	recordsCmd.Flags().String("violator", "", "filter by violator name substring")
	recordsCmd.Flags().String("from", "", "earliest violation date, YYYY-MM-DD")
	recordsCmd.Flags().String("to", "", "latest violation date, YYYY-MM-DD")
	recordsCmd.Flags().String("via", "", "filter by extraction method: text or ocr")
	recordsCmd.Flags().Bool("missing-amount", false, "only records without a settlement amount")
	recordsCmd.Flags().Int("limit", 0, "maximum records to list (0 = all)")

	rootCmd.AddCommand(recordsCmd)
}

func runRecords(cmd *cobra.Command, args []string) error {
	opts, err := recordQueryFromFlags(cmd)
	if err != nil {
		return err
	}

	st, err := store.NewStore(types.StoreConfig{
		DBPath:    viper.GetString(keyDBPath),
		ExportDir: viper.GetString(keyExportDir),
	})
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	format, _ := cmd.Flags().GetString("export")
	switch format {
	case "":
	case "yaml":
		path, err := st.ExportYAML(ctx, opts)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Exported to %s\n", path)
		return nil
	case "json":
		path, err := st.ExportJSON(ctx, opts)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Exported to %s\n", path)
		return nil
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	records, err := st.List(ctx, opts)
	if err != nil {
		return err
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRecords(out, records, jsonOutput)
}

func recordQueryFromFlags(cmd *cobra.Command) (store.QueryOptions, error) {
	violator, _ := cmd.Flags().GetString("violator")
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	via, _ := cmd.Flags().GetString("via")
	missing, _ := cmd.Flags().GetBool("missing-amount")
	limit, _ := cmd.Flags().GetInt("limit")

	opts := store.QueryOptions{
		Violator:      violator,
		Method:        types.ExtractionMethod(via),
		MissingAmount: missing,
		Limit:         limit,
	}
	switch opts.Method {
	case "", types.ExtractedViaText, types.ExtractedViaOCR:
	default:
		return opts, fmt.Errorf("unsupported --via %q: use text or ocr", via)
	}

	var err error
	if opts.From, err = parseFlagDate(from); err != nil {
		return opts, fmt.Errorf("--from: %w", err)
	}
	if opts.To, err = parseFlagDate(to); err != nil {
		return opts, fmt.Errorf("--to: %w", err)
	}
	return opts, nil
}

func formatRecords(w io.Writer, records []types.ViolationRecord, jsonOutput bool) error {
	if jsonOutput {
		entries := make([]store.ExportEntry, len(records))
		for i, r := range records {
			entries[i] = store.NewExportEntry(r)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(records) == 0 {
		fmt.Fprintln(w, "No records found.")
		return nil
	}

	fmt.Fprintf(w, "%-12s  %-10s  %-40s  %14s  %-4s  %s\n",
		"Case", "Date", "Violator", "Amount", "Via", "Confidence")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for _, r := range records {
		date := ""
		if !r.ViolationDate.IsZero() {
			date = r.ViolationDate.Format(flagDateLayout)
		}
		amount := "-"
		if r.SettlementAmount != nil {
			amount = r.SettlementAmount.Display()
		}
		fmt.Fprintf(w, "%-12s  %-10s  %-40s  %14s  %-4s  %s\n",
			truncate(r.CaseID, 12), date, truncate(r.ViolatorName, 40), amount, r.ExtractedVia, r.Confidence)
	}

	fmt.Fprintf(w, "\n%d records\n", len(records))
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
