// Package main provides the CLI entry point for etfgrid.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid"
	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/models"
	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/output"
	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/source"
	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/store"
)

var (
	configPath string
	verbose    bool
	structural bool

	outputPath     string
	extractPretty  bool
	sectionsPretty bool
	exportPretty   bool

	quotesPath string
	date       string
	noBackup   bool

	dbPath string
)

var logger = zap.NewNop()

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "etfgrid",
		Short: "Extract and update sectioned ETF spreadsheets",
		Long: `etfgrid reads ETF time series laid out as stacked sections in one
worksheet, converts them to long-format records, and writes new trading days
back into the sheet.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "etfgrid.yaml", "Config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&structural, "structural", false, "Use the values-only backend (drops styles on save)")

	extractCmd := &cobra.Command{
		Use:   "extract [input.xlsx]",
		Short: "Convert the workbook to long-format JSON records",
		Args:  cobra.ExactArgs(1),
		RunE:  runExtract,
	}
	extractCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	extractCmd.Flags().BoolVar(&extractPretty, "pretty", false, "Pretty-print JSON output")

	sectionsCmd := &cobra.Command{
		Use:   "sections [input.xlsx]",
		Short: "Show the detected sections and date axis",
		Args:  cobra.ExactArgs(1),
		RunE:  runSections,
	}
	sectionsCmd.Flags().BoolVar(&sectionsPretty, "pretty", true, "Pretty-print JSON output")

	updateCmd := &cobra.Command{
		Use:   "update [input.xlsx]",
		Short: "Fetch quotes for a date and write them into the workbook",
		Args:  cobra.ExactArgs(1),
		RunE:  runUpdate,
	}
	updateCmd.Flags().StringVar(&quotesPath, "quotes", "", "YAML quote file (required)")
	updateCmd.Flags().StringVar(&date, "date", "", "Date to update, YYYY-MM-DD (default: today)")
	updateCmd.Flags().BoolVar(&noBackup, "no-backup", false, "Skip the backup before saving")
	_ = updateCmd.MarkFlagRequired("quotes")

	recalcCmd := &cobra.Command{
		Use:   "recalc [input.xlsx]",
		Short: "Recompute the derived sections for a date",
		Args:  cobra.ExactArgs(1),
		RunE:  runRecalc,
	}
	recalcCmd.Flags().StringVar(&date, "date", "", "Date to recalculate, YYYY-MM-DD (required)")
	recalcCmd.Flags().BoolVar(&noBackup, "no-backup", false, "Skip the backup before saving")
	_ = recalcCmd.MarkFlagRequired("date")

	importCmd := &cobra.Command{
		Use:   "import [input.xlsx]",
		Short: "Import the workbook records into SQLite",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}
	importCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default from config)")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export records stored in SQLite as JSON",
		Args:  cobra.NoArgs,
		RunE:  runExport,
	}
	exportCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default from config)")
	exportCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	exportCmd.Flags().BoolVar(&exportPretty, "pretty", false, "Pretty-print JSON output")

	rootCmd.AddCommand(extractCmd, sectionsCmd, updateCmd, recalcCmd, importCmd, exportCmd)
	return rootCmd
}

func setupLogger() error {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	logger = l
	return nil
}

func loadOptions() (etfgrid.Options, error) {
	opts, err := etfgrid.LoadOptions(configPath)
	if err != nil {
		return opts, fmt.Errorf("invalid config %s: %w", configPath, err)
	}
	if structural {
		opts.Backend = etfgrid.BackendStructural
	}
	if noBackup {
		opts.Backup.Enabled = false
	}
	if dbPath != "" {
		opts.Database = dbPath
	}
	opts.Logger = logger
	return opts, nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions()
	if err != nil {
		return err
	}
	records, err := etfgrid.Extract(args[0], opts)
	if err != nil {
		return err
	}
	data, err := output.ToJSON(records, extractPretty)
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	return writeOutput(cmd.OutOrStdout(), data)
}

func runSections(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions()
	if err != nil {
		return err
	}
	layout, err := etfgrid.Inspect(args[0], opts)
	if err != nil {
		return err
	}
	data, err := output.LayoutToJSON(layout, sectionsPretty)
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions()
	if err != nil {
		return err
	}
	if date == "" {
		date = time.Now().Format(models.DateLayout)
	}

	file, err := source.LoadFile(quotesPath)
	if err != nil {
		return err
	}
	manager := source.NewManager(logger, opts.FetchParallelism, file)

	s, err := etfgrid.Open(args[0], opts)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := etfgrid.Update(contextOf(cmd), s, manager, date)
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	printUpdateReport(report)
	if report.Skipped != "" {
		return nil
	}
	return s.Save()
}

func runRecalc(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions()
	if err != nil {
		return err
	}
	s, err := etfgrid.Open(args[0], opts)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := s.Recalculate(date)
	if err != nil {
		return fmt.Errorf("recalculation failed: %w", err)
	}
	fmt.Printf("Recalculated %s: %d instruments, %d cells written, %d rows missing\n",
		report.Date, report.Instruments, report.Written, len(report.Missing))
	return s.Save()
}

func runImport(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions()
	if err != nil {
		return err
	}
	records, err := etfgrid.Extract(args[0], opts)
	if err != nil {
		return err
	}

	st, err := store.Open(opts.Database, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := st.Import(contextOf(cmd), records, args[0])
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	fmt.Printf("Imported %d records for %d instruments into %s (%d new, %d updated, %d failed)\n",
		len(records), stats.Instruments, st.Path(), stats.Inserted, stats.Updated, stats.Failed)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions()
	if err != nil {
		return err
	}
	st, err := store.Open(opts.Database, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.Records(contextOf(cmd))
	if err != nil {
		return err
	}
	data, err := output.ToJSON(records, exportPretty)
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	return writeOutput(cmd.OutOrStdout(), data)
}

func printUpdateReport(r etfgrid.UpdateReport) {
	fmt.Printf("Update %s\n", r.Date)
	if r.Skipped != "" {
		fmt.Printf("  skipped: %s\n", r.Skipped)
		return
	}
	fmt.Printf("  succeeded: %d\n", len(r.Succeeded))
	fmt.Printf("  failed: %d\n", len(r.Failures))
	for _, f := range r.Failures {
		fmt.Printf("    %s: %v\n", f.Code, f.Err)
	}
	for _, m := range r.Missing {
		fmt.Printf("  missing: %v\n", m)
	}
	fmt.Printf("  derived cells written: %d\n", r.Recalc.Written)
}

func writeOutput(w io.Writer, data []byte) error {
	if outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
