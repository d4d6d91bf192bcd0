package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-reader/constants"
	"github.com/joseph-ayodele/invoice-reader/internal/common"
	"github.com/joseph-ayodele/invoice-reader/internal/export"
	"github.com/joseph-ayodele/invoice-reader/internal/repository"
)

var (
	flagExportOut    string
	flagExportRun    string
	flagExportStatus string
	flagExportSince  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write journaled invoices and failures to an XLSX workbook",
	Long: `Export reads the document journal (store.driver must be set) and writes an
XLSX workbook with an Invoices sheet and a Failures sheet.

Examples:
  invoice-reader export --out all.xlsx
  invoice-reader export --run 6f1c... --out run.xlsx
  invoice-reader export --since 2024-03-01 --status FAILED --out failures.xlsx`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&flagExportOut, "out", "invoices.xlsx", "Output workbook")
	exportCmd.Flags().StringVar(&flagExportRun, "run", "", "Only this run ID")
	exportCmd.Flags().StringVar(&flagExportStatus, "status", "", "Only OK or FAILED documents")
	exportCmd.Flags().StringVar(&flagExportSince, "since", "", "Only documents processed on or after this date (YYYY-MM-DD)")
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if cfg.Store.Driver == "" {
		return fmt.Errorf("%w: export needs store.driver", common.ErrInvalidInput)
	}

	filter := repository.OutcomeFilter{RunID: flagExportRun, Status: constants.DocumentStatus(flagExportStatus)}
	if flagExportSince != "" {
		since, err := time.Parse(time.DateOnly, flagExportSince)
		if err != nil {
			return fmt.Errorf("%w: --since: %w", common.ErrInvalidInput, err)
		}
		filter.Since = &since
	}

	db, err := repository.Open(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	b, err := export.NewService(db, logger).ExportXLSX(ctx, filter)
	if err != nil {
		return err
	}
	return os.WriteFile(flagExportOut, b, 0o644)
}
