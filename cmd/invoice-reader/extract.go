package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-reader/constants"
	"github.com/joseph-ayodele/invoice-reader/internal/core"
	"github.com/joseph-ayodele/invoice-reader/internal/core/backend"
	"github.com/joseph-ayodele/invoice-reader/internal/core/fields"
	"github.com/joseph-ayodele/invoice-reader/internal/core/llm"
	"github.com/joseph-ayodele/invoice-reader/internal/core/ocr"
	"github.com/joseph-ayodele/invoice-reader/internal/entity"
	"github.com/joseph-ayodele/invoice-reader/internal/export"
	"github.com/joseph-ayodele/invoice-reader/internal/ingest"
	"github.com/joseph-ayodele/invoice-reader/internal/repository"
)

var (
	flagOutput     string
	flagXLSX       string
	flagProvider   string
	flagModel      string
	flagSkipHidden bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <file|dir>...",
	Short: "Extract invoice records from documents",
	Long: `Extract runs every document through text acquisition, model extraction and
field normalization, in order. Documents that fail are logged and skipped.

Examples:
  invoice-reader extract ./inbox
  invoice-reader extract a.pdf b.jpg --output records.json
  invoice-reader extract ./inbox --provider anthropic --xlsx run.xlsx`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Write records as JSON to this file (default: stdout)")
	extractCmd.Flags().StringVar(&flagXLSX, "xlsx", "", "Also write the run as an XLSX workbook")
	extractCmd.Flags().StringVar(&flagProvider, "provider", "", "Override llm.provider (openai, anthropic, vertex)")
	extractCmd.Flags().StringVar(&flagModel, "model", "", "Override llm.model")
	extractCmd.Flags().BoolVar(&flagSkipHidden, "skip-hidden", true, "Skip hidden files and directories")
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if flagProvider != "" {
		cfg.LLM.Provider = flagProvider
		if flagModel == "" {
			cfg.LLM.Model = ""
		}
	}
	if flagModel != "" {
		cfg.LLM.Model = flagModel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.Info("config loaded", "config", cfg.String())

	docs, _, err := ingest.NewCollector(ingest.Options{SkipHidden: flagSkipHidden}, logger).Collect(ctx, args)
	if err != nil {
		return err
	}

	prompts, err := llm.NewPromptBuilder(cfg.LLM.PromptTemplateFile)
	if err != nil {
		return err
	}
	extractor, closer, err := backend.New(ctx, *cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closer.Close(); err != nil {
			logger.Warn("llm backend close failed", "error", err)
		}
	}()

	opts := []core.Option{core.WithDocumentTimeout(cfg.Pipeline.DocumentTimeout)}
	if cfg.Store.Driver != "" {
		db, err := repository.Open(ctx, cfg.Store, logger)
		if err != nil {
			return err
		}
		defer db.Close()
		opts = append(opts, core.WithJournal(db))
	}

	proc := core.NewProcessor(logger,
		ocr.NewExtractor(cfg.OCR, logger),
		prompts,
		extractor,
		fields.NewNormalizer(logger),
		opts...,
	)
	res := proc.Run(ctx, docs)

	if err := writeRecords(res.Records); err != nil {
		return err
	}
	if flagXLSX != "" {
		if err := writeRunXLSX(flagXLSX, res); err != nil {
			return err
		}
	}
	fmt.Fprintf(os.Stderr, "%d records, %d failures (run %s)\n", len(res.Records), len(res.Failures), res.RunID)
	return ctx.Err()
}

func writeRecords(records []entity.InvoiceRecord) (err error) {
	var w io.Writer = os.Stdout
	if flagOutput != "" {
		f, cerr := os.Create(flagOutput)
		if cerr != nil {
			return cerr
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(records)
}

func writeRunXLSX(path string, res core.Result) error {
	now := time.Now().UTC()
	outcomes := make([]entity.Outcome, 0, len(res.Records)+len(res.Failures))
	for i := range res.Records {
		outcomes = append(outcomes, entity.Outcome{
			RunID:       res.RunID,
			Path:        res.Records[i].SourcePath,
			Status:      constants.DocumentStatusOK,
			Record:      &res.Records[i],
			ProcessedAt: now,
		})
	}
	for _, f := range res.Failures {
		outcomes = append(outcomes, entity.Outcome{
			RunID:       res.RunID,
			Path:        f.Document.Path,
			MimeType:    f.Document.MimeType,
			Status:      constants.DocumentStatusFailed,
			Kind:        f.Kind,
			Error:       f.Err.Error(),
			ProcessedAt: now,
		})
	}
	wb, err := export.Workbook(outcomes)
	if err != nil {
		return err
	}
	defer wb.Close()
	return wb.SaveAs(path)
}
