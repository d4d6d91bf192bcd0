package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-reader/internal/core/ocr"
	"github.com/joseph-ayodele/invoice-reader/internal/entity"
	"github.com/joseph-ayodele/invoice-reader/internal/ingest"
)

var flagTranscriptJSON bool

type transcriptLine struct {
	Path string `json:"path"`
	entity.Transcript
}

var transcriptCmd = &cobra.Command{
	Use:   "transcript <file>...",
	Short: "Print the acquired text of documents without calling a model",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		docs, _, err := ingest.NewCollector(ingest.Options{SkipHidden: true}, logger).Collect(ctx, args)
		if err != nil {
			return err
		}
		acq := ocr.NewExtractor(cfg.OCR, logger)
		enc := json.NewEncoder(os.Stdout)
		enc.SetEscapeHTML(false)

		for _, doc := range docs {
			tr, err := acq.Acquire(ctx, doc)
			if err != nil {
				return err
			}
			if flagTranscriptJSON {
				if err := enc.Encode(transcriptLine{Path: doc.Path, Transcript: tr}); err != nil {
					return err
				}
				continue
			}
			if _, err := os.Stdout.WriteString("== " + doc.Path + " (" + string(tr.Method) + ")\n" + tr.Text + "\n"); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(transcriptCmd)
	transcriptCmd.Flags().BoolVar(&flagTranscriptJSON, "json", false, "Print one JSON object per document")
}
