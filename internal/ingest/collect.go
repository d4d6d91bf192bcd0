// Package ingest turns files on disk into documents for the pipeline. It
// stands in for the mail attachment store.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/joseph-ayodele/invoice-reader/constants"
	"github.com/joseph-ayodele/invoice-reader/internal/entity"
)

// Options control directory walks. Files named explicitly are always taken.
type Options struct {
	// lowercased sans '.'; nil -> constants.AllowedExtensions
	AllowedExts map[string]struct{}
	SkipHidden  bool
}

// Stats summarises a Collect call.
type Stats struct {
	Scanned int
	Matched int
	Failed  int
}

// Collector resolves paths and sniffs their MIME types.
type Collector struct {
	opts   Options
	logger *slog.Logger
}

func NewCollector(opts Options, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{opts: opts, logger: logger}
}

// Collect returns one document per file, in argument order and lexical
// order within directories. The MIME type comes from the file content.
func (c *Collector) Collect(ctx context.Context, paths []string) ([]entity.Document, Stats, error) {
	var (
		docs  []entity.Document
		stats Stats
	)
	for _, root := range paths {
		if strings.TrimSpace(root) == "" {
			return nil, stats, errors.New("empty path")
		}
		info, err := os.Stat(root)
		if err != nil {
			return nil, stats, fmt.Errorf("stat %s: %w", root, err)
		}
		if !info.IsDir() {
			stats.Scanned++
			doc, err := c.document(root)
			if err != nil {
				return nil, stats, err
			}
			stats.Matched++
			docs = append(docs, doc)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if walkErr != nil {
				c.logger.Warn("ingest.walk.error", "path", path, "error", walkErr)
				stats.Failed++
				return nil
			}
			if c.opts.SkipHidden && path != root && IsHidden(path) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			stats.Scanned++
			if !AllowedExt(filepath.Ext(path), c.opts.AllowedExts) {
				return nil
			}
			doc, err := c.document(path)
			if err != nil {
				c.logger.Warn("ingest.file.error", "path", path, "error", err)
				stats.Failed++
				return nil
			}
			stats.Matched++
			docs = append(docs, doc)
			return nil
		})
		if err != nil {
			return nil, stats, fmt.Errorf("walk %s: %w", root, err)
		}
	}
	c.logger.Info("ingest.collect.done", "documents", len(docs), "scanned", stats.Scanned, "failed", stats.Failed)
	return docs, stats, nil
}

func (c *Collector) document(path string) (entity.Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return entity.Document{}, err
	}
	mt, err := mimetype.DetectFile(abs)
	if err != nil {
		return entity.Document{}, fmt.Errorf("detect mime %s: %w", abs, err)
	}
	mime := mt.String()
	// some HEIC variants sniff as a generic container
	if mt.Is("application/octet-stream") {
		if byExt := constants.MapExtToMime(filepath.Ext(abs)); byExt != "" {
			mime = byExt
		}
	}
	c.logger.Debug("ingest.file", "path", abs, "mime", mime)
	return entity.Document{Path: abs, MimeType: mime}, nil
}
