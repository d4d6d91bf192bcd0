// Package cache keeps model extractions on disk so an unchanged document is
// not sent to the provider twice.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	bolt "go.etcd.io/bbolt"

	"github.com/joseph-ayodele/invoice-reader/internal/core/llm"
	"github.com/joseph-ayodele/invoice-reader/internal/entity"
)

var bucketName = []byte("extractions")

// Store is a bbolt-backed map from request key to raw extraction.
type Store struct {
	db *bolt.DB
	mu sync.RWMutex
}

// Open creates the database file and its bucket when missing.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Get returns the cached extraction for key, if any.
func (s *Store) Get(key string) (entity.RawExtraction, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw entity.RawExtraction
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(key))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &raw)
	})
	if err != nil {
		return nil, false, err
	}
	return raw, raw != nil, nil
}

func (s *Store) Put(key string, raw entity.RawExtraction) error {
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), b)
	})
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Params are the generation settings that shape a provider's answer. They
// are part of every key so a settings change never serves a stale extraction.
type Params struct {
	Provider        string   `json:"provider"`
	Model           string   `json:"model"`
	Temperature     float32  `json:"temperature"`
	MaxOutputTokens int      `json:"maxOutputTokens"`
	StopSequences   []string `json:"stopSequences,omitempty"`
}

// Key identifies a request under the given generation settings. Equal inputs
// give equal keys.
func Key(p Params, req entity.ExtractionRequest) (string, error) {
	b, err := json.Marshal(struct {
		Params  Params                   `json:"params"`
		Request entity.ExtractionRequest `json:"request"`
	}{p, req})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// Extractor serves repeat requests from the store and records new ones.
// Failures are never cached. Store errors are logged and bypassed.
type Extractor struct {
	next   llm.FieldExtractor
	store  *Store
	params Params
	logger *slog.Logger
}

func NewExtractor(next llm.FieldExtractor, store *Store, params Params, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{next: next, store: store, params: params, logger: logger}
}

func (e *Extractor) ExtractFields(ctx context.Context, req entity.ExtractionRequest) (entity.RawExtraction, error) {
	key, err := Key(e.params, req)
	if err != nil {
		return e.next.ExtractFields(ctx, req)
	}
	if raw, ok, err := e.store.Get(key); err != nil {
		e.logger.Warn("cache.get.error", "key", key, "error", err)
	} else if ok {
		e.logger.Debug("cache.hit", "key", key)
		return raw, nil
	}

	raw, err := e.next.ExtractFields(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := e.store.Put(key, raw); err != nil {
		e.logger.Warn("cache.put.error", "key", key, "error", err)
	}
	return raw, nil
}
