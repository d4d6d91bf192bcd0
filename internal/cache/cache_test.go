package cache

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/joseph-ayodele/invoice-reader/internal/core/llm"
	"github.com/joseph-ayodele/invoice-reader/internal/entity"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestExtractorServesRepeatsFromStore(t *testing.T) {
	calls := 0
	next := llm.ExtractorFunc(func(context.Context, entity.ExtractionRequest) (entity.RawExtraction, error) {
		calls++
		return entity.RawExtraction{"name": "Acme", "grandTotalAmount": 960.0}, nil
	})
	e := NewExtractor(next, openTestStore(t), Params{Provider: "openai", Model: "gpt-4o-mini"}, nil)
	req := entity.ExtractionRequest{System: "s", Prompt: "Invoice #100", FunctionName: "extract_invoice_data"}

	first, err := e.ExtractFields(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.ExtractFields(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 || !reflect.DeepEqual(first, second) {
		t.Fatalf("calls = %d first = %v second = %v", calls, first, second)
	}

	req.Prompt = "Invoice #101"
	if _, err := e.ExtractFields(context.Background(), req); err != nil || calls != 2 {
		t.Fatalf("different prompt: calls = %d err = %v", calls, err)
	}
}

func TestExtractorDoesNotCacheFailures(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	next := llm.ExtractorFunc(func(context.Context, entity.ExtractionRequest) (entity.RawExtraction, error) {
		calls++
		return nil, boom
	})
	e := NewExtractor(next, openTestStore(t), Params{Model: "m"}, nil)
	for i := 0; i < 2; i++ {
		if _, err := e.ExtractFields(context.Background(), entity.ExtractionRequest{}); err != boom {
			t.Fatalf("err = %v", err)
		}
	}
	if calls != 2 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestKeyDependsOnGenerationParams(t *testing.T) {
	req := entity.ExtractionRequest{Prompt: "p"}
	base := Params{Provider: "openai", Model: "a", MaxOutputTokens: 2048}
	baseKey, _ := Key(base, req)
	if again, _ := Key(base, req); again != baseKey {
		t.Fatalf("key not stable: %s vs %s", baseKey, again)
	}

	variants := map[string]Params{
		"model":       {Provider: "openai", Model: "b", MaxOutputTokens: 2048},
		"provider":    {Provider: "anthropic", Model: "a", MaxOutputTokens: 2048},
		"temperature": {Provider: "openai", Model: "a", MaxOutputTokens: 2048, Temperature: 0.5},
		"max tokens":  {Provider: "openai", Model: "a", MaxOutputTokens: 512},
		"stop":        {Provider: "openai", Model: "a", MaxOutputTokens: 2048, StopSequences: []string{"###"}},
	}
	for name, p := range variants {
		k, err := Key(p, req)
		if err != nil {
			t.Fatal(err)
		}
		if k == baseKey {
			t.Errorf("%s change did not change the key", name)
		}
	}
}

func TestExtractorMissesAfterSettingsChange(t *testing.T) {
	calls := 0
	next := llm.ExtractorFunc(func(context.Context, entity.ExtractionRequest) (entity.RawExtraction, error) {
		calls++
		return entity.RawExtraction{"name": "Acme"}, nil
	})
	store := openTestStore(t)
	req := entity.ExtractionRequest{Prompt: "Invoice #100"}

	a := NewExtractor(next, store, Params{Model: "m", MaxOutputTokens: 2048}, nil)
	b := NewExtractor(next, store, Params{Model: "m", MaxOutputTokens: 64}, nil)
	for _, e := range []*Extractor{a, b, a} {
		if _, err := e.ExtractFields(context.Background(), req); err != nil {
			t.Fatal(err)
		}
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}
