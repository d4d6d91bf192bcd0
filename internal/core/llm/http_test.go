package llm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/joseph-ayodele/invoice-reader/internal/common"
)

func TestSendJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" || r.Header.Get("X-Test") != "1" {
			t.Errorf("headers = %v", r.Header)
		}
		b, _ := io.ReadAll(r.Body)
		_, _ = w.Write(b)
	}))
	defer srv.Close()

	raw, err := SendJSON(context.Background(), nil, "test", srv.URL, map[string]int{"a": 1}, map[string]string{"X-Test": "1"},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil || string(raw) != `{"a":1}` {
		t.Fatalf("raw = %s err = %v", raw, err)
	}
}

func TestSendJSONNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := SendJSON(context.Background(), nil, "test", srv.URL, struct{}{}, nil, nil)
	var apiErr *common.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 403 || apiErr.Retryable || apiErr.Body != "bad key\n" {
		t.Fatalf("err = %#v", err)
	}
}

func TestSendJSONTimeoutIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := &http.Client{Timeout: 20 * time.Millisecond}
	_, err := SendJSON(context.Background(), client, "test", srv.URL, struct{}{}, nil, nil)
	if !common.IsRetryable(err) {
		t.Fatalf("err = %v", err)
	}
}
