package common

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindsAreDistinguishable(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		kind       string
		extraction bool
	}{
		{"unsupported", UnsupportedFormat("a.txt", "text/plain"), "unsupported_format", false},
		{"acquisition", Acquisition("open pdf", errors.New("boom")), "acquisition", false},
		{"malformed", Malformed("no tool call", nil), "malformed_response", true},
		{"api", &APIError{Provider: "openai", StatusCode: 500, Retryable: true}, "api_failure", true},
		{"wrapped api", fmt.Errorf("extract: %w", &APIError{Provider: "openai", StatusCode: 400}), "api_failure", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.kind {
				t.Fatalf("KindOf = %q, want %q", got, tc.kind)
			}
			if got := errors.Is(tc.err, ErrExtraction); got != tc.extraction {
				t.Fatalf("errors.Is(ErrExtraction) = %v, want %v", got, tc.extraction)
			}
		})
	}
}

func TestAcquisitionKeepsCause(t *testing.T) {
	cause := errors.New("disk on fire")
	err := Acquisition("read", cause)
	if !errors.Is(err, cause) || !errors.Is(err, ErrAcquisition) {
		t.Fatalf("expected both cause and kind in chain: %v", err)
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(fmt.Errorf("x: %w", &APIError{StatusCode: 503, Retryable: true})) {
		t.Fatal("503 should be retryable")
	}
	if IsRetryable(&APIError{StatusCode: 401}) {
		t.Fatal("401 should not be retryable")
	}
	if IsRetryable(Malformed("bad", nil)) {
		t.Fatal("malformed should not be retryable")
	}
	for code, want := range map[int]bool{200: false, 400: false, 429: true, 500: true, 502: true} {
		if RetryableStatus(code) != want {
			t.Fatalf("RetryableStatus(%d) != %v", code, want)
		}
	}
}
