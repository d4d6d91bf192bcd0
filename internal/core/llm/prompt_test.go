package llm

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/joseph-ayodele/invoice-reader/internal/entity"
)

func TestBuildIsDeterministic(t *testing.T) {
	b, err := NewPromptBuilder("")
	if err != nil {
		t.Fatal(err)
	}
	tr := entity.Transcript{Text: "Invoice #100\n\n  Total   960 EUR"}
	first, err := b.Build(tr)
	if err != nil {
		t.Fatal(err)
	}
	second, _ := b.Build(tr)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("two builds of the same transcript differ")
	}
	if !strings.HasSuffix(first.Prompt, "Invoice text:\nInvoice #100 Total 960 EUR") {
		t.Fatalf("prompt tail = %q", first.Prompt[len(first.Prompt)-60:])
	}
	for _, want := range []string{"draft, cash, postal, delivery, creditcard, advance, encashment, cheque, compensation", `"none"`, "invoiceItems"} {
		if !strings.Contains(first.Prompt, want) {
			t.Errorf("prompt lacks %q", want)
		}
	}
	if first.FunctionName != FunctionName || first.System != SystemPrompt {
		t.Fatalf("request = %+v", first)
	}
}

func TestCustomTemplate(t *testing.T) {
	p := filepath.Join(t.TempDir(), "prompt.tmpl")
	if err := os.WriteFile(p, []byte("Extract: {{.Transcript}}"), 0o600); err != nil {
		t.Fatal(err)
	}
	b, err := NewPromptBuilder(p)
	if err != nil {
		t.Fatal(err)
	}
	req, _ := b.Build(entity.Transcript{Text: " a \n b "})
	if req.Prompt != "Extract: a b" {
		t.Fatalf("prompt = %q", req.Prompt)
	}
}

func TestBrokenTemplateRejectedUpFront(t *testing.T) {
	p := filepath.Join(t.TempDir(), "prompt.tmpl")
	if err := os.WriteFile(p, []byte("Extract: {{.Nope}}"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewPromptBuilder(p); err == nil {
		t.Fatal("template with unknown field accepted")
	}
	if _, err := NewPromptBuilder(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("missing template accepted")
	}
}
