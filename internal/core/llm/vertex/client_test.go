package vertex

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/invoice-reader/internal/common"
	"github.com/joseph-ayodele/invoice-reader/internal/core/llm"
	"github.com/joseph-ayodele/invoice-reader/internal/entity"
)

type fakeGen struct {
	resp *genai.GenerateContentResponse
	err  error
	got  []genai.Part
}

func (f *fakeGen) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.got = parts
	return f.resp, f.err
}

func testClient(gen *fakeGen) *Client {
	return &Client{
		cfg:    Config{Model: "gemini-test"},
		newGen: func(entity.ExtractionRequest) generator { return gen },
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func testRequest() entity.ExtractionRequest {
	return entity.ExtractionRequest{
		System:       llm.SystemPrompt,
		Prompt:       "Invoice text: Invoice #100",
		FunctionName: llm.FunctionName,
		Schema:       llm.InvoiceSchema(),
	}
}

func respWith(parts ...genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Role: "model", Parts: parts}}},
	}
}

func TestExtractFieldsFunctionCall(t *testing.T) {
	gen := &fakeGen{resp: respWith(genai.FunctionCall{
		Name: llm.FunctionName,
		Args: map[string]any{"name": "ACME", "currency": "USD", "taxRate": 21.0, "duzp": "none"},
	})}
	out, err := testClient(gen).ExtractFields(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("ExtractFields: %v", err)
	}
	if out["name"] != "ACME" || out["taxRate"] != 21.0 {
		t.Fatalf("out = %v", out)
	}
	if _, ok := out["duzp"]; ok {
		t.Fatal("sentinel kept")
	}
	if txt, ok := gen.got[0].(genai.Text); !ok || string(txt) != "Invoice text: Invoice #100" {
		t.Fatalf("prompt part = %#v", gen.got)
	}
}

func TestExtractFieldsTextOnlyIsMalformed(t *testing.T) {
	gen := &fakeGen{resp: respWith(genai.Text(`{"name":"ACME"}`))}
	_, err := testClient(gen).ExtractFields(context.Background(), testRequest())
	if !errors.Is(err, common.ErrMalformedResponse) {
		t.Fatalf("err = %v", err)
	}
}

func TestExtractFieldsClassifiesGRPC(t *testing.T) {
	cases := map[codes.Code]bool{
		codes.Unavailable:       true,
		codes.ResourceExhausted: true,
		codes.InvalidArgument:   false,
		codes.PermissionDenied:  false,
	}
	for code, retryable := range cases {
		gen := &fakeGen{err: status.Error(code, "boom")}
		_, err := testClient(gen).ExtractFields(context.Background(), testRequest())
		var apiErr *common.APIError
		if !errors.As(err, &apiErr) || apiErr.Retryable != retryable {
			t.Fatalf("%s: err = %v", code, err)
		}
	}
}

func TestConfigureModelForcesCall(t *testing.T) {
	model := &genai.GenerativeModel{}
	configureModel(model, Config{MaxOutputTokens: 1024, StopSequences: []string{"###"}}, testRequest())

	if model.ToolConfig.FunctionCallingConfig.Mode != genai.FunctionCallingAny {
		t.Fatal("function calling not forced")
	}
	if *model.GenerationConfig.Temperature != 0 || *model.GenerationConfig.MaxOutputTokens != 1024 {
		t.Fatalf("generation config = %+v", model.GenerationConfig)
	}
	decl := model.Tools[0].FunctionDeclarations[0]
	if decl.Name != llm.FunctionName {
		t.Fatalf("decl = %+v", decl)
	}
	pm := decl.Parameters.Properties["paymentMethod"]
	if pm.Type != genai.TypeString || len(pm.Enum) != 9 {
		t.Fatalf("paymentMethod schema = %+v", pm)
	}
	items := decl.Parameters.Properties["invoiceItems"]
	if items.Type != genai.TypeArray || items.Items.Properties["unitPrice"].Type != genai.TypeNumber {
		t.Fatalf("invoiceItems schema = %+v", items)
	}
	if len(decl.Parameters.Required) != 2 {
		t.Fatalf("required = %v", decl.Parameters.Required)
	}
}
