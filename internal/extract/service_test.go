package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/mediread/vault/internal/common"
	"github.com/mediread/vault/internal/entity"
	"github.com/mediread/vault/internal/llm"
)

type mockCompleter struct {
	response string
	err      error
	lastReq  llm.CompletionRequest
}

func (m *mockCompleter) Complete(_ context.Context, req llm.CompletionRequest) (string, error) {
	m.lastReq = req
	return m.response, m.err
}

func TestExtractHappyPath(t *testing.T) {
	mock := &mockCompleter{response: "```json\n" + validReport + "\n```"}
	svc := NewService(mock, nil)

	res, err := svc.Extract(context.Background(), "Hemoglobin 11.2 g/dL (13.0-17.0)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Record.DocumentType != entity.DocTypeTestReport {
		t.Fatalf("expected medical_test_report, got %s", res.Record.DocumentType)
	}
	if res.NeedsReview {
		t.Error("well-formed output must not need review")
	}
	if mock.lastReq.Temperature != 0 {
		t.Errorf("extraction must run at temperature 0, got %v", mock.lastReq.Temperature)
	}
	if mock.lastReq.System != ExtractionSystemPrompt {
		t.Error("extraction must use the strict system prompt")
	}
}

func TestExtractEmptyInput(t *testing.T) {
	svc := NewService(&mockCompleter{}, nil)
	for _, in := range []string{"", "   \n\t"} {
		if _, err := svc.Extract(context.Background(), in); !errors.Is(err, common.ErrValidation) {
			t.Errorf("input %q: expected validation error, got %v", in, err)
		}
	}
}

func TestExtractUnconfiguredDegrades(t *testing.T) {
	svc := NewService(nil, nil)
	res, err := svc.Extract(context.Background(), "some document text")
	if err != nil {
		t.Fatalf("unconfigured service must not error, got %v", err)
	}
	if res.Record.DocumentType != entity.DocTypeUnknown {
		t.Errorf("expected unknown record, got %s", res.Record.DocumentType)
	}
	if !res.NeedsReview {
		t.Error("unconfigured extraction must be flagged for review")
	}
}

func TestExtractRateLimited(t *testing.T) {
	mock := &mockCompleter{err: &llm.APIError{StatusCode: 429, Body: "too many requests"}}
	svc := NewService(mock, nil)
	if _, err := svc.Extract(context.Background(), "text"); !errors.Is(err, common.ErrRateLimited) {
		t.Errorf("expected rate-limited error, got %v", err)
	}
}

func TestExtractUpstreamFailure(t *testing.T) {
	mock := &mockCompleter{err: &llm.APIError{StatusCode: 500, Body: "oops"}}
	svc := NewService(mock, nil)
	if _, err := svc.Extract(context.Background(), "text"); !errors.Is(err, common.ErrServiceUnavailable) {
		t.Errorf("expected service-unavailable error, got %v", err)
	}
}

func TestExtractProseReplyNeedsReview(t *testing.T) {
	mock := &mockCompleter{response: "I'm sorry, I can't identify this document."}
	svc := NewService(mock, nil)
	res, err := svc.Extract(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Record.DocumentType != entity.DocTypeUnknown || !res.NeedsReview {
		t.Errorf("prose reply must degrade to unknown with review, got %+v", res)
	}
}
