package pipeline

import (
	"context"
	"testing"

	"github.com/mediread/vault/internal/entity"
	"github.com/mediread/vault/internal/extract"
	"github.com/mediread/vault/internal/llm"
	"github.com/mediread/vault/internal/snapshot"
)

type stubCompleter struct {
	response string
}

func (s *stubCompleter) Complete(context.Context, llm.CompletionRequest) (string, error) {
	return s.response, nil
}

const hemoglobinResponse = "```json\n" + `{
  "document_type": "medical_test_report",
  "patient_name": "Jane Doe",
  "patient_age": "42",
  "patient_gender": "female",
  "report_date": "2024-01-15",
  "lab_name": "City Lab",
  "doctor_name": null,
  "test_results": [
    {
      "test_name": "Hemoglobin",
      "value": 11.2,
      "unit": "g/dL",
      "reference_range": "13.0-17.0",
      "abnormal_flag": "low"
    }
  ]
}` + "\n```"

// Drives one scanned report from raw text through model extraction,
// confirmation and persistence, then checks the derived snapshot.
func TestReportFlowsIntoSnapshot(t *testing.T) {
	files := writeFiles(t, "cbc.pdf")
	text := &mockTextExtractor{texts: map[string]string{
		"cbc.pdf": "Hemoglobin 11.2 g/dL (13.0-17.0)",
	}}
	extractor := extract.NewService(&stubCompleter{response: hemoglobinResponse}, nil)
	saver := &mockSaver{}
	pipe := NewPipeline(text, extractor, saver, nil)
	if err := pipe.Enqueue(files...); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	pend, err := pipe.Next(ctx)
	if err != nil || pend == nil {
		t.Fatalf("expected pending file, got %v, %v", pend, err)
	}
	if pend.NeedsReview {
		t.Error("well-formed model output must not need review")
	}
	if pend.Extracted.DocumentType != entity.DocTypeTestReport {
		t.Fatalf("expected medical_test_report, got %s", pend.Extracted.DocumentType)
	}

	if err := pipe.Confirm(ctx, pend.Extracted, "2024-01-15"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if pend, err := pipe.Next(ctx); pend != nil || err != nil {
		t.Fatalf("expected exhausted batch, got %v, %v", pend, err)
	}

	snap := snapshot.Build(saver.docs)
	if len(snap.LatestLabs) != 1 {
		t.Fatalf("expected one lab in snapshot, got %d", len(snap.LatestLabs))
	}
	lab := snap.LatestLabs[0]
	if *lab.TestName != "Hemoglobin" || *lab.Value.Number != 11.2 {
		t.Errorf("wrong lab carried through: %+v", lab)
	}
	if lab.SourceDoc != "cbc.pdf" || lab.SourceDate != "2024-01-15" {
		t.Errorf("wrong source attribution: %+v", lab)
	}
	if len(snap.ActiveConditions) != 1 || snap.ActiveConditions[0] != "Hemoglobin (low)" {
		t.Errorf("expected low hemoglobin condition, got %v", snap.ActiveConditions)
	}
}
