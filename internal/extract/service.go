package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mediread/vault/internal/common"
	"github.com/mediread/vault/internal/entity"
	"github.com/mediread/vault/internal/llm"
)

const extractMaxTokens = 3000

// Result is the outcome of one extraction call.
type Result struct {
	Record      entity.ExtractedRecord
	RawResponse string
	// NeedsReview flags output that drifted from the prompt contract
	// (unknown tag, or schema mismatch in the raw model JSON).
	NeedsReview bool
}

// Service sends OCR text through the strict extraction prompt and parses
// the response into a typed record.
type Service struct {
	completer llm.Completer // nil when no credential is configured
	logger    *slog.Logger
}

func NewService(completer llm.Completer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{completer: completer, logger: logger}
}

// Configured reports whether a model backend is wired.
func (s *Service) Configured() bool {
	return s.completer != nil
}

// Extract runs one document's text through the model. Empty input is a
// validation error; a missing credential degrades to the unknown record
// without calling out; parse ambiguity is never surfaced as an error.
func (s *Service) Extract(ctx context.Context, rawText string) (Result, error) {
	start := time.Now()

	text := SanitizeText(rawText, MaxExtractChars)
	if IsBlank(text) {
		return Result{}, common.ValidationErrorf("no text provided")
	}

	if s.completer == nil {
		s.logger.Warn("extract.unconfigured", "hint", "set GROQ_API_KEY to enable extraction")
		return Result{Record: entity.UnknownRecord(), NeedsReview: true}, nil
	}

	s.logger.Info("extract.start", "text_len", len(text))

	content, err := s.completer.Complete(ctx, llm.CompletionRequest{
		System:      ExtractionSystemPrompt,
		Messages:    []llm.Message{{Role: "user", Content: BuildUserPrompt(text)}},
		Temperature: 0,
		MaxTokens:   extractMaxTokens,
	})
	if err != nil {
		if llm.IsRateLimited(err) {
			return Result{}, fmt.Errorf("%w: %v", common.ErrRateLimited, err)
		}
		return Result{}, fmt.Errorf("%w: %v", common.ErrServiceUnavailable, err)
	}

	rec := ParseRecord(content)
	needsReview := rec.DocumentType == entity.DocTypeUnknown

	if raw, ok := RecordJSON(content); ok {
		if verr := ValidateJSONAgainstSchema(BuildRecordJSONSchema(), raw); verr != nil {
			s.logger.Warn("extract.schema_mismatch", "error", verr)
			needsReview = true
		}
	}

	s.logger.Info("extract.ok",
		"document_type", string(rec.DocumentType),
		"needs_review", needsReview,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Result{Record: rec, RawResponse: content, NeedsReview: needsReview}, nil
}
