package textextract

import (
	"context"
	"fmt"
	"strings"

	"github.com/mediread/vault/constants"
)

// extractPDF pulls the text layer with pdftotext. Scanned PDFs without a
// text layer legitimately come back empty.
func (e *Extractor) extractPDF(ctx context.Context, path string) (ExtractionResult, error) {
	res := ExtractionResult{SourceType: constants.PDF, Method: "pdf-text"}

	out, stderr, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		return res, fmt.Errorf("pdftotext: %w (%s)", err, strings.TrimSpace(string(stderr)))
	}

	raw := string(out)
	// pdftotext separates pages with form feeds
	res.Pages = strings.Count(raw, "\f") + 1
	res.Text = Normalize(raw)

	e.logger.Debug("textextract.pdf_ok", "path", path, "pages", res.Pages, "chars", len(res.Text))
	return res, nil
}
