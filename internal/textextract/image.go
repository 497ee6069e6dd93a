package textextract

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mediread/vault/constants"
)

// extractImage runs tesseract OCR on an image file.
func (e *Extractor) extractImage(ctx context.Context, path string) (ExtractionResult, error) {
	res := ExtractionResult{
		SourceType: constants.IMAGE,
		Method:     "image-ocr",
		Language:   e.cfg.TesseractLang,
		Pages:      1,
	}

	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}

	out, stderr, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return res, fmt.Errorf("tesseract: %w (%s)", err, strings.TrimSpace(string(stderr)))
	}

	res.Text = Normalize(string(out))
	e.logger.Debug("textextract.image_ok", "path", path, "chars", len(res.Text))
	return res, nil
}
