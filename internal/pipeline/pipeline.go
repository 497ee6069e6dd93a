// Package pipeline drives a queue of uploaded files through text
// extraction, model extraction and human confirmation, one file at a
// time. The confirm/skip step is a suspension point: Next returns the
// pending file and the controller stays parked until Confirm or Skip
// resolves it. Per-file failures never abort the batch.
package pipeline

import (
	"context"
	"encoding/base64"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mediread/vault/constants"
	"github.com/mediread/vault/internal/common"
	"github.com/mediread/vault/internal/entity"
	"github.com/mediread/vault/internal/extract"
	"github.com/mediread/vault/internal/textextract"
)

// RecordExtractor is the model-extraction step (see extract.Service).
type RecordExtractor interface {
	Extract(ctx context.Context, rawText string) (extract.Result, error)
}

// DocumentSaver persists confirmed documents.
type DocumentSaver interface {
	Put(ctx context.Context, doc entity.Document) error
}

// FileInput is one queued upload.
type FileInput struct {
	Path     string
	FileName string // defaults to base of Path
}

// Pending is a processed file awaiting the human decision.
type Pending struct {
	FileName    string
	FileType    constants.FileFormat
	FileDataURL string
	MimeType    string
	RawText     string
	Extracted   entity.ExtractedRecord
	NeedsReview bool
}

// FileResult is the terminal outcome of one file.
type FileResult struct {
	FileName string
	Status   constants.FileStatus
	Err      string
}

// Progress is a point-in-time view of the batch.
type Progress struct {
	State        constants.BatchState
	FileStatus   constants.FileStatus
	CurrentIndex int
	TotalFiles   int
	SavedCount   int
	StatusText   string
	Percent      int
	Results      []FileResult
}

type Option func(*Pipeline)

// WithAdvanceDelay pauses after a per-file failure before moving on, so
// an attached UI can surface the skip message.
func WithAdvanceDelay(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.advanceDelay = d
		}
	}
}

// WithProgressFunc registers a callback invoked on stage transitions.
func WithProgressFunc(fn func(Progress)) Option {
	return func(p *Pipeline) { p.onProgress = fn }
}

// Pipeline is the batch controller. One instance per upload batch.
type Pipeline struct {
	text      textextract.TextExtractor
	extractor RecordExtractor
	docs      DocumentSaver
	logger    *slog.Logger

	advanceDelay time.Duration
	onProgress   func(Progress)
	sleep        func(time.Duration)
	now          func() time.Time
	newID        func() string

	mu         sync.Mutex
	busy       bool
	state      constants.BatchState
	queue      []FileInput
	index      int
	saved      int
	pending    *Pending
	results    []FileResult
	statusText string
	percent    int
	fileStatus constants.FileStatus
}

func NewPipeline(text textextract.TextExtractor, extractor RecordExtractor, docs DocumentSaver, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		text:      text,
		extractor: extractor,
		docs:      docs,
		logger:    logger,
		sleep:     time.Sleep,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
		state:     constants.BatchIdle,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Enqueue appends files to the batch. Drops during processing are
// queued, never interleaved.
func (p *Pipeline) Enqueue(files ...FileInput) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == constants.BatchClosed {
		return common.ValidationErrorf("batch is closed")
	}
	for _, f := range files {
		if f.FileName == "" {
			f.FileName = filepath.Base(f.Path)
		}
		p.queue = append(p.queue, f)
	}
	return nil
}

// Next advances through queued files until one awaits confirmation or
// the batch is exhausted. It returns the pending file, or nil when the
// batch has closed. Files whose text extraction yields nothing, or whose
// model extraction fails, are recorded as skipped and the batch
// continues. Calling Next while a confirmation is pending returns the
// same pending file.
func (p *Pipeline) Next(ctx context.Context) (*Pending, error) {
	p.mu.Lock()
	if p.state == constants.BatchClosed {
		p.mu.Unlock()
		return nil, nil
	}
	if p.pending != nil {
		pend := p.pending
		p.mu.Unlock()
		return pend, nil
	}
	if p.busy {
		p.mu.Unlock()
		return nil, common.ValidationErrorf("a file is already being processed")
	}
	p.busy = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.busy = false
		p.mu.Unlock()
	}()

	for {
		p.mu.Lock()
		if p.index >= len(p.queue) {
			p.state = constants.BatchClosed
			p.statusText = ""
			p.percent = 0
			p.mu.Unlock()
			p.notify()
			p.logger.Info("pipeline.batch.closed", "total", len(p.queue), "saved", p.saved)
			return nil, nil
		}
		file := p.queue[p.index]
		p.state = constants.BatchProcessing
		p.mu.Unlock()

		pend, skip := p.processFile(ctx, file)
		if skip != nil {
			p.recordSkip(file.FileName, skip.reason)
			if p.advanceDelay > 0 {
				// let the user read the skip message before moving on
				p.sleep(p.advanceDelay)
			}
			continue
		}

		p.mu.Lock()
		p.pending = pend
		p.state = constants.BatchConfirming
		p.setStage(constants.FileConfirming, "Review the extracted record for "+file.FileName, 100)
		p.mu.Unlock()
		p.notify()
		return pend, nil
	}
}

type skipOutcome struct {
	reason string
}

// processFile runs both stages for one file. Text extraction covers
// progress 0-50, model extraction 50-100.
func (p *Pipeline) processFile(ctx context.Context, file FileInput) (*Pending, *skipOutcome) {
	format := constants.MapExtToFormat(filepath.Ext(file.Path))
	if format == "" {
		return nil, &skipOutcome{reason: "unsupported file type"}
	}

	p.stage(constants.FileExtractingT, "Extracting text from "+file.FileName+"...", 10)

	res, err := p.text.ExtractText(ctx, file.Path)
	if err != nil {
		p.logger.Error("pipeline.textextract.failed", "file", file.FileName, "error", err)
		return nil, &skipOutcome{reason: "text extraction failed: " + err.Error()}
	}
	p.stage(constants.FileExtractingT, "Extracted text from "+file.FileName, 50)

	if strings.TrimSpace(res.Text) == "" {
		p.logger.Warn("pipeline.textextract.empty", "file", file.FileName)
		return nil, &skipOutcome{reason: "no text could be extracted from " + file.FileName}
	}

	p.stage(constants.FileAwaitingLLM, "Analyzing "+file.FileName+" with AI...", 60)

	extracted, err := p.extractor.Extract(ctx, res.Text)
	if err != nil {
		p.logger.Error("pipeline.extract.failed", "file", file.FileName, "error", err)
		return nil, &skipOutcome{reason: "extraction failed: " + err.Error()}
	}
	p.stage(constants.FileAwaitingLLM, "Analyzed "+file.FileName, 100)

	dataURL, mimeType, err := readAsDataURL(file.Path)
	if err != nil {
		p.logger.Error("pipeline.read.failed", "file", file.FileName, "error", err)
		return nil, &skipOutcome{reason: "could not read file: " + err.Error()}
	}

	return &Pending{
		FileName:    file.FileName,
		FileType:    format,
		FileDataURL: dataURL,
		MimeType:    mimeType,
		RawText:     res.Text,
		Extracted:   extracted.Record,
		NeedsReview: extracted.NeedsReview,
	}, nil
}

// Confirm persists the human-approved record. The document date is the
// single hard validation gate between model output and storage. On a
// store failure the file stays pending so the user can retry.
func (p *Pipeline) Confirm(ctx context.Context, record entity.ExtractedRecord, documentDate string) error {
	p.mu.Lock()
	pend := p.pending
	p.mu.Unlock()
	if pend == nil {
		return common.ValidationErrorf("no file awaiting confirmation")
	}
	if strings.TrimSpace(documentDate) == "" {
		return common.ValidationErrorf("document date is required")
	}

	doc := entity.Document{
		ID:           p.newID(),
		FileName:     pend.FileName,
		FileType:     pend.FileType,
		FileData:     pend.FileDataURL,
		FileMimeType: pend.MimeType,
		UploadedAt:   p.now().UTC().Format(time.RFC3339),
		DocumentDate: documentDate,
		RawText:      pend.RawText,
		Extracted:    record,
	}
	if err := p.docs.Put(ctx, doc); err != nil {
		p.logger.Error("pipeline.save.failed", "file", pend.FileName, "error", err)
		return common.WrapError(err, "save document")
	}

	p.mu.Lock()
	p.saved++
	p.results = append(p.results, FileResult{FileName: pend.FileName, Status: constants.FileSaved})
	p.pending = nil
	p.index++
	p.state = constants.BatchProcessing
	p.mu.Unlock()
	p.notify()

	p.logger.Info("pipeline.file.saved",
		"file", pend.FileName,
		"document_id", doc.ID,
		"document_type", string(record.DocumentType),
	)
	return nil
}

// Skip discards the pending file without persistence and advances.
func (p *Pipeline) Skip() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		return common.ValidationErrorf("no file awaiting confirmation")
	}
	p.results = append(p.results, FileResult{FileName: p.pending.FileName, Status: constants.FileSkipped})
	p.logger.Info("pipeline.file.skipped", "file", p.pending.FileName, "reason", "user skip")
	p.pending = nil
	p.index++
	p.state = constants.BatchProcessing
	return nil
}

// Close abandons any queued files. Already-persisted documents remain
// persisted; there is no compensating rollback.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = constants.BatchClosed
	p.pending = nil
}

// DocumentsChanged reports whether at least one save occurred.
func (p *Pipeline) DocumentsChanged() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saved > 0
}

// Progress returns a snapshot of batch state. Saved count and current
// index only ever advance after a file's terminal outcome.
func (p *Pipeline) Progress() Progress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.progressLocked()
}

func (p *Pipeline) progressLocked() Progress {
	results := make([]FileResult, len(p.results))
	copy(results, p.results)
	return Progress{
		State:        p.state,
		FileStatus:   p.fileStatus,
		CurrentIndex: p.index,
		TotalFiles:   len(p.queue),
		SavedCount:   p.saved,
		StatusText:   p.statusText,
		Percent:      p.percent,
		Results:      results,
	}
}

func (p *Pipeline) recordSkip(fileName, reason string) {
	p.mu.Lock()
	p.results = append(p.results, FileResult{FileName: fileName, Status: constants.FileSkipped, Err: reason})
	p.statusText = reason
	p.index++
	p.mu.Unlock()
	p.notify()
	p.logger.Warn("pipeline.file.skipped", "file", fileName, "reason", reason)
}

func (p *Pipeline) stage(status constants.FileStatus, text string, percent int) {
	p.mu.Lock()
	p.setStage(status, text, percent)
	p.mu.Unlock()
	p.notify()
}

func (p *Pipeline) setStage(status constants.FileStatus, text string, percent int) {
	p.fileStatus = status
	p.statusText = text
	p.percent = percent
}

func (p *Pipeline) notify() {
	if p.onProgress == nil {
		return
	}
	p.mu.Lock()
	prog := p.progressLocked()
	p.mu.Unlock()
	p.onProgress(prog)
}

func readAsDataURL(path string) (string, string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	ext := strings.ToLower(filepath.Ext(path))
	mt := mime.TypeByExtension(ext)
	if mt == "" {
		switch constants.NormalizeExt(ext) {
		case "jpg", "jpeg":
			mt = "image/jpeg"
		case "png":
			mt = "image/png"
		case "pdf":
			mt = "application/pdf"
		default:
			mt = "application/octet-stream"
		}
	}
	data := base64.StdEncoding.EncodeToString(b)
	return "data:" + mt + ";base64," + data, mt, nil
}
