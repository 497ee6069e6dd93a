package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/mediread/vault/constants"
	"github.com/mediread/vault/internal/common"
	"github.com/mediread/vault/internal/entity"
)

// DocumentStore owns persisted health documents. Last-writer-wins; the
// system has exactly one writer (the local user's session).
type DocumentStore interface {
	Put(ctx context.Context, doc entity.Document) error
	// GetAll returns documents ordered newest-first by document date
	// (upload time as tiebreaker).
	GetAll(ctx context.Context) ([]entity.Document, error)
	Get(ctx context.Context, id string) (*entity.Document, error)
	Delete(ctx context.Context, id string) error
}

type documentStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewDocumentStore(db *sql.DB, logger *slog.Logger) DocumentStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentStore{db: db, logger: logger}
}

func (s *documentStore) Put(ctx context.Context, doc entity.Document) error {
	extracted, err := json.Marshal(doc.Extracted)
	if err != nil {
		return common.WrapError(err, "encode extracted record")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (id, file_name, file_type, file_data, file_mime_type, uploaded_at, document_date, raw_text, extracted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			document_date = excluded.document_date,
			extracted     = excluded.extracted`,
		doc.ID, doc.FileName, string(doc.FileType), doc.FileData, doc.FileMimeType,
		doc.UploadedAt, doc.DocumentDate, doc.RawText, string(extracted),
	)
	if err != nil {
		s.logger.Error("documents.put.failed", "id", doc.ID, "error", err)
		return common.WrapError(err, "put document")
	}
	s.logger.Debug("documents.put.ok", "id", doc.ID, "file", doc.FileName)
	return nil
}

func (s *documentStore) GetAll(ctx context.Context) ([]entity.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_name, file_type, file_data, file_mime_type, uploaded_at, document_date, raw_text, extracted
		FROM documents
		ORDER BY document_date DESC, uploaded_at DESC`)
	if err != nil {
		return nil, common.WrapError(err, "query documents")
	}
	defer rows.Close()

	var docs []entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *documentStore) Get(ctx context.Context, id string) (*entity.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, file_name, file_type, file_data, file_mime_type, uploaded_at, document_date, raw_text, extracted
		FROM documents WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFoundErrorf("document %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *documentStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return common.WrapError(err, "delete document")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.NotFoundErrorf("document %s", id)
	}
	s.logger.Debug("documents.delete.ok", "id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(r rowScanner) (entity.Document, error) {
	var doc entity.Document
	var fileType, extracted string
	if err := r.Scan(&doc.ID, &doc.FileName, &fileType, &doc.FileData, &doc.FileMimeType,
		&doc.UploadedAt, &doc.DocumentDate, &doc.RawText, &extracted); err != nil {
		return entity.Document{}, err
	}
	doc.FileType = constants.FileFormat(fileType)
	// lenient decode: a malformed stored record degrades to unknown
	// rather than breaking the whole listing
	_ = json.Unmarshal([]byte(extracted), &doc.Extracted)
	if !doc.Extracted.DocumentType.Valid() {
		doc.Extracted = entity.UnknownRecord()
	}
	return doc, nil
}
