package entity

import "github.com/mediread/vault/constants"

// Document is a persisted health document. UploadedAt and RawText are
// immutable after creation; DocumentDate and Extracted are replaced
// wholesale when the user re-edits the record.
type Document struct {
	ID           string               `json:"id"`
	FileName     string               `json:"fileName"`
	FileType     constants.FileFormat `json:"fileType"`
	FileData     string               `json:"fileData"` // base64 data URL of the original file
	FileMimeType string               `json:"fileMimeType"`
	UploadedAt   string               `json:"uploadedAt"` // RFC 3339, set at creation
	DocumentDate string               `json:"documentDate"`
	RawText      string               `json:"rawText"`
	Extracted    ExtractedRecord      `json:"extracted"`
}
