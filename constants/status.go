package constants

// BatchState is the canonical state of an upload batch.
type BatchState string

const (
	BatchIdle       BatchState = "IDLE"       // accepting input
	BatchProcessing BatchState = "PROCESSING" // one file in flight
	BatchConfirming BatchState = "CONFIRMING" // awaiting human decision
	BatchClosed     BatchState = "CLOSED"     // terminal
)

// FileStatus tracks a single file through the pipeline.
type FileStatus string

const (
	FileQueued      FileStatus = "QUEUED"
	FileExtractingT FileStatus = "EXTRACTING_TEXT" // stage 1 (0-50%)
	FileAwaitingLLM FileStatus = "AWAITING_MODEL"  // stage 2 (50-100%)
	FileConfirming  FileStatus = "AWAITING_CONFIRMATION"
	FileSaved       FileStatus = "SAVED"
	FileSkipped     FileStatus = "SKIPPED"
)
