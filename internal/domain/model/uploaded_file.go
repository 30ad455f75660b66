package model

import (
	"time"

	"schedule-ai-ingestion/internal/domain"
)

type ProcessingStatus string

const (
	StatusPending       ProcessingStatus = "pending"
	StatusProcessing    ProcessingStatus = "processing"
	StatusTextExtracted ProcessingStatus = "text_extracted"
	StatusCompleted     ProcessingStatus = "completed"
	StatusFailed        ProcessingStatus = "failed"
)

// Terminal reports whether the status accepts no further transitions.
func (s ProcessingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether moving from s to next is a legal step of the
// ingestion state machine. Progress is monotone; failed is reachable only
// while work is underway.
func (s ProcessingStatus) CanTransition(next ProcessingStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing
	case StatusProcessing:
		return next == StatusTextExtracted || next == StatusFailed
	case StatusTextExtracted:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

// UploadedFile is one stored upload moving through the ingestion pipeline.
// The upload handler creates it as pending; the worker advances it.
type UploadedFile struct {
	ID              string // UUID
	UserID          string // UUID of owner
	OriginalName    string
	StorageLocation string // where the raw bytes live, resolved by the file store
	SizeBytes       int64
	ContentType     string // declared at upload time, trusted as-is
	Status          ProcessingStatus
	ProcessingError string // set only when Status is failed
	ExtractedText   string // set at text_extracted, never cleared afterwards
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewUploadedFile creates a pending file record.
func NewUploadedFile(id, userID, originalName, storageLocation, contentType string, sizeBytes int64) (*UploadedFile, error) {
	if id == "" || userID == "" || storageLocation == "" || contentType == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &UploadedFile{
		ID:              id,
		UserID:          userID,
		OriginalName:    originalName,
		StorageLocation: storageLocation,
		SizeBytes:       sizeBytes,
		ContentType:     contentType,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}
