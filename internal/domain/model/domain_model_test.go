//go:build !integration

package model

import (
	"errors"
	"testing"
	"time"

	"schedule-ai-ingestion/internal/domain"
)

// --- ProcessingStatus Tests ---

func TestProcessingStatusCanTransition(t *testing.T) {
	allowed := map[ProcessingStatus][]ProcessingStatus{
		StatusPending:       {StatusProcessing},
		StatusProcessing:    {StatusTextExtracted, StatusFailed},
		StatusTextExtracted: {StatusCompleted, StatusFailed},
		StatusCompleted:     {},
		StatusFailed:        {},
	}
	all := []ProcessingStatus{StatusPending, StatusProcessing, StatusTextExtracted, StatusCompleted, StatusFailed}

	for from, nexts := range allowed {
		legal := make(map[ProcessingStatus]bool, len(nexts))
		for _, n := range nexts {
			legal[n] = true
		}
		for _, to := range all {
			if got := from.CanTransition(to); got != legal[to] {
				t.Errorf("CanTransition(%s -> %s) = %v, want %v", from, to, got, legal[to])
			}
		}
	}

	t.Run("should reject self transitions", func(t *testing.T) {
		for _, s := range all {
			if s.CanTransition(s) {
				t.Errorf("expected %s -> %s to be illegal", s, s)
			}
		}
	})

	t.Run("should reject unknown statuses", func(t *testing.T) {
		if ProcessingStatus("archived").CanTransition(StatusProcessing) {
			t.Error("expected unknown status to allow no transitions")
		}
	})
}

func TestProcessingStatusTerminal(t *testing.T) {
	terminal := map[ProcessingStatus]bool{
		StatusPending:       false,
		StatusProcessing:    false,
		StatusTextExtracted: false,
		StatusCompleted:     true,
		StatusFailed:        true,
	}
	for s, want := range terminal {
		if got := s.Terminal(); got != want {
			t.Errorf("Terminal(%s) = %v, want %v", s, got, want)
		}
	}
}

// --- UploadedFile Model Tests ---

func TestNewUploadedFile(t *testing.T) {
	t.Run("should create a pending file successfully", func(t *testing.T) {
		startTime := time.Now()
		f, err := NewUploadedFile("file-1", "user-1", "syllabus.pdf", "u/1/syllabus.pdf", "application/pdf", 2048)

		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if f == nil {
			t.Fatal("expected file to be non-nil, but got nil")
		}
		if f.Status != StatusPending {
			t.Errorf("expected status 'pending', but got '%s'", f.Status)
		}
		if f.ContentType != "application/pdf" {
			t.Errorf("expected content type to survive, but got '%s'", f.ContentType)
		}
		if f.SizeBytes != 2048 {
			t.Errorf("expected size 2048, but got %d", f.SizeBytes)
		}
		if f.ExtractedText != "" || f.ProcessingError != "" {
			t.Error("expected a fresh file to carry no text and no error")
		}
		if time.Since(startTime) > time.Second {
			t.Error("file.CreatedAt timestamp is too far from current time")
		}
		if !f.CreatedAt.Equal(f.UpdatedAt) {
			t.Error("expected CreatedAt and UpdatedAt to match on creation")
		}
	})

	t.Run("should allow an empty original name", func(t *testing.T) {
		// Some upload paths never learn a filename; the label falls back to the ID.
		if _, err := NewUploadedFile("file-1", "user-1", "", "u/1/blob", "text/plain", 10); err != nil {
			t.Fatalf("expected no error for empty original name, but got: %v", err)
		}
	})

	t.Run("should fail on missing identifiers", func(t *testing.T) {
		cases := []struct {
			name                                string
			id, userID, storageLoc, contentType string
		}{
			{"empty id", "", "user-1", "u/1/blob", "application/pdf"},
			{"empty user id", "file-1", "", "u/1/blob", "application/pdf"},
			{"empty storage location", "file-1", "user-1", "", "application/pdf"},
			{"empty content type", "file-1", "user-1", "u/1/blob", ""},
		}
		for _, tc := range cases {
			f, err := NewUploadedFile(tc.id, tc.userID, "syllabus.pdf", tc.storageLoc, tc.contentType, 10)
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("%s: expected ErrInvalidArgument, but got %v", tc.name, err)
			}
			if f != nil {
				t.Errorf("%s: expected file to be nil on error", tc.name)
			}
		}
	})
}

// --- ScheduleItem Model Tests ---

func TestNewScheduleItem(t *testing.T) {
	t.Run("should create an item and trim its fields", func(t *testing.T) {
		due := "2026-09-12"
		loc := "Room 204"
		item, err := NewScheduleItem("  Essay on Kant  ", " syllabus.pdf ", &due, &loc)

		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if item.Description != "Essay on Kant" {
			t.Errorf("expected description trimmed, but got '%s'", item.Description)
		}
		if item.SourceName != "syllabus.pdf" {
			t.Errorf("expected source trimmed, but got '%s'", item.SourceName)
		}
		if item.DueDate == nil || *item.DueDate != "2026-09-12" {
			t.Errorf("expected due date to survive, but got %v", item.DueDate)
		}
		if item.Location == nil || *item.Location != "Room 204" {
			t.Errorf("expected location to survive, but got %v", item.Location)
		}
	})

	t.Run("should accept nil due date and location", func(t *testing.T) {
		item, err := NewScheduleItem("Final exam", "plan.xlsx", nil, nil)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if item.DueDate != nil || item.Location != nil {
			t.Error("expected optional fields to stay nil")
		}
	})

	t.Run("should fail on a blank description", func(t *testing.T) {
		for _, desc := range []string{"", "   ", "\t\n"} {
			item, err := NewScheduleItem(desc, "syllabus.pdf", nil, nil)
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("description %q: expected ErrInvalidArgument, but got %v", desc, err)
			}
			if item != nil {
				t.Errorf("description %q: expected item to be nil on error", desc)
			}
		}
	})

	t.Run("should fail on a blank source name", func(t *testing.T) {
		item, err := NewScheduleItem("Final exam", "  ", nil, nil)
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, but got %v", err)
		}
		if item != nil {
			t.Error("expected item to be nil on error")
		}
	})
}
