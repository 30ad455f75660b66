package model

import (
	"strings"
	"time"

	"schedule-ai-ingestion/internal/domain"
)

// ScheduleItem is one assignment or event extracted from an uploaded file.
// Items are immutable once persisted; corrections happen by reprocessing the
// file, never by editing items.
type ScheduleItem struct {
	ID          string // UUID, assigned by the repository
	FileID      string // UUID of the source file
	UserID      string // UUID of owner
	Description string
	DueDate     *string // YYYY-MM-DD, nil when the source named no usable date
	Location    *string // nil when the source named no location
	SourceName  string  // label of the document the item came from
	CreatedAt   time.Time
}

// NewScheduleItem builds an extraction candidate. Description and source must
// be non-blank; dates and locations stay optional.
func NewScheduleItem(description, sourceName string, dueDate, location *string) (*ScheduleItem, error) {
	description = strings.TrimSpace(description)
	sourceName = strings.TrimSpace(sourceName)
	if description == "" || sourceName == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &ScheduleItem{
		Description: description,
		DueDate:     dueDate,
		Location:    location,
		SourceName:  sourceName,
	}, nil
}
