package jobs

import (
	"fmt"
	"strings"
	"time"
)

// Status captures the local lifecycle of a submission attempt.
type Status string

const (
	StatusPending     Status = "pending"
	StatusUploading   Status = "uploading"
	StatusCreating    Status = "creating"
	StatusPolling     Status = "polling"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusUnconfirmed Status = "unconfirmed"
)

// AllStatuses lists every status in lifecycle order.
func AllStatuses() []Status {
	return []Status{
		StatusPending,
		StatusUploading,
		StatusCreating,
		StatusPolling,
		StatusCompleted,
		StatusFailed,
		StatusUnconfirmed,
	}
}

// ParseStatus validates a user-supplied status string.
func ParseStatus(value string) (Status, error) {
	candidate := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range AllStatuses() {
		if candidate == status {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", value)
}

// Active reports whether the record describes work still in flight.
func (s Status) Active() bool {
	switch s {
	case StatusPending, StatusUploading, StatusCreating, StatusPolling:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transitions are expected.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusUnconfirmed:
		return true
	default:
		return false
	}
}

// Record is one submission attempt as stored in the ledger.
type Record struct {
	ID      int64  `json:"id"`
	JobName string `json:"job_name"`

	SourceName string `json:"source_name"`
	SourcePath string `json:"source_path,omitempty"`
	SourceKind string `json:"source_kind"`
	SourceSize int64  `json:"source_size"`

	Bucket   string `json:"bucket,omitempty"`
	Key      string `json:"key,omitempty"`
	MediaURI string `json:"media_uri,omitempty"`

	Mode         string `json:"mode"`
	MaxSpeakers  int    `json:"max_speakers,omitempty"`
	Channel0Role string `json:"channel_0_role,omitempty"`

	Status       Status `json:"status"`
	RemoteStatus string `json:"remote_status,omitempty"`

	ProgressStage   string `json:"progress_stage,omitempty"`
	ProgressPercent int    `json:"progress_percent"`
	ProgressMessage string `json:"progress_message,omitempty"`

	ErrorMessage     string `json:"error_message,omitempty"`
	ConversationPath string `json:"conversation_path,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Stats summarizes ledger contents for display.
type Stats struct {
	Total    int64            `json:"total"`
	ByStatus map[Status]int64 `json:"by_status"`
}
