package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentRole distinguishes the two input documents of an analysis.
type DocumentRole string

const (
	RoleReference DocumentRole = "reference"
	RoleTarget    DocumentRole = "target"
)

// DocumentRecord represents an uploaded input document.
type DocumentRecord struct {
	ID          uuid.UUID    `json:"id"`
	JobID       uuid.UUID    `json:"job_id"`
	Role        DocumentRole `json:"role"`
	Filename    string       `json:"filename"`
	MimeType    string       `json:"mime_type"`
	Size        int64        `json:"size"`
	StoragePath string       `json:"storage_path"`
	CreatedAt   time.Time    `json:"created_at"`
}
