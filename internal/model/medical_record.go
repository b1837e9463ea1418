package model

import (
	"time"
)

// MedicalReport is an uploaded report file. The binary lives in the
// storage bucket; this record carries the metadata the UI lists.
type MedicalReport struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	FileName   string    `json:"file_name"`
	MimeType   string    `json:"mime_type"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedAt time.Time `json:"uploaded_at"`
}
