package models

import "time"

type StoryStatus string

const (
	StoryStatusGenerating StoryStatus = "generating"
	StoryStatusCompleted  StoryStatus = "completed"
)

type Story struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Title     string      `json:"title"`
	Content   string      `json:"content"`
	Image     string      `json:"image"`
	Status    StoryStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

// UploadedImage holds a user-supplied image only long enough to validate
// it and forward it to storage. It is never persisted.
type UploadedImage struct {
	Data     []byte
	MimeType string
	Filename string
}
