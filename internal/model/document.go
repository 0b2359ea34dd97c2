package model

import "time"

// Document represents stored document metadata (manuals, loan forms).
// VisibilityRole controls who can see it: "user" documents are visible to
// everyone, "admin" documents only to admins.
type Document struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Path           string    `json:"path"`
	VisibilityRole string    `json:"visibility_role"`
	UploadedBy     int64     `json:"uploaded_by"`
	UploadedAt     time.Time `json:"uploaded_at"`
}
