package models

import "time"

// CapturedImage is one uploaded photo row. The (ObjectLabel, UserID, Day)
// uniqueness is what makes same-day re-uploads idempotent for reward
// purposes: the conditional insert on that key either takes the row or
// falls through to the duplicate path.
type CapturedImage struct {
	ObjectLabel   string            `gorm:"primaryKey;size:128" json:"object_label"`
	UserID        string            `gorm:"primaryKey;size:64;index" json:"user_id"`
	Day           int64             `gorm:"primaryKey" json:"day"`
	ID            string            `gorm:"type:uuid;index" json:"id"`
	ContentType   string            `gorm:"size:64" json:"content_type"`
	Size          int64             `json:"size"`
	Description   string            `gorm:"type:text" json:"description,omitempty"`
	Metadata      map[string]string `gorm:"serializer:json" json:"metadata,omitempty"`
	Verifications int               `json:"verifications"`
	CreatedAt     time.Time         `json:"created_at"`
}

// CapturedImageWithDownloadURL attaches a short-lived presigned URL.
type CapturedImageWithDownloadURL struct {
	CapturedImage
	DownloadURL string `json:"download_url"`
}
