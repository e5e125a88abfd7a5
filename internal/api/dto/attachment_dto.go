package dto

import "time"

// AttachmentResponse describes a stored attachment file.
type AttachmentResponse struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}
