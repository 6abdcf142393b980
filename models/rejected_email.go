package models

import "time"

// RejectedEmail records a signup that failed validation or rate limiting.
// Recovery promotes it to a Subscriber and hard-deletes the row.
type RejectedEmail struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Email           string    `gorm:"size:254;index;not null" json:"email"`
	RejectionReason string    `gorm:"size:255;index;not null" json:"rejection_reason"`
	SubmittedAt     time.Time `gorm:"index;not null" json:"submitted_at"`
	IPAddress       string    `gorm:"size:45" json:"ip_address"`
	UserAgent       string    `gorm:"type:text" json:"user_agent"`
}

// ReasonCount is one row of the rejection breakdown.
type ReasonCount struct {
	Reason string `json:"reason"`
	Count  int64  `json:"count"`
}
