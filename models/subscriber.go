package models

import "time"

// Subscriber statuses
const (
	StatusActive       = "active"
	StatusUnsubscribed = "unsubscribed"
)

// Subscriber is a newsletter recipient. Rows are never deleted; unsubscribing
// flips Status.
type Subscriber struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Email            string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	SubscribedAt     time.Time `gorm:"index;not null" json:"subscribed_at"`
	ValidationScore  int       `gorm:"default:0" json:"validation_score"`
	IPAddress        string    `gorm:"size:45;index" json:"ip_address"`
	UserAgent        string    `gorm:"type:text" json:"user_agent"`
	Status           string    `gorm:"size:20;default:'active';index" json:"status"` // active, unsubscribed
	UnsubscribeToken string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (s *Subscriber) IsActive() bool {
	return s.Status == StatusActive
}
