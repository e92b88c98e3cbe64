package domain

import (
	"time"

	contactdomain "crm-backend/internal/contact/domain"
)

// Email is a synced (or manually recorded) message.
type Email struct {
	ID            string     `json:"id" gorm:"primaryKey"`
	MessageID     string     `json:"message_id" gorm:"uniqueIndex"`
	ThreadID      string     `json:"thread_id"`
	Subject       string     `json:"subject"`
	Content       string     `json:"content"`
	Summary       string     `json:"summary"`
	Date          time.Time  `json:"date" gorm:"not null"`
	Sender        string     `json:"sender"`
	SenderName    string     `json:"sender_name"`
	Recipient     string     `json:"recipient"`
	RecipientName string     `json:"recipient_name"`
	IsRead        bool       `json:"is_read"`
	HasAttachment bool       `json:"has_attachment"`
	IndexedAt     *time.Time `json:"indexed_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	Contacts []contactdomain.Contact `json:"contacts,omitempty" gorm:"many2many:contact_emails"`
}

// SyncReport tallies the outcome of one sync run. Individual message failures
// are counted here instead of aborting the batch.
type SyncReport struct {
	Saved   int `json:"saved"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Message is a Gmail message as fetched from the provider, before it is
// persisted as an Email row.
type Message struct {
	MessageID     string
	ThreadID      string
	Subject       string
	Body          string
	Sender        string
	SenderName    string
	Recipient     string
	RecipientName string
	Date          time.Time
	IsRead        bool
	HasAttachment bool
}
