package dto

import (
	"time"

	emaildomain "crm-backend/internal/email/domain"
)

type CreateEmailRequest struct {
	Subject       string     `json:"subject"`
	Content       string     `json:"content" binding:"required"`
	Date          *time.Time `json:"date"`
	Sender        string     `json:"sender"`
	SenderName    string     `json:"sender_name"`
	Recipient     string     `json:"recipient"`
	RecipientName string     `json:"recipient_name"`
	ContactIDs    []string   `json:"contact_ids"`
}

type EmailsResponse struct {
	Emails []*emaildomain.Email `json:"emails"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
	Total  int                  `json:"total"`
}

type SearchResult struct {
	Email *emaildomain.Email `json:"email"`
	Score float64            `json:"score"`
}

type SearchResponse struct {
	Results []*SearchResult `json:"results"`
	Mode    string          `json:"mode"`
	Query   string          `json:"query"`
}

type SyncRequest struct {
	// Optional cap on messages fetched this run.
	Max int `json:"max"`
	// Optional contact filters; a full sync targets every contact.
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
}

func (r *SyncRequest) Filtered() bool {
	return r.Name != "" || r.Email != "" || r.Company != ""
}
