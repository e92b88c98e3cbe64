package dto

import (
	"time"

	contactdomain "crm-backend/internal/contact/domain"
)

type MethodInput struct {
	MethodType string `json:"method_type" binding:"required,oneof=email phone linkedin"`
	Value      string `json:"value" binding:"required"`
	IsPrimary  bool   `json:"is_primary"`
}

type CreateContactRequest struct {
	Name          string        `json:"name" binding:"required"`
	Company       string        `json:"company"`
	Position      string        `json:"position"`
	Warm          bool          `json:"warm"`
	Reminder      *bool         `json:"reminder"`
	Notes         string        `json:"notes"`
	LastContacted *time.Time    `json:"last_contacted"`
	FollowUpDate  *time.Time    `json:"follow_up_date"`
	Methods       []MethodInput `json:"methods" binding:"required,min=1,dive"`
}

type UpdateContactRequest struct {
	Name          *string    `json:"name"`
	Company       *string    `json:"company"`
	Position      *string    `json:"position"`
	Warm          *bool      `json:"warm"`
	Reminder      *bool      `json:"reminder"`
	Notes         *string    `json:"notes"`
	LastContacted *time.Time `json:"last_contacted"`
	FollowUpDate  *time.Time `json:"follow_up_date"`
}

type ContactsResponse struct {
	Contacts []*contactdomain.Contact `json:"contacts"`
}

type EnrichRequest struct {
	// Optional override; defaults to the contact's linkedin method.
	LinkedInURL string `json:"linkedin_url"`
	// Overwrite lets the suggestion replace non-empty company/position values.
	Overwrite bool `json:"overwrite"`
}
