package domain

import "time"

// GmailAccount holds the OAuth credentials of the connected Gmail mailbox.
// The CRM is single-user: at most one account row exists. Tokens are stored
// encrypted; the usecase layer handles sealing and unsealing.
type GmailAccount struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	TokenExpiry  time.Time `json:"token_expiry"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
