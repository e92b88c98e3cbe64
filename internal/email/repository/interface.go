package repository

import (
	"time"

	emaildomain "crm-backend/internal/email/domain"
)

// EmailRepository persists synced and manually recorded emails.
type EmailRepository interface {
	// Create inserts the email along with its contact links.
	Create(email *emaildomain.Email) error
	Update(email *emaildomain.Email) error
	Delete(id string) error

	FindByID(id string) (*emaildomain.Email, error)
	ExistsByMessageID(messageID string) (bool, error)

	List(limit, offset int) ([]*emaildomain.Email, int, error)
	ListByContact(contactID string, limit, offset int) ([]*emaildomain.Email, int, error)
	ListByIDs(ids []string) ([]*emaildomain.Email, error)

	// SearchCandidates pre-filters candidates for fuzzy ranking with a cheap
	// substring match over subject and sender fields.
	SearchCandidates(query string, limit int) ([]*emaildomain.Email, error)

	SetRead(id string, read bool) error
	SetSummary(id, summary string) error
	MarkIndexed(id string, at time.Time) error

	// FindUnindexed returns emails not yet embedded into the vector store,
	// newest first.
	FindUnindexed(limit int) ([]*emaildomain.Email, error)
}
