package repository

import (
	"time"

	contactdomain "crm-backend/internal/contact/domain"
)

// ContactRepository persists contacts and their methods.
type ContactRepository interface {
	Create(contact *contactdomain.Contact) error
	Update(contact *contactdomain.Contact) error
	Delete(id string) error
	FindByID(id string) (*contactdomain.Contact, error)

	// Search filters by case-insensitive substrings of name/company and by
	// email method value. Zero-value filters are ignored.
	Search(name, email, company string, limit, offset int) ([]*contactdomain.Contact, int, error)

	// FindByEmailAddress returns contacts holding the exact email method value.
	FindByEmailAddress(email string) ([]*contactdomain.Contact, error)

	// FindByEmailAddresses returns contacts holding any of the given email
	// method values.
	FindByEmailAddresses(addrs []string) ([]*contactdomain.Contact, error)

	// FindDueFollowUps returns contacts with reminders enabled whose follow-up
	// date is on or before asOf.
	FindDueFollowUps(asOf time.Time) ([]*contactdomain.Contact, error)

	FindMethodByValue(value string) (*contactdomain.ContactMethod, error)
	AddMethod(method *contactdomain.ContactMethod) error
	DeleteMethod(contactID, methodID string) error

	// ClearPrimary unsets is_primary on all of the contact's methods of the
	// given type except exceptID.
	ClearPrimary(contactID, methodType, exceptID string) error
}
