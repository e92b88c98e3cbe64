package domain

import "time"

// Method types a contact can be reached through.
const (
	MethodEmail    = "email"
	MethodPhone    = "phone"
	MethodLinkedIn = "linkedin"
)

// ValidMethodType reports whether t is a supported contact method type.
func ValidMethodType(t string) bool {
	return t == MethodEmail || t == MethodPhone || t == MethodLinkedIn
}

// Contact is a person tracked by the CRM.
type Contact struct {
	ID            string     `json:"id" gorm:"primaryKey"`
	Name          string     `json:"name" gorm:"not null"`
	Company       string     `json:"company"`
	Position      string     `json:"position"`
	LastContacted *time.Time `json:"last_contacted"`
	FollowUpDate  *time.Time `json:"follow_up_date"`
	Warm          bool       `json:"warm"`
	Reminder      bool       `json:"reminder" gorm:"default:true"`
	Notes         string     `json:"notes"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	ContactMethods []ContactMethod `json:"contact_methods" gorm:"constraint:OnDelete:CASCADE"`
}

// ContactMethod is one channel for reaching a contact. A value may belong to
// only one contact across the whole store.
type ContactMethod struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	ContactID  string    `json:"contact_id" gorm:"not null;index"`
	MethodType string    `json:"type" gorm:"not null"`
	Value      string    `json:"value" gorm:"not null;uniqueIndex:idx_contact_methods_value"`
	IsPrimary  bool      `json:"is_primary"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PrimaryEmail returns the primary email method value, falling back to the
// first email method when none is flagged primary.
func (c *Contact) PrimaryEmail() string {
	var first string
	for _, m := range c.ContactMethods {
		if m.MethodType != MethodEmail {
			continue
		}
		if m.IsPrimary {
			return m.Value
		}
		if first == "" {
			first = m.Value
		}
	}
	return first
}

// EmailAddresses returns all email method values for the contact.
func (c *Contact) EmailAddresses() []string {
	var addrs []string
	for _, m := range c.ContactMethods {
		if m.MethodType == MethodEmail {
			addrs = append(addrs, m.Value)
		}
	}
	return addrs
}

// LinkedInURL returns the first linkedin method value, if any.
func (c *Contact) LinkedInURL() string {
	for _, m := range c.ContactMethods {
		if m.MethodType == MethodLinkedIn {
			return m.Value
		}
	}
	return ""
}

// TouchLastContacted advances LastContacted to date, never moving it backwards.
func (c *Contact) TouchLastContacted(date time.Time) bool {
	if c.LastContacted == nil || date.After(*c.LastContacted) {
		c.LastContacted = &date
		return true
	}
	return false
}
