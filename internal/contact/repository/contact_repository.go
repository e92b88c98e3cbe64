package repository

import (
	"strings"
	"time"

	contactdomain "crm-backend/internal/contact/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// contactRepository implements ContactRepository on gorm.
type contactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) Create(contact *contactdomain.Contact) error {
	now := time.Now()
	if contact.ID == "" {
		contact.ID = uuid.New().String()
	}
	contact.CreatedAt = now
	contact.UpdatedAt = now
	for i := range contact.ContactMethods {
		if contact.ContactMethods[i].ID == "" {
			contact.ContactMethods[i].ID = uuid.New().String()
		}
		contact.ContactMethods[i].ContactID = contact.ID
		contact.ContactMethods[i].CreatedAt = now
		contact.ContactMethods[i].UpdatedAt = now
	}
	return r.db.Create(contact).Error
}

func (r *contactRepository) Update(contact *contactdomain.Contact) error {
	contact.UpdatedAt = time.Now()
	return r.db.Omit("ContactMethods").Save(contact).Error
}

func (r *contactRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("contact_id = ?", id).Delete(&contactdomain.ContactMethod{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM contact_emails WHERE contact_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&contactdomain.Contact{}, "id = ?", id).Error
	})
}

func (r *contactRepository) FindByID(id string) (*contactdomain.Contact, error) {
	var contact contactdomain.Contact
	err := r.db.Preload("ContactMethods").First(&contact, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &contact, nil
}

func (r *contactRepository) Search(name, email, company string, limit, offset int) ([]*contactdomain.Contact, int, error) {
	query := r.db.Model(&contactdomain.Contact{})

	if name != "" {
		query = query.Where("contacts.name ILIKE ?", "%"+name+"%")
	}
	if company != "" {
		query = query.Where("contacts.company ILIKE ?", "%"+company+"%")
	}
	if email != "" {
		query = query.Joins("JOIN contact_methods ON contact_methods.contact_id = contacts.id").
			Where("contact_methods.method_type = ? AND contact_methods.value ILIKE ?",
				contactdomain.MethodEmail, "%"+email+"%").
			Distinct("contacts.*")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}

	var contacts []*contactdomain.Contact
	if err := query.Preload("ContactMethods").Order("contacts.name ASC").Find(&contacts).Error; err != nil {
		return nil, 0, err
	}
	return contacts, int(total), nil
}

func (r *contactRepository) FindByEmailAddress(email string) ([]*contactdomain.Contact, error) {
	return r.FindByEmailAddresses([]string{email})
}

func (r *contactRepository) FindByEmailAddresses(addrs []string) ([]*contactdomain.Contact, error) {
	if len(addrs) == 0 {
		return nil, nil
	}
	var contacts []*contactdomain.Contact
	err := r.db.
		Joins("JOIN contact_methods ON contact_methods.contact_id = contacts.id").
		Where("contact_methods.method_type = ? AND LOWER(contact_methods.value) IN ?",
			contactdomain.MethodEmail, lowerAll(addrs)).
		Distinct("contacts.*").
		Preload("ContactMethods").
		Find(&contacts).Error
	if err != nil {
		return nil, err
	}
	return contacts, nil
}

func (r *contactRepository) FindDueFollowUps(asOf time.Time) ([]*contactdomain.Contact, error) {
	var contacts []*contactdomain.Contact
	err := r.db.
		Where("reminder = ? AND follow_up_date IS NOT NULL AND follow_up_date <= ?", true, asOf).
		Preload("ContactMethods").
		Order("follow_up_date ASC").
		Find(&contacts).Error
	if err != nil {
		return nil, err
	}
	return contacts, nil
}

func (r *contactRepository) FindMethodByValue(value string) (*contactdomain.ContactMethod, error) {
	var method contactdomain.ContactMethod
	err := r.db.Where("LOWER(value) = LOWER(?)", value).First(&method).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &method, nil
}

func (r *contactRepository) AddMethod(method *contactdomain.ContactMethod) error {
	if method.ID == "" {
		method.ID = uuid.New().String()
	}
	method.CreatedAt = time.Now()
	method.UpdatedAt = time.Now()
	return r.db.Create(method).Error
}

func (r *contactRepository) DeleteMethod(contactID, methodID string) error {
	return r.db.Where("contact_id = ? AND id = ?", contactID, methodID).
		Delete(&contactdomain.ContactMethod{}).Error
}

func (r *contactRepository) ClearPrimary(contactID, methodType, exceptID string) error {
	return r.db.Model(&contactdomain.ContactMethod{}).
		Where("contact_id = ? AND method_type = ? AND id <> ?", contactID, methodType, exceptID).
		Update("is_primary", false).Error
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}
