package repository

import (
	"time"

	emaildomain "crm-backend/internal/email/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// emailRepository implements EmailRepository on gorm.
type emailRepository struct {
	db *gorm.DB
}

func NewEmailRepository(db *gorm.DB) EmailRepository {
	return &emailRepository{db: db}
}

func (r *emailRepository) Create(email *emaildomain.Email) error {
	now := time.Now()
	if email.ID == "" {
		email.ID = uuid.New().String()
	}
	email.CreatedAt = now
	email.UpdatedAt = now
	// gorm writes the contact_emails join rows for the populated Contacts
	// slice; Omit keeps it from re-saving the contacts themselves.
	return r.db.Omit("Contacts.*").Create(email).Error
}

func (r *emailRepository) Update(email *emaildomain.Email) error {
	email.UpdatedAt = time.Now()
	return r.db.Omit("Contacts").Save(email).Error
}

func (r *emailRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM contact_emails WHERE email_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&emaildomain.Email{}, "id = ?", id).Error
	})
}

func (r *emailRepository) FindByID(id string) (*emaildomain.Email, error) {
	var email emaildomain.Email
	err := r.db.Preload("Contacts").First(&email, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &email, nil
}

func (r *emailRepository) ExistsByMessageID(messageID string) (bool, error) {
	var count int64
	err := r.db.Model(&emaildomain.Email{}).Where("message_id = ?", messageID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *emailRepository) List(limit, offset int) ([]*emaildomain.Email, int, error) {
	var total int64
	if err := r.db.Model(&emaildomain.Email{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.Preload("Contacts").Order("date DESC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}

	var emails []*emaildomain.Email
	if err := query.Find(&emails).Error; err != nil {
		return nil, 0, err
	}
	return emails, int(total), nil
}

func (r *emailRepository) ListByContact(contactID string, limit, offset int) ([]*emaildomain.Email, int, error) {
	base := r.db.Model(&emaildomain.Email{}).
		Joins("JOIN contact_emails ON contact_emails.email_id = emails.id").
		Where("contact_emails.contact_id = ?", contactID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := base.Order("emails.date DESC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}

	var emails []*emaildomain.Email
	if err := query.Preload("Contacts").Find(&emails).Error; err != nil {
		return nil, 0, err
	}
	return emails, int(total), nil
}

func (r *emailRepository) ListByIDs(ids []string) ([]*emaildomain.Email, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var emails []*emaildomain.Email
	if err := r.db.Preload("Contacts").Where("id IN ?", ids).Find(&emails).Error; err != nil {
		return nil, err
	}

	// Preserve caller ordering (semantic search ranks by relevance).
	byID := make(map[string]*emaildomain.Email, len(emails))
	for _, e := range emails {
		byID[e.ID] = e
	}
	ordered := make([]*emaildomain.Email, 0, len(emails))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			ordered = append(ordered, e)
		}
	}
	return ordered, nil
}

func (r *emailRepository) SearchCandidates(query string, limit int) ([]*emaildomain.Email, error) {
	if limit <= 0 {
		limit = 500
	}
	pattern := "%" + query + "%"
	var emails []*emaildomain.Email
	err := r.db.
		Where("subject ILIKE ? OR sender ILIKE ? OR sender_name ILIKE ? OR content ILIKE ?",
			pattern, pattern, pattern, pattern).
		Order("date DESC").
		Limit(limit).
		Find(&emails).Error
	if err != nil {
		return nil, err
	}
	return emails, nil
}

func (r *emailRepository) SetRead(id string, read bool) error {
	return r.db.Model(&emaildomain.Email{}).Where("id = ?", id).
		Updates(map[string]interface{}{"is_read": read, "updated_at": time.Now()}).Error
}

func (r *emailRepository) SetSummary(id, summary string) error {
	return r.db.Model(&emaildomain.Email{}).Where("id = ?", id).
		Updates(map[string]interface{}{"summary": summary, "updated_at": time.Now()}).Error
}

func (r *emailRepository) MarkIndexed(id string, at time.Time) error {
	return r.db.Model(&emaildomain.Email{}).Where("id = ?", id).
		Update("indexed_at", at).Error
}

func (r *emailRepository) FindUnindexed(limit int) ([]*emaildomain.Email, error) {
	if limit <= 0 {
		limit = 500
	}
	var emails []*emaildomain.Email
	err := r.db.Where("indexed_at IS NULL").
		Order("date DESC").
		Limit(limit).
		Find(&emails).Error
	if err != nil {
		return nil, err
	}
	return emails, nil
}
