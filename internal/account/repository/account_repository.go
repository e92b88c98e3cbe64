package repository

import (
	"time"

	accountdomain "crm-backend/internal/account/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccountRepository persists the connected Gmail account.
type AccountRepository interface {
	// Get returns the connected account, or nil when none is connected.
	Get() (*accountdomain.GmailAccount, error)
	Save(account *accountdomain.GmailAccount) error
	Delete() error
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Get() (*accountdomain.GmailAccount, error) {
	var account accountdomain.GmailAccount
	err := r.db.First(&account).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) Save(account *accountdomain.GmailAccount) error {
	now := time.Now()
	if account.ID == "" {
		account.ID = uuid.New().String()
		account.CreatedAt = now
	}
	account.UpdatedAt = now
	return r.db.Save(account).Error
}

func (r *accountRepository) Delete() error {
	return r.db.Where("1 = 1").Delete(&accountdomain.GmailAccount{}).Error
}
