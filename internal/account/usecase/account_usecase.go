package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"sync"
	"time"

	accountdomain "crm-backend/internal/account/domain"
	"crm-backend/internal/account/repository"
	emaildomain "crm-backend/internal/email/domain"
	"crm-backend/pkg/config"
	"crm-backend/pkg/crypto"

	"golang.org/x/oauth2"
)

// OAuthProvider is the Google OAuth surface the usecase needs.
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Profile(ctx context.Context, accessToken, refreshToken string, onTokenRefresh emaildomain.TokenUpdateFunc) (string, error)
}

// Status describes the connected mailbox, with tokens withheld.
type Status struct {
	Connected   bool       `json:"connected"`
	Email       string     `json:"email,omitempty"`
	TokenExpiry *time.Time `json:"token_expiry,omitempty"`
}

type AccountUsecase interface {
	ConnectURL() (string, error)
	HandleCallback(ctx context.Context, code, state string) (*accountdomain.GmailAccount, error)
	Status() (*Status, error)
	Disconnect() error

	// Tokens returns the decrypted access and refresh tokens of the connected
	// account.
	Tokens() (string, string, error)
	// TokenUpdateCallback persists refreshed tokens back to the store.
	TokenUpdateCallback() emaildomain.TokenUpdateFunc
}

type accountUsecase struct {
	accountRepo repository.AccountRepository
	oauth       OAuthProvider
	config      *config.Config

	stateMu      sync.Mutex
	pendingState string
	stateIssued  time.Time
}

func NewAccountUsecase(accountRepo repository.AccountRepository, oauth OAuthProvider, cfg *config.Config) AccountUsecase {
	return &accountUsecase{
		accountRepo: accountRepo,
		oauth:       oauth,
		config:      cfg,
	}
}

func (u *accountUsecase) ConnectURL() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	state := hex.EncodeToString(buf)

	u.stateMu.Lock()
	u.pendingState = state
	u.stateIssued = time.Now()
	u.stateMu.Unlock()

	return u.oauth.AuthCodeURL(state), nil
}

func (u *accountUsecase) HandleCallback(ctx context.Context, code, state string) (*accountdomain.GmailAccount, error) {
	u.stateMu.Lock()
	valid := state != "" && state == u.pendingState && time.Since(u.stateIssued) < 10*time.Minute
	u.pendingState = ""
	u.stateMu.Unlock()
	if !valid {
		return nil, fmt.Errorf("invalid oauth state")
	}

	token, err := u.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	email, err := u.oauth.Profile(ctx, token.AccessToken, token.RefreshToken, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read account profile: %w", err)
	}

	encAccess, err := crypto.Encrypt(token.AccessToken, u.config.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt tokens: %w", err)
	}
	encRefresh, err := crypto.Encrypt(token.RefreshToken, u.config.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt tokens: %w", err)
	}

	// Single-account model: a new connection replaces the old one.
	account, err := u.accountRepo.Get()
	if err != nil {
		return nil, err
	}
	if account == nil {
		account = &accountdomain.GmailAccount{}
	}
	account.Email = email
	account.AccessToken = encAccess
	account.RefreshToken = encRefresh
	account.TokenExpiry = token.Expiry

	if err := u.accountRepo.Save(account); err != nil {
		return nil, err
	}

	log.Printf("[Auth] Connected Gmail account %s", email)
	return account, nil
}

func (u *accountUsecase) Status() (*Status, error) {
	account, err := u.accountRepo.Get()
	if err != nil {
		return nil, err
	}
	if account == nil {
		return &Status{Connected: false}, nil
	}
	expiry := account.TokenExpiry
	return &Status{Connected: true, Email: account.Email, TokenExpiry: &expiry}, nil
}

func (u *accountUsecase) Disconnect() error {
	return u.accountRepo.Delete()
}

func (u *accountUsecase) Tokens() (string, string, error) {
	account, err := u.accountRepo.Get()
	if err != nil {
		return "", "", err
	}
	if account == nil {
		return "", "", emaildomain.ErrNoAccount
	}

	access, err := crypto.Decrypt(account.AccessToken, u.config.EncryptionKey)
	if err != nil {
		return "", "", fmt.Errorf("failed to decrypt access token: %w", err)
	}
	refresh, err := crypto.Decrypt(account.RefreshToken, u.config.EncryptionKey)
	if err != nil {
		return "", "", fmt.Errorf("failed to decrypt refresh token: %w", err)
	}
	return access, refresh, nil
}

func (u *accountUsecase) TokenUpdateCallback() emaildomain.TokenUpdateFunc {
	return func(token *oauth2.Token) error {
		account, err := u.accountRepo.Get()
		if err != nil {
			return err
		}
		if account == nil {
			return emaildomain.ErrNoAccount
		}

		encAccess, err := crypto.Encrypt(token.AccessToken, u.config.EncryptionKey)
		if err != nil {
			return err
		}
		account.AccessToken = encAccess
		if token.RefreshToken != "" {
			encRefresh, err := crypto.Encrypt(token.RefreshToken, u.config.EncryptionKey)
			if err != nil {
				return err
			}
			account.RefreshToken = encRefresh
		}
		account.TokenExpiry = token.Expiry

		if err := u.accountRepo.Save(account); err != nil {
			return err
		}
		log.Printf("[Auth] Refreshed tokens for %s", account.Email)
		return nil
	}
}
