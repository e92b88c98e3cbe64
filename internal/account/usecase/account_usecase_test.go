package usecase

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	accountdomain "crm-backend/internal/account/domain"
	emaildomain "crm-backend/internal/email/domain"
	"crm-backend/pkg/config"

	"golang.org/x/oauth2"
)

type fakeAccountRepo struct {
	account *accountdomain.GmailAccount
}

func (r *fakeAccountRepo) Get() (*accountdomain.GmailAccount, error) {
	if r.account == nil {
		return nil, nil
	}
	clone := *r.account
	return &clone, nil
}

func (r *fakeAccountRepo) Save(account *accountdomain.GmailAccount) error {
	if account.ID == "" {
		account.ID = "acc-1"
	}
	clone := *account
	r.account = &clone
	return nil
}

func (r *fakeAccountRepo) Delete() error {
	r.account = nil
	return nil
}

type fakeOAuth struct {
	token *oauth2.Token
	email string
}

func (o *fakeOAuth) AuthCodeURL(state string) string {
	return "https://accounts.google.com/o/oauth2/auth?state=" + state
}

func (o *fakeOAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code != "good-code" {
		return nil, errors.New("invalid code")
	}
	return o.token, nil
}

func (o *fakeOAuth) Profile(ctx context.Context, accessToken, refreshToken string, onTokenRefresh emaildomain.TokenUpdateFunc) (string, error) {
	return o.email, nil
}

func newTestAccountUsecase(repo *fakeAccountRepo) (AccountUsecase, *fakeOAuth) {
	oauth := &fakeOAuth{
		token: &oauth2.Token{
			AccessToken:  "plain-access",
			RefreshToken: "plain-refresh",
			Expiry:       time.Now().Add(time.Hour),
		},
		email: "owner@gmail.com",
	}
	cfg := &config.Config{EncryptionKey: "test-encryption-key"}
	return NewAccountUsecase(repo, oauth, cfg), oauth
}

func connectAccount(t *testing.T, uc AccountUsecase) {
	t.Helper()
	connectURL, err := uc.ConnectURL()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	parsed, _ := url.Parse(connectURL)
	state := parsed.Query().Get("state")

	if _, err := uc.HandleCallback(context.Background(), "good-code", state); err != nil {
		t.Fatalf("callback failed: %v", err)
	}
}

func TestConnectFlowStoresEncryptedTokens(t *testing.T) {
	repo := &fakeAccountRepo{}
	uc, _ := newTestAccountUsecase(repo)

	connectAccount(t, uc)

	if repo.account == nil {
		t.Fatal("account not saved")
	}
	if repo.account.Email != "owner@gmail.com" {
		t.Errorf("unexpected email: %q", repo.account.Email)
	}
	// Tokens must never hit the database in plaintext.
	if strings.Contains(repo.account.AccessToken, "plain-access") ||
		strings.Contains(repo.account.RefreshToken, "plain-refresh") {
		t.Error("tokens stored in plaintext")
	}

	access, refresh, err := uc.Tokens()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if access != "plain-access" || refresh != "plain-refresh" {
		t.Errorf("token round-trip failed: %q / %q", access, refresh)
	}
}

func TestCallbackRejectsBadState(t *testing.T) {
	uc, _ := newTestAccountUsecase(&fakeAccountRepo{})

	if _, err := uc.ConnectURL(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := uc.HandleCallback(context.Background(), "good-code", "forged-state"); err == nil {
		t.Error("forged state should be rejected")
	}
}

func TestCallbackStateIsSingleUse(t *testing.T) {
	repo := &fakeAccountRepo{}
	uc, _ := newTestAccountUsecase(repo)

	connectURL, _ := uc.ConnectURL()
	parsed, _ := url.Parse(connectURL)
	state := parsed.Query().Get("state")

	if _, err := uc.HandleCallback(context.Background(), "good-code", state); err != nil {
		t.Fatalf("first callback failed: %v", err)
	}
	if _, err := uc.HandleCallback(context.Background(), "good-code", state); err == nil {
		t.Error("state replay should be rejected")
	}
}

func TestStatus(t *testing.T) {
	repo := &fakeAccountRepo{}
	uc, _ := newTestAccountUsecase(repo)

	status, err := uc.Status()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.Connected {
		t.Error("expected disconnected status")
	}

	connectAccount(t, uc)

	status, err = uc.Status()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !status.Connected || status.Email != "owner@gmail.com" {
		t.Errorf("unexpected status: %+v", status)
	}
}

func TestTokensWithoutAccount(t *testing.T) {
	uc, _ := newTestAccountUsecase(&fakeAccountRepo{})

	if _, _, err := uc.Tokens(); !errors.Is(err, emaildomain.ErrNoAccount) {
		t.Errorf("expected ErrNoAccount, got %v", err)
	}
}

func TestTokenUpdateCallbackPersistsRefreshedTokens(t *testing.T) {
	repo := &fakeAccountRepo{}
	uc, _ := newTestAccountUsecase(repo)
	connectAccount(t, uc)

	callback := uc.TokenUpdateCallback()
	err := callback(&oauth2.Token{
		AccessToken: "rotated-access",
		Expiry:      time.Now().Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	access, refresh, err := uc.Tokens()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if access != "rotated-access" {
		t.Errorf("access token not rotated: %q", access)
	}
	// A refresh token is only replaced when the provider issues a new one.
	if refresh != "plain-refresh" {
		t.Errorf("refresh token should be kept: %q", refresh)
	}
}

func TestDisconnect(t *testing.T) {
	repo := &fakeAccountRepo{}
	uc, _ := newTestAccountUsecase(repo)
	connectAccount(t, uc)

	if err := uc.Disconnect(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	status, _ := uc.Status()
	if status.Connected {
		t.Error("expected disconnected after Disconnect")
	}
}
