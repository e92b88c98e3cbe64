package domain

import (
	"context"

	"golang.org/x/oauth2"
)

// TokenUpdateFunc is invoked when the OAuth token source rotates the access
// token, so the caller can persist the fresh token.
type TokenUpdateFunc func(token *oauth2.Token) error

// MailProvider fetches messages from the user's mailbox.
type MailProvider interface {
	// FetchMessages returns up to max messages matching the Gmail query, plus
	// the number of messages that could not be hydrated.
	FetchMessages(ctx context.Context, accessToken, refreshToken, query string, max int, onTokenRefresh TokenUpdateFunc) ([]*Message, int, error)
}
