package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"net/mail"
	"sort"
	"strings"
	"time"

	emaildomain "crm-backend/internal/email/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Scope holds the Gmail scope the CRM asks for: read-only mailbox access.
const Scope = gmail.GmailReadonlyScope

// TokenUpdateFunc is a callback function that handles token updates
type TokenUpdateFunc = emaildomain.TokenUpdateFunc

type Service struct {
	clientID     string
	clientSecret string
	redirectURI  string
}

type notifyTokenSource struct {
	src      oauth2.TokenSource
	current  *oauth2.Token
	callback TokenUpdateFunc
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.callback != nil && s.current.AccessToken != t.AccessToken {
		s.current = t
		if err := s.callback(t); err != nil {
			log.Printf("[WARN] Failed to persist refreshed token: %v", err)
		}
	}
	return t, nil
}

func NewService(clientID, clientSecret, redirectURI string) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
	}
}

func (s *Service) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		RedirectURL:  s.redirectURI,
		Scopes:       []string{Scope},
		Endpoint:     google.Endpoint,
	}
}

// AuthCodeURL returns the consent URL for connecting a mailbox. Offline access
// is requested so a refresh token is issued.
func (s *Service) AuthCodeURL(state string) string {
	return s.oauthConfig().AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange trades an authorization code for tokens.
func (s *Service) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.oauthConfig().Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("unable to exchange authorization code: %w", err)
	}
	return token, nil
}

// getGmailService creates a Gmail API client backed by the stored tokens,
// wrapping the token source so refreshed tokens are persisted.
func (s *Service) getGmailService(ctx context.Context, accessToken, refreshToken string, onTokenRefresh TokenUpdateFunc) (*gmail.Service, error) {
	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}

	// Only force refresh if we have a refresh token
	if refreshToken != "" {
		token.Expiry = time.Now()
	}

	tokenSource := s.oauthConfig().TokenSource(ctx, token)

	wrappedSource := &notifyTokenSource{
		src:      tokenSource,
		current:  token,
		callback: onTokenRefresh,
	}

	client := oauth2.NewClient(ctx, wrappedSource)

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %v", err)
	}

	return srv, nil
}

// Profile returns the email address of the connected mailbox.
func (s *Service) Profile(ctx context.Context, accessToken, refreshToken string, onTokenRefresh TokenUpdateFunc) (string, error) {
	srv, err := s.getGmailService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return "", err
	}

	profile, err := srv.Users.GetProfile("me").Do()
	if err != nil {
		return "", fmt.Errorf("unable to retrieve profile: %v", err)
	}
	return profile.EmailAddress, nil
}

// FetchMessages lists message ids matching the Gmail query and hydrates each
// with a full fetch. Pagination continues until max messages are collected or
// the result set is exhausted. Individual hydration failures do not abort the
// batch; their count is returned alongside the messages that parsed cleanly.
func (s *Service) FetchMessages(ctx context.Context, accessToken, refreshToken, query string, max int, onTokenRefresh TokenUpdateFunc) ([]*emaildomain.Message, int, error) {
	srv, err := s.getGmailService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, 0, err
	}

	user := "me"
	if max <= 0 {
		max = 200
	}

	var ids []string
	pageToken := ""
	for len(ids) < max {
		remaining := int64(max - len(ids))
		if remaining > 500 {
			remaining = 500 // Gmail API maximum per page
		}

		listCall := srv.Users.Messages.List(user).MaxResults(remaining)
		if query != "" {
			listCall = listCall.Q(query)
		}
		if pageToken != "" {
			listCall = listCall.PageToken(pageToken)
		}

		resp, err := listCall.Do()
		if err != nil {
			return nil, 0, fmt.Errorf("unable to retrieve messages: %v", err)
		}

		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}

		pageToken = resp.NextPageToken
		if pageToken == "" || len(resp.Messages) == 0 {
			break
		}
	}

	if len(ids) == 0 {
		return nil, 0, nil
	}

	type messageResult struct {
		msg *emaildomain.Message
		err error
	}

	resultChan := make(chan messageResult, len(ids))

	// Fetch full messages in parallel with a bounded number of in-flight calls.
	semaphore := make(chan struct{}, 10)

	for _, id := range ids {
		go func(msgID string) {
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			fullMsg, err := srv.Users.Messages.Get(user, msgID).Format("full").Do()
			if err != nil {
				resultChan <- messageResult{nil, err}
				return
			}
			resultChan <- messageResult{convertGmailMessage(fullMsg), nil}
		}(id)
	}

	messages := make([]*emaildomain.Message, 0, len(ids))
	failed := 0
	for range ids {
		result := <-resultChan
		if result.err != nil || result.msg == nil {
			failed++
			continue
		}
		messages = append(messages, result.msg)
	}

	// Parallel fetching returns messages in arrival order; restore newest-first.
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].Date.After(messages[j].Date)
	})

	return messages, failed, nil
}

// Helper functions

func convertGmailMessage(msg *gmail.Message) *emaildomain.Message {
	sender, senderName := splitAddress(getHeader(msg.Payload.Headers, "From"))
	recipient, recipientName := splitAddress(getHeader(msg.Payload.Headers, "To"))

	return &emaildomain.Message{
		MessageID:     msg.Id,
		ThreadID:      msg.ThreadId,
		Subject:       getHeader(msg.Payload.Headers, "Subject"),
		Body:          getMessageBody(msg.Payload),
		Sender:        sender,
		SenderName:    senderName,
		Recipient:     recipient,
		RecipientName: recipientName,
		Date:          time.Unix(msg.InternalDate/1000, 0),
		IsRead:        !hasLabel(msg.LabelIds, "UNREAD"),
		HasAttachment: hasAttachment(msg.Payload),
	}
}

// splitAddress breaks a "Name <addr@example.com>" header into address and
// display name. A bare address yields an empty name.
func splitAddress(header string) (string, string) {
	if header == "" {
		return "", ""
	}
	if addr, err := mail.ParseAddress(header); err == nil {
		return strings.ToLower(addr.Address), addr.Name
	}
	// Header didn't parse as RFC 5322; fall back to angle-bracket extraction.
	if start := strings.Index(header, "<"); start >= 0 {
		if end := strings.Index(header[start:], ">"); end > 0 {
			return strings.ToLower(header[start+1 : start+end]), strings.TrimSpace(header[:start])
		}
	}
	return strings.ToLower(strings.TrimSpace(header)), ""
}

func getHeader(headers []*gmail.MessagePartHeader, name string) string {
	for _, header := range headers {
		if header.Name == name {
			return header.Value
		}
	}
	return ""
}

// getMessageBody walks the MIME tree preferring text/plain, falling back to
// text/html with tags stripped.
func getMessageBody(payload *gmail.MessagePart) string {
	// If the payload itself is the body
	if payload.Body != nil && payload.Body.Data != "" {
		data, err := base64.URLEncoding.DecodeString(payload.Body.Data)
		if err == nil {
			return string(data)
		}
	}

	var htmlBody string
	var plainBody string

	var findBody func(parts []*gmail.MessagePart)
	findBody = func(parts []*gmail.MessagePart) {
		for _, part := range parts {
			if part.MimeType == "text/plain" && plainBody == "" {
				if part.Body != nil && part.Body.Data != "" {
					data, err := base64.URLEncoding.DecodeString(part.Body.Data)
					if err == nil {
						plainBody = string(data)
					}
				}
			} else if part.MimeType == "text/html" && htmlBody == "" {
				if part.Body != nil && part.Body.Data != "" {
					data, err := base64.URLEncoding.DecodeString(part.Body.Data)
					if err == nil {
						htmlBody = string(data)
					}
				}
			}

			if len(part.Parts) > 0 {
				findBody(part.Parts)
			}
		}
	}

	findBody(payload.Parts)

	if plainBody != "" {
		return plainBody
	}
	return stripHTML(htmlBody)
}

func stripHTML(body string) string {
	if body == "" {
		return ""
	}
	var b strings.Builder
	inTag := false
	for _, r := range body {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	text := b.String()
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&quot;", "\"")
	return strings.Join(strings.Fields(text), " ")
}

func hasAttachment(payload *gmail.MessagePart) bool {
	found := false

	var walk func(parts []*gmail.MessagePart)
	walk = func(parts []*gmail.MessagePart) {
		for _, part := range parts {
			if part.Filename != "" && part.Body != nil && part.Body.AttachmentId != "" {
				found = true
				return
			}
			if len(part.Parts) > 0 {
				walk(part.Parts)
			}
		}
	}

	walk(payload.Parts)
	return found
}

func hasLabel(labels []string, labelID string) bool {
	for _, label := range labels {
		if label == labelID {
			return true
		}
	}
	return false
}

// BuildContactQuery builds the Gmail search query matching mail to or from any
// of the given addresses.
func BuildContactQuery(addresses []string) string {
	terms := make([]string, 0, len(addresses)*2)
	for _, addr := range addresses {
		terms = append(terms, "from:"+addr, "to:"+addr)
	}
	return strings.Join(terms, " OR ")
}
