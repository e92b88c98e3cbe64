package usecase

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	contactdomain "crm-backend/internal/contact/domain"
	contactrepo "crm-backend/internal/contact/repository"
	emaildomain "crm-backend/internal/email/domain"
	"crm-backend/internal/email/dto"
	"crm-backend/internal/email/repository"
	"crm-backend/pkg/config"
	"crm-backend/pkg/fuzzy"
	"crm-backend/pkg/gmail"
	"crm-backend/pkg/metrics"

	"github.com/google/uuid"
)

// CredentialSource yields the connected account's tokens and persists
// refreshed ones.
type CredentialSource interface {
	Tokens() (string, string, error)
	TokenUpdateCallback() emaildomain.TokenUpdateFunc
}

// Summarizer produces a short owner-centric summary of a message.
type Summarizer interface {
	Summarize(ctx context.Context, owner, message string) (string, error)
}

// VectorIndex is the semantic search store.
type VectorIndex interface {
	UpsertEmail(ctx context.Context, emailID, sender, subject, body string) error
	SemanticSearch(ctx context.Context, query string, limit int) ([]string, []float64, error)
	DeleteEmail(ctx context.Context, emailID string) error
}

// Search modes accepted by SearchEmails.
const (
	SearchModeFuzzy    = "fuzzy"
	SearchModeSemantic = "semantic"
)

type EmailUsecase interface {
	ListEmails(limit, offset int) ([]*emaildomain.Email, int, error)
	ListByContact(contactID string, limit, offset int) ([]*emaildomain.Email, int, error)
	GetEmail(id string) (*emaildomain.Email, error)
	CreateEmail(req *dto.CreateEmailRequest) (*emaildomain.Email, error)
	DeleteEmail(ctx context.Context, id string) error

	MarkRead(id string, read bool) error
	Summarize(ctx context.Context, id string) (string, error)

	SyncAll(ctx context.Context, req *dto.SyncRequest) (*emaildomain.SyncReport, error)
	SyncContact(ctx context.Context, contactID string, max int) (*emaildomain.SyncReport, error)

	SearchEmails(ctx context.Context, query, mode string, limit int) ([]*dto.SearchResult, error)

	SetSummarizer(s Summarizer)
	SetVectorIndex(v VectorIndex)

	// Close drains the indexing queue and stops the workers.
	Close()
}

// indexJob carries one saved email to the vector index workers.
type indexJob struct {
	EmailID string
	Sender  string
	Subject string
	Body    string
}

type emailUsecase struct {
	emailRepo   repository.EmailRepository
	contactRepo contactrepo.ContactRepository
	provider    emaildomain.MailProvider
	credentials CredentialSource
	summarizer  Summarizer
	vectorIndex VectorIndex
	config      *config.Config

	indexQueue chan indexJob
	workerWg   sync.WaitGroup
	closeOnce  sync.Once
}

func NewEmailUsecase(
	emailRepo repository.EmailRepository,
	contactRepo contactrepo.ContactRepository,
	provider emaildomain.MailProvider,
	credentials CredentialSource,
	cfg *config.Config,
) EmailUsecase {
	u := &emailUsecase{
		emailRepo:   emailRepo,
		contactRepo: contactRepo,
		provider:    provider,
		credentials: credentials,
		config:      cfg,
		indexQueue:  make(chan indexJob, 1000),
	}
	u.startIndexWorkers(5)
	return u
}

// SetSummarizer wires the summarization model after creation.
func (u *emailUsecase) SetSummarizer(s Summarizer) {
	u.summarizer = s
}

// SetVectorIndex wires the semantic search store after creation.
func (u *emailUsecase) SetVectorIndex(v VectorIndex) {
	u.vectorIndex = v
}

func (u *emailUsecase) startIndexWorkers(count int) {
	for i := 0; i < count; i++ {
		u.workerWg.Add(1)
		go u.indexWorker(i)
	}
}

// indexWorker embeds saved emails into the vector store. Failures are logged
// and left unindexed; the next sync run re-enqueues anything without an
// indexed_at timestamp.
func (u *emailUsecase) indexWorker(workerID int) {
	defer u.workerWg.Done()

	for job := range u.indexQueue {
		if u.vectorIndex == nil {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		start := time.Now()
		err := u.vectorIndex.UpsertEmail(ctx, job.EmailID, job.Sender, job.Subject, job.Body)
		metrics.ObserveExternalCall("chroma", start)
		cancel()

		if err != nil {
			log.Printf("[VectorSync] Worker %d: Failed to index email %s: %v", workerID, job.EmailID, err)
			continue
		}

		if err := u.emailRepo.MarkIndexed(job.EmailID, time.Now()); err != nil {
			log.Printf("[VectorSync] Worker %d: Failed to mark email %s indexed: %v", workerID, job.EmailID, err)
		}
	}
}

func (u *emailUsecase) enqueueIndex(email *emaildomain.Email) {
	select {
	case u.indexQueue <- indexJob{
		EmailID: email.ID,
		Sender:  email.Sender,
		Subject: email.Subject,
		Body:    email.Content,
	}:
	default:
		log.Printf("[VectorSync] Index queue full, dropping email %s", email.ID)
	}
}

func (u *emailUsecase) Close() {
	u.closeOnce.Do(func() {
		close(u.indexQueue)
		u.workerWg.Wait()
	})
}

func (u *emailUsecase) ListEmails(limit, offset int) ([]*emaildomain.Email, int, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return u.emailRepo.List(limit, offset)
}

func (u *emailUsecase) ListByContact(contactID string, limit, offset int) ([]*emaildomain.Email, int, error) {
	contact, err := u.contactRepo.FindByID(contactID)
	if err != nil {
		return nil, 0, err
	}
	if contact == nil {
		return nil, 0, contactdomain.ErrContactNotFound
	}

	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return u.emailRepo.ListByContact(contactID, limit, offset)
}

func (u *emailUsecase) GetEmail(id string) (*emaildomain.Email, error) {
	email, err := u.emailRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if email == nil {
		return nil, emaildomain.ErrEmailNotFound
	}
	return email, nil
}

// CreateEmail records a manually entered email and links it to contacts. The
// message id is synthesized so uniqueness checks stay valid alongside synced
// mail.
func (u *emailUsecase) CreateEmail(req *dto.CreateEmailRequest) (*emaildomain.Email, error) {
	date := time.Now()
	if req.Date != nil {
		date = *req.Date
	}

	var contacts []contactdomain.Contact
	for _, id := range req.ContactIDs {
		contact, err := u.contactRepo.FindByID(id)
		if err != nil {
			return nil, err
		}
		if contact == nil {
			return nil, fmt.Errorf("%w: %s", contactdomain.ErrContactNotFound, id)
		}
		contacts = append(contacts, *contact)
	}

	email := &emaildomain.Email{
		MessageID:     "manual-" + uuid.New().String(),
		Subject:       req.Subject,
		Content:       req.Content,
		Date:          date,
		Sender:        strings.ToLower(strings.TrimSpace(req.Sender)),
		SenderName:    req.SenderName,
		Recipient:     strings.ToLower(strings.TrimSpace(req.Recipient)),
		RecipientName: req.RecipientName,
		IsRead:        true,
		Contacts:      contacts,
	}

	if err := u.emailRepo.Create(email); err != nil {
		return nil, err
	}

	u.touchContacts(contacts, date)
	u.enqueueIndex(email)

	return email, nil
}

func (u *emailUsecase) DeleteEmail(ctx context.Context, id string) error {
	if _, err := u.GetEmail(id); err != nil {
		return err
	}
	if err := u.emailRepo.Delete(id); err != nil {
		return err
	}

	// Best effort; a stale vector document only costs a dead search hit.
	if u.vectorIndex != nil {
		if err := u.vectorIndex.DeleteEmail(ctx, id); err != nil {
			log.Printf("[WARN] Failed to delete email %s from vector index: %v", id, err)
		}
	}
	return nil
}

func (u *emailUsecase) MarkRead(id string, read bool) error {
	if _, err := u.GetEmail(id); err != nil {
		return err
	}
	return u.emailRepo.SetRead(id, read)
}

// Summarize returns a cached summary when one exists, otherwise asks the
// model and stores the result.
func (u *emailUsecase) Summarize(ctx context.Context, id string) (string, error) {
	email, err := u.GetEmail(id)
	if err != nil {
		return "", err
	}
	if email.Summary != "" {
		return email.Summary, nil
	}
	if u.summarizer == nil {
		return "", fmt.Errorf("summarization is not configured")
	}

	message := fmt.Sprintf("From: %s\nTo: %s\nSubject: %s\n\n%s",
		email.Sender, email.Recipient, email.Subject, email.Content)

	start := time.Now()
	summary, err := u.summarizer.Summarize(ctx, u.config.OwnerName, message)
	metrics.ObserveExternalCall("openai", start)
	if err != nil {
		return "", fmt.Errorf("failed to summarize email: %w", err)
	}

	if err := u.emailRepo.SetSummary(id, summary); err != nil {
		return "", err
	}
	return summary, nil
}

// SyncAll pulls mail exchanged with every contact that has an email method,
// optionally narrowed by the request's name/email/company filters.
func (u *emailUsecase) SyncAll(ctx context.Context, req *dto.SyncRequest) (*emaildomain.SyncReport, error) {
	if req == nil {
		req = &dto.SyncRequest{}
	}

	contacts, _, err := u.contactRepo.Search(req.Name, req.Email, req.Company, 0, 0)
	if err != nil {
		return nil, err
	}
	if len(contacts) == 0 && req.Filtered() {
		return nil, contactdomain.ErrContactNotFound
	}

	// An empty CRM has nothing to sync; contacts that exist but carry no
	// email method are a caller error.
	if len(contacts) == 0 {
		return &emaildomain.SyncReport{}, nil
	}

	var addrs []string
	for _, c := range contacts {
		addrs = append(addrs, c.EmailAddresses()...)
	}
	if len(addrs) == 0 {
		return nil, emaildomain.ErrNoEmailAddresses
	}

	return u.sync(ctx, addrs, req.Max)
}

// SyncContact pulls mail exchanged with one contact's addresses.
func (u *emailUsecase) SyncContact(ctx context.Context, contactID string, max int) (*emaildomain.SyncReport, error) {
	contact, err := u.contactRepo.FindByID(contactID)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, contactdomain.ErrContactNotFound
	}

	addrs := contact.EmailAddresses()
	if len(addrs) == 0 {
		return nil, emaildomain.ErrNoEmailAddresses
	}

	return u.sync(ctx, addrs, max)
}

// sync fetches matching messages and persists the ones not seen before.
// Already-stored message ids count as skipped, per-message failures as failed;
// a run can always be repeated safely.
func (u *emailUsecase) sync(ctx context.Context, addrs []string, max int) (*emaildomain.SyncReport, error) {
	access, refresh, err := u.credentials.Tokens()
	if err != nil {
		return nil, err
	}

	if max <= 0 || max > u.config.SyncMaxMessages {
		max = u.config.SyncMaxMessages
	}

	query := gmail.BuildContactQuery(addrs)
	log.Printf("[Sync] Fetching up to %d messages for %d addresses", max, len(addrs))

	start := time.Now()
	messages, fetchFailed, err := u.provider.FetchMessages(ctx, access, refresh, query, max, u.credentials.TokenUpdateCallback())
	metrics.ObserveExternalCall("gmail", start)
	if err != nil {
		return nil, err
	}

	report := &emaildomain.SyncReport{Failed: fetchFailed}
	enqueued := make(map[string]bool)
	for _, msg := range messages {
		exists, err := u.emailRepo.ExistsByMessageID(msg.MessageID)
		if err != nil {
			log.Printf("[Sync] Failed to check message %s: %v", msg.MessageID, err)
			report.Failed++
			continue
		}
		if exists {
			report.Skipped++
			continue
		}

		contacts, err := u.contactRepo.FindByEmailAddresses([]string{msg.Sender, msg.Recipient})
		if err != nil {
			log.Printf("[Sync] Failed to match contacts for message %s: %v", msg.MessageID, err)
			report.Failed++
			continue
		}

		email := &emaildomain.Email{
			MessageID:     msg.MessageID,
			ThreadID:      msg.ThreadID,
			Subject:       msg.Subject,
			Content:       msg.Body,
			Date:          msg.Date,
			Sender:        msg.Sender,
			SenderName:    msg.SenderName,
			Recipient:     msg.Recipient,
			RecipientName: msg.RecipientName,
			IsRead:        msg.IsRead,
			HasAttachment: msg.HasAttachment,
		}
		for _, c := range contacts {
			email.Contacts = append(email.Contacts, *c)
		}

		if err := u.emailRepo.Create(email); err != nil {
			log.Printf("[Sync] Failed to save message %s: %v", msg.MessageID, err)
			report.Failed++
			continue
		}
		report.Saved++

		u.touchContacts(email.Contacts, msg.Date)
		u.enqueueIndex(email)
		enqueued[email.ID] = true
	}

	u.requeueUnindexed(enqueued)

	metrics.RecordSyncOutcome(report.Saved, report.Skipped, report.Failed)
	log.Printf("[Sync] Done: %d saved, %d skipped, %d failed", report.Saved, report.Skipped, report.Failed)
	return report, nil
}

// requeueUnindexed gives emails whose embedding previously failed another
// pass through the index workers. Rows enqueued earlier in the same run are
// skipped; everything else without an indexed_at timestamp is retried.
func (u *emailUsecase) requeueUnindexed(enqueued map[string]bool) {
	if u.vectorIndex == nil {
		return
	}

	pending, err := u.emailRepo.FindUnindexed(500)
	if err != nil {
		log.Printf("[VectorSync] Failed to list unindexed emails: %v", err)
		return
	}
	retried := 0
	for _, e := range pending {
		if enqueued[e.ID] {
			continue
		}
		u.enqueueIndex(e)
		retried++
	}
	if retried > 0 {
		log.Printf("[VectorSync] Re-queued %d unindexed emails", retried)
	}
}

// touchContacts advances last_contacted on each contact to the message date.
func (u *emailUsecase) touchContacts(contacts []contactdomain.Contact, date time.Time) {
	for i := range contacts {
		c := contacts[i]
		if c.TouchLastContacted(date) {
			if err := u.contactRepo.Update(&c); err != nil {
				log.Printf("[WARN] Failed to update last_contacted for %s: %v", c.ID, err)
			}
		}
	}
}

func (u *emailUsecase) SearchEmails(ctx context.Context, query, mode string, limit int) ([]*dto.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, emaildomain.ErrEmptyQuery
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	switch mode {
	case SearchModeSemantic:
		return u.semanticSearch(ctx, query, limit)
	case SearchModeFuzzy, "":
		return u.fuzzySearch(query, limit)
	default:
		return nil, fmt.Errorf("%w: %s", emaildomain.ErrUnknownMode, mode)
	}
}

// fuzzySearch ranks a cheap substring pre-filter first, then widens to a scan
// of recent mail so typos still find their target.
func (u *emailUsecase) fuzzySearch(query string, limit int) ([]*dto.SearchResult, error) {
	candidates, err := u.emailRepo.SearchCandidates(query, 500)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(candidates))
	for _, e := range candidates {
		seen[e.ID] = true
	}

	// The substring pass misses typos; top up from recent mail.
	if len(candidates) < limit {
		recent, _, err := u.emailRepo.List(500, 0)
		if err != nil {
			return nil, err
		}
		for _, e := range recent {
			if seen[e.ID] {
				continue
			}
			if fuzzy.MatchEmail(query, e.Subject, e.Sender, e.SenderName, e.Content) {
				candidates = append(candidates, e)
				seen[e.ID] = true
			}
		}
	}

	results := make([]*dto.SearchResult, 0, len(candidates))
	for _, e := range candidates {
		score := fuzzy.Score(query, e.Subject, e.Sender, e.SenderName)
		if score <= 0 {
			// Matched only in the body; keep it, ranked below field hits.
			if !fuzzy.MatchEmail(query, e.Subject, e.Sender, e.SenderName, e.Content) {
				continue
			}
			score = 1
		}
		results = append(results, &dto.SearchResult{Email: e, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Email.Date.After(results[j].Email.Date)
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (u *emailUsecase) semanticSearch(ctx context.Context, query string, limit int) ([]*dto.SearchResult, error) {
	if u.vectorIndex == nil {
		return nil, fmt.Errorf("semantic search is not configured")
	}

	start := time.Now()
	ids, distances, err := u.vectorIndex.SemanticSearch(ctx, query, limit)
	metrics.ObserveExternalCall("chroma", start)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*dto.SearchResult{}, nil
	}

	emails, err := u.emailRepo.ListByIDs(ids)
	if err != nil {
		return nil, err
	}

	// Rows deleted since indexing drop out here; ListByIDs keeps query order.
	distanceByID := make(map[string]float64, len(ids))
	for i, id := range ids {
		if i < len(distances) {
			distanceByID[id] = distances[i]
		}
	}

	results := make([]*dto.SearchResult, 0, len(emails))
	for _, e := range emails {
		// Lower distance means closer; invert into a similarity-style score.
		score := 1.0 / (1.0 + distanceByID[e.ID])
		results = append(results, &dto.SearchResult{Email: e, Score: score})
	}
	return results, nil
}
