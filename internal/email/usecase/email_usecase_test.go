package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	contactdomain "crm-backend/internal/contact/domain"
	emaildomain "crm-backend/internal/email/domain"
	"crm-backend/internal/email/dto"
	"crm-backend/pkg/config"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// fakeEmailRepo is an in-memory EmailRepository.
type fakeEmailRepo struct {
	emails map[string]*emaildomain.Email
}

func newFakeEmailRepo() *fakeEmailRepo {
	return &fakeEmailRepo{emails: map[string]*emaildomain.Email{}}
}

func (r *fakeEmailRepo) Create(email *emaildomain.Email) error {
	if email.ID == "" {
		email.ID = uuid.New().String()
	}
	for _, e := range r.emails {
		if e.MessageID == email.MessageID {
			return errors.New("duplicate message id")
		}
	}
	clone := *email
	r.emails[email.ID] = &clone
	return nil
}

func (r *fakeEmailRepo) Update(email *emaildomain.Email) error {
	clone := *email
	r.emails[email.ID] = &clone
	return nil
}

func (r *fakeEmailRepo) Delete(id string) error {
	delete(r.emails, id)
	return nil
}

func (r *fakeEmailRepo) FindByID(id string) (*emaildomain.Email, error) {
	e, ok := r.emails[id]
	if !ok {
		return nil, nil
	}
	clone := *e
	return &clone, nil
}

func (r *fakeEmailRepo) ExistsByMessageID(messageID string) (bool, error) {
	for _, e := range r.emails {
		if e.MessageID == messageID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeEmailRepo) List(limit, offset int) ([]*emaildomain.Email, int, error) {
	var out []*emaildomain.Email
	for _, e := range r.emails {
		clone := *e
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	total := len(out)
	if offset < len(out) {
		out = out[offset:]
	} else {
		out = nil
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (r *fakeEmailRepo) ListByContact(contactID string, limit, offset int) ([]*emaildomain.Email, int, error) {
	var out []*emaildomain.Email
	for _, e := range r.emails {
		for _, c := range e.Contacts {
			if c.ID == contactID {
				clone := *e
				out = append(out, &clone)
				break
			}
		}
	}
	return out, len(out), nil
}

func (r *fakeEmailRepo) ListByIDs(ids []string) ([]*emaildomain.Email, error) {
	var out []*emaildomain.Email
	for _, id := range ids {
		if e, ok := r.emails[id]; ok {
			clone := *e
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeEmailRepo) SearchCandidates(query string, limit int) ([]*emaildomain.Email, error) {
	q := strings.ToLower(query)
	var out []*emaildomain.Email
	for _, e := range r.emails {
		if strings.Contains(strings.ToLower(e.Subject), q) ||
			strings.Contains(strings.ToLower(e.Sender), q) ||
			strings.Contains(strings.ToLower(e.SenderName), q) ||
			strings.Contains(strings.ToLower(e.Content), q) {
			clone := *e
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeEmailRepo) SetRead(id string, read bool) error {
	e, ok := r.emails[id]
	if !ok {
		return errors.New("not found")
	}
	e.IsRead = read
	return nil
}

func (r *fakeEmailRepo) SetSummary(id, summary string) error {
	e, ok := r.emails[id]
	if !ok {
		return errors.New("not found")
	}
	e.Summary = summary
	return nil
}

func (r *fakeEmailRepo) MarkIndexed(id string, at time.Time) error {
	e, ok := r.emails[id]
	if !ok {
		return errors.New("not found")
	}
	e.IndexedAt = &at
	return nil
}

func (r *fakeEmailRepo) FindUnindexed(limit int) ([]*emaildomain.Email, error) {
	var out []*emaildomain.Email
	for _, e := range r.emails {
		if e.IndexedAt == nil {
			clone := *e
			out = append(out, &clone)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// fakeProvider returns canned messages.
type fakeProvider struct {
	messages  []*emaildomain.Message
	failed    int
	err       error
	lastQuery string
	lastMax   int
}

func (p *fakeProvider) FetchMessages(ctx context.Context, accessToken, refreshToken, query string, max int, onTokenRefresh emaildomain.TokenUpdateFunc) ([]*emaildomain.Message, int, error) {
	p.lastQuery = query
	p.lastMax = max
	return p.messages, p.failed, p.err
}

type fakeCredentials struct {
	err error
}

func (c *fakeCredentials) Tokens() (string, string, error) {
	if c.err != nil {
		return "", "", c.err
	}
	return "access", "refresh", nil
}

func (c *fakeCredentials) TokenUpdateCallback() emaildomain.TokenUpdateFunc {
	return func(token *oauth2.Token) error { return nil }
}

// fakeContactRepoStub is an in-memory ContactRepository for sync tests.
type fakeContactRepoStub struct {
	contacts map[string]*contactdomain.Contact
}

func newFakeContactRepoStub() *fakeContactRepoStub {
	return &fakeContactRepoStub{contacts: map[string]*contactdomain.Contact{}}
}

func (r *fakeContactRepoStub) Create(contact *contactdomain.Contact) error {
	if contact.ID == "" {
		contact.ID = uuid.New().String()
	}
	r.contacts[contact.ID] = contact
	return nil
}

func (r *fakeContactRepoStub) Update(contact *contactdomain.Contact) error {
	clone := *contact
	r.contacts[contact.ID] = &clone
	return nil
}

func (r *fakeContactRepoStub) Delete(id string) error {
	delete(r.contacts, id)
	return nil
}

func (r *fakeContactRepoStub) FindByID(id string) (*contactdomain.Contact, error) {
	c, ok := r.contacts[id]
	if !ok {
		return nil, nil
	}
	clone := *c
	return &clone, nil
}

func (r *fakeContactRepoStub) Search(name, email, company string, limit, offset int) ([]*contactdomain.Contact, int, error) {
	var out []*contactdomain.Contact
	for _, c := range r.contacts {
		if name != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(name)) {
			continue
		}
		if company != "" && !strings.Contains(strings.ToLower(c.Company), strings.ToLower(company)) {
			continue
		}
		if email != "" {
			matched := false
			for _, m := range c.ContactMethods {
				if m.MethodType == contactdomain.MethodEmail && strings.Contains(m.Value, strings.ToLower(email)) {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		clone := *c
		out = append(out, &clone)
	}
	return out, len(out), nil
}

func (r *fakeContactRepoStub) FindByEmailAddress(email string) ([]*contactdomain.Contact, error) {
	return r.FindByEmailAddresses([]string{email})
}

func (r *fakeContactRepoStub) FindByEmailAddresses(addrs []string) ([]*contactdomain.Contact, error) {
	want := map[string]bool{}
	for _, a := range addrs {
		want[a] = true
	}
	var out []*contactdomain.Contact
	for _, c := range r.contacts {
		for _, m := range c.ContactMethods {
			if m.MethodType == contactdomain.MethodEmail && want[m.Value] {
				clone := *c
				out = append(out, &clone)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeContactRepoStub) FindDueFollowUps(asOf time.Time) ([]*contactdomain.Contact, error) {
	return nil, nil
}

func (r *fakeContactRepoStub) FindMethodByValue(value string) (*contactdomain.ContactMethod, error) {
	return nil, nil
}

func (r *fakeContactRepoStub) AddMethod(method *contactdomain.ContactMethod) error { return nil }

func (r *fakeContactRepoStub) DeleteMethod(contactID, methodID string) error { return nil }

func (r *fakeContactRepoStub) ClearPrimary(contactID, methodType, exceptID string) error {
	return nil
}

type fakeSummarizer struct {
	summary string
	calls   int
}

func (s *fakeSummarizer) Summarize(ctx context.Context, owner, message string) (string, error) {
	s.calls++
	return s.summary, nil
}

type fakeVectorIndex struct {
	ids       []string
	distances []float64

	mu        sync.Mutex
	upsertErr error
	upserts   int
}

func (v *fakeVectorIndex) UpsertEmail(ctx context.Context, emailID, sender, subject, body string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.upserts++
	return v.upsertErr
}

func (v *fakeVectorIndex) upsertCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.upserts
}

func (v *fakeVectorIndex) SemanticSearch(ctx context.Context, query string, limit int) ([]string, []float64, error) {
	return v.ids, v.distances, nil
}

func (v *fakeVectorIndex) DeleteEmail(ctx context.Context, emailID string) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{OwnerName: "Alice", SyncMaxMessages: 200}
}

func seedContact(repo *fakeContactRepoStub, name, email string) *contactdomain.Contact {
	contact := &contactdomain.Contact{
		ID:   uuid.New().String(),
		Name: name,
		ContactMethods: []contactdomain.ContactMethod{
			{ID: uuid.New().String(), MethodType: contactdomain.MethodEmail, Value: email, IsPrimary: true},
		},
	}
	repo.contacts[contact.ID] = contact
	return contact
}

func newSyncUsecase(emailRepo *fakeEmailRepo, contactRepo *fakeContactRepoStub, provider *fakeProvider) EmailUsecase {
	return NewEmailUsecase(emailRepo, contactRepo, provider, &fakeCredentials{}, testConfig())
}

func TestSyncSavesNewMessages(t *testing.T) {
	emailRepo := newFakeEmailRepo()
	contactRepo := newFakeContactRepoStub()
	contact := seedContact(contactRepo, "Jane", "jane@acme.com")

	msgDate := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	provider := &fakeProvider{messages: []*emaildomain.Message{
		{MessageID: "m1", Subject: "Hello", Sender: "jane@acme.com", Recipient: "me@example.com", Date: msgDate},
	}}

	uc := newSyncUsecase(emailRepo, contactRepo, provider)
	defer uc.Close()

	report, err := uc.SyncAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Saved != 1 || report.Skipped != 0 || report.Failed != 0 {
		t.Errorf("unexpected report: %+v", report)
	}

	if !strings.Contains(provider.lastQuery, "from:jane@acme.com") ||
		!strings.Contains(provider.lastQuery, "to:jane@acme.com") {
		t.Errorf("query should cover both directions: %q", provider.lastQuery)
	}

	// Message is linked to the matched contact.
	emails, _, _ := emailRepo.ListByContact(contact.ID, 50, 0)
	if len(emails) != 1 || emails[0].MessageID != "m1" {
		t.Errorf("email not linked to contact: %+v", emails)
	}

	// last_contacted advanced to the message date.
	updated := contactRepo.contacts[contact.ID]
	if updated.LastContacted == nil || !updated.LastContacted.Equal(msgDate) {
		t.Errorf("last_contacted not advanced: %v", updated.LastContacted)
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	emailRepo := newFakeEmailRepo()
	contactRepo := newFakeContactRepoStub()
	seedContact(contactRepo, "Jane", "jane@acme.com")

	provider := &fakeProvider{messages: []*emaildomain.Message{
		{MessageID: "m1", Subject: "Hello", Sender: "jane@acme.com", Date: time.Now()},
		{MessageID: "m2", Subject: "Again", Sender: "jane@acme.com", Date: time.Now()},
	}}

	uc := newSyncUsecase(emailRepo, contactRepo, provider)
	defer uc.Close()

	first, err := uc.SyncAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Saved != 2 {
		t.Fatalf("expected 2 saved on first run, got %+v", first)
	}

	second, err := uc.SyncAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Saved != 0 || second.Skipped != 2 {
		t.Errorf("second run should skip everything: %+v", second)
	}
	if len(emailRepo.emails) != 2 {
		t.Errorf("expected 2 stored emails, got %d", len(emailRepo.emails))
	}
}

func TestSyncCountsFetchFailures(t *testing.T) {
	emailRepo := newFakeEmailRepo()
	contactRepo := newFakeContactRepoStub()
	seedContact(contactRepo, "Jane", "jane@acme.com")

	provider := &fakeProvider{
		messages: []*emaildomain.Message{
			{MessageID: "m1", Sender: "jane@acme.com", Date: time.Now()},
		},
		failed: 3,
	}

	uc := newSyncUsecase(emailRepo, contactRepo, provider)
	defer uc.Close()

	report, err := uc.SyncAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Saved != 1 || report.Failed != 3 {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestSyncRetriesFailedEmbeddings(t *testing.T) {
	emailRepo := newFakeEmailRepo()
	contactRepo := newFakeContactRepoStub()
	seedContact(contactRepo, "Jane", "jane@acme.com")

	provider := &fakeProvider{messages: []*emaildomain.Message{
		{MessageID: "m1", Subject: "Hello", Sender: "jane@acme.com", Date: time.Now()},
	}}

	uc := newSyncUsecase(emailRepo, contactRepo, provider)
	index := &fakeVectorIndex{upsertErr: errors.New("embedding backend down")}
	uc.SetVectorIndex(index)

	// First run saves the email; its embedding fails and indexed_at stays unset.
	if _, err := uc.SyncAll(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Second run skips the stored email but re-queues the unindexed row.
	second, err := uc.SyncAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Skipped != 1 {
		t.Fatalf("expected the message to be skipped, got %+v", second)
	}

	uc.Close()

	if got := index.upsertCount(); got < 2 {
		t.Errorf("unindexed email should be retried, upsert attempts = %d", got)
	}
	for _, e := range emailRepo.emails {
		if e.IndexedAt != nil {
			t.Errorf("failed embedding must leave indexed_at unset: %v", e.IndexedAt)
		}
	}
}

func TestSyncLastContactedNeverRegresses(t *testing.T) {
	emailRepo := newFakeEmailRepo()
	contactRepo := newFakeContactRepoStub()
	contact := seedContact(contactRepo, "Jane", "jane@acme.com")

	recent := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	contact.LastContacted = &recent

	older := recent.AddDate(0, -3, 0)
	provider := &fakeProvider{messages: []*emaildomain.Message{
		{MessageID: "old", Sender: "jane@acme.com", Date: older},
	}}

	uc := newSyncUsecase(emailRepo, contactRepo, provider)
	defer uc.Close()

	if _, err := uc.SyncAll(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated := contactRepo.contacts[contact.ID]
	if !updated.LastContacted.Equal(recent) {
		t.Errorf("last_contacted regressed to %v", updated.LastContacted)
	}
}

func TestSyncWithoutContactsIsNoop(t *testing.T) {
	emailRepo := newFakeEmailRepo()
	contactRepo := newFakeContactRepoStub()
	provider := &fakeProvider{}

	uc := newSyncUsecase(emailRepo, contactRepo, provider)
	defer uc.Close()

	report, err := uc.SyncAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Saved != 0 || report.Skipped != 0 || report.Failed != 0 {
		t.Errorf("expected empty report, got %+v", report)
	}
	if provider.lastQuery != "" {
		t.Error("provider should not be called without contact addresses")
	}
}

func TestSyncWithFiltersTargetsMatchingContacts(t *testing.T) {
	emailRepo := newFakeEmailRepo()
	contactRepo := newFakeContactRepoStub()
	seedContact(contactRepo, "Jane", "jane@acme.com")
	seedContact(contactRepo, "Bob", "bob@globex.com")
	provider := &fakeProvider{}

	uc := newSyncUsecase(emailRepo, contactRepo, provider)
	defer uc.Close()

	if _, err := uc.SyncAll(context.Background(), &dto.SyncRequest{Name: "jane"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(provider.lastQuery, "jane@acme.com") {
		t.Errorf("query should cover the matched contact: %q", provider.lastQuery)
	}
	if strings.Contains(provider.lastQuery, "bob@globex.com") {
		t.Errorf("query should not cover filtered-out contacts: %q", provider.lastQuery)
	}
}

func TestSyncWithFiltersNoMatch(t *testing.T) {
	contactRepo := newFakeContactRepoStub()
	seedContact(contactRepo, "Jane", "jane@acme.com")

	uc := newSyncUsecase(newFakeEmailRepo(), contactRepo, &fakeProvider{})
	defer uc.Close()

	_, err := uc.SyncAll(context.Background(), &dto.SyncRequest{Name: "nobody"})
	if !errors.Is(err, contactdomain.ErrContactNotFound) {
		t.Errorf("expected ErrContactNotFound, got %v", err)
	}
}

func TestSyncContactUnknownContact(t *testing.T) {
	uc := newSyncUsecase(newFakeEmailRepo(), newFakeContactRepoStub(), &fakeProvider{})
	defer uc.Close()

	_, err := uc.SyncContact(context.Background(), "missing", 0)
	if !errors.Is(err, contactdomain.ErrContactNotFound) {
		t.Errorf("expected ErrContactNotFound, got %v", err)
	}
}

func TestSyncContactWithoutEmailMethod(t *testing.T) {
	contactRepo := newFakeContactRepoStub()
	contact := &contactdomain.Contact{
		ID:   uuid.New().String(),
		Name: "Jane",
		ContactMethods: []contactdomain.ContactMethod{
			{ID: uuid.New().String(), MethodType: contactdomain.MethodPhone, Value: "+1 555 0100"},
		},
	}
	contactRepo.contacts[contact.ID] = contact

	provider := &fakeProvider{}
	uc := newSyncUsecase(newFakeEmailRepo(), contactRepo, provider)
	defer uc.Close()

	_, err := uc.SyncContact(context.Background(), contact.ID, 0)
	if !errors.Is(err, emaildomain.ErrNoEmailAddresses) {
		t.Errorf("expected ErrNoEmailAddresses, got %v", err)
	}
	if provider.lastQuery != "" {
		t.Error("provider should not be called without email addresses")
	}
}

func TestSyncAllWithoutEmailMethods(t *testing.T) {
	contactRepo := newFakeContactRepoStub()
	contact := &contactdomain.Contact{
		ID:   uuid.New().String(),
		Name: "Jane",
		ContactMethods: []contactdomain.ContactMethod{
			{ID: uuid.New().String(), MethodType: contactdomain.MethodLinkedIn, Value: "https://linkedin.com/in/jane"},
		},
	}
	contactRepo.contacts[contact.ID] = contact

	uc := newSyncUsecase(newFakeEmailRepo(), contactRepo, &fakeProvider{})
	defer uc.Close()

	_, err := uc.SyncAll(context.Background(), nil)
	if !errors.Is(err, emaildomain.ErrNoEmailAddresses) {
		t.Errorf("expected ErrNoEmailAddresses, got %v", err)
	}
}

func TestSyncNoAccount(t *testing.T) {
	emailRepo := newFakeEmailRepo()
	contactRepo := newFakeContactRepoStub()
	seedContact(contactRepo, "Jane", "jane@acme.com")

	uc := NewEmailUsecase(emailRepo, contactRepo, &fakeProvider{},
		&fakeCredentials{err: emaildomain.ErrNoAccount}, testConfig())
	defer uc.Close()

	_, err := uc.SyncAll(context.Background(), nil)
	if !errors.Is(err, emaildomain.ErrNoAccount) {
		t.Errorf("expected ErrNoAccount, got %v", err)
	}
}

func TestSyncCapsMaxMessages(t *testing.T) {
	emailRepo := newFakeEmailRepo()
	contactRepo := newFakeContactRepoStub()
	seedContact(contactRepo, "Jane", "jane@acme.com")
	provider := &fakeProvider{}

	uc := newSyncUsecase(emailRepo, contactRepo, provider)
	defer uc.Close()

	if _, err := uc.SyncAll(context.Background(), &dto.SyncRequest{Max: 5000}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.lastMax != 200 {
		t.Errorf("max should be capped at the configured limit, got %d", provider.lastMax)
	}
}

func TestCreateEmailSynthesizesMessageID(t *testing.T) {
	emailRepo := newFakeEmailRepo()
	contactRepo := newFakeContactRepoStub()
	contact := seedContact(contactRepo, "Jane", "jane@acme.com")

	uc := newSyncUsecase(emailRepo, contactRepo, &fakeProvider{})
	defer uc.Close()

	first, err := uc.CreateEmail(&dto.CreateEmailRequest{
		Content:    "Met at the conference.",
		ContactIDs: []string{contact.ID},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := uc.CreateEmail(&dto.CreateEmailRequest{Content: "Another note."})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.MessageID == "" || first.MessageID == second.MessageID {
		t.Errorf("manual emails need distinct message ids: %q vs %q", first.MessageID, second.MessageID)
	}
	if len(first.Contacts) != 1 || first.Contacts[0].ID != contact.ID {
		t.Errorf("contact link missing: %+v", first.Contacts)
	}

	updated := contactRepo.contacts[contact.ID]
	if updated.LastContacted == nil {
		t.Error("recording an email should advance last_contacted")
	}
}

func TestSummarizeCachesResult(t *testing.T) {
	emailRepo := newFakeEmailRepo()
	contactRepo := newFakeContactRepoStub()
	summarizer := &fakeSummarizer{summary: "You caught up with Jane."}

	uc := newSyncUsecase(emailRepo, contactRepo, &fakeProvider{})
	defer uc.Close()
	uc.SetSummarizer(summarizer)

	email := &emaildomain.Email{MessageID: "m1", Subject: "Hi", Content: "body", Date: time.Now()}
	emailRepo.Create(email)

	for i := 0; i < 2; i++ {
		summary, err := uc.Summarize(context.Background(), email.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary != "You caught up with Jane." {
			t.Errorf("unexpected summary: %q", summary)
		}
	}
	if summarizer.calls != 1 {
		t.Errorf("expected summarizer to run once, ran %d times", summarizer.calls)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	uc := newSyncUsecase(newFakeEmailRepo(), newFakeContactRepoStub(), &fakeProvider{})
	defer uc.Close()

	if _, err := uc.SearchEmails(context.Background(), "   ", SearchModeFuzzy, 10); !errors.Is(err, emaildomain.ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestSearchUnknownMode(t *testing.T) {
	uc := newSyncUsecase(newFakeEmailRepo(), newFakeContactRepoStub(), &fakeProvider{})
	defer uc.Close()

	if _, err := uc.SearchEmails(context.Background(), "budget", "psychic", 10); !errors.Is(err, emaildomain.ErrUnknownMode) {
		t.Errorf("expected ErrUnknownMode, got %v", err)
	}
}

func TestFuzzySearchRanksSubjectAboveSender(t *testing.T) {
	emailRepo := newFakeEmailRepo()
	uc := newSyncUsecase(emailRepo, newFakeContactRepoStub(), &fakeProvider{})
	defer uc.Close()

	subjectHit := &emaildomain.Email{MessageID: "a", Subject: "Invoice attached", Sender: "bob@x.com", Date: time.Now()}
	senderHit := &emaildomain.Email{MessageID: "b", Subject: "Hello", Sender: "invoice@x.com", Date: time.Now()}
	miss := &emaildomain.Email{MessageID: "c", Subject: "Lunch", Sender: "carol@x.com", Content: "see you", Date: time.Now()}
	emailRepo.Create(subjectHit)
	emailRepo.Create(senderHit)
	emailRepo.Create(miss)

	results, err := uc.SearchEmails(context.Background(), "invoice", SearchModeFuzzy, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Email.MessageID != "a" || results[1].Email.MessageID != "b" {
		t.Errorf("wrong ranking: %s then %s", results[0].Email.MessageID, results[1].Email.MessageID)
	}
}

func TestFuzzySearchFindsTypos(t *testing.T) {
	emailRepo := newFakeEmailRepo()
	uc := newSyncUsecase(emailRepo, newFakeContactRepoStub(), &fakeProvider{})
	defer uc.Close()

	email := &emaildomain.Email{MessageID: "a", Subject: "Quarterly budget", Sender: "jane@x.com", Date: time.Now()}
	emailRepo.Create(email)

	// "budgt" is not a substring of anything stored.
	results, err := uc.SearchEmails(context.Background(), "budgt", SearchModeFuzzy, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Email.MessageID != "a" {
		t.Errorf("typo should still match: %+v", results)
	}
}

func TestSemanticSearchOrdersByDistance(t *testing.T) {
	emailRepo := newFakeEmailRepo()
	uc := newSyncUsecase(emailRepo, newFakeContactRepoStub(), &fakeProvider{})
	defer uc.Close()

	near := &emaildomain.Email{MessageID: "a", Subject: "Near", Date: time.Now()}
	far := &emaildomain.Email{MessageID: "b", Subject: "Far", Date: time.Now()}
	emailRepo.Create(near)
	emailRepo.Create(far)

	uc.SetVectorIndex(&fakeVectorIndex{
		ids:       []string{near.ID, far.ID, "deleted-since-indexing"},
		distances: []float64{0.1, 0.9, 0.2},
	})

	results, err := uc.SearchEmails(context.Background(), "catching up", SearchModeSemantic, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("stale ids should drop out, got %d results", len(results))
	}
	if results[0].Email.ID != near.ID {
		t.Errorf("nearest email should come first")
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("scores should decrease with distance: %v vs %v", results[0].Score, results[1].Score)
	}
}

func TestSemanticSearchWithoutIndex(t *testing.T) {
	uc := newSyncUsecase(newFakeEmailRepo(), newFakeContactRepoStub(), &fakeProvider{})
	defer uc.Close()

	if _, err := uc.SearchEmails(context.Background(), "anything", SearchModeSemantic, 10); err == nil {
		t.Error("semantic search without a vector index should fail")
	}
}

func TestMarkReadUnknownEmail(t *testing.T) {
	uc := newSyncUsecase(newFakeEmailRepo(), newFakeContactRepoStub(), &fakeProvider{})
	defer uc.Close()

	if err := uc.MarkRead("missing", true); !errors.Is(err, emaildomain.ErrEmailNotFound) {
		t.Errorf("expected ErrEmailNotFound, got %v", err)
	}
}
