package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	contactdomain "crm-backend/internal/contact/domain"
	"crm-backend/internal/contact/dto"
	"crm-backend/internal/contact/repository"
	"crm-backend/pkg/apify"
	"crm-backend/pkg/metrics"
	"crm-backend/pkg/openai"

	"github.com/google/uuid"
)

// ProfileScraper runs the LinkedIn scraper against a profile URL.
type ProfileScraper interface {
	ScrapeProfile(ctx context.Context, profileURL string) (map[string]interface{}, error)
}

// ProfileSuggester turns scraped profile data into structured contact fields.
type ProfileSuggester interface {
	SuggestProfile(ctx context.Context, name, scraped string) (*openai.Profile, error)
}

type ContactUsecase interface {
	CreateContact(req *dto.CreateContactRequest) (*contactdomain.Contact, error)
	GetContact(id string) (*contactdomain.Contact, error)
	ListContacts(name, email, company string, limit, offset int) ([]*contactdomain.Contact, int, error)
	UpdateContact(id string, req *dto.UpdateContactRequest) (*contactdomain.Contact, error)
	DeleteContact(id string) error

	LookupByEmail(email string) ([]*contactdomain.Contact, error)
	GetDueFollowUps() ([]*contactdomain.Contact, error)

	AddMethod(contactID string, input *dto.MethodInput) (*contactdomain.Contact, error)
	RemoveMethod(contactID, methodID string) error

	Enrich(ctx context.Context, id, linkedinURL string, overwrite bool) (*contactdomain.Contact, error)
}

type contactUsecase struct {
	contactRepo repository.ContactRepository
	scraper     ProfileScraper
	suggester   ProfileSuggester
}

func NewContactUsecase(contactRepo repository.ContactRepository, scraper ProfileScraper, suggester ProfileSuggester) ContactUsecase {
	return &contactUsecase{
		contactRepo: contactRepo,
		scraper:     scraper,
		suggester:   suggester,
	}
}

func (u *contactUsecase) CreateContact(req *dto.CreateContactRequest) (*contactdomain.Contact, error) {
	if len(req.Methods) == 0 {
		return nil, contactdomain.ErrNoMethods
	}

	methods := make([]contactdomain.ContactMethod, 0, len(req.Methods))
	seenValues := map[string]bool{}
	for _, m := range req.Methods {
		methodType := strings.ToLower(strings.TrimSpace(m.MethodType))
		if !contactdomain.ValidMethodType(methodType) {
			return nil, fmt.Errorf("%w: %s", contactdomain.ErrInvalidMethodType, m.MethodType)
		}

		value := normalizeMethodValue(methodType, m.Value)
		if seenValues[value] {
			return nil, fmt.Errorf("%w: %s", contactdomain.ErrMethodExists, value)
		}
		seenValues[value] = true
		if err := u.checkValueFree(value); err != nil {
			return nil, err
		}

		methods = append(methods, contactdomain.ContactMethod{
			MethodType: methodType,
			Value:      value,
			IsPrimary:  m.IsPrimary,
		})
	}
	ensureOnePrimaryPerType(methods)

	reminder := true
	if req.Reminder != nil {
		reminder = *req.Reminder
	}

	contact := &contactdomain.Contact{
		Name:           strings.TrimSpace(req.Name),
		Company:        req.Company,
		Position:       req.Position,
		Warm:           req.Warm,
		Reminder:       reminder,
		Notes:          req.Notes,
		LastContacted:  req.LastContacted,
		FollowUpDate:   req.FollowUpDate,
		ContactMethods: methods,
	}

	if err := u.contactRepo.Create(contact); err != nil {
		return nil, err
	}
	return contact, nil
}

func (u *contactUsecase) GetContact(id string) (*contactdomain.Contact, error) {
	contact, err := u.contactRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, contactdomain.ErrContactNotFound
	}
	return contact, nil
}

func (u *contactUsecase) ListContacts(name, email, company string, limit, offset int) ([]*contactdomain.Contact, int, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return u.contactRepo.Search(name, strings.ToLower(email), company, limit, offset)
}

func (u *contactUsecase) UpdateContact(id string, req *dto.UpdateContactRequest) (*contactdomain.Contact, error) {
	contact, err := u.GetContact(id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("name cannot be empty")
		}
		contact.Name = name
	}
	if req.Company != nil {
		contact.Company = *req.Company
	}
	if req.Position != nil {
		contact.Position = *req.Position
	}
	if req.Warm != nil {
		contact.Warm = *req.Warm
	}
	if req.Reminder != nil {
		contact.Reminder = *req.Reminder
	}
	if req.Notes != nil {
		contact.Notes = *req.Notes
	}
	if req.LastContacted != nil {
		// LastContacted never moves backwards.
		contact.TouchLastContacted(*req.LastContacted)
	}
	if req.FollowUpDate != nil {
		contact.FollowUpDate = req.FollowUpDate
	}

	if err := u.contactRepo.Update(contact); err != nil {
		return nil, err
	}
	return contact, nil
}

func (u *contactUsecase) DeleteContact(id string) error {
	if _, err := u.GetContact(id); err != nil {
		return err
	}
	return u.contactRepo.Delete(id)
}

func (u *contactUsecase) LookupByEmail(email string) ([]*contactdomain.Contact, error) {
	return u.contactRepo.FindByEmailAddress(strings.ToLower(strings.TrimSpace(email)))
}

func (u *contactUsecase) GetDueFollowUps() ([]*contactdomain.Contact, error) {
	return u.contactRepo.FindDueFollowUps(time.Now())
}

func (u *contactUsecase) AddMethod(contactID string, input *dto.MethodInput) (*contactdomain.Contact, error) {
	contact, err := u.GetContact(contactID)
	if err != nil {
		return nil, err
	}

	methodType := strings.ToLower(strings.TrimSpace(input.MethodType))
	if !contactdomain.ValidMethodType(methodType) {
		return nil, fmt.Errorf("%w: %s", contactdomain.ErrInvalidMethodType, input.MethodType)
	}

	value := normalizeMethodValue(methodType, input.Value)
	if err := u.checkValueFree(value); err != nil {
		return nil, err
	}

	// First method of its type becomes primary even when not asked for.
	isPrimary := input.IsPrimary
	if !isPrimary && !hasMethodOfType(contact, methodType) {
		isPrimary = true
	}

	method := &contactdomain.ContactMethod{
		ID:         uuid.New().String(),
		ContactID:  contactID,
		MethodType: methodType,
		Value:      value,
		IsPrimary:  isPrimary,
	}
	if err := u.contactRepo.AddMethod(method); err != nil {
		return nil, err
	}

	if isPrimary {
		if err := u.contactRepo.ClearPrimary(contactID, methodType, method.ID); err != nil {
			return nil, err
		}
	}

	return u.GetContact(contactID)
}

func (u *contactUsecase) RemoveMethod(contactID, methodID string) error {
	contact, err := u.GetContact(contactID)
	if err != nil {
		return err
	}

	for _, m := range contact.ContactMethods {
		if m.ID == methodID {
			return u.contactRepo.DeleteMethod(contactID, methodID)
		}
	}
	return contactdomain.ErrMethodNotFound
}

// Enrich scrapes the contact's LinkedIn profile and fills in company, position
// and notes from what the model extracts. Existing company/position values are
// kept unless overwrite is set.
func (u *contactUsecase) Enrich(ctx context.Context, id, linkedinURL string, overwrite bool) (*contactdomain.Contact, error) {
	if u.scraper == nil || u.suggester == nil {
		return nil, fmt.Errorf("enrichment is not configured")
	}

	contact, err := u.GetContact(id)
	if err != nil {
		return nil, err
	}

	if linkedinURL == "" {
		linkedinURL = contact.LinkedInURL()
	}
	if linkedinURL == "" {
		return nil, contactdomain.ErrNoLinkedIn
	}

	start := time.Now()
	item, err := u.scraper.ScrapeProfile(ctx, linkedinURL)
	metrics.ObserveExternalCall("apify", start)
	if err != nil {
		return nil, fmt.Errorf("failed to scrape profile: %w", err)
	}

	start = time.Now()
	profile, err := u.suggester.SuggestProfile(ctx, contact.Name, apify.FlattenItem(item))
	metrics.ObserveExternalCall("openai", start)
	if err != nil {
		return nil, fmt.Errorf("failed to extract profile: %w", err)
	}

	changed := false
	if profile.Company != "" && (overwrite || contact.Company == "") && contact.Company != profile.Company {
		contact.Company = profile.Company
		changed = true
	}
	if profile.Position != "" && (overwrite || contact.Position == "") && contact.Position != profile.Position {
		contact.Position = profile.Position
		changed = true
	}
	if profile.Notes != "" && !strings.Contains(contact.Notes, profile.Notes) {
		if contact.Notes != "" {
			contact.Notes += "\n\n"
		}
		contact.Notes += profile.Notes
		changed = true
	}

	if changed {
		if err := u.contactRepo.Update(contact); err != nil {
			return nil, err
		}
		log.Printf("[Enrich] Updated contact %s from %s", contact.ID, linkedinURL)
	}

	return contact, nil
}

func (u *contactUsecase) checkValueFree(value string) error {
	existing, err := u.contactRepo.FindMethodByValue(value)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: %s", contactdomain.ErrMethodExists, value)
	}
	return nil
}

// normalizeMethodValue lowercases emails so address matching during sync is
// case-insensitive; other method values keep their casing.
func normalizeMethodValue(methodType, value string) string {
	value = strings.TrimSpace(value)
	if methodType == contactdomain.MethodEmail {
		value = strings.ToLower(value)
	}
	return value
}

func hasMethodOfType(contact *contactdomain.Contact, methodType string) bool {
	for _, m := range contact.ContactMethods {
		if m.MethodType == methodType {
			return true
		}
	}
	return false
}

// ensureOnePrimaryPerType keeps the primary flag on at most one method per
// type, promoting the first of a type when none is flagged.
func ensureOnePrimaryPerType(methods []contactdomain.ContactMethod) {
	seen := map[string]bool{}
	for i := range methods {
		t := methods[i].MethodType
		if methods[i].IsPrimary {
			if seen[t] {
				methods[i].IsPrimary = false
			}
			seen[t] = true
		}
	}
	for i := range methods {
		t := methods[i].MethodType
		if !seen[t] {
			methods[i].IsPrimary = true
			seen[t] = true
		}
	}
}
