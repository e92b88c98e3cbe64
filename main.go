package main

import (
	"log"

	api "crm-backend/cmd/api"
	accountdomain "crm-backend/internal/account/domain"
	accountRepo "crm-backend/internal/account/repository"
	accountUsecase "crm-backend/internal/account/usecase"
	contactdomain "crm-backend/internal/contact/domain"
	contactRepo "crm-backend/internal/contact/repository"
	emaildomain "crm-backend/internal/email/domain"
	emailRepo "crm-backend/internal/email/repository"
	emailUsecase "crm-backend/internal/email/usecase"
	"crm-backend/pkg/config"
	"crm-backend/pkg/database"
	"crm-backend/pkg/gmail"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(
		&contactdomain.Contact{},
		&contactdomain.ContactMethod{},
		&emaildomain.Email{},
		&accountdomain.GmailAccount{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	contactRepository := contactRepo.NewContactRepository(db)
	emailRepository := emailRepo.NewEmailRepository(db)
	accountRepository := accountRepo.NewAccountRepository(db)

	// Gmail service handles both OAuth and message fetching
	gmailService := gmail.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI)

	accountUc := accountUsecase.NewAccountUsecase(accountRepository, gmailService, cfg)
	emailUc := emailUsecase.NewEmailUsecase(emailRepository, contactRepository, gmailService, accountUc, cfg)
	defer emailUc.Close()

	handler := api.NewHandler(contactRepository, emailUc, accountUc, cfg)

	addr := ":" + cfg.Port
	log.Printf("Starting server on %s", addr)
	if err := handler.Start(addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
