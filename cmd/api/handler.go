package api

import (
	"log"

	accountUsecasePkg "crm-backend/internal/account/usecase"
	contactRepoPkg "crm-backend/internal/contact/repository"
	contactUsecasePkg "crm-backend/internal/contact/usecase"
	emailUsecasePkg "crm-backend/internal/email/usecase"
	"crm-backend/pkg/apify"
	"crm-backend/pkg/chroma"
	"crm-backend/pkg/config"
	"crm-backend/pkg/metrics"
	"crm-backend/pkg/openai"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	contactUsecase contactUsecasePkg.ContactUsecase
	emailUsecase   emailUsecasePkg.EmailUsecase
	accountUsecase accountUsecasePkg.AccountUsecase
	config         *config.Config
}

func NewHandler(
	contactRepo contactRepoPkg.ContactRepository,
	emailUc emailUsecasePkg.EmailUsecase,
	accountUc accountUsecasePkg.AccountUsecase,
	cfg *config.Config,
) *Handler {
	// The OpenAI client backs summarization, enrichment and embeddings.
	var openaiClient *openai.Client
	var suggester contactUsecasePkg.ProfileSuggester
	if cfg.OpenAIAPIKey != "" {
		openaiClient = openai.NewClient("", cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIEmbeddingModel)
		emailUc.SetSummarizer(openaiClient)
		suggester = openaiClient
	} else {
		log.Println("Warning: OPENAI_API_KEY not set. Summarization and enrichment will not be available.")
	}

	// Chroma is optional: without it semantic search is unavailable and sync
	// simply skips indexing. It also needs the OpenAI client for embeddings.
	if cfg.ChromaAPIKey != "" && openaiClient != nil {
		chromaClient, err := chroma.NewChromaClient(cfg, openai.NewEmbeddingFunction(openaiClient))
		if err != nil {
			log.Printf("Warning: Failed to initialize Chroma client: %v. Semantic search will not be available.", err)
		} else {
			emailUc.SetVectorIndex(chromaClient)
			log.Println("Chroma client initialized successfully")
		}
	} else {
		log.Println("Warning: CHROMA_API_KEY or OPENAI_API_KEY not set. Semantic search will not be available.")
	}

	var scraper contactUsecasePkg.ProfileScraper
	if cfg.ApifyAPIKey != "" {
		scraper = apify.NewClient("", cfg.ApifyAPIKey, cfg.ApifyActorID)
	} else {
		log.Println("Warning: APIFY_API_KEY not set. LinkedIn enrichment will not be available.")
	}
	contactUc := contactUsecasePkg.NewContactUsecase(contactRepo, scraper, suggester)

	return &Handler{
		contactUsecase: contactUc,
		emailUsecase:   emailUc,
		accountUsecase: accountUc,
		config:         cfg,
	}
}

func (h *Handler) Start(addr string) error {
	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	r.Use(metrics.Middleware())

	SetupRoutes(r, h.contactUsecase, h.emailUsecase, h.accountUsecase)

	return r.Run(addr)
}
