package api

import (
	accountDelivery "crm-backend/internal/account/delivery"
	accountUsecase "crm-backend/internal/account/usecase"
	contactDelivery "crm-backend/internal/contact/delivery"
	contactUsecase "crm-backend/internal/contact/usecase"
	emailDelivery "crm-backend/internal/email/delivery"
	emailUsecase "crm-backend/internal/email/usecase"
	"crm-backend/pkg/metrics"
	"crm-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, contactUc contactUsecase.ContactUsecase, emailUc emailUsecase.EmailUsecase, accountUc accountUsecase.AccountUsecase) {
	contactHandler := contactDelivery.NewContactHandler(contactUc)
	emailHandler := emailDelivery.NewEmailHandler(emailUc)
	authHandler := accountDelivery.NewAuthHandler(accountUc)

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			response.OK(c, gin.H{"status": "healthy"})
		})

		auth := api.Group("/auth")
		{
			auth.GET("/google", authHandler.GoogleLogin)
			auth.GET("/google/callback", authHandler.GoogleCallback)
			auth.GET("/google/status", authHandler.Status)
			auth.DELETE("/google", authHandler.Disconnect)
		}

		contacts := api.Group("/contacts")
		{
			contacts.GET("", contactHandler.ListContacts)
			contacts.POST("", contactHandler.CreateContact)
			contacts.GET("/follow-ups", contactHandler.GetFollowUps)
			contacts.GET("/lookup/email/:email", contactHandler.LookupByEmail)
			contacts.GET("/:id", contactHandler.GetContact)
			contacts.PUT("/:id", contactHandler.UpdateContact)
			contacts.PATCH("/:id", contactHandler.UpdateContact)
			contacts.DELETE("/:id", contactHandler.DeleteContact)
			contacts.POST("/:id/methods", contactHandler.AddMethod)
			contacts.DELETE("/:id/methods/:methodId", contactHandler.RemoveMethod)
			contacts.GET("/:id/emails", emailHandler.GetContactEmails)
			contacts.POST("/:id/sync-emails", emailHandler.SyncContact)
			contacts.POST("/:id/enrich", contactHandler.Enrich)
		}

		emails := api.Group("/emails")
		{
			emails.GET("", emailHandler.ListEmails)
			emails.POST("", emailHandler.CreateEmail)
			emails.GET("/search", emailHandler.Search)
			emails.POST("/sync", emailHandler.SyncAll)
			emails.GET("/:id", emailHandler.GetEmail)
			emails.DELETE("/:id", emailHandler.DeleteEmail)
			emails.PATCH("/:id/read", emailHandler.MarkAsRead)
			emails.PATCH("/:id/unread", emailHandler.MarkAsUnread)
			emails.POST("/:id/summarize", emailHandler.Summarize)
		}
	}
}
