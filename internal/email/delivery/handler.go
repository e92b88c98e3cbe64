package delivery

import (
	"errors"
	"fmt"
	"strconv"

	contactdomain "crm-backend/internal/contact/domain"
	emaildomain "crm-backend/internal/email/domain"
	emaildto "crm-backend/internal/email/dto"
	"crm-backend/internal/email/usecase"
	"crm-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type EmailHandler struct {
	emailUsecase usecase.EmailUsecase
}

func NewEmailHandler(emailUsecase usecase.EmailUsecase) *EmailHandler {
	return &EmailHandler{
		emailUsecase: emailUsecase,
	}
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, emaildomain.ErrEmailNotFound),
		errors.Is(err, contactdomain.ErrContactNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, emaildomain.ErrEmptyQuery),
		errors.Is(err, emaildomain.ErrUnknownMode):
		response.BadRequest(c, err.Error())
	case errors.Is(err, emaildomain.ErrNoAccount),
		errors.Is(err, emaildomain.ErrNoEmailAddresses):
		response.BadRequest(c, err.Error())
	default:
		response.Internal(c, err.Error())
	}
}

func pagination(c *gin.Context) (int, int) {
	limit := 50
	offset := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}

func (h *EmailHandler) ListEmails(c *gin.Context) {
	limit, offset := pagination(c)

	var emails []*emaildomain.Email
	var total int
	var err error
	if contactID := c.Query("contact"); contactID != "" {
		emails, total, err = h.emailUsecase.ListByContact(contactID, limit, offset)
	} else {
		emails, total, err = h.emailUsecase.ListEmails(limit, offset)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	response.OKWithMeta(c, emaildto.EmailsResponse{
		Emails: emails,
		Limit:  limit,
		Offset: offset,
		Total:  total,
	}, response.PageMeta{Total: total, Page: offset/limit + 1, PerPage: limit})
}

func (h *EmailHandler) GetContactEmails(c *gin.Context) {
	limit, offset := pagination(c)

	emails, total, err := h.emailUsecase.ListByContact(c.Param("id"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OKWithMeta(c, emaildto.EmailsResponse{
		Emails: emails,
		Limit:  limit,
		Offset: offset,
		Total:  total,
	}, response.PageMeta{Total: total, Page: offset/limit + 1, PerPage: limit})
}

func (h *EmailHandler) CreateEmail(c *gin.Context) {
	var req emaildto.CreateEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	email, err := h.emailUsecase.CreateEmail(&req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, email, "Email recorded successfully")
}

func (h *EmailHandler) GetEmail(c *gin.Context) {
	email, err := h.emailUsecase.GetEmail(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, email)
}

func (h *EmailHandler) DeleteEmail(c *gin.Context) {
	if err := h.emailUsecase.DeleteEmail(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	response.OKWithMessage(c, nil, "Email deleted successfully")
}

func (h *EmailHandler) MarkAsRead(c *gin.Context) {
	if err := h.emailUsecase.MarkRead(c.Param("id"), true); err != nil {
		respondError(c, err)
		return
	}
	response.OKWithMessage(c, nil, "Email marked as read")
}

func (h *EmailHandler) MarkAsUnread(c *gin.Context) {
	if err := h.emailUsecase.MarkRead(c.Param("id"), false); err != nil {
		respondError(c, err)
		return
	}
	response.OKWithMessage(c, nil, "Email marked as unread")
}

func (h *EmailHandler) Summarize(c *gin.Context) {
	summary, err := h.emailUsecase.Summarize(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, gin.H{"summary": summary})
}

func (h *EmailHandler) SyncAll(c *gin.Context) {
	var req emaildto.SyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}

	report, err := h.emailUsecase.SyncAll(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Synced(c, report, syncMessage(report))
}

func (h *EmailHandler) SyncContact(c *gin.Context) {
	var req emaildto.SyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}

	report, err := h.emailUsecase.SyncContact(c.Request.Context(), c.Param("id"), req.Max)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Synced(c, report, syncMessage(report))
}

func (h *EmailHandler) Search(c *gin.Context) {
	query := c.Query("q")
	mode := c.DefaultQuery("mode", usecase.SearchModeFuzzy)

	limit := 20
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	results, err := h.emailUsecase.SearchEmails(c.Request.Context(), query, mode, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, emaildto.SearchResponse{
		Results: results,
		Mode:    mode,
		Query:   query,
	})
}

func syncMessage(report *emaildomain.SyncReport) string {
	return fmt.Sprintf("Sync complete: %d saved, %d skipped, %d failed",
		report.Saved, report.Skipped, report.Failed)
}
