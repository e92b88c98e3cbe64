package delivery

import (
	"errors"
	"strconv"

	contactdomain "crm-backend/internal/contact/domain"
	contactdto "crm-backend/internal/contact/dto"
	"crm-backend/internal/contact/usecase"
	"crm-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ContactHandler struct {
	contactUsecase usecase.ContactUsecase
}

func NewContactHandler(contactUsecase usecase.ContactUsecase) *ContactHandler {
	return &ContactHandler{
		contactUsecase: contactUsecase,
	}
}

// respondError maps domain errors onto the envelope's error statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, contactdomain.ErrContactNotFound),
		errors.Is(err, contactdomain.ErrMethodNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, contactdomain.ErrMethodExists):
		response.Conflict(c, err.Error())
	case errors.Is(err, contactdomain.ErrInvalidMethodType),
		errors.Is(err, contactdomain.ErrNoMethods),
		errors.Is(err, contactdomain.ErrNoLinkedIn):
		response.BadRequest(c, err.Error())
	default:
		response.Internal(c, err.Error())
	}
}

// pagination reads limit/offset, with page/per_page accepted as aliases.
func pagination(c *gin.Context) (int, int) {
	limit := 50
	offset := 0
	if perPageStr := c.Query("per_page"); perPageStr != "" {
		if parsed, err := strconv.Atoi(perPageStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if pageStr := c.Query("page"); pageStr != "" {
		if parsed, err := strconv.Atoi(pageStr); err == nil && parsed > 1 {
			offset = (parsed - 1) * limit
		}
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}

func (h *ContactHandler) ListContacts(c *gin.Context) {
	limit, offset := pagination(c)

	contacts, total, err := h.contactUsecase.ListContacts(
		c.Query("name"), c.Query("email"), c.Query("company"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OKWithMeta(c, contactdto.ContactsResponse{Contacts: contacts}, response.PageMeta{
		Total:   total,
		Page:    offset/limit + 1,
		PerPage: limit,
	})
}

func (h *ContactHandler) CreateContact(c *gin.Context) {
	var req contactdto.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	contact, err := h.contactUsecase.CreateContact(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, contact, "Contact created successfully")
}

func (h *ContactHandler) GetContact(c *gin.Context) {
	contact, err := h.contactUsecase.GetContact(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, contact)
}

func (h *ContactHandler) UpdateContact(c *gin.Context) {
	var req contactdto.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	contact, err := h.contactUsecase.UpdateContact(c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OKWithMessage(c, contact, "Contact updated successfully")
}

func (h *ContactHandler) DeleteContact(c *gin.Context) {
	if err := h.contactUsecase.DeleteContact(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	response.OKWithMessage(c, nil, "Contact deleted successfully")
}

func (h *ContactHandler) GetFollowUps(c *gin.Context) {
	contacts, err := h.contactUsecase.GetDueFollowUps()
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, contactdto.ContactsResponse{Contacts: contacts})
}

func (h *ContactHandler) LookupByEmail(c *gin.Context) {
	email := c.Param("email")
	if email == "" {
		response.BadRequest(c, "email is required")
		return
	}

	contacts, err := h.contactUsecase.LookupByEmail(email)
	if err != nil {
		respondError(c, err)
		return
	}
	if len(contacts) == 0 {
		response.NotFound(c, "no contact with that email")
		return
	}
	response.OK(c, contactdto.ContactsResponse{Contacts: contacts})
}

func (h *ContactHandler) AddMethod(c *gin.Context) {
	var req contactdto.MethodInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	contact, err := h.contactUsecase.AddMethod(c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, contact, "Contact method added successfully")
}

func (h *ContactHandler) RemoveMethod(c *gin.Context) {
	if err := h.contactUsecase.RemoveMethod(c.Param("id"), c.Param("methodId")); err != nil {
		respondError(c, err)
		return
	}
	response.OKWithMessage(c, nil, "Contact method removed successfully")
}

func (h *ContactHandler) Enrich(c *gin.Context) {
	// Body is optional; without it the contact's linkedin method is used.
	var req contactdto.EnrichRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}

	contact, err := h.contactUsecase.Enrich(c.Request.Context(), c.Param("id"), req.LinkedInURL, req.Overwrite)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OKWithMessage(c, contact, "Contact enriched successfully")
}
