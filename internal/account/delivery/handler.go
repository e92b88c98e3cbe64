package delivery

import (
	"net/http"

	"crm-backend/internal/account/usecase"
	"crm-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	accountUsecase usecase.AccountUsecase
}

func NewAuthHandler(accountUsecase usecase.AccountUsecase) *AuthHandler {
	return &AuthHandler{
		accountUsecase: accountUsecase,
	}
}

// GoogleLogin redirects the browser to Google's consent screen.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	url, err := h.accountUsecase.ConnectURL()
	if err != nil {
		response.Internal(c, err.Error())
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, url)
}

func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		response.BadRequest(c, "authorization code is required")
		return
	}

	account, err := h.accountUsecase.HandleCallback(c.Request.Context(), code, c.Query("state"))
	if err != nil {
		response.Internal(c, err.Error())
		return
	}

	response.OKWithMessage(c, gin.H{"email": account.Email}, "Gmail account connected successfully")
}

func (h *AuthHandler) Status(c *gin.Context) {
	status, err := h.accountUsecase.Status()
	if err != nil {
		response.Internal(c, err.Error())
		return
	}
	response.OK(c, status)
}

func (h *AuthHandler) Disconnect(c *gin.Context) {
	if err := h.accountUsecase.Disconnect(); err != nil {
		response.Internal(c, err.Error())
		return
	}
	response.OKWithMessage(c, nil, "Gmail account disconnected")
}
