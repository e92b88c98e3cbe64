package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Envelope is the common shape of every API response.
type Envelope struct {
	Status    string      `json:"status"`
	Timestamp string      `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Meta      interface{} `json:"meta,omitempty"`
	Message   string      `json:"message,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
}

type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// PageMeta describes list pagination in the meta field.
type PageMeta struct {
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Status: "success", Timestamp: now(), Data: data})
}

func OKWithMeta(c *gin.Context, data, meta interface{}) {
	c.JSON(http.StatusOK, Envelope{Status: "success", Timestamp: now(), Data: data, Meta: meta})
}

func OKWithMessage(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, Envelope{Status: "success", Timestamp: now(), Data: data, Message: message})
}

// Synced reports the outcome of a sync run: counts in meta, summary in message.
func Synced(c *gin.Context, meta interface{}, message string) {
	c.JSON(http.StatusOK, Envelope{Status: "success", Timestamp: now(), Meta: meta, Message: message})
}

func Created(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusCreated, Envelope{Status: "success", Timestamp: now(), Data: data, Message: message})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Envelope{
		Status:    "error",
		Timestamp: now(),
		Error:     &APIError{Code: code, Message: message},
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, message)
}

func Internal(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}
