package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ResponseData is the envelope of the account and history endpoints. The
// analysis endpoints answer with bare results and PlainError instead.
type ResponseData struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func respond(c *gin.Context, status int, message string, data interface{}, errMsg string) {
	c.JSON(status, ResponseData{Status: status, Message: message, Data: data, Error: errMsg})
}

// Success answers 200 with data.
func Success(c *gin.Context, message string, data interface{}) {
	respond(c, http.StatusOK, message, data, "")
}

// Created answers 201 with the new resource.
func Created(c *gin.Context, message string, data interface{}) {
	respond(c, http.StatusCreated, message, data, "")
}

// Error answers with the envelope, its message summarizing who is at fault.
func Error(c *gin.Context, statusCode int, errorMessage string) {
	respond(c, statusCode, failureSummary(statusCode), nil, errorMessage)
}

func failureSummary(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return "Authentication required"
	case status == http.StatusNotFound:
		return "Resource not found"
	case status >= http.StatusInternalServerError:
		return "Server error"
	default:
		return "Request rejected"
	}
}

// PlainError sends the flat {"error": "..."} body the analysis client expects,
// merged with any extra fields.
func PlainError(c *gin.Context, statusCode int, errorMessage string, extra gin.H) {
	body := gin.H{"error": errorMessage}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(statusCode, body)
}

func BadRequest(c *gin.Context, errorMessage string) {
	Error(c, http.StatusBadRequest, errorMessage)
}

func Unauthorized(c *gin.Context, errorMessage string) {
	Error(c, http.StatusUnauthorized, errorMessage)
}

func NotFound(c *gin.Context, errorMessage string) {
	Error(c, http.StatusNotFound, errorMessage)
}

func InternalServerError(c *gin.Context, errorMessage string) {
	Error(c, http.StatusInternalServerError, errorMessage)
}
