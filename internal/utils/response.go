// internal/utils/response.go
package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/campus-market/internal/apperr"
	"github.com/javajoker/campus-market/internal/i18n"
	"github.com/javajoker/campus-market/internal/policy"
)

// Context keys set by the auth and i18n middleware.
const (
	ContextLang      = "lang"
	ContextUserID    = "user_id"
	ContextSessionID = "session_id"
	ContextEmail     = "email"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

func SuccessResponseWithMeta(c *gin.Context, data interface{}, meta interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// AbortWithError answers with the status and code of err's apperr.Kind.
// Internal errors are logged and replaced by a generic message.
func AbortWithError(c *gin.Context, err error) {
	lang := GetLangFromContext(c)
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)

	message := err.Error()
	var details interface{}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
		details = appErr.Details
	}

	switch kind {
	case apperr.KindInternal:
		logrus.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		message = i18n.T(lang, i18n.KeySystemError)
		details = nil
	case apperr.KindNetwork, apperr.KindUpload:
		logrus.WithError(err).WithField("path", c.FullPath()).Warn("Request failed")
	}

	c.Abort()
	ErrorResponse(c, status, string(kind), message, details)
}

func BadRequestResponse(c *gin.Context, message string, details interface{}) {
	lang := GetLangFromContext(c)
	if message == "" {
		message = i18n.T(lang, i18n.KeyValidationInvalid, "request")
	}
	ErrorResponse(c, http.StatusBadRequest, string(apperr.KindValidation), message, details)
}

func UnauthorizedResponse(c *gin.Context, message string) {
	lang := GetLangFromContext(c)
	if message == "" {
		message = i18n.T(lang, i18n.KeyAuthRequired)
	}
	ErrorResponse(c, http.StatusUnauthorized, string(apperr.KindAuthentication), message, nil)
}

func NotFoundResponse(c *gin.Context, resource string) {
	lang := GetLangFromContext(c)
	message := i18n.T(lang, resource+".not_found")
	ErrorResponse(c, http.StatusNotFound, string(apperr.KindNotFound), message, nil)
}

func ValidationErrorResponse(c *gin.Context, errors []ValidationError) {
	lang := GetLangFromContext(c)
	message := i18n.T(lang, i18n.KeyValidationInvalid, "input")
	ErrorResponse(c, http.StatusBadRequest, string(apperr.KindValidation), message, errors)
}

func PaginatedResponse(c *gin.Context, result PaginationResult) {
	SetPaginationHeaders(c, result)
	SuccessResponseWithMeta(c, result.Data, gin.H{
		"pagination": gin.H{
			"page":        result.Page,
			"limit":       result.Limit,
			"total":       result.Total,
			"total_pages": result.TotalPages,
		},
	})
}

func GetLangFromContext(c *gin.Context) string {
	if lang, exists := c.Get(ContextLang); exists {
		if langStr, ok := lang.(string); ok {
			return langStr
		}
	}
	return "en"
}

func GetUserIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	if userID, exists := c.Get(ContextUserID); exists {
		if id, ok := userID.(uuid.UUID); ok && id != uuid.Nil {
			return id, true
		}
	}
	return uuid.Nil, false
}

func GetSessionIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	if sessionID, exists := c.Get(ContextSessionID); exists {
		if id, ok := sessionID.(uuid.UUID); ok {
			return id, true
		}
	}
	return uuid.Nil, false
}

// GetCallerFromContext returns the policy identity of the request; nil
// when nobody is signed in.
func GetCallerFromContext(c *gin.Context) *policy.Caller {
	if id, ok := GetUserIDFromContext(c); ok {
		return &policy.Caller{UserID: id}
	}
	return nil
}
