// Package handlers implements the HTTP endpoints and the response
// envelope shared by all of them.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"

	"focustask/internal/apperr"
	"focustask/internal/models"
)

// Envelope status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Context keys set by the auth middleware.
const (
	ContextUserID = "userID"
	ContextUser   = "user"
)

// Success writes a success envelope with data.
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"status": StatusSuccess,
		"data":   data,
	})
}

// SuccessMessage writes a success envelope with data and a message.
func SuccessMessage(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, gin.H{
		"status":  StatusSuccess,
		"data":    data,
		"message": message,
	})
}

// Fail writes an error envelope with an explicit status code.
func Fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"status":     StatusError,
		"statusCode": status,
		"message":    message,
	})
}

// Error maps an error to the envelope. Business errors keep their status
// and message; anything else becomes an opaque 500.
func Error(c *gin.Context, err error) {
	if appErr, ok := apperr.From(err); ok {
		Fail(c, appErr.StatusCode, appErr.Message)
		return
	}
	log.WithError(err).WithFields(log.Fields{
		"method": c.Request.Method,
		"path":   c.FullPath(),
	}).Error("request failed")
	Fail(c, http.StatusInternalServerError, "erreur interne du serveur")
}

// BindError maps a JSON binding failure to a validation response. Field
// violations from the binding validator are named explicitly.
func BindError(c *gin.Context, err error) {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		Fail(c, http.StatusBadRequest, "champ invalide ou manquant: "+fieldErrs[0].Field())
		return
	}
	Fail(c, http.StatusBadRequest, "corps de requête invalide")
}

// CurrentUserID returns the authenticated user ID, or zero.
func CurrentUserID(c *gin.Context) uint64 {
	value, exists := c.Get(ContextUserID)
	if !exists {
		return 0
	}
	userID, ok := value.(uint64)
	if !ok {
		return 0
	}
	return userID
}

// CurrentUser returns the authenticated user, or nil.
func CurrentUser(c *gin.Context) *models.User {
	value, exists := c.Get(ContextUser)
	if !exists {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}
