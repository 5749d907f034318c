package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"focustask/internal/users"
)

// AuthHandler manages registration, login and the current-user endpoint.
type AuthHandler struct {
	users *users.Service
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(users *users.Service) *AuthHandler {
	return &AuthHandler{users: users}
}

// Register creates a user account and returns it with a bearer token.
func (h *AuthHandler) Register(c *gin.Context) {
	var body users.RegisterInput
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		BindError(c, errBind)
		return
	}

	user, token, errRegister := h.users.Register(c.Request.Context(), body)
	if errRegister != nil {
		Error(c, errRegister)
		return
	}
	SuccessMessage(c, http.StatusCreated, gin.H{
		"user":  userJSON(user),
		"token": token,
	}, "compte créé avec succès")
}

// loginRequest defines the request body for login.
type loginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// Login authenticates by username or email.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		BindError(c, errBind)
		return
	}

	user, token, errLogin := h.users.Login(c.Request.Context(), body.Identifier, body.Password)
	if errLogin != nil {
		Error(c, errLogin)
		return
	}
	Success(c, http.StatusOK, gin.H{
		"user":  userJSON(user),
		"token": token,
	})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Fail(c, http.StatusUnauthorized, "jeton d'authentification manquant")
		return
	}
	Success(c, http.StatusOK, gin.H{"user": userJSON(user)})
}
