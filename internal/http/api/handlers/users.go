package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"focustask/internal/apperr"
	"focustask/internal/users"
)

// UserHandler manages profile and leaderboard endpoints.
type UserHandler struct {
	users *users.Service
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(users *users.Service) *UserHandler {
	return &UserHandler{users: users}
}

// Profile returns the authenticated user's profile.
func (h *UserHandler) Profile(c *gin.Context) {
	user := CurrentUser(c)
	Success(c, http.StatusOK, gin.H{"user": userJSON(user)})
}

// UpdateProfile applies a partial profile update.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var body users.UpdateProfileInput
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		BindError(c, errBind)
		return
	}

	user, errUpdate := h.users.UpdateProfile(c.Request.Context(), CurrentUserID(c), body)
	if errUpdate != nil {
		Error(c, errUpdate)
		return
	}
	SuccessMessage(c, http.StatusOK, gin.H{"user": userJSON(user)}, "profil mis à jour")
}

// changePasswordRequest defines the request body for password changes.
type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// ChangePassword replaces the user's password.
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var body changePasswordRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		BindError(c, errBind)
		return
	}

	if errChange := h.users.ChangePassword(c.Request.Context(), CurrentUserID(c), body.CurrentPassword, body.NewPassword); errChange != nil {
		Error(c, errChange)
		return
	}
	SuccessMessage(c, http.StatusOK, nil, "mot de passe modifié")
}

// deleteAccountRequest defines the request body for account deletion.
type deleteAccountRequest struct {
	Password string `json:"password" binding:"required"`
}

// DeleteAccount removes the user and everything it owns.
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	var body deleteAccountRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		BindError(c, errBind)
		return
	}

	if errDelete := h.users.DeleteAccount(c.Request.Context(), CurrentUserID(c), body.Password); errDelete != nil {
		Error(c, errDelete)
		return
	}
	SuccessMessage(c, http.StatusOK, nil, "compte supprimé")
}

// Leaderboard returns the public ranking.
func (h *UserHandler) Leaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	entries, errList := h.users.Leaderboard(c.Request.Context(), users.LeaderboardOptions{
		Search: c.Query("search"),
		Limit:  limit,
		Offset: offset,
	})
	if errList != nil {
		Error(c, errList)
		return
	}
	Success(c, http.StatusOK, gin.H{"leaderboard": entries})
}

// Get returns another user's public profile.
func (h *UserHandler) Get(c *gin.Context) {
	userID, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil || userID == 0 {
		Error(c, apperr.Validation("identifiant d'utilisateur invalide"))
		return
	}

	user, errGet := h.users.GetByID(c.Request.Context(), userID)
	if errGet != nil {
		Error(c, errGet)
		return
	}
	Success(c, http.StatusOK, gin.H{"user": publicUserJSON(user)})
}
