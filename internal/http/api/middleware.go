package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"focustask/internal/http/api/handlers"
	"focustask/internal/models"
	"focustask/internal/ratelimit"
	"focustask/internal/security"
)

// RequestLogger tags each request with an ID and logs its outcome.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("requestID", requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Error("request")
		} else {
			entry.Info("request")
		}
	}
}

// CORS allows the configured origins. An empty list reflects any origin.
func CORS(origins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(origins))
	for _, origin := range origins {
		allowed[origin] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (len(allowed) == 0 || allowed[origin]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Auth validates bearer tokens and loads the user into the context.
func Auth(db *gorm.DB, issuer *security.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "jeton d'authentification manquant")
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			abortUnauthorized(c, "format d'autorisation invalide")
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			abortUnauthorized(c, "jeton vide")
			return
		}

		claims, errParse := issuer.Parse(token)
		if errParse != nil {
			abortUnauthorized(c, "jeton invalide ou expiré")
			return
		}

		var user models.User
		if errFind := db.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				abortUnauthorized(c, "utilisateur introuvable")
				return
			}
			handlers.Error(c, errFind)
			c.Abort()
			return
		}

		c.Set(handlers.ContextUserID, user.ID)
		c.Set(handlers.ContextUser, &user)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	handlers.Fail(c, http.StatusUnauthorized, message)
	c.Abort()
}

// RateLimit enforces the per-user request budget. Requests without an
// authenticated user pass through.
func RateLimit(manager *ratelimit.Manager, perSecond int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if manager == nil || perSecond <= 0 {
			c.Next()
			return
		}
		key := ratelimit.KeyForUser(handlers.CurrentUserID(c))
		if key == "" {
			c.Next()
			return
		}

		result, errAllow := manager.Allow(c.Request.Context(), key, perSecond)
		if errAllow != nil {
			log.WithError(errAllow).Warn("rate limit check failed")
			c.Next()
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		if !result.Allowed {
			c.Header("Retry-After", "1")
			handlers.Fail(c, http.StatusTooManyRequests, "trop de requêtes, réessayez dans un instant")
			c.Abort()
			return
		}
		c.Next()
	}
}
