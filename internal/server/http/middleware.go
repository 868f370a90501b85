package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kazna/user-service/internal/common"
	"github.com/kazna/user-service/internal/logging"
	"github.com/kazna/user-service/internal/server/models"
)

const userKey = "user"

const (
	detailNoCredentials   = "Authentication credentials were not provided."
	detailInvalidToken    = "Invalid token."
	detailHeaderNoToken   = "Invalid token header. No credentials provided."
	detailHeaderHasSpaces = "Invalid token header. Token string should not contain spaces."
)

// authenticate resolves the Authorization header to a user. A missing header
// or a foreign scheme leaves the request anonymous; a malformed or unknown
// token is rejected on every route.
func authenticate(authn Authenticator, l logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, present, detail := parseAuthorization(c.GetHeader(common.AuthorizationHeaderName))
		if !present {
			c.Next()
			return
		}
		if detail != "" {
			abortUnauthorized(c, detail)
			return
		}

		user, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, common.ErrInvalidToken) {
				abortUnauthorized(c, detailInvalidToken)
				return
			}
			l.Error(c.Request.Context(), "token lookup failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": detailInternal})
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// parseAuthorization splits "<keyword> <token>". present is false when the
// header is empty or uses a keyword we do not handle.
func parseAuthorization(header string) (token string, present bool, detail string) {
	parts := strings.Fields(header)
	if len(parts) == 0 || !isTokenKeyword(parts[0]) {
		return "", false, ""
	}
	switch len(parts) {
	case 1:
		return "", true, detailHeaderNoToken
	case 2:
		return parts[1], true, ""
	default:
		return "", true, detailHeaderHasSpaces
	}
}

func isTokenKeyword(s string) bool {
	for _, kw := range common.TokenKeywords {
		if strings.EqualFold(s, kw) {
			return true
		}
	}
	return false
}

func requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentUser(c); !ok {
			abortUnauthorized(c, detailNoCredentials)
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, detail string) {
	c.Header("WWW-Authenticate", common.TokenKeywords[0])
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detail})
}

func currentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok
}

func requestLogger(l logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		}
		if u, ok := currentUser(c); ok {
			args = append(args, "user_id", u.ID)
		}
		l.Info(c.Request.Context(), "request", args...)
	}
}
