package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shapedtime/hoardhelper/internal/config"
)

const authRealm = "hoardhelper"

// basicAuth rejects requests without the configured HTTP Basic credentials.
func basicAuth(cfg config.APIAuthConfig, l zerolog.Logger) gin.HandlerFunc {
	if cfg.Username == "" || cfg.Password == "" {
		l.Warn().Msg("API auth enabled but username or password is empty")
	} else if len(cfg.Password) < 8 {
		l.Warn().Msg("API password is less than 8 characters, consider using a stronger password")
	}

	return func(c *gin.Context) {
		username, password, ok := c.Request.BasicAuth()
		if !ok {
			unauthorized(c, l, "missing credentials")
			return
		}
		if !validCredentials(cfg, username, password) {
			unauthorized(c, l, "invalid credentials")
			return
		}
		c.Next()
	}
}

// both values are always compared so timing does not reveal which one was wrong
func validCredentials(cfg config.APIAuthConfig, username, password string) bool {
	usernameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(cfg.Username)) == 1
	passwordMatch := subtle.ConstantTimeCompare([]byte(password), []byte(cfg.Password)) == 1
	return usernameMatch && passwordMatch
}

func unauthorized(c *gin.Context, l zerolog.Logger, reason string) {
	l.Warn().
		Str("reason", reason).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Str("remote_addr", c.Request.RemoteAddr).
		Msg("API auth failed")

	c.Header("WWW-Authenticate", `Basic realm="`+authRealm+`"`)
	errorResponse(c, http.StatusUnauthorized, "unauthorized")
	c.Abort()
}
