package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const SessionCookieName = "themerec_session"

// Session cookies live only as long as the browser session.
const CookieMaxAge = 0

const (
	sessionKey = "sessionID"
	loggerKey  = "logger"
)

// SessionMiddleware assigns every browser a session ID cookie. A missing or
// unparsable cookie starts a new session.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var sessionID uuid.UUID

		cookie, err := c.Cookie(SessionCookieName)
		if err == nil {
			sessionID, err = uuid.Parse(cookie)
		}
		if err != nil {
			sessionID = uuid.New()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookieName, sessionID.String(), CookieMaxAge, "/", "", false, true)
		}

		c.Set(sessionKey, sessionID)
		c.Next()
	}
}

// LoggerMiddleware makes logger available to handlers and middleware.
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(loggerKey, logger)
		c.Next()
	}
}

// SessionID returns the ID set by SessionMiddleware.
func SessionID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// LoggerFrom returns the request logger, or nil when none is set.
func LoggerFrom(c *gin.Context) *zap.Logger {
	v, ok := c.Get(loggerKey)
	if !ok {
		return nil
	}
	logger, _ := v.(*zap.Logger)
	return logger
}
