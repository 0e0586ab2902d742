package handlers

import (
	"themerec/web/templates/components"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondWithError logs the technical error and answers with userMessage.
func respondWithError(c *gin.Context, statusCode int, technicalError error, userMessage string, logger *zap.Logger, fields ...zap.Field) {
	if logger != nil {
		fields = append(fields,
			zap.Error(technicalError),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", statusCode))
		logger.Error("Request failed", fields...)
	}
	respondWithMessage(c, statusCode, userMessage)
}

// respondWithClientError answers a rejected request without logging.
func respondWithClientError(c *gin.Context, statusCode int, userMessage string) {
	respondWithMessage(c, statusCode, userMessage)
}

// respondWithMessage writes an error box into the page notice area for htmx
// requests and a JSON body for everything else.
func respondWithMessage(c *gin.Context, statusCode int, userMessage string) {
	if !isHTMX(c) {
		c.AbortWithStatusJSON(statusCode, gin.H{"error": userMessage})
		return
	}

	c.Header("HX-Retarget", "#"+components.NoticeID)
	c.Header("HX-Reswap", "innerHTML")
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(statusCode)
	c.Abort()
	if err := components.ErrorBox(userMessage).Render(c.Request.Context(), c.Writer); err != nil {
		_ = c.Error(err)
	}
}
