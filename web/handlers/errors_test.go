package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func errorContext(htmx bool) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/messages", nil)
	if htmx {
		c.Request.Header.Set("HX-Request", "true")
	}
	return c, w
}

func TestClientErrorAsJSON(t *testing.T) {
	c, w := errorContext(false)
	respondWithClientError(c, http.StatusBadRequest, "Invalid request")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid request"}`, w.Body.String())
	assert.Empty(t, w.Header().Get("HX-Retarget"))
	assert.True(t, c.IsAborted())
}

func TestClientErrorForHTMXTargetsNotice(t *testing.T) {
	c, w := errorContext(true)
	respondWithClientError(c, http.StatusBadRequest, "<bad> request")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "#notice", w.Header().Get("HX-Retarget"))
	assert.Equal(t, "innerHTML", w.Header().Get("HX-Reswap"))
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), `class="error-box"`)
	assert.Contains(t, w.Body.String(), "&lt;bad&gt; request")
}

func TestServerErrorIsLogged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	c, w := errorContext(true)

	respondWithError(c, http.StatusInternalServerError, errors.New("boom"), "Session not initialized", zap.New(core),
		zap.String("handler", "send"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Session not initialized")
	assert.NotContains(t, w.Body.String(), "boom")

	entries := logs.FilterMessage("Request failed").All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "boom", fields["error"])
		assert.Equal(t, "/messages", fields["path"])
		assert.Equal(t, int64(http.StatusInternalServerError), fields["status"])
		assert.Equal(t, "send", fields["handler"])
	}
}
