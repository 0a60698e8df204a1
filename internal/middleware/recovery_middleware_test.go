package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"vigilance-service/internal/pkg/response"
)

func TestRecoveryMiddleware_LogsRouteAndCaller(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.ErrorLevel)

	m := NewAuthMiddleware(tokens{"guard-token": {UserID: 2, JTI: "g"}})
	r := gin.New()
	r.Use(RecoveryMiddleware(zap.New(core)))
	r.GET("/checklists/:id/pdf", m.Auth(), func(c *gin.Context) { panic("boom") })
	r.GET("/open", func(c *gin.Context) { panic("anonymous") })

	req := httptest.NewRequest(http.MethodGet, "/checklists/7/pdf", nil)
	req.Header.Set("Authorization", "Bearer guard-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "/checklists/7/pdf", fields["path"])
	assert.Equal(t, "/checklists/:id/pdf", fields["route"])
	assert.Equal(t, int64(2), fields["user_id"])
	assert.Equal(t, "g", fields["session_id"])
	assert.Equal(t, "boom", fields["panic"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/open", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, 2, logs.Len())
	assert.NotContains(t, logs.All()[1].ContextMap(), "user_id")
}
