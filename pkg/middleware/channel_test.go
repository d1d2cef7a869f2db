package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestChannelFromAPIKey(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var got string
	r := gin.New()
	r.Use(Channel())
	r.GET("/ping", func(c *gin.Context) {
		got = GetChannel(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("x-api-key", "admin_123")
	r.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "admin", got)

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "api", got)
}

func TestGetChannelDefault(t *testing.T) {
	require.Equal(t, "api", GetChannel(context.Background()))
}
