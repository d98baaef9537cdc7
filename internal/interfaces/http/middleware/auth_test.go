package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func authRouter(keys []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(APIKeyAuth(keys))
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return router
}

func TestAPIKeyAuth_MissingKey(t *testing.T) {
	router := authRouter([]string{"secret-1"})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
}

func TestAPIKeyAuth_InvalidKey(t *testing.T) {
	router := authRouter([]string{"secret-1"})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set(APIKeyHeader, "wrong")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPIKeyAuth_ValidKey(t *testing.T) {
	router := authRouter([]string{"secret-1", "secret-2"})

	for _, key := range []string{"secret-1", "secret-2"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/protected", nil)
		req.Header.Set(APIKeyHeader, key)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, key)
	}
}

func TestAPIKeyAuth_NoKeysConfigured(t *testing.T) {
	router := authRouter(nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set(APIKeyHeader, "anything")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
