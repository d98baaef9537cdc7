package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func tenantRouter() (*gin.Engine, *string) {
	gin.SetMode(gin.TestMode)
	var seen string
	router := gin.New()
	router.Use(Tenant())
	router.GET("/payouts", func(c *gin.Context) {
		seen = GetTenantID(c)
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return router, &seen
}

func TestTenant_FromHeader(t *testing.T) {
	router, seen := tenantRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/payouts", nil)
	req.Header.Set(TenantHeaderKey, "Acme")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "acme", *seen)
}

func TestTenant_NormalizesWhitespaceAndCase(t *testing.T) {
	router, seen := tenantRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/payouts", nil)
	req.Header.Set(TenantHeaderKey, "  GLOBEX  ")
	router.ServeHTTP(w, req)

	assert.Equal(t, "globex", *seen)
}

func TestTenant_MissingHeaderRejected(t *testing.T) {
	router, seen := tenantRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/payouts", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "BAD_REQUEST")
	assert.Empty(t, *seen)
}

func TestTenant_BlankHeaderRejected(t *testing.T) {
	router, seen := tenantRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/payouts", nil)
	req.Header.Set(TenantHeaderKey, "   ")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, *seen)
}

func TestTenant_RejectsOversizedHeader(t *testing.T) {
	router, _ := tenantRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/payouts", nil)
	req.Header.Set(TenantHeaderKey, strings.Repeat("a", 65))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "BAD_REQUEST")
}
