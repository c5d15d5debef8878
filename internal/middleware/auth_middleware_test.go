package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"qr_menu_backend/pkg/metrics"
	"qr_menu_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTokens(t *testing.T) *utils.TokenManager {
	t.Helper()
	tokens, err := utils.NewTokenManager("test-secret", "qr-menu-test", time.Hour)
	require.NoError(t, err)
	return tokens
}

func bearer(t *testing.T, tokens *utils.TokenManager, role string) string {
	t.Helper()
	token, _, err := tokens.GenerateAccessToken("u-1", "alice", role)
	require.NoError(t, err)
	return "Bearer " + token
}

func serve(engine *gin.Engine, method, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	tokens := newTokens(t)
	engine := gin.New()
	engine.GET("/me", AuthMiddleware(tokens), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.GetString(ContextUserID), "role": c.GetString(ContextUserRole)})
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing header", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not-a-jwt", status: http.StatusUnauthorized},
		{name: "valid token", header: bearer(t, tokens, "staff"), status: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(engine, http.MethodGet, "/me", tt.header)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"id":"u-1","role":"staff"}`, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), utils.ErrCodeUnauthorized)
			}
		})
	}
}

func TestOptionalAuthMiddleware(t *testing.T) {
	tokens := newTokens(t)
	engine := gin.New()
	engine.GET("/whoami", OptionalAuthMiddleware(tokens), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextUserRole))
	})

	w := serve(engine, http.MethodGet, "/whoami", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	w = serve(engine, http.MethodGet, "/whoami", "Bearer broken")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	w = serve(engine, http.MethodGet, "/whoami", bearer(t, tokens, "admin"))
	assert.Equal(t, "admin", w.Body.String())
}

func TestRoleAuthMiddleware(t *testing.T) {
	tokens := newTokens(t)
	engine := gin.New()
	engine.GET("/qr", AuthMiddleware(tokens), RoleAuthMiddleware("admin"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusForbidden, serve(engine, http.MethodGet, "/qr", bearer(t, tokens, "staff")).Code)
	assert.Equal(t, http.StatusNoContent, serve(engine, http.MethodGet, "/qr", bearer(t, tokens, "ADMIN")).Code)

	bare := gin.New()
	bare.GET("/qr", RoleAuthMiddleware("admin"), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	assert.Equal(t, http.StatusForbidden, serve(bare, http.MethodGet, "/qr", "").Code)
}

func TestMetricsMiddlewareUsesRouteTemplate(t *testing.T) {
	reg := prometheus.NewRegistry()
	engine := gin.New()
	engine.Use(MetricsMiddleware(metrics.NewHTTPMetrics(reg)))
	engine.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(engine, http.MethodGet, "/items/1", "")
	serve(engine, http.MethodGet, "/items/2", "")
	serve(engine, http.MethodGet, "/nowhere", "")

	// One series for the templated route, one for the unmatched path.
	count, err := testutil.GatherAndCount(reg, "http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
