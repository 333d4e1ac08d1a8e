package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func authedRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func newAuthRouter(cfg *JWTConfig) *gin.Engine {
	router := gin.New()
	router.GET("/protected", NewJWTAuth(cfg), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c), "is_admin": IsAdmin(c)})
	})
	return router
}

func TestTokenRoundtrip(t *testing.T) {
	token, err := GenerateToken("user-1", "a@b.c", true, testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "a@b.c", claims.Email)
	assert.True(t, claims.IsAdmin)
	assert.NotEmpty(t, claims.ID)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("user-1", "a@b.c", false, testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(token, "other-secret")
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	token, err := GenerateToken("user-1", "a@b.c", false, testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, testSecret)
	assert.Error(t, err)
}

func TestAuthMiddlewareSetsContext(t *testing.T) {
	router := newAuthRouter(&JWTConfig{Secret: testSecret})

	token, err := GenerateToken("user-9", "x@y.z", false, testSecret, time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(token))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user-9")
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	router := newAuthRouter(&JWTConfig{Secret: testSecret})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(""))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsRevokedToken(t *testing.T) {
	router := newAuthRouter(&JWTConfig{
		Secret: testSecret,
		IsRevoked: func(c *gin.Context, jti string) (bool, error) {
			return true, nil
		},
	})

	token, err := GenerateToken("user-9", "x@y.z", false, testSecret, time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(token))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "revoked")
}

func TestRequireAdmin(t *testing.T) {
	router := gin.New()
	router.GET("/admin", NewJWTAuth(&JWTConfig{Secret: testSecret}), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	adminToken, err := GenerateToken("root", "root@x.y", true, testSecret, time.Hour)
	require.NoError(t, err)
	userToken, err := GenerateToken("plain", "p@x.y", false, testSecret, time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
