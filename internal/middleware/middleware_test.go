package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prizetalk/internal/pkg"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func whoAmI(c *gin.Context) {
	id, _ := c.Get(ContextUserIDKey)
	c.JSON(http.StatusOK, gin.H{"user_id": id})
}

func serve(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	tokens := pkg.NewTokenIssuer("secret", time.Minute)
	a := &Authenticator{Tokens: tokens}
	r := gin.New()
	r.GET("/", a.AuthMiddleware(), whoAmI)

	tok, _, err := tokens.Issue(7)
	require.NoError(t, err)

	w := serve(r, "Bearer "+tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":7}`, w.Body.String())

	cases := map[string]string{
		"missing":      "",
		"wrong scheme": "Token " + tok,
		"no token":     "Bearer",
		"bad token":    "Bearer abc.def.ghi",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			w := serve(r, header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}

	other, _, err := pkg.NewTokenIssuer("other", time.Minute).Issue(7)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Bearer "+other).Code)
}

func TestOptionalAuth(t *testing.T) {
	tokens := pkg.NewTokenIssuer("secret", time.Minute)
	a := &Authenticator{Tokens: tokens}
	r := gin.New()
	r.GET("/", a.OptionalAuth(), whoAmI)

	w := serve(r, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":null}`, w.Body.String())

	tok, _, err := tokens.Issue(3)
	require.NoError(t, err)
	w = serve(r, "Bearer "+tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":3}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(r, "Bearer junk").Code)
}

func TestRateLimiterPerIP(t *testing.T) {
	l := NewRateLimiter(4) // burst 2, one token every 15s
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("1.1.1.1"))
	assert.True(t, l.allow("1.1.1.1"))
	assert.False(t, l.allow("1.1.1.1"))
	assert.True(t, l.allow("2.2.2.2"))

	now = now.Add(15 * time.Second)
	assert.True(t, l.allow("1.1.1.1"))
	assert.False(t, l.allow("1.1.1.1"))
}

func TestRateLimiterDropsIdleBuckets(t *testing.T) {
	l := NewRateLimiter(60)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.allow("1.1.1.1")
	require.Len(t, l.buckets, 1)

	now = now.Add(limiterIdle + time.Second)
	l.allow("2.2.2.2")
	assert.Len(t, l.buckets, 1)
	assert.Contains(t, l.buckets, "2.2.2.2")
}

func TestRateLimiterMiddleware(t *testing.T) {
	l := NewRateLimiter(2) // burst 1
	r := gin.New()
	r.GET("/", l.Middleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, serve(r, "").Code)
	w := serve(r, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, w.Body.String())
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.GET("/", RequestID(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := serve(r, "")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestQueryTimeoutSetsDeadline(t *testing.T) {
	r := gin.New()
	r.GET("/", QueryTimeout(time.Second), func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		c.JSON(http.StatusOK, gin.H{"deadline": ok})
	})
	w := serve(r, "")
	assert.JSONEq(t, `{"deadline":true}`, w.Body.String())
}
