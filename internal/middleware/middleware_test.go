package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"erppsi/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/t", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/t", nil))
	id := w.Header().Get(RequestIDHeader)
	assert.Len(t, id, 36)
	assert.Equal(t, id, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/t", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = serve(r, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-123", w.Body.String())

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Empty(t, GetRequestID(c))
}

func token(t *testing.T, secret, rol string, exp time.Time) string {
	t.Helper()
	claims := JWTClaims{
		UserID: "u-1", Username: "lucia", Rol: rol,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestJWTAuthAndRoles(t *testing.T) {
	const secret = "test-secret"
	r := gin.New()
	r.GET("/firmar", JWTAuth(secret), RequireRole(RolAsesor, RolAdministrador), func(c *gin.Context) {
		c.String(http.StatusOK, Usuario(c))
	})

	call := func(auth string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/firmar", nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		return serve(r, req)
	}

	assert.Equal(t, http.StatusUnauthorized, call("").Code)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer nope").Code)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer "+token(t, "otro", RolAsesor, time.Now().Add(time.Hour))).Code)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer "+token(t, secret, RolAsesor, time.Now().Add(-time.Minute))).Code)
	assert.Equal(t, http.StatusForbidden, call("Bearer "+token(t, secret, "tecnico", time.Now().Add(time.Hour))).Code)

	w := call("Bearer " + token(t, secret, RolAsesor, time.Now().Add(time.Hour)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "lucia", w.Body.String())
}

func TestErrorHandler_MapsKinds(t *testing.T) {
	for _, expose := range []bool{true, false} {
		r := gin.New()
		r.Use(RequestID(), ErrorHandler(expose))
		r.GET("/firmado", func(c *gin.Context) {
			_ = c.Error(apierror.Wrap(apierror.KindAlreadySigned, "", errors.New("row locked")))
		})
		r.GET("/boom", func(c *gin.Context) { _ = c.Error(errors.New("pq: connection reset")) })

		w := serve(r, httptest.NewRequest(http.MethodGet, "/firmado", nil))
		assert.Equal(t, http.StatusConflict, w.Code)
		var body apierror.APIError
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, apierror.KindAlreadySigned, body.Code)
		if expose {
			assert.Equal(t, "row locked", body.Internal)
		} else {
			assert.Empty(t, body.Internal)
		}

		w = serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		if !expose {
			assert.NotContains(t, w.Body.String(), "pq:")
		}
	}
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/p", func(*gin.Context) { panic("gofpdi: bad xref") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/p", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "xref")
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodOptions, "/x", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
}

func TestLimiter(t *testing.T) {
	l := newLimiter(2, time.Minute)
	now := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	ok, _ := l.allow("a")
	assert.True(t, ok)
	ok, _ = l.allow("a")
	assert.True(t, ok)
	ok, end := l.allow("a")
	assert.False(t, ok)
	assert.Equal(t, now.Add(time.Minute), end)

	ok, _ = l.allow("b")
	assert.True(t, ok, "keys have independent budgets")

	now = now.Add(2 * time.Minute)
	ok, _ = l.allow("a")
	assert.True(t, ok, "a new window resets the count")

	now = now.Add(purgeInterval + time.Second)
	l.allow("c")
	assert.NotContains(t, l.entries, "b")
}

func TestSignRateLimiter_PerContract(t *testing.T) {
	r := gin.New()
	r.POST("/contracts/:id/sign", SignRateLimiter(1, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodPost, "/contracts/1/sign", nil)).Code)
	w := serve(r, httptest.NewRequest(http.MethodPost, "/contracts/1/sign", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodPost, "/contracts/2/sign", nil)).Code)
}
