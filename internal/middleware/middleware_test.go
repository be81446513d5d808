package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/medbook-api/internal/httperr"
	"github.com/harentsoaR/medbook-api/internal/metrics"
	"github.com/harentsoaR/medbook-api/internal/models"
	"github.com/harentsoaR/medbook-api/internal/services"
	"github.com/harentsoaR/medbook-api/internal/utils"
	"github.com/harentsoaR/medbook-api/pkg/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubIdentity struct {
	uid string
}

func (s stubIdentity) Verify(_ context.Context, token string) (*services.Identity, error) {
	if token != "firebase-token" {
		return nil, services.ErrIdentityToken
	}
	return &services.Identity{UID: s.uid}, nil
}

type stubUsers map[string]*models.User

func (s stubUsers) FindUserByFirebaseUID(_ context.Context, uid string) (*models.User, error) {
	if u, ok := s[uid]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

func whoami(c *gin.Context) {
	id, ok := CurrentUserID(c)
	c.JSON(http.StatusOK, gin.H{"id": id.Hex(), "ok": ok, "role": CurrentRole(c)})
}

func doRequest(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body httperr.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body.Code
}

func TestAuthenticator(t *testing.T) {
	jwtm, err := utils.NewJWTManager("secret", time.Hour)
	require.NoError(t, err)
	fbUser := &models.User{ID: primitive.NewObjectID(), Role: models.RoleDoctor}
	auth := NewAuthenticator(jwtm, stubIdentity{uid: "fb-1"}, stubUsers{"fb-1": fbUser})

	r := gin.New()
	r.GET("/me", auth.Middleware(), whoami)

	w := doRequest(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, httperr.CodeMissingToken, errorCode(t, w))

	w = doRequest(r, "nope")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, httperr.CodeInvalidToken, errorCode(t, w))

	userID := primitive.NewObjectID()
	token, err := jwtm.Generate(userID.Hex(), "patient")
	require.NoError(t, err)
	w = doRequest(r, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"`+userID.Hex()+`","ok":true,"role":"patient"}`, w.Body.String())

	w = doRequest(r, "firebase-token")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"`+fbUser.ID.Hex()+`","ok":true,"role":"doctor"}`, w.Body.String())
}

func TestAuthenticatorExpiredToken(t *testing.T) {
	jwtm, err := utils.NewJWTManager("secret", time.Hour)
	require.NoError(t, err)

	token := signExpired(t, "secret")
	r := gin.New()
	r.GET("/me", NewAuthenticator(jwtm, nil, nil).Middleware(), whoami)

	w := doRequest(r, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, httperr.CodeTokenExpired, errorCode(t, w))
	assert.Contains(t, w.Body.String(), "Token expired, please login again")
}

func signExpired(t *testing.T, secret string) string {
	t.Helper()
	claims := &utils.Claims{
		UserID: primitive.NewObjectID().Hex(),
		Role:   "patient",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestRequireRoles(t *testing.T) {
	r := gin.New()
	r.GET("/me", func(c *gin.Context) {
		c.Set(userIDKey, primitive.NewObjectID().Hex())
		c.Set(userRoleKey, c.Query("role"))
	}, RequireRoles(models.RoleDoctor, models.RoleAdmin), whoami)

	for role, want := range map[string]int{"doctor": 200, "admin": 200, "patient": 403, "": 403} {
		req := httptest.NewRequest(http.MethodGet, "/me?role="+role, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, role)
	}
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	var buf bytes.Buffer
	r := gin.New()
	r.Use(RequestLogger(logging.NewWithWriter(&buf, "info")))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	id := w.Header().Get(requestIDHeader)
	assert.NotEmpty(t, id)
	assert.Contains(t, buf.String(), id)
	assert.Contains(t, buf.String(), `"status":204`)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "given-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "given-id", w.Header().Get(requestIDHeader))
}

func TestMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewHTTPMetrics(reg)
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/doctors/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/doctors/1", "/doctors/2", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	count, err := testutil.GatherAndCount(reg, "medbook_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	r := gin.New()
	r.POST("/login", rl.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
	assert.True(t, rl.Allow("10.0.0.2"))
}
