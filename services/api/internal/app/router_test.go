package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quddle-backend/pkg/identity"
	"quddle-backend/pkg/logger"
	"quddle-backend/pkg/ratelimit"
	apiHTTP "quddle-backend/services/api/internal/controller/http"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticVerifier struct{}

func (staticVerifier) VerifyToken(_ context.Context, token string) (*identity.Identity, error) {
	if token != "good" {
		return nil, identity.ErrInvalidToken
	}
	return &identity.Identity{ID: "user-1", Email: "user@example.com"}, nil
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (ratelimit.Result, error) {
	return ratelimit.Result{}, errors.New("store down")
}

// Handlers are built without use cases; the tests only hit paths that answer
// before a use case is reached.
func setupRouter(limiter ratelimit.Limiter, trustedProxies ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.Nop()
	router, err := newRouter(routerDeps{
		auth:           apiHTTP.NewAuthHandler(nil, log),
		wallet:         apiHTTP.NewWalletHandler(nil, log),
		ads:            apiHTTP.NewAdHandler(nil, log),
		reels:          apiHTTP.NewReelHandler(nil, log),
		classifieds:    apiHTTP.NewClassifiedHandler(nil, log),
		verifier:       staticVerifier{},
		adEventLimiter: limiter,
		trustedProxies: trustedProxies,
		log:            log,
		startedAt:      time.Now().Add(-time.Minute),
	})
	if err != nil {
		panic(err)
	}
	return router
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	router := setupRouter(ratelimit.NewMemoryLimiter(10, time.Minute))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.GreaterOrEqual(t, body["uptime"].(float64), 60.0)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestUnknownRoute(t *testing.T) {
	router := setupRouter(ratelimit.NewMemoryLimiter(10, time.Minute))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/nope", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Route not found", decode(t, w)["message"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := setupRouter(ratelimit.NewMemoryLimiter(10, time.Minute))

	for _, tc := range []struct{ method, path string }{
		{"GET", "/api/wallet"},
		{"GET", "/api/wallet/transactions"},
		{"POST", "/api/ads"},
		{"GET", "/api/ads/my"},
		{"POST", "/api/reels/presign"},
		{"GET", "/api/reels/all"},
		{"POST", "/api/classifieds"},
		{"GET", "/api/auth/profile/user-1"},
	} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(tc.method, tc.path, nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/wallet", nil)
	req.Header.Set("Authorization", "Bearer forged")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid or expired token", decode(t, w)["message"])
}

func TestAdEventsAreRateLimited(t *testing.T) {
	router := setupRouter(ratelimit.NewMemoryLimiter(1, time.Minute))

	send := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/ads/6f1c2d4e-8a9b-4c3d-9e7f-1a2b3c4d5e6f/impression", bytes.NewBufferString(`{`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "203.0.113.7:5555"
		router.ServeHTTP(w, req)
		return w
	}

	// The malformed body is rejected by the handler, but the hit still counts.
	assert.Equal(t, http.StatusBadRequest, send().Code)

	w := send()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Too many requests. Please try again later.", decode(t, w)["message"])
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func sendImpression(router *gin.Engine, remoteAddr, forwardedFor string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/ads/not-a-uuid/impression", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestAdEventsIgnoreForwardedForFromUntrustedPeers(t *testing.T) {
	router := setupRouter(ratelimit.NewMemoryLimiter(1, time.Minute))

	var codes []int
	for _, xff := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
		codes = append(codes, sendImpression(router, "10.0.0.9:4000", xff).Code)
	}

	assert.Equal(t, []int{http.StatusBadRequest, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}

func TestAdEventsHonourForwardedForFromTrustedProxy(t *testing.T) {
	router := setupRouter(ratelimit.NewMemoryLimiter(1, time.Minute), "10.0.0.0/8")

	assert.Equal(t, http.StatusBadRequest, sendImpression(router, "10.0.0.9:4000", "1.1.1.1").Code)
	assert.Equal(t, http.StatusBadRequest, sendImpression(router, "10.0.0.9:4000", "2.2.2.2").Code)
	assert.Equal(t, http.StatusTooManyRequests, sendImpression(router, "10.0.0.9:4000", "1.1.1.1").Code)
}

func TestAdEventsRedisKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	router := setupRouter(ratelimit.NewRedisLimiter(client, adEventLimitPrefix, 5, time.Minute))

	sendImpression(router, "203.0.113.7:5555", "")

	assert.True(t, mr.Exists("rate_limit:ad-events:203.0.113.7"))
	assert.Equal(t, []string{"rate_limit:ad-events:203.0.113.7"}, mr.Keys())
}

func TestNewRouterRejectsInvalidProxies(t *testing.T) {
	_, err := newRouter(routerDeps{
		adEventLimiter: ratelimit.NewMemoryLimiter(1, time.Minute),
		trustedProxies: []string{"not-an-ip"},
		log:            logger.Nop(),
	})
	assert.Error(t, err)
}

func TestAdEventsLimiterFailure(t *testing.T) {
	router := setupRouter(failingLimiter{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/ads/6f1c2d4e-8a9b-4c3d-9e7f-1a2b3c4d5e6f/click", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
