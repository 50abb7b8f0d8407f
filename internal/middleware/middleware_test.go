package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/oceanview/resort-booking/internal/access"
	"github.com/oceanview/resort-booking/internal/config"
	"github.com/oceanview/resort-booking/internal/utils"
)

const secret = "test-secret"

func bearer(t *testing.T, id uint64, role string, ttl time.Duration) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, id, role, ttl)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func protected() *echo.Echo {
	e := echo.New()
	g := e.Group("/api", JWTAuth(secret))
	g.GET("/rooms", func(c echo.Context) error {
		sess, _ := SessionFrom(c)
		return c.JSON(http.StatusOK, echo.Map{"user": sess.UserID, "role": sess.Role})
	}, RequireCapability(access.ManageCatalog))
	return e
}

func do(e *echo.Echo, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthRejects(t *testing.T) {
	e := protected()
	cases := map[string]string{
		"missing":      "",
		"not bearer":   "Basic Zm9vOmJhcg==",
		"garbage":      "Bearer not-a-jwt",
		"expired":      bearer(t, 1, "ADMIN", -time.Minute),
		"unknown role": bearer(t, 1, "OWNER", time.Hour),
		"zero subject": bearer(t, 0, "ADMIN", time.Hour),
	}
	for name, auth := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(e, http.MethodGet, "/api/rooms", auth)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error":"unauthenticated"`)
		})
	}

	other, err := utils.NewAccessToken("other-secret", 1, "ADMIN", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/api/rooms", "Bearer "+other.Token).Code)
}

func TestRequireCapability(t *testing.T) {
	e := protected()

	rec := do(e, http.MethodGet, "/api/rooms", bearer(t, 7, "GUEST", time.Hour))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"forbidden"`)

	rec = do(e, http.MethodGet, "/api/rooms", bearer(t, 9, "ADMIN", time.Hour))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":9,"role":"ADMIN"}`, rec.Body.String())
}

func TestRequireCapabilityWithoutSession(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RequireCapability(access.ViewCatalog))
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/x", "").Code)
}

func TestRequestLoggerLevels(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	e := echo.New()
	e.Use(RequestLogger(zap.New(core)))
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/boom", func(c echo.Context) error { return errors.New("boom") })

	do(e, http.MethodGet, "/ok", "")
	do(e, http.MethodGet, "/boom", "")
	do(e, http.MethodGet, "/missing", "")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "/ok", entries[0].ContextMap()["route"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, int64(500), entries[1].ContextMap()["status"])
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, "anon", entries[2].ContextMap()["user"])
}

func limiterCfg() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Second,
		TTL:            time.Minute,
		KeyStrategy:    "route",
		Prefix:         "rl",
	}
}

func limited(t *testing.T, cfg config.RateLimitConfig) (*echo.Echo, redismock.ClientMock, time.Time) {
	t.Helper()
	rdb, mock := redismock.NewClientMock()
	tb := NewTokenBucket(cfg, rdb, zap.NewNop())
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tb.now = func() time.Time { return now }

	e := echo.New()
	e.Use(tb.Middleware())
	e.GET("/api/rooms", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	return e, mock, now
}

func expectTake(mock redismock.ClientMock, cfg config.RateLimitConfig, now time.Time) *redismock.ExpectedCmd {
	return mock.ExpectEvalSha(limiterScript.Hash(), []string{"rl:route:GET /api/rooms"},
		now.UnixMilli(), cfg.Capacity, cfg.RefillTokens, cfg.RefillInterval.Milliseconds(), int64(cfg.TTL/time.Second))
}

func TestTokenBucketAllows(t *testing.T) {
	cfg := limiterCfg()
	e, mock, now := limited(t, cfg)
	expectTake(mock, cfg, now).SetVal([]any{int64(1), int64(1), int64(0)})

	rec := do(e, http.MethodGet, "/api/rooms", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenBucketBlocks(t *testing.T) {
	cfg := limiterCfg()
	e, mock, now := limited(t, cfg)
	expectTake(mock, cfg, now).SetVal([]any{int64(0), int64(0), int64(1500)})

	rec := do(e, http.MethodGet, "/api/rooms", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `"error":"rate_limited"`)
}

func TestTokenBucketFailsOpen(t *testing.T) {
	cfg := limiterCfg()
	e, mock, now := limited(t, cfg)
	expectTake(mock, cfg, now).SetErr(errors.New("connection refused"))

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/api/rooms", "").Code)
}

func TestTokenBucketDisabled(t *testing.T) {
	cfg := limiterCfg()
	cfg.Enabled = false
	e, mock, _ := limited(t, cfg)

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/api/rooms", "").Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenBucketKeysEachUserSeparately(t *testing.T) {
	cfg := limiterCfg()
	cfg.KeyStrategy = "user"
	rdb, mock := redismock.NewClientMock()
	tb := NewTokenBucket(cfg, rdb, zap.NewNop())
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tb.now = func() time.Time { return now }

	e := echo.New()
	e.Use(Identify(secret))
	e.Use(tb.Middleware())
	g := e.Group("/api", JWTAuth(secret))
	g.GET("/reservations", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	args := []any{now.UnixMilli(), cfg.Capacity, cfg.RefillTokens, cfg.RefillInterval.Milliseconds(), int64(cfg.TTL / time.Second)}
	for _, key := range []string{"rl:user:7", "rl:user:8", "rl:user:anon"} {
		mock.ExpectEvalSha(limiterScript.Hash(), []string{key}, args...).SetVal([]any{int64(1), int64(1), int64(0)})
	}

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/api/reservations", bearer(t, 7, "GUEST", time.Hour)).Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/api/reservations", bearer(t, 8, "GUEST", time.Hour)).Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/api/reservations", "Bearer not-a-jwt").Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentifyNeverRejects(t *testing.T) {
	e := echo.New()
	e.Use(Identify(secret))
	e.GET("/api/rooms", func(c echo.Context) error { return c.String(http.StatusOK, userID(c)) })

	rec := do(e, http.MethodGet, "/api/rooms", bearer(t, 42, "STAFF", time.Hour))
	assert.Equal(t, "42", rec.Body.String())

	rec = do(e, http.MethodGet, "/api/rooms", bearer(t, 42, "STAFF", -time.Minute))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anon", rec.Body.String())
}

func TestBuildRateKeyStrategies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/reservations", nil)
	req.Header.Set(echo.HeaderXRealIP, "203.0.113.7")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/reservations")
	setSession(c, access.Session{UserID: 5})

	cfg := limiterCfg()
	for strategy, want := range map[string]string{
		"ip":         "rl:ip:203.0.113.7",
		"user":       "rl:user:5",
		"user_route": "rl:user:5:route:POST /api/reservations",
		"":           "rl:ip:203.0.113.7:user:5:route:POST /api/reservations",
	} {
		cfg.KeyStrategy = strategy
		assert.Equal(t, want, buildRateKey(cfg, c), strategy)
	}
}

func cacheCfg() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          30 * time.Second,
		KeyStrategy:  "route_query",
		Prefix:       "cache",
		MaxBodyBytes: 1 << 20,
	}
}

func cached(t *testing.T, calls *int) (*echo.Echo, redismock.ClientMock, string) {
	t.Helper()
	rdb, mock := redismock.NewClientMock()
	e := echo.New()
	e.GET("/api/rooms", func(c echo.Context) error {
		*calls++
		return c.JSON(http.StatusOK, []string{"Ocean Suite"})
	}, NewRedisCache(cacheCfg(), rdb))

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/rooms", nil), httptest.NewRecorder())
	c.SetPath("/api/rooms")
	return e, mock, cacheKeyFrom(cacheCfg(), c)
}

func TestCacheMissCallsHandler(t *testing.T) {
	var calls int
	e, mock, key := cached(t, &calls)
	mock.ExpectGet(key).RedisNil()

	rec := do(e, http.MethodGet, "/api/rooms", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, 1, calls)
}

func TestCacheHitReplaysResponse(t *testing.T) {
	var calls int
	e, mock, key := cached(t, &calls)
	payload, err := encodePayload(http.StatusOK, http.Header{echo.HeaderContentType: {echo.MIMEApplicationJSON}}, []byte(`["Garden Room"]`))
	require.NoError(t, err)
	mock.ExpectGet(key).SetVal(string(payload))

	rec := do(e, http.MethodGet, "/api/rooms", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, echo.MIMEApplicationJSON, rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, `["Garden Room"]`, rec.Body.String())
	assert.Zero(t, calls)
}

func TestCacheHitDropsPerRequestHeaders(t *testing.T) {
	var calls int
	e, mock, key := cached(t, &calls)
	payload, err := encodePayload(http.StatusOK, http.Header{
		echo.HeaderContentType:  {echo.MIMEApplicationJSON},
		echo.HeaderXRequestID:   {"stale-request"},
		"X-Ratelimit-Remaining": {"0"},
	}, []byte(`[]`))
	require.NoError(t, err)
	mock.ExpectGet(key).SetVal(string(payload))

	rec := do(e, http.MethodGet, "/api/rooms", "")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Empty(t, rec.Header().Get(echo.HeaderXRequestID))
	assert.Empty(t, rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, echo.MIMEApplicationJSON, rec.Header().Get(echo.HeaderContentType))
}

func purging(t *testing.T, status int) (*echo.Echo, redismock.ClientMock) {
	t.Helper()
	rdb, mock := redismock.NewClientMock()
	e := echo.New()
	e.PUT("/api/rooms/:id", func(c echo.Context) error {
		return c.JSON(status, echo.Map{"id": c.Param("id")})
	}, NewCachePurge(cacheCfg(), rdb, zap.NewNop()))
	return e, mock
}

func TestCachePurgeAfterSuccessfulWrite(t *testing.T) {
	e, mock := purging(t, http.StatusOK)
	mock.ExpectScan(0, "cache:*", 100).SetVal([]string{"cache:aa", "cache:bb"}, 0)
	mock.ExpectDel("cache:aa", "cache:bb").SetVal(2)

	assert.Equal(t, http.StatusOK, do(e, http.MethodPut, "/api/rooms/3", "").Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachePurgeSkipsFailedWrite(t *testing.T) {
	e, mock := purging(t, http.StatusConflict)

	assert.Equal(t, http.StatusConflict, do(e, http.MethodPut, "/api/rooms/3", "").Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheSkipsAuthenticatedRequests(t *testing.T) {
	var calls int
	e, mock, _ := cached(t, &calls)

	rec := do(e, http.MethodGet, "/api/rooms", "Bearer x")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayloadRoundTripRejectsTruncation(t *testing.T) {
	bs, err := encodePayload(http.StatusCreated, http.Header{"X-A": {"1"}}, []byte("body"))
	require.NoError(t, err)

	status, hdr, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "1", hdr.Get("X-A"))
	assert.Equal(t, "body", string(body))

	_, _, _, ok = decodePayload(bs[:6])
	assert.False(t, ok)
}
