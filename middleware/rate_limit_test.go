package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestMemoryStore(t *testing.T) (*MemoryStore, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	s := newMemoryStore(time.Hour, clock.Now)
	t.Cleanup(func() { s.Close() })
	return s, clock
}

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, ""), mr
}

func TestNewRateLimiter(t *testing.T) {
	store, _ := newTestMemoryStore(t)
	rl := NewRateLimiter(RateLimitConfig{
		Requests: 10,
		Window:   time.Minute,
	}, store, nil)

	assert.NotNil(t, rl)
	assert.Equal(t, 10, rl.config.Requests)
	assert.Equal(t, time.Minute, rl.config.Window)
	assert.NotNil(t, rl.config.KeyFunc)
	assert.Equal(t, "Demasiadas solicitudes. Por favor intente más tarde.", rl.config.Message)
}

func serve(handler echo.HandlerFunc, ip string, htmx bool) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/send-email", nil)
	req.RemoteAddr = ip + ":1234"
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestRateLimiterMiddleware(t *testing.T) {
	ok := func(c echo.Context) error { return c.String(http.StatusOK, "success") }

	t.Run("WithinLimit", func(t *testing.T) {
		store, _ := newTestMemoryStore(t)
		rl := NewRateLimiter(RateLimitConfig{Requests: 2, Window: time.Minute}, store, nil)
		handler := rl.Middleware()(ok)

		assert.Equal(t, http.StatusOK, serve(handler, "10.0.0.1", false).Code)
		assert.Equal(t, http.StatusOK, serve(handler, "10.0.0.1", false).Code)
	})

	t.Run("ExceededLimit answers JSON", func(t *testing.T) {
		store, _ := newTestMemoryStore(t)
		limited := 0
		rl := NewRateLimiter(RateLimitConfig{
			Requests:  1,
			Window:    time.Minute,
			OnLimited: func(echo.Context) { limited++ },
		}, store, nil)
		handler := rl.Middleware()(ok)

		assert.Equal(t, http.StatusOK, serve(handler, "10.0.0.1", false).Code)

		rec := serve(handler, "10.0.0.1", false)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "60", rec.Header().Get("Retry-After"))

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Demasiadas solicitudes. Por favor intente más tarde.", body["error"])
		assert.Equal(t, 1, limited)
	})

	t.Run("Keys are per IP", func(t *testing.T) {
		store, _ := newTestMemoryStore(t)
		rl := NewRateLimiter(RateLimitConfig{Requests: 1, Window: time.Minute}, store, nil)
		handler := rl.Middleware()(ok)

		assert.Equal(t, http.StatusOK, serve(handler, "10.0.0.1", false).Code)
		assert.Equal(t, http.StatusOK, serve(handler, "10.0.0.2", false).Code)
	})

	t.Run("HXRequestExceeded", func(t *testing.T) {
		store, _ := newTestMemoryStore(t)
		rl := NewRateLimiter(RateLimitConfig{Requests: 1, Window: time.Minute}, store, nil)
		handler := rl.Middleware()(ok)

		serve(handler, "10.0.0.1", true)
		rec := serve(handler, "10.0.0.1", true)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")
		assert.Contains(t, rec.Body.String(), "Demasiadas solicitudes")
	})

	t.Run("Store failure lets requests through", func(t *testing.T) {
		rl := NewRateLimiter(RateLimitConfig{Requests: 1, Window: time.Minute}, failingStore{}, nil)
		handler := rl.Middleware()(ok)

		for i := 0; i < 3; i++ {
			assert.Equal(t, http.StatusOK, serve(handler, "10.0.0.1", false).Code)
		}
	})
}

type failingStore struct{}

func (failingStore) Hit(context.Context, string, time.Duration) (int, time.Duration, error) {
	return 0, 0, errors.New("connection refused")
}

func TestMemoryStore(t *testing.T) {
	store, clock := newTestMemoryStore(t)
	ctx := context.Background()

	n, resetIn, err := store.Hit(ctx, "ip", 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 10*time.Minute, resetIn)

	clock.Advance(4 * time.Minute)
	n, resetIn, _ = store.Hit(ctx, "ip", 10*time.Minute)
	assert.Equal(t, 2, n)
	assert.Equal(t, 6*time.Minute, resetIn)

	clock.Advance(6 * time.Minute)
	n, _, _ = store.Hit(ctx, "ip", 10*time.Minute)
	assert.Equal(t, 1, n, "window resets once it expires")
}

func TestMemoryStore_Sweep(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	store := newMemoryStore(10*time.Millisecond, clock.Now)
	defer store.Close()

	_, _, _ = store.Hit(context.Background(), "ip", time.Minute)
	assert.Equal(t, 1, store.size())

	clock.Advance(2 * time.Minute)
	assert.Eventually(t, func() bool { return store.size() == 0 }, time.Second, 10*time.Millisecond)
}

func TestMemoryStore_CloseTwice(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestRedisStore(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	n, resetIn, err := store.Hit(ctx, "ip", 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 10*time.Minute, resetIn)
	assert.True(t, mr.Exists("ratelimit:ip"))

	mr.FastForward(4 * time.Minute)
	n, resetIn, err = store.Hit(ctx, "ip", 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 6*time.Minute, resetIn)

	mr.FastForward(6 * time.Minute)
	n, _, err = store.Hit(ctx, "ip", 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "window resets once it expires")
}

func TestStoresAgree(t *testing.T) {
	mem, _ := newTestMemoryStore(t)
	rds, _ := newTestRedisStore(t)
	ctx := context.Background()

	for i := 1; i <= 7; i++ {
		a, _, err := mem.Hit(ctx, "ip", time.Minute)
		require.NoError(t, err)
		b, _, err := rds.Hit(ctx, "ip", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, a)
		assert.Equal(t, a, b)
	}
}

func TestRedisStore_Unavailable(t *testing.T) {
	store, mr := newTestRedisStore(t)
	mr.Close()

	_, _, err := store.Hit(context.Background(), "ip", time.Minute)
	assert.Error(t, err)
}
