package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DukeRupert/outreach/internal/domain"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSession(t *testing.T, ttl time.Duration) (string, *Session) {
	t.Helper()
	token, err := GenerateToken()
	require.NoError(t, err)

	now := time.Now()
	return token, &Session{
		TokenHash: HashToken(token),
		User:      domain.User{Email: "ada@purdue.edu", Name: "Ada"},
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// =============================================================================
// Tokens
// =============================================================================

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken()
	require.NoError(t, err)
	b, err := GenerateToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.True(t, ValidTokenFormat(a))
}

func TestHashToken(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
	assert.Len(t, HashToken("abc"), 64)
}

func TestValidTokenFormat(t *testing.T) {
	assert.False(t, ValidTokenFormat(""))
	assert.False(t, ValidTokenFormat("short"))
	assert.False(t, ValidTokenFormat(string(make([]byte, 64))))
}

// =============================================================================
// Cookies
// =============================================================================

func TestSetCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	SetCookie(rec, "tok", 24*time.Hour, true)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, CookieName, c.Name)
	assert.Equal(t, "tok", c.Value)
	assert.Equal(t, 86400, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
}

func TestClearCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	ClearCookie(rec, false)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
	assert.Empty(t, cookies[0].Value)
}

// =============================================================================
// Stores
// =============================================================================

func testStore(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("save and get", func(t *testing.T) {
		_, s := newSession(t, time.Hour)
		require.NoError(t, store.Save(ctx, s))

		got, err := store.Get(ctx, s.TokenHash)
		require.NoError(t, err)
		assert.Equal(t, "ada@purdue.edu", got.User.Email)
		assert.Equal(t, "Ada", got.User.Name)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := store.Get(ctx, HashToken("nope"))
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("delete", func(t *testing.T) {
		_, s := newSession(t, time.Hour)
		require.NoError(t, store.Save(ctx, s))
		require.NoError(t, store.Delete(ctx, s.TokenHash))

		_, err := store.Get(ctx, s.TokenHash)
		assert.True(t, errors.Is(err, ErrNotFound))

		// Idempotent
		assert.NoError(t, store.Delete(ctx, s.TokenHash))
	})
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, s := newSession(t, time.Hour)
	require.NoError(t, store.Save(ctx, s))

	store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err := store.Get(ctx, s.TokenHash)
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_Sweeper(t *testing.T) {
	store := NewMemoryStore()
	_, s := newSession(t, time.Millisecond)
	require.NoError(t, store.Save(context.Background(), s))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store.StartSweeper(ctx, 5*time.Millisecond, testLogger())

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), srv
}

func TestRedisStore(t *testing.T) {
	store, _ := newRedisStore(t)
	testStore(t, store)
}

func TestRedisStore_KeyExpires(t *testing.T) {
	ctx := context.Background()
	store, srv := newRedisStore(t)

	_, s := newSession(t, time.Hour)
	require.NoError(t, store.Save(ctx, s))
	assert.True(t, srv.Exists("session:"+s.TokenHash))

	srv.FastForward(2 * time.Hour)

	_, err := store.Get(ctx, s.TokenHash)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRedisStore_RejectsExpiredSave(t *testing.T) {
	store, _ := newRedisStore(t)
	_, s := newSession(t, -time.Minute)
	assert.Error(t, store.Save(context.Background(), s))
}

func TestOpenRedis(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := OpenRedis(context.Background(), "redis://"+srv.Addr()+"/0")
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, NewRedisStore(client).Healthcheck(context.Background()))

	_, err = OpenRedis(context.Background(), "http://"+srv.Addr())
	assert.Error(t, err)
}
