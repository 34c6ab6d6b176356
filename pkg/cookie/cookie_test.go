package cookie_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/pkg/cookie"
	"github.com/dmitrymomot/storefront/pkg/kv"
)

func TestManager(t *testing.T) {
	t.Parallel()

	t.Run("set writes httponly cookie with defaults", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		cookie.New().Set(w, "JWT", "token", 60)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		require.Equal(t, "JWT", cookies[0].Name)
		require.Equal(t, "token", cookies[0].Value)
		require.Equal(t, "/", cookies[0].Path)
		require.Equal(t, 60, cookies[0].MaxAge)
		require.True(t, cookies[0].HttpOnly)
	})

	t.Run("set readable is not httponly", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		cookie.New(cookie.WithSecure(true)).SetReadable(w, "username", "alice", 60)

		c := w.Result().Cookies()[0]
		require.False(t, c.HttpOnly)
		require.True(t, c.Secure)
	})

	t.Run("expire emits max-age zero for each name", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		cookie.New().Expire(w, "JWT", "username")

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 2)
		for _, c := range cookies {
			require.Equal(t, -1, c.MaxAge)
			require.Empty(t, c.Value)
		}
	})

	t.Run("get returns ErrNotFound", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		_, err := cookie.New().Get(r, "JWT")
		require.ErrorIs(t, err, cookie.ErrNotFound)

		r.AddCookie(&http.Cookie{Name: "JWT", Value: "abc"})
		v, err := cookie.New().Get(r, "JWT")
		require.NoError(t, err)
		require.Equal(t, "abc", v)
	})
}

func TestJar(t *testing.T) {
	t.Parallel()

	const origin = "http://shop.test"
	u, _ := url.Parse(origin + "/api/auth/login")

	t.Run("rejects relative origin", func(t *testing.T) {
		t.Parallel()

		_, err := cookie.NewJar(context.Background(), "/relative", nil)
		require.ErrorIs(t, err, cookie.ErrInvalidOrigin)
	})

	t.Run("persists and restores cookies", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		store := kv.NewMemory()

		jar, err := cookie.NewJar(ctx, origin, store)
		require.NoError(t, err)
		jar.SetCookies(u, []*http.Cookie{
			{Name: "JWT", Value: "tok", Path: "/", MaxAge: 3600, HttpOnly: true},
			{Name: "username", Value: "alice", Path: "/", MaxAge: 3600},
		})
		require.True(t, jar.Has("JWT", "username"))

		restored, err := cookie.NewJar(ctx, origin, store)
		require.NoError(t, err)
		v, ok := restored.Value("username")
		require.True(t, ok)
		require.Equal(t, "alice", v)
		v, ok = restored.Value("JWT")
		require.True(t, ok)
		require.Equal(t, "tok", v)
	})

	t.Run("server max-age zero removes cookie", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		store := kv.NewMemory()

		jar, err := cookie.NewJar(ctx, origin, store)
		require.NoError(t, err)
		jar.SetCookies(u, []*http.Cookie{{Name: "JWT", Value: "tok", Path: "/", MaxAge: 3600}})
		jar.SetCookies(u, []*http.Cookie{{Name: "JWT", Path: "/", MaxAge: -1}})

		require.False(t, jar.Has("JWT"))
		_, err = store.Get(ctx, "cookies")
		require.ErrorIs(t, err, kv.ErrNotFound)
	})

	t.Run("expire forgets cookies locally and in storage", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		store := kv.NewMemory()

		jar, err := cookie.NewJar(ctx, origin, store)
		require.NoError(t, err)
		jar.SetCookies(u, []*http.Cookie{
			{Name: "JWT", Value: "tok", Path: "/", MaxAge: 3600},
			{Name: "username", Value: "alice", Path: "/", MaxAge: 3600},
			{Name: "theme", Value: "dark", Path: "/", MaxAge: 3600},
		})

		require.NoError(t, jar.Expire(ctx, "JWT", "username"))
		require.False(t, jar.Has("JWT"))
		require.False(t, jar.Has("username"))
		require.True(t, jar.Has("theme"))

		restored, err := cookie.NewJar(ctx, origin, store)
		require.NoError(t, err)
		require.False(t, restored.Has("JWT"))
		require.True(t, restored.Has("theme"))
	})

	t.Run("expired records are skipped on restore", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		store := kv.NewMemory()
		slice := kv.NewSlice(store, cookie.StorageKey)
		require.NoError(t, kv.Set(ctx, slice, cookie.StorageKey, []cookie.Record{
			{Name: "JWT", Value: "old", Path: "/", Expires: time.Now().Add(-time.Hour)},
			{Name: "username", Value: "alice", Path: "/", Expires: time.Now().Add(time.Hour)},
		}))

		jar, err := cookie.NewJar(ctx, origin, store)
		require.NoError(t, err)
		require.False(t, jar.Has("JWT"))
		require.True(t, jar.Has("username"))
	})

	t.Run("unreadable state is discarded", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		store := kv.NewMemory()
		require.NoError(t, store.Set(ctx, "cookies", []byte("{broken")))

		jar, err := cookie.NewJar(ctx, origin, store)
		require.NoError(t, err)
		require.False(t, jar.Has("JWT"))
	})

	t.Run("cookies for other hosts are not persisted", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		store := kv.NewMemory()

		jar, err := cookie.NewJar(ctx, origin, store)
		require.NoError(t, err)
		other, _ := url.Parse("http://elsewhere.test/")
		jar.SetCookies(other, []*http.Cookie{{Name: "x", Value: "1", Path: "/", MaxAge: 60}})

		require.Equal(t, 0, store.Len())
		require.Len(t, jar.Cookies(other), 1)
	})
}
