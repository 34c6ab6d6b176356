package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/pkg/api"
)

func newServer(t *testing.T, mux *http.ServeMux) (*api.Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	c, err := api.New(srv.URL, api.WithJar(jar))
	require.NoError(t, err)
	return c, srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := api.New("not a url")
	require.ErrorIs(t, err, api.ErrInvalidBaseURL)

	c, err := api.New("http://example.com/")
	require.NoError(t, err)
	require.Equal(t, "http://example.com", c.BaseURL())
}

func TestLogin(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var cr api.Credentials
		_ = json.NewDecoder(r.Body).Decode(&cr)
		if cr.Password != "secret" {
			http.Error(w, "Wrong username or password", http.StatusUnauthorized)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: api.TokenCookie, Value: "tok", Path: "/"})
		writeJSON(w, http.StatusOK, map[string]any{"username": cr.Username, "role": api.RoleAdmin})
	})
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie(api.TokenCookie); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, api.Identity{Username: "alice", Role: api.RoleAdmin, Enabled: true})
	})
	c, _ := newServer(t, mux)
	ctx := context.Background()

	t.Run("missing fields never reach the network", func(t *testing.T) {
		t.Parallel()

		_, err := c.Login(ctx, " ", "x")
		require.ErrorIs(t, err, api.ErrValidation)
	})

	t.Run("wrong password surfaces server text", func(t *testing.T) {
		t.Parallel()

		_, err := c.Login(ctx, "alice", "nope")
		require.ErrorIs(t, err, api.ErrAuth)
		e, ok := api.AsError(err)
		require.True(t, ok)
		require.Equal(t, "Wrong username or password", e.Message)
		require.Equal(t, http.StatusUnauthorized, e.Status)
		require.Equal(t, "login", e.Op)
	})

	t.Run("success stores cookie and reports role", func(t *testing.T) {
		t.Parallel()

		resp, err := c.Login(ctx, "alice", "secret")
		require.NoError(t, err)
		require.Equal(t, "alice", resp.Username)
		require.True(t, resp.IsAdmin())

		me, err := c.Me(ctx)
		require.NoError(t, err)
		require.NotNil(t, me)
		require.Equal(t, "alice", me.Username)
	})
}

func TestMeWithoutSession(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	c, _ := newServer(t, mux)

	me, err := c.Me(context.Background())
	require.NoError(t, err)
	require.Nil(t, me)
}

func TestListProducts(t *testing.T) {
	t.Parallel()

	t.Run("decodes products", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/products", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, []api.Product{{ID: 1, Name: "A", Price: decimal.NewFromInt(10), Stock: 3}})
		})
		c, _ := newServer(t, mux)

		ps, err := c.ListProducts(context.Background())
		require.NoError(t, err)
		require.Len(t, ps, 1)
		require.True(t, ps[0].Price.Equal(decimal.NewFromInt(10)))
	})

	t.Run("forbidden maps to empty list", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/products", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})
		c, _ := newServer(t, mux)

		ps, err := c.ListProducts(context.Background())
		require.NoError(t, err)
		require.NotNil(t, ps)
		require.Empty(t, ps)
	})

	t.Run("transport failure maps to empty list", func(t *testing.T) {
		t.Parallel()

		c, srv := newServer(t, http.NewServeMux())
		srv.Close()

		ps, err := c.ListProducts(context.Background())
		require.NoError(t, err)
		require.Empty(t, ps)
	})

	t.Run("server error is surfaced", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/products", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "db down"})
		})
		c, _ := newServer(t, mux)

		_, err := c.ListProducts(context.Background())
		require.ErrorIs(t, err, api.ErrServer)
		require.EqualError(t, err, "db down")
	})

	t.Run("malformed body is a server error", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/products", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("[{"))
		})
		c, _ := newServer(t, mux)

		_, err := c.ListProducts(context.Background())
		require.ErrorIs(t, err, api.ErrServer)
	})
}

func TestProbeAdmin(t *testing.T) {
	t.Parallel()

	var allow atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/admin/users", func(w http.ResponseWriter, _ *http.Request) {
		if !allow.Load() {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		writeJSON(w, http.StatusOK, []api.User{})
	})
	c, srv := newServer(t, mux)
	ctx := context.Background()

	require.False(t, c.ProbeAdmin(ctx))
	allow.Store(true)
	require.True(t, c.ProbeAdmin(ctx))
	srv.Close()
	require.False(t, c.ProbeAdmin(ctx))
}

func TestCheckout(t *testing.T) {
	t.Parallel()

	var (
		hits    atomic.Int32
		lastKey atomic.Value
	)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/orders/checkout", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		lastKey.Store(r.Header.Get(api.IdempotencyHeader))

		var req api.OrderRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Items[0].ProductID == 99 {
			http.Error(w, "Not enough stock for product X", http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, api.Order{ID: 5, User: "alice", Total: decimal.NewFromInt(20)})
	})
	c, _ := newServer(t, mux)
	ctx := context.Background()

	_, err := c.Checkout(ctx, api.OrderRequest{}, "")
	require.ErrorIs(t, err, api.ErrValidation)
	require.Equal(t, int32(0), hits.Load())

	order, err := c.Checkout(ctx, api.OrderRequest{Items: []api.OrderLine{{ProductID: 1, Quantity: 2}}}, "key-1")
	require.NoError(t, err)
	require.Equal(t, int64(5), order.ID)
	require.Equal(t, "key-1", lastKey.Load())

	_, err = c.Checkout(ctx, api.OrderRequest{Items: []api.OrderLine{{ProductID: 99, Quantity: 1}}}, "")
	require.ErrorIs(t, err, api.ErrRejected)
	require.EqualError(t, err, "Not enough stock for product X")
	require.Empty(t, lastKey.Load())
}

func TestBreaker(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/orders/me", func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := api.New(srv.URL, api.WithBreaker(gobreaker.Settings{
		Timeout: time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 2
		},
	}))
	require.NoError(t, err)
	ctx := context.Background()

	for range 2 {
		_, err := c.MyOrders(ctx)
		require.ErrorIs(t, err, api.ErrServer)
	}

	_, err = c.MyOrders(ctx)
	require.ErrorIs(t, err, api.ErrTransport)
	require.True(t, errors.Is(err, gobreaker.ErrOpenState))
	require.Equal(t, int32(2), hits.Load())
}

func TestAdminActions(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/admin/users/{id}/{action}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("User " + r.PathValue("id") + " " + r.PathValue("action")))
	})
	c, _ := newServer(t, mux)
	ctx := context.Background()

	msg, err := c.EnableUser(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, "User 3 enable", msg)

	msg, err = c.MakeAdmin(ctx, 4)
	require.NoError(t, err)
	require.Equal(t, "User 4 make-admin", msg)
}
