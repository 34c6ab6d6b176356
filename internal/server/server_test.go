package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/storefront/internal/notify"
	"github.com/dmitrymomot/storefront/internal/repository"
	"github.com/dmitrymomot/storefront/internal/server"
	"github.com/dmitrymomot/storefront/pkg/api"
	"github.com/dmitrymomot/storefront/pkg/cookie"
	"github.com/dmitrymomot/storefront/pkg/kv"
)

type outbox struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (o *outbox) Dispatch(_ context.Context, msg notify.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, msg)
	return nil
}

func (o *outbox) sent() []notify.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]notify.Message(nil), o.msgs...)
}

type fixture struct {
	ts   *httptest.Server
	repo *repository.Memory
	mail *outbox
}

func newFixture(t *testing.T, mutate func(*server.Config)) *fixture {
	t.Helper()

	cfg := server.Config{
		PublicURL:     "http://shop.test/",
		JWTSecret:     "test-secret",
		TokenTTL:      time.Hour,
		AdminUsername: "admin",
		AdminPassword: "admin123",
		AdminEmail:    "admin@shop.test",
	}
	if mutate != nil {
		mutate(&cfg)
	}

	f := &fixture{repo: repository.NewMemory(), mail: &outbox{}}
	srv, err := server.New(f.repo, cfg,
		server.WithDispatcher(f.mail),
		server.WithHashCost(bcrypt.MinCost),
	)
	require.NoError(t, err)
	require.NoError(t, srv.Seed(context.Background()))

	f.ts = httptest.NewServer(srv.Handler())
	t.Cleanup(f.ts.Close)
	return f
}

func (f *fixture) client(t *testing.T) *api.Client {
	t.Helper()
	jar, err := cookie.NewJar(context.Background(), f.ts.URL, kv.NewMemory())
	require.NoError(t, err)
	c, err := api.New(f.ts.URL, api.WithJar(jar))
	require.NoError(t, err)
	return c
}

func (f *fixture) login(t *testing.T, username, password string) *api.Client {
	t.Helper()
	c := f.client(t)
	_, err := c.Login(context.Background(), username, password)
	require.NoError(t, err)
	return c
}

func (f *fixture) product(t *testing.T, name, price string, stock int) repository.Product {
	t.Helper()
	p, err := f.repo.CreateProduct(context.Background(), repository.Product{
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	})
	require.NoError(t, err)
	return p
}

func requireAPIError(t *testing.T, err error, status int, message string) {
	t.Helper()
	apiErr, ok := api.AsError(err)
	require.True(t, ok, "expected *api.Error, got %v", err)
	require.Equal(t, status, apiErr.Status)
	require.Equal(t, message, apiErr.Message)
}

func TestAuthFlow(t *testing.T) {
	t.Parallel()

	t.Run("register requires verification", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil)
		c := f.client(t)
		ctx := context.Background()

		msg, err := c.Register(ctx, api.Credentials{Username: "alice", Password: "secret", Email: "alice@shop.test"})
		require.NoError(t, err)
		require.Equal(t, "User registered! Check email to verify.", msg)

		_, err = c.Login(ctx, "alice", "secret")
		requireAPIError(t, err, http.StatusUnauthorized, "Account not verified. Check your email!")

		u, err := f.repo.UserByUsername(ctx, "alice")
		require.NoError(t, err)

		sent := f.mail.sent()
		require.Len(t, sent, 1)
		require.Equal(t, notify.TemplateWelcome, sent[0].Template)
		require.Equal(t, "alice@shop.test", sent[0].To)
		link, err := url.Parse(sent[0].Data["VerifyURL"])
		require.NoError(t, err)
		require.Equal(t, "/api/auth/verify/"+jsonID(u.ID), link.Path)
		token := link.Query().Get("token")
		require.NotEmpty(t, token)

		msg, err = c.Verify(ctx, u.ID, token)
		require.NoError(t, err)
		require.Equal(t, "Account verified! You can now login.", msg)

		resp, err := c.Login(ctx, "alice", "secret")
		require.NoError(t, err)
		require.Equal(t, "alice", resp.Username)
		require.False(t, resp.IsAdmin())

		me, err := c.Me(ctx)
		require.NoError(t, err)
		require.NotNil(t, me)
		require.Equal(t, "alice", me.Username)
		require.Equal(t, api.RoleUser, me.Role)
	})

	t.Run("auto verify", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, func(c *server.Config) { c.AutoVerify = true })
		c := f.client(t)
		ctx := context.Background()

		msg, err := c.Register(ctx, api.Credentials{Username: "bob", Password: "pw"})
		require.NoError(t, err)
		require.Equal(t, "User registered! You can now login.", msg)
		require.Empty(t, f.mail.sent())

		_, err = c.Login(ctx, "bob", "pw")
		require.NoError(t, err)
	})

	t.Run("duplicate username", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil)
		c := f.client(t)

		_, err := c.Register(context.Background(), api.Credentials{Username: "admin", Password: "x"})
		requireAPIError(t, err, http.StatusBadRequest, "Username already taken!")
		require.ErrorIs(t, err, api.ErrRejected)
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil)
		c := f.client(t)

		_, err := c.Login(context.Background(), "admin", "nope")
		requireAPIError(t, err, http.StatusUnauthorized, "Wrong username or password")
		require.ErrorIs(t, err, api.ErrAuth)

		_, err = c.Login(context.Background(), "ghost", "nope")
		requireAPIError(t, err, http.StatusUnauthorized, "Wrong username or password")
	})

	t.Run("admin login and logout", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil)
		c := f.client(t)
		ctx := context.Background()

		resp, err := c.Login(ctx, "admin", "admin123")
		require.NoError(t, err)
		require.True(t, resp.IsAdmin())
		require.True(t, c.ProbeAdmin(ctx))

		status, err := c.Check(ctx)
		require.NoError(t, err)
		require.True(t, status.Authenticated)
		require.Equal(t, api.RoleAdmin, status.Role)

		sent := f.mail.sent()
		require.Len(t, sent, 1)
		require.Equal(t, notify.TemplateLogin, sent[0].Template)

		require.NoError(t, c.Logout(ctx))

		status, err = c.Check(ctx)
		require.NoError(t, err)
		require.False(t, status.Authenticated)

		me, err := c.Me(ctx)
		require.NoError(t, err)
		require.Nil(t, me)
	})

	t.Run("disabled account loses session", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, func(c *server.Config) { c.AutoVerify = true })
		ctx := context.Background()

		_, err := f.client(t).Register(ctx, api.Credentials{Username: "carol", Password: "pw"})
		require.NoError(t, err)
		c := f.login(t, "carol", "pw")

		u, err := f.repo.UserByUsername(ctx, "carol")
		require.NoError(t, err)
		require.NoError(t, f.repo.SetEnabled(ctx, u.ID, false))

		status, err := c.Check(ctx)
		require.NoError(t, err)
		require.False(t, status.Authenticated)
	})
}

func TestProducts(t *testing.T) {
	t.Parallel()

	f := newFixture(t, func(c *server.Config) { c.AutoVerify = true })
	ctx := context.Background()

	_, err := f.client(t).Register(ctx, api.Credentials{Username: "dave", Password: "pw"})
	require.NoError(t, err)
	user := f.login(t, "dave", "pw")
	admin := f.login(t, "admin", "admin123")
	anon := f.client(t)

	t.Run("gating", func(t *testing.T) {
		in := api.Product{Name: "Lamp", Price: decimal.RequireFromString("12.00"), Stock: 1}

		_, err := anon.CreateProduct(ctx, in)
		requireAPIError(t, err, http.StatusUnauthorized, "Authentication required")

		_, err = user.CreateProduct(ctx, in)
		requireAPIError(t, err, http.StatusForbidden, "Access denied")
		require.False(t, user.ProbeAdmin(ctx))
	})

	t.Run("crud", func(t *testing.T) {
		created, err := admin.CreateProduct(ctx, api.Product{
			Name:        "<b>Desk</b>",
			Description: `<p onclick="x()">Solid <script>alert(1)</script>oak</p>`,
			Price:       decimal.RequireFromString("199.99"),
			Stock:       3,
		})
		require.NoError(t, err)
		require.NotZero(t, created.ID)
		require.Equal(t, "Desk", created.Name)
		require.NotContains(t, created.Description, "script")
		require.NotContains(t, created.Description, "onclick")

		got, err := anon.GetProduct(ctx, created.ID)
		require.NoError(t, err)
		require.True(t, decimal.RequireFromString("199.99").Equal(got.Price))

		updated, err := admin.UpdateProduct(ctx, created.ID, api.Product{
			Name:  "Desk",
			Price: decimal.RequireFromString("149.00"),
			Stock: 5,
		})
		require.NoError(t, err)
		require.Equal(t, 5, updated.Stock)

		list, err := anon.ListProducts(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, list)

		msg, err := admin.DeleteProduct(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, "Product deleted successfully", msg)

		_, err = anon.GetProduct(ctx, created.ID)
		requireAPIError(t, err, http.StatusNotFound, "Product not found with id: "+jsonID(created.ID))
	})
}

func TestCheckout(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) (*fixture, *api.Client) {
		f := newFixture(t, func(c *server.Config) { c.AutoVerify = true })
		_, err := f.client(t).Register(context.Background(), api.Credentials{Username: "erin", Password: "pw"})
		require.NoError(t, err)
		return f, f.login(t, "erin", "pw")
	}

	t.Run("places order and decrements stock", func(t *testing.T) {
		t.Parallel()
		f, c := setup(t)
		ctx := context.Background()
		mug := f.product(t, "Mug", "9.50", 5)
		pen := f.product(t, "Pen", "1.25", 10)

		order, err := c.Checkout(ctx, api.OrderRequest{Items: []api.OrderLine{
			{ProductID: mug.ID, Quantity: 2},
			{ProductID: pen.ID, Quantity: 4},
		}}, "")
		require.NoError(t, err)
		require.Equal(t, "erin", order.User)
		require.Len(t, order.Items, 2)
		require.True(t, decimal.RequireFromString("24.00").Equal(order.Total), order.Total.String())

		p, err := f.repo.Product(ctx, mug.ID)
		require.NoError(t, err)
		require.Equal(t, 3, p.Stock)

		mine, err := c.MyOrders(ctx)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		require.Equal(t, order.ID, mine[0].ID)
	})

	t.Run("insufficient stock", func(t *testing.T) {
		t.Parallel()
		f, c := setup(t)
		ctx := context.Background()
		mug := f.product(t, "Mug", "9.50", 1)
		pen := f.product(t, "Pen", "1.25", 10)

		_, err := c.Checkout(ctx, api.OrderRequest{Items: []api.OrderLine{
			{ProductID: pen.ID, Quantity: 1},
			{ProductID: mug.ID, Quantity: 2},
		}}, "")
		requireAPIError(t, err, http.StatusConflict, "Not enough stock for product Mug")

		p, err := f.repo.Product(ctx, pen.ID)
		require.NoError(t, err)
		require.Equal(t, 10, p.Stock)
	})

	t.Run("idempotency key replays order", func(t *testing.T) {
		t.Parallel()
		f, c := setup(t)
		ctx := context.Background()
		mug := f.product(t, "Mug", "9.50", 5)
		req := api.OrderRequest{Items: []api.OrderLine{{ProductID: mug.ID, Quantity: 1}}}

		first, err := c.Checkout(ctx, req, "key-1")
		require.NoError(t, err)
		second, err := c.Checkout(ctx, req, "key-1")
		require.NoError(t, err)
		require.Equal(t, first.ID, second.ID)

		p, err := f.repo.Product(ctx, mug.ID)
		require.NoError(t, err)
		require.Equal(t, 4, p.Stock)
	})

	t.Run("unknown product", func(t *testing.T) {
		t.Parallel()
		_, c := setup(t)

		_, err := c.Checkout(context.Background(), api.OrderRequest{Items: []api.OrderLine{{ProductID: 404, Quantity: 1}}}, "")
		requireAPIError(t, err, http.StatusNotFound, "Product not found")
	})

	t.Run("requires login", func(t *testing.T) {
		t.Parallel()
		f, _ := setup(t)
		mug := f.product(t, "Mug", "9.50", 5)

		_, err := f.client(t).Checkout(context.Background(), api.OrderRequest{Items: []api.OrderLine{{ProductID: mug.ID, Quantity: 1}}}, "")
		requireAPIError(t, err, http.StatusUnauthorized, "Authentication required")
	})
}

func TestAdminUsers(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	ctx := context.Background()
	admin := f.login(t, "admin", "admin123")

	_, err := f.client(t).Register(ctx, api.Credentials{Username: "frank", Password: "pw"})
	require.NoError(t, err)
	u, err := f.repo.UserByUsername(ctx, "frank")
	require.NoError(t, err)

	users, err := admin.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	msg, err := admin.EnableUser(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "User enabled", msg)

	frank := f.login(t, "frank", "pw")
	_, err = frank.ListUsers(ctx)
	requireAPIError(t, err, http.StatusForbidden, "Access denied")

	msg, err = admin.MakeAdmin(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "User promoted to admin", msg)
	require.True(t, frank.ProbeAdmin(ctx))

	msg, err = admin.DisableUser(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "User disabled", msg)

	_, err = admin.EnableUser(ctx, 9999)
	requireAPIError(t, err, http.StatusNotFound, "User not found")

	orders, err := admin.AllOrders(ctx)
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestErrorBody(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	req, err := http.NewRequest(http.MethodGet, f.ts.URL+"/api/nowhere", nil)
	require.NoError(t, err)
	req.Header.Set(api.RequestIDHeader, "req-42")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "req-42", resp.Header.Get(api.RequestIDHeader))

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "Not found", body["error"])
	require.Equal(t, "req-42", body["requestId"])
}

func TestHealth(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	resp, err := http.Get(f.ts.URL + "/health/live")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestVerifyRequiresSignedLink(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	c := f.client(t)
	ctx := context.Background()

	for _, name := range []string{"carol", "dave"} {
		_, err := c.Register(ctx, api.Credentials{Username: name, Password: "pw", Email: name + "@shop.test"})
		require.NoError(t, err)
	}
	carol, err := f.repo.UserByUsername(ctx, "carol")
	require.NoError(t, err)
	dave, err := f.repo.UserByUsername(ctx, "dave")
	require.NoError(t, err)

	sent := f.mail.sent()
	require.Len(t, sent, 2)
	link, err := url.Parse(sent[0].Data["VerifyURL"])
	require.NoError(t, err)
	carolToken := link.Query().Get("token")

	_, err = c.Verify(ctx, carol.ID, "forged")
	requireAPIError(t, err, http.StatusBadRequest, "Verification failed")

	_, err = c.Verify(ctx, dave.ID, carolToken)
	requireAPIError(t, err, http.StatusBadRequest, "Verification failed")

	admin, err := f.repo.UserByUsername(ctx, "admin")
	require.NoError(t, err)
	tokens, err := server.NewTokens("test-secret", time.Hour)
	require.NoError(t, err)
	session, err := tokens.Issue(admin)
	require.NoError(t, err)
	_, err = c.Verify(ctx, admin.ID, session)
	requireAPIError(t, err, http.StatusBadRequest, "Verification failed")

	_, err = c.Verify(ctx, carol.ID, "")
	require.ErrorIs(t, err, api.ErrValidation)

	d, err := f.repo.UserByUsername(ctx, "dave")
	require.NoError(t, err)
	require.False(t, d.Enabled)

	_, err = c.Verify(ctx, carol.ID, carolToken)
	require.NoError(t, err)
}

func jsonID(id int64) string {
	raw, _ := json.Marshal(id)
	return strings.TrimSpace(string(raw))
}

func TestCORS(t *testing.T) {
	t.Parallel()

	f := newFixture(t, func(c *server.Config) { c.CORSOrigins = []string{"http://localhost:3000"} })

	t.Run("preflight from allowed origin", func(t *testing.T) {
		t.Parallel()
		req, err := http.NewRequest(http.MethodOptions, f.ts.URL+"/api/orders/checkout", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		require.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
		require.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
		require.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), api.IdempotencyHeader)
	})

	t.Run("other origin gets no headers", func(t *testing.T) {
		t.Parallel()
		req, err := http.NewRequest(http.MethodGet, f.ts.URL+"/api/products", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "http://evil.test")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	})
}
