package storefront

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/storefront/pkg/api"
	"github.com/dmitrymomot/storefront/pkg/authz"
	"github.com/dmitrymomot/storefront/pkg/cart"
	"github.com/dmitrymomot/storefront/pkg/checkout"
	"github.com/dmitrymomot/storefront/pkg/cookie"
	"github.com/dmitrymomot/storefront/pkg/kv"
	"github.com/dmitrymomot/storefront/pkg/logger"
	"github.com/dmitrymomot/storefront/pkg/session"
)

const defaultTimeout = 15 * time.Second

// ErrUnknownRoleStrategy is returned for a RoleStrategy other than RoleProbe
// or RoleClaims.
var ErrUnknownRoleStrategy = errors.New("storefront: unknown role strategy")

// Client is a storefront visitor: session, cart and checkout over one API.
// It is safe for concurrent use.
type Client struct {
	api      *api.Client
	jar      *cookie.Jar
	sessions *session.Resolver
	cart     *cart.Store
	checkout *checkout.Coordinator
	logger   *slog.Logger
	closers  []func() error
}

// New creates a client for the API at baseURL and restores any persisted
// cookies, cart and session cache from the configured store.
func New(ctx context.Context, baseURL string, opts ...Option) (*Client, error) {
	o := &options{
		logger:  logger.NewNope(),
		roles:   RoleProbe,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.store == nil {
		o.store = kv.NewMemory()
	}

	jar, err := cookie.NewJar(ctx, baseURL, o.store, cookie.WithJarLogger(o.logger))
	if err != nil {
		return nil, fmt.Errorf("storefront: cookie jar: %w", err)
	}

	hc := &http.Client{Timeout: o.timeout}
	if o.httpClient != nil {
		cp := *o.httpClient
		hc = &cp
	}
	hc.Jar = jar

	apiOpts := []api.Option{api.WithHTTPClient(hc), api.WithLogger(o.logger)}
	if o.userAgent != "" {
		apiOpts = append(apiOpts, api.WithUserAgent(o.userAgent))
	}
	if o.breaker != nil {
		apiOpts = append(apiOpts, api.WithBreaker(*o.breaker))
	}
	apiClient, err := api.New(baseURL, apiOpts...)
	if err != nil {
		return nil, err
	}

	roles, err := roleQuery(o.roles, apiClient)
	if err != nil {
		return nil, err
	}

	carts := cart.NewStore(o.store, cart.WithLogger(o.logger))

	coordOpts := []checkout.Option{checkout.WithLogger(o.logger)}
	if o.idempotency {
		coordOpts = append(coordOpts, checkout.WithIdempotencyKeys(), checkout.WithKeyStore(o.store))
	}

	sessions := session.NewResolver(o.store, jar, roles,
		session.WithLogger(o.logger),
		session.WithQueryTimeout(o.timeout),
	)

	return &Client{
		api:      apiClient,
		jar:      jar,
		sessions: sessions,
		cart:     carts,
		checkout: checkout.New(apiClient, carts, coordOpts...),
		logger:   o.logger,
		closers:  o.closers,
	}, nil
}

func roleQuery(s RoleStrategy, c *api.Client) (session.RoleQuery, error) {
	switch s {
	case RoleProbe:
		return session.ProbeQuery{Prober: c}, nil
	case RoleClaims:
		return session.ClaimsQuery{Source: c}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRoleStrategy, s)
	}
}

// Close releases resources owned by the client, such as a Redis connection
// opened by NewFromConfig.
func (c *Client) Close() error {
	var errs []error
	for _, fn := range c.closers {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// API exposes the underlying typed API client.
func (c *Client) API() *api.Client {
	return c.api
}

// Cart exposes the cart store for direct mutation.
func (c *Client) Cart() *cart.Store {
	return c.cart
}

// Session resolves the current visitor session.
func (c *Client) Session(ctx context.Context) (session.Session, error) {
	return c.sessions.Resolve(ctx)
}

// IsPrivileged reports whether the current session holds the admin role.
func (c *Client) IsPrivileged(ctx context.Context) (bool, error) {
	s, err := c.sessions.Resolve(ctx)
	if err != nil {
		return false, err
	}
	return authz.IsPrivileged(s), nil
}

// Register creates an account and returns the server message.
func (c *Client) Register(ctx context.Context, username, password, email string) (string, error) {
	return c.api.Register(ctx, api.Credentials{Username: username, Password: password, Email: email})
}

// Verify confirms the e-mail address of a registered account using the
// token from the verification link.
func (c *Client) Verify(ctx context.Context, userID int64, token string) (string, error) {
	return c.api.Verify(ctx, userID, token)
}

// Login authenticates and caches the identity and admin flag from the
// response.
func (c *Client) Login(ctx context.Context, username, password string) (session.Session, error) {
	resp, err := c.api.Login(ctx, username, password)
	if err != nil {
		return session.Session{}, err
	}

	name := resp.Username
	if name == "" {
		name = username
	}
	if err := c.sessions.Remember(ctx, name, resp.IsAdmin()); err != nil {
		return session.Session{}, err
	}
	c.logger.InfoContext(ctx, "logged in",
		slog.String("username", name),
		slog.Bool("admin", resp.IsAdmin()),
	)
	return c.sessions.Resolve(ctx)
}

// Logout ends the session. Local cookies and cache are cleared even when the
// server cannot be reached.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.api.Logout(ctx); err != nil {
		c.logger.WarnContext(ctx, "logout request failed", slog.Any("error", err))
	}
	return c.sessions.Invalidate(ctx)
}

// Products lists the catalog. Auth and transport failures yield an empty list.
func (c *Client) Products(ctx context.Context) ([]api.Product, error) {
	return c.api.ListProducts(ctx)
}

// Product fetches one product.
func (c *Client) Product(ctx context.Context, id int64) (*api.Product, error) {
	return c.api.GetProduct(ctx, id)
}

// CreateProduct adds a product. Non-admin sessions get authz.ErrForbidden
// without a request being sent.
func (c *Client) CreateProduct(ctx context.Context, p api.Product) (*api.Product, error) {
	if err := c.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return c.api.CreateProduct(ctx, p)
}

// UpdateProduct replaces a product. Admin only.
func (c *Client) UpdateProduct(ctx context.Context, id int64, p api.Product) (*api.Product, error) {
	if err := c.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return c.api.UpdateProduct(ctx, id, p)
}

// DeleteProduct removes a product. Admin only.
func (c *Client) DeleteProduct(ctx context.Context, id int64) (string, error) {
	if err := c.requireAdmin(ctx); err != nil {
		return "", err
	}
	return c.api.DeleteProduct(ctx, id)
}

// AddToCart fetches the product and adds qty of it to the cart.
func (c *Client) AddToCart(ctx context.Context, productID int64, qty int) (cart.Cart, error) {
	if qty < 1 {
		return nil, cart.ErrInvalidQuantity
	}
	p, err := c.api.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return c.cart.Add(ctx, *p, qty)
}

// Checkout submits the current cart as an order. The cart is cleared only
// when the order is placed.
func (c *Client) Checkout(ctx context.Context) (*api.Order, error) {
	items, err := c.cart.Read(ctx)
	if err != nil {
		return nil, err
	}
	return c.checkout.Submit(ctx, items)
}

// CheckoutState returns the state of the last checkout and its message.
func (c *Client) CheckoutState() (checkout.State, string) {
	return c.checkout.State(), c.checkout.Message()
}

// Orders lists the orders of the current account.
func (c *Client) Orders(ctx context.Context) ([]api.Order, error) {
	return c.api.MyOrders(ctx)
}

// AllOrders lists every order. Admin only.
func (c *Client) AllOrders(ctx context.Context) ([]api.Order, error) {
	if err := c.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return c.api.AllOrders(ctx)
}

// Users lists accounts. Admin only.
func (c *Client) Users(ctx context.Context) ([]api.User, error) {
	if err := c.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return c.api.ListUsers(ctx)
}

// EnableUser enables an account. Admin only.
func (c *Client) EnableUser(ctx context.Context, id int64) (string, error) {
	if err := c.requireAdmin(ctx); err != nil {
		return "", err
	}
	return c.api.EnableUser(ctx, id)
}

// DisableUser disables an account. Admin only.
func (c *Client) DisableUser(ctx context.Context, id int64) (string, error) {
	if err := c.requireAdmin(ctx); err != nil {
		return "", err
	}
	return c.api.DisableUser(ctx, id)
}

// MakeAdmin grants the admin role to an account. Admin only.
func (c *Client) MakeAdmin(ctx context.Context, id int64) (string, error) {
	if err := c.requireAdmin(ctx); err != nil {
		return "", err
	}
	return c.api.MakeAdmin(ctx, id)
}

func (c *Client) requireAdmin(ctx context.Context) error {
	s, err := c.sessions.Resolve(ctx)
	if err != nil {
		return err
	}
	return authz.Require(s)
}
