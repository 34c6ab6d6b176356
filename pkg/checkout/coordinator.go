package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/storefront/pkg/api"
	"github.com/dmitrymomot/storefront/pkg/cart"
	"github.com/dmitrymomot/storefront/pkg/kv"
)

// PendingKey stores the idempotency key of an unconfirmed submission.
var PendingKey = kv.JSON[pendingKey]("checkoutKey")

type pendingKey struct {
	Key  string `json:"key"`
	Cart string `json:"cart"`
}

// State is the submission state of a Coordinator.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

const genericFailure = "Checkout failed"

// Submitter places orders.
type Submitter interface {
	Checkout(ctx context.Context, req api.OrderRequest, idempotencyKey string) (*api.Order, error)
}

// Clearer empties the cart after a successful order.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Coordinator turns a cart into an order. At most one submission is in
// flight at a time; a concurrent Submit fails with ErrInProgress.
type Coordinator struct {
	submitter   Submitter
	cart        Clearer
	logger      *slog.Logger
	newKey      func() string
	keys        *kv.Slice
	message     string
	key         string
	keyCart     string
	state       State
	mu          sync.Mutex
	idempotency bool
	keyLoaded   bool
}

// Option configures the Coordinator.
type Option func(*Coordinator)

// WithLogger sets the coordinator logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithIdempotencyKeys attaches an Idempotency-Key header to every submission.
// Retries of an unchanged cart reuse the key; it is renewed after a success
// or when the cart changes.
func WithIdempotencyKeys() Option {
	return func(c *Coordinator) {
		c.idempotency = true
	}
}

// WithKeyStore persists the pending idempotency key in store so a retry
// from another process reuses it.
func WithKeyStore(store kv.Store) Option {
	return func(c *Coordinator) {
		if store != nil {
			c.keys = kv.NewSlice(store, PendingKey)
		}
	}
}

// WithKeyGenerator overrides the idempotency key source.
func WithKeyGenerator(gen func() string) Option {
	return func(c *Coordinator) {
		if gen != nil {
			c.newKey = gen
		}
	}
}

// New creates a coordinator.
func New(submitter Submitter, cart Clearer, opts ...Option) *Coordinator {
	c := &Coordinator{
		submitter: submitter,
		cart:      cart,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		newKey:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Message returns the failure message of the last submission, if it failed.
func (c *Coordinator) Message() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.message
}

// Reset returns a finished coordinator to Idle.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateSubmitting {
		c.state = StateIdle
		c.message = ""
	}
}

// Submit places an order for items. An empty cart fails with ErrEmptyCart
// without any request. On success the cart is cleared; on failure it is
// left as it was and a *Failure carries the message to show.
func (c *Coordinator) Submit(ctx context.Context, items cart.Cart) (*api.Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	key, err := c.begin(ctx, items)
	if err != nil {
		return nil, err
	}

	order, err := c.submitter.Checkout(ctx, items.OrderRequest(), key)
	if err != nil {
		f := &Failure{Err: err, Message: failureMessage(err)}
		c.finish(ctx, StateFailed, f.Message)
		c.logger.WarnContext(ctx, "checkout failed",
			slog.Int("items", len(items)),
			slog.String("message", f.Message),
			slog.Any("error", err),
		)
		return nil, f
	}

	c.finish(ctx, StateSucceeded, "")
	c.logger.InfoContext(ctx, "order placed",
		slog.Int64("order_id", order.ID),
		slog.String("total", order.Total.String()),
	)

	if err := c.cart.Clear(context.WithoutCancel(ctx)); err != nil {
		c.logger.ErrorContext(ctx, "failed to clear cart after checkout", slog.Any("error", err))
		return order, errors.Join(ErrCartNotCleared, err)
	}
	return order, nil
}

func (c *Coordinator) begin(ctx context.Context, items cart.Cart) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateSubmitting {
		return "", ErrInProgress
	}
	c.state = StateSubmitting
	c.message = ""

	if !c.idempotency {
		return "", nil
	}
	c.loadKey(ctx)

	fp := fingerprint(items)
	if c.key == "" || c.keyCart != fp {
		c.key = c.newKey()
		c.keyCart = fp
		c.saveKey(ctx)
	}
	return c.key, nil
}

func (c *Coordinator) finish(ctx context.Context, state State, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = state
	c.message = message
	if state == StateSucceeded && c.key != "" {
		c.key = ""
		c.keyCart = ""
		c.saveKey(context.WithoutCancel(ctx))
	}
}

// loadKey restores a key left by an earlier process. Callers hold c.mu.
func (c *Coordinator) loadKey(ctx context.Context) {
	if c.keys == nil || c.keyLoaded {
		return
	}
	p, err := kv.Get(ctx, c.keys, PendingKey)
	switch {
	case errors.Is(err, kv.ErrNotFound):
	case err != nil:
		c.logger.WarnContext(ctx, "failed to read pending idempotency key", slog.Any("error", err))
		return
	default:
		c.key, c.keyCart = p.Key, p.Cart
	}
	c.keyLoaded = true
}

// saveKey stores the current key, or removes it when there is none.
// Callers hold c.mu. A storage failure only costs cross-process reuse.
func (c *Coordinator) saveKey(ctx context.Context) {
	if c.keys == nil {
		return
	}
	var err error
	if c.key == "" {
		err = kv.Delete(ctx, c.keys, PendingKey)
	} else {
		err = kv.Set(ctx, c.keys, PendingKey, pendingKey{Key: c.key, Cart: c.keyCart})
	}
	if err != nil {
		c.logger.WarnContext(ctx, "failed to store pending idempotency key", slog.Any("error", err))
	}
}

func fingerprint(items cart.Cart) string {
	var b strings.Builder
	for _, it := range items {
		b.WriteString(strconv.FormatInt(it.ProductID, 10))
		b.WriteByte('x')
		b.WriteString(strconv.Itoa(it.Quantity))
		b.WriteByte(';')
	}
	return b.String()
}

func failureMessage(err error) string {
	e, ok := api.AsError(err)
	switch {
	case !ok:
		return genericFailure
	case e.Kind == api.KindTransport:
		return genericFailure + ": " + e.Message
	case e.Message == "" || strings.HasPrefix(e.Message, "HTTP "):
		return fmt.Sprintf("%s (HTTP %d)", genericFailure, e.Status)
	default:
		return e.Message
	}
}
