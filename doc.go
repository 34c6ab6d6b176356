// Package storefront is a client for the storefront HTTP API that keeps a
// visitor's session, cart and checkout consistent across calls and process
// restarts.
//
// A Client wires together the pieces under pkg/: a persistent key/value
// store, a cookie jar bound to the API origin, the session resolver, the
// write-through cart and the checkout coordinator.
//
//	c, err := storefront.New(ctx, "http://localhost:8080",
//	    storefront.WithStore(kv.NewMemory()),
//	)
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	if _, err := c.Login(ctx, "alice", "secret"); err != nil {
//	    return err
//	}
//	if _, err := c.AddToCart(ctx, 1, 2); err != nil {
//	    return err
//	}
//	order, err := c.Checkout(ctx)
//
// Session answers "who is the visitor" from the local cache first and falls
// back to the session cookies, asking the server for the admin role only
// when needed. Privileged product management is gated locally through
// pkg/authz before any request is sent; the server enforces the same rule.
//
// Configuration can come from the environment and an optional YAML profile:
//
//	cfg, err := storefront.LoadConfig("storefront.yaml")
//	c, err := storefront.NewFromConfig(ctx, cfg)
package storefront
