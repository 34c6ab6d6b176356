// Command storefront is a terminal client for a storefront API.
//
// Cookies, the identity cache and the cart are kept in a state file (or
// Redis) so a session survives between invocations:
//
//	storefront login alice s3cret
//	storefront cart add 3 2
//	storefront checkout
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		cancel()
		os.Exit(1)
	}
}
