package server_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/internal/server"
)

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("serves until cancelled then runs hooks", func(t *testing.T) {
		t.Parallel()

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		hooked := make(chan struct{})
		done := make(chan error, 1)
		go func() {
			done <- server.Run(ctx, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTeapot)
			}),
				server.WithListener(ln),
				server.WithShutdownTimeout(time.Second),
				server.WithShutdownHook(func(context.Context) error {
					close(hooked)
					return nil
				}),
			)
		}()

		require.Eventually(t, func() bool {
			resp, err := http.Get("http://" + ln.Addr().String())
			if err != nil {
				return false
			}
			resp.Body.Close()
			return resp.StatusCode == http.StatusTeapot
		}, 2*time.Second, 20*time.Millisecond)

		cancel()
		require.NoError(t, <-done)
		<-hooked
	})

	t.Run("joins hook errors", func(t *testing.T) {
		t.Parallel()

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)

		hookErr := errors.New("close failed")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err = server.Run(ctx, http.NotFoundHandler(),
			server.WithListener(ln),
			server.WithShutdownHook(func(context.Context) error { return hookErr }),
		)
		require.ErrorIs(t, err, hookErr)
	})
}
