package server_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/internal/server"
)

func TestAsHTTPError(t *testing.T) {
	t.Parallel()

	t.Run("direct", func(t *testing.T) {
		t.Parallel()
		got := server.AsHTTPError(server.ErrNotFound("not found"))
		require.NotNil(t, got)
		require.Equal(t, http.StatusNotFound, got.Code)
	})

	t.Run("wrapped keeps cause", func(t *testing.T) {
		t.Parallel()
		cause := errors.New("db down")
		err := fmt.Errorf("handler: %w", server.ErrInternal("Internal error", server.WithError(cause)))

		got := server.AsHTTPError(err)
		require.NotNil(t, got)
		require.Equal(t, "Internal error", got.Error())
		require.ErrorIs(t, err, cause)
	})

	t.Run("plain error", func(t *testing.T) {
		t.Parallel()
		require.Nil(t, server.AsHTTPError(errors.New("plain")))
		require.Nil(t, server.AsHTTPError(nil))
	})
}
