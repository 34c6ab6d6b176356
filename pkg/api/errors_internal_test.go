package api

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractMessage(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		body   string
		status int
		want   string
	}{
		{name: "json error field", body: `{"error":"Wrong username or password"}`, status: 401, want: "Wrong username or password"},
		{name: "json message field", body: `{"message":"Product not found with id: 7"}`, status: 404, want: "Product not found with id: 7"},
		{name: "error wins over message", body: `{"error":"a","message":"b"}`, status: 400, want: "a"},
		{name: "raw text", body: "Username already taken!\n", status: 400, want: "Username already taken!"},
		{name: "empty body", body: "  ", status: 502, want: "HTTP 502"},
		{name: "json without known fields", body: `{"code":1}`, status: 500, want: "HTTP 500"},
		{name: "malformed json kept as text", body: `{oops`, status: 500, want: "{oops"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, extractMessage([]byte(tc.body), tc.status))
		})
	}
}

func TestStatusErrorKinds(t *testing.T) {
	t.Parallel()

	require.Equal(t, KindAuth, statusError("x", 401, nil).Kind)
	require.Equal(t, KindAuth, statusError("x", 403, nil).Kind)
	require.Equal(t, KindServer, statusError("x", 500, nil).Kind)
	require.Equal(t, KindServer, statusError("x", 503, nil).Kind)
	require.Equal(t, KindRejected, statusError("x", 400, nil).Kind)
	require.Equal(t, KindRejected, statusError("x", 404, nil).Kind)
}
