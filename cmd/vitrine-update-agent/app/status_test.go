package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrine-io/vitrine/internal/pkg/httputil"
	"github.com/vitrine-io/vitrine/internal/updatecheck"
)

func TestAgentURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{addr: "127.0.0.1:8787", want: "http://127.0.0.1:8787/v1/update/status"},
		{addr: "0.0.0.0:9000", want: "http://127.0.0.1:9000/v1/update/status"},
		{addr: ":9000", want: "http://127.0.0.1:9000/v1/update/status"},
		{addr: "[::]:9000", want: "http://127.0.0.1:9000/v1/update/status"},
		{addr: "kiosk.local:80", want: "http://kiosk.local:80/v1/update/status"},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.want, agentURL(tt.addr))
		})
	}
}

func TestFetchAndPrintStatus(t *testing.T) {
	want := updatecheck.Status{
		State:         "pending",
		LastSeen:      "1700000000000-abc123",
		HasLastSeen:   true,
		UpdatePending: true,
		Polling:       true,
		Reminding:     true,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, statusPath, r.URL.Path)
		httputil.WriteJSON(w, http.StatusOK, want)
	}))
	defer srv.Close()

	got, err := fetchStatus(context.Background(), srv.Client(), srv.URL+statusPath)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	var out bytes.Buffer
	require.NoError(t, printStatus(&out, got))
	assert.Contains(t, out.String(), "1700000000000-abc123")
	assert.Contains(t, out.String(), "pending")
}

func TestFetchStatusUnexpectedCode(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := fetchStatus(context.Background(), srv.Client(), srv.URL+statusPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestPrintStatusWithoutBaseline(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printStatus(&out, updatecheck.Status{State: "baseline"}))
	assert.Contains(t, out.String(), "LAST SEEN:")
	assert.Contains(t, out.String(), "-")
}
