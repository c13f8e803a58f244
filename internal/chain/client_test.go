package chain

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewClientUnsupportedScheme(t *testing.T) {
	_, err := NewClient(context.Background(), "ftp://example.invalid", Options{})
	require.Error(t, err)

	var connErr *ConnectivityError
	require.True(t, errors.As(err, &connErr))
	require.Equal(t, "ftp://example.invalid", connErr.URL)
}

func TestProbeReturnsChainID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  "0x38",
		})
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), srv.URL, Options{RateLimit: 50})
	require.NoError(t, err)
	defer client.Close()

	chainID, err := client.Probe(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(56), chainID.Int64())
}

func TestProbeUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client, err := NewClient(context.Background(), url, Options{})
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Probe(context.Background())
	var connErr *ConnectivityError
	require.True(t, errors.As(err, &connErr))
}
