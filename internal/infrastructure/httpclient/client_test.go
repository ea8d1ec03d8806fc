package httpclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/evrwallet/evrwallet-daemon/internal/infrastructure/httpclient"
	"github.com/stretchr/testify/require"
)

func TestClient(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid body"}`))
			return
		}
		body["contentType"] = r.Header.Get("Content-Type")
		json.NewEncoder(w).Encode(body)
	})
	mux.HandleFunc("/resource", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/fail", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	ctx := context.Background()

	t.Run("PostJSON", func(t *testing.T) {
		client := httpclient.New(httpclient.Options{RequestsPerSecond: 100})

		var out map[string]string
		err := client.PostJSON(ctx, server.URL+"/echo", map[string]string{"a": "b"}, &out)
		require.NoError(t, err)
		require.Equal(t, "b", out["a"])
		require.Equal(t, "application/json", out["contentType"])
	})

	t.Run("BadRequest", func(t *testing.T) {
		client := httpclient.New(httpclient.Options{})

		status, _, err := client.Post(ctx, server.URL+"/echo", []byte("{"), nil)
		require.NoError(t, err)
		require.Equal(t, http.StatusBadRequest, status)

		err = client.PostJSON(ctx, server.URL+"/echo", "not an object", nil)
		require.True(t, httpclient.IsStatus(err, http.StatusBadRequest))
		require.EqualError(t, err, "status 400: invalid body")
	})

	t.Run("DoJSON", func(t *testing.T) {
		client := httpclient.New(httpclient.Options{})

		var out map[string]string
		err := client.DoJSON(ctx, http.MethodDelete, server.URL+"/resource", nil, &out)
		require.NoError(t, err)
		require.Nil(t, out)

		err = client.DoJSON(ctx, http.MethodPut, server.URL+"/resource", nil, nil)
		require.True(t, httpclient.IsStatus(err, http.StatusMethodNotAllowed))
	})

	t.Run("BreakerOpens", func(t *testing.T) {
		client := httpclient.New(httpclient.Options{})

		var err error
		for i := 0; i < 11; i++ {
			_, _, err = client.Get(ctx, server.URL+"/fail", nil)
			require.True(t, httpclient.IsStatus(err, http.StatusBadGateway))
		}

		_, _, err = client.Get(ctx, server.URL+"/fail", nil)
		require.True(t, httpclient.IsBreakerOpen(err))

		// the breaker is per host and per client
		other := httpclient.New(httpclient.Options{})
		var out map[string]string
		require.NoError(t, other.PostJSON(ctx, server.URL+"/echo", map[string]string{}, &out))
	})
}
