package notifier_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/evrwallet/evrwallet-daemon/internal/core/ports"
	"github.com/evrwallet/evrwallet-daemon/internal/infrastructure/httpclient"
	"github.com/evrwallet/evrwallet-daemon/internal/infrastructure/notifier"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/require"
)

const secret = "secret"

type received struct {
	payload map[string]string
	auth    string
}

func newHookServer(t *testing.T, status int) (*httptest.Server, chan received) {
	ch := make(chan received, 4)
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			var payload map[string]string
			json.NewDecoder(r.Body).Decode(&payload)
			ch <- received{payload, r.Header.Get("Authorization")}
			w.WriteHeader(status)
		},
	))
	t.Cleanup(server.Close)
	return server, ch
}

var testNotification = ports.Notification{
	Title: "New transaction found",
	Body:  "1.5 EVER from 0:aa…aaaa",
	Link:  "https://everscan.io/transactions/hash",
}

func TestWebhookNotifier(t *testing.T) {
	t.Run("Secured", func(t *testing.T) {
		first, firstCh := newHookServer(t, http.StatusOK)
		second, secondCh := newHookServer(t, http.StatusOK)

		svc, err := notifier.NewWebhookNotifier(
			httpclient.New(httpclient.Options{}),
			[]string{first.URL, second.URL},
			secret,
		)
		require.NoError(t, err)
		require.NoError(t, svc.ShowNotification(context.Background(), testNotification))

		for _, ch := range []chan received{firstCh, secondCh} {
			got := <-ch
			require.Equal(t, testNotification.Title, got.payload["title"])
			require.Equal(t, testNotification.Link, got.payload["link"])
			require.NotEmpty(t, got.payload["id"])

			require.True(t, strings.HasPrefix(got.auth, "Bearer "))
			token, err := jwt.Parse(
				strings.TrimPrefix(got.auth, "Bearer "),
				func(token *jwt.Token) (interface{}, error) {
					return []byte(secret), nil
				},
			)
			require.NoError(t, err)
			require.True(t, token.Valid)
			require.Equal(t, jwt.SigningMethodHS256, token.Method)
		}
	})

	t.Run("Unsecured", func(t *testing.T) {
		server, ch := newHookServer(t, http.StatusOK)
		svc, err := notifier.NewWebhookNotifier(
			httpclient.New(httpclient.Options{}), []string{server.URL}, "",
		)
		require.NoError(t, err)
		require.NoError(t, svc.ShowNotification(context.Background(), testNotification))
		require.Empty(t, (<-ch).auth)
	})

	t.Run("FailingHook", func(t *testing.T) {
		ok, _ := newHookServer(t, http.StatusOK)
		failing, _ := newHookServer(t, http.StatusNotFound)
		svc, err := notifier.NewWebhookNotifier(
			httpclient.New(httpclient.Options{}), []string{ok.URL, failing.URL}, "",
		)
		require.NoError(t, err)

		err = svc.ShowNotification(context.Background(), testNotification)
		require.True(t, httpclient.IsStatus(err, http.StatusNotFound))
	})
}

func TestNewWebhookNotifier(t *testing.T) {
	client := httpclient.New(httpclient.Options{})

	_, err := notifier.NewWebhookNotifier(nil, []string{"http://localhost"}, "")
	require.ErrorIs(t, err, notifier.ErrNullHTTPClient)

	_, err = notifier.NewWebhookNotifier(client, nil, "")
	require.ErrorIs(t, err, notifier.ErrMissingEndpoints)

	_, err = notifier.NewWebhookNotifier(client, []string{"not a url"}, "")
	require.ErrorIs(t, err, notifier.ErrInvalidEndpoint)

	require.NoError(t, notifier.NewLogNotifier().ShowNotification(
		context.Background(), testNotification,
	))
}
