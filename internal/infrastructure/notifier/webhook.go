package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/evrwallet/evrwallet-daemon/internal/core/ports"
	"github.com/evrwallet/evrwallet-daemon/internal/infrastructure/httpclient"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type message struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
	Link  string `json:"link,omitempty"`
}

type webhookNotifier struct {
	client    *httpclient.Client
	endpoints []string
	secret    string
}

// NewWebhookNotifier returns a ports.Notifier that posts every notification
// to all the given endpoints. With a secret, requests carry an HS256 signed
// bearer token.
func NewWebhookNotifier(
	client *httpclient.Client, endpoints []string, secret string,
) (ports.Notifier, error) {
	if client == nil {
		return nil, ErrNullHTTPClient
	}
	if len(endpoints) <= 0 {
		return nil, ErrMissingEndpoints
	}
	for _, endpoint := range endpoints {
		if _, err := url.ParseRequestURI(endpoint); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidEndpoint, endpoint)
		}
	}
	return &webhookNotifier{client, endpoints, secret}, nil
}

func (n *webhookNotifier) ShowNotification(
	ctx context.Context, notification ports.Notification,
) error {
	logNotification(notification)

	payload, err := json.Marshal(message{
		ID:    uuid.New().String(),
		Title: notification.Title,
		Body:  notification.Body,
		Link:  notification.Link,
	})
	if err != nil {
		return err
	}

	eg := &errgroup.Group{}
	for i := range n.endpoints {
		endpoint := n.endpoints[i]
		eg.Go(func() error { return n.doRequest(ctx, endpoint, payload) })
	}
	return eg.Wait()
}

func (n *webhookNotifier) doRequest(
	ctx context.Context, endpoint string, payload []byte,
) error {
	headers := map[string]string{
		"Content-Type": "application/json",
	}
	if len(n.secret) > 0 {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
			IssuedAt: time.Now().Unix(),
		})
		tokenString, err := token.SignedString([]byte(n.secret))
		if err != nil {
			return err
		}
		headers["Authorization"] = fmt.Sprintf("Bearer %s", tokenString)
	}

	status, body, err := n.client.Post(ctx, endpoint, payload, headers)
	if err != nil {
		log.WithError(err).Warnf("notifier: webhook %s failed", endpoint)
		return err
	}
	if status != http.StatusOK {
		return &httpclient.StatusError{Code: status, Body: string(body)}
	}
	return nil
}
