package timesource

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/evrwallet/evrwallet-daemon/internal/core/ports"
	"github.com/evrwallet/evrwallet-daemon/internal/infrastructure/httpclient"
)

type timeSource struct {
	client   *httpclient.Client
	endpoint string
}

// NewTimeSource returns a ports.TimeSource reading the server time from an
// endpoint that answers with the unix time in milliseconds as plain text.
func NewTimeSource(client *httpclient.Client, endpoint string) (ports.TimeSource, error) {
	if client == nil {
		return nil, fmt.Errorf("missing http client")
	}
	if endpoint == "" {
		return nil, fmt.Errorf("missing clock endpoint")
	}
	return &timeSource{client, endpoint}, nil
}

func (s *timeSource) FetchServerTime(ctx context.Context) (int64, error) {
	status, body, err := s.client.Get(ctx, s.endpoint, nil)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, &httpclient.StatusError{Code: status, Body: string(body)}
	}

	timestamp, err := strconv.ParseInt(strings.TrimSpace(string(body)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid server time: %w", err)
	}
	return timestamp, nil
}
