package gql

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
	"github.com/evrwallet/evrwallet-daemon/internal/infrastructure/httpclient"
	"github.com/evrwallet/evrwallet-daemon/pkg/stats"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	latencyQuery = "?query=%7Binfo%7Bversion%20time%20latency%7D%7D"

	selectionAttempts = 5
	selectionMaxDelay = 5 * time.Second
	resolutionKey     = "endpoint"
)

// Sender posts graphql queries to the best endpoint of a network. With more
// than one endpoint, the endpoint is chosen by measuring the latency of each
// one and it's measured again every LatencyDetectionInterval.
type Sender struct {
	client            *httpclient.Client
	endpoints         []string
	maxLatency        int64
	detectionInterval time.Duration
	local             bool
	now               func() time.Time
	metrics           *stats.Metrics

	lock          sync.RWMutex
	current       string
	nextDetection time.Time
	pinned        bool

	group  singleflight.Group
	ctx    context.Context
	cancel context.CancelFunc
}

func NewSender(client *httpclient.Client, params domain.GqlParams) (*Sender, error) {
	if client == nil {
		return nil, fmt.Errorf("missing http client")
	}
	if len(params.Endpoints) <= 0 {
		return nil, domain.ErrMissingEndpoints
	}

	endpoints := make([]string, 0, len(params.Endpoints))
	for _, endpoint := range params.Endpoints {
		endpoints = append(endpoints, expandAddress(endpoint))
	}
	maxLatency := params.MaxLatency
	if maxLatency <= 0 {
		maxLatency = domain.DefaultMaxLatency
	}
	interval := params.LatencyDetectionInterval
	if interval <= 0 {
		interval = domain.DefaultLatencyDetectionInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Sender{
		client:            client,
		endpoints:         endpoints,
		maxLatency:        maxLatency,
		detectionInterval: time.Duration(interval) * time.Millisecond,
		local:             params.Local,
		now:               time.Now,
		ctx:               ctx,
		cancel:            cancel,
	}
	if len(endpoints) == 1 {
		s.current = endpoints[0]
		s.pinned = true
	}
	return s, nil
}

func (s *Sender) IsLocal() bool {
	return s.local
}

// Endpoint returns the endpoint currently in use. If it's time to measure
// latencies again, concurrent callers wait for the same resolution.
func (s *Sender) Endpoint(ctx context.Context) (string, error) {
	s.lock.RLock()
	current, next, pinned := s.current, s.nextDetection, s.pinned
	s.lock.RUnlock()

	if current != "" && (pinned || s.now().Before(next)) {
		return current, nil
	}

	ch := s.group.DoChan(resolutionKey, func() (interface{}, error) {
		endpoint, err := s.selectEndpoint(s.ctx)
		if err != nil {
			return "", err
		}

		s.lock.Lock()
		s.current = endpoint
		s.nextDetection = s.now().Add(s.detectionInterval)
		s.lock.Unlock()

		s.metrics.IncEndpointSelections(endpoint)
		log.Debugf("gql: selected endpoint %s", endpoint)
		return endpoint, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Send posts a query with its variables and decodes the data of the response
// into out.
func (s *Sender) Send(
	ctx context.Context, query string, variables map[string]interface{},
	out interface{},
) error {
	endpoint, err := s.Endpoint(ctx)
	if err != nil {
		return err
	}

	req := request{Query: query, Variables: variables}
	var resp response
	if err := s.client.PostJSON(ctx, endpoint, req, &resp); err != nil {
		return err
	}
	if len(resp.Errors) > 0 {
		return resp.Errors
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to decode graphql data: %w", err)
	}
	return nil
}

// Close aborts any pending endpoint resolution.
func (s *Sender) Close() {
	s.cancel()
}

func (s *Sender) selectEndpoint(ctx context.Context) (string, error) {
	var endpoint string
	err := retry.Do(
		func() error {
			var err error
			endpoint, err = s.probeEndpoints(ctx)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(selectionAttempts),
		retry.DelayType(selectionDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", ErrNoEndpointAvailable
	}
	return endpoint, nil
}

// probeEndpoints measures the latency of every endpoint in parallel. The first
// endpoint under maxLatency wins, otherwise the one with the lowest latency.
func (s *Sender) probeEndpoints(ctx context.Context) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type probe struct {
		endpoint string
		latency  int64
		ok       bool
	}

	results := make(chan probe, len(s.endpoints))
	for _, endpoint := range s.endpoints {
		go func(endpoint string) {
			latency, ok := s.checkLatency(ctx, endpoint)
			results <- probe{endpoint, latency, ok}
		}(endpoint)
	}

	var best *probe
	for range s.endpoints {
		res := <-results
		if !res.ok {
			continue
		}
		if res.latency <= s.maxLatency {
			return res.endpoint, nil
		}
		if best == nil || res.latency < best.latency {
			res := res
			best = &res
		}
	}
	if best == nil {
		return "", ErrNoEndpointResponded
	}
	return best.endpoint, nil
}

func (s *Sender) checkLatency(ctx context.Context, endpoint string) (int64, bool) {
	var resp struct {
		Data struct {
			Info struct {
				Latency *float64 `json:"latency"`
			} `json:"info"`
		} `json:"data"`
	}
	if err := s.client.GetJSON(ctx, endpoint+latencyQuery, &resp); err != nil {
		log.WithError(err).Debugf("gql: latency probe of %s failed", endpoint)
		return 0, false
	}
	if resp.Data.Info.Latency == nil {
		return 0, false
	}
	return int64(*resp.Data.Info.Latency), true
}

func selectionDelay(n uint, _ error, _ *retry.Config) time.Duration {
	// n counts the retries from 0.
	delay := time.Duration(100*(n+1)) * time.Millisecond
	if delay > selectionMaxDelay {
		return selectionMaxDelay
	}
	return delay
}

// expandAddress turns a host or base url into a graphql endpoint. The last
// path segment, if any, is replaced with "graphql". Bare hosts get https,
// except for localhost.
func expandAddress(address string) string {
	scheme := ""
	rest := address
	for _, prefix := range []string{"http://", "https://"} {
		if strings.HasPrefix(address, prefix) {
			scheme = prefix
			rest = strings.TrimPrefix(address, prefix)
			break
		}
	}

	if i := strings.LastIndex(rest, "/"); i >= 0 {
		rest = rest[:i]
	}

	if scheme == "" {
		scheme = "https://"
		if isLocalhost(rest) {
			scheme = "http://"
		}
	}
	return scheme + rest + "/graphql"
}

func isLocalhost(host string) bool {
	if u, err := url.Parse("http://" + host); err == nil {
		host = u.Hostname()
	}
	return host == "localhost" || host == "127.0.0.1"
}
