package gql

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/evrwallet/evrwallet-daemon/internal/core/domain"
	"github.com/evrwallet/evrwallet-daemon/internal/infrastructure/httpclient"
	"github.com/stretchr/testify/require"
)

type probeServer struct {
	*httptest.Server
	probes atomic.Int32
}

// newProbeServer answers the latency probes with the given latency, or with
// an error status if latency is negative.
func newProbeServer(t *testing.T, latency int64, delay time.Duration) *probeServer {
	s := &probeServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || r.URL.Path != "/graphql" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			s.probes.Add(1)
			time.Sleep(delay)
			if latency < 0 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			fmt.Fprintf(w, `{"data":{"info":{"version":"0.1","time":1,"latency":%d}}}`, latency)
		},
	))
	t.Cleanup(s.Close)
	return s
}

func newTestSender(t *testing.T, params domain.GqlParams) *Sender {
	sender, err := NewSender(httpclient.New(httpclient.Options{}), params)
	require.NoError(t, err)
	t.Cleanup(sender.Close)
	return sender
}

func TestExpandAddress(t *testing.T) {
	tests := []struct {
		address  string
		expected string
	}{
		{"eri01.main.everos.dev", "https://eri01.main.everos.dev/graphql"},
		{"mainnet.evercloud.dev/1234", "https://mainnet.evercloud.dev/graphql"},
		{"https://mainnet.evercloud.dev/graphql", "https://mainnet.evercloud.dev/graphql"},
		{"https://mainnet.evercloud.dev", "https://mainnet.evercloud.dev/graphql"},
		{"http://10.0.0.1:8080/project/graphql", "http://10.0.0.1:8080/project/graphql"},
		{"127.0.0.1", "http://127.0.0.1/graphql"},
		{"localhost:8080", "http://localhost:8080/graphql"},
	}

	for i := range tests {
		tt := tests[i]
		t.Run(tt.address, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.expected, expandAddress(tt.address))
		})
	}
}

func TestSelectionDelay(t *testing.T) {
	tests := []struct {
		retry    uint
		expected time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{4, 500 * time.Millisecond},
		{49, 5 * time.Second},
		{100, 5 * time.Second},
	}

	for i := range tests {
		tt := tests[i]
		t.Run(fmt.Sprintf("Retry%d", tt.retry), func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.expected, selectionDelay(tt.retry, nil, nil))
		})
	}
}

func TestSender(t *testing.T) {
	t.Run("SingleEndpointIsPinned", testSenderSingleEndpoint())
	t.Run("PicksFirstUnderMaxLatency", testSenderFirstUnderMaxLatency())
	t.Run("PicksLowestLatency", testSenderLowestLatency())
	t.Run("NoEndpointAvailable", testSenderNoEndpointAvailable())
	t.Run("SharedResolution", testSenderSharedResolution())
	t.Run("Redetection", testSenderRedetection())
}

func testSenderSingleEndpoint() func(*testing.T) {
	return func(t *testing.T) {
		server := newProbeServer(t, -1, 0)
		sender := newTestSender(t, domain.GqlParams{Endpoints: []string{server.URL}})

		endpoint, err := sender.Endpoint(context.Background())
		require.NoError(t, err)
		require.Equal(t, server.URL+"/graphql", endpoint)
		require.Zero(t, server.probes.Load())
	}
}

func testSenderFirstUnderMaxLatency() func(*testing.T) {
	return func(t *testing.T) {
		slow := newProbeServer(t, 10, 300*time.Millisecond)
		fast := newProbeServer(t, 20, 0)
		sender := newTestSender(t, domain.GqlParams{
			Endpoints:  []string{slow.URL, fast.URL},
			MaxLatency: 100,
		})

		endpoint, err := sender.Endpoint(context.Background())
		require.NoError(t, err)
		require.Equal(t, fast.URL+"/graphql", endpoint)
	}
}

func testSenderLowestLatency() func(*testing.T) {
	return func(t *testing.T) {
		first := newProbeServer(t, 90000, 0)
		second := newProbeServer(t, 70000, 0)
		down := newProbeServer(t, -1, 0)
		sender := newTestSender(t, domain.GqlParams{
			Endpoints: []string{first.URL, second.URL, down.URL},
		})

		endpoint, err := sender.Endpoint(context.Background())
		require.NoError(t, err)
		require.Equal(t, second.URL+"/graphql", endpoint)
	}
}

func testSenderNoEndpointAvailable() func(*testing.T) {
	return func(t *testing.T) {
		first := newProbeServer(t, -1, 0)
		second := newProbeServer(t, -1, 0)
		sender := newTestSender(t, domain.GqlParams{
			Endpoints: []string{first.URL, second.URL},
		})

		_, err := sender.Endpoint(context.Background())
		require.ErrorIs(t, err, ErrNoEndpointAvailable)
		require.Equal(t, int32(selectionAttempts), first.probes.Load())
		require.Equal(t, int32(selectionAttempts), second.probes.Load())
	}
}

func testSenderSharedResolution() func(*testing.T) {
	return func(t *testing.T) {
		// both over the max latency, so every probe is awaited.
		first := newProbeServer(t, 10, 50*time.Millisecond)
		second := newProbeServer(t, 20, 50*time.Millisecond)
		sender := newTestSender(t, domain.GqlParams{
			Endpoints:  []string{first.URL, second.URL},
			MaxLatency: 1,
		})

		wg := &sync.WaitGroup{}
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := sender.Endpoint(context.Background())
				require.NoError(t, err)
			}()
		}
		wg.Wait()

		require.Equal(t, int32(1), first.probes.Load())
		require.Equal(t, int32(1), second.probes.Load())
	}
}

func testSenderRedetection() func(*testing.T) {
	return func(t *testing.T) {
		first := newProbeServer(t, 10, 0)
		second := newProbeServer(t, 20, 0)
		sender := newTestSender(t, domain.GqlParams{
			Endpoints:                []string{first.URL, second.URL},
			LatencyDetectionInterval: 1000,
			MaxLatency:               1,
		})
		now := time.Now()
		sender.now = func() time.Time { return now }

		probes := func() int32 {
			return first.probes.Load() + second.probes.Load()
		}

		_, err := sender.Endpoint(context.Background())
		require.NoError(t, err)
		require.Equal(t, int32(2), probes())

		endpoint, err := sender.Endpoint(context.Background())
		require.NoError(t, err)
		require.Equal(t, first.URL+"/graphql", endpoint)
		require.Equal(t, int32(2), probes())

		now = now.Add(2 * time.Second)
		_, err = sender.Endpoint(context.Background())
		require.NoError(t, err)
		require.Equal(t, int32(4), probes())
	}
}
