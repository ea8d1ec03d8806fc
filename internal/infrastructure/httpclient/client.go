package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/evrwallet/evrwallet-daemon/pkg/circuitbreaker"
	"github.com/sony/gobreaker"
	"go.uber.org/ratelimit"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodySize    = 16 << 20
)

// Options of a Client. A zero RequestsPerSecond disables rate limiting.
type Options struct {
	Timeout           time.Duration
	RequestsPerSecond int
}

// Client is an http client that rate limits outgoing requests and guards
// every remote host with its own circuit breaker.
type Client struct {
	http    *http.Client
	limiter ratelimit.Limiter

	lock     sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	limiter := ratelimit.NewUnlimited()
	if opts.RequestsPerSecond > 0 {
		limiter = ratelimit.New(opts.RequestsPerSecond)
	}
	return &Client{
		http:     &http.Client{Timeout: timeout},
		limiter:  limiter,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Get makes a GET request and returns status code and body.
func (c *Client) Get(
	ctx context.Context, url string, header map[string]string,
) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, err
	}
	return c.do(req, header)
}

// Post makes a POST request and returns status code and body.
func (c *Client) Post(
	ctx context.Context, url string, body []byte, header map[string]string,
) (int, []byte, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, url, bytes.NewReader(body),
	)
	if err != nil {
		return 0, nil, err
	}
	return c.do(req, header)
}

// PostJSON posts in as JSON and decodes the response into out, if not nil.
// Any status other than 2xx is returned as a *StatusError.
func (c *Client) PostJSON(
	ctx context.Context, url string, in, out interface{},
) error {
	return c.DoJSON(ctx, http.MethodPost, url, in, out)
}

// GetJSON makes a GET request and decodes the response into out.
func (c *Client) GetJSON(ctx context.Context, url string, out interface{}) error {
	return c.DoJSON(ctx, http.MethodGet, url, nil, out)
}

// DoJSON makes a request with the given method, with in encoded as JSON body
// if not nil, and decodes the response into out.
func (c *Client) DoJSON(
	ctx context.Context, method, url string, in, out interface{},
) error {
	var body io.Reader
	var header map[string]string
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
		header = jsonHeader()
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	status, resp, err := c.do(req, header)
	if err != nil {
		return err
	}
	return decodeResponse(status, resp, out)
}

func (c *Client) do(
	req *http.Request, header map[string]string,
) (int, []byte, error) {
	for key, value := range header {
		req.Header.Set(key, value)
	}

	c.limiter.Take()

	var status int
	res, err := c.breaker(req.URL).Execute(func() (interface{}, error) {
		rs, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer rs.Body.Close()

		body, err := io.ReadAll(io.LimitReader(rs.Body, maxBodySize))
		if err != nil {
			return nil, err
		}
		status = rs.StatusCode
		if status >= http.StatusInternalServerError {
			return nil, &StatusError{status, string(body)}
		}
		return body, nil
	})
	if err != nil {
		return status, nil, err
	}
	return status, res.([]byte), nil
}

func (c *Client) breaker(u *url.URL) *gobreaker.CircuitBreaker {
	c.lock.Lock()
	defer c.lock.Unlock()

	cb, ok := c.breakers[u.Host]
	if !ok {
		cb = circuitbreaker.NewCircuitBreaker(u.Host)
		c.breakers[u.Host] = cb
	}
	return cb
}

func decodeResponse(status int, body []byte, out interface{}) error {
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return &StatusError{status, string(body)}
	}
	if out == nil || len(body) <= 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func jsonHeader() map[string]string {
	return map[string]string{"Content-Type": "application/json"}
}
