package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ensigniasec/tiered-sto/internal/offering"
)

const (
	defaultBaseURL     = "http://localhost:3000/api/v1"
	defaultTimeout     = 15 * time.Second
	healthProbeTimeout = 3 * time.Second
)

// HTTPClient talks to the offering SDK service over JSON/HTTP.
type HTTPClient struct {
	baseURL        *url.URL
	httpClient     *http.Client
	userAgent      string
	defaultSession Session

	// Cached health state for one-shot health probing.
	healthOnce   sync.Once
	healthy      bool
	healthErr    error
	forceOffline atomic.Bool

	// skipHealthProbe disables the initial /health check; used by tests.
	skipHealthProbe bool
}

var _ Client = (*HTTPClient)(nil)

// ClientOption mutates HTTPClient configuration.
type ClientOption func(*HTTPClient)

// WithBaseURL configures the API base URL.
func WithBaseURL(base string) ClientOption {
	return func(c *HTTPClient) {
		if base == "" {
			return
		}
		if u, err := url.Parse(base); err == nil {
			c.baseURL = u
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *HTTPClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithDefaultSession is used for requests whose context carries no Session.
func WithDefaultSession(s Session) ClientOption {
	return func(c *HTTPClient) {
		c.defaultSession = s
	}
}

// withSkipHealthProbe disables the initial /health probe.
func withSkipHealthProbe() ClientOption {
	return func(c *HTTPClient) {
		c.skipHealthProbe = true
	}
}

// NewHTTPClient constructs a client and probes /health. When the probe fails the
// client is returned together with ErrOffline and every later request fails fast.
func NewHTTPClient(opts ...ClientOption) (*HTTPClient, error) {
	c := &HTTPClient{
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  defaultUserAgent(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == nil {
		u, err := url.Parse(defaultBaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid default baseURL: %w", err)
		}
		c.baseURL = u
	}
	if c.skipHealthProbe {
		c.healthy = true
		return c, nil
	}
	hctx, cancel := context.WithTimeout(context.Background(), healthProbeTimeout)
	defer cancel()
	if ok, err := c.checkHealth(hctx); err != nil || !ok {
		logrus.Debugf("offering service health probe failed: %v", err)
		c.forceOffline.Store(true)
		return c, ErrOffline
	}
	return c, nil
}

// checkHealth performs a one-time health probe to /health and caches the result.
func (c *HTTPClient) checkHealth(ctx context.Context) (bool, error) {
	c.healthOnce.Do(func() {
		if c.skipHealthProbe {
			c.healthy = true
			return
		}
		hctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(hctx, http.MethodGet, c.buildURL("/health", nil), nil)
		if err != nil {
			c.healthErr = err
			return
		}
		req.Header.Set("Accept", "application/json")
		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.healthErr = err
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			c.healthy = true
			return
		}
		c.healthErr = fmt.Errorf("health check: unexpected status %d", resp.StatusCode)
	})
	return c.healthy, c.healthErr
}

// Tokens implements GET /wallets/{wallet}/tokens.
func (c *HTTPClient) Tokens(ctx context.Context, wallet string) ([]Token, error) {
	if wallet == "" {
		return nil, ErrNoWallet
	}
	var out tokensResponse
	if err := c.do(ctx, http.MethodGet, "/wallets/"+url.PathEscape(wallet)+"/tokens", nil, &out); err != nil {
		return nil, err
	}
	if out.Tokens == nil {
		out.Tokens = []Token{}
	}
	return out.Tokens, nil
}

// Offerings implements GET /tokens/{symbol}/offerings.
func (c *HTTPClient) Offerings(ctx context.Context, symbol string) ([]offering.Offering, error) {
	var out offeringsResponse
	if err := c.do(ctx, http.MethodGet, "/tokens/"+url.PathEscape(symbol)+"/offerings", nil, &out); err != nil {
		return nil, err
	}
	if out.Offerings == nil {
		out.Offerings = []offering.Offering{}
	}
	return out.Offerings, nil
}

// LaunchTieredSTO implements POST /tokens/{symbol}/offerings/tiered.
func (c *HTTPClient) LaunchTieredSTO(ctx context.Context, symbol string, params offering.LaunchParams) (LaunchReceipt, error) {
	var out LaunchReceipt
	if err := params.Validate(); err != nil {
		return out, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	body, err := json.Marshal(params)
	if err != nil {
		return out, err
	}
	if err := c.do(ctx, http.MethodPost, "/tokens/"+url.PathEscape(symbol)+"/offerings/tiered", body, &out); err != nil {
		return out, err
	}
	if out.Symbol == "" {
		out.Symbol = symbol
	}
	return out, nil
}

// do performs a JSON request and decodes a 2xx response into out.
func (c *HTTPClient) do(ctx context.Context, method, path string, body []byte, out any) error {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := c.newRequest(ctx, method, c.buildURL(path, nil), r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	logrus.WithFields(logrus.Fields{"method": method, "path": path}).Debug("sdk request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return handleHTTPError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// handleHTTPError maps error status codes onto sentinel and typed errors.
func handleHTTPError(resp *http.Response) error {
	var e ErrorBody
	_ = decodeJSON(resp.Body, &e)
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, e.Message)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, e.Message)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", ErrValidation, e.Message)
	default:
		return RemoteError{StatusCode: resp.StatusCode, Remote: e}
	}
}

// --- Helpers ---

func defaultUserAgent() string {
	return fmt.Sprintf("tiered-sto/%s (%s; %s)", BuildVersion, runtime.GOOS, runtime.GOARCH)
}

// joinURLPath joins two URL paths with exactly one slash boundary.
func joinURLPath(basePath, addPath string) string {
	switch {
	case basePath == "" || basePath == "/":
		return addPath
	case addPath == "":
		return basePath
	case hasTrailingSlash(basePath) && hasLeadingSlash(addPath):
		return basePath + addPath[1:]
	case !hasTrailingSlash(basePath) && !hasLeadingSlash(addPath):
		return basePath + "/" + addPath
	default:
		return basePath + addPath
	}
}

func hasTrailingSlash(p string) bool { return len(p) > 0 && p[len(p)-1] == '/' }
func hasLeadingSlash(p string) bool  { return len(p) > 0 && p[0] == '/' }

func (c *HTTPClient) buildURL(path string, q url.Values) string {
	u := *c.baseURL
	u.Path = joinURLPath(u.Path, path)
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *HTTPClient) newRequest(ctx context.Context, method, fullURL string, body io.Reader) (*http.Request, error) {
	// If we've previously determined we are offline, short-circuit.
	if c.forceOffline.Load() {
		return nil, ErrOffline
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	s, ok := SessionFromContext(ctx)
	if !ok {
		s = c.defaultSession
	}
	if s.WalletAddress != "" {
		req.Header.Set("X-Wallet-Address", s.WalletAddress)
	}
	if s.NetworkID != 0 {
		req.Header.Set("X-Network-Id", strconv.Itoa(s.NetworkID))
	}
	if s.ClientUUID != "" {
		req.Header.Set("X-Client-Uuid", s.ClientUUID)
	}
	return req, nil
}

func decodeJSON[T any](r io.Reader, out *T) error {
	dec := json.NewDecoder(r)
	return dec.Decode(out)
}
