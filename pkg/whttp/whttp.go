package whttp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/ghostwire/ghostbot/internal/utils"
	"github.com/hashicorp/go-retryablehttp"
)

const (
	USER_AGENT = "ghostbot/1.0 (+https://github.com/ghostwire/ghostbot)"

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries = 3

	DEFAULT_TIMEOUT = 30 * time.Second
)

// ErrUnavailable is returned once every attempt of a request failed with a
// transient transport error. Callers report it as an unavailable service.
var ErrUnavailable = errors.New("service unavailable")

type WHTTPHeader struct {
	Name  string
	Value string
}

type WHTTPReq struct {
	URL     string
	Method  string
	Headers []WHTTPHeader
	Body    string
}

type WHTTPRes struct {
	StatusCode     int
	ResponseLength int
	BodyString     string
}

// Options configures a Client. Zero values select the defaults.
type Options struct {
	Timeout   time.Duration
	Proxy     string
	UserAgent string

	// Transport replaces the underlying round tripper, mostly for tests.
	Transport http.RoundTripper
}

// Sender performs a single request. *Client satisfies it.
type Sender interface {
	Send(ctx context.Context, req *WHTTPReq) (*WHTTPRes, error)
}

// Client sends requests with a bounded, immediate retry on timeouts and
// connection errors. Status codes are never retried.
type Client struct {
	rc        *retryablehttp.Client
	userAgent string
}

func NewClient(opts Options) (*Client, error) {
	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = MaxRetries
	rc.RetryWaitMin = 0
	rc.RetryWaitMax = 0
	rc.Backoff = func(_, _ time.Duration, _ int, _ *http.Response) time.Duration { return 0 }
	rc.CheckRetry = checkRetry
	rc.ErrorHandler = handleGiveUp
	rc.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			utils.Log.Warnf("Retrying %s %s (retry %d of %d)", req.Method, req.URL.Redacted(), attempt, MaxRetries)
		}
	}

	rc.HTTPClient.Timeout = DEFAULT_TIMEOUT
	if opts.Timeout > 0 {
		rc.HTTPClient.Timeout = opts.Timeout
	}

	switch {
	case opts.Transport != nil:
		rc.HTTPClient.Transport = opts.Transport
	case opts.Proxy != "":
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		rc.HTTPClient.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = USER_AGENT
	}
	return &Client{rc: rc, userAgent: ua}, nil
}

// Send performs the request and reads the whole body. A non-2xx status is
// not an error at this level.
func (c *Client) Send(ctx context.Context, wReq *WHTTPReq) (*WHTTPRes, error) {
	method := wReq.Method
	if method == "" {
		method = http.MethodGet
	}

	var body interface{}
	if wReq.Body != "" {
		body = []byte(wReq.Body)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, wReq.URL, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "en")
	for _, h := range wReq.Headers {
		req.Header.Add(h.Name, h.Value)
	}

	resp, err := c.rc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	wRes := &WHTTPRes{
		StatusCode: resp.StatusCode,
		BodyString: string(bodyBytes),
	}
	wRes.ResponseLength = utf8.RuneCountInString(wRes.BodyString)
	return wRes, nil
}

// IsTransient reports whether err is a timeout or a socket/connection
// failure, the only failures worth repeating a request for.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF)
}

func checkRetry(ctx context.Context, _ *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if !IsTransient(err) {
		return false, nil
	}
	utils.Log.Warnf("Request failed: %v", err)
	return true, nil
}

func handleGiveUp(resp *http.Response, err error, numTries int) (*http.Response, error) {
	if IsTransient(err) && numTries > MaxRetries {
		utils.Log.Errorf("Giving up after %d attempts: %v", numTries, err)
		if resp != nil {
			resp.Body.Close()
		}
		return nil, ErrUnavailable
	}
	return resp, err
}
