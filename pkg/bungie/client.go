package bungie

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ghostwire/ghostbot/internal/utils"
	"github.com/ghostwire/ghostbot/pkg/items"
	"github.com/ghostwire/ghostbot/pkg/manifest"
	"github.com/ghostwire/ghostbot/pkg/whttp"
	"github.com/tidwall/gjson"
)

const (
	BASE_URL       = "https://www.bungie.net/Platform"
	ROOT_URL       = "https://www.bungie.net"
	API_KEY_HEADER = "X-API-Key"

	DEFAULT_MANIFEST_CHECK_INTERVAL = 5 * time.Minute
)

// Config holds everything a Client needs. APIKey is mandatory.
type Config struct {
	APIKey string
	// BaseURL is the API root, RootURL the host serving manifest archives.
	BaseURL string
	RootURL string

	HTTP  whttp.Sender
	Store *manifest.Store

	ResolverOptions []items.Option

	// ManifestCheckInterval bounds how often ItemDetails asks for the
	// manifest location. Zero selects the default, negative checks on
	// every call.
	ManifestCheckInterval time.Duration
}

// Client is the authenticated game API client. It owns the catalog store and
// keeps it in sync with the manifest location advertised by the API.
type Client struct {
	apiKey   string
	baseURL  string
	rootURL  string
	http     whttp.Sender
	store    *manifest.Store
	resolver *items.Resolver

	refreshMu sync.Mutex

	checkMu       sync.Mutex
	checkInterval time.Duration
	lastCheck     time.Time
}

// NewClient fetches the manifest location and loads the catalog. An error
// here is fatal: no query can be answered without the catalog.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("missing API key")
	}

	c := &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		rootURL: strings.TrimSuffix(cfg.RootURL, "/"),
		http:    cfg.HTTP,
		store:   cfg.Store,

		checkInterval: cfg.ManifestCheckInterval,
	}
	if c.checkInterval == 0 {
		c.checkInterval = DEFAULT_MANIFEST_CHECK_INTERVAL
	}
	if c.baseURL == "" {
		c.baseURL = BASE_URL
	}
	if c.rootURL == "" {
		c.rootURL = ROOT_URL
	}
	if c.http == nil {
		hc, err := whttp.NewClient(whttp.Options{})
		if err != nil {
			return nil, err
		}
		c.http = hc
	}
	if c.store == nil {
		c.store = manifest.NewStore(c.http)
	}
	c.resolver = items.NewResolver(c.store, cfg.ResolverOptions...)

	if _, err := c.RefreshManifest(ctx); err != nil {
		return nil, err
	}
	utils.Log.Debugf("Game API client ready (%s)", c.store.URL())
	return c, nil
}

func (c *Client) Store() *manifest.Store { return c.store }

func (c *Client) Resolver() *items.Resolver { return c.resolver }

// ManifestURL asks the API where the current catalog archive lives.
func (c *Client) ManifestURL(ctx context.Context) (string, error) {
	res, err := c.get(ctx, "/Destiny2/Manifest/")
	if err != nil {
		return "", err
	}
	p := res.Get("mobileWorldContentPaths.en").String()
	if p == "" {
		return "", &QueryError{Endpoint: "/Destiny2/Manifest/", Err: manifest.ErrNoURL}
	}
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p, nil
	}
	return c.rootURL + p, nil
}

// RefreshManifest reloads the catalog when the advertised location differs
// from the loaded one. It reports whether a load happened.
func (c *Client) RefreshManifest(ctx context.Context) (bool, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	u, err := c.ManifestURL(ctx)
	if err != nil {
		return false, err
	}
	c.markChecked()
	if c.store.Ready() && c.store.URL() == u {
		return false, nil
	}
	if err := c.store.Load(ctx, u); err != nil {
		return false, err
	}
	return true, nil
}

// refreshIfStale runs RefreshManifest when the last location check is older
// than the check interval. Concurrent callers don't wait for a check
// already in flight.
func (c *Client) refreshIfStale(ctx context.Context) (bool, error) {
	c.checkMu.Lock()
	if c.checkInterval > 0 && time.Since(c.lastCheck) < c.checkInterval {
		c.checkMu.Unlock()
		return false, nil
	}
	c.lastCheck = time.Now()
	c.checkMu.Unlock()

	return c.RefreshManifest(ctx)
}

func (c *Client) markChecked() {
	c.checkMu.Lock()
	c.lastCheck = time.Now()
	c.checkMu.Unlock()
}

// get calls a GET endpoint and returns its Response payload.
func (c *Client) get(ctx context.Context, endpoint string) (gjson.Result, error) {
	res, err := c.http.Send(ctx, &whttp.WHTTPReq{
		Method:  http.MethodGet,
		URL:     c.baseURL + endpoint,
		Headers: []whttp.WHTTPHeader{{Name: API_KEY_HEADER, Value: c.apiKey}},
	})
	if err != nil {
		return gjson.Result{}, &QueryError{Endpoint: redactQuery(endpoint), Err: err}
	}

	body := gjson.Parse(res.BodyString)
	if res.StatusCode != http.StatusOK {
		return gjson.Result{}, &QueryError{
			Endpoint:    redactQuery(endpoint),
			StatusCode:  res.StatusCode,
			ErrorStatus: body.Get("ErrorStatus").String(),
			Message:     body.Get("Message").String(),
		}
	}

	payload := body.Get("Response")
	if !payload.Exists() || payload.Type == gjson.Null {
		return gjson.Result{}, &QueryError{Endpoint: redactQuery(endpoint), Err: ErrNoResponse}
	}
	return payload, nil
}

func redactQuery(endpoint string) string {
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		return endpoint[:i]
	}
	return endpoint
}

func pathEscape(s string) string {
	return url.PathEscape(s)
}

// IsUnavailable reports whether err comes from an exhausted retry envelope.
func IsUnavailable(err error) bool {
	return errors.Is(err, whttp.ErrUnavailable)
}
