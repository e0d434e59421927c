package twitch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ghostwire/ghostbot/internal/utils"
	"github.com/ghostwire/ghostbot/pkg/whttp"
	"github.com/tidwall/gjson"
)

const (
	TOKEN_URL = "https://id.twitch.tv/oauth2/token"
	HELIX_URL = "https://api.twitch.tv/helix"

	// MaxVideosPage is the largest page the videos endpoint serves.
	MaxVideosPage = 100
)

var (
	ErrUserNotFound   = errors.New("twitch user not found")
	ErrNoCredentials  = errors.New("missing twitch client credentials")
	errTokenRejected  = errors.New("token request rejected")
	errUnexpectedBody = errors.New("unexpected response body")
)

type Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	BaseURL      string
	HTTP         whttp.Sender
}

type User struct {
	ID          string
	Login       string
	DisplayName string
}

// Video is one archived broadcast.
type Video struct {
	ID        string
	UserID    string
	Title     string
	URL       string
	StartedAt time.Time
	Duration  time.Duration
}

// Client talks to the Helix API with an app access token. The token is
// requested on first use and kept for the lifetime of the client.
type Client struct {
	clientID     string
	clientSecret string
	tokenURL     string
	baseURL      string
	http         whttp.Sender

	tokenMu sync.Mutex
	token   string
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrNoCredentials
	}
	c := &Client{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		tokenURL:     cfg.TokenURL,
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		http:         cfg.HTTP,
	}
	if c.tokenURL == "" {
		c.tokenURL = TOKEN_URL
	}
	if c.baseURL == "" {
		c.baseURL = HELIX_URL
	}
	if c.http == nil {
		hc, err := whttp.NewClient(whttp.Options{})
		if err != nil {
			return nil, err
		}
		c.http = hc
	}
	return c, nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token != "" {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("grant_type", "client_credentials")

	res, err := c.http.Send(ctx, &whttp.WHTTPReq{
		Method:  http.MethodPost,
		URL:     c.tokenURL,
		Headers: []whttp.WHTTPHeader{{Name: "Content-Type", Value: "application/x-www-form-urlencoded"}},
		Body:    form.Encode(),
	})
	if err != nil {
		return "", fmt.Errorf("twitch token: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("twitch token: %w (status %d)", errTokenRejected, res.StatusCode)
	}

	token := gjson.Get(res.BodyString, "access_token").String()
	if token == "" {
		return "", fmt.Errorf("twitch token: %w", errUnexpectedBody)
	}
	c.token = token
	utils.Log.Debug("Obtained twitch app access token")
	return token, nil
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values) (gjson.Result, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return gjson.Result{}, err
	}

	res, err := c.http.Send(ctx, &whttp.WHTTPReq{
		Method: http.MethodGet,
		URL:    c.baseURL + endpoint + "?" + query.Encode(),
		Headers: []whttp.WHTTPHeader{
			{Name: "Client-Id", Value: c.clientID},
			{Name: "Authorization", Value: "Bearer " + token},
		},
	})
	if err != nil {
		return gjson.Result{}, fmt.Errorf("twitch %s: %w", endpoint, err)
	}
	if res.StatusCode != http.StatusOK {
		return gjson.Result{}, fmt.Errorf("twitch %s: status %d", endpoint, res.StatusCode)
	}

	data := gjson.Get(res.BodyString, "data")
	if !data.IsArray() {
		return gjson.Result{}, fmt.Errorf("twitch %s: %w", endpoint, errUnexpectedBody)
	}
	return data, nil
}

// User looks up a user by login name.
func (c *Client) User(ctx context.Context, login string) (*User, error) {
	data, err := c.get(ctx, "/users", url.Values{"login": {strings.ToLower(login)}})
	if err != nil {
		return nil, err
	}
	first := data.Get("0")
	if !first.Exists() {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, login)
	}
	return &User{
		ID:          first.Get("id").String(),
		Login:       first.Get("login").String(),
		DisplayName: first.Get("display_name").String(),
	}, nil
}

// Videos lists the most recent archived broadcasts of a user. Entries with
// an unparseable start or duration are skipped.
func (c *Client) Videos(ctx context.Context, userID string) ([]Video, error) {
	data, err := c.get(ctx, "/videos", url.Values{
		"user_id": {userID},
		"type":    {"archive"},
		"first":   {fmt.Sprint(MaxVideosPage)},
	})
	if err != nil {
		return nil, err
	}

	var videos []Video
	data.ForEach(func(_, v gjson.Result) bool {
		started, err := time.Parse(time.RFC3339, v.Get("created_at").String())
		if err != nil {
			utils.Log.Debugf("Skipping video %s: %v", v.Get("id").String(), err)
			return true
		}
		d, err := ParseDuration(v.Get("duration").String())
		if err != nil {
			utils.Log.Debugf("Skipping video %s: %v", v.Get("id").String(), err)
			return true
		}
		videos = append(videos, Video{
			ID:        v.Get("id").String(),
			UserID:    v.Get("user_id").String(),
			Title:     v.Get("title").String(),
			URL:       v.Get("url").String(),
			StartedAt: started.UTC(),
			Duration:  d,
		})
		return true
	})
	return videos, nil
}

// ParseDuration parses the Helix duration format, e.g. "3h8m33s".
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, errors.New("empty duration")
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}
