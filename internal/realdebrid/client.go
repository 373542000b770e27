package realdebrid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/anacrolix/torrent/metainfo"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shapedtime/hoardhelper/internal/config"
	"golang.org/x/time/rate"
)

const baseURL = "https://api.real-debrid.com/rest/1.0"

var (
	ErrNotConfigured = errors.New("no API key provided")
	ErrInvalidToken  = errors.New("invalid API token")
	ErrInvalidMagnet = errors.New("invalid magnet URI")
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status     int
	StatusText string
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %d %s", e.Status, e.StatusText)
}

// RequestObserver is notified of each API call, used for metrics.
type RequestObserver interface {
	ObserveDebridRequest(endpoint string, code string)
}

// Client is a Real-Debrid REST API client. Requests are throttled to stay
// below the API rate limit.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	validate   *validator.Validate
	observer   RequestObserver
	log        zerolog.Logger
}

// NewClient creates a client. An empty API key is reported on first use.
func NewClient(cfg config.RealDebridConfig) *Client {
	timeout := 30 * time.Second
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 4
	}

	return &Client{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
		validate: validator.New(),
		log:      log.Logger.With().Str("component", "realdebrid").Logger(),
	}
}

// SetObserver configures request metrics
func (c *Client) SetObserver(o RequestObserver) {
	c.observer = o
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Name identifies the client in connection status reports.
func (c *Client) Name() string {
	return "realdebrid"
}

// GetUser fetches the account the API key belongs to
func (c *Client) GetUser(ctx context.Context) (*User, error) {
	user := &User{}
	if err := c.do(ctx, http.MethodGet, "/user", "user", nil, user); err != nil {
		return nil, err
	}
	return user, nil
}

// TestConnection checks the API key and describes the account.
// Failures are reported in the result rather than as an error.
func (c *Client) TestConnection(ctx context.Context) ConnectionResult {
	user, err := c.GetUser(ctx)
	if err != nil {
		return ConnectionResult{Success: false, Error: err.Error()}
	}

	res := ConnectionResult{Success: true, Username: user.Username}
	if exp, err := time.Parse(time.RFC3339, user.Expiration); err == nil {
		res.Expiration = exp.UTC().Format("January 2, 2006")
	}
	return res
}

// Probe implements the connection monitor's probe.
func (c *Client) Probe(ctx context.Context) error {
	_, err := c.GetUser(ctx)
	return err
}

// AddMagnet submits a magnet link and returns the new torrent ID.
func (c *Client) AddMagnet(ctx context.Context, magnet string) (*AddMagnetResponse, error) {
	if _, err := metainfo.ParseMagnetUri(magnet); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMagnet, err)
	}

	form := url.Values{"magnet": {magnet}}
	out := &AddMagnetResponse{}
	if err := c.do(ctx, http.MethodPost, "/torrents/addMagnet", "add_magnet", form, out); err != nil {
		return nil, err
	}
	return out, nil
}

// TorrentInfo fetches the state and file listing of a torrent.
func (c *Client) TorrentInfo(ctx context.Context, id string) (*TorrentInfo, error) {
	info := &TorrentInfo{}
	if err := c.do(ctx, http.MethodGet, "/torrents/info/"+url.PathEscape(id), "torrent_info", nil, info); err != nil {
		return nil, err
	}
	return info, nil
}

// ListTorrents returns the torrents of the account, newest first.
func (c *Client) ListTorrents(ctx context.Context, limit int) ([]TorrentInfo, error) {
	endpoint := "/torrents"
	if limit > 0 {
		endpoint += "?limit=" + strconv.Itoa(limit)
	}
	var out []TorrentInfo
	if err := c.do(ctx, http.MethodGet, endpoint, "torrents", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SelectFiles chooses which files of a torrent are downloaded. No IDs selects all.
func (c *Client) SelectFiles(ctx context.Context, id string, fileIDs []int) error {
	files := "all"
	if len(fileIDs) > 0 {
		parts := make([]string, 0, len(fileIDs))
		for _, f := range fileIDs {
			parts = append(parts, strconv.Itoa(f))
		}
		files = strings.Join(parts, ",")
	}

	form := url.Values{"files": {files}}
	return c.do(ctx, http.MethodPost, "/torrents/selectFiles/"+url.PathEscape(id), "select_files", form, nil)
}

// Unrestrict converts a hoster link into a direct download link.
func (c *Client) Unrestrict(ctx context.Context, link string) (*UnrestrictedLink, error) {
	form := url.Values{"link": {link}}
	out := &UnrestrictedLink{}
	if err := c.do(ctx, http.MethodPost, "/unrestrict/link", "unrestrict", form, out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteTorrent removes a torrent from the account.
func (c *Client) DeleteTorrent(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/torrents/delete/"+url.PathEscape(id), "delete", nil, nil)
}

// do performs an authenticated request. form, when set, is sent url-encoded.
// out, when set, receives and validates the JSON answer.
func (c *Client) do(ctx context.Context, method, endpoint, name string, form url.Values, out interface{}) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(name, "error")
		return fmt.Errorf("request %s failed: %w", name, err)
	}
	defer resp.Body.Close()

	c.observe(name, strconv.Itoa(resp.StatusCode))

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrInvalidToken
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
		}
		var eb apiErrorBody
		if data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096)); json.Unmarshal(data, &eb) == nil {
			apiErr.Code = eb.ErrorCode
			apiErr.Message = eb.Error
		}
		c.log.Warn().Str("endpoint", name).Int("status", resp.StatusCode).Str("error", apiErr.Message).Msg("api request failed")
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid API response from %s: %w", name, err)
	}

	if err := c.validateResponse(out); err != nil {
		return fmt.Errorf("invalid API response from %s: %w", name, err)
	}

	return nil
}

func (c *Client) validateResponse(out interface{}) error {
	switch v := out.(type) {
	case *[]TorrentInfo:
		for i := range *v {
			if err := c.validate.Struct(&(*v)[i]); err != nil {
				return err
			}
		}
		return nil
	default:
		return c.validate.Struct(out)
	}
}

func (c *Client) observe(endpoint, code string) {
	if c.observer != nil {
		c.observer.ObserveDebridRequest(endpoint, code)
	}
}
