package webdav

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shapedtime/hoardhelper/internal/common"
	"github.com/shapedtime/hoardhelper/internal/config"
	"github.com/studio-b12/gowebdav"
)

const defaultTimeout = 30 * time.Second

var (
	ErrNotConfigured = errors.New("webdav url, username and password are required")
	ErrInvalidURL    = errors.New("invalid webdav url")
	ErrRemoteExists  = errors.New("remote file already exists")
)

// ProgressFunc receives the rounded upload percentage whenever it changes.
type ProgressFunc func(percent int)

// Client uploads files to a WebDAV remote such as Nextcloud.
type Client struct {
	dav      *gowebdav.Client
	endpoint string
	insecure bool
	log      zerolog.Logger
}

// NewClient validates the configuration and creates a client. Plain http is
// accepted but logged unless the host is local.
func NewClient(cfg config.WebDAVConfig) (*Client, error) {
	if cfg.URL == "" || cfg.Username == "" || cfg.Password == "" {
		return nil, ErrNotConfigured
	}

	insecure, err := CheckURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	l := log.Logger.With().Str("component", "webdav-client").Logger()
	if insecure {
		l.Warn().Str("url", cfg.URL).Msg("webdav url is not https, credentials are sent in clear text")
	}

	timeout := defaultTimeout
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}

	dav := gowebdav.NewClient(cfg.URL, cfg.Username, cfg.Password)
	dav.SetTimeout(timeout)

	return &Client{
		dav:      dav,
		endpoint: cfg.URL,
		insecure: insecure,
		log:      l,
	}, nil
}

// CheckURL parses a WebDAV url and reports whether it is insecure: not https
// and not pointing at a loopback or private address.
func CheckURL(raw string) (bool, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false, fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}

	switch u.Scheme {
	case "https":
		return false, nil
	case "http":
		return !isLocalHost(u.Hostname()), nil
	default:
		return false, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
}

func isLocalHost(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate()
}

// Insecure reports whether credentials travel over plain http to a remote host.
func (c *Client) Insecure() bool {
	return c.insecure
}

// Name identifies the client in connection status reports.
func (c *Client) Name() string {
	return "webdav"
}

// TestConnection lists the remote root to verify url and credentials.
func (c *Client) TestConnection(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.dav.ReadDir("/"); err != nil {
		return fmt.Errorf("webdav connection failed: %w", err)
	}
	return nil
}

// Probe implements the connection monitor's probe.
func (c *Client) Probe(ctx context.Context) error {
	return c.TestConnection(ctx)
}

// EnsureDir creates every missing folder of remoteDir, top down.
func (c *Client) EnsureDir(ctx context.Context, remoteDir string) error {
	current := ""
	for _, part := range strings.Split(common.RemotePath(remoteDir), "/") {
		if part == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		current += "/" + part
		if _, err := c.dav.Stat(current); err == nil {
			continue
		} else if !gowebdav.IsErrNotFound(err) {
			return fmt.Errorf("failed to stat %s: %w", current, err)
		}

		c.log.Debug().Str("dir", current).Msg("creating remote folder")
		if err := c.dav.Mkdir(current, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", current, err)
		}
	}
	return nil
}

// Exists reports whether a remote path is present.
func (c *Client) Exists(ctx context.Context, remotePath string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := c.dav.Stat(common.RemotePath(remotePath))
	if err == nil {
		return true, nil
	}
	if gowebdav.IsErrNotFound(err) {
		return false, nil
	}
	return false, err
}

// Upload streams localPath to remotePath, creating parent folders first.
// An existing remote file is never overwritten.
func (c *Client) Upload(ctx context.Context, localPath, remotePath string, onProgress ProgressFunc) error {
	remotePath = common.RemotePath(remotePath)

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", localPath, err)
	}

	if err := c.EnsureDir(ctx, common.RemoteDir(remotePath)); err != nil {
		return err
	}

	exists, err := c.Exists(ctx, remotePath)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", remotePath, err)
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrRemoteExists, remotePath)
	}

	c.log.Info().Str("file", localPath).Str("remote", remotePath).Int64("bytes", info.Size()).Msg("uploading")

	pr := &progressReader{ctx: ctx, r: f, total: info.Size(), onProgress: onProgress, last: -1}
	if err := c.dav.WriteStream(remotePath, pr, 0644); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("failed to upload %s: %w", remotePath, err)
	}
	pr.report(100)

	return nil
}

// progressReader reports rounded percentages while the body is read and
// stops the request once ctx is cancelled.
type progressReader struct {
	ctx        context.Context
	r          io.Reader
	total      int64
	read       int64
	last       int
	onProgress ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	if err := p.ctx.Err(); err != nil {
		return 0, err
	}

	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.total > 0 {
		p.report(int(math.Round(float64(p.read) * 100 / float64(p.total))))
	}
	return n, err
}

func (p *progressReader) report(percent int) {
	if p.onProgress == nil || percent == p.last {
		return
	}
	p.last = percent
	p.onProgress(percent)
}
