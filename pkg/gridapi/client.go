package gridapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/sanops/asbuilt/internal/models"
	srvErrors "github.com/sanops/asbuilt/pkg/errors"
)

// Client performs authenticated calls against one cluster at one selected
// API revision. It is synchronous and not safe for concurrent use; session
// state belongs to exactly one logical thread of control per run.
type Client struct {
	host    string
	rev     models.Revision
	creds   Credentials
	http    *http.Client
	retries uint
	factor  float64
	log     *zap.SugaredLogger

	session session
}

func NewClient(cfg Config, rev models.Revision) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		host:    cfg.Host,
		rev:     rev,
		creds:   cfg.Credentials,
		http:    cfg.httpClient(),
		retries: cfg.MaxRetries,
		factor:  cfg.BackoffFactor,
		log:     zap.S().Named("gridapi"),
	}
}

// Revision reports the API revision the client was configured with.
func (c *Client) Revision() models.Revision { return c.rev }

// Host reports the cluster address the client talks to.
func (c *Client) Host() string { return c.host }

// Get performs one logical GET of an endpoint relative to /api/{rev}/.
// A 404 means the endpoint does not exist for this revision and yields
// found=false, not an error, so collectors treat missing optional endpoints
// as normal. A single 401 triggers exactly one transparent re-authentication
// and one re-issue; a second 401 fails the call definitively.
func (c *Client) Get(ctx context.Context, path string) (body []byte, found bool, err error) {
	if err := c.ensureSession(ctx); err != nil {
		return nil, false, err
	}

	// Bounded loop, never recursion: at most one re-auth attempt.
	reauthed := false
	for {
		resp, err := c.doWithRetry(ctx, path)
		if err != nil {
			return nil, false, srvErrors.NewUnreachableError(c.host, err)
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			data, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return nil, false, fmt.Errorf("read %s: %w", path, err)
			}
			return data, true, nil
		case resp.StatusCode == http.StatusNotFound:
			drain(resp)
			return nil, false, nil
		case resp.StatusCode == http.StatusUnauthorized && !reauthed:
			drain(resp)
			c.log.Infow("session expired, re-authenticating", "path", path)
			c.session = session{}
			if err := c.authenticate(ctx); err != nil {
				return nil, false, err
			}
			reauthed = true
		default:
			drain(resp)
			return nil, false, fmt.Errorf("GET %s: unexpected status %s", path, resp.Status)
		}
	}
}

// GetJSON decodes the payload of Get into out. Missing endpoints leave out
// untouched and report found=false.
func (c *Client) GetJSON(ctx context.Context, path string, out any) (bool, error) {
	body, found, err := c.Get(ctx, path)
	if err != nil || !found {
		return found, err
	}
	if err := decodeJSON(body, out); err != nil {
		return true, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}

// doWithRetry issues the request, transparently retrying 429/5xx and
// transport errors with exponential backoff up to the configured cap. Any
// other status is returned to the caller untouched.
func (c *Client) doWithRetry(ctx context.Context, path string) (*http.Response, error) {
	operation := func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		c.session.apply(req, c.creds)

		resp, err := c.http.Do(req)
		if err != nil {
			c.log.Debugw("transport error, will retry", "path", path, "error", err)
			return nil, err
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			drain(resp)
			c.log.Debugw("retryable status", "path", path, "status", resp.Status)
			return nil, fmt.Errorf("GET %s: status %s", path, resp.Status)
		}
		return resp, nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = 500 * time.Millisecond
	expo.Multiplier = c.factor

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(c.retries+1),
	)
}

func (c *Client) url(path string) string {
	base := c.host
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	return fmt.Sprintf("%s/api/%s/%s", base, c.rev, strings.TrimPrefix(path, "/"))
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}
