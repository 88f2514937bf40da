// Package github is the upstream adapter for the GitHub Actions REST API.
// Every call is scoped to one configured owner/repository, authenticated with
// a bearer token, and classified into an Outcome or a StatusError.
package github

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

	gh "github.com/google/go-github/v68/github"

	"github.com/schnicklfritz/lite-remote-builder/internal/common"
	"github.com/schnicklfritz/lite-remote-builder/internal/config"
)

// mediaType is the API version every request asks for.
const mediaType = "application/vnd.github.v3+json"

// ErrMalformedResponse marks an upstream success whose payload cannot be used.
var ErrMalformedResponse = errors.New("malformed upstream response")

// Outcome is a successful (2xx) upstream response.
// Payload is nil when upstream answered without a body, e.g. 204 No Content.
type Outcome struct {
	StatusCode int
	Payload    json.RawMessage
}

// Empty reports whether upstream returned no content.
func (o *Outcome) Empty() bool {
	return len(o.Payload) == 0
}

// StatusError is returned for every non-2xx upstream response.
type StatusError struct {
	StatusCode int
	StatusText string
	URL        string
	Message    string // GitHub's error message, when the body carried one
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("GitHub API Error [%d]: %s - %s", e.StatusCode, e.StatusText, e.URL)
	if e.Message != "" {
		msg += " (" + e.Message + ")"
	}
	return msg
}

// Client performs authenticated requests against one repository.
// It holds no per-call state and is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	token      string
	baseURL    *url.URL
	owner      string
	repo       string
	logger     *common.Logger
}

// NewClient builds a Client from validated configuration.
// The forward proxy and timeout are applied to the underlying transport.
func NewClient(cfg config.GitHubConfig, logger *common.Logger) (*Client, error) {
	httpClient, err := NewHTTPClient(cfg.ProxyURL, cfg.RequestTimeout())
	if err != nil {
		return nil, err
	}

	c := &Client{
		httpClient: httpClient,
		token:      cfg.Token,
		owner:      cfg.Owner,
		repo:       cfg.Repo,
		logger:     logger,
	}
	if cfg.APIURL != "" {
		base, err := url.Parse(withTrailingSlash(cfg.APIURL))
		if err != nil {
			return nil, fmt.Errorf("invalid api url %q: %w", cfg.APIURL, err)
		}
		c.baseURL = base
	}
	return c, nil
}

// api returns a go-github client for a single call. go-github remembers rate
// limits per client and answers later calls locally once one is exhausted, so
// each call starts from a fresh client and always reaches upstream.
func (c *Client) api() *gh.Client {
	api := gh.NewClient(c.httpClient).WithAuthToken(c.token)
	if c.baseURL != nil {
		base := *c.baseURL
		api.BaseURL = &base
	}
	return api
}

// Repository returns the owner/repo pair requests are scoped to.
func (c *Client) Repository() string {
	return c.owner + "/" + c.repo
}

// Request sends one request to /repos/{owner}/{repo}{path}. body, when non-nil,
// is encoded as JSON. There is no retry: a non-2xx status is returned as a
// *StatusError and transport failures as a wrapped error.
func (c *Client) Request(ctx context.Context, method, path string, body any) (*Outcome, error) {
	c.logger.Debug().Str("method", method).Str("path", path).Msg("upstream request")

	api := c.api()
	req, err := api.NewRequest(method, c.repoPath(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", mediaType)
	req.Header.Set("Content-Type", "application/json")

	var payload json.RawMessage
	start := time.Now()
	resp, err := api.Do(ctx, req, &payload)
	duration := time.Since(start)

	if resp != nil && resp.Response != nil && !isSuccess(resp.StatusCode) {
		statusErr := newStatusError(resp.Response, err)
		c.logger.Warn().
			Str("method", method).
			Str("path", path).
			Int("status", statusErr.StatusCode).
			Int64("duration_ms", duration.Milliseconds()).
			Msg("upstream returned failure status")
		return nil, statusErr
	}

	// go-github reports 202 Accepted as an error; it is still a success.
	var accepted *gh.AcceptedError
	if errors.As(err, &accepted) {
		payload, err = accepted.Raw, nil
	}

	if err != nil {
		c.logger.Error().
			Str("method", method).
			Str("path", path).
			Int64("duration_ms", duration.Milliseconds()).
			Str("error", err.Error()).
			Msg("upstream request failed")
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Int64("duration_ms", duration.Milliseconds()).
		Msg("upstream response")

	outcome := &Outcome{StatusCode: resp.StatusCode}
	if len(payload) > 0 {
		outcome.Payload = payload
	}
	return outcome, nil
}

// repoPath joins the repository scope and a caller path into a URL relative to BaseURL.
func (c *Client) repoPath(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "repos/" + url.PathEscape(c.owner) + "/" + url.PathEscape(c.repo) + path
}

// newStatusError classifies a non-2xx response. err is the go-github error for
// the same response and may carry GitHub's message.
func newStatusError(resp *http.Response, err error) *StatusError {
	statusErr := &StatusError{
		StatusCode: resp.StatusCode,
		StatusText: statusText(resp),
	}
	if resp.Request != nil && resp.Request.URL != nil {
		statusErr.URL = resp.Request.URL.String()
	}
	var (
		ghErr        *gh.ErrorResponse
		rateErr      *gh.RateLimitError
		secondaryErr *gh.AbuseRateLimitError
	)
	switch {
	case errors.As(err, &ghErr):
		statusErr.Message = ghErr.Message
	case errors.As(err, &rateErr):
		statusErr.Message = rateErr.Message
	case errors.As(err, &secondaryErr):
		statusErr.Message = secondaryErr.Message
	}
	return statusErr
}

// statusText returns the reason phrase, e.g. "Internal Server Error".
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

func isSuccess(code int) bool {
	return code >= 200 && code <= 299
}

func withTrailingSlash(s string) string {
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}
