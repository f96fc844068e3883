// Package twitter is the Twitter v1.1 REST timeline source. It signs
// requests with OAuth 1.0a user context, decodes statuses into
// types.RawPost and classifies refusals into typed errors.
package twitter

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
	"sync"

	"github.com/dghubble/oauth1"

	"github.com/mesh-intelligence/tweetsync/pkg/types"
)

// DefaultBaseURL is the v1.1 REST root.
const DefaultBaseURL = "https://api.twitter.com/1.1"

// Endpoint names, also used as the Op of returned errors.
const (
	opUserTimeline      = "statuses/user_timeline"
	opShowStatus        = "statuses/show"
	opVerifyCredentials = "account/verify_credentials"
)

const (
	headerRateRemaining = "x-rate-limit-remaining"
	headerRateReset     = "x-rate-limit-reset"
)

// maxErrorBody bounds how much of a failed response is read.
const maxErrorBody = 64 << 10

// Credentials holds the application and user tokens for OAuth 1.0a.
type Credentials struct {
	AppKey           string
	AppSecret        string
	OAuthToken       string
	OAuthTokenSecret string
}

// Validate reports the first missing credential.
func (c Credentials) Validate() error {
	switch {
	case c.AppKey == "":
		return fmt.Errorf("twitter.app_key is not set")
	case c.AppSecret == "":
		return fmt.Errorf("twitter.app_secret is not set")
	case c.OAuthToken == "":
		return fmt.Errorf("twitter.oauth_token is not set")
	case c.OAuthTokenSecret == "":
		return fmt.Errorf("twitter.oauth_token_secret is not set")
	}
	return nil
}

// Client implements types.TimelineSource against the v1.1 REST API.
type Client struct {
	baseURL string
	http    *http.Client

	mu        sync.Mutex
	remaining int
	hasQuota  bool
}

var _ types.TimelineSource = (*Client)(nil)

// New returns a Client that signs every request with creds. An empty
// baseURL selects DefaultBaseURL.
func New(ctx context.Context, baseURL string, creds Credentials) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	config := oauth1.NewConfig(creds.AppKey, creds.AppSecret)
	token := oauth1.NewToken(creds.OAuthToken, creds.OAuthTokenSecret)
	return NewWithHTTPClient(baseURL, config.Client(ctx, token)), nil
}

// NewWithHTTPClient returns a Client that sends requests through hc as-is.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
	}
}

// ListTimeline fetches up to count posts of subject bounded by cursor.
// Reposts are excluded upstream.
func (c *Client) ListTimeline(ctx context.Context, subject string, count int, cursor types.Cursor) ([]types.RawPost, error) {
	q := url.Values{}
	q.Set("screen_name", subject)
	q.Set("count", strconv.Itoa(count))
	q.Set("include_rts", "false")
	q.Set("tweet_mode", "extended")
	switch cursor.Mode {
	case types.CursorBefore:
		q.Set("max_id", strconv.FormatInt(cursor.ID-1, 10))
	case types.CursorAfter:
		q.Set("since_id", strconv.FormatInt(cursor.ID, 10))
	}

	var statuses []status
	if err := c.get(ctx, opUserTimeline, q, &statuses); err != nil {
		var ae *apiError
		if errors.As(err, &ae) {
			return nil, ae.upstream()
		}
		return nil, err
	}
	posts := make([]types.RawPost, 0, len(statuses))
	for i := range statuses {
		p, err := statuses[i].rawPost()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", opUserTimeline, err)
		}
		posts = append(posts, p)
	}
	return posts, nil
}

// GetPost looks up a single post. Recognized refusals are returned as
// *types.LookupError.
func (c *Client) GetPost(ctx context.Context, id int64) (types.RawPost, error) {
	q := url.Values{}
	q.Set("id", strconv.FormatInt(id, 10))
	q.Set("tweet_mode", "extended")

	var st status
	if err := c.get(ctx, opShowStatus, q, &st); err != nil {
		var ae *apiError
		if errors.As(err, &ae) {
			return types.RawPost{}, classifyLookup(id, ae)
		}
		return types.RawPost{}, err
	}
	return st.rawPost()
}

// VerifyCredentials returns the authenticated screen name.
func (c *Client) VerifyCredentials(ctx context.Context) (string, error) {
	q := url.Values{}
	q.Set("skip_status", "true")
	var u user
	if err := c.get(ctx, opVerifyCredentials, q, &u); err != nil {
		var ae *apiError
		if errors.As(err, &ae) {
			return "", ae.upstream()
		}
		return "", err
	}
	return u.ScreenName, nil
}

// RateLimitRemaining returns the quota reported by the most recent call.
func (c *Client) RateLimitRemaining() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining, c.hasQuota
}

func (c *Client) recordQuota(h http.Header) {
	v := h.Get(headerRateRemaining)
	c.mu.Lock()
	defer c.mu.Unlock()
	n, err := strconv.Atoi(v)
	if v == "" || err != nil {
		c.hasQuota = false
		return
	}
	c.remaining = n
	c.hasQuota = true
}

// get issues a GET for op and decodes a 200 body into out. Rate limiting
// is returned as *types.RateLimitError, other 4xx answers as *apiError,
// and everything else as *types.UpstreamError.
func (c *Client) get(ctx context.Context, op string, q url.Values, out any) error {
	endpoint := c.baseURL + "/" + op + ".json?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &types.UpstreamError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &types.UpstreamError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	c.recordQuota(resp.Header)

	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &types.UpstreamError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
		}
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	ae := parseAPIError(op, resp.StatusCode, body)
	if ae.rateLimited() {
		return &types.RateLimitError{Op: op, Reset: parseReset(resp.Header.Get(headerRateReset))}
	}
	if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusUnauthorized {
		return ae
	}
	return ae.upstream()
}
