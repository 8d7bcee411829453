// Package xapi implements the platform adapters against the X API v2.
package xapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/Derecoder4/Rugguard-bot/internal/domain"
	"github.com/Derecoder4/Rugguard-bot/internal/platform/retry"
)

const (
	maxReplyRunes   = 280
	searchMinLimit  = 10
	defaultTimeout  = 15 * time.Second
	maxResponseSize = 4 << 20
)

// Client talks to the X API v2 with bearer-token auth. It implements
// domain.AccountSource, domain.MentionSource and domain.ReplyPublisher.
// All requests share a token-bucket rate limiter and a retry policy that
// honours 429 responses with a longer backoff.
type Client struct {
	baseURL     string
	bearerToken string
	httpClient  *http.Client
	limiter     *rate.Limiter
	policy      retry.Policy
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) { c.policy = p }
}

func NewClient(baseURL, bearerToken string, opts ...Option) *Client {
	c := &Client{
		baseURL:     baseURL,
		bearerToken: bearerToken,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		limiter:     rate.NewLimiter(rate.Limit(1), 3),
		policy: retry.Policy{
			MaxAttempts:      3,
			InitialBackoff:   time.Second,
			RateLimitBackoff: 15 * time.Second,
			OnRetry: func(attempt int, err error, backoff time.Duration) {
				slog.Warn("retrying platform request",
					"attempt", attempt, "backoff", backoff, "error", err)
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiError carries the HTTP status so the retry classifier can decide
// between aborting, retrying and backing off.
type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("platform API returned status %d: %s", e.Status, e.Body)
}

func classify(err error) retry.Action {
	var ae *apiError
	if errors.As(err, &ae) {
		switch {
		case ae.Status == http.StatusTooManyRequests:
			return retry.After
		case ae.Status >= 500:
			return retry.Retry
		default:
			return retry.Stop
		}
	}
	// network-level failures are worth another attempt
	return retry.Retry
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	op := func() (struct{}, error) {
		return struct{}{}, c.doOnce(ctx, method, path, query, body, out)
	}
	_, err := retry.Do(ctx, c.policy, classify, op)
	return err
}

func (c *Client) doOnce(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("failed to acquire rate limit token: %w", err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call platform API: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &apiError{Status: resp.StatusCode, Body: string(raw)}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode response body: %w", err)
		}
	}
	return nil
}

// notFound reports whether the wrapped error is a terminal 404.
func notFound(err error) bool {
	var ae *apiError
	return errors.As(err, &ae) && ae.Status == http.StatusNotFound
}

// rateLimited reports whether the error chain ends in an exhausted 429.
func rateLimited(err error) bool {
	var ae *apiError
	return errors.As(err, &ae) && ae.Status == http.StatusTooManyRequests
}

func mapError(err error, notFoundErr error) error {
	switch {
	case notFound(err):
		return notFoundErr
	case rateLimited(err):
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	default:
		return err
	}
}

// --- domain.AccountSource ---

func (c *Client) GetProfile(ctx context.Context, handle string) (*domain.AccountProfile, error) {
	query := url.Values{
		"user.fields": {"created_at,description,public_metrics,verified"},
	}

	var resp userResponse
	if err := c.do(ctx, http.MethodGet, "/2/users/by/username/"+url.PathEscape(handle), query, nil, &resp); err != nil {
		return nil, mapError(fmt.Errorf("failed to fetch profile %q: %w", handle, err), domain.ErrAccountNotFound)
	}
	if resp.Data == nil {
		return nil, domain.ErrAccountNotFound
	}

	u := resp.Data
	return &domain.AccountProfile{
		ID:             u.ID,
		Handle:         u.Username,
		DisplayName:    u.Name,
		Bio:            u.Description,
		CreatedAt:      u.CreatedAt,
		FollowersCount: u.PublicMetrics.FollowersCount,
		FollowingCount: u.PublicMetrics.FollowingCount,
		PostCount:      u.PublicMetrics.TweetCount,
		Verified:       u.Verified,
	}, nil
}

func (c *Client) GetRecentPosts(ctx context.Context, accountID string, limit int) ([]domain.Post, error) {
	query := url.Values{
		"max_results":  {strconv.Itoa(limit)},
		"tweet.fields": {"public_metrics"},
	}

	var resp tweetsResponse
	if err := c.do(ctx, http.MethodGet, "/2/users/"+url.PathEscape(accountID)+"/tweets", query, nil, &resp); err != nil {
		return nil, mapError(fmt.Errorf("failed to fetch posts for %s: %w", accountID, err), domain.ErrAccountNotFound)
	}

	posts := make([]domain.Post, 0, len(resp.Data))
	for _, t := range resp.Data {
		posts = append(posts, domain.Post{
			ID:      t.ID,
			Text:    t.Text,
			Likes:   t.PublicMetrics.LikeCount,
			Reposts: t.PublicMetrics.RetweetCount,
			Replies: t.PublicMetrics.ReplyCount,
			Quotes:  t.PublicMetrics.QuoteCount,
		})
	}
	return posts, nil
}

func (c *Client) GetFollowerSample(ctx context.Context, accountID string, limit int) ([]string, error) {
	query := url.Values{
		"max_results": {strconv.Itoa(limit)},
	}

	var resp usersResponse
	if err := c.do(ctx, http.MethodGet, "/2/users/"+url.PathEscape(accountID)+"/followers", query, nil, &resp); err != nil {
		return nil, mapError(fmt.Errorf("failed to fetch followers for %s: %w", accountID, err), domain.ErrAccountNotFound)
	}

	handles := make([]string, 0, len(resp.Data))
	for _, u := range resp.Data {
		handles = append(handles, u.Username)
	}
	return handles, nil
}

// --- domain.MentionSource ---

func (c *Client) SearchMentions(ctx context.Context, searchQuery string, limit int) ([]domain.TriggerEvent, error) {
	// the search endpoint rejects max_results below 10
	if limit < searchMinLimit {
		limit = searchMinLimit
	}
	query := url.Values{
		"query":        {searchQuery},
		"max_results":  {strconv.Itoa(limit)},
		"tweet.fields": {"author_id,created_at,referenced_tweets"},
	}

	var resp tweetsResponse
	if err := c.do(ctx, http.MethodGet, "/2/tweets/search/recent", query, nil, &resp); err != nil {
		return nil, mapError(fmt.Errorf("failed to search mentions: %w", err), domain.ErrPostNotFound)
	}

	events := make([]domain.TriggerEvent, 0, len(resp.Data))
	for _, t := range resp.Data {
		ev := domain.TriggerEvent{
			ID:        t.ID,
			Text:      t.Text,
			AuthorID:  t.AuthorID,
			CreatedAt: t.CreatedAt,
		}
		for _, ref := range t.ReferencedTweets {
			if ref.Type == "replied_to" {
				ev.ReferencedPostID = ref.ID
				break
			}
		}
		events = append(events, ev)
	}
	return events, nil
}

func (c *Client) GetPostAuthor(ctx context.Context, postID string) (*domain.PostAuthor, error) {
	query := url.Values{
		"expansions":  {"author_id"},
		"user.fields": {"username"},
	}

	var resp tweetLookupResponse
	if err := c.do(ctx, http.MethodGet, "/2/tweets/"+url.PathEscape(postID), query, nil, &resp); err != nil {
		return nil, mapError(fmt.Errorf("failed to fetch post %s: %w", postID, err), domain.ErrPostNotFound)
	}
	if resp.Data == nil {
		return nil, domain.ErrPostNotFound
	}

	author := &domain.PostAuthor{AccountID: resp.Data.AuthorID}
	for _, u := range resp.Includes.Users {
		if u.ID == resp.Data.AuthorID {
			author.Handle = u.Username
			break
		}
	}
	return author, nil
}

// --- domain.ReplyPublisher ---

func (c *Client) Reply(ctx context.Context, inReplyToID, text string) (string, error) {
	body := createTweetRequest{Text: truncateRunes(text, maxReplyRunes)}
	body.Reply.InReplyToTweetID = inReplyToID

	var resp createTweetResponse
	if err := c.do(ctx, http.MethodPost, "/2/tweets", nil, body, &resp); err != nil {
		return "", mapError(fmt.Errorf("failed to publish reply to %s: %w", inReplyToID, err), domain.ErrPostNotFound)
	}
	return resp.Data.ID, nil
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
