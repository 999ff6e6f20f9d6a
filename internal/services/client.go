package services

import (
	"bytes"
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

	"github.com/Dgouveia1/mulheres-fitness-app/internal/shared"
	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	restPrefix    = "/rest/v1/"
	authPrefix    = "/auth/v1"
	storagePrefix = "/storage/v1/object/"

	singleObjectMediaType = "application/vnd.pgrst.object+json"
)

// ClientOpts configures a [Client].
type ClientOpts struct {
	URL        string
	AnonKey    string
	Schema     string
	HTTPClient *http.Client
	RateLimit  float64       // requests per second, <= 0 disables limiting
	Timeout    time.Duration // per request, <= 0 means 15s
	Logger     *log.Logger
}

// Client speaks the backend's HTTP dialects (data API, auth, storage).
// Requests are authorised with the signed-in user's token when a token source is set, else with the anon key.
type Client struct {
	baseURL    string
	anonKey    string
	schema     string
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
	tokens     oauth2.TokenSource
	logger     *log.Logger
}

// NewClient creates a [Client] from opts.
func NewClient(opts ClientOpts) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.URL, "/"),
		anonKey:    opts.AnonKey,
		schema:     opts.Schema,
		httpClient: httpClient,
		limiter:    limiter,
		timeout:    timeout,
		logger:     logger,
	}
}

// SetTokenSource sets where user access tokens come from.
func (c *Client) SetTokenSource(ts oauth2.TokenSource) {
	c.tokens = ts
}

// BaseURL returns the backend root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Query builds a data API request against one table.
type Query struct {
	table  string
	params url.Values
	single bool
}

// From starts a [Query] on table.
func From(table string) *Query {
	return &Query{table: table, params: url.Values{}}
}

// Select sets the column list, including embedded resources.
func (q *Query) Select(columns string) *Query {
	q.params.Set("select", compactSelect(columns))
	return q
}

// Eq adds a column = value filter.
func (q *Query) Eq(column, value string) *Query {
	q.params.Add(column, "eq."+value)
	return q
}

// Order sorts by column.
func (q *Query) Order(column string, ascending bool) *Query {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	q.params.Set("order", column+"."+dir)
	return q
}

// Limit caps the number of rows.
func (q *Query) Limit(n int) *Query {
	q.params.Set("limit", strconv.Itoa(n))
	return q
}

// Single expects exactly one row, decoded as an object rather than an array.
func (q *Query) Single() *Query {
	q.single = true
	return q
}

func (q *Query) path() string {
	p := restPrefix + q.table
	if len(q.params) > 0 {
		p += "?" + q.params.Encode()
	}
	return p
}

// compactSelect strips whitespace so multi-line embeds can be written readably.
func compactSelect(columns string) string {
	return strings.Join(strings.Fields(columns), "")
}

// request is one HTTP exchange with the backend.
type request struct {
	method      string
	path        string
	body        io.Reader
	contentType string
	header      http.Header
	bearer      string // overrides the token source when set
}

// apiError is the JSON error body shared by the data API, auth and storage.
type apiError struct {
	Message          string `json:"message"`
	Msg              string `json:"msg"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Code             any    `json:"code"`
}

func (e apiError) text() string {
	for _, s := range []string{e.Message, e.Msg, e.ErrorDescription, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// do sends req and returns the response with its body read.
// Non-2xx statuses become errors wrapping the [shared] sentinels.
func (c *Client) do(ctx context.Context, req request) (*http.Response, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", shared.ErrTimeout, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, req.body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, vs := range req.header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("apikey", c.anonKey)
	httpReq.Header.Set("Authorization", "Bearer "+c.bearer(req.bearer))
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if c.schema != "" && strings.HasPrefix(req.path, restPrefix) {
		httpReq.Header.Set("Accept-Profile", c.schema)
		httpReq.Header.Set("Content-Profile", c.schema)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, nil, fmt.Errorf("%w: %s %s", shared.ErrTimeout, req.method, req.path)
		}
		return nil, nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("backend request", "method", req.method, "path", req.path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, body, statusError(resp.StatusCode, body)
	}
	return resp, body, nil
}

func (c *Client) bearer(override string) string {
	if override != "" {
		return override
	}
	if c.tokens != nil {
		if tok, err := c.tokens.Token(); err == nil && tok.AccessToken != "" {
			return tok.AccessToken
		}
	}
	return c.anonKey
}

func statusError(status int, body []byte) error {
	var apiErr apiError
	_ = json.Unmarshal(body, &apiErr)
	msg := apiErr.text()
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", shared.ErrNotAuthenticated, msg)
	case status == http.StatusNotFound, status == http.StatusNotAcceptable:
		return fmt.Errorf("%w: %s", shared.ErrNotFound, msg)
	case status >= 500:
		return fmt.Errorf("%w (status %d): %s", shared.ErrServiceUnavailable, status, msg)
	default:
		return fmt.Errorf("%w (status %d): %s", shared.ErrAPIRequest, status, msg)
	}
}

// Select runs q and decodes the rows into out.
// A [Query.Single] query that matches nothing returns [shared.ErrNotFound].
func (c *Client) Select(ctx context.Context, q *Query, out any) error {
	return c.selectAs(ctx, "", q, out)
}

func (c *Client) selectAs(ctx context.Context, bearer string, q *Query, out any) error {
	header := http.Header{}
	if q.single {
		header.Set("Accept", singleObjectMediaType)
	}

	_, body, err := c.do(ctx, request{method: http.MethodGet, path: q.path(), header: header, bearer: bearer})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Count returns the exact number of rows q matches without transferring them.
func (c *Client) Count(ctx context.Context, q *Query) (int, error) {
	q.params.Set("select", "*")
	header := http.Header{}
	header.Set("Prefer", "count=exact")

	resp, _, err := c.do(ctx, request{method: http.MethodHead, path: q.path(), header: header})
	if err != nil {
		return 0, err
	}
	return parseContentRange(resp.Header.Get("Content-Range"))
}

// parseContentRange reads the total from "0-9/42" or "*/42".
func parseContentRange(v string) (int, error) {
	_, total, ok := strings.Cut(v, "/")
	if !ok || total == "*" {
		return 0, fmt.Errorf("%w: missing count in content-range %q", shared.ErrAPIRequest, v)
	}
	n, err := strconv.Atoi(total)
	if err != nil {
		return 0, fmt.Errorf("%w: bad content-range %q", shared.ErrAPIRequest, v)
	}
	return n, nil
}

// Insert posts rows to q's table. When out is non-nil the inserted representation,
// shaped by q's select, is decoded into it.
func (c *Client) Insert(ctx context.Context, q *Query, rows any, out any) error {
	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to marshal rows: %w", err)
	}

	header := http.Header{}
	if out == nil {
		header.Set("Prefer", "return=minimal")
	} else {
		header.Set("Prefer", "return=representation")
	}
	if q.single {
		header.Set("Accept", singleObjectMediaType)
	}

	_, body, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        q.path(),
		body:        bytes.NewReader(payload),
		contentType: "application/json",
		header:      header,
	})
	if err != nil || out == nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Update patches every row q matches.
func (c *Client) Update(ctx context.Context, q *Query, patch any) error {
	payload, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("failed to marshal patch: %w", err)
	}
	header := http.Header{}
	header.Set("Prefer", "return=minimal")

	_, _, err = c.do(ctx, request{
		method:      http.MethodPatch,
		path:        q.path(),
		body:        bytes.NewReader(payload),
		contentType: "application/json",
		header:      header,
	})
	return err
}

// Delete removes every row q matches.
func (c *Client) Delete(ctx context.Context, q *Query) error {
	_, _, err := c.do(ctx, request{method: http.MethodDelete, path: q.path()})
	return err
}

// postJSON sends body as JSON to an auth endpoint and decodes the reply into out when non-nil.
func (c *Client) postJSON(ctx context.Context, path, bearer string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	_, resp, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        path,
		body:        bytes.NewReader(payload),
		contentType: "application/json",
		bearer:      bearer,
	})
	if err != nil || out == nil || len(resp) == 0 {
		return err
	}
	if err := json.Unmarshal(resp, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
