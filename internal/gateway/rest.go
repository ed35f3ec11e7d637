package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/XavierBriggs/fortuna/services/batting-dashboard/pkg/models"
	"github.com/goccy/go-json"
)

// RESTClient talks to a hosted PostgREST-style data API
type RESTClient struct {
	baseURL    string
	apiKey     string
	collection string
	httpClient *http.Client
}

// RESTOptions configures a RESTClient
type RESTOptions struct {
	BaseURL    string
	APIKey     string
	Collection string
	Timeout    time.Duration
	HTTPClient *http.Client // optional, overrides Timeout
}

// NewRESTClient creates a new REST gateway client
func NewRESTClient(opts RESTOptions) (*RESTClient, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	collection := opts.Collection
	if collection == "" {
		collection = "players"
	}

	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &RESTClient{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		collection: collection,
		httpClient: client,
	}, nil
}

// ListPlayers retrieves all players ordered by id
func (c *RESTClient) ListPlayers(ctx context.Context) ([]models.PlayerRecord, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "id.asc")

	resp, err := c.do(ctx, http.MethodGet, q, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus("list", resp); err != nil {
		return nil, err
	}

	var players []models.PlayerRecord
	if err := json.NewDecoder(resp.Body).Decode(&players); err != nil {
		return nil, fmt.Errorf("decode players: %w", err)
	}

	return players, nil
}

// InsertPlayer submits one row; the body is a single-element array
func (c *RESTClient) InsertPlayer(ctx context.Context, p models.NewPlayer) error {
	body, err := json.Marshal([]models.NewPlayer{p})
	if err != nil {
		return fmt.Errorf("encode player: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, nil, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return checkStatus("insert", resp)
}

// DeletePlayer removes the row matching id
func (c *RESTClient) DeletePlayer(ctx context.Context, id int64) error {
	q := url.Values{}
	q.Set("id", "eq."+strconv.FormatInt(id, 10))

	resp, err := c.do(ctx, http.MethodDelete, q, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return checkStatus("delete", resp)
}

// Ping checks the collection is reachable
func (c *RESTClient) Ping(ctx context.Context) error {
	q := url.Values{}
	q.Set("select", "id")
	q.Set("limit", "1")

	resp, err := c.do(ctx, http.MethodGet, q, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return checkStatus("ping", resp)
}

// Close releases idle connections
func (c *RESTClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *RESTClient) endpoint(q url.Values) string {
	u := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, url.PathEscape(c.collection))
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (c *RESTClient) do(ctx context.Context, method string, q url.Values, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(q), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "return=minimal")
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Op: strings.ToLower(method), Err: err}
	}
	return resp, nil
}

// checkStatus turns a non-2xx response into an *Error carrying the
// backend's message field when one is present
func checkStatus(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var apiErr struct {
		Message string `json:"message"`
		Details string `json:"details"`
		Hint    string `json:"hint"`
		Code    string `json:"code"`
	}
	msg := ""
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Message != "" {
		msg = apiErr.Message
	} else if s := strings.TrimSpace(string(raw)); s != "" {
		msg = s
	}

	return &Error{Op: op, StatusCode: resp.StatusCode, Message: msg}
}
