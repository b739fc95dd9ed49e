package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"rewriter-cli/internal/model"
)

const (
	PathBlogs         = "/api/blogs"
	PathFetchArticles = "/api/fetch-articles"
	PathRewrite       = "/api/rewrite"
	PathPost          = "/api/post"

	userAgent = "rewriter-cli"

	// Responses beyond this are treated as malformed rather than buffered.
	maxBodyBytes = 32 << 20
)

// Client talks to the article backend. Each call is a single attempt.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type blogsRequest struct {
	APIKey string `json:"api_key"`
}

type blogsResponse struct {
	Blogs *[]model.Blog `json:"blogs"`
	Error *string       `json:"error"`
}

// ListBlogs returns blogs in backend order. A response without `blogs` is a failure.
func (c *Client) ListBlogs(ctx context.Context, apiKey string) ([]model.Blog, error) {
	var resp blogsResponse
	status, err := c.post(ctx, PathBlogs, blogsRequest{APIKey: apiKey}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Blogs == nil {
		if resp.Error != nil && strings.TrimSpace(*resp.Error) != "" {
			return nil, ServerError{Status: status, Msg: *resp.Error}
		}
		return nil, ContractError{msg: "Failed to load blogs"}
	}
	return *resp.Blogs, nil
}

type fetchRequest struct {
	SitemapURL string `json:"sitemap_url"`
}

type fetchResponse struct {
	Articles *[]model.Article `json:"articles"`
	Error    *string          `json:"error"`
}

func (c *Client) FetchArticles(ctx context.Context, sitemapURL string) ([]model.Article, error) {
	var resp fetchResponse
	status, err := c.post(ctx, PathFetchArticles, fetchRequest{SitemapURL: sitemapURL}, &resp)
	if err != nil {
		return nil, err
	}
	if !statusOK(status) {
		if resp.Error != nil && strings.TrimSpace(*resp.Error) != "" {
			return nil, ServerError{Status: status, Msg: *resp.Error}
		}
		return nil, TransportError{Status: status}
	}
	if resp.Articles == nil {
		if resp.Error != nil && strings.TrimSpace(*resp.Error) != "" {
			return nil, ServerError{Status: status, Msg: *resp.Error}
		}
		return nil, ContractError{msg: msgInvalidResponse}
	}
	return *resp.Articles, nil
}

type rewriteRequest struct {
	APIKey  string `json:"api_key"`
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type rewriteResponse struct {
	Result *model.Rewritten `json:"result"`
	Error  *string          `json:"error"`
}

func (c *Client) Rewrite(ctx context.Context, apiKey string, a model.Article) (model.Rewritten, error) {
	var resp rewriteResponse
	req := rewriteRequest{APIKey: apiKey, ID: a.ID, Title: a.Title, Content: a.Content}
	status, err := c.post(ctx, PathRewrite, req, &resp)
	if err != nil {
		return model.Rewritten{}, err
	}
	if resp.Error != nil && strings.TrimSpace(*resp.Error) != "" {
		return model.Rewritten{}, ServerError{Status: status, Msg: *resp.Error}
	}
	if !statusOK(status) {
		return model.Rewritten{}, TransportError{Status: status}
	}
	if resp.Result == nil {
		return model.Rewritten{}, ContractError{msg: msgInvalidResponse}
	}
	return *resp.Result, nil
}

type PostRequest struct {
	BlogID   string  `json:"blog_id"`
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	Schedule *string `json:"schedule,omitempty"`
}

type postResponse struct {
	Success *bool   `json:"success"`
	Error   *string `json:"error"`
}

func (c *Client) Post(ctx context.Context, req PostRequest) error {
	var resp postResponse
	status, err := c.post(ctx, PathPost, req, &resp)
	if err != nil {
		return err
	}
	if resp.Error != nil && strings.TrimSpace(*resp.Error) != "" {
		return ServerError{Status: status, Msg: *resp.Error}
	}
	if !statusOK(status) {
		return TransportError{Status: status}
	}
	if resp.Success == nil || !*resp.Success {
		return ContractError{msg: "Post was not accepted by the server"}
	}
	return nil
}

// post sends payload as JSON and decodes the body into v regardless of status.
// A body that is not JSON is a ContractError.
func (c *Client) post(ctx context.Context, path string, payload any, v any) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return 0, TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, TransportError{Status: resp.StatusCode, Err: err}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) && !statusOK(resp.StatusCode) {
			return resp.StatusCode, TransportError{Status: resp.StatusCode}
		}
		return resp.StatusCode, ContractError{msg: msgInvalidResponse}
	}
	return resp.StatusCode, nil
}

func statusOK(code int) bool { return code >= 200 && code < 300 }
