//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Aaron Mathis aaron.mathis@gmail.com
//
// This file is part of AgentToast.
//
// AgentToast is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// AgentToast is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with AgentToast. If not, see https://www.gnu.org/licenses/.

// Package news implements a client for the NewsAPI top-headlines endpoint.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/aaronlmathis/agenttoast/pipeline"
)

const (
	defaultBaseURL = "https://newsapi.org/v2"
	maxArticles    = 10
	minArticles    = 1
)

// ClientError provides structured error information for news client operations.
type ClientError struct {
	Op         string // Operation that failed (e.g., "request", "decode")
	StatusCode int    // HTTP status code if applicable
	URL        string // URL being accessed when error occurred
	Err        error  // Underlying error
}

func (e *ClientError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("news client %s [%d] %s: %v", e.Op, e.StatusCode, e.URL, e.Err)
	}
	return fmt.Sprintf("news client %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// Article is one normalized news article.
type Article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	PublishedAt string `json:"published_at"`
	Content     string `json:"content"`
}

// HeadlinesRequest selects which top headlines to fetch. Sources cannot be
// mixed with country or category; when sources is set the other two are
// dropped from the request.
type HeadlinesRequest struct {
	Category string // business, entertainment, general, health, science, sports, technology
	Count    int    // Number of articles, clamped to 1..10
	Country  string // 2-letter ISO 3166-1 code (e.g., us, gb, au)
	Sources  string // Comma-separated source IDs (e.g., bbc-news,cnn)
	Query    string // Keywords or phrase to search for
	Page     int    // Page number for paginated results
}

// ClientOption configures the news client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// Client fetches top headlines from NewsAPI.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a news client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiResponse mirrors the NewsAPI top-headlines envelope.
type apiResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Content     string `json:"content"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// TopHeadlines fetches headlines for the request. Rate limiting and server
// errors surface as transient failures; invalid requests and credentials
// are permanent.
func (c *Client) TopHeadlines(ctx context.Context, req HeadlinesRequest) ([]Article, error) {
	if c.apiKey == "" {
		return nil, pipeline.Permanent(&ClientError{
			Op:  "request",
			URL: c.baseURL,
			Err: fmt.Errorf("missing NewsAPI key"),
		})
	}

	endpoint := c.baseURL + "/top-headlines"
	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("pageSize", strconv.Itoa(clampCount(req.Count)))
	params.Set("language", "en")

	if req.Category != "" && req.Category != "all" {
		params.Set("category", req.Category)
	}
	if req.Country != "" {
		params.Set("country", req.Country)
	}
	if req.Sources != "" {
		params.Set("sources", req.Sources)
		params.Del("country")
		params.Del("category")
	}
	if req.Query != "" {
		params.Set("q", req.Query)
	}
	if req.Page > 0 {
		params.Set("page", strconv.Itoa(req.Page))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, pipeline.Permanent(&ClientError{Op: "request", URL: endpoint, Err: err})
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Network failures and client timeouts are worth retrying.
		return nil, pipeline.Transient(&ClientError{Op: "request", URL: endpoint, Err: err})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pipeline.Transient(&ClientError{Op: "read", StatusCode: resp.StatusCode, URL: endpoint, Err: err})
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode, endpoint, body)
	}

	var decoded apiResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, pipeline.Permanent(&ClientError{Op: "decode", StatusCode: resp.StatusCode, URL: endpoint, Err: err})
	}
	if decoded.Status != "ok" {
		return nil, pipeline.Permanent(&ClientError{
			Op:         "decode",
			StatusCode: resp.StatusCode,
			URL:        endpoint,
			Err:        fmt.Errorf("api status %s (%s): %s", decoded.Status, decoded.Code, decoded.Message),
		})
	}

	articles := make([]Article, 0, len(decoded.Articles))
	for _, a := range decoded.Articles {
		articles = append(articles, Article{
			Title:       orDefault(a.Title, "No title"),
			Description: orDefault(a.Description, "No description"),
			URL:         a.URL,
			Source:      orDefault(a.Source.Name, "Unknown source"),
			PublishedAt: a.PublishedAt,
			Content:     orDefault(a.Content, "No content"),
		})
	}
	return articles, nil
}

func classifyStatus(status int, endpoint string, body []byte) error {
	cerr := &ClientError{
		Op:         "request",
		StatusCode: status,
		URL:        endpoint,
		Err:        fmt.Errorf("unexpected status: %s", firstLine(body)),
	}
	if status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
		return pipeline.Transient(cerr)
	}
	return pipeline.Permanent(cerr)
}

func clampCount(count int) int {
	if count < minArticles {
		return minArticles
	}
	if count > maxArticles {
		return maxArticles
	}
	return count
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func firstLine(body []byte) string {
	const max = 200
	if len(body) > max {
		body = body[:max]
	}
	return string(body)
}
