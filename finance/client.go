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

// Package finance implements a client for the Yahoo Finance quote endpoint.
package finance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aaronlmathis/agenttoast/pipeline"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// ClientError provides structured error information for finance client operations.
type ClientError struct {
	Op         string // Operation that failed (e.g., "request", "decode")
	Symbol     string // Ticker symbol being fetched
	StatusCode int    // HTTP status code if applicable
	Err        error  // Underlying error
}

func (e *ClientError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("finance client %s [%s]: %v", e.Op, e.Symbol, e.Err)
	}
	return fmt.Sprintf("finance client %s: %v", e.Op, e.Err)
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// StockInfo is a snapshot of one ticker's market data.
type StockInfo struct {
	Symbol           string  `json:"symbol"`
	CompanyName      string  `json:"company_name"`
	CurrentPrice     float64 `json:"current_price"`
	DayHigh          float64 `json:"day_high"`
	DayLow           float64 `json:"day_low"`
	MarketCap        float64 `json:"market_cap,omitempty"`
	Volume           int64   `json:"volume,omitempty"`
	PreviousClose    float64 `json:"previous_close,omitempty"`
	OpenPrice        float64 `json:"open_price,omitempty"`
	FiftyTwoWeekHigh float64 `json:"fifty_two_week_high,omitempty"`
	FiftyTwoWeekLow  float64 `json:"fifty_two_week_low,omitempty"`
}

// ClientOption configures the finance client.
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

// Client fetches market quotes from Yahoo Finance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a finance client. No API key is required.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// quoteResponse mirrors the Yahoo Finance v7 quote envelope.
type quoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol                     string  `json:"symbol"`
			LongName                   string  `json:"longName"`
			ShortName                  string  `json:"shortName"`
			RegularMarketPrice         float64 `json:"regularMarketPrice"`
			RegularMarketDayHigh       float64 `json:"regularMarketDayHigh"`
			RegularMarketDayLow        float64 `json:"regularMarketDayLow"`
			MarketCap                  float64 `json:"marketCap"`
			RegularMarketVolume        int64   `json:"regularMarketVolume"`
			RegularMarketPreviousClose float64 `json:"regularMarketPreviousClose"`
			RegularMarketOpen          float64 `json:"regularMarketOpen"`
			FiftyTwoWeekHigh           float64 `json:"fiftyTwoWeekHigh"`
			FiftyTwoWeekLow            float64 `json:"fiftyTwoWeekLow"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteResponse"`
}

// Quotes fetches snapshots for the given ticker symbols. Unknown symbols
// are omitted from the result; an empty result for a non-empty request is
// a permanent error.
func (c *Client) Quotes(ctx context.Context, symbols []string) ([]StockInfo, error) {
	if len(symbols) == 0 {
		return nil, pipeline.Permanent(&ClientError{Op: "request", Err: fmt.Errorf("no symbols given")})
	}

	joined := strings.Join(symbols, ",")
	endpoint := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", c.baseURL, url.QueryEscape(joined))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pipeline.Permanent(&ClientError{Op: "request", Symbol: joined, Err: err})
	}
	httpReq.Header.Set("User-Agent", "agenttoast/1.0")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pipeline.Transient(&ClientError{Op: "request", Symbol: joined, Err: err})
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		cerr := &ClientError{
			Op:         "request",
			Symbol:     joined,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return nil, pipeline.Transient(cerr)
		}
		return nil, pipeline.Permanent(cerr)
	}

	var decoded quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, pipeline.Permanent(&ClientError{Op: "decode", Symbol: joined, Err: err})
	}
	if apiErr := decoded.QuoteResponse.Error; apiErr != nil {
		return nil, pipeline.Permanent(&ClientError{
			Op:     "decode",
			Symbol: joined,
			Err:    fmt.Errorf("api error %s: %s", apiErr.Code, apiErr.Description),
		})
	}
	if len(decoded.QuoteResponse.Result) == 0 {
		return nil, pipeline.Permanent(&ClientError{
			Op:     "decode",
			Symbol: joined,
			Err:    fmt.Errorf("no quotes returned"),
		})
	}

	quotes := make([]StockInfo, 0, len(decoded.QuoteResponse.Result))
	for _, r := range decoded.QuoteResponse.Result {
		name := r.LongName
		if name == "" {
			name = r.ShortName
		}
		quotes = append(quotes, StockInfo{
			Symbol:           r.Symbol,
			CompanyName:      name,
			CurrentPrice:     r.RegularMarketPrice,
			DayHigh:          r.RegularMarketDayHigh,
			DayLow:           r.RegularMarketDayLow,
			MarketCap:        r.MarketCap,
			Volume:           r.RegularMarketVolume,
			PreviousClose:    r.RegularMarketPreviousClose,
			OpenPrice:        r.RegularMarketOpen,
			FiftyTwoWeekHigh: r.FiftyTwoWeekHigh,
			FiftyTwoWeekLow:  r.FiftyTwoWeekLow,
		})
	}
	return quotes, nil
}
