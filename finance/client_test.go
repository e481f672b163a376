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

package finance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/agenttoast/pipeline"
)

const sampleQuote = `{
	"quoteResponse": {
		"result": [
			{
				"symbol": "AAPL",
				"longName": "Apple Inc.",
				"regularMarketPrice": 228.5,
				"regularMarketDayHigh": 230.1,
				"regularMarketDayLow": 226.8,
				"marketCap": 3450000000000,
				"regularMarketVolume": 51230000,
				"regularMarketPreviousClose": 227.0,
				"regularMarketOpen": 227.4,
				"fiftyTwoWeekHigh": 237.2,
				"fiftyTwoWeekLow": 164.1
			},
			{
				"symbol": "GOOG",
				"shortName": "Alphabet Inc.",
				"regularMarketPrice": 182.3,
				"regularMarketDayHigh": 183.0,
				"regularMarketDayLow": 180.5
			}
		],
		"error": null
	}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(WithBaseURL(server.URL), WithHTTPClient(server.Client()))
}

func TestQuotes_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v7/finance/quote", r.URL.Path)
		assert.Equal(t, "AAPL,GOOG", r.URL.Query().Get("symbols"))
		w.Write([]byte(sampleQuote))
	})

	quotes, err := client.Quotes(context.Background(), []string{"AAPL", "GOOG"})
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	aapl := quotes[0]
	assert.Equal(t, "AAPL", aapl.Symbol)
	assert.Equal(t, "Apple Inc.", aapl.CompanyName)
	assert.InDelta(t, 228.5, aapl.CurrentPrice, 0.001)
	assert.EqualValues(t, 51230000, aapl.Volume)

	// shortName fallback when longName is absent
	assert.Equal(t, "Alphabet Inc.", quotes[1].CompanyName)
}

func TestQuotes_EmptySymbolsRejected(t *testing.T) {
	client := NewClient()
	_, err := client.Quotes(context.Background(), nil)
	require.Error(t, err)
	assert.False(t, pipeline.IsTransient(err))
}

func TestQuotes_UnknownSymbol(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quoteResponse":{"result":[],"error":null}}`))
	})

	_, err := client.Quotes(context.Background(), []string{"INVALIDTICKER"})
	require.Error(t, err)
	assert.False(t, pipeline.IsTransient(err))
	assert.Contains(t, err.Error(), "no quotes returned")
}

func TestQuotes_ServerErrorIsTransient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broke", http.StatusServiceUnavailable)
	})

	_, err := client.Quotes(context.Background(), []string{"AAPL"})
	require.Error(t, err)
	assert.True(t, pipeline.IsTransient(err))
}

func TestQuotes_APIErrorEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quoteResponse":{"result":[],"error":{"code":"Bad Request","description":"invalid symbol"}}}`))
	})

	_, err := client.Quotes(context.Background(), []string{"???"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid symbol")
}
