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

package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/agenttoast/pipeline"
)

const sampleResponse = `{
	"status": "ok",
	"totalResults": 2,
	"articles": [
		{
			"source": {"id": "bbc-news", "name": "BBC News"},
			"title": "Chip makers rally",
			"description": "Semiconductor stocks climb",
			"url": "https://example.com/chips",
			"publishedAt": "2025-06-01T08:00:00Z",
			"content": "Full content here"
		},
		{
			"source": {"id": null, "name": ""},
			"title": "",
			"description": "",
			"url": "https://example.com/two",
			"publishedAt": "2025-06-01T09:00:00Z",
			"content": ""
		}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient("test-key", WithBaseURL(server.URL), WithHTTPClient(server.Client())), server
}

func TestTopHeadlines_Success(t *testing.T) {
	var gotQuery url.Values
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		assert.Equal(t, "/top-headlines", r.URL.Path)
		w.Write([]byte(sampleResponse))
	})

	articles, err := client.TopHeadlines(context.Background(), HeadlinesRequest{
		Category: "technology",
		Count:    5,
		Country:  "us",
	})
	require.NoError(t, err)
	require.Len(t, articles, 2)

	assert.Equal(t, "Chip makers rally", articles[0].Title)
	assert.Equal(t, "BBC News", articles[0].Source)
	assert.Equal(t, "No title", articles[1].Title)
	assert.Equal(t, "Unknown source", articles[1].Source)

	assert.Equal(t, "technology", gotQuery.Get("category"))
	assert.Equal(t, "us", gotQuery.Get("country"))
	assert.Equal(t, "5", gotQuery.Get("pageSize"))
	assert.Equal(t, "en", gotQuery.Get("language"))
}

// NewsAPI rejects sources mixed with country or category, so the client
// drops both when sources is set.
func TestTopHeadlines_SourcesExcludeCountryAndCategory(t *testing.T) {
	var gotQuery url.Values
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"status":"ok","articles":[]}`))
	})

	_, err := client.TopHeadlines(context.Background(), HeadlinesRequest{
		Category: "business",
		Country:  "us",
		Sources:  "bbc-news,cnn",
	})
	require.NoError(t, err)

	assert.Equal(t, "bbc-news,cnn", gotQuery.Get("sources"))
	assert.Empty(t, gotQuery.Get("country"))
	assert.Empty(t, gotQuery.Get("category"))
}

func TestTopHeadlines_CountClamped(t *testing.T) {
	var gotQuery url.Values
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"status":"ok","articles":[]}`))
	})

	_, err := client.TopHeadlines(context.Background(), HeadlinesRequest{Count: 50})
	require.NoError(t, err)
	assert.Equal(t, "10", gotQuery.Get("pageSize"))

	_, err = client.TopHeadlines(context.Background(), HeadlinesRequest{Count: 0})
	require.NoError(t, err)
	assert.Equal(t, "1", gotQuery.Get("pageSize"))
}

func TestTopHeadlines_RateLimitIsTransient(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := client.TopHeadlines(context.Background(), HeadlinesRequest{Category: "general"})
	require.Error(t, err)
	assert.True(t, pipeline.IsTransient(err))

	var cerr *ClientError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, http.StatusTooManyRequests, cerr.StatusCode)
}

func TestTopHeadlines_ServerErrorIsTransient(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	_, err := client.TopHeadlines(context.Background(), HeadlinesRequest{})
	require.Error(t, err)
	assert.True(t, pipeline.IsTransient(err))
}

func TestTopHeadlines_UnauthorizedIsPermanent(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	})

	_, err := client.TopHeadlines(context.Background(), HeadlinesRequest{})
	require.Error(t, err)
	assert.False(t, pipeline.IsTransient(err))
}

func TestTopHeadlines_MissingKeyIsPermanent(t *testing.T) {
	client := NewClient("")
	_, err := client.TopHeadlines(context.Background(), HeadlinesRequest{})
	require.Error(t, err)
	assert.False(t, pipeline.IsTransient(err))
	assert.Contains(t, err.Error(), "missing NewsAPI key")
}

func TestTopHeadlines_APIErrorEnvelope(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","code":"parameterInvalid","message":"bad category"}`))
	})

	_, err := client.TopHeadlines(context.Background(), HeadlinesRequest{Category: "nope"})
	require.Error(t, err)
	assert.False(t, pipeline.IsTransient(err))
	assert.Contains(t, err.Error(), "parameterInvalid")
}
