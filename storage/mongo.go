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

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/aaronlmathis/agenttoast/news"
)

// ArticleCacheError provides structured error information for cache operations.
type ArticleCacheError struct {
	Op       string // Operation that failed (e.g., "connect", "get", "put")
	Category string // Category being accessed when the error occurred
	Err      error  // Underlying error
}

func (e *ArticleCacheError) Error() string {
	if e.Category != "" {
		return fmt.Sprintf("article cache %s [%s]: %v", e.Op, e.Category, e.Err)
	}
	return fmt.Sprintf("article cache %s: %v", e.Op, e.Err)
}

func (e *ArticleCacheError) Unwrap() error {
	return e.Err
}

// ArticleCacheOptions configures the MongoDB article cache.
type ArticleCacheOptions struct {
	URI            string        // MongoDB connection URI
	Database       string        // Database name
	Collection     string        // Collection name
	ConnectTimeout time.Duration // Timeout for the initial connect and ping
	OpTimeout      time.Duration // Timeout applied per operation
	MaxPoolSize    uint64        // Connection pool size
}

// ArticleCacheOption configures ArticleCacheOptions.
type ArticleCacheOption func(*ArticleCacheOptions)

// WithCacheURI sets the MongoDB connection URI.
func WithCacheURI(uri string) ArticleCacheOption {
	return func(opts *ArticleCacheOptions) {
		opts.URI = uri
	}
}

// WithCacheDatabase sets the database name.
func WithCacheDatabase(database string) ArticleCacheOption {
	return func(opts *ArticleCacheOptions) {
		opts.Database = database
	}
}

// WithCacheCollection sets the collection name.
func WithCacheCollection(collection string) ArticleCacheOption {
	return func(opts *ArticleCacheOptions) {
		opts.Collection = collection
	}
}

// WithCacheTimeouts sets the connect and per-operation timeouts.
func WithCacheTimeouts(connect, op time.Duration) ArticleCacheOption {
	return func(opts *ArticleCacheOptions) {
		opts.ConnectTimeout = connect
		opts.OpTimeout = op
	}
}

// WithCachePoolSize sets the connection pool size.
func WithCachePoolSize(size uint64) ArticleCacheOption {
	return func(opts *ArticleCacheOptions) {
		opts.MaxPoolSize = size
	}
}

// cachedHeadlines is the stored document, one per category.
type cachedHeadlines struct {
	Category  string         `bson:"_id"`
	Articles  []news.Article `bson:"articles"`
	FetchedAt time.Time      `bson:"fetched_at"`
}

// ArticleCache is a read-through cache of fetched headlines keyed by
// category, so repeated runs within a window do not hit the news API.
type ArticleCache struct {
	client *mongo.Client
	coll   *mongo.Collection
	opts   ArticleCacheOptions
}

// buildClientOptions constructs MongoDB client options from cache configuration.
func buildClientOptions(opts ArticleCacheOptions) *options.ClientOptions {
	return options.Client().
		ApplyURI(opts.URI).
		SetMaxPoolSize(opts.MaxPoolSize).
		SetConnectTimeout(opts.ConnectTimeout)
}

// NewArticleCache connects to MongoDB and verifies the connection.
func NewArticleCache(ctx context.Context, options ...ArticleCacheOption) (*ArticleCache, error) {
	opts := ArticleCacheOptions{
		Database:       "agenttoast",
		Collection:     "headlines",
		ConnectTimeout: 10 * time.Second,
		OpTimeout:      5 * time.Second,
		MaxPoolSize:    10,
	}
	for _, option := range options {
		option(&opts)
	}
	if opts.URI == "" {
		return nil, &ArticleCacheError{Op: "validate", Err: fmt.Errorf("URI is required")}
	}

	clientOpts := buildClientOptions(opts)

	connectCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOpts)
	if err != nil {
		return nil, &ArticleCacheError{Op: "connect", Err: err}
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, &ArticleCacheError{Op: "connect", Err: err}
	}

	return &ArticleCache{
		client: client,
		coll:   client.Database(opts.Database).Collection(opts.Collection),
		opts:   opts,
	}, nil
}

// Get returns the cached articles for a category if they were fetched
// within maxAge. The second return is false on a miss or a stale entry.
func (c *ArticleCache) Get(ctx context.Context, category string, maxAge time.Duration) ([]news.Article, bool, error) {
	opCtx, cancel := context.WithTimeout(ctx, c.opts.OpTimeout)
	defer cancel()

	var doc cachedHeadlines
	err := c.coll.FindOne(opCtx, bson.M{"_id": category}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &ArticleCacheError{Op: "get", Category: category, Err: err}
	}
	if time.Since(doc.FetchedAt) > maxAge {
		return nil, false, nil
	}
	return doc.Articles, true, nil
}

// Put stores the articles for a category, replacing any previous entry.
func (c *ArticleCache) Put(ctx context.Context, category string, articles []news.Article) error {
	opCtx, cancel := context.WithTimeout(ctx, c.opts.OpTimeout)
	defer cancel()

	doc := cachedHeadlines{
		Category:  category,
		Articles:  articles,
		FetchedAt: time.Now(),
	}
	_, err := c.coll.ReplaceOne(opCtx, bson.M{"_id": category}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return &ArticleCacheError{Op: "put", Category: category, Err: err}
	}
	return nil
}

// Close disconnects from MongoDB.
func (c *ArticleCache) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
