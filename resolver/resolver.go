/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package resolver dispatches DID resolution to per-method handlers.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/anchorid/identity-go/did"
)

// ErrUnsupportedMethod indicates no handler is attached for a DID's method.
var ErrUnsupportedMethod = errors.New("unsupported did method")

// Handler resolves DIDs of a single method to their documents.
type Handler interface {
	// Method returns the method name the handler serves, without the
	// "did:" prefix.
	Method() string
	// Resolve resolves a DID of the handler's method.
	Resolve(ctx context.Context, d *did.DID) (*did.Document, error)
}

// Resolver routes resolution requests to attached method handlers. A
// resolver with no handlers rejects everything; attach handlers before use.
type Resolver struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	cache    *lru.Cache[string, *did.Document]
}

// Opt configures a Resolver.
type Opt func(r *Resolver)

// WithCacheSize enables an LRU document cache. Cached documents are shared
// between callers and must not be mutated.
func WithCacheSize(size int) Opt {
	return func(r *Resolver) {
		cache, err := lru.New[string, *did.Document](size)
		if err != nil {
			panic(err)
		}

		r.cache = cache
	}
}

// WithHandlers attaches handlers at construction.
func WithHandlers(handlers ...Handler) Opt {
	return func(r *Resolver) {
		for _, h := range handlers {
			r.handlers[h.Method()] = h
		}
	}
}

// New creates a Resolver.
func New(opts ...Opt) *Resolver {
	r := &Resolver{handlers: map[string]Handler{}}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Attach registers a handler, replacing any previous handler for the same
// method.
func (r *Resolver) Attach(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[h.Method()] = h
}

// Resolve parses the DID, dispatches to the handler for its method and
// returns the resolved document.
func (r *Resolver) Resolve(ctx context.Context, didStr string) (*did.Document, error) {
	d, err := did.Parse(didStr)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if doc, ok := r.cache.Get(d.String()); ok {
			return doc, nil
		}
	}

	r.mu.RLock()
	handler, ok := r.handlers[d.Method]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, d.Method)
	}

	doc, err := handler.Resolve(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", d.String(), err)
	}

	if r.cache != nil {
		r.cache.Add(d.String(), doc)
	}

	return doc, nil
}
