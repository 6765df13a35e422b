/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package status

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/anchorid/identity-go/verifiable"
)

// HTTPListResolver fetches status list credentials over HTTP(S).
type HTTPListResolver struct {
	client *http.Client
}

// HTTPListResolverOpt configures an HTTPListResolver.
type HTTPListResolverOpt func(r *HTTPListResolver)

// WithHTTPClient replaces the HTTP client, for timeouts or transports.
func WithHTTPClient(client *http.Client) HTTPListResolverOpt {
	return func(r *HTTPListResolver) {
		r.client = client
	}
}

// NewHTTPListResolver creates a resolver using http.DefaultClient unless
// one is supplied.
func NewHTTPListResolver(opts ...HTTPListResolverOpt) *HTTPListResolver {
	r := &HTTPListResolver{client: http.DefaultClient}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve fetches and parses the status list credential at the given URL.
func (r *HTTPListResolver) Resolve(ctx context.Context, url string) (*verifiable.Credential, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch status list: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch status list: %w", err)
	}

	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch status list %q: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read status list: %w", err)
	}

	listVC, err := verifiable.ParseCredentialJSON(body)
	if err != nil {
		return nil, fmt.Errorf("parse status list credential: %w", err)
	}

	return listVC, nil
}
