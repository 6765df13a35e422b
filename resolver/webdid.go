/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package resolver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/anchorid/identity-go/did"
)

const (
	wellKnownPath = "/.well-known/did.json"
	documentPath  = "/did.json"
)

// WebHandler resolves did:web identifiers by fetching the DID document over
// HTTPS from the host and path encoded in the identifier.
type WebHandler struct {
	client  *http.Client
	useHTTP bool
}

// WebOpt configures a WebHandler.
type WebOpt func(h *WebHandler)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) WebOpt {
	return func(h *WebHandler) {
		h.client = client
	}
}

// WithHTTP switches document fetches to plain HTTP, for tests against local
// servers only.
func WithHTTP() WebOpt {
	return func(h *WebHandler) {
		h.useHTTP = true
	}
}

// NewWebHandler creates a did:web handler.
func NewWebHandler(opts ...WebOpt) *WebHandler {
	h := &WebHandler{client: http.DefaultClient}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Method implements Handler.
func (h *WebHandler) Method() string {
	return "web"
}

// Resolve implements Handler.
func (h *WebHandler) Resolve(ctx context.Context, d *did.DID) (*did.Document, error) {
	address, err := h.documentURL(d)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, address, nil)
	if err != nil {
		return nil, err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch did document: %w", err)
	}

	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch did document: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch did document: %w", err)
	}

	doc, err := did.ParseDocument(body)
	if err != nil {
		return nil, err
	}

	if doc.ID != d.String() {
		return nil, fmt.Errorf("did document id %q does not match %q", doc.ID, d.String())
	}

	return doc, nil
}

// documentURL maps a did:web identifier to its document location: the bare
// host serves /.well-known/did.json, a host with path components serves
// <path>/did.json.
func (h *WebHandler) documentURL(d *did.DID) (string, error) {
	components := strings.Split(d.MethodSpecificID, ":")

	host, err := url.QueryUnescape(components[0])
	if err != nil {
		return "", fmt.Errorf("invalid did:web host: %w", err)
	}

	scheme := "https://"
	if h.useHTTP {
		scheme = "http://"
	}

	if len(components) == 1 {
		return scheme + host + wellKnownPath, nil
	}

	return scheme + host + "/" + strings.Join(components[1:], "/") + documentPath, nil
}
