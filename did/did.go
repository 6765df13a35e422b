/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package did implements Decentralized Identifiers and DID Documents per
// the W3C DID Core data model.
package did

import (
	"fmt"
	"strings"
)

// DID is a parsed Decentralized Identifier: did:<method>:<method-specific-id>.
type DID struct {
	Method           string
	MethodSpecificID string
}

// Parse parses a DID string.
func Parse(s string) (*DID, error) {
	const prefix = "did:"

	if !strings.HasPrefix(s, prefix) {
		return nil, fmt.Errorf("invalid did %q: missing did: prefix", s)
	}

	rest := s[len(prefix):]

	idx := strings.Index(rest, ":")
	if idx <= 0 || idx == len(rest)-1 {
		return nil, fmt.Errorf("invalid did %q: expected did:<method>:<id>", s)
	}

	method := rest[:idx]
	for _, r := range method {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return nil, fmt.Errorf("invalid did %q: invalid method name %q", s, method)
		}
	}

	return &DID{Method: method, MethodSpecificID: rest[idx+1:]}, nil
}

// MethodOf extracts the method name of a DID string without a full parse.
func MethodOf(s string) (string, error) {
	d, err := Parse(s)
	if err != nil {
		return "", err
	}

	return d.Method, nil
}

// String returns the DID in its URI form.
func (d *DID) String() string {
	return "did:" + d.Method + ":" + d.MethodSpecificID
}

// URL is a DID URL: a DID plus optional path, query and fragment.
type URL struct {
	DID      DID
	Path     string
	Query    string
	Fragment string
}

// ParseURL parses an absolute DID URL.
func ParseURL(s string) (*URL, error) {
	base := s

	var fragment, query, path string

	if idx := strings.Index(base, "#"); idx >= 0 {
		fragment = base[idx+1:]
		base = base[:idx]
	}

	if idx := strings.Index(base, "?"); idx >= 0 {
		query = base[idx+1:]
		base = base[:idx]
	}

	if idx := strings.Index(base, "/"); idx >= 0 {
		path = base[idx:]
		base = base[:idx]
	}

	d, err := Parse(base)
	if err != nil {
		return nil, err
	}

	return &URL{DID: *d, Path: path, Query: query, Fragment: fragment}, nil
}

// String returns the DID URL in its URI form.
func (u *URL) String() string {
	var b strings.Builder

	b.WriteString(u.DID.String())
	b.WriteString(u.Path)

	if u.Query != "" {
		b.WriteByte('?')
		b.WriteString(u.Query)
	}

	if u.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(u.Fragment)
	}

	return b.String()
}

// splitQuery splits a method query into its DID part and fragment. The DID
// part is empty for relative queries such as "#key-1".
func splitQuery(query string) (string, string) {
	idx := strings.Index(query, "#")

	switch {
	case idx < 0:
		return query, ""
	case idx == 0:
		return "", query[1:]
	default:
		return query[:idx], query[idx+1:]
	}
}
