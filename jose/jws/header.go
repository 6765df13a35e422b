/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jws

import (
	"encoding/json"
	"fmt"

	"github.com/anchorid/identity-go/jose/jwk"
)

// Registered JOSE header names handled as typed fields.
const (
	HeaderAlgorithm   = "alg"
	HeaderB64         = "b64"
	HeaderCritical    = "crit"
	HeaderKeyID       = "kid"
	HeaderType        = "typ"
	HeaderContentType = "cty"
	HeaderNonce       = "nonce"
	HeaderURL         = "url"
	HeaderJWK         = "jwk"
)

// Header is a JOSE header (RFC 7515 section 4). Custom holds claims outside
// the registered set.
type Header struct {
	Alg    string
	B64    *bool
	Crit   []string
	Kid    string
	Typ    string
	Cty    string
	Nonce  string
	URL    string
	JWK    *jwk.JWK
	Custom map[string]interface{}
}

// Has reports whether the header carries the named claim.
func (h *Header) Has(name string) bool {
	switch name {
	case HeaderAlgorithm:
		return h.Alg != ""
	case HeaderB64:
		return h.B64 != nil
	case HeaderCritical:
		return h.Crit != nil
	case HeaderKeyID:
		return h.Kid != ""
	case HeaderType:
		return h.Typ != ""
	case HeaderContentType:
		return h.Cty != ""
	case HeaderNonce:
		return h.Nonce != ""
	case HeaderURL:
		return h.URL != ""
	case HeaderJWK:
		return h.JWK != nil
	}

	_, ok := h.Custom[name]

	return ok
}

// claimNames returns the names of all claims present in the header.
func (h *Header) claimNames() []string {
	var names []string

	for _, name := range []string{
		HeaderAlgorithm, HeaderB64, HeaderCritical, HeaderKeyID,
		HeaderType, HeaderContentType, HeaderNonce, HeaderURL, HeaderJWK,
	} {
		if h.Has(name) {
			names = append(names, name)
		}
	}

	for name := range h.Custom {
		names = append(names, name)
	}

	return names
}

// Merge combines a protected and an unprotected header into one view.
// The headers must be disjoint: any claim name present in both is an error,
// not a silent override.
func Merge(protected, unprotected *Header) (*Header, error) {
	if protected == nil {
		protected = &Header{}
	}

	if unprotected == nil {
		return protected, nil
	}

	for _, name := range unprotected.claimNames() {
		if protected.Has(name) {
			return nil, fmt.Errorf("protected and unprotected headers are not disjoint: duplicate claim %q", name)
		}
	}

	merged := *protected

	if unprotected.Alg != "" {
		merged.Alg = unprotected.Alg
	}

	if unprotected.B64 != nil {
		merged.B64 = unprotected.B64
	}

	if unprotected.Crit != nil {
		merged.Crit = unprotected.Crit
	}

	if unprotected.Kid != "" {
		merged.Kid = unprotected.Kid
	}

	if unprotected.Typ != "" {
		merged.Typ = unprotected.Typ
	}

	if unprotected.Cty != "" {
		merged.Cty = unprotected.Cty
	}

	if unprotected.Nonce != "" {
		merged.Nonce = unprotected.Nonce
	}

	if unprotected.URL != "" {
		merged.URL = unprotected.URL
	}

	if unprotected.JWK != nil {
		merged.JWK = unprotected.JWK
	}

	if len(unprotected.Custom) > 0 {
		custom := make(map[string]interface{}, len(protected.Custom)+len(unprotected.Custom))

		for k, v := range protected.Custom {
			custom[k] = v
		}

		for k, v := range unprotected.Custom {
			custom[k] = v
		}

		merged.Custom = custom
	}

	return &merged, nil
}

type rawHeader struct {
	Alg   string   `json:"alg,omitempty"`
	B64   *bool    `json:"b64,omitempty"`
	Crit  []string `json:"crit,omitempty"`
	Kid   string   `json:"kid,omitempty"`
	Typ   string   `json:"typ,omitempty"`
	Cty   string   `json:"cty,omitempty"`
	Nonce string   `json:"nonce,omitempty"`
	URL   string   `json:"url,omitempty"`
	JWK   *jwk.JWK `json:"jwk,omitempty"`
}

var registeredNames = map[string]struct{}{
	HeaderAlgorithm: {}, HeaderB64: {}, HeaderCritical: {}, HeaderKeyID: {},
	HeaderType: {}, HeaderContentType: {}, HeaderNonce: {}, HeaderURL: {}, HeaderJWK: {},
}

// MarshalJSON serializes the registered fields plus any custom claims.
func (h *Header) MarshalJSON() ([]byte, error) {
	raw := rawHeader{
		Alg: h.Alg, B64: h.B64, Crit: h.Crit, Kid: h.Kid,
		Typ: h.Typ, Cty: h.Cty, Nonce: h.Nonce, URL: h.URL, JWK: h.JWK,
	}

	if len(h.Custom) == 0 {
		return json.Marshal(raw)
	}

	base, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}

	var merged map[string]interface{}
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}

	for k, v := range h.Custom {
		if _, registered := registeredNames[k]; registered {
			return nil, fmt.Errorf("custom claim %q shadows a registered header field", k)
		}

		merged[k] = v
	}

	return json.Marshal(merged)
}

// UnmarshalJSON deserializes registered fields and collects the remainder
// into Custom.
func (h *Header) UnmarshalJSON(data []byte) error {
	var raw rawHeader
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var all map[string]interface{}
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	out := Header{
		Alg: raw.Alg, B64: raw.B64, Crit: raw.Crit, Kid: raw.Kid,
		Typ: raw.Typ, Cty: raw.Cty, Nonce: raw.Nonce, URL: raw.URL, JWK: raw.JWK,
	}

	for k, v := range all {
		if _, registered := registeredNames[k]; registered {
			continue
		}

		if out.Custom == nil {
			out.Custom = make(map[string]interface{})
		}

		out.Custom[k] = v
	}

	*h = out

	return nil
}
