/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package resolver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/anchorid/identity-go/did"
	"github.com/anchorid/identity-go/jose/jwk"
)

// JWKHandler resolves did:jwk identifiers. The method-specific id is the
// base64url encoding of a JWK; the document carries that key as its single
// verification method "#0".
type JWKHandler struct{}

// NewJWKHandler creates a did:jwk handler.
func NewJWKHandler() *JWKHandler {
	return &JWKHandler{}
}

// Method implements Handler.
func (h *JWKHandler) Method() string {
	return "jwk"
}

// Resolve implements Handler. The capability relationships follow the key's
// use parameter: "sig" keys serve everything but key agreement, "enc" keys
// only key agreement, and unrestricted keys serve all relationships.
func (h *JWKHandler) Resolve(_ context.Context, d *did.DID) (*did.Document, error) {
	raw, err := base64.RawURLEncoding.DecodeString(d.MethodSpecificID)
	if err != nil {
		return nil, fmt.Errorf("decode did:jwk id: %w", err)
	}

	key := &jwk.JWK{}
	if err := json.Unmarshal(raw, key); err != nil {
		return nil, fmt.Errorf("decode did:jwk id: %w", err)
	}

	methodID := d.String() + "#0"
	ref := []did.MethodRef{{Ref: methodID}}

	doc := &did.Document{
		Context: []interface{}{"https://www.w3.org/ns/did/v1"},
		ID:      d.String(),
		VerificationMethod: []*did.VerificationMethod{{
			ID:           methodID,
			Type:         did.TypeJSONWebKey2020,
			Controller:   d.String(),
			PublicKeyJwk: key,
		}},
	}

	switch key.Use {
	case "sig":
		doc.Authentication = ref
		doc.AssertionMethod = ref
		doc.CapabilityInvocation = ref
		doc.CapabilityDelegation = ref
	case "enc":
		doc.KeyAgreement = ref
	default:
		doc.Authentication = ref
		doc.AssertionMethod = ref
		doc.KeyAgreement = ref
		doc.CapabilityInvocation = ref
		doc.CapabilityDelegation = ref
	}

	return doc, nil
}
