/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"errors"
	"fmt"

	"github.com/anchorid/identity-go/jose/jws"
	"github.com/anchorid/identity-go/proof"
)

// Errors returned from JWS verification against a DID Document.
var (
	ErrMethodNotFound    = errors.New("verification method not found")
	ErrInvalidMethodType = errors.New("verification method cannot supply a verification key")
)

// JWSVerificationOptions steers Document.VerifyJWS.
type JWSVerificationOptions struct {
	// MethodScope restricts the kid lookup to one capability relationship.
	MethodScope MethodScope
	// MethodID overrides the token's kid as the method query.
	MethodID string
	// Nonce, when set, must match the protected header's nonce.
	Nonce string
	// DetachedPayload supplies the payload for detached tokens.
	DetachedPayload []byte
	// RecognizedCrit extends the set of accepted crit header names.
	RecognizedCrit []string
}

// VerifyJWS verifies a compact JWS whose signing key is a verification
// method of the document. The method is located by the token's kid, or by
// opts.MethodID when set, and its public key is handed to the verifier.
func (d *Document) VerifyJWS(token string, verifier proof.Verifier, opts *JWSVerificationOptions) (*jws.Decoded, error) {
	if opts == nil {
		opts = &JWSVerificationOptions{}
	}

	parseOpts := make([]jws.ParseOpt, 0, 2)
	if opts.DetachedPayload != nil {
		parseOpts = append(parseOpts, jws.WithDetachedPayload(opts.DetachedPayload))
	}

	if len(opts.RecognizedCrit) > 0 {
		parseOpts = append(parseOpts, jws.WithRecognizedCrit(opts.RecognizedCrit...))
	}

	item, err := jws.Parse(token, parseOpts...)
	if err != nil {
		return nil, err
	}

	if opts.Nonce != "" && item.Nonce() != opts.Nonce {
		return nil, fmt.Errorf("jws nonce mismatch")
	}

	query := opts.MethodID
	if query == "" {
		query = item.Kid()
	}

	if query == "" {
		return nil, fmt.Errorf("%w: no kid in protected header and no method id given", ErrMethodNotFound)
	}

	method := d.ResolveMethod(query, opts.MethodScope)
	if method == nil {
		return nil, fmt.Errorf("%w: %q (scope %s)", ErrMethodNotFound, query, opts.MethodScope)
	}

	key, err := method.JWK()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMethodType, err)
	}

	return item.Verify(verifier, key)
}
