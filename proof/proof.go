/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package proof defines the signature verification contract shared by all
// algorithm implementations.
package proof

import (
	"errors"

	"github.com/anchorid/identity-go/jose/jwk"
)

// JWS algorithm identifiers supported by the shipped verifiers. The set is
// string-keyed so post-quantum and composite algorithms extend it without
// breaking existing decode paths.
const (
	AlgEdDSA  = "EdDSA"
	AlgES256  = "ES256"
	AlgES256K = "ES256K"
	AlgES384  = "ES384"
	AlgES512  = "ES512"

	AlgMLDSA44 = "ML-DSA-44"
	AlgMLDSA65 = "ML-DSA-65"
	AlgMLDSA87 = "ML-DSA-87"

	AlgMLDSA44Ed25519 = "id-MLDSA44-Ed25519"
	AlgMLDSA65Ed25519 = "id-MLDSA65-Ed25519"
)

var (
	// ErrUnsupportedAlg is returned when no verifier handles the asserted
	// algorithm.
	ErrUnsupportedAlg = errors.New("unsupported jws algorithm")
	// ErrInvalidSignature is returned when the signature does not verify
	// under the given key.
	ErrInvalidSignature = errors.New("invalid signature")
)

// VerificationInput carries everything a verifier needs. Alg is asserted by
// the caller; verifiers must never read the algorithm out of a token header
// on their own, so that a key bound to one algorithm can never be
// reinterpreted under another.
type VerificationInput struct {
	Alg          string
	SigningInput []byte
	Signature    []byte
}

// Verifier verifies a signature over the signing input against a public key.
type Verifier interface {
	Verify(input VerificationInput, key *jwk.JWK) error
}

// VerifierFunc adapts a function to the Verifier interface.
type VerifierFunc func(input VerificationInput, key *jwk.JWK) error

// Verify calls the wrapped function.
func (f VerifierFunc) Verify(input VerificationInput, key *jwk.JWK) error {
	return f(input, key)
}
