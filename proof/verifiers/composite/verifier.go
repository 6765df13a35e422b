/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package composite verifies hybrid post-quantum/traditional signatures
// (id-MLDSA44-Ed25519, id-MLDSA65-Ed25519) over composite JWKs.
package composite

import (
	"crypto/ed25519"
	"fmt"

	"github.com/anchorid/identity-go/jose/jwk"
	"github.com/anchorid/identity-go/proof"
	"github.com/anchorid/identity-go/proof/verifiers/eddsa"
	"github.com/anchorid/identity-go/proof/verifiers/mldsa"
)

// Domain separators are the DER-encoded composite algorithm identifiers;
// both component signatures cover domain || signing-input.
var domains = map[string][]byte{
	proof.AlgMLDSA44Ed25519: {0x06, 0x0B, 0x60, 0x86, 0x48, 0x01, 0x86, 0xFA, 0x6B, 0x50, 0x08, 0x01, 0x3E},
	proof.AlgMLDSA65Ed25519: {0x06, 0x0B, 0x60, 0x86, 0x48, 0x01, 0x86, 0xFA, 0x6B, 0x50, 0x08, 0x01, 0x47},
}

// ML-DSA signature lengths fix the split point of the concatenated
// composite signature.
var mldsaSigSizes = map[string]int{
	proof.AlgMLDSA44Ed25519: 2420,
	proof.AlgMLDSA65Ed25519: 3309,
}

// Domain returns the domain separator for a composite algorithm.
func Domain(alg string) ([]byte, bool) {
	domain, ok := domains[alg]

	return domain, ok
}

var mldsaAlgs = map[string]string{
	proof.AlgMLDSA44Ed25519: proof.AlgMLDSA44,
	proof.AlgMLDSA65Ed25519: proof.AlgMLDSA65,
}

// Verifier verifies a composite signature: the ML-DSA half and the Ed25519
// half must both verify under their respective component keys.
type Verifier struct {
	alg string

	mldsaVerifier *mldsa.Verifier
	eddsaVerifier *eddsa.Verifier
}

// NewMLDSA44Ed25519 creates a verifier for id-MLDSA44-Ed25519.
func NewMLDSA44Ed25519() *Verifier {
	return &Verifier{
		alg:           proof.AlgMLDSA44Ed25519,
		mldsaVerifier: mldsa.New44(),
		eddsaVerifier: eddsa.New(),
	}
}

// NewMLDSA65Ed25519 creates a verifier for id-MLDSA65-Ed25519.
func NewMLDSA65Ed25519() *Verifier {
	return &Verifier{
		alg:           proof.AlgMLDSA65Ed25519,
		mldsaVerifier: mldsa.New65(),
		eddsaVerifier: eddsa.New(),
	}
}

// Alg returns the JWS algorithm this verifier handles.
func (sv *Verifier) Alg() string {
	return sv.alg
}

// Verify verifies the concatenated composite signature.
func (sv *Verifier) Verify(input proof.VerificationInput, key *jwk.JWK) error {
	if input.Alg != sv.alg {
		return proof.ErrUnsupportedAlg
	}

	if key.CMP == nil {
		return fmt.Errorf("composite: expected %q key, got %q", jwk.TypeCMP, key.Kty)
	}

	if key.CMP.AlgID != sv.alg {
		return fmt.Errorf("composite: key algId %q does not match %q", key.CMP.AlgID, sv.alg)
	}

	split := mldsaSigSizes[sv.alg]
	if len(input.Signature) != split+ed25519.SignatureSize {
		return fmt.Errorf("composite: invalid signature size %d", len(input.Signature))
	}

	message := append(append([]byte(nil), domains[sv.alg]...), input.SigningInput...)

	err := sv.mldsaVerifier.Verify(proof.VerificationInput{
		Alg:          mldsaAlgs[sv.alg],
		SigningInput: message,
		Signature:    input.Signature[:split],
	}, key.CMP.PostQuantumPublicKey)
	if err != nil {
		return fmt.Errorf("composite: post-quantum component: %w", err)
	}

	err = sv.eddsaVerifier.Verify(proof.VerificationInput{
		Alg:          proof.AlgEdDSA,
		SigningInput: message,
		Signature:    input.Signature[split:],
	}, key.CMP.TraditionalPublicKey)
	if err != nil {
		return fmt.Errorf("composite: traditional component: %w", err)
	}

	return nil
}
