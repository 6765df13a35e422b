/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package mldsa verifies ML-DSA (FIPS 204) signatures over AKP JWKs.
package mldsa

import (
	"encoding/base64"
	"fmt"

	"github.com/cloudflare/circl/sign/mldsa/mldsa44"
	"github.com/cloudflare/circl/sign/mldsa/mldsa65"
	"github.com/cloudflare/circl/sign/mldsa/mldsa87"

	"github.com/anchorid/identity-go/jose/jwk"
	"github.com/anchorid/identity-go/proof"
)

// Verifier verifies one ML-DSA parameter set.
type Verifier struct {
	alg    string
	verify func(pub, msg, sig []byte) error
}

// Alg returns the JWS algorithm this verifier handles.
func (sv *Verifier) Alg() string {
	return sv.alg
}

// Verify verifies the signature.
func (sv *Verifier) Verify(input proof.VerificationInput, key *jwk.JWK) error {
	if input.Alg != sv.alg {
		return proof.ErrUnsupportedAlg
	}

	pub, err := PublicKeyBytes(key)
	if err != nil {
		return err
	}

	return sv.verify(pub, input.SigningInput, input.Signature)
}

// PublicKeyBytes extracts the public key bytes from an AKP JWK.
func PublicKeyBytes(key *jwk.JWK) ([]byte, error) {
	if key.AKP == nil {
		return nil, fmt.Errorf("mldsa: expected %q key, got %q", jwk.TypeAKP, key.Kty)
	}

	pub, err := base64.RawURLEncoding.DecodeString(key.AKP.Pub)
	if err != nil {
		return nil, fmt.Errorf("mldsa: decode pub: %w", err)
	}

	return pub, nil
}

// New44 creates a verifier for ML-DSA-44.
func New44() *Verifier {
	return &Verifier{
		alg: proof.AlgMLDSA44,
		verify: func(pub, msg, sig []byte) error {
			var pk mldsa44.PublicKey
			if err := pk.UnmarshalBinary(pub); err != nil {
				return fmt.Errorf("mldsa: parse public key: %w", err)
			}

			if !mldsa44.Verify(&pk, msg, nil, sig) {
				return fmt.Errorf("mldsa: %w", proof.ErrInvalidSignature)
			}

			return nil
		},
	}
}

// New65 creates a verifier for ML-DSA-65.
func New65() *Verifier {
	return &Verifier{
		alg: proof.AlgMLDSA65,
		verify: func(pub, msg, sig []byte) error {
			var pk mldsa65.PublicKey
			if err := pk.UnmarshalBinary(pub); err != nil {
				return fmt.Errorf("mldsa: parse public key: %w", err)
			}

			if !mldsa65.Verify(&pk, msg, nil, sig) {
				return fmt.Errorf("mldsa: %w", proof.ErrInvalidSignature)
			}

			return nil
		},
	}
}

// New87 creates a verifier for ML-DSA-87.
func New87() *Verifier {
	return &Verifier{
		alg: proof.AlgMLDSA87,
		verify: func(pub, msg, sig []byte) error {
			var pk mldsa87.PublicKey
			if err := pk.UnmarshalBinary(pub); err != nil {
				return fmt.Errorf("mldsa: parse public key: %w", err)
			}

			if !mldsa87.Verify(&pk, msg, nil, sig) {
				return fmt.Errorf("mldsa: %w", proof.ErrInvalidSignature)
			}

			return nil
		},
	}
}
