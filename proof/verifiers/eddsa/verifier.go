/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package eddsa verifies EdDSA signatures over Ed25519 OKP keys.
package eddsa

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/anchorid/identity-go/jose/jwk"
	"github.com/anchorid/identity-go/proof"
)

// Verifier verifies an Ed25519 signature taking an OKP JWK as input.
type Verifier struct {
}

// New creates a new EdDSA Verifier.
func New() *Verifier {
	return &Verifier{}
}

// Alg returns the JWS algorithm this verifier handles.
func (sv *Verifier) Alg() string {
	return proof.AlgEdDSA
}

// Verify verifies the signature.
func (sv *Verifier) Verify(input proof.VerificationInput, key *jwk.JWK) error {
	if input.Alg != proof.AlgEdDSA {
		return proof.ErrUnsupportedAlg
	}

	pub, err := PublicKeyBytes(key)
	if err != nil {
		return err
	}

	if !ed25519.Verify(pub, input.SigningInput, input.Signature) {
		return fmt.Errorf("eddsa: %w", proof.ErrInvalidSignature)
	}

	return nil
}

// PublicKeyBytes extracts Ed25519 public key bytes from an OKP JWK.
func PublicKeyBytes(key *jwk.JWK) (ed25519.PublicKey, error) {
	if key.OKP == nil {
		return nil, fmt.Errorf("eddsa: expected %q key, got %q", jwk.TypeOKP, key.Kty)
	}

	if key.OKP.Crv != "Ed25519" {
		return nil, fmt.Errorf("eddsa: unsupported curve %q", key.OKP.Crv)
	}

	pub, err := base64.RawURLEncoding.DecodeString(key.OKP.X)
	if err != nil {
		return nil, fmt.Errorf("eddsa: decode x: %w", err)
	}

	// ed25519 panics if key size is wrong
	if len(pub) != ed25519.PublicKeySize {
		return nil, errors.New("eddsa: invalid key size")
	}

	return pub, nil
}
