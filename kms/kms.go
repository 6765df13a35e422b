/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package kms manages signing keys and exposes them as JWS signers without
// releasing private key material to callers.
package kms

import (
	"errors"

	"github.com/anchorid/identity-go/jose/jwk"
)

// Store errors.
var (
	ErrKeyNotFound    = errors.New("key not found")
	ErrUnsupportedAlg = errors.New("unsupported key algorithm")
)

// Store generates and holds signing keys. Keys never leave the store; all
// signing goes through Sign.
type Store interface {
	// Generate creates a key for the given JWS algorithm and returns its
	// id and public JWK.
	Generate(alg string) (string, *jwk.JWK, error)
	// Sign signs data with the identified key, producing a signature in
	// the JWS form for the key's algorithm.
	Sign(keyID string, data []byte) ([]byte, error)
	// PublicKey returns the public JWK of the identified key.
	PublicKey(keyID string) (*jwk.JWK, error)
	// Exists reports whether the identified key is held by the store.
	Exists(keyID string) bool
}
