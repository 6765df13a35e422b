/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package kms

import (
	"fmt"
)

// Signer binds one stored key into the jws.Signer shape.
type Signer struct {
	store Store
	keyID string
	alg   string
}

// NewSigner creates a Signer for a stored key. The key must exist.
func NewSigner(store Store, keyID string) (*Signer, error) {
	public, err := store.PublicKey(keyID)
	if err != nil {
		return nil, err
	}

	if public.Alg == "" {
		return nil, fmt.Errorf("key %q has no bound algorithm", keyID)
	}

	return &Signer{store: store, keyID: keyID, alg: public.Alg}, nil
}

// Alg returns the JWS algorithm of the underlying key.
func (s *Signer) Alg() string {
	return s.alg
}

// KeyID returns the store id of the underlying key.
func (s *Signer) KeyID() string {
	return s.keyID
}

// Sign implements jws.Signer.
func (s *Signer) Sign(data []byte) ([]byte, error) {
	return s.store.Sign(s.keyID, data)
}
