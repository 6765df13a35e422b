/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package ecdsa verifies ECDSA signatures (ES256, ES256K, ES384, ES512)
// over EC JWKs.
package ecdsa

import (
	"crypto"
	stdecdsa "crypto/ecdsa"
	"crypto/elliptic"
	"encoding/asn1"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/anchorid/identity-go/jose/jwk"
	"github.com/anchorid/identity-go/proof"
)

const (
	p256KeySize      = 32
	p384KeySize      = 48
	p521KeySize      = 66
	secp256k1KeySize = 32
)

type ellipticCurve struct {
	curve   elliptic.Curve
	keySize int
	hash    crypto.Hash
}

// Verifier verifies elliptic curve signatures for one JWS algorithm.
type Verifier struct {
	alg string
	crv string
	ec  ellipticCurve
}

// Alg returns the JWS algorithm this verifier handles.
func (sv *Verifier) Alg() string {
	return sv.alg
}

// Verify verifies the signature. Both raw r||s and ASN.1 DER signature
// encodings are accepted, mirroring the split between JOSE and DER-emitting
// signers in the wild.
func (sv *Verifier) Verify(input proof.VerificationInput, key *jwk.JWK) error {
	if input.Alg != sv.alg {
		return proof.ErrUnsupportedAlg
	}

	pub, err := sv.parseKey(key)
	if err != nil {
		return err
	}

	signature := input.Signature
	if len(signature) < 2*sv.ec.keySize {
		return errors.New("ecdsa: invalid signature size")
	}

	hasher := sv.ec.hash.New()

	if _, err := hasher.Write(input.SigningInput); err != nil {
		return errors.New("ecdsa: hash error")
	}

	hash := hasher.Sum(nil)

	r := big.NewInt(0).SetBytes(signature[:sv.ec.keySize])
	s := big.NewInt(0).SetBytes(signature[sv.ec.keySize:])

	if len(signature) > 2*sv.ec.keySize {
		var esig struct {
			R, S *big.Int
		}

		if _, err := asn1.Unmarshal(signature, &esig); err != nil {
			return err
		}

		r = esig.R
		s = esig.S
	}

	if !stdecdsa.Verify(pub, hash, r, s) {
		return fmt.Errorf("ecdsa: %w", proof.ErrInvalidSignature)
	}

	return nil
}

func (sv *Verifier) parseKey(key *jwk.JWK) (*stdecdsa.PublicKey, error) {
	if key.EC == nil {
		return nil, fmt.Errorf("ecdsa: expected %q key, got %q", jwk.TypeEC, key.Kty)
	}

	if key.EC.Crv != sv.crv {
		return nil, fmt.Errorf("ecdsa: expected curve %q, got %q", sv.crv, key.EC.Crv)
	}

	x, err := base64.RawURLEncoding.DecodeString(key.EC.X)
	if err != nil {
		return nil, fmt.Errorf("ecdsa: decode x: %w", err)
	}

	y, err := base64.RawURLEncoding.DecodeString(key.EC.Y)
	if err != nil {
		return nil, fmt.Errorf("ecdsa: decode y: %w", err)
	}

	pub := &stdecdsa.PublicKey{
		Curve: sv.ec.curve,
		X:     big.NewInt(0).SetBytes(x),
		Y:     big.NewInt(0).SetBytes(y),
	}

	if !pub.Curve.IsOnCurve(pub.X, pub.Y) {
		return nil, errors.New("ecdsa: point not on curve")
	}

	return pub, nil
}

// NewES256 creates a verifier for ES256 (P-256, SHA-256).
func NewES256() *Verifier {
	return &Verifier{
		alg: proof.AlgES256,
		crv: "P-256",
		ec: ellipticCurve{
			curve:   elliptic.P256(),
			keySize: p256KeySize,
			hash:    crypto.SHA256,
		},
	}
}

// NewES256K creates a verifier for ES256K (secp256k1, SHA-256).
func NewES256K() *Verifier {
	return &Verifier{
		alg: proof.AlgES256K,
		crv: "secp256k1",
		ec: ellipticCurve{
			curve:   btcec.S256(),
			keySize: secp256k1KeySize,
			hash:    crypto.SHA256,
		},
	}
}

// NewES384 creates a verifier for ES384 (P-384, SHA-384).
func NewES384() *Verifier {
	return &Verifier{
		alg: proof.AlgES384,
		crv: "P-384",
		ec: ellipticCurve{
			curve:   elliptic.P384(),
			keySize: p384KeySize,
			hash:    crypto.SHA384,
		},
	}
}

// NewES512 creates a verifier for ES512 (P-521, SHA-512).
func NewES512() *Verifier {
	return &Verifier{
		alg: proof.AlgES512,
		crv: "P-521",
		ec: ellipticCurve{
			curve:   elliptic.P521(),
			keySize: p521KeySize,
			hash:    crypto.SHA512,
		},
	}
}
