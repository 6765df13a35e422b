/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	"github.com/multiformats/go-multibase"

	"github.com/anchorid/identity-go/jose/jwk"
)

// Verification method types.
const (
	TypeJSONWebKey2020                = "JsonWebKey2020"
	TypeJSONWebKey                    = "JsonWebKey"
	TypeEd25519VerificationKey2018    = "Ed25519VerificationKey2018"
	TypeEd25519VerificationKey2020    = "Ed25519VerificationKey2020"
	TypeMultikey                      = "Multikey"
	TypeBls12381G2Key2020             = "Bls12381G2Key2020"
	TypeX25519KeyAgreementKey2019     = "X25519KeyAgreementKey2019"
	TypeEcdsaSecp256k1VerificationKey = "EcdsaSecp256k1VerificationKey2019"
)

// Multicodec prefixes for multibase-encoded key material.
var (
	multicodecEd25519Pub    = []byte{0xed, 0x01}
	multicodecBls12381G2Pub = []byte{0xeb, 0x01}
	multicodecX25519Pub     = []byte{0xec, 0x01}
	multicodecSecp256k1Pub  = []byte{0xe7, 0x01}
)

// ErrNoKeyMaterial indicates a verification method carries none of the
// supported key material properties.
var ErrNoKeyMaterial = errors.New("verification method has no key material")

// VerificationMethod is a DID Document verification method. Exactly one of
// the key material properties is expected to be set.
type VerificationMethod struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Controller string `json:"controller"`

	PublicKeyJwk       *jwk.JWK `json:"publicKeyJwk,omitempty"`
	PublicKeyMultibase string   `json:"publicKeyMultibase,omitempty"`
	PublicKeyBase58    string   `json:"publicKeyBase58,omitempty"`
}

// JWK returns the method's public key as a JWK. Multibase and base58
// material is converted according to the method type.
func (m *VerificationMethod) JWK() (*jwk.JWK, error) {
	switch {
	case m.PublicKeyJwk != nil:
		return m.PublicKeyJwk.Public()
	case m.PublicKeyMultibase != "":
		raw, err := m.decodeMultibase()
		if err != nil {
			return nil, err
		}

		return keyBytesToJWK(m.Type, raw)
	case m.PublicKeyBase58 != "":
		return keyBytesToJWK(m.Type, base58.Decode(m.PublicKeyBase58))
	default:
		return nil, ErrNoKeyMaterial
	}
}

// KeyBytes returns the raw public key bytes for methods whose material is
// multibase or base58 encoded. JWK-backed methods have no single raw form.
func (m *VerificationMethod) KeyBytes() ([]byte, error) {
	switch {
	case m.PublicKeyMultibase != "":
		return m.decodeMultibase()
	case m.PublicKeyBase58 != "":
		return base58.Decode(m.PublicKeyBase58), nil
	default:
		return nil, ErrNoKeyMaterial
	}
}

func (m *VerificationMethod) decodeMultibase() ([]byte, error) {
	_, raw, err := multibase.Decode(m.PublicKeyMultibase)
	if err != nil {
		return nil, fmt.Errorf("decode publicKeyMultibase: %w", err)
	}

	return stripMulticodec(raw), nil
}

// stripMulticodec removes a recognized multicodec prefix. Unprefixed
// material, as used by the 2018-era suites, passes through unchanged.
func stripMulticodec(raw []byte) []byte {
	for _, prefix := range [][]byte{
		multicodecEd25519Pub, multicodecBls12381G2Pub,
		multicodecX25519Pub, multicodecSecp256k1Pub,
	} {
		if len(raw) > len(prefix) && raw[0] == prefix[0] && raw[1] == prefix[1] {
			return raw[len(prefix):]
		}
	}

	return raw
}

func keyBytesToJWK(methodType string, raw []byte) (*jwk.JWK, error) {
	switch methodType {
	case TypeEd25519VerificationKey2018, TypeEd25519VerificationKey2020, TypeMultikey:
		key := jwk.New(jwk.TypeOKP)
		key.OKP = &jwk.OKPParams{
			Crv: "Ed25519",
			X:   base64.RawURLEncoding.EncodeToString(raw),
		}
		key.Alg = "EdDSA"

		return key, nil
	default:
		return nil, fmt.Errorf("cannot express %s key material as a JWK", methodType)
	}
}
