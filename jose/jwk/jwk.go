/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package jwk provides a typed representation of JSON Web Keys (RFC 7517),
// extended with non-standard key types for post-quantum and composite keys.
package jwk

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Type is a JWK key type (the "kty" parameter).
type Type string

const (
	// TypeOKP is the Octet Key Pair key type (RFC 8037).
	TypeOKP Type = "OKP"
	// TypeEC is the Elliptic Curve key type (RFC 7518).
	TypeEC Type = "EC"
	// TypeRSA is the RSA key type (RFC 7518).
	TypeRSA Type = "RSA"
	// TypeOct is the symmetric octet sequence key type (RFC 7518).
	TypeOct Type = "oct"
	// TypeAKP is the Algorithm Key Pair type used for post-quantum
	// signature keys (draft-ietf-cose-dilithium).
	TypeAKP Type = "AKP"
	// TypeCMP is the non-standard composite key type pairing a traditional
	// key with a post-quantum key.
	TypeCMP Type = "CMP"
)

// Use is a JWK public key use value (the "use" parameter).
type Use string

const (
	// UseSignature indicates the key is used for signing.
	UseSignature Use = "sig"
	// UseEncryption indicates the key is used for encryption.
	UseEncryption Use = "enc"
)

// ErrNoPublicProjection is returned by JWK.Public for keys that have no
// public form, such as symmetric keys.
var ErrNoPublicProjection = errors.New("key has no public projection")

// JWK is a JSON Web Key. Exactly one parameter set matching Kty is present.
type JWK struct {
	Kty Type

	Use     Use
	KeyOps  OperationSet
	Alg     string
	Kid     string
	X5U     string
	X5C     []string
	X5T     string
	X5TS256 string

	OKP *OKPParams
	EC  *ECParams
	RSA *RSAParams
	Oct *OctParams
	AKP *AKPParams
	CMP *CompositeParams
}

// OperationSet holds "key_ops" values. Operations are unordered and
// deduplicated; serialization is normalized to sorted order.
type OperationSet []string

// Contains reports whether op is in the set.
func (s OperationSet) Contains(op string) bool {
	for _, o := range s {
		if o == op {
			return true
		}
	}

	return false
}

func normalizeOps(ops []string) OperationSet {
	seen := make(map[string]struct{}, len(ops))

	var out OperationSet

	for _, op := range ops {
		if _, ok := seen[op]; ok {
			continue
		}

		seen[op] = struct{}{}
		out = append(out, op)
	}

	sort.Strings(out)

	return out
}

// MarshalJSON serializes the set in normalized (sorted, deduplicated) form.
func (s OperationSet) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string(normalizeOps(s)))
}

// UnmarshalJSON deserializes a JSON list into a deduplicated set.
func (s *OperationSet) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = normalizeOps(raw)

	return nil
}

// New creates a JWK of the given type with an empty parameter set attached.
// An unknown type yields a key with no parameter set, which Validate rejects.
func New(kty Type) *JWK {
	key := &JWK{Kty: kty}

	switch kty {
	case TypeOKP:
		key.OKP = &OKPParams{}
	case TypeEC:
		key.EC = &ECParams{}
	case TypeRSA:
		key.RSA = &RSAParams{}
	case TypeOct:
		key.Oct = &OctParams{}
	case TypeAKP:
		key.AKP = &AKPParams{}
	case TypeCMP:
		key.CMP = &CompositeParams{}
	}

	return key
}

// Validate checks that the attached parameter set matches Kty, that exactly
// one parameter set is present, and that "use" and "key_ops" agree when both
// are set (RFC 7517 section 4.3).
func (k *JWK) Validate() error { //nolint:gocyclo
	var attached int

	for _, present := range []bool{
		k.OKP != nil, k.EC != nil, k.RSA != nil, k.Oct != nil, k.AKP != nil, k.CMP != nil,
	} {
		if present {
			attached++
		}
	}

	if attached != 1 {
		return fmt.Errorf("jwk must carry exactly one parameter set, has %d", attached)
	}

	match := false

	switch k.Kty {
	case TypeOKP:
		match = k.OKP != nil
	case TypeEC:
		match = k.EC != nil
	case TypeRSA:
		match = k.RSA != nil
	case TypeOct:
		match = k.Oct != nil
	case TypeAKP:
		match = k.AKP != nil
	case TypeCMP:
		match = k.CMP != nil
	default:
		return fmt.Errorf("unknown key type %q", k.Kty)
	}

	if !match {
		return fmt.Errorf("jwk parameter set does not match kty %q", k.Kty)
	}

	if err := k.params().validate(); err != nil {
		return fmt.Errorf("invalid %q parameters: %w", k.Kty, err)
	}

	return k.checkUseOps()
}

func (k *JWK) checkUseOps() error {
	if k.Use == "" || len(k.KeyOps) == 0 {
		return nil
	}

	for _, op := range k.KeyOps {
		switch k.Use {
		case UseSignature:
			if op != "sign" && op != "verify" {
				return fmt.Errorf("key_ops %q conflicts with use %q", op, k.Use)
			}
		case UseEncryption:
			if op == "sign" || op == "verify" {
				return fmt.Errorf("key_ops %q conflicts with use %q", op, k.Use)
			}
		}
	}

	return nil
}

func (k *JWK) params() params {
	switch {
	case k.OKP != nil:
		return k.OKP
	case k.EC != nil:
		return k.EC
	case k.RSA != nil:
		return k.RSA
	case k.Oct != nil:
		return k.Oct
	case k.AKP != nil:
		return k.AKP
	case k.CMP != nil:
		return k.CMP
	}

	return nil
}

// IsPrivate reports whether the key carries secret components.
func (k *JWK) IsPrivate() bool {
	p := k.params()

	return p != nil && p.isPrivate()
}

// IsPublic reports whether the key carries no secret components.
func (k *JWK) IsPublic() bool {
	return !k.IsPrivate()
}

// Public returns a copy of the key with all secret components stripped.
// Idempotent: applying it to a public key returns an equal key. Fails with
// ErrNoPublicProjection for key types without a public form.
func (k *JWK) Public() (*JWK, error) {
	p := k.params()
	if p == nil {
		return nil, errors.New("jwk has no parameter set")
	}

	pub, err := p.public()
	if err != nil {
		return nil, err
	}

	out := &JWK{
		Kty:     k.Kty,
		Use:     k.Use,
		KeyOps:  normalizeOps(k.KeyOps),
		Alg:     k.Alg,
		Kid:     k.Kid,
		X5U:     k.X5U,
		X5C:     append([]string(nil), k.X5C...),
		X5T:     k.X5T,
		X5TS256: k.X5TS256,
	}

	switch pp := pub.(type) {
	case *OKPParams:
		out.OKP = pp
	case *ECParams:
		out.EC = pp
	case *RSAParams:
		out.RSA = pp
	case *AKPParams:
		out.AKP = pp
	case *CompositeParams:
		out.CMP = pp
	default:
		return nil, ErrNoPublicProjection
	}

	return out, nil
}

// Crv returns the curve name for OKP and EC keys, or "".
func (k *JWK) Crv() string {
	switch {
	case k.OKP != nil:
		return k.OKP.Crv
	case k.EC != nil:
		return k.EC.Crv
	}

	return ""
}
