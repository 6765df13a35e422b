/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jwk

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Thumbprint computes the RFC 7638 thumbprint of the key: the SHA-256 digest
// of the canonical JSON object holding only the required public parameters,
// with members in lexicographic order. Optional fields such as "kid" and
// "use" never influence the result.
func (k *JWK) Thumbprint() ([]byte, error) {
	canonical, err := k.thumbprintJSON()
	if err != nil {
		return nil, err
	}

	digest := sha256.Sum256([]byte(canonical))

	return digest[:], nil
}

// ThumbprintBase64 returns the thumbprint in base64url form without padding,
// the form used for "kid" values.
func (k *JWK) ThumbprintBase64() (string, error) {
	digest, err := k.Thumbprint()
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(digest), nil
}

func (k *JWK) thumbprintJSON() (string, error) {
	if err := k.Validate(); err != nil {
		return "", err
	}

	switch k.Kty {
	case TypeOKP:
		return canonicalObject(
			member{"crv", k.OKP.Crv},
			member{"kty", string(k.Kty)},
			member{"x", k.OKP.X},
		), nil
	case TypeEC:
		return canonicalObject(
			member{"crv", k.EC.Crv},
			member{"kty", string(k.Kty)},
			member{"x", k.EC.X},
			member{"y", k.EC.Y},
		), nil
	case TypeRSA:
		return canonicalObject(
			member{"e", k.RSA.E},
			member{"kty", string(k.Kty)},
			member{"n", k.RSA.N},
		), nil
	case TypeOct:
		return canonicalObject(
			member{"k", k.Oct.K},
			member{"kty", string(k.Kty)},
		), nil
	case TypeAKP:
		return canonicalObject(
			member{"kty", string(k.Kty)},
			member{"pub", k.AKP.Pub},
		), nil
	case TypeCMP:
		// No registered thumbprint members exist for composite keys; the
		// digest binds the component thumbprints instead.
		trad, err := k.CMP.TraditionalPublicKey.ThumbprintBase64()
		if err != nil {
			return "", fmt.Errorf("traditional component: %w", err)
		}

		pq, err := k.CMP.PostQuantumPublicKey.ThumbprintBase64()
		if err != nil {
			return "", fmt.Errorf("post-quantum component: %w", err)
		}

		return canonicalObject(
			member{"algId", k.CMP.AlgID},
			member{"kty", string(k.Kty)},
			member{"pqPublicKey", pq},
			member{"traditionalPublicKey", trad},
		), nil
	}

	return "", fmt.Errorf("unknown key type %q", k.Kty)
}

type member struct {
	name  string
	value string
}

// canonicalObject builds a JSON object with the given members in the given
// (lexicographic) order and no insignificant whitespace.
func canonicalObject(members ...member) string {
	var b strings.Builder

	b.WriteByte('{')

	for i, m := range members {
		if i > 0 {
			b.WriteByte(',')
		}

		name, _ := json.Marshal(m.name)   //nolint:errcheck // string marshal cannot fail
		value, _ := json.Marshal(m.value) //nolint:errcheck

		b.Write(name)
		b.WriteByte(':')
		b.Write(value)
	}

	b.WriteByte('}')

	return b.String()
}
