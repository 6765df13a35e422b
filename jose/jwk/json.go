/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jwk

import (
	"encoding/json"
	"fmt"
)

// rawJWK is the flattened wire form: metadata plus the union of all
// parameter-set fields.
type rawJWK struct {
	Kty     Type         `json:"kty"`
	Use     Use          `json:"use,omitempty"`
	KeyOps  OperationSet `json:"key_ops,omitempty"`
	Alg     string       `json:"alg,omitempty"`
	Kid     string       `json:"kid,omitempty"`
	X5U     string       `json:"x5u,omitempty"`
	X5C     []string     `json:"x5c,omitempty"`
	X5T     string       `json:"x5t,omitempty"`
	X5TS256 string       `json:"x5t#S256,omitempty"`

	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
	D   string `json:"d,omitempty"`

	N  string `json:"n,omitempty"`
	E  string `json:"e,omitempty"`
	P  string `json:"p,omitempty"`
	Q  string `json:"q,omitempty"`
	DP string `json:"dp,omitempty"`
	DQ string `json:"dq,omitempty"`
	QI string `json:"qi,omitempty"`

	K string `json:"k,omitempty"`

	Pub  string `json:"pub,omitempty"`
	Priv string `json:"priv,omitempty"`

	AlgID                string `json:"algId,omitempty"`
	TraditionalPublicKey *JWK   `json:"traditionalPublicKey,omitempty"`
	PostQuantumPublicKey *JWK   `json:"pqPublicKey,omitempty"`
}

// MarshalJSON serializes the key in its flattened RFC 7517 form.
func (k *JWK) MarshalJSON() ([]byte, error) {
	if err := k.Validate(); err != nil {
		return nil, err
	}

	raw := rawJWK{
		Kty:     k.Kty,
		Use:     k.Use,
		KeyOps:  k.KeyOps,
		Alg:     k.Alg,
		Kid:     k.Kid,
		X5U:     k.X5U,
		X5C:     k.X5C,
		X5T:     k.X5T,
		X5TS256: k.X5TS256,
	}

	switch {
	case k.OKP != nil:
		raw.Crv, raw.X, raw.D = k.OKP.Crv, k.OKP.X, k.OKP.D
	case k.EC != nil:
		raw.Crv, raw.X, raw.Y, raw.D = k.EC.Crv, k.EC.X, k.EC.Y, k.EC.D
	case k.RSA != nil:
		raw.N, raw.E, raw.D = k.RSA.N, k.RSA.E, k.RSA.D
		raw.P, raw.Q, raw.DP, raw.DQ, raw.QI = k.RSA.P, k.RSA.Q, k.RSA.DP, k.RSA.DQ, k.RSA.QI
	case k.Oct != nil:
		raw.K = k.Oct.K
	case k.AKP != nil:
		raw.Pub, raw.Priv = k.AKP.Pub, k.AKP.Priv
	case k.CMP != nil:
		raw.AlgID = k.CMP.AlgID
		raw.TraditionalPublicKey = k.CMP.TraditionalPublicKey
		raw.PostQuantumPublicKey = k.CMP.PostQuantumPublicKey
	}

	return json.Marshal(raw)
}

// UnmarshalJSON deserializes a flattened JWK, attaching the parameter set
// selected by "kty". A parameter set not matching "kty" is a decode error.
func (k *JWK) UnmarshalJSON(data []byte) error {
	var raw rawJWK
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := JWK{
		Kty:     raw.Kty,
		Use:     raw.Use,
		KeyOps:  raw.KeyOps,
		Alg:     raw.Alg,
		Kid:     raw.Kid,
		X5U:     raw.X5U,
		X5C:     raw.X5C,
		X5T:     raw.X5T,
		X5TS256: raw.X5TS256,
	}

	switch raw.Kty {
	case TypeOKP:
		out.OKP = &OKPParams{Crv: raw.Crv, X: raw.X, D: raw.D}
	case TypeEC:
		out.EC = &ECParams{Crv: raw.Crv, X: raw.X, Y: raw.Y, D: raw.D}
	case TypeRSA:
		out.RSA = &RSAParams{
			N: raw.N, E: raw.E, D: raw.D,
			P: raw.P, Q: raw.Q, DP: raw.DP, DQ: raw.DQ, QI: raw.QI,
		}
	case TypeOct:
		out.Oct = &OctParams{K: raw.K}
	case TypeAKP:
		out.AKP = &AKPParams{Pub: raw.Pub, Priv: raw.Priv}
	case TypeCMP:
		out.CMP = &CompositeParams{
			AlgID:                raw.AlgID,
			TraditionalPublicKey: raw.TraditionalPublicKey,
			PostQuantumPublicKey: raw.PostQuantumPublicKey,
		}
	default:
		return fmt.Errorf("unknown key type %q", raw.Kty)
	}

	if err := out.Validate(); err != nil {
		return fmt.Errorf("decode jwk: %w", err)
	}

	*k = out

	return nil
}
