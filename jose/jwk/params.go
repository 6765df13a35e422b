/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jwk

import (
	"errors"
	"fmt"
)

// params is the common behavior of the per-kty parameter sets.
type params interface {
	validate() error
	isPrivate() bool
	// public returns the public projection of the parameter set, or
	// ErrNoPublicProjection if there is none.
	public() (params, error)
}

// OKPParams holds Octet Key Pair parameters (RFC 8037 section 2).
// All byte parameters are base64url-encoded.
type OKPParams struct {
	Crv string `json:"crv"`
	X   string `json:"x"`
	D   string `json:"d,omitempty"`
}

func (p *OKPParams) validate() error {
	if p.Crv == "" {
		return errors.New("missing crv")
	}

	if p.X == "" {
		return errors.New("missing x")
	}

	return nil
}

func (p *OKPParams) isPrivate() bool { return p.D != "" }

func (p *OKPParams) public() (params, error) {
	return &OKPParams{Crv: p.Crv, X: p.X}, nil
}

// ECParams holds Elliptic Curve parameters (RFC 7518 section 6.2).
type ECParams struct {
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
	D   string `json:"d,omitempty"`
}

func (p *ECParams) validate() error {
	if p.Crv == "" {
		return errors.New("missing crv")
	}

	if p.X == "" || p.Y == "" {
		return errors.New("missing x or y")
	}

	return nil
}

func (p *ECParams) isPrivate() bool { return p.D != "" }

func (p *ECParams) public() (params, error) {
	return &ECParams{Crv: p.Crv, X: p.X, Y: p.Y}, nil
}

// RSAParams holds RSA parameters (RFC 7518 section 6.3).
type RSAParams struct {
	N  string `json:"n"`
	E  string `json:"e"`
	D  string `json:"d,omitempty"`
	P  string `json:"p,omitempty"`
	Q  string `json:"q,omitempty"`
	DP string `json:"dp,omitempty"`
	DQ string `json:"dq,omitempty"`
	QI string `json:"qi,omitempty"`
}

func (p *RSAParams) validate() error {
	if p.N == "" || p.E == "" {
		return errors.New("missing n or e")
	}

	return nil
}

func (p *RSAParams) isPrivate() bool { return p.D != "" }

func (p *RSAParams) public() (params, error) {
	return &RSAParams{N: p.N, E: p.E}, nil
}

// OctParams holds symmetric key parameters (RFC 7518 section 6.4).
type OctParams struct {
	K string `json:"k"`
}

func (p *OctParams) validate() error {
	if p.K == "" {
		return errors.New("missing k")
	}

	return nil
}

func (p *OctParams) isPrivate() bool { return true }

func (p *OctParams) public() (params, error) {
	return nil, ErrNoPublicProjection
}

// AKPParams holds Algorithm Key Pair parameters used for post-quantum
// signature keys. Pub and Priv carry base64url-encoded key bytes.
type AKPParams struct {
	Pub  string `json:"pub"`
	Priv string `json:"priv,omitempty"`
}

func (p *AKPParams) validate() error {
	if p.Pub == "" {
		return errors.New("missing pub")
	}

	return nil
}

func (p *AKPParams) isPrivate() bool { return p.Priv != "" }

func (p *AKPParams) public() (params, error) {
	return &AKPParams{Pub: p.Pub}, nil
}

// CompositeParams pairs a traditional public key with a post-quantum public
// key for hybrid signature algorithms such as id-MLDSA44-Ed25519.
type CompositeParams struct {
	AlgID                string `json:"algId"`
	TraditionalPublicKey *JWK   `json:"traditionalPublicKey"`
	PostQuantumPublicKey *JWK   `json:"pqPublicKey"`
}

func (p *CompositeParams) validate() error {
	if p.AlgID == "" {
		return errors.New("missing algId")
	}

	if p.TraditionalPublicKey == nil || p.PostQuantumPublicKey == nil {
		return errors.New("missing component key")
	}

	if err := p.TraditionalPublicKey.Validate(); err != nil {
		return fmt.Errorf("traditional component: %w", err)
	}

	if err := p.PostQuantumPublicKey.Validate(); err != nil {
		return fmt.Errorf("post-quantum component: %w", err)
	}

	if p.PostQuantumPublicKey.Kty != TypeAKP {
		return fmt.Errorf("post-quantum component must be %q, got %q", TypeAKP, p.PostQuantumPublicKey.Kty)
	}

	return nil
}

func (p *CompositeParams) isPrivate() bool {
	return p.TraditionalPublicKey != nil && p.TraditionalPublicKey.IsPrivate() ||
		p.PostQuantumPublicKey != nil && p.PostQuantumPublicKey.IsPrivate()
}

func (p *CompositeParams) public() (params, error) {
	trad, err := p.TraditionalPublicKey.Public()
	if err != nil {
		return nil, fmt.Errorf("traditional component: %w", err)
	}

	pq, err := p.PostQuantumPublicKey.Public()
	if err != nil {
		return nil, fmt.Errorf("post-quantum component: %w", err)
	}

	return &CompositeParams{AlgID: p.AlgID, TraditionalPublicKey: trad, PostQuantumPublicKey: pq}, nil
}
