/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package checker provides the orchestrating signature verifier that
// dispatches on the asserted JWS algorithm.
package checker

import (
	"fmt"

	"github.com/anchorid/identity-go/jose/jwk"
	"github.com/anchorid/identity-go/proof"
)

// algVerifier is what the per-algorithm verifier packages implement.
type algVerifier interface {
	Alg() string
	Verify(input proof.VerificationInput, key *jwk.JWK) error
}

// Checker dispatches verification to the registered verifier for the
// asserted algorithm. The registry is open: new algorithm names can be
// registered without touching the dispatch itself.
type Checker struct {
	verifiers map[string]proof.Verifier
}

// Opt configures checker creation.
type Opt func(c *Checker)

// WithJWTAlg registers verifiers under the algorithm they report.
func WithJWTAlg(verifiers ...algVerifier) Opt {
	return func(c *Checker) {
		for _, v := range verifiers {
			c.verifiers[v.Alg()] = v
		}
	}
}

// WithAlg registers a verifier under an explicit algorithm name.
func WithAlg(alg string, verifier proof.Verifier) Opt {
	return func(c *Checker) {
		c.verifiers[alg] = verifier
	}
}

// New creates a new checker.
func New(opts ...Opt) *Checker {
	c := &Checker{
		verifiers: make(map[string]proof.Verifier),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// SupportsAlg reports whether a verifier is registered for alg.
func (c *Checker) SupportsAlg(alg string) bool {
	_, ok := c.verifiers[alg]

	return ok
}

// Verify dispatches on input.Alg. The algorithm is asserted by the caller;
// the token header is never consulted here.
func (c *Checker) Verify(input proof.VerificationInput, key *jwk.JWK) error {
	verifier, ok := c.verifiers[input.Alg]
	if !ok {
		return fmt.Errorf("%w: %s", proof.ErrUnsupportedAlg, input.Alg)
	}

	return verifier.Verify(input, key)
}
