/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package defaults builds a proof checker with every shipped verifier
// registered.
package defaults

import (
	"github.com/anchorid/identity-go/proof/checker"
	"github.com/anchorid/identity-go/proof/verifiers/composite"
	"github.com/anchorid/identity-go/proof/verifiers/ecdsa"
	"github.com/anchorid/identity-go/proof/verifiers/eddsa"
	"github.com/anchorid/identity-go/proof/verifiers/mldsa"
)

// NewDefaultChecker creates a checker supporting EdDSA, the ECDSA family,
// the ML-DSA family and the composite hybrid algorithms.
func NewDefaultChecker(opts ...checker.Opt) *checker.Checker {
	allOpts := append([]checker.Opt{
		checker.WithJWTAlg(
			eddsa.New(),
			ecdsa.NewES256(),
			ecdsa.NewES256K(),
			ecdsa.NewES384(),
			ecdsa.NewES512(),
			mldsa.New44(),
			mldsa.New65(),
			mldsa.New87(),
			composite.NewMLDSA44Ed25519(),
			composite.NewMLDSA65Ed25519(),
		),
	}, opts...)

	return checker.New(allOpts...)
}
