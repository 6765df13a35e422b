/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anchorid/identity-go/verifiable"
)

func TestValidationErrorMessages(t *testing.T) {
	cases := []struct {
		err      *verifiable.ValidationError
		expected string
	}{
		{
			err:      &verifiable.ValidationError{Kind: verifiable.KindExpirationDate},
			expected: "the expiration date is in the past",
		},
		{
			err:      &verifiable.ValidationError{Kind: verifiable.KindIssuanceDate},
			expected: "the issuance date is in the future",
		},
		{
			err:      &verifiable.ValidationError{Kind: verifiable.KindSignature, Signer: verifiable.ContextHolder},
			expected: "could not verify the holder's signature",
		},
		{
			err:      &verifiable.ValidationError{Kind: verifiable.KindSignature},
			expected: "could not verify the issuer's signature",
		},
		{
			err:      &verifiable.ValidationError{Kind: verifiable.KindMissingPresentationHolder},
			expected: "the presentation has no holder",
		},
		{
			err:      &verifiable.ValidationError{Kind: verifiable.KindRevoked},
			expected: "the credential has been revoked",
		},
	}

	for _, tc := range cases {
		require.Equal(t, tc.expected, tc.err.Error())
	}
}

func TestValidationErrorCause(t *testing.T) {
	cause := errors.New("point not on curve")
	err := &verifiable.ValidationError{Kind: verifiable.KindSignature, Cause: cause}

	require.Equal(t, "could not verify the issuer's signature: point not on curve", err.Error())
	require.ErrorIs(t, err, cause)
}

func TestCompoundCredentialErrorDisplay(t *testing.T) {
	compound := &verifiable.CompoundCredentialError{Errors: []*verifiable.ValidationError{
		{Kind: verifiable.KindExpirationDate},
		{Kind: verifiable.KindCredentialStructure},
	}}

	require.Equal(t,
		"credential validation failed: [the expiration date is in the past; "+
			"the credential's structure is not semantically valid]",
		compound.Error())

	require.True(t, compound.HasKind(verifiable.KindExpirationDate))
	require.False(t, compound.HasKind(verifiable.KindRevoked))
}

func TestCompoundPresentationErrorDisplay(t *testing.T) {
	compound := &verifiable.CompoundPresentationError{
		Errors: []*verifiable.ValidationError{
			{Kind: verifiable.KindMissingPresentationHolder},
		},
		CredentialErrors: map[int]*verifiable.CompoundCredentialError{
			1: {Errors: []*verifiable.ValidationError{{Kind: verifiable.KindSignature}}},
			0: {Errors: []*verifiable.ValidationError{{Kind: verifiable.KindExpirationDate}}},
		},
	}

	require.Equal(t,
		"presentation validation failed: [the presentation has no holder; "+
			"credential num. 0 errors: credential validation failed: [the expiration date is in the past]; "+
			"credential num. 1 errors: credential validation failed: [could not verify the issuer's signature]]",
		compound.Error())
}
