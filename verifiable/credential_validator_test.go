/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/anchorid/identity-go/kms"
	"github.com/anchorid/identity-go/verifiable"
)

func requireCompoundCredentialError(t *testing.T, err error) *verifiable.CompoundCredentialError {
	t.Helper()

	compound := &verifiable.CompoundCredentialError{}
	require.ErrorAs(t, err, &compound)

	return compound
}

func TestCredentialValidation(t *testing.T) {
	store := kms.NewLocalStore()
	issuer := newTestActor(t, store, "issuer")
	subject := "did:example:subject"
	validator := newCredentialValidator(nil)

	t.Run("valid credential", func(t *testing.T) {
		token := issueTestCredential(t, issuer, subject, verifiable.SpecV1, nil)

		decoded, err := validator.Validate(context.Background(), token, issuer.doc, nil)
		require.NoError(t, err)
		require.Equal(t, issuer.did, decoded.Credential.Contents().Issuer.ID)
		require.Equal(t, "EdDSA", decoded.Header.Alg)
	})

	t.Run("not a jws", func(t *testing.T) {
		_, err := validator.Validate(context.Background(), "garbage", issuer.doc, nil)

		compound := requireCompoundCredentialError(t, err)
		require.Len(t, compound.Errors, 1)
		require.Equal(t, verifiable.KindJWSDecoding, compound.Errors[0].Kind)
	})

	t.Run("bad signature", func(t *testing.T) {
		token := tamperSignature(t, issueTestCredential(t, issuer, subject, verifiable.SpecV1, nil))

		_, err := validator.Validate(context.Background(), token, issuer.doc, nil)

		compound := requireCompoundCredentialError(t, err)
		require.Len(t, compound.Errors, 1)
		require.Equal(t, verifiable.KindSignature, compound.Errors[0].Kind)
	})

	t.Run("document mismatch", func(t *testing.T) {
		other := newTestActor(t, store, "other")
		token := issueTestCredential(t, issuer, subject, verifiable.SpecV1, nil)

		_, err := validator.Validate(context.Background(), token, other.doc, nil)

		compound := requireCompoundCredentialError(t, err)
		require.True(t, compound.HasKind(verifiable.KindDocumentMismatch))
	})

	t.Run("expired credential", func(t *testing.T) {
		token := issueTestCredential(t, issuer, subject, verifiable.SpecV1,
			func(b *verifiable.CredentialBuilder) {
				b.ValidUntil(time.Now().Add(-time.Minute))
			})

		_, err := validator.Validate(context.Background(), token, issuer.doc, nil)

		compound := requireCompoundCredentialError(t, err)
		require.Len(t, compound.Errors, 1)
		require.Equal(t, verifiable.KindExpirationDate, compound.Errors[0].Kind)
	})

	t.Run("expired accepted with earliest expiry override", func(t *testing.T) {
		token := issueTestCredential(t, issuer, subject, verifiable.SpecV1,
			func(b *verifiable.CredentialBuilder) {
				b.ValidUntil(time.Now().Add(-time.Minute))
			})

		_, err := validator.Validate(context.Background(), token, issuer.doc,
			&verifiable.CredentialValidationOptions{
				EarliestExpiryDate: time.Now().Add(-time.Hour),
			})
		require.NoError(t, err)
	})

	t.Run("issued in the future", func(t *testing.T) {
		token := issueTestCredential(t, issuer, subject, verifiable.SpecV1,
			func(b *verifiable.CredentialBuilder) {
				b.ValidFrom(time.Now().Add(time.Hour))
			})

		_, err := validator.Validate(context.Background(), token, issuer.doc, nil)

		compound := requireCompoundCredentialError(t, err)
		require.True(t, compound.HasKind(verifiable.KindIssuanceDate))

		_, err = validator.Validate(context.Background(), token, issuer.doc,
			&verifiable.CredentialValidationOptions{
				LatestIssuanceDate: time.Now().Add(2 * time.Hour),
			})
		require.NoError(t, err)
	})

	t.Run("all errors accumulated", func(t *testing.T) {
		token := tamperSignature(t, issueTestCredential(t, issuer, subject, verifiable.SpecV1,
			func(b *verifiable.CredentialBuilder) {
				b.ValidUntil(time.Now().Add(-time.Minute))
			}))

		_, err := validator.Validate(context.Background(), token, issuer.doc,
			&verifiable.CredentialValidationOptions{FailFast: verifiable.AllErrors})

		compound := requireCompoundCredentialError(t, err)
		require.True(t, compound.HasKind(verifiable.KindSignature))
		require.True(t, compound.HasKind(verifiable.KindExpirationDate))
	})

	t.Run("first error stops", func(t *testing.T) {
		token := tamperSignature(t, issueTestCredential(t, issuer, subject, verifiable.SpecV1,
			func(b *verifiable.CredentialBuilder) {
				b.ValidUntil(time.Now().Add(-time.Minute))
			}))

		_, err := validator.Validate(context.Background(), token, issuer.doc,
			&verifiable.CredentialValidationOptions{FailFast: verifiable.FirstError})

		compound := requireCompoundCredentialError(t, err)
		require.Len(t, compound.Errors, 1)
		require.Equal(t, verifiable.KindSignature, compound.Errors[0].Kind)
	})

	t.Run("with resolver", func(t *testing.T) {
		resolver := newMapResolver(issuer)
		token := issueTestCredential(t, issuer, subject, verifiable.SpecV1, nil)

		decoded, err := validator.ValidateWithResolver(context.Background(), token, resolver, nil)
		require.NoError(t, err)
		require.Equal(t, issuer.did, decoded.Credential.Contents().Issuer.ID)
	})
}

// stubStatusChecker marks one status type supported and returns a fixed
// result.
type stubStatusChecker struct {
	statusType string
	result     error
}

func (c *stubStatusChecker) Supports(statusType string) bool {
	return statusType == c.statusType
}

func (c *stubStatusChecker) CheckStatus(_ context.Context, _ *verifiable.TypedID) error {
	return c.result
}

func TestCredentialStatusValidation(t *testing.T) {
	store := kms.NewLocalStore()
	issuer := newTestActor(t, store, "issuer")

	withStatus := func(statusType string) string {
		return issueTestCredential(t, issuer, "did:example:subject", verifiable.SpecV1,
			func(b *verifiable.CredentialBuilder) {
				b.Status(&verifiable.TypedID{
					ID:   "https://example.com/status/1#94567",
					Type: statusType,
				})
			})
	}

	t.Run("active", func(t *testing.T) {
		validator := newCredentialValidator(nil,
			verifiable.WithStatusChecker(&stubStatusChecker{statusType: "BitstringStatusListEntry"}))

		_, err := validator.Validate(context.Background(), withStatus("BitstringStatusListEntry"), issuer.doc, nil)
		require.NoError(t, err)
	})

	t.Run("revoked", func(t *testing.T) {
		validator := newCredentialValidator(nil,
			verifiable.WithStatusChecker(&stubStatusChecker{
				statusType: "BitstringStatusListEntry",
				result:     fmt.Errorf("entry 94567: %w", verifiable.ErrStatusRevoked),
			}))

		_, err := validator.Validate(context.Background(), withStatus("BitstringStatusListEntry"), issuer.doc, nil)

		compound := requireCompoundCredentialError(t, err)
		require.True(t, compound.HasKind(verifiable.KindRevoked))
	})

	t.Run("suspended", func(t *testing.T) {
		validator := newCredentialValidator(nil,
			verifiable.WithStatusChecker(&stubStatusChecker{
				statusType: "BitstringStatusListEntry",
				result:     verifiable.ErrStatusSuspended,
			}))

		_, err := validator.Validate(context.Background(), withStatus("BitstringStatusListEntry"), issuer.doc, nil)

		compound := requireCompoundCredentialError(t, err)
		require.True(t, compound.HasKind(verifiable.KindSuspended))
	})

	t.Run("status fetch failure", func(t *testing.T) {
		validator := newCredentialValidator(nil,
			verifiable.WithStatusChecker(&stubStatusChecker{
				statusType: "BitstringStatusListEntry",
				result:     errors.New("status list unreachable"),
			}))

		_, err := validator.Validate(context.Background(), withStatus("BitstringStatusListEntry"), issuer.doc, nil)

		compound := requireCompoundCredentialError(t, err)
		require.True(t, compound.HasKind(verifiable.KindInvalidStatus))
	})

	t.Run("unsupported type is strict by default", func(t *testing.T) {
		validator := newCredentialValidator(nil)

		_, err := validator.Validate(context.Background(), withStatus("UnknownStatusEntry"), issuer.doc, nil)

		compound := requireCompoundCredentialError(t, err)
		require.True(t, compound.HasKind(verifiable.KindInvalidStatus))
	})

	t.Run("unsupported type skipped on request", func(t *testing.T) {
		validator := newCredentialValidator(nil)

		_, err := validator.Validate(context.Background(), withStatus("UnknownStatusEntry"), issuer.doc,
			&verifiable.CredentialValidationOptions{Status: verifiable.StatusCheckSkipUnsupported})
		require.NoError(t, err)
	})

	t.Run("skip all", func(t *testing.T) {
		validator := newCredentialValidator(nil)

		_, err := validator.Validate(context.Background(), withStatus("UnknownStatusEntry"), issuer.doc,
			&verifiable.CredentialValidationOptions{Status: verifiable.StatusCheckSkipAll})
		require.NoError(t, err)
	})
}
