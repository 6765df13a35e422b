/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package status_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anchorid/identity-go/status"
	"github.com/anchorid/identity-go/status/internal/bitstring"
	"github.com/anchorid/identity-go/verifiable"
)

const (
	listURL = "https://example.com/status/1"

	// listBytes is the 131072-bit minimum list size of the spec.
	listBytes = 16384
)

// newStatusListVC builds a status list credential whose bit array has the
// given indices set.
func newStatusListVC(t *testing.T, purpose string, setIndices ...int) *verifiable.Credential {
	t.Helper()

	bits := make([]byte, listBytes)

	for _, idx := range setIndices {
		require.NoError(t, bitstring.SetBit(bits, idx))
	}

	encodedList, err := bitstring.Encode(bits)
	require.NoError(t, err)

	listVC, err := verifiable.NewCredentialBuilder(verifiable.SpecV1).
		ID(listURL).
		AddType("StatusList2021Credential").
		Issuer(verifiable.Issuer{ID: "did:example:issuer"}).
		Subject(verifiable.Subject{
			ID: listURL + "#list",
			CustomFields: verifiable.CustomFields{
				"type":          "StatusList2021",
				"statusPurpose": purpose,
				"encodedList":   encodedList,
			},
		}).
		Build()
	require.NoError(t, err)

	return listVC
}

type stubListResolver struct {
	listVC *verifiable.Credential
	err    error
	calls  int
}

func (r *stubListResolver) Resolve(_ context.Context, url string) (*verifiable.Credential, error) {
	r.calls++

	if r.err != nil {
		return nil, r.err
	}

	if url != listURL {
		return nil, fmt.Errorf("unknown status list %q", url)
	}

	return r.listVC, nil
}

func newEntry(entryType, purpose, index string) *verifiable.TypedID {
	return &verifiable.TypedID{
		ID:   listURL + "#94567",
		Type: entryType,
		CustomFields: verifiable.CustomFields{
			"statusPurpose":        purpose,
			"statusListIndex":      index,
			"statusListCredential": listURL,
		},
	}
}

func TestCheckerSupports(t *testing.T) {
	checker := status.NewChecker(&stubListResolver{})

	require.True(t, checker.Supports(status.BitstringStatusListEntryType))
	require.True(t, checker.Supports(status.StatusList2021EntryType))
	require.False(t, checker.Supports("RevocationList2020Status"))
}

func TestCheckStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("bit clear", func(t *testing.T) {
		checker := status.NewChecker(&stubListResolver{
			listVC: newStatusListVC(t, status.PurposeRevocation, 94568),
		})

		err := checker.CheckStatus(ctx, newEntry(status.StatusList2021EntryType,
			status.PurposeRevocation, "94567"))
		require.NoError(t, err)
	})

	t.Run("revoked", func(t *testing.T) {
		checker := status.NewChecker(&stubListResolver{
			listVC: newStatusListVC(t, status.PurposeRevocation, 94567),
		})

		err := checker.CheckStatus(ctx, newEntry(status.StatusList2021EntryType,
			status.PurposeRevocation, "94567"))
		require.ErrorIs(t, err, verifiable.ErrStatusRevoked)
	})

	t.Run("suspended", func(t *testing.T) {
		checker := status.NewChecker(&stubListResolver{
			listVC: newStatusListVC(t, status.PurposeSuspension, 3),
		})

		err := checker.CheckStatus(ctx, newEntry(status.BitstringStatusListEntryType,
			status.PurposeSuspension, "3"))
		require.ErrorIs(t, err, verifiable.ErrStatusSuspended)
	})

	t.Run("unknown purpose on set bit", func(t *testing.T) {
		checker := status.NewChecker(&stubListResolver{
			listVC: newStatusListVC(t, "message", 3),
		})

		err := checker.CheckStatus(ctx, newEntry(status.StatusList2021EntryType, "message", "3"))
		require.ErrorContains(t, err, "unsupported status purpose")
	})

	t.Run("unsupported entry type", func(t *testing.T) {
		checker := status.NewChecker(&stubListResolver{})

		err := checker.CheckStatus(ctx, newEntry("RevocationList2020Status",
			status.PurposeRevocation, "1"))
		require.ErrorIs(t, err, verifiable.ErrStatusNotSupported)
	})

	t.Run("index out of range", func(t *testing.T) {
		checker := status.NewChecker(&stubListResolver{
			listVC: newStatusListVC(t, status.PurposeRevocation),
		})

		err := checker.CheckStatus(ctx, newEntry(status.StatusList2021EntryType,
			status.PurposeRevocation, "2000000"))
		require.ErrorContains(t, err, "out of range")
	})

	t.Run("malformed entry fields", func(t *testing.T) {
		checker := status.NewChecker(&stubListResolver{
			listVC: newStatusListVC(t, status.PurposeRevocation, 1),
		})

		entry := newEntry(status.StatusList2021EntryType, status.PurposeRevocation, "not-a-number")
		err := checker.CheckStatus(ctx, entry)
		require.ErrorContains(t, err, "statusListIndex")

		entry = newEntry(status.StatusList2021EntryType, status.PurposeRevocation, "1")
		delete(entry.CustomFields, "statusListCredential")
		err = checker.CheckStatus(ctx, entry)
		require.ErrorContains(t, err, "statusListCredential")
	})

	t.Run("resolver failure", func(t *testing.T) {
		checker := status.NewChecker(&stubListResolver{err: fmt.Errorf("boom")})

		err := checker.CheckStatus(ctx, newEntry(status.StatusList2021EntryType,
			status.PurposeRevocation, "1"))
		require.ErrorContains(t, err, "resolve status list credential")
	})
}

func TestHTTPListResolver(t *testing.T) {
	listVC := newStatusListVC(t, status.PurposeRevocation, 7)

	listJSON, err := listVC.MarshalJSON()
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status/1" {
			http.NotFound(w, r)

			return
		}

		_, _ = w.Write(listJSON)
	}))
	defer srv.Close()

	resolver := status.NewHTTPListResolver(status.WithHTTPClient(srv.Client()))

	resolved, err := resolver.Resolve(context.Background(), srv.URL+"/status/1")
	require.NoError(t, err)
	require.Equal(t, listURL, resolved.Contents().ID)

	_, err = resolver.Resolve(context.Background(), srv.URL+"/other")
	require.ErrorContains(t, err, "status 404")
}
