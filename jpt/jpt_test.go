/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jpt_test

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/trustbloc/bbs-signature-go/bbs12381g2pub"

	"github.com/anchorid/identity-go/jpt"
)

func newTestSigner(t *testing.T) (*jpt.Signer, []byte) {
	t.Helper()

	pubKey, privKey, err := bbs12381g2pub.GenerateKeyPair(sha256.New, nil)
	require.NoError(t, err)

	signer, err := jpt.NewSigner(privKey)
	require.NoError(t, err)

	pubKeyBytes, err := pubKey.Marshal()
	require.NoError(t, err)

	return signer, pubKeyBytes
}

func issueTestToken(t *testing.T, signer *jpt.Signer) *jpt.Issued {
	t.Helper()

	issued, err := signer.Sign(
		&jpt.IssuerHeader{
			Kid:    "did:example:issuer#bbs-key",
			Claims: []string{"iss", "givenName", "familyName", "age"},
		},
		[][]byte{
			[]byte(`"did:example:issuer"`),
			[]byte(`"Alice"`),
			[]byte(`"Prover"`),
			[]byte(`42`),
		})
	require.NoError(t, err)

	return issued
}

func TestIssuedRoundTrip(t *testing.T) {
	signer, pubKey := newTestSigner(t)
	issued := issueTestToken(t, signer)

	require.NoError(t, issued.Verify(pubKey))

	parsed, err := jpt.ParseIssued(issued.Serialize())
	require.NoError(t, err)
	require.Equal(t, jpt.AlgBBS, parsed.Header.Alg)
	require.Equal(t, jpt.Typ, parsed.Header.Typ)
	require.NoError(t, parsed.Verify(pubKey))

	age, err := parsed.Payload("age")
	require.NoError(t, err)
	require.Equal(t, []byte(`42`), age)

	_, err = parsed.Payload("ssn")
	require.ErrorIs(t, err, jpt.ErrUnknownClaim)

	_, wrongKey := newTestSigner(t)
	require.Error(t, parsed.Verify(wrongKey))
}

func TestParseIssuedRejectsMalformed(t *testing.T) {
	signer, _ := newTestSigner(t)
	token := issueTestToken(t, signer).Serialize()

	_, err := jpt.ParseIssued("only.two")
	require.ErrorIs(t, err, jpt.ErrMalformedToken)

	// Mismatched slot count against the header's claims list.
	segments := strings.Split(token, ".")
	segments[1] = segments[1][:strings.LastIndex(segments[1], "~")]

	_, err = jpt.ParseIssued(strings.Join(segments, "."))
	require.ErrorIs(t, err, jpt.ErrMalformedToken)

	// Issued tokens may not conceal slots.
	segments = strings.Split(token, ".")
	parts := strings.Split(segments[1], "~")
	parts[2] = ""
	segments[1] = strings.Join(parts, "~")

	_, err = jpt.ParseIssued(strings.Join(segments, "."))
	require.ErrorIs(t, err, jpt.ErrMalformedToken)
}

func TestPresentedSelectiveDisclosure(t *testing.T) {
	signer, pubKey := newTestSigner(t)
	issued := issueTestToken(t, signer)

	presented, err := issued.Present(
		&jpt.PresentationHeader{Aud: "did:example:verifier", Nonce: "challenge-42"},
		[]string{"iss", "givenName"}, pubKey)
	require.NoError(t, err)
	require.NoError(t, presented.Verify(pubKey))

	parsed, err := jpt.ParsePresented(presented.Serialize())
	require.NoError(t, err)
	require.Equal(t, "challenge-42", parsed.Header.Nonce)
	require.Equal(t, "did:example:verifier", parsed.Header.Aud)
	require.NoError(t, parsed.Verify(pubKey))

	name, err := parsed.Disclosed("givenName")
	require.NoError(t, err)
	require.Equal(t, []byte(`"Alice"`), name)

	_, err = parsed.Disclosed("age")
	require.ErrorIs(t, err, jpt.ErrUndisclosed)

	disclosed := parsed.DisclosedClaims()
	require.Len(t, disclosed, 2)
	require.Contains(t, disclosed, "iss")
	require.Contains(t, disclosed, "givenName")

	_, err = issued.Present(&jpt.PresentationHeader{}, []string{"ssn"}, pubKey)
	require.ErrorIs(t, err, jpt.ErrUnknownClaim)
}

func TestPresentedProofBinding(t *testing.T) {
	signer, pubKey := newTestSigner(t)
	issued := issueTestToken(t, signer)

	presented, err := issued.Present(
		&jpt.PresentationHeader{Nonce: "challenge-42"},
		[]string{"givenName"}, pubKey)
	require.NoError(t, err)

	token := presented.Serialize()

	t.Run("tampered payload", func(t *testing.T) {
		segments := strings.Split(token, ".")
		parts := strings.Split(segments[2], "~")
		parts[1] = base64.RawURLEncoding.EncodeToString([]byte(`"Mallory"`))
		segments[2] = strings.Join(parts, "~")

		parsed, err := jpt.ParsePresented(strings.Join(segments, "."))
		require.NoError(t, err)
		require.Error(t, parsed.Verify(pubKey))
	})

	t.Run("replayed under another nonce", func(t *testing.T) {
		headerBytes, err := json.Marshal(&jpt.PresentationHeader{Alg: jpt.AlgBBS, Nonce: "other-challenge"})
		require.NoError(t, err)

		segments := strings.Split(token, ".")
		segments[0] = base64.RawURLEncoding.EncodeToString(headerBytes)

		parsed, err := jpt.ParsePresented(strings.Join(segments, "."))
		require.NoError(t, err)
		require.Error(t, parsed.Verify(pubKey))
	})

	t.Run("wrong issuer key", func(t *testing.T) {
		_, wrongKey := newTestSigner(t)

		parsed, err := jpt.ParsePresented(token)
		require.NoError(t, err)
		require.Error(t, parsed.Verify(wrongKey))
	})
}
