/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable_test

import (
	"context"
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/anchorid/identity-go/did"
	"github.com/anchorid/identity-go/jose/jwk"
	"github.com/anchorid/identity-go/kms"
	"github.com/anchorid/identity-go/proof"
	"github.com/anchorid/identity-go/proof/defaults"
	"github.com/anchorid/identity-go/verifiable"
)

// testActor is a DID with one Ed25519 key usable for both assertion and
// authentication.
type testActor struct {
	did    string
	doc    *did.Document
	signer *kms.Signer
	kid    string
}

func newTestActor(t *testing.T, store kms.Store, name string) *testActor {
	t.Helper()

	keyID, public, err := store.Generate(proof.AlgEdDSA)
	require.NoError(t, err)

	signer, err := kms.NewSigner(store, keyID)
	require.NoError(t, err)

	actorDID := "did:example:" + name
	kid := actorDID + "#key-1"

	methodKey := clonePublic(t, public)
	methodKey.Kid = ""

	doc := &did.Document{
		ID: actorDID,
		VerificationMethod: []*did.VerificationMethod{{
			ID:           kid,
			Type:         did.TypeJSONWebKey2020,
			Controller:   actorDID,
			PublicKeyJwk: methodKey,
		}},
		Authentication:  []did.MethodRef{{Ref: kid}},
		AssertionMethod: []did.MethodRef{{Ref: kid}},
	}
	require.NoError(t, doc.Validate())

	return &testActor{
		did:    actorDID,
		doc:    doc,
		signer: signer,
		kid:    kid,
	}
}

func clonePublic(t *testing.T, key *jwk.JWK) *jwk.JWK {
	t.Helper()

	data, err := key.MarshalJSON()
	require.NoError(t, err)

	clone := &jwk.JWK{}
	require.NoError(t, clone.UnmarshalJSON(data))

	return clone
}

// newCredentialValidator builds a validator over the default checker with
// optional extra options.
func newCredentialValidator(opts []verifiable.CredentialValidatorOpt,
	extra ...verifiable.CredentialValidatorOpt) *verifiable.CredentialValidator {
	return verifiable.NewCredentialValidator(defaults.NewDefaultChecker(), append(opts, extra...)...)
}

// mapResolver resolves DIDs from a fixed document set.
type mapResolver struct {
	docs map[string]*did.Document
}

func (r *mapResolver) Resolve(_ context.Context, didStr string) (*did.Document, error) {
	doc, ok := r.docs[didStr]
	if !ok {
		return nil, fmt.Errorf("unknown did %q", didStr)
	}

	return doc, nil
}

func newMapResolver(actors ...*testActor) *mapResolver {
	docs := map[string]*did.Document{}

	for _, actor := range actors {
		docs[actor.did] = actor.doc
	}

	return &mapResolver{docs: docs}
}

func issueTestCredential(t *testing.T, issuer *testActor, subjectDID string,
	version verifiable.SpecVersion, mutate func(b *verifiable.CredentialBuilder)) string {
	t.Helper()

	builder := verifiable.NewCredentialBuilder(version).
		Issuer(verifiable.Issuer{ID: issuer.did}).
		Subject(verifiable.Subject{
			ID:           subjectDID,
			CustomFields: verifiable.CustomFields{"degree": "Bachelor of Science"},
		}).
		ValidFrom(time.Now().Add(-time.Hour))

	if mutate != nil {
		mutate(builder)
	}

	credential, err := builder.Build()
	require.NoError(t, err)

	token, err := credential.ToJWT(issuer.signer, issuer.kid)
	require.NoError(t, err)

	return token
}

// tamperSignature corrupts the signature segment while leaving the claims
// intact.
func tamperSignature(t *testing.T, token string) string {
	t.Helper()

	segments := splitToken(t, token)

	sig, err := base64.RawURLEncoding.DecodeString(segments[2])
	require.NoError(t, err)

	tampered := append([]byte(nil), sig...)
	tampered[len(tampered)/2] ^= 0x01

	segments[2] = base64.RawURLEncoding.EncodeToString(tampered)

	return segments[0] + "." + segments[1] + "." + segments[2]
}

func splitToken(t *testing.T, token string) []string {
	t.Helper()

	segments := make([]string, 3)

	first := -1
	second := -1

	for i, c := range token {
		if c != '.' {
			continue
		}

		if first < 0 {
			first = i
		} else {
			second = i

			break
		}
	}

	require.True(t, first > 0 && second > first)

	segments[0] = token[:first]
	segments[1] = token[first+1 : second]
	segments[2] = token[second+1:]

	return segments
}
