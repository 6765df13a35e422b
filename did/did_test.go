/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/btcsuite/btcutil/base58"
	"github.com/multiformats/go-multibase"
	"github.com/stretchr/testify/require"

	"github.com/anchorid/identity-go/did"
	"github.com/anchorid/identity-go/jose/jwk"
	"github.com/anchorid/identity-go/jose/jws"
	"github.com/anchorid/identity-go/proof"
	"github.com/anchorid/identity-go/proof/verifiers/eddsa"
)

func TestParse(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		d, err := did.Parse("did:example:123456")
		require.NoError(t, err)
		require.Equal(t, "example", d.Method)
		require.Equal(t, "123456", d.MethodSpecificID)
		require.Equal(t, "did:example:123456", d.String())
	})

	t.Run("method with colons in id", func(t *testing.T) {
		d, err := did.Parse("did:web:example.com:user:alice")
		require.NoError(t, err)
		require.Equal(t, "web", d.Method)
		require.Equal(t, "example.com:user:alice", d.MethodSpecificID)
	})

	t.Run("missing scheme", func(t *testing.T) {
		_, err := did.Parse("example:123456")
		require.Error(t, err)
	})

	t.Run("uppercase method", func(t *testing.T) {
		_, err := did.Parse("did:Example:123456")
		require.Error(t, err)
	})

	t.Run("empty method specific id", func(t *testing.T) {
		_, err := did.Parse("did:example:")
		require.Error(t, err)
	})
}

func TestParseURL(t *testing.T) {
	u, err := did.ParseURL("did:example:123?service=agent#key-1")
	require.NoError(t, err)
	require.Equal(t, "example", u.DID.Method)
	require.Equal(t, "service=agent", u.Query)
	require.Equal(t, "key-1", u.Fragment)
	require.Equal(t, "did:example:123?service=agent#key-1", u.String())
}

const testDocJSON = `{
  "@context": ["https://www.w3.org/ns/did/v1"],
  "id": "did:example:123",
  "verificationMethod": [{
    "id": "did:example:123#key-1",
    "type": "JsonWebKey2020",
    "controller": "did:example:123",
    "publicKeyJwk": {
      "kty": "OKP",
      "crv": "Ed25519",
      "x": "11qYAYKxCrfVS_7TyWQHOg7hcvPapiMlrwIaaPcHURo"
    }
  }],
  "authentication": ["#key-1"],
  "assertionMethod": [{
    "id": "#key-2",
    "type": "Ed25519VerificationKey2018",
    "controller": "did:example:123",
    "publicKeyBase58": "FyfKP2HvTKqDZQzvyL38yXH7bExmwofxHf2NR5BrcGf1"
  }]
}`

func TestParseDocument(t *testing.T) {
	doc, err := did.ParseDocument([]byte(testDocJSON))
	require.NoError(t, err)
	require.Equal(t, "did:example:123", doc.ID)
	require.Len(t, doc.VerificationMethod, 1)

	t.Run("dangling reference", func(t *testing.T) {
		_, err := did.ParseDocument([]byte(`{
		  "id": "did:example:123",
		  "authentication": ["#missing"]
		}`))
		require.ErrorContains(t, err, "unknown method")
	})

	t.Run("invalid id", func(t *testing.T) {
		_, err := did.ParseDocument([]byte(`{"id": "not-a-did"}`))
		require.ErrorContains(t, err, "document id")
	})
}

func TestResolveMethod(t *testing.T) {
	doc, err := did.ParseDocument([]byte(testDocJSON))
	require.NoError(t, err)

	t.Run("by fragment", func(t *testing.T) {
		m := doc.ResolveMethod("#key-1", did.ScopeAny)
		require.NotNil(t, m)
		require.Equal(t, "did:example:123#key-1", m.ID)
	})

	t.Run("by absolute url", func(t *testing.T) {
		require.NotNil(t, doc.ResolveMethod("did:example:123#key-1", did.ScopeAny))
	})

	t.Run("scoped hit", func(t *testing.T) {
		require.NotNil(t, doc.ResolveMethod("#key-1", did.ScopeAuthentication))
	})

	t.Run("scoped miss", func(t *testing.T) {
		require.Nil(t, doc.ResolveMethod("#key-1", did.ScopeKeyAgreement))
	})

	t.Run("embedded method", func(t *testing.T) {
		m := doc.ResolveMethod("#key-2", did.ScopeAssertionMethod)
		require.NotNil(t, m)
		require.Equal(t, did.TypeEd25519VerificationKey2018, m.Type)
	})

	t.Run("unknown", func(t *testing.T) {
		require.Nil(t, doc.ResolveMethod("#nope", did.ScopeAny))
	})
}

func TestVerificationMethodJWK(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	t.Run("publicKeyJwk projects to public", func(t *testing.T) {
		key := jwk.New(jwk.TypeOKP)
		key.OKP = &jwk.OKPParams{
			Crv: "Ed25519",
			X:   base64.RawURLEncoding.EncodeToString(pub),
			D:   "private-part",
		}

		m := &did.VerificationMethod{
			ID:           "did:example:123#k",
			Type:         did.TypeJSONWebKey2020,
			PublicKeyJwk: key,
		}

		got, err := m.JWK()
		require.NoError(t, err)
		require.True(t, got.IsPublic())
	})

	t.Run("publicKeyBase58", func(t *testing.T) {
		m := &did.VerificationMethod{
			ID:              "did:example:123#k",
			Type:            did.TypeEd25519VerificationKey2018,
			PublicKeyBase58: base58.Encode(pub),
		}

		got, err := m.JWK()
		require.NoError(t, err)

		raw, err := eddsa.PublicKeyBytes(got)
		require.NoError(t, err)
		require.Equal(t, ed25519.PublicKey(pub), raw)
	})

	t.Run("publicKeyMultibase with multicodec prefix", func(t *testing.T) {
		encoded, err := multibase.Encode(multibase.Base58BTC, append([]byte{0xed, 0x01}, pub...))
		require.NoError(t, err)

		m := &did.VerificationMethod{
			ID:                 "did:example:123#k",
			Type:               did.TypeEd25519VerificationKey2020,
			PublicKeyMultibase: encoded,
		}

		got, err := m.JWK()
		require.NoError(t, err)

		raw, err := eddsa.PublicKeyBytes(got)
		require.NoError(t, err)
		require.Equal(t, ed25519.PublicKey(pub), raw)
	})

	t.Run("no key material", func(t *testing.T) {
		m := &did.VerificationMethod{ID: "did:example:123#k", Type: did.TypeJSONWebKey2020}

		_, err := m.JWK()
		require.ErrorIs(t, err, did.ErrNoKeyMaterial)
	})
}

type ed25519Signer struct {
	priv ed25519.PrivateKey
}

func (s *ed25519Signer) Sign(data []byte) ([]byte, error) {
	return ed25519.Sign(s.priv, data), nil
}

func signedTestDoc(t *testing.T) (*did.Document, string) {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	doc := &did.Document{
		ID: "did:example:signer",
		VerificationMethod: []*did.VerificationMethod{{
			ID:         "did:example:signer#key-1",
			Type:       did.TypeJSONWebKey2020,
			Controller: "did:example:signer",
			PublicKeyJwk: func() *jwk.JWK {
				key := jwk.New(jwk.TypeOKP)
				key.OKP = &jwk.OKPParams{
					Crv: "Ed25519",
					X:   base64.RawURLEncoding.EncodeToString(pub),
				}

				return key
			}(),
		}},
		Authentication: []did.MethodRef{{Ref: "#key-1"}},
	}
	require.NoError(t, doc.Validate())

	token, err := jws.Sign([]byte(`{"hello":"world"}`), &jws.Header{
		Alg: proof.AlgEdDSA,
		Kid: "did:example:signer#key-1",
	}, &ed25519Signer{priv: priv})
	require.NoError(t, err)

	return doc, token
}

func TestDocumentVerifyJWS(t *testing.T) {
	doc, token := signedTestDoc(t)

	t.Run("success", func(t *testing.T) {
		decoded, err := doc.VerifyJWS(token, eddsa.New(), nil)
		require.NoError(t, err)
		require.JSONEq(t, `{"hello":"world"}`, string(decoded.Claims))
	})

	t.Run("scoped to authentication", func(t *testing.T) {
		_, err := doc.VerifyJWS(token, eddsa.New(), &did.JWSVerificationOptions{
			MethodScope: did.ScopeAuthentication,
		})
		require.NoError(t, err)
	})

	t.Run("method not in scope", func(t *testing.T) {
		_, err := doc.VerifyJWS(token, eddsa.New(), &did.JWSVerificationOptions{
			MethodScope: did.ScopeKeyAgreement,
		})
		require.ErrorIs(t, err, did.ErrMethodNotFound)
	})

	t.Run("explicit method id", func(t *testing.T) {
		_, err := doc.VerifyJWS(token, eddsa.New(), &did.JWSVerificationOptions{
			MethodID: "#key-1",
		})
		require.NoError(t, err)
	})

	t.Run("unknown method id", func(t *testing.T) {
		_, err := doc.VerifyJWS(token, eddsa.New(), &did.JWSVerificationOptions{
			MethodID: "#other",
		})
		require.ErrorIs(t, err, did.ErrMethodNotFound)
	})

	t.Run("tampered payload", func(t *testing.T) {
		otherDoc, otherToken := signedTestDoc(t)
		_ = otherDoc

		_, err := doc.VerifyJWS(otherToken, eddsa.New(), nil)
		require.Error(t, err)
	})
}
