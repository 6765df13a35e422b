/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jwk_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anchorid/identity-go/jose/jwk"
)

// Test vector from RFC 8037 appendix A.
const (
	ed25519PrivateJWK = `{"kty":"OKP","crv":"Ed25519",` +
		`"d":"nWGxne_9WmC6hEr0kuwsxERJxWl7MmkZcDusAxyuf2A",` +
		`"x":"11qYAYKxCrfVS_7TyWQHOg7hcvPapiMlrwIaaPcHURo"}`
	ed25519PublicJWK = `{"kty":"OKP","crv":"Ed25519",` +
		`"x":"11qYAYKxCrfVS_7TyWQHOg7hcvPapiMlrwIaaPcHURo"}`
	ed25519Thumbprint = "kPrK_qmxVWaYVA9wwBF6Iuo3vVzz7TxHCTwXBygrS4k"
)

func TestNewAttachesParamSet(t *testing.T) {
	key := jwk.New(jwk.TypeOKP)
	require.NotNil(t, key.OKP)

	key.OKP.Crv = "Ed25519"
	key.OKP.X = "11qYAYKxCrfVS_7TyWQHOg7hcvPapiMlrwIaaPcHURo"
	require.NoError(t, key.Validate())

	require.ErrorContains(t, jwk.New(jwk.Type("Unknown")).Validate(),
		"exactly one parameter set")
}

func TestThumbprintRFC8037(t *testing.T) {
	var private, public jwk.JWK

	require.NoError(t, json.Unmarshal([]byte(ed25519PrivateJWK), &private))
	require.NoError(t, json.Unmarshal([]byte(ed25519PublicJWK), &public))

	privateTP, err := private.ThumbprintBase64()
	require.NoError(t, err)
	require.Equal(t, ed25519Thumbprint, privateTP)

	publicTP, err := public.ThumbprintBase64()
	require.NoError(t, err)
	require.Equal(t, ed25519Thumbprint, publicTP)
}

func TestThumbprintIgnoresOptionalFields(t *testing.T) {
	var plain, annotated jwk.JWK

	require.NoError(t, json.Unmarshal([]byte(ed25519PublicJWK), &plain))
	require.NoError(t, json.Unmarshal([]byte(`{"kty":"OKP","crv":"Ed25519",`+
		`"x":"11qYAYKxCrfVS_7TyWQHOg7hcvPapiMlrwIaaPcHURo",`+
		`"kid":"my-key","use":"sig","alg":"EdDSA"}`), &annotated))

	plainTP, err := plain.Thumbprint()
	require.NoError(t, err)

	annotatedTP, err := annotated.Thumbprint()
	require.NoError(t, err)

	require.Equal(t, plainTP, annotatedTP)
}

func TestPublicProjection(t *testing.T) {
	var private jwk.JWK
	require.NoError(t, json.Unmarshal([]byte(ed25519PrivateJWK), &private))
	require.True(t, private.IsPrivate())

	public, err := private.Public()
	require.NoError(t, err)
	require.True(t, public.IsPublic())
	require.Empty(t, public.OKP.D)

	// Idempotent.
	again, err := public.Public()
	require.NoError(t, err)
	require.Equal(t, public, again)
}

func TestPublicProjectionSymmetricKey(t *testing.T) {
	var key jwk.JWK
	require.NoError(t, json.Unmarshal([]byte(`{"kty":"oct","k":"AyM1SysPpbyDfgZld3umj1qzKObwVMkoqQ-EstJQLr_T-1qS0gZH75aKtMN3Yj0iPS4hcgUuTwjAzZr1Z9CAow"}`), &key))

	_, err := key.Public()
	require.ErrorIs(t, err, jwk.ErrNoPublicProjection)
}

func TestUnmarshalRejectsParamMismatch(t *testing.T) {
	var key jwk.JWK

	// EC kty with OKP-shaped parameters (no y).
	err := json.Unmarshal([]byte(`{"kty":"EC","crv":"P-256","x":"AQ"}`), &key)
	require.ErrorContains(t, err, "missing x or y")

	err = json.Unmarshal([]byte(`{"kty":"Unknown","x":"AQ"}`), &key)
	require.ErrorContains(t, err, "unknown key type")
}

func TestKeyOpsSet(t *testing.T) {
	var key jwk.JWK
	require.NoError(t, json.Unmarshal([]byte(`{"kty":"OKP","crv":"Ed25519",`+
		`"x":"11qYAYKxCrfVS_7TyWQHOg7hcvPapiMlrwIaaPcHURo",`+
		`"key_ops":["verify","sign","verify"]}`), &key))

	require.Equal(t, jwk.OperationSet{"sign", "verify"}, key.KeyOps)
	require.True(t, key.KeyOps.Contains("sign"))
	require.False(t, key.KeyOps.Contains("encrypt"))
}

func TestUseKeyOpsConsistency(t *testing.T) {
	var key jwk.JWK
	err := json.Unmarshal([]byte(`{"kty":"OKP","crv":"Ed25519",`+
		`"x":"11qYAYKxCrfVS_7TyWQHOg7hcvPapiMlrwIaaPcHURo",`+
		`"use":"sig","key_ops":["encrypt"]}`), &key)
	require.ErrorContains(t, err, "conflicts with use")
}

func TestCompositeKey(t *testing.T) {
	raw := `{
		"kty":"CMP",
		"algId":"id-MLDSA44-Ed25519",
		"traditionalPublicKey":` + ed25519PublicJWK + `,
		"pqPublicKey":{"kty":"AKP","pub":"dGVzdC1tbGRzYS1rZXk"}
	}`

	var key jwk.JWK
	require.NoError(t, json.Unmarshal([]byte(raw), &key))
	require.Equal(t, "id-MLDSA44-Ed25519", key.CMP.AlgID)
	require.False(t, key.IsPrivate())

	tp, err := key.ThumbprintBase64()
	require.NoError(t, err)
	require.NotEmpty(t, tp)

	// Round trip.
	data, err := json.Marshal(&key)
	require.NoError(t, err)

	var again jwk.JWK
	require.NoError(t, json.Unmarshal(data, &again))
	require.Equal(t, key.CMP.AlgID, again.CMP.AlgID)
}

func TestCompositeRejectsNonAKPPostQuantum(t *testing.T) {
	raw := `{
		"kty":"CMP",
		"algId":"id-MLDSA44-Ed25519",
		"traditionalPublicKey":` + ed25519PublicJWK + `,
		"pqPublicKey":` + ed25519PublicJWK + `
	}`

	var key jwk.JWK
	err := json.Unmarshal([]byte(raw), &key)
	require.ErrorContains(t, err, `post-quantum component must be "AKP"`)
}
