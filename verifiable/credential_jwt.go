/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/anchorid/identity-go/jose/jws"
	jsonutil "github.com/anchorid/identity-go/util/json"
)

const (
	jwtFldIssuer    = "iss"
	jwtFldSubject   = "sub"
	jwtFldID        = "jti"
	jwtFldAudience  = "aud"
	jwtFldExpiry    = "exp"
	jwtFldNotBefore = "nbf"
	jwtFldIssuedAt  = "iat"
	jwtFldVC        = "vc"
	jwtFldVP        = "vp"
	jwtFldNonce     = "nonce"
)

var jwtRegisteredFlds = []string{
	jwtFldIssuer, jwtFldSubject, jwtFldID, jwtFldAudience,
	jwtFldExpiry, jwtFldNotBefore, jwtFldIssuedAt, jwtFldNonce,
}

// jwtCredClaims is the registered-claim envelope of a credential JWT. The
// vc claim is present in the V2 shape; the V1.1 shape carries the
// credential fields flattened next to the registered claims.
type jwtCredClaims struct {
	Issuer    string     `json:"iss,omitempty"`
	Subject   string     `json:"sub,omitempty"`
	ID        string     `json:"jti,omitempty"`
	Expiry    *int64     `json:"exp,omitempty"`
	NotBefore *int64     `json:"nbf,omitempty"`
	IssuedAt  *int64     `json:"iat,omitempty"`
	VC        JSONObject `json:"vc,omitempty"`
}

// DecodedCredential is the output of a successful credential validation:
// the typed credential plus the verified protected header and the temporal
// registered claims. It is only produced by a validator.
type DecodedCredential struct {
	Credential *Credential
	Header     *jws.Header

	// ExpirationDate and IssuanceDate are the exp and iat/nbf claims when
	// the token carried them.
	ExpirationDate *time.Time
	IssuanceDate   *time.Time
}

// decodeCredentialClaims turns verified JWT claims into a Credential. The
// V2 shape (vc envelope with the 2.0 base context) is tried first, then the
// V1.1 flattened shape; the credential's Version reports which won. The V2
// interpretation is only accepted when the envelope's @context confirms it.
func decodeCredentialClaims(claims []byte) (*DecodedCredential, error) {
	envelope := &jwtCredClaims{}
	if err := json.Unmarshal(claims, envelope); err != nil {
		return nil, fmt.Errorf("decode credential claims: %w", err)
	}

	var (
		credential *Credential
		err        error
	)

	if vcContext := contextOfVCClaim(envelope.VC); vcContext == V2ContextURI {
		credential, err = parseCredentialWithVersion(envelope.VC, SpecV2)
	} else {
		credential, err = decodeV1CredClaims(claims, envelope)
	}

	if err != nil {
		return nil, err
	}

	refineCredFromRegisteredClaims(credential, envelope)

	decoded := &DecodedCredential{Credential: credential}

	if envelope.Expiry != nil {
		t := time.Unix(*envelope.Expiry, 0).UTC()
		decoded.ExpirationDate = &t
	}

	if issuedAt := firstNumericDate(envelope.IssuedAt, envelope.NotBefore); issuedAt != nil {
		t := time.Unix(*issuedAt, 0).UTC()
		decoded.IssuanceDate = &t
	}

	return decoded, nil
}

// decodeV1CredClaims handles the flattened V1.1 shape and, for backward
// compatibility, a vc envelope carrying the 1.1 base context.
func decodeV1CredClaims(claims []byte, envelope *jwtCredClaims) (*Credential, error) {
	if envelope.VC != nil {
		return parseCredentialWithVersion(envelope.VC, SpecV1)
	}

	all := JSONObject{}
	if err := json.Unmarshal(claims, &all); err != nil {
		return nil, fmt.Errorf("decode credential claims: %w", err)
	}

	credObj := jsonutil.CopyExcept(all, jwtRegisteredFlds...)

	return parseCredentialWithVersion(credObj, SpecV1)
}

func contextOfVCClaim(vc JSONObject) string {
	if vc == nil {
		return ""
	}

	context, err := decodeContext(vc[jsonFldContext])
	if err != nil {
		return ""
	}

	return baseContextOf(context)
}

// refineCredFromRegisteredClaims fills credential fields the registered
// claims carry when the credential body omitted them, per the JWT encoding
// profiles of both data model versions.
func refineCredFromRegisteredClaims(credential *Credential, envelope *jwtCredClaims) {
	contents := &credential.contents

	if envelope.Issuer != "" && contents.Issuer.ID == "" {
		contents.Issuer.ID = envelope.Issuer
		credential.credentialJSON[jsonFldIssuer] = serializeIssuer(contents.Issuer)
	}

	if envelope.ID != "" && contents.ID == "" {
		contents.ID = envelope.ID
		credential.credentialJSON[jsonFldID] = envelope.ID
	}

	if envelope.Subject != "" && len(contents.Subject) == 1 && contents.Subject[0].ID == "" {
		contents.Subject[0].ID = envelope.Subject
		credential.credentialJSON[jsonFldSubject] = serializeSubjects(contents.Subject)
	}

	validFromFld, validUntilFld := jsonFldValidFrom, jsonFldValidUntil
	if credential.version == SpecV1 {
		validFromFld, validUntilFld = jsonFldIssued, jsonFldExpired
	}

	if envelope.Expiry != nil && contents.ValidUntil == nil {
		t := time.Unix(*envelope.Expiry, 0).UTC()
		contents.ValidUntil = &t
		credential.credentialJSON[validUntilFld] = t.Format(time.RFC3339)
	}

	if issuedAt := firstNumericDate(envelope.IssuedAt, envelope.NotBefore); issuedAt != nil && contents.ValidFrom == nil {
		t := time.Unix(*issuedAt, 0).UTC()
		contents.ValidFrom = &t
		credential.credentialJSON[validFromFld] = t.Format(time.RFC3339)
	}
}

func firstNumericDate(dates ...*int64) *int64 {
	for _, d := range dates {
		if d != nil {
			return d
		}
	}

	return nil
}

// credClaimsBytes serializes a credential into its JWT claims payload. V2
// credentials go under the vc claim; V1.1 credentials are flattened.
// Registered claims mirror the credential's id, issuer, subject and
// temporal fields.
func credClaimsBytes(credential *Credential) ([]byte, error) {
	var (
		payload []byte
		err     error
	)

	contents := credential.Contents()

	if credential.version == SpecV2 {
		payload, err = sjson.SetBytes([]byte(`{}`), jwtFldVC, credential.credentialJSON)
	} else {
		payload, err = json.Marshal(credential.credentialJSON)
	}

	if err != nil {
		return nil, fmt.Errorf("serialize credential claims: %w", err)
	}

	set := func(name string, value interface{}) {
		if err != nil {
			return
		}

		payload, err = sjson.SetBytes(payload, name, value)
	}

	if contents.Issuer.ID != "" {
		set(jwtFldIssuer, contents.Issuer.ID)
	}

	if contents.ID != "" {
		set(jwtFldID, contents.ID)
	}

	if len(contents.Subject) == 1 && contents.Subject[0].ID != "" {
		set(jwtFldSubject, contents.Subject[0].ID)
	}

	if contents.ValidUntil != nil {
		set(jwtFldExpiry, contents.ValidUntil.Unix())
	}

	if contents.ValidFrom != nil {
		set(jwtFldNotBefore, contents.ValidFrom.Unix())
		set(jwtFldIssuedAt, contents.ValidFrom.Unix())
	}

	if err != nil {
		return nil, fmt.Errorf("serialize credential claims: %w", err)
	}

	return payload, nil
}

// issuerClaimPaths are tried in order against the undecoded claims; the
// registered iss claim wins over body-level issuer properties.
var issuerClaimPaths = []string{
	"iss",
	"vc.issuer.id",
	"vc.issuer",
	"issuer.id",
	"issuer",
}

// ExtractIssuerFromJWT reads the issuer of a credential JWT without
// verifying it. The result identifies only which document to resolve; the
// token must still be verified against that document.
func ExtractIssuerFromJWT(token string) (string, error) {
	claims, err := insecureClaims(token)
	if err != nil {
		return "", err
	}

	for _, path := range issuerClaimPaths {
		if result := gjson.GetBytes(claims, path); result.Type == gjson.String && result.Str != "" {
			return result.Str, nil
		}
	}

	return "", fmt.Errorf("no issuer found in jwt claims")
}

// holderClaimPaths mirror issuerClaimPaths for presentation JWTs.
var holderClaimPaths = []string{
	"iss",
	"vp.holder",
	"holder",
}

// ExtractHolderFromJWT reads the holder of a presentation JWT without
// verifying it.
func ExtractHolderFromJWT(token string) (string, error) {
	claims, err := insecureClaims(token)
	if err != nil {
		return "", err
	}

	for _, path := range holderClaimPaths {
		if result := gjson.GetBytes(claims, path); result.Type == gjson.String && result.Str != "" {
			return result.Str, nil
		}
	}

	return "", fmt.Errorf("no holder found in jwt claims")
}

// insecureClaims decodes the payload segment of a compact JWS without any
// verification.
func insecureClaims(token string) ([]byte, error) {
	segments := strings.Split(token, ".")
	if len(segments) != 3 {
		return nil, fmt.Errorf("jwt must have three segments, got %d", len(segments))
	}

	claims, err := base64.RawURLEncoding.DecodeString(segments[1])
	if err != nil {
		return nil, fmt.Errorf("decode jwt payload: %w", err)
	}

	return claims, nil
}
