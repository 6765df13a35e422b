/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/anchorid/identity-go/did"
	"github.com/anchorid/identity-go/jpt"
)

// ToJPT signs the credential as an issued JSON proof token. Every leaf of
// the JWT claim set becomes its own payload slot, named by its path, so a
// holder can later conceal individual fields while the issuer's BBS+ proof
// keeps covering all of them.
func (c *Credential) ToJPT(signer *jpt.Signer, kid string) (string, error) {
	claims, err := credClaimsBytes(c)
	if err != nil {
		return "", err
	}

	names, payloads := flattenClaimSlots(claims)

	issued, err := signer.Sign(&jpt.IssuerHeader{Kid: kid, Claims: names}, payloads)
	if err != nil {
		return "", fmt.Errorf("sign jpt: %w", err)
	}

	return issued.Serialize(), nil
}

// PresentJPT derives a presented token from an issued one, concealing the
// named claim slots. Proof derivation needs the issuer's public key bytes;
// audience and nonce are bound into the derived proof.
func PresentJPT(issuedToken, audience, nonce string, conceal []string, issuerKey []byte) (string, error) {
	issued, err := jpt.ParseIssued(issuedToken)
	if err != nil {
		return "", err
	}

	disclose := lo.Filter(issued.Header.Claims, func(name string, _ int) bool {
		return !lo.Contains(conceal, name)
	})

	presented, err := issued.Present(&jpt.PresentationHeader{Aud: audience, Nonce: nonce},
		disclose, issuerKey)
	if err != nil {
		return "", fmt.Errorf("derive jpt presentation: %w", err)
	}

	return presented.Serialize(), nil
}

// ExtractIssuerFromJPT reads the issuer of a presented token without
// verifying its proof. The issuer slot must be among the disclosed ones.
func ExtractIssuerFromJPT(token string) (string, error) {
	presented, err := jpt.ParsePresented(token)
	if err != nil {
		return "", err
	}

	claims, err := reconstructClaims(presented)
	if err != nil {
		return "", err
	}

	for _, path := range issuerClaimPaths {
		if result := gjson.GetBytes(claims, path); result.Type == gjson.String && result.Str != "" {
			return result.Str, nil
		}
	}

	return "", fmt.Errorf("no issuer disclosed in jpt claims")
}

// JPTValidationOptions selects the checks applied to a presented token.
type JPTValidationOptions struct {
	// Credential configures the semantic checks shared with the JWT path.
	Credential CredentialValidationOptions

	// Nonce, when set, must match the challenge bound into the proof.
	Nonce string

	// Audience, when set, must match the aud bound into the proof.
	Audience string
}

func (o *JPTValidationOptions) orDefault() *JPTValidationOptions {
	if o == nil {
		return &JPTValidationOptions{}
	}

	return o
}

// DecodedJPTCredential is the output of a successful JPT validation. Only
// the disclosed slots contribute to the credential; concealed fields are
// absent, not empty.
type DecodedJPTCredential struct {
	Credential *Credential
	Header     *jpt.IssuerHeader

	// Disclosed lists the claim slots the holder revealed.
	Disclosed []string

	ExpirationDate *time.Time
	IssuanceDate   *time.Time
}

// JPTCredentialValidator validates presented JSON proof tokens. The trust
// path differs from the JWS validator: a BBS+ proof over the disclosed
// slot subset is checked against the issuer's key, and only disclosed
// claims take part in the semantic checks.
type JPTCredentialValidator struct {
	inner *CredentialValidator
}

// NewJPTCredentialValidator creates a validator. The JPT path carries its
// own proof algorithm, so no JWS verifier is taken.
func NewJPTCredentialValidator(opts ...CredentialValidatorOpt) *JPTCredentialValidator {
	return &JPTCredentialValidator{inner: NewCredentialValidator(nil, opts...)}
}

// ValidateWithResolver resolves the issuer's DID document by the disclosed
// issuer claim, then validates against it.
func (v *JPTCredentialValidator) ValidateWithResolver(ctx context.Context, token string, resolver Resolver,
	options *JPTValidationOptions) (*DecodedJPTCredential, error) {
	issuer, err := ExtractIssuerFromJPT(token)
	if err != nil {
		return nil, &CompoundCredentialError{Errors: []*ValidationError{
			newValidationError(KindJWPDecoding, err),
		}}
	}

	doc, err := resolver.Resolve(ctx, issuer)
	if err != nil {
		return nil, &CompoundCredentialError{Errors: []*ValidationError{
			newSignerError(KindSignerURL, ContextIssuer, err),
		}}
	}

	return v.Validate(ctx, token, doc, options)
}

// Validate checks a presented token against the issuer's already-resolved
// DID document. On failure the returned error is a
// *CompoundCredentialError, as on the JWT path.
func (v *JPTCredentialValidator) Validate(ctx context.Context, token string, issuerDoc *did.Document,
	options *JPTValidationOptions) (*DecodedJPTCredential, error) {
	options = options.orDefault()
	collector := &errCollector{failFast: options.Credential.FailFast}

	decoded := v.validate(ctx, token, issuerDoc, options, collector)
	if len(collector.errs) > 0 {
		return nil, &CompoundCredentialError{Errors: collector.errs}
	}

	return decoded, nil
}

//nolint:funlen,gocyclo
func (v *JPTCredentialValidator) validate(ctx context.Context, token string, issuerDoc *did.Document,
	options *JPTValidationOptions, collector *errCollector) *DecodedJPTCredential {
	presented, err := jpt.ParsePresented(token)
	if err != nil {
		collector.add(newValidationError(KindJWPDecoding, err))

		return nil
	}

	claims, err := reconstructClaims(presented)
	if err != nil {
		collector.add(newValidationError(KindJWPDecoding, err))

		return nil
	}

	issuer := ""

	for _, path := range issuerClaimPaths {
		if result := gjson.GetBytes(claims, path); result.Type == gjson.String && result.Str != "" {
			issuer = result.Str

			break
		}
	}

	if issuer == "" {
		collector.add(newSignerError(KindSignerURL, ContextIssuer,
			fmt.Errorf("no issuer disclosed in jpt claims")))

		return nil
	}

	issuerDID, err := did.Parse(issuer)
	if err != nil {
		collector.add(newSignerError(KindSignerURL, ContextIssuer, err))

		return nil
	}

	if issuerDoc.ID != issuerDID.String() {
		if collector.add(newSignerError(KindDocumentMismatch, ContextIssuer,
			fmt.Errorf("document id %q, issuer %q", issuerDoc.ID, issuerDID.String()))) {
			return nil
		}
	}

	if err := v.verifyProof(presented, issuerDoc, options); err != nil {
		if collector.add(newSignerError(KindSignature, ContextIssuer, err)) {
			return nil
		}
	}

	decodedCred, err := decodeCredentialClaims(claims)
	if err != nil {
		collector.add(newValidationError(KindCredentialStructure, err))

		return nil
	}

	if v.inner.checkSemantics(ctx, decodedCred.Credential, &options.Credential, collector) {
		return nil
	}

	if len(collector.errs) > 0 {
		return nil
	}

	disclosed := lo.Filter(presented.IssuerHeader.Claims, func(name string, idx int) bool {
		return presented.Payloads[idx] != nil
	})

	return &DecodedJPTCredential{
		Credential:     decodedCred.Credential,
		Header:         presented.IssuerHeader,
		Disclosed:      disclosed,
		ExpirationDate: decodedCred.ExpirationDate,
		IssuanceDate:   decodedCred.IssuanceDate,
	}
}

// verifyProof checks challenge binding and the BBS+ proof against the
// issuer's verification method named by the issuer header kid.
func (v *JPTCredentialValidator) verifyProof(presented *jpt.Presented, issuerDoc *did.Document,
	options *JPTValidationOptions) error {
	if options.Nonce != "" && presented.Header.Nonce != options.Nonce {
		return fmt.Errorf("nonce mismatch")
	}

	if options.Audience != "" && presented.Header.Aud != options.Audience {
		return fmt.Errorf("audience mismatch")
	}

	kid := presented.IssuerHeader.Kid
	if kid == "" {
		return fmt.Errorf("issuer header without kid")
	}

	method := issuerDoc.ResolveMethod(kid, options.Credential.MethodScope)
	if method == nil {
		return fmt.Errorf("%w: %q", did.ErrMethodNotFound, kid)
	}

	issuerKey, err := method.KeyBytes()
	if err != nil {
		return fmt.Errorf("%w: %w", did.ErrInvalidMethodType, err)
	}

	return presented.Verify(issuerKey)
}

// flattenClaimSlots splits a claim set into one slot per leaf value, in
// document order. Arrays stay whole; splitting on array indices would let
// a holder silently reorder multi-valued fields.
func flattenClaimSlots(claims []byte) ([]string, [][]byte) {
	var (
		names    []string
		payloads [][]byte
	)

	var walk func(prefix string, value gjson.Result)

	walk = func(prefix string, value gjson.Result) {
		if value.IsObject() && len(value.Map()) > 0 {
			value.ForEach(func(key, child gjson.Result) bool {
				path := escapeClaimKey(key.Str)
				if prefix != "" {
					path = prefix + "." + path
				}

				walk(path, child)

				return true
			})

			return
		}

		names = append(names, prefix)
		payloads = append(payloads, []byte(value.Raw))
	}

	walk("", gjson.ParseBytes(claims))

	return names, payloads
}

// reconstructClaims rebuilds a claim set object from the disclosed slots
// of a presented token.
func reconstructClaims(presented *jpt.Presented) ([]byte, error) {
	claims := []byte("{}")

	for idx, name := range presented.IssuerHeader.Claims {
		if presented.Payloads[idx] == nil {
			continue
		}

		var err error

		claims, err = sjson.SetRawBytes(claims, name, presented.Payloads[idx])
		if err != nil {
			return nil, fmt.Errorf("reconstruct claim %q: %w", name, err)
		}
	}

	return claims, nil
}

// escapeClaimKey escapes path syntax in a claim name so dotted keys stay
// single slots and keys like @context are not read as path modifiers.
func escapeClaimKey(key string) string {
	return strings.NewReplacer(
		".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`, "@", `\@`,
	).Replace(key)
}
