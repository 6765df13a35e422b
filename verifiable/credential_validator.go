/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anchorid/identity-go/did"
	"github.com/anchorid/identity-go/jose/jws"
	"github.com/anchorid/identity-go/proof"
)

// Resolver fetches the DID document of a signer. resolver.Resolver
// satisfies it; resolution is the only asynchronous step of a validation.
type Resolver interface {
	Resolve(ctx context.Context, didStr string) (*did.Document, error)
}

// CredentialValidator decodes, cryptographically verifies and semantically
// validates credential JWTs. Validation itself is synchronous and
// side-effect-free; only status checking may perform I/O.
type CredentialValidator struct {
	verifier      proof.Verifier
	statusChecker StatusChecker
	now           func() time.Time
}

// CredentialValidatorOpt configures a CredentialValidator.
type CredentialValidatorOpt func(v *CredentialValidator)

// WithStatusChecker attaches the status-list checker consulted for
// credentialStatus entries.
func WithStatusChecker(checker StatusChecker) CredentialValidatorOpt {
	return func(v *CredentialValidator) {
		v.statusChecker = checker
	}
}

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) CredentialValidatorOpt {
	return func(v *CredentialValidator) {
		v.now = now
	}
}

// NewCredentialValidator creates a validator verifying signatures with the
// given verifier, usually a proof checker covering all supported
// algorithms.
func NewCredentialValidator(verifier proof.Verifier, opts ...CredentialValidatorOpt) *CredentialValidator {
	v := &CredentialValidator{
		verifier: verifier,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// errCollector accumulates validation errors per the fail-fast mode.
type errCollector struct {
	failFast FailFast
	errs     []*ValidationError
}

// add records an error and reports whether validation should stop.
func (c *errCollector) add(err *ValidationError) bool {
	c.errs = append(c.errs, err)

	return c.failFast == FirstError
}

// ValidateWithResolver resolves the issuer's DID document by the token's
// untrusted iss claim, then validates against it.
func (v *CredentialValidator) ValidateWithResolver(ctx context.Context, token string, resolver Resolver,
	options *CredentialValidationOptions) (*DecodedCredential, error) {
	issuer, err := ExtractIssuerFromJWT(token)
	if err != nil {
		return nil, &CompoundCredentialError{Errors: []*ValidationError{
			newValidationError(KindJWSDecoding, err),
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

// Validate checks a credential JWT against the issuer's already-resolved
// DID document. On failure the returned error is a
// *CompoundCredentialError carrying every violation found under the
// selected fail-fast mode.
func (v *CredentialValidator) Validate(ctx context.Context, token string, issuerDoc *did.Document,
	options *CredentialValidationOptions) (*DecodedCredential, error) {
	options = options.orDefault()
	collector := &errCollector{failFast: options.FailFast}

	decoded := v.validate(ctx, token, issuerDoc, options, collector)
	if len(collector.errs) > 0 {
		return nil, &CompoundCredentialError{Errors: collector.errs}
	}

	return decoded, nil
}

//nolint:funlen,gocyclo
func (v *CredentialValidator) validate(ctx context.Context, token string, issuerDoc *did.Document,
	options *CredentialValidationOptions, collector *errCollector) *DecodedCredential {
	// Decode failures are fatal: nothing further can be checked.
	item, err := jws.Parse(token)
	if err != nil {
		collector.add(newValidationError(KindJWSDecoding, err))

		return nil
	}

	issuer, err := ExtractIssuerFromJWT(token)
	if err != nil {
		collector.add(newSignerError(KindSignerURL, ContextIssuer, err))

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

	verified, err := issuerDoc.VerifyJWS(token, v.verifier, &did.JWSVerificationOptions{
		MethodScope: options.MethodScope,
	})
	if err != nil {
		if collector.add(newSignerError(KindSignature, ContextIssuer, err)) {
			return nil
		}
	}

	claims := item.InsecureClaims()
	if verified != nil {
		claims = verified.Claims
	}

	decoded, err := decodeCredentialClaims(claims)
	if err != nil {
		collector.add(newValidationError(KindCredentialStructure, err))

		return nil
	}

	decoded.Header = item.Protected()

	if v.checkSemantics(ctx, decoded.Credential, options, collector) {
		return nil
	}

	if len(collector.errs) > 0 {
		return nil
	}

	return decoded
}

// checkSemantics runs the non-cryptographic checks shared by the JWT and
// JPT paths: structure, expiry, issuance and status. It reports whether
// validation should stop.
func (v *CredentialValidator) checkSemantics(ctx context.Context, credential *Credential,
	options *CredentialValidationOptions, collector *errCollector) bool {
	for _, structErr := range credential.validateStructure() {
		if collector.add(structErr) {
			return true
		}
	}

	now := v.now()
	contents := credential.Contents()

	if contents.ValidUntil != nil && contents.ValidUntil.Before(options.earliestExpiry(now)) {
		if collector.add(newValidationError(KindExpirationDate, nil)) {
			return true
		}
	}

	if contents.ValidFrom != nil && contents.ValidFrom.After(options.latestIssuance(now)) {
		if collector.add(newValidationError(KindIssuanceDate, nil)) {
			return true
		}
	}

	v.checkStatus(ctx, contents.Status, options, collector)

	return false
}

func (v *CredentialValidator) checkStatus(ctx context.Context, statuses []*TypedID,
	options *CredentialValidationOptions, collector *errCollector) {
	if options.Status == StatusCheckSkipAll || len(statuses) == 0 {
		return
	}

	for _, status := range statuses {
		supported := v.statusChecker != nil && v.statusChecker.Supports(status.Type)

		if !supported {
			if options.Status == StatusCheckSkipUnsupported {
				errLogger.Printf("unsupported credentialStatus type %q skipped", status.Type)

				continue
			}

			if collector.add(newValidationError(KindInvalidStatus,
				fmt.Errorf("%w: %q", ErrStatusNotSupported, status.Type))) {
				return
			}

			continue
		}

		err := v.statusChecker.CheckStatus(ctx, status)

		switch {
		case err == nil:
		case errors.Is(err, ErrStatusRevoked):
			if collector.add(newValidationError(KindRevoked, err)) {
				return
			}
		case errors.Is(err, ErrStatusSuspended):
			if collector.add(newValidationError(KindSuspended, err)) {
				return
			}
		default:
			if collector.add(newValidationError(KindInvalidStatus, err)) {
				return
			}
		}
	}
}
