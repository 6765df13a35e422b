/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"context"
	"fmt"
	"time"

	"github.com/anchorid/identity-go/did"
	"github.com/anchorid/identity-go/jose/jws"
	"github.com/anchorid/identity-go/proof"
)

// algNone marks an unsecured JWT carrying no holder signature.
const algNone = "none"

// PresentationValidator validates presentation JWTs: the holder's signature
// against the holder's DID document, presentation-level semantics, and
// every embedded credential independently. A failing credential never masks
// the others; its compound error is keyed by position.
type PresentationValidator struct {
	verifier      proof.Verifier
	credValidator *CredentialValidator
}

// PresentationValidatorOpt configures a PresentationValidator.
type PresentationValidatorOpt func(v *PresentationValidator)

// WithCredentialValidator replaces the validator used for embedded
// credentials.
func WithCredentialValidator(credValidator *CredentialValidator) PresentationValidatorOpt {
	return func(v *PresentationValidator) {
		v.credValidator = credValidator
	}
}

// NewPresentationValidator creates a validator verifying signatures with
// the given verifier. Embedded credentials are validated with a credential
// validator sharing the verifier unless one is supplied.
func NewPresentationValidator(verifier proof.Verifier, opts ...PresentationValidatorOpt) *PresentationValidator {
	v := &PresentationValidator{
		verifier: verifier,
	}

	for _, opt := range opts {
		opt(v)
	}

	if v.credValidator == nil {
		v.credValidator = NewCredentialValidator(verifier)
	}

	return v
}

// Validate checks a presentation JWT. The holder's document is resolved
// through the resolver when holderDoc is nil; issuer documents of embedded
// credentials are always resolved through it. On failure the returned
// error is a *CompoundPresentationError attributing per-credential failures
// to their positions.
//
//nolint:funlen,gocyclo
func (v *PresentationValidator) Validate(ctx context.Context, token string, holderDoc *did.Document,
	resolver Resolver, options *PresentationValidationOptions) (*DecodedPresentation, error) {
	options = options.orDefault()
	collector := &errCollector{failFast: options.FailFast}
	credentialErrors := map[int]*CompoundCredentialError{}

	fail := func() (*DecodedPresentation, error) {
		return nil, &CompoundPresentationError{Errors: collector.errs, CredentialErrors: credentialErrors}
	}

	item, err := jws.Parse(token)
	if err != nil {
		collector.add(newValidationError(KindJWSDecoding, err))

		return fail()
	}

	unsecured := item.Alg() == algNone

	holderDoc, stop := v.checkHolder(ctx, token, item, holderDoc, resolver, options, collector, unsecured)
	if stop {
		return fail()
	}

	presentation, envelope, err := decodePresentationClaims(item.InsecureClaims())
	if err != nil {
		collector.add(newValidationError(KindPresentationStructure, err))

		return fail()
	}

	for _, structErr := range presentation.validateStructure() {
		if collector.add(structErr) {
			return fail()
		}
	}

	decodedCreds := make([]*DecodedCredential, len(presentation.contents.Credentials))

	for idx, credToken := range presentation.contents.Credentials {
		decoded, err := v.credValidator.ValidateWithResolver(ctx, credToken, resolver, &options.Credential)
		if err != nil {
			compound, ok := err.(*CompoundCredentialError)
			if !ok {
				compound = &CompoundCredentialError{Errors: []*ValidationError{
					newValidationError(KindCredentialStructure, err),
				}}
			}

			credentialErrors[idx] = compound

			if options.FailFast == FirstError {
				return fail()
			}

			continue
		}

		decodedCreds[idx] = decoded
	}

	v.checkSubjectHolder(presentation, decodedCreds, options, collector)

	if len(collector.errs) > 0 || len(credentialErrors) > 0 {
		return fail()
	}

	decoded := &DecodedPresentation{
		Presentation: presentation,
		Header:       item.Protected(),
		Credentials:  decodedCreds,
		Audience:     envelope.Audience,
		Nonce:        item.Nonce(),
	}

	if decoded.Nonce == "" {
		decoded.Nonce = envelope.Nonce
	}

	if envelope.Expiry != nil {
		t := time.Unix(*envelope.Expiry, 0).UTC()
		decoded.ExpirationDate = &t
	}

	if envelope.IssuedAt != nil {
		t := time.Unix(*envelope.IssuedAt, 0).UTC()
		decoded.IssuanceDate = &t
	}

	return decoded, nil
}

// checkHolder extracts, resolves and verifies the presentation holder. It
// returns the holder's document and whether validation must stop.
//
//nolint:gocyclo
func (v *PresentationValidator) checkHolder(ctx context.Context, token string, item *jws.ValidationItem,
	holderDoc *did.Document, resolver Resolver, options *PresentationValidationOptions,
	collector *errCollector, unsecured bool) (*did.Document, bool) {
	holder, err := ExtractHolderFromJWT(token)
	if err != nil {
		return nil, collector.add(newValidationError(KindMissingPresentationHolder, err))
	}

	holderDID, err := did.Parse(holder)
	if err != nil {
		return nil, collector.add(newSignerError(KindSignerURL, ContextHolder, err))
	}

	if unsecured {
		if !options.AllowUnsecured {
			collector.add(newSignerError(KindSignature, ContextHolder,
				fmt.Errorf("unsecured presentation not allowed")))
		}

		return holderDoc, false
	}

	if holderDoc == nil {
		if resolver == nil {
			return nil, collector.add(newSignerError(KindSignerURL, ContextHolder,
				fmt.Errorf("no holder document and no resolver supplied")))
		}

		holderDoc, err = resolver.Resolve(ctx, holderDID.String())
		if err != nil {
			return nil, collector.add(newSignerError(KindSignerURL, ContextHolder, err))
		}
	}

	if holderDoc.ID != holderDID.String() {
		if collector.add(newSignerError(KindDocumentMismatch, ContextHolder,
			fmt.Errorf("document id %q, holder %q", holderDoc.ID, holderDID.String()))) {
			return holderDoc, true
		}
	}

	_, err = holderDoc.VerifyJWS(token, v.verifier, &did.JWSVerificationOptions{
		MethodScope: options.MethodScope,
		Nonce:       options.Nonce,
	})
	if err != nil {
		return holderDoc, collector.add(newSignerError(KindSignature, ContextHolder, err))
	}

	return holderDoc, false
}

// checkSubjectHolder enforces the holder/subject policy over the decoded
// credentials.
func (v *PresentationValidator) checkSubjectHolder(presentation *Presentation,
	decodedCreds []*DecodedCredential, options *PresentationValidationOptions, collector *errCollector) {
	if options.SubjectHolder == Any {
		return
	}

	holder := presentation.contents.Holder

	for idx, decoded := range decodedCreds {
		if decoded == nil {
			continue
		}

		contents := decoded.Credential.Contents()

		if options.SubjectHolder == SubjectOnNonTransferable && !contents.NonTransferable {
			continue
		}

		for _, subject := range contents.Subject {
			if subject.ID != holder {
				if collector.add(newValidationError(KindSubjectHolderRelationship,
					fmt.Errorf("credential %d subject %q does not match holder %q", idx, subject.ID, holder))) {
					return
				}

				break
			}
		}
	}
}
