/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"fmt"
	"sort"
	"strings"
)

// ErrorKind is the closed taxonomy of semantic validation failures.
// Programmatic consumers branch on the kind, never on the message text.
type ErrorKind int

// Validation error kinds.
const (
	// KindJWSDecoding: the token is not a decodable compact JWS. Always
	// fatal; no partial result exists.
	KindJWSDecoding ErrorKind = iota
	// KindJWPDecoding: the token is not a decodable JSON Proof Token.
	KindJWPDecoding
	// KindSignerURL: the iss/holder property is not a valid DID.
	KindSignerURL
	// KindDocumentMismatch: the supplied document's id differs from the
	// claimed signer.
	KindDocumentMismatch
	// KindSignature: signature verification against the signer's document
	// failed.
	KindSignature
	// KindExpirationDate: the credential expired before the earliest
	// accepted expiry date.
	KindExpirationDate
	// KindIssuanceDate: the credential was issued after the latest
	// accepted issuance date.
	KindIssuanceDate
	// KindCredentialStructure: required credential fields are missing or
	// the base context/type is wrong.
	KindCredentialStructure
	// KindPresentationStructure: required presentation fields are missing
	// or the base context/type is wrong.
	KindPresentationStructure
	// KindSubjectHolderRelationship: a credential subject differs from the
	// presentation holder under the selected policy.
	KindSubjectHolderRelationship
	// KindMissingPresentationHolder: the presentation carries no holder.
	KindMissingPresentationHolder
	// KindInvalidStatus: the credential status could not be checked.
	KindInvalidStatus
	// KindRevoked: the status check found the credential revoked.
	KindRevoked
	// KindSuspended: the status check found the credential suspended.
	KindSuspended
)

// SignerContext says whose signature or identifier a Signature, SignerURL
// or DocumentMismatch error refers to.
type SignerContext string

// Signer contexts.
const (
	ContextIssuer SignerContext = "issuer"
	ContextHolder SignerContext = "holder"
)

// ValidationError is one semantic validation failure.
type ValidationError struct {
	Kind ErrorKind
	// Signer qualifies signature and identifier errors.
	Signer SignerContext
	// Cause holds the underlying error, when one exists.
	Cause error
}

func newValidationError(kind ErrorKind, cause error) *ValidationError {
	return &ValidationError{Kind: kind, Cause: cause}
}

func newSignerError(kind ErrorKind, signer SignerContext, cause error) *ValidationError {
	return &ValidationError{Kind: kind, Signer: signer, Cause: cause}
}

// Error implements error.
func (e *ValidationError) Error() string {
	msg := e.message()

	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}

	return msg
}

// Unwrap exposes the cause.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

func (e *ValidationError) message() string {
	switch e.Kind {
	case KindJWSDecoding:
		return "could not decode the JWS"
	case KindJWPDecoding:
		return "could not decode the JWP"
	case KindSignerURL:
		return fmt.Sprintf("the %s property could not be parsed to a valid DID", e.signer())
	case KindDocumentMismatch:
		return fmt.Sprintf("the DID document does not correspond to the %s", e.signer())
	case KindSignature:
		return fmt.Sprintf("could not verify the %s's signature", e.signer())
	case KindExpirationDate:
		return "the expiration date is in the past"
	case KindIssuanceDate:
		return "the issuance date is in the future"
	case KindCredentialStructure:
		return "the credential's structure is not semantically valid"
	case KindPresentationStructure:
		return "the presentation's structure is not semantically valid"
	case KindSubjectHolderRelationship:
		return "the holder does not match the credential subject"
	case KindMissingPresentationHolder:
		return "the presentation has no holder"
	case KindInvalidStatus:
		return "the credential status could not be checked"
	case KindRevoked:
		return "the credential has been revoked"
	case KindSuspended:
		return "the credential has been suspended"
	default:
		return fmt.Sprintf("validation error kind %d", e.Kind)
	}
}

func (e *ValidationError) signer() SignerContext {
	if e.Signer == "" {
		return ContextIssuer
	}

	return e.Signer
}

// CompoundCredentialError aggregates every validation failure of one
// credential, in check order.
type CompoundCredentialError struct {
	Errors []*ValidationError
}

// Error implements error.
func (e *CompoundCredentialError) Error() string {
	return fmt.Sprintf("credential validation failed: [%s]", joinErrors(e.Errors))
}

// HasKind reports whether any member error has the given kind.
func (e *CompoundCredentialError) HasKind(kind ErrorKind) bool {
	for _, err := range e.Errors {
		if err.Kind == kind {
			return true
		}
	}

	return false
}

// CompoundPresentationError aggregates presentation-level failures plus the
// compound errors of each failing embedded credential, keyed by zero-based
// position. Valid credentials leave no entry.
type CompoundPresentationError struct {
	Errors           []*ValidationError
	CredentialErrors map[int]*CompoundCredentialError
}

// Error implements error.
func (e *CompoundPresentationError) Error() string {
	parts := make([]string, 0, len(e.Errors)+len(e.CredentialErrors))

	for _, err := range e.Errors {
		parts = append(parts, err.Error())
	}

	indices := make([]int, 0, len(e.CredentialErrors))
	for idx := range e.CredentialErrors {
		indices = append(indices, idx)
	}

	sort.Ints(indices)

	for _, idx := range indices {
		parts = append(parts, fmt.Sprintf("credential num. %d errors: %s", idx, e.CredentialErrors[idx].Error()))
	}

	return fmt.Sprintf("presentation validation failed: [%s]", strings.Join(parts, "; "))
}

// HasKind reports whether any presentation-level error has the given kind.
func (e *CompoundPresentationError) HasKind(kind ErrorKind) bool {
	for _, err := range e.Errors {
		if err.Kind == kind {
			return true
		}
	}

	return false
}

func joinErrors(errs []*ValidationError) string {
	msgs := make([]string, 0, len(errs))

	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return strings.Join(msgs, "; ")
}
