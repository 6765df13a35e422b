/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"time"

	"github.com/anchorid/identity-go/did"
)

// FailFast selects how many semantic failures a validation call reports.
type FailFast int

// Fail-fast modes.
const (
	// AllErrors accumulates every semantic failure before returning.
	// Decode failures are still fatal on their own.
	AllErrors FailFast = iota
	// FirstError stops at the first failure.
	FirstError
)

// StatusCheck selects the revocation status policy.
type StatusCheck int

// Status check policies.
const (
	// StatusCheckStrict checks every credentialStatus entry and fails on
	// entries no checker supports.
	StatusCheckStrict StatusCheck = iota
	// StatusCheckSkipUnsupported checks entries a checker supports and
	// skips the rest with a logged notice.
	StatusCheckSkipUnsupported
	// StatusCheckSkipAll performs no status checking.
	StatusCheckSkipAll
)

// SubjectHolderRelationship selects how strictly the presentation holder
// must relate to embedded credential subjects.
type SubjectHolderRelationship int

// Subject-holder policies.
const (
	// AlwaysSubject requires the holder to be the subject of every
	// embedded credential.
	AlwaysSubject SubjectHolderRelationship = iota
	// SubjectOnNonTransferable requires it only for credentials carrying
	// the nonTransferable property.
	SubjectOnNonTransferable
	// Any accepts any holder.
	Any
)

// CredentialValidationOptions steer credential validation. The zero value
// checks expiry and issuance against the current time, strict status, all
// errors reported.
type CredentialValidationOptions struct {
	// EarliestExpiryDate overrides "now" as the instant the credential
	// must still be valid at.
	EarliestExpiryDate time.Time
	// LatestIssuanceDate overrides "now" as the latest accepted issuance
	// instant.
	LatestIssuanceDate time.Time
	// Status selects the revocation status policy.
	Status StatusCheck
	// FailFast selects first-error or all-errors reporting.
	FailFast FailFast
	// MethodScope constrains which capability relationship the signing
	// method must appear in. Zero means any.
	MethodScope did.MethodScope
}

func (o *CredentialValidationOptions) earliestExpiry(now time.Time) time.Time {
	if o != nil && !o.EarliestExpiryDate.IsZero() {
		return o.EarliestExpiryDate
	}

	return now
}

func (o *CredentialValidationOptions) latestIssuance(now time.Time) time.Time {
	if o != nil && !o.LatestIssuanceDate.IsZero() {
		return o.LatestIssuanceDate
	}

	return now
}

func (o *CredentialValidationOptions) orDefault() *CredentialValidationOptions {
	if o == nil {
		return &CredentialValidationOptions{}
	}

	return o
}

// PresentationValidationOptions steer presentation validation.
type PresentationValidationOptions struct {
	// Credential options apply to every embedded credential.
	Credential CredentialValidationOptions
	// SubjectHolder selects the holder/subject policy.
	SubjectHolder SubjectHolderRelationship
	// FailFast selects first-error or all-errors reporting for
	// presentation-level checks.
	FailFast FailFast
	// MethodScope constrains the holder's signing method lookup.
	MethodScope did.MethodScope
	// Nonce, when set, must equal the nonce of the holder's protected
	// header, binding the presentation to a verifier challenge.
	Nonce string
	// AllowUnsecured accepts presentations without a holder signature
	// (alg "none"). Embedded credentials are still fully verified.
	AllowUnsecured bool
}

func (o *PresentationValidationOptions) orDefault() *PresentationValidationOptions {
	if o == nil {
		return &PresentationValidationOptions{}
	}

	return o
}
