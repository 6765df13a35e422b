/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"encoding/json"
	"fmt"
)

// MethodScope constrains a verification method lookup to one of the five
// capability relationships, or allows any method.
type MethodScope int

// Method lookup scopes.
const (
	ScopeAny MethodScope = iota
	ScopeAuthentication
	ScopeAssertionMethod
	ScopeKeyAgreement
	ScopeCapabilityInvocation
	ScopeCapabilityDelegation
)

// String returns the relationship property name for the scope.
func (s MethodScope) String() string {
	switch s {
	case ScopeAuthentication:
		return "authentication"
	case ScopeAssertionMethod:
		return "assertionMethod"
	case ScopeKeyAgreement:
		return "keyAgreement"
	case ScopeCapabilityInvocation:
		return "capabilityInvocation"
	case ScopeCapabilityDelegation:
		return "capabilityDelegation"
	default:
		return "any"
	}
}

// MethodRef is a relationship entry: either a reference to a method in the
// document's method set, or an embedded method.
type MethodRef struct {
	Ref      string
	Embedded *VerificationMethod
}

// MarshalJSON serializes a reference as a string and an embedded method as
// an object.
func (r MethodRef) MarshalJSON() ([]byte, error) {
	if r.Embedded != nil {
		return json.Marshal(r.Embedded)
	}

	return json.Marshal(r.Ref)
}

// UnmarshalJSON deserializes either form.
func (r *MethodRef) UnmarshalJSON(data []byte) error {
	var ref string
	if err := json.Unmarshal(data, &ref); err == nil {
		*r = MethodRef{Ref: ref}

		return nil
	}

	var embedded VerificationMethod
	if err := json.Unmarshal(data, &embedded); err != nil {
		return fmt.Errorf("relationship entry must be a DID URL or an embedded method: %w", err)
	}

	*r = MethodRef{Embedded: &embedded}

	return nil
}

// Service is a DID Document service entry.
type Service struct {
	ID              string      `json:"id"`
	Type            string      `json:"type"`
	ServiceEndpoint interface{} `json:"serviceEndpoint"`
}

// Document is a DID Document. Relationships reference methods by DID URL or
// embed them; references are resolved by lookup against the method set,
// never by owning pointers.
type Document struct {
	Context            []interface{}         `json:"@context,omitempty"`
	ID                 string                `json:"id"`
	AlsoKnownAs        []string              `json:"alsoKnownAs,omitempty"`
	Controller         []string              `json:"controller,omitempty"`
	VerificationMethod []*VerificationMethod `json:"verificationMethod,omitempty"`

	Authentication       []MethodRef `json:"authentication,omitempty"`
	AssertionMethod      []MethodRef `json:"assertionMethod,omitempty"`
	KeyAgreement         []MethodRef `json:"keyAgreement,omitempty"`
	CapabilityInvocation []MethodRef `json:"capabilityInvocation,omitempty"`
	CapabilityDelegation []MethodRef `json:"capabilityDelegation,omitempty"`

	Service []*Service `json:"service,omitempty"`
}

// ParseDocument parses and validates a DID Document.
func ParseDocument(data []byte) (*Document, error) {
	doc := &Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("parse did document: %w", err)
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}

	return doc, nil
}

// Validate checks the document invariants: the id is a valid DID and every
// relationship reference resolves to a method in the method set.
func (d *Document) Validate() error {
	if _, err := Parse(d.ID); err != nil {
		return fmt.Errorf("document id: %w", err)
	}

	for scope, refs := range d.relationships() {
		for _, ref := range refs {
			if ref.Embedded != nil {
				continue
			}

			if d.methodByQuery(ref.Ref) == nil {
				return fmt.Errorf("%s references unknown method %q", scope, ref.Ref)
			}
		}
	}

	return nil
}

func (d *Document) relationships() map[MethodScope][]MethodRef {
	return map[MethodScope][]MethodRef{
		ScopeAuthentication:       d.Authentication,
		ScopeAssertionMethod:      d.AssertionMethod,
		ScopeKeyAgreement:         d.KeyAgreement,
		ScopeCapabilityInvocation: d.CapabilityInvocation,
		ScopeCapabilityDelegation: d.CapabilityDelegation,
	}
}

// ResolveMethod looks up a verification method by fragment or full DID URL,
// optionally constrained to one relationship. Returns nil when no method
// matches.
func (d *Document) ResolveMethod(query string, scope MethodScope) *VerificationMethod {
	if scope == ScopeAny {
		return d.methodByQuery(query)
	}

	for _, ref := range d.relationships()[scope] {
		if ref.Embedded != nil {
			if d.queryMatches(query, ref.Embedded.ID) {
				return ref.Embedded
			}

			continue
		}

		if method := d.methodByQuery(ref.Ref); method != nil && d.queryMatches(query, method.ID) {
			return method
		}
	}

	return nil
}

// methodByQuery searches the top-level method set and embedded relationship
// methods.
func (d *Document) methodByQuery(query string) *VerificationMethod {
	for _, method := range d.VerificationMethod {
		if d.queryMatches(query, method.ID) {
			return method
		}
	}

	for _, refs := range d.relationships() {
		for _, ref := range refs {
			if ref.Embedded != nil && d.queryMatches(query, ref.Embedded.ID) {
				return ref.Embedded
			}
		}
	}

	return nil
}

// queryMatches compares a lookup query against a method id. Either side may
// be fragment-relative to the document id.
func (d *Document) queryMatches(query, methodID string) bool {
	return d.absoluteURL(query) == d.absoluteURL(methodID)
}

func (d *Document) absoluteURL(idOrFragment string) string {
	queryDID, fragment := splitQuery(idOrFragment)
	if fragment == "" {
		return idOrFragment
	}

	if queryDID == "" {
		queryDID = d.ID
	}

	return queryDID + "#" + fragment
}
