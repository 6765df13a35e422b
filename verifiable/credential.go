/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/samber/lo"

	jsonutil "github.com/anchorid/identity-go/util/json"
)

const (
	jsonFldContext         = "@context"
	jsonFldID              = "id"
	jsonFldType            = "type"
	jsonFldSubject         = "credentialSubject"
	jsonFldIssuer          = "issuer"
	jsonFldIssued          = "issuanceDate"
	jsonFldExpired         = "expirationDate"
	jsonFldValidFrom       = "validFrom"
	jsonFldValidUntil      = "validUntil"
	jsonFldStatus          = "credentialStatus"
	jsonFldSchema          = "credentialSchema"
	jsonFldNonTransferable = "nonTransferable"
)

// CredentialContents is the typed view of a credential. The temporal fields
// are normalized: V1.1 issuanceDate/expirationDate and V2
// validFrom/validUntil both land in ValidFrom/ValidUntil.
type CredentialContents struct {
	Context         []interface{}
	ID              string
	Types           []string
	Issuer          Issuer
	Subject         []Subject
	ValidFrom       *time.Time
	ValidUntil      *time.Time
	Status          []*TypedID
	Schemas         []*TypedID
	NonTransferable bool
}

// Credential is a Verifiable Credential. It keeps the full JSON object next
// to the typed contents so unrecognized properties survive round trips.
// A credential is immutable once issued; any change invalidates its
// signature.
type Credential struct {
	version        SpecVersion
	contents       CredentialContents
	credentialJSON JSONObject
}

// Version reports which data model version the credential followed.
func (c *Credential) Version() SpecVersion {
	return c.version
}

// Contents returns the typed view.
func (c *Credential) Contents() CredentialContents {
	return c.contents
}

// ToJSON returns the credential as a JSON object, including properties not
// covered by the typed view.
func (c *Credential) ToJSON() JSONObject {
	return jsonutil.ShallowCopyObj(c.credentialJSON)
}

// MarshalJSON implements json.Marshaler.
func (c *Credential) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.credentialJSON)
}

// ParseCredentialJSON parses a credential JSON object, detecting the data
// model version from the base context.
func ParseCredentialJSON(data []byte) (*Credential, error) {
	obj := JSONObject{}
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("parse credential: %w", err)
	}

	return parseCredentialObj(obj)
}

func parseCredentialObj(obj JSONObject) (*Credential, error) {
	context, err := decodeContext(obj[jsonFldContext])
	if err != nil {
		return nil, fmt.Errorf("parse credential: %w", err)
	}

	version := SpecV1
	if baseContextOf(context) == V2ContextURI {
		version = SpecV2
	}

	return parseCredentialWithVersion(obj, version)
}

//nolint:funlen
func parseCredentialWithVersion(obj JSONObject, version SpecVersion) (*Credential, error) {
	contents := CredentialContents{}

	context, err := decodeContext(obj[jsonFldContext])
	if err != nil {
		return nil, fmt.Errorf("parse credential: %w", err)
	}

	contents.Context = context

	if id, ok := obj[jsonFldID].(string); ok {
		contents.ID = id
	}

	if rawType, ok := obj[jsonFldType]; ok {
		types, err := decodeType(rawType)
		if err != nil {
			return nil, fmt.Errorf("parse credential: %w", err)
		}

		contents.Types = types
	}

	if rawIssuer, ok := obj[jsonFldIssuer]; ok {
		issuer, err := parseIssuer(rawIssuer)
		if err != nil {
			return nil, fmt.Errorf("parse credential: %w", err)
		}

		contents.Issuer = issuer
	}

	if rawSubject, ok := obj[jsonFldSubject]; ok {
		subject, err := parseSubject(rawSubject)
		if err != nil {
			return nil, fmt.Errorf("parse credential: %w", err)
		}

		contents.Subject = subject
	}

	validFromFld, validUntilFld := jsonFldValidFrom, jsonFldValidUntil
	if version == SpecV1 {
		validFromFld, validUntilFld = jsonFldIssued, jsonFldExpired
	}

	if contents.ValidFrom, err = parseTimeFld(obj, validFromFld); err != nil {
		return nil, fmt.Errorf("parse credential: %w", err)
	}

	if contents.ValidUntil, err = parseTimeFld(obj, validUntilFld); err != nil {
		return nil, fmt.Errorf("parse credential: %w", err)
	}

	if contents.Status, err = parseStatuses(obj[jsonFldStatus]); err != nil {
		return nil, fmt.Errorf("parse credential: %w", err)
	}

	if contents.Schemas, err = parseStatuses(obj[jsonFldSchema]); err != nil {
		return nil, fmt.Errorf("parse credential: %w", err)
	}

	if nt, ok := obj[jsonFldNonTransferable].(bool); ok {
		contents.NonTransferable = nt
	}

	return &Credential{
		version:        version,
		contents:       contents,
		credentialJSON: obj,
	}, nil
}

// parseStatuses handles both the single-object and array forms of
// credentialStatus and credentialSchema.
func parseStatuses(v interface{}) ([]*TypedID, error) {
	if v == nil {
		return nil, nil
	}

	entries, ok := v.([]interface{})
	if !ok {
		entries = []interface{}{v}
	}

	statuses := make([]*TypedID, 0, len(entries))

	for _, entry := range entries {
		obj, ok := entry.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("status entry should be a json object, got %v", entry)
		}

		tid, err := parseTypedIDObj(obj)
		if err != nil {
			return nil, err
		}

		statuses = append(statuses, &tid)
	}

	return statuses, nil
}

// validateStructure runs the structural well-formedness checks. The
// returned errors all carry KindCredentialStructure.
func (c *Credential) validateStructure() []*ValidationError {
	var errs []*ValidationError

	baseContext := V1ContextURI
	if c.version == SpecV2 {
		baseContext = V2ContextURI
	}

	if baseContextOf(c.contents.Context) != baseContext {
		errs = append(errs, newValidationError(KindCredentialStructure,
			fmt.Errorf("@context must start with %q", baseContext)))
	}

	if !lo.Contains(c.contents.Types, VCType) {
		errs = append(errs, newValidationError(KindCredentialStructure,
			fmt.Errorf("type must include %q", VCType)))
	}

	if c.contents.Issuer.ID == "" {
		errs = append(errs, newValidationError(KindCredentialStructure,
			fmt.Errorf("issuer is required")))
	}

	if !hasNonEmptySubject(c.contents.Subject) {
		errs = append(errs, newValidationError(KindCredentialStructure,
			fmt.Errorf("at least one non-empty credentialSubject is required")))
	}

	if result := checkCredentialSchema(c.credentialJSON, c.version); result != nil {
		errs = append(errs, newValidationError(KindCredentialStructure, result))
	}

	return errs
}

func hasNonEmptySubject(subjects []Subject) bool {
	return lo.SomeBy(subjects, func(subject Subject) bool {
		return subject.ID != "" || len(subject.CustomFields) > 0
	})
}
