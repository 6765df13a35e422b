/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package verifiable implements the Verifiable Credential and Presentation
// data model (https://www.w3.org/TR/vc-data-model) in its JWT encoding.
// An issuer builds a Credential and issues it as a signed JWT; a holder
// bundles credentials into a Presentation; a verifier validates both
// against the signers' DID documents.
package verifiable

import (
	"fmt"
	"log"
	"os"
	"time"

	jsonutil "github.com/anchorid/identity-go/util/json"
)

var errLogger = log.New(os.Stderr, " [identity-go/verifiable] ", log.Ldate|log.Ltime|log.LUTC)

const (
	// V1ContextURI is the VC Data Model 1.1 base context.
	// https://www.w3.org/TR/vc-data-model/#base-context
	V1ContextURI = "https://www.w3.org/2018/credentials/v1"

	// V2ContextURI is the VC Data Model 2.0 base context.
	V2ContextURI = "https://www.w3.org/ns/credentials/v2"

	// VCType is the base credential type.
	VCType = "VerifiableCredential"

	// VPType is the base presentation type.
	VPType = "VerifiablePresentation"
)

// SpecVersion tags which data model version a decoded object followed.
type SpecVersion int

// Supported data model versions. Decoding tries V2 first and falls back to
// V1.1, so the tag tells callers which interpretation won.
const (
	SpecV1 SpecVersion = iota
	SpecV2
)

func (v SpecVersion) String() string {
	if v == SpecV2 {
		return "2.0"
	}

	return "1.1"
}

// JSONObject is a raw JSON object.
type JSONObject = map[string]interface{}

// CustomFields is a map of extra fields of struct build when unmarshalling JSON which are not
// mapped to the struct fields.
type CustomFields map[string]interface{}

const (
	jsonFldTypedIDID   = "id"
	jsonFldTypedIDType = "type"
)

// TypedID defines a flexible structure with id and type fields and arbitrary
// extra fields kept in CustomFields.
type TypedID struct {
	ID   string
	Type string

	CustomFields
}

func parseTypedIDObj(typedIDObj JSONObject) (TypedID, error) {
	id, _ := typedIDObj[jsonFldTypedIDID].(string)

	typeName, err := singleType(typedIDObj[jsonFldTypedIDType])
	if err != nil {
		return TypedID{}, fmt.Errorf("parse TypedID: %w", err)
	}

	return TypedID{
		ID:           id,
		Type:         typeName,
		CustomFields: jsonutil.CopyExcept(typedIDObj, jsonFldTypedIDID, jsonFldTypedIDType),
	}, nil
}

func serializeTypedIDObj(typedID TypedID) JSONObject {
	json := jsonutil.ShallowCopyObj(typedID.CustomFields)

	if typedID.ID != "" {
		json[jsonFldTypedIDID] = typedID.ID
	}

	json[jsonFldTypedIDType] = typedID.Type

	return json
}

func singleType(v interface{}) (string, error) {
	switch tv := v.(type) {
	case string:
		return tv, nil
	case []interface{}:
		if len(tv) > 0 {
			if s, ok := tv[0].(string); ok {
				return s, nil
			}
		}
	}

	return "", fmt.Errorf("type should be a string or string array, got %v", v)
}

// Issuer of a credential: an id plus optional extra properties such as name.
type Issuer struct {
	ID string

	CustomFields
}

func parseIssuer(v interface{}) (Issuer, error) {
	switch iv := v.(type) {
	case string:
		return Issuer{ID: iv}, nil
	case map[string]interface{}:
		id, ok := iv[jsonFldTypedIDID].(string)
		if !ok {
			return Issuer{}, fmt.Errorf("issuer object must have an id")
		}

		return Issuer{ID: id, CustomFields: jsonutil.CopyExcept(iv, jsonFldTypedIDID)}, nil
	default:
		return Issuer{}, fmt.Errorf("issuer should be a string or an object, got %v", v)
	}
}

func serializeIssuer(issuer Issuer) interface{} {
	if len(issuer.CustomFields) == 0 {
		return issuer.ID
	}

	json := jsonutil.ShallowCopyObj(issuer.CustomFields)
	json[jsonFldTypedIDID] = issuer.ID

	return json
}

// Subject of a credential: an optional id plus claims.
type Subject struct {
	ID string

	CustomFields
}

func parseSubject(v interface{}) ([]Subject, error) {
	switch sv := v.(type) {
	case string:
		return []Subject{{ID: sv}}, nil
	case map[string]interface{}:
		id, _ := sv[jsonFldTypedIDID].(string)

		return []Subject{{ID: id, CustomFields: jsonutil.CopyExcept(sv, jsonFldTypedIDID)}}, nil
	case []interface{}:
		subjects := make([]Subject, 0, len(sv))

		for _, raw := range sv {
			parsed, err := parseSubject(raw)
			if err != nil {
				return nil, err
			}

			subjects = append(subjects, parsed...)
		}

		return subjects, nil
	default:
		return nil, fmt.Errorf("subject should be a string, object or array, got %v", v)
	}
}

func serializeSubjects(subjects []Subject) interface{} {
	raw := make([]interface{}, 0, len(subjects))

	for _, subject := range subjects {
		obj := jsonutil.ShallowCopyObj(subject.CustomFields)
		if obj == nil {
			obj = JSONObject{}
		}

		if subject.ID != "" {
			obj[jsonFldTypedIDID] = subject.ID
		}

		raw = append(raw, obj)
	}

	if len(raw) == 1 {
		return raw[0]
	}

	return raw
}

func decodeType(t interface{}) ([]string, error) {
	switch tv := t.(type) {
	case string:
		return []string{tv}, nil
	case []interface{}:
		types := make([]string, 0, len(tv))

		for _, raw := range tv {
			s, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("type element should be a string, got %v", raw)
			}

			types = append(types, s)
		}

		return types, nil
	default:
		return nil, fmt.Errorf("type should be a string or string array, got %v", t)
	}
}

func decodeContext(c interface{}) ([]interface{}, error) {
	switch cv := c.(type) {
	case string:
		return []interface{}{cv}, nil
	case []interface{}:
		return cv, nil
	default:
		return nil, fmt.Errorf("@context should be a string or array, got %v", c)
	}
}

// baseContextOf returns the first context entry when it is a string.
func baseContextOf(context []interface{}) string {
	if len(context) == 0 {
		return ""
	}

	s, _ := context[0].(string)

	return s
}

func parseTimeFld(obj JSONObject, fldName string) (*time.Time, error) {
	raw, ok := obj[fldName]
	if !ok || raw == nil {
		return nil, nil
	}

	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("%s should be a string, got %v", fldName, raw)
	}

	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", fldName, err)
	}

	return &parsed, nil
}
