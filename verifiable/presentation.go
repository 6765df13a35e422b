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
	"github.com/tidwall/sjson"

	"github.com/anchorid/identity-go/jose/jws"
	jsonutil "github.com/anchorid/identity-go/util/json"
)

const (
	jsonFldHolder     = "holder"
	jsonFldCredential = "verifiableCredential"
)

// PresentationContents is the typed view of a presentation. Credentials are
// held in their enveloped JWT form.
type PresentationContents struct {
	Context     []interface{}
	ID          string
	Types       []string
	Holder      string
	Credentials []string
}

// Presentation is a Verifiable Presentation: one or more credentials
// bundled and presented by a holder.
type Presentation struct {
	version          SpecVersion
	contents         PresentationContents
	presentationJSON JSONObject
}

// Version reports which data model version the presentation followed.
func (p *Presentation) Version() SpecVersion {
	return p.version
}

// Contents returns the typed view.
func (p *Presentation) Contents() PresentationContents {
	return p.contents
}

// ToJSON returns the presentation as a JSON object.
func (p *Presentation) ToJSON() JSONObject {
	return jsonutil.ShallowCopyObj(p.presentationJSON)
}

// MarshalJSON implements json.Marshaler.
func (p *Presentation) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.presentationJSON)
}

// ParsePresentationJSON parses a presentation JSON object, detecting the
// data model version from the base context.
func ParsePresentationJSON(data []byte) (*Presentation, error) {
	obj := JSONObject{}
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("parse presentation: %w", err)
	}

	return parsePresentationObj(obj)
}

func parsePresentationObj(obj JSONObject) (*Presentation, error) {
	contents := PresentationContents{}

	context, err := decodeContext(obj[jsonFldContext])
	if err != nil {
		return nil, fmt.Errorf("parse presentation: %w", err)
	}

	contents.Context = context

	version := SpecV1
	if baseContextOf(context) == V2ContextURI {
		version = SpecV2
	}

	if id, ok := obj[jsonFldID].(string); ok {
		contents.ID = id
	}

	if rawType, ok := obj[jsonFldType]; ok {
		types, err := decodeType(rawType)
		if err != nil {
			return nil, fmt.Errorf("parse presentation: %w", err)
		}

		contents.Types = types
	}

	if holder, ok := obj[jsonFldHolder].(string); ok {
		contents.Holder = holder
	}

	if contents.Credentials, err = decodeEnvelopedCredentials(obj[jsonFldCredential]); err != nil {
		return nil, fmt.Errorf("parse presentation: %w", err)
	}

	return &Presentation{
		version:          version,
		contents:         contents,
		presentationJSON: obj,
	}, nil
}

// decodeEnvelopedCredentials accepts the verifiableCredential property as a
// JWT string or an array of JWT strings.
func decodeEnvelopedCredentials(v interface{}) ([]string, error) {
	if v == nil {
		return nil, nil
	}

	entries, ok := v.([]interface{})
	if !ok {
		entries = []interface{}{v}
	}

	credentials := make([]string, 0, len(entries))

	for _, entry := range entries {
		token, ok := entry.(string)
		if !ok {
			return nil, fmt.Errorf("verifiableCredential entries must be credential JWTs, got %v", entry)
		}

		credentials = append(credentials, token)
	}

	return credentials, nil
}

func (p *Presentation) validateStructure() []*ValidationError {
	var errs []*ValidationError

	baseContext := V1ContextURI
	if p.version == SpecV2 {
		baseContext = V2ContextURI
	}

	if baseContextOf(p.contents.Context) != baseContext {
		errs = append(errs, newValidationError(KindPresentationStructure,
			fmt.Errorf("@context must start with %q", baseContext)))
	}

	if !lo.Contains(p.contents.Types, VPType) {
		errs = append(errs, newValidationError(KindPresentationStructure,
			fmt.Errorf("type must include %q", VPType)))
	}

	return errs
}

// jwtPresClaims is the registered-claim envelope of a presentation JWT.
type jwtPresClaims struct {
	Issuer   string     `json:"iss,omitempty"`
	ID       string     `json:"jti,omitempty"`
	Audience string     `json:"aud,omitempty"`
	Expiry   *int64     `json:"exp,omitempty"`
	IssuedAt *int64     `json:"iat,omitempty"`
	Nonce    string     `json:"nonce,omitempty"`
	VP       JSONObject `json:"vp,omitempty"`
}

// DecodedPresentation is the output of a successful presentation
// validation.
type DecodedPresentation struct {
	Presentation *Presentation
	Header       *jws.Header

	// Credentials holds the decoded embedded credentials, by position.
	Credentials []*DecodedCredential

	// Audience and Nonce surface the aud claim and the nonce bound into
	// the holder's token, when present.
	Audience string
	Nonce    string

	ExpirationDate *time.Time
	IssuanceDate   *time.Time
}

// decodePresentationClaims mirrors decodeCredentialClaims for the vp
// envelope; the version tag follows the envelope's own base context, and
// flattened claims decode as V1.1.
func decodePresentationClaims(claims []byte) (*Presentation, *jwtPresClaims, error) {
	envelope := &jwtPresClaims{}
	if err := json.Unmarshal(claims, envelope); err != nil {
		return nil, nil, fmt.Errorf("decode presentation claims: %w", err)
	}

	var presObj JSONObject

	switch {
	case envelope.VP != nil:
		presObj = envelope.VP
	default:
		all := JSONObject{}
		if err := json.Unmarshal(claims, &all); err != nil {
			return nil, nil, fmt.Errorf("decode presentation claims: %w", err)
		}

		presObj = jsonutil.CopyExcept(all, jwtRegisteredFlds...)
	}

	presentation, err := parsePresentationObj(presObj)
	if err != nil {
		return nil, nil, err
	}

	if envelope.Issuer != "" && presentation.contents.Holder == "" {
		presentation.contents.Holder = envelope.Issuer
		presentation.presentationJSON[jsonFldHolder] = envelope.Issuer
	}

	if envelope.ID != "" && presentation.contents.ID == "" {
		presentation.contents.ID = envelope.ID
		presentation.presentationJSON[jsonFldID] = envelope.ID
	}

	return presentation, envelope, nil
}

// presClaimsBytes serializes a presentation into its JWT claims payload.
func presClaimsBytes(presentation *Presentation, audience, nonce string) ([]byte, error) {
	var (
		payload []byte
		err     error
	)

	contents := presentation.Contents()

	if presentation.version == SpecV2 {
		payload, err = sjson.SetBytes([]byte(`{}`), jwtFldVP, presentation.presentationJSON)
	} else {
		payload, err = json.Marshal(presentation.presentationJSON)
	}

	if err != nil {
		return nil, fmt.Errorf("serialize presentation claims: %w", err)
	}

	set := func(name string, value interface{}) {
		if err != nil {
			return
		}

		payload, err = sjson.SetBytes(payload, name, value)
	}

	if contents.Holder != "" {
		set(jwtFldIssuer, contents.Holder)
	}

	if contents.ID != "" {
		set(jwtFldID, contents.ID)
	}

	if audience != "" {
		set(jwtFldAudience, audience)
	}

	if nonce != "" {
		set(jwtFldNonce, nonce)
	}

	if err != nil {
		return nil, fmt.Errorf("serialize presentation claims: %w", err)
	}

	return payload, nil
}
