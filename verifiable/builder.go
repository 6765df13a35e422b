/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/anchorid/identity-go/jose/jws"
	jsonutil "github.com/anchorid/identity-go/util/json"
)

// JWTSigner signs JWT payloads under one algorithm. kms.Signer satisfies
// it.
type JWTSigner interface {
	Alg() string
	Sign(data []byte) ([]byte, error)
}

// CredentialBuilder assembles a credential for issuance. Build validates
// the result; the zero-value fields get the version's base context and
// type plus a generated urn:uuid id.
type CredentialBuilder struct {
	version  SpecVersion
	contents CredentialContents
	custom   CustomFields
}

// NewCredentialBuilder creates a builder for the given data model version.
func NewCredentialBuilder(version SpecVersion) *CredentialBuilder {
	return &CredentialBuilder{
		version: version,
		custom:  CustomFields{},
	}
}

// ID sets the credential id.
func (b *CredentialBuilder) ID(id string) *CredentialBuilder {
	b.contents.ID = id

	return b
}

// AddContext appends a context after the base context.
func (b *CredentialBuilder) AddContext(context interface{}) *CredentialBuilder {
	b.contents.Context = append(b.contents.Context, context)

	return b
}

// AddType appends a credential type after the base type.
func (b *CredentialBuilder) AddType(credType string) *CredentialBuilder {
	b.contents.Types = append(b.contents.Types, credType)

	return b
}

// Issuer sets the issuer.
func (b *CredentialBuilder) Issuer(issuer Issuer) *CredentialBuilder {
	b.contents.Issuer = issuer

	return b
}

// Subject appends a credential subject.
func (b *CredentialBuilder) Subject(subject Subject) *CredentialBuilder {
	b.contents.Subject = append(b.contents.Subject, subject)

	return b
}

// ValidFrom sets the issuance instant.
func (b *CredentialBuilder) ValidFrom(t time.Time) *CredentialBuilder {
	t = t.UTC()
	b.contents.ValidFrom = &t

	return b
}

// ValidUntil sets the expiry instant.
func (b *CredentialBuilder) ValidUntil(t time.Time) *CredentialBuilder {
	t = t.UTC()
	b.contents.ValidUntil = &t

	return b
}

// Status appends a credentialStatus entry.
func (b *CredentialBuilder) Status(status *TypedID) *CredentialBuilder {
	b.contents.Status = append(b.contents.Status, status)

	return b
}

// Schema appends a credentialSchema entry.
func (b *CredentialBuilder) Schema(schema *TypedID) *CredentialBuilder {
	b.contents.Schemas = append(b.contents.Schemas, schema)

	return b
}

// NonTransferable marks the credential non-transferable: a presentation
// holder must be its subject under the SubjectOnNonTransferable policy.
func (b *CredentialBuilder) NonTransferable() *CredentialBuilder {
	b.contents.NonTransferable = true

	return b
}

// Property sets an additional credential property.
func (b *CredentialBuilder) Property(name string, value interface{}) *CredentialBuilder {
	b.custom[name] = value

	return b
}

// Build assembles and structurally validates the credential.
func (b *CredentialBuilder) Build() (*Credential, error) {
	contents := b.contents

	baseContext := V1ContextURI
	if b.version == SpecV2 {
		baseContext = V2ContextURI
	}

	contents.Context = append([]interface{}{baseContext}, contents.Context...)
	contents.Types = append([]string{VCType}, contents.Types...)

	if contents.ID == "" {
		contents.ID = "urn:uuid:" + uuid.NewString()
	}

	obj := jsonutil.ShallowCopyObj(b.custom)
	obj[jsonFldContext] = contents.Context
	obj[jsonFldID] = contents.ID
	obj[jsonFldType] = typesToRaw(contents.Types)
	obj[jsonFldIssuer] = serializeIssuer(contents.Issuer)
	obj[jsonFldSubject] = serializeSubjects(contents.Subject)

	validFromFld, validUntilFld := jsonFldValidFrom, jsonFldValidUntil
	if b.version == SpecV1 {
		validFromFld, validUntilFld = jsonFldIssued, jsonFldExpired
	}

	if contents.ValidFrom != nil {
		obj[validFromFld] = contents.ValidFrom.Format(time.RFC3339)
	}

	if contents.ValidUntil != nil {
		obj[validUntilFld] = contents.ValidUntil.Format(time.RFC3339)
	}

	if len(contents.Status) > 0 {
		obj[jsonFldStatus] = typedIDsToRaw(contents.Status)
	}

	if len(contents.Schemas) > 0 {
		obj[jsonFldSchema] = typedIDsToRaw(contents.Schemas)
	}

	if contents.NonTransferable {
		obj[jsonFldNonTransferable] = true
	}

	credential := &Credential{
		version:        b.version,
		contents:       contents,
		credentialJSON: obj,
	}

	if errs := credential.validateStructure(); len(errs) > 0 {
		return nil, &CompoundCredentialError{Errors: errs}
	}

	return credential, nil
}

// ToJWT serializes and signs the credential as a JWT. kid is the DID URL
// of the issuer's verification method.
func (c *Credential) ToJWT(signer JWTSigner, kid string) (string, error) {
	payload, err := credClaimsBytes(c)
	if err != nil {
		return "", err
	}

	return jws.Sign(payload, &jws.Header{
		Alg: signer.Alg(),
		Kid: kid,
		Typ: "JWT",
	}, signer)
}

// PresentationBuilder assembles a presentation from credential JWTs.
type PresentationBuilder struct {
	version  SpecVersion
	contents PresentationContents
}

// NewPresentationBuilder creates a builder for the given data model
// version.
func NewPresentationBuilder(version SpecVersion) *PresentationBuilder {
	return &PresentationBuilder{version: version}
}

// ID sets the presentation id.
func (b *PresentationBuilder) ID(id string) *PresentationBuilder {
	b.contents.ID = id

	return b
}

// AddContext appends a context after the base context.
func (b *PresentationBuilder) AddContext(context interface{}) *PresentationBuilder {
	b.contents.Context = append(b.contents.Context, context)

	return b
}

// AddType appends a presentation type after the base type.
func (b *PresentationBuilder) AddType(presType string) *PresentationBuilder {
	b.contents.Types = append(b.contents.Types, presType)

	return b
}

// Holder sets the holder DID.
func (b *PresentationBuilder) Holder(holder string) *PresentationBuilder {
	b.contents.Holder = holder

	return b
}

// Credential appends an enveloped credential JWT.
func (b *PresentationBuilder) Credential(token string) *PresentationBuilder {
	b.contents.Credentials = append(b.contents.Credentials, token)

	return b
}

// Build assembles the presentation.
func (b *PresentationBuilder) Build() (*Presentation, error) {
	contents := b.contents

	baseContext := V1ContextURI
	if b.version == SpecV2 {
		baseContext = V2ContextURI
	}

	contents.Context = append([]interface{}{baseContext}, contents.Context...)
	contents.Types = append([]string{VPType}, contents.Types...)

	obj := JSONObject{
		jsonFldContext: contents.Context,
		jsonFldType:    typesToRaw(contents.Types),
	}

	if contents.ID != "" {
		obj[jsonFldID] = contents.ID
	}

	if contents.Holder != "" {
		obj[jsonFldHolder] = contents.Holder
	}

	if len(contents.Credentials) > 0 {
		creds := make([]interface{}, 0, len(contents.Credentials))
		for _, token := range contents.Credentials {
			creds = append(creds, token)
		}

		obj[jsonFldCredential] = creds
	}

	presentation := &Presentation{
		version:          b.version,
		contents:         contents,
		presentationJSON: obj,
	}

	if errs := presentation.validateStructure(); len(errs) > 0 {
		return nil, &CompoundPresentationError{Errors: errs}
	}

	return presentation, nil
}

// ToJWT serializes and signs the presentation as a JWT with the holder's
// key. audience and nonce bind the token to a verifier and its challenge;
// either may be empty.
func (p *Presentation) ToJWT(signer JWTSigner, kid, audience, nonce string) (string, error) {
	payload, err := presClaimsBytes(p, audience, nonce)
	if err != nil {
		return "", err
	}

	return jws.Sign(payload, &jws.Header{
		Alg:   signer.Alg(),
		Kid:   kid,
		Typ:   "JWT",
		Nonce: nonce,
	}, signer)
}

// ToUnsecuredJWT serializes the presentation as an unsecured JWT (alg
// "none", empty signature) for flows where the holder adds no proof.
func (p *Presentation) ToUnsecuredJWT(audience, nonce string) (string, error) {
	payload, err := presClaimsBytes(p, audience, nonce)
	if err != nil {
		return "", err
	}

	header, err := json.Marshal(&jws.Header{Alg: algNone, Typ: "JWT"})
	if err != nil {
		return "", fmt.Errorf("serialize unsecured header: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(header) + "." +
		base64.RawURLEncoding.EncodeToString(payload) + ".", nil
}

func typesToRaw(types []string) interface{} {
	if len(types) == 1 {
		return types[0]
	}

	raw := make([]interface{}, 0, len(types))
	for _, t := range types {
		raw = append(raw, t)
	}

	return raw
}

func typedIDsToRaw(ids []*TypedID) interface{} {
	if len(ids) == 1 {
		return serializeTypedIDObj(*ids[0])
	}

	raw := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, serializeTypedIDObj(*id))
	}

	return raw
}
