/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package jws implements the JWS compact serialization (RFC 7515) with the
// RFC 7797 unencoded-payload extension.
package jws

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anchorid/identity-go/jose/jwk"
	"github.com/anchorid/identity-go/proof"
)

// Signer produces a signature over a prepared signing input. Implementations
// typically delegate to an external key store.
type Signer interface {
	Sign(data []byte) ([]byte, error)
}

type parseOpts struct {
	detachedPayload []byte
	recognizedCrit  []string
}

// ParseOpt configures Parse.
type ParseOpt func(opts *parseOpts)

// WithDetachedPayload supplies the payload for tokens serialized with a
// detached (empty) payload segment.
func WithDetachedPayload(payload []byte) ParseOpt {
	return func(opts *parseOpts) {
		opts.detachedPayload = payload
	}
}

// WithRecognizedCrit extends the set of critical header extensions the
// caller understands. "b64" is always recognized. Any other critical
// extension is rejected at decode time (RFC 7515 section 4.1.11).
func WithRecognizedCrit(names ...string) ParseOpt {
	return func(opts *parseOpts) {
		opts.recognizedCrit = append(opts.recognizedCrit, names...)
	}
}

// ValidationItem is a structurally decoded but unverified token. Claims are
// reachable only through Verify, or explicitly through InsecureClaims.
type ValidationItem struct {
	protected    *Header
	protectedRaw []byte
	payload      []byte
	signature    []byte
	signingInput []byte
}

// Decoded is a verified token: the protected header plus the claims, only
// produced by a successful Verify call.
type Decoded struct {
	Protected *Header
	Claims    []byte
}

// Sign produces the compact serialization of payload under the protected
// header. When the header sets b64=false, the literal payload bytes are used
// in the signing input and the serialized output, and "b64" is added to the
// crit list.
func Sign(payload []byte, protected *Header, signer Signer) (string, error) {
	return sign(payload, protected, signer, false)
}

// SignDetached is Sign with an empty payload segment in the output; the
// payload travels out of band.
func SignDetached(payload []byte, protected *Header, signer Signer) (string, error) {
	return sign(payload, protected, signer, true)
}

func sign(payload []byte, protected *Header, signer Signer, detached bool) (string, error) {
	if protected == nil || protected.Alg == "" {
		return "", errors.New("protected header must set alg")
	}

	header := *protected

	b64 := header.B64 == nil || *header.B64
	if !b64 {
		// RFC 7797 section 6: b64 must be listed as critical.
		found := false

		for _, name := range header.Crit {
			if name == HeaderB64 {
				found = true

				break
			}
		}

		if !found {
			header.Crit = append(append([]string(nil), header.Crit...), HeaderB64)
		}

		if !detached && bytes.ContainsRune(payload, '.') {
			return "", errors.New("unencoded attached payload must not contain '.'; use detached serialization")
		}
	}

	headerJSON, err := json.Marshal(&header)
	if err != nil {
		return "", fmt.Errorf("marshal protected header: %w", err)
	}

	headerB64 := base64.RawURLEncoding.EncodeToString(headerJSON)

	var payloadRepr string
	if b64 {
		payloadRepr = base64.RawURLEncoding.EncodeToString(payload)
	} else {
		payloadRepr = string(payload)
	}

	signingInput := headerB64 + "." + payloadRepr

	signature, err := signer.Sign([]byte(signingInput))
	if err != nil {
		return "", fmt.Errorf("sign jws: %w", err)
	}

	serializedPayload := payloadRepr
	if detached {
		serializedPayload = ""
	}

	return headerB64 + "." + serializedPayload + "." + base64.RawURLEncoding.EncodeToString(signature), nil
}

// Parse structurally decodes a compact JWS without any trust in its content.
// The returned item must be verified before its claims are used.
func Parse(token string, opts ...ParseOpt) (*ValidationItem, error) {
	pOpts := &parseOpts{}

	for _, opt := range opts {
		opt(pOpts)
	}

	segments := strings.Split(token, ".")
	if len(segments) != 3 {
		return nil, fmt.Errorf("invalid compact jws: expected 3 segments, got %d", len(segments))
	}

	protectedRaw, err := base64.RawURLEncoding.DecodeString(segments[0])
	if err != nil {
		return nil, fmt.Errorf("decode protected header: %w", err)
	}

	protected := &Header{}
	if err := json.Unmarshal(protectedRaw, protected); err != nil {
		return nil, fmt.Errorf("parse protected header: %w", err)
	}

	if err := checkCrit(protected, pOpts.recognizedCrit); err != nil {
		return nil, err
	}

	signature, err := base64.RawURLEncoding.DecodeString(segments[2])
	if err != nil {
		return nil, fmt.Errorf("decode signature: %w", err)
	}

	b64 := protected.B64 == nil || *protected.B64

	var payload, signingPayload []byte

	switch {
	case pOpts.detachedPayload != nil:
		if segments[1] != "" {
			return nil, errors.New("non-empty payload segment with detached payload")
		}

		payload = pOpts.detachedPayload
		if b64 {
			signingPayload = []byte(base64.RawURLEncoding.EncodeToString(payload))
		} else {
			signingPayload = payload
		}
	case b64:
		payload, err = base64.RawURLEncoding.DecodeString(segments[1])
		if err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}

		signingPayload = []byte(segments[1])
	default:
		payload = []byte(segments[1])
		signingPayload = payload
	}

	signingInput := make([]byte, 0, len(segments[0])+1+len(signingPayload))
	signingInput = append(signingInput, segments[0]...)
	signingInput = append(signingInput, '.')
	signingInput = append(signingInput, signingPayload...)

	return &ValidationItem{
		protected:    protected,
		protectedRaw: protectedRaw,
		payload:      payload,
		signature:    signature,
		signingInput: signingInput,
	}, nil
}

func checkCrit(protected *Header, recognized []string) error {
	if protected.Crit == nil {
		return nil
	}

	if len(protected.Crit) == 0 {
		return errors.New("crit header must not be empty")
	}

	for _, name := range protected.Crit {
		if name == HeaderB64 {
			continue
		}

		found := false

		for _, r := range recognized {
			if r == name {
				found = true

				break
			}
		}

		if !found {
			return fmt.Errorf("unrecognized critical extension %q", name)
		}

		if !protected.Has(name) {
			return fmt.Errorf("critical extension %q not present in header", name)
		}
	}

	return nil
}

// Protected returns the decoded protected header. The header is untrusted
// until Verify succeeds.
func (i *ValidationItem) Protected() *Header {
	return i.protected
}

// Alg returns the alg claim of the protected header.
func (i *ValidationItem) Alg() string {
	return i.protected.Alg
}

// Kid returns the kid claim of the protected header.
func (i *ValidationItem) Kid() string {
	return i.protected.Kid
}

// Nonce returns the nonce claim of the protected header.
func (i *ValidationItem) Nonce() string {
	return i.protected.Nonce
}

// SigningInput returns the bytes the signature covers.
func (i *ValidationItem) SigningInput() []byte {
	return i.signingInput
}

// Signature returns the decoded signature bytes.
func (i *ValidationItem) Signature() []byte {
	return i.signature
}

// InsecureClaims exposes the payload without signature verification. Its
// only supported use is reading the issuer or holder field to locate the
// verification key; callers must verify before trusting anything else.
func (i *ValidationItem) InsecureClaims() []byte {
	return i.payload
}

// Verify checks the signature with the given verifier and key and returns
// the decoded claims. When the key binds an algorithm via its alg parameter
// it must match the header's alg.
func (i *ValidationItem) Verify(verifier proof.Verifier, key *jwk.JWK) (*Decoded, error) {
	if i.protected.Alg == "" {
		return nil, errors.New("protected header must set alg")
	}

	if key.Alg != "" && key.Alg != i.protected.Alg {
		return nil, fmt.Errorf("header alg %q does not match key alg %q", i.protected.Alg, key.Alg)
	}

	if !key.IsPublic() {
		pub, err := key.Public()
		if err != nil {
			return nil, fmt.Errorf("project verification key: %w", err)
		}

		key = pub
	}

	err := verifier.Verify(proof.VerificationInput{
		Alg:          i.protected.Alg,
		SigningInput: i.signingInput,
		Signature:    i.signature,
	}, key)
	if err != nil {
		return nil, err
	}

	return &Decoded{Protected: i.protected, Claims: i.payload}, nil
}
