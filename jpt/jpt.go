/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package jpt implements the JSON Proof Token compact serialization: a
// selective-disclosure token carrying one payload per named claim slot and
// a BBS+ proof over all slots. A holder derives a presented token that
// reveals a subset of the slots while keeping the issuer's proof of
// provenance, which is why these tokens never travel through the JWS path.
package jpt

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Typ is the media type carried in issuer protected headers.
const Typ = "JPT"

var (
	// ErrMalformedToken is returned when a compact token does not have
	// the expected segment structure.
	ErrMalformedToken = fmt.Errorf("malformed jpt")

	// ErrUnknownClaim is returned when a claim name is not in the issuer
	// protected header's slot list.
	ErrUnknownClaim = fmt.Errorf("unknown claim")

	// ErrUndisclosed is returned when a requested claim slot was concealed
	// by the holder.
	ErrUndisclosed = fmt.Errorf("claim not disclosed")
)

// IssuerHeader is the issuer protected header. Claims names the payload
// slots in order; the header is bound into the proof together with every
// slot, so neither can change after issuance.
type IssuerHeader struct {
	Alg    string   `json:"alg"`
	Typ    string   `json:"typ,omitempty"`
	Kid    string   `json:"kid,omitempty"`
	Iss    string   `json:"iss,omitempty"`
	Claims []string `json:"claims"`
}

// PresentationHeader is the holder's protected header on a presented
// token. The whole serialized header is bound into the derived proof, so
// nonce and audience cannot be replayed onto another presentation.
type PresentationHeader struct {
	Alg   string `json:"alg"`
	Aud   string `json:"aud,omitempty"`
	Nonce string `json:"nonce,omitempty"`
}

// Issued is a token as produced by the issuer, with every slot disclosed.
//
// Compact form: b64(issuer header) "." b64(payload)~...~b64(payload) "." b64(proof).
type Issued struct {
	Header   *IssuerHeader
	Payloads [][]byte
	Proof    []byte

	// headerSegment is the serialized protected header exactly as signed.
	headerSegment string
}

// Presented is a token as re-serialized by a holder. Undisclosed slots
// are nil and serialize as empty segments.
//
// Compact form: b64(presentation header) "." b64(issuer header) "." payloads "." b64(proof).
type Presented struct {
	Header       *PresentationHeader
	IssuerHeader *IssuerHeader
	Payloads     [][]byte
	Proof        []byte

	headerSegment       string
	issuerHeaderSegment string
}

// ParseIssued decodes the compact form of an issued token ahead of
// verification. The proof is not checked.
func ParseIssued(token string) (*Issued, error) {
	segments := strings.Split(token, ".")
	if len(segments) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedToken, len(segments))
	}

	header, err := parseIssuerHeader(segments[0])
	if err != nil {
		return nil, err
	}

	payloads, err := parsePayloads(segments[1], len(header.Claims))
	if err != nil {
		return nil, err
	}

	for i, payload := range payloads {
		if payload == nil {
			return nil, fmt.Errorf("%w: issued token conceals slot %d", ErrMalformedToken, i)
		}
	}

	proof, err := base64.RawURLEncoding.DecodeString(segments[2])
	if err != nil {
		return nil, fmt.Errorf("%w: proof: %w", ErrMalformedToken, err)
	}

	return &Issued{
		Header:        header,
		Payloads:      payloads,
		Proof:         proof,
		headerSegment: segments[0],
	}, nil
}

// Serialize renders the compact form.
func (i *Issued) Serialize() string {
	return i.headerSegment + "." + serializePayloads(i.Payloads) + "." +
		base64.RawURLEncoding.EncodeToString(i.Proof)
}

// Payload returns the payload of a named claim slot.
func (i *Issued) Payload(claim string) ([]byte, error) {
	idx, err := slotIndex(i.Header, claim)
	if err != nil {
		return nil, err
	}

	return i.Payloads[idx], nil
}

// ParsePresented decodes the compact form of a presented token ahead of
// proof verification.
func ParsePresented(token string) (*Presented, error) {
	segments := strings.Split(token, ".")
	if len(segments) != 4 {
		return nil, fmt.Errorf("%w: expected 4 segments, got %d", ErrMalformedToken, len(segments))
	}

	headerBytes, err := base64.RawURLEncoding.DecodeString(segments[0])
	if err != nil {
		return nil, fmt.Errorf("%w: presentation header: %w", ErrMalformedToken, err)
	}

	header := &PresentationHeader{}
	if err := json.Unmarshal(headerBytes, header); err != nil {
		return nil, fmt.Errorf("%w: presentation header: %w", ErrMalformedToken, err)
	}

	issuerHeader, err := parseIssuerHeader(segments[1])
	if err != nil {
		return nil, err
	}

	payloads, err := parsePayloads(segments[2], len(issuerHeader.Claims))
	if err != nil {
		return nil, err
	}

	proof, err := base64.RawURLEncoding.DecodeString(segments[3])
	if err != nil {
		return nil, fmt.Errorf("%w: proof: %w", ErrMalformedToken, err)
	}

	return &Presented{
		Header:              header,
		IssuerHeader:        issuerHeader,
		Payloads:            payloads,
		Proof:               proof,
		headerSegment:       segments[0],
		issuerHeaderSegment: segments[1],
	}, nil
}

// Serialize renders the compact form.
func (p *Presented) Serialize() string {
	return p.headerSegment + "." + p.issuerHeaderSegment + "." +
		serializePayloads(p.Payloads) + "." +
		base64.RawURLEncoding.EncodeToString(p.Proof)
}

// Disclosed returns the payload of a named claim slot, or ErrUndisclosed
// when the holder concealed it.
func (p *Presented) Disclosed(claim string) ([]byte, error) {
	idx, err := slotIndex(p.IssuerHeader, claim)
	if err != nil {
		return nil, err
	}

	if p.Payloads[idx] == nil {
		return nil, fmt.Errorf("%w: %q", ErrUndisclosed, claim)
	}

	return p.Payloads[idx], nil
}

// DisclosedClaims returns name to payload for every disclosed slot.
func (p *Presented) DisclosedClaims() map[string][]byte {
	disclosed := make(map[string][]byte)

	for idx, name := range p.IssuerHeader.Claims {
		if p.Payloads[idx] != nil {
			disclosed[name] = p.Payloads[idx]
		}
	}

	return disclosed
}

func parseIssuerHeader(segment string) (*IssuerHeader, error) {
	headerBytes, err := base64.RawURLEncoding.DecodeString(segment)
	if err != nil {
		return nil, fmt.Errorf("%w: issuer header: %w", ErrMalformedToken, err)
	}

	header := &IssuerHeader{}
	if err := json.Unmarshal(headerBytes, header); err != nil {
		return nil, fmt.Errorf("%w: issuer header: %w", ErrMalformedToken, err)
	}

	if header.Alg == "" {
		return nil, fmt.Errorf("%w: issuer header without alg", ErrMalformedToken)
	}

	if header.Typ != "" && header.Typ != Typ {
		return nil, fmt.Errorf("%w: unexpected typ %q", ErrMalformedToken, header.Typ)
	}

	if len(header.Claims) == 0 {
		return nil, fmt.Errorf("%w: issuer header without claims", ErrMalformedToken)
	}

	return header, nil
}

// parsePayloads splits the tilde-separated slot list. An empty segment is
// an undisclosed slot and decodes to nil.
func parsePayloads(segment string, slots int) ([][]byte, error) {
	parts := strings.Split(segment, "~")
	if len(parts) != slots {
		return nil, fmt.Errorf("%w: %d payload slots for %d claims", ErrMalformedToken, len(parts), slots)
	}

	payloads := make([][]byte, len(parts))

	for idx, part := range parts {
		if part == "" {
			continue
		}

		payload, err := base64.RawURLEncoding.DecodeString(part)
		if err != nil {
			return nil, fmt.Errorf("%w: payload %d: %w", ErrMalformedToken, idx, err)
		}

		payloads[idx] = payload
	}

	return payloads, nil
}

func serializePayloads(payloads [][]byte) string {
	parts := make([]string, len(payloads))

	for idx, payload := range payloads {
		if payload != nil {
			parts[idx] = base64.RawURLEncoding.EncodeToString(payload)
		}
	}

	return strings.Join(parts, "~")
}

func slotIndex(header *IssuerHeader, claim string) (int, error) {
	for idx, name := range header.Claims {
		if name == claim {
			return idx, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownClaim, claim)
}
