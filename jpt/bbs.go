/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jpt

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/trustbloc/bbs-signature-go/bbs12381g2pub"
)

// AlgBBS identifies the BLS12-381 G2 BBS+ proof algorithm.
const AlgBBS = "BBS"

// Signer issues tokens with a BBS+ key over BLS12-381 G2.
type Signer struct {
	privateKey []byte
}

// NewSigner creates a Signer from a BBS+ private key.
func NewSigner(key *bbs12381g2pub.PrivateKey) (*Signer, error) {
	privateKey, err := key.Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal bbs private key: %w", err)
	}

	return &Signer{privateKey: privateKey}, nil
}

// Sign issues a token over the given payloads. The header's Claims must
// name one slot per payload; Alg and Typ are filled in.
func (s *Signer) Sign(header *IssuerHeader, payloads [][]byte) (*Issued, error) {
	if len(payloads) != len(header.Claims) {
		return nil, fmt.Errorf("%d payloads for %d claims", len(payloads), len(header.Claims))
	}

	header.Alg = AlgBBS
	header.Typ = Typ

	headerBytes, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("marshal issuer header: %w", err)
	}

	issued := &Issued{
		Header:        header,
		Payloads:      payloads,
		headerSegment: base64.RawURLEncoding.EncodeToString(headerBytes),
	}

	proof, err := bbs12381g2pub.New().Sign(issued.messages(), s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("bbs sign: %w", err)
	}

	issued.Proof = proof

	return issued, nil
}

// messages lists the BBS+ messages of an issued token: the serialized
// issuer header first, then one message per payload slot.
func (i *Issued) messages() [][]byte {
	messages := make([][]byte, 0, len(i.Payloads)+1)
	messages = append(messages, []byte(i.headerSegment))

	return append(messages, i.Payloads...)
}

// Verify checks the issuer's BBS+ signature over the full slot set.
func (i *Issued) Verify(issuerKey []byte) error {
	if i.Header.Alg != AlgBBS {
		return fmt.Errorf("unsupported alg %q", i.Header.Alg)
	}

	if err := bbs12381g2pub.New().Verify(i.messages(), i.Proof, issuerKey); err != nil {
		return fmt.Errorf("bbs verify: %w", err)
	}

	return nil
}

// Present derives a presented token disclosing only the named claims. The
// issuer's public key is needed to derive the proof; the serialized
// presentation header is bound into it, committing nonce and audience.
func (i *Issued) Present(header *PresentationHeader, disclose []string, issuerKey []byte) (*Presented, error) {
	header.Alg = AlgBBS

	headerBytes, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("marshal presentation header: %w", err)
	}

	headerSegment := base64.RawURLEncoding.EncodeToString(headerBytes)

	// The issuer header is always revealed; payload slot n is message n+1.
	revealed := []int{0}
	payloads := make([][]byte, len(i.Payloads))

	for _, claim := range disclose {
		idx, err := slotIndex(i.Header, claim)
		if err != nil {
			return nil, err
		}

		revealed = append(revealed, idx+1)
		payloads[idx] = i.Payloads[idx]
	}

	proof, err := bbs12381g2pub.New().DeriveProof(i.messages(), i.Proof,
		[]byte(headerSegment), issuerKey, revealed)
	if err != nil {
		return nil, fmt.Errorf("bbs derive proof: %w", err)
	}

	return &Presented{
		Header:              header,
		IssuerHeader:        i.Header,
		Payloads:            payloads,
		Proof:               proof,
		headerSegment:       headerSegment,
		issuerHeaderSegment: i.headerSegment,
	}, nil
}

// Verify checks the derived BBS+ proof over the disclosed slots against
// the issuer's public key. Undisclosed slots stay covered by the proof
// without being revealed.
func (p *Presented) Verify(issuerKey []byte) error {
	if p.IssuerHeader.Alg != AlgBBS {
		return fmt.Errorf("unsupported alg %q", p.IssuerHeader.Alg)
	}

	// Revealed messages in slot order, issuer header first.
	messages := [][]byte{[]byte(p.issuerHeaderSegment)}

	for _, payload := range p.Payloads {
		if payload != nil {
			messages = append(messages, payload)
		}
	}

	if err := bbs12381g2pub.New().VerifyProof(messages, p.Proof,
		[]byte(p.headerSegment), issuerKey); err != nil {
		return fmt.Errorf("bbs verify proof: %w", err)
	}

	return nil
}
