/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package kms

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"math/big"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/cloudflare/circl/sign/mldsa/mldsa44"
	"github.com/cloudflare/circl/sign/mldsa/mldsa65"
	"github.com/cloudflare/circl/sign/mldsa/mldsa87"
	"github.com/google/uuid"

	"github.com/anchorid/identity-go/jose/jwk"
	"github.com/anchorid/identity-go/proof"
	"github.com/anchorid/identity-go/proof/verifiers/composite"
)

type localKey struct {
	mu     sync.Mutex
	public *jwk.JWK
	sign   func(data []byte) ([]byte, error)
}

// LocalStore is an in-memory Store. Generated keys live for the process
// lifetime; ids are random UUIDs.
type LocalStore struct {
	mu   sync.RWMutex
	keys map[string]*localKey
	rand io.Reader
}

// NewLocalStore creates an empty in-memory store.
func NewLocalStore() *LocalStore {
	return &LocalStore{
		keys: map[string]*localKey{},
		rand: rand.Reader,
	}
}

// Generate implements Store.
func (s *LocalStore) Generate(alg string) (string, *jwk.JWK, error) {
	key, err := s.generateKey(alg)
	if err != nil {
		return "", nil, err
	}

	key.public.Alg = alg

	id := uuid.NewString()
	key.public.Kid = id

	s.mu.Lock()
	s.keys[id] = key
	s.mu.Unlock()

	return id, key.public, nil
}

// Sign implements Store. Signing on one key is serialized.
func (s *LocalStore) Sign(keyID string, data []byte) ([]byte, error) {
	s.mu.RLock()
	key, ok := s.keys[keyID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, keyID)
	}

	key.mu.Lock()
	defer key.mu.Unlock()

	return key.sign(data)
}

// PublicKey implements Store.
func (s *LocalStore) PublicKey(keyID string) (*jwk.JWK, error) {
	s.mu.RLock()
	key, ok := s.keys[keyID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, keyID)
	}

	return key.public, nil
}

// Exists implements Store.
func (s *LocalStore) Exists(keyID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.keys[keyID]

	return ok
}

func (s *LocalStore) generateKey(alg string) (*localKey, error) {
	switch alg {
	case proof.AlgEdDSA:
		return s.generateEd25519()
	case proof.AlgES256:
		return s.generateECDSA(elliptic.P256(), "P-256", 32, crypto.SHA256)
	case proof.AlgES384:
		return s.generateECDSA(elliptic.P384(), "P-384", 48, crypto.SHA384)
	case proof.AlgES512:
		return s.generateECDSA(elliptic.P521(), "P-521", 66, crypto.SHA512)
	case proof.AlgES256K:
		return s.generateECDSA(btcec.S256(), "secp256k1", 32, crypto.SHA256)
	case proof.AlgMLDSA44, proof.AlgMLDSA65, proof.AlgMLDSA87:
		return s.generateMLDSA(alg)
	case proof.AlgMLDSA44Ed25519, proof.AlgMLDSA65Ed25519:
		return s.generateComposite(alg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlg, alg)
	}
}

func (s *LocalStore) generateEd25519() (*localKey, error) {
	pub, priv, err := ed25519.GenerateKey(s.rand)
	if err != nil {
		return nil, err
	}

	public := jwk.New(jwk.TypeOKP)
	public.OKP = &jwk.OKPParams{
		Crv: "Ed25519",
		X:   base64.RawURLEncoding.EncodeToString(pub),
	}

	return &localKey{
		public: public,
		sign: func(data []byte) ([]byte, error) {
			return ed25519.Sign(priv, data), nil
		},
	}, nil
}

func (s *LocalStore) generateECDSA(curve elliptic.Curve, crv string, keySize int, hash crypto.Hash) (*localKey, error) {
	priv, err := ecdsa.GenerateKey(curve, s.rand)
	if err != nil {
		return nil, err
	}

	public := jwk.New(jwk.TypeEC)
	public.EC = &jwk.ECParams{
		Crv: crv,
		X:   base64.RawURLEncoding.EncodeToString(padBytes(priv.X, keySize)),
		Y:   base64.RawURLEncoding.EncodeToString(padBytes(priv.Y, keySize)),
	}

	return &localKey{
		public: public,
		sign: func(data []byte) ([]byte, error) {
			hasher := hash.New()
			hasher.Write(data) //nolint:errcheck

			r, sVal, err := ecdsa.Sign(rand.Reader, priv, hasher.Sum(nil))
			if err != nil {
				return nil, err
			}

			// JWS wants the fixed-size r||s form.
			sig := make([]byte, 2*keySize)
			copy(sig[:keySize], padBytes(r, keySize))
			copy(sig[keySize:], padBytes(sVal, keySize))

			return sig, nil
		},
	}, nil
}

func (s *LocalStore) generateMLDSA(alg string) (*localKey, error) {
	var (
		pubBytes []byte
		sign     func(data []byte) ([]byte, error)
	)

	switch alg {
	case proof.AlgMLDSA44:
		pub, priv, err := mldsa44.GenerateKey(s.rand)
		if err != nil {
			return nil, err
		}

		pubBytes, _ = pub.MarshalBinary()
		sign = func(data []byte) ([]byte, error) {
			sig := make([]byte, mldsa44.SignatureSize)
			if err := mldsa44.SignTo(priv, data, nil, false, sig); err != nil {
				return nil, err
			}

			return sig, nil
		}
	case proof.AlgMLDSA65:
		pub, priv, err := mldsa65.GenerateKey(s.rand)
		if err != nil {
			return nil, err
		}

		pubBytes, _ = pub.MarshalBinary()
		sign = func(data []byte) ([]byte, error) {
			sig := make([]byte, mldsa65.SignatureSize)
			if err := mldsa65.SignTo(priv, data, nil, false, sig); err != nil {
				return nil, err
			}

			return sig, nil
		}
	case proof.AlgMLDSA87:
		pub, priv, err := mldsa87.GenerateKey(s.rand)
		if err != nil {
			return nil, err
		}

		pubBytes, _ = pub.MarshalBinary()
		sign = func(data []byte) ([]byte, error) {
			sig := make([]byte, mldsa87.SignatureSize)
			if err := mldsa87.SignTo(priv, data, nil, false, sig); err != nil {
				return nil, err
			}

			return sig, nil
		}
	}

	public := jwk.New(jwk.TypeAKP)
	public.AKP = &jwk.AKPParams{
		Pub: base64.RawURLEncoding.EncodeToString(pubBytes),
	}

	return &localKey{public: public, sign: sign}, nil
}

// generateComposite builds a hybrid key: both component signatures cover the
// composite domain separator followed by the data.
func (s *LocalStore) generateComposite(alg string) (*localKey, error) {
	mldsaAlg := proof.AlgMLDSA44
	if alg == proof.AlgMLDSA65Ed25519 {
		mldsaAlg = proof.AlgMLDSA65
	}

	pqKey, err := s.generateMLDSA(mldsaAlg)
	if err != nil {
		return nil, err
	}

	edKey, err := s.generateEd25519()
	if err != nil {
		return nil, err
	}

	domain, ok := composite.Domain(alg)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlg, alg)
	}

	pqKey.public.Alg = mldsaAlg

	public := jwk.New(jwk.TypeCMP)
	public.CMP = &jwk.CompositeParams{
		AlgID:                alg,
		TraditionalPublicKey: edKey.public,
		PostQuantumPublicKey: pqKey.public,
	}

	return &localKey{
		public: public,
		sign: func(data []byte) ([]byte, error) {
			message := append(append([]byte(nil), domain...), data...)

			pqSig, err := pqKey.sign(message)
			if err != nil {
				return nil, err
			}

			edSig, err := edKey.sign(message)
			if err != nil {
				return nil, err
			}

			return append(pqSig, edSig...), nil
		},
	}, nil
}

func padBytes(v *big.Int, size int) []byte {
	return v.FillBytes(make([]byte, size))
}
