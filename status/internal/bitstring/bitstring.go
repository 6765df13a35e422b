/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package bitstring reads and writes the compressed bit arrays carried by
// status list credentials: gzip over a byte slice treated as a 0-indexed
// array of bits, packed 8 to a byte, LSB-first.
package bitstring

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/multiformats/go-multibase"
)

const bitsPerByte = 8

// Decode decompresses an encoded list. Multibase-prefixed input, as used
// by BitstringStatusList, is decoded by its prefix; anything else is
// treated as raw base64url, the StatusList2021 form.
func Decode(src string, allowMultibase bool) ([]byte, error) {
	var (
		compressed []byte
		err        error
	)

	if allowMultibase && len(src) > 0 && multibase.Encoding(src[0]) == multibase.Base64url {
		_, compressed, err = multibase.Decode(src)
	} else {
		compressed, err = base64.RawURLEncoding.DecodeString(src)
	}

	if err != nil {
		return nil, fmt.Errorf("decode encoded list: %w", err)
	}

	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("decompress encoded list: %w", err)
	}

	bits, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompress encoded list: %w", err)
	}

	return bits, nil
}

// Encode gzips a bit array and encodes it as raw base64url.
func Encode(bits []byte) (string, error) {
	var buf bytes.Buffer

	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(bits); err != nil {
		return "", err
	}

	if err := zw.Close(); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// BitAt returns the bit at a zero-based position.
func BitAt(bits []byte, idx int) (bool, error) {
	if idx < 0 || idx/bitsPerByte >= len(bits) {
		return false, fmt.Errorf("status list index %d out of range", idx)
	}

	return bits[idx/bitsPerByte]&(1<<(idx%bitsPerByte)) != 0, nil
}

// SetBit sets the bit at a zero-based position. Used when building status
// list credentials.
func SetBit(bits []byte, idx int) error {
	if idx < 0 || idx/bitsPerByte >= len(bits) {
		return fmt.Errorf("status list index %d out of range", idx)
	}

	bits[idx/bitsPerByte] |= 1 << (idx % bitsPerByte)

	return nil
}
