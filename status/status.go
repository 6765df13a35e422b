/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package status checks credential status against bitstring status list
// credentials. It implements the status checker contract of the verifiable
// package for the BitstringStatusList and StatusList2021 entry types.
package status

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mitchellh/mapstructure"

	"github.com/anchorid/identity-go/status/internal/bitstring"
	"github.com/anchorid/identity-go/verifiable"
)

const (
	// BitstringStatusListEntryType is the entry type of
	// https://www.w3.org/TR/vc-bitstring-status-list/.
	BitstringStatusListEntryType = "BitstringStatusListEntry"

	// StatusList2021EntryType is the entry type of the earlier
	// StatusList2021 draft. Same fields, base64url encoded list.
	StatusList2021EntryType = "StatusList2021Entry"

	// PurposeRevocation marks a permanently invalid credential.
	PurposeRevocation = "revocation"

	// PurposeSuspension marks a temporarily invalid credential.
	PurposeSuspension = "suspension"
)

// entry is the decoded custom-field shape of a status list entry.
type entry struct {
	StatusPurpose        string `mapstructure:"statusPurpose"`
	StatusListIndex      string `mapstructure:"statusListIndex"`
	StatusListCredential string `mapstructure:"statusListCredential"`
}

// ListResolver fetches a status list credential by its URL. Fetching is
// the only I/O of a status check and honors the caller's context.
type ListResolver interface {
	Resolve(ctx context.Context, url string) (*verifiable.Credential, error)
}

// Checker validates status entries against their status list credentials.
// It implements verifiable.StatusChecker.
type Checker struct {
	resolver ListResolver
}

// NewChecker creates a Checker fetching status list credentials through
// the given resolver.
func NewChecker(resolver ListResolver) *Checker {
	return &Checker{resolver: resolver}
}

// Supports reports whether the entry type is a known status list type.
func (c *Checker) Supports(statusType string) bool {
	return statusType == BitstringStatusListEntryType || statusType == StatusList2021EntryType
}

// CheckStatus fetches the entry's status list credential and inspects the
// bit at the entry's index. A set bit maps to the sentinel matching the
// entry's purpose: verifiable.ErrStatusRevoked or
// verifiable.ErrStatusSuspended.
func (c *Checker) CheckStatus(ctx context.Context, status *verifiable.TypedID) error {
	if !c.Supports(status.Type) {
		return fmt.Errorf("%w: %q", verifiable.ErrStatusNotSupported, status.Type)
	}

	decoded := &entry{}
	if err := mapstructure.Decode(map[string]interface{}(status.CustomFields), decoded); err != nil {
		return fmt.Errorf("decode status entry: %w", err)
	}

	idx, err := decoded.index()
	if err != nil {
		return err
	}

	if decoded.StatusListCredential == "" {
		return fmt.Errorf("status entry without statusListCredential")
	}

	listVC, err := c.resolver.Resolve(ctx, decoded.StatusListCredential)
	if err != nil {
		return fmt.Errorf("resolve status list credential: %w", err)
	}

	encodedList, err := encodedListOf(listVC)
	if err != nil {
		return err
	}

	bits, err := bitstring.Decode(encodedList, status.Type == BitstringStatusListEntryType)
	if err != nil {
		return err
	}

	set, err := bitstring.BitAt(bits, idx)
	if err != nil {
		return err
	}

	if !set {
		return nil
	}

	switch decoded.StatusPurpose {
	case PurposeRevocation:
		return fmt.Errorf("%w: status list %q index %d",
			verifiable.ErrStatusRevoked, decoded.StatusListCredential, idx)
	case PurposeSuspension:
		return fmt.Errorf("%w: status list %q index %d",
			verifiable.ErrStatusSuspended, decoded.StatusListCredential, idx)
	default:
		return fmt.Errorf("unsupported status purpose %q", decoded.StatusPurpose)
	}
}

func (e *entry) index() (int, error) {
	if e.StatusListIndex == "" {
		return 0, fmt.Errorf("status entry without statusListIndex")
	}

	idx, err := strconv.Atoi(e.StatusListIndex)
	if err != nil {
		return 0, fmt.Errorf("parse statusListIndex: %w", err)
	}

	return idx, nil
}

// encodedListOf extracts the compressed bit array from a status list
// credential's subject.
func encodedListOf(listVC *verifiable.Credential) (string, error) {
	subjects := listVC.Contents().Subject
	if len(subjects) == 0 {
		return "", fmt.Errorf("status list credential without subject")
	}

	encodedList, ok := subjects[0].CustomFields["encodedList"].(string)
	if !ok {
		return "", fmt.Errorf("status list credential without encodedList")
	}

	return encodedList, nil
}
