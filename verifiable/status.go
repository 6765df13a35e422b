/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"context"
	"errors"
)

// Status check outcomes. Implementations wrap these so validators can map
// them to the matching error kinds.
var (
	// ErrStatusRevoked: the credential is revoked.
	ErrStatusRevoked = errors.New("credential revoked")
	// ErrStatusSuspended: the credential is suspended.
	ErrStatusSuspended = errors.New("credential suspended")
	// ErrStatusNotSupported: no checker handles the status entry's type.
	ErrStatusNotSupported = errors.New("unsupported credentialStatus type")
)

// StatusChecker checks one or more credentialStatus entry types against
// their status lists. Checking may fetch the status list credential and is
// the only I/O a credential validation performs.
type StatusChecker interface {
	// Supports reports whether the checker handles the given
	// credentialStatus type.
	Supports(statusType string) bool
	// CheckStatus returns nil when the credential is active,
	// ErrStatusRevoked or ErrStatusSuspended (possibly wrapped) when not,
	// and any other error when the status could not be determined.
	CheckStatus(ctx context.Context, status *TypedID) error
}
