package domain

import "errors"

// Every operation fails with exactly one of these sentinels (possibly
// wrapped). None are retryable by the registry itself; the caller retries
// after correcting the condition.
var (
	// ErrNotOwner indicates the caller is not the asset's owner-of-record.
	ErrNotOwner = errors.New("caller is not the asset owner")

	// ErrInvalidPrice indicates a zero or negative price.
	ErrInvalidPrice = errors.New("price must be greater than zero")

	// ErrAlreadyListed indicates an active listing already exists for the key.
	ErrAlreadyListed = errors.New("asset is already listed")

	// ErrNotListed indicates no active listing exists for the key.
	ErrNotListed = errors.New("asset is not listed")

	// ErrNotAuthorized indicates the registry lacks transfer authorization
	// for the asset.
	ErrNotAuthorized = errors.New("registry is not authorized to transfer asset")

	// ErrIncorrectAmount indicates the tendered amount does not exactly
	// match the listing price.
	ErrIncorrectAmount = errors.New("tendered amount does not match listing price")

	// ErrTransferFailed indicates the value transfer channel reported failure.
	ErrTransferFailed = errors.New("value transfer failed")
)
