package business

import "errors"

// Business failure taxonomy. These are surfaced to the API caller as named
// failures and are never retried automatically; only transient storage
// errors retry, at the transaction boundary.
var (
	// ErrInsufficientBalance means a debit would drive the available
	// balance below zero.
	ErrInsufficientBalance = errors.New("insufficient available balance")

	// ErrInvalidStateTransition means a command was issued against a
	// period, obligation, withdrawal or order in the wrong state.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrDuplicateOperation means an idempotency-key replay: the
	// snapshot, generation, confirmation or split already happened.
	ErrDuplicateOperation = errors.New("duplicate operation")

	// ErrSnapshotMissing means obligation generation ran before the
	// period's referral snapshot exists.
	ErrSnapshotMissing = errors.New("settlement snapshot missing")

	// ErrRoundingResidualOverflow means the truncation residual exceeded
	// its bound. That indicates a calculation bug; the period must not be
	// settled on these numbers.
	ErrRoundingResidualOverflow = errors.New("rounding residual overflow")

	// ErrWalletCorrupted means the materialized locked balance does not
	// cover a debit the ledger says it should. Data inconsistency, fatal
	// for the operation.
	ErrWalletCorrupted = errors.New("wallet balance inconsistent with ledger")
)
