// Package types holds the error registry and response types shared by the
// chain simulator's modules.
package types

import (
	errorsmod "cosmossdk.io/errors"
)

// Codespace scopes all registered simulator errors.
const Codespace = "multitest"

var (
	// ErrEmptyAttributeKey is returned when a contract emits an attribute
	// whose key is empty after trimming whitespace.
	ErrEmptyAttributeKey = errorsmod.Register(Codespace, 2, "empty attribute key")

	// ErrEmptyAttributeValue is returned when a contract emits an attribute
	// whose value is empty after trimming whitespace.
	ErrEmptyAttributeValue = errorsmod.Register(Codespace, 3, "empty attribute value")

	// ErrReservedAttributeKey is returned when a contract emits an attribute
	// key starting with an underscore. Those keys are injected by the
	// simulator itself.
	ErrReservedAttributeKey = errorsmod.Register(Codespace, 4, "attribute key starts with reserved prefix _")

	// ErrEventTypeTooShort is returned when a contract emits an event whose
	// trimmed type is shorter than two characters.
	ErrEventTypeTooShort = errorsmod.Register(Codespace, 5, "event type too short")

	// ErrInvalidCodeID is returned for code id zero.
	ErrInvalidCodeID = errorsmod.Register(Codespace, 6, "code id: invalid")

	// ErrNoSuchCode is returned when a code id is not registered.
	ErrNoSuchCode = errorsmod.Register(Codespace, 7, "no such code")

	// ErrDuplicateCodeID is returned when storing a code under an id that is
	// already taken.
	ErrDuplicateCodeID = errorsmod.Register(Codespace, 8, "duplicated code id")

	// ErrNoSuchContract is returned for addresses without contract data.
	ErrNoSuchContract = errorsmod.Register(Codespace, 9, "no such contract")

	// ErrDuplicateContractAddress is returned when instantiation derives an
	// address that is already claimed.
	ErrDuplicateContractAddress = errorsmod.Register(Codespace, 10, "contract with this address already exists")

	// ErrUnauthorized is returned for admin-gated operations invoked by a
	// sender that is not the current admin.
	ErrUnauthorized = errorsmod.Register(Codespace, 11, "unauthorized")

	// ErrUnsupportedMsg is returned when a message variant has no handler.
	ErrUnsupportedMsg = errorsmod.Register(Codespace, 12, "unsupported message")

	// ErrUnsupportedQuery is returned when a query variant has no handler.
	ErrUnsupportedQuery = errorsmod.Register(Codespace, 13, "unsupported query")

	// ErrNotImplemented is returned by contract entry points a contract
	// wrapper was built without.
	ErrNotImplemented = errorsmod.Register(Codespace, 14, "not implemented")

	// ErrEmptyLabel is returned when a contract is instantiated without a
	// label.
	ErrEmptyLabel = errorsmod.Register(Codespace, 15, "label is required on all contracts")

	// ErrInvalidReplyOn is returned for sub-messages carrying an unknown
	// reply mode.
	ErrInvalidReplyOn = errorsmod.Register(Codespace, 16, "invalid reply mode")

	// ErrInsufficientFunds is returned by the bank when a transfer or burn
	// exceeds the sender's balance.
	ErrInsufficientFunds = errorsmod.Register(Codespace, 17, "insufficient funds")

	// ErrInvalidCoin is returned for unparsable or negative coin amounts.
	ErrInvalidCoin = errorsmod.Register(Codespace, 18, "invalid coin")

	// ErrNoSuchValidator is returned for staking operations against an
	// unregistered validator.
	ErrNoSuchValidator = errorsmod.Register(Codespace, 19, "validator does not exist")
)
