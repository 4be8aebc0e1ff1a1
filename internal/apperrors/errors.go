package apperrors

import (
	"errors"
)

// Error kinds
// Every well known error below unwraps to exactly one of them, so callers may check
// either the concrete error or its kind with errors.Is
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidState        = errors.New("invalid state")
	ErrNotAuthorized       = errors.New("not authorized")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidInput        = errors.New("invalid input")
)

type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &kindError{msg: msg, kind: kind}
}

var (
	ErrUserAlreadyExists = newError(ErrInvalidInput, "user already exists")
	ErrUserNotFound      = newError(ErrNotFound, "user not found")

	ErrRefreshTokenNotFound = newError(ErrNotAuthorized, "refresh token not found")
	ErrRefreshTokenIsUsed   = newError(ErrNotAuthorized, "refresh token is used")
	ErrRefreshTokenExpired  = newError(ErrNotAuthorized, "refresh token is expired")

	ErrItemNotFound    = newError(ErrNotFound, "item not found")
	ErrItemUnavailable = newError(ErrInvalidState, "item not available")

	ErrSelfTransaction = newError(ErrInvalidInput, "you cannot acquire your own item")

	ErrProposalNotFound    = newError(ErrNotFound, "swap request not found")
	ErrProposalNotPending  = newError(ErrInvalidState, "swap request is not pending")
	ErrNoOfferedItems      = newError(ErrInvalidInput, "at least one offered item is required")
	ErrInvalidOffer        = newError(ErrInvalidInput, "requested item can't be offered")
	ErrOfferedItemNotOwned = newError(ErrNotAuthorized, "offered item is not owned by requester")
	ErrNotItemOwner        = newError(ErrNotAuthorized, "only the item owner can do that")

	ErrBalanceInsufficient = newError(ErrInsufficientBalance, "insufficient balance")
)

// Return the kind of well known error or nil if error is not well known
func KindOf(err error) error {
	for _, kind := range []error{ErrNotFound, ErrInvalidState, ErrNotAuthorized, ErrInsufficientBalance, ErrInvalidInput} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// Message of the well known error wrapped by err, safe to show to clients
// Return empty string if err is not well known
func Message(err error) string {
	var e *kindError
	if errors.As(err, &e) {
		return e.msg
	}
	return ""
}
