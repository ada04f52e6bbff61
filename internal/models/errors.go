package models

import (
	"errors"
	"fmt"
)

// ErrorCode is the machine-readable reason a round did not resolve.
type ErrorCode string

const (
	CodeInvalidBet          ErrorCode = "INVALID_BET"
	CodeUnknownBetType      ErrorCode = "UNKNOWN_BET_TYPE"
	CodeUnhandledBetType    ErrorCode = "UNHANDLED_BET_TYPE"
	CodeInvalidRange        ErrorCode = "INVALID_RANGE"
	CodeResourceUnavailable ErrorCode = "RESOURCE_UNAVAILABLE"
	CodeMissingAsset        ErrorCode = "MISSING_ASSET"
	CodeEncodingFailed      ErrorCode = "ENCODING_FAILED"
)

// RoundError carries a code, an internal message and the underlying cause.
// Two RoundErrors match under errors.Is when their codes are equal.
type RoundError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

var (
	ErrInvalidBet          = NewError(CodeInvalidBet, "invalid bet")
	ErrUnknownBetType      = NewError(CodeUnknownBetType, "unknown bet type")
	ErrUnhandledBetType    = NewError(CodeUnhandledBetType, "unhandled bet type")
	ErrInvalidRange        = NewError(CodeInvalidRange, "invalid range")
	ErrResourceUnavailable = NewError(CodeResourceUnavailable, "resource unavailable")
	ErrMissingAsset        = NewError(CodeMissingAsset, "missing asset")
	ErrEncodingFailed      = NewError(CodeEncodingFailed, "encoding failed")
)

func NewError(code ErrorCode, message string) *RoundError {
	return &RoundError{Code: code, Message: message}
}

func WrapError(code ErrorCode, message string, cause error) *RoundError {
	return &RoundError{Code: code, Message: message, Cause: cause}
}

func (e *RoundError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *RoundError) Unwrap() error {
	return e.Cause
}

func (e *RoundError) Is(target error) bool {
	t, ok := target.(*RoundError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// ErrorCodeOf returns the code of the first RoundError in err's chain, or
// an empty code when there is none.
func ErrorCodeOf(err error) ErrorCode {
	var re *RoundError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}
