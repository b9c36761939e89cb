package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Task errors
	CodeTaskTitleEmpty        Code = "TASK_TITLE_EMPTY"
	CodeTaskInvalidCategory   Code = "TASK_INVALID_CATEGORY"
	CodeTaskInvalidDuration   Code = "TASK_INVALID_DURATION"
	CodeTaskInvalidBid        Code = "TASK_INVALID_BID"
	CodeTaskBidExceedsBalance Code = "TASK_BID_EXCEEDS_BALANCE"
	CodeTaskNotPending        Code = "TASK_NOT_PENDING"
	CodeTaskNotDeletable      Code = "TASK_NOT_DELETABLE"

	// Session errors
	CodeSessionNotRunning    Code = "SESSION_NOT_RUNNING"
	CodeSessionTerminal      Code = "SESSION_TERMINAL"
	CodeSessionNotConfirming Code = "SESSION_NOT_CONFIRMING"
	CodeSessionAlreadyActive Code = "SESSION_ALREADY_ACTIVE"
	CodeSessionNotActive     Code = "SESSION_NOT_ACTIVE"

	// Settlement errors
	CodeSettlementTaskNotSettleable Code = "SETTLEMENT_TASK_NOT_SETTLEABLE"
	CodeSettlementAlreadyApplied    Code = "SETTLEMENT_ALREADY_APPLIED"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
	CodeConflict Code = "CONFLICT"
	CodeInternal Code = "INTERNAL"
)

// HTTPStatus maps domain codes to HTTP status codes for the API layer.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - validation failures, malformed input
	case CodeTaskTitleEmpty,
		CodeTaskInvalidCategory,
		CodeTaskInvalidDuration,
		CodeTaskInvalidBid,
		CodeTaskBidExceedsBalance:
		return http.StatusBadRequest

	// Not found
	case CodeNotFound,
		CodeSessionNotActive:
		return http.StatusNotFound

	// Conflict - state disallows the operation
	case CodeTaskNotPending,
		CodeTaskNotDeletable,
		CodeSessionAlreadyActive,
		CodeSessionTerminal,
		CodeSettlementAlreadyApplied,
		CodeConflict:
		return http.StatusConflict

	// Precondition failed - caller bugs surfaced loudly
	case CodeSessionNotRunning,
		CodeSessionNotConfirming,
		CodeSettlementTaskNotSettleable:
		return http.StatusPreconditionFailed

	default:
		return http.StatusInternalServerError
	}
}
