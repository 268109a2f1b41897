// Package errors provides structured error handling for the tracker core.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// CodeRequestInvalid marks malformed transport-level input.
	CodeRequestInvalid Code = "REQUEST_INVALID"

	// Unit errors
	CodeUnitSerialEmpty         Code = "UNIT_SERIAL_EMPTY"
	CodeUnitModelEmpty          Code = "UNIT_MODEL_EMPTY"
	CodeUnitAlreadyRegistered   Code = "UNIT_ALREADY_REGISTERED"
	CodeUnitNotFound            Code = "UNIT_NOT_FOUND"
	CodeUnitAlreadySold         Code = "UNIT_ALREADY_SOLD"
	CodeUnitAlreadyDispatched   Code = "UNIT_ALREADY_DISPATCHED"
	CodeUnitNotSold             Code = "UNIT_NOT_SOLD"
	CodeUnitNotWithDealer       Code = "UNIT_NOT_WITH_DEALER"
	CodeUnitTransferWrongDealer Code = "UNIT_TRANSFER_WRONG_DEALER"

	// Model/catalog errors
	CodeModelNotFound Code = "MODEL_NOT_FOUND"
	CodeModelDisabled Code = "MODEL_DISABLED"

	// Holder reference errors
	CodeHolderRefInvalid Code = "HOLDER_REF_INVALID"

	// Part dispatch errors
	CodePartDispatchNoLines     Code = "PART_DISPATCH_NO_LINES"
	CodePartDispatchInvalidQty  Code = "PART_DISPATCH_INVALID_QTY"
	CodePartDispatchNotFound    Code = "PART_DISPATCH_NOT_FOUND"
	CodePartDispatchWrongCenter Code = "PART_DISPATCH_WRONG_CENTER"
	CodePartDispatchMissingPart Code = "PART_DISPATCH_MISSING_PART"

	// Service visit errors
	CodeVisitNotFound       Code = "VISIT_NOT_FOUND"
	CodeVisitWrongCenter    Code = "VISIT_WRONG_CENTER"
	CodeVisitSerialMismatch Code = "VISIT_SERIAL_MISMATCH"

	// Replacement errors
	CodeReplacementInvalidQty   Code = "REPLACEMENT_INVALID_QTY"
	CodeReplacementInvalidKind  Code = "REPLACEMENT_INVALID_KIND"
	CodeReplacementLimitReached Code = "REPLACEMENT_LIMIT_REACHED"
	CodeInsufficientPartStock   Code = "INSUFFICIENT_PART_STOCK"

	// Actor/identity errors
	CodeActorMissing   Code = "ACTOR_MISSING"
	CodeActorForbidden Code = "ACTOR_FORBIDDEN"

	// Storage errors
	CodeNotFound         Code = "NOT_FOUND"
	CodeConcurrentAppend Code = "CONCURRENT_APPEND"
)

// GRPCCode maps domain codes to gRPC status codes through their kind.
func (c Code) GRPCCode() codes.Code {
	switch c.Kind() {
	case KindValidation:
		return codes.InvalidArgument
	case KindNotFound:
		return codes.NotFound
	case KindConflict, KindInsufficientStock:
		return codes.FailedPrecondition
	case KindAuthorization:
		return codes.PermissionDenied
	default:
		return codes.Internal
	}
}
