package errors

// Kind groups codes into the business failure classes callers branch on.
//
// Every kind is terminal: the core never retries, and the calling layer must
// surface each kind distinctly.
type Kind string

const (
	// KindUnknown covers unclassified failures.
	KindUnknown Kind = "UNKNOWN"
	// KindValidation marks malformed input or unresolved references.
	KindValidation Kind = "VALIDATION"
	// KindNotFound marks unresolvable units, visits, or dispatches.
	KindNotFound Kind = "NOT_FOUND"
	// KindConflict marks lifecycle guard violations.
	KindConflict Kind = "CONFLICT"
	// KindInsufficientStock marks operations that would drive derived stock negative.
	KindInsufficientStock Kind = "INSUFFICIENT_STOCK"
	// KindAuthorization marks actors lacking data-level rights over the target.
	KindAuthorization Kind = "AUTHORIZATION"
)

// Kind classifies a code into its failure class.
func (c Code) Kind() Kind {
	switch c {
	case CodeRequestInvalid,
		CodeUnitSerialEmpty,
		CodeUnitModelEmpty,
		CodeHolderRefInvalid,
		CodeModelDisabled,
		CodePartDispatchNoLines,
		CodePartDispatchInvalidQty,
		CodePartDispatchWrongCenter,
		CodePartDispatchMissingPart,
		CodeVisitSerialMismatch,
		CodeReplacementInvalidQty,
		CodeReplacementInvalidKind:
		return KindValidation

	case CodeUnitNotFound,
		CodeModelNotFound,
		CodePartDispatchNotFound,
		CodeVisitNotFound,
		CodeNotFound:
		return KindNotFound

	case CodeUnitAlreadyRegistered,
		CodeUnitAlreadySold,
		CodeUnitAlreadyDispatched,
		CodeUnitNotSold,
		CodeUnitNotWithDealer,
		CodeUnitTransferWrongDealer,
		CodeReplacementLimitReached,
		CodeConcurrentAppend:
		return KindConflict

	case CodeInsufficientPartStock:
		return KindInsufficientStock

	case CodeActorMissing, CodeActorForbidden, CodeVisitWrongCenter:
		return KindAuthorization

	default:
		return KindUnknown
	}
}

// KindOf returns the kind of err when it is a domain *Error, KindUnknown otherwise.
func KindOf(err error) Kind {
	if domainErr := AsError(err); domainErr != nil {
		return domainErr.Code.Kind()
	}
	return KindUnknown
}
