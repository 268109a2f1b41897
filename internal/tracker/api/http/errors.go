package httpapi

import (
	"encoding/json"
	"net/http"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "github.com/qjcoder/sunlife-lab-system-sub003/internal/platform/errors"
)

// jsonError is the JSON error payload.
type jsonError struct {
	Error    string            `json:"error"`
	Kind     string            `json:"kind"`
	Message  string            `json:"message,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// writeError renders a domain error. The error is first lowered to its
// canonical gRPC status, then the status is translated to HTTP, so every
// transport shares one wire mapping.
func writeError(w http.ResponseWriter, err error) {
	domainErr := apperrors.AsError(err)
	if domainErr == nil {
		writeJSON(w, http.StatusInternalServerError, jsonError{
			Error: string(apperrors.CodeUnknown),
			Kind:  string(apperrors.KindUnknown),
		})
		return
	}
	st := status.Convert(domainErr.ToGRPCStatus())
	body := jsonError{
		Error:   string(domainErr.Code),
		Kind:    string(domainErr.Code.Kind()),
		Message: st.Message(),
	}
	for _, detail := range st.Details() {
		if info, ok := detail.(*errdetails.ErrorInfo); ok {
			body.Error = info.Reason
			body.Metadata = info.Metadata
		}
	}
	writeJSON(w, statusFromGRPC(st.Code()), body)
}

func statusFromGRPC(code codes.Code) int {
	switch code {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.FailedPrecondition:
		return http.StatusConflict
	case codes.PermissionDenied:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
