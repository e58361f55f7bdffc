package genai

import (
	"fmt"
	"net/http"
)

// APIError is a non-2xx answer from the Gemini API. Error renders the
// "<code> <STATUS>. <message>" form the error table is keyed on.
type APIError struct {
	Code    int
	Status  string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s. %s", e.Code, e.Status, e.Message)
}

// HTTPStatus reports the HTTP code and canonical status token.
func (e *APIError) HTTPStatus() (int, string) {
	return e.Code, e.Status
}

// AsAPIError converts the rpc status of a failed operation into an APIError
// with the equivalent HTTP code and status token.
func (e *OperationError) AsAPIError() *APIError {
	code, status := statusForRPC(e.Code)
	return &APIError{Code: code, Status: status, Message: e.Message}
}

func statusForHTTP(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "INVALID_ARGUMENT"
	case http.StatusUnauthorized:
		return "UNAUTHENTICATED"
	case http.StatusForbidden:
		return "PERMISSION_DENIED"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusTooManyRequests:
		return "RESOURCE_EXHAUSTED"
	case 499:
		return "CANCELLED"
	case http.StatusServiceUnavailable:
		return "UNAVAILABLE"
	case http.StatusGatewayTimeout:
		return "DEADLINE_EXCEEDED"
	}
	if code >= http.StatusInternalServerError {
		return "INTERNAL"
	}
	return "UNKNOWN"
}

// statusForRPC maps google.rpc.Code values to their HTTP equivalents.
func statusForRPC(code int) (int, string) {
	switch code {
	case 1:
		return 499, "CANCELLED"
	case 3:
		return http.StatusBadRequest, "INVALID_ARGUMENT"
	case 4:
		return http.StatusGatewayTimeout, "DEADLINE_EXCEEDED"
	case 5:
		return http.StatusNotFound, "NOT_FOUND"
	case 7:
		return http.StatusForbidden, "PERMISSION_DENIED"
	case 8:
		return http.StatusTooManyRequests, "RESOURCE_EXHAUSTED"
	case 9:
		return http.StatusBadRequest, "FAILED_PRECONDITION"
	case 13:
		return http.StatusInternalServerError, "INTERNAL"
	case 14:
		return http.StatusServiceUnavailable, "UNAVAILABLE"
	case 16:
		return http.StatusUnauthorized, "UNAUTHENTICATED"
	}
	return http.StatusInternalServerError, "UNKNOWN"
}
