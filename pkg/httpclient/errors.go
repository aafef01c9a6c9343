package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/PixelCodeeee/arroyo-seco-marketplace/pkg/errors"
)

// remoteErrorBody matches the error envelope used by the marketplace API and
// its collaborators: {"error": {"code": "...", "message": "..."}}.
// A bare {"error": "message"} string is also accepted.
type remoteErrorBody struct {
	Error json.RawMessage `json:"error"`
}

type remoteErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ParseResponseError reads the body of a non-2xx response and translates it
// into an AppError carrying the server-provided message when present, or a
// generic failure description otherwise. The body is fully consumed.
func ParseResponseError(resp *http.Response, collaborator string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", collaborator, resp.StatusCode, err)
	}

	if msg := extractMessage(bodyBytes); msg != "" {
		return mapRemoteError(resp.StatusCode, msg, collaborator)
	}

	return fmt.Errorf("%s returned status %d: %s", collaborator, resp.StatusCode, string(bodyBytes))
}

// extractMessage pulls the human-readable message out of either error
// envelope shape, returning "" when the body is not one of them.
func extractMessage(body []byte) string {
	var envelope remoteErrorBody
	if json.Unmarshal(body, &envelope) != nil || envelope.Error == nil {
		return ""
	}

	var detail remoteErrorDetail
	if json.Unmarshal(envelope.Error, &detail) == nil && detail.Message != "" {
		return detail.Message
	}

	var plain string
	if json.Unmarshal(envelope.Error, &plain) == nil {
		return plain
	}
	return ""
}

func mapRemoteError(status int, message, collaborator string) error {
	qualified := fmt.Sprintf("%s: %s", collaborator, message)

	switch {
	case status == http.StatusNotFound:
		return apperrors.NotFound(collaborator, message)
	case status == http.StatusBadRequest:
		return apperrors.InvalidInput(qualified)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(qualified)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(qualified)
	case status == http.StatusConflict:
		return apperrors.Conflict(qualified)
	case status == http.StatusUnprocessableEntity:
		return apperrors.PaymentFailed(qualified)
	case status == http.StatusServiceUnavailable:
		return apperrors.ServiceUnavailable(qualified)
	case status >= 500:
		return fmt.Errorf("%s server error (%d): %s", collaborator, status, message)
	default:
		return &apperrors.AppError{
			Code:    "REMOTE_ERROR",
			Message: qualified,
			Status:  status,
		}
	}
}
