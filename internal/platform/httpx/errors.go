package httpx

import (
	"errors"
	"net/http"

	"github.com/clouderp/simplebooks/internal/shared"
)

// RespondError maps domain errors to HTTP problem responses. Internal
// invariant violations (unbalanced entries, unconfigured accounts) are
// reported as server errors; everything else follows the caller-fault
// taxonomy.
func RespondError(w http.ResponseWriter, err error) {
	var ve *shared.ValidationError
	if errors.As(err, &ve) {
		JSON(w, http.StatusBadRequest, ProblemDetail{
			Title:  "Validation Failed",
			Status: http.StatusBadRequest,
			Detail: ve.Message,
			Field:  ve.Field,
		})
		return
	}

	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, shared.ErrAlreadyVoid):
		Problem(w, http.StatusConflict, "Already Void", err.Error())
	case errors.Is(err, shared.ErrInvalidState):
		Problem(w, http.StatusConflict, "Invalid State", err.Error())
	case errors.Is(err, shared.ErrPaymentExceedsBalance):
		Problem(w, http.StatusUnprocessableEntity, "Payment Exceeds Balance", err.Error())
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case shared.IsAccountNotConfigured(err):
		Problem(w, http.StatusInternalServerError, "Account Not Configured", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
