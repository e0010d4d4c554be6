package server

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/GriffinCanCode/asciicam/internal/errors"
)

func httpStatus(err error) int {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Code {
	case apperrors.CodeInvalidArgument, apperrors.CodeInvalidImage:
		return http.StatusBadRequest
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeUnavailable, apperrors.CodeSourceUnavailable, apperrors.CodeSourceNotReady,
		apperrors.CodeClipboardUnavailable:
		return http.StatusServiceUnavailable
	case apperrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func errorMessage(err error) ErrorMessage {
	msg := ErrorMessage{Type: TypeError, Message: err.Error()}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		msg.Code = appErr.Code.String()
		msg.Message = appErr.Message
	}
	return msg
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, httpStatus(err), errorMessage(err))
}
