package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/DanielPopoola/creski-storefront/internal/application"
)

const maxBodyBytes = 1 << 20

// Failure is the body of every unsuccessful response.
type Failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError converts err to a ServiceError and writes its status and
// user-facing message. The cause is only logged.
func WriteError(w http.ResponseWriter, err error, logger *slog.Logger) {
	svcErr := application.ToServiceError(err)
	logError(logger, svcErr)

	WriteJSON(w, svcErr.HTTPStatus, NewFailure(svcErr))
}

func NewFailure(svcErr *application.ServiceError) Failure {
	return Failure{Success: false, Error: svcErr.Message, Code: svcErr.Code}
}

func logError(logger *slog.Logger, svcErr *application.ServiceError) {
	attrs := []any{
		"code", svcErr.Code,
		"status", svcErr.HTTPStatus,
		"error", svcErr.Err,
	}
	switch {
	case svcErr.HTTPStatus >= http.StatusInternalServerError:
		logger.Error("request failed", attrs...)
	case svcErr.Handled():
		logger.Info("request handled with failure", attrs...)
	default:
		logger.Warn("request rejected", attrs...)
	}
}

// DecodeJSON reads a single JSON object of at most 1 MiB into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return application.NewMalformedRequestError("", fmt.Errorf("malformed request body: %w", err))
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return application.NewMalformedRequestError("", errors.New("request body must contain a single JSON object"))
	}
	return nil
}
