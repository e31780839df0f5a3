package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

type ErrorCode string

const (
	CodeInternal       ErrorCode = "INTERNAL_ERROR"
	CodeBadRequest     ErrorCode = "BAD_REQUEST"
	CodeInvalidRange   ErrorCode = "INVALID_RANGE"
	CodeSchema         ErrorCode = "SCHEMA_ERROR"
	CodeRateLimit      ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeServiceUnavail ErrorCode = "SERVICE_UNAVAILABLE"
)

// Codes missing from this table answer 500.
var statusByCode = map[ErrorCode]int{
	CodeBadRequest:     http.StatusBadRequest,
	CodeInvalidRange:   http.StatusBadRequest,
	CodeRateLimit:      http.StatusTooManyRequests,
	CodeServiceUnavail: http.StatusServiceUnavailable,
}

// AppError is the error half of the API envelope.
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	StatusCode int       `json:"-"`
	Cause      error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

func New(code ErrorCode, message string) *AppError {
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: status,
		Timestamp:  time.Now().UTC(),
	}
}

// Wrap attaches cause to a new AppError and exposes its text as Details.
func Wrap(cause error, code ErrorCode, message string) *AppError {
	e := New(code, message)
	if cause != nil {
		e.Cause = cause
		e.Details = cause.Error()
	}
	return e
}

func Internal(message string) *AppError { return New(CodeInternal, message) }

func BadRequest(message string) *AppError { return New(CodeBadRequest, message) }

// InvalidRange reports date range input that could not be used as given.
func InvalidRange(cause error) *AppError {
	return Wrap(cause, CodeInvalidRange, "Invalid date range")
}

// Schema reports a dataset missing required columns.
func Schema(cause error) *AppError {
	return Wrap(cause, CodeSchema, "Dataset does not match the required schema")
}

func RateLimit(message string) *AppError { return New(CodeRateLimit, message) }

func ServiceUnavailable(message string) *AppError {
	return New(CodeServiceUnavail, message)
}

type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   *AppError `json:"error"`
}

type SuccessResponse struct {
	Success  bool     `json:"success"`
	Data     any      `json:"data"`
	Warnings []string `json:"warnings,omitempty"`
}

// WriteError answers with the envelope for err. Errors that are not an
// AppError anywhere in their chain are reported as internal without details.
func WriteError(w http.ResponseWriter, logger *slog.Logger, err error, requestID string) {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		appErr = Internal("An unexpected error occurred")
		appErr.Cause = err
	}
	appErr.RequestID = requestID

	level := slog.LevelWarn
	if appErr.StatusCode >= http.StatusInternalServerError {
		level = slog.LevelError
	}

	if encErr := writeJSON(w, appErr.StatusCode, ErrorResponse{Error: appErr}); encErr != nil {
		logger.Error("failed to encode error response",
			"encode_error", encErr,
			"original_error", err,
			"request_id", requestID,
		)
		return
	}

	logger.LogAttrs(context.Background(), level, "request failed",
		slog.String("error_code", string(appErr.Code)),
		slog.String("error_message", appErr.Message),
		slog.Int("status_code", appErr.StatusCode),
		slog.String("request_id", requestID),
		slog.Any("cause", appErr.Cause),
	)
}

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessWithWarnings(w, data, nil, nil)
}

// WriteSuccessWithWarnings writes data along with any non-fatal warnings and
// the extra headers. Data that cannot be encoded is answered with a 500
// envelope, logged through the default logger.
func WriteSuccessWithWarnings(w http.ResponseWriter, data any, warnings []string, headers map[string]string) {
	body, err := json.Marshal(SuccessResponse{Success: true, Data: data, Warnings: warnings})
	if err != nil {
		WriteError(w, slog.Default(), Wrap(err, CodeInternal, "Response could not be encoded"), "")
		return
	}

	for key, value := range headers {
		w.Header().Set(key, value)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(append(body, '\n'))
}

func writeJSON(w http.ResponseWriter, status int, body any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}
