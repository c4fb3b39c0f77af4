package errors

import (
	"encoding/json"
	"log/slog"
	"maps"
	"net/http"
)

// HTTPErrorAdapter renders classified errors as JSON responses and logs
// them at a level matching their severity.
type HTTPErrorAdapter struct {
	logger *slog.Logger
}

// NewHTTPErrorAdapter creates an adapter. A nil logger uses slog.Default.
func NewHTTPErrorAdapter(logger *slog.Logger) *HTTPErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPErrorAdapter{logger: logger}
}

// HTTPErrorResponse is the JSON error payload.
type HTTPErrorResponse struct {
	Error     string         `json:"error"`
	Code      string         `json:"code,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Retryable bool           `json:"retryable,omitempty"`
}

var httpStatusByCategory = map[ErrorCategory]int{
	CategoryValidation:    http.StatusBadRequest,
	CategoryConfig:        http.StatusBadRequest,
	CategoryAuth:          http.StatusUnauthorized,
	CategoryNotFound:      http.StatusNotFound,
	CategoryAlreadyExists: http.StatusConflict,
	CategoryRateLimit:     http.StatusTooManyRequests,
	CategoryNetwork:       http.StatusBadGateway,
	CategoryGit:           http.StatusBadGateway,
	CategoryGitHub:        http.StatusBadGateway,
	CategoryLLM:           http.StatusBadGateway,
	CategoryOutline:       http.StatusUnprocessableEntity,
	CategoryGeneration:    http.StatusUnprocessableEntity,
	CategoryFileSystem:    http.StatusInternalServerError,
	CategoryStore:         http.StatusInternalServerError,
	CategoryRuntime:       http.StatusServiceUnavailable,
	CategoryInternal:      http.StatusInternalServerError,
}

// StatusCodeFor maps an error's category to an HTTP status. Unclassified
// errors and unknown categories map to 500.
func (a *HTTPErrorAdapter) StatusCodeFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	c, ok := AsClassified(err)
	if !ok {
		return http.StatusInternalServerError
	}
	if status, ok := httpStatusByCategory[c.Category()]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// FormatErrorResponse builds the payload for err. Classified errors expose
// their message, category code, and context; unclassified errors expose
// their Error string only.
func (a *HTTPErrorAdapter) FormatErrorResponse(err error) HTTPErrorResponse {
	if err == nil {
		return HTTPErrorResponse{}
	}
	c, ok := AsClassified(err)
	if !ok {
		return HTTPErrorResponse{Error: err.Error()}
	}
	resp := HTTPErrorResponse{
		Error:     c.Message(),
		Code:      string(c.Category()),
		Retryable: c.RetryStrategy() != RetryNever,
	}
	// Details copies the context so the payload never aliases the error.
	if len(c.Context()) > 0 || resp.Retryable {
		details := make(map[string]any, len(c.Context())+1)
		maps.Copy(details, c.Context())
		if resp.Retryable {
			details["retryable"] = true
		}
		resp.Details = details
	}
	return resp
}

// WriteErrorResponse writes the JSON payload with the mapped status and
// logs the error at its severity's level.
func (a *HTTPErrorAdapter) WriteErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	status := a.StatusCodeFor(err)
	body, jerr := json.Marshal(a.FormatErrorResponse(err))
	if jerr != nil {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":"internal error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)

	if c, ok := AsClassified(err); ok {
		a.logger.Log(r.Context(), severityLevel(c.Severity()), c.Error())
		return
	}
	a.logger.Error(err.Error())
}

// severityLevel maps an error severity onto the slog level both adapters
// log at. Fatal has no slog counterpart and logs as error.
func severityLevel(s ErrorSeverity) slog.Level {
	switch s {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
