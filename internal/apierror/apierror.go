// Package apierror defines the error envelopes every 4xx/5xx response uses.
// Handlers translate service errors into these shapes; raw store errors and
// stack traces never reach a client.
package apierror

// APIError carries one human-readable message, in Spanish like the rest of
// the API surface.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError maps each rejected request field to its reason.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validación", Fields: fields}
}
