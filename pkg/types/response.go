package types

// SuccessEnvelope wraps every successful callback response.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public shape of a typed error.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorEnvelope wraps every failed callback response.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
