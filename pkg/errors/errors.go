package errors

import (
	stdErrors "errors"
	"net/http"
)

// Code classifies a failure so callers can branch without string matching.
type Code string

const (
	// CodeValidation covers bad input, whether caught locally or by the server.
	CodeValidation Code = "VALIDATION_ERROR"
	// CodeAuth means the shopper session is missing, expired or rejected.
	CodeAuth      Code = "AUTH_ERROR"
	CodeForbidden Code = "FORBIDDEN"
	CodeNotFound  Code = "NOT_FOUND"
	// CodeBusinessRule is a server-side refusal such as an out-of-stock item.
	CodeBusinessRule  Code = "BUSINESS_RULE"
	CodeStateConflict Code = "STATE_CONFLICT"
	// CodeNetwork marks transport failures; the request may not have reached the server.
	CodeNetwork      Code = "NETWORK_ERROR"
	CodeGateway      Code = "GATEWAY_ERROR"
	CodeVerification Code = "VERIFICATION_FAILED"
	CodeInternal     Code = "INTERNAL_ERROR"
)

// Metadata describes how a code surfaces over HTTP and to retry logic.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

var catalog = map[Code]Metadata{
	CodeValidation:    {HTTPStatus: http.StatusBadRequest, PublicMessage: "validation failed", DetailsAllowed: true},
	CodeAuth:          {HTTPStatus: http.StatusUnauthorized, PublicMessage: "authentication required"},
	CodeForbidden:     {HTTPStatus: http.StatusForbidden, PublicMessage: "access denied"},
	CodeNotFound:      {HTTPStatus: http.StatusNotFound, PublicMessage: "resource not found"},
	CodeBusinessRule:  {HTTPStatus: http.StatusUnprocessableEntity, PublicMessage: "request rejected", DetailsAllowed: true},
	CodeStateConflict: {HTTPStatus: http.StatusConflict, PublicMessage: "state transition disallowed", DetailsAllowed: true},
	CodeNetwork:       {HTTPStatus: http.StatusServiceUnavailable, Retryable: true, PublicMessage: "commerce service unreachable"},
	CodeGateway:       {HTTPStatus: http.StatusPaymentRequired, PublicMessage: "payment was not completed", DetailsAllowed: true},
	CodeVerification:  {HTTPStatus: http.StatusPaymentRequired, PublicMessage: "payment could not be verified"},
	CodeInternal:      {HTTPStatus: http.StatusInternalServerError, PublicMessage: "internal error"},
}

// MetadataFor returns the metadata for code; unknown codes are treated as internal.
func MetadataFor(code Code) Metadata {
	meta, ok := catalog[code]
	if !ok {
		return catalog[CodeInternal]
	}
	return meta
}

// Error is a coded failure with an optional cause and structured details.
// Methods are nil-safe.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap attaches code and message to err. A nil err yields a plain New.
func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails sets details in place and returns e for chaining.
func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Retryable() bool {
	return MetadataFor(e.Code()).Retryable
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return string(e.code) + ": " + e.message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain, or nil.
func As(err error) *Error {
	var typed *Error
	if err == nil || !stdErrors.As(err, &typed) {
		return nil
	}
	return typed
}

// CodeOf returns the typed code carried by err, or CodeInternal for untyped errors.
func CodeOf(err error) Code {
	return As(err).Code()
}

// IsCode reports whether the outermost typed error in err's chain carries code.
func IsCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
