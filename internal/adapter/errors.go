package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	anthropic "github.com/liushuangls/go-anthropic/v2"
	openai "github.com/sashabaranov/go-openai"
)

var (
	// ErrUnsupportedParameter is returned when a provider cannot honour a
	// configured sampling field.
	ErrUnsupportedParameter = errors.New("unsupported parameter")

	// ErrMalformedResponse marks a response that could not be decoded.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrEmptyResponse marks a completed response with no text.
	ErrEmptyResponse = errors.New("empty response")

	// ErrStreamAbandoned is reported when the consumer stops a stream early.
	ErrStreamAbandoned = errors.New("stream stopped before completion")
)

// ConfigValidationError reports a GenerationConfig field outside its range.
type ConfigValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigValidationError) Error() string {
	return fmt.Sprintf("invalid generation config: %s=%v %s", e.Field, e.Value, e.Reason)
}

// StatusError is a non-2xx answer from a REST provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// ErrorKind classifies a generation failure.
type ErrorKind string

const (
	KindInvalidConfig ErrorKind = "invalid_config"
	KindUnsupported   ErrorKind = "unsupported_parameter"
	KindAuth          ErrorKind = "auth"
	KindRateLimit     ErrorKind = "rate_limit"
	KindTimeout       ErrorKind = "timeout"
	KindCanceled      ErrorKind = "canceled"
	KindMalformed     ErrorKind = "malformed"
	KindTransport     ErrorKind = "transport"
)

// GenerationError is a classified provider failure.
type GenerationError struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Kind, e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Classify wraps err in a GenerationError. An err that is already a
// GenerationError is returned unchanged.
func Classify(provider string, err error) *GenerationError {
	if err == nil {
		return nil
	}
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge
	}
	return &GenerationError{Provider: provider, Kind: kindOf(err), Err: err}
}

func kindOf(err error) ErrorKind {
	var cfgErr *ConfigValidationError
	if errors.As(err, &cfgErr) {
		return KindInvalidConfig
	}
	if errors.Is(err, ErrUnsupportedParameter) {
		return KindUnsupported
	}
	if errors.Is(err, ErrStreamAbandoned) || errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	var oaiAPI *openai.APIError
	if errors.As(err, &oaiAPI) {
		return statusKind(oaiAPI.HTTPStatusCode)
	}
	var oaiReq *openai.RequestError
	if errors.As(err, &oaiReq) {
		return statusKind(oaiReq.HTTPStatusCode)
	}

	var antAPI *anthropic.APIError
	if errors.As(err, &antAPI) {
		switch string(antAPI.Type) {
		case "authentication_error", "permission_error":
			return KindAuth
		case "rate_limit_error", "overloaded_error":
			return KindRateLimit
		}
		return KindTransport
	}
	var antReq *anthropic.RequestError
	if errors.As(err, &antReq) {
		return statusKind(antReq.StatusCode)
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusKind(statusErr.StatusCode)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.Is(err, ErrMalformedResponse) || errors.Is(err, ErrEmptyResponse) ||
		errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return KindMalformed
	}
	return KindTransport
}

func statusKind(code int) ErrorKind {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return KindAuth
	case code == http.StatusTooManyRequests:
		return KindRateLimit
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return KindTimeout
	default:
		return KindTransport
	}
}
