package kraken

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidCredentials means the configured private key is not valid base64.
	ErrInvalidCredentials = errors.New("incorrect Kraken API private key")
	// ErrMalformedRequest means the request parameters cannot be serialized.
	ErrMalformedRequest = errors.New("malformed API request")
	// ErrResponseFormat means the response body does not match the expected envelope.
	ErrResponseFormat = errors.New("response received from API was wrongly formatted")
	// ErrTransport covers connection failures and unparsable non-2xx responses.
	ErrTransport = errors.New("API transport failure")
)

// ExchangeError is an error message returned by the venue inside the
// response envelope, e.g. "EOrder:Insufficient funds".
type ExchangeError struct {
	Message string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("Kraken API error: %s", e.Message)
}
