package kraken

import (
	"encoding/base64"

	"github.com/pkg/errors"
)

// Credentials holds the API key pair. The private key is base64-decoded
// once at construction so a malformed key is rejected up front instead
// of silently producing wrong signatures later.
type Credentials struct {
	key    string
	secret []byte
}

// NewCredentials validates and decodes the API key pair displayed in
// Kraken's account management.
func NewCredentials(apiKey, apiPrivateKey string) (Credentials, error) {
	secret, err := base64.StdEncoding.DecodeString(apiPrivateKey)
	if err != nil {
		return Credentials{}, errors.Wrap(ErrInvalidCredentials, err.Error())
	}

	return Credentials{key: apiKey, secret: secret}, nil
}
