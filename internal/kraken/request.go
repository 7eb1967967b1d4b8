package kraken

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

const (
	defaultBaseURL = "https://api.kraken.com"
	publicPrefix   = "/0/public/"
	privatePrefix  = "/0/private/"

	headerAPIKey  = "API-Key"
	headerAPISign = "API-Sign"
)

// Param is a single form parameter. Parameters keep their insertion
// order when encoded: the signed body must be byte-identical to the
// body sent on the wire, and the nonce is always appended last.
type Param struct {
	Key   string
	Value string
}

// Params is an ordered list of form parameters.
type Params []Param

// Encode serializes params as application/x-www-form-urlencoded,
// preserving order.
func (p Params) Encode() (string, error) {
	var b strings.Builder
	for i, kv := range p {
		if kv.Key == "" {
			return "", errors.Wrapf(ErrMalformedRequest, "empty parameter key at position %d", i)
		}
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv.Value))
	}

	return b.String(), nil
}

// request is a fully formed API request: method path, POST body and
// authentication headers (private methods only).
type request struct {
	path    string
	body    []byte
	headers map[string]string
}

// buildRequest assembles a request for the given method. Public methods
// carry their params (if any) as the body with no auth headers. Private
// methods get a fresh nonce merged into the params and the API-Key and
// API-Sign headers attached. A private method without params is valid:
// the nonce alone becomes the body.
func (c *Client) buildRequest(public bool, method string, params Params) (*request, error) {
	if public {
		path := publicPrefix + method
		if len(params) == 0 {
			return &request{path: path}, nil
		}
		body, err := params.Encode()
		if err != nil {
			return nil, err
		}

		return &request{path: path, body: []byte(body)}, nil
	}

	path := privatePrefix + method
	nonce := c.nonce()
	body, err := append(params, Param{Key: "nonce", Value: nonce}).Encode()
	if err != nil {
		return nil, err
	}

	return &request{
		path: path,
		body: []byte(body),
		headers: map[string]string{
			headerAPIKey:  c.creds.key,
			headerAPISign: Sign(nonce, []byte(body), c.creds.secret, path),
		},
	}, nil
}
