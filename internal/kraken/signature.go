// Package kraken implements a signed client for the Kraken REST API:
// request construction, the HMAC authentication scheme and typed
// wrappers around the endpoints the bot needs.
package kraken

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
)

// Sign computes the API-Sign header value for a private method call:
//
//	base64(HMAC-SHA512(secret, path || SHA256(nonce || body)))
//
// where path is the URI path of the method (e.g. "/0/private/Balance")
// and body is the url-encoded POST body exactly as sent on the wire.
// Deterministic, no I/O.
func Sign(nonce string, body []byte, secret []byte, path string) string {
	digest := sha256.New()
	digest.Write([]byte(nonce))
	digest.Write(body)

	mac := hmac.New(sha512.New, secret)
	mac.Write([]byte(path))
	mac.Write(digest.Sum(nil))

	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
