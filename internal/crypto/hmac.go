// Package crypto provides HMAC request signing for the external CLOB API
// and encrypted storage for the integration secret.
package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"
)

// Header names for authenticated CLOB requests. The receiving service uses
// the timestamp header to enforce a freshness window on the signature.
const (
	HeaderAddress    = "CLOB-ACCESS-ADDRESS"
	HeaderAPIKey     = "CLOB-ACCESS-KEY"
	HeaderPassphrase = "CLOB-ACCESS-PASSPHRASE"
	HeaderTimestamp  = "CLOB-ACCESS-TIMESTAMP"
	HeaderSignature  = "CLOB-ACCESS-SIGNATURE"
)

// RelayAuth holds the per-integration credentials used to authenticate
// requests to the order relay / matching service.
type RelayAuth struct {
	// Address is the platform's operator address registered with the CLOB.
	Address string
	// Key is the API key.
	Key string
	// Secret is the base64-encoded HMAC secret.
	Secret string
	// Passphrase is the API passphrase.
	Passphrase string
}

// Headers signs a request at the current wall-clock second and returns the
// full authentication header set. The timestamp is taken at call time, never
// cached, so the server-side freshness window works as intended.
func (a *RelayAuth) Headers(method, path, body string) map[string]string {
	return a.HeadersAt(method, path, body, time.Now().Unix())
}

// HeadersAt is like Headers with a caller-supplied Unix timestamp. Identical
// inputs always produce identical signatures, which is what makes this
// variant usable in tests.
//
// The canonical message is the bare concatenation timestamp+method+path+body
// with no separators; this must match the verifying server bit-for-bit.
func (a *RelayAuth) HeadersAt(method, path, body string, unixTS int64) map[string]string {
	ts := strconv.FormatInt(unixTS, 10)
	sig := Sign(a.Secret, ts, method, path, body)

	return map[string]string{
		HeaderAddress:    a.Address,
		HeaderAPIKey:     a.Key,
		HeaderPassphrase: a.Passphrase,
		HeaderTimestamp:  ts,
		HeaderSignature:  sig,
	}
}

// Sign computes the HMAC-SHA256 signature of the canonical request message
// under the given base64 secret and returns it base64-encoded. A secret that
// does not decode as base64 is used raw, producing an obviously wrong
// signature instead of a panic.
func Sign(secret, timestamp, method, path, body string) string {
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		key = []byte(secret)
	}

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(timestamp + method + path + body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// String returns a redacted representation suitable for logging.
func (a *RelayAuth) String() string {
	redact := func(s string) string {
		if len(s) <= 4 {
			return "****"
		}
		return s[:4] + "****"
	}
	return fmt.Sprintf("RelayAuth{key=%s, secret=%s}", redact(a.Key), redact(a.Secret))
}
