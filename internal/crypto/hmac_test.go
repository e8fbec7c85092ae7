package crypto

import (
	"encoding/base64"
	"testing"
)

func testAuth() *RelayAuth {
	return &RelayAuth{
		Address:    "0x1111111111111111111111111111111111111111",
		Key:        "test-key",
		Secret:     base64.StdEncoding.EncodeToString([]byte("test-secret")),
		Passphrase: "test-pass",
	}
}

func TestHeadersAtDeterministic(t *testing.T) {
	a := testAuth()
	const ts = int64(1_700_000_000)

	h1 := a.HeadersAt("POST", "/operations/split-position", `{"a":1}`, ts)
	h2 := a.HeadersAt("POST", "/operations/split-position", `{"a":1}`, ts)

	if h1[HeaderSignature] == "" {
		t.Fatal("empty signature")
	}
	if h1[HeaderSignature] != h2[HeaderSignature] {
		t.Fatalf("same inputs produced different signatures: %s vs %s",
			h1[HeaderSignature], h2[HeaderSignature])
	}
	if h1[HeaderTimestamp] != "1700000000" {
		t.Fatalf("timestamp header = %q", h1[HeaderTimestamp])
	}
	if h1[HeaderAPIKey] != "test-key" || h1[HeaderPassphrase] != "test-pass" {
		t.Fatalf("identity headers wrong: %v", h1)
	}
}

func TestSignatureChangesWithAnyInput(t *testing.T) {
	a := testAuth()
	const ts = int64(1_700_000_000)
	base := a.HeadersAt("POST", "/order", `{"a":1}`, ts)[HeaderSignature]

	variants := []map[string]string{
		{"method": "GET", "path": "/order", "body": `{"a":1}`},
		{"method": "POST", "path": "/orders", "body": `{"a":1}`},
		{"method": "POST", "path": "/order", "body": `{"a":2}`},
	}
	for _, v := range variants {
		sig := a.HeadersAt(v["method"], v["path"], v["body"], ts)[HeaderSignature]
		if sig == base {
			t.Fatalf("signature unchanged for variant %v", v)
		}
	}

	if sig := a.HeadersAt("POST", "/order", `{"a":1}`, ts+1)[HeaderSignature]; sig == base {
		t.Fatal("signature unchanged for different timestamp")
	}
}

func TestSignNonBase64SecretFallsBackToRaw(t *testing.T) {
	// A secret that is not valid base64 must still sign (with the raw
	// bytes), never panic.
	sig := Sign("!!not-base64!!", "1700000000", "POST", "/order", "{}")
	if sig == "" {
		t.Fatal("empty signature for raw-secret fallback")
	}
}

func TestSecretRoundTrip(t *testing.T) {
	blob, err := EncryptSecret("super-secret-value", "hunter2")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	got, err := DecryptSecret(blob, "hunter2")
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if got != "super-secret-value" {
		t.Fatalf("round trip = %q", got)
	}

	if _, err := DecryptSecret(blob, "wrong"); err == nil {
		t.Fatal("decrypt with wrong password should fail")
	}
}
