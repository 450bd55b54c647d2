package discord

import (
	"crypto/ed25519"
	"encoding/hex"
	"testing"
)

func sign(t *testing.T, priv ed25519.PrivateKey, timestamp string, body []byte) string {
	t.Helper()
	msg := append([]byte(timestamp), body...)
	return hex.EncodeToString(ed25519.Sign(priv, msg))
}

func TestVerifySignature(t *testing.T) {
	t.Parallel()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	body := []byte(`{"type":1,"token":"tok"}`)
	ts := "1700000000"
	sig := sign(t, priv, ts, body)

	if !VerifySignature(pub, sig, ts, body) {
		t.Fatal("valid signature rejected")
	}
	// Repeatable: same inputs, same result.
	if !VerifySignature(pub, sig, ts, body) {
		t.Fatal("verify is not deterministic")
	}
}

func TestVerifySignatureRejects(t *testing.T) {
	t.Parallel()
	pub, priv, _ := ed25519.GenerateKey(nil)
	otherPub, _, _ := ed25519.GenerateKey(nil)

	body := []byte(`{"type":1}`)
	ts := "1700000000"
	sig := sign(t, priv, ts, body)

	tampered := append([]byte(nil), body...)
	tampered[len(tampered)-2] ^= 0x01

	tests := []struct {
		name string
		pub  ed25519.PublicKey
		sig  string
		ts   string
		body []byte
	}{
		{name: "tampered body byte", pub: pub, sig: sig, ts: ts, body: tampered},
		{name: "tampered timestamp", pub: pub, sig: sig, ts: "1700000001", body: body},
		{name: "wrong key", pub: otherPub, sig: sig, ts: ts, body: body},
		{name: "empty key", pub: nil, sig: sig, ts: ts, body: body},
		{name: "malformed hex", pub: pub, sig: "zz" + sig[2:], ts: ts, body: body},
		{name: "short signature", pub: pub, sig: sig[:64], ts: ts, body: body},
		{name: "empty signature", pub: pub, sig: "", ts: ts, body: body},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if VerifySignature(tt.pub, tt.sig, tt.ts, tt.body) {
				t.Fatal("expected verification failure")
			}
		})
	}
}

func TestParsePublicKey(t *testing.T) {
	t.Parallel()
	pub, _, _ := ed25519.GenerateKey(nil)

	got, err := ParsePublicKey(hex.EncodeToString(pub))
	if err != nil {
		t.Fatalf("ParsePublicKey: %v", err)
	}
	if !got.Equal(pub) {
		t.Fatal("round-tripped key differs")
	}

	for _, bad := range []string{"", "abcd", "not-hex", hex.EncodeToString(pub)[:62]} {
		if _, err := ParsePublicKey(bad); err == nil {
			t.Fatalf("ParsePublicKey(%q): expected error", bad)
		}
	}
}
