package discord

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
)

// Headers carrying the request signature.
const (
	SignatureHeader = "X-Signature-Ed25519"
	TimestampHeader = "X-Signature-Timestamp"
)

// VerifySignature reports whether signature (hex) is a valid Ed25519
// signature over timestamp||body for the given public key.
//
// The signed message is the timestamp header value concatenated with the
// raw, unparsed body bytes. Callers must pass the body exactly as read off
// the wire; re-serializing parsed JSON changes the bytes and breaks
// verification.
//
// It fails closed: an empty/short key, malformed hex, or a wrong-length
// signature all return false. It never panics and holds no state.
func VerifySignature(pub ed25519.PublicKey, signature, timestamp string, body []byte) bool {
	if len(pub) != ed25519.PublicKeySize {
		return false
	}
	sig, err := hex.DecodeString(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	msg := make([]byte, 0, len(timestamp)+len(body))
	msg = append(msg, timestamp...)
	msg = append(msg, body...)
	return ed25519.Verify(pub, msg, sig)
}

// ParsePublicKey decodes a hex-encoded Ed25519 public key.
// An unconfigured key is a configuration error, not a reason to skip
// verification.
func ParsePublicKey(hexKey string) (ed25519.PublicKey, error) {
	if hexKey == "" {
		return nil, errors.New("public key is empty")
	}
	b, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("public key is not valid hex: %w", err)
	}
	if len(b) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(b))
	}
	return ed25519.PublicKey(b), nil
}
