package solana

import (
	"crypto/ed25519"
	"encoding/base64"
	"testing"

	"github.com/mr-tron/base58"
)

// buildUnsignedTx assembles a minimal wire transaction: one empty
// signature slot followed by the message bytes.
func buildUnsignedTx(message []byte) string {
	tx := make([]byte, 1+SignatureLength+len(message))
	tx[0] = 1
	copy(tx[1+SignatureLength:], message)
	return base64.StdEncoding.EncodeToString(tx)
}

func TestSignTransaction(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("keygen failed: %v", err)
	}

	message := []byte("swap message bytes")
	signedB64, sigB58, err := SignTransaction(buildUnsignedTx(message), base58.Encode(priv))
	if err != nil {
		t.Fatalf("SignTransaction failed: %v", err)
	}

	signed, err := base64.StdEncoding.DecodeString(signedB64)
	if err != nil {
		t.Fatalf("signed tx is not base64: %v", err)
	}

	sig := signed[1 : 1+SignatureLength]
	if !ed25519.Verify(pub, message, sig) {
		t.Error("slot-zero signature must verify against the message")
	}
	if sigB58 != base58.Encode(sig) {
		t.Error("returned signature must match the embedded one")
	}
	if string(signed[1+SignatureLength:]) != string(message) {
		t.Error("message bytes must be untouched")
	}
}

func TestSignTransaction_Rejects(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("keygen failed: %v", err)
	}
	key := base58.Encode(priv)

	cases := []struct {
		name string
		tx   string
		key  string
	}{
		{"bad base64", "not-base64!!!", key},
		{"zero signatures", base64.StdEncoding.EncodeToString([]byte{0}), key},
		{"truncated slots", base64.StdEncoding.EncodeToString([]byte{2, 0, 0}), key},
		{"bad key", buildUnsignedTx([]byte("m")), "tooshort"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := SignTransaction(tc.tx, tc.key); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDecodeCompactU16(t *testing.T) {
	cases := []struct {
		data  []byte
		value int
		read  int
	}{
		{[]byte{0x01}, 1, 1},
		{[]byte{0x7f}, 127, 1},
		{[]byte{0x80, 0x01}, 128, 2},
		{[]byte{0xff, 0x01}, 255, 2},
		{[]byte{0x80, 0x80, 0x01}, 16384, 3},
	}
	for _, tc := range cases {
		value, read, err := decodeCompactU16(tc.data)
		if err != nil {
			t.Errorf("decodeCompactU16(%v) failed: %v", tc.data, err)
			continue
		}
		if value != tc.value || read != tc.read {
			t.Errorf("decodeCompactU16(%v) = (%d, %d), want (%d, %d)",
				tc.data, value, read, tc.value, tc.read)
		}
	}

	if _, _, err := decodeCompactU16(nil); err == nil {
		t.Error("expected error on empty input")
	}
	if _, _, err := decodeCompactU16([]byte{0x80, 0x80, 0x80}); err == nil {
		t.Error("expected error on overlong prefix")
	}
}
