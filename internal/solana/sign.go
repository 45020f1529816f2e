package solana

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"

	"github.com/mr-tron/base58"
)

// SignatureLength is the raw byte length of an ed25519 signature.
const SignatureLength = 64

// SignTransaction signs a base64 serialized transaction with the given
// base58 private key and returns the signed transaction, base64 encoded,
// along with the base58 signature.
//
// The wire format is a compact-u16 signature count, that many 64-byte
// signature slots, then the message. The fee payer's signature goes in
// slot zero; the transactions produced by the swap aggregator have the
// wallet as fee payer.
func SignTransaction(unsignedTxBase64, privateKeyBase58 string) (signedTxBase64, signature string, err error) {
	txBytes, err := base64.StdEncoding.DecodeString(unsignedTxBase64)
	if err != nil {
		return "", "", fmt.Errorf("decode transaction: %w", err)
	}

	privRaw, err := base58.Decode(privateKeyBase58)
	if err != nil {
		return "", "", fmt.Errorf("decode private key: %w", err)
	}
	if len(privRaw) != ed25519.PrivateKeySize {
		return "", "", fmt.Errorf("private key is %d bytes, want %d", len(privRaw), ed25519.PrivateKeySize)
	}
	priv := ed25519.PrivateKey(privRaw)

	sigCount, sigOffset, err := decodeCompactU16(txBytes)
	if err != nil {
		return "", "", fmt.Errorf("parse signature count: %w", err)
	}
	if sigCount == 0 {
		return "", "", fmt.Errorf("transaction declares zero signatures")
	}

	messageOffset := sigOffset + sigCount*SignatureLength
	if messageOffset > len(txBytes) {
		return "", "", fmt.Errorf("transaction truncated: %d signature slots do not fit in %d bytes", sigCount, len(txBytes))
	}

	sig := ed25519.Sign(priv, txBytes[messageOffset:])

	signed := make([]byte, len(txBytes))
	copy(signed, txBytes)
	copy(signed[sigOffset:], sig)

	return base64.StdEncoding.EncodeToString(signed), base58.Encode(sig), nil
}

// decodeCompactU16 reads Solana's compact-u16 length prefix: little-endian
// 7-bit groups, high bit as continuation, at most 3 bytes.
func decodeCompactU16(data []byte) (value, bytesRead int, err error) {
	for i := 0; i < 3; i++ {
		if i >= len(data) {
			return 0, 0, fmt.Errorf("truncated compact-u16")
		}
		b := int(data[i])
		value |= (b & 0x7f) << (7 * i)
		if b&0x80 == 0 {
			return value, i + 1, nil
		}
	}
	return 0, 0, fmt.Errorf("compact-u16 longer than 3 bytes")
}
