package keyderive

import (
	"bytes"
	"testing"
)

func TestDerive_Deterministic(t *testing.T) {
	salt := []byte("0123456789abcdef0123456789abcdef")

	k1 := Derive("fingerprint-a", salt, 1000)
	k2 := Derive("fingerprint-a", salt, 1000)

	if !bytes.Equal(k1, k2) {
		t.Error("same fingerprint+salt must derive the same key")
	}
	if len(k1) != KeyLength {
		t.Errorf("expected %d-byte key, got %d", KeyLength, len(k1))
	}
}

func TestDerive_FingerprintChangesKey(t *testing.T) {
	salt := []byte("0123456789abcdef0123456789abcdef")

	k1 := Derive("machine-a", salt, 1000)
	k2 := Derive("machine-b", salt, 1000)

	if bytes.Equal(k1, k2) {
		t.Error("different fingerprints must derive different keys")
	}
}

func TestDerive_SaltChangesKey(t *testing.T) {
	k1 := Derive("machine-a", []byte("salt-one-salt-one-salt-one-salt-"), 1000)
	k2 := Derive("machine-a", []byte("salt-two-salt-two-salt-two-salt-"), 1000)

	if bytes.Equal(k1, k2) {
		t.Error("different salts must derive different keys")
	}
}

func TestDerive_DefaultIterations(t *testing.T) {
	salt := []byte("0123456789abcdef0123456789abcdef")

	k1 := Derive("machine-a", salt, 0)
	k2 := Derive("machine-a", salt, DefaultIterations)

	if !bytes.Equal(k1, k2) {
		t.Error("non-positive iteration count must fall back to the default")
	}
}

func TestFingerprint_Stable(t *testing.T) {
	f1 := Fingerprint()
	f2 := Fingerprint()

	if f1 != f2 {
		t.Error("fingerprint must be stable within a host")
	}
	if len(f1) != 64 {
		t.Errorf("expected hex sha256 fingerprint, got length %d", len(f1))
	}
}
