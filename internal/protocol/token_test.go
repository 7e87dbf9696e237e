package protocol

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestDeriveToken(t *testing.T) {
	t.Run("matches the double hash construction", func(t *testing.T) {
		pin, salt := "12345", "12345677654321"

		inner := sha256.Sum256([]byte(pin))
		outer := sha256.Sum256([]byte(hex.EncodeToString(inner[:]) + salt))
		want := hex.EncodeToString(outer[:])

		if got := DeriveToken(pin, salt); got != want {
			t.Errorf("DeriveToken() = %s, want %s", got, want)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		a := DeriveToken("12345", "111222")
		b := DeriveToken("12345", "111222")
		if a != b {
			t.Errorf("same inputs produced different tokens: %s vs %s", a, b)
		}
	})

	t.Run("salt changes the token", func(t *testing.T) {
		a := DeriveToken("12345", "111222")
		b := DeriveToken("12345", "111223")
		if a == b {
			t.Error("different salts produced the same token")
		}
	})

	t.Run("pin changes the token", func(t *testing.T) {
		a := DeriveToken("12345", "111222")
		b := DeriveToken("54321", "111222")
		if a == b {
			t.Error("different pins produced the same token")
		}
	})

	t.Run("output is 64 hex chars", func(t *testing.T) {
		token := DeriveToken("00000", "9999999")
		if len(token) != 64 {
			t.Fatalf("token length = %d, want 64", len(token))
		}
		if _, err := hex.DecodeString(token); err != nil {
			t.Errorf("token is not valid hex: %v", err)
		}
	})
}
