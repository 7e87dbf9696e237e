package protocol

import (
	"crypto/sha256"
	"encoding/hex"
)

// DeriveToken computes the authentication token for one transaction.
//
// The unit stores sha256(pin) and recomputes the token from the envelope's
// session and transaction ids, so the salt must be exactly
// "{session_id}{transaction_id}":
//
//	token = hex(sha256(hex(sha256(pin)) + salt))
//
// A response with err_code 4 means the unit's recomputed token did not match
// this one, i.e. the PIN is wrong.
func DeriveToken(pin, salt string) string {
	pinHash := sha256.Sum256([]byte(pin))
	combined := hex.EncodeToString(pinHash[:]) + salt
	token := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(token[:])
}
