package passhash

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt only looks at the first 72 bytes of its input. Passwords are
// pre-hashed with SHA-256 and base64-encoded so every plaintext, whatever
// its length or byte content, reaches bcrypt as a fixed 44-byte string.
func prepare(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	prepared := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(prepared, sum[:])
	return prepared
}

// Hash returns a salted bcrypt digest of the password. Each call uses a
// fresh salt, so hashing the same password twice yields different digests.
func Hash(password string, cost int) (string, error) {
	digest, err := bcrypt.GenerateFromPassword(prepare(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password failed: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether the password matches the stored digest. A mismatch
// is a false return, never an error.
func Verify(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), prepare(password)) == nil
}
