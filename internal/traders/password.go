// internal/traders/password.go
package traders

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"unicode"

	"golang.org/x/crypto/argon2"

	"tradenexus/internal/apperr"
)

// hashPassword derives an Argon2id digest of the password under a fresh
// random salt. Digest and salt come back base64 encoded, ready to store
// on the trader snapshot.
func hashPassword(password string) (digest, salt string, err error) {
	rawSalt := make([]byte, 16)
	if _, err := rand.Read(rawSalt); err != nil {
		return "", "", fmt.Errorf("generate salt: %w", err)
	}

	rawDigest := argon2.IDKey([]byte(password), rawSalt, 1, 64*1024, 4, 32)

	return base64.StdEncoding.EncodeToString(rawDigest),
		base64.StdEncoding.EncodeToString(rawSalt), nil
}

// verifyPassword recomputes the digest under the stored salt and compares
// it with the stored digest.
func verifyPassword(password, salt, digest string) (bool, error) {
	rawSalt, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return false, fmt.Errorf("decode salt: %w", err)
	}
	rawDigest, err := base64.StdEncoding.DecodeString(digest)
	if err != nil {
		return false, fmt.Errorf("decode digest: %w", err)
	}

	comparison := argon2.IDKey([]byte(password), rawSalt, 1, 64*1024, 4, 32)

	return string(rawDigest) == string(comparison), nil
}

// checkPasswordPolicy enforces the account password rules: at least 11
// characters, no whitespace, at least one upper-case letter and one digit.
func checkPasswordPolicy(password string) error {
	if len(password) < 11 {
		return apperr.BadPassword("password must be at least 11 characters")
	}
	var upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsSpace(r):
			return apperr.BadPassword("password must not contain whitespace")
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper {
		return apperr.BadPassword("password must contain an upper-case letter")
	}
	if !digit {
		return apperr.BadPassword("password must contain a digit")
	}
	return nil
}
