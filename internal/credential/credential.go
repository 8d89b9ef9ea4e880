// Package credential hashes and verifies user passwords and issues
// temporary passwords. It holds no state.
package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize   = 16
	KeySize    = 32
	Iterations = 10000

	DefaultTemporaryPasswordLength = 10
)

// Alphabet used for temporary passwords; 0, O, 1, l and I are left out.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"

var ErrInvalidLength = errors.New("credential: length must be positive")

// Hash derives a PBKDF2-HMAC-SHA256 key with a fresh salt and returns
// base64(salt || key).
func Hash(password string) (string, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := derive(password, salt)
	record := make([]byte, 0, SaltSize+KeySize)
	record = append(record, salt...)
	record = append(record, key...)
	return base64.StdEncoding.EncodeToString(record), nil
}

// Verify reports whether password matches the stored record. Malformed
// records never match.
func Verify(stored, password string) bool {
	record, err := base64.StdEncoding.DecodeString(stored)
	if err != nil || len(record) != SaltSize+KeySize {
		return false
	}

	salt, want := record[:SaltSize], record[SaltSize:]
	return subtle.ConstantTimeCompare(derive(password, salt), want) == 1
}

func GenerateTemporaryPassword(length int) (string, error) {
	if length <= 0 {
		return "", ErrInvalidLength
	}

	max := big.NewInt(int64(len(Alphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("draw random index: %w", err)
		}
		out[i] = Alphabet[n.Int64()]
	}
	return string(out), nil
}

func derive(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, Iterations, KeySize, sha256.New)
}
