// Package password hashes and verifies local account passwords. Stored values
// have the form hex(salt):hex(scrypt(password, salt)).
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const (
	saltLen = 16
	keyLen  = 64

	scryptN = 1 << 14
	scryptR = 8
	scryptP = 1
)

var ErrMalformedHash = errors.New("malformed password hash")

// Hash derives a storable salt:hash string from plain.
func Hash(plain string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key, err := derive(plain, salt)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(key), nil
}

// Verify reports whether plain matches stored. Malformed stored values never
// match.
func Verify(stored, plain string) bool {
	salt, want, err := split(stored)
	if err != nil {
		return false
	}
	got, err := derive(plain, salt)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(got, want) == 1
}

func derive(plain string, salt []byte) ([]byte, error) {
	key, err := scrypt.Key([]byte(plain), salt, scryptN, scryptR, scryptP, keyLen)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}

func split(stored string) (salt, key []byte, err error) {
	saltHex, keyHex, ok := strings.Cut(stored, ":")
	if !ok || saltHex == "" || keyHex == "" {
		return nil, nil, ErrMalformedHash
	}
	if salt, err = hex.DecodeString(saltHex); err != nil {
		return nil, nil, ErrMalformedHash
	}
	if key, err = hex.DecodeString(keyHex); err != nil || len(key) != keyLen {
		return nil, nil, ErrMalformedHash
	}
	return salt, key, nil
}
