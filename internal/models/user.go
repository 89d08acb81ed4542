package models

import (
	"crypto/rand"
	"math/big"

	"github.com/pkg/errors"
)

const (
	keyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	keyLength   = 16
)

type User struct {
	Username string `json:"username" validate:"required,lte=30"`
	Key      string `json:"key,omitempty" validate:"omitempty"`
}

// SanitizeKey strips the shared secret before a user leaves the server.
func (u *User) SanitizeKey() {
	u.Key = ""
}

// GenerateKey replaces the user's key with a fresh random one. Uniqueness
// across users is not checked; a collision is astronomically unlikely.
func (u *User) GenerateKey() error {
	key := make([]byte, keyLength)
	max := big.NewInt(int64(len(keyAlphabet)))
	for i := range key {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return errors.Wrap(err, "user.GenerateKey")
		}
		key[i] = keyAlphabet[n.Int64()]
	}
	u.Key = string(key)
	return nil
}
