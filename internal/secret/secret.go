// Package secret holds encrypted field values.
//
// A Secret carries only ciphertext. Getting the plaintext back always goes
// through Reveal with an explicit codec, so decryption never happens by
// accident (for example while listing rows).
package secret

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
)

// ErrEmpty is returned by Reveal when the Secret holds no value.
var ErrEmpty = errors.New("secret is empty")

// Codec is the encrypt/decrypt contract; *cryptox.Codec satisfies it.
type Codec interface {
	Encrypt(ctx context.Context, plaintext string) (string, error)
	Decrypt(ctx context.Context, token string) (string, error)
}

// Secret is an encrypted scalar as stored in the database. The zero value is
// an absent value and is stored as NULL.
type Secret struct {
	token string
}

// FromPlaintext encrypts value. An empty value yields the zero Secret; a
// null is never encrypted.
func FromPlaintext(ctx context.Context, c Codec, value string) (Secret, error) {
	if value == "" {
		return Secret{}, nil
	}
	token, err := c.Encrypt(ctx, value)
	if err != nil {
		return Secret{}, err
	}
	return Secret{token: token}, nil
}

// FromToken wraps ciphertext that is already encrypted.
func FromToken(token string) Secret {
	return Secret{token: token}
}

// Reveal decrypts the value. Codec errors are returned unchanged so callers
// can tell a missing key from a token that does not verify.
func (s Secret) Reveal(ctx context.Context, c Codec) (string, error) {
	if s.token == "" {
		return "", ErrEmpty
	}
	return c.Decrypt(ctx, s.token)
}

func (s Secret) IsZero() bool { return s.token == "" }

// Token returns the stored ciphertext.
func (s Secret) Token() string { return s.token }

// String never prints ciphertext or plaintext.
func (s Secret) String() string {
	if s.token == "" {
		return "<empty>"
	}
	return "<encrypted>"
}

func (s *Secret) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		s.token = ""
	case string:
		s.token = v
	case []byte:
		s.token = string(v)
	default:
		return fmt.Errorf("secret: cannot scan %T", src)
	}
	return nil
}

func (s Secret) Value() (driver.Value, error) {
	if s.token == "" {
		return nil, nil
	}
	return s.token, nil
}
