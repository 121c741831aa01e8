// Package cryptox implements the field cipher codec: AES-256-GCM sealed
// tokens that are safe to store as plain text in any column type.
//
// A token is the URL-safe base64 encoding of
//
//	version(1) | unix seconds(8) | nonce(12) | ciphertext+tag
//
// The version byte and timestamp are bound to the ciphertext as additional
// authenticated data, so flipping any byte of a token makes Open fail with
// ErrAuthenticationFailure.
package cryptox

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/argon2"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32

	tokenVersion byte = 0x01
	headerSize        = 1 + 8
	nonceSize         = 12
	tagSize           = 16
)

var (
	// ErrMissingKey means no key material is configured at all.
	ErrMissingKey = errors.New("encryption key is not configured")
	// ErrInvalidKey means key material exists but has the wrong length.
	ErrInvalidKey = errors.New("encryption key must be 32 bytes")
	// ErrAuthenticationFailure means the token does not verify under the key:
	// wrong key, corruption or tampering.
	ErrAuthenticationFailure = errors.New("ciphertext authentication failed")
)

var encoding = base64.URLEncoding.Strict()

// KeyProvider resolves the active key. It is called on every Encrypt and
// Decrypt, so a provider that re-reads its source observes key changes
// without a restart.
type KeyProvider interface {
	Key(ctx context.Context) ([]byte, error)
}

// StaticKey is a KeyProvider that always returns the same key.
type StaticKey []byte

func (k StaticKey) Key(context.Context) ([]byte, error) {
	if len(k) == 0 {
		return nil, ErrMissingKey
	}
	return k, nil
}

// Codec encrypts and decrypts field values with the key resolved from its
// provider. It keeps no other state.
type Codec struct {
	keys KeyProvider
	now  func() time.Time
}

func NewCodec(keys KeyProvider) *Codec {
	return &Codec{keys: keys, now: time.Now}
}

// Encrypt seals plaintext under the active key. An empty plaintext is
// returned unchanged.
func (c *Codec) Encrypt(ctx context.Context, plaintext string) (string, error) {
	if plaintext == "" {
		return plaintext, nil
	}
	key, err := c.resolve(ctx)
	if err != nil {
		return "", err
	}
	return Seal(key, plaintext, c.now())
}

// Decrypt opens a token produced by Encrypt. Callers must not pass an empty
// value; it is rejected as ErrAuthenticationFailure.
func (c *Codec) Decrypt(ctx context.Context, token string) (string, error) {
	key, err := c.resolve(ctx)
	if err != nil {
		return "", err
	}
	return Open(key, token)
}

func (c *Codec) resolve(ctx context.Context) ([]byte, error) {
	if c == nil || c.keys == nil {
		return nil, ErrMissingKey
	}
	key, err := c.keys.Key(ctx)
	if err != nil {
		return nil, err
	}
	if len(key) == 0 {
		return nil, ErrMissingKey
	}
	return key, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Seal encrypts plaintext under key and returns a token stamped with now.
// Every call draws a fresh random nonce, so equal plaintexts never produce
// equal tokens.
func Seal(key []byte, plaintext string, now time.Time) (string, error) {
	aesgcm, err := newAEAD(key)
	if err != nil {
		return "", err
	}

	buf := make([]byte, headerSize+nonceSize, headerSize+nonceSize+len(plaintext)+tagSize)
	buf[0] = tokenVersion
	binary.BigEndian.PutUint64(buf[1:headerSize], uint64(now.Unix()))

	nonce := buf[headerSize : headerSize+nonceSize]
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}

	// header is authenticated but not encrypted
	buf = aesgcm.Seal(buf, nonce, []byte(plaintext), buf[:headerSize])

	return encoding.EncodeToString(buf), nil
}

// Open verifies and decrypts token under key.
func Open(key []byte, token string) (string, error) {
	aesgcm, err := newAEAD(key)
	if err != nil {
		return "", err
	}

	raw, err := decodeToken(token)
	if err != nil {
		return "", err
	}

	nonce := raw[headerSize : headerSize+nonceSize]
	plaintext, err := aesgcm.Open(nil, nonce, raw[headerSize+nonceSize:], raw[:headerSize])
	if err != nil {
		return "", ErrAuthenticationFailure
	}

	return string(plaintext), nil
}

// TokenTime returns the creation time embedded in token. The timestamp is
// only trustworthy after Open has verified the same token.
func TokenTime(token string) (time.Time, error) {
	raw, err := decodeToken(token)
	if err != nil {
		return time.Time{}, err
	}
	sec := binary.BigEndian.Uint64(raw[1:headerSize])
	return time.Unix(int64(sec), 0).UTC(), nil
}

func decodeToken(token string) ([]byte, error) {
	raw, err := encoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed token", ErrAuthenticationFailure)
	}
	if len(raw) < headerSize+nonceSize+tagSize {
		return nil, fmt.Errorf("%w: token too short", ErrAuthenticationFailure)
	}
	if raw[0] != tokenVersion {
		return nil, fmt.Errorf("%w: unsupported token version %d", ErrAuthenticationFailure, raw[0])
	}
	return raw, nil
}

// DeriveKey stretches a passphrase into a KeySize key with Argon2id.
// The same passphrase and salt always give the same key.
func DeriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, KeySize)
}
