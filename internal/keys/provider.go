// Package keys resolves encryption keys from the environment or a passphrase
// and rotates stored ciphertext from one key to another.
package keys

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/dmitrijs2005/ledgerkeeper/internal/cryptox"
)

// DefaultEnv is the variable EnvProvider reads when none is configured.
const DefaultEnv = "LEDGER_FIELD_KEY"

var encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// DecodeKey parses base64 key material in any of the standard alphabets.
// Empty input yields cryptox.ErrMissingKey, anything that does not decode
// to exactly cryptox.KeySize bytes yields cryptox.ErrInvalidKey.
func DecodeKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, cryptox.ErrMissingKey
	}
	for _, enc := range encodings {
		key, err := enc.DecodeString(s)
		if err != nil {
			continue
		}
		if len(key) != cryptox.KeySize {
			return nil, fmt.Errorf("%w: got %d bytes", cryptox.ErrInvalidKey, len(key))
		}
		return key, nil
	}
	return nil, fmt.Errorf("%w: not base64", cryptox.ErrInvalidKey)
}

// EnvProvider reads the key from an environment variable on every call, so
// a changed variable is seen by the next operation.
type EnvProvider struct {
	Var    string
	lookup func(string) (string, bool)
}

func NewEnvProvider(name string) *EnvProvider {
	if name == "" {
		name = DefaultEnv
	}
	return &EnvProvider{Var: name, lookup: os.LookupEnv}
}

func (p *EnvProvider) Key(context.Context) ([]byte, error) {
	v, _ := p.lookup(p.Var)
	key, err := DecodeKey(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.Var, err)
	}
	return key, nil
}

// PassphraseProvider derives the key from a passphrase and salt with
// Argon2id. Derivation runs once.
type PassphraseProvider struct {
	passphrase string
	salt       string

	once sync.Once
	key  []byte
}

func NewPassphraseProvider(passphrase, salt string) *PassphraseProvider {
	return &PassphraseProvider{passphrase: passphrase, salt: salt}
}

func (p *PassphraseProvider) Key(context.Context) ([]byte, error) {
	if p.passphrase == "" {
		return nil, cryptox.ErrMissingKey
	}
	if p.salt == "" {
		return nil, fmt.Errorf("%w: salt is not configured", cryptox.ErrMissingKey)
	}
	p.once.Do(func() {
		p.key = cryptox.DeriveKey([]byte(p.passphrase), []byte(p.salt))
	})
	return p.key, nil
}
