package secret

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/ledgerkeeper/internal/cryptox"
	"github.com/dmitrijs2005/ledgerkeeper/internal/logging"
)

// Spec describes one encrypted column.
type Spec struct {
	// Name is the logical field name, "<entity>.<column>".
	Name string
	Mask MaskFunc
	// MaskNeedsPlaintext is false when Mask ignores its input, in which case
	// masking works even without a key.
	MaskNeedsPlaintext bool
}

var (
	AccountNumber = Spec{Name: "account.number", Mask: MaskLast(4), MaskNeedsPlaintext: true}
	CardNumber    = Spec{Name: "card.number", Mask: MaskLast(4), MaskNeedsPlaintext: true}
	CardCVV       = Spec{Name: "card.cvv", Mask: MaskFixed()}
	Password      = Spec{Name: "password.password", Mask: MaskFixed()}
	ArchiveSecret = Spec{Name: "archive.secret", Mask: MaskFixed()}
)

// Field binds a Spec to a codec. Get and Masked are the presentation
// boundary: they never fail, and report "no plaintext available" instead.
// The underlying cause is logged so key mismatches stay visible to operators.
type Field struct {
	spec   Spec
	codec  Codec
	logger logging.Logger
}

func NewField(spec Spec, codec Codec, logger logging.Logger) *Field {
	return &Field{
		spec:   spec,
		codec:  codec,
		logger: logger.With("field", spec.Name),
	}
}

func (f *Field) Name() string { return f.spec.Name }

// Set encrypts value; an empty value clears the field.
func (f *Field) Set(ctx context.Context, value string) (Secret, error) {
	return FromPlaintext(ctx, f.codec, value)
}

// Get returns the plaintext and true, or "" and false when the field is empty
// or cannot be decrypted.
func (f *Field) Get(ctx context.Context, s Secret) (string, bool) {
	if s.IsZero() {
		return "", false
	}
	v, err := s.Reveal(ctx, f.codec)
	if err != nil {
		f.logger.Warn(ctx, "field not decryptable", "reason", failureReason(err), "error", err)
		return "", false
	}
	return v, true
}

// Masked returns the display form of s. An empty field masks to "".
func (f *Field) Masked(ctx context.Context, s Secret) string {
	if s.IsZero() {
		return ""
	}
	if !f.spec.MaskNeedsPlaintext {
		return f.spec.Mask("")
	}
	v, ok := f.Get(ctx, s)
	if !ok {
		return Placeholder
	}
	return f.spec.Mask(v)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, cryptox.ErrMissingKey):
		return "missing_key"
	case errors.Is(err, cryptox.ErrInvalidKey):
		return "invalid_key"
	case errors.Is(err, cryptox.ErrAuthenticationFailure):
		return "authentication_failure"
	default:
		return "other"
	}
}
