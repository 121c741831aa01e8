package secret

import "strings"

// Placeholder is shown when nothing about the value may be revealed,
// including its length.
const Placeholder = "***"

// MaskFunc turns a plaintext into a display string. The result is never
// persisted.
type MaskFunc func(plaintext string) string

// MaskLast keeps the last n characters and stars the rest. Values of n
// characters or fewer mask to Placeholder so no real digits leak.
func MaskLast(n int) MaskFunc {
	return func(plaintext string) string {
		r := []rune(plaintext)
		if len(r) <= n {
			return Placeholder
		}
		return strings.Repeat("*", len(r)-n) + string(r[len(r)-n:])
	}
}

// MaskFixed ignores the value entirely.
func MaskFixed() MaskFunc {
	return func(string) string { return Placeholder }
}
