package domain

// Secret wraps a sensitive in-memory buffer (raw keys, plaintext validators,
// decrypted PII) and guarantees best-effort zeroing when it is no longer
// needed. Callers defer Close immediately after obtaining a Secret so the
// wipe happens on every return path, including errors.
type Secret struct {
	buf []byte
}

// NewSecret takes ownership of b and wraps it as a Secret.
// The caller must not retain or reuse b after the call.
func NewSecret(b []byte) *Secret {
	return &Secret{buf: b}
}

// SecretFromString copies s into a new Secret. The string itself cannot be
// zeroed (strings are immutable), so prefer byte-slice plumbing where the
// value originates in this process.
func SecretFromString(s string) *Secret {
	return &Secret{buf: []byte(s)}
}

// Bytes returns the underlying buffer. The returned slice is borrowed: it is
// invalidated by Close and must not be stored, logged, or serialized.
func (s *Secret) Bytes() []byte {
	return s.buf
}

// Len returns the length of the wrapped buffer.
func (s *Secret) Len() int {
	return len(s.buf)
}

// Close zeroes the wrapped buffer. Safe to call multiple times.
func (s *Secret) Close() {
	Zero(s.buf)
	s.buf = nil
}
