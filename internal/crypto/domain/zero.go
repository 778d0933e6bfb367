package domain

// Zero overwrites a byte slice with zeros in place. Transient sensitive
// buffers go through here the moment they are no longer needed: raw
// validators after hashing, plaintext key bytes after wrapping, marshaled
// mail payloads after sealing. Longer-lived plaintext is held in a Secret,
// whose Close calls this.
func Zero(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}
