package domain

import "crypto/rand"

// NewID produces a random hex identifier for operations, lines, catalog
// entities and cash movements. Ids are generated by the caller, not by
// storage, so they exist before the first write of an atomic group.
func NewID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	const hex = "0123456789abcdef"
	out := make([]byte, 32)
	for i, v := range b {
		out[i*2] = hex[v>>4]
		out[i*2+1] = hex[v&0x0f]
	}
	return string(out), nil
}
