package nametable

// HashFunc hashes a label into the key space of ExtMap and ExtMapRaw.
type HashFunc func(label string) uint32

// Hash is the label hash used by NAME tables: the first byte seeds the high
// bits, then every byte is folded in with a multiplier of 31.
func Hash(label string) uint32 {
	if label == "" {
		return 0
	}
	h := uint32(label[0]) << 8
	for i := 0; i < len(label); i++ {
		h = h*31 + uint32(label[i])
	}
	return h
}
