package sequence

// IndexMask clears the case and high bits of an ASCII letter, mapping
// 'A'..'Z' (either case) to 1..26 and the placeholder to 0.
const IndexMask = 0x1f

// AlphabetSize is the number of distinct encoded symbols.
const AlphabetSize = 27

const letterBit = 0x40

// EncodeBase maps a letter to its scoring-table index.
func EncodeBase(c byte) byte {
	return c & IndexMask
}

// DecodeBase maps a table index back to its uppercase letter.
func DecodeBase(c byte) byte {
	return c | letterBit
}

// EncodeBases encodes b in place.
func EncodeBases(b []byte) {
	for i, c := range b {
		b[i] = c & IndexMask
	}
}

// DecodeBases decodes b in place.
func DecodeBases(b []byte) {
	for i, c := range b {
		b[i] = c | letterBit
	}
}
