// Package sequence provides nucleotide sequences with an alignment window.
//
// A Sequence owns its base buffer and carries an inclusive [Offset, EndAln]
// window that restricts which bases an alignment looks at. Coordinates
// reported by aligners are always in the unwindowed space of the sequence.
package sequence

import (
	"bytes"
	"fmt"
)

// Placeholder is the null symbol. It encodes to index 0 and scores zero
// against every base.
const Placeholder byte = '@'

// Sequence is a validated nucleotide sequence with an alignment window.
//
// Bases are stored uppercase so the encode/decode round trip is lossless.
// Quality is only set for records read from FASTQ.
type Sequence struct {
	ID          string
	Description string
	Bases       []byte
	Quality     []byte

	// Offset and EndAln bound the alignment window, both inclusive and
	// 0-indexed. New sequences cover the whole buffer.
	Offset int
	EndAln int

	encoded bool
}

// New creates a new sequence with validation.
//
// Lowercase input is folded to uppercase. Every base must be an IUPAC
// nucleotide code (A C G T U W S M K R Y B D H V N X) or the placeholder.
func New(bases string) (*Sequence, error) {
	return FromBytes([]byte(bases))
}

// FromBytes validates b and takes ownership of it.
func FromBytes(b []byte) (*Sequence, error) {
	if len(b) == 0 {
		return nil, &EmptySequenceError{}
	}

	upper(b)
	if err := Validate(b); err != nil {
		return nil, err
	}

	return &Sequence{
		Bases:  b,
		Offset: 0,
		EndAln: len(b) - 1,
	}, nil
}

// WithID creates a new sequence with an identifier.
func WithID(bases, id string) (*Sequence, error) {
	if len(id) == 0 {
		return nil, fmt.Errorf("ID cannot be empty")
	}

	seq, err := New(bases)
	if err != nil {
		return nil, err
	}

	seq.ID = id
	return seq, nil
}

// WithMetadata creates a new sequence with full metadata. quality may be
// nil; when set it must match the sequence length.
func WithMetadata(bases []byte, id, description string, quality []byte) (*Sequence, error) {
	seq, err := FromBytes(bases)
	if err != nil {
		return nil, err
	}

	if quality != nil && len(quality) != len(seq.Bases) {
		return nil, &InvalidLengthError{Expected: len(seq.Bases), Actual: len(quality)}
	}

	seq.ID = id
	seq.Description = description
	seq.Quality = quality
	return seq, nil
}

func upper(b []byte) {
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
}

// Len returns the length of the whole sequence.
func (s *Sequence) Len() int {
	return len(s.Bases)
}

// Window returns the inclusive alignment window.
func (s *Sequence) Window() (offset, end int) {
	return s.Offset, s.EndAln
}

// WindowLen returns the number of bases inside the alignment window, or 0
// if the window is invalid.
func (s *Sequence) WindowLen() int {
	if s.CheckWindow() != nil {
		return 0
	}
	return s.EndAln - s.Offset + 1
}

// SetWindow restricts alignment to bases[offset:end+1].
func (s *Sequence) SetWindow(offset, end int) error {
	if err := checkWindow(offset, end, len(s.Bases)); err != nil {
		return err
	}
	s.Offset, s.EndAln = offset, end
	return nil
}

// ResetWindow makes the window cover the whole sequence.
func (s *Sequence) ResetWindow() {
	s.Offset, s.EndAln = 0, len(s.Bases)-1
}

// CheckWindow reports whether the current window is non-empty and inside
// the sequence.
func (s *Sequence) CheckWindow() error {
	return checkWindow(s.Offset, s.EndAln, len(s.Bases))
}

func checkWindow(offset, end, length int) error {
	if offset < 0 || end < offset || end >= length {
		return &WindowError{Offset: offset, End: end, Length: length}
	}
	return nil
}

// Aligned returns the bases inside the window. The slice aliases the
// sequence buffer.
func (s *Sequence) Aligned() []byte {
	if s.CheckWindow() != nil {
		return nil
	}
	return s.Bases[s.Offset : s.EndAln+1]
}

// BaseAt returns the base at a specific index, or false if out of bounds.
func (s *Sequence) BaseAt(index int) (byte, bool) {
	if index < 0 || index >= len(s.Bases) {
		return 0, false
	}
	return s.Bases[index], true
}

// IsEncoded reports whether Bases currently holds table indexes instead of
// letters.
func (s *Sequence) IsEncoded() bool {
	return s.encoded
}

// Encode converts Bases in place to scoring-table indexes. Encoding an
// already encoded sequence is a no-op.
func (s *Sequence) Encode() {
	if s.encoded {
		return
	}
	EncodeBases(s.Bases)
	s.encoded = true
}

// Decode reverses Encode.
func (s *Sequence) Decode() {
	if !s.encoded {
		return
	}
	DecodeBases(s.Bases)
	s.encoded = false
}

// complementBase returns the IUPAC complement of an uppercase base.
func complementBase(c byte) byte {
	switch c {
	case 'A':
		return 'T'
	case 'T', 'U':
		return 'A'
	case 'C':
		return 'G'
	case 'G':
		return 'C'
	case 'M':
		return 'K'
	case 'K':
		return 'M'
	case 'R':
		return 'Y'
	case 'Y':
		return 'R'
	case 'B':
		return 'V'
	case 'V':
		return 'B'
	case 'D':
		return 'H'
	case 'H':
		return 'D'
	default:
		// W, S, N, X and the placeholder are their own complement
		return c
	}
}

// Complement returns the IUPAC complement of the sequence. The window and
// encoding state are carried over.
func (s *Sequence) Complement() *Sequence {
	comp := make([]byte, len(s.Bases))
	for i, b := range s.Bases {
		if s.encoded {
			comp[i] = EncodeBase(complementBase(DecodeBase(b)))
		} else {
			comp[i] = complementBase(b)
		}
	}

	c := s.shallow()
	c.Bases = comp
	c.Quality = s.Quality
	return c
}

// Reverse returns the reverse of the sequence. The window is mirrored so
// it still covers the same bases.
func (s *Sequence) Reverse() *Sequence {
	n := len(s.Bases)
	rev := make([]byte, n)
	for i, b := range s.Bases {
		rev[n-1-i] = b
	}

	r := s.shallow()
	r.Bases = rev
	if s.Quality != nil {
		q := make([]byte, len(s.Quality))
		for i, b := range s.Quality {
			q[len(q)-1-i] = b
		}
		r.Quality = q
	}
	r.Offset, r.EndAln = n-1-s.EndAln, n-1-s.Offset
	return r
}

// ReverseComplement returns the reverse complement of the sequence.
func (s *Sequence) ReverseComplement() *Sequence {
	return s.Complement().Reverse()
}

// Clone returns a deep copy.
func (s *Sequence) Clone() *Sequence {
	c := s.shallow()
	c.Bases = append([]byte(nil), s.Bases...)
	if s.Quality != nil {
		c.Quality = append([]byte(nil), s.Quality...)
	}
	return c
}

func (s *Sequence) shallow() *Sequence {
	return &Sequence{
		ID:          s.ID,
		Description: s.Description,
		Offset:      s.Offset,
		EndAln:      s.EndAln,
		encoded:     s.encoded,
	}
}

// Text returns the bases as letters, decoding a copy if needed.
func (s *Sequence) Text() string {
	if !s.encoded {
		return string(s.Bases)
	}
	bases := append([]byte(nil), s.Bases...)
	DecodeBases(bases)
	return string(bases)
}

// String returns a string representation of the sequence.
func (s *Sequence) String() string {
	if s.ID != "" {
		return fmt.Sprintf(">%s\n%s", s.ID, s.Text())
	}
	return s.Text()
}

// Equal checks equality of bases and window with another sequence.
func (s *Sequence) Equal(other *Sequence) bool {
	if other == nil {
		return false
	}
	return s.encoded == other.encoded &&
		s.Offset == other.Offset && s.EndAln == other.EndAln &&
		bytes.Equal(s.Bases, other.Bases)
}
