// Package fastx streams FASTA and FASTQ records as sequences.
package fastx

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aria-lang/swalign-go/internal/mapfile"
	"github.com/aria-lang/swalign-go/internal/sequence"
)

var (
	// ErrMalformed is wrapped by every FormatError.
	ErrMalformed = errors.New("fastx: malformed record")
	// ErrRecordTooLarge is returned when a record is longer than
	// Reader.MaxSeqLen.
	ErrRecordTooLarge = errors.New("fastx: record exceeds maximum length")
)

// FormatError describes a malformed record. Err holds the underlying
// sequence error when the record failed validation.
type FormatError struct {
	Line   int
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

func (e *FormatError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMalformed, e.Err}
	}
	return []error{ErrMalformed}
}

// Format is the record layout detected from the first record.
type Format int

const (
	// Unknown means no record has been read yet
	Unknown Format = iota
	FASTA
	FASTQ
)

func (f Format) String() string {
	switch f {
	case FASTA:
		return "FASTA"
	case FASTQ:
		return "FASTQ"
	default:
		return "unknown"
	}
}

// Reader yields one record at a time. The format is taken from the first
// non-blank line: '>' for FASTA, '@' for FASTQ.
type Reader struct {
	// MaxSeqLen limits the bases of a single record. Zero means no limit.
	MaxSeqLen int

	br      *bufio.Reader
	format  Format
	line    int
	pending []byte
	hasNext bool
}

// NewReader creates a reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// Format returns the detected format, or Unknown before the first record.
func (r *Reader) Format() Format {
	return r.format
}

// readLine returns the next line without its line ending, or io.EOF.
func (r *Reader) readLine() ([]byte, error) {
	line, err := r.br.ReadBytes('\n')
	if len(line) == 0 && err != nil {
		return nil, err
	}
	if err != nil && err != io.EOF {
		return nil, err
	}
	r.line++
	return bytes.TrimRight(line, "\r\n"), nil
}

// nextNonBlank returns the next line that is not only whitespace.
func (r *Reader) nextNonBlank() ([]byte, error) {
	if r.hasNext {
		r.hasNext = false
		return r.pending, nil
	}
	for {
		line, err := r.readLine()
		if err != nil {
			return nil, err
		}
		if len(bytes.TrimSpace(line)) > 0 {
			return line, nil
		}
	}
}

func (r *Reader) unread(line []byte) {
	r.pending = line
	r.hasNext = true
}

// Next returns the next record, io.EOF after the last one, a *FormatError
// for a malformed record or ErrRecordTooLarge.
func (r *Reader) Next() (*sequence.Sequence, error) {
	header, err := r.nextNonBlank()
	if err != nil {
		return nil, err
	}

	if r.format == Unknown {
		switch header[0] {
		case '>':
			r.format = FASTA
		case '@':
			r.format = FASTQ
		default:
			return nil, &FormatError{Line: r.line, Reason: "expected '>' or '@' at start of record"}
		}
	}

	if r.format == FASTA {
		return r.nextFASTA(header)
	}
	return r.nextFASTQ(header)
}

func (r *Reader) nextFASTA(header []byte) (*sequence.Sequence, error) {
	headerLine := r.line
	if header[0] != '>' {
		return nil, &FormatError{Line: headerLine, Reason: "expected header starting with >"}
	}
	id, desc := parseHeader(header[1:])

	var bases []byte
	for {
		line, err := r.readLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading record %s: %w", id, err)
		}
		if len(line) > 0 && line[0] == '>' {
			r.unread(line)
			break
		}
		bases = append(bases, bytes.TrimSpace(line)...)
		if r.MaxSeqLen > 0 && len(bases) > r.MaxSeqLen {
			return nil, fmt.Errorf("record %s: %w", id, ErrRecordTooLarge)
		}
	}

	return r.build(headerLine, id, desc, bases, nil)
}

func (r *Reader) nextFASTQ(header []byte) (*sequence.Sequence, error) {
	headerLine := r.line
	if header[0] != '@' {
		return nil, &FormatError{Line: headerLine, Reason: "expected header starting with @"}
	}
	id, desc := parseHeader(header[1:])

	var bases []byte
	for {
		line, err := r.readLine()
		if err == io.EOF {
			return nil, &FormatError{Line: r.line, Reason: "record ends before '+' line"}
		}
		if err != nil {
			return nil, fmt.Errorf("reading record %s: %w", id, err)
		}
		if len(line) > 0 && line[0] == '+' {
			break
		}
		bases = append(bases, bytes.TrimSpace(line)...)
		if r.MaxSeqLen > 0 && len(bases) > r.MaxSeqLen {
			return nil, fmt.Errorf("record %s: %w", id, ErrRecordTooLarge)
		}
	}

	qual := make([]byte, 0, len(bases))
	for len(qual) < len(bases) {
		line, err := r.readLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading record %s: %w", id, err)
		}
		qual = append(qual, bytes.TrimSpace(line)...)
	}
	if len(qual) != len(bases) {
		return nil, &FormatError{
			Line:   r.line,
			Reason: fmt.Sprintf("quality length %d does not match sequence length %d", len(qual), len(bases)),
		}
	}
	for _, q := range qual {
		if q < '!' || q > '~' {
			return nil, &FormatError{Line: r.line, Reason: fmt.Sprintf("invalid quality character %q", q)}
		}
	}

	return r.build(headerLine, id, desc, bases, qual)
}

func (r *Reader) build(line int, id, desc string, bases, qual []byte) (*sequence.Sequence, error) {
	if len(bases) == 0 {
		return nil, &FormatError{Line: line, Reason: fmt.Sprintf("record %q has no sequence", id)}
	}
	seq, err := sequence.WithMetadata(bases, id, desc, qual)
	if err != nil {
		return nil, &FormatError{Line: line, Reason: fmt.Sprintf("record %q: %v", id, err), Err: err}
	}
	return seq, nil
}

func parseHeader(h []byte) (id, desc string) {
	fields := strings.SplitN(strings.TrimSpace(string(h)), " ", 2)
	id = fields[0]
	if len(fields) > 1 {
		desc = strings.TrimSpace(fields[1])
	}
	return id, desc
}

// File is a Reader over an opened path.
type File struct {
	*Reader
	closer io.Closer
}

// Close releases the underlying file.
func (f *File) Close() error {
	return f.closer.Close()
}

// gzipFile closes the decompressor before the file beneath it.
type gzipFile struct {
	gr *gzip.Reader
	fh *os.File
}

func (g *gzipFile) Close() error {
	return errors.Join(g.gr.Close(), g.fh.Close())
}

// Open opens path for reading. "-" reads standard input, a ".gz" suffix
// is decompressed, and plain files are memory-mapped.
func Open(path string) (*File, error) {
	if path == "-" {
		return &File{Reader: NewReader(os.Stdin), closer: io.NopCloser(nil)}, nil
	}

	if strings.HasSuffix(path, ".gz") {
		fh, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		gr, err := gzip.NewReader(fh)
		if err != nil {
			fh.Close()
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return &File{Reader: NewReader(gr), closer: &gzipFile{gr: gr, fh: fh}}, nil
	}

	mf, err := mapfile.Open(path)
	if err != nil {
		return nil, err
	}
	return &File{Reader: NewReader(mf), closer: mf}, nil
}

// ReadAll reads every record in path.
func ReadAll(path string) ([]*sequence.Sequence, error) {
	f, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var seqs []*sequence.Sequence
	for {
		seq, err := f.Next()
		if err == io.EOF {
			return seqs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		seqs = append(seqs, seq)
	}
}
