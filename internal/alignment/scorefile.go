package alignment

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/aria-lang/swalign-go/internal/mapfile"
	"github.com/aria-lang/swalign-go/internal/numparse"
)

// ErrMalformedScoreFile is wrapped by every ScoreFileError.
var ErrMalformedScoreFile = errors.New("malformed score file")

// ScoreFileError reports the first bad line of a score file. Offset is the
// byte offset just past that line; entries before it have been applied.
type ScoreFileError struct {
	Offset int64
	Line   int
	Reason string
}

func (e *ScoreFileError) Error() string {
	return fmt.Sprintf("score file line %d (byte %d): %s", e.Line, e.Offset, e.Reason)
}

func (e *ScoreFileError) Unwrap() error {
	return ErrMalformedScoreFile
}

var commentPrefix = []byte("//")

// ReadScoreFile overrides table entries from r.
//
// Each line is "<query base> <reference base> <score>" with the bases in
// columns 0 and 2 and the score starting at column 4. Lines starting with
// "//" and blank lines are skipped. Entries are applied as they are read,
// so a malformed line leaves every earlier entry in effect.
func (m *ScoringModel) ReadScoreFile(r io.Reader) error {
	br := bufio.NewReader(r)
	var offset int64
	line := 0

	for {
		raw, err := br.ReadBytes('\n')
		if len(raw) > 0 {
			offset += int64(len(raw))
			line++

			text := bytes.TrimRight(raw, "\r\n")
			if len(bytes.TrimSpace(text)) > 0 && !bytes.HasPrefix(text, commentPrefix) {
				if reason := m.applyScoreLine(text); reason != "" {
					return &ScoreFileError{Offset: offset, Line: line, Reason: reason}
				}
			}
		}

		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read score file: %w", err)
		}
	}
}

func (m *ScoringModel) applyScoreLine(text []byte) string {
	if len(text) < 5 {
		return fmt.Sprintf("line too short: %q", text)
	}

	q, r := text[0], text[2]
	if !isLetter(q) {
		return fmt.Sprintf("query base %q is not a letter", q)
	}
	if !isLetter(r) {
		return fmt.Sprintf("reference base %q is not a letter", r)
	}

	field := text[4:]
	score, n, err := numparse.Prefix[int8](field)
	if err != nil {
		return fmt.Sprintf("missing score after %c %c", q, r)
	}
	if n < len(field) && field[n] != ' ' && field[n] != '\t' {
		return fmt.Sprintf("score %q is not a number in [-128, 127]", field)
	}

	m.SetScore(q, r, score)
	return ""
}

func isLetter(c byte) bool {
	c |= 0x20
	return c >= 'a' && c <= 'z'
}

// LoadScoreFile overrides table entries from the file at path.
func (m *ScoringModel) LoadScoreFile(path string) error {
	f, err := mapfile.Open(path)
	if err != nil {
		return fmt.Errorf("open score file: %w", err)
	}
	defer f.Close()

	return m.ReadScoreFile(f)
}
