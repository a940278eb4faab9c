// Package alignment provides memory-efficient local sequence alignment.
//
// The engine is a Smith-Waterman sweep that keeps two rolling rows and
// tracks where each cell's alignment started, so it can report the
// coordinates of the best local alignment without a traceback matrix.
package alignment

import (
	"fmt"
	"strings"

	"github.com/aria-lang/swalign-go/internal/sequence"
)

// AlignDirection is the move that produced a DP cell.
type AlignDirection uint8

const (
	// Stop marks a cell floored at zero; an alignment may start after it
	Stop AlignDirection = iota
	// Deletion consumes a reference base only
	Deletion
	// Insertion consumes a query base only
	Insertion
	// SNP consumes one base of each (match or mismatch)
	SNP
)

func (d AlignDirection) String() string {
	switch d {
	case Stop:
		return "stop"
	case Deletion:
		return "deletion"
	case Insertion:
		return "insertion"
	case SNP:
		return "snp"
	default:
		return "unknown"
	}
}

// Default gap penalties.
const (
	DefaultGapOpen   = -10
	DefaultGapExtend = -1
)

// ScoringModel holds the base pair score table and the affine gap
// penalties.
//
// The table is indexed by sequence.EncodeBase of the query and reference
// bases, so lookups are case-insensitive and work on encoded and decoded
// sequences alike. A model must not be modified while alignments using it
// are running; once loaded it can be shared freely between goroutines.
type ScoringModel struct {
	table [sequence.AlphabetSize][sequence.AlphabetSize]int8

	GapOpen   int
	GapExtend int
	TieBreak  TieOrder
}

// NewScoringModel creates a model with an all-zero table.
func NewScoringModel(gapOpen, gapExtend int) *ScoringModel {
	return &ScoringModel{
		GapOpen:   gapOpen,
		GapExtend: gapExtend,
	}
}

// DefaultDNA creates a model with the default nucleotide table and gap
// penalties.
func DefaultDNA() *ScoringModel {
	m := NewScoringModel(DefaultGapOpen, DefaultGapExtend)
	m.InitDefault()
	return m
}

// InitDefault loads the default nucleotide table: +5 for a match, -4 for
// a mismatch between unambiguous bases, U scored as T, and blended scores
// for ambiguity codes. Entries outside the nucleotide alphabet are reset
// to zero. Gap penalties and tie order are left alone.
func (m *ScoringModel) InitDefault() {
	m.table = [sequence.AlphabetSize][sequence.AlphabetSize]int8{}
	for qi, q := range defaultOrder {
		for ri, r := range defaultOrder {
			m.SetScore(q, r, defaultScores[qi][ri])
		}
	}

	// U scores exactly like T in both positions
	for _, b := range defaultOrder {
		m.SetScore('U', b, m.Score('T', b))
		m.SetScore(b, 'U', m.Score(b, 'T'))
	}
	m.SetScore('U', 'U', m.Score('T', 'T'))
}

// SetScore sets the score for aligning query base q to reference base r.
func (m *ScoringModel) SetScore(q, r byte, score int8) {
	m.table[q&sequence.IndexMask][r&sequence.IndexMask] = score
}

// Score returns the score for aligning query base q to reference base r.
func (m *ScoringModel) Score(q, r byte) int8 {
	return m.table[q&sequence.IndexMask][r&sequence.IndexMask]
}

// gapPenalty returns the penalty for a gap following a cell whose move
// was prev.
func (m *ScoringModel) gapPenalty(prev AlignDirection) int64 {
	if prev == Deletion || prev == Insertion {
		return int64(m.GapExtend)
	}
	return int64(m.GapOpen)
}

// MaxScore returns the largest entry in the table.
func (m *ScoringModel) MaxScore() int8 {
	best := m.table[0][0]
	for i := range m.table {
		for _, s := range m.table[i] {
			if s > best {
				best = s
			}
		}
	}
	return best
}

// String returns a string representation of the scoring model.
func (m *ScoringModel) String() string {
	return fmt.Sprintf("ScoringModel { gap_open: %d, gap_extend: %d, tie_break: %s }",
		m.GapOpen, m.GapExtend, m.TieBreak)
}

// TieOrder decides which move wins when several reach the same score.
// The zero value is the default, DelInsSnp.
type TieOrder uint8

const (
	// DelInsSnp prefers deletion, then insertion, then snp
	DelInsSnp TieOrder = iota
	InsDelSnp
	DelSnpIns
	InsSnpDel
	SnpDelIns
	SnpInsDel
)

var tieOrderNames = [...]string{
	DelInsSnp: "del-ins-snp",
	InsDelSnp: "ins-del-snp",
	DelSnpIns: "del-snp-ins",
	InsSnpDel: "ins-snp-del",
	SnpDelIns: "snp-del-ins",
	SnpInsDel: "snp-ins-del",
}

var tieOrderMoves = [...][3]AlignDirection{
	DelInsSnp: {Deletion, Insertion, SNP},
	InsDelSnp: {Insertion, Deletion, SNP},
	DelSnpIns: {Deletion, SNP, Insertion},
	InsSnpDel: {Insertion, SNP, Deletion},
	SnpDelIns: {SNP, Deletion, Insertion},
	SnpInsDel: {SNP, Insertion, Deletion},
}

func (o TieOrder) String() string {
	if int(o) < len(tieOrderNames) {
		return tieOrderNames[o]
	}
	return "unknown"
}

// Valid reports whether o is one of the defined orders.
func (o TieOrder) Valid() bool {
	return int(o) < len(tieOrderMoves)
}

// ParseTieOrder parses names such as "del-ins-snp". Underscores and case
// are ignored.
func ParseTieOrder(s string) (TieOrder, error) {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "-"))
	for i, name := range tieOrderNames {
		if name == norm {
			return TieOrder(i), nil
		}
	}
	return DelInsSnp, fmt.Errorf("unknown tie order %q (want one of %s)",
		s, strings.Join(tieOrderNames[:], ", "))
}

// choose picks the winning move. Moves are visited in priority order and a
// later move only replaces the current winner when strictly greater.
func (o TieOrder) choose(snp, ins, del int64) (int64, AlignDirection) {
	moves := &tieOrderMoves[o]
	best, dir := scoreOf(moves[0], snp, ins, del), moves[0]
	for _, mv := range moves[1:] {
		if s := scoreOf(mv, snp, ins, del); s > best {
			best, dir = s, mv
		}
	}
	return best, dir
}

func scoreOf(d AlignDirection, snp, ins, del int64) int64 {
	switch d {
	case Deletion:
		return del
	case Insertion:
		return ins
	default:
		return snp
	}
}
