// Package swalign provides a high-level API for local sequence alignment.
//
// This package exposes the core swalign functionality through a small API:
// building sequences, loading scoring models and running Smith-Waterman
// alignments that report the score and both aligned regions.
//
// Example usage:
//
//	query, err := swalign.NewSequence("GGATCC")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ref, err := swalign.NewSequence("TTGGATCCTT")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := swalign.Align(query, ref)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res)
package swalign

import (
	"context"
	"fmt"

	"github.com/aria-lang/swalign-go/internal/alignment"
	"github.com/aria-lang/swalign-go/internal/batch"
	"github.com/aria-lang/swalign-go/internal/fastx"
	"github.com/aria-lang/swalign-go/internal/sequence"
	"github.com/aria-lang/swalign-go/internal/stats"
)

// Re-export types for convenience
type (
	Sequence     = sequence.Sequence
	ScoringModel = alignment.ScoringModel
	Result       = alignment.Result
	TieOrder     = alignment.TieOrder
	Option       = alignment.Option
	Hit          = batch.Hit
	ScanOptions  = batch.Options
	ScanStats    = stats.ScanStats
)

// Tie orders
const (
	DelInsSnp = alignment.DelInsSnp
	InsDelSnp = alignment.InsDelSnp
	DelSnpIns = alignment.DelSnpIns
	InsSnpDel = alignment.InsSnpDel
	SnpDelIns = alignment.SnpDelIns
	SnpInsDel = alignment.SnpInsDel
)

// Sentinel errors
var (
	ErrOutOfMemory = alignment.ErrOutOfMemory
	ErrNilInput    = alignment.ErrNilInput
)

// NewSequence creates a new sequence whose window covers every base.
func NewSequence(bases string) (*Sequence, error) {
	return sequence.New(bases)
}

// NewSequenceWithID creates a new sequence with an identifier.
func NewSequenceWithID(bases, id string) (*Sequence, error) {
	return sequence.WithID(bases, id)
}

// Align performs local alignment with the default scoring model.
func Align(query, reference *Sequence, opts ...Option) (Result, error) {
	return alignment.Align(query, reference, alignment.DefaultDNA(), opts...)
}

// AlignWithScoring performs local alignment with custom scoring.
func AlignWithScoring(query, reference *Sequence, scoring *ScoringModel, opts ...Option) (Result, error) {
	return alignment.Align(query, reference, scoring, opts...)
}

// WithMemoryLimit caps the bytes an alignment may allocate for its rows.
func WithMemoryLimit(bytes int64) Option {
	return alignment.WithMemoryLimit(bytes)
}

// DefaultScoring returns the default nucleotide scoring model.
func DefaultScoring() *ScoringModel {
	return alignment.DefaultDNA()
}

// ParseTieOrder parses names such as "del-ins-snp".
func ParseTieOrder(s string) (TieOrder, error) {
	return alignment.ParseTieOrder(s)
}

// LoadScoring returns the default model with the entries of the score file
// at path applied on top.
func LoadScoring(path string) (*ScoringModel, error) {
	m := alignment.DefaultDNA()
	if err := m.LoadScoreFile(path); err != nil {
		return nil, err
	}
	return m, nil
}

// ReadSequences reads every record of a FASTA or FASTQ file. Files ending
// in .gz are decompressed and "-" reads standard input.
func ReadSequences(path string) ([]*Sequence, error) {
	return fastx.ReadAll(path)
}

// Scan aligns every query against reference in parallel and returns one
// hit per query, in input order.
func Scan(ctx context.Context, reference *Sequence, queries []*Sequence, scoring *ScoringModel, opts ScanOptions) ([]Hit, error) {
	return batch.Scan(ctx, reference, queries, scoring, opts)
}

// Summarize calculates statistics for the hits of a scan.
func Summarize(hits []Hit) *ScanStats {
	return stats.FromHits(hits)
}

// Version returns the swalign version.
func Version() string {
	return "1.0.0"
}

// Info returns information about swalign.
func Info() string {
	return fmt.Sprintf(`swalign v%s - Memory-efficient Smith-Waterman Local Alignment

Features:
  - Two-row local alignment with start coordinate tracking
  - Affine gap penalties and a configurable tie-break order
  - 27x27 IUPAC score table with score file overrides
  - Alignment windows on query and reference
  - Parallel scans of FASTA/FASTQ queries against a reference

For more information, see: https://github.com/aria-lang/swalign-go
`, Version())
}
