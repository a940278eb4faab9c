// Package batch aligns many queries against one reference in parallel.
package batch

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aria-lang/swalign-go/internal/alignment"
	"github.com/aria-lang/swalign-go/internal/sequence"
)

// Strand of the query that produced a hit.
type Strand byte

const (
	Forward Strand = '+'
	Reverse Strand = '-'
)

func (s Strand) String() string {
	return string(s)
}

// Options controls a scan.
type Options struct {
	// Workers is the number of concurrent alignments. Zero uses GOMAXPROCS.
	Workers int
	// BothStrands also aligns the reverse complement of every query.
	BothStrands bool
	// MemoryLimit caps the DP rows of a single alignment, in bytes.
	MemoryLimit int64
	// OnDone is called after each query finishes with the time it took.
	// It must be safe for concurrent use.
	OnDone func(elapsed time.Duration)
}

// Hit is the best alignment of one query.
type Hit struct {
	Index  int
	Query  *sequence.Sequence
	Strand Strand
	Result alignment.Result
}

// QueryID returns the query identifier, or its 1-based index when the
// query has none.
func (h Hit) QueryID() string {
	if h.Query != nil && h.Query.ID != "" {
		return h.Query.ID
	}
	return fmt.Sprintf("query_%d", h.Index+1)
}

// Scan aligns every query against reference and returns one hit per query
// in input order. The model is shared read-only by all workers.
//
// Cancelling ctx stops queries that have not started yet; running
// alignments finish first.
func Scan(ctx context.Context, reference *sequence.Sequence, queries []*sequence.Sequence,
	model *alignment.ScoringModel, opts Options) ([]Hit, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var alignOpts []alignment.Option
	if opts.MemoryLimit > 0 {
		alignOpts = append(alignOpts, alignment.WithMemoryLimit(opts.MemoryLimit))
	}

	hits := make([]Hit, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, q := range queries {
		i, q := i, q
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			start := time.Now()
			hit := Hit{Index: i, Query: q, Strand: Forward}
			var err error
			if opts.BothStrands {
				var reverse bool
				hit.Result, reverse, err = alignment.AlignBothStrands(q, reference, model, alignOpts...)
				if reverse {
					hit.Strand = Reverse
				}
			} else {
				hit.Result, err = alignment.Align(q, reference, model, alignOpts...)
			}
			if err != nil {
				return fmt.Errorf("query %s: %w", hit.QueryID(), err)
			}

			hits[i] = hit
			if opts.OnDone != nil {
				opts.OnDone(time.Since(start))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// the loop may have stopped early without any worker failing
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return hits, nil
}

// Filter returns the hits scoring at least minScore.
func Filter(hits []Hit, minScore int64) []Hit {
	out := make([]Hit, 0, len(hits))
	for _, h := range hits {
		if h.Result.Score >= minScore {
			out = append(out, h)
		}
	}
	return out
}
