package alignment

import (
	"errors"
	"fmt"
	"math"

	"github.com/aria-lang/swalign-go/internal/sequence"
)

// OutOfMemoryScore is the score reported alongside ErrOutOfMemory. It is
// the only negative score Align ever returns.
const OutOfMemoryScore = -1

var (
	// ErrOutOfMemory is returned when the rolling rows cannot be allocated
	// within the configured memory limit.
	ErrOutOfMemory = errors.New("alignment: out of memory for DP rows")
	// ErrNilInput is returned when a sequence or the model is nil.
	ErrNilInput = errors.New("alignment: nil sequence or scoring model")
	// ErrInvalidTieOrder is returned for a TieOrder outside the defined set.
	ErrInvalidTieOrder = errors.New("alignment: invalid tie order")
)

// Result is the best local alignment between a query and a reference.
//
// Coordinates are 0-indexed, inclusive and relative to the whole sequence,
// not the alignment window. A zero Score means no cell rose above the
// floor; the coordinates then point at the window starts.
type Result struct {
	Score      int64
	RefStart   int
	RefEnd     int
	QueryStart int
	QueryEnd   int
}

// Aligned reports whether a positive scoring alignment was found.
func (r Result) Aligned() bool {
	return r.Score > 0
}

// RefLen returns the number of reference bases covered.
func (r Result) RefLen() int {
	if !r.Aligned() {
		return 0
	}
	return r.RefEnd - r.RefStart + 1
}

// QueryLen returns the number of query bases covered.
func (r Result) QueryLen() int {
	if !r.Aligned() {
		return 0
	}
	return r.QueryEnd - r.QueryStart + 1
}

func (r Result) String() string {
	return fmt.Sprintf("Result { score: %d, ref: %d-%d, query: %d-%d }",
		r.Score, r.RefStart, r.RefEnd, r.QueryStart, r.QueryEnd)
}

// Option configures a single Align call.
type Option func(*settings)

type settings struct {
	memoryLimit int64
	visit       func(q, r int, score int64, dir AlignDirection)
}

// WithMemoryLimit caps the bytes Align may allocate for its rolling rows.
// A limit of zero or less means no cap.
func WithMemoryLimit(bytes int64) Option {
	return func(s *settings) {
		s.memoryLimit = bytes
	}
}

// withVisitor calls fn for every cell once its final value is known.
func withVisitor(fn func(q, r int, score int64, dir AlignDirection)) Option {
	return func(s *settings) {
		s.visit = fn
	}
}

// rowCellBytes is the footprint of one reference column: a score, a
// direction and two origin indexes.
const rowCellBytes = 8 + 1 + 8 + 8

// BufferBytes returns the bytes Align allocates for a reference window of
// refLen bases. It does not depend on the query length.
func BufferBytes(refLen int) int64 {
	return int64(refLen+1) * rowCellBytes
}

// rows are the rolling DP buffers. origin and prevOrigin are swapped after
// every query row; score and dir are updated in place.
type rows struct {
	score      []int64
	dir        []AlignDirection
	origin     []int
	prevOrigin []int
}

func allocRows(refLen int, limit int64) (*rows, error) {
	width := refLen + 1
	if width <= 0 || int64(width) > math.MaxInt64/rowCellBytes {
		return nil, ErrOutOfMemory
	}
	if limit > 0 && BufferBytes(refLen) > limit {
		return nil, ErrOutOfMemory
	}

	return &rows{
		score:      make([]int64, width),
		dir:        make([]AlignDirection, width),
		origin:     make([]int, width),
		prevOrigin: make([]int, width),
	}, nil
}

// Align finds the best local alignment of query against reference inside
// their alignment windows.
//
// Working memory is proportional to the reference window only. Neither
// sequence is modified, and the model is only read, so concurrent calls
// may share one model. On ErrOutOfMemory the returned Result carries
// OutOfMemoryScore.
func Align(query, reference *sequence.Sequence, model *ScoringModel, opts ...Option) (Result, error) {
	if query == nil || reference == nil || model == nil {
		return Result{}, ErrNilInput
	}
	if !model.TieBreak.Valid() {
		return Result{}, ErrInvalidTieOrder
	}
	if err := query.CheckWindow(); err != nil {
		return Result{}, fmt.Errorf("query: %w", err)
	}
	if err := reference.CheckWindow(); err != nil {
		return Result{}, fmt.Errorf("reference: %w", err)
	}

	var cfg settings
	for _, opt := range opts {
		opt(&cfg)
	}

	q, r := query.Aligned(), reference.Aligned()
	if len(q) > math.MaxInt/len(r) {
		return Result{Score: OutOfMemoryScore}, ErrOutOfMemory
	}

	buf, err := allocRows(len(r), cfg.memoryLimit)
	if err != nil {
		return Result{Score: OutOfMemoryScore}, err
	}

	best := sweep(q, r, model, buf, cfg.visit)

	n := len(r)
	return Result{
		Score:      best.score,
		QueryStart: best.start/n + query.Offset,
		RefStart:   best.start%n + reference.Offset,
		QueryEnd:   best.end/n + query.Offset,
		RefEnd:     best.end%n + reference.Offset,
	}, nil
}

// bestCell is the running best of a sweep. start and end are packed
// q*len(ref)+r indexes into the window.
type bestCell struct {
	score int64
	start int
	end   int
}

// sweep runs the DP row by row, query outer and reference inner.
//
// Column 0 of each buffer is the boundary column; reference base r lives
// in column r+1. Before a row is processed, score and dir hold the previous
// row, and they are overwritten left to right so the cell above is read
// before it is replaced.
func sweep(query, ref []byte, model *ScoringModel, buf *rows, visit func(q, r int, score int64, dir AlignDirection)) bestCell {
	n := len(ref)
	score, dir := buf.score, buf.dir
	origin, prevOrigin := buf.origin, buf.prevOrigin

	var best bestCell
	table := &model.table
	order := model.TieBreak

	for qi, qb := range query {
		row := &table[qb&sequence.IndexMask]

		// diagonal and left predecessors start on the boundary
		var diagScore, leftScore int64
		diagDir, leftDir := Stop, Stop
		base := qi * n

		for ri, rb := range ref {
			j := ri + 1
			upScore, upDir := score[j], dir[j]

			snp := diagScore + int64(row[rb&sequence.IndexMask])
			del := leftScore + model.gapPenalty(leftDir)
			ins := upScore + model.gapPenalty(upDir)

			here := base + ri
			c := cell{origin: here}
			c.score, c.dir = order.choose(snp, ins, del)

			switch c.dir {
			case Deletion:
				if leftDir != Stop {
					c.origin = origin[j-1]
				}
			case Insertion:
				if upDir != Stop {
					c.origin = prevOrigin[j]
				}
			case SNP:
				if diagDir != Stop {
					c.origin = prevOrigin[j-1]
				}
			}
			c = c.floor(here)

			diagScore, diagDir = upScore, upDir
			leftScore, leftDir = c.score, c.dir
			score[j], dir[j], origin[j] = c.score, c.dir, c.origin

			if c.score > best.score {
				best = bestCell{score: c.score, start: c.origin, end: here}
			}
			if visit != nil {
				visit(qi, ri, c.score, c.dir)
			}
		}

		origin, prevOrigin = prevOrigin, origin
	}

	return best
}

// cell is one DP entry. score, dir and origin always change together.
type cell struct {
	score  int64
	dir    AlignDirection
	origin int
}

// floor resets a non-positive cell to a fresh start at here.
func (c cell) floor(here int) cell {
	if c.score <= 0 {
		return cell{score: 0, dir: Stop, origin: here}
	}
	return c
}

// ScoreOnly returns just the best local alignment score.
func ScoreOnly(query, reference *sequence.Sequence, model *ScoringModel, opts ...Option) (int64, error) {
	res, err := Align(query, reference, model, opts...)
	return res.Score, err
}

// AlignBothStrands aligns query and its reverse complement against
// reference and returns the better result. reverse is true when the
// reverse complement won; the forward strand wins ties. Coordinates of a
// reverse hit are on the reverse complemented query.
func AlignBothStrands(query, reference *sequence.Sequence, model *ScoringModel, opts ...Option) (res Result, reverse bool, err error) {
	fwd, err := Align(query, reference, model, opts...)
	if err != nil {
		return fwd, false, err
	}

	rev, err := Align(query.ReverseComplement(), reference, model, opts...)
	if err != nil {
		return rev, true, err
	}

	if rev.Score > fwd.Score {
		return rev, true, nil
	}
	return fwd, false, nil
}
