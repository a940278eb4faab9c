package alignment

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/aria-lang/swalign-go/internal/sequence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// simpleModel scores A, C, G and T with a flat match/mismatch scheme.
func simpleModel(match, mismatch int8, gapOpen, gapExtend int) *ScoringModel {
	m := NewScoringModel(gapOpen, gapExtend)
	for _, q := range []byte("ACGT") {
		for _, r := range []byte("ACGT") {
			if q == r {
				m.SetScore(q, r, match)
			} else {
				m.SetScore(q, r, mismatch)
			}
		}
	}
	return m
}

func mustSeq(t testing.TB, bases string) *sequence.Sequence {
	t.Helper()
	s, err := sequence.New(bases)
	require.NoError(t, err)
	return s
}

func TestAlignExamples(t *testing.T) {
	model := simpleModel(5, -4, -10, -10)

	tests := []struct {
		name  string
		query string
		ref   string
		want  Result
	}{
		{
			name:  "identical",
			query: "ATCG",
			ref:   "ATCG",
			want:  Result{Score: 20, RefStart: 0, RefEnd: 3, QueryStart: 0, QueryEnd: 3},
		},
		{
			name:  "all mismatches",
			query: "AAAA",
			ref:   "TTTT",
			want:  Result{Score: 0},
		},
		{
			name:  "mismatch cheaper than a gap",
			query: "ACGTACGTAC",
			ref:   "ACGTAGGTAC",
			want:  Result{Score: 41, RefStart: 0, RefEnd: 9, QueryStart: 0, QueryEnd: 9},
		},
		{
			name:  "query inside reference",
			query: "GATTACA",
			ref:   "CCCCGATTACACCCC",
			want:  Result{Score: 35, RefStart: 4, RefEnd: 10, QueryStart: 0, QueryEnd: 6},
		},
		{
			name:  "reference inside query",
			query: "TTTTACGTTTTT",
			ref:   "GACGTG",
			want:  Result{Score: 20, RefStart: 1, RefEnd: 4, QueryStart: 4, QueryEnd: 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Align(mustSeq(t, tt.query), mustSeq(t, tt.ref), model)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res)
		})
	}
}

func TestAlignNoAlignment(t *testing.T) {
	res, err := Align(mustSeq(t, "AAAA"), mustSeq(t, "TTTT"), DefaultDNA())
	require.NoError(t, err)
	assert.Zero(t, res.Score)
	assert.False(t, res.Aligned())
	assert.Zero(t, res.RefLen())
	assert.Zero(t, res.QueryLen())
}

func TestAlignSelf(t *testing.T) {
	model := DefaultDNA()
	for _, bases := range []string{"A", "GATTACA", "ACGTTGCAACGTGGCCTTAAGC"} {
		t.Run(bases, func(t *testing.T) {
			s := mustSeq(t, bases)
			res, err := Align(s, s, model)
			require.NoError(t, err)

			assert.Equal(t, int64(5*len(bases)), res.Score)
			assert.Equal(t, 0, res.QueryStart)
			assert.Equal(t, 0, res.RefStart)
			assert.Equal(t, len(bases)-1, res.QueryEnd)
			assert.Equal(t, len(bases)-1, res.RefEnd)
			assert.Equal(t, len(bases), res.RefLen())
		})
	}
}

func TestAlignWithGap(t *testing.T) {
	// a one base deletion in the query costs less than the matches it keeps
	model := simpleModel(5, -4, -6, -1)
	res, err := Align(mustSeq(t, "ACGTACGTAAAACGTACGTA"), mustSeq(t, "ACGTACGTAAGAACGTACGTA"), model)
	require.NoError(t, err)

	assert.Equal(t, int64(20*5-6), res.Score)
	assert.Equal(t, 0, res.QueryStart)
	assert.Equal(t, 19, res.QueryEnd)
	assert.Equal(t, 0, res.RefStart)
	assert.Equal(t, 20, res.RefEnd)
}

func TestAlignWindows(t *testing.T) {
	model := DefaultDNA()

	t.Run("query window", func(t *testing.T) {
		q := mustSeq(t, "TTTTACGTTTTT")
		require.NoError(t, q.SetWindow(4, 7))
		res, err := Align(q, mustSeq(t, "GGACGTGG"), model)
		require.NoError(t, err)
		assert.Equal(t, Result{Score: 20, RefStart: 2, RefEnd: 5, QueryStart: 4, QueryEnd: 7}, res)
	})

	t.Run("reference window skips earlier copy", func(t *testing.T) {
		ref := mustSeq(t, "ACGTACGT")
		require.NoError(t, ref.SetWindow(4, 7))
		res, err := Align(mustSeq(t, "ACGT"), ref, model)
		require.NoError(t, err)
		assert.Equal(t, Result{Score: 20, RefStart: 4, RefEnd: 7, QueryStart: 0, QueryEnd: 3}, res)
	})

	t.Run("no alignment reports window starts", func(t *testing.T) {
		q := mustSeq(t, "GGAAAA")
		require.NoError(t, q.SetWindow(2, 5))
		ref := mustSeq(t, "CCTTTT")
		require.NoError(t, ref.SetWindow(1, 5))
		res, err := Align(q, ref, model)
		require.NoError(t, err)
		assert.Equal(t, Result{Score: 0, RefStart: 1, RefEnd: 1, QueryStart: 2, QueryEnd: 2}, res)
	})

	t.Run("coordinates stay inside windows", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		for i := 0; i < 50; i++ {
			q := randomSeq(t, rng, 5+rng.Intn(30), "ACGT")
			r := randomSeq(t, rng, 5+rng.Intn(30), "ACGT")
			qOff := rng.Intn(q.Len())
			rOff := rng.Intn(r.Len())
			require.NoError(t, q.SetWindow(qOff, qOff+rng.Intn(q.Len()-qOff)))
			require.NoError(t, r.SetWindow(rOff, rOff+rng.Intn(r.Len()-rOff)))

			res, err := Align(q, r, model)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, res.QueryStart, q.Offset)
			assert.LessOrEqual(t, res.QueryEnd, q.EndAln)
			assert.LessOrEqual(t, res.QueryStart, res.QueryEnd)
			assert.GreaterOrEqual(t, res.RefStart, r.Offset)
			assert.LessOrEqual(t, res.RefEnd, r.EndAln)
			assert.LessOrEqual(t, res.RefStart, res.RefEnd)
		}
	})
}

func TestAlignInvalidInput(t *testing.T) {
	model := DefaultDNA()

	t.Run("empty query window", func(t *testing.T) {
		q := mustSeq(t, "ACGT")
		q.Offset, q.EndAln = 3, 2
		_, err := Align(q, mustSeq(t, "ACGT"), model)

		var winErr *sequence.WindowError
		require.ErrorAs(t, err, &winErr)
		assert.Contains(t, err.Error(), "query")
	})

	t.Run("reference window past end", func(t *testing.T) {
		r := mustSeq(t, "ACGT")
		r.EndAln = 4
		_, err := Align(mustSeq(t, "ACGT"), r, model)

		var winErr *sequence.WindowError
		require.ErrorAs(t, err, &winErr)
		assert.Contains(t, err.Error(), "reference")
	})

	t.Run("nil arguments", func(t *testing.T) {
		s := mustSeq(t, "ACGT")
		_, err := Align(nil, s, model)
		assert.ErrorIs(t, err, ErrNilInput)
		_, err = Align(s, nil, model)
		assert.ErrorIs(t, err, ErrNilInput)
		_, err = Align(s, s, nil)
		assert.ErrorIs(t, err, ErrNilInput)
	})

	t.Run("unknown tie order", func(t *testing.T) {
		bad := DefaultDNA()
		bad.TieBreak = TieOrder(9)
		s := mustSeq(t, "ACGT")
		_, err := Align(s, s, bad)
		assert.ErrorIs(t, err, ErrInvalidTieOrder)
	})
}

func TestAlignDoesNotModifyInputs(t *testing.T) {
	q := mustSeq(t, "ACGTNRYACGT")
	r := mustSeq(t, "TTACGTWACGTT")
	qCopy, rCopy := q.Clone(), r.Clone()

	_, err := Align(q, r, DefaultDNA())
	require.NoError(t, err)
	assert.True(t, q.Equal(qCopy))
	assert.True(t, r.Equal(rCopy))
}

func TestAlignEncodedMatchesDecoded(t *testing.T) {
	model := DefaultDNA()
	q := mustSeq(t, "ACGTNRYACGTAAGT")
	r := mustSeq(t, "TTACGTWACGTTAAGTC")

	plain, err := Align(q, r, model)
	require.NoError(t, err)

	q.Encode()
	r.Encode()
	encoded, err := Align(q, r, model)
	require.NoError(t, err)
	assert.Equal(t, plain, encoded)

	lower, err := Align(mustSeq(t, "acgtnryacgtaagt"), mustSeq(t, "ttacgtwacgttaagtc"), model)
	require.NoError(t, err)
	assert.Equal(t, plain, lower)
}

func TestAlignDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	model := DefaultDNA()
	q := randomSeq(t, rng, 120, "ACGTN")
	r := randomSeq(t, rng, 300, "ACGTRY")

	first, err := Align(q, r, model)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Align(q, r, model)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestAlignTieBreakPrefersDeletion(t *testing.T) {
	// At query G (row 1), reference T (column 1) the deletion and insertion
	// values are both 3 and the snp value is 1.
	model := simpleModel(5, -4, -1, -1)
	q, r := mustSeq(t, "AG"), mustSeq(t, "AT")

	tests := []struct {
		order TieOrder
		want  AlignDirection
	}{
		{DelInsSnp, Deletion},
		{InsDelSnp, Insertion},
		{SnpDelIns, Deletion},
		{SnpInsDel, Insertion},
	}

	for _, tt := range tests {
		t.Run(tt.order.String(), func(t *testing.T) {
			model.TieBreak = tt.order

			var gotScore int64
			var gotDir AlignDirection
			_, err := Align(q, r, model, withVisitor(func(qi, ri int, score int64, dir AlignDirection) {
				if qi == 1 && ri == 1 {
					gotScore, gotDir = score, dir
				}
			}))
			require.NoError(t, err)
			assert.Equal(t, int64(3), gotScore)
			assert.Equal(t, tt.want, gotDir)
		})
	}
}

func TestAlignGapOutOfStopStartsFresh(t *testing.T) {
	// A positive gap open makes a gap out of the empty first row worth 2.
	// The insertion at query G, reference C (row 0, column 1) starts there
	// rather than at the origin of the boundary above it.
	model := simpleModel(5, -4, 2, -10)
	q, r := mustSeq(t, "GT"), mustSeq(t, "CCT")

	var dirs [2][3]AlignDirection
	res, err := Align(q, r, model, withVisitor(func(qi, ri int, _ int64, dir AlignDirection) {
		dirs[qi][ri] = dir
	}))
	require.NoError(t, err)
	assert.Equal(t, Insertion, dirs[0][1])
	assert.Equal(t, SNP, dirs[1][2])
	assert.Equal(t, Result{Score: 7, QueryStart: 0, RefStart: 1, QueryEnd: 1, RefEnd: 2}, res)
	assert.Equal(t, fullMatrixAlign(q.Bases, r.Bases, model), res)
}

func TestCellFloor(t *testing.T) {
	tests := []struct {
		name string
		in   cell
		want cell
	}{
		{"negative resets", cell{score: -3, dir: SNP, origin: 7}, cell{score: 0, dir: Stop, origin: 12}},
		{"zero resets", cell{score: 0, dir: Deletion, origin: 4}, cell{score: 0, dir: Stop, origin: 12}},
		{"positive kept", cell{score: 2, dir: Insertion, origin: 4}, cell{score: 2, dir: Insertion, origin: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.floor(12))
		})
	}
}

func TestSweepNeverStoresNegativeScores(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 30; i++ {
		model := randomModel(rng)
		q := randomSeq(t, rng, 1+rng.Intn(40), "ACGTN")
		r := randomSeq(t, rng, 1+rng.Intn(40), "ACGTN")

		cells := 0
		_, err := Align(q, r, model, withVisitor(func(_, _ int, score int64, dir AlignDirection) {
			cells++
			assert.GreaterOrEqual(t, score, int64(0))
			assert.Equal(t, score == 0, dir == Stop)
		}))
		require.NoError(t, err)
		assert.Equal(t, q.Len()*r.Len(), cells)
	}
}

func TestAlignNonNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 100; i++ {
		model := randomModel(rng)
		q := randomSeq(t, rng, 1+rng.Intn(25), "ACGTWSN")
		r := randomSeq(t, rng, 1+rng.Intn(25), "ACGTWSN")

		res, err := Align(q, r, model)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.Score, int64(0))
	}
}

func TestAlignMatchesFullMatrix(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	orders := []TieOrder{DelInsSnp, InsDelSnp, DelSnpIns, InsSnpDel, SnpDelIns, SnpInsDel}

	for i := 0; i < 200; i++ {
		model := randomModel(rng)
		model.TieBreak = orders[i%len(orders)]
		q := randomSeq(t, rng, 1+rng.Intn(30), "ACGT")
		r := randomSeq(t, rng, 1+rng.Intn(30), "ACGT")

		got, err := Align(q, r, model)
		require.NoError(t, err)
		want := fullMatrixAlign(q.Bases, r.Bases, model)
		require.Equal(t, want, got, "query %s ref %s model %s", q.Bases, r.Bases, model)
	}
}

func TestAlignMatchesFullMatrixPositiveGaps(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 100; i++ {
		model := randomModel(rng)
		model.GapOpen = rng.Intn(4)
		model.GapExtend = rng.Intn(7) - 3
		q := randomSeq(t, rng, 1+rng.Intn(20), "ACGT")
		r := randomSeq(t, rng, 1+rng.Intn(20), "ACGT")

		got, err := Align(q, r, model)
		require.NoError(t, err)
		require.Equal(t, fullMatrixAlign(q.Bases, r.Bases, model), got, "query %s ref %s model %s", q.Bases, r.Bases, model)
	}
}

func TestAlignMemoryLimit(t *testing.T) {
	model := DefaultDNA()
	r := mustSeq(t, "ACGTACGTACGTACGTACGT")
	limit := BufferBytes(r.Len())

	t.Run("limit below footprint", func(t *testing.T) {
		res, err := Align(mustSeq(t, "ACGT"), r, model, WithMemoryLimit(limit-1))
		assert.ErrorIs(t, err, ErrOutOfMemory)
		assert.Equal(t, int64(OutOfMemoryScore), res.Score)
	})

	t.Run("footprint independent of query length", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))
		for _, n := range []int{1, 100, 10000} {
			q := randomSeq(t, rng, n, "ACGT")
			res, err := Align(q, r, model, WithMemoryLimit(limit))
			require.NoError(t, err)
			assert.GreaterOrEqual(t, res.Score, int64(0))
		}
	})

	t.Run("allocations independent of query length", func(t *testing.T) {
		rng := rand.New(rand.NewSource(2))
		short := randomSeq(t, rng, 10, "ACGT")
		long := randomSeq(t, rng, 5000, "ACGT")

		shortAllocs := testing.AllocsPerRun(5, func() { _, _ = Align(short, r, model) })
		longAllocs := testing.AllocsPerRun(5, func() { _, _ = Align(long, r, model) })
		assert.Equal(t, shortAllocs, longAllocs)
	})

	t.Run("ScoreOnly reports the sentinel", func(t *testing.T) {
		score, err := ScoreOnly(mustSeq(t, "ACGT"), r, model, WithMemoryLimit(1))
		assert.ErrorIs(t, err, ErrOutOfMemory)
		assert.Equal(t, int64(OutOfMemoryScore), score)
	})
}

func TestBufferBytes(t *testing.T) {
	assert.Equal(t, int64(2*rowCellBytes), BufferBytes(1))
	assert.Equal(t, int64(1001*rowCellBytes), BufferBytes(1000))
}

func TestAlignConcurrentSharedModel(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	model := DefaultDNA()
	ref := randomSeq(t, rng, 200, "ACGT")

	queries := make([]*sequence.Sequence, 16)
	want := make([]Result, len(queries))
	for i := range queries {
		queries[i] = randomSeq(t, rng, 30+i, "ACGTN")
		res, err := Align(queries[i], ref, model)
		require.NoError(t, err)
		want[i] = res
	}

	got := make([]Result, len(queries))
	var wg sync.WaitGroup
	for i := range queries {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], _ = Align(queries[i], ref, model)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, want, got)
}

func TestAlignBothStrands(t *testing.T) {
	model := DefaultDNA()
	ref := mustSeq(t, "TTTTGGATCCAAGCTTTTTT")

	t.Run("forward", func(t *testing.T) {
		res, reverse, err := AlignBothStrands(mustSeq(t, "GGATCCAAG"), ref, model)
		require.NoError(t, err)
		assert.False(t, reverse)
		assert.Equal(t, int64(45), res.Score)
	})

	t.Run("reverse complement", func(t *testing.T) {
		// reverse complement of CCAAGCTT is AAGCTTGG
		res, reverse, err := AlignBothStrands(mustSeq(t, "AAGCTTGG"), ref, model)
		require.NoError(t, err)
		assert.True(t, reverse)
		assert.Equal(t, int64(40), res.Score)
		assert.Equal(t, 8, res.RefStart)
		assert.Equal(t, 15, res.RefEnd)
	})
}

func TestScoreOnly(t *testing.T) {
	score, err := ScoreOnly(mustSeq(t, "ATCG"), mustSeq(t, "ATCG"), DefaultDNA())
	require.NoError(t, err)
	assert.Equal(t, int64(20), score)
}

func TestAlignDirectionString(t *testing.T) {
	assert.Equal(t, "stop", Stop.String())
	assert.Equal(t, "deletion", Deletion.String())
	assert.Equal(t, "insertion", Insertion.String())
	assert.Equal(t, "snp", SNP.String())
	assert.Equal(t, "unknown", AlignDirection(7).String())
}

func randomSeq(t testing.TB, rng *rand.Rand, n int, alphabet string) *sequence.Sequence {
	t.Helper()
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rng.Intn(len(alphabet))]
	}
	s, err := sequence.FromBytes(b)
	require.NoError(t, err)
	return s
}

func randomModel(rng *rand.Rand) *ScoringModel {
	m := NewScoringModel(-1-rng.Intn(8), -1-rng.Intn(3))
	for _, q := range []byte("ACGTWSN") {
		for _, r := range []byte("ACGTWSN") {
			m.SetScore(q, r, int8(rng.Intn(11)-5))
		}
	}
	return m
}

// fullMatrixAlign fills the whole DP matrix and recovers the start of the
// best alignment by walking the direction matrix back from its end.
func fullMatrixAlign(query, ref []byte, model *ScoringModel) Result {
	m, n := len(query), len(ref)

	H := make([][]int64, m+1)
	D := make([][]AlignDirection, m+1)
	for i := range H {
		H[i] = make([]int64, n+1)
		D[i] = make([]AlignDirection, n+1)
	}

	var maxScore int64
	maxI, maxJ := 0, 0
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			snp := H[i-1][j-1] + int64(model.Score(query[i-1], ref[j-1]))
			del := H[i][j-1] + model.gapPenalty(D[i][j-1])
			ins := H[i-1][j] + model.gapPenalty(D[i-1][j])

			best, dir := model.TieBreak.choose(snp, ins, del)
			if best <= 0 {
				best, dir = 0, Stop
			}
			H[i][j], D[i][j] = best, dir

			if best > maxScore {
				maxScore = best
				maxI, maxJ = i, j
			}
		}
	}

	if maxScore == 0 {
		return Result{}
	}

	// walk back until the predecessor is a stop or the boundary
	i, j := maxI, maxJ
	for {
		pi, pj := i, j
		switch D[i][j] {
		case Deletion:
			pj--
		case Insertion:
			pi--
		case SNP:
			pi--
			pj--
		}
		if pi == 0 || pj == 0 || D[pi][pj] == Stop {
			break
		}
		i, j = pi, pj
	}

	return Result{
		Score:      maxScore,
		QueryStart: i - 1,
		RefStart:   j - 1,
		QueryEnd:   maxI - 1,
		RefEnd:     maxJ - 1,
	}
}

func BenchmarkAlign(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	q := randomSeq(b, rng, 500, "ACGT")
	r := randomSeq(b, rng, 2000, "ACGT")
	model := DefaultDNA()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Align(q, r, model)
	}
}
