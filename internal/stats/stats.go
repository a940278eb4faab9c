// Package stats summarizes query sets and scan results.
package stats

import (
	"fmt"
	"sort"

	"github.com/aria-lang/swalign-go/internal/batch"
	"github.com/aria-lang/swalign-go/internal/sequence"
)

// SequenceSetStats represents aggregated statistics for multiple sequences.
type SequenceSetStats struct {
	Count          int
	TotalBases     int
	MinLength      int
	MaxLength      int
	MeanLength     float64
	MedianLength   int
	N50            int
	TotalAmbiguous int
}

// FromSequences calculates statistics for a collection of sequences.
func FromSequences(sequences []*sequence.Sequence) (*SequenceSetStats, error) {
	if len(sequences) == 0 {
		return nil, fmt.Errorf("sequence list cannot be empty")
	}

	count := len(sequences)
	lengths := make([]int, count)
	totalBases := 0
	totalAmbiguous := 0

	for i, seq := range sequences {
		lengths[i] = seq.Len()
		totalBases += seq.Len()
		for _, b := range seq.Bases {
			if sequence.IsAmbiguous(sequence.DecodeBase(b)) {
				totalAmbiguous++
			}
		}
	}

	sorted := make([]int, count)
	copy(sorted, lengths)
	sort.Ints(sorted)

	// N50: length at which half of all bases sit in sequences this long or longer
	halfTotal := totalBases / 2
	runningSum := 0
	n50 := sorted[count-1]
	for i := count - 1; i >= 0; i-- {
		runningSum += sorted[i]
		if runningSum >= halfTotal {
			n50 = sorted[i]
			break
		}
	}

	return &SequenceSetStats{
		Count:          count,
		TotalBases:     totalBases,
		MinLength:      sorted[0],
		MaxLength:      sorted[count-1],
		MeanLength:     float64(totalBases) / float64(count),
		MedianLength:   medianInt(sorted),
		N50:            n50,
		TotalAmbiguous: totalAmbiguous,
	}, nil
}

func (s *SequenceSetStats) String() string {
	return fmt.Sprintf(`SequenceSetStats {
  count: %d
  total_bases: %d
  length range: %d - %d
  mean length: %.1f
  median length: %d
  N50: %d
  ambiguous bases: %d
}`, s.Count, s.TotalBases, s.MinLength, s.MaxLength,
		s.MeanLength, s.MedianLength, s.N50, s.TotalAmbiguous)
}

// ScanStats summarizes the hits of a scan. Score figures only count
// queries that aligned.
type ScanStats struct {
	Queries       int
	Aligned       int
	ReverseStrand int
	MinScore      int64
	MaxScore      int64
	MeanScore     float64
	MedianScore   int64
	MeanRefLen    float64
}

// FromHits calculates statistics for a scan.
func FromHits(hits []batch.Hit) *ScanStats {
	s := &ScanStats{Queries: len(hits)}

	var scores []int64
	var refLen int
	for _, h := range hits {
		if !h.Result.Aligned() {
			continue
		}
		s.Aligned++
		if h.Strand == batch.Reverse {
			s.ReverseStrand++
		}
		scores = append(scores, h.Result.Score)
		refLen += h.Result.RefLen()
	}
	if len(scores) == 0 {
		return s
	}

	sort.Slice(scores, func(i, j int) bool { return scores[i] < scores[j] })

	var sum int64
	for _, v := range scores {
		sum += v
	}

	s.MinScore = scores[0]
	s.MaxScore = scores[len(scores)-1]
	s.MeanScore = float64(sum) / float64(len(scores))
	s.MedianScore = scores[len(scores)/2]
	if len(scores)%2 == 0 {
		s.MedianScore = (scores[len(scores)/2-1] + scores[len(scores)/2]) / 2
	}
	s.MeanRefLen = float64(refLen) / float64(len(scores))
	return s
}

// AlignedRatio returns the fraction of queries with a positive score.
func (s *ScanStats) AlignedRatio() float64 {
	if s.Queries == 0 {
		return 0
	}
	return float64(s.Aligned) / float64(s.Queries)
}

func (s *ScanStats) String() string {
	return fmt.Sprintf(`ScanStats {
  queries: %d
  aligned: %d (%.1f%%)
  reverse strand: %d
  score range: %d - %d
  mean score: %.1f
  median score: %d
  mean reference span: %.1f
}`, s.Queries, s.Aligned, s.AlignedRatio()*100, s.ReverseStrand,
		s.MinScore, s.MaxScore, s.MeanScore, s.MedianScore, s.MeanRefLen)
}

func medianInt(sorted []int) int {
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
