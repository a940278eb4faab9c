package handlers

import (
	"net/http"
	"strings"

	"github.com/aria-lang/swalign-go/internal/sequence"
	"github.com/aria-lang/swalign-go/pkg/swalign"
)

// ScoringResponse describes the default scoring model.
type ScoringResponse struct {
	GapOpen   int    `json:"gap_open"`
	GapExtend int    `json:"gap_extend"`
	TieBreak  string `json:"tie_break"`
	Match     int8   `json:"match"`
	Mismatch  int8   `json:"mismatch"`
	MaxScore  int8   `json:"max_score"`
}

// DefaultScoringHandler returns the default scoring parameters.
func DefaultScoringHandler(w http.ResponseWriter, r *http.Request) {
	m := swalign.DefaultScoring()
	writeJSON(w, http.StatusOK, ScoringResponse{
		GapOpen:   m.GapOpen,
		GapExtend: m.GapExtend,
		TieBreak:  m.TieBreak.String(),
		Match:     m.Score('A', 'A'),
		Mismatch:  m.Score('A', 'C'),
		MaxScore:  m.MaxScore(),
	})
}

// PairScoreRequest asks for the score of one base pair.
type PairScoreRequest struct {
	Query     string `json:"query"`
	Reference string `json:"reference"`
}

// PairScoreResponse represents the response for a pair score.
type PairScoreResponse struct {
	Query     string `json:"query"`
	Reference string `json:"reference"`
	Score     int8   `json:"score"`
}

func parseBase(s string) (byte, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 1 || !sequence.IsValidBase(s[0]) {
		return 0, false
	}
	return s[0], true
}

// PairScoreHandler looks up the default score for a base pair.
func PairScoreHandler(w http.ResponseWriter, r *http.Request) {
	var req PairScoreRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	q, ok := parseBase(req.Query)
	if !ok {
		writeError(w, http.StatusBadRequest, "query: expected a single IUPAC base")
		return
	}
	ref, ok := parseBase(req.Reference)
	if !ok {
		writeError(w, http.StatusBadRequest, "reference: expected a single IUPAC base")
		return
	}

	writeJSON(w, http.StatusOK, PairScoreResponse{
		Query:     string(q),
		Reference: string(ref),
		Score:     swalign.DefaultScoring().Score(q, ref),
	})
}
