package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/aria-lang/swalign-go/pkg/swalign"
)

// AlignmentRequest represents an alignment request. Window bounds are
// inclusive and 0-indexed; omitted bounds cover the whole sequence.
type AlignmentRequest struct {
	Query     string `json:"query"`
	Reference string `json:"reference"`

	QueryOffset *int `json:"query_offset,omitempty"`
	QueryEnd    *int `json:"query_end,omitempty"`
	RefOffset   *int `json:"ref_offset,omitempty"`
	RefEnd      *int `json:"ref_end,omitempty"`

	ScoringParams
}

// ScoringParams override the default scoring model.
type ScoringParams struct {
	GapOpen   *int   `json:"gap_open,omitempty"`
	GapExtend *int   `json:"gap_extend,omitempty"`
	TieBreak  string `json:"tie_break,omitempty"`
}

// model builds the scoring model for a request.
func (p ScoringParams) model() (*swalign.ScoringModel, error) {
	m := swalign.DefaultScoring()
	if p.GapOpen != nil {
		m.GapOpen = *p.GapOpen
	}
	if p.GapExtend != nil {
		m.GapExtend = *p.GapExtend
	}
	if m.GapOpen > 0 || m.GapExtend > 0 {
		return nil, fmt.Errorf("gap penalties must not be positive, got open %d extend %d", m.GapOpen, m.GapExtend)
	}
	if p.TieBreak != "" {
		order, err := swalign.ParseTieOrder(p.TieBreak)
		if err != nil {
			return nil, err
		}
		m.TieBreak = order
	}
	return m, nil
}

// AlignmentResponse represents the response for alignment.
type AlignmentResponse struct {
	Score      int64 `json:"score"`
	Aligned    bool  `json:"aligned"`
	QueryStart int   `json:"query_start"`
	QueryEnd   int   `json:"query_end"`
	RefStart   int   `json:"ref_start"`
	RefEnd     int   `json:"ref_end"`
}

func newAlignmentResponse(res swalign.Result) AlignmentResponse {
	return AlignmentResponse{
		Score:      res.Score,
		Aligned:    res.Aligned(),
		QueryStart: res.QueryStart,
		QueryEnd:   res.QueryEnd,
		RefStart:   res.RefStart,
		RefEnd:     res.RefEnd,
	}
}

func setWindow(seq *swalign.Sequence, offset, end *int) error {
	if offset == nil && end == nil {
		return nil
	}
	o, e := seq.Window()
	if offset != nil {
		o = *offset
	}
	if end != nil {
		e = *end
	}
	return seq.SetWindow(o, e)
}

// LocalAlignHandler handles local alignment requests.
func LocalAlignHandler(w http.ResponseWriter, r *http.Request) {
	var req AlignmentRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	query, err := swalign.NewSequence(req.Query)
	if err != nil {
		writeError(w, http.StatusBadRequest, "query: "+err.Error())
		return
	}
	if err := setWindow(query, req.QueryOffset, req.QueryEnd); err != nil {
		writeError(w, http.StatusBadRequest, "query: "+err.Error())
		return
	}

	ref, err := swalign.NewSequence(req.Reference)
	if err != nil {
		writeError(w, http.StatusBadRequest, "reference: "+err.Error())
		return
	}
	if err := setWindow(ref, req.RefOffset, req.RefEnd); err != nil {
		writeError(w, http.StatusBadRequest, "reference: "+err.Error())
		return
	}
	if cells(query, ref) > MaxAlignmentCells {
		writeError(w, http.StatusRequestEntityTooLarge, "alignment too large")
		return
	}

	model, err := req.model()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := swalign.AlignWithScoring(query, ref, model, swalign.WithMemoryLimit(MaxAlignmentMemory))
	if errors.Is(err, swalign.ErrOutOfMemory) {
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, newAlignmentResponse(res))
}

// ScanQuery is one query of a scan request.
type ScanQuery struct {
	ID       string `json:"id,omitempty"`
	Sequence string `json:"sequence"`
}

// ScanRequest aligns several queries against one reference.
type ScanRequest struct {
	Reference   string      `json:"reference"`
	Queries     []ScanQuery `json:"queries"`
	BothStrands bool        `json:"both_strands,omitempty"`
	MinScore    int64       `json:"min_score,omitempty"`

	ScoringParams
}

// ScanHit is the best alignment of one query.
type ScanHit struct {
	Index  int    `json:"index"`
	ID     string `json:"id"`
	Strand string `json:"strand"`
	AlignmentResponse
}

// ScanSummary summarizes a scan.
type ScanSummary struct {
	Queries   int     `json:"queries"`
	Aligned   int     `json:"aligned"`
	MaxScore  int64   `json:"max_score"`
	MeanScore float64 `json:"mean_score"`
}

// ScanResponse represents the response for a scan.
type ScanResponse struct {
	Hits    []ScanHit   `json:"hits"`
	Summary ScanSummary `json:"summary"`
}

// ScanHandler handles batch alignment requests.
func ScanHandler(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	ref, err := swalign.NewSequence(req.Reference)
	if err != nil {
		writeError(w, http.StatusBadRequest, "reference: "+err.Error())
		return
	}
	if len(req.Queries) == 0 {
		writeError(w, http.StatusBadRequest, "queries cannot be empty")
		return
	}
	if len(req.Queries) > MaxScanQueries {
		writeError(w, http.StatusRequestEntityTooLarge, "too many queries")
		return
	}

	queries := make([]*swalign.Sequence, 0, len(req.Queries))
	for i, q := range req.Queries {
		seq, err := swalign.NewSequence(q.Sequence)
		if err != nil {
			writeError(w, http.StatusBadRequest, "queries["+strconv.Itoa(i)+"]: "+err.Error())
			return
		}
		seq.ID = q.ID
		queries = append(queries, seq)
	}

	var total int64
	for _, q := range queries {
		total += cells(q, ref)
	}
	if req.BothStrands {
		total *= 2
	}
	if total > MaxAlignmentCells {
		writeError(w, http.StatusRequestEntityTooLarge, "scan too large")
		return
	}

	model, err := req.model()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hits, err := swalign.Scan(r.Context(), ref, queries, model, swalign.ScanOptions{
		BothStrands: req.BothStrands,
		MemoryLimit: MaxAlignmentMemory,
	})
	if errors.Is(err, swalign.ErrOutOfMemory) {
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	summary := swalign.Summarize(hits)
	resp := ScanResponse{
		Hits: make([]ScanHit, 0, len(hits)),
		Summary: ScanSummary{
			Queries:   summary.Queries,
			Aligned:   summary.Aligned,
			MaxScore:  summary.MaxScore,
			MeanScore: summary.MeanScore,
		},
	}
	for _, h := range hits {
		if h.Result.Score < req.MinScore {
			continue
		}
		resp.Hits = append(resp.Hits, ScanHit{
			Index:             h.Index,
			ID:                h.QueryID(),
			Strand:            h.Strand.String(),
			AlignmentResponse: newAlignmentResponse(h.Result),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// cells is the number of DP cells an alignment of the two windows fills.
func cells(query, ref *swalign.Sequence) int64 {
	return int64(query.WindowLen()) * int64(ref.WindowLen())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
