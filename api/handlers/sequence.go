// Package handlers provides HTTP handlers for the swalign API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aria-lang/swalign-go/pkg/swalign"
)

// Request limits. MaxAlignmentCells bounds the query by reference window
// cells one request may fill.
const (
	MaxBodyBytes       = 8 << 20
	MaxScanQueries     = 10000
	MaxAlignmentMemory = 256 << 20
	MaxAlignmentCells  = 1 << 30
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// decodeRequest reads a JSON body into v. It writes the error response
// and returns false when the body is unusable.
func decodeRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(v)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	writeError(w, http.StatusBadRequest, "invalid request body")
	return false
}

// SequenceRequest represents a request with a sequence.
type SequenceRequest struct {
	Sequence string `json:"sequence"`
}

// ComplementResponse represents the response for complement.
type ComplementResponse struct {
	Complement string `json:"complement"`
}

// ComplementHandler handles complement requests.
func ComplementHandler(w http.ResponseWriter, r *http.Request) {
	var req SequenceRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	seq, err := swalign.NewSequence(req.Sequence)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ComplementResponse{
		Complement: seq.Complement().Text(),
	})
}

// ReverseComplementResponse represents the response for reverse complement.
type ReverseComplementResponse struct {
	ReverseComplement string `json:"reverse_complement"`
}

// ReverseComplementHandler handles reverse complement requests.
func ReverseComplementHandler(w http.ResponseWriter, r *http.Request) {
	var req SequenceRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	seq, err := swalign.NewSequence(req.Sequence)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ReverseComplementResponse{
		ReverseComplement: seq.ReverseComplement().Text(),
	})
}

// ValidateResponse represents validation result.
type ValidateResponse struct {
	Valid   bool   `json:"valid"`
	Length  int    `json:"length,omitempty"`
	Message string `json:"message,omitempty"`
}

// ValidateHandler handles sequence validation requests.
func ValidateHandler(w http.ResponseWriter, r *http.Request) {
	var req SequenceRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	seq, err := swalign.NewSequence(req.Sequence)
	if err != nil {
		writeJSON(w, http.StatusOK, ValidateResponse{
			Valid:   false,
			Message: err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, ValidateResponse{
		Valid:  true,
		Length: seq.Len(),
	})
}
