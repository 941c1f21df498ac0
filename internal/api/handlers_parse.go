package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/cvparse/internal/extract"
	"github.com/dgallion1/cvparse/internal/followup"
	"github.com/dgallion1/cvparse/internal/pipeline"
)

const maxRequestBytes = 1 << 20

const parseSuccessMessage = "CV parsed, Stored, and webhook sent successfully"

// parseRequest accepts both the current field names and the older
// snake_case / cloudinaryUrl ones.
type parseRequest struct {
	DocumentURL    string `json:"documentUrl"`
	Status         string `json:"status"`
	ApplicantName  string `json:"applicantName"`
	ApplicantEmail string `json:"applicantEmail"`

	CloudinaryURL        string `json:"cloudinaryUrl"`
	LegacyApplicantName  string `json:"applicant_name"`
	LegacyApplicantEmail string `json:"applicant_email"`
}

func (req parseRequest) submission() pipeline.Submission {
	sub := pipeline.Submission{
		DocumentURL:    req.DocumentURL,
		Status:         req.Status,
		ApplicantName:  req.ApplicantName,
		ApplicantEmail: req.ApplicantEmail,
	}
	if sub.DocumentURL == "" {
		sub.DocumentURL = req.CloudinaryURL
	}
	if sub.ApplicantName == "" {
		sub.ApplicantName = req.LegacyApplicantName
	}
	if sub.ApplicantEmail == "" {
		sub.ApplicantEmail = req.LegacyApplicantEmail
	}
	return sub
}

type parseResponse struct {
	Message  string                 `json:"message"`
	Data     extract.Record         `json:"data"`
	FollowUp *followup.TaskSnapshot `json:"followUp,omitempty"`
}

func (s *Server) handleParseCV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.processor.Process(r.Context(), req.submission())
	if err != nil {
		s.writeProcessError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(parseResponse{
		Message:  parseSuccessMessage,
		Data:     res.Record,
		FollowUp: res.FollowUp,
	})
}

// writeProcessError maps pipeline errors to HTTP responses.
func (s *Server) writeProcessError(w http.ResponseWriter, err error) {
	if errors.Is(err, pipeline.ErrInvalidInput) {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.log.Error("parse-cv failed", "error", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   "Failed to parse CV",
		"details": err.Error(),
	})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
