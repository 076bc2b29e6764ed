package dto

import "github.com/fekuna/cave-storefront/internal/model"

// SubmissionResponse is all a public submitter gets back.
type SubmissionResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func NewSubmissionResponse(in *model.ContactInquiry) SubmissionResponse {
	return SubmissionResponse{ID: in.ID, Status: in.Status}
}
