package inquiry

import "github.com/fekuna/cave-storefront/internal/model"

// CanTransition reports whether staff may move an inquiry from one status to
// another. Closed and spam inquiries can only be reopened to in_progress.
func CanTransition(from, to string) bool {
	if !validStatus(to) {
		return false
	}
	if from == to {
		return true
	}
	switch from {
	case model.InquiryStatusClosed, model.InquiryStatusSpam:
		return to == model.InquiryStatusInProgress
	}
	return to != model.InquiryStatusNew
}

func validStatus(s string) bool {
	for _, st := range model.InquiryStatuses {
		if st == s {
			return true
		}
	}
	return false
}
