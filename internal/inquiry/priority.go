package inquiry

import (
	"strings"

	"github.com/fekuna/cave-storefront/internal/model"
)

var basePriority = map[string]string{
	model.InquiryTypeOrder:     model.PriorityHigh,
	model.InquiryTypeWholesale: model.PriorityNormal,
	model.InquiryTypePress:     model.PriorityNormal,
	model.InquiryTypeProduct:   model.PriorityNormal,
	model.InquiryTypeGeneral:   model.PriorityNormal,
	model.InquiryTypeVisit:     model.PriorityLow,
	model.InquiryTypeOther:     model.PriorityLow,
}

var urgentWords = []string{"urgent", "urgence", "asap", "au plus vite"}

// DerivePriority maps the inquiry type to a priority and raises it one
// level when the message asks for urgency.
func DerivePriority(inquiryType, subject, message string) string {
	p, ok := basePriority[inquiryType]
	if !ok {
		p = model.PriorityNormal
	}
	text := strings.ToLower(subject + " " + message)
	for _, w := range urgentWords {
		if strings.Contains(text, w) {
			return raise(p)
		}
	}
	return p
}

func raise(p string) string {
	for i, candidate := range model.InquiryPriorities {
		if candidate == p && i+1 < len(model.InquiryPriorities) {
			return model.InquiryPriorities[i+1]
		}
	}
	return p
}
