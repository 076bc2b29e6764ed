package dto

type CreateInquiryInput struct {
	Name        string `json:"name" binding:"required,min=2,max=100"`
	Email       string `json:"email" binding:"required,email,max=254"`
	Phone       string `json:"phone" binding:"max=40"`
	Company     string `json:"company" binding:"max=200"`
	Subject     string `json:"subject" binding:"required,min=3,max=200"`
	Message     string `json:"message" binding:"required,min=10,max=5000"`
	InquiryType string `json:"inquiry_type" binding:"omitempty,oneof=general order product wholesale visit press other"`
	Locale      string `json:"locale" binding:"omitempty,oneof=fr en"`
	Consent     bool   `json:"consent" binding:"required"`
	// Website is a honeypot field hidden from humans.
	Website string `json:"website"`

	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

// UpdateInquiryInput is a partial update; nil fields are left unchanged.
type UpdateInquiryInput struct {
	ID            string  `json:"-"`
	Actor         string  `json:"-"`
	Status        *string `json:"status" binding:"omitempty,oneof=new in_progress waiting_customer resolved closed spam"`
	Priority      *string `json:"priority" binding:"omitempty,oneof=low normal high urgent"`
	AssignedTo    *string `json:"assigned_to" binding:"omitempty,max=100"`
	ResponseNotes *string `json:"response_notes" binding:"omitempty,max=5000"`
	Note          string  `json:"note" binding:"max=1000"`
}

func (in *UpdateInquiryInput) Empty() bool {
	return in.Status == nil && in.Priority == nil && in.AssignedTo == nil && in.ResponseNotes == nil
}
