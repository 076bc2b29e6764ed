package model

import (
	"database/sql/driver"
	"time"
)

const (
	InquiryStatusNew             = "new"
	InquiryStatusInProgress      = "in_progress"
	InquiryStatusWaitingCustomer = "waiting_customer"
	InquiryStatusResolved        = "resolved"
	InquiryStatusClosed          = "closed"
	InquiryStatusSpam            = "spam"
)

var InquiryStatuses = []string{
	InquiryStatusNew, InquiryStatusInProgress, InquiryStatusWaitingCustomer,
	InquiryStatusResolved, InquiryStatusClosed, InquiryStatusSpam,
}

const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

var InquiryPriorities = []string{PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent}

const (
	InquiryTypeGeneral   = "general"
	InquiryTypeOrder     = "order"
	InquiryTypeProduct   = "product"
	InquiryTypeWholesale = "wholesale"
	InquiryTypeVisit     = "visit"
	InquiryTypePress     = "press"
	InquiryTypeOther     = "other"
)

type ContactInquiry struct {
	BaseModel
	Name          string        `db:"name" json:"name"`
	Email         string        `db:"email" json:"email"`
	Phone         *string       `db:"phone" json:"phone"`
	Company       *string       `db:"company" json:"company"`
	Subject       string        `db:"subject" json:"subject"`
	Message       string        `db:"message" json:"message"`
	InquiryType   string        `db:"inquiry_type" json:"inquiry_type"`
	Status        string        `db:"status" json:"status"`
	Priority      string        `db:"priority" json:"priority"`
	Locale        string        `db:"locale" json:"locale"`
	SpamScore     int           `db:"spam_score" json:"spam_score"`
	IPAddress     *string       `db:"ip_address" json:"ip_address"`
	UserAgent     *string       `db:"user_agent" json:"user_agent"`
	ConsentGiven  bool          `db:"consent_given" json:"consent_given"`
	AssignedTo    *string       `db:"assigned_to" json:"assigned_to"`
	ResponseNotes *string       `db:"response_notes" json:"response_notes"`
	ProcessingLog ProcessingLog `db:"processing_log" json:"processing_log"`
	AnonymizedAt  *time.Time    `db:"anonymized_at" json:"anonymized_at"`
	ResolvedAt    *time.Time    `db:"resolved_at" json:"resolved_at"`
}

type ProcessingLogEntry struct {
	At     time.Time `json:"at"`
	Actor  string    `json:"actor"`
	Action string    `json:"action"`
	Note   string    `json:"note,omitempty"`
}

// ProcessingLog is the audit trail of an inquiry, stored as a JSONB array.
type ProcessingLog []ProcessingLogEntry

func (l ProcessingLog) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return jsonValue([]ProcessingLogEntry(l))
}

func (l *ProcessingLog) Scan(src any) error {
	return scanJSON(src, l)
}

type InquiryStatistics struct {
	Total                  int            `json:"total"`
	ByStatus               map[string]int `json:"by_status"`
	ByPriority             map[string]int `json:"by_priority"`
	ByType                 map[string]int `json:"by_type"`
	Last30Days             int            `json:"last_30_days"`
	SpamCount              int            `json:"spam_count"`
	AverageResolutionHours *float64       `json:"average_resolution_hours"`
}
