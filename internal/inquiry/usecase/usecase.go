package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/cave-storefront/internal/apperror"
	"github.com/fekuna/cave-storefront/internal/inquiry"
	"github.com/fekuna/cave-storefront/internal/inquiry/dto"
	"github.com/fekuna/cave-storefront/internal/model"
	"github.com/fekuna/cave-storefront/pkg/i18n"
	"github.com/fekuna/cave-storefront/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	actorSystem      = "system"
	anonymizedName   = "Anonymized"
	redactedText     = "[redacted]"
	statisticsWindow = 30 * 24 * time.Hour
)

type Notifier interface {
	InquiryAcknowledgement(ctx context.Context, in *model.ContactInquiry) error
	StaffInquiryAlert(ctx context.Context, in *model.ContactInquiry) error
}

type inquiryUseCase struct {
	repo     inquiry.Repository
	notifier Notifier
	logger   logger.ZapLogger

	now   func() time.Time
	async func(func())
}

// NewInquiryUseCase wires the contact desk. notifier may be nil.
func NewInquiryUseCase(repo inquiry.Repository, notifier Notifier, log logger.ZapLogger) inquiry.UseCase {
	return &inquiryUseCase{
		repo:     repo,
		notifier: notifier,
		logger:   log,
		now:      time.Now,
		async:    func(f func()) { go f() },
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (uc *inquiryUseCase) Submit(ctx context.Context, input *dto.CreateInquiryInput) (*model.ContactInquiry, error) {
	now := uc.now()
	in := &model.ContactInquiry{
		BaseModel:    model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:        optional(input.Phone),
		Company:      optional(input.Company),
		Subject:      strings.TrimSpace(input.Subject),
		Message:      strings.TrimSpace(input.Message),
		InquiryType:  input.InquiryType,
		Locale:       i18n.Normalize(input.Locale),
		IPAddress:    optional(input.IPAddress),
		UserAgent:    optional(input.UserAgent),
		ConsentGiven: input.Consent,
	}
	if in.InquiryType == "" {
		in.InquiryType = model.InquiryTypeGeneral
	}
	if in.Locale == "" {
		in.Locale = i18n.DefaultLocale
	}

	in.SpamScore = inquiry.ScoreSpam(inquiry.SpamInput{
		Email:    in.Email,
		Subject:  in.Subject,
		Message:  in.Message,
		Honeypot: input.Website,
	})
	entry := model.ProcessingLogEntry{At: now, Actor: actorSystem, Action: "created"}
	if inquiry.IsSpam(in.SpamScore) {
		in.Status = model.InquiryStatusSpam
		in.Priority = model.PriorityLow
		entry.Note = fmt.Sprintf("spam score %d", in.SpamScore)
	} else {
		in.Status = model.InquiryStatusNew
		in.Priority = inquiry.DerivePriority(in.InquiryType, in.Subject, in.Message)
	}
	in.ProcessingLog = model.ProcessingLog{entry}

	if err := uc.repo.Create(ctx, in); err != nil {
		return nil, fmt.Errorf("create inquiry: %w", err)
	}
	uc.logger.Info("inquiry received",
		zap.String("inquiry_id", in.ID),
		zap.String("status", in.Status),
		zap.String("priority", in.Priority),
		zap.Int("spam_score", in.SpamScore),
	)

	if in.Status != model.InquiryStatusSpam && uc.notifier != nil {
		snapshot := *in
		uc.async(func() {
			bg := context.WithoutCancel(ctx)
			if err := uc.notifier.StaffInquiryAlert(bg, &snapshot); err != nil {
				uc.logger.Warn("staff alert not sent", zap.String("inquiry_id", snapshot.ID), zap.Error(err))
			}
			if err := uc.notifier.InquiryAcknowledgement(bg, &snapshot); err != nil {
				uc.logger.Warn("acknowledgement not sent", zap.String("inquiry_id", snapshot.ID), zap.Error(err))
			}
		})
	}
	return in, nil
}

func (uc *inquiryUseCase) ListInquiries(ctx context.Context, filters *dto.InquiryFilters) ([]model.ContactInquiry, int, error) {
	items, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("list inquiries: %w", err)
	}
	return items, count, nil
}

func (uc *inquiryUseCase) GetInquiry(ctx context.Context, id string) (*model.ContactInquiry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperror.ErrInquiryNotFound
	}
	in, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get inquiry: %w", err)
	}
	if in == nil {
		return nil, apperror.ErrInquiryNotFound
	}
	return in, nil
}

func (uc *inquiryUseCase) UpdateInquiry(ctx context.Context, input *dto.UpdateInquiryInput) (*model.ContactInquiry, error) {
	if input.Empty() {
		return nil, apperror.Validation("invalid_request", "nothing to update")
	}
	in, err := uc.GetInquiry(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	logEntry := func(action, note string) {
		in.ProcessingLog = append(in.ProcessingLog, model.ProcessingLogEntry{
			At: now, Actor: input.Actor, Action: action, Note: note,
		})
	}

	if input.Status != nil && *input.Status != in.Status {
		if !inquiry.CanTransition(in.Status, *input.Status) {
			return nil, apperror.ErrInvalidStatusChange.WithDetails(map[string]any{
				"from": in.Status,
				"to":   *input.Status,
			})
		}
		logEntry("status_changed", in.Status+" -> "+*input.Status)
		in.Status = *input.Status
		switch in.Status {
		case model.InquiryStatusResolved:
			in.ResolvedAt = &now
		case model.InquiryStatusInProgress, model.InquiryStatusWaitingCustomer:
			in.ResolvedAt = nil
		}
	}
	if input.Priority != nil && *input.Priority != in.Priority {
		logEntry("priority_changed", in.Priority+" -> "+*input.Priority)
		in.Priority = *input.Priority
	}
	if input.AssignedTo != nil {
		assignee := optional(*input.AssignedTo)
		if !sameString(assignee, in.AssignedTo) {
			note := "unassigned"
			if assignee != nil {
				note = *assignee
			}
			logEntry("assigned", note)
			in.AssignedTo = assignee
		}
	}
	if input.ResponseNotes != nil {
		notes := optional(*input.ResponseNotes)
		if !sameString(notes, in.ResponseNotes) {
			logEntry("notes_updated", "")
			in.ResponseNotes = notes
		}
	}
	if note := strings.TrimSpace(input.Note); note != "" {
		logEntry("comment", note)
	}

	in.UpdatedAt = now
	if err := uc.repo.Update(ctx, in); err != nil {
		return nil, fmt.Errorf("update inquiry: %w", err)
	}
	return in, nil
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (uc *inquiryUseCase) DeleteInquiry(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.ErrInquiryNotFound
	}
	deleted, err := uc.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete inquiry: %w", err)
	}
	if !deleted {
		return apperror.ErrInquiryNotFound
	}
	uc.logger.Info("inquiry deleted", zap.String("inquiry_id", id))
	return nil
}

// Anonymize strips personal data and keeps the ticket for statistics.
func (uc *inquiryUseCase) Anonymize(ctx context.Context, id, actor string) (*model.ContactInquiry, error) {
	in, err := uc.GetInquiry(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.AnonymizedAt != nil {
		return nil, apperror.ErrAlreadyAnonymized
	}

	now := uc.now()
	in.Name = anonymizedName
	in.Email = fmt.Sprintf("anonymized-%s@invalid", strings.ReplaceAll(in.ID, "-", "")[:8])
	in.Phone = nil
	in.Company = nil
	in.IPAddress = nil
	in.UserAgent = nil
	in.Message = redactedText
	in.AnonymizedAt = &now
	in.UpdatedAt = now
	in.ProcessingLog = append(in.ProcessingLog, model.ProcessingLogEntry{At: now, Actor: actor, Action: "anonymized"})

	if err := uc.repo.Update(ctx, in); err != nil {
		return nil, fmt.Errorf("anonymize inquiry: %w", err)
	}
	uc.logger.Info("inquiry anonymized", zap.String("inquiry_id", in.ID), zap.String("actor", actor))
	return in, nil
}

func (uc *inquiryUseCase) Statistics(ctx context.Context) (*model.InquiryStatistics, error) {
	stats, err := uc.repo.Statistics(ctx, uc.now().Add(-statisticsWindow))
	if err != nil {
		return nil, fmt.Errorf("inquiry statistics: %w", err)
	}
	return stats, nil
}
