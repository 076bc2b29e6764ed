package inquiry

import (
	"context"

	"github.com/fekuna/cave-storefront/internal/inquiry/dto"
	"github.com/fekuna/cave-storefront/internal/model"
)

type UseCase interface {
	Submit(ctx context.Context, input *dto.CreateInquiryInput) (*model.ContactInquiry, error)
	ListInquiries(ctx context.Context, filters *dto.InquiryFilters) ([]model.ContactInquiry, int, error)
	GetInquiry(ctx context.Context, id string) (*model.ContactInquiry, error)
	UpdateInquiry(ctx context.Context, input *dto.UpdateInquiryInput) (*model.ContactInquiry, error)
	DeleteInquiry(ctx context.Context, id string) error
	Anonymize(ctx context.Context, id, actor string) (*model.ContactInquiry, error)
	Statistics(ctx context.Context) (*model.InquiryStatistics, error)
}
