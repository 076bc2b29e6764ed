package inquiry

import (
	"context"
	"time"

	"github.com/fekuna/cave-storefront/internal/inquiry/dto"
	"github.com/fekuna/cave-storefront/internal/model"
)

type Repository interface {
	Create(ctx context.Context, in *model.ContactInquiry) error
	FindByID(ctx context.Context, id string) (*model.ContactInquiry, error)
	FindAll(ctx context.Context, filters *dto.InquiryFilters) ([]model.ContactInquiry, int, error)
	Update(ctx context.Context, in *model.ContactInquiry) error
	Delete(ctx context.Context, id string) (bool, error)
	Statistics(ctx context.Context, since time.Time) (*model.InquiryStatistics, error)
}
