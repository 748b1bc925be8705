package waitlist

//go:generate mockgen -source=repository.go -destination=mock_repository_test.go -package=waitlist

import (
	"context"

	"github.com/campuscabs/waitlist/internal/models"
	apperrors "github.com/campuscabs/waitlist/pkg/errors"
	"gorm.io/gorm"
)

type ReceiptRepository interface {
	// CreateReceipt stores a receipt for a submission the hosted store accepted.
	CreateReceipt(ctx context.Context, receipt *models.WaitlistReceipt) error
	// CountByRole returns the number of receipts per role.
	CountByRole(ctx context.Context) (map[Role]int64, error)
}

type receiptRepository struct {
	db *gorm.DB
}

func NewReceiptRepository(db *gorm.DB) ReceiptRepository {
	return &receiptRepository{db: db}
}

func (rr *receiptRepository) CreateReceipt(ctx context.Context, receipt *models.WaitlistReceipt) error {
	if err := rr.db.WithContext(ctx).Create(receipt).Error; err != nil {
		return apperrors.NewDatabaseError("unable to record waitlist receipt", err)
	}

	return nil
}

func (rr *receiptRepository) CountByRole(ctx context.Context) (map[Role]int64, error) {
	var rows []struct {
		Role  string
		Total int64
	}

	err := rr.db.WithContext(ctx).
		Model(&models.WaitlistReceipt{}).
		Select("role, count(*) as total").
		Group("role").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.NewDatabaseError("unable to count waitlist receipts", err)
	}

	counts := map[Role]int64{RoleRider: 0, RoleDriver: 0}
	for _, row := range rows {
		counts[Role(row.Role)] = row.Total
	}

	return counts, nil
}
