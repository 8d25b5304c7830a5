package repository

import (
	"context"
	"errors"
	"strings"

	"partner-office/internal/apperr"
	"partner-office/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LeadFilter narrows a scoped lead query. Codes is the policy-approved code
// set; Unrestricted skips the code filter entirely (administrator scope).
type LeadFilter struct {
	Codes        []string
	Unrestricted bool
	Status       string
	Search       string
}

// LeadRepository is the storage adapter over the leads collection.
type LeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

// Create inserts a new lead row
func (r *LeadRepository) Create(ctx context.Context, lead *models.Lead) error {
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	lead.MarketerCode = models.NormalizeCode(lead.MarketerCode)
	return r.db.WithContext(ctx).Create(lead).Error
}

// GetByID retrieves a lead by id
func (r *LeadRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	var lead models.Lead
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&lead).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundf("lead %s", id)
	}
	if err != nil {
		return nil, err
	}
	lead.Status = models.NormalizeStatus(lead.Status)
	return &lead, nil
}

// Query retrieves leads matching the filter, most recent first, with
// 1-indexed offset pagination. The returned total is the filtered but
// unpaginated count.
func (r *LeadRepository) Query(ctx context.Context, filter LeadFilter, page, pageSize int) ([]models.Lead, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var leads []models.Lead
	err := r.filtered(ctx, filter).
		Order("submitted_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&leads).Error
	if err != nil {
		return nil, 0, err
	}

	for i := range leads {
		leads[i].Status = models.NormalizeStatus(leads[i].Status)
	}

	return leads, total, nil
}

// Count counts leads matching the filter
func (r *LeadRepository) Count(ctx context.Context, filter LeadFilter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumQuotedPrice sums the quoted price of leads matching the filter
func (r *LeadRepository) SumQuotedPrice(ctx context.Context, filter LeadFilter) (decimal.Decimal, error) {
	var sum decimal.Decimal
	row := r.filtered(ctx, filter).
		Select("COALESCE(SUM(quoted_price), 0)").Row()
	if err := row.Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// UpdateStatus persists a new status for a single lead. Last write wins;
// there is no version check.
func (r *LeadRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Lead{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.NotFoundf("lead %s", id)
	}
	return nil
}

func (r *LeadRepository) filtered(ctx context.Context, filter LeadFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Lead{})

	if !filter.Unrestricted {
		codes := make([]string, 0, len(filter.Codes))
		for _, code := range filter.Codes {
			codes = append(codes, models.NormalizeCode(code))
		}
		query = query.Where("marketer_code IN ?", codes)
	}

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where(
			"lower(contact_phone) LIKE ? OR lower(install_location) LIKE ?",
			pattern, pattern,
		)
	}

	return query
}
