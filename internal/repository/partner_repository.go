package repository

import (
	"context"
	"errors"

	"partner-office/internal/apperr"
	"partner-office/internal/models"

	"gorm.io/gorm"
)

// PartnerRepository is the storage adapter over the partners collection.
type PartnerRepository struct {
	db *gorm.DB
}

func NewPartnerRepository(db *gorm.DB) *PartnerRepository {
	return &PartnerRepository{db: db}
}

// Create inserts a new partner row. Codes are stored in canonical form.
func (r *PartnerRepository) Create(ctx context.Context, partner *models.Partner) error {
	partner.UniqueCode = models.NormalizeCode(partner.UniqueCode)
	if partner.ReferrerCode != nil {
		normalized := models.NormalizeCode(*partner.ReferrerCode)
		partner.ReferrerCode = &normalized
	}
	return r.db.WithContext(ctx).Create(partner).Error
}

// GetByCode retrieves a partner by unique code (case-insensitive)
func (r *PartnerRepository) GetByCode(ctx context.Context, code string) (*models.Partner, error) {
	var partner models.Partner
	err := r.db.WithContext(ctx).
		Where("unique_code = ?", models.NormalizeCode(code)).
		First(&partner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundf("partner %s", code)
	}
	if err != nil {
		return nil, err
	}
	return &partner, nil
}

// GetByID retrieves a partner by its stable id
func (r *PartnerRepository) GetByID(ctx context.Context, id uint) (*models.Partner, error) {
	var partner models.Partner
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&partner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundf("partner %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &partner, nil
}

// ChildrenOf retrieves all partners whose referrer code is in codes.
// This is the "children of code" query the per-level BFS is built on.
func (r *PartnerRepository) ChildrenOf(ctx context.Context, codes []string) ([]models.Partner, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	normalized := make([]string, 0, len(codes))
	for _, code := range codes {
		normalized = append(normalized, models.NormalizeCode(code))
	}

	var children []models.Partner
	err := r.db.WithContext(ctx).
		Where("referrer_code IN ?", normalized).
		Find(&children).Error
	if err != nil {
		return nil, err
	}
	return children, nil
}

// SupportsRecursiveResolve reports whether the connected storage can run the
// batched recursive descendant query.
func (r *PartnerRepository) SupportsRecursiveResolve() bool {
	return r.db.Dialector.Name() == "postgres"
}

// DescendantCodes runs a single recursive query producing the set of codes
// reachable from root by following child edges, root included. UNION (not
// UNION ALL) deduplicates, which also makes the query terminate on
// cycle-corrupted edges.
func (r *PartnerRepository) DescendantCodes(ctx context.Context, root string) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).Raw(`
		WITH RECURSIVE subtree AS (
			SELECT unique_code FROM partners WHERE unique_code = ?
			UNION
			SELECT p.unique_code FROM partners p
			JOIN subtree s ON p.referrer_code = s.unique_code
		)
		SELECT unique_code FROM subtree`,
		models.NormalizeCode(root)).
		Scan(&codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}

// All retrieves every partner, ordered by code
func (r *PartnerRepository) All(ctx context.Context) ([]models.Partner, error) {
	var partners []models.Partner
	err := r.db.WithContext(ctx).Order("unique_code ASC").Find(&partners).Error
	if err != nil {
		return nil, err
	}
	return partners, nil
}
