package listings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrListingNotFound = errors.New("listing not found")

// Repository handles listing persistence
type Repository interface {
	Create(ctx context.Context, listing *Listing) error
	GetByID(ctx context.Context, id uuid.UUID) (*Listing, error)
	Update(ctx context.Context, listing *Listing) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByAgent(ctx context.Context, agentID uuid.UUID) ([]Listing, error)
	Search(ctx context.Context, filters SearchFilters) ([]Listing, int64, error)
	ExpirePublished(ctx context.Context, publishedBefore time.Time) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a listing repository backed by gorm
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, listing *Listing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

func (r *gormRepository) GetByID(ctx context.Context, id uuid.UUID) (*Listing, error) {
	var listing Listing
	err := r.db.WithContext(ctx).First(&listing, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrListingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *gormRepository) Update(ctx context.Context, listing *Listing) error {
	return r.db.WithContext(ctx).Save(listing).Error
}

func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&Listing{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrListingNotFound
	}
	return nil
}

func (r *gormRepository) ListByAgent(ctx context.Context, agentID uuid.UUID) ([]Listing, error) {
	var listings []Listing
	err := r.db.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Order("created_at DESC").
		Find(&listings).Error
	return listings, err
}

func (r *gormRepository) Search(ctx context.Context, filters SearchFilters) ([]Listing, int64, error) {
	query := r.db.WithContext(ctx).Model(&Listing{})

	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.City != "" {
		query = query.Where("LOWER(city) = LOWER(?)", filters.City)
	}
	if filters.Province != "" {
		query = query.Where("LOWER(province) = LOWER(?)", filters.Province)
	}
	if filters.CertificateType != "" {
		query = query.Where("certificate_type = ?", filters.CertificateType)
	}
	if filters.MinPrice > 0 {
		query = query.Where("price >= ?", filters.MinPrice)
	}
	if filters.MaxPrice > 0 {
		query = query.Where("price <= ?", filters.MaxPrice)
	}
	if filters.MinLandAreaSqM > 0 {
		query = query.Where("land_area_sqm >= ?", filters.MinLandAreaSqM)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filters.Page
	if page < 1 {
		page = 1
	}
	pageSize := filters.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var listings []Listing
	err := query.
		Order("published_at DESC NULLS LAST, created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&listings).Error
	if err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

// ExpirePublished archives published listings whose published_at is older
// than the cutoff. Returns the number of listings archived.
func (r *gormRepository) ExpirePublished(ctx context.Context, publishedBefore time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&Listing{}).
		Where("status = ? AND published_at < ?", StatusPublished, publishedBefore).
		Update("status", StatusArchived)
	return result.RowsAffected, result.Error
}
