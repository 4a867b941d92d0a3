package listings

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ListingStatus is the moderation/lifecycle state of a listing
type ListingStatus string

const (
	StatusDraft         ListingStatus = "DRAFT"
	StatusPendingReview ListingStatus = "PENDING_REVIEW"
	StatusPublished     ListingStatus = "PUBLISHED"
	StatusRejected      ListingStatus = "REJECTED"
	StatusSold          ListingStatus = "SOLD"
	StatusArchived      ListingStatus = "ARCHIVED"
)

// Listing represents a property listing
type Listing struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AgentID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"agent_id"`
	Title           string         `gorm:"not null" json:"title"`
	Description     string         `json:"description"`
	Price           int64          `gorm:"not null" json:"price"` // IDR
	Address         string         `json:"address"`
	City            string         `gorm:"index" json:"city"`
	Province        string         `json:"province"`
	LandAreaSqM     float64        `json:"land_area_sqm"`
	BuildingAreaSqM float64        `json:"building_area_sqm"`
	Bedrooms        int            `json:"bedrooms"`
	Bathrooms       int            `json:"bathrooms"`
	CertificateType string         `gorm:"index" json:"certificate_type"`
	Photos          datatypes.JSON `json:"photos"`
	Facilities      datatypes.JSON `json:"facilities"`
	Longitude       float64        `json:"longitude"`
	Latitude        float64        `json:"latitude"`
	Status          ListingStatus  `gorm:"not null;default:'DRAFT';index" json:"status"`
	RejectionReason string         `json:"rejection_reason,omitempty"`
	PublishedAt     *time.Time     `json:"published_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// SearchFilters narrows listing searches. Zero values mean "no filter".
type SearchFilters struct {
	City            string
	Province        string
	CertificateType string
	Status          ListingStatus
	MinPrice        int64
	MaxPrice        int64
	MinLandAreaSqM  float64
	CenterLat       float64
	CenterLng       float64
	RadiusKm        float64
	Page            int
	PageSize        int
}

// CreateListingRequest is the payload for creating a listing
type CreateListingRequest struct {
	Title           string   `json:"title" binding:"required"`
	Description     string   `json:"description"`
	Price           int64    `json:"price" binding:"required"`
	Address         string   `json:"address"`
	City            string   `json:"city" binding:"required"`
	Province        string   `json:"province"`
	LandAreaSqM     float64  `json:"land_area_sqm"`
	BuildingAreaSqM float64  `json:"building_area_sqm"`
	Bedrooms        int      `json:"bedrooms"`
	Bathrooms       int      `json:"bathrooms"`
	CertificateType string   `json:"certificate_type"`
	Photos          []string `json:"photos"`
	Facilities      []string `json:"facilities"`
	Longitude       float64  `json:"longitude"`
	Latitude        float64  `json:"latitude"`
}

// UpdateListingRequest is the payload for updating a listing; nil fields are
// left unchanged.
type UpdateListingRequest struct {
	Title           *string   `json:"title"`
	Description     *string   `json:"description"`
	Price           *int64    `json:"price"`
	Address         *string   `json:"address"`
	City            *string   `json:"city"`
	Province        *string   `json:"province"`
	LandAreaSqM     *float64  `json:"land_area_sqm"`
	BuildingAreaSqM *float64  `json:"building_area_sqm"`
	Bedrooms        *int      `json:"bedrooms"`
	Bathrooms       *int      `json:"bathrooms"`
	Photos          *[]string `json:"photos"`
	Facilities      *[]string `json:"facilities"`
}
