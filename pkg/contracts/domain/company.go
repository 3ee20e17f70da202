package domain

import (
	"time"
)

// Company represents a canonical company identity in the target geography.
// The ID is immutable once assigned; descriptive attributes may be enriched
// as richer observations arrive. The pair (NormalizedName, ZipCode) is unique
// across all identities.
type Company struct {
	ID             string            `json:"id" db:"id" validate:"required,uuid"`
	Name           string            `json:"company_name" db:"company_name" validate:"required,min=1,max=200"`
	NormalizedName string            `json:"normalized_name" db:"normalized_name" validate:"required"`
	Address        string            `json:"address,omitempty" db:"address"`
	City           string            `json:"city,omitempty" db:"city"`
	State          string            `json:"state,omitempty" db:"state"`
	ZipCode        string            `json:"zip_code,omitempty" db:"zip_code"`
	Industry       string            `json:"industry,omitempty" db:"industry"`
	SizeClass      CompanySize       `json:"size_class,omitempty" db:"size_class"`
	ExternalIDs    map[string]string `json:"external_ids,omitempty" db:"external_ids"`
	CreatedAt      time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at" db:"updated_at"`
}

// CompanySize classifies a company by headcount band.
type CompanySize string

const (
	CompanySizeSmall      CompanySize = "small"      // < 50 employees
	CompanySizeMedium     CompanySize = "medium"     // 50-249
	CompanySizeLarge      CompanySize = "large"      // 250-999
	CompanySizeEnterprise CompanySize = "enterprise" // 1000+
)

// MatchKey returns the uniqueness key for this identity.
func (c Company) MatchKey() string {
	return c.NormalizedName + "|" + c.ZipCode
}

// IsValid checks the minimal invariants for a stored identity.
func (c Company) IsValid() bool {
	return c.ID != "" && c.Name != "" && c.NormalizedName != ""
}
