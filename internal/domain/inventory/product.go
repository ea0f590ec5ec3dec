package inventory

import (
	"strings"

	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/domain/shared"
)

// Product is immutable reference data for a stock keeping unit.
type Product struct {
	shared.TenantEntity
	SKU              string
	GTIN             string
	Description      string
	UnitsPerPackage  int64
	LotControlled    bool
	ExpiryControlled bool
}

// NewProduct validates and creates a product.
func NewProduct(tenantID uuid.UUID, sku, description string, unitsPerPackage int64) (*Product, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, shared.BadRequestf("product SKU cannot be empty")
	}
	if unitsPerPackage <= 0 {
		return nil, shared.BadRequestf("units per package must be positive, got %d", unitsPerPackage)
	}
	return &Product{
		TenantEntity:    shared.NewTenantEntity(tenantID),
		SKU:             sku,
		Description:     description,
		UnitsPerPackage: unitsPerPackage,
		LotControlled:   true,
	}, nil
}

// PackageSize returns the units per package, never less than one.
func (p *Product) PackageSize() int64 {
	if p.UnitsPerPackage < 1 {
		return 1
	}
	return p.UnitsPerPackage
}
