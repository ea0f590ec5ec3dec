package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/domain/shared"
)

// LabelAssociation binds a scanned code to a product lot.
type LabelAssociation struct {
	shared.TenantEntity
	Code            string
	ProductID       uuid.UUID
	Lot             string
	ExpiresAt       *time.Time
	UnitsPerPackage int64
}

// NewLabelAssociation validates and creates an association.
func NewLabelAssociation(tenantID uuid.UUID, code string, key LotKey, expiresAt *time.Time, unitsPerPackage int64) (*LabelAssociation, error) {
	code = NormalizeLabel(code)
	if code == "" {
		return nil, shared.BadRequestf("label code cannot be empty")
	}
	if key.ProductID == uuid.Nil {
		return nil, shared.BadRequestf("label must reference a product")
	}
	if unitsPerPackage < 0 {
		return nil, shared.BadRequestf("units per package cannot be negative")
	}
	return &LabelAssociation{
		TenantEntity:    shared.NewTenantEntity(tenantID),
		Code:            code,
		ProductID:       key.ProductID,
		Lot:             key.Lot,
		ExpiresAt:       expiresAt,
		UnitsPerPackage: unitsPerPackage,
	}, nil
}

// Key returns the product lot the label stands for.
func (a *LabelAssociation) Key() LotKey {
	return NewLotKey(a.ProductID, a.Lot)
}

// NormalizeLabel trims scanner noise from a code.
func NormalizeLabel(code string) string {
	return strings.TrimSpace(code)
}

// ResolutionKind tags a LabelResolution.
type ResolutionKind int

const (
	// LabelUnknown means the code matched neither an association nor a product.
	LabelUnknown ResolutionKind = iota
	// LabelFound means the code resolved to a product, with or without a lot.
	LabelFound
)

// LabelResolution is the tagged result of resolving a scanned code.
// Product is set only when Kind is LabelFound. Association is set when the
// code resolved through a stored association, in which case Key carries its
// lot; a code that only matched a product SKU or GTIN has a no-lot Key.
type LabelResolution struct {
	Kind        ResolutionKind
	Code        string
	Key         LotKey
	Product     *Product
	Association *LabelAssociation
	TenantID    uuid.UUID
}

// Unknown builds the unknown variant.
func Unknown(code string) LabelResolution {
	return LabelResolution{Kind: LabelUnknown, Code: code}
}

// Found builds the found variant.
func Found(code string, product *Product, assoc *LabelAssociation) LabelResolution {
	res := LabelResolution{
		Kind:        LabelFound,
		Code:        code,
		Product:     product,
		Association: assoc,
		TenantID:    product.TenantID,
		Key:         NoLotKey(product.ID),
	}
	if assoc != nil {
		res.Key = assoc.Key()
		res.TenantID = assoc.TenantID
	}
	return res
}

func (r LabelResolution) IsFound() bool { return r.Kind == LabelFound }

// HasLot reports whether the resolution pins a specific lot.
func (r LabelResolution) HasLot() bool {
	return r.IsFound() && r.Association != nil
}

// InLot pins a product-level resolution to lot for a single count without
// storing an association.
func (r LabelResolution) InLot(lot string) LabelResolution {
	r.Key = NewLotKey(r.Key.ProductID, lot)
	return r
}

// UnitsPerPackage returns the package size carried by the label, falling
// back to the product's.
func (r LabelResolution) UnitsPerPackage() int64 {
	if r.Association != nil && r.Association.UnitsPerPackage > 0 {
		return r.Association.UnitsPerPackage
	}
	if r.Product != nil {
		return r.Product.PackageSize()
	}
	return 1
}

// LabelResolver turns a scanned code into a tagged resolution. Lookup order
// is association, then product SKU or GTIN. Resolvers never return an error
// for an unknown code; errors are reserved for store failures.
type LabelResolver interface {
	Resolve(ctx context.Context, tenantID uuid.UUID, code string) (LabelResolution, error)
}
