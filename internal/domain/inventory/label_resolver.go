package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/domain/shared"
)

// StoreLabelResolver resolves codes through stored associations, then
// through product SKU or GTIN of the scanning tenant.
type StoreLabelResolver struct {
	labels   LabelRepository
	products ProductRepository
}

func NewStoreLabelResolver(labels LabelRepository, products ProductRepository) *StoreLabelResolver {
	return &StoreLabelResolver{labels: labels, products: products}
}

func (r *StoreLabelResolver) Resolve(ctx context.Context, tenantID uuid.UUID, code string) (LabelResolution, error) {
	code = NormalizeLabel(code)
	if code == "" {
		return Unknown(code), nil
	}

	assoc, err := r.labels.FindByCode(ctx, code)
	switch {
	case err == nil:
		product, perr := r.products.FindByID(ctx, assoc.TenantID, assoc.ProductID)
		if perr != nil {
			return LabelResolution{}, perr
		}
		return Found(code, product, assoc), nil
	case !errors.Is(err, shared.ErrNotFound):
		return LabelResolution{}, err
	}

	product, err := r.products.FindByCode(ctx, tenantID, code)
	switch {
	case err == nil:
		return Found(code, product, nil), nil
	case errors.Is(err, shared.ErrNotFound):
		return Unknown(code), nil
	}
	return LabelResolution{}, err
}

var _ LabelResolver = (*StoreLabelResolver)(nil)
