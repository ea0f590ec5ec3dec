package persistence

import (
	"errors"

	"gorm.io/gorm"

	"github.com/pharmawms/backend/internal/domain/shared"
)

// notFound maps gorm.ErrRecordNotFound to a NOT_FOUND domain error.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NotFoundf("%s not found", what)
	}
	return err
}
