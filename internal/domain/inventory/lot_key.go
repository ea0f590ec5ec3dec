package inventory

import (
	"fmt"

	"github.com/google/uuid"
)

// LotKey identifies a (product, lot) pair. The zero lot is represented by
// HasLot=false and is never equal to any named lot, including the empty string
// or a sentinel such as "N/A".
type LotKey struct {
	ProductID uuid.UUID
	Lot       string
	HasLot    bool
}

// NewLotKey builds a key for a named lot. An empty lot yields the no-lot key.
func NewLotKey(productID uuid.UUID, lot string) LotKey {
	if lot == "" {
		return LotKey{ProductID: productID}
	}
	return LotKey{ProductID: productID, Lot: lot, HasLot: true}
}

// NoLotKey builds a key for stock that is not lot controlled.
func NoLotKey(productID uuid.UUID) LotKey {
	return LotKey{ProductID: productID}
}

// LotKeyFromPtr builds a key from an optional lot.
func LotKeyFromPtr(productID uuid.UUID, lot *string) LotKey {
	if lot == nil {
		return NoLotKey(productID)
	}
	return NewLotKey(productID, *lot)
}

// Equal compares product and lot. Two no-lot keys of the same product are equal.
func (k LotKey) Equal(other LotKey) bool {
	if k.ProductID != other.ProductID || k.HasLot != other.HasLot {
		return false
	}
	return !k.HasLot || k.Lot == other.Lot
}

// Matches reports whether stock keyed by other satisfies a requirement keyed
// by k. A requirement without lot accepts any lot of the same product.
func (k LotKey) Matches(other LotKey) bool {
	if k.ProductID != other.ProductID {
		return false
	}
	if !k.HasLot {
		return true
	}
	return other.HasLot && other.Lot == k.Lot
}

// LotPtr returns the lot as an optional string.
func (k LotKey) LotPtr() *string {
	if !k.HasLot {
		return nil
	}
	lot := k.Lot
	return &lot
}

func (k LotKey) String() string {
	if !k.HasLot {
		return fmt.Sprintf("%s/-", k.ProductID)
	}
	return fmt.Sprintf("%s/%q", k.ProductID, k.Lot)
}

// PhysicalKey identifies a pickable stock slot: a lot of a product at a location.
type PhysicalKey struct {
	LotKey
	LocationID uuid.UUID
}

// Equal compares lot key and location.
func (k PhysicalKey) Equal(other PhysicalKey) bool {
	return k.LocationID == other.LocationID && k.LotKey.Equal(other.LotKey)
}
