package services

import (
	"database/sql"

	"shoptill/internal/domain"
	"shoptill/internal/repos"
)

type InventoryService struct {
	Inv *repos.InventoryRepo
}

func NewInventoryService(inv *repos.InventoryRepo) *InventoryService {
	return &InventoryService{Inv: inv}
}

// CheckAvailability converts a product's stock record into
// IN_STOCK / LOW_STOCK / OUT_OF_STOCK relative to its own threshold.
func (s *InventoryService) CheckAvailability(productID string) (domain.Availability, error) {
	inv, err := s.Inv.Get(productID)
	if err != nil {
		if err == sql.ErrNoRows || err == domain.ErrProductNotFound {
			return domain.Availability{Status: "OUT_OF_STOCK", Qty: 0}, nil
		}
		return domain.Availability{}, err
	}

	status := "OUT_OF_STOCK"
	switch {
	case inv.Quantity > inv.LowStockThreshold:
		status = "IN_STOCK"
	case inv.Quantity > 0:
		status = "LOW_STOCK"
	}
	return domain.Availability{Status: status, Qty: inv.Quantity}, nil
}

func (s *InventoryService) LowStock() ([]repos.LowStockRow, error) {
	return s.Inv.ListLowStock()
}
