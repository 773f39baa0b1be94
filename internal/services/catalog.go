package services

import (
	"github.com/shopspring/decimal"

	"shoptill/internal/domain"
	"shoptill/internal/repos"
)

type CatalogService struct {
	Prods *repos.ProductRepo
	Inv   *repos.InventoryRepo
}

func NewCatalogService(prods *repos.ProductRepo, inv *repos.InventoryRepo) *CatalogService {
	return &CatalogService{Prods: prods, Inv: inv}
}

// ProductInfo is the shape the till screen asks for when a line is scanned.
type ProductInfo struct {
	ID    string          `json:"id"`
	SKU   string          `json:"sku"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Qty   int             `json:"qty"`
}

func (s *CatalogService) GetProductInfo(id string) (ProductInfo, error) {
	p, err := s.Prods.Get(id)
	if err != nil {
		return ProductInfo{}, err
	}
	if !p.Active {
		return ProductInfo{}, domain.ErrProductNotFound
	}
	qty, err := s.Inv.Qty(id)
	if err != nil {
		return ProductInfo{}, err
	}
	return ProductInfo{ID: p.ID, SKU: p.SKU, Name: p.Name, Price: p.Price, Qty: qty}, nil
}

func (s *CatalogService) ListProducts(page, pageSize int) ([]domain.Product, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 25
	}
	offset := (page - 1) * pageSize
	return s.Prods.List(pageSize, offset)
}
